package usecase

import (
	"context"
	"log"

	"github.com/riturajpurohit95/shopSphere-sub000/internal/domain/model"
	"github.com/riturajpurohit95/shopSphere-sub000/internal/events"
	"github.com/riturajpurohit95/shopSphere-sub000/internal/metrics"
)

const eventProducer = "shopsphere-orders"

// notifier runs after commit. Nothing it does can fail the operation.
type notifier struct {
	pub     events.Publisher
	metrics *metrics.Metrics
}

func newNotifier(pub events.Publisher, m *metrics.Metrics) *notifier {
	if pub == nil {
		pub = events.NopPublisher{}
	}
	return &notifier{pub: pub, metrics: m}
}

func (n *notifier) publish(ctx context.Context, topic string, eventType string, orderID int64, payload any) {
	env, err := events.NewEnvelope(eventProducer, eventType, orderID, payload)
	if err != nil {
		log.Printf("event %s order=%d: %v", eventType, orderID, err)
		return
	}
	if err := n.pub.Publish(ctx, topic, env.CorrelationID, env); err != nil {
		log.Printf("publish %s order=%d: %v", eventType, orderID, err)
	}
}

// statusTransition is what one synchronizer step changed.
type statusTransition struct {
	OrderID     int64
	OrderFrom   model.OrderStatus
	OrderTo     model.OrderStatus
	PaymentFrom model.PaymentStatus
	PaymentTo   model.PaymentStatus
}

func (t statusTransition) orderChanged() bool   { return t.OrderFrom != t.OrderTo }
func (t statusTransition) paymentChanged() bool { return t.PaymentFrom != t.PaymentTo }

func (n *notifier) transition(ctx context.Context, t statusTransition) {
	if t.orderChanged() {
		n.publish(ctx, events.TopicOrderStatusChanged, events.EventOrderStatusChanged, t.OrderID, events.OrderStatusChangedPayload{
			OrderID:       t.OrderID,
			From:          string(t.OrderFrom),
			To:            string(t.OrderTo),
			PaymentStatus: string(t.PaymentTo),
		})
		if t.OrderTo == model.OrderStatusCancelled {
			n.metrics.OrderCancelled(ctx)
		}
	}
	if t.paymentChanged() {
		n.publish(ctx, events.TopicPaymentStatusChanged, events.EventPaymentStatusChanged, t.OrderID, events.PaymentStatusChangedPayload{
			OrderID:     t.OrderID,
			From:        string(t.PaymentFrom),
			To:          string(t.PaymentTo),
			OrderStatus: string(t.OrderTo),
		})
		n.metrics.PaymentTransition(ctx, string(t.PaymentFrom), string(t.PaymentTo))
	}
}
