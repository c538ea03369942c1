package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	EventOrderCreated         = "OrderCreated"
	EventOrderStatusChanged   = "OrderStatusChanged"
	EventPaymentStatusChanged = "PaymentStatusChanged"
	EventOrderExpired         = "OrderExpired"
	EventOrderDeleted         = "OrderDeleted"
	EventPaymentResult        = "PaymentResult"
)

const (
	TopicOrderCreated         = "order.created"
	TopicOrderStatusChanged   = "order.status.changed"
	TopicPaymentStatusChanged = "order.payment.changed"
	TopicOrderExpired         = "order.expired"
	TopicOrderDeleted         = "order.deleted"
	TopicPaymentResults       = "payment.results"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// NewEnvelope wraps payload for an order; the order id doubles as correlation id and partition key.
func NewEnvelope(producer string, eventType string, orderID int64, payload any) (Envelope, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		CorrelationID: strconv.FormatInt(orderID, 10),
		Payload:       b,
	}, nil
}

func UnwrapPayload[T any](payload json.RawMessage) (T, error) {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return t, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}

type OrderItemPayload struct {
	ProductID int64  `json:"product_id"`
	SellerID  int64  `json:"seller_id"`
	Quantity  int64  `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

type OrderCreatedPayload struct {
	OrderID       int64              `json:"order_id"`
	UserID        int64              `json:"user_id"`
	PaymentMethod string             `json:"payment_method"`
	TotalAmount   string             `json:"total_amount"`
	Items         []OrderItemPayload `json:"items"`
}

type OrderStatusChangedPayload struct {
	OrderID       int64  `json:"order_id"`
	From          string `json:"from"`
	To            string `json:"to"`
	PaymentStatus string `json:"payment_status"`
}

type PaymentStatusChangedPayload struct {
	OrderID     int64  `json:"order_id"`
	From        string `json:"from"`
	To          string `json:"to"`
	OrderStatus string `json:"order_status"`
}

type OrderExpiredPayload struct {
	OrderID       int64 `json:"order_id"`
	ReleasedUnits int64 `json:"released_units"`
}

type OrderDeletedPayload struct {
	OrderID int64 `json:"order_id"`
	ActorID int64 `json:"actor_id"`
}

// Inbound gateway decision, consumed from TopicPaymentResults.
type PaymentResultPayload struct {
	OrderID int64  `json:"order_id"`
	Status  string `json:"status"`
}

// Publisher is best-effort: a failure is reported but never undoes the committed change.
type Publisher interface {
	Publish(ctx context.Context, topic string, key string, env Envelope) error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, string, Envelope) error { return nil }
