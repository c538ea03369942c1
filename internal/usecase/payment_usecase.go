package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/riturajpurohit95/shopSphere-sub000/internal/domain/model"
	"github.com/riturajpurohit95/shopSphere-sub000/internal/events"
	"github.com/riturajpurohit95/shopSphere-sub000/internal/gateway"
	"github.com/riturajpurohit95/shopSphere-sub000/internal/metrics"
	repo "github.com/riturajpurohit95/shopSphere-sub000/internal/repository"
)

// Deduper remembers which payment result events were already applied.
type Deduper interface {
	Claim(ctx context.Context, id string) (bool, error)
	Release(ctx context.Context, id string) error
}

type PaymentUsecase struct {
	tx     repo.TransactionManager
	gw     gateway.Gateway
	dedup  Deduper
	sync   *Synchronizer
	notify *notifier
}

// dedup may be nil, in which case every result is applied.
func NewPaymentUsecase(tx repo.TransactionManager, gw gateway.Gateway, dedup Deduper, sync *Synchronizer, pub events.Publisher, m *metrics.Metrics) *PaymentUsecase {
	return &PaymentUsecase{tx: tx, gw: gw, dedup: dedup, sync: sync, notify: newNotifier(pub, m)}
}

// ConfirmPayment asks the gateway about a UPI order and applies the outcome.
func (u *PaymentUsecase) ConfirmPayment(ctx context.Context, userID, orderID int64, vpa string) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, validationError("invalid order id")
	}
	vpa = strings.TrimSpace(vpa)
	if vpa == "" {
		return OrderOutput{}, validationError("vpa required")
	}

	var out OrderOutput
	settled := false
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return storeError(err, "order")
		}
		if o.UserID != userID {
			return notFoundError("order not found")
		}
		if o.PaymentMethod != model.PaymentMethodUPI {
			return validationError("order is not a UPI order")
		}
		p, err := r.Payments().FindByOrderID(ctx, orderID)
		if err != nil {
			return storeError(err, "payment")
		}
		if p.Status.IsTerminal() {
			return newKindError(ErrPaymentAlreadyCompleted, "payment is already "+string(p.Status))
		}
		if p.Status == model.PaymentStatusPaid {
			settled = true
			out, err = loadOrderOutput(ctx, r, orderID)
			return err
		}
		return nil
	})
	if err != nil {
		return OrderOutput{}, txError(err)
	}
	if settled {
		return out, nil
	}

	outcome, err := u.gw.ConfirmPayment(ctx, orderID, vpa)
	if err != nil {
		log.Printf("gateway order=%d: %v", orderID, err)
		return OrderOutput{}, newKindError(ErrGatewayUnavailable, "payment gateway unavailable")
	}

	next := model.PaymentStatusFailed
	if outcome == gateway.OutcomePaid {
		next = model.PaymentStatusPaid
	}

	var t statusTransition
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().LockByID(ctx, orderID)
		if err != nil {
			return storeError(err, "order")
		}
		payload := fmt.Sprintf(`{"outcome":%q}`, string(outcome))
		if err := r.Payments().UpdateGateway(ctx, orderID, vpa, payload); err != nil {
			return storeError(err, "payment")
		}
		if t, err = applyPaymentStatus(ctx, r, o, next); err != nil {
			return err
		}
		out, err = loadOrderOutput(ctx, r, orderID)
		return err
	})
	if err != nil {
		return OrderOutput{}, txError(err)
	}
	u.notify.transition(ctx, t)
	return out, nil
}

type PaymentResultInput struct {
	EventID string
	OrderID int64
	Status  string
}

// HandlePaymentResult applies a gateway decision delivered by webhook or Kafka.
// Redelivered events and results for an already settled payment succeed without effect.
func (u *PaymentUsecase) HandlePaymentResult(ctx context.Context, in PaymentResultInput) error {
	eventID := strings.TrimSpace(in.EventID)
	if eventID == "" {
		return validationError("event_id required")
	}
	if _, ok := model.ParsePaymentStatus(in.Status); !ok {
		return validationError("invalid payment status")
	}
	if in.OrderID <= 0 {
		return validationError("invalid order id")
	}

	if u.dedup != nil {
		claimed, err := u.dedup.Claim(ctx, eventID)
		if err != nil {
			log.Printf("dedup claim %s: %v", eventID, err)
			return NewHTTPError(http.StatusServiceUnavailable, "dedup store unavailable")
		}
		if !claimed {
			return nil
		}
	}

	err := u.sync.UpdatePaymentStatus(ctx, in.OrderID, in.Status)
	if err == nil || errors.Is(err, ErrPaymentAlreadyCompleted) {
		return nil
	}

	if u.dedup != nil {
		if rerr := u.dedup.Release(ctx, eventID); rerr != nil {
			log.Printf("dedup release %s: %v", eventID, rerr)
		}
	}
	return err
}
