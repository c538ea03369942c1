package usecase

import (
	"context"
	"errors"

	"github.com/riturajpurohit95/shopSphere-sub000/internal/domain/model"
	"github.com/riturajpurohit95/shopSphere-sub000/internal/events"
	"github.com/riturajpurohit95/shopSphere-sub000/internal/metrics"
	repo "github.com/riturajpurohit95/shopSphere-sub000/internal/repository"
)

// Synchronizer keeps order status and payment status consistent. Each direction
// runs in one transaction and is a no-op when the target equals the current value.
type Synchronizer struct {
	tx     repo.TransactionManager
	notify *notifier
}

func NewSynchronizer(tx repo.TransactionManager, pub events.Publisher, m *metrics.Metrics) *Synchronizer {
	return &Synchronizer{tx: tx, notify: newNotifier(pub, m)}
}

func (s *Synchronizer) UpdateOrderStatus(ctx context.Context, orderID int64, status string) error {
	next, ok := model.ParseOrderStatus(status)
	if !ok {
		return validationError("invalid status")
	}
	if orderID <= 0 {
		return validationError("invalid order id")
	}

	var t statusTransition
	err := s.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().LockByID(ctx, orderID)
		if err != nil {
			return storeError(err, "order")
		}
		t, err = applyOrderStatus(ctx, r, o, next)
		return err
	})
	if err != nil {
		return txError(err)
	}
	s.notify.transition(ctx, t)
	return nil
}

func (s *Synchronizer) UpdatePaymentStatus(ctx context.Context, orderID int64, status string) error {
	next, ok := model.ParsePaymentStatus(status)
	if !ok {
		return validationError("invalid payment status")
	}
	if orderID <= 0 {
		return validationError("invalid order id")
	}

	var t statusTransition
	err := s.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().LockByID(ctx, orderID)
		if err != nil {
			return storeError(err, "order")
		}
		t, err = applyPaymentStatus(ctx, r, o, next)
		return err
	})
	if err != nil {
		return txError(err)
	}
	s.notify.transition(ctx, t)
	return nil
}

// applyOrderStatus persists next on a locked order and pushes the derived
// payment status. Terminal payments are left alone. An EXPIRED order has
// already given its stock back and cannot move again.
func applyOrderStatus(ctx context.Context, r repo.TxRepos, o model.Order, next model.OrderStatus) (statusTransition, error) {
	t := statusTransition{
		OrderID:     o.ID,
		OrderFrom:   o.Status,
		OrderTo:     o.Status,
		PaymentFrom: o.PaymentStatus,
		PaymentTo:   o.PaymentStatus,
	}
	if o.Status == next {
		return t, nil
	}
	if o.Status == model.OrderStatusExpired {
		return t, newKindError(ErrOrderAlreadyProcessed, "order is already EXPIRED")
	}

	if err := r.Orders().UpdateStatus(ctx, o.ID, next); err != nil {
		return t, storeError(err, "order")
	}
	t.OrderTo = next

	p, err := r.Payments().LockByOrderID(ctx, o.ID)
	if errors.Is(err, repo.ErrNotFound) {
		return t, nil
	}
	if err != nil {
		return t, dbError()
	}
	t.PaymentFrom, t.PaymentTo = p.Status, p.Status

	if p.Status.IsTerminal() {
		return t, nil
	}
	target := PaymentStatusForOrder(p.Method, next)
	if target == p.Status {
		return t, nil
	}

	if err := r.Payments().UpdateStatus(ctx, o.ID, target); err != nil {
		return t, storeError(err, "payment")
	}
	if err := r.Orders().UpdatePaymentStatus(ctx, o.ID, target); err != nil {
		return t, storeError(err, "order")
	}
	t.PaymentTo = target
	return t, nil
}

// applyPaymentStatus sets the payment of a locked order and derives the next order status.
func applyPaymentStatus(ctx context.Context, r repo.TxRepos, o model.Order, next model.PaymentStatus) (statusTransition, error) {
	t := statusTransition{
		OrderID:   o.ID,
		OrderFrom: o.Status,
		OrderTo:   o.Status,
	}

	p, err := r.Payments().LockByOrderID(ctx, o.ID)
	if err != nil {
		return t, storeError(err, "payment")
	}
	t.PaymentFrom, t.PaymentTo = p.Status, p.Status

	if p.Status == next {
		return t, nil
	}
	if p.Status.IsTerminal() {
		return t, newKindError(ErrPaymentAlreadyCompleted, "payment is already "+string(p.Status))
	}

	if err := r.Payments().UpdateStatus(ctx, o.ID, next); err != nil {
		return t, storeError(err, "payment")
	}
	if err := r.Orders().UpdatePaymentStatus(ctx, o.ID, next); err != nil {
		return t, storeError(err, "order")
	}
	t.PaymentTo = next

	nextOrder := OrderStatusForPayment(o.Status, next)
	if nextOrder != o.Status {
		if err := r.Orders().UpdateStatus(ctx, o.ID, nextOrder); err != nil {
			return t, storeError(err, "order")
		}
		t.OrderTo = nextOrder
	}
	return t, nil
}
