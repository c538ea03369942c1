package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/riturajpurohit95/shopSphere-sub000/internal/domain/model"
	"github.com/riturajpurohit95/shopSphere-sub000/internal/events"
	"github.com/riturajpurohit95/shopSphere-sub000/internal/metrics"
	repo "github.com/riturajpurohit95/shopSphere-sub000/internal/repository"
)

type AdminOrderUsecase struct {
	tx     repo.TransactionManager
	orders *OrderUsecase
	notify *notifier
}

func NewAdminOrderUsecase(tx repo.TransactionManager, orders *OrderUsecase, pub events.Publisher, m *metrics.Metrics) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, orders: orders, notify: newNotifier(pub, m)}
}

type AdminOrderListInput struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
	From   string
	To     string
}

func (u *AdminOrderUsecase) List(ctx context.Context, in AdminOrderListInput) (OrderListOutput, error) {
	if in.Page < 1 {
		return OrderListOutput{}, validationError("invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return OrderListOutput{}, validationError("invalid limit")
	}

	f := repo.AdminOrderListFilter{Page: in.Page, Limit: in.Limit, UserID: in.UserID}
	if strings.TrimSpace(in.Status) != "" {
		s, ok := model.ParseOrderStatus(in.Status)
		if !ok {
			return OrderListOutput{}, validationError("invalid status")
		}
		f.Status = string(s)
	}
	var ok bool
	if f.From, ok = parseDateTimeRFC3339(in.From); !ok {
		return OrderListOutput{}, validationError("invalid from")
	}
	if f.To, ok = parseDateTimeRFC3339(in.To); !ok {
		return OrderListOutput{}, validationError("invalid to")
	}

	out := OrderListOutput{Page: in.Page, Limit: in.Limit}
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListAdmin(ctx, f)
		if err != nil {
			return dbError()
		}
		out.Total = total
		out.Items, err = loadOrderOutputs(ctx, r, orders)
		return err
	})
	if err != nil {
		return OrderListOutput{}, txError(err)
	}
	return out, nil
}

func (u *AdminOrderUsecase) Get(ctx context.Context, orderID int64) (OrderOutput, error) {
	return u.orders.GetOrder(ctx, orderID)
}

// UpdateStatus is UpdateOrderStatus plus an audit entry in the same transaction.
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorAdminUserID, orderID int64, status string) error {
	if actorAdminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	next, ok := model.ParseOrderStatus(status)
	if !ok {
		return validationError("invalid status")
	}
	if orderID <= 0 {
		return validationError("invalid order id")
	}

	var t statusTransition
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().LockByID(ctx, orderID)
		if err != nil {
			return storeError(err, "order")
		}
		if t, err = applyOrderStatus(ctx, r, o, next); err != nil {
			return err
		}
		if !t.orderChanged() {
			return nil
		}
		return writeAudit(ctx, r, actorAdminUserID, model.AuditActionUpdateOrderStatus, model.AuditResourceOrder, orderID,
			statusJSON(string(t.OrderFrom)), statusJSON(string(t.OrderTo)))
	})
	if err != nil {
		return txError(err)
	}
	u.notify.transition(ctx, t)
	return nil
}

func (u *AdminOrderUsecase) UpdatePaymentStatus(ctx context.Context, actorAdminUserID, orderID int64, status string) error {
	if actorAdminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	next, ok := model.ParsePaymentStatus(status)
	if !ok {
		return validationError("invalid payment status")
	}
	if orderID <= 0 {
		return validationError("invalid order id")
	}

	var t statusTransition
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().LockByID(ctx, orderID)
		if err != nil {
			return storeError(err, "order")
		}
		if t, err = applyPaymentStatus(ctx, r, o, next); err != nil {
			return err
		}
		if !t.paymentChanged() {
			return nil
		}
		return writeAudit(ctx, r, actorAdminUserID, model.AuditActionUpdatePaymentStatus, model.AuditResourcePayment, orderID,
			statusJSON(string(t.PaymentFrom)), statusJSON(string(t.PaymentTo)))
	})
	if err != nil {
		return txError(err)
	}
	u.notify.transition(ctx, t)
	return nil
}

func (u *AdminOrderUsecase) Cancel(ctx context.Context, actorAdminUserID, orderID int64) (OrderOutput, error) {
	if actorAdminUserID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return u.orders.cancel(ctx, orderID, nil, func(r repo.TxRepos, t statusTransition) error {
		return writeAudit(ctx, r, actorAdminUserID, model.AuditActionCancelOrder, model.AuditResourceOrder, orderID,
			statusJSON(string(t.OrderFrom)), statusJSON(string(t.OrderTo)))
	})
}

// Delete removes the order with its items and payment. Stock is not restored.
func (u *AdminOrderUsecase) Delete(ctx context.Context, actorAdminUserID, orderID int64) error {
	if actorAdminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return validationError("invalid order id")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().LockByID(ctx, orderID)
		if err != nil {
			return storeError(err, "order")
		}
		if err := r.OrderItems().DeleteByOrderID(ctx, orderID); err != nil {
			return dbError()
		}
		if err := r.Payments().DeleteByOrderID(ctx, orderID); err != nil {
			return dbError()
		}
		if err := r.Orders().Delete(ctx, orderID); err != nil {
			return storeError(err, "order")
		}
		return writeAudit(ctx, r, actorAdminUserID, model.AuditActionDeleteOrder, model.AuditResourceOrder, orderID,
			statusJSON(string(o.Status)), "{}")
	})
	if err != nil {
		return txError(err)
	}

	u.notify.publish(ctx, events.TopicOrderDeleted, events.EventOrderDeleted, orderID, events.OrderDeletedPayload{
		OrderID: orderID,
		ActorID: actorAdminUserID,
	})
	return nil
}

func writeAudit(ctx context.Context, r repo.TxRepos, actorID int64, action model.AuditAction, resource model.AuditResourceType, resourceID int64, before, after string) error {
	if err := r.AuditLogs().Create(ctx, model.AuditLog{
		ActorUserID:  actorID,
		Action:       action,
		ResourceType: resource,
		ResourceID:   resourceID,
		BeforeJSON:   before,
		AfterJSON:    after,
		CreatedAt:    time.Now(),
	}); err != nil {
		return dbError()
	}
	return nil
}

func statusJSON(status string) string {
	return `{"status":"` + status + `"}`
}

// empty input means no bound; ok is false only for a malformed value
func parseDateTimeRFC3339(s string) (*time.Time, bool) {
	if strings.TrimSpace(s) == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, false
	}
	return &t, true
}
