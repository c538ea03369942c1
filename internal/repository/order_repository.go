package repository

import (
	"context"
	"time"

	"github.com/riturajpurohit95/shopSphere-sub000/internal/domain/model"
	"github.com/shopspring/decimal"
)

type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
	From   *time.Time
	To     *time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	// Same as FindByID but holds a row lock until the transaction ends.
	LockByID(ctx context.Context, orderID int64) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
	// PENDING orders created before the cutoff, oldest first.
	ListStalePending(ctx context.Context, before time.Time, limit int) ([]model.Order, error)
	FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error)

	Create(ctx context.Context, order model.Order) (int64, error)
	UpdateTotal(ctx context.Context, orderID int64, total decimal.Decimal) error
	UpdateDeliveryEstimate(ctx context.Context, orderID int64, days int) error
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error
	UpdatePaymentStatus(ctx context.Context, orderID int64, status model.PaymentStatus) error
	Delete(ctx context.Context, orderID int64) error
}
