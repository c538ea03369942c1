package repository

import (
	"context"

	"github.com/riturajpurohit95/shopSphere-sub000/internal/domain/model"
	"github.com/shopspring/decimal"
)

type PaymentRepository interface {
	Create(ctx context.Context, p model.Payment) (int64, error)
	FindByOrderID(ctx context.Context, orderID int64) (model.Payment, error)
	// Row-locked read for the status synchronizer.
	LockByOrderID(ctx context.Context, orderID int64) (model.Payment, error)
	UpdateStatus(ctx context.Context, orderID int64, status model.PaymentStatus) error
	UpdateAmount(ctx context.Context, orderID int64, amount decimal.Decimal) error
	UpdateGateway(ctx context.Context, orderID int64, vpa string, payload string) error
	DeleteByOrderID(ctx context.Context, orderID int64) error
}
