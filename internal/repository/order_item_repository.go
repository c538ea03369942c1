package repository

import (
	"context"

	"github.com/riturajpurohit95/shopSphere-sub000/internal/domain/model"
	"github.com/shopspring/decimal"
)

type OrderItemRepository interface {
	Create(ctx context.Context, item model.OrderItem) (int64, error)
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error)
	FindByID(ctx context.Context, itemID int64) (model.OrderItem, error)
	UpdateQuantity(ctx context.Context, itemID int64, qty int64, subtotal decimal.Decimal) error
	DeleteByID(ctx context.Context, itemID int64) error
	DeleteByOrderID(ctx context.Context, orderID int64) error
}
