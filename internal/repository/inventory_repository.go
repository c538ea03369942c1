package repository

import (
	"context"

	"github.com/riturajpurohit95/shopSphere-sub000/internal/domain/model"
)

// Stock ledger. Reserve and Release are single atomic statements in the store.
type InventoryRepository interface {
	// Decrements stock by qty only when stock >= qty. false means not enough stock.
	Reserve(ctx context.Context, productID int64, qty int64) (bool, error)

	// Unconditionally adds qty back.
	Release(ctx context.Context, productID int64, qty int64) error

	// Admin correction. Returns the stock before the change.
	SetStock(ctx context.Context, productID int64, newStock int64) (int64, error)

	CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error
}
