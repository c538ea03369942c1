package repository

import (
	"context"

	"github.com/riturajpurohit95/shopSphere-sub000/internal/domain/model"
)

// Catalog lookups. Stock changes go through InventoryRepository.
type ProductRepository interface {
	FindByID(ctx context.Context, id int64) (model.Product, error)
	Create(ctx context.Context, p model.Product) (model.Product, error)
}
