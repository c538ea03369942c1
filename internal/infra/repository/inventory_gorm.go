package repository

import (
	"context"
	"errors"

	"github.com/riturajpurohit95/shopSphere-sub000/internal/domain/model"
	repo "github.com/riturajpurohit95/shopSphere-sub000/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

// One conditional UPDATE; the row count decides the reservation.
func (r *InventoryGormRepository) Reserve(ctx context.Context, productID int64, qty int64) (bool, error) {
	if qty <= 0 {
		return false, errors.New("reserve: quantity must be positive")
	}

	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		Update("stock", gorm.Expr("stock - ?", qty))

	if res.Error != nil {
		// stock >= 0 CHECK is the backstop if the predicate is ever bypassed
		if isCheckViolation(res.Error) {
			return false, nil
		}
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	return true, nil
}

func (r *InventoryGormRepository) Release(ctx context.Context, productID int64, qty int64) error {
	if qty <= 0 {
		return nil
	}

	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", productID).
		Update("stock", gorm.Expr("stock + ?", qty))

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *InventoryGormRepository) SetStock(ctx context.Context, productID int64, newStock int64) (int64, error) {
	var p model.Product
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", productID).
		First(&p).Error
	if isNotFound(err) {
		return 0, repo.ErrNotFound
	}
	if err != nil {
		return 0, err
	}

	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", productID).
		Update("stock", newStock)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, repo.ErrNoRowsAffected
	}
	return p.Stock, nil
}

func (r *InventoryGormRepository) CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error {
	return r.db.WithContext(ctx).Create(&adj).Error
}
