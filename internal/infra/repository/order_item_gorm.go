package repository

import (
	"context"

	"github.com/riturajpurohit95/shopSphere-sub000/internal/domain/model"
	repo "github.com/riturajpurohit95/shopSphere-sub000/internal/repository"
	"github.com/shopspring/decimal"

	"gorm.io/gorm"
)

type OrderItemGormRepository struct {
	db *gorm.DB
}

func NewOrderItemGormRepository(db *gorm.DB) *OrderItemGormRepository {
	return &OrderItemGormRepository{db: db}
}

func (r *OrderItemGormRepository) Create(ctx context.Context, item model.OrderItem) (int64, error) {
	if err := r.db.WithContext(ctx).Create(&item).Error; err != nil {
		return 0, err
	}
	return item.ID, nil
}

func (r *OrderItemGormRepository) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	var items []model.OrderItem
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id asc").
		Find(&items).Error; err != nil {
		return []model.OrderItem{}, err
	}
	return items, nil
}

func (r *OrderItemGormRepository) FindByID(ctx context.Context, itemID int64) (model.OrderItem, error) {
	var it model.OrderItem
	err := r.db.WithContext(ctx).Where("id = ?", itemID).First(&it).Error
	if isNotFound(err) {
		return model.OrderItem{}, repo.ErrNotFound
	}
	if err != nil {
		return model.OrderItem{}, err
	}
	return it, nil
}

func (r *OrderItemGormRepository) UpdateQuantity(ctx context.Context, itemID int64, qty int64, subtotal decimal.Decimal) error {
	res := r.db.WithContext(ctx).Model(&model.OrderItem{}).
		Where("id = ?", itemID).
		Updates(map[string]interface{}{"quantity": qty, "subtotal": subtotal})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNoRowsAffected
	}
	return nil
}

func (r *OrderItemGormRepository) DeleteByID(ctx context.Context, itemID int64) error {
	res := r.db.WithContext(ctx).Delete(&model.OrderItem{}, itemID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *OrderItemGormRepository) DeleteByOrderID(ctx context.Context, orderID int64) error {
	return r.db.WithContext(ctx).Where("order_id = ?", orderID).Delete(&model.OrderItem{}).Error
}
