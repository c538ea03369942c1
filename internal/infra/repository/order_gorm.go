package repository

import (
	"context"
	"time"

	"github.com/riturajpurohit95/shopSphere-sub000/internal/domain/model"
	repo "github.com/riturajpurohit95/shopSphere-sub000/internal/repository"
	"github.com/shopspring/decimal"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	return r.find(r.db.WithContext(ctx), orderID)
}

func (r *OrderGormRepository) LockByID(ctx context.Context, orderID int64) (model.Order, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), orderID)
}

func (r *OrderGormRepository) find(q *gorm.DB, orderID int64) (model.Order, error) {
	var o model.Order
	err := q.Where("id = ?", orderID).First(&o).Error
	if isNotFound(err) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func (r *OrderGormRepository) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	var items []model.Order
	offset := (page - 1) * limit
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id desc").
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	if err != nil {
		return []model.Order{}, 0, err
	}

	return items, total, nil
}

func (r *OrderGormRepository) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}

	q := r.db.WithContext(ctx).Model(&model.Order{})

	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	var items []model.Order
	offset := (f.Page - 1) * f.Limit
	if err := q.Order("id desc").Limit(f.Limit).Offset(offset).Find(&items).Error; err != nil {
		return []model.Order{}, 0, err
	}

	return items, total, nil
}

func (r *OrderGormRepository) ListStalePending(ctx context.Context, before time.Time, limit int) ([]model.Order, error) {
	if limit <= 0 {
		limit = 100
	}

	var items []model.Order
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", model.OrderStatusPending, before).
		Order("created_at asc").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return []model.Order{}, err
	}
	return items, nil
}

func (r *OrderGormRepository) FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND idempotency_key = ?", userID, key).
		First(&o).Error

	if isNotFound(err) {
		return model.Order{}, false, nil
	}
	if err != nil {
		return model.Order{}, false, err
	}
	return o, true, nil
}

func (r *OrderGormRepository) Create(ctx context.Context, order model.Order) (int64, error) {
	if err := r.db.WithContext(ctx).Create(&order).Error; err != nil {
		if isUniqueViolation(err) {
			return 0, repo.ErrDuplicateKey
		}
		return 0, err
	}
	return order.ID, nil
}

func (r *OrderGormRepository) UpdateTotal(ctx context.Context, orderID int64, total decimal.Decimal) error {
	return r.updateColumn(ctx, orderID, "total_amount", total)
}

func (r *OrderGormRepository) UpdateDeliveryEstimate(ctx context.Context, orderID int64, days int) error {
	return r.updateColumn(ctx, orderID, "estimated_delivery_days", days)
}

func (r *OrderGormRepository) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	return r.updateColumn(ctx, orderID, "status", status)
}

func (r *OrderGormRepository) UpdatePaymentStatus(ctx context.Context, orderID int64, status model.PaymentStatus) error {
	return r.updateColumn(ctx, orderID, "payment_status", status)
}

func (r *OrderGormRepository) updateColumn(ctx context.Context, orderID int64, column string, value interface{}) error {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Update(column, value)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNoRowsAffected
	}
	return nil
}

func (r *OrderGormRepository) Delete(ctx context.Context, orderID int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Order{}, orderID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
