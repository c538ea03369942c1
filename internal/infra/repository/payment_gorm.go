package repository

import (
	"context"

	"github.com/riturajpurohit95/shopSphere-sub000/internal/domain/model"
	repo "github.com/riturajpurohit95/shopSphere-sub000/internal/repository"
	"github.com/shopspring/decimal"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentGormRepository struct {
	db *gorm.DB
}

func NewPaymentGormRepository(db *gorm.DB) *PaymentGormRepository {
	return &PaymentGormRepository{db: db}
}

func (r *PaymentGormRepository) Create(ctx context.Context, p model.Payment) (int64, error) {
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		if isUniqueViolation(err) {
			return 0, repo.ErrDuplicateKey
		}
		return 0, err
	}
	return p.ID, nil
}

func (r *PaymentGormRepository) FindByOrderID(ctx context.Context, orderID int64) (model.Payment, error) {
	return r.find(r.db.WithContext(ctx), orderID)
}

func (r *PaymentGormRepository) LockByOrderID(ctx context.Context, orderID int64) (model.Payment, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), orderID)
}

func (r *PaymentGormRepository) find(q *gorm.DB, orderID int64) (model.Payment, error) {
	var p model.Payment
	err := q.Where("order_id = ?", orderID).First(&p).Error
	if isNotFound(err) {
		return model.Payment{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Payment{}, err
	}
	return p, nil
}

func (r *PaymentGormRepository) UpdateStatus(ctx context.Context, orderID int64, status model.PaymentStatus) error {
	return r.updates(ctx, orderID, map[string]interface{}{"status": status})
}

func (r *PaymentGormRepository) UpdateAmount(ctx context.Context, orderID int64, amount decimal.Decimal) error {
	return r.updates(ctx, orderID, map[string]interface{}{"amount": amount})
}

func (r *PaymentGormRepository) UpdateGateway(ctx context.Context, orderID int64, vpa string, payload string) error {
	return r.updates(ctx, orderID, map[string]interface{}{"gateway_vpa": vpa, "gateway_payload": payload})
}

func (r *PaymentGormRepository) updates(ctx context.Context, orderID int64, values map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&model.Payment{}).
		Where("order_id = ?", orderID).
		Updates(values)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNoRowsAffected
	}
	return nil
}

func (r *PaymentGormRepository) DeleteByOrderID(ctx context.Context, orderID int64) error {
	return r.db.WithContext(ctx).Where("order_id = ?", orderID).Delete(&model.Payment{}).Error
}
