package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Name, price and seller are captured at order time and never re-read from the product.
type OrderItem struct {
	ID                  int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID             int64           `gorm:"not null;index" json:"order_id"`
	ProductID           int64           `gorm:"not null;index" json:"product_id"`
	SellerID            int64           `gorm:"not null" json:"seller_id"`
	ProductNameSnapshot string          `gorm:"type:varchar(255);not null" json:"product_name_snapshot"`
	UnitPriceSnapshot   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price_snapshot"`
	Quantity            int64           `gorm:"not null" json:"quantity"`
	Subtotal            decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	CreatedAt           time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func LineSubtotal(unitPrice decimal.Decimal, qty int64) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(qty))
}
