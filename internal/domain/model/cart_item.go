package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Every item of a cart belongs to the same seller. A product appears at most once per cart.
type CartItem struct {
	ID                int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	CartID            int64           `gorm:"not null;index" json:"cart_id"`
	ProductID         int64           `gorm:"not null;index" json:"product_id"`
	Quantity          int64           `gorm:"not null" json:"quantity"`
	UnitPriceSnapshot decimal.Decimal `gorm:"type:numeric(12,2);not null;column:unit_price_snapshot" json:"unit_price_snapshot"`
	CreatedAt         time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
