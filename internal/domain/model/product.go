package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stock is mutated only through the inventory ledger (Reserve/Release/SetStock).
type Product struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	SellerID  int64           `gorm:"not null;index" json:"seller_id"`
	SellerHub int             `gorm:"not null;default:0" json:"seller_hub"`
	Name      string          `gorm:"type:varchar(255);not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Stock     int64           `gorm:"not null" json:"stock"`
	IsActive  bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
