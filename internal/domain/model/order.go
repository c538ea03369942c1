package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
	OrderStatusExpired    OrderStatus = "EXPIRED"
	OrderStatusRefunded   OrderStatus = "REFUNDED"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered,
		OrderStatusCancelled, OrderStatusExpired, OrderStatusRefunded:
		return true
	}
	return false
}

func ParseOrderStatus(raw string) (OrderStatus, bool) {
	s := OrderStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", false
	}
	return s, true
}

// PaymentStatus on the order is a read copy; the payments row is authoritative.
type Order struct {
	ID                    int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID                int64           `gorm:"not null;index" json:"user_id"`
	ShippingAddress       string          `gorm:"type:text;not null" json:"shipping_address"`
	Status                OrderStatus     `gorm:"type:varchar(20);not null;index:idx_orders_status_created,priority:1" json:"status"`
	TotalAmount           decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_amount"`
	PaymentMethod         PaymentMethod   `gorm:"type:varchar(10);not null" json:"payment_method"`
	PaymentStatus         PaymentStatus   `gorm:"type:varchar(20);not null" json:"payment_status"`
	BuyerHub              int             `gorm:"not null;default:0" json:"buyer_hub"`
	EstimatedDeliveryDays int             `gorm:"not null;default:0" json:"estimated_delivery_days"`
	IdempotencyKey        *string         `gorm:"type:varchar(255)" json:"-"`
	CreatedAt             time.Time       `gorm:"not null;autoCreateTime;index:idx_orders_status_created,priority:2" json:"created_at"`
	UpdatedAt             time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
