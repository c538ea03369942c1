package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentMethodCOD PaymentMethod = "COD"
	PaymentMethodUPI PaymentMethod = "UPI"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCOD || m == PaymentMethodUPI
}

func ParsePaymentMethod(raw string) (PaymentMethod, bool) {
	m := PaymentMethod(strings.ToUpper(strings.TrimSpace(raw)))
	if !m.Valid() {
		return "", false
	}
	return m, true
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// FAILED and REFUNDED accept no further external transition.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusFailed || s == PaymentStatusRefunded
}

func ParsePaymentStatus(raw string) (PaymentStatus, bool) {
	s := PaymentStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", false
	}
	return s, true
}

const DefaultCurrency = "INR"

type Payment struct {
	ID             int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID        int64           `gorm:"not null;uniqueIndex" json:"order_id"`
	UserID         int64           `gorm:"not null;index" json:"user_id"`
	Amount         decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Currency       string          `gorm:"type:varchar(3);not null" json:"currency"`
	Method         PaymentMethod   `gorm:"type:varchar(10);not null" json:"method"`
	Status         PaymentStatus   `gorm:"type:varchar(20);not null" json:"status"`
	GatewayRef     string          `gorm:"type:varchar(64)" json:"gateway_ref"`
	GatewayVPA     string          `gorm:"type:varchar(255)" json:"gateway_vpa"`
	GatewayPayload string          `gorm:"type:text" json:"gateway_payload"`
	CreatedAt      time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
