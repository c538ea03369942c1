package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/riturajpurohit95/shopSphere-sub000/internal/domain/model"
	repo "github.com/riturajpurohit95/shopSphere-sub000/internal/repository"
)

type OrderItemOutput struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	SellerID  int64  `json:"seller_id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Quantity  int64  `json:"quantity"`
	Subtotal  string `json:"subtotal"`
}

type OrderOutput struct {
	ID                    int64             `json:"id"`
	UserID                int64             `json:"user_id"`
	Status                string            `json:"status"`
	TotalAmount           string            `json:"total_amount"`
	ShippingAddress       string            `json:"shipping_address"`
	PaymentMethod         string            `json:"payment_method"`
	PaymentStatus         string            `json:"payment_status"`
	GatewayRef            string            `json:"gateway_ref,omitempty"`
	EstimatedDeliveryDays int               `json:"estimated_delivery_days"`
	CreatedAt             time.Time         `json:"created_at"`
	Items                 []OrderItemOutput `json:"items"`
}

type OrderListOutput struct {
	Items []OrderOutput `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

func toOrderOutput(o model.Order, items []model.OrderItem, p *model.Payment) OrderOutput {
	out := OrderOutput{
		ID:                    o.ID,
		UserID:                o.UserID,
		Status:                string(o.Status),
		TotalAmount:           o.TotalAmount.StringFixed(2),
		ShippingAddress:       o.ShippingAddress,
		PaymentMethod:         string(o.PaymentMethod),
		PaymentStatus:         string(o.PaymentStatus),
		EstimatedDeliveryDays: o.EstimatedDeliveryDays,
		CreatedAt:             o.CreatedAt,
		Items:                 make([]OrderItemOutput, 0, len(items)),
	}
	// the payments row wins over the copy on the order
	if p != nil {
		out.PaymentStatus = string(p.Status)
		out.GatewayRef = p.GatewayRef
	}
	for _, it := range items {
		out.Items = append(out.Items, OrderItemOutput{
			ID:        it.ID,
			ProductID: it.ProductID,
			SellerID:  it.SellerID,
			Name:      it.ProductNameSnapshot,
			UnitPrice: it.UnitPriceSnapshot.StringFixed(2),
			Quantity:  it.Quantity,
			Subtotal:  it.Subtotal.StringFixed(2),
		})
	}
	return out
}

// loadOrderOutput re-reads the order with its items and payment.
func loadOrderOutput(ctx context.Context, r repo.TxRepos, orderID int64) (OrderOutput, error) {
	o, err := r.Orders().FindByID(ctx, orderID)
	if err != nil {
		return OrderOutput{}, storeError(err, "order")
	}
	items, err := r.OrderItems().ListByOrderID(ctx, orderID)
	if err != nil {
		return OrderOutput{}, dbError()
	}

	var pay *model.Payment
	p, err := r.Payments().FindByOrderID(ctx, orderID)
	switch {
	case err == nil:
		pay = &p
	case !errors.Is(err, repo.ErrNotFound):
		return OrderOutput{}, dbError()
	}
	return toOrderOutput(o, items, pay), nil
}
