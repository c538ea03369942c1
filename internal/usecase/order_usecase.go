package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/riturajpurohit95/shopSphere-sub000/internal/domain/model"
	"github.com/riturajpurohit95/shopSphere-sub000/internal/events"
	"github.com/riturajpurohit95/shopSphere-sub000/internal/gateway"
	"github.com/riturajpurohit95/shopSphere-sub000/internal/metrics"
	repo "github.com/riturajpurohit95/shopSphere-sub000/internal/repository"

	"github.com/shopspring/decimal"
)

type OrderUsecase struct {
	tx     repo.TransactionManager
	notify *notifier
}

func NewOrderUsecase(tx repo.TransactionManager, pub events.Publisher, m *metrics.Metrics) *OrderUsecase {
	return &OrderUsecase{tx: tx, notify: newNotifier(pub, m)}
}

type OrderLineInput struct {
	ProductID int64
	Quantity  int64
}

type CreateOrderInput struct {
	UserID          int64
	ShippingAddress string
	PaymentMethod   string
	BuyerHub        int
	IdempotencyKey  string
	Items           []OrderLineInput
}

type PlaceOrderFromCartInput struct {
	ShippingAddress string
	PaymentMethod   string
	BuyerHub        int
	IdempotencyKey  string
}

// orderDraft is a CreateOrderInput that passed validation.
type orderDraft struct {
	userID   int64
	address  string
	method   model.PaymentMethod
	buyerHub int
	key      *string
	items    []OrderLineInput
}

var errIdempotencyRace = errors.New("idempotency key raced")

func newOrderDraft(userID int64, address, method, key string, buyerHub int) (orderDraft, error) {
	if userID <= 0 {
		return orderDraft{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	m, ok := model.ParsePaymentMethod(method)
	if !ok {
		return orderDraft{}, validationError("invalid payment_method")
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return orderDraft{}, validationError("shipping_address required")
	}
	if buyerHub < 0 {
		return orderDraft{}, validationError("invalid buyer_hub")
	}

	d := orderDraft{userID: userID, address: address, method: m, buyerHub: buyerHub}
	key = strings.TrimSpace(key)
	if len(key) > 255 {
		return orderDraft{}, validationError("invalid idempotency key")
	}
	if key != "" {
		d.key = &key
	}
	return d, nil
}

// normalizeLines defaults a missing quantity to 1.
func normalizeLines(items []OrderLineInput) ([]OrderLineInput, error) {
	if len(items) == 0 {
		return nil, validationError("items must not be empty")
	}
	out := make([]OrderLineInput, 0, len(items))
	for _, it := range items {
		if it.ProductID <= 0 {
			return nil, validationError("invalid product_id")
		}
		if it.Quantity < 0 {
			return nil, validationError("quantity must be positive")
		}
		if it.Quantity == 0 {
			it.Quantity = 1
		}
		out = append(out, it)
	}
	return out, nil
}

func (u *OrderUsecase) CreateOrder(ctx context.Context, in CreateOrderInput) (OrderOutput, error) {
	d, err := newOrderDraft(in.UserID, in.ShippingAddress, in.PaymentMethod, in.IdempotencyKey, in.BuyerHub)
	if err != nil {
		return OrderOutput{}, err
	}
	if d.items, err = normalizeLines(in.Items); err != nil {
		return OrderOutput{}, err
	}

	var out OrderOutput
	created := false
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		existing, found, err := findIdempotent(ctx, r, d)
		if err != nil {
			return err
		}
		if found {
			out, err = loadOrderOutput(ctx, r, existing.ID)
			return err
		}

		orderID, err := u.createOrderTx(ctx, r, d)
		if err != nil {
			return err
		}
		created = true
		out, err = loadOrderOutput(ctx, r, orderID)
		return err
	})
	if errors.Is(err, errIdempotencyRace) {
		return u.replayIdempotent(ctx, d)
	}
	if err != nil {
		return OrderOutput{}, txError(err)
	}
	if created {
		u.orderCreated(ctx, out)
	}
	return out, nil
}

// PlaceOrderFromCart turns the buyer's ACTIVE cart into an order and checks the cart out.
func (u *OrderUsecase) PlaceOrderFromCart(ctx context.Context, userID int64, in PlaceOrderFromCartInput) (OrderOutput, error) {
	d, err := newOrderDraft(userID, in.ShippingAddress, in.PaymentMethod, in.IdempotencyKey, in.BuyerHub)
	if err != nil {
		return OrderOutput{}, err
	}

	var out OrderOutput
	created := false
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		existing, found, err := findIdempotent(ctx, r, d)
		if err != nil {
			return err
		}
		if found {
			out, err = loadOrderOutput(ctx, r, existing.ID)
			return err
		}

		cart, err := r.Carts().FindActiveByUserID(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return validationError("cart empty")
		}
		if err != nil {
			return dbError()
		}
		if _, err := r.Carts().LockByID(ctx, cart.ID); err != nil {
			return storeError(err, "cart")
		}

		cartItems, err := r.CartItems().ListByCartID(ctx, cart.ID)
		if err != nil {
			return dbError()
		}
		if len(cartItems) == 0 {
			return validationError("cart empty")
		}
		d.items = make([]OrderLineInput, 0, len(cartItems))
		for _, ci := range cartItems {
			d.items = append(d.items, OrderLineInput{ProductID: ci.ProductID, Quantity: ci.Quantity})
		}

		orderID, err := u.createOrderTx(ctx, r, d)
		if err != nil {
			return err
		}

		if err := r.Carts().Clear(ctx, cart.ID); err != nil {
			return dbError()
		}
		if err := r.Carts().UpdateStatus(ctx, cart.ID, model.CartStatusCheckedOut); err != nil {
			return storeError(err, "cart")
		}

		created = true
		out, err = loadOrderOutput(ctx, r, orderID)
		return err
	})
	if errors.Is(err, errIdempotencyRace) {
		return u.replayIdempotent(ctx, d)
	}
	if err != nil {
		return OrderOutput{}, txError(err)
	}
	if created {
		u.orderCreated(ctx, out)
	}
	return out, nil
}

func findIdempotent(ctx context.Context, r repo.TxRepos, d orderDraft) (model.Order, bool, error) {
	if d.key == nil {
		return model.Order{}, false, nil
	}
	o, found, err := r.Orders().FindByIdempotencyKey(ctx, d.userID, *d.key)
	if err != nil {
		return model.Order{}, false, dbError()
	}
	return o, found, nil
}

// replayIdempotent returns the order that won a concurrent insert with the same key.
func (u *OrderUsecase) replayIdempotent(ctx context.Context, d orderDraft) (OrderOutput, error) {
	var out OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		existing, found, err := findIdempotent(ctx, r, d)
		if err != nil {
			return err
		}
		if !found {
			return dbError()
		}
		out, err = loadOrderOutput(ctx, r, existing.ID)
		return err
	})
	if err != nil {
		return OrderOutput{}, txError(err)
	}
	return out, nil
}

// createOrderTx writes the header, reserves and persists every line in the
// order given, then the payment. Any error must roll the transaction back.
func (u *OrderUsecase) createOrderTx(ctx context.Context, r repo.TxRepos, d orderDraft) (int64, error) {
	orderID, err := r.Orders().Create(ctx, model.Order{
		UserID:          d.userID,
		ShippingAddress: d.address,
		Status:          model.OrderStatusPending,
		TotalAmount:     decimal.Zero,
		PaymentMethod:   d.method,
		PaymentStatus:   model.PaymentStatusPending,
		BuyerHub:        d.buyerHub,
		IdempotencyKey:  d.key,
	})
	if errors.Is(err, repo.ErrDuplicateKey) {
		return 0, errIdempotencyRace
	}
	if err != nil {
		return 0, dbError()
	}

	total := decimal.Zero
	days := 0
	for _, line := range d.items {
		p, err := r.Products().FindByID(ctx, line.ProductID)
		if errors.Is(err, repo.ErrNotFound) || (err == nil && !p.IsActive) {
			return 0, notFoundError(fmt.Sprintf("product %d not found", line.ProductID))
		}
		if err != nil {
			return 0, dbError()
		}

		ok, err := r.Inventory().Reserve(ctx, p.ID, line.Quantity)
		if err != nil {
			return 0, dbError()
		}
		if !ok {
			u.notify.metrics.ReservationFailed(ctx)
			return 0, newKindError(ErrOutOfStock, fmt.Sprintf("product %d out of stock", p.ID))
		}

		subtotal := model.LineSubtotal(p.Price, line.Quantity)
		if _, err := r.OrderItems().Create(ctx, model.OrderItem{
			OrderID:             orderID,
			ProductID:           p.ID,
			SellerID:            p.SellerID,
			ProductNameSnapshot: p.Name,
			UnitPriceSnapshot:   p.Price,
			Quantity:            line.Quantity,
			Subtotal:            subtotal,
		}); err != nil {
			return 0, dbError()
		}

		total = total.Add(subtotal)
		if est := EstimateDeliveryDays(d.buyerHub, p.SellerHub); est > days {
			days = est
		}
	}

	if err := r.Orders().UpdateTotal(ctx, orderID, total); err != nil {
		return 0, storeError(err, "order")
	}
	if err := r.Orders().UpdateDeliveryEstimate(ctx, orderID, days); err != nil {
		return 0, storeError(err, "order")
	}

	pay := model.Payment{
		OrderID:  orderID,
		UserID:   d.userID,
		Amount:   total,
		Currency: model.DefaultCurrency,
		Method:   d.method,
		Status:   model.PaymentStatusPending,
	}
	if d.method == model.PaymentMethodUPI {
		pay.GatewayRef = gateway.Reference(orderID)
	}
	if _, err := r.Payments().Create(ctx, pay); err != nil {
		return 0, dbError()
	}
	return orderID, nil
}

func (u *OrderUsecase) orderCreated(ctx context.Context, out OrderOutput) {
	total, _ := decimal.NewFromString(out.TotalAmount)
	u.notify.metrics.OrderCreated(ctx, out.PaymentMethod, total)

	items := make([]events.OrderItemPayload, 0, len(out.Items))
	for _, it := range out.Items {
		items = append(items, events.OrderItemPayload{
			ProductID: it.ProductID,
			SellerID:  it.SellerID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	u.notify.publish(ctx, events.TopicOrderCreated, events.EventOrderCreated, out.ID, events.OrderCreatedPayload{
		OrderID:       out.ID,
		UserID:        out.UserID,
		PaymentMethod: out.PaymentMethod,
		TotalAmount:   out.TotalAmount,
		Items:         items,
	})
}

func (u *OrderUsecase) GetOrder(ctx context.Context, orderID int64) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, validationError("invalid order id")
	}
	var out OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		out, err = loadOrderOutput(ctx, r, orderID)
		return err
	})
	if err != nil {
		return OrderOutput{}, txError(err)
	}
	return out, nil
}

// GetMyOrder hides other buyers' orders as not found.
func (u *OrderUsecase) GetMyOrder(ctx context.Context, userID, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	out, err := u.GetOrder(ctx, orderID)
	if err != nil {
		return OrderOutput{}, err
	}
	if out.UserID != userID {
		return OrderOutput{}, notFoundError("order not found")
	}
	return out, nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64, page, limit int) (OrderListOutput, error) {
	if userID <= 0 {
		return OrderListOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if page < 1 {
		return OrderListOutput{}, validationError("invalid page")
	}
	if limit < 1 || limit > 100 {
		return OrderListOutput{}, validationError("invalid limit")
	}

	out := OrderListOutput{Page: page, Limit: limit}
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListByUserID(ctx, userID, page, limit)
		if err != nil {
			return dbError()
		}
		out.Total = total
		out.Items, err = loadOrderOutputs(ctx, r, orders)
		return err
	})
	if err != nil {
		return OrderListOutput{}, txError(err)
	}
	return out, nil
}

func loadOrderOutputs(ctx context.Context, r repo.TxRepos, orders []model.Order) ([]OrderOutput, error) {
	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		out, err := loadOrderOutput(ctx, r, o.ID)
		if err != nil {
			return nil, err
		}
		outs = append(outs, out)
	}
	return outs, nil
}

// CancelOrder cancels the buyer's own order. Reserved stock stays reserved.
func (u *OrderUsecase) CancelOrder(ctx context.Context, userID, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return u.cancel(ctx, orderID, func(o model.Order) error {
		if o.UserID != userID {
			return notFoundError("order not found")
		}
		return nil
	}, nil)
}

// cancel runs the cancel transaction. check may reject the locked order,
// after may add writes (audit) to the same transaction.
func (u *OrderUsecase) cancel(ctx context.Context, orderID int64, check func(model.Order) error, after func(r repo.TxRepos, t statusTransition) error) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, validationError("invalid order id")
	}

	var out OrderOutput
	var t statusTransition
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().LockByID(ctx, orderID)
		if err != nil {
			return storeError(err, "order")
		}
		if check != nil {
			if err := check(o); err != nil {
				return err
			}
		}
		if t, err = cancelTx(ctx, r, o); err != nil {
			return err
		}
		if after != nil {
			if err := after(r, t); err != nil {
				return err
			}
		}
		out, err = loadOrderOutput(ctx, r, orderID)
		return err
	})
	if err != nil {
		return OrderOutput{}, txError(err)
	}
	u.notify.transition(ctx, t)
	return out, nil
}

func cancelTx(ctx context.Context, r repo.TxRepos, o model.Order) (statusTransition, error) {
	t := statusTransition{
		OrderID:     o.ID,
		OrderFrom:   o.Status,
		OrderTo:     model.OrderStatusCancelled,
		PaymentFrom: o.PaymentStatus,
		PaymentTo:   o.PaymentStatus,
	}
	switch o.Status {
	case model.OrderStatusShipped, model.OrderStatusDelivered:
		return t, newKindError(ErrOrderAlreadyProcessed, "order already "+string(o.Status))
	}

	if err := r.Orders().UpdateStatus(ctx, o.ID, model.OrderStatusCancelled); err != nil {
		return t, storeError(err, "order")
	}

	p, err := r.Payments().LockByOrderID(ctx, o.ID)
	if errors.Is(err, repo.ErrNotFound) {
		return t, nil
	}
	if err != nil {
		return t, dbError()
	}
	t.PaymentFrom, t.PaymentTo = p.Status, p.Status

	var target model.PaymentStatus
	switch p.Status {
	case model.PaymentStatusPaid:
		target = model.PaymentStatusRefunded
	case model.PaymentStatusRefunded, model.PaymentStatusFailed:
		return t, nil
	default:
		target = model.PaymentStatusFailed
	}

	if err := r.Payments().UpdateStatus(ctx, o.ID, target); err != nil {
		return t, storeError(err, "payment")
	}
	if err := r.Orders().UpdatePaymentStatus(ctx, o.ID, target); err != nil {
		return t, storeError(err, "order")
	}
	t.PaymentTo = target
	return t, nil
}

// UpdateOrderItemQuantity changes one line of a PENDING order. Growth reserves
// the difference, shrinking releases it, zero removes the line.
func (u *OrderUsecase) UpdateOrderItemQuantity(ctx context.Context, userID, orderID, itemID, qty int64) (OrderOutput, error) {
	if qty < 0 {
		return OrderOutput{}, validationError("quantity must not be negative")
	}
	return u.editItem(ctx, userID, orderID, itemID, func(r repo.TxRepos, it model.OrderItem) error {
		if qty == 0 {
			return removeItemTx(ctx, r, it)
		}
		delta := qty - it.Quantity
		switch {
		case delta > 0:
			ok, err := r.Inventory().Reserve(ctx, it.ProductID, delta)
			if err != nil {
				return dbError()
			}
			if !ok {
				u.notify.metrics.ReservationFailed(ctx)
				return newKindError(ErrOutOfStock, fmt.Sprintf("product %d out of stock", it.ProductID))
			}
		case delta < 0:
			if err := r.Inventory().Release(ctx, it.ProductID, -delta); err != nil {
				return storeError(err, "product")
			}
		default:
			return nil
		}
		if err := r.OrderItems().UpdateQuantity(ctx, it.ID, qty, model.LineSubtotal(it.UnitPriceSnapshot, qty)); err != nil {
			return storeError(err, "order item")
		}
		return nil
	})
}

func (u *OrderUsecase) DeleteOrderItem(ctx context.Context, userID, orderID, itemID int64) (OrderOutput, error) {
	return u.editItem(ctx, userID, orderID, itemID, func(r repo.TxRepos, it model.OrderItem) error {
		return removeItemTx(ctx, r, it)
	})
}

func removeItemTx(ctx context.Context, r repo.TxRepos, it model.OrderItem) error {
	if err := r.Inventory().Release(ctx, it.ProductID, it.Quantity); err != nil {
		return storeError(err, "product")
	}
	if err := r.OrderItems().DeleteByID(ctx, it.ID); err != nil {
		return storeError(err, "order item")
	}
	return nil
}

func (u *OrderUsecase) editItem(ctx context.Context, userID, orderID, itemID int64, edit func(r repo.TxRepos, it model.OrderItem) error) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 || itemID <= 0 {
		return OrderOutput{}, validationError("invalid id")
	}

	var out OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().LockByID(ctx, orderID)
		if err != nil {
			return storeError(err, "order")
		}
		if o.UserID != userID {
			return notFoundError("order not found")
		}
		if o.Status != model.OrderStatusPending {
			return newKindError(ErrOrderAlreadyProcessed, "order already "+string(o.Status))
		}

		it, err := r.OrderItems().FindByID(ctx, itemID)
		if err != nil {
			return storeError(err, "order item")
		}
		if it.OrderID != orderID {
			return notFoundError("order item not found")
		}

		if err := edit(r, it); err != nil {
			return err
		}
		if err := recomputeTotalTx(ctx, r, orderID); err != nil {
			return err
		}
		out, err = loadOrderOutput(ctx, r, orderID)
		return err
	})
	if err != nil {
		return OrderOutput{}, txError(err)
	}
	return out, nil
}

// recomputeTotalTx sets the order total to the sum of its lines and keeps a
// PENDING payment amount in step.
func recomputeTotalTx(ctx context.Context, r repo.TxRepos, orderID int64) error {
	items, err := r.OrderItems().ListByOrderID(ctx, orderID)
	if err != nil {
		return dbError()
	}
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal)
	}
	if err := r.Orders().UpdateTotal(ctx, orderID, total); err != nil {
		return storeError(err, "order")
	}

	p, err := r.Payments().LockByOrderID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return dbError()
	}
	if p.Status != model.PaymentStatusPending {
		return nil
	}
	if err := r.Payments().UpdateAmount(ctx, orderID, total); err != nil {
		return storeError(err, "payment")
	}
	return nil
}
