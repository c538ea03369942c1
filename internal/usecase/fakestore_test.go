package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/riturajpurohit95/shopSphere-sub000/internal/domain/model"
	"github.com/riturajpurohit95/shopSphere-sub000/internal/events"
	repo "github.com/riturajpurohit95/shopSphere-sub000/internal/repository"

	"github.com/shopspring/decimal"
)

// fakeStore is an in-memory store. Each repository call is atomic, like a
// single SQL statement; transactions are not isolated but roll back on error
// by replaying an undo log.
type fakeStore struct {
	mu     sync.Mutex
	clock  *fakeClock
	nextID int64

	products    map[int64]*model.Product
	carts       map[int64]*model.Cart
	cartItems   map[int64]*model.CartItem
	orders      map[int64]*model.Order
	orderItems  map[int64]*model.OrderItem
	payments    map[int64]*model.Payment // by order id
	audits      []model.AuditLog
	adjustments []model.InventoryAdjustment

	failRelease map[int64]error // by product id
	commits     int
	rollbacks   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		clock:       &fakeClock{t: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		products:    map[int64]*model.Product{},
		carts:       map[int64]*model.Cart{},
		cartItems:   map[int64]*model.CartItem{},
		orders:      map[int64]*model.Order{},
		orderItems:  map[int64]*model.OrderItem{},
		payments:    map[int64]*model.Payment{},
		failRelease: map[int64]error{},
	}
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func (s *fakeStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *fakeStore) txManager() repo.TransactionManager { return &fakeTxManager{s: s} }

func (s *fakeStore) addProduct(sellerID int64, hub int, price string, stock int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.products[id] = &model.Product{
		ID:        id,
		SellerID:  sellerID,
		SellerHub: hub,
		Name:      "product",
		Price:     decimal.RequireFromString(price),
		Stock:     stock,
		IsActive:  true,
	}
	return id
}

func (s *fakeStore) addCart(userID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.carts[id] = &model.Cart{ID: id, UserID: userID, Status: model.CartStatusActive}
	return id
}

func (s *fakeStore) stock(productID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[productID].Stock
}

func (s *fakeStore) order(id int64) model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.orders[id]
}

func (s *fakeStore) payment(orderID int64) model.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.payments[orderID]
}

func (s *fakeStore) setOrderStatus(id int64, st model.OrderStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[id].Status = st
}

func (s *fakeStore) countOrders() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func (s *fakeStore) countPayments() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payments)
}

// reservedBy sums item quantities of a product over orders whose stock was not given back.
func (s *fakeStore) reservedBy(productID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, it := range s.orderItems {
		if it.ProductID != productID {
			continue
		}
		if o := s.orders[it.OrderID]; o != nil && o.Status != model.OrderStatusExpired {
			n += it.Quantity
		}
	}
	return n
}

type fakeTxManager struct{ s *fakeStore }

func (m *fakeTxManager) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	tx := &fakeTx{s: m.s}
	err := fn(tx)

	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err != nil {
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		m.s.rollbacks++
		return err
	}
	m.s.commits++
	return nil
}

type fakeTx struct {
	s    *fakeStore
	undo []func()
}

// record must be called with s.mu held.
func (tx *fakeTx) record(f func()) { tx.undo = append(tx.undo, f) }

func (tx *fakeTx) Orders() repo.OrderRepository         { return fakeOrders{tx} }
func (tx *fakeTx) OrderItems() repo.OrderItemRepository { return fakeOrderItems{tx} }
func (tx *fakeTx) Payments() repo.PaymentRepository     { return fakePayments{tx} }
func (tx *fakeTx) Carts() repo.CartRepository           { return fakeCarts{tx} }
func (tx *fakeTx) CartItems() repo.CartItemRepository   { return fakeCarts{tx} }
func (tx *fakeTx) Inventory() repo.InventoryRepository  { return fakeInventory{tx} }
func (tx *fakeTx) Products() repo.ProductRepository     { return fakeProducts{tx} }
func (tx *fakeTx) AuditLogs() repo.AuditLogRepository   { return fakeAudit{tx} }

// ---- orders

type fakeOrders struct{ *fakeTx }

func (r fakeOrders) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[orderID]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return *o, nil
}

func (r fakeOrders) LockByID(ctx context.Context, orderID int64) (model.Order, error) {
	return r.FindByID(ctx, orderID)
}

func (r fakeOrders) sorted(keep func(o *model.Order) bool) []model.Order {
	var out []model.Order
	for _, o := range r.s.orders {
		if keep(o) {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func paginate(orders []model.Order, page, limit int) []model.Order {
	start := (page - 1) * limit
	if start >= len(orders) {
		return []model.Order{}
	}
	end := start + limit
	if end > len(orders) {
		end = len(orders)
	}
	return orders[start:end]
}

func (r fakeOrders) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := r.sorted(func(o *model.Order) bool { return o.UserID == userID })
	return paginate(all, page, limit), int64(len(all)), nil
}

func (r fakeOrders) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := r.sorted(func(o *model.Order) bool {
		if f.Status != "" && string(o.Status) != f.Status {
			return false
		}
		if f.UserID != nil && o.UserID != *f.UserID {
			return false
		}
		if f.From != nil && o.CreatedAt.Before(*f.From) {
			return false
		}
		if f.To != nil && o.CreatedAt.After(*f.To) {
			return false
		}
		return true
	})
	return paginate(all, f.Page, f.Limit), int64(len(all)), nil
}

func (r fakeOrders) ListStalePending(ctx context.Context, before time.Time, limit int) ([]model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Order
	for _, o := range r.s.orders {
		if o.Status == model.OrderStatusPending && o.CreatedAt.Before(before) {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r fakeOrders) FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.orders {
		if o.UserID == userID && o.IdempotencyKey != nil && *o.IdempotencyKey == key {
			return *o, true, nil
		}
	}
	return model.Order{}, false, nil
}

func (r fakeOrders) Create(ctx context.Context, order model.Order) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if order.IdempotencyKey != nil {
		for _, o := range r.s.orders {
			if o.UserID == order.UserID && o.IdempotencyKey != nil && *o.IdempotencyKey == *order.IdempotencyKey {
				return 0, repo.ErrDuplicateKey
			}
		}
	}
	order.ID = r.s.id()
	order.CreatedAt = r.s.clock.Now()
	order.UpdatedAt = order.CreatedAt
	r.s.orders[order.ID] = &order
	id := order.ID
	r.record(func() { delete(r.s.orders, id) })
	return id, nil
}

func (r fakeOrders) update(orderID int64, f func(o *model.Order)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[orderID]
	if !ok {
		return repo.ErrNoRowsAffected
	}
	prev := *o
	r.record(func() { *o = prev })
	f(o)
	return nil
}

func (r fakeOrders) UpdateTotal(ctx context.Context, orderID int64, total decimal.Decimal) error {
	return r.update(orderID, func(o *model.Order) { o.TotalAmount = total })
}

func (r fakeOrders) UpdateDeliveryEstimate(ctx context.Context, orderID int64, days int) error {
	return r.update(orderID, func(o *model.Order) { o.EstimatedDeliveryDays = days })
}

func (r fakeOrders) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	return r.update(orderID, func(o *model.Order) { o.Status = status })
}

func (r fakeOrders) UpdatePaymentStatus(ctx context.Context, orderID int64, status model.PaymentStatus) error {
	return r.update(orderID, func(o *model.Order) { o.PaymentStatus = status })
}

func (r fakeOrders) Delete(ctx context.Context, orderID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[orderID]
	if !ok {
		return repo.ErrNotFound
	}
	delete(r.s.orders, orderID)
	r.record(func() { r.s.orders[orderID] = o })
	return nil
}

// ---- order items

type fakeOrderItems struct{ *fakeTx }

func (r fakeOrderItems) Create(ctx context.Context, item model.OrderItem) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item.ID = r.s.id()
	r.s.orderItems[item.ID] = &item
	id := item.ID
	r.record(func() { delete(r.s.orderItems, id) })
	return id, nil
}

func (r fakeOrderItems) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.OrderItem{}
	for _, it := range r.s.orderItems {
		if it.OrderID == orderID {
			out = append(out, *it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r fakeOrderItems) FindByID(ctx context.Context, itemID int64) (model.OrderItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it, ok := r.s.orderItems[itemID]
	if !ok {
		return model.OrderItem{}, repo.ErrNotFound
	}
	return *it, nil
}

func (r fakeOrderItems) UpdateQuantity(ctx context.Context, itemID int64, qty int64, subtotal decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it, ok := r.s.orderItems[itemID]
	if !ok {
		return repo.ErrNoRowsAffected
	}
	prev := *it
	r.record(func() { *it = prev })
	it.Quantity = qty
	it.Subtotal = subtotal
	return nil
}

func (r fakeOrderItems) DeleteByID(ctx context.Context, itemID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it, ok := r.s.orderItems[itemID]
	if !ok {
		return repo.ErrNotFound
	}
	delete(r.s.orderItems, itemID)
	r.record(func() { r.s.orderItems[itemID] = it })
	return nil
}

func (r fakeOrderItems) DeleteByOrderID(ctx context.Context, orderID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, it := range r.s.orderItems {
		if it.OrderID == orderID {
			id, it := id, it
			delete(r.s.orderItems, id)
			r.record(func() { r.s.orderItems[id] = it })
		}
	}
	return nil
}

// ---- payments

type fakePayments struct{ *fakeTx }

func (r fakePayments) Create(ctx context.Context, p model.Payment) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.payments[p.OrderID]; ok {
		return 0, repo.ErrDuplicateKey
	}
	p.ID = r.s.id()
	r.s.payments[p.OrderID] = &p
	orderID := p.OrderID
	r.record(func() { delete(r.s.payments, orderID) })
	return p.ID, nil
}

func (r fakePayments) FindByOrderID(ctx context.Context, orderID int64) (model.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payments[orderID]
	if !ok {
		return model.Payment{}, repo.ErrNotFound
	}
	return *p, nil
}

func (r fakePayments) LockByOrderID(ctx context.Context, orderID int64) (model.Payment, error) {
	return r.FindByOrderID(ctx, orderID)
}

func (r fakePayments) update(orderID int64, f func(p *model.Payment)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payments[orderID]
	if !ok {
		return repo.ErrNoRowsAffected
	}
	prev := *p
	r.record(func() { *p = prev })
	f(p)
	return nil
}

func (r fakePayments) UpdateStatus(ctx context.Context, orderID int64, status model.PaymentStatus) error {
	return r.update(orderID, func(p *model.Payment) { p.Status = status })
}

func (r fakePayments) UpdateAmount(ctx context.Context, orderID int64, amount decimal.Decimal) error {
	return r.update(orderID, func(p *model.Payment) { p.Amount = amount })
}

func (r fakePayments) UpdateGateway(ctx context.Context, orderID int64, vpa string, payload string) error {
	return r.update(orderID, func(p *model.Payment) {
		p.GatewayVPA = vpa
		p.GatewayPayload = payload
	})
}

func (r fakePayments) DeleteByOrderID(ctx context.Context, orderID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payments[orderID]
	if !ok {
		return nil
	}
	delete(r.s.payments, orderID)
	r.record(func() { r.s.payments[orderID] = p })
	return nil
}

// ---- carts and cart items

type fakeCarts struct{ *fakeTx }

func (r fakeCarts) GetOrCreateActiveByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	if c, err := r.FindActiveByUserID(ctx, userID); err == nil {
		return c, nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	id := r.s.id()
	c := &model.Cart{ID: id, UserID: userID, Status: model.CartStatusActive}
	r.s.carts[id] = c
	r.record(func() { delete(r.s.carts, id) })
	return *c, nil
}

func (r fakeCarts) FindActiveByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.carts {
		if c.UserID == userID && c.Status == model.CartStatusActive {
			return *c, nil
		}
	}
	return model.Cart{}, repo.ErrNotFound
}

func (r fakeCarts) LockByID(ctx context.Context, cartID int64) (model.Cart, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.carts[cartID]
	if !ok {
		return model.Cart{}, repo.ErrNotFound
	}
	return *c, nil
}

func (r fakeCarts) UpdateStatus(ctx context.Context, cartID int64, status model.CartStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.carts[cartID]
	if !ok {
		return repo.ErrNotFound
	}
	prev := c.Status
	r.record(func() { c.Status = prev })
	c.Status = status
	return nil
}

func (r fakeCarts) Clear(ctx context.Context, cartID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, it := range r.s.cartItems {
		if it.CartID == cartID {
			id, it := id, it
			delete(r.s.cartItems, id)
			r.record(func() { r.s.cartItems[id] = it })
		}
	}
	return nil
}

func (r fakeCarts) ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.CartItem{}
	for _, it := range r.s.cartItems {
		if it.CartID == cartID {
			out = append(out, *it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r fakeCarts) UpsertByCartAndProduct(ctx context.Context, cartID int64, productID int64, addQty int64, unitPriceSnapshot decimal.Decimal) (model.CartItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, it := range r.s.cartItems {
		if it.CartID == cartID && it.ProductID == productID {
			prev := *it
			r.record(func() { *it = prev })
			it.Quantity += addQty
			return *it, nil
		}
	}
	id := r.s.id()
	it := &model.CartItem{ID: id, CartID: cartID, ProductID: productID, Quantity: addQty, UnitPriceSnapshot: unitPriceSnapshot}
	r.s.cartItems[id] = it
	r.record(func() { delete(r.s.cartItems, id) })
	return *it, nil
}

func (r fakeCarts) UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it, ok := r.s.cartItems[cartItemID]
	if !ok {
		return repo.ErrNotFound
	}
	prev := it.Quantity
	r.record(func() { it.Quantity = prev })
	it.Quantity = qty
	return nil
}

func (r fakeCarts) DeleteByID(ctx context.Context, cartItemID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it, ok := r.s.cartItems[cartItemID]
	if !ok {
		return repo.ErrNotFound
	}
	delete(r.s.cartItems, cartItemID)
	r.record(func() { r.s.cartItems[cartItemID] = it })
	return nil
}

func (r fakeCarts) FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it, ok := r.s.cartItems[cartItemID]
	if !ok {
		return model.CartItem{}, repo.ErrNotFound
	}
	return *it, nil
}

func (r fakeCarts) IsOwnedByUser(ctx context.Context, cartItemID int64, userID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it, ok := r.s.cartItems[cartItemID]
	if !ok {
		return false, nil
	}
	c, ok := r.s.carts[it.CartID]
	return ok && c.UserID == userID, nil
}

// ---- inventory and products

type fakeInventory struct{ *fakeTx }

func (r fakeInventory) Reserve(ctx context.Context, productID int64, qty int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[productID]
	if !ok || p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	r.record(func() { p.Stock += qty })
	return true, nil
}

func (r fakeInventory) Release(ctx context.Context, productID int64, qty int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failRelease[productID]; err != nil {
		return err
	}
	p, ok := r.s.products[productID]
	if !ok {
		return repo.ErrNotFound
	}
	p.Stock += qty
	r.record(func() { p.Stock -= qty })
	return nil
}

func (r fakeInventory) SetStock(ctx context.Context, productID int64, newStock int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[productID]
	if !ok {
		return 0, repo.ErrNotFound
	}
	prev := p.Stock
	r.record(func() { p.Stock = prev })
	p.Stock = newStock
	return prev, nil
}

func (r fakeInventory) CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.adjustments = append(r.s.adjustments, adjustment)
	n := len(r.s.adjustments) - 1
	r.record(func() { r.s.adjustments = r.s.adjustments[:n] })
	return nil
}

type fakeProducts struct{ *fakeTx }

func (r fakeProducts) FindByID(ctx context.Context, id int64) (model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return *p, nil
}

func (r fakeProducts) Create(ctx context.Context, p model.Product) (model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p.ID = r.s.id()
	r.s.products[p.ID] = &p
	id := p.ID
	r.record(func() { delete(r.s.products, id) })
	return p, nil
}

// ---- audit

type fakeAudit struct{ *fakeTx }

func (r fakeAudit) Create(ctx context.Context, log model.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.audits = append(r.s.audits, log)
	n := len(r.s.audits) - 1
	r.record(func() { r.s.audits = r.s.audits[:n] })
	return nil
}

func (r fakeAudit) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]model.AuditLog(nil), r.s.audits...), nil
}

// ---- events

type published struct {
	Topic string
	Key   string
	Env   events.Envelope
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []published
}

func (p *recordingPublisher) Publish(ctx context.Context, topic string, key string, env events.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, published{Topic: topic, Key: key, Env: env})
	return nil
}

func (p *recordingPublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.msgs))
	for _, m := range p.msgs {
		out = append(out, m.Topic)
	}
	return out
}

func (p *recordingPublisher) count(topic string) int {
	n := 0
	for _, t := range p.topics() {
		if t == topic {
			n++
		}
	}
	return n
}
