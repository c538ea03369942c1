package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type testEnv struct {
	store  *fakeStore
	pub    *recordingPublisher
	orders *OrderUsecase
	admin  *AdminOrderUsecase
	sync   *Synchronizer
	carts  *CartUsecase
	reaper *Reaper
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	s := newFakeStore()
	pub := &recordingPublisher{}
	tx := s.txManager()

	orders := NewOrderUsecase(tx, pub, nil)
	return &testEnv{
		store:  s,
		pub:    pub,
		orders: orders,
		admin:  NewAdminOrderUsecase(tx, orders, pub, nil),
		sync:   NewSynchronizer(tx, pub, nil),
		carts:  NewCartUsecase(tx),
		reaper: NewReaper(tx, pub, nil, ReaperConfig{}, s.clock),
	}
}

func (e *testEnv) placeOrder(t *testing.T, userID int64, method string, lines ...OrderLineInput) OrderOutput {
	t.Helper()
	out, err := e.orders.CreateOrder(context.Background(), CreateOrderInput{
		UserID:          userID,
		ShippingAddress: "12 MG Road, Bengaluru",
		PaymentMethod:   method,
		Items:           lines,
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	return out
}

func line(productID, qty int64) OrderLineInput {
	return OrderLineInput{ProductID: productID, Quantity: qty}
}

func assertErrContains(t *testing.T, err error, wantSubstr string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.True(t, strings.Contains(err.Error(), wantSubstr), "err=%q want contains %q", err.Error(), wantSubstr)
	}
}
