package usecase

import (
	"context"
	"testing"

	"github.com/riturajpurohit95/shopSphere-sub000/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddToCart_MergesSameProduct(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	cartID := e.store.addCart(1)
	pid := e.store.addProduct(7, 1, "10.00", 1)

	first, err := e.carts.AddToCart(ctx, cartID, pid, 2)
	require.NoError(t, err)
	second, err := e.carts.AddToCart(ctx, cartID, pid, 3)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(5), second.Quantity)
	assert.Len(t, e.store.cartItems, 1)
	// carts never reserve, even past available stock
	assert.Equal(t, int64(1), e.store.stock(pid))
}

func TestAddToCart_SingleSellerPerCart(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	cartID := e.store.addCart(1)
	fromA := e.store.addProduct(7, 1, "10.00", 5)
	fromA2 := e.store.addProduct(7, 1, "12.00", 5)
	fromB := e.store.addProduct(8, 1, "10.00", 5)

	_, err := e.carts.AddToCart(ctx, cartID, fromA, 1)
	require.NoError(t, err)
	_, err = e.carts.AddToCart(ctx, cartID, fromA2, 1)
	require.NoError(t, err)

	_, err = e.carts.AddToCart(ctx, cartID, fromB, 1)

	assert.ErrorIs(t, err, ErrValidation)
	assertErrContains(t, err, "single seller per cart")
	assert.Len(t, e.store.cartItems, 2)
}

func TestAddToCart_Rejections(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	cartID := e.store.addCart(1)
	pid := e.store.addProduct(7, 1, "10.00", 5)

	_, err := e.carts.AddToCart(ctx, cartID, pid, 0)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = e.carts.AddToCart(ctx, cartID, pid, -2)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = e.carts.AddToCart(ctx, cartID, 999, 1)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = e.carts.AddToCart(ctx, 999, pid, 1)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, e.store.cartItems)
}

func TestAddToCart_RejectsCheckedOutCart(t *testing.T) {
	e := newTestEnv(t)
	cartID := e.store.addCart(1)
	pid := e.store.addProduct(7, 1, "10.00", 5)
	e.store.carts[cartID].Status = model.CartStatusCheckedOut

	_, err := e.carts.AddToCart(context.Background(), cartID, pid, 1)

	assert.ErrorIs(t, err, ErrValidation)
	assertErrContains(t, err, "cart is not active")
	assert.Empty(t, e.store.cartItems)
}

func TestCartItemEdits_RequireOwnership(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	pid := e.store.addProduct(7, 1, "10.00", 5)
	cart, err := e.carts.AddItem(ctx, 1, AddCartInput{ProductID: pid, Quantity: 1})
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	_, err = e.carts.UpdateCartItem(ctx, 2, itemID, 4)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = e.carts.DeleteCartItem(ctx, 2, itemID)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := e.carts.UpdateCartItem(ctx, 1, itemID, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(4), got.Items[0].Quantity)
	assert.Equal(t, "40.00", got.Total)

	got, err = e.carts.DeleteCartItem(ctx, 1, itemID)
	require.NoError(t, err)
	assert.Empty(t, got.Items)
}

func TestPlaceOrderFromCart(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	p1 := e.store.addProduct(7, 1, "10.00", 5)
	p2 := e.store.addProduct(7, 1, "2.50", 5)
	_, err := e.carts.AddItem(ctx, 1, AddCartInput{ProductID: p1, Quantity: 2})
	require.NoError(t, err)
	cart, err := e.carts.AddItem(ctx, 1, AddCartInput{ProductID: p2, Quantity: 4})
	require.NoError(t, err)

	out, err := e.orders.PlaceOrderFromCart(ctx, 1, PlaceOrderFromCartInput{ShippingAddress: "a", PaymentMethod: "COD"})

	require.NoError(t, err)
	assert.Equal(t, "30.00", out.TotalAmount)
	assert.Len(t, out.Items, 2)
	assert.Equal(t, int64(3), e.store.stock(p1))
	assert.Equal(t, int64(1), e.store.stock(p2))
	assert.Empty(t, e.store.cartItems)
	assert.Equal(t, model.CartStatusCheckedOut, e.store.carts[cart.CartID].Status)

	_, err = e.orders.PlaceOrderFromCart(ctx, 1, PlaceOrderFromCartInput{ShippingAddress: "a", PaymentMethod: "COD"})
	assertErrContains(t, err, "cart empty")
}

func TestPlaceOrderFromCart_OutOfStockKeepsCart(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	pid := e.store.addProduct(7, 1, "10.00", 1)
	cart, err := e.carts.AddItem(ctx, 1, AddCartInput{ProductID: pid, Quantity: 3})
	require.NoError(t, err)

	_, err = e.orders.PlaceOrderFromCart(ctx, 1, PlaceOrderFromCartInput{ShippingAddress: "a", PaymentMethod: "UPI"})

	assert.ErrorIs(t, err, ErrOutOfStock)
	assert.Len(t, e.store.cartItems, 1)
	assert.Equal(t, model.CartStatusActive, e.store.carts[cart.CartID].Status)
	assert.Equal(t, 0, e.store.countOrders())
}
