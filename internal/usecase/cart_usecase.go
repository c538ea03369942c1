package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/riturajpurohit95/shopSphere-sub000/internal/domain/model"
	repo "github.com/riturajpurohit95/shopSphere-sub000/internal/repository"

	"github.com/shopspring/decimal"
)

// CartUsecase stages items before checkout. It never touches stock.
type CartUsecase struct {
	tx repo.TransactionManager
}

func NewCartUsecase(tx repo.TransactionManager) *CartUsecase {
	return &CartUsecase{tx: tx}
}

type CartItemResponse struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Quantity  int64  `json:"quantity"`
	Subtotal  string `json:"subtotal"`
}

type CartResponse struct {
	CartID   int64              `json:"cart_id"`
	SellerID int64              `json:"seller_id,omitempty"`
	Items    []CartItemResponse `json:"items"`
	Total    string             `json:"total"`
}

type AddCartInput struct {
	ProductID int64
	Quantity  int64
}

// AddToCart merges the product into the cart. Every line of a cart has to come from one seller.
func (u *CartUsecase) AddToCart(ctx context.Context, cartID, productID, qty int64) (model.CartItem, error) {
	if qty <= 0 {
		return model.CartItem{}, validationError("quantity must be positive")
	}
	if cartID <= 0 || productID <= 0 {
		return model.CartItem{}, validationError("invalid id")
	}

	var item model.CartItem
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		item, err = addToCartTx(ctx, r, cartID, productID, qty)
		return err
	})
	if err != nil {
		return model.CartItem{}, txError(err)
	}
	return item, nil
}

// AddItem resolves the buyer's ACTIVE cart and adds to it.
func (u *CartUsecase) AddItem(ctx context.Context, userID int64, in AddCartInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.Quantity <= 0 {
		return CartResponse{}, validationError("quantity must be positive")
	}
	if in.ProductID <= 0 {
		return CartResponse{}, validationError("invalid product_id")
	}

	var out CartResponse
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().GetOrCreateActiveByUserID(ctx, userID)
		if err != nil {
			return dbError()
		}
		if _, err := addToCartTx(ctx, r, cart.ID, in.ProductID, in.Quantity); err != nil {
			return err
		}
		out, err = buildCartResponse(ctx, r, cart.ID)
		return err
	})
	if err != nil {
		return CartResponse{}, txError(err)
	}
	return out, nil
}

func addToCartTx(ctx context.Context, r repo.TxRepos, cartID, productID, qty int64) (model.CartItem, error) {
	// serializes concurrent adds to one cart so the seller check holds
	cart, err := r.Carts().LockByID(ctx, cartID)
	if err != nil {
		return model.CartItem{}, storeError(err, "cart")
	}
	if cart.Status != model.CartStatusActive {
		return model.CartItem{}, validationError("cart is not active")
	}

	p, err := r.Products().FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && !p.IsActive) {
		return model.CartItem{}, notFoundError(fmt.Sprintf("product %d not found", productID))
	}
	if err != nil {
		return model.CartItem{}, dbError()
	}

	items, err := r.CartItems().ListByCartID(ctx, cartID)
	if err != nil {
		return model.CartItem{}, dbError()
	}
	for _, it := range items {
		existing, err := r.Products().FindByID(ctx, it.ProductID)
		if err != nil {
			return model.CartItem{}, storeError(err, "product")
		}
		if existing.SellerID != p.SellerID {
			return model.CartItem{}, validationError("single seller per cart")
		}
	}

	item, err := r.CartItems().UpsertByCartAndProduct(ctx, cartID, productID, qty, p.Price)
	if err != nil {
		return model.CartItem{}, storeError(err, "cart item")
	}
	return item, nil
}

// GetCart returns the ACTIVE cart, creating an empty one when there is none.
func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var out CartResponse
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().GetOrCreateActiveByUserID(ctx, userID)
		if err != nil {
			return dbError()
		}
		out, err = buildCartResponse(ctx, r, cart.ID)
		return err
	})
	if err != nil {
		return CartResponse{}, txError(err)
	}
	return out, nil
}

func (u *CartUsecase) UpdateCartItem(ctx context.Context, userID, cartItemID, qty int64) (CartResponse, error) {
	if qty <= 0 {
		return CartResponse{}, validationError("quantity must be positive")
	}
	return u.editOwnedItem(ctx, userID, cartItemID, func(r repo.TxRepos) error {
		if err := r.CartItems().UpdateQuantity(ctx, cartItemID, qty); err != nil {
			return storeError(err, "cart item")
		}
		return nil
	})
}

func (u *CartUsecase) DeleteCartItem(ctx context.Context, userID, cartItemID int64) (CartResponse, error) {
	return u.editOwnedItem(ctx, userID, cartItemID, func(r repo.TxRepos) error {
		if err := r.CartItems().DeleteByID(ctx, cartItemID); err != nil {
			return storeError(err, "cart item")
		}
		return nil
	})
}

func (u *CartUsecase) editOwnedItem(ctx context.Context, userID, cartItemID int64, edit func(r repo.TxRepos) error) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if cartItemID <= 0 {
		return CartResponse{}, validationError("invalid cart item id")
	}

	var out CartResponse
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		owned, err := r.CartItems().IsOwnedByUser(ctx, cartItemID, userID)
		if err != nil {
			return dbError()
		}
		// a foreign item looks the same as a missing one
		if !owned {
			return notFoundError("cart item not found")
		}
		it, err := r.CartItems().FindByID(ctx, cartItemID)
		if err != nil {
			return storeError(err, "cart item")
		}
		if err := edit(r); err != nil {
			return err
		}
		out, err = buildCartResponse(ctx, r, it.CartID)
		return err
	})
	if err != nil {
		return CartResponse{}, txError(err)
	}
	return out, nil
}

// prices come from the snapshot taken when the line was added
func buildCartResponse(ctx context.Context, r repo.TxRepos, cartID int64) (CartResponse, error) {
	items, err := r.CartItems().ListByCartID(ctx, cartID)
	if err != nil {
		return CartResponse{}, dbError()
	}

	out := CartResponse{CartID: cartID, Items: make([]CartItemResponse, 0, len(items))}
	total := decimal.Zero
	for _, it := range items {
		p, err := r.Products().FindByID(ctx, it.ProductID)
		if err != nil {
			return CartResponse{}, storeError(err, "product")
		}
		out.SellerID = p.SellerID
		subtotal := model.LineSubtotal(it.UnitPriceSnapshot, it.Quantity)
		out.Items = append(out.Items, CartItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Name:      p.Name,
			UnitPrice: it.UnitPriceSnapshot.StringFixed(2),
			Quantity:  it.Quantity,
			Subtotal:  subtotal.StringFixed(2),
		})
		total = total.Add(subtotal)
	}
	out.Total = total.StringFixed(2)
	return out, nil
}
