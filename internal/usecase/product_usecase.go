package usecase

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/riturajpurohit95/shopSphere-sub000/internal/domain/model"
	repo "github.com/riturajpurohit95/shopSphere-sub000/internal/repository"

	"github.com/shopspring/decimal"
)

// ProductUsecase is the catalog collaborator of the order core.
type ProductUsecase struct {
	tx repo.TransactionManager
}

func NewProductUsecase(tx repo.TransactionManager) *ProductUsecase {
	return &ProductUsecase{tx: tx}
}

type ProductOutput struct {
	ID           int64  `json:"id"`
	SellerID     int64  `json:"seller_id"`
	SellerHub    int    `json:"seller_hub"`
	Name         string `json:"name"`
	Price        string `json:"price"`
	AvailableQty int64  `json:"available_qty"`
	IsActive     bool   `json:"is_active"`
}

func toProductOutput(p model.Product) ProductOutput {
	return ProductOutput{
		ID:           p.ID,
		SellerID:     p.SellerID,
		SellerHub:    p.SellerHub,
		Name:         p.Name,
		Price:        p.Price.StringFixed(2),
		AvailableQty: p.Stock,
		IsActive:     p.IsActive,
	}
}

func (u *ProductUsecase) GetProduct(ctx context.Context, productID int64) (ProductOutput, error) {
	if productID <= 0 {
		return ProductOutput{}, validationError("invalid product id")
	}

	var p model.Product
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		p, err = r.Products().FindByID(ctx, productID)
		if err != nil {
			return storeError(err, "product")
		}
		return nil
	})
	if err != nil {
		return ProductOutput{}, txError(err)
	}
	if !p.IsActive {
		return ProductOutput{}, notFoundError("product not found")
	}
	return toProductOutput(p), nil
}

type CreateProductInput struct {
	Name      string
	SellerID  int64
	SellerHub int
	Price     string
	Stock     int64
}

func (u *ProductUsecase) CreateProduct(ctx context.Context, adminUserID int64, in CreateProductInput) (ProductOutput, error) {
	if adminUserID <= 0 {
		return ProductOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return ProductOutput{}, validationError("name required")
	}
	if in.SellerID <= 0 {
		return ProductOutput{}, validationError("invalid seller_id")
	}
	if in.SellerHub < 0 {
		return ProductOutput{}, validationError("invalid seller_hub")
	}
	price, err := decimal.NewFromString(strings.TrimSpace(in.Price))
	if err != nil || !price.IsPositive() {
		return ProductOutput{}, validationError("price must be > 0")
	}
	if in.Stock < 0 {
		return ProductOutput{}, validationError("stock must be >= 0")
	}

	var p model.Product
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		p, err = r.Products().Create(ctx, model.Product{
			SellerID:  in.SellerID,
			SellerHub: in.SellerHub,
			Name:      name,
			Price:     price.Round(2),
			Stock:     in.Stock,
			IsActive:  true,
		})
		if err != nil {
			return dbError()
		}
		return nil
	})
	if err != nil {
		return ProductOutput{}, txError(err)
	}
	return toProductOutput(p), nil
}

// SetStock is the admin correction path. It records the delta and an audit entry.
func (u *ProductUsecase) SetStock(ctx context.Context, adminUserID, productID, newStock int64, reason string) error {
	if adminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return validationError("invalid product id")
	}
	if newStock < 0 {
		return validationError("stock must be >= 0")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return validationError("reason required")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		prev, err := r.Inventory().SetStock(ctx, productID, newStock)
		if err != nil {
			return storeError(err, "product")
		}

		if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
			ProductID:   productID,
			AdminUserID: adminUserID,
			Delta:       newStock - prev,
			Reason:      reason,
			CreatedAt:   time.Now(),
		}); err != nil {
			return dbError()
		}

		return writeAudit(ctx, r, adminUserID, model.AuditActionUpdateStock, model.AuditResourceProduct, productID,
			fmt.Sprintf(`{"stock":%d}`, prev), fmt.Sprintf(`{"stock":%d}`, newStock))
	})
	return txError(err)
}
