package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/riturajpurohit95/shopSphere-sub000/internal/config"
	"github.com/riturajpurohit95/shopSphere-sub000/internal/middleware"
	"github.com/riturajpurohit95/shopSphere-sub000/internal/usecase"
)

// Price is a decimal string so no precision is lost in JSON.
type ProductCreateRequest struct {
	Name      string `json:"name"`
	SellerID  int64  `json:"seller_id"`
	SellerHub int    `json:"seller_hub"`
	Price     string `json:"price"`
	Stock     int64  `json:"stock"`
}

type StockUpdateRequest struct {
	Stock  int64  `json:"stock"`
	Reason string `json:"reason"`
}

type AdminProductHandler struct {
	uc *usecase.ProductUsecase
}

func NewAdminProductHandler(uc *usecase.ProductUsecase) *AdminProductHandler {
	return &AdminProductHandler{uc: uc}
}

func (h *AdminProductHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	admin := e.Group("/admin")
	admin.Use(middleware.AuthJWT(cfg.JWTSecret))
	admin.Use(middleware.AdminRoleGuard())

	admin.POST("/products", h.createProduct)
	admin.PUT("/products/:id/stock", h.setStock)
}

func (h *AdminProductHandler) createProduct(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req ProductCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.CreateProduct(c.Request().Context(), adminID, usecase.CreateProductInput{
		Name:      req.Name,
		SellerID:  req.SellerID,
		SellerHub: req.SellerHub,
		Price:     req.Price,
		Stock:     req.Stock,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *AdminProductHandler) setStock(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	productID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req StockUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if err := h.uc.SetStock(c.Request().Context(), adminID, productID, req.Stock, req.Reason); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "updated"})
}
