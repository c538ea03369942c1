package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/riturajpurohit95/shopSphere-sub000/internal/config"
	"github.com/riturajpurohit95/shopSphere-sub000/internal/middleware"
	"github.com/riturajpurohit95/shopSphere-sub000/internal/usecase"
)

// the duplicate-submit key travels in a header, not the body
const idempotencyHeader = "X-Idempotency-Key"

type OrderHandler struct {
	uc       *usecase.OrderUsecase
	payments *usecase.PaymentUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase, payments *usecase.PaymentUsecase) *OrderHandler {
	return &OrderHandler{uc: uc, payments: payments}
}

type OrderLineRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type OrderCreateRequest struct {
	ShippingAddress string             `json:"shipping_address"`
	PaymentMethod   string             `json:"payment_method"`
	BuyerHub        int                `json:"buyer_hub"`
	Items           []OrderLineRequest `json:"items"`
}

type OrderItemUpdateRequest struct {
	Quantity int64 `json:"quantity"`
}

type PaymentConfirmRequest struct {
	VPA string `json:"vpa"`
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/orders")
	g.Use(middleware.AuthJWT(cfg.JWTSecret))

	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.detail)
	g.POST("/:id/cancel", h.cancel)
	g.PATCH("/:id/items/:itemId", h.updateItem)
	g.DELETE("/:id/items/:itemId", h.deleteItem)
	g.POST("/:id/payment/confirm", h.confirmPayment)
}

func (h *OrderHandler) create(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req OrderCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	lines := make([]usecase.OrderLineInput, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, usecase.OrderLineInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	out, err := h.uc.CreateOrder(c.Request().Context(), usecase.CreateOrderInput{
		UserID:          userID,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		BuyerHub:        req.BuyerHub,
		IdempotencyKey:  c.Request().Header.Get(idempotencyHeader),
		Items:           lines,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *OrderHandler) list(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid page"})
	}
	limit, ok := queryInt(c, "limit", 20)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
	}

	out, err := h.uc.ListMyOrders(c.Request().Context(), userID, page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) detail(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.uc.GetMyOrder(c.Request().Context(), userID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) cancel(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.uc.CancelOrder(c.Request().Context(), userID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) updateItem(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	orderID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}
	itemID, ok := pathID(c, "itemId")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid item id"})
	}

	var req OrderItemUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.UpdateOrderItemQuantity(c.Request().Context(), userID, orderID, itemID, req.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) deleteItem(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	orderID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}
	itemID, ok := pathID(c, "itemId")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid item id"})
	}

	out, err := h.uc.DeleteOrderItem(c.Request().Context(), userID, orderID, itemID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) confirmPayment(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	orderID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req PaymentConfirmRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.payments.ConfirmPayment(c.Request().Context(), userID, orderID, req.VPA)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
