package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/riturajpurohit95/shopSphere-sub000/internal/config"
	"github.com/riturajpurohit95/shopSphere-sub000/internal/middleware"
	"github.com/riturajpurohit95/shopSphere-sub000/internal/usecase"
)

type AdminOrderHandler struct {
	uc     *usecase.AdminOrderUsecase
	reaper *usecase.Reaper
}

func NewAdminOrderHandler(uc *usecase.AdminOrderUsecase, reaper *usecase.Reaper) *AdminOrderHandler {
	return &AdminOrderHandler{uc: uc, reaper: reaper}
}

type OrderStatusUpdateRequest struct {
	Status string `json:"status"`
}

type ExpireResponse struct {
	Expired int `json:"expired"`
}

func (h *AdminOrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	admin := e.Group("/admin")
	admin.Use(middleware.AuthJWT(cfg.JWTSecret))
	admin.Use(middleware.AdminRoleGuard())

	admin.GET("/orders", h.list)
	admin.POST("/orders/expire", h.expire)
	admin.GET("/orders/:id", h.detail)
	admin.PATCH("/orders/:id/status", h.updateStatus)
	admin.PATCH("/orders/:id/payment-status", h.updatePaymentStatus)
	admin.POST("/orders/:id/cancel", h.cancel)
	admin.DELETE("/orders/:id", h.delete)
}

func (h *AdminOrderHandler) list(c echo.Context) error {
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid page"})
	}
	limit, ok := queryInt(c, "limit", 50)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
	}

	var userID *int64
	if v := c.QueryParam("user_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user_id"})
		}
		userID = &id
	}

	out, err := h.uc.List(c.Request().Context(), usecase.AdminOrderListInput{
		Page:   page,
		Limit:  limit,
		Status: c.QueryParam("status"),
		UserID: userID,
		From:   c.QueryParam("from"),
		To:     c.QueryParam("to"),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) detail(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.uc.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) updateStatus(c echo.Context) error {
	orderID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req OrderStatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	// acting admin goes into the audit entry
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if err := h.uc.UpdateStatus(c.Request().Context(), adminID, orderID, req.Status); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "updated"})
}

func (h *AdminOrderHandler) updatePaymentStatus(c echo.Context) error {
	orderID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req OrderStatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if err := h.uc.UpdatePaymentStatus(c.Request().Context(), adminID, orderID, req.Status); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "updated"})
}

func (h *AdminOrderHandler) cancel(c echo.Context) error {
	orderID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.Cancel(c.Request().Context(), adminID, orderID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) delete(c echo.Context) error {
	orderID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if err := h.uc.Delete(c.Request().Context(), adminID, orderID); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// expire runs one reaper sweep now instead of waiting for the next tick.
func (h *AdminOrderHandler) expire(c echo.Context) error {
	n, err := h.reaper.ExpireStaleOrders(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, ExpireResponse{Expired: n})
}
