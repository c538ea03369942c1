package handler

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/riturajpurohit95/shopSphere-sub000/internal/usecase"
)

const webhookSecretHeader = "X-Webhook-Secret"

// gateway callback body
type PaymentWebhookRequest struct {
	EventID string `json:"event_id"`
	OrderID int64  `json:"order_id"`
	Status  string `json:"status"`
}

type WebhookHandler struct {
	payments *usecase.PaymentUsecase
	secret   string
}

// An empty secret disables the header check.
func NewWebhookHandler(payments *usecase.PaymentUsecase, secret string) *WebhookHandler {
	return &WebhookHandler{payments: payments, secret: secret}
}

func (h *WebhookHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/webhooks/payments", h.paymentResult)
}

func (h *WebhookHandler) paymentResult(c echo.Context) error {
	if h.secret != "" {
		got := c.Request().Header.Get(webhookSecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		}
	}

	var req PaymentWebhookRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	err := h.payments.HandlePaymentResult(c.Request().Context(), usecase.PaymentResultInput{
		EventID: req.EventID,
		OrderID: req.OrderID,
		Status:  req.Status,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "accepted"})
}
