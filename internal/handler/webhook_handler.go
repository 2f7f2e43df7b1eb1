package handler

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"kbine/internal/errors"
	"kbine/internal/logger"
	"kbine/internal/service"
)

// maxWebhookBody bounds how much of a webhook request is read.
const maxWebhookBody = 1 << 20

// WebhookHandler receives provider payment notifications. Responses
// are uniform and prompt: 200 for accepted or idempotent deliveries,
// 4xx for rejected ones, with no detail about which check failed.
type WebhookHandler struct {
	paymentService service.PaymentService
	logger         *zap.Logger
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(paymentService service.PaymentService) *WebhookHandler {
	return &WebhookHandler{
		paymentService: paymentService,
		logger:         logger.Get().Named("webhooks"),
	}
}

// HandleWave godoc
// @Summary Wave payment webhook
// @Tags webhooks
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /webhooks/wave [post]
func (h *WebhookHandler) HandleWave(c echo.Context) error {
	return h.handle(c, "wave")
}

// HandleTouchPoint godoc
// @Summary TouchPoint payment webhook
// @Tags webhooks
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errors.ErrorResponse
// @Router /webhooks/touchpoint [post]
func (h *WebhookHandler) HandleTouchPoint(c echo.Context) error {
	return h.handle(c, "touchpoint")
}

func (h *WebhookHandler) handle(c echo.Context, providerName string) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errors.ErrorResponse{
			Error: "unreadable body",
			Code:  "INVALID_WEBHOOK",
		})
	}

	err = h.paymentService.HandleWebhook(c.Request().Context(), providerName, c.Request().Header, body)
	if err != nil {
		switch err {
		case errors.ErrInvalidSignature:
			return c.JSON(http.StatusUnauthorized, errors.ErrorResponse{
				Error: "rejected",
				Code:  "REJECTED",
			})
		case errors.ErrPaymentNotFound:
			return c.JSON(http.StatusBadRequest, errors.ErrorResponse{
				Error: "rejected",
				Code:  "REJECTED",
			})
		default:
			h.logger.Error("webhook processing failed",
				zap.String("provider", providerName),
				zap.Error(err))
			return c.JSON(http.StatusInternalServerError, errors.ErrorResponse{
				Error: "internal error",
				Code:  "INTERNAL_ERROR",
			})
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"received": true,
	})
}
