package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"kbine/internal/errors"
	"kbine/internal/model"
	"kbine/internal/service"
)

// PaymentHandler handles payment endpoints.
type PaymentHandler struct {
	paymentService service.PaymentService
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// InitiatePaymentRequest represents a payment initiation request.
type InitiatePaymentRequest struct {
	OrderReference string `json:"order_reference" validate:"required"`
	Amount         string `json:"amount" validate:"required"`
	PaymentPhone   string `json:"payment_phone,omitempty"`
	PaymentMethod  string `json:"payment_method" validate:"required"`
	OTP            string `json:"otp,omitempty"`
}

// InitiatePaymentResponse represents a payment initiation response.
type InitiatePaymentResponse struct {
	Success       bool   `json:"success"`
	PaymentID     string `json:"payment_id"`
	TransactionID string `json:"transaction_id"`
	PaymentMethod string `json:"payment_method"`
	CheckoutURL   string `json:"checkout_url,omitempty"`
	Status        string `json:"status,omitempty"`
	Message       string `json:"message"`
}

// RefundRequest represents a refund request.
type RefundRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// UpdateStatusRequest represents an administrative status override.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
	Notes  string `json:"notes,omitempty"`
}

// InitiatePayment godoc
// @Summary Initiate a payment for an order
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body InitiatePaymentRequest true "Payment data"
// @Success 200 {object} InitiatePaymentResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 502 {object} errors.ErrorResponse
// @Router /payments [post]
func (h *PaymentHandler) InitiatePayment(c echo.Context) error {
	var req InitiatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: err.Error(),
			Code:  "VALIDATION_ERROR",
		})
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid amount",
			Code:  "INVALID_AMOUNT",
		})
	}

	result, err := h.paymentService.InitializePayment(c.Request().Context(), service.InitiatePaymentInput{
		OrderReference: req.OrderReference,
		Amount:         amount,
		PayerPhone:     req.PaymentPhone,
		Method:         model.PaymentMethod(req.PaymentMethod),
		OTP:            req.OTP,
	})
	if err != nil {
		if err == service.ErrInvalidPhone {
			return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
				Error: err.Error(),
				Code:  "INVALID_PHONE",
			})
		}
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	message := result.Message
	if message == "" {
		if result.CheckoutURL != "" {
			message = "Open the checkout URL to complete the payment"
		} else {
			message = "Payment initiated"
		}
	}

	return c.JSON(http.StatusOK, InitiatePaymentResponse{
		Success:       true,
		PaymentID:     result.PaymentID.String(),
		TransactionID: result.TransactionID,
		PaymentMethod: string(result.Method),
		CheckoutURL:   result.CheckoutURL,
		Status:        result.ProviderStatus,
		Message:       message,
	})
}

// GetPaymentStatus godoc
// @Summary Get the latest payment status for an order
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param reference path string true "Order reference"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} errors.ErrorResponse
// @Router /payments/status/{reference} [get]
func (h *PaymentHandler) GetPaymentStatus(c echo.Context) error {
	result, err := h.paymentService.GetPaymentStatus(c.Request().Context(), c.Param("reference"))
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"payment":      result.Payment,
		"order_status": result.OrderStatus,
	})
}

// Refund godoc
// @Summary Refund a successful payment
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payment ID"
// @Param request body RefundRequest true "Refund reason"
// @Success 200 {object} model.Payment
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /payments/{id}/refund [post]
func (h *PaymentHandler) Refund(c echo.Context) error {
	var req RefundRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid payment id",
			Code:  "INVALID_UUID",
		})
	}

	payment, err := h.paymentService.Refund(c.Request().Context(), paymentID, req.Reason)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, payment)
}

// UpdateStatus godoc
// @Summary Administratively override a payment status
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payment ID"
// @Param request body UpdateStatusRequest true "New status"
// @Success 200 {object} model.Payment
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /payments/{id}/status [patch]
func (h *PaymentHandler) UpdateStatus(c echo.Context) error {
	var req UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid payment id",
			Code:  "INVALID_UUID",
		})
	}

	payment, err := h.paymentService.UpdateStatus(c.Request().Context(), paymentID, model.PaymentStatus(req.Status), req.Notes)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, payment)
}

// Delete godoc
// @Summary Cancel a payment attempt
// @Description Marks a non-successful payment as failed. Successful payments must be refunded instead.
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payment ID"
// @Success 204
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /payments/{id} [delete]
func (h *PaymentHandler) Delete(c echo.Context) error {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid payment id",
			Code:  "INVALID_UUID",
		})
	}

	if err := h.paymentService.Delete(c.Request().Context(), paymentID); err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.NoContent(http.StatusNoContent)
}
