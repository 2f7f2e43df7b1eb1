package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrOrderNotFound is returned when an order reference cannot be resolved.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderAlreadyPaid is returned when the order is already completed.
	ErrOrderAlreadyPaid = errors.New("order already paid")
	// ErrAmountMismatch is returned when the requested amount differs from the order amount.
	ErrAmountMismatch = errors.New("amount does not match order amount")
	// ErrDuplicateReference is returned when a payment reference already exists.
	ErrDuplicateReference = errors.New("duplicate payment reference")
	// ErrUnsupportedMethod is returned when no provider mapping exists for a payment method.
	ErrUnsupportedMethod = errors.New("unsupported payment method")
	// ErrProviderUnavailable is returned after the provider retry policy is exhausted.
	ErrProviderUnavailable = errors.New("payment provider unavailable")
	// ErrInvalidSignature is returned when a webhook fails authenticity verification.
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrPaymentNotFound is returned when a payment cannot be located.
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrNoPaymentFound is returned when an order has no payment attempt yet.
	ErrNoPaymentFound = errors.New("no payment found for order")
	// ErrNotRefundable is returned when refunding a payment that is not in success state.
	ErrNotRefundable = errors.New("payment is not refundable")
	// ErrInvalidStatus is returned when an unknown payment status value is supplied.
	ErrInvalidStatus = errors.New("invalid payment status")
	// ErrOTPRequired is returned when the payment method requires an OTP and none was given.
	ErrOTPRequired = errors.New("otp is required for this payment method")
	// ErrPlanNotFound is returned when a plan cannot be resolved.
	ErrPlanNotFound = errors.New("plan not found")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrOrderNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "ORDER_NOT_FOUND")
	case errors.Is(err, ErrOrderAlreadyPaid):
		return NewHTTPError(http.StatusConflict, err.Error(), "ORDER_ALREADY_PAID")
	case errors.Is(err, ErrAmountMismatch):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "AMOUNT_MISMATCH")
	case errors.Is(err, ErrDuplicateReference):
		return NewHTTPError(http.StatusConflict, err.Error(), "DUPLICATE_REFERENCE")
	case errors.Is(err, ErrUnsupportedMethod):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "UNSUPPORTED_METHOD")
	case errors.Is(err, ErrProviderUnavailable):
		return NewHTTPError(http.StatusBadGateway, err.Error(), "PROVIDER_UNAVAILABLE")
	case errors.Is(err, ErrInvalidSignature):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "INVALID_SIGNATURE")
	case errors.Is(err, ErrPaymentNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "PAYMENT_NOT_FOUND")
	case errors.Is(err, ErrNoPaymentFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "NO_PAYMENT_FOUND")
	case errors.Is(err, ErrNotRefundable):
		return NewHTTPError(http.StatusConflict, err.Error(), "NOT_REFUNDABLE")
	case errors.Is(err, ErrInvalidStatus):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_STATUS")
	case errors.Is(err, ErrOTPRequired):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "OTP_REQUIRED")
	case errors.Is(err, ErrPlanNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "PLAN_NOT_FOUND")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
