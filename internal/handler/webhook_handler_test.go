package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"kbine/internal/errors"
	"kbine/internal/model"
	"kbine/internal/service"
)

// MockPaymentService is a mock implementation of service.PaymentService.
type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) InitializePayment(ctx context.Context, input service.InitiatePaymentInput) (*service.InitiatePaymentResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.InitiatePaymentResult), args.Error(1)
}

func (m *MockPaymentService) HandleWebhook(ctx context.Context, providerName string, headers http.Header, body []byte) error {
	args := m.Called(ctx, providerName, headers, body)
	return args.Error(0)
}

func (m *MockPaymentService) GetPaymentStatus(ctx context.Context, orderReference string) (*service.PaymentStatusResult, error) {
	args := m.Called(ctx, orderReference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PaymentStatusResult), args.Error(1)
}

func (m *MockPaymentService) Refund(ctx context.Context, paymentID uuid.UUID, reason string) (*model.Payment, error) {
	args := m.Called(ctx, paymentID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *MockPaymentService) UpdateStatus(ctx context.Context, paymentID uuid.UUID, status model.PaymentStatus, notes string) (*model.Payment, error) {
	args := m.Called(ctx, paymentID, status, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *MockPaymentService) Delete(ctx context.Context, paymentID uuid.UUID) error {
	args := m.Called(ctx, paymentID)
	return args.Error(0)
}

func postWebhook(t *testing.T, h func(echo.Context) error, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/wave", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))
	return rec
}

func TestWebhookHandler(t *testing.T) {
	t.Run("accepted delivery", func(t *testing.T) {
		svc := new(MockPaymentService)
		svc.On("HandleWebhook", mock.Anything, "wave", mock.Anything, []byte(`{"type":"checkout.session.completed"}`)).
			Return(nil)
		h := NewWebhookHandler(svc)

		rec := postWebhook(t, h.HandleWave, `{"type":"checkout.session.completed"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"received":true`)
		svc.AssertExpectations(t)
	})

	t.Run("rejected signature returns generic 401", func(t *testing.T) {
		svc := new(MockPaymentService)
		svc.On("HandleWebhook", mock.Anything, "wave", mock.Anything, mock.Anything).
			Return(errors.ErrInvalidSignature)
		h := NewWebhookHandler(svc)

		rec := postWebhook(t, h.HandleWave, `{}`)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "REJECTED")
		assert.NotContains(t, rec.Body.String(), "signature")
	})

	t.Run("unknown payment returns generic 400", func(t *testing.T) {
		svc := new(MockPaymentService)
		svc.On("HandleWebhook", mock.Anything, "wave", mock.Anything, mock.Anything).
			Return(errors.ErrPaymentNotFound)
		h := NewWebhookHandler(svc)

		rec := postWebhook(t, h.HandleWave, `{}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "REJECTED")
	})

	t.Run("processing failure returns 500", func(t *testing.T) {
		svc := new(MockPaymentService)
		svc.On("HandleWebhook", mock.Anything, "wave", mock.Anything, mock.Anything).
			Return(assert.AnError)
		h := NewWebhookHandler(svc)

		rec := postWebhook(t, h.HandleWave, `{}`)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("touchpoint route", func(t *testing.T) {
		svc := new(MockPaymentService)
		svc.On("HandleWebhook", mock.Anything, "touchpoint", mock.Anything, mock.Anything).
			Return(nil)
		h := NewWebhookHandler(svc)

		rec := postWebhook(t, h.HandleTouchPoint, `{"partner_transaction_id":"tx","status":"SUCCESSFUL"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		svc.AssertExpectations(t)
	})
}
