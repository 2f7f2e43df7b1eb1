package provider

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kbine/internal/config"
	"kbine/internal/errors"
	"kbine/internal/model"
)

func newTestTouchPointAdapter(baseURL string) *TouchPointAdapter {
	return NewTouchPointAdapter(config.TouchPointConfig{
		BaseURL:       baseURL,
		AgencyCode:    "AGENCY01",
		LoginAgent:    "agent",
		PasswordAgent: "secret",
		CallbackURL:   "https://kbine.example.com/api/v1/webhooks/touchpoint",
	}, nil, RetryPolicy{MaxAttempts: 1})
}

func TestTouchPointAdapter_Supports(t *testing.T) {
	adapter := newTestTouchPointAdapter("")

	assert.True(t, adapter.Supports(model.PaymentMethodOrange))
	assert.True(t, adapter.Supports(model.PaymentMethodMTN))
	assert.True(t, adapter.Supports(model.PaymentMethodMoov))
	assert.False(t, adapter.Supports(model.PaymentMethodWave))
}

func TestTouchPointAdapter_Initiate(t *testing.T) {
	var calls int
	var gotMethod, gotPath, gotLogin string
	var gotBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotLogin = r.URL.Query().Get("loginAgent")

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "agent", user)
		require.Equal(t, "secret", pass)

		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"INITIATED","message":"transaction accepted"}`))
	}))
	defer server.Close()

	adapter := newTestTouchPointAdapter(server.URL)

	t.Run("mtn transaction", func(t *testing.T) {
		handle, err := adapter.Initiate(t.Context(), InitiationRequest{
			Amount:        decimal.NewFromInt(5000),
			Method:        model.PaymentMethodMTN,
			TransactionID: "1714644000000-KB-7F3K9Q2M-a1b2c3d4",
			PayerPhone:    "0707080910",
		})

		require.NoError(t, err)
		assert.Equal(t, http.MethodPut, gotMethod)
		assert.Equal(t, "/AGENCY01/transaction", gotPath)
		assert.Equal(t, "agent", gotLogin)
		assert.Equal(t, "PAIEMENTMARCHAND_MTN_CI", gotBody["serviceCode"])
		assert.Equal(t, "0707080910", gotBody["recipientNumber"])
		assert.Equal(t, "1714644000000-KB-7F3K9Q2M-a1b2c3d4", gotBody["idFromClient"])
		assert.Equal(t, "1714644000000-KB-7F3K9Q2M-a1b2c3d4", handle.ExternalReference)
		assert.Equal(t, "INITIATED", handle.ProviderStatus)
		assert.Equal(t, "transaction accepted", handle.Message)
	})

	t.Run("orange money with otp", func(t *testing.T) {
		_, err := adapter.Initiate(t.Context(), InitiationRequest{
			Amount:        decimal.NewFromInt(1000),
			Method:        model.PaymentMethodOrange,
			TransactionID: "tx-orange",
			PayerPhone:    "0707080910",
			OTP:           "482913",
		})

		require.NoError(t, err)
		infos, ok := gotBody["additionnalInfos"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "482913", infos["otp"])
		assert.Equal(t, "PAIEMENTMARCHANDOMPAYCIDIRECT", gotBody["serviceCode"])
	})

	t.Run("orange money without otp is rejected before any call", func(t *testing.T) {
		before := calls
		_, err := adapter.Initiate(t.Context(), InitiationRequest{
			Amount:        decimal.NewFromInt(1000),
			Method:        model.PaymentMethodOrange,
			TransactionID: "tx-no-otp",
			PayerPhone:    "0707080910",
		})

		assert.ErrorIs(t, err, errors.ErrOTPRequired)
		assert.Equal(t, before, calls)
	})

	t.Run("unsupported method", func(t *testing.T) {
		_, err := adapter.Initiate(t.Context(), InitiationRequest{
			Amount:        decimal.NewFromInt(1000),
			Method:        model.PaymentMethodWave,
			TransactionID: "tx-wave",
		})

		assert.ErrorIs(t, err, errors.ErrUnsupportedMethod)
	})
}

func TestTouchPointAdapter_VerifyWebhook(t *testing.T) {
	adapter := newTestTouchPointAdapter("")

	tests := []struct {
		name      string
		body      string
		wantEvent bool
		wantRef   string
	}{
		{
			name:      "valid callback",
			body:      `{"partner_transaction_id":"1714644000000-KB-7F3K9Q2M-a1b2c3d4","status":"SUCCESSFUL"}`,
			wantEvent: true,
			wantRef:   "1714644000000-KB-7F3K9Q2M-a1b2c3d4",
		},
		{
			name:      "missing partner transaction id",
			body:      `{"status":"SUCCESSFUL"}`,
			wantEvent: false,
		},
		{
			name:      "malformed body",
			body:      `not-json`,
			wantEvent: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := adapter.VerifyWebhook(http.Header{}, []byte(tt.body))

			if !tt.wantEvent {
				assert.Nil(t, event)
				return
			}
			require.NotNil(t, event)
			assert.Equal(t, tt.wantRef, event.ExternalReference)
			assert.Equal(t, "SUCCESSFUL", event.ProviderStatus)
		})
	}
}

func TestTouchPointAdapter_MapStatus(t *testing.T) {
	adapter := newTestTouchPointAdapter("")

	tests := []struct {
		providerStatus string
		want           model.PaymentStatus
	}{
		{"SUCCESSFUL", model.PaymentStatusSuccess},
		{"INITIATED", model.PaymentStatusPending},
		{"PENDING", model.PaymentStatusPending},
		{"FAILED", model.PaymentStatusFailed},
		{"TIMEOUT", model.PaymentStatusFailed},
		{"successful", model.PaymentStatusSuccess},
		{"SOMETHING_NEW", model.PaymentStatusPending},
		{"", model.PaymentStatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.providerStatus, func(t *testing.T) {
			assert.Equal(t, tt.want, adapter.MapStatus(tt.providerStatus))
		})
	}
}
