package provider

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kbine/internal/config"
	"kbine/internal/model"
)

const testWebhookSecret = "whsec_test"

func signWaveBody(t *testing.T, secret, timestamp string, body []byte) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func newTestWaveAdapter(baseURL string) *WaveAdapter {
	return NewWaveAdapter(config.WaveConfig{
		BaseURL:       baseURL,
		APIKey:        "wave_sn_test",
		WebhookSecret: testWebhookSecret,
		SuccessURL:    "https://example.com/success",
		ErrorURL:      "https://example.com/error",
		Currency:      "XOF",
	}, nil, RetryPolicy{MaxAttempts: 1})
}

func TestWaveAdapter_VerifyWebhook(t *testing.T) {
	adapter := newTestWaveAdapter("")
	body := []byte(`{"type":"checkout.session.completed","data":{"transaction_id":"cos-18qq25rgr100a","payment_status":"succeeded","when_completed":"2024-05-02T10:00:00Z","currency":"XOF"}}`)
	signature := signWaveBody(t, testWebhookSecret, "1714644000", body)

	tampered := append([]byte(nil), body...)
	tampered[len(tampered)-3] = '1'

	tests := []struct {
		name      string
		header    string
		body      []byte
		wantEvent bool
	}{
		{
			name:      "valid signature",
			header:    "t=1714644000,v1=" + signature,
			body:      body,
			wantEvent: true,
		},
		{
			name:      "valid signature among rotation candidates",
			header:    "t=1714644000,v1=" + signWaveBody(t, "other-secret", "1714644000", body) + ",v1=" + signature,
			body:      body,
			wantEvent: true,
		},
		{
			name:      "tampered body",
			header:    "t=1714644000,v1=" + signature,
			body:      tampered,
			wantEvent: false,
		},
		{
			name:      "wrong timestamp",
			header:    "t=1714644001,v1=" + signature,
			body:      body,
			wantEvent: false,
		},
		{
			name:      "missing header",
			header:    "",
			body:      body,
			wantEvent: false,
		},
		{
			name:      "malformed header",
			header:    "v1=" + signature,
			body:      body,
			wantEvent: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := http.Header{}
			if tt.header != "" {
				headers.Set(SignatureHeader, tt.header)
			}

			event := adapter.VerifyWebhook(headers, tt.body)

			if !tt.wantEvent {
				assert.Nil(t, event)
				return
			}
			require.NotNil(t, event)
			assert.Equal(t, "cos-18qq25rgr100a", event.ExternalReference)
			assert.Equal(t, "succeeded", event.ProviderStatus)
			assert.NotEmpty(t, event.Payload)
		})
	}
}

func TestWaveAdapter_MapStatus(t *testing.T) {
	adapter := newTestWaveAdapter("")

	tests := []struct {
		providerStatus string
		want           model.PaymentStatus
	}{
		{"succeeded", model.PaymentStatusSuccess},
		{"failed", model.PaymentStatusFailed},
		{"pending", model.PaymentStatusPending},
		{"processing", model.PaymentStatusPending},
		{"SUCCEEDED", model.PaymentStatusSuccess},
		{"some-future-status", model.PaymentStatusPending},
		{"", model.PaymentStatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.providerStatus, func(t *testing.T) {
			assert.Equal(t, tt.want, adapter.MapStatus(tt.providerStatus))
		})
	}
}

func TestWaveAdapter_Initiate(t *testing.T) {
	var gotAuth string
	var gotBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cos-18qq25rgr100a","wave_launch_url":"https://pay.wave.com/c/cos-18qq25rgr100a"}`))
	}))
	defer server.Close()

	adapter := newTestWaveAdapter(server.URL)
	handle, err := adapter.Initiate(t.Context(), InitiationRequest{
		Amount:         decimal.NewFromInt(5000),
		Method:         model.PaymentMethodWave,
		OrderReference: "KB-7F3K9Q2M",
		TransactionID:  "1714644000000-KB-7F3K9Q2M-a1b2c3d4",
	})

	require.NoError(t, err)
	assert.Equal(t, "Bearer wave_sn_test", gotAuth)
	assert.Equal(t, "5000", gotBody["amount"])
	assert.Equal(t, "XOF", gotBody["currency"])
	assert.Equal(t, "1714644000000-KB-7F3K9Q2M-a1b2c3d4", gotBody["client_reference"])
	assert.Equal(t, "cos-18qq25rgr100a", handle.ExternalReference)
	assert.Equal(t, "cos-18qq25rgr100a", handle.SessionID)
	assert.Equal(t, "https://pay.wave.com/c/cos-18qq25rgr100a", handle.CheckoutURL)
}

func TestParseSignatureHeader(t *testing.T) {
	tests := []struct {
		name           string
		header         string
		wantOK         bool
		wantTimestamp  string
		wantCandidates int
	}{
		{"single candidate", "t=123,v1=abc", true, "123", 1},
		{"multiple candidates", "t=123,v1=abc,v1=def", true, "123", 2},
		{"spaces tolerated", "t=123, v1=abc", true, "123", 1},
		{"missing timestamp", "v1=abc", false, "", 0},
		{"missing candidates", "t=123", false, "", 0},
		{"empty value", "t=,v1=abc", false, "", 0},
		{"empty header", "", false, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timestamp, candidates, ok := parseSignatureHeader(tt.header)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantTimestamp, timestamp)
				assert.Len(t, candidates, tt.wantCandidates)
			}
		})
	}
}
