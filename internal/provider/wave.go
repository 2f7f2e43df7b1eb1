package provider

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"kbine/internal/config"
	"kbine/internal/logger"
	"kbine/internal/metrics"
	"kbine/internal/model"
)

// SignatureHeader is the header carrying the Wave webhook signature,
// formatted as "t=<timestamp>,v1=<hmac>[,v1=<hmac>...]". Multiple v1
// candidates are kept for key rotation.
const SignatureHeader = "Wave-Signature"

// WaveAdapter drives payments through Wave hosted checkout sessions.
// Completion always arrives asynchronously via webhook.
type WaveAdapter struct {
	cfg    config.WaveConfig
	client *http.Client
	retry  RetryPolicy
	logger *zap.Logger
}

// NewWaveAdapter creates a Wave adapter with explicit configuration.
func NewWaveAdapter(cfg config.WaveConfig, client *http.Client, retry RetryPolicy) *WaveAdapter {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &WaveAdapter{
		cfg:    cfg,
		client: client,
		retry:  retry,
		logger: logger.Get().Named("wave"),
	}
}

// Name returns the provider name.
func (a *WaveAdapter) Name() string {
	return "wave"
}

// Supports reports whether the adapter handles the given method.
func (a *WaveAdapter) Supports(method model.PaymentMethod) bool {
	return method == model.PaymentMethodWave
}

type waveCheckoutRequest struct {
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
	ErrorURL        string `json:"error_url"`
	SuccessURL      string `json:"success_url"`
	ClientReference string `json:"client_reference"`
}

type waveCheckoutResponse struct {
	ID            string `json:"id"`
	WaveLaunchURL string `json:"wave_launch_url"`
}

// Initiate opens a hosted checkout session. The returned handle carries
// the URL the payer must be redirected to; the session id becomes the
// payment's external reference.
func (a *WaveAdapter) Initiate(ctx context.Context, req InitiationRequest) (*Handle, error) {
	payload, err := json.Marshal(waveCheckoutRequest{
		Amount:          req.Amount.StringFixed(0),
		Currency:        a.cfg.Currency,
		ErrorURL:        a.cfg.ErrorURL,
		SuccessURL:      a.cfg.SuccessURL,
		ClientReference: req.TransactionID,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal checkout request: %w", err)
	}

	start := time.Now()
	resp, err := a.retry.Do(ctx, a.client, func() (*http.Request, error) {
		httpReq, err := http.NewRequest(http.MethodPost, a.cfg.BaseURL+"/v1/checkout/sessions", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)
		httpReq.Header.Set("Content-Type", "application/json")
		return httpReq, nil
	})
	metrics.ProviderCallLatency.WithLabelValues(a.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("wave checkout session rejected: status %d", resp.StatusCode)
	}

	var session waveCheckoutResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("decode checkout response: %w", err)
	}

	a.logger.Info("checkout session opened",
		zap.String("session_id", session.ID),
		zap.String("transaction_id", req.TransactionID))

	return &Handle{
		ExternalReference: session.ID,
		SessionID:         session.ID,
		CheckoutURL:       session.WaveLaunchURL,
	}, nil
}

type waveWebhookBody struct {
	Type string `json:"type"`
	Data struct {
		TransactionID string `json:"transaction_id"`
		PaymentStatus string `json:"payment_status"`
		WhenCompleted string `json:"when_completed"`
		Currency      string `json:"currency"`
	} `json:"data"`
}

// VerifyWebhook recomputes the HMAC-SHA256 of timestamp+body with the
// shared secret and checks it against every candidate in the signature
// header using a constant-time comparison. Any mismatch or malformed
// input returns nil.
func (a *WaveAdapter) VerifyWebhook(headers http.Header, body []byte) *Event {
	timestamp, candidates, ok := parseSignatureHeader(headers.Get(SignatureHeader))
	if !ok {
		a.logger.Warn("malformed signature header")
		return nil
	}

	mac := hmac.New(sha256.New, []byte(a.cfg.WebhookSecret))
	mac.Write([]byte(timestamp))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	matched := false
	for _, candidate := range candidates {
		if hmac.Equal([]byte(expected), []byte(candidate)) {
			matched = true
		}
	}
	if !matched {
		a.logger.Warn("signature mismatch")
		return nil
	}

	var parsed waveWebhookBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil
	}
	if parsed.Data.TransactionID == "" {
		return nil
	}

	var payload map[string]interface{}
	_ = json.Unmarshal(body, &payload)

	return &Event{
		ExternalReference: parsed.Data.TransactionID,
		ProviderStatus:    parsed.Data.PaymentStatus,
		Payload:           payload,
		ReceivedAt:        time.Now().UTC(),
	}
}

// MapStatus maps Wave's status vocabulary to the internal lifecycle.
func (a *WaveAdapter) MapStatus(providerStatus string) model.PaymentStatus {
	switch strings.ToLower(providerStatus) {
	case "succeeded":
		return model.PaymentStatusSuccess
	case "failed":
		return model.PaymentStatusFailed
	case "pending", "processing":
		return model.PaymentStatusPending
	default:
		return model.PaymentStatusPending
	}
}

// parseSignatureHeader splits "t=<ts>,v1=<hmac>[,v1=<hmac>...]" into its
// timestamp and signature candidates.
func parseSignatureHeader(header string) (timestamp string, candidates []string, ok bool) {
	if header == "" {
		return "", nil, false
	}
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found || value == "" {
			return "", nil, false
		}
		switch key {
		case "t":
			timestamp = value
		case "v1":
			candidates = append(candidates, value)
		}
	}
	if timestamp == "" || len(candidates) == 0 {
		return "", nil, false
	}
	return timestamp, candidates, true
}
