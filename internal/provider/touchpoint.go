package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"kbine/internal/config"
	"kbine/internal/errors"
	"kbine/internal/logger"
	"kbine/internal/metrics"
	"kbine/internal/model"
)

// serviceCodes maps each wallet brand to its TouchPoint service code.
var serviceCodes = map[model.PaymentMethod]string{
	model.PaymentMethodOrange: "PAIEMENTMARCHANDOMPAYCIDIRECT",
	model.PaymentMethodMTN:    "PAIEMENTMARCHAND_MTN_CI",
	model.PaymentMethodMoov:   "PAIEMENTMARCHAND_MOOV_CI",
}

// TouchPointAdapter drives direct debit-style transactions for the
// Orange, MTN and Moov wallet families through the TouchPoint API.
type TouchPointAdapter struct {
	cfg    config.TouchPointConfig
	client *http.Client
	retry  RetryPolicy
	logger *zap.Logger
}

// NewTouchPointAdapter creates a TouchPoint adapter with explicit configuration.
func NewTouchPointAdapter(cfg config.TouchPointConfig, client *http.Client, retry RetryPolicy) *TouchPointAdapter {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &TouchPointAdapter{
		cfg:    cfg,
		client: client,
		retry:  retry,
		logger: logger.Get().Named("touchpoint"),
	}
}

// Name returns the provider name.
func (a *TouchPointAdapter) Name() string {
	return "touchpoint"
}

// Supports reports whether a service code exists for the method.
func (a *TouchPointAdapter) Supports(method model.PaymentMethod) bool {
	_, ok := serviceCodes[method]
	return ok
}

type touchPointAdditionalInfos struct {
	Destinataire string `json:"destinataire"`
	OTP          string `json:"otp,omitempty"`
}

type touchPointTransactionRequest struct {
	IDFromClient     string                    `json:"idFromClient"`
	AdditionnalInfos touchPointAdditionalInfos `json:"additionnalInfos"`
	Amount           float64                   `json:"amount"`
	Callback         string                    `json:"callback"`
	RecipientNumber  string                    `json:"recipientNumber"`
	ServiceCode      string                    `json:"serviceCode"`
}

type touchPointTransactionResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Initiate submits a transaction keyed by the service code of the wallet
// brand. The Orange Money family requires an OTP, checked before any
// provider call. The internal transaction id doubles as the external
// reference since TouchPoint echoes it back as partner_transaction_id.
func (a *TouchPointAdapter) Initiate(ctx context.Context, req InitiationRequest) (*Handle, error) {
	serviceCode, ok := serviceCodes[req.Method]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrUnsupportedMethod, req.Method)
	}
	if req.Method == model.PaymentMethodOrange && req.OTP == "" {
		return nil, errors.ErrOTPRequired
	}

	payload, err := json.Marshal(touchPointTransactionRequest{
		IDFromClient: req.TransactionID,
		AdditionnalInfos: touchPointAdditionalInfos{
			Destinataire: req.PayerPhone,
			OTP:          req.OTP,
		},
		Amount:          req.Amount.InexactFloat64(),
		Callback:        a.cfg.CallbackURL,
		RecipientNumber: req.PayerPhone,
		ServiceCode:     serviceCode,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal transaction request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/transaction?loginAgent=%s&passwordAgent=%s",
		a.cfg.BaseURL,
		a.cfg.AgencyCode,
		url.QueryEscape(a.cfg.LoginAgent),
		url.QueryEscape(a.cfg.PasswordAgent))

	start := time.Now()
	resp, err := a.retry.Do(ctx, a.client, func() (*http.Request, error) {
		httpReq, err := http.NewRequest(http.MethodPut, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		httpReq.SetBasicAuth(a.cfg.LoginAgent, a.cfg.PasswordAgent)
		httpReq.Header.Set("Content-Type", "application/json")
		return httpReq, nil
	})
	metrics.ProviderCallLatency.WithLabelValues(a.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("touchpoint transaction rejected: status %d", resp.StatusCode)
	}

	var result touchPointTransactionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode transaction response: %w", err)
	}

	a.logger.Info("transaction submitted",
		zap.String("transaction_id", req.TransactionID),
		zap.String("service_code", serviceCode),
		zap.String("provider_status", result.Status))

	return &Handle{
		ExternalReference: req.TransactionID,
		ProviderStatus:    result.Status,
		Message:           result.Message,
	}, nil
}

type touchPointWebhookBody struct {
	PartnerTransactionID string `json:"partner_transaction_id"`
	Status               string `json:"status"`
}

// VerifyWebhook parses a TouchPoint callback. TouchPoint does not sign
// its webhooks; the body is accepted as-is, keyed by
// partner_transaction_id. This is a known trust gap, not a design goal.
func (a *TouchPointAdapter) VerifyWebhook(headers http.Header, body []byte) *Event {
	var parsed touchPointWebhookBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil
	}
	if parsed.PartnerTransactionID == "" {
		return nil
	}

	var payload map[string]interface{}
	_ = json.Unmarshal(body, &payload)

	return &Event{
		ExternalReference: parsed.PartnerTransactionID,
		ProviderStatus:    parsed.Status,
		Payload:           payload,
		ReceivedAt:        time.Now().UTC(),
	}
}

// MapStatus maps TouchPoint's status vocabulary to the internal lifecycle.
func (a *TouchPointAdapter) MapStatus(providerStatus string) model.PaymentStatus {
	switch strings.ToUpper(providerStatus) {
	case "SUCCESSFUL":
		return model.PaymentStatusSuccess
	case "INITIATED", "PENDING":
		return model.PaymentStatusPending
	case "FAILED", "TIMEOUT":
		return model.PaymentStatusFailed
	default:
		return model.PaymentStatusPending
	}
}
