package provider

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"kbine/internal/model"
)

// InitiationRequest carries everything an adapter needs to start a payment.
type InitiationRequest struct {
	Amount         decimal.Decimal
	Method         model.PaymentMethod
	OrderReference string
	TransactionID  string
	PayerPhone     string
	OTP            string
}

// Handle is the provider-side result of an initiation. Wave returns a
// hosted checkout session; TouchPoint may already carry a synchronous
// provider status.
type Handle struct {
	ExternalReference string
	SessionID         string
	CheckoutURL       string
	ProviderStatus    string
	Message           string
}

// Event is a verified, parsed webhook notification.
type Event struct {
	ExternalReference string
	ProviderStatus    string
	Payload           map[string]interface{}
	ReceivedAt        time.Time
}

// Adapter translates between the orchestrator and one provider's wire
// protocol. Implementations are stateless and safe for concurrent use.
type Adapter interface {
	Name() string
	Supports(method model.PaymentMethod) bool
	Initiate(ctx context.Context, req InitiationRequest) (*Handle, error)
	// VerifyWebhook authenticates and parses a raw webhook delivery.
	// A nil result means "reject, do not process": the caller must not
	// touch any payment row.
	VerifyWebhook(headers http.Header, body []byte) *Event
	// MapStatus is total: unrecognized provider statuses map to pending
	// so unknown future provider states never reach a wrong terminal state.
	MapStatus(providerStatus string) model.PaymentStatus
}
