package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"kbine/internal/errors"
	"kbine/internal/logger"
	"kbine/internal/metrics"
	"kbine/internal/model"
	"kbine/internal/notify"
	"kbine/internal/provider"
	"kbine/internal/repository"
)

// InitiatePaymentInput carries a payment initiation request.
type InitiatePaymentInput struct {
	OrderReference string
	Amount         decimal.Decimal
	PayerPhone     string
	Method         model.PaymentMethod
	OTP            string
}

// InitiatePaymentResult is the method-specific initiation outcome: a
// checkout URL for Wave, an immediate provider status for TouchPoint.
type InitiatePaymentResult struct {
	PaymentID      uuid.UUID
	TransactionID  string
	Method         model.PaymentMethod
	CheckoutURL    string
	ProviderStatus string
	Message        string
}

// PaymentStatusResult joins the latest payment with its order's status.
type PaymentStatusResult struct {
	Payment     *model.Payment
	OrderStatus model.OrderStatus
}

// PaymentService orchestrates the payment lifecycle: initiation with a
// provider, webhook consumption, refunds and administrative overrides.
type PaymentService interface {
	InitializePayment(ctx context.Context, input InitiatePaymentInput) (*InitiatePaymentResult, error)
	HandleWebhook(ctx context.Context, providerName string, headers http.Header, body []byte) error
	GetPaymentStatus(ctx context.Context, orderReference string) (*PaymentStatusResult, error)
	Refund(ctx context.Context, paymentID uuid.UUID, reason string) (*model.Payment, error)
	UpdateStatus(ctx context.Context, paymentID uuid.UUID, status model.PaymentStatus, notes string) (*model.Payment, error)
	Delete(ctx context.Context, paymentID uuid.UUID) error
}

type paymentService struct {
	orderRepo   repository.OrderRepository
	paymentRepo repository.PaymentRepository
	adapters    []provider.Adapter
	dispatcher  *notify.Dispatcher
	validator   *PhoneValidator
	logger      *zap.Logger
}

// NewPaymentService creates the payment orchestrator.
func NewPaymentService(
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	adapters []provider.Adapter,
	dispatcher *notify.Dispatcher,
) PaymentService {
	return &paymentService{
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		adapters:    adapters,
		dispatcher:  dispatcher,
		validator:   NewPhoneValidator(),
		logger:      logger.Get().Named("payments"),
	}
}

// InitializePayment validates the request against the order, persists a
// pending ledger row, then dispatches to the provider adapter. The row
// is committed before the provider call so every provider interaction
// stays traceable even when the call fails or times out.
func (s *paymentService) InitializePayment(ctx context.Context, input InitiatePaymentInput) (*InitiatePaymentResult, error) {
	metrics.PaymentInitiationsTotal.WithLabelValues(string(input.Method)).Inc()

	adapter := s.selectAdapter(input.Method)
	if adapter == nil {
		metrics.PaymentInitiationFailures.WithLabelValues("unsupported_method").Inc()
		return nil, errors.ErrUnsupportedMethod
	}

	if input.Method != model.PaymentMethodWave {
		if err := s.validator.ValidatePhone(input.PayerPhone); err != nil {
			metrics.PaymentInitiationFailures.WithLabelValues("invalid_phone").Inc()
			return nil, err
		}
	}

	order, err := s.orderRepo.FindByReference(ctx, input.OrderReference)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			metrics.PaymentInitiationFailures.WithLabelValues("order_not_found").Inc()
			return nil, errors.ErrOrderNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}

	if order.Status == model.OrderStatusCompleted {
		metrics.PaymentInitiationFailures.WithLabelValues("order_already_paid").Inc()
		return nil, errors.ErrOrderAlreadyPaid
	}

	// Exact decimal compare, no floating tolerance.
	if !input.Amount.Equal(order.Amount) {
		metrics.PaymentInitiationFailures.WithLabelValues("amount_mismatch").Inc()
		return nil, errors.ErrAmountMismatch
	}

	transactionID := newTransactionID(order.Reference)
	payment := &model.Payment{
		OrderID:           order.ID,
		Amount:            input.Amount,
		Method:            input.Method,
		PayerPhone:        input.PayerPhone,
		InternalReference: "PAY-" + transactionID,
		Status:            model.PaymentStatusPending,
		ProviderMetadata: model.Metadata{
			"initiatedAt": time.Now().UTC().Format(time.RFC3339),
		},
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		if err == errors.ErrDuplicateReference {
			metrics.PaymentInitiationFailures.WithLabelValues("duplicate_reference").Inc()
		}
		return nil, err
	}

	handle, err := adapter.Initiate(ctx, provider.InitiationRequest{
		Amount:         input.Amount,
		Method:         input.Method,
		OrderReference: order.Reference,
		TransactionID:  transactionID,
		PayerPhone:     input.PayerPhone,
		OTP:            input.OTP,
	})
	if err != nil {
		// The pending row stays: the provider may still complete the
		// payment asynchronously and report it via webhook.
		s.logger.Warn("provider initiation failed",
			zap.String("payment_id", payment.ID.String()),
			zap.String("method", string(input.Method)),
			zap.Error(err))
		metrics.PaymentInitiationFailures.WithLabelValues("provider").Inc()
		return nil, err
	}

	if err := s.attachHandle(ctx, payment.ID, handle); err != nil {
		return nil, fmt.Errorf("attach provider handle: %w", err)
	}

	return &InitiatePaymentResult{
		PaymentID:      payment.ID,
		TransactionID:  transactionID,
		Method:         input.Method,
		CheckoutURL:    handle.CheckoutURL,
		ProviderStatus: handle.ProviderStatus,
		Message:        handle.Message,
	}, nil
}

// attachHandle merges the provider handle into the payment metadata
// under a row lock so it cannot clobber a webhook that raced ahead.
func (s *paymentService) attachHandle(ctx context.Context, paymentID uuid.UUID, handle *provider.Handle) error {
	patch := model.Metadata{}
	if handle.SessionID != "" {
		patch["sessionId"] = handle.SessionID
	}
	if handle.CheckoutURL != "" {
		patch["checkoutUrl"] = handle.CheckoutURL
	}
	if handle.ProviderStatus != "" {
		patch["providerStatus"] = handle.ProviderStatus
	}
	if handle.Message != "" {
		patch["providerMessage"] = handle.Message
	}

	return s.paymentRepo.WithTransaction(ctx, func(ctx context.Context, tx interface{}) error {
		payment, err := s.paymentRepo.FindByIDForUpdateTx(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		return s.paymentRepo.AttachProviderHandleTx(ctx, tx, payment, handle.ExternalReference, patch)
	})
}

// HandleWebhook verifies an inbound provider notification and applies
// the resulting status transition. Re-delivered notifications for a
// payment already in success are accepted as no-ops. The order flip to
// completed commits in the same transaction as the payment transition.
func (s *paymentService) HandleWebhook(ctx context.Context, providerName string, headers http.Header, body []byte) error {
	adapter := s.adapterByName(providerName)
	if adapter == nil {
		return errors.ErrUnsupportedMethod
	}

	event := adapter.VerifyWebhook(headers, body)
	if event == nil {
		metrics.WebhooksRejectedTotal.WithLabelValues(providerName, "verification").Inc()
		return errors.ErrInvalidSignature
	}
	metrics.WebhooksReceivedTotal.WithLabelValues(providerName).Inc()

	mapped := adapter.MapStatus(event.ProviderStatus)

	var staffEvent *notify.Event
	err := s.paymentRepo.WithTransaction(ctx, func(ctx context.Context, tx interface{}) error {
		payment, err := s.paymentRepo.FindByExternalReferenceForUpdateTx(ctx, tx, event.ExternalReference)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.ErrPaymentNotFound
			}
			return err
		}

		// Idempotency guard, evaluated on the freshly locked row.
		if payment.Status == model.PaymentStatusSuccess {
			s.logger.Info("duplicate webhook ignored",
				zap.String("payment_id", payment.ID.String()),
				zap.String("external_reference", event.ExternalReference))
			return nil
		}
		if payment.IsTerminal() {
			s.logger.Info("webhook for terminal payment ignored",
				zap.String("payment_id", payment.ID.String()),
				zap.String("status", string(payment.Status)))
			return nil
		}

		patch := model.Metadata{
			"webhookPayload":    event.Payload,
			"webhookReceivedAt": event.ReceivedAt.Format(time.RFC3339),
		}

		if err := s.paymentRepo.TransitionTx(ctx, tx, payment, mapped, patch); err != nil {
			return err
		}

		if mapped == model.PaymentStatusSuccess {
			if err := s.orderRepo.CompleteTx(ctx, tx, payment.OrderID); err != nil {
				return err
			}
		}

		if mapped == model.PaymentStatusSuccess || mapped == model.PaymentStatusFailed {
			order, err := s.orderRepo.FindByID(ctx, payment.OrderID)
			reference := ""
			if err == nil {
				reference = order.Reference
			}
			staffEvent = &notify.Event{
				PaymentID:      payment.ID.String(),
				OrderReference: reference,
				Method:         payment.Method,
				Status:         mapped,
				Amount:         payment.Amount,
				OccurredAt:     event.ReceivedAt,
			}
		}
		return nil
	})
	if err != nil {
		if err == errors.ErrPaymentNotFound {
			metrics.WebhooksRejectedTotal.WithLabelValues(providerName, "unknown_reference").Inc()
			s.logger.Warn("webhook for unknown payment dropped",
				zap.String("provider", providerName),
				zap.String("external_reference", event.ExternalReference))
		}
		return err
	}

	switch mapped {
	case model.PaymentStatusSuccess:
		metrics.PaymentsSucceededTotal.Inc()
	case model.PaymentStatusFailed:
		metrics.PaymentsFailedTotal.Inc()
	}

	// Fire and forget: notification failures never reach the provider.
	if staffEvent != nil {
		s.dispatcher.Enqueue(ctx, *staffEvent)
	}
	return nil
}

// GetPaymentStatus returns the latest payment for an order together
// with the order's status.
func (s *paymentService) GetPaymentStatus(ctx context.Context, orderReference string) (*PaymentStatusResult, error) {
	order, err := s.orderRepo.FindByReference(ctx, orderReference)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrOrderNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}

	payment, err := s.paymentRepo.FindLatestByOrderID(ctx, order.ID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrNoPaymentFound
		}
		return nil, fmt.Errorf("find payment: %w", err)
	}

	return &PaymentStatusResult{
		Payment:     payment,
		OrderStatus: order.Status,
	}, nil
}

// Refund moves a successful payment to refunded. It does not reverse
// the order's completed status; that is a business-process decision.
func (s *paymentService) Refund(ctx context.Context, paymentID uuid.UUID, reason string) (*model.Payment, error) {
	var refunded *model.Payment
	err := s.paymentRepo.WithTransaction(ctx, func(ctx context.Context, tx interface{}) error {
		payment, err := s.paymentRepo.FindByIDForUpdateTx(ctx, tx, paymentID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.ErrPaymentNotFound
			}
			return err
		}

		if payment.Status != model.PaymentStatusSuccess {
			return errors.ErrNotRefundable
		}

		patch := model.Metadata{
			"refundReason": reason,
			"refundedAt":   time.Now().UTC().Format(time.RFC3339),
		}
		if err := s.paymentRepo.TransitionTx(ctx, tx, payment, model.PaymentStatusRefunded, patch); err != nil {
			return err
		}
		refunded = payment
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment refunded",
		zap.String("payment_id", paymentID.String()),
		zap.String("reason", reason))
	return refunded, nil
}

// UpdateStatus is the administrative escape hatch. It only validates
// that the status value is known; notes are merged into metadata.
func (s *paymentService) UpdateStatus(ctx context.Context, paymentID uuid.UUID, status model.PaymentStatus, notes string) (*model.Payment, error) {
	if !model.ValidPaymentStatus(status) {
		return nil, errors.ErrInvalidStatus
	}

	var updated *model.Payment
	err := s.paymentRepo.WithTransaction(ctx, func(ctx context.Context, tx interface{}) error {
		payment, err := s.paymentRepo.FindByIDForUpdateTx(ctx, tx, paymentID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.ErrPaymentNotFound
			}
			return err
		}

		patch := model.Metadata{
			"statusOverriddenAt": time.Now().UTC().Format(time.RFC3339),
		}
		if notes != "" {
			patch["notes"] = notes
		}
		if err := s.paymentRepo.TransitionTx(ctx, tx, payment, status, patch); err != nil {
			return err
		}
		updated = payment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete is a guarded status flip to failed; payment rows are never
// hard-deleted. Successful payments must be refunded instead.
func (s *paymentService) Delete(ctx context.Context, paymentID uuid.UUID) error {
	return s.paymentRepo.WithTransaction(ctx, func(ctx context.Context, tx interface{}) error {
		payment, err := s.paymentRepo.FindByIDForUpdateTx(ctx, tx, paymentID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.ErrPaymentNotFound
			}
			return err
		}

		if payment.Status == model.PaymentStatusSuccess {
			return errors.ErrNotRefundable
		}
		if payment.IsTerminal() {
			return nil
		}

		patch := model.Metadata{
			"deletedAt": time.Now().UTC().Format(time.RFC3339),
		}
		return s.paymentRepo.TransitionTx(ctx, tx, payment, model.PaymentStatusFailed, patch)
	})
}

func (s *paymentService) selectAdapter(method model.PaymentMethod) provider.Adapter {
	for _, adapter := range s.adapters {
		if adapter.Supports(method) {
			return adapter
		}
	}
	return nil
}

func (s *paymentService) adapterByName(name string) provider.Adapter {
	for _, adapter := range s.adapters {
		if adapter.Name() == name {
			return adapter
		}
	}
	return nil
}

// newTransactionID builds a timestamp-prefixed, unpredictable id tied
// to the order reference.
func newTransactionID(orderReference string) string {
	suffix := make([]byte, 4)
	_, _ = rand.Read(suffix)
	return fmt.Sprintf("%d-%s-%s", time.Now().UnixMilli(), orderReference, hex.EncodeToString(suffix))
}
