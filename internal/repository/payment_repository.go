package repository

import (
	"context"
	stderrors "errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"kbine/internal/errors"
	"kbine/internal/model"
)

// PaymentRepository defines payment ledger persistence operations.
// Status transitions and metadata merges happen through the Tx methods
// inside WithTransaction so the idempotency guard and the order flip
// share one unit of work.
type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error)
	FindByInternalReference(ctx context.Context, ref string) (*model.Payment, error)
	FindLatestByOrderID(ctx context.Context, orderID uuid.UUID) (*model.Payment, error)
	// Transaction methods
	WithTransaction(ctx context.Context, fn func(ctx context.Context, tx interface{}) error) error
	FindByIDForUpdateTx(ctx context.Context, tx interface{}, id uuid.UUID) (*model.Payment, error)
	FindByExternalReferenceForUpdateTx(ctx context.Context, tx interface{}, ref string) (*model.Payment, error)
	// TransitionTx conditionally moves payment to next and merges patch
	// into its metadata. The UPDATE is guarded by the status the row had
	// when read, so a concurrent transition makes it a no-op reported as
	// a conflict rather than a double apply.
	TransitionTx(ctx context.Context, tx interface{}, payment *model.Payment, next model.PaymentStatus, patch model.Metadata) error
	// AttachProviderHandleTx merges the initiation handle into metadata
	// and records the external reference.
	AttachProviderHandleTx(ctx context.Context, tx interface{}, payment *model.Payment, externalRef string, patch model.Metadata) error
}

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository.
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// Create creates a new payment record. The external reference column
// is omitted so unassigned rows hold NULL, which the unique index
// exempts; it is only ever written by AttachProviderHandleTx. A
// unique-index violation on the internal reference surfaces as
// errors.ErrDuplicateReference.
func (r *paymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	if err := r.db.WithContext(ctx).Omit("external_reference").Create(payment).Error; err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			return errors.ErrDuplicateReference
		}
		return err
	}
	return nil
}

// FindByID finds a payment by ID.
func (r *paymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	var payment model.Payment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// FindByInternalReference finds a payment by its internal reference.
func (r *paymentRepository) FindByInternalReference(ctx context.Context, ref string) (*model.Payment, error) {
	var payment model.Payment
	if err := r.db.WithContext(ctx).Where("internal_reference = ?", ref).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// FindLatestByOrderID finds the most recent payment attempt for an order.
func (r *paymentRepository) FindLatestByOrderID(ctx context.Context, orderID uuid.UUID) (*model.Payment, error) {
	var payment model.Payment
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// WithTransaction executes a function within a database transaction.
func (r *paymentRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx interface{}) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, tx)
	})
}

// FindByIDForUpdateTx finds a payment by ID with a row-level lock.
func (r *paymentRepository) FindByIDForUpdateTx(ctx context.Context, tx interface{}, id uuid.UUID) (*model.Payment, error) {
	txDB := tx.(*gorm.DB)
	var payment model.Payment
	if err := txDB.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// FindByExternalReferenceForUpdateTx finds a payment by its provider
// reference with a row-level lock.
func (r *paymentRepository) FindByExternalReferenceForUpdateTx(ctx context.Context, tx interface{}, ref string) (*model.Payment, error) {
	txDB := tx.(*gorm.DB)
	var payment model.Payment
	if err := txDB.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("external_reference = ?", ref).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// TransitionTx applies a guarded status transition and metadata merge.
func (r *paymentRepository) TransitionTx(ctx context.Context, tx interface{}, payment *model.Payment, next model.PaymentStatus, patch model.Metadata) error {
	txDB := tx.(*gorm.DB)
	merged := payment.ProviderMetadata.Merge(patch)

	res := txDB.WithContext(ctx).Model(&model.Payment{}).
		Where("id = ? AND status = ?", payment.ID, payment.Status).
		Updates(map[string]interface{}{
			"status":            next,
			"provider_metadata": merged,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	payment.Status = next
	payment.ProviderMetadata = merged
	return nil
}

// AttachProviderHandleTx records the provider handle after initiation.
func (r *paymentRepository) AttachProviderHandleTx(ctx context.Context, tx interface{}, payment *model.Payment, externalRef string, patch model.Metadata) error {
	txDB := tx.(*gorm.DB)
	merged := payment.ProviderMetadata.Merge(patch)

	updates := map[string]interface{}{
		"provider_metadata": merged,
	}
	if externalRef != "" {
		updates["external_reference"] = externalRef
	}

	if err := txDB.WithContext(ctx).Model(&model.Payment{}).
		Where("id = ?", payment.ID).
		Updates(updates).Error; err != nil {
		return err
	}

	payment.ExternalReference = externalRef
	payment.ProviderMetadata = merged
	return nil
}
