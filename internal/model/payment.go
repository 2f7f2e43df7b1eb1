package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentStatus represents the status of a payment.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusSuccess  PaymentStatus = "success"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// ValidPaymentStatus reports whether s is one of the known status values.
func ValidPaymentStatus(s PaymentStatus) bool {
	switch s {
	case PaymentStatusPending, PaymentStatusSuccess, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	default:
		return false
	}
}

// PaymentMethod identifies the mobile-money wallet used to pay.
type PaymentMethod string

const (
	PaymentMethodWave   PaymentMethod = "wave"
	PaymentMethodOrange PaymentMethod = "orange_money"
	PaymentMethodMTN    PaymentMethod = "mtn_money"
	PaymentMethodMoov   PaymentMethod = "moov_money"
)

// ValidPaymentMethod reports whether m is one of the known methods.
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentMethodWave, PaymentMethodOrange, PaymentMethodMTN, PaymentMethodMoov:
		return true
	default:
		return false
	}
}

// Payment represents one attempt to pay an order through a provider.
type Payment struct {
	ID                uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	OrderID           uuid.UUID       `json:"order_id" gorm:"type:char(36);not null;index"`
	Amount            decimal.Decimal `json:"amount" gorm:"type:decimal(20,2);not null"`
	Method            PaymentMethod   `json:"method" gorm:"type:varchar(20);not null;index"`
	PayerPhone        string          `json:"payer_phone,omitempty" gorm:"size:20"`
	InternalReference string          `json:"internal_reference" gorm:"uniqueIndex;size:64;not null"`
	// ExternalReference stays NULL until the provider assigns one; the
	// unique index must only see assigned values, never ''.
	ExternalReference string          `json:"external_reference,omitempty" gorm:"uniqueIndex;size:128;default:null"`
	Status            PaymentStatus   `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	ProviderMetadata  Metadata        `json:"provider_metadata" gorm:"type:json"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`

	// Relations
	Order Order `json:"-" gorm:"foreignKey:OrderID"`
}

// BeforeCreate sets UUID before creating the record.
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// CanTransitionTo reports whether the status machine allows moving from
// the payment's current status to next. Statuses only move forward:
// pending -> success|failed, success -> refunded. failed and refunded
// are terminal.
func (p *Payment) CanTransitionTo(next PaymentStatus) bool {
	switch p.Status {
	case PaymentStatusPending:
		return next == PaymentStatusSuccess || next == PaymentStatusFailed
	case PaymentStatusSuccess:
		return next == PaymentStatusRefunded
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is possible.
func (p *Payment) IsTerminal() bool {
	return p.Status == PaymentStatusFailed || p.Status == PaymentStatusRefunded
}
