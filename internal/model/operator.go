package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Operator represents a mobile network operator whose bundles are sold.
type Operator struct {
	ID        uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Name      string    `json:"name" gorm:"size:100;not null"`
	Code      string    `json:"code" gorm:"uniqueIndex;size:20;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (o *Operator) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// Plan represents a purchasable airtime or data bundle of an operator.
type Plan struct {
	ID           uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	OperatorID   uuid.UUID       `json:"operator_id" gorm:"type:char(36);not null;index"`
	Name         string          `json:"name" gorm:"size:100;not null"`
	Amount       decimal.Decimal `json:"amount" gorm:"type:decimal(20,2);not null"`
	ValidityDays int             `json:"validity_days" gorm:"not null;default:30"`
	Description  string          `json:"description,omitempty" gorm:"type:text"`
	Active       bool            `json:"active" gorm:"not null;default:true;index"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`

	// Relations
	Operator Operator `json:"-" gorm:"foreignKey:OperatorID"`
}

// BeforeCreate sets UUID before creating the record.
func (p *Plan) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
