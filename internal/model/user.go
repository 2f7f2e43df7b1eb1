package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRole distinguishes clients from staff accounts.
type UserRole string

const (
	UserRoleClient UserRole = "client"
	UserRoleStaff  UserRole = "staff"
	UserRoleAdmin  UserRole = "admin"
)

// User represents an account identified by phone number.
type User struct {
	ID        uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Phone     string    `json:"phone" gorm:"uniqueIndex;size:20;not null"`
	Name      string    `json:"name,omitempty" gorm:"size:255"`
	Role      UserRole  `json:"role" gorm:"type:varchar(20);not null;default:'client'"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
