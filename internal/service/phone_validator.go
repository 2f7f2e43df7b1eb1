package service

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidPhone is returned when a payer phone number is malformed.
var ErrInvalidPhone = errors.New("invalid phone number")

// phoneRegex accepts local 10-digit numbers and international formats
// with an optional country prefix.
var phoneRegex = regexp.MustCompile(`^(\+?225)?\d{10}$`)

// PhoneValidator validates payer phone numbers before provider calls.
type PhoneValidator struct{}

// NewPhoneValidator creates a new phone validator.
func NewPhoneValidator() *PhoneValidator {
	return &PhoneValidator{}
}

// ValidatePhone checks the phone number format.
func (v *PhoneValidator) ValidatePhone(phone string) error {
	if !phoneRegex.MatchString(v.Normalize(phone)) {
		return ErrInvalidPhone
	}
	return nil
}

// Normalize strips spaces and dashes.
func (v *PhoneValidator) Normalize(phone string) string {
	return strings.ReplaceAll(strings.ReplaceAll(phone, " ", ""), "-", "")
}

// Mask hides all but the last 4 digits, for logs.
func (v *PhoneValidator) Mask(phone string) string {
	phone = v.Normalize(phone)
	if len(phone) < 4 {
		return "****"
	}
	return "****" + phone[len(phone)-4:]
}
