package models

import (
	"time"

	"gorm.io/gorm"
)

// OneTimeCode is the short-lived email verification code required before
// registration. Codes live for ten minutes; a verified code proves control
// of the email for the following hour.
type OneTimeCode struct {
	gorm.Model
	Email      string     `json:"email" gorm:"not null;index"`
	Code       string     `json:"-" gorm:"not null"`
	Verified   bool       `json:"verified" gorm:"default:false"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	ExpiresAt  time.Time  `json:"expires_at" gorm:"not null;index"`
}

// IsExpired checks if the code has expired
func (o *OneTimeCode) IsExpired() bool {
	return time.Now().After(o.ExpiresAt)
}

// ProvesEmail reports whether this code still vouches for the email: it must
// be verified and the verification must be inside the trailing window.
func (o *OneTimeCode) ProvesEmail(window time.Duration) bool {
	if !o.Verified || o.VerifiedAt == nil {
		return false
	}
	return time.Since(*o.VerifiedAt) <= window
}
