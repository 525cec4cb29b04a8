package models

import (
	"time"

	"gorm.io/gorm"
)

// PasswordResetToken is a single-use token mailed out by forgot-password.
type PasswordResetToken struct {
	gorm.Model
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	Token     string    `json:"-" gorm:"unique;not null"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
	Used      bool      `json:"used" gorm:"default:false"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// Usable reports whether the token can still reset a password.
func (t *PasswordResetToken) Usable() bool {
	return !t.Used && time.Now().Before(t.ExpiresAt)
}
