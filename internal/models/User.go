package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	RoleShipper = "shipper"
	RoleDriver  = "driver"
	RoleAdmin   = "admin"
)

type User struct {
	gorm.Model
	Email    string  `json:"email" gorm:"unique;not null"`
	Password *string `json:"-"` // nil for federated accounts
	Role     string  `json:"role" gorm:"default:shipper"` // "shipper", "driver", "admin"
	IsPaid   bool    `json:"is_paid" gorm:"default:false"`

	PaymentDate *time.Time `json:"payment_date,omitempty"`
	PaymentID   string     `json:"payment_id,omitempty"`
	LastLogin   *time.Time `json:"last_login,omitempty"`

	Profile Profile `json:"profile" gorm:"type:text"`

	Driver *Driver `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"driver,omitempty"`
}

// Profile holds the free-form contact details a user fills in after
// registration. Extra keeps anything the clients send that we don't model.
type Profile struct {
	Name    string            `json:"name,omitempty"`
	Company string            `json:"company,omitempty"`
	Phone   string            `json:"phone,omitempty"`
	Extra   map[string]string `json:"extra,omitempty"`
}

// Scan implements the Scanner interface for database deserialization
func (p *Profile) Scan(value interface{}) error {
	if value == nil {
		*p = Profile{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		if len(v) == 0 {
			*p = Profile{}
			return nil
		}
		return json.Unmarshal(v, p)
	case string:
		if v == "" {
			*p = Profile{}
			return nil
		}
		return json.Unmarshal([]byte(v), p)
	default:
		return errors.New("unsupported type for Profile column")
	}
}

// Value implements the driver Valuer interface for database serialization
func (p Profile) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// CheckPassword compares a candidate against the stored bcrypt hash.
// Federated accounts (nil password) never match.
func (u *User) CheckPassword(candidate string) bool {
	if u.Password == nil {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(*u.Password), []byte(candidate)) == nil
}

func ValidRole(role string) bool {
	switch role {
	case RoleShipper, RoleDriver, RoleAdmin:
		return true
	}
	return false
}
