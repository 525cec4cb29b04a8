package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Driver struct {
	gorm.Model
	UserID uint `json:"user_id" gorm:"unique;not null"` // Foreign key to User
	User   User `gorm:"foreignKey:UserID" json:"user,omitempty"`

	LicenseNumber string    `json:"license_number" gorm:"not null"`
	LicenseExpiry time.Time `json:"license_expiry"`
	VehicleType   string    `json:"vehicle_type"` // "truck", "van", "trailer", "container"
	VehicleNumber string    `json:"vehicle_number"`

	VehicleCapacity JSONMap `json:"vehicle_capacity" gorm:"type:text"`
	Documents       JSONMap `json:"documents" gorm:"type:text"`

	// Admin verification. Any profile save resets IsVerified to false so the
	// driver goes back through review before accepting new cargo.
	IsVerified   bool       `json:"is_verified" gorm:"default:false"`
	VerifiedByID *uint      `json:"verified_by_id,omitempty"`
	VerifiedAt   *time.Time `json:"verified_at,omitempty"`

	// Derived from reviews, see review recalculation.
	Rating          float64 `json:"rating" gorm:"default:0"`
	CompletedOrders int     `json:"completed_orders" gorm:"default:0"`
}

func ValidVehicleType(t string) bool {
	switch t {
	case "truck", "van", "trailer", "container":
		return true
	}
	return false
}

// JSONMap stores unstructured key/value data as a JSON text column.
type JSONMap map[string]interface{}

// Scan implements the Scanner interface for database deserialization
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		if len(v) == 0 {
			*m = nil
			return nil
		}
		return json.Unmarshal(v, m)
	case string:
		if v == "" {
			*m = nil
			return nil
		}
		return json.Unmarshal([]byte(v), m)
	default:
		return errors.New("unsupported type for JSONMap column")
	}
}

// Value implements the driver Valuer interface for database serialization
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	return json.Marshal(m)
}
