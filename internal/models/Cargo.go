package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

// CargoStatus is the closed set of lifecycle states for a cargo listing.
type CargoStatus string

const (
	StatusPending   CargoStatus = "pending"
	StatusAssigned  CargoStatus = "assigned"
	StatusInTransit CargoStatus = "in_transit"
	StatusDelivered CargoStatus = "delivered"
	StatusCancelled CargoStatus = "cancelled"
)

func (s CargoStatus) String() string {
	return string(s)
}

func (s CargoStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusAssigned, StatusInTransit, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed from s.
func (s CargoStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransitionTo is the single transition table for the cargo lifecycle.
// pending -> assigned -> in_transit -> delivered, with cancellation allowed
// from any non-terminal state.
func (s CargoStatus) CanTransitionTo(next CargoStatus) bool {
	if !next.IsValid() || s.IsTerminal() {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	switch s {
	case StatusPending:
		return next == StatusAssigned
	case StatusAssigned:
		return next == StatusInTransit
	case StatusInTransit:
		return next == StatusDelivered
	}
	return false
}

// Location is a structured pickup/delivery point stored as a JSON column.
type Location struct {
	Country string `json:"country,omitempty"`
	City    string `json:"city,omitempty"`
	Address string `json:"address,omitempty"`
}

// Scan implements the Scanner interface for database deserialization
func (l *Location) Scan(value interface{}) error {
	if value == nil {
		*l = Location{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		if len(v) == 0 {
			*l = Location{}
			return nil
		}
		return json.Unmarshal(v, l)
	case string:
		if v == "" {
			*l = Location{}
			return nil
		}
		return json.Unmarshal([]byte(v), l)
	default:
		return errors.New("unsupported type for Location column")
	}
}

// Value implements the driver Valuer interface for database serialization
func (l Location) Value() (driver.Value, error) {
	return json.Marshal(l)
}

type Cargo struct {
	gorm.Model
	ShipperID uint `json:"shipper_id" gorm:"not null;index"`
	Shipper   User `gorm:"foreignKey:ShipperID" json:"shipper,omitempty"`

	// Set exactly once, by the conditional claim update in accept-order.
	AssignedDriverID *uint `json:"assigned_driver_id" gorm:"index"`
	AssignedDriver   *User `gorm:"foreignKey:AssignedDriverID" json:"assigned_driver,omitempty"`

	Title       string `json:"title" gorm:"not null"`
	Description string `json:"description"`
	CargoType   string `json:"cargo_type" gorm:"default:general"`  // container, pallets, bulk, liquid, fragile, perishable, hazardous, general
	VehicleType string `json:"vehicle_type" gorm:"default:closed"` // "open" or "closed"

	WeightKg   float64  `json:"weight_kg" gorm:"not null"`
	WeightTons float64  `json:"weight_tons"`
	Volume     *float64 `json:"volume,omitempty"`

	TotalPrice float64  `json:"total_price" gorm:"not null"`
	PricePerKm *float64 `json:"price_per_km,omitempty"` // nil when distance is unknown
	Distance   *float64 `json:"distance,omitempty"`
	Comment    string   `json:"comment,omitempty"`

	PickupLocation   Location `json:"pickup_location" gorm:"type:text"`
	DeliveryLocation Location `json:"delivery_location" gorm:"type:text"`

	PickupDate   time.Time  `json:"pickup_date" gorm:"not null"`
	DeliveryDate *time.Time `json:"delivery_date,omitempty"`

	Status CargoStatus `json:"status" gorm:"type:varchar(20);default:pending;index"`
}

func ValidCargoType(t string) bool {
	switch t {
	case "container", "pallets", "bulk", "liquid", "fragile", "perishable", "hazardous", "general":
		return true
	}
	return false
}

func ValidCargoVehicleType(t string) bool {
	return t == "open" || t == "closed"
}
