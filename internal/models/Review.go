package models

import "gorm.io/gorm"

// Review is post-delivery feedback from one participant of a cargo to the
// other. One review per (cargo, author) pair.
type Review struct {
	gorm.Model
	CargoID    uint    `json:"cargo_id" gorm:"not null;uniqueIndex:idx_reviews_cargo_author"`
	FromUserID uint    `json:"from_user_id" gorm:"not null;uniqueIndex:idx_reviews_cargo_author;index"`
	ToUserID   uint    `json:"to_user_id" gorm:"not null;index"`
	Rating     float64 `json:"rating" gorm:"not null"` // 1..5
	Comment    string  `json:"comment,omitempty"`

	FromUser User  `gorm:"foreignKey:FromUserID" json:"from_user,omitempty"`
	ToUser   User  `gorm:"foreignKey:ToUserID" json:"to_user,omitempty"`
	Cargo    Cargo `gorm:"foreignKey:CargoID" json:"cargo,omitempty"`
}
