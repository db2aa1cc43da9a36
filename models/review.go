package models

import "time"

// Review is the per-(user, card) scheduling state. At most one row per
// (card, user) pair, enforced by the composite unique index. Reviews are
// hard-deleted: a user leaving and rejoining a deck must be able to recreate
// the same (card, user) row.
type Review struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	CardID uint `gorm:"not null;uniqueIndex:idx_card_user"`
	UserID uint `gorm:"not null;uniqueIndex:idx_card_user"`

	Card Card `gorm:"foreignKey:CardID" json:"-"`
	User User `gorm:"foreignKey:UserID" json:"-"`

	EaseFactor float64   `gorm:"not null;default:2.5"`
	Views      int       `gorm:"not null;default:0"`
	LastReview time.Time `gorm:"not null"`
	NextReview time.Time `gorm:"not null;index"`
}
