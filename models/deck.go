package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Deck represents a collection of flashcards. Its card list is the Card rows
// referencing it, in insertion (ID) order.
type Deck struct {
	gorm.Model
	PublicID    string                      `gorm:"size:100;uniqueIndex"`
	Name        string                      `gorm:"not null;size:100"`
	Description string                      `gorm:"size:500"`
	Tags        datatypes.JSONSlice[string] `gorm:"type:json"`
	IsPrivate   bool                        `gorm:"default:true"`

	OwnerID uint `gorm:"not null;index"`
	Owner   User `gorm:"foreignKey:OwnerID" json:"-"`

	// Defaults applied when a card create omits the matching field.
	DefaultCardType          CardType `gorm:"size:10;default:'TEXT'"`
	DefaultReviewReverseCard bool

	Cards []Card `gorm:"foreignKey:DeckID"`
}

// DeckSubscription records that a user joined a deck they do not own. At most
// one row per (user, deck) pair. Hard-deleted on leave so rejoining works.
type DeckSubscription struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time

	UserID uint `gorm:"not null;uniqueIndex:idx_user_deck"`
	DeckID uint `gorm:"not null;uniqueIndex:idx_user_deck"`

	User User `gorm:"foreignKey:UserID" json:"-"`
	Deck Deck `gorm:"foreignKey:DeckID" json:"-"`
}
