package models

import "gorm.io/gorm"

// User represents an account in the system. A user's owned decks are the Deck
// rows whose OwnerID points here; joined decks are DeckSubscription rows.
type User struct {
	gorm.Model
	Email        string `gorm:"uniqueIndex;not null;size:320"`
	Username     string `gorm:"not null;size:100"`
	PasswordHash string `gorm:"not null" json:"-"`
	Language     string `gorm:"size:5;default:'en'"`

	Decks         []Deck             `gorm:"foreignKey:OwnerID" json:"-"`
	Subscriptions []DeckSubscription `gorm:"foreignKey:UserID" json:"-"`
}
