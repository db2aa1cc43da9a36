package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CardType string

const (
	CardTypeText  CardType = "TEXT"
	CardTypeImage CardType = "IMAGE"
)

// Card represents an individual flashcard. A reversible create produces two
// rows, the base card and its reverse (front/back swapped, IsReverse set);
// the two point at each other through PairID. Deleting one side clears the
// sibling's PairID but keeps the sibling.
type Card struct {
	gorm.Model
	PublicID string `gorm:"size:100;uniqueIndex"`

	DeckID uint `gorm:"not null;index"`
	Deck   Deck `gorm:"foreignKey:DeckID" json:"-"`

	Front   datatypes.JSONSlice[string] `gorm:"type:json"`
	Back    datatypes.JSONSlice[string] `gorm:"type:json"`
	Example string                      `gorm:"size:500"`
	Type    CardType                    `gorm:"size:10;not null;default:'TEXT'"`

	IsReverse bool
	PairID    *uint `gorm:"index"`
}
