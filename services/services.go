// Package services contains the business logic of the flashcard system: the
// review lifecycle, the ownership and accessibility checks that gate every
// mutating operation, and the consistency cascades run when cards, decks or
// accounts are deleted.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/memodeck/memodeck-api/apperr"
	"github.com/memodeck/memodeck-api/models"
	"github.com/memodeck/memodeck-api/srs"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func findDeckByPublicID(ctx context.Context, db *gorm.DB, publicID string) (*models.Deck, error) {
	var deck models.Deck
	if err := db.WithContext(ctx).Where("public_id = ?", publicID).First(&deck).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Deck not found")
		}
		return nil, err
	}
	return &deck, nil
}

func findCardByPublicID(ctx context.Context, db *gorm.DB, publicID string) (*models.Card, error) {
	var card models.Card
	if err := db.WithContext(ctx).Where("public_id = ?", publicID).First(&card).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Card not found")
		}
		return nil, err
	}
	return &card, nil
}

// deckCardIDs returns the deck's card ids in insertion order.
func deckCardIDs(tx *gorm.DB, deckID uint) ([]uint, error) {
	var ids []uint
	err := tx.Model(&models.Card{}).Where("deck_id = ?", deckID).Order("id").Pluck("id", &ids).Error
	return ids, err
}

// createReviewsForCards bulk-creates one fresh review per card for the user.
// Duplicate (card, user) rows are skipped so a repeated join stays
// idempotent; any other error propagates.
func createReviewsForCards(tx *gorm.DB, userID uint, cardIDs []uint, now time.Time) error {
	if len(cardIDs) == 0 {
		return nil
	}

	initial := srs.InitialState(now)
	reviews := make([]models.Review, 0, len(cardIDs))
	for _, cardID := range cardIDs {
		reviews = append(reviews, models.Review{
			CardID:     cardID,
			UserID:     userID,
			EaseFactor: initial.EaseFactor,
			Views:      initial.Views,
			LastReview: initial.LastReview,
			NextReview: initial.NextReview,
		})
	}

	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&reviews).Error
}

// deleteReviewsForCards removes review rows for the given cards. A non-nil
// userID scopes the purge to that user (deck leave); nil removes the rows of
// every user (card/deck delete, privacy flip).
func deleteReviewsForCards(tx *gorm.DB, cardIDs []uint, userID *uint) error {
	if len(cardIDs) == 0 {
		return nil
	}

	query := tx.Where("card_id IN ?", cardIDs)
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}
	return query.Delete(&models.Review{}).Error
}

// deleteReviewsForCardsExcept removes review rows for the given cards for
// every user except keepUserID. Used when a deck goes private and non-owners
// lose their progress.
func deleteReviewsForCardsExcept(tx *gorm.DB, cardIDs []uint, keepUserID uint) error {
	if len(cardIDs) == 0 {
		return nil
	}
	return tx.Where("card_id IN ? AND user_id <> ?", cardIDs, keepUserID).Delete(&models.Review{}).Error
}

// deleteDeckTx removes a deck with all of its cards, their reviews across all
// users, and every subscription pointing at it, inside the caller's
// transaction.
func deleteDeckTx(tx *gorm.DB, deck *models.Deck) error {
	cardIDs, err := deckCardIDs(tx, deck.ID)
	if err != nil {
		return err
	}
	if err := deleteReviewsForCards(tx, cardIDs, nil); err != nil {
		return err
	}
	if err := tx.Where("deck_id = ?", deck.ID).Delete(&models.Card{}).Error; err != nil {
		return err
	}
	if err := tx.Where("deck_id = ?", deck.ID).Delete(&models.DeckSubscription{}).Error; err != nil {
		return err
	}
	return tx.Delete(deck).Error
}
