package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/memodeck/memodeck-api/apperr"
	"github.com/memodeck/memodeck-api/models"
	"github.com/memodeck/memodeck-api/srs"
	"gorm.io/gorm"
)

// ReviewService owns the per-(user, card) review lifecycle: creation on card
// create and deck join, grading through the scheduler, and removal when
// cards, decks or memberships go away.
type ReviewService struct {
	db    *gorm.DB
	log   *slog.Logger
	decks *DeckService
}

func NewReviewService(db *gorm.DB, log *slog.Logger, decks *DeckService) *ReviewService {
	return &ReviewService{db: db, log: log, decks: decks}
}

// CardReview is the merged card + review view returned after grading.
type CardReview struct {
	ID         string    `json:"id"`
	Deck       string    `json:"deck"`
	Front      []string  `json:"front"`
	Back       []string  `json:"back"`
	Example    string    `json:"example,omitempty"`
	IsReverse  bool      `json:"isReverse"`
	EaseFactor float64   `json:"easeFactor"`
	Views      int       `json:"views"`
	LastReview time.Time `json:"lastReview"`
	NextReview time.Time `json:"nextReview"`
}

// Create starts reviewing a single card for the user. The card must be in a
// deck the user reviews; reviewing the same card twice is a client error.
func (s *ReviewService) Create(ctx context.Context, user *models.User, cardPublicID string) error {
	card, err := findCardByPublicID(ctx, s.db, cardPublicID)
	if err != nil {
		return err
	}

	reviewable, err := s.decks.IsCardReviewable(ctx, user.ID, card.ID)
	if err != nil {
		return err
	}
	if !reviewable {
		return apperr.AccessDenied("Forbidden")
	}

	var count int64
	err = s.db.WithContext(ctx).Model(&models.Review{}).
		Where("card_id = ? AND user_id = ?", card.ID, user.ID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return apperr.BadRequest("You already review this card")
	}

	initial := srs.InitialState(time.Now())
	review := models.Review{
		CardID:     card.ID,
		UserID:     user.ID,
		EaseFactor: initial.EaseFactor,
		Views:      initial.Views,
		LastReview: initial.LastReview,
		NextReview: initial.NextReview,
	}
	return s.db.WithContext(ctx).Create(&review).Error
}

// Grade applies a quality score to the user's review of the card and
// persists the rescheduled state. Returns the merged card + review view.
func (s *ReviewService) Grade(ctx context.Context, user *models.User, cardPublicID string, level srs.Level) (*CardReview, error) {
	card, err := findCardByPublicID(ctx, s.db, cardPublicID)
	if err != nil {
		return nil, err
	}

	reviewable, err := s.decks.IsCardReviewable(ctx, user.ID, card.ID)
	if err != nil {
		return nil, err
	}
	if !reviewable {
		return nil, apperr.AccessDenied("Forbidden")
	}

	var review models.Review
	err = s.db.WithContext(ctx).
		Where("card_id = ? AND user_id = ?", card.ID, user.ID).
		First(&review).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Review not found for this card")
		}
		return nil, err
	}

	now := time.Now()
	next := srs.Next(level.Quality(), now, srs.State{
		EaseFactor: review.EaseFactor,
		Views:      review.Views,
		LastReview: review.LastReview,
		NextReview: review.NextReview,
	})

	review.EaseFactor = next.EaseFactor
	review.Views = next.Views
	review.NextReview = next.NextReview
	review.LastReview = now

	if err := s.db.WithContext(ctx).Save(&review).Error; err != nil {
		return nil, err
	}

	s.log.Info("card graded",
		"card", card.PublicID, "user", user.Email,
		"level", level.String(), "views", review.Views)

	deckID, err := deckPublicID(ctx, s.db, card.DeckID)
	if err != nil {
		return nil, err
	}

	return &CardReview{
		ID:         card.PublicID,
		Deck:       deckID,
		Front:      card.Front,
		Back:       card.Back,
		Example:    card.Example,
		IsReverse:  card.IsReverse,
		EaseFactor: review.EaseFactor,
		Views:      review.Views,
		LastReview: review.LastReview,
		NextReview: review.NextReview,
	}, nil
}

// ListForCards returns the user's reviews for the given cards. A non-nil
// toReview restricts to due (true) or not-yet-due (false) reviews.
func (s *ReviewService) ListForCards(ctx context.Context, userID uint, cardIDs []uint, toReview *bool) ([]models.Review, error) {
	if len(cardIDs) == 0 {
		return nil, nil
	}

	query := s.db.WithContext(ctx).
		Where("user_id = ? AND card_id IN ?", userID, cardIDs)

	if toReview != nil {
		if *toReview {
			query = query.Where("next_review < ?", time.Now())
		} else {
			query = query.Where("next_review > ?", time.Now())
		}
	}

	var reviews []models.Review
	if err := query.Find(&reviews).Error; err != nil {
		return nil, err
	}
	return reviews, nil
}

// DeleteForCards removes review rows for the given cards, for one user when
// userID is non-nil or for everyone otherwise.
func (s *ReviewService) DeleteForCards(ctx context.Context, cardIDs []uint, userID *uint) error {
	return deleteReviewsForCards(s.db.WithContext(ctx), cardIDs, userID)
}

func deckPublicID(ctx context.Context, db *gorm.DB, deckID uint) (string, error) {
	var publicID string
	err := db.WithContext(ctx).Model(&models.Deck{}).
		Where("id = ?", deckID).
		Pluck("public_id", &publicID).Error
	return publicID, err
}
