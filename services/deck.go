package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/memodeck/memodeck-api/apperr"
	"github.com/memodeck/memodeck-api/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DeckService manages decks, deck membership, and the ownership and
// accessibility predicates every card/deck mutation is gated on.
type DeckService struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewDeckService(db *gorm.DB, log *slog.Logger) *DeckService {
	return &DeckService{db: db, log: log}
}

type CreateDeck struct {
	Name                     string   `json:"name"`
	Description              string   `json:"description"`
	Tags                     []string `json:"tags,omitempty"`
	IsPrivate                *bool    `json:"isPrivate,omitempty"`
	DefaultCardType          string   `json:"defaultCardType,omitempty"`
	DefaultReviewReverseCard bool     `json:"defaultReviewReverseCard,omitempty"`
}

type UpdateDeck struct {
	Name                     string   `json:"name"`
	Description              string   `json:"description"`
	Tags                     []string `json:"tags,omitempty"`
	IsPrivate                *bool    `json:"isPrivate,omitempty"`
	DefaultCardType          string   `json:"defaultCardType,omitempty"`
	DefaultReviewReverseCard *bool    `json:"defaultReviewReverseCard,omitempty"`
}

type SearchDecks struct {
	Name      string
	IsPrivate *bool
	Skip      int
	Limit     int
}

type DeckResponse struct {
	ID                       string    `json:"id"`
	Name                     string    `json:"name"`
	Description              string    `json:"description"`
	Tags                     []string  `json:"tags"`
	IsPrivate                bool      `json:"isPrivate"`
	IsOwner                  bool      `json:"isOwner"`
	DefaultCardType          string    `json:"defaultCardType"`
	DefaultReviewReverseCard bool      `json:"defaultReviewReverseCard"`
	Cards                    []string  `json:"cards"`
	CreatedAt                time.Time `json:"createdAt"`
}

// --- Ownership & accessibility predicates ---
//
// The predicates are re-evaluated on every call; nothing is cached between
// requests since join/leave churn deck membership constantly. None of them
// mutate state.

// IsDeckOwned reports whether the user owns the deck.
func (s *DeckService) IsDeckOwned(ctx context.Context, userID, deckID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Deck{}).
		Where("id = ? AND owner_id = ?", deckID, userID).
		Count(&count).Error
	return count > 0, err
}

// IsDeckReviewed reports whether the user owns or has joined the deck.
// Owning implies reviewing.
func (s *DeckService) IsDeckReviewed(ctx context.Context, userID, deckID uint) (bool, error) {
	owned, err := s.IsDeckOwned(ctx, userID, deckID)
	if err != nil || owned {
		return owned, err
	}

	var count int64
	err = s.db.WithContext(ctx).Model(&models.DeckSubscription{}).
		Where("deck_id = ? AND user_id = ?", deckID, userID).
		Count(&count).Error
	return count > 0, err
}

// IsDeckAccessible reports whether the user may browse the deck: any deck the
// user reviews, plus every public deck.
func (s *DeckService) IsDeckAccessible(ctx context.Context, userID, deckID uint) (bool, error) {
	reviewed, err := s.IsDeckReviewed(ctx, userID, deckID)
	if err != nil || reviewed {
		return reviewed, err
	}

	var count int64
	err = s.db.WithContext(ctx).Model(&models.Deck{}).
		Where("id = ? AND is_private = ?", deckID, false).
		Count(&count).Error
	return count > 0, err
}

// IsCardOwned reports whether the card's deck belongs to the user. Only the
// owner may mutate or delete a card.
func (s *DeckService) IsCardOwned(ctx context.Context, userID, cardID uint) (bool, error) {
	var card models.Card
	if err := s.db.WithContext(ctx).First(&card, cardID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return s.IsDeckOwned(ctx, userID, card.DeckID)
}

// IsCardReviewable reports whether the user owns or has joined the card's
// deck, i.e. may grade the card.
func (s *DeckService) IsCardReviewable(ctx context.Context, userID, cardID uint) (bool, error) {
	var card models.Card
	if err := s.db.WithContext(ctx).First(&card, cardID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return s.IsDeckReviewed(ctx, userID, card.DeckID)
}

// ReviewedDeckIDs returns the ids of every deck the user owns or has joined.
func (s *DeckService) ReviewedDeckIDs(ctx context.Context, userID uint) ([]uint, error) {
	var owned []uint
	err := s.db.WithContext(ctx).Model(&models.Deck{}).
		Where("owner_id = ?", userID).
		Pluck("id", &owned).Error
	if err != nil {
		return nil, err
	}

	var joined []uint
	err = s.db.WithContext(ctx).Model(&models.DeckSubscription{}).
		Where("user_id = ?", userID).
		Pluck("deck_id", &joined).Error
	if err != nil {
		return nil, err
	}

	return append(owned, joined...), nil
}

// --- Deck lifecycle ---

// Create creates a deck owned by the user.
func (s *DeckService) Create(ctx context.Context, user *models.User, req CreateDeck) (*DeckResponse, error) {
	if req.Name == "" || len(req.Name) > 100 {
		return nil, apperr.BadRequest("Deck name invalid")
	}
	if len(req.Description) > 500 {
		return nil, apperr.BadRequest("Deck description invalid")
	}

	cardType, err := parseCardType(req.DefaultCardType, models.CardTypeText)
	if err != nil {
		return nil, err
	}

	publicID, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	isPrivate := true
	if req.IsPrivate != nil {
		isPrivate = *req.IsPrivate
	}

	deck := models.Deck{
		PublicID:                 publicID,
		Name:                     req.Name,
		Description:              req.Description,
		Tags:                     datatypes.NewJSONSlice(req.Tags),
		IsPrivate:                isPrivate,
		OwnerID:                  user.ID,
		DefaultCardType:          cardType,
		DefaultReviewReverseCard: req.DefaultReviewReverseCard,
	}

	if err := s.db.WithContext(ctx).Create(&deck).Error; err != nil {
		return nil, err
	}

	s.log.Info("deck created", "deck", deck.PublicID, "user", user.Email)
	return s.deckResponse(ctx, &deck, user.ID)
}

// Get returns a deck the user may browse.
func (s *DeckService) Get(ctx context.Context, user *models.User, publicID string) (*DeckResponse, error) {
	deck, err := findDeckByPublicID(ctx, s.db, publicID)
	if err != nil {
		return nil, err
	}

	accessible, err := s.IsDeckAccessible(ctx, user.ID, deck.ID)
	if err != nil {
		return nil, err
	}
	if !accessible {
		return nil, apperr.AccessDenied("Forbidden")
	}

	return s.deckResponse(ctx, deck, user.ID)
}

// Update modifies a deck owned by the user. Flipping a public deck private
// purges every non-owner review of the deck's cards; the opposite flip has no
// cascade.
func (s *DeckService) Update(ctx context.Context, user *models.User, publicID string, req UpdateDeck) error {
	deck, err := findDeckByPublicID(ctx, s.db, publicID)
	if err != nil {
		return err
	}

	owned, err := s.IsDeckOwned(ctx, user.ID, deck.ID)
	if err != nil {
		return err
	}
	if !owned {
		return apperr.AccessDenied("Forbidden")
	}

	if req.Name == "" || len(req.Name) > 100 {
		return apperr.BadRequest("Deck name invalid")
	}
	if len(req.Description) > 500 {
		return apperr.BadRequest("Deck description invalid")
	}

	goesPrivate := req.IsPrivate != nil && *req.IsPrivate && !deck.IsPrivate

	deck.Name = req.Name
	deck.Description = req.Description
	if req.Tags != nil {
		deck.Tags = datatypes.NewJSONSlice(req.Tags)
	}
	if req.IsPrivate != nil {
		deck.IsPrivate = *req.IsPrivate
	}
	if req.DefaultCardType != "" {
		cardType, err := parseCardType(req.DefaultCardType, deck.DefaultCardType)
		if err != nil {
			return err
		}
		deck.DefaultCardType = cardType
	}
	if req.DefaultReviewReverseCard != nil {
		deck.DefaultReviewReverseCard = *req.DefaultReviewReverseCard
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(deck).Error; err != nil {
			return err
		}

		if goesPrivate {
			cardIDs, err := deckCardIDs(tx, deck.ID)
			if err != nil {
				return err
			}
			if err := deleteReviewsForCardsExcept(tx, cardIDs, deck.OwnerID); err != nil {
				return err
			}
			s.log.Info("deck went private, purged subscriber reviews",
				"deck", deck.PublicID, "cards", len(cardIDs))
		}
		return nil
	})
}

// Delete removes a deck the user owns, cascading to its cards, every user's
// reviews of those cards, and all subscriptions.
func (s *DeckService) Delete(ctx context.Context, user *models.User, publicID string) error {
	deck, err := findDeckByPublicID(ctx, s.db, publicID)
	if err != nil {
		return err
	}

	owned, err := s.IsDeckOwned(ctx, user.ID, deck.ID)
	if err != nil {
		return err
	}
	if !owned {
		return apperr.AccessDenied("Forbidden")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteDeckTx(tx, deck)
	})
	if err != nil {
		s.log.Error("deck delete cascade failed", "deck", deck.PublicID, "error", err)
		return err
	}

	s.log.Info("deck deleted", "deck", deck.PublicID, "user", user.Email)
	return nil
}

// Join subscribes the user to a public deck and bulk-creates a fresh review
// for every card already in it. Joining an owned or already-joined deck is
// rejected.
func (s *DeckService) Join(ctx context.Context, user *models.User, publicID string) error {
	deck, err := findDeckByPublicID(ctx, s.db, publicID)
	if err != nil {
		return err
	}

	reviewed, err := s.IsDeckReviewed(ctx, user.ID, deck.ID)
	if err != nil {
		return err
	}
	if reviewed {
		return apperr.BadRequest("You already review this deck")
	}

	if deck.IsPrivate {
		return apperr.AccessDenied("Forbidden")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subscription := models.DeckSubscription{UserID: user.ID, DeckID: deck.ID}
		if err := tx.Create(&subscription).Error; err != nil {
			return err
		}

		cardIDs, err := deckCardIDs(tx, deck.ID)
		if err != nil {
			return err
		}
		return createReviewsForCards(tx, user.ID, cardIDs, time.Now())
	})
}

// Leave unsubscribes the user from a joined deck and drops their reviews for
// that deck's cards. Owners must delete, not leave.
func (s *DeckService) Leave(ctx context.Context, user *models.User, publicID string) error {
	deck, err := findDeckByPublicID(ctx, s.db, publicID)
	if err != nil {
		return err
	}

	owned, err := s.IsDeckOwned(ctx, user.ID, deck.ID)
	if err != nil {
		return err
	}
	if owned {
		return apperr.Unauthorized("You cannot leave a deck you own")
	}

	var subscription models.DeckSubscription
	err = s.db.WithContext(ctx).
		Where("deck_id = ? AND user_id = ?", deck.ID, user.ID).
		First(&subscription).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.BadRequest("You do not review this deck")
		}
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&subscription).Error; err != nil {
			return err
		}

		cardIDs, err := deckCardIDs(tx, deck.ID)
		if err != nil {
			return err
		}
		return deleteReviewsForCards(tx, cardIDs, &user.ID)
	})
}

// Search lists decks the user can see: owned, joined, and public ones,
// optionally filtered by name substring and privacy flag.
func (s *DeckService) Search(ctx context.Context, user *models.User, query SearchDecks) ([]DeckResponse, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = 10
	}

	q := s.db.WithContext(ctx).Model(&models.Deck{}).
		Where("owner_id = ? OR is_private = ? OR id IN (?)",
			user.ID, false,
			s.db.Model(&models.DeckSubscription{}).Select("deck_id").Where("user_id = ?", user.ID),
		)

	if query.Name != "" {
		q = q.Where("name LIKE ?", "%"+query.Name+"%")
	}
	if query.IsPrivate != nil {
		q = q.Where("is_private = ?", *query.IsPrivate)
	}

	var decks []models.Deck
	if err := q.Order("id").Offset(query.Skip).Limit(limit).Find(&decks).Error; err != nil {
		return nil, err
	}

	responses := make([]DeckResponse, 0, len(decks))
	for i := range decks {
		response, err := s.deckResponse(ctx, &decks[i], user.ID)
		if err != nil {
			return nil, err
		}
		responses = append(responses, *response)
	}
	return responses, nil
}

func (s *DeckService) deckResponse(ctx context.Context, deck *models.Deck, userID uint) (*DeckResponse, error) {
	var cardIDs []string
	err := s.db.WithContext(ctx).Model(&models.Card{}).
		Where("deck_id = ?", deck.ID).
		Order("id").
		Pluck("public_id", &cardIDs).Error
	if err != nil {
		return nil, err
	}

	tags := []string(deck.Tags)
	if tags == nil {
		tags = []string{}
	}

	return &DeckResponse{
		ID:                       deck.PublicID,
		Name:                     deck.Name,
		Description:              deck.Description,
		Tags:                     tags,
		IsPrivate:                deck.IsPrivate,
		IsOwner:                  deck.OwnerID == userID,
		DefaultCardType:          string(deck.DefaultCardType),
		DefaultReviewReverseCard: deck.DefaultReviewReverseCard,
		Cards:                    cardIDs,
		CreatedAt:                deck.CreatedAt,
	}, nil
}

func parseCardType(raw string, fallback models.CardType) (models.CardType, error) {
	switch raw {
	case "":
		return fallback, nil
	case string(models.CardTypeText):
		return models.CardTypeText, nil
	case string(models.CardTypeImage):
		return models.CardTypeImage, nil
	default:
		return "", apperr.BadRequest("Card type invalid")
	}
}
