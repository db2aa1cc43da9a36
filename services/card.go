package services

import (
	"context"
	"log/slog"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/memodeck/memodeck-api/apperr"
	"github.com/memodeck/memodeck-api/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CardService manages cards inside decks. Card creation also seeds the
// creator's review; card deletion cascades to every user's reviews.
type CardService struct {
	db      *gorm.DB
	log     *slog.Logger
	decks   *DeckService
	reviews *ReviewService
}

func NewCardService(db *gorm.DB, log *slog.Logger, decks *DeckService, reviews *ReviewService) *CardService {
	return &CardService{db: db, log: log, decks: decks, reviews: reviews}
}

type CreateCard struct {
	Front       []string `json:"front"`
	Back        []string `json:"back"`
	Example     string   `json:"example,omitempty"`
	Type        string   `json:"type,omitempty"`
	ReverseCard *bool    `json:"reverseCard,omitempty"`
}

type UpdateCard struct {
	Front   []string `json:"front"`
	Back    []string `json:"back"`
	Example string   `json:"example,omitempty"`
}

type SearchCards struct {
	Deck     string
	Name     string
	Reverse  *bool
	ToReview *bool
	Skip     int
	Limit    int
}

type CardResponse struct {
	ID        string   `json:"id"`
	Deck      string   `json:"deck"`
	Front     []string `json:"front"`
	Back      []string `json:"back"`
	Example   string   `json:"example,omitempty"`
	Type      string   `json:"type"`
	IsReverse bool     `json:"isReverse"`
	ToReview  *bool    `json:"toReview,omitempty"`
}

func hasContent(fields []string) bool {
	for _, field := range fields {
		if field != "" {
			return true
		}
	}
	return false
}

// Create adds a card to a deck the user owns and starts the owner's review of
// it. When the reverse flag resolves true a second card is created with
// front and back swapped, paired symmetrically with the base card. Cards and
// reviews are created in one transaction so a failed review creation rolls
// the cards back.
func (s *CardService) Create(ctx context.Context, user *models.User, deckPublicID string, req CreateCard) ([]CardResponse, error) {
	deck, err := findDeckByPublicID(ctx, s.db, deckPublicID)
	if err != nil {
		return nil, err
	}

	owned, err := s.decks.IsDeckOwned(ctx, user.ID, deck.ID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, apperr.AccessDenied("Forbidden")
	}

	if !hasContent(req.Front) || !hasContent(req.Back) {
		return nil, apperr.BadRequest("The front and back fields cannot be empty")
	}

	cardType, err := parseCardType(req.Type, deck.DefaultCardType)
	if err != nil {
		return nil, err
	}

	withReverse := deck.DefaultReviewReverseCard
	if req.ReverseCard != nil {
		withReverse = *req.ReverseCard
	}

	var created []models.Card
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		publicID, err := gonanoid.New()
		if err != nil {
			return err
		}
		card := models.Card{
			PublicID: publicID,
			DeckID:   deck.ID,
			Front:    datatypes.NewJSONSlice(req.Front),
			Back:     datatypes.NewJSONSlice(req.Back),
			Example:  req.Example,
			Type:     cardType,
		}
		if err := tx.Create(&card).Error; err != nil {
			return err
		}

		if err := createReviewsForCards(tx, user.ID, []uint{card.ID}, now); err != nil {
			return err
		}
		created = append(created, card)

		if !withReverse {
			return nil
		}

		reversePublicID, err := gonanoid.New()
		if err != nil {
			return err
		}
		reverse := models.Card{
			PublicID:  reversePublicID,
			DeckID:    deck.ID,
			Front:     datatypes.NewJSONSlice(req.Back),
			Back:      datatypes.NewJSONSlice(req.Front),
			Example:   req.Example,
			Type:      cardType,
			IsReverse: true,
			PairID:    &card.ID,
		}
		if err := tx.Create(&reverse).Error; err != nil {
			return err
		}
		if err := tx.Model(&card).Update("pair_id", reverse.ID).Error; err != nil {
			return err
		}
		card.PairID = &reverse.ID

		if err := createReviewsForCards(tx, user.ID, []uint{reverse.ID}, now); err != nil {
			return err
		}
		created = append(created, reverse)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("cards created", "deck", deck.PublicID, "user", user.Email, "count", len(created))

	responses := make([]CardResponse, 0, len(created))
	for i := range created {
		responses = append(responses, cardResponse(&created[i], deck.PublicID, nil))
	}
	return responses, nil
}

// Get returns a card from any deck the user may browse.
func (s *CardService) Get(ctx context.Context, user *models.User, publicID string) (*CardResponse, error) {
	card, err := findCardByPublicID(ctx, s.db, publicID)
	if err != nil {
		return nil, err
	}

	accessible, err := s.decks.IsDeckAccessible(ctx, user.ID, card.DeckID)
	if err != nil {
		return nil, err
	}
	if !accessible {
		return nil, apperr.AccessDenied("Forbidden")
	}

	deckID, err := deckPublicID(ctx, s.db, card.DeckID)
	if err != nil {
		return nil, err
	}

	response := cardResponse(card, deckID, nil)
	return &response, nil
}

// Update edits the content of a card the user owns.
func (s *CardService) Update(ctx context.Context, user *models.User, publicID string, req UpdateCard) error {
	card, err := findCardByPublicID(ctx, s.db, publicID)
	if err != nil {
		return err
	}

	owned, err := s.decks.IsCardOwned(ctx, user.ID, card.ID)
	if err != nil {
		return err
	}
	if !owned {
		return apperr.AccessDenied("Forbidden")
	}

	if !hasContent(req.Front) || !hasContent(req.Back) {
		return apperr.BadRequest("The front and back fields cannot be empty")
	}

	card.Front = datatypes.NewJSONSlice(req.Front)
	card.Back = datatypes.NewJSONSlice(req.Back)
	card.Example = req.Example

	return s.db.WithContext(ctx).Save(card).Error
}

// Delete removes a card the user owns together with every user's review of
// it, as one transaction. The paired reverse card, if any, is detached but
// kept.
func (s *CardService) Delete(ctx context.Context, user *models.User, publicID string) error {
	card, err := findCardByPublicID(ctx, s.db, publicID)
	if err != nil {
		return err
	}

	owned, err := s.decks.IsCardOwned(ctx, user.ID, card.ID)
	if err != nil {
		return err
	}
	if !owned {
		return apperr.AccessDenied("Forbidden")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteReviewsForCards(tx, []uint{card.ID}, nil); err != nil {
			return err
		}
		if card.PairID != nil {
			err := tx.Model(&models.Card{}).
				Where("id = ?", *card.PairID).
				Update("pair_id", nil).Error
			if err != nil {
				return err
			}
		}
		return tx.Delete(card).Error
	})
	if err != nil {
		s.log.Error("card delete cascade failed", "card", card.PublicID, "error", err)
		return err
	}

	s.log.Info("card deleted", "card", card.PublicID, "user", user.Email)
	return nil
}

// Search lists cards across the user's reviewable decks, or one accessible
// deck when query.Deck is set. The name filter matches front, back and
// example as substrings. Every result carries a due flag from the user's
// reviews; toReview=true keeps only the due cards, while toReview=false is
// annotation only, so browsing a deck without reviewing it still returns
// its cards.
func (s *CardService) Search(ctx context.Context, user *models.User, query SearchCards) ([]CardResponse, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = 10
	}

	q := s.db.WithContext(ctx).Model(&models.Card{})

	if query.Deck != "" {
		deck, err := findDeckByPublicID(ctx, s.db, query.Deck)
		if err != nil {
			return nil, err
		}
		accessible, err := s.decks.IsDeckAccessible(ctx, user.ID, deck.ID)
		if err != nil {
			return nil, err
		}
		if !accessible {
			return nil, apperr.AccessDenied("Forbidden")
		}
		q = q.Where("deck_id = ?", deck.ID)
	} else {
		deckIDs, err := s.decks.ReviewedDeckIDs(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		if len(deckIDs) == 0 {
			return []CardResponse{}, nil
		}
		q = q.Where("deck_id IN ?", deckIDs)
	}

	if query.Name != "" {
		pattern := "%" + query.Name + "%"
		q = q.Where(
			"CAST(front AS TEXT) LIKE ? OR CAST(back AS TEXT) LIKE ? OR example LIKE ?",
			pattern, pattern, pattern,
		)
	}
	if query.Reverse != nil {
		q = q.Where("is_reverse = ?", *query.Reverse)
	}

	var cards []models.Card
	if err := q.Order("id").Offset(query.Skip).Limit(limit).Find(&cards).Error; err != nil {
		return nil, err
	}

	cardIDs := make([]uint, 0, len(cards))
	for i := range cards {
		cardIDs = append(cardIDs, cards[i].ID)
	}

	due := true
	dueReviews, err := s.reviews.ListForCards(ctx, user.ID, cardIDs, &due)
	if err != nil {
		return nil, err
	}
	dueByCard := make(map[uint]bool, len(dueReviews))
	for i := range dueReviews {
		dueByCard[dueReviews[i].CardID] = true
	}

	deckNames := make(map[uint]string)
	responses := make([]CardResponse, 0, len(cards))
	for i := range cards {
		card := &cards[i]
		if query.ToReview != nil && *query.ToReview && !dueByCard[card.ID] {
			continue
		}

		name, ok := deckNames[card.DeckID]
		if !ok {
			name, err = deckPublicID(ctx, s.db, card.DeckID)
			if err != nil {
				return nil, err
			}
			deckNames[card.DeckID] = name
		}

		toReview := dueByCard[card.ID]
		responses = append(responses, cardResponse(card, name, &toReview))
	}
	return responses, nil
}

func cardResponse(card *models.Card, deckPublicID string, toReview *bool) CardResponse {
	return CardResponse{
		ID:        card.PublicID,
		Deck:      deckPublicID,
		Front:     card.Front,
		Back:      card.Back,
		Example:   card.Example,
		Type:      string(card.Type),
		IsReverse: card.IsReverse,
		ToReview:  toReview,
	}
}
