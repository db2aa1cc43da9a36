package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/memodeck/memodeck-api/config"
	"github.com/memodeck/memodeck-api/models"
)

// testEnv wires the full service graph over an in-memory sqlite database.
type testEnv struct {
	db      *gorm.DB
	decks   *DeckService
	reviews *ReviewService
	cards   *CardService
	users   *UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// A fresh pool connection would get its own empty in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, config.Migrate(db))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	decks := NewDeckService(db, logger)
	reviews := NewReviewService(db, logger, decks)
	cards := NewCardService(db, logger, decks, reviews)
	users := NewUserService(db, logger)

	return &testEnv{db: db, decks: decks, reviews: reviews, cards: cards, users: users}
}

func (e *testEnv) createUser(t *testing.T, email string) *models.User {
	t.Helper()

	user := models.User{Email: email, Username: email, PasswordHash: "x"}
	require.NoError(t, e.db.Create(&user).Error)
	return &user
}

func (e *testEnv) createDeck(t *testing.T, owner *models.User, name string, isPrivate bool) *DeckResponse {
	t.Helper()

	deck, err := e.decks.Create(context.Background(), owner, CreateDeck{
		Name:      name,
		IsPrivate: &isPrivate,
	})
	require.NoError(t, err)
	return deck
}

func (e *testEnv) createCard(t *testing.T, owner *models.User, deckID string, front, back string) CardResponse {
	t.Helper()

	reverse := false
	cards, err := e.cards.Create(context.Background(), owner, deckID, CreateCard{
		Front:       []string{front},
		Back:        []string{back},
		ReverseCard: &reverse,
	})
	require.NoError(t, err)
	require.Len(t, cards, 1)
	return cards[0]
}

func (e *testEnv) deckModel(t *testing.T, publicID string) *models.Deck {
	t.Helper()

	var deck models.Deck
	require.NoError(t, e.db.Where("public_id = ?", publicID).First(&deck).Error)
	return &deck
}

func (e *testEnv) cardModel(t *testing.T, publicID string) *models.Card {
	t.Helper()

	var card models.Card
	require.NoError(t, e.db.Where("public_id = ?", publicID).First(&card).Error)
	return &card
}

func (e *testEnv) reviewCount(t *testing.T, where string, args ...any) int64 {
	t.Helper()

	var count int64
	require.NoError(t, e.db.Model(&models.Review{}).Where(where, args...).Count(&count).Error)
	return count
}
