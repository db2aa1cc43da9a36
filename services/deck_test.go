package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memodeck/memodeck-api/apperr"
	"github.com/memodeck/memodeck-api/models"
)

func TestPredicates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner@test.com")
	member := env.createUser(t, "member@test.com")
	stranger := env.createUser(t, "stranger@test.com")

	publicDeck := env.createDeck(t, owner, "Public", false)
	privateDeck := env.createDeck(t, owner, "Private", true)
	require.NoError(t, env.decks.Join(ctx, member, publicDeck.ID))

	publicID := env.deckModel(t, publicDeck.ID).ID
	privateID := env.deckModel(t, privateDeck.ID).ID

	cases := []struct {
		name       string
		user       *models.User
		deckID     uint
		owned      bool
		reviewed   bool
		accessible bool
	}{
		{"owner of public deck", owner, publicID, true, true, true},
		{"owner of private deck", owner, privateID, true, true, true},
		{"member of public deck", member, publicID, false, true, true},
		{"member not in private deck", member, privateID, false, false, false},
		{"stranger on public deck", stranger, publicID, false, false, true},
		{"stranger on private deck", stranger, privateID, false, false, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// Evaluated twice: the predicates must be side-effect free.
			for i := 0; i < 2; i++ {
				owned, err := env.decks.IsDeckOwned(ctx, tc.user.ID, tc.deckID)
				require.NoError(t, err)
				assert.Equal(t, tc.owned, owned)

				reviewed, err := env.decks.IsDeckReviewed(ctx, tc.user.ID, tc.deckID)
				require.NoError(t, err)
				assert.Equal(t, tc.reviewed, reviewed)

				accessible, err := env.decks.IsDeckAccessible(ctx, tc.user.ID, tc.deckID)
				require.NoError(t, err)
				assert.Equal(t, tc.accessible, accessible)
			}
		})
	}
}

func TestCardPredicates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner@test.com")
	member := env.createUser(t, "member@test.com")

	deck := env.createDeck(t, owner, "Public", false)
	card := env.createCard(t, owner, deck.ID, "hello", "bonjour")
	require.NoError(t, env.decks.Join(ctx, member, deck.ID))

	cardID := env.cardModel(t, card.ID).ID

	owned, err := env.decks.IsCardOwned(ctx, owner.ID, cardID)
	require.NoError(t, err)
	assert.True(t, owned)

	owned, err = env.decks.IsCardOwned(ctx, member.ID, cardID)
	require.NoError(t, err)
	assert.False(t, owned, "subscribers may review but not mutate")

	reviewable, err := env.decks.IsCardReviewable(ctx, member.ID, cardID)
	require.NoError(t, err)
	assert.True(t, reviewable)

	reviewable, err = env.decks.IsCardReviewable(ctx, owner.ID, cardID)
	require.NoError(t, err)
	assert.True(t, reviewable, "owning implies reviewing")

	// Unknown card is simply not owned, not an error.
	owned, err = env.decks.IsCardOwned(ctx, owner.ID, 99999)
	require.NoError(t, err)
	assert.False(t, owned)
}

func TestJoin_CreatesReviewsForExistingCards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner@test.com")
	member := env.createUser(t, "member@test.com")

	deck := env.createDeck(t, owner, "Public", false)
	env.createCard(t, owner, deck.ID, "one", "un")
	env.createCard(t, owner, deck.ID, "two", "deux")

	require.NoError(t, env.decks.Join(ctx, member, deck.ID))

	assert.EqualValues(t, 2, env.reviewCount(t, "user_id = ?", member.ID))

	reviewed, err := env.decks.IsDeckReviewed(ctx, member.ID, env.deckModel(t, deck.ID).ID)
	require.NoError(t, err)
	assert.True(t, reviewed)
}

func TestJoin_Rejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner@test.com")
	member := env.createUser(t, "member@test.com")
	stranger := env.createUser(t, "stranger@test.com")

	publicDeck := env.createDeck(t, owner, "Public", false)
	privateDeck := env.createDeck(t, owner, "Private", true)
	require.NoError(t, env.decks.Join(ctx, member, publicDeck.ID))

	// Double join.
	err := env.decks.Join(ctx, member, publicDeck.ID)
	assert.True(t, apperr.IsStatus(err, http.StatusBadRequest))

	// Joining your own deck.
	err = env.decks.Join(ctx, owner, publicDeck.ID)
	assert.True(t, apperr.IsStatus(err, http.StatusBadRequest))

	// Joining a private deck.
	err = env.decks.Join(ctx, stranger, privateDeck.ID)
	assert.True(t, apperr.IsStatus(err, http.StatusForbidden))

	err = env.decks.Join(ctx, stranger, "no-such-deck")
	assert.True(t, apperr.IsStatus(err, http.StatusNotFound))
}

func TestLeave_DropsSubscriptionAndReviews(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner@test.com")
	member := env.createUser(t, "member@test.com")

	deckA := env.createDeck(t, owner, "A", false)
	deckB := env.createDeck(t, owner, "B", false)
	env.createCard(t, owner, deckA.ID, "a", "1")
	env.createCard(t, owner, deckB.ID, "b", "2")

	require.NoError(t, env.decks.Join(ctx, member, deckA.ID))
	require.NoError(t, env.decks.Join(ctx, member, deckB.ID))
	require.EqualValues(t, 2, env.reviewCount(t, "user_id = ?", member.ID))

	require.NoError(t, env.decks.Leave(ctx, member, deckA.ID))

	// Only deck A's review is gone; owner rows untouched.
	assert.EqualValues(t, 1, env.reviewCount(t, "user_id = ?", member.ID))
	assert.EqualValues(t, 2, env.reviewCount(t, "user_id = ?", owner.ID))

	// Rejoining works after leaving.
	require.NoError(t, env.decks.Join(ctx, member, deckA.ID))
	assert.EqualValues(t, 2, env.reviewCount(t, "user_id = ?", member.ID))
}

func TestLeave_Rejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner@test.com")
	stranger := env.createUser(t, "stranger@test.com")
	deck := env.createDeck(t, owner, "Public", false)

	// Owners must delete, not leave.
	err := env.decks.Leave(ctx, owner, deck.ID)
	assert.True(t, apperr.IsStatus(err, http.StatusUnauthorized))

	// Leaving a deck you never joined.
	err = env.decks.Leave(ctx, stranger, deck.ID)
	assert.True(t, apperr.IsStatus(err, http.StatusBadRequest))
}

func TestDeleteDeck_Cascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner@test.com")
	member := env.createUser(t, "member@test.com")

	deck := env.createDeck(t, owner, "Public", false)
	env.createCard(t, owner, deck.ID, "one", "un")
	env.createCard(t, owner, deck.ID, "two", "deux")
	require.NoError(t, env.decks.Join(ctx, member, deck.ID))

	deckID := env.deckModel(t, deck.ID).ID
	require.NoError(t, env.decks.Delete(ctx, owner, deck.ID))

	var cardCount int64
	require.NoError(t, env.db.Model(&models.Card{}).Where("deck_id = ?", deckID).Count(&cardCount).Error)
	assert.Zero(t, cardCount)
	assert.Zero(t, env.reviewCount(t, "1 = 1"))

	var subCount int64
	require.NoError(t, env.db.Model(&models.DeckSubscription{}).Where("deck_id = ?", deckID).Count(&subCount).Error)
	assert.Zero(t, subCount)

	_, err := env.decks.Get(ctx, owner, deck.ID)
	assert.True(t, apperr.IsStatus(err, http.StatusNotFound))
}

func TestDeleteDeck_RequiresOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner@test.com")
	member := env.createUser(t, "member@test.com")
	deck := env.createDeck(t, owner, "Public", false)
	require.NoError(t, env.decks.Join(ctx, member, deck.ID))

	err := env.decks.Delete(ctx, member, deck.ID)
	assert.True(t, apperr.IsStatus(err, http.StatusForbidden))
}

func TestUpdate_PrivacyFlipPurgesSubscriberReviews(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner@test.com")
	member := env.createUser(t, "member@test.com")

	deck := env.createDeck(t, owner, "Public", false)
	env.createCard(t, owner, deck.ID, "one", "un")
	require.NoError(t, env.decks.Join(ctx, member, deck.ID))
	require.EqualValues(t, 1, env.reviewCount(t, "user_id = ?", member.ID))

	isPrivate := false
	update := UpdateDeck{Name: "Public", IsPrivate: &isPrivate}

	// public -> public: no cascade.
	require.NoError(t, env.decks.Update(ctx, owner, deck.ID, update))
	assert.EqualValues(t, 1, env.reviewCount(t, "user_id = ?", member.ID))

	// public -> private: non-owner reviews purged, owner's kept.
	isPrivate = true
	require.NoError(t, env.decks.Update(ctx, owner, deck.ID, update))
	assert.Zero(t, env.reviewCount(t, "user_id = ?", member.ID))
	assert.EqualValues(t, 1, env.reviewCount(t, "user_id = ?", owner.ID))

	// private -> private again: nothing more to purge, no error.
	require.NoError(t, env.decks.Update(ctx, owner, deck.ID, update))
	assert.EqualValues(t, 1, env.reviewCount(t, "user_id = ?", owner.ID))
}

func TestSearchDecks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner@test.com")
	other := env.createUser(t, "other@test.com")

	env.createDeck(t, owner, "My private", true)
	env.createDeck(t, owner, "My public", false)
	env.createDeck(t, other, "Their private", true)
	env.createDeck(t, other, "Their public", false)

	decks, err := env.decks.Search(ctx, owner, SearchDecks{})
	require.NoError(t, err)
	names := make([]string, 0, len(decks))
	for _, deck := range decks {
		names = append(names, deck.Name)
	}
	assert.ElementsMatch(t, []string{"My private", "My public", "Their public"}, names)

	decks, err = env.decks.Search(ctx, owner, SearchDecks{Name: "public"})
	require.NoError(t, err)
	assert.Len(t, decks, 2)

	isPrivate := true
	decks, err = env.decks.Search(ctx, owner, SearchDecks{IsPrivate: &isPrivate})
	require.NoError(t, err)
	require.Len(t, decks, 1)
	assert.Equal(t, "My private", decks[0].Name)
	assert.True(t, decks[0].IsOwner)
}
