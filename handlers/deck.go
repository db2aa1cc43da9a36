package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/memodeck/memodeck-api/services"
)

// POST /api/decks
func (api *API) CreateDeck(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req services.CreateDeck
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	deck, err := api.Decks.Create(r.Context(), user, req)
	if err != nil {
		api.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, deck)
}

// GET /api/decks/{deckID}
func (api *API) GetDeck(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	deck, err := api.Decks.Get(r.Context(), user, r.PathValue("deckID"))
	if err != nil {
		api.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, deck)
}

// PUT /api/decks/{deckID}
func (api *API) UpdateDeck(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req services.UpdateDeck
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := api.Decks.Update(r.Context(), user, r.PathValue("deckID"), req); err != nil {
		api.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DELETE /api/decks/{deckID}
func (api *API) DeleteDeck(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := api.Decks.Delete(r.Context(), user, r.PathValue("deckID")); err != nil {
		api.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// POST /api/decks/{deckID}/join
func (api *API) JoinDeck(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := api.Decks.Join(r.Context(), user, r.PathValue("deckID")); err != nil {
		api.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// DELETE /api/decks/{deckID}/leave
func (api *API) LeaveDeck(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := api.Decks.Leave(r.Context(), user, r.PathValue("deckID")); err != nil {
		api.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GET /api/decks
func (api *API) SearchDecks(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	query := services.SearchDecks{
		Name: r.URL.Query().Get("name"),
		Skip: queryInt(r, "skip", 0),
	}
	query.Limit = queryInt(r, "limit", 10)
	if raw := r.URL.Query().Get("isPrivate"); raw != "" {
		isPrivate := raw == "true"
		query.IsPrivate = &isPrivate
	}

	decks, err := api.Decks.Search(r.Context(), user, query)
	if err != nil {
		api.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, decks)
}

// POST /api/decks/{deckID}/cards
func (api *API) CreateCard(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req services.CreateCard
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	cards, err := api.Cards.Create(r.Context(), user, r.PathValue("deckID"), req)
	if err != nil {
		api.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, cards)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
