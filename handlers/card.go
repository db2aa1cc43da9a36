package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/memodeck/memodeck-api/services"
	"github.com/memodeck/memodeck-api/srs"
)

// GET /api/cards/{cardID}
func (api *API) GetCard(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	card, err := api.Cards.Get(r.Context(), user, r.PathValue("cardID"))
	if err != nil {
		api.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, card)
}

// GET /api/cards/search
func (api *API) SearchCards(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	query := services.SearchCards{
		Deck:  r.URL.Query().Get("deck"),
		Name:  r.URL.Query().Get("name"),
		Skip:  queryInt(r, "skip", 0),
		Limit: queryInt(r, "limit", 10),
	}
	if raw := r.URL.Query().Get("reverse"); raw != "" {
		reverse := raw == "true"
		query.Reverse = &reverse
	}
	if raw := r.URL.Query().Get("toReview"); raw != "" {
		toReview := raw == "true"
		query.ToReview = &toReview
	}

	cards, err := api.Cards.Search(r.Context(), user, query)
	if err != nil {
		api.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, cards)
}

// PUT /api/cards/{cardID}
func (api *API) UpdateCard(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req services.UpdateCard
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := api.Cards.Update(r.Context(), user, r.PathValue("cardID"), req); err != nil {
		api.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DELETE /api/cards/{cardID}
func (api *API) DeleteCard(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := api.Cards.Delete(r.Context(), user, r.PathValue("cardID")); err != nil {
		api.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// POST /api/cards/{cardID}/review grades the card with a named review level.
func (api *API) ReviewCard(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req struct {
		ReviewLevel string `json:"reviewLevel"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	level, err := srs.ParseLevel(req.ReviewLevel)
	if err != nil {
		http.Error(w, "Review level invalid", http.StatusBadRequest)
		return
	}

	review, err := api.Reviews.Grade(r.Context(), user, r.PathValue("cardID"), level)
	if err != nil {
		api.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, review)
}

// POST /api/cards/{cardID}/join starts reviewing a single card.
func (api *API) JoinCard(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := api.Reviews.Create(r.Context(), user, r.PathValue("cardID")); err != nil {
		api.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}
