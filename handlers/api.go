package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/memodeck/memodeck-api/apperr"
	"github.com/memodeck/memodeck-api/config"
	"github.com/memodeck/memodeck-api/middleware"
	"github.com/memodeck/memodeck-api/models"
	"github.com/memodeck/memodeck-api/services"
)

// API bundles the services behind the HTTP surface.
type API struct {
	Users   *services.UserService
	Decks   *services.DeckService
	Cards   *services.CardService
	Reviews *services.ReviewService
	Env     config.Environment
	Log     *slog.Logger
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		json.NewEncoder(w).Encode(body)
	}
}

// writeError maps service errors to their HTTP status; anything outside the
// apperr taxonomy is a 500 with a generic message.
func (api *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		http.Error(w, appErr.Message, appErr.Status)
		return
	}

	api.Log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	http.Error(w, "Internal error", http.StatusInternalServerError)
}

func currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := middleware.CurrentUser(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return nil, false
	}
	return user, true
}
