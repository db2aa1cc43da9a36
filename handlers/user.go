package handlers

import (
	"encoding/json"
	"net/http"
)

// PUT /api/user/language
func (api *API) ChangeLanguage(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Language string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := api.Users.ChangeLanguage(r.Context(), user, req.Language); err != nil {
		api.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DELETE /api/user
func (api *API) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := api.Users.DeleteAccount(r.Context(), user); err != nil {
		api.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GET /api/user
func (api *API) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"email":    user.Email,
		"username": user.Username,
		"language": user.Language,
	})
}
