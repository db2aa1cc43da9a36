package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/memodeck/memodeck-api/auth"
)

// POST /api/auth/register
func (api *API) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := api.Users.Register(r.Context(), req.Email, req.Username, req.Password); err != nil {
		api.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// POST /api/auth/login
func (api *API) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	pair, err := api.Users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		api.writeError(w, r, err)
		return
	}

	api.setAuthCookie(w, pair.AccessToken)
	writeJSON(w, http.StatusOK, pair)
}

// POST /api/auth/refresh
func (api *API) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	pair, err := api.Users.Refresh(r.Context(), req.Token)
	if err != nil {
		api.writeError(w, r, err)
		return
	}

	api.setAuthCookie(w, pair.AccessToken)
	writeJSON(w, http.StatusOK, pair)
}

func (api *API) setAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		Path:     "/",
		Domain:   api.Env.Domain,
		HttpOnly: true,
		Secure:   api.Env.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(auth.AccessTokenTTL.Seconds()),
	})
}
