package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/memodeck/memodeck-api/auth"
	"github.com/memodeck/memodeck-api/models"
	"gorm.io/gorm"
)

type contextKey string

const userKey contextKey = "user"

// Auth validates access tokens and loads the authenticated user into the
// request context for downstream handlers.
type Auth struct {
	DB *gorm.DB
}

// RequireUser rejects requests without a valid token. The token is read from
// the auth_token cookie or, failing that, a bearer Authorization header.
func (a *Auth) RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString := tokenFromRequest(r)
		if tokenString == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		userID, err := auth.VerifyToken(tokenString)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		var user models.User
		if err := a.DB.First(&user, userID).Error; err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, &user)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

func tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie("auth_token"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// CurrentUser returns the user loaded by RequireUser, if any.
func CurrentUser(r *http.Request) (*models.User, bool) {
	user, ok := r.Context().Value(userKey).(*models.User)
	return user, ok
}
