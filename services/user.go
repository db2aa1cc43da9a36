package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/memodeck/memodeck-api/apperr"
	"github.com/memodeck/memodeck-api/auth"
	"github.com/memodeck/memodeck-api/models"
	"gorm.io/gorm"
)

const refreshTokenTTL = time.Hour * 24 * 30

// TokenPair bundles a short-lived access token and a server-stored refresh
// token.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// UserService handles accounts: registration, login, refresh-token rotation,
// profile changes and account deletion.
type UserService struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewUserService(db *gorm.DB, log *slog.Logger) *UserService {
	return &UserService{db: db, log: log}
}

// Register creates an account with a bcrypt-hashed password. Duplicate
// emails are rejected.
func (s *UserService) Register(ctx context.Context, email, username, password string) error {
	if email == "" || username == "" || password == "" {
		return apperr.BadRequest("Email, username and password are required")
	}

	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", email).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return apperr.BadRequest("Email already exists")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	user := models.User{Email: email, Username: username, PasswordHash: hash}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return err
	}

	s.log.Info("user registered", "user", email)
	return nil
}

// Login verifies credentials and returns a fresh token pair. The same
// message is returned for an unknown email and a wrong password.
func (s *UserService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Unauthorized("Email or password incorrect")
		}
		return nil, err
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, apperr.Unauthorized("Email or password incorrect")
	}

	return s.issueTokenPair(ctx, &user)
}

// Refresh rotates a refresh token: the presented token is deleted and a new
// pair is issued. Expired or unknown tokens are rejected.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var stored models.RefreshToken
	err := s.db.WithContext(ctx).Where("token = ?", refreshToken).First(&stored).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Unauthorized("Invalid refresh token")
		}
		return nil, err
	}

	if stored.ExpiresAt.Before(time.Now()) {
		return nil, apperr.Unauthorized("Refresh token expired")
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, stored.UserID).Error; err != nil {
		return nil, err
	}

	var pair *TokenPair
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&stored).Error; err != nil {
			return err
		}
		var issueErr error
		pair, issueErr = s.issueTokenPairTx(tx, &user)
		return issueErr
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// ChangeLanguage updates the user's preferred language.
func (s *UserService) ChangeLanguage(ctx context.Context, user *models.User, language string) error {
	if len(language) < 2 || len(language) > 5 {
		return apperr.BadRequest("Language invalid")
	}
	return s.db.WithContext(ctx).Model(user).Update("language", language).Error
}

// DeleteAccount removes the user with everything hanging off it: owned decks
// through the full deck cascade, subscriptions with the matching reviews,
// and refresh tokens.
func (s *UserService) DeleteAccount(ctx context.Context, user *models.User) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ownedDecks []models.Deck
		if err := tx.Where("owner_id = ?", user.ID).Find(&ownedDecks).Error; err != nil {
			return err
		}
		for i := range ownedDecks {
			if err := deleteDeckTx(tx, &ownedDecks[i]); err != nil {
				return err
			}
		}

		var joinedDeckIDs []uint
		err := tx.Model(&models.DeckSubscription{}).
			Where("user_id = ?", user.ID).
			Pluck("deck_id", &joinedDeckIDs).Error
		if err != nil {
			return err
		}
		for _, deckID := range joinedDeckIDs {
			cardIDs, err := deckCardIDs(tx, deckID)
			if err != nil {
				return err
			}
			if err := deleteReviewsForCards(tx, cardIDs, &user.ID); err != nil {
				return err
			}
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.DeckSubscription{}).Error; err != nil {
			return err
		}

		if err := tx.Where("user_id = ?", user.ID).Delete(&models.RefreshToken{}).Error; err != nil {
			return err
		}
		// Hard delete: a soft-deleted row would keep occupying the email
		// unique index and block re-registration.
		return tx.Unscoped().Delete(user).Error
	})
	if err != nil {
		s.log.Error("account delete cascade failed", "user", user.Email, "error", err)
		return err
	}

	s.log.Info("account deleted", "user", user.Email)
	return nil
}

func (s *UserService) issueTokenPair(ctx context.Context, user *models.User) (*TokenPair, error) {
	return s.issueTokenPairTx(s.db.WithContext(ctx), user)
}

func (s *UserService) issueTokenPairTx(tx *gorm.DB, user *models.User) (*TokenPair, error) {
	accessToken, err := auth.CreateToken(user.ID)
	if err != nil {
		return nil, err
	}

	refreshToken := uuid.NewString()
	stored := models.RefreshToken{
		Token:     refreshToken,
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(refreshTokenTTL),
	}
	if err := tx.Create(&stored).Error; err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
