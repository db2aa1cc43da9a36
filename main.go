package main

import (
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/memodeck/memodeck-api/config"
	"github.com/memodeck/memodeck-api/handlers"
	"github.com/memodeck/memodeck-api/middleware"
	"github.com/memodeck/memodeck-api/services"
	"github.com/rs/cors"
)

func init() {
	// Load .env file if not in production environment
	if os.Getenv("RAILWAY_ENVIRONMENT_NAME") == "" {
		err := godotenv.Load()
		if err != nil {
			log.Printf("Warning: .env file not found, environment variables might not be loaded: %v", err)
		}
	}
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	env := config.Load()
	db, err := config.Connect(env.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect database", "error", err)
		os.Exit(1)
	}

	decks := services.NewDeckService(db, logger)
	reviews := services.NewReviewService(db, logger, decks)
	cards := services.NewCardService(db, logger, decks, reviews)
	users := services.NewUserService(db, logger)

	api := &handlers.API{
		Users:   users,
		Decks:   decks,
		Cards:   cards,
		Reviews: reviews,
		Env:     env,
		Log:     logger,
	}

	authMiddleware := &middleware.Auth{DB: db}
	requireUser := authMiddleware.RequireUser

	mux := http.NewServeMux()

	// Auth
	mux.HandleFunc("POST /api/auth/register", api.Register)
	mux.HandleFunc("POST /api/auth/login", api.Login)
	mux.HandleFunc("POST /api/auth/refresh", api.Refresh)

	// Deck
	mux.HandleFunc("GET /api/decks", requireUser(api.SearchDecks))
	mux.HandleFunc("POST /api/decks", requireUser(api.CreateDeck))
	mux.HandleFunc("GET /api/decks/{deckID}", requireUser(api.GetDeck))
	mux.HandleFunc("PUT /api/decks/{deckID}", requireUser(api.UpdateDeck))
	mux.HandleFunc("DELETE /api/decks/{deckID}", requireUser(api.DeleteDeck))
	mux.HandleFunc("POST /api/decks/{deckID}/join", requireUser(api.JoinDeck))
	mux.HandleFunc("DELETE /api/decks/{deckID}/leave", requireUser(api.LeaveDeck))
	mux.HandleFunc("POST /api/decks/{deckID}/cards", requireUser(api.CreateCard))

	// Card
	mux.HandleFunc("GET /api/cards/search", requireUser(api.SearchCards))
	mux.HandleFunc("GET /api/cards/{cardID}", requireUser(api.GetCard))
	mux.HandleFunc("PUT /api/cards/{cardID}", requireUser(api.UpdateCard))
	mux.HandleFunc("DELETE /api/cards/{cardID}", requireUser(api.DeleteCard))
	mux.HandleFunc("POST /api/cards/{cardID}/review", requireUser(api.ReviewCard))
	mux.HandleFunc("POST /api/cards/{cardID}/join", requireUser(api.JoinCard))

	// User
	mux.HandleFunc("GET /api/user", requireUser(api.GetProfile))
	mux.HandleFunc("PUT /api/user/language", requireUser(api.ChangeLanguage))
	mux.HandleFunc("DELETE /api/user", requireUser(api.DeleteAccount))

	// Configure CORS with specific options
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With", "Accept", "Origin"},
		AllowCredentials: true,
		MaxAge:           86400,
	}).Handler(mux)

	serverAddr := "0.0.0.0:" + env.Port
	logger.Info("starting server", "addr", serverAddr)

	if err := http.ListenAndServe(serverAddr, corsHandler); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
