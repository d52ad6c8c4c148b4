package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/battleship-go/internal/api/apierr"
	"github.com/mcoot/battleship-go/internal/api/handler"
	"github.com/mcoot/battleship-go/internal/api/middleware"
	"github.com/mcoot/battleship-go/internal/api/ws"
	"github.com/mcoot/battleship-go/internal/services/auth"
	"github.com/mcoot/battleship-go/internal/services/game"
	"github.com/mcoot/battleship-go/internal/session"
	"github.com/mcoot/battleship-go/internal/storage"
)

// GameRouterConfig holds configuration for the game service router
type GameRouterConfig struct {
	Logger         *slog.Logger
	GameController game.ControllerInterface
	Sessions       *session.Registry
	// Authenticator resolves bearer tokens. Nil trusts the player ids in
	// request bodies.
	Authenticator auth.Authenticator
}

// NewGameRouter creates the game service router
func NewGameRouter(cfg GameRouterConfig) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(notFound)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	gameHandler := handler.NewGameHandler(cfg.GameController, cfg.Sessions)
	wsHandler := ws.NewHandler(cfg.GameController, cfg.Sessions, cfg.Logger)
	authMiddleware := middleware.Auth(cfg.Authenticator, cfg.Logger)

	// Liveness (no auth)
	r.HandleFunc("/status", gameHandler.Status).Methods(http.MethodGet)

	games := r.PathPrefix("/game").Subrouter()
	games.Use(authMiddleware)
	games.HandleFunc("/create", gameHandler.Create).Methods(http.MethodPost)
	games.HandleFunc("/join", gameHandler.Join).Methods(http.MethodPost)
	games.HandleFunc("/attack", gameHandler.Attack).Methods(http.MethodPost)
	games.HandleFunc("/leave", gameHandler.Leave).Methods(http.MethodPost)
	games.HandleFunc("/{id}", gameHandler.Get).Methods(http.MethodGet)

	r.Handle("/ws", authMiddleware(wsHandler)).Methods(http.MethodGet)

	return r
}

// ProfileRouterConfig holds configuration for the profile service router
type ProfileRouterConfig struct {
	Logger      *slog.Logger
	AuthService *auth.Service
	Stats       handler.StatsCoordinator
	Profiles    storage.ProfileStore
}

// NewProfileRouter creates the profile service router
func NewProfileRouter(cfg ProfileRouterConfig) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(notFound)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	authHandler := handler.NewAuthHandler(cfg.AuthService)
	participantHandler := handler.NewParticipantHandler(cfg.Stats, cfg.Profiles, cfg.Logger)

	r.HandleFunc("/status", participantHandler.Status).Methods(http.MethodGet)

	// Participant surface for the game service's orchestrator
	r.HandleFunc("/prepare", participantHandler.Prepare).Methods(http.MethodPost)
	r.HandleFunc("/commit", participantHandler.Commit).Methods(http.MethodPost)
	r.HandleFunc("/rollback", participantHandler.Rollback).Methods(http.MethodPost)
	r.HandleFunc("/update-stats", participantHandler.UpdateStats).Methods(http.MethodPost)

	r.HandleFunc("/auth/register", authHandler.Register).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)

	protected := r.PathPrefix("/auth").Subrouter()
	protected.Use(middleware.Auth(cfg.AuthService, cfg.Logger))
	protected.HandleFunc("/profile", authHandler.Profile).Methods(http.MethodGet)
	protected.HandleFunc("/logout", authHandler.Logout).Methods(http.MethodPost)

	return r
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	apierr.WriteError(w, apierr.NewNotFoundError())
}
