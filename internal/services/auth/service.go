// Package auth registers players, checks their passwords and maps bearer
// tokens to player identities.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/battleship-go/internal/dependencies/clock"
	"github.com/mcoot/battleship-go/internal/model"
	"github.com/mcoot/battleship-go/internal/storage"
)

// Errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid or expired session")
	ErrInvalidUsername    = errors.New("username must be 3-32 characters")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
)

// Authenticator resolves a bearer token to the player it was issued to
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (model.Identity, error)
}

// Session represents an authenticated session
type Session struct {
	Token     string
	PlayerID  model.PlayerID
	Username  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Identity returns the player the session belongs to
func (s *Session) Identity() model.Identity {
	return model.Identity{PlayerID: s.PlayerID, Username: s.Username}
}

// Service handles registration, login and session management
type Service struct {
	storage storage.ProfileStore
	clock   clock.Clock
	logger  *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session

	sessionDuration time.Duration
	bcryptCost      int
}

// Config holds configuration for the auth service
type Config struct {
	SessionDuration time.Duration
	// BcryptCost of zero uses bcrypt.DefaultCost
	BcryptCost int
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		SessionDuration: 24 * time.Hour,
		BcryptCost:      bcrypt.DefaultCost,
	}
}

var _ Authenticator = (*Service)(nil)

// New creates a new auth Service
func New(storage storage.ProfileStore, clock clock.Clock, cfg Config, logger *slog.Logger) *Service {
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = DefaultConfig().SessionDuration
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		storage:         storage,
		clock:           clock,
		logger:          logger,
		sessions:        make(map[string]*Session),
		sessionDuration: cfg.SessionDuration,
		bcryptCost:      cfg.BcryptCost,
	}
}

// Register creates a profile with empty statistics
func (s *Service) Register(ctx context.Context, username, password string) (*model.Profile, error) {
	username = strings.TrimSpace(username)
	if len(username) < 3 || len(username) > 32 {
		return nil, ErrInvalidUsername
	}
	if len(password) < 6 {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	profile := &model.Profile{
		ID:           model.PlayerID(s.generateID("p_")),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// The store enforces username uniqueness
	if err := s.storage.CreateProfile(ctx, profile); err != nil {
		return nil, err
	}

	s.logger.Info("player registered",
		slog.String("player_id", string(profile.ID)),
		slog.String("username", username),
	)
	return profile, nil
}

// Login checks the password and opens a session
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	profile, err := s.storage.GetProfileByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, model.ErrProfileNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.createSession(profile), nil
}

// ValidateSession checks if a session token is valid and returns the session
func (s *Service) ValidateSession(token string) (*Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrInvalidSession
	}

	if s.clock.Now().After(session.ExpiresAt) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return nil, ErrInvalidSession
	}

	return session, nil
}

// Authenticate resolves a token issued by Login
func (s *Service) Authenticate(_ context.Context, token string) (model.Identity, error) {
	session, err := s.ValidateSession(token)
	if err != nil {
		return model.Identity{}, err
	}
	return session.Identity(), nil
}

// InvalidateSession removes a session
func (s *Service) InvalidateSession(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// Profile returns the profile behind a session token
func (s *Service) Profile(ctx context.Context, token string) (*model.Profile, error) {
	session, err := s.ValidateSession(token)
	if err != nil {
		return nil, err
	}
	return s.storage.GetProfile(ctx, session.PlayerID)
}

func (s *Service) createSession(profile *model.Profile) *Session {
	now := s.clock.Now()
	session := &Session{
		Token:     s.generateID("sess_"),
		PlayerID:  profile.ID,
		Username:  profile.Username,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionDuration),
	}

	s.mu.Lock()
	s.sessions[session.Token] = session
	s.mu.Unlock()

	return session
}

// generateID generates a random ID with a prefix
func (s *Service) generateID(prefix string) string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return prefix + base64.RawURLEncoding.EncodeToString(b)
}

// CleanExpiredSessions removes expired sessions and returns how many were dropped
func (s *Service) CleanExpiredSessions() int {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed
}

// DefaultCleanupInterval is used by Run when no positive interval is given
const DefaultCleanupInterval = time.Minute

// Run cleans expired sessions every interval until ctx is cancelled
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.CleanExpiredSessions(); n > 0 {
				s.logger.Debug("expired sessions removed", slog.Int("count", n))
			}
		}
	}
}
