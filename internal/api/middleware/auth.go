package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mcoot/battleship-go/internal/api/apierr"
	"github.com/mcoot/battleship-go/internal/model"
	"github.com/mcoot/battleship-go/internal/services/auth"
)

type contextKey string

const (
	identityContextKey contextKey = "identity"
	tokenContextKey    contextKey = "token"
)

// Auth creates authentication middleware. Requests without a valid bearer
// token are rejected. A nil authenticator disables the check and every
// request passes through anonymously.
func Auth(authn auth.Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if authn == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			identity, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				if errors.Is(err, auth.ErrInvalidSession) {
					apierr.WriteError(w, err)
					return
				}
				logger.Error("failed to authenticate request", slog.String("error", err.Error()))
				apierr.WriteError(w, apierr.NewUnavailableError("authentication service unavailable"))
				return
			}

			ctx := WithIdentity(r.Context(), identity)
			ctx = context.WithValue(ctx, tokenContextKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ExtractToken extracts the session token from the request.
// Browsers cannot set headers on a WebSocket upgrade, so ?token= is accepted too.
func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// WithIdentity attaches an authenticated identity to ctx
func WithIdentity(ctx context.Context, id model.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// GetIdentity returns the authenticated identity from the request context
func GetIdentity(ctx context.Context) (model.Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(model.Identity)
	return id, ok
}

// GetToken returns the bearer token the request was authenticated with
func GetToken(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey).(string)
	return token
}

// ResolvePlayer decides which player a request acts for. With an
// authenticated identity the body id is optional but must match; without
// one the body id is trusted.
func ResolvePlayer(ctx context.Context, claimed string) (model.PlayerID, error) {
	id, ok := GetIdentity(ctx)
	if !ok {
		if claimed == "" {
			return "", model.ErrMissingPlayerID
		}
		return model.PlayerID(claimed), nil
	}
	if claimed != "" && model.PlayerID(claimed) != id.PlayerID {
		return "", model.ErrPlayerIDMismatch
	}
	return id.PlayerID, nil
}
