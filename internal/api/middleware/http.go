package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/battleship-go/internal/api/apierr"
	"github.com/mcoot/battleship-go/internal/middleware"
)

// Logging records one line per request on either service
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Logging(logger)
}

// Recovery turns a handler panic into a 500 INTERNAL_ERROR body and closes
// the connection
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, func(w http.ResponseWriter, _ *http.Request, _ any) {
		w.Header().Set("Connection", "close")
		apierr.WriteError(w, apierr.NewInternalError())
	})
}
