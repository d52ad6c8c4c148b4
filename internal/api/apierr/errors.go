package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/battleship-go/internal/model"
	"github.com/mcoot/battleship-go/internal/services/auth"
	"github.com/mcoot/battleship-go/internal/services/twopc"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Status string   `json:"status"`
	Error  APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeInvalidCoordinate   = "INVALID_COORDINATE"
	CodeInvalidResult       = "INVALID_RESULT"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeUsernameExists      = "USERNAME_EXISTS"
	CodeGameNotFound        = "GAME_NOT_FOUND"
	CodeProfileNotFound     = "PROFILE_NOT_FOUND"
	CodeActiveGameExists    = "ACTIVE_GAME_EXISTS"
	CodeGameNotJoinable     = "GAME_NOT_JOINABLE"
	CodeSelfJoin            = "SELF_JOIN"
	CodeNotAParticipant     = "NOT_A_PARTICIPANT"
	CodeGameNotInProgress   = "GAME_NOT_IN_PROGRESS"
	CodeGameFinished        = "GAME_FINISHED"
	CodeNotYourTurn         = "NOT_YOUR_TURN"
	CodeAlreadyTargeted     = "ALREADY_TARGETED"
	CodeConcurrentUpdate    = "CONCURRENT_UPDATE"
	CodeFleetDoesNotFit     = "FLEET_DOES_NOT_FIT"
	CodeStatsDeclined       = "STATS_DECLINED"
	CodeStatsUnavailable    = "STATS_UNAVAILABLE"
	CodeUnknownTransaction  = "UNKNOWN_TRANSACTION"
	CodeTransactionExists   = "TRANSACTION_EXISTS"
	CodeEntityLocked        = "ENTITY_LOCKED"
	CodeTransactionMismatch = "TRANSACTION_MISMATCH"
	CodeUnavailable         = "SERVICE_UNAVAILABLE"
	CodeNotFound            = "NOT_FOUND"
	CodeInternalError       = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Status: "error", Error: he.apiError})
}

// Classify returns the HTTP status and API error for err
func Classify(err error) (int, APIError) {
	he := toHTTPError(err)
	return he.status, he.apiError
}

// mapping pairs a sentinel with its status and code. The first match wins, so
// more specific errors come before the ones that wrap them.
type mapping struct {
	target error
	status int
	code   string
}

var mappings = []mapping{
	// Validation
	{model.ErrMissingPlayerID, http.StatusBadRequest, CodeInvalidRequest},
	{model.ErrInvalidCoordinate, http.StatusBadRequest, CodeInvalidCoordinate},
	{model.ErrInvalidResult, http.StatusBadRequest, CodeInvalidResult},
	{auth.ErrInvalidUsername, http.StatusBadRequest, CodeInvalidRequest},
	{auth.ErrWeakPassword, http.StatusBadRequest, CodeInvalidRequest},

	// Auth
	{auth.ErrInvalidCredentials, http.StatusUnauthorized, CodeInvalidCredentials},
	{auth.ErrInvalidSession, http.StatusUnauthorized, CodeUnauthorized},
	{model.ErrPlayerIDMismatch, http.StatusForbidden, CodeForbidden},

	// Statistics transaction. A declined vote wraps the participant's own
	// refusal, such as ErrProfileNotFound, so these come first.
	{twopc.ErrAborted, http.StatusConflict, CodeStatsDeclined},
	{twopc.ErrUnavailable, http.StatusServiceUnavailable, CodeStatsUnavailable},
	{model.ErrStatsUnavailable, http.StatusServiceUnavailable, CodeStatsUnavailable},

	// Not found
	{model.ErrGameNotFound, http.StatusNotFound, CodeGameNotFound},
	{model.ErrProfileNotFound, http.StatusNotFound, CodeProfileNotFound},
	{model.ErrUnknownTransaction, http.StatusNotFound, CodeUnknownTransaction},

	// Game state
	{model.ErrActiveGameExists, http.StatusConflict, CodeActiveGameExists},
	{model.ErrGameNotJoinable, http.StatusConflict, CodeGameNotJoinable},
	{model.ErrSelfJoin, http.StatusConflict, CodeSelfJoin},
	{model.ErrNotAParticipant, http.StatusForbidden, CodeNotAParticipant},
	{model.ErrGameNotInProgress, http.StatusConflict, CodeGameNotInProgress},
	{model.ErrGameFinished, http.StatusConflict, CodeGameFinished},
	{model.ErrNotYourTurn, http.StatusForbidden, CodeNotYourTurn},
	{model.ErrAlreadyTargeted, http.StatusConflict, CodeAlreadyTargeted},
	{model.ErrConcurrentUpdate, http.StatusConflict, CodeConcurrentUpdate},
	{model.ErrVersionConflict, http.StatusConflict, CodeConcurrentUpdate},
	{model.ErrFleetDoesNotFit, http.StatusUnprocessableEntity, CodeFleetDoesNotFit},

	// Profiles and participant
	{model.ErrUsernameExists, http.StatusConflict, CodeUsernameExists},
	{model.ErrTransactionExists, http.StatusConflict, CodeTransactionExists},
	{model.ErrEntityLocked, http.StatusConflict, CodeEntityLocked},
	{model.ErrTransactionMismatch, http.StatusConflict, CodeTransactionMismatch},
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	for _, m := range mappings {
		if errors.Is(err, m.target) {
			return &httpError{m.status, APIError{m.code, publicMessage(err, m.target)}}
		}
	}
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}

// publicMessage keeps the detail added by the services (such as the id of the
// game a player is already seated in) but hides wrapped transport errors
func publicMessage(err, target error) string {
	switch {
	case errors.Is(err, twopc.ErrAborted):
		var d *twopc.DeclinedError
		if errors.As(err, &d) && d.Reason != "" {
			return model.ErrStatsUnavailable.Error() + ": " + d.Reason
		}
		return model.ErrStatsUnavailable.Error()
	case errors.Is(err, twopc.ErrUnavailable), errors.Is(err, model.ErrStatsUnavailable):
		return model.ErrStatsUnavailable.Error()
	}
	if err.Error() == "" {
		return target.Error()
	}
	return err.Error()
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewUnavailableError reports a dependency that could not be reached
func NewUnavailableError(message string) error {
	return &httpError{http.StatusServiceUnavailable, APIError{CodeUnavailable, message}}
}

// NewNotFoundError creates a not found error for unknown routes
func NewNotFoundError() error {
	return &httpError{http.StatusNotFound, APIError{CodeNotFound, "Not found"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
