package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mcoot/battleship-go/internal/model"
	"github.com/mcoot/battleship-go/internal/services/twopc"
)

func TestClassify(t *testing.T) {
	declined := &twopc.DeclinedError{
		Participant: "profile",
		Reason:      model.ErrProfileNotFound.Error(),
		Err:         model.ErrProfileNotFound,
	}

	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{
			name:   "game not found",
			err:    fmt.Errorf("join: %w", model.ErrGameNotFound),
			status: http.StatusNotFound,
			code:   CodeGameNotFound,
		},
		{
			name:    "declined vote wrapping a missing profile",
			err:     fmt.Errorf("%w: %w", model.ErrStatsUnavailable, fmt.Errorf("%w: %w", twopc.ErrAborted, declined)),
			status:  http.StatusConflict,
			code:    CodeStatsDeclined,
			message: "statistics update could not be completed: user not found",
		},
		{
			name:    "unreachable participant",
			err:     fmt.Errorf("%w: %w", model.ErrStatsUnavailable, fmt.Errorf("%w: %w", twopc.ErrUnavailable, errors.New("dial tcp: refused"))),
			status:  http.StatusServiceUnavailable,
			code:    CodeStatsUnavailable,
			message: "statistics update could not be completed",
		},
		{
			name:   "fleet does not fit",
			err:    fmt.Errorf("%w: Carrier has size 5 on a 4x4 grid", model.ErrFleetDoesNotFit),
			status: http.StatusUnprocessableEntity,
			code:   CodeFleetDoesNotFit,
		},
		{
			name:    "unknown error",
			err:     errors.New("boom"),
			status:  http.StatusInternalServerError,
			code:    CodeInternalError,
			message: "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, apiErr := Classify(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, apiErr.Code)
			if tt.message != "" {
				assert.Equal(t, tt.message, apiErr.Message)
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, model.ErrNotYourTurn)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"error","error":{"code":"NOT_YOUR_TURN","message":"not this player's turn"}}`, rec.Body.String())
}
