package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/mcoot/battleship-go/internal/api/apierr"
	"github.com/mcoot/battleship-go/internal/api/request"
	"github.com/mcoot/battleship-go/internal/api/response"
	"github.com/mcoot/battleship-go/internal/model"
	"github.com/mcoot/battleship-go/internal/services/twopc"
	"github.com/mcoot/battleship-go/internal/storage"
)

// StatsCoordinator is the profile service's statistics surface
type StatsCoordinator interface {
	twopc.StatsParticipant
	UpdateStats(ctx context.Context, playerID model.PlayerID, change model.StatResult) (*model.Profile, error)
	Pending() int
}

// ParticipantHandler exposes the statistics coordinator to a remote
// orchestrator. Every reply carries a vote: ready, committed, rolled back or fail.
type ParticipantHandler struct {
	stats    StatsCoordinator
	profiles storage.ProfileStore
	logger   *slog.Logger
}

// NewParticipantHandler creates a new participant handler
func NewParticipantHandler(stats StatsCoordinator, profiles storage.ProfileStore, logger *slog.Logger) *ParticipantHandler {
	return &ParticipantHandler{
		stats:    stats,
		profiles: profiles,
		logger:   logger,
	}
}

// Prepare handles POST /prepare
func (h *ParticipantHandler) Prepare(w http.ResponseWriter, r *http.Request) {
	req, playerID, result, ok := h.readOp(w, r)
	if !ok {
		return
	}

	if err := h.stats.Prepare(r.Context(), req.TransactionID, playerID, result); err != nil {
		h.fail(w, "prepare", req.TransactionID, err)
		return
	}
	response.Vote(w, http.StatusOK, twopc.StatusReady, "")
}

// Commit handles POST /commit
func (h *ParticipantHandler) Commit(w http.ResponseWriter, r *http.Request) {
	req, playerID, result, ok := h.readOp(w, r)
	if !ok {
		return
	}

	if err := h.stats.Commit(r.Context(), req.TransactionID, playerID, result); err != nil {
		h.fail(w, "commit", req.TransactionID, err)
		return
	}
	response.Vote(w, http.StatusOK, twopc.StatusCommitted, "")
}

// Rollback handles POST /rollback. Only the transaction id is needed.
func (h *ParticipantHandler) Rollback(w http.ResponseWriter, r *http.Request) {
	var req twopc.WireRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, "rollback", "", err)
		return
	}
	if req.TransactionID == "" {
		h.fail(w, "rollback", "", NewInvalidRequestError("transactionId is required"))
		return
	}

	if err := h.stats.Rollback(r.Context(), req.TransactionID); err != nil {
		h.fail(w, "rollback", req.TransactionID, err)
		return
	}
	response.Vote(w, http.StatusOK, twopc.StatusRolledBack, "")
}

// UpdateStats handles POST /update-stats, a one-phase update outside any transaction
func (h *ParticipantHandler) UpdateStats(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateStatsRequest
	if err := decode(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	result, err := model.ParseStatResult(req.Result)
	if err != nil {
		WriteError(w, err)
		return
	}
	playerID, err := h.resolve(r.Context(), req.PlayerID, req.Username)
	if err != nil {
		WriteError(w, err)
		return
	}

	profile, err := h.stats.UpdateStats(r.Context(), playerID, result)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.ProfileFromModel(profile))
}

// readOp decodes and validates a prepare or commit body, answering with a
// fail vote when it is unusable
func (h *ParticipantHandler) readOp(w http.ResponseWriter, r *http.Request) (twopc.WireRequest, model.PlayerID, model.StatResult, bool) {
	var req twopc.WireRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r.URL.Path, "", err)
		return req, "", "", false
	}
	if req.TransactionID == "" {
		h.fail(w, r.URL.Path, "", NewInvalidRequestError("transactionId is required"))
		return req, "", "", false
	}

	result, err := model.ParseStatResult(req.Result)
	if err != nil {
		h.fail(w, r.URL.Path, req.TransactionID, err)
		return req, "", "", false
	}
	playerID, err := h.resolve(r.Context(), req.PlayerID, req.Username)
	if err != nil {
		h.fail(w, r.URL.Path, req.TransactionID, err)
		return req, "", "", false
	}
	return req, playerID, result, true
}

// resolve accepts either a player id or a username
func (h *ParticipantHandler) resolve(ctx context.Context, playerID, username string) (model.PlayerID, error) {
	if playerID != "" {
		return model.PlayerID(playerID), nil
	}
	if username == "" {
		return "", NewInvalidRequestError("player_id or username is required")
	}
	p, err := h.profiles.GetProfileByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	return p.ID, nil
}

func (h *ParticipantHandler) fail(w http.ResponseWriter, phase, txID string, err error) {
	status, apiErr := apierr.Classify(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("participant call failed",
			slog.String("phase", phase),
			slog.String("tx_id", txID),
			slog.String("error", err.Error()),
		)
	} else {
		h.logger.Info("participant declined",
			slog.String("phase", phase),
			slog.String("tx_id", txID),
			slog.String("reason", apiErr.Message),
		)
	}
	response.Vote(w, status, twopc.StatusFail, apiErr.Message)
}

// Status handles GET /status on the profile service
func (h *ParticipantHandler) Status(w http.ResponseWriter, _ *http.Request) {
	n := h.stats.Pending()
	response.JSON(w, http.StatusOK, response.Status{Status: "ok", Pending: &n})
}
