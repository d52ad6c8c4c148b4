// Package ws serves the game service's duplex channel: clients send game
// actions as JSON text frames and receive responses, errors and
// notifications about their games.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/mcoot/battleship-go/internal/api/apierr"
	"github.com/mcoot/battleship-go/internal/api/middleware"
	"github.com/mcoot/battleship-go/internal/api/response"
	"github.com/mcoot/battleship-go/internal/model"
	"github.com/mcoot/battleship-go/internal/services/game"
	"github.com/mcoot/battleship-go/internal/session"
)

// Handler upgrades requests and runs one connection per client
type Handler struct {
	controller game.ControllerInterface
	registry   *session.Registry
	upgrader   websocket.Upgrader
	logger     *slog.Logger
}

// NewHandler creates a WebSocket handler. Identity, when required, is
// established by the auth middleware before the upgrade.
func NewHandler(controller game.ControllerInterface, registry *session.Registry, logger *slog.Logger) *Handler {
	return &Handler{
		controller: controller,
		registry:   registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Clients are CLIs and game frontends on other origins
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

// ServeHTTP handles GET /ws. It returns when the connection closes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already replied
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	conn := newConn(ws, h.logger)
	h.logger.Debug("websocket connected", slog.String("remote", r.RemoteAddr))

	go conn.writePump()

	ctx := r.Context()
	conn.readPump(func(data []byte) {
		h.dispatch(ctx, conn, data)
	})

	for _, pid := range conn.bound() {
		h.registry.RemoveConn(pid, conn)
	}
	h.logger.Debug("websocket disconnected", slog.String("remote", r.RemoteAddr))
}

// dispatch runs one client request and answers on the connection
func (h *Handler) dispatch(ctx context.Context, conn *Conn, data []byte) {
	var msg Inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		conn.enqueue(ErrorMessage{Type: TypeError, Code: apierr.CodeInvalidRequest, Error: "invalid message format"})
		return
	}

	result, err := h.run(ctx, conn, msg)
	if err != nil {
		status, apiErr := apierr.Classify(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("websocket action failed",
				slog.String("action", msg.Action),
				slog.String("error", err.Error()),
			)
		}
		conn.enqueue(ErrorMessage{
			Type:      TypeError,
			Action:    msg.Action,
			RequestID: msg.RequestID,
			Code:      apiErr.Code,
			Error:     apiErr.Message,
		})
		return
	}

	conn.enqueue(ResponseMessage{
		Type:      TypeResponse,
		Action:    msg.Action,
		RequestID: msg.RequestID,
		Data:      result,
	})
}

func (h *Handler) run(ctx context.Context, conn *Conn, msg Inbound) (any, error) {
	switch msg.Action {
	case ActionCreateGame:
		playerID, err := middleware.ResolvePlayer(ctx, msg.PlayerID)
		if err != nil {
			return nil, err
		}
		h.bind(conn, playerID)
		g, err := h.controller.CreateGame(ctx, playerID)
		if err != nil {
			return nil, err
		}
		return response.GameForPlayer(g, playerID), nil

	case ActionJoinGame:
		if msg.GameID == "" {
			return nil, apierr.NewInvalidRequestError("game_id is required")
		}
		playerID, err := middleware.ResolvePlayer(ctx, msg.PlayerID)
		if err != nil {
			return nil, err
		}
		h.bind(conn, playerID)
		g, err := h.controller.JoinGame(ctx, model.GameID(msg.GameID), playerID)
		if err != nil {
			return nil, err
		}
		return response.GameForPlayer(g, playerID), nil

	case ActionAttack:
		if msg.GameID == "" {
			return nil, apierr.NewInvalidRequestError("game_id is required")
		}
		if msg.Coordinates == nil {
			return nil, apierr.NewInvalidRequestError("coordinates are required")
		}
		claimed := msg.AttackerID
		if claimed == "" {
			claimed = msg.PlayerID
		}
		attackerID, err := middleware.ResolvePlayer(ctx, claimed)
		if err != nil {
			return nil, err
		}
		h.bind(conn, attackerID)
		outcome, err := h.controller.Attack(ctx, model.GameID(msg.GameID), attackerID, *msg.Coordinates)
		if err != nil {
			return nil, err
		}
		return response.AttackFromOutcome(outcome), nil

	case ActionLeaveGame:
		if msg.GameID == "" {
			return nil, apierr.NewInvalidRequestError("game_id is required")
		}
		playerID, err := middleware.ResolvePlayer(ctx, msg.PlayerID)
		if err != nil {
			return nil, err
		}
		if _, err := h.controller.LeaveGame(ctx, model.GameID(msg.GameID), playerID); err != nil {
			return nil, err
		}
		return response.Leave{
			Message: fmt.Sprintf("Player %s left game %s", playerID, msg.GameID),
			Status:  response.LeaveStatus,
		}, nil

	case "":
		return nil, apierr.NewInvalidRequestError("action is required")
	default:
		return nil, apierr.NewInvalidRequestError(fmt.Sprintf("unknown action %q", msg.Action))
	}
}

// bind makes conn the player's session. It runs before the action so that
// notifications caused by it, or by the opponent right after it, are delivered.
func (h *Handler) bind(conn *Conn, playerID model.PlayerID) {
	conn.bind(playerID)
	h.registry.Register(playerID, conn)
}
