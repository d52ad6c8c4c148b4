package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/battleship-go/internal/api/middleware"
	"github.com/mcoot/battleship-go/internal/api/request"
	"github.com/mcoot/battleship-go/internal/api/response"
	"github.com/mcoot/battleship-go/internal/model"
	"github.com/mcoot/battleship-go/internal/services/game"
)

// SessionCounter reports how many players hold a live connection
type SessionCounter interface {
	Count() int
}

// GameHandler handles game-related endpoints
type GameHandler struct {
	gameController game.ControllerInterface
	sessions       SessionCounter
}

// NewGameHandler creates a new game handler
func NewGameHandler(gameController game.ControllerInterface, sessions SessionCounter) *GameHandler {
	return &GameHandler{
		gameController: gameController,
		sessions:       sessions,
	}
}

// Create handles POST /game/create
func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateGameRequest
	if err := decode(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	playerID, err := middleware.ResolvePlayer(r.Context(), req.PlayerID)
	if err != nil {
		WriteError(w, err)
		return
	}

	g, err := h.gameController.CreateGame(r.Context(), playerID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.GameForPlayer(g, playerID))
}

// Join handles POST /game/join
func (h *GameHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req request.JoinGameRequest
	if err := decode(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	if req.GameID == "" {
		WriteError(w, NewInvalidRequestError("game_id is required"))
		return
	}
	playerID, err := middleware.ResolvePlayer(r.Context(), req.PlayerID)
	if err != nil {
		WriteError(w, err)
		return
	}

	g, err := h.gameController.JoinGame(r.Context(), model.GameID(req.GameID), playerID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.GameForPlayer(g, playerID))
}

// Attack handles POST /game/attack
func (h *GameHandler) Attack(w http.ResponseWriter, r *http.Request) {
	var req request.AttackRequest
	if err := decode(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	if req.GameID == "" {
		WriteError(w, NewInvalidRequestError("game_id is required"))
		return
	}
	if req.Coordinates == nil {
		WriteError(w, NewInvalidRequestError("coordinates are required"))
		return
	}
	attackerID, err := middleware.ResolvePlayer(r.Context(), req.AttackerID)
	if err != nil {
		WriteError(w, err)
		return
	}

	outcome, err := h.gameController.Attack(r.Context(), model.GameID(req.GameID), attackerID, *req.Coordinates)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AttackFromOutcome(outcome))
}

// Leave handles POST /game/leave
func (h *GameHandler) Leave(w http.ResponseWriter, r *http.Request) {
	var req request.LeaveGameRequest
	if err := decode(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	if req.GameID == "" {
		WriteError(w, NewInvalidRequestError("game_id is required"))
		return
	}
	playerID, err := middleware.ResolvePlayer(r.Context(), req.PlayerID)
	if err != nil {
		WriteError(w, err)
		return
	}

	if _, err := h.gameController.LeaveGame(r.Context(), model.GameID(req.GameID), playerID); err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.Leave{
		Message: "Player " + string(playerID) + " left game " + req.GameID,
		Status:  response.LeaveStatus,
	})
}

// Get handles GET /game/{id}
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := model.GameID(mux.Vars(r)["id"])

	g, err := h.gameController.GetGame(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.GameViewFromModel(g))
}

// Status handles GET /status
func (h *GameHandler) Status(w http.ResponseWriter, _ *http.Request) {
	n := h.sessions.Count()
	response.JSON(w, http.StatusOK, response.Status{Status: "ok", Sessions: &n})
}
