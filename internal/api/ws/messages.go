package ws

import "github.com/mcoot/battleship-go/internal/model"

// Message types sent to the client
const (
	TypeResponse     = "response"
	TypeError        = "error"
	TypeNotification = "notification"
)

// Actions accepted from the client
const (
	ActionCreateGame = "createGame"
	ActionJoinGame   = "joinGame"
	ActionAttack     = "attack"
	ActionLeaveGame  = "leaveGame"
)

// Inbound is a client request. Fields not used by an action are ignored.
type Inbound struct {
	Action      string            `json:"action"`
	RequestID   string            `json:"request_id,omitempty"`
	PlayerID    string            `json:"player_id,omitempty"`
	AttackerID  string            `json:"attacker_id,omitempty"`
	GameID      string            `json:"game_id,omitempty"`
	Coordinates *model.Coordinate `json:"coordinates,omitempty"`
}

// ResponseMessage answers a successful request
type ResponseMessage struct {
	Type      string `json:"type"`
	Action    string `json:"action"`
	RequestID string `json:"request_id,omitempty"`
	Data      any    `json:"data"`
}

// ErrorMessage answers a failed or malformed request
type ErrorMessage struct {
	Type      string `json:"type"`
	Action    string `json:"action,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Code      string `json:"code"`
	Error     string `json:"error"`
}

// notificationMessage flattens a notification under type "notification"
type notificationMessage struct {
	Type string `json:"type"`
	model.Notification
}
