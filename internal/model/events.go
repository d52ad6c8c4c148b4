package model

// EventType identifies the kind of notification pushed to a player
type EventType string

const (
	EventPlayerJoined EventType = "player_joined"
	EventGameEnded    EventType = "game_ended"
	EventOpponentLeft EventType = "opponent_left"
	EventAttackResult EventType = "attack_result"
	EventGameOver     EventType = "game_over"
)

// Notification is an unsolicited message pushed over a player's session
type Notification struct {
	Event    EventType   `json:"event"`
	GameID   GameID      `json:"game_id"`
	Message  string      `json:"message"`
	Status   GameStatus  `json:"status,omitempty"`
	PlayerID PlayerID    `json:"player_id,omitempty"`
	Shot     *Coordinate `json:"coordinates,omitempty"`
	Result   ShotResult  `json:"result,omitempty"`
	Ship     string      `json:"ship,omitempty"`
	Winner   PlayerID    `json:"winner,omitempty"`
}
