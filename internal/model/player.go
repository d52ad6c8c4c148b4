package model

import (
	"fmt"
	"time"
)

// PlayerID uniquely identifies a player across both services
type PlayerID string

// Identity is an authenticated caller as resolved from a bearer token
type Identity struct {
	PlayerID PlayerID
	Username string
}

// Profile is the profile service's record of a player: credentials plus
// win/loss statistics. TotalGames always equals Wins + Losses.
type Profile struct {
	ID           PlayerID  `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"` // bcrypt hash
	TotalGames   int       `json:"total_games"`
	Wins         int       `json:"wins"`
	Losses       int       `json:"losses"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// StatResult is the outcome of a finished game for one player
type StatResult string

const (
	ResultWin  StatResult = "win"
	ResultLoss StatResult = "loss"
)

// ParseStatResult validates a result string received over the wire
func ParseStatResult(s string) (StatResult, error) {
	switch StatResult(s) {
	case ResultWin, ResultLoss:
		return StatResult(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidResult, s)
	}
}

// Apply records one game outcome on the profile
func (p *Profile) Apply(result StatResult, at time.Time) error {
	switch result {
	case ResultWin:
		p.Wins++
	case ResultLoss:
		p.Losses++
	default:
		return fmt.Errorf("%w: %q", ErrInvalidResult, result)
	}
	p.TotalGames++
	p.UpdatedAt = at
	return nil
}
