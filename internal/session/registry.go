// Package session tracks the live duplex connection of each player.
package session

import (
	"log/slog"
	"sync"

	"github.com/mcoot/battleship-go/internal/model"
)

// Conn is a player's live connection as seen by the registry
type Conn interface {
	// Send queues a notification without blocking. It returns false if the
	// message could not be queued.
	Send(n model.Notification) bool
	// Done is closed once the connection is gone
	Done() <-chan struct{}
}

// Registry maps each player to at most one live connection. The most recent
// registration for a player wins.
type Registry struct {
	mu     sync.RWMutex
	conns  map[model.PlayerID]Conn
	logger *slog.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		conns:  make(map[model.PlayerID]Conn),
		logger: logger,
	}
}

// Register binds the player to conn and returns the connection it replaced, if any
func (r *Registry) Register(playerID model.PlayerID, conn Conn) Conn {
	r.mu.Lock()
	prev := r.conns[playerID]
	r.conns[playerID] = conn
	total := len(r.conns)
	r.mu.Unlock()

	if prev != nil && prev != conn {
		r.logger.Info("session replaced", slog.String("player_id", string(playerID)))
	} else if prev == nil {
		r.logger.Debug("session registered",
			slog.String("player_id", string(playerID)),
			slog.Int("total_sessions", total))
	}
	return prev
}

// Lookup returns the player's connection
func (r *Registry) Lookup(playerID model.PlayerID) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[playerID]
	return c, ok
}

// Remove drops the player's session, whichever connection it is
func (r *Registry) Remove(playerID model.PlayerID) {
	r.mu.Lock()
	delete(r.conns, playerID)
	r.mu.Unlock()
}

// RemoveConn drops the player's session only if it is still bound to conn.
// A closing socket uses this so it cannot evict a newer connection.
func (r *Registry) RemoveConn(playerID model.PlayerID, conn Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conns[playerID] != conn {
		return false
	}
	delete(r.conns, playerID)
	return true
}

// Notify delivers n to the player's open connection. Messages for players
// with no session, or a closed one, are dropped.
func (r *Registry) Notify(playerID model.PlayerID, n model.Notification) bool {
	conn, ok := r.Lookup(playerID)
	if !ok {
		r.logger.Debug("notification dropped: no session",
			slog.String("player_id", string(playerID)),
			slog.String("event", string(n.Event)))
		return false
	}

	select {
	case <-conn.Done():
		r.RemoveConn(playerID, conn)
		return false
	default:
	}

	if !conn.Send(n) {
		r.logger.Warn("notification dropped: send buffer full",
			slog.String("player_id", string(playerID)),
			slog.String("event", string(n.Event)))
		return false
	}
	return true
}

// Count returns the number of registered sessions
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
