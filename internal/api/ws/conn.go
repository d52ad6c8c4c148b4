package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/battleship-go/internal/model"
	"github.com/mcoot/battleship-go/internal/session"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Outbound messages buffered per connection before new ones are dropped
	sendBuffer = 64
)

// Conn is one player's duplex channel. Writes are funnelled through a single
// writer goroutine; Send never blocks.
type Conn struct {
	ws     *websocket.Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
	logger *slog.Logger

	mu      sync.Mutex
	players map[model.PlayerID]struct{}
}

var _ session.Conn = (*Conn)(nil)

func newConn(ws *websocket.Conn, logger *slog.Logger) *Conn {
	return &Conn{
		ws:      ws,
		send:    make(chan []byte, sendBuffer),
		done:    make(chan struct{}),
		logger:  logger,
		players: make(map[model.PlayerID]struct{}),
	}
}

// Send queues a notification for the player
func (c *Conn) Send(n model.Notification) bool {
	return c.enqueue(notificationMessage{Type: TypeNotification, Notification: n})
}

// Done is closed once the connection is gone
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// enqueue marshals v and hands it to the writer. A full buffer drops the message.
func (c *Conn) enqueue(v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("failed to marshal websocket message", slog.String("error", err.Error()))
		return false
	}

	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- data:
		return true
	case <-c.done:
		return false
	default:
		c.logger.Warn("websocket send buffer full, dropping message")
		return false
	}
}

// bind records that the player's session is this connection
func (c *Conn) bind(playerID model.PlayerID) {
	c.mu.Lock()
	c.players[playerID] = struct{}{}
	c.mu.Unlock()
}

// bound returns the players whose session is (or was) this connection
func (c *Conn) bound() []model.PlayerID {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]model.PlayerID, 0, len(c.players))
	for id := range c.players {
		ids = append(ids, id)
	}
	return ids
}

func (c *Conn) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

// readPump reads client messages until the peer goes away, handing each to
// handle in arrival order
func (c *Conn) readPump(handle func(data []byte)) {
	defer c.close()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Warn("websocket read failed", slog.String("error", err.Error()))
			}
			return
		}
		handle(data)
	}
}

// writePump writes queued messages and keeps the connection alive with pings
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}
