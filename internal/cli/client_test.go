package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientReportsBothErrorShapes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api-error":
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"status":"error","error":{"code":"NOT_YOUR_TURN","message":"not this player's turn"}}`))
		case "/vote":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"status":"fail","reason":"unknown transaction"}`))
		default:
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "tok")
	ctx := context.Background()

	err := c.Post(ctx, "/api-error", nil, nil)
	assert.EqualError(t, err, "not this player's turn (NOT_YOUR_TURN)")

	err = c.Post(ctx, "/vote", nil, nil)
	assert.EqualError(t, err, "fail: unknown transaction")

	var health HealthResult
	require.NoError(t, c.Get(ctx, "/status", &health))
	assert.Equal(t, "ok", health.Status)
}

func TestWebSocketURL(t *testing.T) {
	c := &Config{GameURL: "http://localhost:8080/"}
	assert.Equal(t, "ws://localhost:8080/ws", c.WebSocketURL())

	c.GameURL = "https://games.example.com"
	assert.Equal(t, "wss://games.example.com/ws", c.WebSocketURL())
}

func TestPrintGameDrawsFleet(t *testing.T) {
	var buf bytes.Buffer
	out := &Output{format: "text", w: &buf}

	out.Print(Game{
		GameID:     "g1",
		GridSize:   2,
		Status:     "waiting_for_opponent",
		PlayerGrid: []ShipCell{{X: 1, Y: 0, Ship: "Destroyer"}},
	})

	assert.Contains(t, buf.String(), "Game: g1")
	assert.Contains(t, buf.String(), " 0 | .  D |")
}

func TestPrintFrameNotification(t *testing.T) {
	var buf bytes.Buffer
	out := &Output{format: "text", w: &buf}

	out.Print(Frame{
		Type:        "notification",
		Event:       "attack_result",
		Message:     "Your opponent fired a shot",
		Coordinates: &Coordinate{X: 2, Y: 3},
		Result:      "hit",
		Ship:        "Cruiser",
	})

	assert.Contains(t, buf.String(), "* attack_result: Your opponent fired a shot")
	assert.Contains(t, buf.String(), "shot at (2,3): hit Cruiser")
}
