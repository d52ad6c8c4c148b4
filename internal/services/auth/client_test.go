package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/battleship-go/internal/model"
)

func TestClientAuthenticate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/profile", r.URL.Path)
		switch r.Header.Get("Authorization") {
		case "Bearer good":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"player_id":"p_1","username":"alice","wins":3}`))
		case "Bearer broken":
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"status":"error"}`))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", time.Second)
	ctx := context.Background()

	id, err := c.Authenticate(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, model.Identity{PlayerID: "p_1", Username: "alice"}, id)

	_, err = c.Authenticate(ctx, "bad")
	assert.ErrorIs(t, err, ErrInvalidSession)

	_, err = c.Authenticate(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidSession)

	_, err = c.Authenticate(ctx, "broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidSession)
}

func TestClientUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, time.Second).Authenticate(context.Background(), "token")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidSession)
}
