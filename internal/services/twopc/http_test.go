package twopc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProfileService answers the participant endpoints from a fixed table
func fakeProfileService(t *testing.T, seen *[]WireRequest) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req WireRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		*seen = append(*seen, req)

		w.Header().Set("Content-Type", "application/json")
		switch {
		case req.PlayerID == "slow":
			time.Sleep(200 * time.Millisecond)
			_ = json.NewEncoder(w).Encode(WireResponse{Status: StatusReady})
		case req.PlayerID == "crash":
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(WireResponse{Status: StatusFail, Reason: "boom"})
		case req.PlayerID == "ghost":
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(WireResponse{Status: StatusFail, Reason: "user not found"})
		case r.URL.Path == "/prepare":
			_ = json.NewEncoder(w).Encode(WireResponse{Status: StatusReady})
		case r.URL.Path == "/commit":
			_ = json.NewEncoder(w).Encode(WireResponse{Status: StatusCommitted})
		case r.URL.Path == "/rollback":
			_ = json.NewEncoder(w).Encode(WireResponse{Status: StatusRolledBack})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestHTTPParticipantVotes(t *testing.T) {
	var seen []WireRequest
	srv := fakeProfileService(t, &seen)
	defer srv.Close()

	p := NewHTTPParticipant("profile", srv.URL+"/")
	ctx := context.Background()
	op := Op{TxID: "tx-1", PlayerID: "alice", Result: "win"}

	require.NoError(t, p.Prepare(ctx, op))
	require.NoError(t, p.Commit(ctx, op))
	require.NoError(t, p.Rollback(ctx, op))

	require.Len(t, seen, 3)
	assert.Equal(t, WireRequest{TransactionID: "tx-1", PlayerID: "alice", Result: "win"}, seen[0])
	assert.Equal(t, WireRequest{TransactionID: "tx-1", PlayerID: "alice"}, seen[2])
}

func TestHTTPParticipantDistinguishesDeclineFromFailure(t *testing.T) {
	var seen []WireRequest
	srv := fakeProfileService(t, &seen)
	defer srv.Close()

	p := NewHTTPParticipant("profile", srv.URL)
	ctx := context.Background()

	err := p.Prepare(ctx, Op{TxID: "tx-1", PlayerID: "ghost", Result: "win"})
	require.Error(t, err)
	assert.True(t, IsDeclined(err))
	assert.Contains(t, err.Error(), "user not found")

	err = p.Prepare(ctx, Op{TxID: "tx-2", PlayerID: "crash", Result: "win"})
	require.Error(t, err)
	assert.False(t, IsDeclined(err))
}

func TestHTTPParticipantHonoursDeadline(t *testing.T) {
	var seen []WireRequest
	srv := fakeProfileService(t, &seen)
	defer srv.Close()

	p := NewHTTPParticipant("profile", srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := p.Prepare(ctx, Op{TxID: "tx-1", PlayerID: "slow", Result: "win"})
	require.Error(t, err)
	assert.False(t, IsDeclined(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHTTPParticipantUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := NewHTTPParticipant("profile", url).Prepare(context.Background(), Op{TxID: "tx-1", PlayerID: "alice", Result: "win"})
	require.Error(t, err)
	assert.False(t, IsDeclined(err))
}
