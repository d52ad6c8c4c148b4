package twopc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Wire statuses used by the participant endpoints
const (
	StatusReady      = "ready"
	StatusCommitted  = "committed"
	StatusRolledBack = "rolled back"
	StatusFail       = "fail"
)

// WireRequest is the body of /prepare, /commit and /rollback
type WireRequest struct {
	TransactionID string `json:"transactionId"`
	PlayerID      string `json:"player_id,omitempty"`
	Username      string `json:"username,omitempty"`
	Result        string `json:"result,omitempty"`
}

// WireResponse is the participant's reply
type WireResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// HTTPParticipant talks to a remote profile service
type HTTPParticipant struct {
	name       string
	baseURL    string
	httpClient *http.Client
}

// NewHTTPParticipant creates a participant for the service at baseURL.
// Per-call deadlines come from the orchestrator's context.
func NewHTTPParticipant(name, baseURL string) *HTTPParticipant {
	return &HTTPParticipant{
		name:    name,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithHTTPClient replaces the underlying client (for tests)
func (p *HTTPParticipant) WithHTTPClient(c *http.Client) *HTTPParticipant {
	p.httpClient = c
	return p
}

func (p *HTTPParticipant) Name() string { return p.name }

func (p *HTTPParticipant) Prepare(ctx context.Context, op Op) error {
	return p.do(ctx, "/prepare", wireRequest(op), StatusReady)
}

func (p *HTTPParticipant) Commit(ctx context.Context, op Op) error {
	return p.do(ctx, "/commit", wireRequest(op), StatusCommitted)
}

func (p *HTTPParticipant) Rollback(ctx context.Context, op Op) error {
	return p.do(ctx, "/rollback", WireRequest{TransactionID: op.TxID, PlayerID: string(op.PlayerID)}, StatusRolledBack)
}

func wireRequest(op Op) WireRequest {
	return WireRequest{
		TransactionID: op.TxID,
		PlayerID:      string(op.PlayerID),
		Result:        string(op.Result),
	}
}

// do posts body to path. A 4xx reply with status "fail" is a refusal; any
// transport error, 5xx or unreadable reply is returned as a plain error.
func (p *HTTPParticipant) do(ctx context.Context, path string, body WireRequest, want string) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", p.name, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: failed to read response: %w", p.name, path, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%s %s: HTTP %d", p.name, path, resp.StatusCode)
	}

	var wr WireResponse
	if err := json.Unmarshal(respBody, &wr); err != nil {
		return fmt.Errorf("%s %s: HTTP %d: unreadable response: %w", p.name, path, resp.StatusCode, err)
	}

	if resp.StatusCode < http.StatusBadRequest && wr.Status == want {
		return nil
	}
	if resp.StatusCode >= http.StatusBadRequest && wr.Status == StatusFail {
		return &DeclinedError{Participant: p.name, Reason: wr.Reason}
	}
	return fmt.Errorf("%s %s: HTTP %d: unexpected status %q", p.name, path, resp.StatusCode, wr.Status)
}
