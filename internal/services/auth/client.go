package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mcoot/battleship-go/internal/model"
)

// Client authenticates tokens against a remote profile service
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ Authenticator = (*Client)(nil)

// NewClient creates a client for the profile service at baseURL
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// WithHTTPClient replaces the underlying client (for tests)
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// profileResponse is the subset of GET /auth/profile the game service needs
type profileResponse struct {
	PlayerID string `json:"player_id"`
	Username string `json:"username"`
}

// Authenticate asks the profile service who the token belongs to
func (c *Client) Authenticate(ctx context.Context, token string) (model.Identity, error) {
	if token == "" {
		return model.Identity{}, ErrInvalidSession
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/profile", nil)
	if err != nil {
		return model.Identity{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.Identity{}, fmt.Errorf("profile service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.Identity{}, fmt.Errorf("profile service: failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusNotFound:
		return model.Identity{}, ErrInvalidSession
	case resp.StatusCode != http.StatusOK:
		return model.Identity{}, fmt.Errorf("profile service: HTTP %d", resp.StatusCode)
	}

	var pr profileResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return model.Identity{}, fmt.Errorf("profile service: failed to parse response: %w", err)
	}
	if pr.PlayerID == "" {
		return model.Identity{}, ErrInvalidSession
	}
	return model.Identity{PlayerID: model.PlayerID(pr.PlayerID), Username: pr.Username}, nil
}
