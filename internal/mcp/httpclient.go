package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/claude/trackline/internal/models"
)

// HTTPClient implements DataSource by calling the Trackline REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// the session data lives on the coach's server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL. The key
// may be empty when the server runs without auth.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	return body, nil
}

func (c *HTTPClient) ListSessions(ctx context.Context) ([]*models.LiveSession, string, error) {
	body, err := c.get(ctx, "/api/v1/sessions")
	if err != nil {
		return nil, "", err
	}

	var resp struct {
		Sessions        []*models.LiveSession `json:"sessions"`
		ActiveSessionID string                `json:"activeSessionId"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, "", fmt.Errorf("httpclient: decode sessions: %w", err)
	}
	return resp.Sessions, resp.ActiveSessionID, nil
}

func (c *HTTPClient) GetSession(ctx context.Context, id string) (*models.LiveSession, error) {
	body, err := c.get(ctx, "/api/v1/sessions/"+id)
	if err != nil {
		return nil, err
	}

	var sess models.LiveSession
	if err := json.Unmarshal(body, &sess); err != nil {
		return nil, fmt.Errorf("httpclient: decode session: %w", err)
	}
	return &sess, nil
}

func (c *HTTPClient) GetActiveSession(ctx context.Context) (*models.LiveSession, error) {
	body, err := c.get(ctx, "/api/v1/sessions/active")
	if err != nil {
		return nil, err
	}

	var sess models.LiveSession
	if err := json.Unmarshal(body, &sess); err != nil {
		return nil, fmt.Errorf("httpclient: decode active session: %w", err)
	}
	return &sess, nil
}

func (c *HTTPClient) GetRoster(ctx context.Context) ([]models.Athlete, error) {
	body, err := c.get(ctx, "/api/v1/athletes")
	if err != nil {
		return nil, err
	}

	var athletes []models.Athlete
	if err := json.Unmarshal(body, &athletes); err != nil {
		return nil, fmt.Errorf("httpclient: decode athletes: %w", err)
	}
	return athletes, nil
}

func (c *HTTPClient) GetTemplates(ctx context.Context) ([]models.TemplateSession, error) {
	body, err := c.get(ctx, "/api/v1/templates")
	if err != nil {
		return nil, err
	}

	var templates []models.TemplateSession
	if err := json.Unmarshal(body, &templates); err != nil {
		return nil, fmt.Errorf("httpclient: decode templates: %w", err)
	}
	return templates, nil
}
