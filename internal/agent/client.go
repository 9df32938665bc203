package agent

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/comigor/snowpatrol/internal/chat"
	"github.com/comigor/snowpatrol/internal/config"
	"github.com/comigor/snowpatrol/internal/logger"
)

const bodyExcerptLimit = 500

// HTTPError reports a non-200 status from the agent endpoint. The body is
// truncated to an excerpt for diagnostics. Calls are never retried
// automatically; the caller rolls back the pending user message.
type HTTPError struct {
	Status  int
	Reason  string
	Excerpt string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("agent HTTP %d – reason: %s, content: %s", e.Status, e.Reason, e.Excerpt)
}

// Runner performs one outbound agent call for a full message history and
// returns the raw response body. Satisfied by *Client; tests supply fakes.
type Runner interface {
	Run(ctx context.Context, messages []chat.Message) (string, error)
}

// Client dispatches runs to the hosted agent over HTTP.
type Client struct {
	http *resty.Client
	path string
}

type runRequest struct {
	Messages   []chat.Message `json:"messages"`
	ToolChoice toolChoice     `json:"tool_choice"`
}

type toolChoice struct {
	Type string `json:"type"`
}

// NewClient builds a dispatcher for the configured agent. The endpoint path
// is derived from the agent database, schema and name; the timeout bounds
// the whole blocking round trip.
func NewClient(cfg config.AgentConfig) *Client {
	c := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout()).
		SetHeader("Accept", "application/json, text/event-stream")

	return &Client{
		http: c,
		path: fmt.Sprintf("/api/v2/databases/%s/schemas/%s/agents/%s:run",
			cfg.Database, cfg.Schema, cfg.Name),
	}
}

// Run POSTs the full history with a tool-choice policy of auto and returns
// the raw body on a 200 response. Any other status yields an *HTTPError.
func (c *Client) Run(ctx context.Context, messages []chat.Message) (string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(runRequest{Messages: messages, ToolChoice: toolChoice{Type: "auto"}}).
		Post(c.path)
	if err != nil {
		return "", fmt.Errorf("agent request: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		logger.L.Warn("agent returned non-200", "status", resp.StatusCode(), "path", c.path)
		return "", &HTTPError{
			Status:  resp.StatusCode(),
			Reason:  resp.Status(),
			Excerpt: truncate(resp.String(), bodyExcerptLimit),
		}
	}
	return resp.String(), nil
}
