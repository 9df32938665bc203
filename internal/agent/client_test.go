package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/comigor/snowpatrol/internal/chat"
	"github.com/comigor/snowpatrol/internal/config"
)

func testAgentConfig(baseURL string) config.AgentConfig {
	return config.AgentConfig{
		BaseURL:   baseURL,
		Database:  "SNOWFLAKE_INTELLIGENCE",
		Schema:    "AGENTS",
		Name:      "SNOWPATROL_AGENT",
		TimeoutMS: 5_000,
	}
}

func TestClientRun(t *testing.T) {
	var gotPath, gotAccept string
	var gotBody runRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAccept = r.Header.Get("Accept")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("data: {\"event\":\"response.text\",\"data\":{\"text\":\"hi\"}}\n\n"))
	}))
	defer srv.Close()

	c := NewClient(testAgentConfig(srv.URL))
	raw, err := c.Run(context.Background(), []chat.Message{chat.NewUserMessage("hello")})
	require.NoError(t, err)
	require.Contains(t, raw, "response.text")

	require.Equal(t, "/api/v2/databases/SNOWFLAKE_INTELLIGENCE/schemas/AGENTS/agents/SNOWPATROL_AGENT:run", gotPath)
	require.Equal(t, "application/json, text/event-stream", gotAccept)
	require.Equal(t, "auto", gotBody.ToolChoice.Type)
	require.Len(t, gotBody.Messages, 1)
	require.Equal(t, chat.RoleUser, gotBody.Messages[0].Role)
}

func TestClientRunNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(strings.Repeat("x", 2_000)))
	}))
	defer srv.Close()

	c := NewClient(testAgentConfig(srv.URL))
	_, err := c.Run(context.Background(), []chat.Message{chat.NewUserMessage("hello")})

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusTooManyRequests, httpErr.Status)
	require.Len(t, httpErr.Excerpt, bodyExcerptLimit)
}

func TestClientRunConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(testAgentConfig(srv.URL))
	_, err := c.Run(context.Background(), []chat.Message{chat.NewUserMessage("hello")})
	require.Error(t, err)

	var httpErr *HTTPError
	require.False(t, errors.As(err, &httpErr))
}
