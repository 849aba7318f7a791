// Package chat talks to the backend LLM service and keeps the local
// conversation history.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrEmptyMessage is returned by Send for blank input.
var ErrEmptyMessage = errors.New("message is empty")

// ClientConfig configures the chat client
type ClientConfig struct {
	ServerURL string        // e.g., "http://localhost:8000"
	Timeout   time.Duration // HTTP request timeout
}

// DefaultClientConfig returns sensible defaults
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		ServerURL: "http://localhost:8000",
		Timeout:   30 * time.Second,
	}
}

// Client is the backend chat API client.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a new chat client
func NewClient(cfg *ClientConfig, logger zerolog.Logger) *Client {
	if cfg == nil {
		cfg = DefaultClientConfig()
	}

	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger.With().Str("component", "chat-client").Logger(),
	}
}

// Send posts a user message and returns the assistant's reply.
func (c *Client) Send(ctx context.Context, message string) (*Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	var out struct {
		envelope
		Reply
	}
	if err := c.do(ctx, http.MethodPost, "/api/chat", chatRequest{Message: message}, &out, &out.envelope); err != nil {
		return nil, err
	}

	c.logger.Debug().
		Int("replyLen", len(out.Text)).
		Str("provider", out.Provider).
		Msg("Chat reply received")
	return &out.Reply, nil
}

// Providers lists the backend's LLM providers.
func (c *Client) Providers(ctx context.Context) (*ProviderList, error) {
	var out struct {
		envelope
		ProviderList
	}
	if err := c.do(ctx, http.MethodGet, "/api/providers", nil, &out, &out.envelope); err != nil {
		return nil, err
	}
	return &out.ProviderList, nil
}

// SwitchProvider selects the provider and, optionally, the model.
// It returns the backend's confirmation text.
func (c *Client) SwitchProvider(ctx context.Context, provider, model string) (string, error) {
	if provider == "" {
		return "", errors.New("provider is required")
	}
	var out envelope
	if err := c.do(ctx, http.MethodPost, "/api/switch_provider", switchRequest{Provider: provider, Model: model}, &out, &out); err != nil {
		return "", err
	}
	c.logger.Info().Str("provider", provider).Str("model", model).Msg("Provider switched")
	return out.Message, nil
}

// History fetches the backend's conversation record.
func (c *Client) History(ctx context.Context) ([]Exchange, error) {
	var out struct {
		envelope
		History []Exchange `json:"history"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/chat_history", nil, &out, &out.envelope); err != nil {
		return nil, err
	}
	return out.History, nil
}

// ClearHistory drops the backend's conversation record.
func (c *Client) ClearHistory(ctx context.Context) error {
	var out envelope
	return c.do(ctx, http.MethodPost, "/api/clear_history", struct{}{}, &out, &out)
}

// do performs one JSON round trip. env must point into out so the
// success flag can be checked after decoding.
func (c *Client) do(ctx context.Context, method, path string, in, out any, env *envelope) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.config.ServerURL, "/")+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%s %s failed: %d - %s", method, path, resp.StatusCode, truncate(string(raw), 200))
		}
		c.logger.Error().Err(err).Str("body", truncate(string(raw), 500)).Msg("Failed to parse response")
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || !env.Success {
		msg := env.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &ServerError{Status: resp.StatusCode, Message: msg}
	}
	return nil
}

// ServerError is a failure reported by the backend.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("chat server error %d: %s", e.Status, e.Message)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
