package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"Veritas/internal/config"
	"Veritas/internal/ports"
	"Veritas/internal/prompt"
)

const (
	defaultEndpoint         = "https://openrouter.ai/api/v1/chat/completions"
	defaultErrorBodyChars   = 500
	defaultMaxResponseBytes = 4 << 20
)

// ErrNotConfigured is returned without any network activity when no API key is set.
var ErrNotConfigured = errors.New("llm client: api key not configured")

// StatusError reports a non-2xx provider response. Body is trimmed and truncated.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llm request: http %d: %s", e.StatusCode, e.Body)
}

// IsTimeout reports whether err came from a deadline or a network timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Client implements ports.ModelClient for OpenAI-compatible chat completion APIs.
type Client struct {
	endpoint         string
	model            string
	apiKey           string
	referer          string
	title            string
	errorBodyChars   int
	maxResponseBytes int64
	httpClient       *http.Client
}

var _ ports.ModelClient = (*Client)(nil)

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient shares a transport with the rest of the application.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithErrorBodyChars caps how much of a failed response body is kept.
func WithErrorBodyChars(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.errorBodyChars = n
		}
	}
}

// WithMaxResponseBytes caps how much of any response body is read.
func WithMaxResponseBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxResponseBytes = n
		}
	}
}

// NewClient builds a client from configuration.
func NewClient(cfg config.ProviderConfig, opts ...Option) *Client {
	c := &Client{
		endpoint:         strings.TrimSpace(cfg.Endpoint),
		model:            strings.TrimSpace(cfg.Model),
		apiKey:           strings.TrimSpace(cfg.APIKey),
		referer:          strings.TrimSpace(cfg.Referer),
		title:            strings.TrimSpace(cfg.Title),
		errorBodyChars:   defaultErrorBodyChars,
		maxResponseBytes: defaultMaxResponseBytes,
		httpClient:       &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.endpoint == "" {
		c.endpoint = defaultEndpoint
	}
	return c
}

// Configured reports whether Send can reach the provider.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

type chatCompletionRequest struct {
	Model          string            `json:"model"`
	Messages       []prompt.Message  `json:"messages"`
	Temperature    float64           `json:"temperature"`
	TopP           float64           `json:"top_p"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

// Send posts the prompt once and returns the raw response envelope.
func (c *Client) Send(ctx context.Context, p prompt.Prompt) ([]byte, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	payload := chatCompletionRequest{
		Model:       c.model,
		Messages:    p.Messages,
		Temperature: p.Temperature,
		TopP:        p.TopP,
	}
	if p.ResponseFormat != "" {
		payload.ResponseFormat = map[string]string{"type": p.ResponseFormat}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal chat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if c.referer != "" {
		req.Header.Set("HTTP-Referer", c.referer)
	}
	if c.title != "" {
		req.Header.Set("X-Title", c.title)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send chat request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read chat response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       truncate(strings.TrimSpace(string(raw)), c.errorBodyChars),
		}
	}

	return raw, nil
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if limit <= 0 || len(runes) <= limit {
		return value
	}
	return string(runes[:limit]) + "…"
}
