// Package teams posts message cards to a Microsoft Teams incoming webhook
package teams

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bobmcallan/marketbrief/internal/common"
	"github.com/bobmcallan/marketbrief/internal/interfaces"
)

const (
	DefaultTimeout    = 10 * time.Second
	DefaultThemeColor = "0078D4"
)

// Client implements the ChatClient interface using the legacy MessageCard
// payload, which every Teams incoming webhook accepts.
type Client struct {
	webhookURL string
	themeColor string
	httpClient *http.Client
	logger     *common.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithThemeColor sets the card accent color
func WithThemeColor(color string) ClientOption {
	return func(c *Client) {
		if color != "" {
			c.themeColor = color
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Teams webhook client
func NewClient(webhookURL string, opts ...ClientOption) *Client {
	c := &Client{
		webhookURL: webhookURL,
		themeColor: DefaultThemeColor,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents a webhook post failure
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Teams webhook error: %s (status: %d)", e.Message, e.StatusCode)
}

// messageCard is the legacy connector card payload
type messageCard struct {
	Type       string `json:"@type"`
	Context    string `json:"@context"`
	Summary    string `json:"summary"`
	ThemeColor string `json:"themeColor"`
	Title      string `json:"title"`
	Text       string `json:"text"`
}

// PostSummary posts a simple title + text card to the webhook.
// Success is HTTP 200; anything else is a failure.
func (c *Client) PostSummary(ctx context.Context, title, text string) error {
	card := messageCard{
		Type:       "MessageCard",
		Context:    "https://schema.org/extensions",
		Summary:    title,
		ThemeColor: c.themeColor,
		Title:      title,
		Text:       text,
	}

	data, err := json.Marshal(card)
	if err != nil {
		return fmt.Errorf("failed to marshal card: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug().Str("title", title).Msg("Posting to Teams webhook")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}

	return nil
}

// Ensure Client implements ChatClient
var _ interfaces.ChatClient = (*Client)(nil)
