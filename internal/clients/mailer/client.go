// Package mailer submits HTML documents to an email-sending API.
// The provider is detected from the API key: Resend keys carry a "re_"
// prefix; anything else is treated as SendGrid.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bobmcallan/marketbrief/internal/common"
	"github.com/bobmcallan/marketbrief/internal/interfaces"
	"github.com/bobmcallan/marketbrief/internal/models"
)

const (
	ResendBaseURL   = "https://api.resend.com"
	SendGridBaseURL = "https://api.sendgrid.com"
	DefaultTimeout  = 10 * time.Second
)

// Provider identifies the email-sending API behind the client
type Provider string

const (
	ProviderResend   Provider = "resend"
	ProviderSendGrid Provider = "sendgrid"
)

// successCode returns the status the provider signals success with.
// Resend returns 200, SendGrid 202; anything else is a delivery failure.
func (p Provider) successCode() int {
	if p == ProviderSendGrid {
		return http.StatusAccepted
	}
	return http.StatusOK
}

// DetectProvider derives the provider from the API key prefix
func DetectProvider(apiKey string) Provider {
	if strings.HasPrefix(apiKey, "re_") {
		return ProviderResend
	}
	return ProviderSendGrid
}

// Client implements the EmailClient interface
type Client struct {
	baseURL    string
	apiKey     string
	provider   Provider
	httpClient *http.Client
	logger     *common.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL, overriding the provider default
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
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

// NewClient creates a new email delivery client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	provider := DetectProvider(apiKey)

	baseURL := SendGridBaseURL
	if provider == ProviderResend {
		baseURL = ResendBaseURL
	}

	c := &Client{
		baseURL:  baseURL,
		apiKey:   apiKey,
		provider: provider,
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

// Provider returns the detected provider
func (c *Client) Provider() Provider {
	return c.provider
}

// APIError represents a delivery failure reported by the provider
type APIError struct {
	StatusCode int
	Message    string
	Provider   Provider
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error: %s (status: %d)", e.Provider, e.Message, e.StatusCode)
}

// resendPayload is the Resend /emails request body
type resendPayload struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// sendgridPayload is the SendGrid v3 /mail/send request body
type sendgridPayload struct {
	Personalizations []struct {
		To []struct {
			Email string `json:"email"`
		} `json:"to"`
	} `json:"personalizations"`
	From struct {
		Email string `json:"email"`
	} `json:"from"`
	Subject string `json:"subject"`
	Content []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	} `json:"content"`
}

func buildSendGridPayload(msg models.EmailMessage) sendgridPayload {
	var payload sendgridPayload
	payload.Personalizations = make([]struct {
		To []struct {
			Email string `json:"email"`
		} `json:"to"`
	}, 1)
	payload.Personalizations[0].To = []struct {
		Email string `json:"email"`
	}{{Email: msg.To}}
	payload.From.Email = msg.From
	payload.Subject = msg.Subject
	payload.Content = []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	}{{Type: "text/html", Value: msg.HTMLBody}}
	return payload
}

// Send submits the message to the provider. Any status other than the
// provider's success code is a delivery failure.
func (c *Client) Send(ctx context.Context, msg models.EmailMessage) error {
	var path string
	var body interface{}

	switch c.provider {
	case ProviderResend:
		path = "/emails"
		body = resendPayload{
			From:    msg.From,
			To:      []string{msg.To},
			Subject: msg.Subject,
			HTML:    msg.HTMLBody,
		}
	default:
		path = "/v3/mail/send"
		body = buildSendGridPayload(msg)
	}

	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug().Str("provider", string(c.provider)).Str("to", msg.To).Msg("Sending email")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != c.provider.successCode() {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
			Provider:   c.provider,
		}
	}

	return nil
}

// Ensure Client implements EmailClient
var _ interfaces.EmailClient = (*Client)(nil)
