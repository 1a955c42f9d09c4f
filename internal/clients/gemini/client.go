// Package gemini provides a client for the Google Gemini API
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/bobmcallan/marketbrief/internal/common"
	"github.com/bobmcallan/marketbrief/internal/interfaces"
	"github.com/bobmcallan/marketbrief/internal/models"
)

const (
	DefaultModel = "gemini-2.0-flash"
)

// Client implements the NarrativeClient interface
type Client struct {
	client *genai.Client
	model  string
	logger *common.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithModel sets the model to use
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new Gemini client
func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	c := &Client{
		client: genaiClient,
		model:  DefaultModel,
		logger: common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// FormatReport renders the cycle's data into a narrative report. Any error
// here (network, malformed JSON, missing keys) means the caller must use
// the deterministic composer instead.
func (c *Client) FormatReport(ctx context.Context, snapshot *models.WatchlistSnapshot, news []models.NewsItem) (*models.NarrativeReport, error) {
	prompt, err := buildReportPrompt(snapshot, news)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().Str("model", c.model).Msg("Requesting narrative report")

	contents := genai.Text(prompt)
	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	text, err := extractTextFromResponse(result)
	if err != nil {
		return nil, err
	}

	return parseNarrative(text)
}

// extractTextFromResponse extracts text from a generate content response
func extractTextFromResponse(result *genai.GenerateContentResponse) (string, error) {
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content generated")
	}

	text := ""
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
	}

	return text, nil
}

// buildReportPrompt creates the fixed prompt contract for the formatter
func buildReportPrompt(snapshot *models.WatchlistSnapshot, news []models.NewsItem) (string, error) {
	records := make([]models.SecurityRecord, 0, len(snapshot.IndexRecords)+len(snapshot.FundRecords))
	records = append(records, snapshot.IndexRecords...)
	records = append(records, snapshot.FundRecords...)

	recordsJSON, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal records: %w", err)
	}

	headlines := make([]string, 0, 5)
	for i, item := range news {
		if i >= 5 {
			break
		}
		headlines = append(headlines, item.Title)
	}
	headlinesJSON, err := json.MarshalIndent(headlines, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal headlines: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("You are analyzing a securities watchlist. Here's today's data:\n\n")
	sb.WriteString("WATCHLIST SUMMARY:\n")
	fmt.Fprintf(&sb, "- Total securities tracked: %d\n", snapshot.Summary.TotalCount)
	fmt.Fprintf(&sb, "- Gainers: %d | Losers: %d\n", snapshot.Summary.GainerCount, snapshot.Summary.LoserCount)
	fmt.Fprintf(&sb, "- Average daily change: %.2f%%\n", snapshot.Summary.AverageDayChangePct)
	if snapshot.Summary.TopGainer != nil {
		fmt.Fprintf(&sb, "- Top gainer: %s (%+.2f%%)\n", snapshot.Summary.TopGainer.Ticker, snapshot.Summary.TopGainer.DayChangePct)
	}
	if snapshot.Summary.TopLoser != nil {
		fmt.Fprintf(&sb, "- Top loser: %s (%+.2f%%)\n", snapshot.Summary.TopLoser.Ticker, snapshot.Summary.TopLoser.DayChangePct)
	}
	sb.WriteString("\nSECURITY DATA:\n")
	sb.Write(recordsJSON)
	sb.WriteString("\n\nRECENT NEWS HEADLINES:\n")
	sb.Write(headlinesJSON)
	sb.WriteString(`

Please provide:
1. executive_summary: A 2-3 sentence overview of today's market performance and key themes (concise and professional)
2. html_email: A clean, minimalist HTML email with:
   - Brief executive summary at top
   - One table for market indexes and one for funds, with current price, day change, MTD, YTD, 3M returns in that column order
   - Color coding: green for non-negative, red for negative returns
   - Top 3 news headlines with links
   - Simple, professional styling (white background, minimal colors)
3. chat_summary: A 1-2 sentence plain-text summary suitable for a chat message

Return your response as a single JSON object with exactly these keys:
{
  "executive_summary": "...",
  "html_email": "...",
  "chat_summary": "..."
}`)

	return sb.String(), nil
}

// stripCodeFence removes a wrapping markdown code fence, if present.
// The model often returns the JSON inside a fenced block.
func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	// Drop the opening fence line (``` or ```json)
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	} else {
		return trimmed
	}

	// Drop everything from the closing fence
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}

	return strings.TrimSpace(trimmed)
}

// parseNarrative parses and structurally validates the model's response
func parseNarrative(text string) (*models.NarrativeReport, error) {
	cleaned := stripCodeFence(text)

	var report models.NarrativeReport
	if err := json.Unmarshal([]byte(cleaned), &report); err != nil {
		return nil, fmt.Errorf("malformed narrative response: %w", err)
	}

	if report.ExecutiveSummary == "" {
		return nil, fmt.Errorf("narrative response missing executive_summary")
	}
	if report.HTMLEmail == "" {
		return nil, fmt.Errorf("narrative response missing html_email")
	}

	return &report, nil
}

// Ensure Client implements NarrativeClient
var _ interfaces.NarrativeClient = (*Client)(nil)
