// Package interfaces defines service contracts for marketbrief
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/marketbrief/internal/models"
)

// QuoteClient provides access to the market-data provider
type QuoteClient interface {
	// GetQuote retrieves a live/last price snapshot
	GetQuote(ctx context.Context, ticker string) (*models.Quote, error)

	// GetEOD retrieves daily closing bars in chronological order
	GetEOD(ctx context.Context, ticker string, opts ...EODOption) ([]models.PriceBar, error)

	// GetFundamentals retrieves best-effort enrichment data
	GetFundamentals(ctx context.Context, ticker string) (*models.Fundamentals, error)
}

// EODOption configures EOD data requests
type EODOption func(*EODParams)

// EODParams holds EOD query parameters
type EODParams struct {
	From   time.Time
	To     time.Time
	Period string // d=daily, w=weekly, m=monthly
}

// WithDateRange sets the date range for EOD query
func WithDateRange(from, to time.Time) EODOption {
	return func(p *EODParams) {
		p.From = from
		p.To = to
	}
}

// WithPeriod sets the period for EOD query
func WithPeriod(period string) EODOption {
	return func(p *EODParams) {
		p.Period = period
	}
}

// NewsClient provides access to the news feed
type NewsClient interface {
	// Search retrieves headline entries for a free-text query
	Search(ctx context.Context, query string, limit int) ([]models.NewsItem, error)
}

// NarrativeClient provides access to the generative formatter.
// It is best-effort: callers must fall back to the deterministic
// composer on any error.
type NarrativeClient interface {
	// FormatReport renders the cycle's data into a narrative report
	FormatReport(ctx context.Context, snapshot *models.WatchlistSnapshot, news []models.NewsItem) (*models.NarrativeReport, error)
}

// EmailClient submits an HTML document to the email-sending provider
type EmailClient interface {
	Send(ctx context.Context, msg models.EmailMessage) error
}

// ChatClient posts a message card to the chat webhook
type ChatClient interface {
	PostSummary(ctx context.Context, title, text string) error
}
