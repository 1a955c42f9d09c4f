package interfaces

import (
	"context"

	"github.com/bobmcallan/marketbrief/internal/models"
)

// WatchlistService aggregates the configured watchlist into a snapshot
type WatchlistService interface {
	// Snapshot fetches all configured tickers and computes derived records
	// and summary statistics. Per-ticker failures are dropped; the error is
	// non-nil only when every entry failed (watchlist.ErrNoData).
	Snapshot(ctx context.Context) (*models.WatchlistSnapshot, error)

	// Entries returns the configured watchlist entries in order
	Entries() []models.TickerMeta
}

// NewsService fetches, deduplicates and orders headline entries
type NewsService interface {
	// FetchNews returns up to the configured cap of deduplicated headlines.
	// An error means the whole news step failed; callers proceed with an
	// empty collection.
	FetchNews(ctx context.Context) ([]models.NewsItem, error)
}

// ReportService runs the report cycle up to a deliverable bundle
type ReportService interface {
	// Run executes one report cycle: aggregate, news, narrative-with-fallback,
	// compose. It returns watchlist.ErrNoData when no ticker produced data,
	// in which case no bundle is built.
	Run(ctx context.Context) (*models.ReportBundle, error)
}

// DeliveryService submits a bundle to both delivery channels.
// Each channel is best-effort and independent of the other.
type DeliveryService interface {
	Deliver(ctx context.Context, bundle *models.ReportBundle) models.DeliveryResult
}
