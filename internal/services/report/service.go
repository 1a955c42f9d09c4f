// Package report assembles the cycle's records and news into a deliverable
// report bundle, with an optional narrative rendering and a mandatory
// deterministic fallback.
package report

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/marketbrief/internal/common"
	"github.com/bobmcallan/marketbrief/internal/interfaces"
	"github.com/bobmcallan/marketbrief/internal/models"
)

// Service implements ReportService
type Service struct {
	watchlist interfaces.WatchlistService
	news      interfaces.NewsService
	narrative interfaces.NarrativeClient // nil when not configured
	logger    *common.Logger
	now       func() time.Time // injectable clock for testing
}

// NewService creates a new report service. narrative may be nil, in which
// case every cycle uses the deterministic composer.
func NewService(watchlist interfaces.WatchlistService, news interfaces.NewsService, narrative interfaces.NarrativeClient, logger *common.Logger) *Service {
	return &Service{
		watchlist: watchlist,
		news:      news,
		narrative: narrative,
		logger:    logger,
		now:       time.Now,
	}
}

// Run executes one report cycle up to a deliverable bundle.
//
// The cycle aborts only on watchlist.ErrNoData (every ticker failed).
// A news failure proceeds with an empty collection; a narrative failure
// falls through to the deterministic composer. The short summary text is
// always the deterministic sentence, regardless of which renderer
// produced the HTML body.
func (s *Service) Run(ctx context.Context) (*models.ReportBundle, error) {
	snapshot, err := s.watchlist.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	newsItems, err := s.news.FetchNews(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("News fetch failed, proceeding without news")
		newsItems = nil
	}

	htmlBody, shortSummary := Compose(snapshot.IndexRecords, snapshot.FundRecords, newsItems, snapshot.Summary, snapshot.GeneratedAt)

	bundle := &models.ReportBundle{
		ID:               uuid.NewString(),
		GeneratedAt:      snapshot.GeneratedAt,
		IndexRecords:     snapshot.IndexRecords,
		FundRecords:      snapshot.FundRecords,
		NewsItems:        newsItems,
		Summary:          snapshot.Summary,
		HTMLBody:         htmlBody,
		ShortSummaryText: shortSummary,
		Source:           "composer",
	}

	if s.narrative != nil {
		narrative, err := s.narrative.FormatReport(ctx, snapshot, newsItems)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Narrative formatter failed, using deterministic composer")
		} else {
			bundle.HTMLBody = narrative.HTMLEmail
			bundle.ExecutiveSummary = narrative.ExecutiveSummary
			bundle.ChatSummary = narrative.ChatSummary
			bundle.Source = "narrative"
		}
	}

	s.logger.Info().
		Str("report_id", bundle.ID).
		Str("source", bundle.Source).
		Int("records", bundle.Summary.TotalCount).
		Int("news", len(bundle.NewsItems)).
		Msg("Report bundle built")

	return bundle, nil
}

// Ensure Service implements ReportService
var _ interfaces.ReportService = (*Service)(nil)
