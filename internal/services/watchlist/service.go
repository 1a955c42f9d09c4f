// Package watchlist aggregates the configured security list into a
// per-cycle snapshot of derived records and summary statistics.
package watchlist

import (
	"context"
	"errors"
	"time"

	"github.com/bobmcallan/marketbrief/internal/common"
	"github.com/bobmcallan/marketbrief/internal/interfaces"
	"github.com/bobmcallan/marketbrief/internal/models"
	"github.com/bobmcallan/marketbrief/internal/services/returns"
)

// ErrNoData is returned when every configured entry failed to fetch in one
// cycle. Callers abort the cycle before composing or delivering a report.
var ErrNoData = errors.New("no market data available for any watchlist entry")

// Service implements WatchlistService
type Service struct {
	quotes  interfaces.QuoteClient
	entries []models.TickerMeta
	logger  *common.Logger
	now     func() time.Time // injectable clock for testing
}

// NewService creates a new watchlist service over the configured entries.
// Entry order is preserved throughout aggregation.
func NewService(quotes interfaces.QuoteClient, entries []models.TickerMeta, logger *common.Logger) *Service {
	return &Service{
		quotes:  quotes,
		entries: entries,
		logger:  logger,
		now:     time.Now,
	}
}

// Entries returns the configured watchlist entries in order
func (s *Service) Entries() []models.TickerMeta {
	return s.entries
}

// Snapshot fetches every configured ticker sequentially in configured order
// and builds the cycle's records. One ticker's failure never blocks the
// rest: failed entries are dropped with a warning. Only when every entry
// fails does Snapshot return ErrNoData.
func (s *Service) Snapshot(ctx context.Context) (*models.WatchlistSnapshot, error) {
	asOf := s.now()

	var indexRecords, fundRecords []models.SecurityRecord

	for _, meta := range s.entries {
		record, ok := s.fetchRecord(ctx, meta, asOf)
		if !ok {
			continue
		}
		if meta.Group == models.GroupIndex {
			indexRecords = append(indexRecords, *record)
		} else {
			fundRecords = append(fundRecords, *record)
		}
	}

	if len(indexRecords)+len(fundRecords) == 0 {
		return nil, ErrNoData
	}

	snapshot := &models.WatchlistSnapshot{
		GeneratedAt:  asOf,
		IndexRecords: indexRecords,
		FundRecords:  fundRecords,
		Summary:      summarize(indexRecords, fundRecords),
	}

	s.logger.Info().
		Int("indexes", len(indexRecords)).
		Int("funds", len(fundRecords)).
		Int("configured", len(s.entries)).
		Msg("Watchlist snapshot built")

	return snapshot, nil
}

// fetchRecord retrieves quote + history for one entry and builds its record.
// Failures are local: logged at warn and reported as a skip.
func (s *Service) fetchRecord(ctx context.Context, meta models.TickerMeta, asOf time.Time) (*models.SecurityRecord, bool) {
	quote, err := s.quotes.GetQuote(ctx, meta.Ticker)
	if err != nil {
		s.logger.Warn().Err(err).Str("ticker", meta.Ticker).Msg("Quote fetch failed, dropping ticker for this cycle")
		return nil, false
	}

	series, err := s.quotes.GetEOD(ctx, meta.Ticker)
	if err != nil {
		s.logger.Warn().Err(err).Str("ticker", meta.Ticker).Msg("History fetch failed, dropping ticker for this cycle")
		return nil, false
	}

	// Enrichment is best-effort: a fundamentals failure never drops the ticker
	fund, err := s.quotes.GetFundamentals(ctx, meta.Ticker)
	if err != nil {
		s.logger.Debug().Err(err).Str("ticker", meta.Ticker).Msg("Fundamentals unavailable")
		fund = nil
	}

	record, ok := returns.BuildRecord(meta, quote, series, fund, asOf)
	if !ok {
		s.logger.Warn().Str("ticker", meta.Ticker).Msg("No usable price data, dropping ticker for this cycle")
		return nil, false
	}

	return record, true
}

// summarize computes cross-sectional statistics over both partitions.
// Zero day change counts as neither gainer nor loser; top gainer/loser
// ties break on first occurrence in iteration order.
func summarize(indexRecords, fundRecords []models.SecurityRecord) models.ReportSummary {
	all := make([]models.SecurityRecord, 0, len(indexRecords)+len(fundRecords))
	all = append(all, indexRecords...)
	all = append(all, fundRecords...)

	summary := models.ReportSummary{
		TotalCount: len(all),
	}
	if len(all) == 0 {
		return summary
	}

	var sum float64
	var topGainer, topLoser *models.SecurityRecord

	for i := range all {
		r := &all[i]
		sum += r.DayChangePct

		if r.DayChangePct > 0 {
			summary.GainerCount++
		} else if r.DayChangePct < 0 {
			summary.LoserCount++
		}

		if topGainer == nil || r.DayChangePct > topGainer.DayChangePct {
			topGainer = r
		}
		if topLoser == nil || r.DayChangePct < topLoser.DayChangePct {
			topLoser = r
		}
	}

	summary.AverageDayChangePct = sum / float64(len(all))
	summary.TopGainer = topGainer
	summary.TopLoser = topLoser

	return summary
}

// Ensure Service implements WatchlistService
var _ interfaces.WatchlistService = (*Service)(nil)
