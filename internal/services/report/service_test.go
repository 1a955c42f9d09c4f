package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/marketbrief/internal/common"
	"github.com/bobmcallan/marketbrief/internal/models"
)

type fakeWatchlist struct {
	snapshot *models.WatchlistSnapshot
	err      error
}

func (f *fakeWatchlist) Snapshot(ctx context.Context) (*models.WatchlistSnapshot, error) {
	return f.snapshot, f.err
}

func (f *fakeWatchlist) Entries() []models.TickerMeta { return nil }

type fakeNews struct {
	items []models.NewsItem
	err   error
}

func (f *fakeNews) FetchNews(ctx context.Context) ([]models.NewsItem, error) {
	return f.items, f.err
}

type fakeNarrative struct {
	report *models.NarrativeReport
	err    error
}

func (f *fakeNarrative) FormatReport(ctx context.Context, snapshot *models.WatchlistSnapshot, news []models.NewsItem) (*models.NarrativeReport, error) {
	return f.report, f.err
}

func testSnapshot() *models.WatchlistSnapshot {
	return &models.WatchlistSnapshot{
		GeneratedAt: time.Date(2025, 6, 11, 7, 0, 0, 0, time.UTC),
		IndexRecords: []models.SecurityRecord{
			{Ticker: "SPY", Name: "S&P 500", Group: models.GroupIndex, CurrentPrice: 450,
				PeriodReturns: models.PeriodReturns{DayChangePct: 1.12}},
		},
		Summary: models.ReportSummary{TotalCount: 1, GainerCount: 1, AverageDayChangePct: 1.12},
	}
}

func TestRunComposerOnly(t *testing.T) {
	svc := NewService(&fakeWatchlist{snapshot: testSnapshot()}, &fakeNews{}, nil, common.NewSilentLogger())

	bundle, err := svc.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "composer", bundle.Source)
	assert.NotEmpty(t, bundle.ID)
	assert.Contains(t, bundle.HTMLBody, "Daily Stock Report - June 11, 2025")
	assert.Empty(t, bundle.ExecutiveSummary)
	assert.Empty(t, bundle.ChatSummary)
}

func TestRunNarrativeFailureFallsBackToComposer(t *testing.T) {
	snap := testSnapshot()
	narrative := &fakeNarrative{err: errors.New("model unavailable")}
	svc := NewService(&fakeWatchlist{snapshot: snap}, &fakeNews{}, narrative, common.NewSilentLogger())

	bundle, err := svc.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "composer", bundle.Source)

	// Fallback body is byte-identical to what the composer alone produces
	wantHTML, wantShort := Compose(snap.IndexRecords, snap.FundRecords, nil, snap.Summary, snap.GeneratedAt)
	assert.Equal(t, wantHTML, bundle.HTMLBody)
	assert.Equal(t, wantShort, bundle.ShortSummaryText)
}

func TestRunNarrativeSuccess(t *testing.T) {
	narrative := &fakeNarrative{
		report: &models.NarrativeReport{
			ExecutiveSummary: "Markets rose on light volume.",
			HTMLEmail:        "<html><body>Narrative report</body></html>",
			ChatSummary:      "Markets up today.",
		},
	}
	svc := NewService(&fakeWatchlist{snapshot: testSnapshot()}, &fakeNews{}, narrative, common.NewSilentLogger())

	bundle, err := svc.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "narrative", bundle.Source)
	assert.Equal(t, "<html><body>Narrative report</body></html>", bundle.HTMLBody)
	assert.Equal(t, "Markets rose on light volume.", bundle.ExecutiveSummary)
	assert.Equal(t, "Markets up today.", bundle.ChatSummary)

	// Short summary stays deterministic regardless of the narrative path
	assert.Equal(t, "Tracking 1 securities: 1 gainers, 0 losers, average day change +1.12%.", bundle.ShortSummaryText)
}

func TestRunSnapshotErrorPropagates(t *testing.T) {
	wantErr := errors.New("no market data available for any watchlist entry")
	svc := NewService(&fakeWatchlist{err: wantErr}, &fakeNews{}, nil, common.NewSilentLogger())

	bundle, err := svc.Run(context.Background())

	assert.Nil(t, bundle)
	assert.ErrorIs(t, err, wantErr)
}

func TestRunNewsFailureProceedsWithoutNews(t *testing.T) {
	news := &fakeNews{err: errors.New("feed unreachable")}
	svc := NewService(&fakeWatchlist{snapshot: testSnapshot()}, news, nil, common.NewSilentLogger())

	bundle, err := svc.Run(context.Background())

	require.NoError(t, err)
	assert.Empty(t, bundle.NewsItems)
	assert.Contains(t, bundle.HTMLBody, "<h3>Market News</h3>")
}

func TestRunUniqueReportIDs(t *testing.T) {
	svc := NewService(&fakeWatchlist{snapshot: testSnapshot()}, &fakeNews{}, nil, common.NewSilentLogger())

	first, err := svc.Run(context.Background())
	require.NoError(t, err)
	second, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
}
