package watchlist

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/marketbrief/internal/common"
	"github.com/bobmcallan/marketbrief/internal/interfaces"
	"github.com/bobmcallan/marketbrief/internal/models"
)

// fakeQuoteClient serves canned quotes and histories per ticker. A ticker
// listed in failing errors on every call.
type fakeQuoteClient struct {
	quotes  map[string]*models.Quote
	series  map[string][]models.PriceBar
	failing map[string]bool
}

func (f *fakeQuoteClient) GetQuote(ctx context.Context, ticker string) (*models.Quote, error) {
	if f.failing[ticker] {
		return nil, fmt.Errorf("quote fetch failed for %s", ticker)
	}
	q, ok := f.quotes[ticker]
	if !ok {
		return nil, fmt.Errorf("unknown ticker %s", ticker)
	}
	return q, nil
}

func (f *fakeQuoteClient) GetEOD(ctx context.Context, ticker string, opts ...interfaces.EODOption) ([]models.PriceBar, error) {
	if f.failing[ticker] {
		return nil, fmt.Errorf("history fetch failed for %s", ticker)
	}
	return f.series[ticker], nil
}

func (f *fakeQuoteClient) GetFundamentals(ctx context.Context, ticker string) (*models.Fundamentals, error) {
	return nil, fmt.Errorf("fundamentals unavailable for %s", ticker)
}

func seriesFor(prevClose, lastClose float64) []models.PriceBar {
	return []models.PriceBar{
		{Date: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), Close: prevClose},
		{Date: time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC), Close: lastClose},
	}
}

func newTestService(client interfaces.QuoteClient, entries []models.TickerMeta) *Service {
	s := NewService(client, entries, common.NewSilentLogger())
	s.now = func() time.Time { return time.Date(2025, 6, 11, 16, 0, 0, 0, time.UTC) }
	return s
}

func TestSnapshotPartitionsByGroup(t *testing.T) {
	client := &fakeQuoteClient{
		quotes: map[string]*models.Quote{
			"SPY":  {Ticker: "SPY", Close: 450},
			"SPUS": {Ticker: "SPUS", Close: 42},
		},
		series: map[string][]models.PriceBar{
			"SPY":  seriesFor(445, 450),
			"SPUS": seriesFor(41, 42),
		},
	}
	entries := []models.TickerMeta{
		{Ticker: "SPY", Group: models.GroupIndex},
		{Ticker: "SPUS", Group: models.GroupFund},
	}

	snap, err := newTestService(client, entries).Snapshot(context.Background())

	require.NoError(t, err)
	require.Len(t, snap.IndexRecords, 1)
	require.Len(t, snap.FundRecords, 1)
	assert.Equal(t, "SPY", snap.IndexRecords[0].Ticker)
	assert.Equal(t, "SPUS", snap.FundRecords[0].Ticker)
	assert.Equal(t, 2, snap.Summary.TotalCount)
}

func TestSnapshotDropsFailedTickers(t *testing.T) {
	client := &fakeQuoteClient{
		quotes: map[string]*models.Quote{
			"SPY": {Ticker: "SPY", Close: 450},
			"DIA": {Ticker: "DIA", Close: 390},
		},
		series: map[string][]models.PriceBar{
			"SPY": seriesFor(445, 450),
			"DIA": seriesFor(391, 390),
		},
		failing: map[string]bool{"QQQ": true},
	}
	entries := []models.TickerMeta{
		{Ticker: "SPY", Group: models.GroupIndex},
		{Ticker: "QQQ", Group: models.GroupIndex},
		{Ticker: "DIA", Group: models.GroupIndex},
	}

	snap, err := newTestService(client, entries).Snapshot(context.Background())

	require.NoError(t, err)
	require.Len(t, snap.IndexRecords, 2)
	// Configured order preserved across the dropped entry
	assert.Equal(t, "SPY", snap.IndexRecords[0].Ticker)
	assert.Equal(t, "DIA", snap.IndexRecords[1].Ticker)
}

func TestSnapshotAllFailedReturnsErrNoData(t *testing.T) {
	client := &fakeQuoteClient{
		failing: map[string]bool{"SPY": true, "QQQ": true},
	}
	entries := []models.TickerMeta{
		{Ticker: "SPY", Group: models.GroupIndex},
		{Ticker: "QQQ", Group: models.GroupIndex},
	}

	snap, err := newTestService(client, entries).Snapshot(context.Background())

	assert.Nil(t, snap)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestSummarizeCounts(t *testing.T) {
	records := []models.SecurityRecord{
		{Ticker: "A", PeriodReturns: models.PeriodReturns{DayChangePct: 2}},
		{Ticker: "B", PeriodReturns: models.PeriodReturns{DayChangePct: -1}},
		{Ticker: "C", PeriodReturns: models.PeriodReturns{DayChangePct: 0}},
	}

	summary := summarize(records, nil)

	assert.Equal(t, 3, summary.TotalCount)
	assert.Equal(t, 1, summary.GainerCount)
	assert.Equal(t, 1, summary.LoserCount, "zero change is neither gainer nor loser")
	assert.InDelta(t, 1.0/3.0, summary.AverageDayChangePct, 1e-9)
	require.NotNil(t, summary.TopGainer)
	require.NotNil(t, summary.TopLoser)
	assert.Equal(t, "A", summary.TopGainer.Ticker)
	assert.Equal(t, "B", summary.TopLoser.Ticker)
}

func TestSummarizeGainersLosersFromReturns(t *testing.T) {
	// SPY 445 -> 450, QQQ 382 -> 380
	records := []models.SecurityRecord{
		{Ticker: "SPY", PeriodReturns: models.PeriodReturns{DayChangePct: (450.0 - 445.0) / 445.0 * 100}},
		{Ticker: "QQQ", PeriodReturns: models.PeriodReturns{DayChangePct: (380.0 - 382.0) / 382.0 * 100}},
	}

	summary := summarize(records, nil)

	assert.Equal(t, 1, summary.GainerCount)
	assert.Equal(t, 1, summary.LoserCount)
	assert.InDelta(t, 0.3000176481, summary.AverageDayChangePct, 1e-9)
	assert.Equal(t, "SPY", summary.TopGainer.Ticker)
	assert.Equal(t, "QQQ", summary.TopLoser.Ticker)
}

func TestSummarizeTieKeepsFirstOccurrence(t *testing.T) {
	records := []models.SecurityRecord{
		{Ticker: "A", PeriodReturns: models.PeriodReturns{DayChangePct: 1.5}},
		{Ticker: "B", PeriodReturns: models.PeriodReturns{DayChangePct: 1.5}},
	}

	summary := summarize(records, nil)

	assert.Equal(t, "A", summary.TopGainer.Ticker)
	assert.Equal(t, "A", summary.TopLoser.Ticker)
}

func TestSummarizeEmpty(t *testing.T) {
	summary := summarize(nil, nil)

	assert.Equal(t, 0, summary.TotalCount)
	assert.Nil(t, summary.TopGainer)
	assert.Nil(t, summary.TopLoser)
	assert.Zero(t, summary.AverageDayChangePct)
}
