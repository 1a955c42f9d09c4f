package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/marketbrief/internal/common"
	"github.com/bobmcallan/marketbrief/internal/interfaces"
	"github.com/bobmcallan/marketbrief/internal/models"
	"github.com/bobmcallan/marketbrief/internal/services/watchlist"
)

type fakeWatchlist struct {
	snapshot *models.WatchlistSnapshot
	err      error
	calls    int
}

func (f *fakeWatchlist) Snapshot(ctx context.Context) (*models.WatchlistSnapshot, error) {
	f.calls++
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

type fakeQuotes struct {
	series map[string][]models.PriceBar
}

func (f *fakeQuotes) GetQuote(ctx context.Context, ticker string) (*models.Quote, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeQuotes) GetEOD(ctx context.Context, ticker string, opts ...interfaces.EODOption) ([]models.PriceBar, error) {
	bars, ok := f.series[ticker]
	if !ok {
		return nil, fmt.Errorf("unknown ticker %s", ticker)
	}
	return bars, nil
}

func (f *fakeQuotes) GetFundamentals(ctx context.Context, ticker string) (*models.Fundamentals, error) {
	return nil, fmt.Errorf("not implemented")
}

func testSnapshot() *models.WatchlistSnapshot {
	return &models.WatchlistSnapshot{
		GeneratedAt: time.Date(2025, 6, 11, 16, 0, 0, 0, time.UTC),
		IndexRecords: []models.SecurityRecord{
			{Ticker: "SPY", Name: "S&P 500", Group: models.GroupIndex, CurrentPrice: 450,
				PeriodReturns: models.PeriodReturns{DayChangePct: 1.12}, Volume: 52000000},
		},
		FundRecords: []models.SecurityRecord{
			{Ticker: "SPUS", Name: "SP Funds S&P 500 Sharia", Group: models.GroupFund, CurrentPrice: 42},
		},
		Summary: models.ReportSummary{TotalCount: 2, GainerCount: 1},
	}
}

func newTestServer(watchlist *fakeWatchlist, news *fakeNews, quotes *fakeQuotes, ttl time.Duration) *Server {
	if news == nil {
		news = &fakeNews{}
	}
	if quotes == nil {
		quotes = &fakeQuotes{}
	}
	return NewServer(watchlist, news, quotes, ttl, common.NewSilentLogger())
}

func doRequest(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(&fakeWatchlist{}, nil, nil, 0)

	rec := doRequest(t, s, "/api/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestVersionEndpoint(t *testing.T) {
	s := newTestServer(&fakeWatchlist{}, nil, nil, 0)

	rec := doRequest(t, s, "/api/version")

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["version"])
}

func TestSnapshotEndpoint(t *testing.T) {
	s := newTestServer(&fakeWatchlist{snapshot: testSnapshot()}, nil, nil, 0)

	rec := doRequest(t, s, "/api/snapshot")

	require.Equal(t, http.StatusOK, rec.Code)
	var snap models.WatchlistSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	require.Len(t, snap.IndexRecords, 1)
	assert.Equal(t, "SPY", snap.IndexRecords[0].Ticker)
	assert.Equal(t, 2, snap.Summary.TotalCount)
}

func TestSnapshotMemoization(t *testing.T) {
	watchlist := &fakeWatchlist{snapshot: testSnapshot()}
	s := newTestServer(watchlist, nil, nil, 5*time.Minute)

	current := time.Date(2025, 6, 11, 16, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return current }

	doRequest(t, s, "/api/snapshot")
	doRequest(t, s, "/api/snapshot")
	assert.Equal(t, 1, watchlist.calls, "second request inside the TTL is served from cache")

	current = current.Add(6 * time.Minute)
	doRequest(t, s, "/api/snapshot")
	assert.Equal(t, 2, watchlist.calls, "expired cache triggers a refetch")
}

func TestSnapshotNoDataIs503(t *testing.T) {
	s := newTestServer(&fakeWatchlist{err: watchlist.ErrNoData}, nil, nil, 0)

	rec := doRequest(t, s, "/api/snapshot")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestReportEndpoint(t *testing.T) {
	news := &fakeNews{items: []models.NewsItem{{Title: "Fed holds rates", Link: "https://example.com", Source: "Reuters"}}}
	s := newTestServer(&fakeWatchlist{snapshot: testSnapshot()}, news, nil, 0)

	rec := doRequest(t, s, "/api/report")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, "Daily Stock Report - June 11, 2025")
	assert.Contains(t, body, "<td>SPY</td>")
	assert.Contains(t, body, "Fed holds rates")
}

func TestReportEndpointNewsFailureStillRenders(t *testing.T) {
	news := &fakeNews{err: fmt.Errorf("feed unreachable")}
	s := newTestServer(&fakeWatchlist{snapshot: testSnapshot()}, news, nil, 0)

	rec := doRequest(t, s, "/api/report")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h3>Market News</h3>")
}

func TestExportCSV(t *testing.T) {
	s := newTestServer(&fakeWatchlist{snapshot: testSnapshot()}, nil, nil, 0)

	rec := doRequest(t, s, "/api/export.csv")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "watchlist-2025-06-11.csv")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3, "header plus one row per record")
	assert.Equal(t, "ticker,name,group,category,price,day_pct,mtd_pct,ytd_pct,three_month_pct,volume", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "SPY,"))
	assert.True(t, strings.HasPrefix(lines[2], "SPUS,"))
}

func TestChartEndpoint(t *testing.T) {
	quotes := &fakeQuotes{series: map[string][]models.PriceBar{
		"SPY": chartSeries(60),
	}}
	s := newTestServer(&fakeWatchlist{}, nil, quotes, 0)

	rec := doRequest(t, s, "/api/chart/spy.png")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	// PNG signature
	assert.True(t, strings.HasPrefix(rec.Body.String(), "\x89PNG"))
}

func TestChartEndpointBadPath(t *testing.T) {
	s := newTestServer(&fakeWatchlist{}, nil, &fakeQuotes{}, 0)

	assert.Equal(t, http.StatusNotFound, doRequest(t, s, "/api/chart/").Code)
	assert.Equal(t, http.StatusNotFound, doRequest(t, s, "/api/chart/SPY").Code)
}

func TestChartEndpointUnknownTicker(t *testing.T) {
	s := newTestServer(&fakeWatchlist{}, nil, &fakeQuotes{}, 0)

	rec := doRequest(t, s, "/api/chart/ZZZZ.png")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestChartEndpointTooFewBars(t *testing.T) {
	quotes := &fakeQuotes{series: map[string][]models.PriceBar{
		"SPY": chartSeries(1),
	}}
	s := newTestServer(&fakeWatchlist{}, nil, quotes, 0)

	rec := doRequest(t, s, "/api/chart/SPY.png")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func chartSeries(n int) []models.PriceBar {
	bars := make([]models.PriceBar, n)
	start := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i] = models.PriceBar{
			Date:  start.AddDate(0, 0, i),
			Close: 400 + float64(i),
		}
	}
	return bars
}
