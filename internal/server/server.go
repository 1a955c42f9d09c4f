// Package server exposes the dashboard HTTP API for ad-hoc browsing of
// watchlist data: snapshot JSON, report preview, per-ticker charts and
// CSV export.
package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/bobmcallan/marketbrief/internal/common"
	"github.com/bobmcallan/marketbrief/internal/interfaces"
	"github.com/bobmcallan/marketbrief/internal/models"
)

// Server serves the dashboard API.
type Server struct {
	watchlist interfaces.WatchlistService
	news      interfaces.NewsService
	quotes    interfaces.QuoteClient
	logger    *common.Logger

	// Snapshot memoization: browsing must not re-fetch the whole
	// watchlist on every page load.
	cacheTTL time.Duration
	mu       sync.Mutex
	cached   *models.WatchlistSnapshot
	cachedAt time.Time
	now      func() time.Time
}

// NewServer creates a dashboard server. cacheTTL <= 0 disables memoization.
func NewServer(watchlist interfaces.WatchlistService, news interfaces.NewsService, quotes interfaces.QuoteClient, cacheTTL time.Duration, logger *common.Logger) *Server {
	return &Server{
		watchlist: watchlist,
		news:      news,
		quotes:    quotes,
		logger:    logger,
		cacheTTL:  cacheTTL,
		now:       time.Now,
	}
}

// Handler returns the HTTP handler for all dashboard routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/snapshot", s.handleSnapshot)
	mux.HandleFunc("/api/report", s.handleReport)
	mux.HandleFunc("/api/export.csv", s.handleExportCSV)
	mux.HandleFunc("/api/chart/", s.handleChart)
	return mux
}

// snapshot returns the current watchlist snapshot, memoized for cacheTTL.
func (s *Server) snapshot(r *http.Request) (*models.WatchlistSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil && s.cacheTTL > 0 && s.now().Sub(s.cachedAt) < s.cacheTTL {
		return s.cached, nil
	}

	snap, err := s.watchlist.Snapshot(r.Context())
	if err != nil {
		return nil, err
	}

	s.cached = snap
	s.cachedAt = s.now()
	return snap, nil
}
