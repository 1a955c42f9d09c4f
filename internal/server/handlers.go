package server

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bobmcallan/marketbrief/internal/common"
	"github.com/bobmcallan/marketbrief/internal/models"
	"github.com/bobmcallan/marketbrief/internal/services/report"
	"github.com/bobmcallan/marketbrief/internal/services/watchlist"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

// handleSnapshot returns the current watchlist snapshot as JSON. The
// snapshot is memoized so repeated browsing does not hammer the provider.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot(r)
	if err != nil {
		if errors.Is(err, watchlist.ErrNoData) {
			s.writeError(w, http.StatusServiceUnavailable, "no market data available")
			return
		}
		s.logger.Error().Err(err).Msg("Snapshot failed")
		s.writeError(w, http.StatusInternalServerError, "snapshot failed")
		return
	}

	s.writeJSON(w, http.StatusOK, snap)
}

// handleReport renders the deterministic HTML report for browser preview.
// The narrative path is never used here: previews must be fast and free.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot(r)
	if err != nil {
		if errors.Is(err, watchlist.ErrNoData) {
			s.writeError(w, http.StatusServiceUnavailable, "no market data available")
			return
		}
		s.logger.Error().Err(err).Msg("Snapshot failed")
		s.writeError(w, http.StatusInternalServerError, "snapshot failed")
		return
	}

	var newsItems []models.NewsItem
	if s.news != nil {
		newsItems, err = s.news.FetchNews(r.Context())
		if err != nil {
			s.logger.Warn().Err(err).Msg("News fetch failed, rendering report without headlines")
			newsItems = nil
		}
	}

	htmlBody, _ := report.Compose(snap.IndexRecords, snap.FundRecords, newsItems, snap.Summary, snap.GeneratedAt)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, htmlBody)
}

// handleExportCSV streams all snapshot records as a flat CSV download.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot(r)
	if err != nil {
		if errors.Is(err, watchlist.ErrNoData) {
			s.writeError(w, http.StatusServiceUnavailable, "no market data available")
			return
		}
		s.logger.Error().Err(err).Msg("Snapshot failed")
		s.writeError(w, http.StatusInternalServerError, "snapshot failed")
		return
	}

	filename := fmt.Sprintf("watchlist-%s.csv", snap.GeneratedAt.Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"ticker", "name", "group", "category", "price", "day_pct", "mtd_pct", "ytd_pct", "three_month_pct", "volume"})

	writeRows := func(records []models.SecurityRecord) {
		for _, rec := range records {
			_ = cw.Write([]string{
				rec.Ticker,
				rec.Name,
				string(rec.Group),
				rec.Category,
				fmt.Sprintf("%.2f", rec.CurrentPrice),
				fmt.Sprintf("%.4f", rec.DayChangePct),
				fmt.Sprintf("%.4f", rec.MTDReturnPct),
				fmt.Sprintf("%.4f", rec.YTDReturnPct),
				fmt.Sprintf("%.4f", rec.ThreeMonthPct),
				fmt.Sprintf("%d", rec.Volume),
			})
		}
	}
	writeRows(snap.IndexRecords)
	writeRows(snap.FundRecords)

	cw.Flush()
	if err := cw.Error(); err != nil {
		s.logger.Error().Err(err).Msg("CSV export failed mid-stream")
	}
}
