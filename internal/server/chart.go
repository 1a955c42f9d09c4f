package server

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/marketbrief/internal/interfaces"
	"github.com/bobmcallan/marketbrief/internal/models"
)

const chartLookback = 365 * 24 * time.Hour

// handleChart renders a one-year closing-price line chart as PNG.
// Route shape: /api/chart/{ticker}.png
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/api/chart/")
	ticker := strings.TrimSuffix(name, ".png")
	if ticker == "" || ticker == name {
		s.writeError(w, http.StatusNotFound, "expected /api/chart/{ticker}.png")
		return
	}
	ticker = strings.ToUpper(ticker)

	to := s.now()
	from := to.Add(-chartLookback)
	bars, err := s.quotes.GetEOD(r.Context(), ticker, interfaces.WithDateRange(from, to))
	if err != nil {
		s.logger.Warn().Err(err).Str("ticker", ticker).Msg("EOD fetch for chart failed")
		s.writeError(w, http.StatusBadGateway, "price history unavailable")
		return
	}
	if len(bars) < 2 {
		s.writeError(w, http.StatusNotFound, "not enough price history to chart")
		return
	}

	png, err := renderPriceChart(ticker, bars)
	if err != nil {
		s.logger.Error().Err(err).Str("ticker", ticker).Msg("Chart render failed")
		s.writeError(w, http.StatusInternalServerError, "chart render failed")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// renderPriceChart draws daily closes as a single line series.
func renderPriceChart(ticker string, bars []models.PriceBar) ([]byte, error) {
	xs := make([]time.Time, 0, len(bars))
	ys := make([]float64, 0, len(bars))
	for _, b := range bars {
		xs = append(xs, b.Date)
		ys = append(ys, b.Close)
	}

	graph := chart.Chart{
		Title:  ticker + " - 1 Year",
		Width:  900,
		Height: 400,
		XAxis: chart.XAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return chart.TimeFromFloat64(f).Format("Jan 2006")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: chart.FloatValueFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    ticker,
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: drawing.ColorFromHex("2563eb"),
					StrokeWidth: 2.0,
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
