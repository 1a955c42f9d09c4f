// Package returns computes derived period returns from daily price history.
// Everything here is pure: no I/O, no clock reads, deterministic for a
// given input.
package returns

import (
	"time"

	"github.com/bobmcallan/marketbrief/internal/models"
)

// Compute derives the four period returns from a chronologically ascending
// price series and the current price.
//
// Day change uses the second-most-recent close; with fewer than two bars it
// is 0 by definition, not an error. The MTD window is a rolling 30 calendar
// days, the 3M window 90 days, and YTD starts at January 1 of asOf's year.
// Each window return uses the earliest bar dated at or after the window
// start; when no bar qualifies the return is exactly 0. Callers cannot
// distinguish "truly flat" from "no reference data", which is deliberate.
func Compute(series []models.PriceBar, currentPrice float64, asOf time.Time) models.PeriodReturns {
	var r models.PeriodReturns

	if len(series) >= 2 {
		prevClose := series[len(series)-2].Close
		if prevClose > 0 {
			r.DayChangePct = (currentPrice - prevClose) / prevClose * 100
		}
	}

	yearStart := time.Date(asOf.Year(), time.January, 1, 0, 0, 0, 0, asOf.Location())

	r.MTDReturnPct = windowReturn(series, currentPrice, asOf.AddDate(0, 0, -30))
	r.ThreeMonthPct = windowReturn(series, currentPrice, asOf.AddDate(0, 0, -90))
	r.YTDReturnPct = windowReturn(series, currentPrice, yearStart)

	return r
}

// windowReturn finds the earliest bar dated at or after start and returns
// the percentage change from its close to currentPrice, or 0 when no bar
// qualifies or the reference close is non-positive.
func windowReturn(series []models.PriceBar, currentPrice float64, start time.Time) float64 {
	for _, bar := range series {
		if bar.Date.Before(start) {
			continue
		}
		if bar.Close <= 0 {
			return 0
		}
		return (currentPrice/bar.Close - 1) * 100
	}
	return 0
}

// BuildRecord merges a watchlist entry's static metadata with computed
// returns and best-effort enrichment into one normalized record.
//
// It returns (nil, false) when the quote is missing, the price is
// non-positive, or the series is empty. That means "skip this ticker for
// this cycle", not a hard failure. fund may be nil.
func BuildRecord(meta models.TickerMeta, quote *models.Quote, series []models.PriceBar, fund *models.Fundamentals, asOf time.Time) (*models.SecurityRecord, bool) {
	if quote == nil || quote.Close <= 0 || len(series) == 0 {
		return nil, false
	}

	record := &models.SecurityRecord{
		Ticker:        meta.Ticker,
		Name:          meta.DisplayName,
		Group:         meta.Group,
		Category:      meta.Category,
		ExpenseRatio:  meta.ExpenseRatio,
		CurrentPrice:  quote.Close,
		PeriodReturns: Compute(series, quote.Close, asOf),
		Volume:        quote.Volume,
	}

	if fund != nil {
		if record.Name == "" {
			record.Name = fund.Name
		}
		record.Sector = fund.Sector
		record.MarketCap = fund.MarketCap
		if record.ExpenseRatio == 0 && fund.ExpenseRatio > 0 {
			record.ExpenseRatio = fund.ExpenseRatio
		}
	}
	if record.Name == "" {
		record.Name = meta.Ticker
	}

	return record, true
}
