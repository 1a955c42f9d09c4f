package models

import (
	"time"
)

// SecurityGroup partitions watchlist entries into the two report tables.
type SecurityGroup string

const (
	GroupIndex SecurityGroup = "index"
	GroupFund  SecurityGroup = "fund"
)

// TickerMeta is a static watchlist entry defined at configuration time.
type TickerMeta struct {
	Ticker       string        `json:"ticker"`
	DisplayName  string        `json:"display_name"`
	Group        SecurityGroup `json:"group"`
	Category     string        `json:"category,omitempty"` // free-text label, e.g. "Islamic Finance ETF"
	ExpenseRatio float64       `json:"expense_ratio,omitempty"`
}

// PeriodReturns holds the derived percentage returns for one security.
// All fields are plain percentages; a missing reference point yields 0,
// not an absent value.
type PeriodReturns struct {
	DayChangePct  float64 `json:"day_change_pct"`
	MTDReturnPct  float64 `json:"mtd_return_pct"` // rolling 30-day window
	ThreeMonthPct float64 `json:"three_month_return_pct"`
	YTDReturnPct  float64 `json:"ytd_return_pct"`
}

// SecurityRecord is the normalized per-ticker result for one report cycle.
// Built once per cycle, never mutated afterwards.
type SecurityRecord struct {
	Ticker       string        `json:"ticker"`
	Name         string        `json:"name"`
	Group        SecurityGroup `json:"group"`
	Category     string        `json:"category,omitempty"`
	ExpenseRatio float64       `json:"expense_ratio,omitempty"`
	CurrentPrice float64       `json:"current_price"`
	PeriodReturns
	Volume    int64   `json:"volume,omitempty"`
	MarketCap float64 `json:"market_cap,omitempty"`
	Sector    string  `json:"sector,omitempty"`
}

// ReportSummary holds cross-sectional statistics over all records in a cycle.
// Zero day change counts as neither gainer nor loser.
type ReportSummary struct {
	TotalCount          int             `json:"total_count"`
	GainerCount         int             `json:"gainer_count"`
	LoserCount          int             `json:"loser_count"`
	AverageDayChangePct float64         `json:"average_day_change_pct"`
	TopGainer           *SecurityRecord `json:"top_gainer,omitempty"`
	TopLoser            *SecurityRecord `json:"top_loser,omitempty"`
}

// WatchlistSnapshot is the aggregated result of one fetch pass over the
// configured watchlist: records partitioned by group plus summary stats.
type WatchlistSnapshot struct {
	GeneratedAt  time.Time        `json:"generated_at"`
	IndexRecords []SecurityRecord `json:"index_records"`
	FundRecords  []SecurityRecord `json:"fund_records"`
	Summary      ReportSummary    `json:"summary"`
}

// NarrativeReport is the parsed output of the generative formatter.
// It is best-effort: any cycle must be able to proceed without one.
type NarrativeReport struct {
	ExecutiveSummary string `json:"executive_summary"`
	HTMLEmail        string `json:"html_email"`
	ChatSummary      string `json:"chat_summary,omitempty"`
}

// ReportBundle is the complete, deliverable output of one report cycle.
// Transient: used for delivery, never stored.
type ReportBundle struct {
	ID           string           `json:"id"`
	GeneratedAt  time.Time        `json:"generated_at"`
	IndexRecords []SecurityRecord `json:"index_records"`
	FundRecords  []SecurityRecord `json:"fund_records"`
	NewsItems    []NewsItem       `json:"news_items"`
	Summary      ReportSummary    `json:"summary"`

	// HTMLBody is the narrative formatter's rendering when that path
	// succeeded end-to-end, otherwise the deterministic composer's.
	HTMLBody string `json:"html_body"`

	// ShortSummaryText is always the deterministic one-sentence summary;
	// it never reflects narrative prose.
	ShortSummaryText string `json:"short_summary_text"`

	// ExecutiveSummary and ChatSummary are set only when the narrative
	// path succeeded.
	ExecutiveSummary string `json:"executive_summary,omitempty"`
	ChatSummary      string `json:"chat_summary,omitempty"`

	// Source records which renderer produced HTMLBody: "narrative" or "composer".
	Source string `json:"source"`
}

// DeliveryChannelResult records the outcome of one delivery channel.
type DeliveryChannelResult struct {
	Attempted bool   `json:"attempted"`
	Delivered bool   `json:"delivered"`
	Error     string `json:"error,omitempty"`
}

// DeliveryResult records the outcome of both delivery channels for a cycle.
// Channel failures are independent and non-fatal to each other.
type DeliveryResult struct {
	Email DeliveryChannelResult `json:"email"`
	Chat  DeliveryChannelResult `json:"chat"`
}
