// Package models defines data structures for marketbrief
package models

import (
	"time"
)

// Quote holds a live price snapshot for one ticker
type Quote struct {
	Ticker        string    `json:"ticker"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Close         float64   `json:"close"`          // current/last price
	PreviousClose float64   `json:"previous_close"` // provider's previous day close
	Volume        int64     `json:"volume"`
	Timestamp     time.Time `json:"timestamp"`
}

// PriceBar represents a single day's price data
type PriceBar struct {
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	AdjClose float64   `json:"adjusted_close"`
	Volume   int64     `json:"volume"`
}

// Fundamentals carries the subset of provider fundamentals used to enrich
// a security record. All fields are best-effort.
type Fundamentals struct {
	Ticker       string  `json:"ticker"`
	Name         string  `json:"name"`
	Sector       string  `json:"sector"`
	MarketCap    float64 `json:"market_cap"`
	IsETF        bool    `json:"is_etf"`
	ExpenseRatio float64 `json:"expense_ratio,omitempty"`
}

// NewsItem represents one headline entry
type NewsItem struct {
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Source      string    `json:"source,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// EmailMessage is the payload handed to the email delivery client
type EmailMessage struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"html_body"`
}
