package eodhd

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/marketbrief/internal/interfaces"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient("test-key", WithBaseURL(server.URL))
}

func TestGetQuote(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/real-time/SPY", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api_token"))
		assert.Equal(t, "json", r.URL.Query().Get("fmt"))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"code":          "SPY.US",
			"timestamp":     1749657600,
			"open":          448.5,
			"high":          451.2,
			"low":           447.9,
			"close":         450.0,
			"previousClose": 445.0,
			"volume":        52000000,
		})
	})

	quote, err := client.GetQuote(context.Background(), "SPY")

	require.NoError(t, err)
	assert.Equal(t, "SPY", quote.Ticker)
	assert.Equal(t, 450.0, quote.Close)
	assert.Equal(t, 445.0, quote.PreviousClose)
	assert.Equal(t, int64(52000000), quote.Volume)
}

func TestGetQuoteNAFields(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"SPY.US","timestamp":1749657600,"open":"NA","high":"NA","low":"NA","close":450.0,"previousClose":"NA","volume":"NA"}`))
	})

	quote, err := client.GetQuote(context.Background(), "SPY")

	require.NoError(t, err)
	assert.Equal(t, 450.0, quote.Close)
	assert.Zero(t, quote.Open)
	assert.Zero(t, quote.PreviousClose)
}

func TestGetQuoteAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("Invalid API token"))
	})

	quote, err := client.GetQuote(context.Background(), "SPY")

	assert.Nil(t, quote)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "Invalid API token")
}

func TestGetEOD(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/eod/SPY", r.URL.Path)
		assert.Equal(t, "a", r.URL.Query().Get("order"))
		assert.Equal(t, "d", r.URL.Query().Get("period"))
		assert.NotEmpty(t, r.URL.Query().Get("from"))
		assert.NotEmpty(t, r.URL.Query().Get("to"))

		w.Write([]byte(`[
			{"date":"2025-06-10","open":444.0,"high":446.0,"low":443.5,"close":445.0,"adjusted_close":445.0,"volume":48000000},
			{"date":"2025-06-11","open":446.0,"high":451.0,"low":445.5,"close":450.0,"adjusted_close":450.0,"volume":52000000}
		]`))
	})

	bars, err := client.GetEOD(context.Background(), "SPY")

	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.True(t, bars[0].Date.Before(bars[1].Date), "bars are ascending")
	assert.Equal(t, 445.0, bars[0].Close)
	assert.Equal(t, 450.0, bars[1].Close)
	assert.Equal(t, int64(52000000), bars[1].Volume)
}

func TestGetEODDateRange(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2025-01-01", r.URL.Query().Get("from"))
		assert.Equal(t, "2025-06-11", r.URL.Query().Get("to"))
		w.Write([]byte(`[]`))
	})

	_, err := client.GetEOD(context.Background(), "SPY",
		interfaces.WithDateRange(from, to))

	require.NoError(t, err)
}

func TestGetFundamentals(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fundamentals/SPUS", r.URL.Path)
		assert.Contains(t, r.URL.Query().Get("filter"), "General")

		w.Write([]byte(`{
			"General": {"Code":"SPUS","Name":"SP Funds S&P 500 Sharia Industry Exclusions ETF","Type":"ETF","Sector":""},
			"Highlights": {"MarketCapitalization": 1200000000},
			"ETF_Data": {"Net_Expense_Ratio": "0.49"}
		}`))
	})

	fund, err := client.GetFundamentals(context.Background(), "SPUS")

	require.NoError(t, err)
	assert.Equal(t, "SPUS", fund.Ticker)
	assert.True(t, fund.IsETF)
	assert.Equal(t, 0.49, fund.ExpenseRatio)
	assert.Equal(t, 1.2e9, fund.MarketCap)
}

func TestFlexFloat64(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{`123.45`, 123.45},
		{`"123.45"`, 123.45},
		{`"NA"`, 0},
		{`"N/A"`, 0},
		{`""`, 0},
		{`"garbage"`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var f flexFloat64
			require.NoError(t, json.Unmarshal([]byte(tt.input), &f))
			assert.Equal(t, tt.want, float64(f))
		})
	}
}
