package common

import (
	"fmt"
)

// FormatPrice renders a price with a currency prefix and two decimals.
func FormatPrice(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

// FormatSignedPct renders a percentage with an explicit sign and two decimals.
func FormatSignedPct(v float64) string {
	return fmt.Sprintf("%+.2f%%", v)
}

// FormatMarketCap renders a market cap in millions, or "-" when unknown.
func FormatMarketCap(v float64) string {
	if v <= 0 {
		return "-"
	}
	if v >= 1e12 {
		return fmt.Sprintf("$%.1fT", v/1e12)
	}
	if v >= 1e9 {
		return fmt.Sprintf("$%.1fB", v/1e9)
	}
	return fmt.Sprintf("$%.1fM", v/1e6)
}
