package report

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/bobmcallan/marketbrief/internal/common"
	"github.com/bobmcallan/marketbrief/internal/models"
)

// Row colors match the original dashboard palette. Zero change is styled
// positive; the summary counts it as neither gainer nor loser. The two
// policies are intentional and pinned by tests.
const (
	positiveColor = "#00AA00"
	negativeColor = "#DD0000"
)

// pctColor classifies a percentage for row styling: non-negative is
// positive-styled, negative is negative-styled.
func pctColor(v float64) string {
	if v < 0 {
		return negativeColor
	}
	return positiveColor
}

// Compose renders the cycle's records and news into the deterministic
// report: a fixed-layout HTML body plus a one-sentence summary. It makes
// no external calls and must succeed for any input, including zero
// records and zero news items.
func Compose(indexRecords, fundRecords []models.SecurityRecord, news []models.NewsItem, summary models.ReportSummary, generatedAt time.Time) (htmlBody, shortSummary string) {
	var sb strings.Builder

	sb.WriteString("<html>\n<body style=\"font-family: Arial, sans-serif; max-width: 800px; margin: 0 auto; padding: 20px; background-color: #ffffff;\">\n")

	// Header
	fmt.Fprintf(&sb, "<h2 style=\"font-weight: 300;\">Daily Stock Report - %s</h2>\n", generatedAt.Format("January 2, 2006"))
	fmt.Fprintf(&sb, "<p><strong>Overview:</strong> %d gainers, %d losers, average day change %s.</p>\n",
		summary.GainerCount, summary.LoserCount, common.FormatSignedPct(summary.AverageDayChangePct))
	sb.WriteString("<p style=\"color: #666666; font-size: 12px;\">Automated watchlist report. Not investment advice.</p>\n")

	// Index table
	sb.WriteString("<h3>Market Indexes</h3>\n")
	writeRecordTable(&sb, indexRecords)

	// Fund table
	sb.WriteString("<h3>Funds &amp; Holdings</h3>\n")
	writeRecordTable(&sb, fundRecords)

	// News table
	sb.WriteString("<h3>Market News</h3>\n")
	writeNewsTable(&sb, news)

	// Footer
	sb.WriteString("<p style=\"color: #666666; font-size: 11px;\">Prices are delayed and may differ from live exchange data. Generated automatically; verify before acting.</p>\n")
	sb.WriteString("</body>\n</html>\n")

	shortSummary = fmt.Sprintf("Tracking %d securities: %d gainers, %d losers, average day change %s.",
		summary.TotalCount, summary.GainerCount, summary.LoserCount,
		common.FormatSignedPct(summary.AverageDayChangePct))

	return sb.String(), shortSummary
}

// writeRecordTable renders one security table. Zero records renders the
// header row with an empty body, never an error.
func writeRecordTable(sb *strings.Builder, records []models.SecurityRecord) {
	sb.WriteString("<table border=\"1\" cellpadding=\"8\" style=\"border-collapse: collapse; width: 100%;\">\n")
	sb.WriteString("<thead>\n<tr style=\"background-color: #f0f0f0;\">")
	sb.WriteString("<th>Ticker</th><th>Name</th><th>Price</th><th>Day %</th><th>MTD %</th><th>YTD %</th><th>3M %</th>")
	sb.WriteString("</tr>\n</thead>\n<tbody>\n")

	for _, r := range records {
		writeRecordRow(sb, r)
	}

	sb.WriteString("</tbody>\n</table>\n")
}

// writeRecordRow renders one record as a table row: price to two decimals
// with a currency prefix, percentages with explicit sign.
func writeRecordRow(sb *strings.Builder, r models.SecurityRecord) {
	sb.WriteString("<tr>")
	fmt.Fprintf(sb, "<td>%s</td>", html.EscapeString(r.Ticker))
	fmt.Fprintf(sb, "<td>%s</td>", html.EscapeString(r.Name))
	fmt.Fprintf(sb, "<td>%s</td>", common.FormatPrice(r.CurrentPrice))
	writePctCell(sb, r.DayChangePct)
	writePctCell(sb, r.MTDReturnPct)
	writePctCell(sb, r.YTDReturnPct)
	writePctCell(sb, r.ThreeMonthPct)
	sb.WriteString("</tr>\n")
}

func writePctCell(sb *strings.Builder, v float64) {
	fmt.Fprintf(sb, "<td style=\"color: %s; font-weight: 500;\">%s</td>", pctColor(v), common.FormatSignedPct(v))
}

// writeNewsTable renders the headline table. Zero items renders an empty body.
func writeNewsTable(sb *strings.Builder, news []models.NewsItem) {
	sb.WriteString("<table border=\"1\" cellpadding=\"8\" style=\"border-collapse: collapse; width: 100%;\">\n")
	sb.WriteString("<thead>\n<tr style=\"background-color: #f0f0f0;\"><th>Headline</th><th>Source</th></tr>\n</thead>\n<tbody>\n")

	for _, item := range news {
		sb.WriteString("<tr>")
		fmt.Fprintf(sb, "<td><a href=\"%s\">%s</a></td>", html.EscapeString(item.Link), html.EscapeString(item.Title))
		fmt.Fprintf(sb, "<td>%s</td>", html.EscapeString(item.Source))
		sb.WriteString("</tr>\n")
	}

	sb.WriteString("</tbody>\n</table>\n")
}
