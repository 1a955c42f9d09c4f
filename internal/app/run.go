package app

import (
	"context"
	"errors"
	"time"

	"github.com/bobmcallan/marketbrief/internal/services/watchlist"
)

// RunOptions controls a single report cycle.
type RunOptions struct {
	// DryRun builds the bundle but skips both delivery channels.
	DryRun bool
}

// RunCycle executes one full report cycle: aggregate, compose, deliver.
//
// A no-data cycle (every ticker failed) is terminal for the cycle but not
// an application error: it is logged at error level and reported as
// (delivered=false, err=nil) so the process can exit cleanly without
// sending anything. Any other error is unexpected and propagated.
func (a *App) RunCycle(ctx context.Context, opts RunOptions) (bool, error) {
	start := time.Now()

	bundle, err := a.ReportService.Run(ctx)
	if err != nil {
		if errors.Is(err, watchlist.ErrNoData) {
			a.Logger.Error().Msg("No market data available for any ticker, aborting cycle without delivery")
			return false, nil
		}
		return false, err
	}

	if opts.DryRun {
		a.Logger.Info().
			Str("report_id", bundle.ID).
			Dur("elapsed", time.Since(start)).
			Msg("Dry run: report built, delivery skipped")
		return false, nil
	}

	result := a.DeliveryService.Deliver(ctx, bundle)

	a.Logger.Info().
		Str("report_id", bundle.ID).
		Bool("email_delivered", result.Email.Delivered).
		Bool("chat_delivered", result.Chat.Delivered).
		Dur("elapsed", time.Since(start)).
		Msg("Report cycle complete")

	return result.Email.Delivered || result.Chat.Delivered, nil
}
