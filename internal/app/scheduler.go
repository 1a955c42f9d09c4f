package app

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// cycleTimeout bounds one scheduled report cycle end to end.
const cycleTimeout = 5 * time.Minute

// StartScheduler runs report cycles on the given cron expression
// (standard 5-field spec, e.g. "0 7 * * 1-5"). Cycles never overlap:
// a tick that fires while the previous cycle is still running is skipped.
func (a *App) StartScheduler(spec string) error {
	c := cron.New()

	running := make(chan struct{}, 1)

	_, err := c.AddFunc(spec, func() {
		select {
		case running <- struct{}{}:
			defer func() { <-running }()
		default:
			a.Logger.Warn().Msg("Scheduler: previous cycle still running, skipping tick")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
		defer cancel()

		if _, err := a.RunCycle(ctx, RunOptions{}); err != nil {
			a.Logger.Error().Err(err).Msg("Scheduled report cycle failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	c.Start()
	a.schedulerStop = func() {
		stopCtx := c.Stop()
		<-stopCtx.Done()
	}

	a.Logger.Info().Str("schedule", spec).Msg("Report scheduler started")

	return nil
}
