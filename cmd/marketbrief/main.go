// marketbrief runs the watchlist report cycle: fetch market data, compose
// the daily report and deliver it by email and chat webhook. By default it
// runs one cycle and exits; with -schedule it stays up and runs on a cron
// expression.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/bobmcallan/marketbrief/internal/app"
)

func main() {
	// Local development convenience; missing .env is fine
	_ = godotenv.Load()

	configPath := flag.String("config", "", "path to marketbrief.toml (default: $MARKETBRIEF_CONFIG, then binary dir)")
	schedule := flag.String("schedule", "", "cron expression for recurring cycles, e.g. \"0 7 * * 1-5\" (default: run once and exit)")
	dryRun := flag.Bool("dry-run", false, "build the report but skip delivery")
	flag.Parse()

	a, err := app.NewApp(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize app: %v\n", err)
		os.Exit(1)
	}

	if *schedule != "" {
		runScheduled(a, *schedule)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if _, err := a.RunCycle(ctx, app.RunOptions{DryRun: *dryRun}); err != nil {
		a.Logger.Error().Err(err).Msg("Report cycle failed")
		a.Close()
		os.Exit(1)
	}

	a.Close()
}

// runScheduled starts the cron scheduler and blocks until interrupted.
func runScheduled(a *app.App, spec string) {
	if err := a.StartScheduler(spec); err != nil {
		a.Logger.Error().Err(err).Msg("Failed to start scheduler")
		a.Close()
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	a.Logger.Info().Msg("Shutdown signal received")
	a.Close()
}
