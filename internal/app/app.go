// Package app wires configuration, clients and services into the shared
// core used by both cmd/marketbrief and cmd/marketbrief-server.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/marketbrief/internal/clients/eodhd"
	"github.com/bobmcallan/marketbrief/internal/clients/gemini"
	"github.com/bobmcallan/marketbrief/internal/clients/gnews"
	"github.com/bobmcallan/marketbrief/internal/clients/mailer"
	"github.com/bobmcallan/marketbrief/internal/clients/teams"
	"github.com/bobmcallan/marketbrief/internal/common"
	"github.com/bobmcallan/marketbrief/internal/interfaces"
	"github.com/bobmcallan/marketbrief/internal/models"
	"github.com/bobmcallan/marketbrief/internal/services/delivery"
	"github.com/bobmcallan/marketbrief/internal/services/news"
	"github.com/bobmcallan/marketbrief/internal/services/report"
	"github.com/bobmcallan/marketbrief/internal/services/watchlist"
)

// App holds all initialized clients and services.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	QuoteClient      interfaces.QuoteClient
	NewsClient       interfaces.NewsClient
	NarrativeClient  interfaces.NarrativeClient
	WatchlistService interfaces.WatchlistService
	NewsService      interfaces.NewsService
	ReportService    interfaces.ReportService
	DeliveryService  interfaces.DeliveryService
	StartupTime      time.Time

	schedulerStop func()
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes configuration, clients and services.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	common.LoadVersionFromFile()

	binDir := getBinaryDir()

	// Config resolution: explicit path, MARKETBRIEF_CONFIG, binary dir, dev fallback
	if configPath == "" {
		configPath = os.Getenv("MARKETBRIEF_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "marketbrief.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/marketbrief.toml"
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if len(config.Watchlist.Indexes)+len(config.Watchlist.Funds) == 0 {
		return nil, fmt.Errorf("no watchlist entries configured (checked %s)", configPath)
	}

	logger := common.NewLogger(config.Logging.Level)

	// Resolve API keys, environment first
	eodhdKey, err := common.ResolveAPIKey("eodhd_api_key", config.Clients.EODHD.APIKey)
	if err != nil {
		return nil, fmt.Errorf("quote provider unavailable: %w", err)
	}

	geminiKey, _ := common.ResolveAPIKey("gemini_api_key", config.Clients.Gemini.APIKey)
	emailKey, _ := common.ResolveAPIKey("email_api_key", config.Delivery.Email.APIKey)

	// Quote provider
	quoteOpts := []eodhd.ClientOption{
		eodhd.WithLogger(logger),
		eodhd.WithRateLimit(config.Clients.EODHD.RateLimit),
		eodhd.WithTimeout(config.Clients.EODHD.GetTimeout()),
	}
	if config.Clients.EODHD.BaseURL != "" {
		quoteOpts = append(quoteOpts, eodhd.WithBaseURL(config.Clients.EODHD.BaseURL))
	}
	quoteClient := eodhd.NewClient(eodhdKey, quoteOpts...)

	// News feed
	newsOpts := []gnews.ClientOption{
		gnews.WithLogger(logger),
		gnews.WithTimeout(config.Clients.GNews.GetTimeout()),
	}
	if config.Clients.GNews.BaseURL != "" {
		newsOpts = append(newsOpts, gnews.WithBaseURL(config.Clients.GNews.BaseURL))
	}
	newsClient := gnews.NewClient(newsOpts...)

	// Narrative formatter is optional: no key means deterministic-only cycles
	var narrativeClient interfaces.NarrativeClient
	if geminiKey != "" {
		gc, err := gemini.NewClient(context.Background(), geminiKey,
			gemini.WithLogger(logger),
			gemini.WithModel(config.Clients.Gemini.Model),
		)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize Gemini client, narrative formatting disabled")
		} else {
			narrativeClient = gc
		}
	}

	// Delivery channels are optional
	var emailClient interfaces.EmailClient
	if emailKey != "" && config.Delivery.Email.To != "" {
		emailClient = mailer.NewClient(emailKey, mailer.WithLogger(logger))
	}

	var chatClient interfaces.ChatClient
	if config.Delivery.Teams.WebhookURL != "" {
		chatClient = teams.NewClient(config.Delivery.Teams.WebhookURL,
			teams.WithLogger(logger),
			teams.WithThemeColor(config.Delivery.Teams.ThemeColor),
		)
	}

	// Services
	watchlistService := watchlist.NewService(quoteClient, buildEntries(config.Watchlist), logger)
	newsService := news.NewService(newsClient, config.News, logger)
	reportService := report.NewService(watchlistService, newsService, narrativeClient, logger)
	deliveryService := delivery.NewService(emailClient, chatClient, config.Delivery.Email, logger)

	a := &App{
		Config:           config,
		Logger:           logger,
		QuoteClient:      quoteClient,
		NewsClient:       newsClient,
		NarrativeClient:  narrativeClient,
		WatchlistService: watchlistService,
		NewsService:      newsService,
		ReportService:    reportService,
		DeliveryService:  deliveryService,
		StartupTime:      startupStart,
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// buildEntries converts configured watchlist entries into ordered metadata,
// indexes first, preserving file order within each group.
func buildEntries(w common.Watchlist) []models.TickerMeta {
	entries := make([]models.TickerMeta, 0, len(w.Indexes)+len(w.Funds))
	for _, e := range w.Indexes {
		entries = append(entries, models.TickerMeta{
			Ticker:      e.Ticker,
			DisplayName: e.Name,
			Group:       models.GroupIndex,
			Category:    e.Category,
		})
	}
	for _, e := range w.Funds {
		entries = append(entries, models.TickerMeta{
			Ticker:       e.Ticker,
			DisplayName:  e.Name,
			Group:        models.GroupFund,
			Category:     e.Category,
			ExpenseRatio: e.ExpenseRatio,
		})
	}
	return entries
}

// Close releases all resources held by the App.
func (a *App) Close() {
	if a.schedulerStop != nil {
		a.schedulerStop()
		a.schedulerStop = nil
	}
}
