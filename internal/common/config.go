package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for marketbrief
type Config struct {
	Environment string         `toml:"environment"`
	Server      ServerConfig   `toml:"server"`
	Watchlist   Watchlist      `toml:"watchlist"`
	Clients     ClientsConfig  `toml:"clients"`
	News        NewsConfig     `toml:"news"`
	Delivery    DeliveryConfig `toml:"delivery"`
	Logging     LoggingConfig  `toml:"logging"`
}

// ServerConfig holds dashboard HTTP server configuration
type ServerConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	CacheTTL string `toml:"cache_ttl"` // snapshot memoization window
}

// GetCacheTTL parses and returns the snapshot cache duration
func (c *ServerConfig) GetCacheTTL() time.Duration {
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

// Watchlist holds the configured security list, partitioned into the
// two report groups. Entries are immutable once loaded.
type Watchlist struct {
	Indexes []TickerEntry `toml:"indexes"`
	Funds   []TickerEntry `toml:"funds"`
}

// TickerEntry is one configured security
type TickerEntry struct {
	Ticker       string  `toml:"ticker"`
	Name         string  `toml:"name"`
	Category     string  `toml:"category"`
	ExpenseRatio float64 `toml:"expense_ratio"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	EODHD  EODHDConfig  `toml:"eodhd"`
	GNews  GNewsConfig  `toml:"gnews"`
	Gemini GeminiConfig `toml:"gemini"`
}

// EODHDConfig holds EODHD API configuration
type EODHDConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *EODHDConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// GNewsConfig holds Google News RSS configuration
type GNewsConfig struct {
	BaseURL string `toml:"base_url"`
	Timeout string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *GNewsConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// NewsConfig controls the news fetch step
type NewsConfig struct {
	Queries          []string `toml:"queries"`
	MaxItems         int      `toml:"max_items"`
	PriorityKeywords []string `toml:"priority_keywords"`
}

// DeliveryConfig holds the two delivery channels
type DeliveryConfig struct {
	Email EmailConfig `toml:"email"`
	Teams TeamsConfig `toml:"teams"`
}

// EmailConfig holds email delivery configuration. The provider is derived
// from the API key prefix: "re_" keys go to Resend, anything else to SendGrid.
type EmailConfig struct {
	APIKey string `toml:"api_key"`
	From   string `toml:"from"`
	To     string `toml:"to"`
}

// TeamsConfig holds the chat webhook configuration
type TeamsConfig struct {
	WebhookURL string `toml:"webhook_url"`
	ThemeColor string `toml:"theme_color"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host:     "0.0.0.0",
			Port:     8080,
			CacheTTL: "5m",
		},
		Clients: ClientsConfig{
			EODHD: EODHDConfig{
				BaseURL:   "https://eodhd.com/api",
				RateLimit: 10,
				Timeout:   "10s",
			},
			GNews: GNewsConfig{
				BaseURL: "https://news.google.com/rss",
				Timeout: "10s",
			},
			Gemini: GeminiConfig{
				Model: "gemini-2.0-flash",
			},
		},
		News: NewsConfig{
			Queries:          []string{"stock market OR nasdaq OR sp500"},
			MaxItems:         10,
			PriorityKeywords: nil,
		},
		Delivery: DeliveryConfig{
			Teams: TeamsConfig{
				ThemeColor: "0078D4",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides.
// Later files override earlier ones; missing files are skipped.
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("MARKETBRIEF_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("MARKETBRIEF_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("MARKETBRIEF_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("MARKETBRIEF_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if v := os.Getenv("EMAIL_FROM"); v != "" {
		config.Delivery.Email.From = v
	}
	if v := os.Getenv("EMAIL_TO"); v != "" {
		config.Delivery.Email.To = v
	}
	if v := os.Getenv("TEAMS_WEBHOOK_URL"); v != "" {
		config.Delivery.Teams.WebhookURL = v
	}
}

// ResolveAPIKey resolves an API key from environment variables, falling
// back to the config file value. Environment always wins.
func ResolveAPIKey(name string, fallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"eodhd_api_key":  {"EODHD_API_KEY", "MARKETBRIEF_EODHD_API_KEY"},
		"gemini_api_key": {"GEMINI_API_KEY", "MARKETBRIEF_GEMINI_API_KEY", "GOOGLE_API_KEY"},
		"email_api_key":  {"RESEND_API_KEY", "SENDGRID_API_KEY"},
	}

	if envVarNames, ok := keyToEnvMapping[name]; ok {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	if fallback != "" {
		return fallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment or config", name)
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
