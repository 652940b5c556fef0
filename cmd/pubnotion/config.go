package main

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/eringen/pubnotion"
)

// config holds the settings read from the environment (and an optional .env).
type config struct {
	SiteName        string `env:"SITE_NAME" envDefault:"Blog"`
	SiteURL         string `env:"SITE_URL" envDefault:"http://localhost:3000"`
	SiteDescription string `env:"SITE_DESCRIPTION"`
	SiteAuthor      string `env:"SITE_AUTHOR"`

	Addr      string `env:"ADDR" envDefault:":3000"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	StaticDir string `env:"STATIC_DIR" envDefault:"public"`

	NotionToken      string        `env:"NOTION_TOKEN,required"`
	DatabaseID       string        `env:"NOTION_DATABASE_ID,required"`
	NotionBaseURL    string        `env:"NOTION_BASE_URL"`
	NotionRateLimit  float64       `env:"NOTION_RATE_LIMIT" envDefault:"3"`
	FetchConcurrency int           `env:"FETCH_CONCURRENCY" envDefault:"8"`
	MaxDepth         int           `env:"MAX_DEPTH" envDefault:"32"`
	CacheTTL         time.Duration `env:"CACHE_TTL" envDefault:"1h"`
	HighlightStyle   string        `env:"HIGHLIGHT_STYLE" envDefault:"github"`

	AnalyticsEnabled         bool   `env:"ANALYTICS_ENABLED" envDefault:"true"`
	AnalyticsDatabasePath    string `env:"ANALYTICS_DB_PATH" envDefault:"data/analytics.db"`
	AnalyticsRetentionDays   int    `env:"ANALYTICS_RETENTION_DAYS" envDefault:"365"`
	AnalyticsCleanupSchedule string `env:"ANALYTICS_CLEANUP_SCHEDULE" envDefault:"30 3 * * *"`

	AdminPassword string `env:"ADMIN_PASSWORD"`
	SessionSecret string `env:"SESSION_SECRET"`
	CookieSecure  bool   `env:"COOKIE_SECURE" envDefault:"false"`
}

func loadConfig() (config, error) {
	_ = godotenv.Load()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

func (c config) site() pubnotion.SiteConfig {
	return pubnotion.SiteConfig{
		Name:        c.SiteName,
		URL:         c.SiteURL,
		Description: c.SiteDescription,
		Author:      c.SiteAuthor,

		Addr:     c.Addr,
		LogLevel: c.LogLevel,

		NotionToken:      c.NotionToken,
		DatabaseID:       c.DatabaseID,
		NotionBaseURL:    c.NotionBaseURL,
		NotionRateLimit:  c.NotionRateLimit,
		FetchConcurrency: c.FetchConcurrency,
		MaxDepth:         c.MaxDepth,
		ContentCacheTTL:  c.CacheTTL,
		HighlightStyle:   c.HighlightStyle,

		AnalyticsEnabled:         c.AnalyticsEnabled,
		AnalyticsDatabasePath:    c.AnalyticsDatabasePath,
		AnalyticsRetentionDays:   c.AnalyticsRetentionDays,
		AnalyticsCleanupSchedule: c.AnalyticsCleanupSchedule,

		AdminPassword: c.AdminPassword,
		SessionSecret: c.SessionSecret,
		CookieSecure:  c.CookieSecure,
	}
}
