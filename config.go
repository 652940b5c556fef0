package pubnotion

import (
	"net/http"
	"time"

	"github.com/eringen/pubnotion/views"
)

// SiteConfig holds all configuration for a pubnotion site.
type SiteConfig struct {
	Name        string // Site name (default "Blog")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description for RSS and meta tags
	Author      string // Author name for JSON-LD

	Addr     string // Listen address (default ":3000")
	LogLevel string // debug, info, warn, error or off (default "info")

	NotionToken      string        // Required unless a Source is supplied
	DatabaseID       string        // Posts database id
	NotionBaseURL    string        // API base URL (default notion.DefaultBaseURL)
	NotionRateLimit  float64       // Requests per second (default 3)
	FetchConcurrency int           // Sibling expansions per tree level (default 8)
	MaxDepth         int           // Maximum block nesting (default 32)
	ContentCacheTTL  time.Duration // Post list and content tree TTL (default 1h)
	HighlightStyle   string        // chroma style for code blocks (default "github")

	AnalyticsEnabled         bool   // Enable analytics
	AnalyticsDatabasePath    string // Analytics SQLite path (default "data/analytics.db")
	AnalyticsRetentionDays   int    // Visits older than this are deleted (default 365)
	AnalyticsCleanupSchedule string // cron spec for the retention job (default daily 03:30)

	AdminPassword string // Enables /admin/ when set
	SessionSecret string // Required with AdminPassword
	CookieSecure  bool   // Set true for HTTPS
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Blog"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.NotionRateLimit == 0 {
		c.NotionRateLimit = 3
	}
	if c.ContentCacheTTL == 0 {
		c.ContentCacheTTL = time.Hour
	}
	if c.AnalyticsDatabasePath == "" {
		c.AnalyticsDatabasePath = "data/analytics.db"
	}
	if c.AnalyticsRetentionDays == 0 {
		c.AnalyticsRetentionDays = 365
	}
}

func (c SiteConfig) site() views.SiteConfig {
	return views.SiteConfig{
		Name:        c.Name,
		URL:         c.URL,
		Description: c.Description,
		Author:      c.Author,

		AnalyticsEnabled: c.AnalyticsEnabled,
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App after the built-in routes are set up.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithSource replaces the Notion client built from NotionToken and DatabaseID.
func WithSource(src Source) Option {
	return func(a *App) {
		a.Source = src
	}
}

// WithHTTPClient sets the client used to download images for the media proxy.
func WithHTTPClient(hc *http.Client) Option {
	return func(a *App) {
		a.httpClient = hc
	}
}
