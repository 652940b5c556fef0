// Package pubnotion is a blog engine that reads its posts from a Notion
// database. It renders Notion block trees with Echo and templ, and adds a
// category sidebar, privacy-first analytics, RSS, a sitemap and a static export.
//
// Sites can replace any page through the ViewFuncs struct; pubnotion handles
// the Notion client, caching, handlers, middleware and analytics storage.
package pubnotion

import (
	"fmt"
	"io/fs"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/eringen/pubnotion/analytics"
	"github.com/eringen/pubnotion/content"
	"github.com/eringen/pubnotion/notion"
	"github.com/eringen/pubnotion/render"
)

// App is the central pubnotion application. It wires together the Notion
// source, cache, renderer, handlers, middleware and user-provided templates.
type App struct {
	Config   SiteConfig
	Echo     *echo.Echo
	Source   Source
	Fetcher  *content.Fetcher
	Renderer *render.Renderer
	Cache    *ContentCache
	Views    ViewFuncs

	loginLimiter     *LoginLimiter
	analyticsStore   *analytics.Store
	analyticsHandler *analytics.Handler
	media            *mediaCache
	httpClient       *http.Client
	customRoutes     []func(*App)
	staticDir        string
	stopCleanup      func()
	initialized      bool
}

// New creates a new pubnotion App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()
	views.setDefaults()

	a := &App{
		Config:     cfg,
		Echo:       echo.New(),
		Views:      views,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		staticDir:  "public",
	}
	a.Echo.HideBanner = true

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Init builds the Notion client, cache, analytics store, middleware and
// routes. Start calls it; Export and tests call it directly.
func (a *App) Init() error {
	if a.initialized {
		return nil
	}
	if a.Config.AdminPassword != "" && a.Config.SessionSecret == "" {
		return fmt.Errorf("pubnotion: SessionSecret is required when AdminPassword is set")
	}
	a.Echo.Logger.SetLevel(parseLogLevel(a.Config.LogLevel))

	if a.Source == nil {
		client, err := a.newNotionClient()
		if err != nil {
			return err
		}
		a.Source = client
	}

	a.Fetcher = content.NewFetcher(a.Source,
		content.WithMaxDepth(a.Config.MaxDepth),
		content.WithConcurrency(a.Config.FetchConcurrency),
	)
	renderOpts := []render.Option{
		render.WithImageURL(mediaURL),
		render.WithMaxDepth(a.Config.MaxDepth),
	}
	if a.Config.HighlightStyle != "" {
		renderOpts = append(renderOpts, render.WithHighlightStyle(a.Config.HighlightStyle))
	}
	a.Renderer = render.New(renderOpts...)
	a.Cache = NewContentCache(a.Source, a.Fetcher, a.Config.ContentCacheTTL)
	a.media = newMediaCache(a.Config.ContentCacheTTL)

	if a.Config.AdminPassword != "" {
		a.loginLimiter = NewLoginLimiter(5, time.Minute)
	}

	if a.Config.AnalyticsEnabled {
		store, err := analytics.NewStore(a.Config.AnalyticsDatabasePath)
		if err != nil {
			return fmt.Errorf("pubnotion: init analytics: %w", err)
		}
		a.analyticsStore = store
		if err := analytics.InitSalt(store); err != nil {
			return fmt.Errorf("pubnotion: init analytics salt: %w", err)
		}
		stop, err := store.StartCleanupScheduler(a.Config.AnalyticsRetentionDays, a.Config.AnalyticsCleanupSchedule, a.Echo.Logger)
		if err != nil {
			return fmt.Errorf("pubnotion: schedule analytics cleanup: %w", err)
		}
		a.stopCleanup = stop
		a.analyticsHandler = analytics.NewHandler(store)
	}

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}

	a.initialized = true
	return nil
}

func (a *App) newNotionClient() (*notion.Client, error) {
	if a.Config.NotionToken == "" {
		return nil, fmt.Errorf("pubnotion: NotionToken is required")
	}
	if a.Config.DatabaseID == "" {
		return nil, fmt.Errorf("pubnotion: DatabaseID is required")
	}
	burst := int(math.Ceil(a.Config.NotionRateLimit))
	if burst < 1 {
		burst = 1
	}
	opts := []notion.ClientOption{notion.WithRateLimit(a.Config.NotionRateLimit, burst)}
	if a.Config.NotionBaseURL != "" {
		opts = append(opts, notion.WithBaseURL(a.Config.NotionBaseURL))
	}
	client, err := notion.NewClient(a.Config.NotionToken, a.Config.DatabaseID, opts...)
	if err != nil {
		return nil, fmt.Errorf("pubnotion: notion client: %w", err)
	}
	return client, nil
}

// Start initializes the app and serves HTTP until the server is closed.
func (a *App) Start() error {
	if err := a.Init(); err != nil {
		return err
	}
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Framework assets; anything else under /public/ comes from the user's static dir.
	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := http.FileServer(http.FS(embeddedFS))
	if a.Config.AnalyticsEnabled {
		e.GET("/public/analytics.js", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))
	}
	e.GET("/public/style.css", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))
	e.GET("/public/highlight.css", a.handleHighlightCSS)

	e.Static("/public", a.staticDir)
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)

	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/", a.handleHome)
	e.GET("/posting/", handlePostingRedirect)
	e.GET("/posting/:slug/", a.handlePost)
	e.GET("/mention/:id/", a.handleMention)
	e.GET("/media/:file", a.handleMedia)

	if a.Config.AdminPassword != "" {
		e.GET("/admin/", a.handleAdmin)
		e.POST("/admin/login/", a.handleAdminLogin)
		e.POST("/admin/logout/", handleAdminLogout)
	}

	if a.analyticsHandler != nil {
		a.analyticsHandler.RegisterRoutes(e, requireAdmin)
	}
}

// Close stops background jobs and closes the analytics database.
func (a *App) Close() error {
	if a.stopCleanup != nil {
		a.stopCleanup()
	}
	if a.analyticsStore != nil {
		return a.analyticsStore.Close()
	}
	return nil
}

func parseLogLevel(s string) log.Lvl {
	switch strings.ToLower(s) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}
