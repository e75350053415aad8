// Package texted serves a blog from a directory of Markdown and HTML files.
// Posts and pages are parsed on demand, rendered through a TTL cache and
// served with Echo. Page chrome comes from templ components in ViewFuncs, so a
// site can replace any template while texted handles routing, caching, feeds,
// access metrics and the admin cache dashboard.
package texted

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/a-h/templ"
	"github.com/go-co-op/gocron/v2"
	"github.com/labstack/echo/v4"

	"github.com/eringen/texted/cache"
	"github.com/eringen/texted/markdown"
	"github.com/eringen/texted/metrics"
	"github.com/eringen/texted/views"
)

// ViewFuncs holds the templ components texted renders pages with. Nil fields
// fall back to the views package defaults.
type ViewFuncs struct {
	Index          func(d views.IndexData) templ.Component
	List           func(d views.ListData) templ.Component
	Post           func(d views.PostData) templ.Component
	Page           func(d views.PostData) templ.Component
	AdminLogin     func(site views.Site, showError bool, csrfToken string) templ.Component
	AdminDashboard func(d views.DashboardData) templ.Component
	NotFound       func(site views.Site) templ.Component
	ServerError    func(site views.Site) templ.Component
}

// DefaultViews returns the built-in page chrome.
func DefaultViews() ViewFuncs {
	return ViewFuncs{
		Index:          views.Index,
		List:           views.List,
		Post:           views.Post,
		Page:           views.Page,
		AdminLogin:     views.AdminLogin,
		AdminDashboard: views.AdminDashboard,
		NotFound:       views.NotFound,
		ServerError:    views.ServerError,
	}
}

func (v ViewFuncs) withDefaults() ViewFuncs {
	d := DefaultViews()
	if v.Index == nil {
		v.Index = d.Index
	}
	if v.List == nil {
		v.List = d.List
	}
	if v.Post == nil {
		v.Post = d.Post
	}
	if v.Page == nil {
		v.Page = d.Page
	}
	if v.AdminLogin == nil {
		v.AdminLogin = d.AdminLogin
	}
	if v.AdminDashboard == nil {
		v.AdminDashboard = d.AdminDashboard
	}
	if v.NotFound == nil {
		v.NotFound = d.NotFound
	}
	if v.ServerError == nil {
		v.ServerError = d.ServerError
	}
	return v
}

// App wires the content store, render cache, handlers, middleware and
// background jobs together.
type App struct {
	Config       SiteConfig
	Echo         *echo.Echo
	Store        *Store
	Cache        *PostCache
	Views        ViewFuncs
	Recorder     *metrics.Recorder
	MetricsStore *metrics.Store

	images        *cache.Cache[[]byte]
	access        *metrics.Handler
	emitter       metrics.Emitter
	extraEmitters []metrics.Emitter
	loginLimiter  *LoginLimiter
	scheduler     gocron.Scheduler
	watcher       *Watcher
	customRoutes  []func(*App)
	startedAt     time.Time
	ready         bool
}

// New creates an App. Call Setup (or Run) before serving.
func New(cfg SiteConfig, v ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:  cfg,
		Echo:    echo.New(),
		Views:   v.withDefaults(),
		emitter: metrics.NoOp(),
	}
	a.Echo.HideBanner = true
	a.Echo.HidePort = true

	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Site returns the site settings views need.
func (a *App) Site() views.Site {
	return views.Site{
		Name:        a.Config.Site.Name,
		URL:         a.Config.Site.URL,
		Description: a.Config.Site.Description,
		Author:      a.Config.Site.Author,
		StartYear:   a.Config.Personal.ActivityStartYear,
	}
}

// Setup scans the content directories, opens the metrics database and
// registers middleware and routes. It does not start background jobs.
func (a *App) Setup() error {
	if a.ready {
		return nil
	}
	cfg := a.Config

	store, err := NewStore(cfg.Paths.Posts, cfg.Paths.Pages, cfg.Defaults.IndexBaseName)
	if err != nil {
		return err
	}
	a.Store = store

	if cfg.Metrics.Prometheus {
		a.Recorder = metrics.NewRecorder()
	}

	conv := markdown.New(
		markdown.WithUnsafe(cfg.Defaults.UnsafeHTML),
		markdown.WithStyle(cfg.Defaults.CodeStyle),
	)
	a.Cache = NewPostCache(store, conv, CacheSettingsFrom(cfg), a.Recorder)
	a.images = cache.New[[]byte](cache.WithObserver(a.Recorder.CacheObserver("images")))
	a.loginLimiter = NewLoginLimiter(5, time.Minute)

	emitters := []metrics.Emitter{}
	if cfg.Metrics.Enabled {
		ms, err := metrics.NewStore(cfg.Metrics.DatabasePath)
		if err != nil {
			return fmt.Errorf("texted: init metrics: %w", err)
		}
		a.MetricsStore = ms
		a.access = metrics.NewHandler(ms, cfg.Metrics.TimeSlot)
		emitters = append(emitters, a.access.Sender())
	}
	if a.Recorder != nil {
		emitters = append(emitters, a.Recorder)
	}
	emitters = append(emitters, a.extraEmitters...)
	if len(emitters) > 0 {
		a.emitter = metrics.Multi(emitters...)
	}

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}

	a.startedAt = time.Now()
	a.ready = true
	return nil
}

// Start runs the server until it fails. Prefer Run, which stops on ctx.
func (a *App) Start() error {
	return a.Run(context.Background())
}

// Run sets the app up, starts the scheduler and watcher, and serves until
// ctx is cancelled. The server then gets ten seconds to drain.
func (a *App) Run(ctx context.Context) error {
	if err := a.Setup(); err != nil {
		return err
	}

	if a.Config.Defaults.WarmCache {
		start := time.Now()
		if err := a.Cache.Warm(ctx); err != nil {
			slog.Warn("cache warm-up failed", "error", err)
		} else {
			slog.Info("cache warmed", "posts", len(a.Store.Links(KindPost)), "took", time.Since(start))
		}
	}

	sched, err := newScheduler(a)
	if err != nil {
		return err
	}
	a.scheduler = sched
	a.scheduler.Start()

	if a.Config.Watch.Enabled {
		w, err := NewWatcher(a.Store, a.Cache, a.Config.Watch.Debounce)
		if err != nil {
			return err
		}
		if err := w.Start(ctx); err != nil {
			return err
		}
		a.watcher = w
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("texted listening", "addr", a.Config.Addr(), "posts", len(a.Store.Links(KindPost)), "pages", len(a.Store.Links(KindPage)))
		errCh <- a.Echo.Start(a.Config.Addr())
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	slog.Info("shutting down")
	return a.Echo.Shutdown(shutdownCtx)
}

// Close stops background jobs and flushes pending access metrics.
func (a *App) Close() error {
	var errs []error
	if a.watcher != nil {
		errs = append(errs, a.watcher.Close())
	}
	if a.scheduler != nil {
		errs = append(errs, a.scheduler.Shutdown())
	}
	if a.access != nil {
		errs = append(errs, a.access.Close())
	}
	if a.MetricsStore != nil {
		errs = append(errs, a.MetricsStore.Close())
	}
	return errors.Join(errs...)
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
