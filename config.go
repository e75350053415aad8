package texted

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/eringen/texted/metrics"
)

// SiteConfig holds all configuration for a texted site.
type SiteConfig struct {
	Site     SiteSection     `yaml:"site"`
	Personal PersonalSection `yaml:"personal"`
	Paths    PathsSection    `yaml:"paths"`
	Defaults DefaultsSection `yaml:"defaults"`
	Server   ServerSection   `yaml:"server"`
	Admin    AdminSection    `yaml:"admin"`
	Metrics  MetricsSection  `yaml:"metrics"`
	RSS      RSSSection      `yaml:"rss"`
	Log      LogSection      `yaml:"log"`
	Watch    WatchSection    `yaml:"watch"`
}

type SiteSection struct {
	Name        string `yaml:"name"`        // default "Blog"
	URL         string `yaml:"url"`         // canonical URL, default "http://localhost:8001"
	Description string `yaml:"description"` // RSS and meta description
	Author      string `yaml:"author"`
}

type PersonalSection struct {
	ActivityStartYear int    `yaml:"activity_start_year"`
	BlogStartDate     string `yaml:"blog_start_date"` // YYYY-MM-DD
}

// PathsSection locates content and assets. "${exe_dir}" expands to the
// directory of the running binary.
type PathsSection struct {
	Posts  string `yaml:"posts_dir"`  // default "posts"
	Pages  string `yaml:"pages_dir"`  // default "pages"
	Public string `yaml:"public_dir"` // default "public"
	Data   string `yaml:"data_dir"`   // default "data"
}

type DefaultsSection struct {
	IndexBaseName    string        `yaml:"index_base_name"`    // default "index"
	SummaryLineCount int           `yaml:"summary_line_count"` // 0 = no line limit
	SummaryLineTag   string        `yaml:"summary_line_tag"`   // default "<!-- more -->"
	PageSize         int           `yaml:"page_size"`          // default 10
	IndexPosts       int           `yaml:"index_posts"`        // default 5
	RenderingCache   *bool         `yaml:"rendering_cache_enabled"`
	PreviewTTL       time.Duration `yaml:"preview_ttl"` // 0 = never expires
	PostTTL          time.Duration `yaml:"post_ttl"`    // default 5m
	PageTTL          time.Duration `yaml:"page_ttl"`    // default 5m
	UnsafeHTML       bool          `yaml:"unsafe_html"` // pass raw HTML in Markdown through
	CodeStyle        string        `yaml:"code_style"`  // chroma style, default "github"
	WarmCache        bool          `yaml:"warm_cache"`  // render previews at startup
}

type ServerSection struct {
	Address string `yaml:"address"` // default "0.0.0.0"
	Port    int    `yaml:"port"`    // default 8001
}

type AdminSection struct {
	Password      string `yaml:"password"`       // admin routes are off when empty
	SessionSecret string `yaml:"session_secret"` // required with Password
	CookieSecure  bool   `yaml:"cookie_secure"`  // set true for HTTPS
}

type MetricsSection struct {
	Enabled       bool          `yaml:"enabled"`
	DatabasePath  string        `yaml:"database_path"`  // default "<data_dir>/metrics.db"
	TimeSlot      time.Duration `yaml:"time_slot"`      // default 1m
	RetentionDays int           `yaml:"retention_days"` // default 365
	Prometheus    bool          `yaml:"prometheus"`
}

type RSSSection struct {
	Title       string `yaml:"title"`
	SiteURL     string `yaml:"site_url"`
	Description string `yaml:"description"`
	PageSize    int    `yaml:"page_size"` // default 20
}

type LogSection struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

type WatchSection struct {
	Enabled        bool          `yaml:"enabled"`
	Debounce       time.Duration `yaml:"debounce"`        // default 500ms
	RescanInterval time.Duration `yaml:"rescan_interval"` // 0 = no periodic rescan
}

// Addr returns the listen address.
func (c *SiteConfig) Addr() string {
	return c.Server.Address + ":" + strconv.Itoa(c.Server.Port)
}

// RenderingCacheEnabled reports whether rendered content is cached.
func (c *SiteConfig) RenderingCacheEnabled() bool {
	return c.Defaults.RenderingCache == nil || *c.Defaults.RenderingCache
}

// AdminEnabled reports whether the admin routes are served.
func (c *SiteConfig) AdminEnabled() bool {
	return c.Admin.Password != ""
}

func (c *SiteConfig) setDefaults() {
	if c.Site.Name == "" {
		c.Site.Name = "Blog"
	}
	if c.Site.URL == "" {
		c.Site.URL = "http://localhost:8001"
	}
	if c.Paths.Posts == "" {
		c.Paths.Posts = "posts"
	}
	if c.Paths.Pages == "" {
		c.Paths.Pages = "pages"
	}
	if c.Paths.Public == "" {
		c.Paths.Public = "public"
	}
	if c.Paths.Data == "" {
		c.Paths.Data = "data"
	}
	if c.Defaults.IndexBaseName == "" {
		c.Defaults.IndexBaseName = "index"
	}
	if c.Defaults.SummaryLineTag == "" {
		c.Defaults.SummaryLineTag = "<!-- more -->"
	}
	if c.Defaults.PageSize == 0 {
		c.Defaults.PageSize = 10
	}
	if c.Defaults.IndexPosts == 0 {
		c.Defaults.IndexPosts = 5
	}
	if c.Defaults.PostTTL == 0 {
		c.Defaults.PostTTL = 5 * time.Minute
	}
	if c.Defaults.PageTTL == 0 {
		c.Defaults.PageTTL = 5 * time.Minute
	}
	if c.Defaults.CodeStyle == "" {
		c.Defaults.CodeStyle = "github"
	}
	if c.Server.Address == "" {
		c.Server.Address = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8001
	}
	if c.Metrics.DatabasePath == "" {
		c.Metrics.DatabasePath = filepath.Join(c.Paths.Data, "metrics.db")
	}
	if c.Metrics.TimeSlot == 0 {
		c.Metrics.TimeSlot = time.Minute
	}
	if c.Metrics.RetentionDays == 0 {
		c.Metrics.RetentionDays = 365
	}
	if c.RSS.Title == "" {
		c.RSS.Title = c.Site.Name
	}
	if c.RSS.SiteURL == "" {
		c.RSS.SiteURL = c.Site.URL
	}
	if c.RSS.Description == "" {
		c.RSS.Description = c.Site.Description
	}
	if c.RSS.PageSize == 0 {
		c.RSS.PageSize = 20
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = 500 * time.Millisecond
	}
}

// Validate checks the configuration after defaults are applied.
func (c *SiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Site),
		validation.Field(&c.Server),
		validation.Field(&c.Defaults),
		validation.Field(&c.Admin),
		validation.Field(&c.Log),
		validation.Field(&c.Metrics),
		validation.Field(&c.RSS),
	)
}

func (s SiteSection) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Name, validation.Required),
		validation.Field(&s.URL, validation.Required, is.URL),
	)
}

func (s ServerSection) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

func (d DefaultsSection) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.IndexBaseName, validation.Required, validation.By(noPathSeparator)),
		validation.Field(&d.SummaryLineCount, validation.Min(0)),
		validation.Field(&d.PageSize, validation.Min(1)),
		validation.Field(&d.IndexPosts, validation.Min(1)),
		validation.Field(&d.PreviewTTL, validation.Min(time.Duration(0))),
	)
}

func (a AdminSection) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.SessionSecret, validation.When(a.Password != "", validation.Required, validation.Length(16, 0))),
	)
}

func (l LogSection) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In("debug", "info", "warn", "error")),
		validation.Field(&l.Format, validation.In("text", "json")),
	)
}

func (m MetricsSection) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.TimeSlot, validation.Min(time.Second)),
		validation.Field(&m.RetentionDays, validation.Min(1)),
	)
}

func (r RSSSection) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.PageSize, validation.Min(1)),
	)
}

func noPathSeparator(value any) error {
	s, _ := value.(string)
	if strings.ContainsAny(s, `/\`) {
		return errors.New("must be a plain file name")
	}
	return nil
}

// LoadConfig reads the YAML file at path. A ".env" file next to it is loaded
// first, TEXTED_* variables then override file values, defaults fill the rest
// and the result is validated.
func LoadConfig(path string) (SiteConfig, error) {
	var cfg SiteConfig

	envFile := filepath.Join(filepath.Dir(path), ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return cfg, fmt.Errorf("texted: load %s: %w", envFile, err)
		}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("texted: read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("texted: parse config %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	cfg.setDefaults()
	if err := cfg.expandPaths(); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("texted: invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *SiteConfig) applyEnv() error {
	c.Site.Name = EnvOr("TEXTED_SITE_NAME", c.Site.Name)
	c.Site.URL = EnvOr("TEXTED_SITE_URL", c.Site.URL)
	c.Paths.Posts = EnvOr("TEXTED_POSTS_DIR", c.Paths.Posts)
	c.Paths.Pages = EnvOr("TEXTED_PAGES_DIR", c.Paths.Pages)
	c.Paths.Data = EnvOr("TEXTED_DATA_DIR", c.Paths.Data)
	c.Server.Address = EnvOr("TEXTED_ADDRESS", c.Server.Address)
	c.Admin.Password = EnvOr("TEXTED_ADMIN_PASSWORD", c.Admin.Password)
	c.Admin.SessionSecret = EnvOr("TEXTED_SESSION_SECRET", c.Admin.SessionSecret)
	c.Log.Level = EnvOr("TEXTED_LOG_LEVEL", c.Log.Level)
	if v := os.Getenv("TEXTED_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("texted: TEXTED_PORT: %w", err)
		}
		c.Server.Port = port
	}
	return nil
}

func (c *SiteConfig) expandPaths() error {
	for _, p := range []*string{&c.Paths.Posts, &c.Paths.Pages, &c.Paths.Public, &c.Paths.Data, &c.Metrics.DatabasePath} {
		expanded, err := ExpandExeDir(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}

// ExpandExeDir replaces a leading "${exe_dir}" with the executable directory.
func ExpandExeDir(path string) (string, error) {
	const token = "${exe_dir}"
	if !strings.HasPrefix(path, token) {
		return path, nil
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("texted: resolve executable: %w", err)
	}
	return filepath.Join(filepath.Dir(exe), strings.TrimPrefix(path, token)), nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir overrides the directory for user-owned static assets.
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.Config.Paths.Public = dir
	}
}

// WithEmitter adds an access metrics emitter next to the configured ones.
func WithEmitter(e metrics.Emitter) Option {
	return func(a *App) {
		a.extraEmitters = append(a.extraEmitters, e)
	}
}
