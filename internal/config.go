package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/folio/internal/feed"
	"github.com/starford/folio/internal/posts"
	"github.com/starford/folio/internal/postservice"
	"github.com/starford/folio/internal/search"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Content ContentConfig     `yaml:"content"`
	Site    SiteConfig        `yaml:"site"`
	Search  SearchConfig      `yaml:"search"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Content.Validate(); err != nil {
		return fmt.Errorf("content: %w", err)
	}
	if err := c.Site.Validate(); err != nil {
		return fmt.Errorf("site: %w", err)
	}
	if err := c.Search.Validate(); err != nil {
		return fmt.Errorf("search: %w", err)
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// ContentConfig describes where posts live and how the index follows changes.
//
// Reload selects the snapshot policy:
//   - "watch" (default): build once, then rebuild on file system events.
//   - "always": rebuild on every request.
//   - "manual": rebuild only through the refresh endpoint.
type ContentConfig struct {
	Path         string        `yaml:"path"`
	Reload       string        `yaml:"reload"`
	ParseWorkers int           `yaml:"parse_workers"`
	Debounce     time.Duration `yaml:"debounce"`
}

// Validate validates the content configuration.
func (c *ContentConfig) Validate() error {
	if c.Reload == "" {
		c.Reload = string(posts.ReloadWatch)
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Reload, validation.In(
			string(posts.ReloadWatch), string(posts.ReloadAlways), string(posts.ReloadManual),
		)),
		validation.Field(&c.ParseWorkers, validation.Min(0)),
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
	)
}

// ReloadMode returns the configured reload mode.
func (c *ContentConfig) ReloadMode() posts.ReloadMode {
	return posts.ReloadMode(c.Reload)
}

// SiteConfig holds the public site identity used by feeds and pagination.
type SiteConfig struct {
	Title        string `yaml:"title"`
	Description  string `yaml:"description"`
	Author       string `yaml:"author"`
	URL          string `yaml:"url"`
	PostsPerPage int    `yaml:"posts_per_page"`
}

// Validate validates the site configuration.
func (c *SiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Title, validation.Required),
		validation.Field(&c.URL, validation.Required, is.URL),
		validation.Field(&c.PostsPerPage, validation.Required, validation.Min(1), validation.Max(postservice.MaxLimit)),
	)
}

// Feed returns the feed description of the site.
func (c *SiteConfig) Feed() feed.Site {
	return feed.Site{
		Title:       c.Title,
		Description: c.Description,
		Author:      c.Author,
		URL:         c.URL,
	}
}

// SearchConfig selects the full-text engine.
type SearchConfig struct {
	Engine    string `yaml:"engine"`
	SQLiteDSN string `yaml:"sqlite_dsn"`
}

// Validate validates the search configuration.
func (c *SearchConfig) Validate() error {
	if c.Engine == "" {
		c.Engine = search.EngineBleve
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Engine, validation.In(search.EngineBleve, search.EngineSQLite)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Content: ContentConfig{
			Path:     "./content",
			Reload:   string(posts.ReloadWatch),
			Debounce: posts.DefaultDebounce,
		},
		Site: SiteConfig{
			Title:        "Folio",
			Description:  "Notes and articles",
			URL:          "http://localhost:8080",
			PostsPerPage: 10,
		},
		Search: SearchConfig{
			Engine:    search.EngineBleve,
			SQLiteDSN: search.MemoryDSN,
		},
	}
}
