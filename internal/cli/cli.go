package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kgview/internal/config"
	"github.com/matzehuels/kgview/pkg/cache"
	"github.com/matzehuels/kgview/pkg/client"
	"github.com/matzehuels/kgview/pkg/pipeline"
	"github.com/matzehuels/kgview/pkg/view"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "kgview"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config is loaded before every command runs.
	Config *config.Config

	cfgFile string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// conf returns the loaded configuration, or the defaults when a command
// runs outside the root command (tests).
func (c *CLI) conf() *config.Config {
	if c.Config == nil {
		cfg, err := config.Load("", nil)
		if err != nil {
			cfg = &config.Config{Locale: pipeline.DefaultLocale, Cache: config.CacheConfig{Backend: config.BackendNone}}
		}
		c.Config = cfg
	}
	return c.Config
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner backed by the configured cache.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cc, c.newKeyer(), c.Logger), nil
}

// newKeyer scopes cache keys by the configured prefix, if any.
func (c *CLI) newKeyer() cache.Keyer {
	if prefix := c.conf().Cache.Prefix; prefix != "" {
		return cache.NewScopedKeyer(cache.NewDefaultKeyer(), prefix)
	}
	return cache.NewDefaultKeyer()
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	cfg := c.conf()
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Cache.Backend {
	case config.BackendRedis:
		rc, err := cache.NewRedisCache(ctx, cfg.Cache.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("connect redis cache: %w", err)
		}
		return rc, nil
	case config.BackendFile:
		dir, err := c.cacheDir()
		if err != nil {
			c.Logger.Debug("no cache directory, caching disabled", "err", err)
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	default:
		return cache.NewNullCache(), nil
	}
}

// newClient returns a client for the configured API, or nil in local mode.
func (c *CLI) newClient(runner *pipeline.Runner) *client.Client {
	if c.conf().APIURL == "" {
		return nil
	}
	cl := client.New(c.conf().APIURL, runner)
	if timeout := c.conf().APITimeout; timeout > 0 {
		cl.WithHTTPClient(&http.Client{Timeout: timeout})
	}
	return cl
}

// prepare builds a view, through the API when one is configured.
func (c *CLI) prepare(ctx context.Context, runner *pipeline.Runner, raw any, opts pipeline.Options) (*view.Result, error) {
	cl := c.newClient(runner)
	if cl == nil {
		built, err := runner.Build(ctx, raw, opts)
		if err != nil {
			return nil, err
		}
		return built.View, nil
	}
	p, err := cl.Prepare(ctx, raw, opts)
	if err != nil {
		return nil, err
	}
	if p.RemoteErr != nil {
		c.Logger.Warn("API unavailable, built locally", "err", p.RemoteErr)
	}
	return p.View, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the configured cache directory, or the per-user default
// (~/.cache/kgview on Linux).
func (c *CLI) cacheDir() (string, error) {
	if dir := c.conf().Cache.Dir; dir != "" {
		return dir, nil
	}
	return cache.DefaultDir()
}

// =============================================================================
// Options Helpers
// =============================================================================

// baseOptions returns pipeline options seeded from the configuration.
func (c *CLI) baseOptions() (pipeline.Options, error) {
	cfg := c.conf()
	opts := pipeline.Options{Locale: cfg.Locale}
	if cfg.Template != "" {
		tmpl, err := os.ReadFile(cfg.Template)
		if err != nil {
			return opts, fmt.Errorf("read template: %w", err)
		}
		opts.Template = tmpl
	}
	return opts, nil
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.DefaultFormat}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
