// Package config loads kgview configuration.
//
// Values are layered, highest priority last:
//
//  1. Built-in defaults
//  2. kgview.yaml (or the file named by --config)
//  3. KGVIEW_* environment variables; a double underscore separates
//     sections, so KGVIEW_CACHE__REDIS_URL sets cache.redis_url
//  4. Command-line flags that were explicitly set
package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/matzehuels/kgview/pkg/collate"
	"github.com/matzehuels/kgview/pkg/errors"
)

// EnvPrefix prefixes every environment variable read by [Load].
const EnvPrefix = "KGVIEW_"

// DefaultFiles are searched in the working directory when no file is given.
var DefaultFiles = []string{"kgview.yaml", "kgview.yml"}

// Backend names.
const (
	BackendNone   = "none"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
	BackendMongo  = "mongo"
)

// Config holds all configuration options.
type Config struct {
	Locale     string        `koanf:"locale"`
	LogLevel   string        `koanf:"log_level"`
	Verbose    bool          `koanf:"verbose"`
	APIURL     string        `koanf:"api_url"`
	APITimeout time.Duration `koanf:"api_timeout"`
	Template   string        `koanf:"template"`
	Cache      CacheConfig   `koanf:"cache"`
	Store      StoreConfig   `koanf:"store"`
	Server     ServerConfig  `koanf:"server"`

	// File is the config file that was loaded, if any.
	File string `koanf:"-"`
}

// CacheConfig selects the view and artifact cache.
type CacheConfig struct {
	Backend  string `koanf:"backend"`
	Dir      string `koanf:"dir"`
	RedisURL string `koanf:"redis_url"`

	// Prefix namespaces every cache key, so deployments can share one Redis.
	Prefix string `koanf:"prefix"`
}

// StoreConfig selects the snapshot store used by the server.
type StoreConfig struct {
	Backend       string `koanf:"backend"`
	Dir           string `koanf:"dir"`
	MongoURI      string `koanf:"mongo_uri"`
	MongoDatabase string `koanf:"mongo_database"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	ExamplesDir     string        `koanf:"examples_dir"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	MaxBodyBytes    int64         `koanf:"max_body_bytes"`
}

// Defaults returns the built-in defaults as a flat key map.
func Defaults() map[string]any {
	return map[string]any{
		"locale":                  collate.DefaultLocale.String(),
		"log_level":               "info",
		"verbose":                 false,
		"api_url":                 "",
		"api_timeout":             "10s",
		"template":                "",
		"cache.backend":           BackendFile,
		"cache.dir":               "",
		"cache.redis_url":         "",
		"cache.prefix":            "",
		"store.backend":           BackendMemory,
		"store.dir":               "",
		"store.mongo_uri":         "",
		"store.mongo_database":    "kgview",
		"server.addr":             ":8000",
		"server.examples_dir":     "",
		"server.shutdown_timeout": "10s",
		"server.max_body_bytes":   int64(32 << 20),
	}
}

// flagKeys maps flag names to config keys where the two differ.
var flagKeys = map[string]string{
	"cache":     "cache.backend",
	"cache-dir": "cache.dir",
	"redis-url": "cache.redis_url",
	"store":     "store.backend",
	"store-dir": "store.dir",
	"mongo-uri": "store.mongo_uri",
	"addr":      "server.addr",
	"examples":  "server.examples_dir",
	"api":       "api_url",
}

// Load reads configuration from cfgFile (or a default file in the working
// directory), the environment and the explicitly set flags.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	used := findConfigFile(cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "error reading config file %s", used)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				key = strings.ReplaceAll(f.Name, "-", "_")
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "unable to decode config")
	}
	cfg.File = used

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey turns KGVIEW_CACHE__REDIS_URL into cache.redis_url.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range DefaultFiles {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Validate checks enumerations and the locale.
func (c *Config) Validate() error {
	if _, err := collate.ParseLocale(c.Locale); err != nil {
		return err
	}
	c.LogLevel = strings.ToLower(c.LogLevel)
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.LogLevel) {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid log_level %q", c.LogLevel)
	}
	if !slices.Contains([]string{BackendNone, BackendFile, BackendRedis}, c.Cache.Backend) {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid cache backend %q (must be none, file or redis)", c.Cache.Backend)
	}
	if c.Cache.Backend == BackendRedis && c.Cache.RedisURL == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "cache backend redis requires cache.redis_url")
	}
	if !slices.Contains([]string{BackendMemory, BackendFile, BackendMongo}, c.Store.Backend) {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid store backend %q (must be memory, file or mongo)", c.Store.Backend)
	}
	if c.Store.Backend == BackendMongo && c.Store.MongoURI == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "store backend mongo requires store.mongo_uri")
	}
	if c.APITimeout < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "api_timeout must not be negative, got %s", c.APITimeout)
	}
	if c.APIURL != "" {
		if err := errors.ValidateURL(c.APIURL); err != nil {
			return err
		}
	}
	return nil
}

// Level returns the effective log level, with Verbose forcing debug.
func (c *Config) Level() string {
	if c.Verbose {
		return "debug"
	}
	return c.LogLevel
}
