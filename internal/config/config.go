package config

import (
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	API       APIConfig       `yaml:"api" mapstructure:"api"`
	Dashboard DashboardConfig `yaml:"dashboard" mapstructure:"dashboard"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// APIConfig configures the discovery API client.
type APIConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst   int     `yaml:"rate_burst" mapstructure:"rate_burst"`
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	Concurrency int     `yaml:"concurrency" mapstructure:"concurrency"`
}

// Timeout is the per-request timeout.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// DashboardConfig configures the interactive dashboard.
type DashboardConfig struct {
	DefaultLimit     int `yaml:"default_limit" mapstructure:"default_limit"`
	IngestLimit      int `yaml:"ingest_limit" mapstructure:"ingest_limit"`
	FilterDebounceMs int `yaml:"filter_debounce_ms" mapstructure:"filter_debounce_ms"`
	OverlayOpenMs    int `yaml:"overlay_open_ms" mapstructure:"overlay_open_ms"`
	OverlayCloseMs   int `yaml:"overlay_close_ms" mapstructure:"overlay_close_ms"`
	EnrichPollSecs   int `yaml:"enrich_poll_secs" mapstructure:"enrich_poll_secs"`
}

// FilterDebounce is the quiet period before a text filter edit is applied.
func (c DashboardConfig) FilterDebounce() time.Duration {
	return time.Duration(c.FilterDebounceMs) * time.Millisecond
}

// OverlayOpen is the detail overlay entry animation duration.
func (c DashboardConfig) OverlayOpen() time.Duration {
	return time.Duration(c.OverlayOpenMs) * time.Millisecond
}

// OverlayClose is the detail overlay exit animation duration.
func (c DashboardConfig) OverlayClose() time.Duration {
	return time.Duration(c.OverlayCloseMs) * time.Millisecond
}

// EnrichPoll is the enrichment status polling interval.
func (c DashboardConfig) EnrichPoll() time.Duration {
	return time.Duration(c.EnrichPollSecs) * time.Second
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
	File   string `yaml:"file" mapstructure:"file"`
}

type loadOptions struct {
	file  string
	flags *pflag.FlagSet
}

// LoadOption customizes Load.
type LoadOption func(*loadOptions)

// WithConfigFile reads the given file instead of searching for
// discovery.yaml. A missing explicit file is an error.
func WithConfigFile(path string) LoadOption {
	return func(o *loadOptions) { o.file = path }
}

// WithFlags binds command-line flags that override file and environment
// values. Flags that are not defined on fs are skipped.
func WithFlags(fs *pflag.FlagSet) LoadOption {
	return func(o *loadOptions) { o.flags = fs }
}

// flagKeys maps flag names to the config keys they override.
var flagKeys = map[string]string{
	"api-url":   "api.base_url",
	"log-level": "log.level",
	"log-file":  "log.file",
}

// Load reads configuration from file, environment and flags.
func Load(opts ...LoadOption) (*Config, error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}

	v := viper.New()

	// Config file
	if o.file != "" {
		v.SetConfigFile(o.file)
	} else {
		v.SetConfigName("discovery")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/discovery")
	}

	// Environment
	v.SetEnvPrefix("DISCOVERY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("api.base_url", "http://127.0.0.1:8000")
	v.SetDefault("api.timeout_secs", 30)
	v.SetDefault("api.rate_limit", 0)
	v.SetDefault("api.rate_burst", 1)
	v.SetDefault("api.user_agent", "discovery-cli")
	v.SetDefault("api.concurrency", 4)
	v.SetDefault("dashboard.default_limit", 100)
	v.SetDefault("dashboard.ingest_limit", 10)
	v.SetDefault("dashboard.filter_debounce_ms", 300)
	v.SetDefault("dashboard.overlay_open_ms", 150)
	v.SetDefault("dashboard.overlay_close_ms", 150)
	v.SetDefault("dashboard.enrich_poll_secs", 3)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")

	if o.flags != nil {
		for name, key := range flagKeys {
			if f := o.flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, eris.Wrapf(err, "config: bind flag %s", name)
				}
			}
		}
	}

	// Read config file (optional unless given explicitly)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || o.file != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks values that would otherwise fail later in confusing ways.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return eris.Wrap(err, "config: parse api.base_url")
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return eris.Errorf("config: api.base_url %q must be an absolute http(s) URL", c.API.BaseURL)
	}
	if c.API.TimeoutSecs <= 0 {
		return eris.New("config: api.timeout_secs must be positive")
	}
	if c.API.RateLimit < 0 {
		return eris.New("config: api.rate_limit must not be negative")
	}
	if c.API.Concurrency <= 0 {
		return eris.New("config: api.concurrency must be positive")
	}
	if c.Dashboard.DefaultLimit <= 0 {
		return eris.New("config: dashboard.default_limit must be positive")
	}
	if c.Dashboard.IngestLimit <= 0 {
		return eris.New("config: dashboard.ingest_limit must be positive")
	}
	if c.Dashboard.FilterDebounceMs < 0 || c.Dashboard.OverlayOpenMs < 0 || c.Dashboard.OverlayCloseMs < 0 {
		return eris.New("config: dashboard durations must not be negative")
	}
	if c.Dashboard.EnrichPollSecs <= 0 {
		return eris.New("config: dashboard.enrich_poll_secs must be positive")
	}
	return nil
}

// InitLogger initializes the global zap logger. When a log file is set,
// all output goes there instead of stderr.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	if cfg.File != "" {
		zapCfg.OutputPaths = []string{cfg.File}
		zapCfg.ErrorOutputPaths = []string{cfg.File}
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

// InitScreenLogger initializes logging for full-screen mode, where writes
// to stderr would corrupt the display. Without a log file, logging is
// discarded.
func InitScreenLogger(cfg LogConfig) error {
	if cfg.File == "" {
		zap.ReplaceGlobals(zap.NewNop())
		return nil
	}
	return InitLogger(cfg)
}
