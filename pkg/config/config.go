package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Config holds all vndb-mcp configuration.
type Config struct {
	VNDB      VNDBConfig      `yaml:"vndb"`
	Cache     CacheConfig     `yaml:"cache"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Notes     NotesConfig     `yaml:"notes"`
	Log       LogConfig       `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

// VNDBConfig points at the VNDB Kana API.
type VNDBConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Token    string        `yaml:"token"`
	Timeout  time.Duration `yaml:"timeout"`
}

// CacheConfig controls the in-memory response cache.
type CacheConfig struct {
	MaxSize          int           `yaml:"max_size"`
	TTL              time.Duration `yaml:"ttl"`
	KeyHashThreshold int           `yaml:"key_hash_threshold"`
	ReapInterval     time.Duration `yaml:"reap_interval"`
}

// RateLimitConfig bounds outbound VNDB calls.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
}

// NotesConfig selects the note store. An empty DBPath keeps notes in memory.
type NotesConfig struct {
	DBPath string `yaml:"db_path"`
}

// LogConfig controls the stderr logger.
// Level is debug, info, warn or error; Format is json or text.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus endpoint. An empty Listen disables it.
type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

// TracingConfig controls span export. Exporter is "none" or "stdout".
type TracingConfig struct {
	Exporter    string  `yaml:"exporter"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		VNDB: VNDBConfig{
			Endpoint: "https://api.vndb.org/kana",
			Timeout:  30 * time.Second,
		},
		Cache: CacheConfig{
			MaxSize:          1000,
			TTL:              time.Hour,
			KeyHashThreshold: 100,
			ReapInterval:     5 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Exporter:    "none",
			SampleRatio: 1,
		},
	}
}

// Load reads a YAML config file and expands environment variables. An empty
// path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the components cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.VNDB.Endpoint == "":
		return errors.New("vndb.endpoint is required")
	case c.VNDB.Timeout <= 0:
		return errors.New("vndb.timeout must be positive")
	case c.Cache.MaxSize <= 0:
		return errors.New("cache.max_size must be positive")
	case c.Cache.TTL <= 0:
		return errors.New("cache.ttl must be positive")
	case c.Cache.KeyHashThreshold <= 0:
		return errors.New("cache.key_hash_threshold must be positive")
	case c.Cache.ReapInterval <= 0:
		return errors.New("cache.reap_interval must be positive")
	case c.RateLimit.RequestsPerMinute <= 0:
		return errors.New("rate_limit.requests_per_minute must be positive")
	}

	switch c.Log.Format {
	case "json", "text":
	default:
		return errors.Newf("log.format must be json or text, got %q", c.Log.Format)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.Newf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	switch c.Tracing.Exporter {
	case "none", "stdout":
	default:
		return errors.Newf("tracing.exporter must be none or stdout, got %q", c.Tracing.Exporter)
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return errors.Newf("tracing.sample_ratio must be within [0, 1], got %v", c.Tracing.SampleRatio)
	}
	return nil
}
