package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Cache.MaxSize != 1000 {
		t.Errorf("expected max size 1000, got %d", cfg.Cache.MaxSize)
	}
	if cfg.Cache.TTL != time.Hour {
		t.Errorf("expected 1h TTL, got %v", cfg.Cache.TTL)
	}
	if cfg.Cache.ReapInterval != 5*time.Minute {
		t.Errorf("expected 5m reap interval, got %v", cfg.Cache.ReapInterval)
	}
	if cfg.Cache.KeyHashThreshold != 100 {
		t.Errorf("expected key hash threshold 100, got %d", cfg.Cache.KeyHashThreshold)
	}
	if cfg.RateLimit.RequestsPerMinute != 60 {
		t.Errorf("expected 60 rpm, got %d", cfg.RateLimit.RequestsPerMinute)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_VNDB_TOKEN", "tok-123")

	path := writeConfig(t, `
vndb:
  token: ${TEST_VNDB_TOKEN}
  timeout: 10s
cache:
  max_size: 5
  ttl: 30m
rate_limit:
  requests_per_minute: 2
notes:
  db_path: notes.db
log:
  level: debug
  format: text
metrics:
  listen: ":9464"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.VNDB.Token != "tok-123" {
		t.Errorf("env var not expanded: got %s", cfg.VNDB.Token)
	}
	if cfg.VNDB.Endpoint != "https://api.vndb.org/kana" {
		t.Errorf("expected default endpoint to survive, got %s", cfg.VNDB.Endpoint)
	}
	if cfg.VNDB.Timeout != 10*time.Second {
		t.Errorf("expected 10s timeout, got %v", cfg.VNDB.Timeout)
	}
	if cfg.Cache.MaxSize != 5 || cfg.Cache.TTL != 30*time.Minute {
		t.Errorf("unexpected cache config: %+v", cfg.Cache)
	}
	if cfg.Cache.ReapInterval != 5*time.Minute {
		t.Errorf("expected default reap interval, got %v", cfg.Cache.ReapInterval)
	}
	if cfg.RateLimit.RequestsPerMinute != 2 {
		t.Errorf("expected 2 rpm, got %d", cfg.RateLimit.RequestsPerMinute)
	}
	if cfg.Notes.DBPath != "notes.db" {
		t.Errorf("expected notes.db, got %s", cfg.Notes.DBPath)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "text" {
		t.Errorf("unexpected log config: %+v", cfg.Log)
	}
	if cfg.Metrics.Listen != ":9464" {
		t.Errorf("expected :9464, got %s", cfg.Metrics.Listen)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Cache.MaxSize != Default().Cache.MaxSize {
		t.Error("expected defaults for empty path")
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadInvalid(t *testing.T) {
	cases := map[string]string{
		"cache.max_size":                 "cache:\n  max_size: 0\n",
		"rate_limit.requests_per_minute": "rate_limit:\n  requests_per_minute: -1\n",
		"log.format":                     "log:\n  format: xml\n",
		"tracing.exporter":               "tracing:\n  exporter: zipkin\n",
		"tracing.sample_ratio":           "tracing:\n  sample_ratio: 2\n",
	}
	for field, content := range cases {
		t.Run(field, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), field) {
				t.Errorf("error %q should name %s", err, field)
			}
		})
	}
}
