// Package testsupport provides shared fixtures for package tests: temp-dir
// seeded configs and a scriptable in-memory asset source.
package testsupport

import (
	"path/filepath"
	"testing"

	"packshot/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DownloadDir = filepath.Join(base, "downloads")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.InputDir = filepath.Join(base, "input")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Paths.SocketPath = filepath.Join(base, "packshot.sock")
	cfg.Portal.BaseURL = "http://portal.test"
	cfg.Resolver.CacheEnabled = false
	cfg.Resolver.CachePath = filepath.Join(base, "asin_cache.db")

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithPortalURL overrides the portal base URL on the test config.
func WithPortalURL(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Portal.BaseURL = url
	}
}

// WithFetchConcurrency overrides the download parallelism on the test config.
func WithFetchConcurrency(n int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Workflow.FetchConcurrency = n
	}
}
