package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"packshot/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaultsAndNormalizes(t *testing.T) {
	path := writeConfig(t, `
[portal]
base_url = "https://portal.example.com/"

[retailers]
Amazon = "/srv/assets/amazon"
`)

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved = %q exists = %v", resolved, exists)
	}
	if cfg.Portal.BaseURL != "https://portal.example.com" {
		t.Fatalf("BaseURL = %q, want trailing slash trimmed", cfg.Portal.BaseURL)
	}
	if cfg.Portal.RequestTimeout != 30 || cfg.Portal.RetryAttempts != 3 {
		t.Fatalf("portal defaults not applied: %+v", cfg.Portal)
	}
	if cfg.Workflow.FetchConcurrency != 4 || cfg.Workflow.EventBuffer != 1024 {
		t.Fatalf("workflow defaults not applied: %+v", cfg.Workflow)
	}
	if root, ok := cfg.Retailers["amazon"]; !ok || root != "/srv/assets/amazon" {
		t.Fatalf("retailer keys should be lowercased: %+v", cfg.Retailers)
	}
	if !filepath.IsAbs(cfg.Paths.DownloadDir) {
		t.Fatalf("DownloadDir not expanded: %q", cfg.Paths.DownloadDir)
	}
}

func TestLoadRequiresPortalBaseURL(t *testing.T) {
	t.Setenv("PACKSHOT_PORTAL_URL", "")
	os.Unsetenv("PACKSHOT_PORTAL_URL")

	path := writeConfig(t, "[logging]\nlevel = \"debug\"\n")
	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "portal.base_url") {
		t.Fatalf("error = %v, want portal.base_url requirement", err)
	}
}

func TestLoadPortalURLFromEnvironment(t *testing.T) {
	t.Setenv("PACKSHOT_PORTAL_URL", "https://portal.example.com/")

	path := writeConfig(t, "[logging]\nlevel = \"debug\"\n")
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Portal.BaseURL != "https://portal.example.com" {
		t.Fatalf("BaseURL = %q", cfg.Portal.BaseURL)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("Level = %q", cfg.Logging.Level)
	}
}

func TestLoadRejectsInvalidPortalURL(t *testing.T) {
	path := writeConfig(t, "[portal]\nbase_url = \"not a url\"\n")
	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "not a valid URL") {
		t.Fatalf("error = %v, want invalid URL", err)
	}
}

func TestLoadRejectsNonPositiveWorkflowValues(t *testing.T) {
	path := writeConfig(t, `
[portal]
base_url = "https://portal.example.com"

[workflow]
fetch_concurrency = -2
`)
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// Non-positive values normalize back to defaults rather than failing.
	if cfg.Workflow.FetchConcurrency != 4 {
		t.Fatalf("FetchConcurrency = %d, want default", cfg.Workflow.FetchConcurrency)
	}
}

func TestLoadMissingExplicitPathUsesDefaults(t *testing.T) {
	t.Setenv("PACKSHOT_PORTAL_URL", "https://portal.example.com")

	missing := filepath.Join(t.TempDir(), "nope.toml")
	cfg, resolved, exists, err := config.Load(missing)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("exists should be false for a missing file")
	}
	if resolved != missing {
		t.Fatalf("resolved = %q, want the requested path", resolved)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("Format = %q", cfg.Logging.Format)
	}
}

func TestLoggingFormatNormalizesUnknownValues(t *testing.T) {
	t.Setenv("PACKSHOT_PORTAL_URL", "https://portal.example.com")
	path := writeConfig(t, "[logging]\nformat = \"yaml\"\n")
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("Format = %q, want console fallback", cfg.Logging.Format)
	}
}

func TestCreateSampleParses(t *testing.T) {
	t.Setenv("PACKSHOT_PORTAL_URL", "https://portal.example.com")

	target := filepath.Join(t.TempDir(), "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, exists, err := config.Load(target); err != nil || !exists {
		t.Fatalf("Load sample: %v exists=%v", err, exists)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DownloadDir = filepath.Join(base, "downloads")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Resolver.CacheEnabled = true
	cfg.Resolver.CachePath = filepath.Join(base, "cache", "asin_cache.db")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DownloadDir, cfg.Paths.LogDir, filepath.Dir(cfg.Resolver.CachePath)} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("directory %s missing: %v", dir, err)
		}
	}
}
