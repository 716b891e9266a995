package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePortal(); err != nil {
		return err
	}
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePortal() error {
	if c.Portal.BaseURL == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/packshot/config.toml"
		}
		return fmt.Errorf("portal.base_url is required. Set PACKSHOT_PORTAL_URL env var or edit %s (create with 'packshot config init')", defaultPath)
	}
	parsed, err := url.Parse(c.Portal.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("portal.base_url %q is not a valid URL", c.Portal.BaseURL)
	}
	if err := ensurePositiveMap(map[string]int{
		"portal.request_timeout": c.Portal.RequestTimeout,
		"portal.retry_attempts":  c.Portal.RetryAttempts,
		"portal.retry_backoff":   c.Portal.RetryBackoff,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DownloadDir) == "" {
		return errors.New("paths.download_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	return ensurePositiveMap(map[string]int{
		"workflow.fetch_concurrency":    c.Workflow.FetchConcurrency,
		"workflow.event_buffer":         c.Workflow.EventBuffer,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	})
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
