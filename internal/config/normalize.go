package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizePortal(); err != nil {
		return err
	}
	if err := c.normalizeResolver(); err != nil {
		return err
	}
	c.normalizeRetailers()
	c.normalizeWorkflow()
	c.normalizeLogging()
	c.normalizeNotifications()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DownloadDir, err = expandPath(c.Paths.DownloadDir); err != nil {
		return fmt.Errorf("paths.download_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.InputDir) == "" {
		c.Paths.InputDir = defaultInputDir
	}
	if c.Paths.InputDir, err = expandPath(c.Paths.InputDir); err != nil {
		return fmt.Errorf("paths.input_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.SocketPath) == "" {
		c.Paths.SocketPath = defaultSocketPath
	}
	if c.Paths.SocketPath, err = expandPath(c.Paths.SocketPath); err != nil {
		return fmt.Errorf("paths.socket_path: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizePortal() error {
	c.Portal.BaseURL = strings.TrimRight(strings.TrimSpace(c.Portal.BaseURL), "/")
	if c.Portal.BaseURL == "" {
		if value, ok := os.LookupEnv("PACKSHOT_PORTAL_URL"); ok {
			c.Portal.BaseURL = strings.TrimRight(strings.TrimSpace(value), "/")
		}
	}
	if c.Portal.RequestTimeout <= 0 {
		c.Portal.RequestTimeout = defaultPortalTimeout
	}
	if c.Portal.RetryAttempts <= 0 {
		c.Portal.RetryAttempts = defaultPortalRetryAttempts
	}
	if c.Portal.RetryBackoff <= 0 {
		c.Portal.RetryBackoff = defaultPortalRetryBackoff
	}
	return nil
}

func (c *Config) normalizeResolver() error {
	var err error
	if strings.TrimSpace(c.Resolver.CachePath) == "" {
		c.Resolver.CachePath = defaultResolverCachePath
	}
	if c.Resolver.CachePath, err = expandPath(c.Resolver.CachePath); err != nil {
		return fmt.Errorf("resolver.cache_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeRetailers() {
	if len(c.Retailers) == 0 {
		return
	}
	normalized := make(Retailers, len(c.Retailers))
	for name, root := range c.Retailers {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		if expanded, err := expandPath(strings.TrimSpace(root)); err == nil {
			normalized[key] = expanded
		} else {
			normalized[key] = strings.TrimSpace(root)
		}
	}
	c.Retailers = normalized
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.FetchConcurrency <= 0 {
		c.Workflow.FetchConcurrency = defaultFetchConcurrency
	}
	if c.Workflow.EventBuffer <= 0 {
		c.Workflow.EventBuffer = defaultEventBuffer
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}
