package config

const (
	defaultDownloadDir          = "~/packshot/downloads"
	defaultLogDir               = "~/.local/share/packshot/logs"
	defaultInputDir             = "~/packshot/input"
	defaultAPIBind              = "127.0.0.1:7823"
	defaultSocketPath           = "~/.local/share/packshot/packshot.sock"
	defaultPortalTimeout        = 30
	defaultPortalRetryAttempts  = 3
	defaultPortalRetryBackoff   = 2
	defaultResolverCachePath    = "~/.cache/packshot/asin_cache.db"
	defaultFetchConcurrency     = 4
	defaultEventBuffer          = 1024
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultNotifyRequestTimeout = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DownloadDir: defaultDownloadDir,
			LogDir:      defaultLogDir,
			InputDir:    defaultInputDir,
			APIBind:     defaultAPIBind,
			SocketPath:  defaultSocketPath,
		},
		Portal: Portal{
			RequestTimeout: defaultPortalTimeout,
			RetryAttempts:  defaultPortalRetryAttempts,
			RetryBackoff:   defaultPortalRetryBackoff,
		},
		Resolver: Resolver{
			CacheEnabled: true,
			CachePath:    defaultResolverCachePath,
		},
		Workflow: Workflow{
			FetchConcurrency: defaultFetchConcurrency,
			EventBuffer:      defaultEventBuffer,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			RunStarted:     true,
			RunCompleted:   true,
			Errors:         true,
		},
	}
}
