// Package daemonrun wires the daemon process together: logging, stores,
// runner, IPC, and signal handling. Both cmd/packshotd and the CLI's daemon
// start path call into Run.
package daemonrun

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"packshot/internal/catalog"
	"packshot/internal/config"
	"packshot/internal/daemon"
	"packshot/internal/events"
	"packshot/internal/idcache"
	"packshot/internal/ipc"
	"packshot/internal/logging"
	"packshot/internal/notifications"
	"packshot/internal/resolve"
	"packshot/internal/retailer"
	"packshot/internal/runner"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
}

// Run starts the packshot daemon runtime loop and blocks until the process
// receives SIGINT or SIGTERM or an IPC shutdown request.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("packshot-%s.log", time.Now().UTC().Format("20060102T150405Z")))
	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logPath},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	pidPath := filepath.Join(cfg.Paths.LogDir, "packshot.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	source, err := catalog.NewClient(catalog.ClientOptions{
		BaseURL:       cfg.Portal.BaseURL,
		Timeout:       time.Duration(cfg.Portal.RequestTimeout) * time.Second,
		RetryAttempts: cfg.Portal.RetryAttempts,
		RetryBackoff:  time.Duration(cfg.Portal.RetryBackoff) * time.Second,
	}, logger)
	if err != nil {
		return err
	}

	var cache *idcache.Cache
	if cfg.Resolver.CacheEnabled {
		cache, err = idcache.Open(cfg.Resolver.CachePath)
		if err != nil {
			logger.Warn("asin cache unavailable; resolving without cache", logging.Error(err))
			cache = nil
		} else {
			defer cache.Close()
		}
	}
	resolver, err := resolve.New(resolve.Options{
		BaseURL:       cfg.Portal.BaseURL,
		Timeout:       time.Duration(cfg.Portal.RequestTimeout) * time.Second,
		RetryAttempts: cfg.Portal.RetryAttempts,
		RetryBackoff:  time.Duration(cfg.Portal.RetryBackoff) * time.Second,
		Cache:         cache,
	}, logger)
	if err != nil {
		return err
	}

	registry, err := retailer.NewRegistry(retailerRoots(cfg))
	if err != nil {
		return err
	}

	notifier := notifications.NewService(cfg)
	hub := events.NewHub(cfg.Workflow.EventBuffer)
	run := runner.New(cfg, registry, source, resolver, hub, notifier, logger)

	d, err := daemon.New(cfg, run, notifier, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(signalCtx, cfg.Paths.SocketPath, d, cancel, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		return err
	}

	<-signalCtx.Done()
	logger.Info("packshot daemon shutting down")
	return nil
}

// retailerRoots maps configured folder overrides plus the default download
// directory onto the registry's per-retailer roots.
func retailerRoots(cfg *config.Config) retailer.FolderRoots {
	roots := make(retailer.FolderRoots)
	for name, root := range cfg.Retailers {
		roots[name] = root
	}
	for _, name := range []string{"amazon", "sobeys", "instacart"} {
		if _, ok := roots[name]; !ok {
			roots[name] = filepath.Join(cfg.Paths.DownloadDir, name)
		}
	}
	return roots
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
