package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"log/slog"

	"github.com/gofrs/flock"

	"packshot/internal/config"
	"packshot/internal/events"
	"packshot/internal/logging"
	"packshot/internal/notifications"
	"packshot/internal/records"
	"packshot/internal/runner"
)

// Daemon coordinates the background service and enforces single-instance
// execution via a file lock.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	runner   *runner.Runner
	notifier notifications.Service
	api      *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool          `json:"running"`
	PID          int           `json:"pid"`
	LockFilePath string        `json:"lock_file_path"`
	Run          runner.Status `json:"run"`
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, run *runner.Runner, notifier notifications.Service, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || run == nil || logger == nil {
		return nil, errors.New("daemon requires config, runner, and logger")
	}
	if notifier == nil {
		notifier = notifications.Noop()
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "packshotd.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		runner:   run,
		notifier: notifier,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	api, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = api
	return d, nil
}

// Start acquires the daemon lock and brings up the HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another packshot daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if d.api != nil {
		if err := d.api.start(d.ctx); err != nil {
			_ = d.lock.Unlock()
			d.cancel()
			d.ctx = nil
			d.cancel = nil
			return err
		}
	}

	d.running.Store(true)
	d.logger.Info("packshot daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop cancels any active run, shuts down the API, and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.runner.Stop()
	d.runner.Wait()
	if d.api != nil {
		d.api.stop()
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("packshot daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	return nil
}

// Status reports daemon and run state.
func (d *Daemon) Status(context.Context) Status {
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		LockFilePath: d.lockPath,
		Run:          d.runner.Status(),
	}
}

// StartRun loads the input sheet at path and launches a run for the named
// retailers. Returns the run ID.
func (d *Daemon) StartRun(ctx context.Context, inputPath string, retailers []string) (string, error) {
	items, err := records.ReadCSV(inputPath)
	if err != nil {
		return "", err
	}
	runCtx := d.ctx
	if runCtx == nil {
		runCtx = ctx
	}
	return d.runner.Start(runCtx, items, retailers)
}

// StopRun requests cancellation of the active run.
func (d *Daemon) StopRun() {
	d.runner.Stop()
}

// Events exposes the run event hub.
func (d *Daemon) Events() *events.Hub {
	return d.runner.Hub()
}

// TestNotification sends a test push through the configured notifier.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, err.Error(), err
	}
	return true, "notification sent", nil
}
