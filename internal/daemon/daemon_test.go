package daemon_test

import (
	"context"
	"testing"

	"packshot/internal/config"
	"packshot/internal/daemon"
	"packshot/internal/events"
	"packshot/internal/logging"
	"packshot/internal/retailer"
	"packshot/internal/runner"
	"packshot/internal/testsupport"
)

func newDaemon(t *testing.T, cfg *config.Config) *daemon.Daemon {
	t.Helper()
	registry, err := retailer.NewRegistry(nil)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	run := runner.New(cfg, registry, testsupport.NewFakeSource(), nil, events.NewHub(16), nil, logging.NewNop())
	d, err := daemon.New(cfg, run, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestDaemonSingleInstanceLock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	first := newDaemon(t, cfg)
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("first Start: %v", err)
	}

	second := newDaemon(t, cfg)
	if err := second.Start(context.Background()); err == nil {
		t.Fatal("second daemon should fail to acquire the lock")
	}

	first.Stop()
	if err := second.Start(context.Background()); err != nil {
		t.Fatalf("Start after release: %v", err)
	}
}

func TestDaemonStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	d := newDaemon(t, cfg)

	status := d.Status(context.Background())
	if status.Running {
		t.Fatal("daemon should not report running before Start")
	}

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	status = d.Status(context.Background())
	if !status.Running || status.PID == 0 || status.LockFilePath == "" {
		t.Fatalf("Status = %+v", status)
	}
	if status.Run.State != runner.StatePending {
		t.Fatalf("Run.State = %s, want pending before any run", status.Run.State)
	}
}
