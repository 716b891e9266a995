package ipc_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"packshot/internal/catalog"
	"packshot/internal/daemon"
	"packshot/internal/events"
	"packshot/internal/ipc"
	"packshot/internal/logging"
	"packshot/internal/resolve"
	"packshot/internal/retailer"
	"packshot/internal/runner"
	"packshot/internal/testsupport"
)

func startServer(t *testing.T) (*ipc.Client, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	registry, err := retailer.NewRegistry(retailer.FolderRoots{
		"instacart": filepath.Join(cfg.Paths.DownloadDir, "instacart"),
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	hub := events.NewHub(64)
	run := runner.New(cfg, registry, instacartSource(), resolve.Static{}, hub, nil, logging.NewNop())
	d, err := daemon.New(cfg, run, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	server, err := ipc.NewServer(ctx, cfg.Paths.SocketPath, d, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("ipc.NewServer: %v", err)
	}
	server.Serve()
	t.Cleanup(server.Close)

	client, err := ipc.Dial(cfg.Paths.SocketPath)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	sheet := filepath.Join(cfg.Paths.InputDir, "input.csv")
	if err := os.MkdirAll(cfg.Paths.InputDir, 0o755); err != nil {
		t.Fatalf("mkdir input: %v", err)
	}
	if err := os.WriteFile(sheet, []byte("BMN,GTIN\n10023456,068100084245\n"), 0o644); err != nil {
		t.Fatalf("write sheet: %v", err)
	}
	return client, sheet
}

func TestRunStartRoundTrip(t *testing.T) {
	client, sheet := startServer(t)

	resp, err := client.RunStart(sheet, []string{"instacart"})
	if err != nil {
		t.Fatalf("RunStart: %v", err)
	}
	if !resp.Started || resp.RunID == "" {
		t.Fatalf("RunStart resp = %+v", resp)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		status, err := client.Status()
		if err != nil {
			t.Fatalf("Status: %v", err)
		}
		if !status.Status.Run.Active {
			if status.Status.Run.State != runner.StateSucceeded {
				t.Fatalf("run state = %s", status.Status.Run.State)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("run did not finish in time")
		}
		time.Sleep(10 * time.Millisecond)
	}

	tail, err := client.EventTail(ipc.EventTailRequest{Since: 0, Limit: 64})
	if err != nil {
		t.Fatalf("EventTail: %v", err)
	}
	var sawDone bool
	for _, evt := range tail.Events {
		if evt.Kind == events.KindDone {
			sawDone = true
		}
	}
	if !sawDone {
		t.Fatalf("no done event in tail of %d events", len(tail.Events))
	}
}

func TestRunStartReportsErrorsInResponse(t *testing.T) {
	client, _ := startServer(t)

	resp, err := client.RunStart(filepath.Join(t.TempDir(), "missing.csv"), []string{"instacart"})
	if err != nil {
		t.Fatalf("RunStart transport error: %v", err)
	}
	if resp.Started || resp.Message == "" {
		t.Fatalf("resp = %+v, want failure message", resp)
	}
}

func TestRunStopAndNotification(t *testing.T) {
	client, _ := startServer(t)

	stop, err := client.RunStop()
	if err != nil {
		t.Fatalf("RunStop: %v", err)
	}
	if !stop.Stopping {
		t.Fatalf("RunStop resp = %+v", stop)
	}

	notify, err := client.TestNotification()
	if err != nil {
		t.Fatalf("TestNotification: %v", err)
	}
	if !notify.Sent {
		t.Fatalf("TestNotification resp = %+v", notify)
	}
}

func instacartSource() *testsupport.FakeSource {
	source := testsupport.NewFakeSource()
	source.Add("10023456",
		catalog.Asset{ID: "hero", Type: catalog.TypeMobileHero, State: catalog.StateCurrent, Languages: []string{"English"}},
		catalog.Asset{ID: "left", Type: catalog.TypeLeftFront, State: catalog.StateCurrent, Languages: []string{"English"}},
		catalog.Asset{ID: "right", Type: catalog.TypeRightFront, State: catalog.StateCurrent, Languages: []string{"English"}},
		catalog.Asset{ID: "ing", Type: catalog.TypeIngredient, State: catalog.StateCurrent, Languages: []string{"English"}},
		catalog.Asset{ID: "nfp", Type: catalog.TypeNutrition, State: catalog.StateCurrent, Languages: []string{"English"}},
	)
	return source
}
