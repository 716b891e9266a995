package events_test

import (
	"context"
	"testing"
	"time"

	"packshot/internal/events"
)

func TestPublishAssignsSequence(t *testing.T) {
	hub := events.NewHub(8)
	hub.Publish(events.Event{Kind: events.KindLog, Log: &events.Log{Message: "one"}})
	hub.Publish(events.Event{Kind: events.KindLog, Log: &events.Log{Message: "two"}})

	got, next, err := hub.Fetch(context.Background(), 0, 10, false)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	if got[0].Seq != 1 || got[1].Seq != 2 {
		t.Fatalf("sequences = %d, %d", got[0].Seq, got[1].Seq)
	}
	if next != 2 {
		t.Fatalf("next = %d, want 2", next)
	}
	if got[0].Timestamp.IsZero() {
		t.Fatal("timestamp not assigned")
	}
}

func TestFetchResumesFromCursor(t *testing.T) {
	hub := events.NewHub(8)
	for i := 0; i < 5; i++ {
		hub.Publish(events.Event{Kind: events.KindProgress, Progress: &events.Progress{CompletedItems: i}})
	}

	got, _, err := hub.Fetch(context.Background(), 3, 10, false)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != 2 || got[0].Seq != 4 {
		t.Fatalf("got %d events starting at %d, want 2 starting at 4", len(got), got[0].Seq)
	}
}

func TestFetchHonorsLimit(t *testing.T) {
	hub := events.NewHub(16)
	for i := 0; i < 6; i++ {
		hub.Publish(events.Event{Kind: events.KindLog, Log: &events.Log{}})
	}
	got, _, err := hub.Fetch(context.Background(), 0, 2, false)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != 2 || got[1].Seq != 2 {
		t.Fatalf("got %d events, last seq %d", len(got), got[len(got)-1].Seq)
	}
}

func TestBufferEvictsOldest(t *testing.T) {
	hub := events.NewHub(3)
	for i := 0; i < 5; i++ {
		hub.Publish(events.Event{Kind: events.KindLog, Log: &events.Log{}})
	}

	got, _, err := hub.Fetch(context.Background(), 0, 10, false)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != 3 || got[0].Seq != 3 || got[2].Seq != 5 {
		t.Fatalf("buffer = %+v, want seqs 3..5", got)
	}
}

func TestFetchWaitWakesOnPublish(t *testing.T) {
	hub := events.NewHub(8)
	done := make(chan []events.Event, 1)
	go func() {
		got, _, _ := hub.Fetch(context.Background(), 0, 10, true)
		done <- got
	}()

	time.Sleep(20 * time.Millisecond)
	hub.Publish(events.Event{Kind: events.KindDone, Summary: &events.Summary{RunID: "r1"}})

	select {
	case got := <-done:
		if len(got) != 1 || got[0].Kind != events.KindDone {
			t.Fatalf("got %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Fetch did not wake on publish")
	}
}

func TestFetchWaitStopsOnContextCancel(t *testing.T) {
	hub := events.NewHub(8)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, _, err := hub.Fetch(ctx, 0, 10, true)
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected context error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Fetch did not observe cancellation")
	}
}

func TestTailReturnsNewest(t *testing.T) {
	hub := events.NewHub(8)
	for i := 0; i < 5; i++ {
		hub.Publish(events.Event{Kind: events.KindLog, Log: &events.Log{}})
	}

	got, next := hub.Tail(2)
	if len(got) != 2 || got[0].Seq != 4 || got[1].Seq != 5 {
		t.Fatalf("Tail = %+v", got)
	}
	if next != 5 {
		t.Fatalf("next = %d", next)
	}
}
