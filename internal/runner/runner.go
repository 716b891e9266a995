// Package runner coordinates a retrieval run end to end: input normalization,
// ASIN resolution, portal fetch, asset selection, and fan-out writes, with
// live progress published to the event hub. One run owns the process at a
// time; starting a second run while one is active fails fast.
package runner

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"packshot/internal/catalog"
	"packshot/internal/config"
	"packshot/internal/events"
	"packshot/internal/logging"
	"packshot/internal/notifications"
	"packshot/internal/records"
	"packshot/internal/resolve"
	"packshot/internal/retailer"
	"packshot/internal/services"
)

// State names the run lifecycle phases.
type State string

const (
	StatePending        State = "pending"
	StateResolving      State = "resolving"
	StateFetching       State = "fetching"
	StateSelecting      State = "selecting"
	StateWriting        State = "writing"
	StateSucceeded      State = "succeeded"
	StatePartialFailure State = "partial_failure"
	StateFailed         State = "failed"
	StateCancelled      State = "cancelled"
)

// Terminal reports whether the state ends a run.
func (s State) Terminal() bool {
	switch s {
	case StateSucceeded, StatePartialFailure, StateFailed, StateCancelled:
		return true
	default:
		return false
	}
}

// Status is a point-in-time snapshot of the current or most recent run.
type Status struct {
	RunID      string          `json:"run_id"`
	State      State           `json:"state"`
	Active     bool            `json:"active"`
	Progress   events.Progress `json:"progress"`
	StartedAt  time.Time       `json:"started_at,omitempty"`
	FinishedAt time.Time       `json:"finished_at,omitempty"`
	Summary    *events.Summary `json:"summary,omitempty"`
}

// Runner owns run execution. All dependencies are injected so tests can run
// against fake sources and resolvers.
type Runner struct {
	cfg      *config.Config
	registry *retailer.Registry
	source   catalog.Source
	resolver resolve.Resolver
	hub      *events.Hub
	notifier notifications.Service
	logger   *slog.Logger

	mu     sync.Mutex
	status Status
	cancel context.CancelFunc
	done   chan struct{}
}

// New builds a runner. Resolver and notifier may be nil; a nil resolver
// disables ASIN-keyed retailers and a nil notifier becomes a no-op.
func New(cfg *config.Config, registry *retailer.Registry, source catalog.Source, resolver resolve.Resolver, hub *events.Hub, notifier notifications.Service, logger *slog.Logger) *Runner {
	if hub == nil {
		hub = events.NewHub(0)
	}
	if notifier == nil {
		notifier = notifications.Noop()
	}
	return &Runner{
		cfg:      cfg,
		registry: registry,
		source:   source,
		resolver: resolver,
		hub:      hub,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "runner"),
		status:   Status{State: StatePending},
	}
}

// Hub exposes the event stream for API and CLI consumers.
func (r *Runner) Hub() *events.Hub { return r.hub }

// Start launches a run over items for the named retailers and returns its run
// ID. Exactly one run may be active per process; a second Start returns
// ErrRunActive. The run executes on its own goroutine; callers observe it
// through Status, the event hub, or Wait.
func (r *Runner) Start(ctx context.Context, items []records.Item, retailers []string) (string, error) {
	policies, err := r.registry.PoliciesFor(retailers)
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return "", services.Wrap(services.ErrMissingField, "runner", "start", "no input items", nil)
	}

	normalized, rejects, duplicates := records.Normalize(items, policies)
	if len(normalized) == 0 && len(rejects) == 0 {
		return "", services.Wrap(services.ErrMissingField, "runner", "start", "no usable rows after deduplication", nil)
	}

	r.mu.Lock()
	if r.status.Active {
		r.mu.Unlock()
		return "", services.Wrap(services.ErrRunActive, "runner", "start", "a run is already active", nil)
	}
	runID := uuid.NewString()
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	r.status = Status{
		RunID:     runID,
		State:     StateResolving,
		Active:    true,
		StartedAt: time.Now().UTC(),
		Progress:  events.Progress{Stage: string(StateResolving), TotalItems: (len(normalized) + len(rejects)) * len(policies)},
	}
	r.cancel = cancel
	r.done = done
	r.mu.Unlock()

	go func() {
		defer cancel()
		defer close(done)
		r.execute(runCtx, runID, normalized, rejects, duplicates, policies)
	}()
	return runID, nil
}

// Stop requests cooperative cancellation of the active run. Cancellation is
// observed between rows: the row in flight completes its fetches and writes,
// and no further rows are dispatched. Stop on an idle runner is a no-op.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	active := r.status.Active
	r.mu.Unlock()
	if active && cancel != nil {
		r.logger.Info("stop requested")
		cancel()
	}
}

// Wait blocks until the active run finishes. Returns immediately when no run
// is active.
func (r *Runner) Wait() {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Status returns a snapshot of the current or most recent run.
func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *Runner) setState(state State) {
	r.mu.Lock()
	r.status.State = state
	r.status.Progress.Stage = string(state)
	r.mu.Unlock()
}

func (r *Runner) updateProgress(update func(*events.Progress)) events.Progress {
	r.mu.Lock()
	update(&r.status.Progress)
	progress := r.status.Progress
	r.mu.Unlock()
	return progress
}

func (r *Runner) finish(runID string, state State, summary *events.Summary) {
	r.mu.Lock()
	r.status.State = state
	r.status.Active = false
	r.status.FinishedAt = time.Now().UTC()
	r.status.Summary = summary
	r.cancel = nil
	r.mu.Unlock()

	r.hub.Publish(events.Event{Kind: events.KindDone, RunID: runID, Summary: summary})
}

func (r *Runner) publishLog(runID, level, message string) {
	r.hub.Publish(events.Event{
		Kind:  events.KindLog,
		RunID: runID,
		Log:   &events.Log{Level: level, Message: message},
	})
}

func (r *Runner) publishProgress(runID string, progress events.Progress) {
	r.hub.Publish(events.Event{Kind: events.KindProgress, RunID: runID, Progress: &progress})
}
