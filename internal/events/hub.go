// Package events is the in-memory run event stream: a bounded buffer of
// progress, item, log, and completion events with long-poll semantics for
// CLI and API consumers.
package events

import (
	"context"
	"sync"
	"time"
)

// Event kinds published during a run.
const (
	KindProgress = "progress"
	KindItem     = "item"
	KindLog      = "log"
	KindDone     = "done"
)

// Progress is the run-level counter snapshot.
type Progress struct {
	Stage          string `json:"stage"`
	TotalItems     int    `json:"total_items"`
	CompletedItems int    `json:"completed_items"`
	FilesWritten   int    `json:"files_written"`
	FilesSkipped   int    `json:"files_skipped"`
	Failures       int    `json:"failures"`
}

// Item reports the outcome of one identifier under one retailer.
type Item struct {
	Identifier string   `json:"identifier"`
	Retailer   string   `json:"retailer"`
	Status     string   `json:"status"`
	Files      []string `json:"files,omitempty"`
	Detail     string   `json:"detail,omitempty"`
}

// Log carries a human-readable run log line.
type Log struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Summary is the terminal event payload.
type Summary struct {
	RunID          string   `json:"run_id"`
	Status         string   `json:"status"`
	TotalItems     int      `json:"total_items"`
	FilesWritten   int      `json:"files_written"`
	FilesSkipped   int      `json:"files_skipped"`
	Failed         []string `json:"failed,omitempty"`
	Restricted     []string `json:"restricted,omitempty"`
	DuplicateRows  []string `json:"duplicate_rows,omitempty"`
	ElapsedSeconds float64  `json:"elapsed_seconds"`
}

// Event is one entry in the run stream. Exactly one payload pointer is set,
// matching Kind.
type Event struct {
	Seq       uint64    `json:"seq"`
	Timestamp time.Time `json:"ts"`
	Kind      string    `json:"kind"`
	RunID     string    `json:"run_id,omitempty"`
	Progress  *Progress `json:"progress,omitempty"`
	Item      *Item     `json:"item,omitempty"`
	Log       *Log      `json:"log,omitempty"`
	Summary   *Summary  `json:"summary,omitempty"`
}

// Hub stores recent run events and wakes waiters when new events arrive.
type Hub struct {
	mu       sync.Mutex
	cond     *sync.Cond
	capacity int
	buffer   []Event
	nextSeq  uint64
}

// NewHub constructs a bounded in-memory event fan-out buffer.
func NewHub(capacity int) *Hub {
	if capacity <= 0 {
		capacity = 1024
	}
	h := &Hub{capacity: capacity}
	h.cond = sync.NewCond(&h.mu)
	return h
}

// Publish appends an event, assigning its sequence number and timestamp.
func (h *Hub) Publish(evt Event) {
	if h == nil {
		return
	}
	h.mu.Lock()
	h.nextSeq++
	evt.Seq = h.nextSeq
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	if len(h.buffer) == h.capacity {
		copy(h.buffer, h.buffer[1:])
		h.buffer = h.buffer[:h.capacity-1]
	}
	h.buffer = append(h.buffer, evt)
	h.cond.Broadcast()
	h.mu.Unlock()
}

// Fetch returns events with sequence greater than since, up to limit. When
// wait is true and nothing is buffered past since, Fetch blocks until an
// event arrives or the context ends.
func (h *Hub) Fetch(ctx context.Context, since uint64, limit int, wait bool) ([]Event, uint64, error) {
	if h == nil {
		return nil, since, nil
	}
	if limit <= 0 || limit > h.capacity {
		limit = h.capacity
	}

	cancelWait := make(chan struct{})
	if wait && ctx != nil && ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				h.cond.Broadcast()
			case <-cancelWait:
			}
		}()
	}
	defer close(cancelWait)

	h.mu.Lock()
	defer h.mu.Unlock()

	for {
		events, next := h.snapshotLocked(since, limit)
		if len(events) > 0 || !wait {
			return events, next, contextError(ctx)
		}
		if err := contextError(ctx); err != nil {
			return nil, next, err
		}
		h.cond.Wait()
		if err := contextError(ctx); err != nil {
			return nil, next, err
		}
	}
}

// Tail returns the most recent limit events without blocking.
func (h *Hub) Tail(limit int) ([]Event, uint64) {
	if h == nil {
		return nil, 0
	}
	if limit <= 0 || limit > h.capacity {
		limit = h.capacity
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.buffer) == 0 {
		return nil, h.nextSeq
	}
	start := len(h.buffer) - limit
	if start < 0 {
		start = 0
	}
	out := make([]Event, len(h.buffer)-start)
	copy(out, h.buffer[start:])
	return out, h.nextSeq
}

func (h *Hub) snapshotLocked(since uint64, limit int) ([]Event, uint64) {
	if len(h.buffer) == 0 {
		return nil, h.nextSeq
	}
	startIdx := 0
	for i, evt := range h.buffer {
		if evt.Seq > since {
			startIdx = i
			break
		}
		if i == len(h.buffer)-1 {
			return nil, h.nextSeq
		}
	}
	end := startIdx + limit
	if end > len(h.buffer) {
		end = len(h.buffer)
	}
	out := make([]Event, end-startIdx)
	copy(out, h.buffer[startIdx:end])
	return out, h.nextSeq
}

func contextError(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}
