package ipc

import (
	"packshot/internal/daemon"
	"packshot/internal/events"
)

// RunStartRequest launches a retrieval run from an input spreadsheet.
type RunStartRequest struct {
	InputPath string   `json:"input_path"`
	Retailers []string `json:"retailers"`
}

// RunStartResponse carries the new run's identifier.
type RunStartResponse struct {
	Started bool   `json:"started"`
	RunID   string `json:"run_id"`
	Message string `json:"message"`
}

// RunStopRequest cancels the active run.
type RunStopRequest struct{}

// RunStopResponse indicates stop result.
type RunStopResponse struct {
	Stopping bool `json:"stopping"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse mirrors the daemon status payload.
type StatusResponse struct {
	Status daemon.Status `json:"status"`
}

// EventTailRequest fetches run events past a sequence cursor. WaitMillis
// bounds the long-poll when Follow is set.
type EventTailRequest struct {
	Since      uint64 `json:"since"`
	Limit      int    `json:"limit"`
	Follow     bool   `json:"follow"`
	WaitMillis int    `json:"wait_millis"`
}

// EventTailResponse returns buffered events and the next cursor.
type EventTailResponse struct {
	Events []events.Event `json:"events"`
	Next   uint64         `json:"next"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports the test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

// ShutdownRequest asks the daemon process to exit.
type ShutdownRequest struct{}

// ShutdownResponse acknowledges the shutdown request.
type ShutdownResponse struct {
	ShuttingDown bool `json:"shutting_down"`
}
