// Package api provides the REST API server for the sync service.
package api

import (
	"github.com/godlockin/moontv-sync/internal/source"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string `json:"status" example:"healthy"`
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// SyncResponse is returned by a successful sync trigger.
type SyncResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Stats   source.Stats `json:"stats"`
}

// SyncStatusResponse reports the coordinator state. LastRun is epoch
// milliseconds, zero when no run has completed yet.
type SyncStatusResponse struct {
	IsRunning  bool                        `json:"isRunning"`
	LastRun    int64                       `json:"lastRun,omitempty"`
	LastResult *source.OrchestrationResult `json:"lastResult,omitempty"`
}
