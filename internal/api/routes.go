package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/godlockin/moontv-sync/internal/orchestrator"
	"github.com/godlockin/moontv-sync/internal/store"
	"github.com/godlockin/moontv-sync/internal/versions"
)

type routes struct {
	coordinator SyncCoordinator
	store       SourceStore
}

func newRoutes(coordinator SyncCoordinator, sourceStore SourceStore) *routes {
	return &routes{coordinator: coordinator, store: sourceStore}
}

// triggerSync handles POST /api/admin/sync. At most one run executes at a
// time; a concurrent trigger gets a conflict, a failed run an internal
// error with detail. On success the discovered sources are merged into the
// admin configuration best-effort.
func (rr *routes) triggerSync(w http.ResponseWriter, r *http.Request) {
	result, err := rr.coordinator.Trigger(r.Context())
	if errors.Is(err, orchestrator.ErrSyncInProgress) {
		writeErrorResponse(w, http.StatusConflict, "Sync is already running", "")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "sync run failed", "error", err)
		writeErrorResponse(w, http.StatusInternalServerError, "Sync failed", err.Error())
		return
	}

	if result.SnapshotErr != nil {
		slog.WarnContext(r.Context(), "snapshot not persisted", "error", result.SnapshotErr)
	}

	if rr.store != nil {
		added, err := rr.store.MergeSources(r.Context(), result.Sources)
		if err != nil {
			slog.WarnContext(r.Context(), "merging sources into admin config failed", "error", err)
		} else if added > 0 {
			slog.InfoContext(r.Context(), "admin config updated", "added", added)
		}
	}

	writeJSONResponse(w, http.StatusOK, SyncResponse{
		Success: true,
		Message: fmt.Sprintf("Sync completed: %d sources found", result.Stats.Total),
		Stats:   result.Stats,
	})
}

// syncStatus handles GET /api/admin/sync.
func (rr *routes) syncStatus(w http.ResponseWriter, _ *http.Request) {
	status := rr.coordinator.Status()

	resp := SyncStatusResponse{
		IsRunning:  status.IsRunning,
		LastResult: status.LastResult,
	}
	if !status.LastRun.IsZero() {
		resp.LastRun = status.LastRun.UnixMilli()
	}
	writeJSONResponse(w, http.StatusOK, resp)
}

// listSources handles GET /api/admin/sources.
func (rr *routes) listSources(w http.ResponseWriter, r *http.Request) {
	entries, err := rr.store.ListSources(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "listing sources failed", "error", err)
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to list sources", err.Error())
		return
	}
	if entries == nil {
		entries = []store.SourceEntry{}
	}
	writeJSONResponse(w, http.StatusOK, entries)
}

func (*routes) health(w http.ResponseWriter, _ *http.Request) {
	writeJSONResponse(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

func (*routes) version(w http.ResponseWriter, _ *http.Request) {
	writeJSONResponse(w, http.StatusOK, versions.GetVersionInfo())
}

func writeJSONResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response failed", "error", err)
	}
}

func writeErrorResponse(w http.ResponseWriter, status int, message, detail string) {
	writeJSONResponse(w, status, ErrorResponse{Error: message, Detail: detail})
}

func requestLog(ctx context.Context, method, path string, status int, elapsed time.Duration) {
	slog.DebugContext(ctx, "http request",
		"method", method, "path", path, "status", status, "elapsed", elapsed)
}
