package orchestrator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/godlockin/moontv-sync/internal/source"
	"github.com/godlockin/moontv-sync/internal/telemetry"
)

// ErrSyncInProgress is returned when a run is triggered while another run
// holds the coordinator.
var ErrSyncInProgress = errors.New("sync is already running")

// Runner executes one sync run.
type Runner interface {
	Run(ctx context.Context) (source.OrchestrationResult, error)
}

// Coordinator serializes sync runs: at most one run executes at a time and
// the most recent outcome is kept for status reporting.
type Coordinator struct {
	runner  Runner
	metrics *telemetry.Metrics

	running atomic.Bool

	mu         sync.Mutex
	lastRun    time.Time
	lastResult *source.OrchestrationResult
}

// Status is a point-in-time view of the coordinator.
type Status struct {
	IsRunning  bool
	LastRun    time.Time
	LastResult *source.OrchestrationResult
}

// NewCoordinator wraps a runner. Metrics may be nil.
func NewCoordinator(runner Runner, metrics *telemetry.Metrics) *Coordinator {
	return &Coordinator{runner: runner, metrics: metrics}
}

// Trigger starts a run unless one is already in flight, in which case it
// returns ErrSyncInProgress without touching the last-run state. The flag is
// cleared on every exit path, including run failure.
func (c *Coordinator) Trigger(ctx context.Context) (source.OrchestrationResult, error) {
	if !c.running.CompareAndSwap(false, true) {
		c.count(telemetry.RunConflict)
		return source.OrchestrationResult{}, ErrSyncInProgress
	}
	defer c.running.Store(false)

	result, err := c.runner.Run(ctx)

	c.mu.Lock()
	c.lastRun = time.Now()
	if err == nil {
		r := result
		c.lastResult = &r
	}
	c.mu.Unlock()

	if err != nil {
		c.count(telemetry.RunFailure)
		return result, err
	}
	c.count(telemetry.RunSuccess)
	return result, nil
}

// Status reports whether a run is in flight and the last completed outcome.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		IsRunning:  c.running.Load(),
		LastRun:    c.lastRun,
		LastResult: c.lastResult,
	}
}

func (c *Coordinator) count(result string) {
	if c.metrics != nil {
		c.metrics.SyncRuns.WithLabelValues(result).Inc()
	}
}
