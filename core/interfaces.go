package core

import (
	"context"
	"time"
)

// =============================================================================
// PanicHandler: Interface for handling task panics
// =============================================================================

// PanicHandler is called when a task panics during execution. The panic has
// already been converted into a *PanicError on the task's Future; the
// handler is for reporting only.
//
// Implementations should be thread-safe as they may be called concurrently.
type PanicHandler interface {
	// HandlePanic is called when a task panics.
	//
	// Parameters:
	// - ctx: The executing worker's context
	// - poolID: The ID of the pool where the panic occurred
	// - workerID: The worker index (-1 for a helper goroutine)
	// - panicInfo: The panic value recovered from the task
	// - stackTrace: The stack trace at the time of panic
	HandlePanic(ctx context.Context, poolID string, workerID int, panicInfo any, stackTrace []byte)
}

// LoggingPanicHandler reports panics through a Logger.
type LoggingPanicHandler struct {
	Logger Logger
}

// HandlePanic logs the panic with its stack at error level.
func (h *LoggingPanicHandler) HandlePanic(ctx context.Context, poolID string, workerID int, panicInfo any, stackTrace []byte) {
	logger := h.Logger
	if logger == nil {
		logger = NewZapLogger(nil)
	}
	logger.Error("task panicked",
		F("pool", poolID),
		F("worker", workerID),
		F("panic", panicInfo),
		F("stack", string(stackTrace)),
	)
}

// =============================================================================
// Metrics: Interface for observability and monitoring
// =============================================================================

// Metrics defines the interface for collecting task execution metrics.
// Methods should be non-blocking and fast; they run on the worker goroutine.
type Metrics interface {
	// RecordTaskDuration records how long a task body ran and where the
	// worker found it.
	RecordTaskDuration(poolID string, source TaskSource, duration time.Duration)

	// RecordTaskPanic records that a task panicked during execution.
	RecordTaskPanic(poolID string, panicInfo any)

	// RecordQueueDepth records the number of tasks waiting in the pool.
	RecordQueueDepth(poolID string, depth int)

	// RecordTaskRejected records a submission refused by the pool.
	RecordTaskRejected(poolID string, reason string)

	// RecordTasksDiscarded records queued tasks dropped during shutdown.
	RecordTasksDiscarded(poolID string, count int)
}

// NilMetrics provides a no-op metrics implementation that does nothing.
// This is the default when no metrics interface is provided.
type NilMetrics struct{}

func (m *NilMetrics) RecordTaskDuration(poolID string, source TaskSource, duration time.Duration) {
}
func (m *NilMetrics) RecordTaskPanic(poolID string, panicInfo any)    {}
func (m *NilMetrics) RecordQueueDepth(poolID string, depth int)       {}
func (m *NilMetrics) RecordTaskRejected(poolID string, reason string) {}
func (m *NilMetrics) RecordTasksDiscarded(poolID string, count int)   {}
