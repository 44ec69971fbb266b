package core

import (
	"context"
	"fmt"
)

// Mode selects the scheduling policy of a pool.
type Mode string

const (
	// ModeStealing gives every worker a local deque and lets idle workers
	// steal from each other.
	ModeStealing Mode = "stealing"

	// ModeShared routes every task through the single global queue.
	ModeShared Mode = "shared"
)

// ParseMode validates a mode name from configuration.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeStealing, ModeShared:
		return Mode(s), nil
	case "":
		return ModeStealing, nil
	default:
		return "", fmt.Errorf("unknown pool mode %q", s)
	}
}

// TaskSource records where a worker found the task it is about to run.
type TaskSource int

const (
	SourceLocal TaskSource = iota
	SourceGlobal
	SourceStolen
)

func (s TaskSource) String() string {
	switch s {
	case SourceLocal:
		return "local"
	case SourceGlobal:
		return "global"
	case SourceStolen:
		return "stolen"
	default:
		return "unknown"
	}
}

// =============================================================================
// WorkerContext: explicit "which worker am I" handle
// =============================================================================

// WorkerContext identifies a worker of a specific pool. It is created once
// when the worker starts and is read-only afterwards.
type WorkerContext struct {
	Index int
	owner any
}

func NewWorkerContext(owner any, index int) *WorkerContext {
	return &WorkerContext{Index: index, owner: owner}
}

// Owns reports whether the worker belongs to owner.
func (w *WorkerContext) Owns(owner any) bool {
	return w != nil && w.owner == owner
}

type workerKeyType struct{}

var workerKey workerKeyType

// WithWorker returns a context that carries w.
func WithWorker(ctx context.Context, w *WorkerContext) context.Context {
	return context.WithValue(ctx, workerKey, w)
}

// WorkerFromContext returns the worker carried by ctx, or nil.
func WorkerFromContext(ctx context.Context) *WorkerContext {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(workerKey).(*WorkerContext); ok {
		return v
	}
	return nil
}

// =============================================================================
// Scheduler: where tasks wait and how workers find them
// =============================================================================

// Scheduler owns the queues of a pool. It does not own goroutines: the pool
// starts and joins workers and only calls Drain once every worker is gone.
type Scheduler interface {
	// Post enqueues t. w is the submitting worker of this pool, or nil for
	// an external submitter.
	Post(w *WorkerContext, t *Task)

	// Next finds a task for w without blocking. w may be nil for a helper
	// goroutine that is not a worker.
	Next(w *WorkerContext) (*Task, TaskSource, bool)

	// Drain removes every queued task. Callers must have joined all workers.
	Drain() []*Task

	Queued() int
	Workers() int
	Mode() Mode

	// DequeDepths reports each worker's local backlog; nil without deques.
	DequeDepths() []int
}

// NewScheduler builds the scheduler for mode with one slot per worker.
func NewScheduler(mode Mode, workers int) (Scheduler, error) {
	if workers < 1 {
		return nil, fmt.Errorf("worker count must be positive, got %d", workers)
	}
	switch mode {
	case ModeStealing, "":
		return NewStealingScheduler(workers), nil
	case ModeShared:
		return NewSharedScheduler(workers), nil
	default:
		return nil, fmt.Errorf("unknown pool mode %q", mode)
	}
}
