package taskpool

import (
	"context"

	"github.com/Swind/go-task-pool/core"
)

// Re-export commonly used types from core package for convenience.
// This allows users to import only the taskpool package for most use cases.

// Callable is the unit of work submitted to a pool
type Callable[R any] = core.Callable[R]

// Future is the result handle returned by Submit
type Future[T any] = core.Future[T]

// Result is what a Future resolves to
type Result[T any] = core.Result[T]

// Mode selects work-stealing or shared-queue scheduling
type Mode = core.Mode

// PanicError is the failure delivered for a panicking task
type PanicError = core.PanicError

// Mode constants
const (
	ModeStealing = core.ModeStealing
	ModeShared   = core.ModeShared
)

// Errors a Future may resolve with, re-exported for errors.Is
var (
	ErrPoolShutdown = core.ErrPoolShutdown
	ErrPoolClosed   = core.ErrPoolClosed
	ErrNilCallable  = core.ErrNilCallable
	ErrWorkerStart  = core.ErrWorkerStart
)

// CurrentWorker returns the index of the pool worker running the task that
// owns ctx.
func CurrentWorker(ctx context.Context) (int, bool) {
	wc := core.WorkerFromContext(ctx)
	if wc == nil {
		return -1, false
	}
	return wc.Index, true
}
