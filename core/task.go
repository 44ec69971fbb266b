package core

import (
	"context"
	"runtime/debug"
	"sync/atomic"

	"github.com/google/uuid"
)

// Callable is the unit of work submitted to a pool.
//
// The ctx passed in is the executing worker's context: submitting with it
// from inside the callable routes the child task to the same worker's deque.
type Callable[R any] func(ctx context.Context) (R, error)

// TaskID identifies a task across logs, spans and execution history.
type TaskID uuid.UUID

// GenerateTaskID returns a new random TaskID.
func GenerateTaskID() TaskID {
	return TaskID(uuid.New())
}

func (id TaskID) String() string {
	return uuid.UUID(id).String()
}

func (id TaskID) IsZero() bool {
	return uuid.UUID(id) == uuid.Nil
}

// =============================================================================
// Task: type-erased, run-once unit of work
// =============================================================================

// Task owns a callable and the resolving end of its Future.
//
// Tasks travel by pointer between containers. The consumed flag makes
// execution and discard mutually exclusive and one-shot, so even an
// accidentally duplicated pointer cannot run twice.
type Task struct {
	id       TaskID
	name     string
	run      func(ctx context.Context) error
	discard  func(err error)
	consumed atomic.Bool
	panicked atomic.Bool
}

// NewTask wraps fn and returns the task together with its Future.
func NewTask[R any](name string, fn Callable[R]) (*Task, *Future[R]) {
	f := newFuture[R]()
	t := &Task{id: GenerateTaskID(), name: name}
	t.run = func(ctx context.Context) (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				t.panicked.Store(true)
				err = &PanicError{Value: rec, Stack: debug.Stack()}
				f.resolve(Result[R]{Err: err})
			}
		}()
		v, err := fn(ctx)
		f.resolve(Result[R]{Data: v, Err: err})
		return err
	}
	t.discard = func(err error) {
		f.resolve(Result[R]{Err: err})
	}
	return t, f
}

func (t *Task) ID() TaskID   { return t.id }
func (t *Task) Name() string { return t.name }

// Run executes the callable and resolves the Future. The returned error is
// the failure already delivered to the Future, or nil.
//
// Running a zero or already consumed Task means a task was popped twice or
// never built; that is a scheduler bug and Run panics instead of returning.
func (t *Task) Run(ctx context.Context) error {
	if t == nil || t.run == nil {
		panic(ErrEmptyTask)
	}
	if !t.consumed.CompareAndSwap(false, true) {
		panic(ErrTaskConsumed)
	}
	return t.run(ctx)
}

// Discard resolves the Future with err without running the callable.
// It reports false when the task was already consumed.
func (t *Task) Discard(err error) bool {
	if t == nil || t.discard == nil {
		return false
	}
	if !t.consumed.CompareAndSwap(false, true) {
		return false
	}
	t.discard(err)
	return true
}

// Panicked reports whether this task's own callable panicked. A *PanicError
// the callable merely returned, such as one forwarded from a child future,
// does not count.
func (t *Task) Panicked() bool {
	return t.panicked.Load()
}

// Consumed reports whether the task has been run or discarded.
func (t *Task) Consumed() bool {
	return t.consumed.Load()
}
