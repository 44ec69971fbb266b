package core

import (
	"errors"
	"fmt"
)

var (
	// ErrPoolShutdown resolves the future of a task that was still queued when
	// the pool stopped. The task body never ran.
	ErrPoolShutdown = errors.New("pool shut down before execution")

	// ErrPoolClosed resolves the future of a task submitted after Close began.
	ErrPoolClosed = errors.New("pool is closed")

	// ErrNilCallable resolves the future of a nil callable submission.
	ErrNilCallable = errors.New("nil callable")

	// ErrWorkerStart wraps any failure that aborted pool construction.
	ErrWorkerStart = errors.New("worker start failed")

	// ErrAffinityUnsupported is returned when worker pinning is requested on a
	// platform without sched_setaffinity.
	ErrAffinityUnsupported = errors.New("cpu affinity not supported on this platform")

	// ErrTaskConsumed is the panic value for running a task twice.
	ErrTaskConsumed = errors.New("task already consumed")

	// ErrEmptyTask is the panic value for running a zero Task.
	ErrEmptyTask = errors.New("task holds no callable")
)

// PanicError carries a value recovered from a panicking task body.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Value)
}

// Unwrap exposes the panic value when it is itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
