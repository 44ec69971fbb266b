package core

import (
	"context"
	"sync"
)

// Result is the outcome delivered to a Future: either Data or Err.
type Result[T any] struct {
	Data T
	Err  error
}

// Future is the read side of a task's one-shot result channel.
//
// A Future resolves exactly once: with the callable's value, with its
// failure, or with ErrPoolShutdown when the task was discarded unexecuted.
type Future[T any] struct {
	done   chan struct{}
	once   sync.Once
	result Result[T]
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// NewResolvedFuture returns a Future that is already resolved with err.
func NewResolvedFuture[T any](err error) *Future[T] {
	f := newFuture[T]()
	f.resolve(Result[T]{Err: err})
	return f
}

func (f *Future[T]) resolve(r Result[T]) bool {
	resolved := false
	f.once.Do(func() {
		f.result = r
		close(f.done)
		resolved = true
	})
	return resolved
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Get waits for the result. A done ctx stops the wait and returns ctx.Err();
// the task itself keeps its place in the pool.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.result.Data, f.result.Err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Wait blocks until the result is available.
func (f *Future[T]) Wait() (T, error) {
	<-f.done
	return f.result.Data, f.result.Err
}

// Result returns the result without blocking. ok is false while unresolved.
func (f *Future[T]) Result() (Result[T], bool) {
	select {
	case <-f.done:
		return f.result, true
	default:
		return Result[T]{}, false
	}
}
