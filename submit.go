package taskpool

import (
	"context"
	"runtime"

	"github.com/Swind/go-task-pool/core"
)

// Submit wraps fn in a task and returns its Future immediately.
//
// If ctx is the context handed to a task running on p, the new task goes to
// that worker's own deque; otherwise it goes to the global queue. A closed
// pool resolves the Future with core.ErrPoolClosed.
func Submit[R any](ctx context.Context, p *Pool, fn core.Callable[R]) *core.Future[R] {
	return SubmitNamed(ctx, p, "", fn)
}

// SubmitNamed is Submit with an explicit task name for logs, spans and
// execution history.
func SubmitNamed[R any](ctx context.Context, p *Pool, name string, fn core.Callable[R]) *core.Future[R] {
	if fn == nil {
		return core.NewResolvedFuture[R](core.ErrNilCallable)
	}

	t, f := core.NewTask(core.ResolveTaskName(fn, name), fn)
	if err := p.post(ctx, t); err != nil {
		p.reject(t, err)
	}
	return f
}

// SubmitFunc submits a callable that takes no context. It always uses the
// global queue, even when called from a worker.
func SubmitFunc[R any](p *Pool, fn func() (R, error)) *core.Future[R] {
	if fn == nil {
		return core.NewResolvedFuture[R](core.ErrNilCallable)
	}
	name := core.ResolveTaskName(fn, "")
	return SubmitNamed(context.Background(), p, name, func(context.Context) (R, error) {
		return fn()
	})
}

// Await waits for f while running other pending tasks of p on the calling
// goroutine. Use it from inside a task instead of f.Wait: a worker blocked on
// a child that sits in its own deque would otherwise never see it run.
//
// When called from one of p's workers and p starts stopping before f
// resolves, Await returns core.ErrPoolShutdown so the worker can exit. Other
// callers keep waiting for Close to resolve f, or until ctx is done.
func Await[R any](ctx context.Context, p *Pool, f *core.Future[R]) (R, error) {
	onWorker := core.WorkerFromContext(ctx).Owns(p)

	for {
		if res, ok := f.Result(); ok {
			return res.Data, res.Err
		}
		if err := ctx.Err(); err != nil {
			var zero R
			return zero, err
		}

		if p.stopped.Load() {
			if onWorker {
				if res, ok := f.Result(); ok {
					return res.Data, res.Err
				}
				var zero R
				return zero, core.ErrPoolShutdown
			}
			return f.Get(ctx)
		}

		if !p.RunPendingTask(ctx) {
			runtime.Gosched()
		}
	}
}
