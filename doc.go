// Package taskpool provides a fixed-size, work-stealing worker pool for Go.
//
// Tasks are callables that return a value and an error. Submitting one
// returns a Future immediately. Each worker owns a local deque: tasks
// submitted from inside a running task land on the submitting worker's own
// deque, everything else goes through a shared global queue. Idle workers
// steal the oldest task from their neighbours.
//
// # Quick Start
//
//	pool, err := taskpool.New(taskpool.WithWorkers(4))
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	f := taskpool.Submit(context.Background(), pool, func(ctx context.Context) (int, error) {
//		return 41 + 1, nil
//	})
//	v, err := f.Wait() // 42, nil
//
// # Scheduling
//
// A worker looks for work in this order:
//
//  1. its own deque, newest first (LIFO keeps related work on a warm cache)
//  2. the global queue, oldest first
//  3. the other workers' deques, oldest first, scanning from its own index + 1
//
// When all three miss it yields, and after a configurable number of misses
// it parks until the next submission or shutdown.
//
// # Fan-out
//
// The ctx a task receives identifies its worker. Pass it on to Submit to keep
// child tasks local, and use Await to wait for them: Await runs pending tasks
// while it waits instead of blocking the worker.
//
//	func sum(ctx context.Context, p *taskpool.Pool, xs []int) (int, error) {
//		if len(xs) < 1024 {
//			return serialSum(xs), nil
//		}
//		mid := len(xs) / 2
//		left := taskpool.Submit(ctx, p, func(ctx context.Context) (int, error) {
//			return sum(ctx, p, xs[:mid])
//		})
//		right, err := sum(ctx, p, xs[mid:])
//		if err != nil {
//			return 0, err
//		}
//		l, err := taskpool.Await(ctx, p, left)
//		return l + right, err
//	}
//
// # Shutdown
//
// Close rejects new submissions, lets running tasks finish, joins every
// worker and only then resolves each still-queued Future with
// ErrPoolShutdown. Tasks are never cancelled once running.
//
// # Shared-queue mode
//
// WithMode(ModeShared) keeps the same API but drops the per-worker deques:
// every task goes through the single global queue.
package taskpool
