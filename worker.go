package taskpool

import (
	"context"
	"runtime"

	"github.com/Swind/go-task-pool/core"
)

// worker is one goroutine of the pool. Its index, and with it the deque it
// owns, is fixed when it is created.
type worker struct {
	pool *Pool
	wc   *core.WorkerContext
	ctx  context.Context
}

func newWorker(p *Pool, index int) *worker {
	wc := core.NewWorkerContext(p, index)
	return &worker{
		pool: p,
		wc:   wc,
		ctx:  core.WithWorker(context.Background(), wc),
	}
}

// run reports the outcome of setup on ready exactly once, then loops until
// the shutdown flag is set.
func (w *worker) run(hook WorkerStartHook, ready chan<- error) {
	defer w.pool.wg.Done()

	if err := w.setup(hook); err != nil {
		ready <- err
		return
	}
	ready <- nil

	w.loop()
}

func (w *worker) setup(hook WorkerStartHook) error {
	if w.pool.pin {
		// Never unlocked: the thread carries a CPU mask and exits with us.
		runtime.LockOSThread()
		if err := pinToCPU(w.wc.Index); err != nil {
			return err
		}
	}
	if hook != nil {
		return hook(w.wc.Index)
	}
	return nil
}

// loop is the scheduling loop: own deque, global queue, steal. A miss
// yields; after idleSpins consecutive misses the worker parks until the next
// submission signal or shutdown.
func (w *worker) loop() {
	p := w.pool
	misses := 0

	for !p.stopped.Load() {
		if p.runPendingTask(w.ctx, w.wc) {
			misses = 0
			continue
		}

		misses++
		if p.idleSpins < 0 || misses <= p.idleSpins {
			runtime.Gosched()
			continue
		}

		misses = 0
		select {
		case <-p.signal:
		case <-p.stopCh:
		}
	}
}
