package taskpool

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/Swind/go-task-pool/config"
	"github.com/Swind/go-task-pool/core"
)

const tracerName = "github.com/Swind/go-task-pool"

// Pool is a fixed set of worker goroutines fed by a core.Scheduler.
//
// Lifecycle: Constructing -> Running -> Stopping -> Stopped. The queues are
// only drained in Close, after every worker and helper goroutine has been
// joined, so nothing can still be touching a deque when its leftovers are
// discarded.
type Pool struct {
	id        string
	workers   int
	idleSpins int
	pin       bool

	sched core.Scheduler

	state   atomic.Int32
	stopped atomic.Bool // shutdown flag, false -> true once
	stopCh  chan struct{}
	signal  chan struct{}
	wg      sync.WaitGroup
	helpers sync.WaitGroup

	// lifecycle orders submissions against Close: once closed is set under
	// the write lock no further task can reach the scheduler.
	lifecycle sync.RWMutex
	closed    bool
	closeOnce sync.Once

	logger       core.Logger
	metrics      core.Metrics
	panicHandler core.PanicHandler
	tracer       trace.Tracer
	history      *core.ExecutionHistory

	queued    atomic.Int64
	active    atomic.Int32
	executed  atomic.Int64
	stolen    atomic.Int64
	failed    atomic.Int64
	panicked  atomic.Int64
	rejected  atomic.Int64
	discarded atomic.Int64
}

// New builds a pool and starts every worker before returning. If any worker
// fails to start, the workers already running are stopped and joined and
// the returned error wraps core.ErrWorkerStart.
func New(opts ...Option) (*Pool, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return newPool(o)
}

// NewFromConfig is New with cfg applied before opts.
func NewFromConfig(cfg config.Config, opts ...Option) (*Pool, error) {
	return New(append([]Option{WithConfig(cfg)}, opts...)...)
}

func newPool(o options) (*Pool, error) {
	cfg := o.cfg
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	workers := cfg.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}

	sched, err := core.NewScheduler(cfg.PoolMode(), workers)
	if err != nil {
		return nil, err
	}

	p := &Pool{
		id:           cfg.ID,
		workers:      workers,
		idleSpins:    cfg.IdleSpins,
		pin:          cfg.PinWorkers,
		sched:        sched,
		stopCh:       make(chan struct{}),
		signal:       make(chan struct{}, workers*2),
		logger:       o.logger,
		metrics:      o.metrics,
		panicHandler: o.panicHandler,
		tracer:       o.tracer,
		history:      core.NewExecutionHistory(cfg.HistoryCapacity),
	}

	// Use defaults if not provided
	if p.logger == nil {
		p.logger = core.NewZapLogger(nil).Named("taskpool")
	}
	if p.metrics == nil {
		p.metrics = &core.NilMetrics{}
	}
	if p.panicHandler == nil {
		p.panicHandler = &core.LoggingPanicHandler{Logger: p.logger}
	}
	if p.tracer == nil {
		p.tracer = noop.NewTracerProvider().Tracer(tracerName)
	}

	p.state.Store(int32(core.StateConstructing))
	if err := p.start(o.startHook); err != nil {
		return nil, err
	}
	p.state.Store(int32(core.StateRunning))

	p.logger.Info("pool started",
		core.F("pool", p.id),
		core.F("mode", string(sched.Mode())),
		core.F("workers", workers),
		core.F("pinned", p.pin),
	)
	return p, nil
}

// start launches workers one at a time and waits for each to report that its
// setup succeeded, so a failure leaves a known set of goroutines to join.
func (p *Pool) start(hook WorkerStartHook) error {
	ready := make(chan error)
	for i := 0; i < p.workers; i++ {
		w := newWorker(p, i)
		p.wg.Add(1)
		go w.run(hook, ready)

		if err := <-ready; err != nil {
			p.abortStart(i, err)
			return fmt.Errorf("%w: worker %d: %w", core.ErrWorkerStart, i, err)
		}
	}
	return nil
}

func (p *Pool) abortStart(index int, cause error) {
	p.stopped.Store(true)
	close(p.stopCh)
	p.wg.Wait()

	p.discardQueued()
	p.state.Store(int32(core.StateFailed))

	p.logger.Error("pool construction aborted",
		core.F("pool", p.id),
		core.F("worker", index),
		core.F("started_workers", index),
		core.F("error", cause),
	)
}

// Close stops the pool: new submissions are rejected, running tasks finish,
// every worker is joined and still-queued tasks resolve with
// core.ErrPoolShutdown. Close is idempotent. It must not be called from a
// task running on the same pool.
func (p *Pool) Close() error {
	p.closeOnce.Do(func() {
		p.lifecycle.Lock()
		p.closed = true
		p.lifecycle.Unlock()

		p.state.Store(int32(core.StateStopping))
		p.stopped.Store(true)
		close(p.stopCh)

		p.wg.Wait()
		p.helpers.Wait()

		n := p.discardQueued()
		p.state.Store(int32(core.StateStopped))

		p.logger.Info("pool stopped",
			core.F("pool", p.id),
			core.F("executed", p.executed.Load()),
			core.F("discarded", n),
		)
	})
	return nil
}

func (p *Pool) discardQueued() int {
	leftovers := p.sched.Drain()
	n := 0
	for _, t := range leftovers {
		if t.Discard(core.ErrPoolShutdown) {
			n++
		}
	}
	p.queued.Add(-int64(len(leftovers)))

	if n > 0 {
		p.discarded.Add(int64(n))
		p.metrics.RecordTasksDiscarded(p.id, n)
		p.logger.Warn("discarded queued tasks at shutdown",
			core.F("pool", p.id),
			core.F("count", n),
		)
	}
	p.metrics.RecordQueueDepth(p.id, 0)
	return n
}

// post routes t to the caller's own deque when ctx belongs to one of this
// pool's workers, otherwise to the global queue.
func (p *Pool) post(ctx context.Context, t *core.Task) error {
	p.lifecycle.RLock()
	defer p.lifecycle.RUnlock()

	if p.closed {
		return core.ErrPoolClosed
	}

	var wc *core.WorkerContext
	if w := core.WorkerFromContext(ctx); w.Owns(p) {
		wc = w
	}

	depth := p.queued.Add(1)
	p.sched.Post(wc, t)
	p.metrics.RecordQueueDepth(p.id, int(depth))
	p.notify()
	return nil
}

func (p *Pool) reject(t *core.Task, err error) {
	t.Discard(err)
	p.rejected.Add(1)
	p.metrics.RecordTaskRejected(p.id, "closed")
	p.logger.Debug("task rejected",
		core.F("pool", p.id),
		core.F("task", t.Name()),
		core.F("error", err),
	)
}

// notify wakes one parked worker. A full signal channel already guarantees
// pending wake-ups, so dropping the send is fine.
func (p *Pool) notify() {
	select {
	case p.signal <- struct{}{}:
	default:
	}
}

// RunPendingTask runs at most one pending task on the calling goroutine and
// reports whether it did.
//
// Called with a context of one of this pool's workers (the ctx handed to a
// running task), it follows that worker's pop, global, steal order. From any
// other goroutine it acts as a helper: global queue first, then stealing.
// Every call is tracked until it returns, so Close also waits for goroutines
// a task started with its own ctx.
func (p *Pool) RunPendingTask(ctx context.Context) bool {
	if ctx == nil {
		ctx = context.Background()
	}
	wc := core.WorkerFromContext(ctx)
	if !wc.Owns(p) {
		wc = nil
	}

	p.lifecycle.RLock()
	if p.closed {
		p.lifecycle.RUnlock()
		return false
	}
	p.helpers.Add(1)
	p.lifecycle.RUnlock()
	defer p.helpers.Done()

	return p.runPendingTask(ctx, wc)
}

func (p *Pool) runPendingTask(ctx context.Context, wc *core.WorkerContext) bool {
	t, src, ok := p.sched.Next(wc)
	if !ok {
		return false
	}
	p.queued.Add(-1)
	p.execute(ctx, wc, t, src)
	return true
}

func (p *Pool) execute(ctx context.Context, wc *core.WorkerContext, t *core.Task, src core.TaskSource) {
	workerID := -1
	if wc != nil {
		workerID = wc.Index
	}
	if src == core.SourceStolen {
		p.stolen.Add(1)
	}

	p.active.Add(1)
	defer p.active.Add(-1)

	ctx, span := p.tracer.Start(ctx, "taskpool.task", trace.WithAttributes(
		attribute.String("taskpool.pool", p.id),
		attribute.String("taskpool.task.id", t.ID().String()),
		attribute.String("taskpool.task.name", t.Name()),
		attribute.Int("taskpool.worker", workerID),
		attribute.String("taskpool.source", src.String()),
	))
	defer span.End()

	startedAt := time.Now()
	err := t.Run(ctx)
	finishedAt := time.Now()
	duration := finishedAt.Sub(startedAt)

	panicked := t.Panicked()
	p.executed.Add(1)
	if err != nil {
		p.failed.Add(1)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if perr, ok := err.(*core.PanicError); panicked && ok {
		p.panicked.Add(1)
		p.metrics.RecordTaskPanic(p.id, perr.Value)
		p.panicHandler.HandlePanic(ctx, p.id, workerID, perr.Value, perr.Stack)
	}
	p.metrics.RecordTaskDuration(p.id, src, duration)

	p.history.Add(core.TaskExecutionRecord{
		TaskID:     t.ID(),
		Name:       t.Name(),
		PoolID:     p.id,
		Worker:     workerID,
		Source:     src,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		Duration:   duration,
		Failed:     err != nil,
		Panicked:   panicked,
	})
}

// ID returns the ID of the pool
func (p *Pool) ID() string { return p.id }

func (p *Pool) Mode() core.Mode { return p.sched.Mode() }

// WorkerCount returns the number of workers
func (p *Pool) WorkerCount() int { return p.workers }

func (p *Pool) State() core.PoolState { return core.PoolState(p.state.Load()) }

// IsRunning reports whether the pool accepts and executes tasks.
func (p *Pool) IsRunning() bool { return p.State() == core.StateRunning }

// Stats returns a point-in-time snapshot.
func (p *Pool) Stats() core.PoolStats {
	state := p.State()
	return core.PoolStats{
		ID:          p.id,
		Mode:        p.sched.Mode(),
		State:       state,
		Workers:     p.workers,
		Queued:      p.sched.Queued(),
		Active:      int(p.active.Load()),
		Executed:    p.executed.Load(),
		Stolen:      p.stolen.Load(),
		Failed:      p.failed.Load(),
		Panicked:    p.panicked.Load(),
		Rejected:    p.rejected.Load(),
		Discarded:   p.discarded.Load(),
		DequeDepths: p.sched.DequeDepths(),
		Running:     state == core.StateRunning,
	}
}

// RecentTasks returns up to limit execution records, newest first.
func (p *Pool) RecentTasks(limit int) []core.TaskExecutionRecord {
	return p.history.Recent(limit)
}
