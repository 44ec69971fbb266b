package taskpool

import (
	"go.opentelemetry.io/otel/trace"

	"github.com/Swind/go-task-pool/config"
	"github.com/Swind/go-task-pool/core"
)

// WorkerStartHook runs on each worker goroutine before it enters its loop.
// A non-nil error aborts pool construction.
type WorkerStartHook func(index int) error

type options struct {
	cfg          config.Config
	logger       core.Logger
	metrics      core.Metrics
	panicHandler core.PanicHandler
	tracer       trace.Tracer
	startHook    WorkerStartHook
}

// Option customizes a Pool.
type Option func(*options)

func defaultOptions() options {
	return options{cfg: config.Default()}
}

// WithConfig replaces the whole configuration. Options after it still apply.
func WithConfig(cfg config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

func WithID(id string) Option {
	return func(o *options) { o.cfg.ID = id }
}

// WithWorkers sets the worker count; 0 means runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(o *options) { o.cfg.Workers = n }
}

func WithMode(mode core.Mode) Option {
	return func(o *options) { o.cfg.Mode = string(mode) }
}

// WithIdleSpins sets how many consecutive misses a worker yields through
// before parking. -1 keeps workers busy-polling.
func WithIdleSpins(n int) Option {
	return func(o *options) { o.cfg.IdleSpins = n }
}

// WithPinnedWorkers locks every worker to an OS thread bound to one CPU.
func WithPinnedWorkers(pin bool) Option {
	return func(o *options) { o.cfg.PinWorkers = pin }
}

func WithHistoryCapacity(n int) Option {
	return func(o *options) { o.cfg.HistoryCapacity = n }
}

func WithLogger(l core.Logger) Option {
	return func(o *options) { o.logger = l }
}

func WithMetrics(m core.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func WithPanicHandler(h core.PanicHandler) Option {
	return func(o *options) { o.panicHandler = h }
}

// WithTracer records one span per executed task.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

func WithWorkerStartHook(h WorkerStartHook) Option {
	return func(o *options) { o.startHook = h }
}
