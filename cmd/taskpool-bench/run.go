package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	taskpool "github.com/Swind/go-task-pool"
	"github.com/Swind/go-task-pool/config"
	"github.com/Swind/go-task-pool/core"
	obs "github.com/Swind/go-task-pool/observability/prometheus"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the round-trip workload and verify the counter",
	Args:  cobra.NoArgs,
	RunE:  runBench,
}

var (
	benchTasks       int
	benchProducers   int
	benchFanout      float64
	benchMetricsAddr string
)

func init() {
	runCmd.Flags().IntVar(&benchTasks, "tasks", 100000, "total counter increments")
	runCmd.Flags().IntVar(&benchProducers, "producers", 8, "external producer goroutines")
	runCmd.Flags().Float64Var(&benchFanout, "fanout", 0.25, "share of increments submitted from inside running tasks (0..0.5)")
	runCmd.Flags().StringVar(&benchMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :2112")
}

// workload describes one round-trip run.
type workload struct {
	Tasks     int
	Producers int
	Fanout    float64
}

func (w workload) validate() error {
	switch {
	case w.Tasks < 1:
		return fmt.Errorf("tasks must be positive, got %d", w.Tasks)
	case w.Producers < 1:
		return fmt.Errorf("producers must be positive, got %d", w.Producers)
	case w.Fanout < 0 || w.Fanout > 0.5:
		return fmt.Errorf("fanout must be within [0, 0.5], got %v", w.Fanout)
	}
	return nil
}

// report is the outcome of a run.
type report struct {
	Counter  int64
	Expected int64
	Elapsed  time.Duration
	Stats    core.PoolStats
}

var errCounterMismatch = errors.New("counter mismatch")

func runBench(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	w := workload{Tasks: benchTasks, Producers: benchProducers, Fanout: benchFanout}
	if err := w.validate(); err != nil {
		return err
	}

	logger, err := config.BuildLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	reg := prom.NewRegistry()
	exporter, err := obs.NewMetricsExporter("taskpool", reg, obs.ExporterOptions{})
	if err != nil {
		return err
	}

	p, err := taskpool.NewFromConfig(cfg,
		taskpool.WithLogger(core.NewZapLogger(logger).Named("taskpool")),
		taskpool.WithMetrics(exporter),
	)
	if err != nil {
		return err
	}
	defer p.Close()

	if benchMetricsAddr != "" {
		stop, err := serveMetrics(cmd.Context(), reg, p, benchMetricsAddr, logger)
		if err != nil {
			return err
		}
		defer stop()
	}

	r, err := runWorkload(cmd.Context(), p, w)
	if err != nil {
		return err
	}
	printReport(cmd.OutOrStdout(), r)

	if r.Counter != r.Expected {
		return fmt.Errorf("%w: got %d, want %d", errCounterMismatch, r.Counter, r.Expected)
	}
	return nil
}

// runWorkload submits w.Tasks increments. A Fanout share of them is
// submitted from inside a parent increment and awaited there, so they take
// the worker's local deque.
func runWorkload(ctx context.Context, p *taskpool.Pool, w workload) (report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	nested := int(float64(w.Tasks) * w.Fanout)
	external := w.Tasks - nested

	var counter atomic.Int64
	increment := func(ctx context.Context) (struct{}, error) {
		counter.Add(1)
		return struct{}{}, nil
	}
	withChild := func(ctx context.Context) (struct{}, error) {
		counter.Add(1)
		child := taskpool.SubmitNamed(ctx, p, "bench.child", increment)
		return taskpool.Await(ctx, p, child)
	}

	start := time.Now()
	futures := make([]*taskpool.Future[struct{}], external)

	producers := pool.New().WithMaxGoroutines(w.Producers)
	chunk := (external + w.Producers - 1) / w.Producers
	for lo := 0; lo < external; lo += chunk {
		hi := min(lo+chunk, external)
		producers.Go(func() {
			for i := lo; i < hi; i++ {
				fn, name := increment, "bench.increment"
				if i < nested {
					fn, name = withChild, "bench.parent"
				}
				futures[i] = taskpool.SubmitNamed(context.Background(), p, name, fn)
			}
		})
	}
	producers.Wait()

	for _, f := range futures {
		if _, err := f.Get(ctx); err != nil {
			return report{}, err
		}
	}

	return report{
		Counter:  counter.Load(),
		Expected: int64(w.Tasks),
		Elapsed:  time.Since(start),
		Stats:    p.Stats(),
	}, nil
}

func printReport(out io.Writer, r report) {
	s := r.Stats
	fmt.Fprintf(out, "pool:      %s (%s, %d workers)\n", s.ID, s.Mode, s.Workers)
	fmt.Fprintf(out, "counter:   %d / %d\n", r.Counter, r.Expected)
	fmt.Fprintf(out, "elapsed:   %s\n", r.Elapsed)
	if r.Elapsed > 0 {
		fmt.Fprintf(out, "rate:      %.0f tasks/s\n", float64(r.Counter)/r.Elapsed.Seconds())
	}
	fmt.Fprintf(out, "executed:  %d (stolen %d, failed %d, panicked %d)\n", s.Executed, s.Stolen, s.Failed, s.Panicked)
}

func serveMetrics(ctx context.Context, reg *prom.Registry, p *taskpool.Pool, addr string, logger *zap.Logger) (func(), error) {
	if ctx == nil {
		ctx = context.Background()
	}
	poller, err := obs.NewSnapshotPoller(reg, 500*time.Millisecond)
	if err != nil {
		return nil, err
	}
	poller.AddPool(p.ID(), p)
	poller.Start(ctx)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.String("addr", addr), zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", addr))

	return func() {
		poller.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}, nil
}
