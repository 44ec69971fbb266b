package prometheus

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/Swind/go-task-pool/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// PoolSnapshotProvider provides current pool stats snapshots.
type PoolSnapshotProvider interface {
	Stats() core.PoolStats
}

// SnapshotPoller periodically exports pool Stats() snapshots into Prometheus gauges.
type SnapshotPoller struct {
	interval time.Duration

	poolsMu sync.RWMutex
	pools   map[string]PoolSnapshotProvider

	poolQueued    *prom.GaugeVec
	poolActive    *prom.GaugeVec
	poolWorkers   *prom.GaugeVec
	poolRunning   *prom.GaugeVec
	poolExecuted  *prom.GaugeVec
	poolStolen    *prom.GaugeVec
	poolDiscarded *prom.GaugeVec
	dequeDepth    *prom.GaugeVec

	stateMu sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSnapshotPoller creates a snapshot poller and registers its collectors.
func NewSnapshotPoller(reg prom.Registerer, interval time.Duration) (*SnapshotPoller, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	poolQueued := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "taskpool",
		Name:      "pool_queued",
		Help:      "Queued tasks per pool.",
	}, []string{"pool", "mode"})
	poolActive := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "taskpool",
		Name:      "pool_active",
		Help:      "Active tasks per pool.",
	}, []string{"pool", "mode"})
	poolWorkers := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "taskpool",
		Name:      "pool_workers",
		Help:      "Worker count per pool.",
	}, []string{"pool", "mode"})
	poolRunning := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "taskpool",
		Name:      "pool_running",
		Help:      "Pool running state (1=running, 0=stopped).",
	}, []string{"pool", "mode"})
	poolExecuted := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "taskpool",
		Name:      "pool_executed",
		Help:      "Executed task count snapshot per pool.",
	}, []string{"pool", "mode"})
	poolStolen := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "taskpool",
		Name:      "pool_stolen",
		Help:      "Stolen task count snapshot per pool.",
	}, []string{"pool", "mode"})
	poolDiscarded := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "taskpool",
		Name:      "pool_discarded",
		Help:      "Discarded task count snapshot per pool.",
	}, []string{"pool", "mode"})
	dequeDepth := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "taskpool",
		Name:      "worker_deque_depth",
		Help:      "Local deque depth per worker.",
	}, []string{"pool", "worker"})

	var err error
	if poolQueued, err = registerCollector(reg, poolQueued); err != nil {
		return nil, err
	}
	if poolActive, err = registerCollector(reg, poolActive); err != nil {
		return nil, err
	}
	if poolWorkers, err = registerCollector(reg, poolWorkers); err != nil {
		return nil, err
	}
	if poolRunning, err = registerCollector(reg, poolRunning); err != nil {
		return nil, err
	}
	if poolExecuted, err = registerCollector(reg, poolExecuted); err != nil {
		return nil, err
	}
	if poolStolen, err = registerCollector(reg, poolStolen); err != nil {
		return nil, err
	}
	if poolDiscarded, err = registerCollector(reg, poolDiscarded); err != nil {
		return nil, err
	}
	if dequeDepth, err = registerCollector(reg, dequeDepth); err != nil {
		return nil, err
	}

	return &SnapshotPoller{
		interval:      interval,
		pools:         make(map[string]PoolSnapshotProvider),
		poolQueued:    poolQueued,
		poolActive:    poolActive,
		poolWorkers:   poolWorkers,
		poolRunning:   poolRunning,
		poolExecuted:  poolExecuted,
		poolStolen:    poolStolen,
		poolDiscarded: poolDiscarded,
		dequeDepth:    dequeDepth,
	}, nil
}

// AddPool adds or replaces a pool snapshot provider by name.
func (p *SnapshotPoller) AddPool(name string, provider PoolSnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "pool")
	p.poolsMu.Lock()
	p.pools[name] = provider
	p.poolsMu.Unlock()
}

// RemovePool stops exporting the named pool.
func (p *SnapshotPoller) RemovePool(name string) {
	if p == nil {
		return
	}
	name = normalizeLabel(name, "pool")
	p.poolsMu.Lock()
	delete(p.pools, name)
	p.poolsMu.Unlock()
}

// Start begins periodic polling; repeated calls are no-ops.
func (p *SnapshotPoller) Start(ctx context.Context) {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if p.running {
		p.stateMu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true
	p.stateMu.Unlock()

	go p.loop(pollCtx)
}

// Stop stops periodic polling; repeated calls are safe.
func (p *SnapshotPoller) Stop() {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if !p.running {
		p.stateMu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.stateMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	p.stateMu.Lock()
	p.running = false
	p.cancel = nil
	p.done = nil
	p.stateMu.Unlock()
}

func (p *SnapshotPoller) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.collectOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.collectOnce()
		}
	}
}

func (p *SnapshotPoller) collectOnce() {
	p.poolsMu.RLock()
	defer p.poolsMu.RUnlock()

	for name, provider := range p.pools {
		stats := provider.Stats()
		mode := normalizeLabel(string(stats.Mode), "unknown")
		p.poolQueued.WithLabelValues(name, mode).Set(float64(stats.Queued))
		p.poolActive.WithLabelValues(name, mode).Set(float64(stats.Active))
		p.poolWorkers.WithLabelValues(name, mode).Set(float64(stats.Workers))
		p.poolExecuted.WithLabelValues(name, mode).Set(float64(stats.Executed))
		p.poolStolen.WithLabelValues(name, mode).Set(float64(stats.Stolen))
		p.poolDiscarded.WithLabelValues(name, mode).Set(float64(stats.Discarded))
		if stats.Running {
			p.poolRunning.WithLabelValues(name, mode).Set(1)
		} else {
			p.poolRunning.WithLabelValues(name, mode).Set(0)
		}
		for i, depth := range stats.DequeDepths {
			p.dequeDepth.WithLabelValues(name, strconv.Itoa(i)).Set(float64(depth))
		}
	}
}
