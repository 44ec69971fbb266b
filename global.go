package taskpool

import "sync"

// =============================================================================
// Global Pool Helper (Singleton)
// =============================================================================

var (
	globalPool *Pool
	globalMu   sync.Mutex
)

// InitGlobalPool builds and starts the process-wide pool. Later calls are
// no-ops while a global pool exists.
func InitGlobalPool(opts ...Option) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalPool != nil {
		return nil // Already initialized
	}

	p, err := New(append([]Option{WithID("global-pool")}, opts...)...)
	if err != nil {
		return err
	}
	globalPool = p
	return nil
}

// GlobalPool returns the global pool instance.
// It panics if InitGlobalPool has not been called.
func GlobalPool() *Pool {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalPool == nil {
		panic("global pool not initialized. Call InitGlobalPool() first.")
	}
	return globalPool
}

// ShutdownGlobalPool closes the global pool; InitGlobalPool may be called
// again afterwards.
func ShutdownGlobalPool() {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalPool != nil {
		_ = globalPool.Close()
		globalPool = nil
	}
}
