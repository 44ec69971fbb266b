package core

import "sync"

const (
	defaultQueueCap     = 16
	compactMinCap       = 64 // Don't compact if capacity is less than this
	compactShrinkFactor = 4  // Trigger compaction when len < cap/4
)

// =============================================================================
// GlobalQueue: blocking, thread-safe FIFO shared by all workers
// =============================================================================

// GlobalQueue is a mutex-guarded FIFO with a not-empty condition.
//
// Pushes from a single producer are popped in the order they were pushed.
// No order is promised between different producers beyond what the lock
// happens to serialize.
type GlobalQueue[T any] struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	items    []T
	closed   bool
}

func NewGlobalQueue[T any]() *GlobalQueue[T] {
	q := &GlobalQueue[T]{
		items: make([]T, 0, defaultQueueCap),
	}
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// Push appends item at the tail and wakes one blocked Pop.
func (q *GlobalQueue[T]) Push(item T) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()
	q.notEmpty.Signal()
}

// Pop blocks until an item is available and removes the head.
// It returns false only after Close, once the queue is empty.
func (q *GlobalQueue[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.notEmpty.Wait()
	}
	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	return q.popHeadLocked(), true
}

// TryPop removes the head if present, without blocking.
func (q *GlobalQueue[T]) TryPop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	return q.popHeadLocked(), true
}

func (q *GlobalQueue[T]) popHeadLocked() T {
	var zero T
	item := q.items[0]
	// Zero out the slot so the backing array does not pin the item
	q.items[0] = zero
	q.items = q.items[1:]
	q.maybeCompactLocked()
	return item
}

func (q *GlobalQueue[T]) maybeCompactLocked() {
	n := len(q.items)
	c := cap(q.items)

	if c < compactMinCap {
		return
	}
	if n == 0 {
		q.items = make([]T, 0, defaultQueueCap)
		return
	}
	if n*compactShrinkFactor >= c {
		return
	}

	newCap := max(max(c/2, defaultQueueCap), n)

	newSlice := make([]T, n, newCap)
	copy(newSlice, q.items)
	q.items = newSlice
}

// Drain removes and returns every queued item in FIFO order.
func (q *GlobalQueue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = make([]T, 0, defaultQueueCap)
	return out
}

// Close wakes every blocked Pop. Items already queued can still be popped.
func (q *GlobalQueue[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.notEmpty.Broadcast()
}

func (q *GlobalQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *GlobalQueue[T]) IsEmpty() bool {
	return q.Len() == 0
}
