package core

import "sync"

// =============================================================================
// LocalDeque: per-worker deque, owner at the front, thieves at the back
// =============================================================================

// LocalDeque holds one worker's pending tasks.
//
// The owner pushes and pops at the front, so it sees its own submissions in
// LIFO order. Thieves take from the back, i.e. the oldest pending item.
// A single mutex guards every operation.
//
// Layout: items[head:] is the live region; the front is the end of the
// slice and the back is items[head].
type LocalDeque[T any] struct {
	mu    sync.Mutex
	items []T
	head  int
}

func NewLocalDeque[T any]() *LocalDeque[T] {
	return &LocalDeque[T]{
		items: make([]T, 0, defaultQueueCap),
	}
}

// Push inserts item at the owner end.
func (d *LocalDeque[T]) Push(item T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.items = append(d.items, item)
}

// TryPop removes the most recently pushed item. Owner only.
func (d *LocalDeque[T]) TryPop() (T, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var zero T
	last := len(d.items) - 1
	if last < d.head {
		return zero, false
	}

	item := d.items[last]
	d.items[last] = zero
	d.items = d.items[:last]
	d.resetIfEmptyLocked()
	return item, true
}

// TrySteal removes the oldest item. Used by non-owning workers.
func (d *LocalDeque[T]) TrySteal() (T, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var zero T
	if d.head >= len(d.items) {
		return zero, false
	}

	item := d.items[d.head]
	d.items[d.head] = zero
	d.head++
	if !d.resetIfEmptyLocked() {
		d.maybeCompactLocked()
	}
	return item, true
}

func (d *LocalDeque[T]) resetIfEmptyLocked() bool {
	if d.head < len(d.items) {
		return false
	}
	if cap(d.items) >= compactMinCap {
		d.items = make([]T, 0, defaultQueueCap)
	} else {
		d.items = d.items[:0]
	}
	d.head = 0
	return true
}

// maybeCompactLocked slides the live region down once steals have left most
// of the backing array behind head.
func (d *LocalDeque[T]) maybeCompactLocked() {
	c := cap(d.items)
	if c < compactMinCap {
		return
	}
	n := len(d.items) - d.head
	if d.head*compactShrinkFactor < c && n*compactShrinkFactor >= c {
		return
	}

	newCap := max(max(c/2, defaultQueueCap), n*2)
	newSlice := make([]T, n, newCap)
	copy(newSlice, d.items[d.head:])
	d.items = newSlice
	d.head = 0
}

// Drain removes every item, oldest first.
func (d *LocalDeque[T]) Drain() []T {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := len(d.items) - d.head
	if n == 0 {
		return nil
	}
	out := make([]T, n)
	copy(out, d.items[d.head:])
	d.items = make([]T, 0, defaultQueueCap)
	d.head = 0
	return out
}

func (d *LocalDeque[T]) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.items) - d.head
}

func (d *LocalDeque[T]) IsEmpty() bool {
	return d.Len() == 0
}
