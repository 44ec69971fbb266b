package core

// StealingScheduler implements the pop, global, steal policy.
//
// deques is sized once at construction and never resized, so workers can
// index it without holding any lock of the scheduler itself.
type StealingScheduler struct {
	global *GlobalQueue[*Task]
	deques []*LocalDeque[*Task]
}

func NewStealingScheduler(workers int) *StealingScheduler {
	s := &StealingScheduler{
		global: NewGlobalQueue[*Task](),
		deques: make([]*LocalDeque[*Task], workers),
	}
	for i := range s.deques {
		s.deques[i] = NewLocalDeque[*Task]()
	}
	return s
}

// Post pushes onto the submitting worker's own deque, or onto the global
// queue for external submitters.
func (s *StealingScheduler) Post(w *WorkerContext, t *Task) {
	if w != nil && w.Index >= 0 && w.Index < len(s.deques) {
		s.deques[w.Index].Push(t)
		return
	}
	s.global.Push(t)
}

// Next tries the worker's own deque, then the global queue, then the other
// deques round-robin starting at Index+1 so idle workers do not all pile
// onto worker 0.
func (s *StealingScheduler) Next(w *WorkerContext) (*Task, TaskSource, bool) {
	self := -1
	if w != nil && w.Index >= 0 && w.Index < len(s.deques) {
		self = w.Index
		if t, ok := s.deques[self].TryPop(); ok {
			return t, SourceLocal, true
		}
	}

	if t, ok := s.global.TryPop(); ok {
		return t, SourceGlobal, true
	}

	if t, ok := s.steal(self); ok {
		return t, SourceStolen, true
	}
	return nil, SourceLocal, false
}

func (s *StealingScheduler) steal(self int) (*Task, bool) {
	n := len(s.deques)
	for i := 0; i < n; i++ {
		victim := (self + i + 1) % n
		if victim == self {
			continue
		}
		if t, ok := s.deques[victim].TrySteal(); ok {
			return t, true
		}
	}
	return nil, false
}

// Drain empties the global queue first, then each deque oldest first.
func (s *StealingScheduler) Drain() []*Task {
	out := s.global.Drain()
	for _, d := range s.deques {
		out = append(out, d.Drain()...)
	}
	s.global.Close()
	return out
}

func (s *StealingScheduler) Queued() int {
	n := s.global.Len()
	for _, d := range s.deques {
		n += d.Len()
	}
	return n
}

func (s *StealingScheduler) Workers() int { return len(s.deques) }
func (s *StealingScheduler) Mode() Mode   { return ModeStealing }

func (s *StealingScheduler) DequeDepths() []int {
	out := make([]int, len(s.deques))
	for i, d := range s.deques {
		out[i] = d.Len()
	}
	return out
}
