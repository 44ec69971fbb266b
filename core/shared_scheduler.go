package core

// SharedScheduler is the non-stealing variant: one global FIFO for every
// submitter and every worker. Cheaper when task volume is low.
type SharedScheduler struct {
	queue   *GlobalQueue[*Task]
	workers int
}

func NewSharedScheduler(workers int) *SharedScheduler {
	return &SharedScheduler{
		queue:   NewGlobalQueue[*Task](),
		workers: workers,
	}
}

func (s *SharedScheduler) Post(_ *WorkerContext, t *Task) {
	s.queue.Push(t)
}

func (s *SharedScheduler) Next(_ *WorkerContext) (*Task, TaskSource, bool) {
	if t, ok := s.queue.TryPop(); ok {
		return t, SourceGlobal, true
	}
	return nil, SourceGlobal, false
}

func (s *SharedScheduler) Drain() []*Task {
	out := s.queue.Drain()
	s.queue.Close()
	return out
}

func (s *SharedScheduler) Queued() int        { return s.queue.Len() }
func (s *SharedScheduler) Workers() int       { return s.workers }
func (s *SharedScheduler) Mode() Mode         { return ModeShared }
func (s *SharedScheduler) DequeDepths() []int { return nil }
