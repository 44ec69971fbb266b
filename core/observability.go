package core

import "time"

// PoolState is the lifecycle position of a pool.
type PoolState int32

const (
	StateConstructing PoolState = iota
	StateRunning
	StateStopping
	StateStopped
	// StateFailed marks a pool whose construction was rolled back.
	StateFailed
)

func (s PoolState) String() string {
	switch s {
	case StateConstructing:
		return "constructing"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// TaskExecutionRecord captures a completed task execution event.
type TaskExecutionRecord struct {
	TaskID     TaskID
	Name       string
	PoolID     string
	Worker     int
	Source     TaskSource
	StartedAt  time.Time
	FinishedAt time.Time
	Duration   time.Duration
	Failed     bool
	Panicked   bool
}

// PoolStats represents runtime observability state for a pool.
type PoolStats struct {
	ID          string
	Mode        Mode
	State       PoolState
	Workers     int
	Queued      int
	Active      int
	Executed    int64
	Stolen      int64
	Failed      int64
	Panicked    int64
	Rejected    int64
	Discarded   int64
	DequeDepths []int
	Running     bool
}
