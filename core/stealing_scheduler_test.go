package core

import (
	"context"
	"testing"
)

func newNamedTask(name string) *Task {
	t, _ := NewTask(name, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, nil
	})
	return t
}

// TestStealingScheduler_PostRouting verifies where submissions land
// Given: A 2-worker scheduler
// When: Worker 1 posts one task and an external caller posts another
// Then: The first lands in deque 1, the second in the global queue
func TestStealingScheduler_PostRouting(t *testing.T) {
	// Arrange
	s := NewStealingScheduler(2)
	owner := new(int)
	w1 := NewWorkerContext(owner, 1)

	// Act
	s.Post(w1, newNamedTask("local"))
	s.Post(nil, newNamedTask("global"))

	// Assert
	if got := s.DequeDepths(); got[0] != 0 || got[1] != 1 {
		t.Fatalf("DequeDepths() = %v, want [0 1]", got)
	}
	if s.global.Len() != 1 {
		t.Fatalf("global Len() = %d, want 1", s.global.Len())
	}
	if s.Queued() != 2 {
		t.Fatalf("Queued() = %d, want 2", s.Queued())
	}
}

// TestStealingScheduler_NextOrder verifies local, then global, then steal
// Given: Worker 0 with one local task, one global task and one task in worker 1's deque
// When: Worker 0 calls Next four times
// Then: It gets local, global, stolen, then nothing
func TestStealingScheduler_NextOrder(t *testing.T) {
	// Arrange
	s := NewStealingScheduler(2)
	owner := new(int)
	w0 := NewWorkerContext(owner, 0)
	w1 := NewWorkerContext(owner, 1)
	s.Post(w1, newNamedTask("victim"))
	s.Post(nil, newNamedTask("global"))
	s.Post(w0, newNamedTask("own"))

	want := []struct {
		name string
		src  TaskSource
	}{
		{"own", SourceLocal},
		{"global", SourceGlobal},
		{"victim", SourceStolen},
	}

	// Act and Assert
	for i, w := range want {
		task, src, ok := s.Next(w0)
		if !ok {
			t.Fatalf("Step %d: Next() found nothing, want %s", i, w.name)
		}
		if task.Name() != w.name || src != w.src {
			t.Fatalf("Step %d: Next() = (%s, %s), want (%s, %s)", i, task.Name(), src, w.name, w.src)
		}
	}
	if _, _, ok := s.Next(w0); ok {
		t.Fatal("Next() on empty scheduler should report false")
	}
}

// TestStealingScheduler_StealScanStartsAfterSelf verifies round-robin victims
// Given: A 4-worker scheduler where workers 0 and 3 each hold one task
// When: Worker 2 looks for work
// Then: It steals from worker 3 first, then wraps around to worker 0
func TestStealingScheduler_StealScanStartsAfterSelf(t *testing.T) {
	// Arrange
	s := NewStealingScheduler(4)
	owner := new(int)
	s.Post(NewWorkerContext(owner, 0), newNamedTask("from-0"))
	s.Post(NewWorkerContext(owner, 3), newNamedTask("from-3"))
	w2 := NewWorkerContext(owner, 2)

	// Act
	first, _, _ := s.Next(w2)
	second, _, _ := s.Next(w2)

	// Assert
	if first.Name() != "from-3" || second.Name() != "from-0" {
		t.Fatalf("steal order = %s, %s; want from-3, from-0", first.Name(), second.Name())
	}
}

// TestStealingScheduler_StealTakesOldest verifies thieves take the back
// Given: Worker 1 has pushed a, b, c
// When: Worker 0 steals and worker 1 pops
// Then: Worker 0 gets a and worker 1 gets c
func TestStealingScheduler_StealTakesOldest(t *testing.T) {
	// Arrange
	s := NewStealingScheduler(2)
	owner := new(int)
	w0 := NewWorkerContext(owner, 0)
	w1 := NewWorkerContext(owner, 1)
	for _, n := range []string{"a", "b", "c"} {
		s.Post(w1, newNamedTask(n))
	}

	// Act
	stolen, src, _ := s.Next(w0)
	own, _, _ := s.Next(w1)

	// Assert
	if stolen.Name() != "a" || src != SourceStolen {
		t.Fatalf("stolen = (%s, %s), want (a, stolen)", stolen.Name(), src)
	}
	if own.Name() != "c" {
		t.Fatalf("own pop = %s, want c", own.Name())
	}
}

// TestStealingScheduler_HelperNext verifies callers without a worker
// Given: Tasks only in worker 1's deque
// When: A helper (nil worker) calls Next
// Then: It steals, since it has no deque of its own
func TestStealingScheduler_HelperNext(t *testing.T) {
	// Arrange
	s := NewStealingScheduler(2)
	s.Post(NewWorkerContext(new(int), 1), newNamedTask("x"))

	// Act
	task, src, ok := s.Next(nil)

	// Assert
	if !ok || task.Name() != "x" || src != SourceStolen {
		t.Fatalf("Next(nil) = (%v, %s, %v), want (x, stolen, true)", task, src, ok)
	}
}

// TestStealingScheduler_Drain verifies every container is emptied
// Given: Tasks in the global queue and two deques
// When: Drain is called
// Then: All tasks come back, global ones first, and the scheduler is empty
func TestStealingScheduler_Drain(t *testing.T) {
	// Arrange
	s := NewStealingScheduler(2)
	owner := new(int)
	s.Post(NewWorkerContext(owner, 0), newNamedTask("d0"))
	s.Post(NewWorkerContext(owner, 1), newNamedTask("d1"))
	s.Post(nil, newNamedTask("g"))

	// Act
	out := s.Drain()

	// Assert
	if len(out) != 3 {
		t.Fatalf("Drain() returned %d tasks, want 3", len(out))
	}
	if out[0].Name() != "g" {
		t.Fatalf("Drain()[0] = %s, want g", out[0].Name())
	}
	if s.Queued() != 0 {
		t.Fatalf("Queued() after Drain = %d, want 0", s.Queued())
	}
	if s.Mode() != ModeStealing || s.Workers() != 2 {
		t.Fatalf("Mode/Workers = %s/%d, want stealing/2", s.Mode(), s.Workers())
	}
}

// TestSharedScheduler_SingleQueue verifies the non-stealing variant
// Given: A shared scheduler with tasks posted by a worker and by an external caller
// When: Next is called
// Then: Both come from the global queue in FIFO order
func TestSharedScheduler_SingleQueue(t *testing.T) {
	// Arrange
	s := NewSharedScheduler(3)
	w := NewWorkerContext(new(int), 2)
	s.Post(w, newNamedTask("first"))
	s.Post(nil, newNamedTask("second"))

	// Act and Assert
	for _, want := range []string{"first", "second"} {
		task, src, ok := s.Next(w)
		if !ok || task.Name() != want || src != SourceGlobal {
			t.Fatalf("Next() = (%v, %s, %v), want (%s, global, true)", task, src, ok, want)
		}
	}
	if s.DequeDepths() != nil {
		t.Fatal("shared scheduler should report no deque depths")
	}
	if s.Mode() != ModeShared || s.Workers() != 3 {
		t.Fatalf("Mode/Workers = %s/%d, want shared/3", s.Mode(), s.Workers())
	}
}

// TestNewScheduler verifies mode selection and validation
// Given: Various mode and worker combinations
// When: NewScheduler is called
// Then: Valid input selects the matching scheduler, invalid input errors
func TestNewScheduler(t *testing.T) {
	tests := []struct {
		name    string
		mode    Mode
		workers int
		want    Mode
		wantErr bool
	}{
		{"default", "", 2, ModeStealing, false},
		{"stealing", ModeStealing, 1, ModeStealing, false},
		{"shared", ModeShared, 4, ModeShared, false},
		{"unknown mode", Mode("fifo"), 2, "", true},
		{"zero workers", ModeStealing, 0, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewScheduler(tt.mode, tt.workers)
			if tt.wantErr {
				if err == nil {
					t.Fatal("NewScheduler() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewScheduler() error = %v", err)
			}
			if s.Mode() != tt.want {
				t.Fatalf("Mode() = %s, want %s", s.Mode(), tt.want)
			}
		})
	}
}

// TestParseMode verifies mode names from configuration
func TestParseMode(t *testing.T) {
	if m, err := ParseMode(""); err != nil || m != ModeStealing {
		t.Fatalf("ParseMode(\"\") = (%s, %v), want stealing", m, err)
	}
	if m, err := ParseMode("shared"); err != nil || m != ModeShared {
		t.Fatalf("ParseMode(shared) = (%s, %v), want shared", m, err)
	}
	if _, err := ParseMode("lifo"); err == nil {
		t.Fatal("ParseMode(lifo) should fail")
	}
}

// TestWorkerContext_Owns verifies pool identity checks
// Given: A worker context built for one owner
// When: Owns is asked about that owner, another owner and a nil context
// Then: Only the matching owner is reported
func TestWorkerContext_Owns(t *testing.T) {
	a, b := new(int), new(int)
	wc := NewWorkerContext(a, 0)

	if !wc.Owns(a) {
		t.Fatal("Owns(a) = false, want true")
	}
	if wc.Owns(b) {
		t.Fatal("Owns(b) = true, want false")
	}
	var none *WorkerContext
	if none.Owns(a) {
		t.Fatal("nil WorkerContext should own nothing")
	}
	if WorkerFromContext(context.Background()) != nil {
		t.Fatal("plain context should carry no worker")
	}
}

// TestTaskSource_String verifies source labels used in metrics
func TestTaskSource_String(t *testing.T) {
	cases := map[TaskSource]string{
		SourceLocal:    "local",
		SourceGlobal:   "global",
		SourceStolen:   "stolen",
		TaskSource(42): "unknown",
	}
	for src, want := range cases {
		if got := src.String(); got != want {
			t.Errorf("TaskSource(%d).String() = %q, want %q", src, got, want)
		}
	}
}
