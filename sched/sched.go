// Package sched implements spec.md §4.4's stride scheduler: a global
// FIFO-ordered set of runnable threads, fetched by smallest stride.
// Grounded directly on original_source/os/src/task/manager.rs's
// TaskManager (the rCore-lab original this spec was distilled from),
// including the documented O(n) linear scan and lower-index tie-break;
// BIG_STRIDE/priority is added to the winner's stride on selection, not
// on dispatch-return, matching the Rust original exactly.
package sched

// Status is a thread's scheduling state (spec.md §3).
type Status int

const (
	UnInit Status = iota
	Ready
	Running
	Blocked
	Exited
)

// BigStride is the fixed large constant stride scheduling advances
// against; spec.md §4.4 calls out 0x100000 as a typical value.
const BigStride = 0x100000

// Runnable is anything the scheduler can track: a thread control block
// exposing the handful of fields the stride algorithm touches. sched
// depends on nothing from proc; proc.Thread implements this interface,
// keeping the dependency one-directional.
type Runnable interface {
	Tid() int
	Priority() int
	Stride() int
	SetStride(int)
	Status() Status
	SetStatus(Status)
}

// Scheduler holds the global ready set, ordered by insertion (FIFO)
// with ties among equal-stride candidates broken by scan order —
// equivalently, by earliest insertion among the current members.
type Scheduler struct {
	ready []Runnable
}

// New returns an empty scheduler.
func New() *Scheduler {
	return &Scheduler{}
}

// Add inserts t at the tail of the ready set.
func (s *Scheduler) Add(t Runnable) {
	s.ready = append(s.ready, t)
}

// Fetch scans the whole ready set, removes and returns the Ready thread
// with the smallest stride (ties broken by lower scan index), having
// first advanced its stride by BigStride/priority. Returns nil if no
// thread is ready.
func (s *Scheduler) Fetch() Runnable {
	idx := -1
	var minStride int
	for i, t := range s.ready {
		if t.Status() != Ready {
			continue
		}
		if idx == -1 || t.Stride() < minStride {
			idx = i
			minStride = t.Stride()
		}
	}
	if idx == -1 {
		return nil
	}
	t := s.ready[idx]
	t.SetStride(t.Stride() + BigStride/t.Priority())
	s.ready = append(s.ready[:idx], s.ready[idx+1:]...)
	return t
}

// Wake marks t Ready and re-adds it to the tail of the ready set. Every
// primitive in ksync that unblocks a waiter does so through Wake, which
// is what makes wake-up FIFO (spec.md §5).
func (s *Scheduler) Wake(t Runnable) {
	t.SetStatus(Ready)
	s.Add(t)
}

// Len reports how many threads currently sit in the ready set,
// regardless of status.
func (s *Scheduler) Len() int {
	return len(s.ready)
}
