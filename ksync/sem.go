package ksync

import "stridekernel/sched"

// Semaphore is a counting semaphore with a FIFO waiter queue, grounded
// directly on original_source/os/src/sync/semaphore.rs's Semaphore:
// count is decremented/incremented eagerly by down/up, and a thread only
// blocks once count has gone negative.
type Semaphore struct {
	count int
	queue []Waiter
}

// NewSemaphore returns a semaphore initialized to n.
func NewSemaphore(n int) *Semaphore {
	return &Semaphore{count: n}
}

// Count returns the current (possibly negative) count.
func (s *Semaphore) Count() int { return s.count }

// TryDown decrements count and reports whether the caller now holds the
// resource (count stayed >= 0) or must block (count went negative, in
// which case the caller must Enqueue itself before blocking).
func (s *Semaphore) TryDown() bool {
	s.count--
	return s.count >= 0
}

// Enqueue pushes w onto the wait queue after a TryDown that required
// blocking.
func (s *Semaphore) Enqueue(w Waiter) {
	s.queue = append(s.queue, w)
}

// PeekNextWaiterTid returns the head waiter's tid, or -1 if the queue is
// empty — exactly spec.md §4.5's peek_next_waiter_tid, used by the
// syscall layer to move allocation credit to the thread about to be
// unblocked.
func (s *Semaphore) PeekNextWaiterTid() int {
	if len(s.queue) == 0 {
		return -1
	}
	return s.queue[0].Tid()
}

// Up increments count and, if a waiter is still owed the resource (count
// is still <= 0 after the increment), pops and wakes the head waiter via
// s2.
func (s *Semaphore) Up(s2 *sched.Scheduler) {
	s.count++
	if s.count <= 0 && len(s.queue) > 0 {
		w := s.queue[0]
		s.queue = s.queue[1:]
		s2.Wake(w)
	}
}

// Condvar wakes waiters FIFO; wait itself only enqueues and blocks —
// mutex release/reacquisition happens in the caller, not here, matching
// spec.md §4.5 exactly (the Rust original's Condvar::wait is identical).
type Condvar struct {
	queue []Waiter
}

// NewCondvar returns an empty condition variable.
func NewCondvar() *Condvar { return &Condvar{} }

// Enqueue pushes w onto the condvar's wait queue; the caller is
// responsible for having already released the associated mutex and for
// blocking itself immediately after.
func (c *Condvar) Enqueue(w Waiter) {
	c.queue = append(c.queue, w)
}

// Signal pops one waiter and wakes it via s, or is a no-op if the queue
// is empty.
func (c *Condvar) Signal(s *sched.Scheduler) {
	if len(c.queue) == 0 {
		return
	}
	w := c.queue[0]
	c.queue = c.queue[1:]
	s.Wake(w)
}
