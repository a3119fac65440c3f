// Package ksync implements spec.md §4.5's synchronization primitives:
// spin and blocking mutexes, counting semaphores, and condition
// variables. Grounded on original_source/os/src/sync/semaphore.rs for
// the Semaphore shape (count + wait_queue, get_next_queue_id) and on
// biscuit's own concurrency style (sync.Mutex-embedding types such as
// fd.Cwd_t in biscuit/src/fd/fd.go) for naming conventions. The wake
// path goes through a sched.Scheduler so every unblock is FIFO and
// scheduler-visible, matching spec.md §5's ordering guarantee.
package ksync

import "stridekernel/sched"

// Waiter is anything that can sit in a primitive's wait queue: a thread
// the scheduler already knows how to track.
type Waiter = sched.Runnable

// Mutex is the interface proc's deadlock-aware lock/unlock syscalls
// drive, satisfied by both MutexSpin and MutexBlocking so the banker's
// algorithm bookkeeping in proc does not need to know which variant a
// given mutex id names — exactly mirroring the Rust original's `dyn
// Mutex` trait object (original_source/os/src/task/process.rs).
type Mutex interface {
	TryLock() bool
	Unlock(*sched.Scheduler)
	Locked() bool
}

// QueuedMutex additionally exposes a FIFO waiter queue; only
// MutexBlocking implements it; MutexSpin's lock has no waiters to
// inspect since a spinner never blocks on a queue.
type QueuedMutex interface {
	Mutex
	Enqueue(Waiter)
	NextWaiter() Waiter
}

// MutexSpin busy-yields via the caller-supplied yield callback until the
// owner bit clears; it keeps no waiter list (spec.md §4.5).
type MutexSpin struct {
	locked bool
}

// NewMutexSpin returns an unlocked spin mutex.
func NewMutexSpin() *MutexSpin { return &MutexSpin{} }

// Lock acquires the mutex, calling yield (expected to be
// suspend_current) each time it finds the mutex held.
func (m *MutexSpin) Lock(yield func()) {
	for m.locked {
		yield()
	}
	m.locked = true
}

// TryLock attempts to acquire the mutex without blocking, satisfying the
// Mutex interface. proc's MutexLock calls TryLock once and reports
// MutexMustBlock when it fails; retrying is left to its caller.
func (m *MutexSpin) TryLock() bool {
	if m.locked {
		return false
	}
	m.locked = true
	return true
}

// Unlock releases the mutex. The *sched.Scheduler parameter is unused —
// a spin mutex keeps no waiter list to wake — but is present so
// MutexSpin satisfies the same Mutex interface as MutexBlocking.
func (m *MutexSpin) Unlock(*sched.Scheduler) {
	m.locked = false
}

// Locked reports whether the mutex is currently held, for deadlock
// bookkeeping callers that need to decide whether an acquire would
// block without actually blocking.
func (m *MutexSpin) Locked() bool { return m.locked }

// MutexBlocking holds a locked flag and a FIFO waiter queue
// (spec.md §4.5). lock/unlock never spin; the caller decides whether to
// block the current thread based on TryLock's result.
type MutexBlocking struct {
	locked bool
	queue  []Waiter
}

// NewMutexBlocking returns an unlocked blocking mutex.
func NewMutexBlocking() *MutexBlocking { return &MutexBlocking{} }

// Locked reports whether the mutex is currently held.
func (m *MutexBlocking) Locked() bool { return m.locked }

// TryLock attempts to acquire the mutex without blocking. It returns
// true on success (the caller now holds the mutex); on failure the
// caller must push itself via Enqueue and then block.
func (m *MutexBlocking) TryLock() bool {
	if m.locked {
		return false
	}
	m.locked = true
	return true
}

// Enqueue pushes w onto the wait queue. Called by the caller after a
// failed TryLock, just before it blocks itself.
func (m *MutexBlocking) Enqueue(w Waiter) {
	m.queue = append(m.queue, w)
}

// NextWaiter returns the head of the wait queue without removing it, or
// nil if empty — the Go analogue of peek_next_waiter_tid, used by the
// syscall layer to move allocation credit to the thread about to be
// woken before Unlock actually wakes it.
func (m *MutexBlocking) NextWaiter() Waiter {
	if len(m.queue) == 0 {
		return nil
	}
	return m.queue[0]
}

// Unlock pops one waiter and wakes it via s, handing ownership directly
// to it without ever marking the mutex unlocked in between; if no
// waiter exists, it clears locked. This is spec.md §9's documented
// intentional asymmetry: available is not incremented when handing off
// to a waiter, since ownership transfers directly.
func (m *MutexBlocking) Unlock(s *sched.Scheduler) {
	if len(m.queue) == 0 {
		m.locked = false
		return
	}
	w := m.queue[0]
	m.queue = m.queue[1:]
	s.Wake(w)
}
