// sync.go wires ksync's primitives into the per-process deadlock-
// detection bookkeeping the syscall layer drives: create/lock/unlock for
// mutexes, create/up/down for semaphores, create/signal/wait for
// condvars, each updating the banker's-algorithm matrices exactly as
// spec.md §4.4 specifies.
package proc

import (
	"stridekernel/defs"
	"stridekernel/ksync"
	"stridekernel/sched"
)

// CreateMutex appends a new mutex resource (blocking if blocking is
// true, else a spin mutex), growing the matrices by one column:
// available starts at 1, every thread's allocation/need start at 0
// (spec.md §9, "columns are appended on create and zeroed").
func (p *Process) CreateMutex(blocking bool) int {
	var m ksync.Mutex
	if blocking {
		m = ksync.NewMutexBlocking()
	} else {
		m = ksync.NewMutexSpin()
	}
	id := len(p.Mutexes)
	p.Mutexes = append(p.Mutexes, m)
	p.mutexAvailable = append(p.mutexAvailable, 1)
	for t := range p.mutexAllocation {
		p.mutexAllocation[t] = append(p.mutexAllocation[t], 0)
		p.mutexNeed[t] = append(p.mutexNeed[t], 0)
	}
	return id
}

// MutexLockResult tells the kscall dispatcher what happened so it can
// decide whether to suspend the caller.
type MutexLockResult int

const (
	MutexAcquired MutexLockResult = iota
	MutexMustBlock
	MutexDeadlock
)

// MutexLock attempts to acquire mutex id for tid. If the mutex is free
// it is acquired immediately. If held, and deadlock detection would
// refuse the wait, it returns MutexDeadlock without enqueuing the
// caller; otherwise it enqueues the caller (for MutexBlocking only —
// MutexSpin callers are expected to retry via TryLock themselves) and
// returns MutexMustBlock.
func (p *Process) MutexLock(id, tid int) MutexLockResult {
	m := p.Mutexes[id]
	if m.TryLock() {
		p.mutexAllocation[tid][id] = 1
		p.mutexAvailable[id] = 0
		p.mutexNeed[tid][id] = 0
		return MutexAcquired
	}
	if p.wouldDeadlockMutex(tid, id) {
		return MutexDeadlock
	}
	if qm, ok := m.(ksync.QueuedMutex); ok {
		qm.Enqueue(p.Threads[tid])
	}
	return MutexMustBlock
}

// MutexUnlock releases mutex id held by tid. If a waiter is queued,
// ownership transfers directly to it: allocation moves from tid to the
// waiter's tid, available stays at 0, and the waiter's need is cleared
// (spec.md §4.4's documented asymmetry — available is never incremented
// on a direct hand-off). Otherwise available returns to 1.
func (p *Process) MutexUnlock(id, tid int, s *sched.Scheduler) {
	m := p.Mutexes[id]
	var nextTid = -1
	if qm, ok := m.(ksync.QueuedMutex); ok {
		if w := qm.NextWaiter(); w != nil {
			nextTid = w.Tid()
		}
	}
	m.Unlock(s)
	p.mutexAllocation[tid][id] = 0
	if nextTid >= 0 {
		p.mutexAllocation[nextTid][id] = 1
		p.mutexNeed[nextTid][id] = 0
	} else {
		p.mutexAvailable[id] = 1
	}
}

// CreateSemaphore appends a new counting semaphore initialized to n,
// growing the matrices by one column with available=n (spec.md §4.4).
func (p *Process) CreateSemaphore(n int) int {
	id := len(p.Semaphores)
	p.Semaphores = append(p.Semaphores, ksync.NewSemaphore(n))
	p.semAvailable = append(p.semAvailable, n)
	for t := range p.semAllocation {
		p.semAllocation[t] = append(p.semAllocation[t], 0)
		p.semNeed[t] = append(p.semNeed[t], 0)
	}
	return id
}

// SemDownResult mirrors MutexLockResult for semaphores.
type SemDownResult int

const (
	SemAcquired SemDownResult = iota
	SemMustBlock
	SemDeadlock
)

// SemDown attempts to take one unit of semaphore id for tid. It peeks
// availability before touching the real semaphore: only once a unit
// isn't immediately free does it consult the deadlock detector, and
// only a safe (or immediately-available) acquire ever calls TryDown, so
// a refusal never decrements count with nothing to undo it (mirrors
// original_source/os/src/syscall/sync.rs's sys_semaphore_down, which
// calls the real down() only after the deadlock check passes).
func (p *Process) SemDown(id, tid int) SemDownResult {
	s := p.Semaphores[id]
	if s.Count() <= 0 {
		if p.wouldDeadlockSem(tid, id) {
			return SemDeadlock
		}
	}
	if s.TryDown() {
		p.semAllocation[tid][id]++
		p.semAvailable[id]--
		p.semNeed[tid][id] = 0
		return SemAcquired
	}
	s.Enqueue(p.Threads[tid])
	return SemMustBlock
}

// SemUp releases one unit of semaphore id held by tid, handing the
// credit directly to the next waiter if one exists (same asymmetry as
// MutexUnlock).
func (p *Process) SemUp(id, tid int, s2 *sched.Scheduler) {
	s := p.Semaphores[id]
	nextTid := s.PeekNextWaiterTid()
	s.Up(s2)
	p.semAllocation[tid][id]--
	if nextTid >= 0 {
		p.semAllocation[nextTid][id]++
		p.semNeed[nextTid][id] = 0
	} else {
		p.semAvailable[id]++
	}
}

// CreateCondvar appends a new condition variable; condvars carry no
// matrix column since they grant no resource, only ordering (spec.md
// §4.4 restricts the matrices to mutexes and semaphores).
func (p *Process) CreateCondvar() int {
	id := len(p.Condvars)
	p.Condvars = append(p.Condvars, ksync.NewCondvar())
	return id
}

// CondvarSignal wakes one waiter on condvar id, if any.
func (p *Process) CondvarSignal(id int, s *sched.Scheduler) {
	p.Condvars[id].Signal(s)
}

// CondvarWait releases mutex mutexID on behalf of tid, then enqueues tid
// on condvar id and blocks it; re-acquiring the mutex after wake is the
// caller's responsibility, not this call's (spec.md §4.5).
func (p *Process) CondvarWait(id, mutexID, tid int, s *sched.Scheduler) defs.Err_t {
	p.MutexUnlock(mutexID, tid, s)
	p.Condvars[id].Enqueue(p.Threads[tid])
	p.Threads[tid].SetStatus(sched.Blocked)
	return 0
}
