package proc

import "stridekernel/defs"

// bankerSafe runs spec.md §4.4's banker's-algorithm scan over available,
// allocation, and need: work starts as a copy of available; it repeatedly
// looks for an unfinished thread whose need is covered by work, folds
// that thread's allocation back into work, and marks it finished — all
// outside the inner work-update loop, fixing the two-phase bug the
// source's implementation has (flipping finish[i] inside the inner loop
// can mis-mark a thread finished before its whole allocation row has been
// folded back in; see spec.md §4.4's Open question). The scan restarts
// from the top after every thread it finishes, exactly mirroring the
// reference pseudocode's "continue".
func bankerSafe(available []int, allocation, need [][]int) bool {
	work := append([]int(nil), available...)
	finish := make([]bool, len(allocation))
	for {
		progressed := false
		for t := range allocation {
			if finish[t] {
				continue
			}
			if !needFitsWork(need[t], work) {
				continue
			}
			for r := range work {
				work[r] += allocation[t][r]
			}
			finish[t] = true
			progressed = true
			break
		}
		if !progressed {
			break
		}
	}
	for _, f := range finish {
		if !f {
			return false
		}
	}
	return true
}

func needFitsWork(need, work []int) bool {
	for r, n := range need {
		if n > work[r] {
			return false
		}
	}
	return true
}

// wouldDeadlockMutex records tid's demand for mutex r in need, runs the
// banker's scan, and rolls the demand back if the result is unsafe — the
// acquire never blocks the caller in that case (spec.md §4.4).
func (p *Process) wouldDeadlockMutex(tid, r int) bool {
	if !p.DeadlockDetect {
		return false
	}
	p.mutexNeed[tid][r] = 1
	safe := bankerSafe(p.mutexAvailable, p.mutexAllocation, p.mutexNeed)
	if !safe {
		p.mutexNeed[tid][r] = 0
	}
	return !safe
}

// wouldDeadlockSem is wouldDeadlockMutex's semaphore analogue: the
// demand recorded in need is always 1 (one more unit than the caller
// already holds), matching how down() only ever blocks needing one more
// unit at a time.
func (p *Process) wouldDeadlockSem(tid, r int) bool {
	if !p.DeadlockDetect {
		return false
	}
	p.semNeed[tid][r] = 1
	safe := bankerSafe(p.semAvailable, p.semAllocation, p.semNeed)
	if !safe {
		p.semNeed[tid][r] = 0
	}
	return !safe
}

// EnableDeadlockDetect flips the process's deadlock_detect flag; spec.md
// §6 defines no failure mode for this syscall beyond a malformed enable
// value, which the kscall layer rejects before calling this.
func (p *Process) EnableDeadlockDetect(enable bool) defs.Err_t {
	p.DeadlockDetect = enable
	return 0
}
