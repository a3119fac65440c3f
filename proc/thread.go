// Package proc implements spec.md §4.3's process/thread lifecycle and
// §3's deadlock-detection data model. Grounded on
// original_source/os/src/task/process.rs (ProcessControlBlock /
// ProcessControlBlockInner — the rCore-lab original this spec was
// distilled from) for the exact shape of the per-process bookkeeping
// tables, and on biscuit's accnt package (biscuit/src/accnt/accnt.go)
// for the per-thread accounting fields task_info needs.
package proc

import (
	"stridekernel/defs"
	"stridekernel/mem"
	"stridekernel/sched"
)

// KernelStackBytes is the simulated size of a thread's kernel stack.
// Real stack-swap assembly is out of scope (spec.md §1); the allocation
// and release discipline ("released on thread exit") is what matters
// here, not its contents.
const KernelStackBytes = 16 * 1024

// TaskContext stands in for the callee-saved register set a real
// context switch would save/restore (spec.md §9, "coroutine-shaped
// blocking"). Nothing in this module reads its fields; it exists so the
// data model matches spec.md §3 ("a saved task context") and so a future
// real context-switch implementation has somewhere to write.
type TaskContext struct {
	SP uintptr
	RA uintptr
}

// Thread is a TCB (spec.md §3).
type Thread struct {
	tid      int
	Proc     *Process
	status   sched.Status
	stride   int
	priority int
	ctx      TaskContext

	TrapCtxPpn   mem.Ppn
	UserStackTop uint64
	kernelStack  []byte

	SyscallHist [defs.NumSyscalls]int
	FirstRunMs  int64
	started     bool
}

func newThread(p *Process, tid int, userStackTop uint64, trapCtxPpn mem.Ppn, priority int) *Thread {
	return &Thread{
		tid:          tid,
		Proc:         p,
		status:       sched.UnInit,
		priority:     priority,
		TrapCtxPpn:   trapCtxPpn,
		UserStackTop: userStackTop,
		kernelStack:  make([]byte, KernelStackBytes),
	}
}

// Tid returns the thread's id, unique within its process.
func (t *Thread) Tid() int { return t.tid }

// Priority implements sched.Runnable.
func (t *Thread) Priority() int { return t.priority }

// SetPriority changes the thread's scheduling priority. p must be >= 2
// (spec.md §4.4); callers are expected to have already validated this
// via the set_priority syscall contract.
func (t *Thread) SetPriority(p int) { t.priority = p }

// Stride implements sched.Runnable.
func (t *Thread) Stride() int { return t.stride }

// SetStride implements sched.Runnable.
func (t *Thread) SetStride(s int) { t.stride = s }

// Status implements sched.Runnable.
func (t *Thread) Status() sched.Status { return t.status }

// SetStatus implements sched.Runnable.
func (t *Thread) SetStatus(s sched.Status) { t.status = s }

// MarkDispatched records the thread's first-run timestamp the first time
// it is ever fetched by the scheduler, and flips it Running. nowMs comes
// from the timer collaborator (spec.md §6).
func (t *Thread) MarkDispatched(nowMs int64) {
	if !t.started {
		t.FirstRunMs = nowMs
		t.started = true
	}
	t.status = sched.Running
}

// releaseUserResources frees the thread's user stack and trap-frame
// frame, and drops its kernel stack — spec.md §4.3's "releases user
// resources" step of exit, and §3's "both released on thread exit".
func (t *Thread) releaseUserResources() {
	if t.Proc != nil && t.Proc.AS != nil {
		_ = t.Proc.AS.FreeUserStack(t.UserStackTop)
		t.Proc.AS.UnmapTrapContext(t.tid)
	}
	t.kernelStack = nil
}
