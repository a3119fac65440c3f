package proc

import (
	"stridekernel/defs"
	"stridekernel/id"
	"stridekernel/ksync"
	"stridekernel/limits"
	"stridekernel/pagetable"
	"stridekernel/sched"
	"stridekernel/vfs"
	"stridekernel/vm"
)

// Process is a PCB (spec.md §3): an address space, a sparse fd table, a
// thread set indexed by tid, a tid recycler, three named synchronization
// resource tables, and the four banker's-algorithm matrices.
type Process struct {
	Pid Pid

	Parent   *Process   // non-owning; nil for the initial process
	Children []*Process // owning

	AS        *vm.AddressSpace
	IsZombie  bool
	ExitCode  int

	Fds []vfs.File // sparse: a nil slot is a closed fd

	Threads []*Thread // indexed by tid; a nil slot is a freed tid
	Tids    *id.Allocator

	Mutexes   []ksync.Mutex
	Semaphores []*ksync.Semaphore
	Condvars  []*ksync.Condvar

	DeadlockDetect bool

	mutexAvailable   []int
	mutexAllocation  [][]int // [tid][r]
	mutexNeed        [][]int

	semAvailable  []int
	semAllocation [][]int
	semNeed       [][]int
}

// Pid is a process id.
type Pid = defs.Pid_t

var pids = id.NewAllocator()

// NewProcess allocates a PID, builds an address space from image, gives
// the process the standard three-fd table, and creates and registers its
// main thread — spec.md §4.3's new(image).
func NewProcess(k *Kernel, image []byte) (*Process, defs.Err_t) {
	as, ustackTop, entry, trapCtxPpn, err := vm.FromImage(k.Frames, k.TrampolinePpn, image)
	if err != 0 {
		return nil, err
	}
	p := &Process{
		Pid:  Pid(pids.Alloc()),
		AS:   as,
		Tids: id.NewAllocator(),

		DeadlockDetect: k.Config.DeadlockDetectDefault,
	}
	p.Fds = []vfs.File{
		vfs.NewStdin(k.StdinRead),
		vfs.NewStdout(k.StdoutWrite),
		vfs.NewStdout(k.StdoutWrite),
	}
	t := newThread(p, p.Tids.Alloc(), ustackTop, trapCtxPpn, k.Config.DefaultPriority)
	t.ctx.RA = uintptr(entry)
	p.Threads = append(p.Threads, t)
	p.growMatricesForThread()
	k.Scheduler.Wake(t)
	k.Procs[p.Pid] = p
	k.threadLog(t).Debug("main thread woken")
	return p, 0
}

// singleThreaded reports whether the process currently has exactly one
// live thread, the precondition fork and exec both require.
func (p *Process) singleThreaded() bool {
	n := 0
	for _, t := range p.Threads {
		if t != nil {
			n++
		}
	}
	return n == 1
}

// mainThread returns the process's sole thread; callers must have
// already checked singleThreaded.
func (p *Process) mainThread() *Thread {
	for _, t := range p.Threads {
		if t != nil {
			return t
		}
	}
	return nil
}

// Fork clones the calling process under the single-thread precondition:
// a fresh address space, a shared fd table, a new PID, and a child main
// thread that reuses the parent's user-stack base with a fresh kernel
// stack. The child's trap-frame page is the copy CloneCOWFree made of
// the parent's; Fork writes no return-value register into it.
func (p *Process) Fork(k *Kernel) (*Process, defs.Err_t) {
	if !p.singleThreaded() {
		return nil, defs.EINVAL
	}
	parentMain := p.mainThread()
	childAS := vm.CloneCOWFree(p.AS, k.Frames)
	child := &Process{
		Pid:    Pid(pids.Alloc()),
		Parent: p,
		AS:     childAS,
		Tids:   id.NewAllocator(),
	}
	child.Fds = append([]vfs.File(nil), p.Fds...)
	trapVpn := pagetable.Vpn(vm.TrapContextVaFor(parentMain.tid) >> vm.PageBits)
	trapPte, ok := childAS.Table.FindPte(trapVpn)
	if !ok {
		return nil, defs.EFAULT
	}
	trapCtxPpn := trapPte.Ppn
	ct := newThread(child, child.Tids.Alloc(), parentMain.UserStackTop, trapCtxPpn, parentMain.priority)
	child.Threads = append(child.Threads, ct)
	child.growMatricesForThread()
	p.Children = append(p.Children, child)
	k.Scheduler.Wake(ct)
	k.Procs[child.Pid] = child
	return child, 0
}

// Exec replaces the calling process's address space in place under the
// single-thread precondition: a fresh address space is built from image,
// the main thread's user stack and trap-frame frame are reallocated,
// argv is pushed onto the new stack, and the main thread's saved context
// takes the new stack pointer and entry point. argc and argv_base are
// not written into any register image; the argv base PushArgv returns
// is discarded. The deadlock matrices reset to the single-row,
// zero-column form (spec.md §4.3).
func (p *Process) Exec(k *Kernel, image []byte, argv []string) defs.Err_t {
	if !p.singleThreaded() {
		return defs.EINVAL
	}
	newAS, ustackTop, entry, trapCtxPpn, err := vm.FromImage(k.Frames, k.TrampolinePpn, image)
	if err != 0 {
		return err
	}
	sp, argvBase, perr := newAS.PushArgv(ustackTop, argv)
	if perr != 0 {
		return perr
	}
	old := p.mainThread()
	old.UserStackTop = ustackTop
	old.TrapCtxPpn = trapCtxPpn
	old.ctx.SP = uintptr(sp)
	old.ctx.RA = uintptr(entry)
	_ = argvBase
	p.AS.Teardown()
	p.AS = newAS
	p.resetMatrices()
	return 0
}

// Spawn creates a sibling child process with a brand-new address space
// built from image — never copying the caller's address space (spec.md
// §4.3's spawn, distinguished from fork+exec).
func (p *Process) Spawn(k *Kernel, image []byte) (Pid, defs.Err_t) {
	child, err := NewProcess(k, image)
	if err != 0 {
		return 0, err
	}
	child.Parent = p
	p.Children = append(p.Children, child)
	return child.Pid, 0
}

// ExitThread marks tid exited; if it was the process's last live thread
// the process becomes a zombie, its children are reparented to the
// kernel's initial process, and the exiting thread's user resources are
// released. PID and frame reclamation are deferred to the parent's Wait
// (spec.md §4.3).
func (p *Process) ExitThread(k *Kernel, tid int, code int) {
	t := p.Threads[tid]
	t.SetStatus(sched.Exited)
	t.releaseUserResources()
	k.threadLog(t).Debug("thread exited")
	if !p.anyLiveThread() {
		p.IsZombie = true
		p.ExitCode = code
		for _, c := range p.Children {
			c.Parent = k.InitProc
			k.InitProc.Children = append(k.InitProc.Children, c)
		}
		p.Children = nil
		k.procLog(p).WithField("exit_code", code).Info("process became a zombie")
	}
}

func (p *Process) anyLiveThread() bool {
	for _, t := range p.Threads {
		if t != nil && t.Status() != sched.Exited {
			return true
		}
	}
	return false
}

// Wait reaps a zombie child matching pid, or any zombie child if pid is
// -1: -1 if no matching child exists at all, -2 if a match exists but
// none is currently zombie, otherwise the reaped child's pid with its
// exit code written through code (spec.md §4.3).
func (p *Process) Wait(k *Kernel, pid int, code *int) int {
	found := false
	for i, c := range p.Children {
		if pid != -1 && int(c.Pid) != pid {
			continue
		}
		found = true
		if !c.IsZombie {
			continue
		}
		*code = c.ExitCode
		reaped := int(c.Pid)
		p.Children = append(p.Children[:i], p.Children[i+1:]...)
		c.AS.Teardown()
		pids.Dealloc(int(c.Pid))
		delete(k.Procs, c.Pid)
		return reaped
	}
	if !found {
		return -1
	}
	return -2
}

// growMatricesForThread appends a zero row to every matrix for the
// thread just created — spec.md §9's "matrices grow ... on thread
// create", zeroed in every column.
func (p *Process) growMatricesForThread() {
	p.mutexAllocation = append(p.mutexAllocation, make([]int, len(p.mutexAvailable)))
	p.mutexNeed = append(p.mutexNeed, make([]int, len(p.mutexAvailable)))
	p.semAllocation = append(p.semAllocation, make([]int, len(p.semAvailable)))
	p.semNeed = append(p.semNeed, make([]int, len(p.semAvailable)))
}

// resetMatrices drops every resource column and collapses the matrices
// back to a single zero-column row per live thread, exec's reset
// (spec.md §4.3).
func (p *Process) resetMatrices() {
	p.Mutexes = nil
	p.Semaphores = nil
	p.Condvars = nil
	p.mutexAvailable = nil
	p.mutexAllocation = make([][]int, len(p.Threads))
	p.mutexNeed = make([][]int, len(p.Threads))
	p.semAvailable = nil
	p.semAllocation = make([][]int, len(p.Threads))
	p.semNeed = make([][]int, len(p.Threads))
}

// CreateThread starts a new thread in the calling process with its own
// user stack and trap frame, registers it with the scheduler, and grows
// the deadlock matrices by one row. The syscall table has no explicit
// thread_create entry, but spec.md §3's "a set of threads" per process
// and the per-tid deadlock-matrix rows require one; this is that
// supplemented operation (see SPEC_FULL.md).
func (p *Process) CreateThread(k *Kernel, entry uint64) (int, defs.Err_t) {
	if len(p.liveThreads()) >= limits.Syslimit.MaxThreadsPerProc {
		return 0, defs.EAGAIN
	}
	stackTop, serr := p.AS.AllocThreadStack()
	if serr != 0 {
		return 0, serr
	}
	tid := p.Tids.Alloc()
	trapCtxPpn, terr := p.AS.MapTrapContext(tid)
	if terr != 0 {
		return 0, terr
	}
	t := newThread(p, tid, stackTop, trapCtxPpn, k.Config.DefaultPriority)
	t.ctx.RA = uintptr(entry)
	for tid >= len(p.Threads) {
		p.Threads = append(p.Threads, nil)
	}
	p.Threads[tid] = t
	p.growMatricesForThread()
	k.Scheduler.Wake(t)
	return tid, 0
}

func (p *Process) liveThreads() []*Thread {
	var out []*Thread
	for _, t := range p.Threads {
		if t != nil && t.Status() != sched.Exited {
			out = append(out, t)
		}
	}
	return out
}
