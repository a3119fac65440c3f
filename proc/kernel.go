package proc

import (
	"github.com/sirupsen/logrus"

	"stridekernel/config"
	"stridekernel/defs"
	"stridekernel/klog"
	"stridekernel/mem"
	"stridekernel/sched"
	"stridekernel/timer"
	"stridekernel/vfs"
)

// Kernel ties every collaborator together: the global scheduler, the
// physical frame allocator, the process table, the trampoline frame
// shared by every address space, boot configuration, and the logger.
// Grounded on original_source/os/src/task/manager.rs's PROCESSOR/
// TASK_MANAGER globals, collapsed into one struct instead of several
// package-level statics so a test can stand up more than one kernel.
type Kernel struct {
	Scheduler *sched.Scheduler
	Frames    *mem.Allocator
	Config    config.Boot
	Log       *logrus.Logger

	TrampolinePpn mem.Ppn

	Procs    map[Pid]*Process
	InitProc *Process

	Fs    *vfs.MemFS
	Timer *timer.Wheel

	StdinRead   func([]byte) (int, error)
	StdoutWrite func([]byte) (int, error)
}

// NewKernel wires up a fresh kernel: a scheduler, a frame allocator with
// its one trampoline frame already claimed, and an empty process table.
// stdinRead/stdoutWrite are the host-side console hooks the VFS
// collaborator's Stdin/Stdout consoles call through.
func NewKernel(cfg config.Boot, stdinRead func([]byte) (int, error), stdoutWrite func([]byte) (int, error)) *Kernel {
	frames := mem.NewAllocator()
	trampPpn, _ := frames.AllocFrame()
	return &Kernel{
		Scheduler:     sched.New(),
		Frames:        frames,
		Config:        cfg,
		Log:           klog.New(),
		TrampolinePpn: trampPpn,
		Procs:         make(map[Pid]*Process),
		Fs:            vfs.NewMemFS(),
		Timer:         timer.NewWheel(int64(cfg.TimeSliceMs) * 1000),
		StdinRead:     stdinRead,
		StdoutWrite:   stdoutWrite,
	}
}

// Boot creates the initial process from image and registers it as
// InitProc, the reparent target for every orphaned child (spec.md §9).
func (k *Kernel) Boot(image []byte) (*Process, defs.Err_t) {
	p, err := NewProcess(k, image)
	if err != 0 {
		return nil, err
	}
	k.InitProc = p
	k.procLog(p).Info("booted initial process")
	return p, 0
}

// Run drives the scheduler to completion: fetch the next Ready thread,
// mark it dispatched, and let the caller-supplied step function execute
// one slice of it. Stops when nothing is Ready. Grounded on
// original_source/os/src/task/processor.rs's run_tasks loop, reshaped
// around a caller-driven step since this kernel has no real trap-return
// assembly to resume into.
func (k *Kernel) Run(nowMs int64, step func(p *Process, t *Thread)) {
	for {
		r := k.Scheduler.Fetch()
		if r == nil {
			return
		}
		t := r.(*Thread)
		t.MarkDispatched(nowMs)
		step(t.Proc, t)
	}
}

// Log entry helpers, matching the teacher's per-pid/per-tid structured
// logging convention (klog.Proc/klog.Thread).
func (k *Kernel) procLog(p *Process) *logrus.Entry  { return klog.Proc(k.Log, int(p.Pid)) }
func (k *Kernel) threadLog(t *Thread) *logrus.Entry { return klog.Thread(k.Log, int(t.Proc.Pid), t.tid) }
