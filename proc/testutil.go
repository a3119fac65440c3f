package proc

import (
	"stridekernel/defs"
	"stridekernel/id"
)

// NewBareProcess builds a process with len(priorities) threads and no
// backing address space, for driving the scheduler and synchronization
// primitives directly without an ELF image — used by the scenario demos
// in cmd/stridekernel and by this package's own tests, the same role
// biscuit's test-only constructors play for its accnt/fd packages. The
// pid is drawn from the same recycling allocator NewProcess uses, so a
// bare process can be passed through Wait bookkeeping exactly like a
// real one. Fork clones the address space, so a bare process, whose AS
// is nil, cannot be forked.
func NewBareProcess(priorities []int) *Process {
	p := &Process{
		Pid:  defs.Pid_t(pids.Alloc()),
		Tids: id.NewAllocator(),
	}
	for _, prio := range priorities {
		tid := p.Tids.Alloc()
		t := newThread(p, tid, 0, 0, prio)
		p.Threads = append(p.Threads, t)
		p.growMatricesForThread()
	}
	return p
}
