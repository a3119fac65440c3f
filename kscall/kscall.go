// Package kscall is the thin syscall dispatcher spec.md §6 describes:
// it validates arguments, translates user pointers through the owning
// address space, and calls straight through to proc/vm/vfs/timer. It
// carries no state of its own. Grounded on
// original_source/os/src/syscall/mod.rs's syscall() match dispatcher for
// the overall shape — one function per syscall id, returning the
// isize convention of spec.md §6 — and on biscuit's own
// kernel/syscall.go for the style of a single Dispatch entry point
// translating raw register arguments before calling into the rest of
// the kernel.
package kscall

import (
	"encoding/binary"

	"stridekernel/defs"
	"stridekernel/proc"
	"stridekernel/sched"
	"stridekernel/vfs"
	"stridekernel/vm"
)

// Args is the raw argument register file a trap handler would hand the
// dispatcher; unused slots are ignored per syscall.
type Args struct {
	A0, A1, A2 uint64
}

// Dispatch executes sysno for tid within p and returns the isize-style
// result spec.md §6 and §7 specify: ≥0 success, -1 generic failure, -2
// "not yet", -0xDEAD deadlock refusal.
func Dispatch(k *proc.Kernel, p *proc.Process, tid int, sysno defs.Err_t, a Args) int64 {
	t := p.Threads[tid]
	t.SyscallHist[sysno]++

	switch sysno {
	case defs.SysRead:
		return sysReadWrite(p, a, true)
	case defs.SysWrite:
		return sysReadWrite(p, a, false)
	case defs.SysOpen:
		return sysOpen(k, p, a)
	case defs.SysClose:
		return sysClose(p, a)
	case defs.SysFstat:
		return sysFstat(p, a)
	case defs.SysLink:
		return sysLink(k, p, a)
	case defs.SysUnlink:
		return sysUnlink(k, p, a)
	case defs.SysExit:
		p.ExitThread(k, tid, int(int64(a.A0)))
		return 0
	case defs.SysYield:
		return 0
	case defs.SysGetTime:
		return sysGetTime(k, p, a)
	case defs.SysTaskInfo:
		return sysTaskInfo(k, p, tid, a)
	case defs.SysGetpid:
		return int64(p.Pid)
	case defs.SysFork:
		child, err := p.Fork(k)
		if err != 0 {
			return int64(err)
		}
		return int64(child.Pid)
	case defs.SysExec:
		return sysExec(k, p, a)
	case defs.SysWaitpid:
		var code int
		res := p.Wait(k, int(int64(a.A0)), &code)
		if res >= 0 {
			var buf [4]byte
			binary.LittleEndian.PutUint32(buf[:], uint32(code))
			_ = p.AS.CopyOut(a.A1, buf[:])
		}
		return int64(res)
	case defs.SysSpawn:
		return sysSpawn(k, p, a)
	case defs.SysSetPriority:
		prio := int(int64(a.A0))
		if prio < 2 {
			return -1
		}
		p.Threads[tid].SetPriority(prio)
		return int64(prio)
	case defs.SysMmap:
		return sysMmap(p, a)
	case defs.SysMunmap:
		if err := p.AS.RemoveFramed(a.A0, a.A0+a.A1); err != 0 {
			return -1
		}
		return 0
	case defs.SysMutexCreate:
		return int64(p.CreateMutex(a.A0 != 0))
	case defs.SysMutexLock:
		return sysMutexLock(p, a, tid)
	case defs.SysMutexUnlock:
		p.MutexUnlock(int(a.A0), tid, k.Scheduler)
		return 0
	case defs.SysSemCreate:
		return int64(p.CreateSemaphore(int(int64(a.A0))))
	case defs.SysSemUp:
		p.SemUp(int(a.A0), tid, k.Scheduler)
		return 0
	case defs.SysSemDown:
		return sysSemDown(p, a, tid)
	case defs.SysCondvarCreate:
		return int64(p.CreateCondvar())
	case defs.SysCondvarSignal:
		p.CondvarSignal(int(a.A0), k.Scheduler)
		return 0
	case defs.SysCondvarWait:
		return int64(p.CondvarWait(int(a.A0), int(a.A1), tid, k.Scheduler))
	case defs.SysSleep:
		return sysSleep(k, t, a)
	case defs.SysEnableDeadlockDetect:
		if a.A0 != 0 && a.A0 != 1 {
			return -1
		}
		return int64(p.EnableDeadlockDetect(a.A0 == 1))
	}
	return -1
}

func sysReadWrite(p *proc.Process, a Args, isRead bool) int64 {
	fd := int(a.A0)
	if fd < 0 || fd >= len(p.Fds) || p.Fds[fd] == nil {
		return -1
	}
	f := p.Fds[fd]
	if isRead {
		buf := make([]byte, a.A2)
		n, err := f.Read(buf)
		if err != 0 {
			return -1
		}
		if cerr := p.AS.CopyOut(a.A1, buf[:n]); cerr != 0 {
			return -1
		}
		return int64(n)
	}
	buf := make([]byte, a.A2)
	if cerr := p.AS.CopyIn(a.A1, buf); cerr != 0 {
		return -1
	}
	n, err := f.Write(buf)
	if err != 0 {
		return -1
	}
	return int64(n)
}

func sysOpen(k *proc.Kernel, p *proc.Process, a Args) int64 {
	path, err := p.AS.TranslateString(a.A0)
	if err != 0 {
		return -1
	}
	f, ferr := k.Fs.OpenFile(path, vfs.OpenFlags(a.A1))
	if ferr != 0 {
		return -1
	}
	for i, slot := range p.Fds {
		if slot == nil {
			p.Fds[i] = f
			return int64(i)
		}
	}
	p.Fds = append(p.Fds, f)
	return int64(len(p.Fds) - 1)
}

func sysClose(p *proc.Process, a Args) int64 {
	fd := int(a.A0)
	if fd < 0 || fd >= len(p.Fds) || p.Fds[fd] == nil {
		return -1
	}
	p.Fds[fd].Close()
	p.Fds[fd] = nil
	return 0
}

func sysFstat(p *proc.Process, a Args) int64 {
	fd := int(a.A0)
	if fd < 0 || fd >= len(p.Fds) || p.Fds[fd] == nil {
		return -1
	}
	st, err := p.Fds[fd].Stat()
	if err != 0 {
		return -1
	}
	buf := make([]byte, 24+7*8)
	binary.LittleEndian.PutUint64(buf[0:], st.Dev)
	binary.LittleEndian.PutUint64(buf[8:], st.Ino)
	binary.LittleEndian.PutUint32(buf[16:], st.Mode)
	binary.LittleEndian.PutUint32(buf[20:], st.Nlink)
	if cerr := p.AS.CopyOut(a.A1, buf); cerr != 0 {
		return -1
	}
	return 0
}

func sysLink(k *proc.Kernel, p *proc.Process, a Args) int64 {
	oldp, err := p.AS.TranslateString(a.A0)
	if err != 0 {
		return -1
	}
	newp, err := p.AS.TranslateString(a.A1)
	if err != 0 {
		return -1
	}
	if lerr := k.Fs.Link(oldp, newp); lerr != 0 {
		return -1
	}
	return 0
}

func sysUnlink(k *proc.Kernel, p *proc.Process, a Args) int64 {
	name, err := p.AS.TranslateString(a.A0)
	if err != 0 {
		return -1
	}
	if uerr := k.Fs.Unlink(name); uerr != 0 {
		return -1
	}
	return 0
}

func sysGetTime(k *proc.Kernel, p *proc.Process, a Args) int64 {
	us := k.Timer.GetTimeUs()
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint64(buf[0:], uint64(us/1_000_000))
	binary.LittleEndian.PutUint64(buf[8:], uint64(us%1_000_000))
	if err := p.AS.CopyOut(a.A0, buf); err != 0 {
		return -1
	}
	return 0
}

// sysTaskInfo fills {status: u32, syscall_hist: [u32; NumSyscalls], time:
// u64} at a.A0, the shape spec.md §6's task_info entry calls for: status
// plus the per-syscall-id histogram plus milliseconds since first
// dispatch.
func sysTaskInfo(k *proc.Kernel, p *proc.Process, tid int, a Args) int64 {
	t := p.Threads[tid]
	buf := make([]byte, 4+4*defs.NumSyscalls+8)
	binary.LittleEndian.PutUint32(buf[0:], uint32(t.Status()))
	for i, n := range t.SyscallHist {
		binary.LittleEndian.PutUint32(buf[4+4*i:], uint32(n))
	}
	elapsed := k.Timer.GetTimeMs() - t.FirstRunMs
	binary.LittleEndian.PutUint64(buf[4+4*defs.NumSyscalls:], uint64(elapsed))
	if err := p.AS.CopyOut(a.A0, buf); err != 0 {
		return -1
	}
	return 0
}

func sysExec(k *proc.Kernel, p *proc.Process, a Args) int64 {
	path, err := p.AS.TranslateString(a.A0)
	if err != 0 {
		return -1
	}
	f, ferr := k.Fs.OpenFile(path, vfs.ORdOnly)
	if ferr != 0 {
		return -1
	}
	defer f.Close()
	image, rerr := f.ReadAll()
	if rerr != 0 {
		return -1
	}
	if eerr := p.Exec(k, image, []string{path}); eerr != 0 {
		return -1
	}
	return 0
}

func sysSpawn(k *proc.Kernel, p *proc.Process, a Args) int64 {
	path, err := p.AS.TranslateString(a.A0)
	if err != 0 {
		return -1
	}
	f, ferr := k.Fs.OpenFile(path, vfs.ORdOnly)
	if ferr != 0 {
		return -1
	}
	defer f.Close()
	image, rerr := f.ReadAll()
	if rerr != 0 {
		return -1
	}
	pid, serr := p.Spawn(k, image)
	if serr != 0 {
		return -1
	}
	return int64(pid)
}

// mmap's port encoding (spec.md §6): bit 0 read, bit 1 write, bit 2
// execute, bits 3+ must be 0, port == 0 rejected.
func sysMmap(p *proc.Process, a Args) int64 {
	port := a.A2
	if port == 0 || port&^0b111 != 0 {
		return -1
	}
	if a.A0%vm.PageSize != 0 {
		return -1
	}
	perm := defs.PermU
	if port&1 != 0 {
		perm |= defs.PermR
	}
	if port&2 != 0 {
		perm |= defs.PermW
	}
	if port&4 != 0 {
		perm |= defs.PermX
	}
	if err := p.AS.InsertFramed(a.A0, a.A0+a.A1, perm); err != 0 {
		return -1
	}
	return 0
}

func sysMutexLock(p *proc.Process, a Args, tid int) int64 {
	switch p.MutexLock(int(a.A0), tid) {
	case proc.MutexAcquired:
		return 0
	case proc.MutexDeadlock:
		return int64(defs.EDEADLK)
	default:
		return 0 // MustBlock: caller suspends tid; re-enters once woken
	}
}

func sysSemDown(p *proc.Process, a Args, tid int) int64 {
	switch p.SemDown(int(a.A0), tid) {
	case proc.SemAcquired:
		return 0
	case proc.SemDeadlock:
		return int64(defs.EDEADLK)
	default:
		return 0
	}
}

// sysSleep blocks t and registers a wake with the timer collaborator for
// the first tick at or after now+ms (spec.md §6, §9's ordering
// guarantee).
func sysSleep(k *proc.Kernel, t *proc.Thread, a Args) int64 {
	ms := int64(a.A0)
	t.SetStatus(sched.Blocked)
	target := k.Timer.GetTimeMs() + ms
	k.Timer.AddTimer(target, func() {
		k.Scheduler.Wake(t)
	})
	return 0
}
