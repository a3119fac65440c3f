package proc

import (
	"testing"

	"stridekernel/config"
	"stridekernel/sched"
)

func testKernel() *Kernel {
	return NewKernel(config.Default(), func([]byte) (int, error) { return 0, nil }, func(b []byte) (int, error) { return len(b), nil })
}

func TestBankerRefusesCircularWait(t *testing.T) {
	p := NewBareProcess([]int{16, 16})
	p.DeadlockDetect = true
	semA := p.CreateSemaphore(1)
	semB := p.CreateSemaphore(1)

	if r := p.SemDown(semA, 0); r != SemAcquired {
		t.Fatalf("T0 down(A): expected SemAcquired, got %v", r)
	}
	if r := p.SemDown(semB, 1); r != SemAcquired {
		t.Fatalf("T1 down(B): expected SemAcquired, got %v", r)
	}
	if r := p.SemDown(semB, 0); r != SemMustBlock {
		t.Fatalf("T0 down(B): expected SemMustBlock (still safe), got %v", r)
	}
	if r := p.SemDown(semA, 1); r != SemDeadlock {
		t.Fatalf("T1 down(A): expected SemDeadlock, got %v", r)
	}
}

func TestBankerAllowsWithoutDetection(t *testing.T) {
	p := NewBareProcess([]int{16, 16})
	// DeadlockDetect left false: the same circular request pattern must
	// not be refused.
	semA := p.CreateSemaphore(1)
	semB := p.CreateSemaphore(1)
	p.SemDown(semA, 0)
	p.SemDown(semB, 1)
	if r := p.SemDown(semB, 0); r != SemMustBlock {
		t.Fatalf("expected SemMustBlock, got %v", r)
	}
	if r := p.SemDown(semA, 1); r != SemMustBlock {
		t.Fatalf("expected SemMustBlock with detection off (no refusal), got %v", r)
	}
}

func TestMutexUnlockHandoffClearsNeed(t *testing.T) {
	p := NewBareProcess([]int{16, 16})
	s := sched.New()
	mid := p.CreateMutex(true)

	if r := p.MutexLock(mid, 0); r != MutexAcquired {
		t.Fatalf("expected T0 to acquire, got %v", r)
	}
	if r := p.MutexLock(mid, 1); r != MutexMustBlock {
		t.Fatalf("expected T1 to block, got %v", r)
	}
	p.MutexUnlock(mid, 0, s)
	if p.mutexAllocation[1][mid] != 1 {
		t.Fatal("expected ownership handed directly to T1")
	}
	if p.mutexNeed[1][mid] != 0 {
		t.Fatal("expected T1's need cleared on handoff")
	}
	if p.mutexAvailable[mid] != 0 {
		t.Fatal("expected available to stay 0 across a direct handoff")
	}
}

func TestExitAndWaitLifecycle(t *testing.T) {
	k := testKernel()
	parent := NewBareProcess([]int{16})
	child := NewBareProcess([]int{16})
	child.Parent = parent
	parent.Children = append(parent.Children, child)
	k.Procs[parent.Pid] = parent
	k.Procs[child.Pid] = child
	k.InitProc = parent

	var code int
	if r := parent.Wait(k, int(child.Pid), &code); r != -2 {
		t.Fatalf("expected -2 (running child), got %d", r)
	}

	child.Threads[0].SetStatus(sched.Running)
	child.IsZombie = true
	child.ExitCode = 7

	reaped := parent.Wait(k, int(child.Pid), &code)
	if reaped != int(child.Pid) || code != 7 {
		t.Fatalf("expected reaped pid %d code 7, got pid %d code %d", child.Pid, reaped, code)
	}
	if len(parent.Children) != 0 {
		t.Fatal("expected child removed from parent's children after reap")
	}

	if r := parent.Wait(k, int(child.Pid), &code); r != -1 {
		t.Fatalf("expected -1 (no such child) on a second wait, got %d", r)
	}
}
