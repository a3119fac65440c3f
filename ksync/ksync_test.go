package ksync

import (
	"testing"

	"stridekernel/sched"
)

type fakeWaiter struct {
	tid    int
	status sched.Status
}

func (f *fakeWaiter) Tid() int               { return f.tid }
func (f *fakeWaiter) Priority() int          { return 16 }
func (f *fakeWaiter) Stride() int            { return 0 }
func (f *fakeWaiter) SetStride(int)          {}
func (f *fakeWaiter) Status() sched.Status   { return f.status }
func (f *fakeWaiter) SetStatus(s sched.Status) { f.status = s }

func TestMutexBlockingHandoff(t *testing.T) {
	s := sched.New()
	m := NewMutexBlocking()
	if !m.TryLock() {
		t.Fatal("expected first TryLock to succeed")
	}
	w := &fakeWaiter{tid: 1, status: sched.Blocked}
	m.Enqueue(w)

	m.Unlock(s)
	if !m.Locked() {
		t.Fatal("expected ownership to transfer directly to the waiter, leaving the mutex locked")
	}
	if w.Status() != sched.Ready {
		t.Fatal("expected the waiter to be woken Ready")
	}
}

func TestSemaphoreUpDownCredit(t *testing.T) {
	s := sched.New()
	sem := NewSemaphore(1)
	if !sem.TryDown() {
		t.Fatal("expected first TryDown to succeed")
	}
	if sem.TryDown() {
		t.Fatal("expected second TryDown to fail (count goes negative)")
	}
	w := &fakeWaiter{tid: 2, status: sched.Blocked}
	sem.Enqueue(w)
	if got := sem.PeekNextWaiterTid(); got != 2 {
		t.Fatalf("expected peek to return tid 2, got %d", got)
	}
	sem.Up(s)
	if w.Status() != sched.Ready {
		t.Fatal("expected Up to wake the queued waiter")
	}
}

func TestCondvarFIFO(t *testing.T) {
	s := sched.New()
	cv := NewCondvar()
	w1 := &fakeWaiter{tid: 1, status: sched.Blocked}
	w2 := &fakeWaiter{tid: 2, status: sched.Blocked}
	w3 := &fakeWaiter{tid: 3, status: sched.Blocked}
	cv.Enqueue(w1)
	cv.Enqueue(w2)
	cv.Enqueue(w3)

	var order []int
	s2 := s
	for range []*fakeWaiter{w1, w2, w3} {
		cv.Signal(s2)
		// the woken waiter is the only Ready entry in s2, so Fetch
		// returns exactly the thread this Signal woke
		if r := s2.Fetch(); r != nil {
			order = append(order, r.Tid())
		}
	}
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("expected FIFO wake order [1 2 3], got %v", order)
	}
}
