package sched

import "testing"

type fakeRunnable struct {
	tid      int
	priority int
	stride   int
	status   Status
}

func (f *fakeRunnable) Tid() int          { return f.tid }
func (f *fakeRunnable) Priority() int     { return f.priority }
func (f *fakeRunnable) Stride() int       { return f.stride }
func (f *fakeRunnable) SetStride(s int)   { f.stride = s }
func (f *fakeRunnable) Status() Status    { return f.status }
func (f *fakeRunnable) SetStatus(s Status) { f.status = s }

func TestFetchPicksSmallestStride(t *testing.T) {
	s := New()
	a := &fakeRunnable{tid: 0, priority: 2, status: Ready}
	b := &fakeRunnable{tid: 1, priority: 4, status: Ready}
	s.Add(a)
	s.Add(b)

	r := s.Fetch()
	if r.Tid() != 0 {
		t.Fatalf("expected tid 0 (tied stride 0, lower index), got %d", r.Tid())
	}
	if a.stride != BigStride/2 {
		t.Fatalf("expected stride advanced by BigStride/priority, got %d", a.stride)
	}
}

func TestFairnessRatio(t *testing.T) {
	s := New()
	a := &fakeRunnable{tid: 0, priority: 2, status: Ready}
	b := &fakeRunnable{tid: 1, priority: 4, status: Ready}
	s.Add(a)
	s.Add(b)

	counts := map[int]int{}
	for i := 0; i < 6000; i++ {
		r := s.Fetch()
		counts[r.Tid()]++
		s.Wake(r)
	}
	ratio := float64(counts[1]) / float64(counts[0])
	if ratio < 1.9 || ratio > 2.1 {
		t.Fatalf("stride fairness ratio out of range: %.3f (counts=%v)", ratio, counts)
	}
}

func TestFetchSkipsNonReady(t *testing.T) {
	s := New()
	a := &fakeRunnable{tid: 0, priority: 2, status: Blocked}
	b := &fakeRunnable{tid: 1, priority: 2, status: Ready}
	s.Add(a)
	s.Add(b)

	r := s.Fetch()
	if r.Tid() != 1 {
		t.Fatalf("expected the only Ready thread (tid 1), got %d", r.Tid())
	}
}

func TestFetchEmptyReturnsNil(t *testing.T) {
	s := New()
	if r := s.Fetch(); r != nil {
		t.Fatalf("expected nil from an empty scheduler, got %v", r)
	}
}
