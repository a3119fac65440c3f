// Package timer is the §6 timer collaborator: get_time_ms/get_time_us
// and add_timer(expire_ms, wake). Grounded on
// original_source/os/src/timer.rs's TIMERS binary heap (push/peek/pop by
// soonest expiry) and on the teacher's own use of golang.org/x/sync —
// biscuit's go.mod requires it for the same reason this package does:
// supervising one background goroutine with a cancellable error path,
// here the single goroutine that ticks expired timers.
package timer

import (
	"container/heap"
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// entry is one pending wake, ordered by expiry.
type entry struct {
	expireMs int64
	wake     func()
	index    int
}

type timerHeap []*entry

func (h timerHeap) Len() int            { return len(h) }
func (h timerHeap) Less(i, j int) bool  { return h[i].expireMs < h[j].expireMs }
func (h timerHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *timerHeap) Push(x interface{}) { e := x.(*entry); e.index = len(*h); *h = append(*h, e) }
func (h *timerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// Wheel is the kernel's timer collaborator: a monotonic clock plus a
// min-heap of pending wakes, ticked by a single background goroutine
// supervised through an errgroup so its (impossible, but typed) error
// path is uniform with the rest of the kernel's goroutines.
type Wheel struct {
	mu      sync.Mutex
	heap    timerHeap
	nowUs   int64
	tickUs  int64
	cancel  context.CancelFunc
	group   *errgroup.Group
}

// NewWheel returns a timer wheel that advances its clock by tickUs every
// time Tick is called (driven externally) or, once Start is called, by
// a background goroutine sleeping tickUs between ticks.
func NewWheel(tickUs int64) *Wheel {
	return &Wheel{tickUs: tickUs}
}

// GetTimeUs returns microseconds since the wheel started.
func (w *Wheel) GetTimeUs() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.nowUs
}

// GetTimeMs returns milliseconds since the wheel started.
func (w *Wheel) GetTimeMs() int64 {
	return w.GetTimeUs() / 1000
}

// AddTimer registers wake to fire at the first tick whose clock is ≥
// expireMs (spec.md §5's ordering guarantee).
func (w *Wheel) AddTimer(expireMs int64, wake func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	heap.Push(&w.heap, &entry{expireMs: expireMs, wake: wake})
}

// Tick advances the clock by one tick and fires every timer now due.
// Exposed directly so tests can drive the wheel deterministically
// without depending on wall-clock time.
func (w *Wheel) Tick() {
	w.mu.Lock()
	w.nowUs += w.tickUs
	nowMs := w.nowUs / 1000
	var due []func()
	for w.heap.Len() > 0 && w.heap[0].expireMs <= nowMs {
		e := heap.Pop(&w.heap).(*entry)
		due = append(due, e.wake)
	}
	w.mu.Unlock()
	for _, f := range due {
		f()
	}
}

// Start launches the background ticking goroutine under an errgroup
// tied to ctx; Stop cancels it. The goroutine's error return is always
// nil — Tick cannot fail — but the errgroup supervision keeps this
// package's concurrency shape consistent with the rest of the kernel's
// background work.
func (w *Wheel) Start(ctx context.Context, sleep func(tickUs int64)) {
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	g, gctx := errgroup.WithContext(ctx)
	w.group = g
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			default:
			}
			sleep(w.tickUs)
			w.Tick()
		}
	})
}

// Stop cancels the background goroutine started by Start and waits for
// it to return.
func (w *Wheel) Stop() error {
	if w.cancel == nil {
		return nil
	}
	w.cancel()
	return w.group.Wait()
}
