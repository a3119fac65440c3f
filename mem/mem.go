// Package mem is the frame-allocator collaborator spec.md §6 names:
// "a frame allocator with alloc_frame()/dealloc_frame(ppn)". biscuit's
// own mem package (biscuit/src/mem/mem.go) wraps a real physical memory
// map and a direct-map window (Physmem, Dmap); here the collaborator is
// simulated with host memory standing in for physical frames, since the
// bootstrap/physical-memory-discovery glue is explicitly out of scope
// (spec.md §1). The page-sized byte slice each Ppn backs is exactly what
// biscuit's Pg2bytes/Dmap pair returns to callers in vm/as.go.
package mem

import (
	"fmt"
	"sync"
)

// PageSize is the architecture's page size in bytes.
const PageSize = 4096

// Ppn is a physical page number (frame index).
type Ppn uint64

// Allocator hands out zero-filled page-sized frames and reclaims them.
// It is the concrete implementation of the §6 frame-allocator contract
// stated by the FrameAllocator interface below; the vm and proc packages
// take this concrete *Allocator type, not the interface.
type Allocator struct {
	mu     sync.Mutex
	frames map[Ppn][]byte
	next   Ppn
	free   []Ppn
}

// FrameAllocator is the §6 collaborator contract.
type FrameAllocator interface {
	AllocFrame() (Ppn, error)
	DeallocFrame(Ppn)
	Frame(Ppn) []byte
}

// NewAllocator returns an empty host-backed frame pool.
func NewAllocator() *Allocator {
	return &Allocator{frames: make(map[Ppn][]byte)}
}

// AllocFrame returns a fresh zeroed frame, reusing a freed one first.
func (a *Allocator) AllocFrame() (Ppn, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var p Ppn
	if n := len(a.free); n > 0 {
		p = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		p = a.next
		a.next++
	}
	a.frames[p] = make([]byte, PageSize)
	return p, nil
}

// DeallocFrame releases a frame back to the pool. Deallocating a frame
// not currently allocated is a kernel bug and panics, matching spec.md
// §7's "Fatal ... double-free frame" case.
func (a *Allocator) DeallocFrame(p Ppn) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.frames[p]; !ok {
		panic(fmt.Sprintf("mem: double free of frame %d", p))
	}
	delete(a.frames, p)
	a.free = append(a.free, p)
}

// Frame returns the live byte slice backing p. Callers treat this the
// way biscuit's vm package treats the result of mem.Physmem.Dmap: a
// direct, mutable window onto the frame's bytes.
func (a *Allocator) Frame(p Ppn) []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	f, ok := a.frames[p]
	if !ok {
		panic(fmt.Sprintf("mem: access to unmapped frame %d", p))
	}
	return f
}
