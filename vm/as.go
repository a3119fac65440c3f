// Package vm implements spec.md §4.1's Address Space component: per-
// process virtual memory built from framed and identical map areas over
// the pagetable/mem collaborators. Grounded on biscuit's Vm_t
// (biscuit/src/vm/as.go) for the overall shape — a region list plus a
// page table, with translate helpers mediating all user-pointer access
// so the syscall layer never dereferences user memory directly — but
// generalized from biscuit's single x86-64 address space to spec.md's
// ordered collection of disjoint, permission-tagged map areas.
package vm

import (
	"fmt"

	"stridekernel/defs"
	"stridekernel/mem"
	"stridekernel/pagetable"
	"stridekernel/util"
)

// PageSize and PageBits describe the architecture's page granularity.
const (
	PageSize = mem.PageSize
	PageBits = 12
	PageMask = PageSize - 1
)

// Layout of the two reserved high pages every user address space
// carries: the trampoline (identically mapped, shared code) and the
// trap frame (framed, one page, holding the user register image).
const (
	MaxVa         = uint64(1) << 38
	TrampolineVa  = MaxVa - PageSize
	TrapContextVa = TrampolineVa - PageSize
)

// DefaultUserStackPages is the size of a thread's user stack in pages,
// not counting its guard page.
const DefaultUserStackPages = 4

// MapType distinguishes a kernel window shared verbatim (Identical)
// from a user region backed by freshly allocated, owned frames
// (Framed), matching spec.md §3's Address Space data model.
type MapType int

const (
	Framed MapType = iota
	Identical
)

// MapArea is a half-open virtual-page range plus permission bits and a
// map type. Framed areas own their frames; dropping the area (via
// RemoveFramed or address-space teardown) releases them.
type MapArea struct {
	VpnStart pagetable.Vpn
	VpnEnd   pagetable.Vpn // exclusive
	Perm     int
	Typ      MapType
	frames   map[pagetable.Vpn]mem.Ppn // owned frames, Framed only
}

func (m *MapArea) contains(vpn pagetable.Vpn) bool {
	return vpn >= m.VpnStart && vpn < m.VpnEnd
}

func (m *MapArea) overlaps(other *MapArea) bool {
	return m.VpnStart < other.VpnEnd && other.VpnStart < m.VpnEnd
}

// AddressSpace is a process's virtual memory: an ordered collection of
// map areas plus the root page table they are installed into.
type AddressSpace struct {
	Areas []*MapArea
	Table *pagetable.Table
	alloc *mem.Allocator

	// nextStackTop is where the next thread's user stack will be
	// installed by AllocThreadStack; FromImage seeds it just above the
	// main thread's own stack.
	nextStackTop uint64
}

// New returns an empty address space backed by alloc.
func New(alloc *mem.Allocator) *AddressSpace {
	return &AddressSpace{Table: pagetable.New(), alloc: alloc}
}

// Token returns the opaque handle identifying this address space to the
// translation helpers.
func (as *AddressSpace) Token() uintptr { return as.Table.Token() }

func pageRound(vstart, vend uint64) (pagetable.Vpn, pagetable.Vpn) {
	s := util.Rounddown(vstart, uint64(PageSize))
	e := util.Roundup(vend, uint64(PageSize))
	return pagetable.Vpn(s >> PageBits), pagetable.Vpn(e >> PageBits)
}

// insertArea maps every vpn in [start,end) over freshly allocated frames,
// whatever typ says, and appends the resulting area. Identical mappings
// of existing frames are installed by MapTrampoline instead.
func (as *AddressSpace) insertArea(start, end pagetable.Vpn, perm int, typ MapType) (*MapArea, defs.Err_t) {
	area := &MapArea{VpnStart: start, VpnEnd: end, Perm: perm, Typ: typ, frames: map[pagetable.Vpn]mem.Ppn{}}
	for _, other := range as.Areas {
		if area.overlaps(other) {
			return nil, defs.EEXIST
		}
	}
	for vpn := start; vpn < end; vpn++ {
		if _, ok := as.Table.FindPte(vpn); ok {
			return nil, defs.EEXIST
		}
	}
	for vpn := start; vpn < end; vpn++ {
		ppn, err := as.alloc.AllocFrame()
		if err != nil {
			// roll back the frames already claimed for this area
			for v, p := range area.frames {
				as.alloc.DeallocFrame(p)
				delete(area.frames, v)
			}
			return nil, defs.ENOMEM
		}
		area.frames[vpn] = ppn
		as.Table.Map(vpn, ppn, perm)
	}
	as.Areas = append(as.Areas, area)
	return area, 0
}

// InsertFramed rounds vstart down and vend up to page boundaries and
// installs a fresh framed area with perm, refusing if any VPN in the
// range already has a valid PTE (spec.md §4.1).
func (as *AddressSpace) InsertFramed(vstart, vend uint64, perm int) defs.Err_t {
	s, e := pageRound(vstart, vend)
	_, err := as.insertArea(s, e, perm, Framed)
	return err
}

// RemoveFramed unmaps every VPN in [vstart,vend); every VPN must
// currently be mapped or the call fails without releasing any mapping
// (spec.md §4.1: validate before mutating).
func (as *AddressSpace) RemoveFramed(vstart, vend uint64) defs.Err_t {
	s, e := pageRound(vstart, vend)
	idx := -1
	for i, a := range as.Areas {
		if a.VpnStart == s && a.VpnEnd == e && a.Typ == Framed {
			idx = i
			break
		}
	}
	if idx == -1 {
		return defs.ENOENT
	}
	area := as.Areas[idx]
	for vpn := s; vpn < e; vpn++ {
		if _, ok := as.Table.FindPte(vpn); !ok {
			return defs.ENOENT
		}
	}
	for vpn := s; vpn < e; vpn++ {
		as.Table.Unmap(vpn)
		as.alloc.DeallocFrame(area.frames[vpn])
	}
	as.Areas = append(as.Areas[:idx], as.Areas[idx+1:]...)
	return 0
}

// mapFixed installs a single-page framed area at a fixed VA (used for
// the per-thread trap-frame pages), returning the frame backing it.
func (as *AddressSpace) mapFixed(va uint64, perm int) (mem.Ppn, defs.Err_t) {
	vpn := pagetable.Vpn(va >> PageBits)
	ppn, err := as.alloc.AllocFrame()
	if err != nil {
		return 0, defs.ENOMEM
	}
	as.Table.Map(vpn, ppn, perm)
	area := &MapArea{VpnStart: vpn, VpnEnd: vpn + 1, Perm: perm, Typ: Framed, frames: map[pagetable.Vpn]mem.Ppn{vpn: ppn}}
	as.Areas = append(as.Areas, area)
	return ppn, 0
}

// MapTrampoline shares a single identically-mapped page across every
// address space at TrampolineVa, backed by ppn (the trampoline's one
// physical frame, allocated once by the kernel at boot).
func (as *AddressSpace) MapTrampoline(ppn mem.Ppn) {
	vpn := pagetable.Vpn(TrampolineVa >> PageBits)
	as.Table.Map(vpn, ppn, defs.PermR|defs.PermX)
	as.Areas = append(as.Areas, &MapArea{VpnStart: vpn, VpnEnd: vpn + 1, Perm: defs.PermR | defs.PermX, Typ: Identical})
}

// TrapContextVaFor returns the trap-frame page's virtual address for
// the thread with the given tid within its process: each thread gets
// its own page below TrampolineVa, indexed by tid, so a
// multi-threaded process's threads never share a trap frame.
func TrapContextVaFor(tid int) uint64 {
	return TrapContextVa - uint64(tid)*PageSize
}

// MapTrapContext allocates and maps tid's one-page trap frame,
// returning the frame so callers can install the initial register
// image.
func (as *AddressSpace) MapTrapContext(tid int) (mem.Ppn, defs.Err_t) {
	return as.mapFixed(TrapContextVaFor(tid), defs.PermR|defs.PermW)
}

// UnmapTrapContext releases tid's trap-frame page, used when a
// thread's user resources are released at exit.
func (as *AddressSpace) UnmapTrapContext(tid int) {
	vpn := pagetable.Vpn(TrapContextVaFor(tid) >> PageBits)
	as.unmapFixedArea(vpn)
}

func (as *AddressSpace) unmapFixedArea(vpn pagetable.Vpn) {
	for i, a := range as.Areas {
		if a.VpnStart == vpn && a.VpnEnd == vpn+1 {
			if ppn, ok := a.frames[vpn]; ok {
				as.Table.Unmap(vpn)
				as.alloc.DeallocFrame(ppn)
			}
			as.Areas = append(as.Areas[:i], as.Areas[i+1:]...)
			return
		}
	}
}

// AllocUserStack installs a guarded user stack of DefaultUserStackPages
// pages ending at topVa (exclusive), leaving one unmapped guard page
// below it, and returns the stack's top address.
func (as *AddressSpace) AllocUserStack(topVa uint64) (uint64, defs.Err_t) {
	base := topVa - DefaultUserStackPages*PageSize
	if err := as.InsertFramed(base, topVa, defs.PermR|defs.PermW|defs.PermU); err != 0 {
		return 0, err
	}
	return topVa, 0
}

// FreeUserStack releases the user stack installed by AllocUserStack.
func (as *AddressSpace) FreeUserStack(topVa uint64) defs.Err_t {
	base := topVa - DefaultUserStackPages*PageSize
	return as.RemoveFramed(base, topVa)
}

// AllocThreadStack installs a fresh guarded user stack for a thread
// created after the process's main thread (spec.md §3, "a set of
// threads"; the syscall table itself has no explicit thread_create
// entry, so this is sized and placed the same way the main thread's
// stack is, one guard-page gap further up the address space, per
// thread creation order).
func (as *AddressSpace) AllocThreadStack() (uint64, defs.Err_t) {
	topVa := as.nextStackTop
	top, err := as.AllocUserStack(topVa)
	if err != 0 {
		return 0, err
	}
	as.nextStackTop += (DefaultUserStackPages + 1) * PageSize
	return top, 0
}

// CloneCOWFree deep-copies src: every framed area is re-allocated with
// fresh frames and its bytes are copied; there is no copy-on-write
// (spec.md §4.1 — the source's clone is free-standing, not lazy).
func CloneCOWFree(src *AddressSpace, alloc *mem.Allocator) *AddressSpace {
	dst := New(alloc)
	for _, a := range src.Areas {
		switch a.Typ {
		case Identical:
			for vpn := a.VpnStart; vpn < a.VpnEnd; vpn++ {
				pte, _ := src.Table.FindPte(vpn)
				dst.Table.Map(vpn, pte.Ppn, a.Perm)
			}
			dst.Areas = append(dst.Areas, &MapArea{VpnStart: a.VpnStart, VpnEnd: a.VpnEnd, Perm: a.Perm, Typ: Identical})
		case Framed:
			na := &MapArea{VpnStart: a.VpnStart, VpnEnd: a.VpnEnd, Perm: a.Perm, Typ: Framed, frames: map[pagetable.Vpn]mem.Ppn{}}
			for vpn := a.VpnStart; vpn < a.VpnEnd; vpn++ {
				srcPpn := a.frames[vpn]
				dstPpn, err := alloc.AllocFrame()
				if err != nil {
					panic(fmt.Sprintf("vm: clone out of frames at vpn %d", vpn))
				}
				copy(alloc.Frame(dstPpn), src.alloc.Frame(srcPpn))
				na.frames[vpn] = dstPpn
				dst.Table.Map(vpn, dstPpn, a.Perm)
			}
			dst.Areas = append(dst.Areas, na)
		}
	}
	return dst
}

// Teardown releases every framed area's frames. Called when the owning
// process is reaped by wait, and by exec on the address space it
// replaces.
func (as *AddressSpace) Teardown() {
	if as == nil {
		return
	}
	for _, a := range as.Areas {
		if a.Typ != Framed {
			continue
		}
		for vpn, ppn := range a.frames {
			as.Table.Unmap(vpn)
			as.alloc.DeallocFrame(ppn)
		}
	}
	as.Areas = nil
}
