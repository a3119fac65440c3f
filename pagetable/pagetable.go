// Package pagetable is the page-table collaborator spec.md §6 names:
// "a page table with map(vpn, ppn, flags), unmap(vpn), find_pte(vpn),
// token()". The PTE flag bits are kept from biscuit's vm/as.go
// (PTE_P/PTE_W/PTE_U/PTE_COW-style constants), generalized to the
// {R,W,X,U} permission set spec.md's map areas carry. A real
// architecture's multi-level walker is out of scope (spec.md §1); this
// flat per-address-space map is the minimal concrete instance of the
// contract that lets vm.AddressSpace be built and tested without one.
package pagetable

import (
	"stridekernel/defs"
	"stridekernel/mem"
)

// Vpn is a virtual page number.
type Vpn uint64

// Pte is one page-table entry: a frame plus permission bits.
type Pte struct {
	Valid bool
	Ppn   mem.Ppn
	Perm  int // defs.PermR|PermW|PermX|PermU
}

// Table is a process's page table. Token identifies it opaquely to
// translation helpers, exactly as spec.md's GLOSSARY describes.
type Table struct {
	entries map[Vpn]*Pte
	token   uintptr
}

var nextToken uintptr = 1

// New returns an empty page table with a fresh token.
func New() *Table {
	t := &Table{entries: make(map[Vpn]*Pte), token: nextToken}
	nextToken++
	return t
}

// Token returns the opaque handle translation helpers use to identify
// this address space.
func (t *Table) Token() uintptr { return t.token }

// Map installs vpn -> ppn with the given permission bits. Remapping an
// already-valid vpn is a kernel bug (callers must Unmap first) and
// panics rather than silently overwriting, since a silent overwrite
// would violate the map-area disjointness invariant upstream.
func (t *Table) Map(vpn Vpn, ppn mem.Ppn, perm int) {
	if e, ok := t.entries[vpn]; ok && e.Valid {
		panic("pagetable: remap of a valid vpn")
	}
	t.entries[vpn] = &Pte{Valid: true, Ppn: ppn, Perm: perm}
}

// Unmap clears vpn. Unmapping a vpn with no valid PTE is a kernel bug.
func (t *Table) Unmap(vpn Vpn) {
	e, ok := t.entries[vpn]
	if !ok || !e.Valid {
		panic("pagetable: unmap of a non-mapped vpn")
	}
	delete(t.entries, vpn)
}

// FindPte returns the PTE for vpn, if any.
func (t *Table) FindPte(vpn Vpn) (*Pte, bool) {
	e, ok := t.entries[vpn]
	if !ok || !e.Valid {
		return nil, false
	}
	return e, true
}

// CheckPerm reports whether e permits the access requested by want.
func CheckPerm(e *Pte, want int) defs.Err_t {
	if e == nil {
		return defs.EFAULT
	}
	if e.Perm&want != want {
		return defs.EFAULT
	}
	return 0
}
