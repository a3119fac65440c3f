package vm

import (
	"testing"

	"stridekernel/defs"
	"stridekernel/mem"
)

func TestInsertFramedRejectsOverlap(t *testing.T) {
	alloc := mem.NewAllocator()
	as := New(alloc)

	if err := as.InsertFramed(0x10000000, 0x10000000+PageSize, defs.PermR|defs.PermW); err != 0 {
		t.Fatalf("first insert: %v", err)
	}
	if err := as.InsertFramed(0x10000000, 0x10000000+PageSize, defs.PermR|defs.PermW); err != defs.EEXIST {
		t.Fatalf("expected EEXIST on overlapping insert, got %v", err)
	}
}

func TestRemoveFramedIdempotence(t *testing.T) {
	alloc := mem.NewAllocator()
	as := New(alloc)

	if err := as.InsertFramed(0x10000000, 0x10000000+PageSize, defs.PermR|defs.PermW); err != 0 {
		t.Fatalf("insert: %v", err)
	}
	if err := as.RemoveFramed(0x10000000, 0x10000000+PageSize); err != 0 {
		t.Fatalf("first remove: %v", err)
	}
	if err := as.RemoveFramed(0x10000000, 0x10000000+PageSize); err != defs.ENOENT {
		t.Fatalf("expected ENOENT on second remove, got %v", err)
	}
	// the address space must be back to its pre-mmap state: a third
	// insert at the same range must succeed again.
	if err := as.InsertFramed(0x10000000, 0x10000000+PageSize, defs.PermR|defs.PermW); err != 0 {
		t.Fatalf("re-insert after remove: %v", err)
	}
}

func TestTranslateBufferSplitsAcrossPages(t *testing.T) {
	alloc := mem.NewAllocator()
	as := New(alloc)
	base := uint64(0x20000000)
	if err := as.InsertFramed(base, base+2*PageSize, defs.PermR|defs.PermW); err != 0 {
		t.Fatalf("insert: %v", err)
	}

	ptr := base + PageSize - 4
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	if err := as.CopyOut(ptr, data); err != 0 {
		t.Fatalf("copy out across page boundary: %v", err)
	}
	got := make([]byte, len(data))
	if err := as.CopyIn(ptr, got); err != 0 {
		t.Fatalf("copy in across page boundary: %v", err)
	}
	for i := range data {
		if got[i] != data[i] {
			t.Fatalf("byte %d mismatch: got %d want %d", i, got[i], data[i])
		}
	}
}
