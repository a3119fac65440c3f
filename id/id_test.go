package id

import "testing"

func TestAllocRecyclesSmallestFreed(t *testing.T) {
	a := NewAllocator()
	x := a.Alloc() // 0
	y := a.Alloc() // 1
	_ = a.Alloc()  // 2
	a.Dealloc(x)
	a.Dealloc(y)

	if got := a.Alloc(); got != x {
		t.Fatalf("expected the smallest freed id (%d) to come back first, got %d", x, got)
	}
	if got := a.Alloc(); got != y {
		t.Fatalf("expected %d next, got %d", y, got)
	}
	if got := a.Alloc(); got != 3 {
		t.Fatalf("expected a fresh id 3 once the free list drains, got %d", got)
	}
}

func TestDeallocNeverAllocatedPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected Dealloc of a never-allocated id to panic")
		}
	}()
	NewAllocator().Dealloc(5)
}

func TestDoubleDeallocPanics(t *testing.T) {
	a := NewAllocator()
	x := a.Alloc()
	a.Dealloc(x)
	defer func() {
		if recover() == nil {
			t.Fatal("expected a double dealloc to panic")
		}
	}()
	a.Dealloc(x)
}
