package vfs

import (
	"testing"

	"stridekernel/defs"
)

func TestOpenWriteReadRoundTrip(t *testing.T) {
	fs := NewMemFS()
	f, err := fs.OpenFile("a", OCreate|OWrOnly)
	if err != 0 {
		t.Fatalf("open for write: %v", err)
	}
	if _, werr := f.Write([]byte("hello")); werr != 0 {
		t.Fatalf("write: %v", werr)
	}
	f.Close()

	rf, rerr := fs.OpenFile("a", ORdOnly)
	if rerr != 0 {
		t.Fatalf("open for read: %v", rerr)
	}
	got, aerr := rf.ReadAll()
	if aerr != 0 {
		t.Fatalf("read all: %v", aerr)
	}
	if string(got) != "hello" {
		t.Fatalf("round-trip mismatch: got %q", got)
	}
}

func TestFstatNlink(t *testing.T) {
	fs := NewMemFS()
	fa, _ := fs.OpenFile("a", OCreate|OWrOnly)
	fa.Write([]byte("hello"))

	if err := fs.Link("a", "b"); err != 0 {
		t.Fatalf("link: %v", err)
	}
	statA, _ := fa.Stat()
	if statA.Nlink != 2 {
		t.Fatalf("expected nlink 2 after link, got %d", statA.Nlink)
	}

	if err := fs.Unlink("a"); err != 0 {
		t.Fatalf("unlink: %v", err)
	}
	fb, ferr := fs.OpenFile("b", ORdOnly)
	if ferr != 0 {
		t.Fatalf("open b: %v", ferr)
	}
	statB, _ := fb.Stat()
	if statB.Nlink != 1 {
		t.Fatalf("expected nlink 1 after unlinking the other name, got %d", statB.Nlink)
	}
}

func TestLinkRejectsEqualOrMissing(t *testing.T) {
	fs := NewMemFS()
	if err := fs.Link("a", "a"); err != defs.EEXIST {
		t.Fatalf("expected EEXIST for equal names, got %v", err)
	}
	if err := fs.Link("missing", "x"); err == 0 {
		t.Fatal("expected a failure linking a missing source")
	}
}
