// Package vfs is the minimal VFS-level contract spec.md §1 says is all
// that's in scope for the core: "a VFS providing open_file(path, flags)
// -> file and file.read/write/read_all" (§6). The on-disk layout,
// block-device driver, and directory structure are out of scope; this
// package gives that contract one concrete, in-memory implementation so
// fd-table operations and the fstat/link/unlink syscalls in spec.md §6
// and the end-to-end scenario in §8.6 are runnable. Grounded on
// original_source/os/src/fs/mod.rs's File trait (read/write) for the
// interface shape, and on biscuit's fd/stat packages
// (biscuit/src/fd/fd.go, biscuit/src/stat/stat.go) for fd semantics —
// ref-counted handles, sparse per-process fd tables — and the Stat
// layout spec.md §6 specifies directly.
package vfs

import (
	"stridekernel/defs"
)

// File is the VFS-level contract every fd slot holds.
type File interface {
	Read(buf []byte) (int, defs.Err_t)
	Write(buf []byte) (int, defs.Err_t)
	ReadAll() ([]byte, defs.Err_t)
	Stat() (Stat, defs.Err_t)
	Close()
}

// Stat mirrors spec.md §6's packed stat structure exactly: dev, ino,
// mode, nlink, then seven words of padding, copied to user space via
// the address space's page-split buffer helper.
type Stat struct {
	Dev   uint64
	Ino   uint64
	Mode  uint32
	Nlink uint32
	Pad   [7]uint64
}

const (
	ModeDir  uint32 = 0o040000
	ModeFile uint32 = 0o100000
)

// console is the trivial Stdin/Stdout/Stderr implementation, grounded on
// original_source/os/src/fs/mod.rs's Stdin/Stdout: reads and writes pass
// through to host stdio, with no backing inode.
type console struct {
	write func(p []byte) (int, error)
	read  func(p []byte) (int, error)
}

func (c *console) Read(buf []byte) (int, defs.Err_t) {
	if c.read == nil {
		return 0, defs.EINVAL
	}
	n, err := c.read(buf)
	if err != nil && n == 0 {
		return 0, defs.EINVAL
	}
	return n, 0
}

func (c *console) Write(buf []byte) (int, defs.Err_t) {
	if c.write == nil {
		return 0, defs.EINVAL
	}
	n, err := c.write(buf)
	if err != nil {
		return n, defs.EINVAL
	}
	return n, 0
}

func (c *console) ReadAll() ([]byte, defs.Err_t) { return nil, defs.EINVAL }
func (c *console) Stat() (Stat, defs.Err_t) {
	return Stat{Dev: defs.Mkdev(defs.DConsole, 0), Mode: ModeFile, Nlink: 1}, 0
}
func (c *console) Close() {}

// NewStdin returns the fd-0 console reader.
func NewStdin(read func([]byte) (int, error)) File {
	return &console{read: read}
}

// NewStdout returns a console writer, shared by fd 1 and fd 2 exactly as
// spec.md §4.3 directs ("create fd table [stdin, stdout, stdout]").
func NewStdout(write func([]byte) (int, error)) File {
	return &console{write: write}
}
