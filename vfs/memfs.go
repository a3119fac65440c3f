package vfs

import (
	"sync"

	"stridekernel/defs"
)

// OpenFlags mirrors the flag bits open_file(path, flags) expects
// (original_source/os/src/syscall/fs.rs passes these straight through
// from OpenFlags::from_bits).
type OpenFlags uint32

const (
	ORdOnly OpenFlags = 0
	OWrOnly OpenFlags = 1 << 0
	ORdWr   OpenFlags = 1 << 1
	OCreate OpenFlags = 1 << 9
	OTrunc  OpenFlags = 1 << 10
)

// inode is a regular file's shared, link-counted storage: a growable
// byte buffer, the same role biscuit's Circbuf_t plays for a single
// daemon's backing bytes (biscuit/src/circbuf/circbuf.go), simplified
// here to an in-memory slice since paging file data to a block device is
// out of scope (spec.md §1).
type inode struct {
	mu    sync.Mutex
	id    uint64
	data  []byte
	links int // hard link count
}

// MemFS is the in-memory stand-in for the easy-fs on-disk layout
// spec.md §1 places out of scope: a flat directory of named links to
// inodes, enough to make open/read/write/link/unlink/fstat real for the
// core's syscall surface and the round-trip property in spec.md §8.
type MemFS struct {
	mu     sync.Mutex
	names  map[string]*inode
	nextID uint64
}

// NewMemFS returns an empty filesystem.
func NewMemFS() *MemFS {
	return &MemFS{names: make(map[string]*inode)}
}

// OpenFile resolves path under flags, creating a fresh inode if
// OCreate is set and the name is absent, and returns a File handle with
// its own independent read/write cursor.
func (fs *MemFS) OpenFile(path string, flags OpenFlags) (File, defs.Err_t) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	n, ok := fs.names[path]
	if !ok {
		if flags&OCreate == 0 {
			return nil, defs.ENOENT
		}
		fs.nextID++
		n = &inode{id: fs.nextID, links: 1}
		fs.names[path] = n
	}
	if flags&OTrunc != 0 {
		n.mu.Lock()
		n.data = nil
		n.mu.Unlock()
	}
	return &regularFile{fs: fs, node: n, writable: flags&(OWrOnly|ORdWr) != 0}, 0
}

// Link creates new as another name for the inode old already names.
// Returns ENOENT if old is missing or EEXIST if old == new, exactly as
// spec.md §6 ("0 on success, -1 if equal or missing").
func (fs *MemFS) Link(old, new string) defs.Err_t {
	if old == new {
		return defs.EEXIST
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	n, ok := fs.names[old]
	if !ok {
		return defs.ENOENT
	}
	n.mu.Lock()
	n.links++
	n.mu.Unlock()
	fs.names[new] = n
	return 0
}

// Unlink removes name; if it was the inode's last link, the inode's
// bytes are cleared (spec.md §3's Lifecycles: "clears inode on last
// link").
func (fs *MemFS) Unlink(name string) defs.Err_t {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	n, ok := fs.names[name]
	if !ok {
		return defs.ENOENT
	}
	delete(fs.names, name)
	n.mu.Lock()
	n.links--
	if n.links <= 0 {
		n.data = nil
	}
	n.mu.Unlock()
	return 0
}

// regularFile is a per-fd handle onto a shared inode: its own cursor,
// the inode's shared bytes and link count.
type regularFile struct {
	fs       *MemFS
	node     *inode
	off      int
	writable bool
	closed   bool
}

func (f *regularFile) Read(buf []byte) (int, defs.Err_t) {
	f.node.mu.Lock()
	defer f.node.mu.Unlock()
	if f.off >= len(f.node.data) {
		return 0, 0
	}
	n := copy(buf, f.node.data[f.off:])
	f.off += n
	return n, 0
}

func (f *regularFile) Write(buf []byte) (int, defs.Err_t) {
	if !f.writable {
		return 0, defs.EINVAL
	}
	f.node.mu.Lock()
	defer f.node.mu.Unlock()
	need := f.off + len(buf)
	if need > len(f.node.data) {
		grown := make([]byte, need)
		copy(grown, f.node.data)
		f.node.data = grown
	}
	n := copy(f.node.data[f.off:], buf)
	f.off += n
	return n, 0
}

func (f *regularFile) ReadAll() ([]byte, defs.Err_t) {
	f.node.mu.Lock()
	defer f.node.mu.Unlock()
	out := make([]byte, len(f.node.data))
	copy(out, f.node.data)
	return out, 0
}

func (f *regularFile) Stat() (Stat, defs.Err_t) {
	f.node.mu.Lock()
	defer f.node.mu.Unlock()
	return Stat{
		Dev:   0,
		Ino:   f.node.id,
		Mode:  ModeFile,
		Nlink: uint32(f.node.links),
	}, 0
}

func (f *regularFile) Close() {
	f.closed = true
}
