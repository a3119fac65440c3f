// Translation helpers mediate every user-pointer access so the syscall
// layer never dereferences user memory directly — grounded on biscuit's
// Userdmap8r/Userdmap8_inner (biscuit/src/vm/as.go) and its UserBuffer
// iterator (biscuit/src/vm/userbuf.go), generalized from biscuit's
// single "copy 8 bytes" primitive to the page-split whole-buffer and
// NUL-terminated-string helpers spec.md §4.1 names explicitly
// (translate_buffer, translate_string, translate_ref_mut).
package vm

import (
	"stridekernel/defs"
	"stridekernel/pagetable"
	"stridekernel/util"
)

func (as *AddressSpace) frameFor(va uint64, want int) ([]byte, int, defs.Err_t) {
	vpn := pagetable.Vpn(va >> PageBits)
	pte, ok := as.Table.FindPte(vpn)
	if !ok {
		return nil, 0, defs.EFAULT
	}
	if err := pagetable.CheckPerm(pte, want); err != 0 {
		return nil, 0, err
	}
	frame := as.alloc.Frame(pte.Ppn)
	return frame, int(va & PageMask), 0
}

// TranslateBuffer returns a page-split view of the len bytes of user
// memory starting at ptr, one []byte per page the range crosses.
// want is the permission the caller needs (R for reads, W for writes
// the kernel performs into the buffer).
func (as *AddressSpace) TranslateBuffer(ptr uint64, length int, want int) ([][]byte, defs.Err_t) {
	var out [][]byte
	remaining := length
	va := ptr
	for remaining > 0 {
		frame, off, err := as.frameFor(va, want)
		if err != 0 {
			return nil, err
		}
		n := util.Min(PageSize-off, remaining)
		out = append(out, frame[off:off+n])
		va += uint64(n)
		remaining -= n
	}
	return out, 0
}

// TranslateString reads a NUL-terminated byte string starting at ptr,
// one byte at a time via the page table, and returns it as a Go string
// (excluding the terminator).
func (as *AddressSpace) TranslateString(ptr uint64) (string, defs.Err_t) {
	var buf []byte
	va := ptr
	for {
		frame, off, err := as.frameFor(va, defs.PermR)
		if err != 0 {
			return "", err
		}
		b := frame[off]
		if b == 0 {
			return string(buf), 0
		}
		buf = append(buf, b)
		va++
	}
}

// TranslateBytes returns a live window of n bytes starting at ptr,
// requiring the whole range to lie within a single physical frame —
// the Go analogue of translate_ref_mut<T>, valid for any T that does
// not straddle a page boundary. Callers needing a possibly-crossing
// range must use TranslateBuffer instead.
func (as *AddressSpace) TranslateBytes(ptr uint64, n int, want int) ([]byte, defs.Err_t) {
	frame, off, err := as.frameFor(ptr, want)
	if err != 0 {
		return nil, err
	}
	if off+n > PageSize {
		return nil, defs.EFAULT
	}
	return frame[off : off+n], 0
}

// CopyOut writes src into the user buffer at ptr, splitting across
// pages as needed.
func (as *AddressSpace) CopyOut(ptr uint64, src []byte) defs.Err_t {
	chunks, err := as.TranslateBuffer(ptr, len(src), defs.PermW)
	if err != 0 {
		return err
	}
	off := 0
	for _, c := range chunks {
		off += copy(c, src[off:])
	}
	return 0
}

// CopyIn reads len(dst) bytes from the user buffer at ptr into dst.
func (as *AddressSpace) CopyIn(ptr uint64, dst []byte) defs.Err_t {
	chunks, err := as.TranslateBuffer(ptr, len(dst), defs.PermR)
	if err != 0 {
		return err
	}
	off := 0
	for _, c := range chunks {
		off += copy(dst[off:], c)
	}
	return 0
}
