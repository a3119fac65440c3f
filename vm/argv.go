package vm

import (
	"encoding/binary"

	"stridekernel/defs"
)

// PushArgv writes argv onto the top of the user stack the way exec's
// contract in spec.md §4.3 requires: strings first (so later pointers
// stay valid), then a NUL-terminated pointer array with argv[argc] =
// NULL, the whole thing 8-byte aligned. It returns the new stack pointer
// (to become the trap frame's sp) and the base address of the pointer
// array (to become the argv argument register).
func (as *AddressSpace) PushArgv(ustackTop uint64, argv []string) (sp uint64, argvBase uint64, err defs.Err_t) {
	sp = ustackTop
	ptrs := make([]uint64, len(argv))
	for i, s := range argv {
		b := append([]byte(s), 0)
		sp -= uint64(len(b))
		if cerr := as.CopyOut(sp, b); cerr != 0 {
			return 0, 0, cerr
		}
		ptrs[i] = sp
	}
	// pointer array: argv[0..argc) then a NULL terminator
	sp -= uint64(len(argv)+1) * 8
	sp &^= 7 // 8-byte align
	argvBase = sp
	for i, p := range ptrs {
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], p)
		if cerr := as.CopyOut(argvBase+uint64(i)*8, buf[:]); cerr != 0 {
			return 0, 0, cerr
		}
	}
	var nul [8]byte
	if cerr := as.CopyOut(argvBase+uint64(len(argv))*8, nul[:]); cerr != 0 {
		return 0, 0, cerr
	}
	return sp, argvBase, 0
}
