//go:build linux || darwin

package jit

import (
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// execMem is a page-aligned mapping holding generated code. The
// mapping is written once, flipped to read+execute, and never
// writable again.
type execMem struct {
	buf []byte
}

func newExecMem(code []byte) (*execMem, error) {
	if len(code) == 0 {
		return nil, &CodegenError{Message: "empty code buffer"}
	}
	page := os.Getpagesize()
	size := (len(code) + page - 1) &^ (page - 1)

	buf, err := unix.Mmap(-1, 0, size,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, &CodegenError{Message: "mapping code pages", Err: err}
	}
	copy(buf, code)
	if err := unix.Mprotect(buf, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		unix.Munmap(buf)
		return nil, &CodegenError{Message: "protecting code pages", Err: err}
	}
	return &execMem{buf: buf}, nil
}

// base returns the address of the mapping.
func (m *execMem) base() uintptr {
	return uintptr(unsafe.Pointer(&m.buf[0]))
}

// release unmaps the code pages. Safe to call more than once.
func (m *execMem) release() error {
	if m.buf == nil {
		return nil
	}
	buf := m.buf
	m.buf = nil
	return unix.Munmap(buf)
}
