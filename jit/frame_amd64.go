//go:build linux || darwin

package jit

import (
	"runtime"
	"unsafe"

	"github.com/coregx/rejit/prog"
)

// Supported reports whether this platform has a native backend.
func Supported() bool {
	return true
}

// execFrame is the calling convention between Go and generated code:
// a single struct whose address arrives in DI. Field order is frozen;
// the off* constants in codegen_amd64.go index into it and a test
// asserts the two stay in sync.
type execFrame struct {
	input      uintptr
	inputLen   uint64
	startAt    uint64
	anchored   uint64
	visited    uintptr
	scratch    uintptr
	spill      uintptr
	listA      uintptr
	arenaA     uintptr
	listB      uintptr
	arenaB     uintptr
	walkList   uintptr
	walkArena  uintptr
	walkLen    uint64
	walkIdx    uint64
	matched    uint64
	matchSlots uintptr
	freeList   uintptr
	freeArena  uintptr
	walkRow    uintptr
}

// jitEnter transfers control to generated code with frame in DI and
// returns the matched flag. Implemented in enter_amd64.s.
//
//go:noescape
func jitEnter(code uintptr, frame uintptr) uint64

// Code is a compiled program. Immutable and safe for concurrent use
// with one State per goroutine. Close releases the code pages; the
// facade arranges a cleanup for codes that are dropped unclosed.
type Code struct {
	prog     *prog.Program
	mem      *execMem
	entry    uintptr
	numSlots int
}

// Compile generates native code for p.
func Compile(p *prog.Program) (*Code, error) {
	buf, entryOff, err := generate(p)
	if err != nil {
		return nil, err
	}
	mem, err := newExecMem(buf)
	if err != nil {
		return nil, err
	}
	return &Code{
		prog:     p,
		mem:      mem,
		entry:    mem.base() + uintptr(entryOff),
		numSlots: p.NumSlots(),
	}, nil
}

// Program returns the program this code was generated from.
func (c *Code) Program() *prog.Program {
	return c.prog
}

// Close unmaps the code pages. The Code must not be used afterwards.
// Safe to call more than once.
func (c *Code) Close() error {
	return c.mem.release()
}

// State holds the buffers generated code works on: the visited stamp
// table, the scratch slot row, the save spill area, two list/arena
// pairs, and the recorded match row. Sizes are fixed by the program,
// so searches never allocate. Not safe for concurrent use.
type State struct {
	visited    []uint64
	scratch    []uint64
	spill      []uint64
	listA      []uint64
	arenaA     []uint64
	listB      []uint64
	arenaB     []uint64
	matchSlots []uint64
}

// NewState returns a State sized for this code.
func (c *Code) NewState() *State {
	n := c.prog.Len()
	ns := c.numSlots
	return &State{
		visited:    make([]uint64, n),
		scratch:    make([]uint64, ns),
		spill:      make([]uint64, n),
		listA:      make([]uint64, n),
		arenaA:     make([]uint64, n*ns),
		listB:      make([]uint64, n),
		arenaB:     make([]uint64, n*ns),
		matchSlots: make([]uint64, ns),
	}
}

// Find searches haystack from position at and reports whether the
// program matched. On a match, slots receives the capture offsets
// with unset slots as -1, identical to the interpreter's output.
func (c *Code) Find(haystack []byte, at int, s *State, slots []int) bool {
	if at < 0 || at > len(haystack) {
		return false
	}
	// Stamps from a previous search could collide with this one.
	clear(s.visited)

	var anchored uint64
	if c.prog.Anchored() {
		anchored = 1
	}
	frame := execFrame{
		input:      uintptr(unsafe.Pointer(unsafe.SliceData(haystack))),
		inputLen:   uint64(len(haystack)),
		startAt:    uint64(at),
		anchored:   anchored,
		visited:    uintptr(unsafe.Pointer(unsafe.SliceData(s.visited))),
		scratch:    uintptr(unsafe.Pointer(unsafe.SliceData(s.scratch))),
		spill:      uintptr(unsafe.Pointer(unsafe.SliceData(s.spill))),
		listA:      uintptr(unsafe.Pointer(unsafe.SliceData(s.listA))),
		arenaA:     uintptr(unsafe.Pointer(unsafe.SliceData(s.arenaA))),
		listB:      uintptr(unsafe.Pointer(unsafe.SliceData(s.listB))),
		arenaB:     uintptr(unsafe.Pointer(unsafe.SliceData(s.arenaB))),
		matchSlots: uintptr(unsafe.Pointer(unsafe.SliceData(s.matchSlots))),
	}

	jitEnter(c.entry, uintptr(unsafe.Pointer(&frame)))
	runtime.KeepAlive(haystack)
	runtime.KeepAlive(s)
	runtime.KeepAlive(c.mem)

	if frame.matched == 0 {
		return false
	}
	// Slot values are offset+1 with 0 meaning unset.
	for i := 0; i < c.numSlots; i++ {
		slots[i] = int(s.matchSlots[i]) - 1
	}
	return true
}

// IsMatch reports whether the program matches anywhere in haystack
// from position at.
func (c *Code) IsMatch(haystack []byte, at int, s *State) bool {
	slots := make([]int, c.numSlots)
	return c.Find(haystack, at, s, slots)
}
