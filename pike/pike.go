// Package pike implements the interpreter engine: a priority-ordered
// simulation of the compiled program over the input, one position at
// a time.
//
// The engine keeps two thread lists, the current one being walked and
// the next one being filled. A thread is a terminal program counter
// (a byte or match instruction) plus a full row of capture slots.
// Epsilon instructions (split, jump, save) never live in a list; they
// are resolved at append time by an explicit-stack closure walk, so
// list order is exactly priority order: earlier threads win.
//
// Searches run in O(len(input) * len(program)) time: a per-generation
// visited set admits each program counter into a list at most once.
package pike

import (
	"github.com/coregx/rejit/internal/sparse"
	"github.com/coregx/rejit/prog"
)

// VM executes a compiled program with leftmost-first semantics.
//
// A VM is immutable and safe for concurrent use; all mutable search
// state lives in a caller-supplied State.
type VM struct {
	prog *prog.Program
}

// New returns a VM for the given program.
func New(p *prog.Program) *VM {
	return &VM{prog: p}
}

// Program returns the program this VM executes.
func (v *VM) Program() *prog.Program {
	return v.prog
}

// State is reusable search state for one VM. A zero State is ready to
// use. It is not safe for concurrent use; give each goroutine its own.
type State struct {
	curr, next threadList
	visited    *sparse.Set
	stack      []closureEntry
	scratch    []int

	progLen  int
	numSlots int
}

// NewState returns an empty State.
func NewState() *State {
	return &State{}
}

// threadList is a priority-ordered list of terminal pcs, each with a
// row of capture slots in the arena.
type threadList struct {
	pcs   []uint32
	arena []int
}

func (l *threadList) clear() {
	l.pcs = l.pcs[:0]
	l.arena = l.arena[:0]
}

func (l *threadList) add(pc uint32, slots []int) {
	l.pcs = append(l.pcs, pc)
	l.arena = append(l.arena, slots...)
}

func (l *threadList) row(i, numSlots int) []int {
	return l.arena[i*numSlots : (i+1)*numSlots]
}

// closureEntry is one unit of epsilon-closure work: either explore a
// pc, or restore a capture slot clobbered by a save on the way in.
type closureEntry struct {
	restore bool
	pc      uint32
	slot    uint32
	val     int
}

func (s *State) ensure(p *prog.Program) {
	n := p.NumSlots()
	if s.visited == nil || s.progLen != p.Len() || s.numSlots != n {
		s.visited = sparse.New(uint32(p.Len()))
		s.progLen = p.Len()
		s.numSlots = n
		s.curr = threadList{}
		s.next = threadList{}
	}
	if cap(s.scratch) < n {
		s.scratch = make([]int, n)
	}
	s.scratch = s.scratch[:n]
}

// Find searches haystack from position at and reports whether the
// program matched. On a match, slots receives the capture offsets
// (len(slots) must be at least the program's NumSlots; unset slots
// are -1). Leftmost-first: the scan stops seeding new start positions
// once a match is recorded, runs the surviving threads to completion,
// and the last-recorded match wins.
func (v *VM) Find(haystack []byte, at int, s *State, slots []int) bool {
	p := v.prog
	s.ensure(p)
	n := s.numSlots
	s.curr.clear()
	s.next.clear()
	s.visited.Clear()

	anchored := p.Anchored()
	matched := false

	for pos := at; pos <= len(haystack); pos++ {
		// Seed a lowest-priority thread at this position. The seed
		// shares the visited generation with the step fills from the
		// previous position, so a pc already queued ahead of it wins.
		if !matched && (!anchored || pos == at) {
			for i := range s.scratch {
				s.scratch[i] = -1
			}
			s.closure(p, &s.curr, p.Start(), pos)
		}

		// Walking begins the next generation.
		s.visited.Clear()
		var b byte
		haveByte := pos < len(haystack)
		if haveByte {
			b = haystack[pos]
		}

		for i := 0; i < len(s.curr.pcs); i++ {
			pc := s.curr.pcs[i]
			in := p.Inst(pc)
			if in.Op == prog.OpMatch {
				// Record, overwriting any earlier match: surviving
				// threads outrank it. Cut the rest of this list.
				copy(slots, s.curr.row(i, n))
				matched = true
				break
			}
			if haveByte && in.MatchesByte(b) {
				copy(s.scratch, s.curr.row(i, n))
				s.closure(p, &s.next, in.Next, pos+1)
			}
		}

		s.curr, s.next = s.next, s.curr
		s.next.clear()
		if len(s.curr.pcs) == 0 && (matched || anchored) {
			break
		}
	}
	return matched
}

// IsMatch reports whether the program matches anywhere in haystack
// from position at.
func (v *VM) IsMatch(haystack []byte, at int, s *State) bool {
	slots := make([]int, v.prog.NumSlots())
	return v.Find(haystack, at, s, slots)
}

// closure walks the epsilon instructions reachable from pc at input
// position pos and appends every newly-reached terminal pc to l,
// together with a snapshot of the scratch slot row.
//
// Saves write into the shared scratch row on the way down and push a
// restore entry so sibling branches observe the original value. The
// walk is driven by an explicit stack; program nesting never grows
// the call stack.
func (s *State) closure(p *prog.Program, l *threadList, pc uint32, pos int) {
	s.stack = s.stack[:0]
	s.stack = append(s.stack, closureEntry{pc: pc})
	for len(s.stack) > 0 {
		e := s.stack[len(s.stack)-1]
		s.stack = s.stack[:len(s.stack)-1]
		if e.restore {
			s.scratch[e.slot] = e.val
			continue
		}
		if !s.visited.Insert(e.pc) {
			continue
		}
		in := p.Inst(e.pc)
		switch in.Op {
		case prog.OpJump:
			s.stack = append(s.stack, closureEntry{pc: in.Next})
		case prog.OpSplit:
			// Next is explored before Alt.
			s.stack = append(s.stack, closureEntry{pc: in.Alt})
			s.stack = append(s.stack, closureEntry{pc: in.Next})
		case prog.OpSave:
			s.stack = append(s.stack, closureEntry{restore: true, slot: in.Slot, val: s.scratch[in.Slot]})
			s.stack = append(s.stack, closureEntry{pc: in.Next})
			s.scratch[in.Slot] = pos
		case prog.OpByte, prog.OpMatch:
			l.add(e.pc, s.scratch)
		}
	}
}
