// Package prog defines the flat instruction program shared by both
// execution engines, and the compiler that lowers an ast.Node into it.
//
// A Program is a sequence of instructions addressed by PC:
//
//	Byte   consume one byte inside a range set, continue at Next
//	Split  fork; Next is strictly higher priority than Alt
//	Jump   continue at Next
//	Save   record the current input offset into a capture slot
//	Match  accept
//
// Capture slots come in pairs: a program with G capturing groups has
// 2*(G+1) slots, where slots 0 and 1 delimit the whole match and
// slots 2i, 2i+1 delimit group i.
package prog

import (
	"fmt"
	"strings"

	"github.com/coregx/rejit/ast"
)

// Op identifies an instruction variant.
type Op uint8

const (
	// OpByte consumes one byte inside the instruction's range set.
	OpByte Op = iota
	// OpSplit forks execution; Next has priority over Alt.
	OpSplit
	// OpJump transfers control to Next.
	OpJump
	// OpSave records the current offset into capture slot Slot.
	OpSave
	// OpMatch accepts.
	OpMatch
)

// String returns the opcode mnemonic.
func (op Op) String() string {
	switch op {
	case OpByte:
		return "byte"
	case OpSplit:
		return "split"
	case OpJump:
		return "jump"
	case OpSave:
		return "save"
	case OpMatch:
		return "match"
	default:
		return "unknown"
	}
}

// Inst is a single program instruction. Fields are populated
// according to Op.
type Inst struct {
	Op Op

	// Next is the continuation PC of Byte, Jump, and Save, and the
	// higher-priority branch of Split.
	Next uint32

	// Alt is the lower-priority branch of Split.
	Alt uint32

	// Slot is the capture slot written by Save.
	Slot uint32

	// Ranges is the sorted, non-overlapping byte range set of Byte.
	Ranges []ast.Range
}

// MatchesByte reports whether b falls inside a Byte instruction's
// range set.
func (in *Inst) MatchesByte(b byte) bool {
	for _, r := range in.Ranges {
		if b < r.Lo {
			return false
		}
		if b <= r.Hi {
			return true
		}
	}
	return false
}

// String renders the instruction for debug output.
func (in *Inst) String() string {
	switch in.Op {
	case OpByte:
		var sb strings.Builder
		for i, r := range in.Ranges {
			if i > 0 {
				sb.WriteByte(',')
			}
			if r.Lo == r.Hi {
				fmt.Fprintf(&sb, "%02x", r.Lo)
			} else {
				fmt.Fprintf(&sb, "%02x-%02x", r.Lo, r.Hi)
			}
		}
		return fmt.Sprintf("byte [%s] -> %d", sb.String(), in.Next)
	case OpSplit:
		return fmt.Sprintf("split %d, %d", in.Next, in.Alt)
	case OpJump:
		return fmt.Sprintf("jump %d", in.Next)
	case OpSave:
		return fmt.Sprintf("save %d -> %d", in.Slot, in.Next)
	case OpMatch:
		return "match"
	default:
		return "unknown"
	}
}

// Program is a compiled pattern, executable by either engine.
type Program struct {
	insts    []Inst
	start    uint32
	numSlots int
	anchored bool
}

// Insts returns the instruction slice. Callers must not modify it.
func (p *Program) Insts() []Inst {
	return p.insts
}

// Inst returns the instruction at pc.
func (p *Program) Inst(pc uint32) *Inst {
	return &p.insts[pc]
}

// Len returns the number of instructions.
func (p *Program) Len() int {
	return len(p.insts)
}

// Start returns the entry PC.
func (p *Program) Start() uint32 {
	return p.start
}

// NumSlots returns the capture slot count, always 2*(groups+1).
func (p *Program) NumSlots() int {
	return p.numSlots
}

// NumGroups returns the number of capturing groups, excluding the
// implicit whole-match group.
func (p *Program) NumGroups() int {
	return p.numSlots/2 - 1
}

// Anchored reports whether the program only matches at the search
// start position.
func (p *Program) Anchored() bool {
	return p.anchored
}

// String renders the whole program, one instruction per line.
func (p *Program) String() string {
	var sb strings.Builder
	for pc := range p.insts {
		marker := "  "
		if uint32(pc) == p.start {
			marker = "> "
		}
		fmt.Fprintf(&sb, "%s%04d: %s\n", marker, pc, p.insts[pc].String())
	}
	return sb.String()
}

// validate checks every branch target and slot index. A failure here
// is a bug in the compiler, surfaced as ErrInternal rather than a
// miscompiled program.
func (p *Program) validate() error {
	n := uint32(len(p.insts))
	if p.start >= n {
		return &ConsistencyError{Message: "start out of range", PC: p.start}
	}
	matches := 0
	for pc := range p.insts {
		in := &p.insts[pc]
		switch in.Op {
		case OpByte, OpJump:
			if in.Next >= n {
				return &ConsistencyError{Message: "target out of range", PC: uint32(pc)}
			}
		case OpSplit:
			if in.Next >= n || in.Alt >= n {
				return &ConsistencyError{Message: "split target out of range", PC: uint32(pc)}
			}
		case OpSave:
			if in.Next >= n {
				return &ConsistencyError{Message: "target out of range", PC: uint32(pc)}
			}
			if int(in.Slot) >= p.numSlots {
				return &ConsistencyError{Message: "slot out of range", PC: uint32(pc)}
			}
		case OpMatch:
			matches++
		default:
			return &ConsistencyError{Message: "unknown opcode", PC: uint32(pc)}
		}
	}
	if matches != 1 {
		return &ConsistencyError{Message: "program must contain exactly one match", PC: 0}
	}
	return nil
}
