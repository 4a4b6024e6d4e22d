//go:build linux || darwin

package jit

import (
	"encoding/binary"
	"math"
)

// reg is an x86-64 general purpose register number.
type reg uint8

const (
	rAX reg = 0
	rCX reg = 1
	rDX reg = 2
	rBX reg = 3
	rSP reg = 4
	rBP reg = 5
	rSI reg = 6
	rDI reg = 7
	r8  reg = 8
	r9  reg = 9
	r10 reg = 10
	r11 reg = 11
	r12 reg = 12
	r13 reg = 13
	// r14 is the Go runtime's g register and r15 may hold split-stack
	// scratch; generated code never uses either.
)

// Condition codes for jcc.
const (
	ccB  = 0x2 // below (unsigned <)
	ccAE = 0x3 // above or equal
	ccE  = 0x4 // equal
	ccNE = 0x5 // not equal
	ccBE = 0x6 // below or equal
	ccA  = 0x7 // above
)

// label names a position in the instruction stream. Labels may be
// referenced before they are bound; finalize resolves everything.
type label int

type reloc struct {
	pos int // offset of the rel32 field
	lab label
}

// assembler emits raw x86-64 machine code.
//
// Memory operands use one uniform encoding: ModRM with a SIB byte and
// a 32-bit displacement, for every base register. This wastes a few
// bytes over short forms but removes the rSP/rBP/r12/r13 addressing
// special cases entirely. All register operations are 64-bit wide.
type assembler struct {
	buf    []byte
	labels []int
	relocs []reloc
}

func newAssembler() *assembler {
	return &assembler{buf: make([]byte, 0, 4096)}
}

func (a *assembler) newLabel() label {
	a.labels = append(a.labels, -1)
	return label(len(a.labels) - 1)
}

func (a *assembler) bind(l label) {
	a.labels[l] = len(a.buf)
}

func (a *assembler) boundLabel() label {
	l := a.newLabel()
	a.bind(l)
	return l
}

func (a *assembler) labelPos(l label) int {
	return a.labels[l]
}

func (a *assembler) emit(bs ...byte) {
	a.buf = append(a.buf, bs...)
}

func (a *assembler) int32(v int32) {
	a.buf = binary.LittleEndian.AppendUint32(a.buf, uint32(v))
}

// rex emits a REX prefix with W=1. rField, xField, and bField are the
// registers whose high bits extend ModRM.reg, SIB.index, and the base
// field respectively; pass rAX for unused positions.
func (a *assembler) rex(rField, xField, bField reg) {
	a.emit(0x48 | byte(rField>>3)<<2 | byte(xField>>3)<<1 | byte(bField>>3))
}

// modRM emits a register-direct ModRM byte (mod=11).
func (a *assembler) modRM(regField, rm reg) {
	a.emit(0xC0 | byte(regField&7)<<3 | byte(rm&7))
}

// mem emits ModRM+SIB+disp32 for [base+disp].
func (a *assembler) mem(regField, base reg, disp int32) {
	a.emit(0x84|byte(regField&7)<<3, 0x20|byte(base&7))
	a.int32(disp)
}

// memIdx emits ModRM+SIB+disp32 for [base+index*scale+disp].
// scaleBits: 0 for *1, 3 for *8. index must not be rSP.
func (a *assembler) memIdx(regField, base, index reg, scaleBits byte, disp int32) {
	a.emit(0x84 | byte(regField&7)<<3)
	a.emit(scaleBits<<6 | byte(index&7)<<3 | byte(base&7))
	a.int32(disp)
}

// movRegMem: dst = [base+disp]
func (a *assembler) movRegMem(dst, base reg, disp int32) {
	a.rex(dst, rAX, base)
	a.emit(0x8B)
	a.mem(dst, base, disp)
}

// movMemReg: [base+disp] = src
func (a *assembler) movMemReg(base reg, disp int32, src reg) {
	a.rex(src, rAX, base)
	a.emit(0x89)
	a.mem(src, base, disp)
}

// movRegMemIdx8: dst = [base+index*8]
func (a *assembler) movRegMemIdx8(dst, base, index reg) {
	a.rex(dst, index, base)
	a.emit(0x8B)
	a.memIdx(dst, base, index, 3, 0)
}

// movMemIdx8Reg: [base+index*8] = src
func (a *assembler) movMemIdx8Reg(base, index, src reg) {
	a.rex(src, index, base)
	a.emit(0x89)
	a.memIdx(src, base, index, 3, 0)
}

// movzxRegByteIdx: dst = zero-extended byte [base+index]
func (a *assembler) movzxRegByteIdx(dst, base, index reg) {
	a.rex(dst, index, base)
	a.emit(0x0F, 0xB6)
	a.memIdx(dst, base, index, 0, 0)
}

// movRegReg: dst = src
func (a *assembler) movRegReg(dst, src reg) {
	a.rex(src, rAX, dst)
	a.emit(0x89)
	a.modRM(src, dst)
}

// movRegImm: dst = imm (sign-extended 32-bit form when it fits)
func (a *assembler) movRegImm(dst reg, imm int64) {
	if imm >= math.MinInt32 && imm <= math.MaxInt32 {
		a.rex(rAX, rAX, dst)
		a.emit(0xC7)
		a.modRM(0, dst)
		a.int32(int32(imm))
		return
	}
	a.rex(rAX, rAX, dst)
	a.emit(0xB8 | byte(dst&7))
	a.buf = binary.LittleEndian.AppendUint64(a.buf, uint64(imm))
}

// movMemImm: qword [base+disp] = imm (sign-extended)
func (a *assembler) movMemImm(base reg, disp int32, imm int32) {
	a.rex(rAX, rAX, base)
	a.emit(0xC7)
	a.mem(0, base, disp)
	a.int32(imm)
}

// leaRegMem: dst = base+disp
func (a *assembler) leaRegMem(dst, base reg, disp int32) {
	a.rex(dst, rAX, base)
	a.emit(0x8D)
	a.mem(dst, base, disp)
}

// leaRegLabel: dst = address of l (RIP-relative)
func (a *assembler) leaRegLabel(dst reg, l label) {
	a.rex(dst, rAX, rAX)
	a.emit(0x8D)
	a.emit(0x05 | byte(dst&7)<<3)
	a.relocs = append(a.relocs, reloc{pos: len(a.buf), lab: l})
	a.int32(0)
}

// addRegImm: dst += imm
func (a *assembler) addRegImm(dst reg, imm int32) {
	a.rex(rAX, rAX, dst)
	a.emit(0x81)
	a.modRM(0, dst)
	a.int32(imm)
}

// addRegReg: dst += src
func (a *assembler) addRegReg(dst, src reg) {
	a.rex(src, rAX, dst)
	a.emit(0x01)
	a.modRM(src, dst)
}

// addRegMem: dst += [base+disp]
func (a *assembler) addRegMem(dst, base reg, disp int32) {
	a.rex(dst, rAX, base)
	a.emit(0x03)
	a.mem(dst, base, disp)
}

// addMemImm: qword [base+disp] += imm
func (a *assembler) addMemImm(base reg, disp int32, imm int32) {
	a.rex(rAX, rAX, base)
	a.emit(0x81)
	a.mem(0, base, disp)
	a.int32(imm)
}

// imulRegRegImm: dst = src * imm
func (a *assembler) imulRegRegImm(dst, src reg, imm int32) {
	a.rex(dst, rAX, src)
	a.emit(0x69)
	a.modRM(dst, src)
	a.int32(imm)
}

// cmpRegImm: flags = dst - imm
func (a *assembler) cmpRegImm(r reg, imm int32) {
	a.rex(rAX, rAX, r)
	a.emit(0x81)
	a.modRM(7, r)
	a.int32(imm)
}

// cmpRegMem: flags = r - [base+disp]
func (a *assembler) cmpRegMem(r, base reg, disp int32) {
	a.rex(r, rAX, base)
	a.emit(0x3B)
	a.mem(r, base, disp)
}

// cmpMemReg: flags = [base+disp] - r
func (a *assembler) cmpMemReg(base reg, disp int32, r reg) {
	a.rex(r, rAX, base)
	a.emit(0x39)
	a.mem(r, base, disp)
}

// cmpMemImm: flags = qword [base+disp] - imm
func (a *assembler) cmpMemImm(base reg, disp int32, imm int32) {
	a.rex(rAX, rAX, base)
	a.emit(0x81)
	a.mem(7, base, disp)
	a.int32(imm)
}

// testRegReg: flags = r1 & r2
func (a *assembler) testRegReg(r1, r2 reg) {
	a.rex(r2, rAX, r1)
	a.emit(0x85)
	a.modRM(r2, r1)
}

// xorRegReg: dst ^= src
func (a *assembler) xorRegReg(dst, src reg) {
	a.rex(src, rAX, dst)
	a.emit(0x31)
	a.modRM(src, dst)
}

// jcc: conditional rel32 jump
func (a *assembler) jcc(cc byte, l label) {
	a.emit(0x0F, 0x80|cc)
	a.relocs = append(a.relocs, reloc{pos: len(a.buf), lab: l})
	a.int32(0)
}

// jmp: unconditional rel32 jump
func (a *assembler) jmp(l label) {
	a.emit(0xE9)
	a.relocs = append(a.relocs, reloc{pos: len(a.buf), lab: l})
	a.int32(0)
}

// jmpReg: indirect jump through r
func (a *assembler) jmpReg(r reg) {
	if r >= r8 {
		a.emit(0x41)
	}
	a.emit(0xFF)
	a.modRM(4, r)
}

func (a *assembler) ret() {
	a.emit(0xC3)
}

// finalize resolves every label reference and returns the code.
func (a *assembler) finalize() ([]byte, error) {
	for _, rl := range a.relocs {
		target := a.labels[rl.lab]
		if target < 0 {
			return nil, &CodegenError{Message: "unbound label"}
		}
		rel := int64(target) - int64(rl.pos+4)
		if rel < math.MinInt32 || rel > math.MaxInt32 {
			return nil, &CodegenError{Message: "relative jump out of range"}
		}
		binary.LittleEndian.PutUint32(a.buf[rl.pos:], uint32(rel))
	}
	return a.buf, nil
}
