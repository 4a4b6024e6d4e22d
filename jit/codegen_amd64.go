//go:build linux || darwin

package jit

import (
	"github.com/coregx/rejit/prog"
)

// Fixed register assignment for generated code. R14 (goroutine
// pointer) and R15 belong to the Go runtime, BP and SP to the Go
// frame; none are ever touched.
const (
	regCtx       = rDI // *execFrame
	regInput     = rSI // input base pointer
	regPos       = rDX // current position
	regByte      = rCX // current byte, or 256 past the end
	regStamp     = rBX // visited stamp of the list being filled
	regTmp       = rAX // scratch / dispatch target
	regVisited   = r8  // visited stamp table base
	regScratch   = r9  // scratch slot row base
	regFillList  = r10 // fill list base
	regFillLen   = r11 // fill list length
	regFillArena = r12 // fill arena base
	regTmp2      = r13 // scratch
)

// execFrame field offsets. frame_amd64.go asserts these against the
// Go struct layout.
const (
	offInput      = 0
	offInputLen   = 8
	offStartAt    = 16
	offAnchored   = 24
	offVisited    = 32
	offScratch    = 40
	offSpill      = 48
	offListA      = 56
	offArenaA     = 64
	offListB      = 72
	offArenaB     = 80
	offWalkList   = 88
	offWalkArena  = 96
	offWalkLen    = 104
	offWalkIdx    = 112
	offMatched    = 120
	offMatchSlots = 128
	offFreeList   = 136
	offFreeArena  = 144
	offWalkRow    = 152
)

// endOfInput is the byte value loaded past the last input byte. It is
// outside every range set, so byte tests fail without a special case.
const endOfInput = 256

// codegen lowers one program to machine code.
type codegen struct {
	asm      *assembler
	p        *prog.Program
	numSlots int

	// stepLabels maps each terminal (byte/match) pc to the label of
	// its step block. List entries hold these addresses.
	stepLabels map[uint32]label

	seedDone, walkLoop, walkDone, done label
}

// generate returns the machine code and the entry offset within it.
func generate(p *prog.Program) (code []byte, entry int, err error) {
	c := &codegen{
		asm:        newAssembler(),
		p:          p,
		numSlots:   p.NumSlots(),
		stepLabels: make(map[uint32]label),
	}
	a := c.asm

	c.seedDone = a.newLabel()
	c.walkLoop = a.newLabel()
	c.walkDone = a.newLabel()
	c.done = a.newLabel()
	for pc := uint32(0); pc < uint32(p.Len()); pc++ {
		switch p.Inst(pc).Op {
		case prog.OpByte, prog.OpMatch:
			c.stepLabels[pc] = a.newLabel()
		}
	}

	// The seed closure runs with the fill registers describing the
	// current list and the stamp set to pos+1.
	seedEntry := c.chain(p.Start(), make([]bool, p.Len()), c.seedDone)

	c.emitStepBlocks()
	mainStart := c.emitMain(seedEntry)

	code, err = a.finalize()
	if err != nil {
		return nil, 0, err
	}
	return code, a.labelPos(mainStart), nil
}

// emitMain emits the position loop and returns its entry label.
//
// Loop shape, per position pos in [startAt, len]:
//
//	seed a lowest-priority thread (skipped once matched, and at
//	  every pos != startAt when anchored)
//	hand the filled list over to walking, point fills at the spare
//	  list pair, bump the stamp to pos+2
//	fetch the byte (256 at pos == len) and dispatch every walk entry
//	swap: the filled list becomes current, the walked pair is spare
//	stop when pos passes len, or when the new current list is empty
//	  and no further seeds can come
func (c *codegen) emitMain(seedEntry label) label {
	a := c.asm
	n8 := int32(c.numSlots * 8)

	mainStart := a.boundLabel()
	a.movRegMem(regInput, regCtx, offInput)
	a.movRegMem(regVisited, regCtx, offVisited)
	a.movRegMem(regScratch, regCtx, offScratch)
	a.movRegMem(regPos, regCtx, offStartAt)
	a.movRegMem(regFillList, regCtx, offListA)
	a.movRegMem(regFillArena, regCtx, offArenaA)
	a.xorRegReg(regFillLen, regFillLen)
	a.movRegMem(regTmp, regCtx, offListB)
	a.movMemReg(regCtx, offFreeList, regTmp)
	a.movRegMem(regTmp, regCtx, offArenaB)
	a.movMemReg(regCtx, offFreeArena, regTmp)

	posLoop := a.boundLabel()

	// Seed gate.
	doSeed := a.newLabel()
	a.cmpMemImm(regCtx, offMatched, 0)
	a.jcc(ccNE, c.seedDone)
	a.cmpMemImm(regCtx, offAnchored, 0)
	a.jcc(ccE, doSeed)
	a.cmpRegMem(regPos, regCtx, offStartAt)
	a.jcc(ccNE, c.seedDone)
	a.bind(doSeed)
	a.leaRegMem(regStamp, regPos, 1)
	for s := 0; s < c.numSlots; s++ {
		a.movMemImm(regScratch, int32(s*8), 0)
	}
	a.jmp(seedEntry)
	a.bind(c.seedDone)

	// Hand the current list to the walk fields; fills go to the
	// spare pair from here on.
	a.movMemReg(regCtx, offWalkList, regFillList)
	a.movMemReg(regCtx, offWalkArena, regFillArena)
	a.movMemReg(regCtx, offWalkLen, regFillLen)
	a.movMemImm(regCtx, offWalkIdx, 0)
	a.movRegMem(regFillList, regCtx, offFreeList)
	a.movRegMem(regFillArena, regCtx, offFreeArena)
	a.xorRegReg(regFillLen, regFillLen)
	a.leaRegMem(regStamp, regPos, 2)

	// Byte fetch.
	haveByte := a.newLabel()
	a.cmpRegMem(regPos, regCtx, offInputLen)
	a.jcc(ccB, haveByte)
	a.movRegImm(regByte, endOfInput)
	a.jmp(c.walkLoop)
	a.bind(haveByte)
	a.movzxRegByteIdx(regByte, regInput, regPos)

	// Dispatch loop.
	a.bind(c.walkLoop)
	a.movRegMem(regTmp, regCtx, offWalkIdx)
	a.cmpRegMem(regTmp, regCtx, offWalkLen)
	a.jcc(ccAE, c.walkDone)
	a.imulRegRegImm(regTmp2, regTmp, n8)
	a.addRegMem(regTmp2, regCtx, offWalkArena)
	a.movMemReg(regCtx, offWalkRow, regTmp2)
	a.movRegMem(regTmp2, regCtx, offWalkList)
	a.movRegMemIdx8(regTmp, regTmp2, regTmp)
	a.addMemImm(regCtx, offWalkIdx, 1)
	a.jmpReg(regTmp)

	// End of position: recycle the walked pair, advance, decide.
	a.bind(c.walkDone)
	a.movRegMem(regTmp, regCtx, offWalkList)
	a.movMemReg(regCtx, offFreeList, regTmp)
	a.movRegMem(regTmp, regCtx, offWalkArena)
	a.movMemReg(regCtx, offFreeArena, regTmp)
	a.addRegImm(regPos, 1)
	a.cmpRegMem(regPos, regCtx, offInputLen)
	a.jcc(ccA, c.done)
	noMatchYet := a.newLabel()
	a.cmpMemImm(regCtx, offMatched, 0)
	a.jcc(ccE, noMatchYet)
	a.testRegReg(regFillLen, regFillLen)
	a.jcc(ccE, c.done)
	a.jmp(posLoop)
	a.bind(noMatchYet)
	a.cmpMemImm(regCtx, offAnchored, 0)
	a.jcc(ccE, posLoop)
	a.testRegReg(regFillLen, regFillLen)
	a.jcc(ccE, c.done)
	a.jmp(posLoop)

	a.bind(c.done)
	a.movRegMem(regTmp, regCtx, offMatched)
	a.ret()
	return mainStart
}

// emitStepBlocks emits the per-terminal dispatch targets. Byte blocks
// test the current byte against the range set, copy the thread's slot
// row into scratch, and run the closure chain toward the successor.
// Match blocks record the row and cut the rest of the walk list.
func (c *codegen) emitStepBlocks() {
	a := c.asm
	for pc := uint32(0); pc < uint32(c.p.Len()); pc++ {
		in := c.p.Inst(pc)
		switch in.Op {
		case prog.OpByte:
			a.bind(c.stepLabels[pc])
			ok := a.newLabel()
			for _, r := range in.Ranges {
				if r.Lo == r.Hi {
					a.cmpRegImm(regByte, int32(r.Lo))
					a.jcc(ccE, ok)
					continue
				}
				skip := a.newLabel()
				a.cmpRegImm(regByte, int32(r.Lo))
				a.jcc(ccB, skip)
				a.cmpRegImm(regByte, int32(r.Hi))
				a.jcc(ccBE, ok)
				a.bind(skip)
			}
			a.jmp(c.walkLoop)
			a.bind(ok)
			a.movRegMem(regTmp, regCtx, offWalkRow)
			for s := 0; s < c.numSlots; s++ {
				a.movRegMem(regTmp2, regTmp, int32(s*8))
				a.movMemReg(regScratch, int32(s*8), regTmp2)
			}
			// Closure toward the successor falls through here.
			c.chainBody([]uint32{in.Next}, make([]bool, c.p.Len()), 0, c.walkLoop)

		case prog.OpMatch:
			a.bind(c.stepLabels[pc])
			a.movRegMem(regTmp, regCtx, offWalkRow)
			a.movRegMem(regTmp2, regCtx, offMatchSlots)
			// regByte is reloaded every position; safe as a third
			// scratch here since match cuts straight to walkDone.
			for s := 0; s < c.numSlots; s++ {
				a.movRegMem(regByte, regTmp, int32(s*8))
				a.movMemReg(regTmp2, int32(s*8), regByte)
			}
			a.movMemImm(regCtx, offMatched, 1)
			a.jmp(c.walkDone)
		}
	}
}

// chain emits the epsilon closure from pc as straight-line code at
// the current position and returns its entry label. Control reaches
// cont when the closure completes.
func (c *codegen) chain(pc uint32, visited []bool, cont label) label {
	entry := c.asm.boundLabel()
	c.chainBody([]uint32{pc}, visited, 0, cont)
	return entry
}

// chainBody emits closure blocks linearly in runtime order: the stack
// holds pending pcs (top runs first), and each emitted block falls
// through to the next. visited is the compile-time dedup set for this
// chain; because emission order is execution order, a pc already seen
// here ran earlier at the same position with higher priority, so a
// re-walk could only reach terminals the runtime stamp check rejects
// anyway. Skipping it both bounds chain length and matches the
// interpreter's per-generation dedup. depth counts enclosing saves
// for spill indexing.
func (c *codegen) chainBody(stack []uint32, visited []bool, depth int, cont label) {
	a := c.asm
	for len(stack) > 0 {
		pc := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[pc] {
			continue
		}
		visited[pc] = true
		in := c.p.Inst(pc)

		switch in.Op {
		case prog.OpJump:
			stack = append(stack, in.Next)

		case prog.OpSplit:
			// Next runs before Alt: push Alt deeper.
			stack = append(stack, in.Alt, in.Next)

		case prog.OpSave:
			slotOff := int32(in.Slot * 8)
			a.movRegMem(regTmp, regScratch, slotOff)
			a.movRegMem(regTmp2, regCtx, offSpill)
			a.movMemReg(regTmp2, int32(depth*8), regTmp)
			// Slot values are position+1; the stamp already is.
			a.movMemReg(regScratch, slotOff, regStamp)
			restore := a.newLabel()
			c.chainBody([]uint32{in.Next}, visited, depth+1, restore)
			a.bind(restore)
			a.movRegMem(regTmp2, regCtx, offSpill)
			a.movRegMem(regTmp, regTmp2, int32(depth*8))
			a.movMemReg(regScratch, slotOff, regTmp)

		case prog.OpByte, prog.OpMatch:
			skip := a.newLabel()
			visOff := int32(pc * 8)
			a.cmpMemReg(regVisited, visOff, regStamp)
			a.jcc(ccE, skip)
			a.movMemReg(regVisited, visOff, regStamp)
			a.imulRegRegImm(regTmp, regFillLen, int32(c.numSlots*8))
			a.addRegReg(regTmp, regFillArena)
			for s := 0; s < c.numSlots; s++ {
				a.movRegMem(regTmp2, regScratch, int32(s*8))
				a.movMemReg(regTmp, int32(s*8), regTmp2)
			}
			a.leaRegLabel(regTmp2, c.stepLabels[pc])
			a.movMemIdx8Reg(regFillList, regFillLen, regTmp2)
			a.addRegImm(regFillLen, 1)
			a.bind(skip)
		}
	}
	a.jmp(cont)
}
