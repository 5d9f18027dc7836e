package amd64

import (
	"github.com/arnegard/ssaforge/internal/compiler/backend"
	"github.com/arnegard/ssaforge/internal/compiler/backend/regalloc"
	"github.com/arnegard/ssaforge/internal/compiler/ssa"
)

// InsertMoveBefore implements backend.RegAllocFunctionMachine.
func (m *machine) InsertMoveBefore(dst, src regalloc.VReg, instr *instruction) {
	typ := m.c.TypeOf(src)

	mov := m.allocateInstr()
	if typ.IsInt() {
		mov.asMovRR(src, dst, true)
	} else {
		mov.asXmmUnaryRmR(sseOpcodeMovdqu, newOperandReg(src), dst)
	}

	cur := instr.prev
	prevNext := cur.next
	cur = linkInstr(cur, mov)
	linkInstr(cur, prevNext)
}

// InsertStoreRegisterAt implements backend.RegAllocFunctionMachine.
func (m *machine) InsertStoreRegisterAt(v regalloc.VReg, instr *instruction, after bool) *instruction {
	if !v.IsRealReg() {
		panic("BUG: VReg must be backed by real reg to be stored")
	}

	typ := m.c.TypeOf(v)

	var prevNext, cur *instruction
	if after {
		cur, prevNext = instr, instr.next
	} else {
		cur, prevNext = instr.prev, instr
	}

	size := typ.Size()
	offset := m.getVRegSpillSlotOffsetFromSP(v.ID(), size)
	mem := newOperandMem(newAmodeImmReg(uint32(offset), rspVReg))

	store := m.allocateInstr()
	if typ.IsInt() {
		store.asMovRM(v, mem, size)
	} else {
		store.asXmmMovRM(xmmMovOpcodeFor(typ), v, mem)
	}

	cur = linkInstr(cur, store)
	return linkInstr(cur, prevNext)
}

// InsertReloadRegisterAt implements backend.RegAllocFunctionMachine.
func (m *machine) InsertReloadRegisterAt(v regalloc.VReg, instr *instruction, after bool) *instruction {
	if !v.IsRealReg() {
		panic("BUG: VReg must be backed by real reg to be stored")
	}

	typ := m.c.TypeOf(v)

	var prevNext, cur *instruction
	if after {
		cur, prevNext = instr, instr.next
	} else {
		cur, prevNext = instr.prev, instr
	}

	offset := m.getVRegSpillSlotOffsetFromSP(v.ID(), typ.Size())
	mem := newOperandMem(newAmodeImmReg(uint32(offset), rspVReg))

	load := m.allocateInstr()
	if typ.IsInt() {
		load.asMov64MR(mem, v)
	} else {
		load.asXmmUnaryRmR(xmmMovOpcodeFor(typ), mem, v)
	}

	cur = linkInstr(cur, load)
	return linkInstr(cur, prevNext)
}

// xmmMovOpcodeFor returns the sseOpcode that moves a value of typ between an xmm register and
// memory, or between two xmm registers.
func xmmMovOpcodeFor(typ ssa.Type) sseOpcode {
	switch typ {
	case ssa.TypeF32:
		return sseOpcodeMovss
	case ssa.TypeF64:
		return sseOpcodeMovsd
	case ssa.TypeV128:
		return sseOpcodeMovdqu
	default:
		panic("BUG")
	}
}

// ClobberedRegisters implements backend.RegAllocFunctionMachine.
func (m *machine) ClobberedRegisters(regs []regalloc.VReg) {
	m.clobberedRegs = append(m.clobberedRegs[:0], regs...)
}

// Swap implements backend.RegAllocFunctionMachine.
func (m *machine) Swap(cur *instruction, x1, x2, tmp regalloc.VReg) {
	if x1.RegType() == regalloc.RegTypeInt {
		// General-purpose registers can be exchanged in a single instruction.
		prevNext := cur.next
		xc := m.allocateInstr().asXCHG(x1, x2)
		cur = linkInstr(cur, xc)
		linkInstr(cur, prevNext)
		return
	}

	if !tmp.Valid() {
		r2 := x2.RealReg()
		// No scratch register available: spill x1 to the stack, overwrite x1 with x2, then reload
		// the original x1 value into the register x2 used to occupy.
		cur = m.InsertStoreRegisterAt(x1, cur, true).prev
		cur = linkInstr(cur, m.allocateInstr().asXmmUnaryRmR(sseOpcodeMovdqu, newOperandReg(x2), x1))
		m.InsertReloadRegisterAt(x1.SetRealReg(r2), cur, true)
		return
	}

	prevNext := cur.next
	mov1 := m.allocateInstr().asXmmUnaryRmR(sseOpcodeMovdqu, newOperandReg(x1), tmp)
	mov2 := m.allocateInstr().asXmmUnaryRmR(sseOpcodeMovdqu, newOperandReg(x2), x1)
	mov3 := m.allocateInstr().asXmmUnaryRmR(sseOpcodeMovdqu, newOperandReg(tmp), x2)
	cur = linkInstr(cur, mov1)
	cur = linkInstr(cur, mov2)
	cur = linkInstr(cur, mov3)
	linkInstr(cur, prevNext)
}

// LastInstrForInsertion implements backend.RegAllocFunctionMachine.
func (m *machine) LastInstrForInsertion(begin, end *instruction) *instruction {
	cur := end
	for cur.kind == nop0 {
		cur = cur.prev
		if cur == begin {
			return end
		}
	}
	switch cur.kind {
	case jmp, jmpIf, jmpTableIsland, ret:
		return cur
	default:
		return end
	}
}

// SSABlockLabel implements backend.RegAllocFunctionMachine.
func (m *machine) SSABlockLabel(id ssa.BasicBlockID) backend.Label {
	if int(id) < len(m.ectx.SsaBlockIDToLabels) {
		return m.ectx.SsaBlockIDToLabels[id]
	}
	return backend.LabelInvalid
}
