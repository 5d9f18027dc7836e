package arm64

import (
	"github.com/arnegard/ssaforge/internal/compiler/backend/regalloc"
	"github.com/arnegard/ssaforge/internal/compiler/ssa"
)

// InsertLoadConstantBlockArg implements backend.Machine.
func (m *machine) InsertLoadConstantBlockArg(instr *ssa.Instruction, vr regalloc.VReg) {
	val := instr.Return()
	v := instr.ConstantVal()

	switch val.Type() {
	case ssa.TypeF32:
		ld := m.allocateInstr()
		ld.asLoadFpuConst32(vr, v)
		m.insert(ld)
	case ssa.TypeF64:
		ld := m.allocateInstr()
		ld.asLoadFpuConst64(vr, v)
		m.insert(ld)
	case ssa.TypeI32:
		m.lowerConstantI32(vr, int32(v))
	case ssa.TypeI64:
		m.lowerConstantI64(vr, int64(v))
	default:
		panic("BUG: unsupported type for constant load")
	}
}

// lowerConstant lowers a constant-producing ssa.Instruction into a freshly allocated register.
func (m *machine) lowerConstant(instr *ssa.Instruction) (vr regalloc.VReg) {
	val := instr.Return()
	valType := val.Type()
	vr = m.compiler.AllocateVReg(regalloc.RegTypeOf(valType))

	// Zero GPR constants are cheapest as a plain move from the zero register.
	if (valType == ssa.TypeI32 || valType == ssa.TypeI64) && instr.ConstantVal() == 0 {
		mov := m.allocateInstr()
		mov.asMove64(vr, xzrVReg)
		m.insert(mov)
		return
	}
	m.InsertLoadConstantBlockArg(instr, vr)
	return
}

// lowerConstantI32 materializes the 32-bit immediate c into dst.
func (m *machine) lowerConstantI32(dst regalloc.VReg, c int32) {
	m.lowerConstantChunks(dst, uint64(uint32(c)), 2, false)
}

// lowerConstantI64 materializes the 64-bit immediate c into dst.
func (m *machine) lowerConstantI64(dst regalloc.VReg, c int64) {
	m.lowerConstantChunks(dst, uint64(c), 4, true)
}

// lowerConstantI64AndInsert is lowerConstantI64 for use after lowering proper, where the emitted
// instructions must be linked directly after prev rather than appended to the pending queue
// (e.g. when resolving an out-of-range addressing mode immediate post-regalloc).
func (m *machine) lowerConstantI64AndInsert(prev *instruction, dst regalloc.VReg, c int64) *instruction {
	begin := len(m.pendingInstructions)
	m.lowerConstantI64(dst, c)
	added := append([]*instruction(nil), m.pendingInstructions[begin:]...)
	m.pendingInstructions = m.pendingInstructions[:begin]

	cur := prev
	for _, ins := range added {
		cur = linkInstr(cur, ins)
	}
	return cur
}

// lowerConstantChunks picks the cheapest instruction sequence to materialize c (treated as
// numChunks 16-bit chunks) into dst: a single movz/movn when c fits one chunk (inverted or
// not), a single orr against the zero register when c is a logical (bitmask) immediate, or a
// movz/movn seed followed by movk for every chunk that still differs.
func (m *machine) lowerConstantChunks(dst regalloc.VReg, c uint64, numChunks int, dst64bit bool) {
	chunk := func(i int) uint64 { return (c >> uint(i*16)) & 0xffff }

	if c == 0 {
		i := m.allocateInstr()
		i.asMOVZ(dst, 0, 0, dst64bit)
		m.insert(i)
		return
	}

	zeros, ones := 0, 0
	for i := 0; i < numChunks; i++ {
		switch chunk(i) {
		case 0:
			zeros++
		case 0xffff:
			ones++
		}
	}

	if zeros == numChunks-1 {
		for i := 0; i < numChunks; i++ {
			if v := chunk(i); v != 0 {
				instr := m.allocateInstr()
				instr.asMOVZ(dst, v, uint64(i), dst64bit)
				m.insert(instr)
				return
			}
		}
	}

	if ones == numChunks-1 {
		for i := 0; i < numChunks; i++ {
			if v := chunk(i); v != 0xffff {
				instr := m.allocateInstr()
				instr.asMOVN(dst, (^v)&0xffff, uint64(i), dst64bit)
				m.insert(instr)
				return
			}
		}
	}

	if fitsInBitmaskImmediate(c, dst64bit) {
		op := m.allocateInstr()
		op.asALUBitmaskImm(aluOpOrr, xzrVReg, dst, c, dst64bit)
		m.insert(op)
		return
	}

	seedIsOnes := ones > zeros
	seedVal := uint64(0)
	if seedIsOnes {
		seedVal = 0xffff
	}
	emittedSeed := false
	for i := 0; i < numChunks; i++ {
		v := chunk(i)
		if !emittedSeed {
			instr := m.allocateInstr()
			if seedIsOnes {
				instr.asMOVN(dst, (^v)&0xffff, uint64(i), dst64bit)
			} else {
				instr.asMOVZ(dst, v, uint64(i), dst64bit)
			}
			m.insert(instr)
			emittedSeed = true
			continue
		}
		if v == seedVal {
			continue
		}
		instr := m.allocateInstr()
		instr.asMOVK(dst, v, uint64(i), dst64bit)
		m.insert(instr)
	}
}

// fitsInBitmaskImmediate reports whether c, interpreted as a 32- or 64-bit pattern per
// dst64bit, is encodable as an ARM64 logical (bitmask) immediate: a single run of 1 to size-1
// contiguous one bits (allowed to wrap around), tiled at some power-of-two element size
// dividing the register width.
func fitsInBitmaskImmediate(c uint64, dst64bit bool) bool {
	width := uint(32)
	if dst64bit {
		width = 64
	} else {
		c &= 0xffff_ffff
	}
	if c == 0 {
		return false
	}
	for size := width; size >= 2; size /= 2 {
		var mask uint64
		if size == 64 {
			mask = ^uint64(0)
		} else {
			mask = uint64(1)<<size - 1
		}
		elem := c & mask
		periodic := true
		for shift := size; shift < width; shift += size {
			if (c>>shift)&mask != elem {
				periodic = false
				break
			}
		}
		if !periodic || elem == 0 || elem == mask {
			continue
		}
		rotated := elem
		for r := uint(0); r < size; r++ {
			if rotated&(rotated+1) == 0 {
				return true
			}
			rotated = ((rotated >> 1) | (rotated << (size - 1))) & mask
		}
	}
	return false
}
