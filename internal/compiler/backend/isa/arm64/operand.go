package arm64

import (
	"fmt"

	"github.com/arnegard/ssaforge/internal/compiler/backend/regalloc"
)

// operandKind discriminates the shapes an operand field on instruction can take. Not every
// instruction kind accepts every operandKind; asXXX constructors on instruction validate that.
type operandKind byte

const (
	// operandKindNR is a plain register, used unmodified.
	operandKindNR operandKind = iota
	// operandKindSR is a register shifted by an immediate amount (shifted register operand).
	operandKindSR
	// operandKindER is a register extended (sign- or zero-) to a wider width (extended register operand).
	operandKindER
	// operandKindImm12 is an immediate in [0, 4095], optionally left-shifted by 12.
	operandKindImm12
	// operandKindShiftImm is a bare immediate shift amount, e.g. the #imm in "lsl x0, x1, #imm".
	operandKindShiftImm
)

// operand is the generic representation of an instruction's register/immediate operand. Which
// fields are meaningful depends on kind: r holds the register for NR/SR/ER, data/data2 hold the
// shift-or-extend amount and operator for SR/ER, and the raw immediate (plus shift bit) for
// Imm12/ShiftImm. A small number of instruction kinds (e.g. condBr) also reuse rd.data/data2 as
// plain scratch fields unrelated to any operandKind; see condBrOffsetResolve.
type operand struct {
	kind  operandKind
	r     regalloc.VReg
	data  uint64
	data2 uint64
}

// operandNR wraps r as a plain register operand.
func operandNR(r regalloc.VReg) operand {
	return operand{kind: operandKindNR, r: r}
}

// operandSR wraps r as a register shifted by amt (0-63) via sop.
func operandSR(r regalloc.VReg, amt byte, sop shiftOp) operand {
	return operand{kind: operandKindSR, r: r, data: uint64(amt), data2: uint64(sop)}
}

// operandER wraps r as a register extended to toBits via eop.
func operandER(r regalloc.VReg, eop extendOp, toBits byte) operand {
	return operand{kind: operandKindER, r: r, data: uint64(eop), data2: uint64(toBits)}
}

// operandImm12 constructs an immediate operand for the 12-bit-immediate ALU instruction forms.
// shiftBit is 0 for the immediate as-is, or 1 to mean the immediate is left-shifted by 12 (LSL #12).
func operandImm12(imm16 uint16, shiftBit byte) operand {
	return operand{kind: operandKindImm12, data: uint64(imm16), data2: uint64(shiftBit)}
}

// operandShiftImm constructs a bare shift-amount operand, e.g. for "lsl rd, rn, #amt".
func operandShiftImm(amt byte) operand {
	return operand{kind: operandKindShiftImm, data: uint64(amt)}
}

// asImm12Operand returns an operandKindImm12 operand for imm, and false if imm does not fit the
// 12-bit-immediate encoding (optionally shifted left by 12).
func asImm12Operand(imm uint64) (operand, bool) {
	if imm&^uint64(0xfff) == 0 {
		return operandImm12(uint16(imm), 0), true
	}
	if imm&^uint64(0xfff000) == 0 {
		return operandImm12(uint16(imm>>12), 1), true
	}
	return operand{}, false
}

// nr returns the register embedded in an NR/SR/ER operand.
func (o operand) nr() regalloc.VReg { return o.r }

// reg returns the register embedded in the operand, or an invalid VReg for immediate-only kinds.
// It is used uniformly across operand kinds by code that tracks register uses/defs (e.g. for
// register-allocation bookkeeping), where an immediate operand simply contributes nothing.
func (o operand) reg() regalloc.VReg { return o.r }

// realReg returns the RealReg backing the operand's register.
func (o operand) realReg() regalloc.RealReg { return o.r.RealReg() }

// assignReg returns a copy of o with its register replaced by r, used by register allocation to
// rewrite VRegs to RealRegs (or vice versa for spill/reload bookkeeping) after the fact.
func (o operand) assignReg(r regalloc.VReg) operand {
	o.r = r
	return o
}

// imm12 returns the (immediate, shiftBit) pair backing an operandKindImm12 operand.
func (o operand) imm12() (imm12 uint16, shiftBit byte) {
	return uint16(o.data), byte(o.data2)
}

// shiftImm returns the shift amount backing an operandKindShiftImm (or operandKindSR) operand.
func (o operand) shiftImm() uint64 { return o.data }

// sr returns the (register, amount, shiftOp) triple backing an operandKindSR operand.
func (o operand) sr() (r regalloc.VReg, amt byte, sop shiftOp) {
	return o.r, byte(o.data), shiftOp(o.data2)
}

// er returns the (register, extendOp, toBits) triple backing an operandKindER operand.
func (o operand) er() (r regalloc.VReg, eop extendOp, toBits byte) {
	return o.r, extendOp(o.data), byte(o.data2)
}

// format renders the operand as an arm64 assembler operand, sized (for register operands) per
// size (32 or 64 bits).
func (o operand) format(size byte) string {
	switch o.kind {
	case operandKindNR:
		return formatVRegSized(o.r, size)
	case operandKindSR:
		return fmt.Sprintf("%s, %s #%d", formatVRegSized(o.r, size), shiftOp(o.data2), o.data)
	case operandKindER:
		return fmt.Sprintf("%s, %s", formatVRegSized(o.r, size), extendOp(o.data))
	case operandKindImm12:
		imm12, shiftBit := o.imm12()
		if shiftBit != 0 {
			return fmt.Sprintf("#%#x, lsl #12", imm12)
		}
		return fmt.Sprintf("#%#x", imm12)
	case operandKindShiftImm:
		return fmt.Sprintf("#%#x", o.data)
	default:
		panic("BUG: invalid operandKind")
	}
}
