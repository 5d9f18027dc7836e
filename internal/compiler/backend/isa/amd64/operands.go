package amd64

import (
	"fmt"

	"github.com/arnegard/ssaforge/internal/compiler/backend"
	"github.com/arnegard/ssaforge/internal/compiler/backend/regalloc"
)

type operand struct {
	kind  operandKind
	r     regalloc.VReg
	imm32 uint32
	amode amode
	l     backend.Label
}

type operandKind byte

const (
	// operandKindReg is an operand which is an integer Register.
	operandKindReg operandKind = iota + 1

	// operandKindMem is a value in Memory, addressed by an amode.  This can denote an 8, 16,
	// 32, 64, or 128 bit value.
	operandKindMem

	// operandKindImm32 is a 32-bit immediate, sign-extended to 64 bits where the instruction requires it.
	operandKindImm32

	// operandKindLabel is a reference to a backend.Label, used as the target of jmp/jmpIf/lea.
	operandKindLabel

	// operandImm32 is an alias of operandKindImm32 kept for encoder call sites.
	operandImm32 = operandKindImm32
)

func (o *operand) format(_64 bool) string {
	switch o.kind {
	case operandKindReg:
		return formatVRegSized(o.r, _64)
	case operandKindMem:
		return o.amode.String()
	case operandKindImm32:
		return fmt.Sprintf("$%d", int32(o.imm32))
	case operandKindLabel:
		return o.l.String()
	default:
		panic("BUG: invalid operand kind")
	}
}

// reg returns the register held by a operandKindReg operand.
func (o operand) reg() regalloc.VReg { return o.r }

// label returns the backend.Label held by a operandKindLabel operand.
func (o operand) label() backend.Label { return o.l }

func newOperandReg(r regalloc.VReg) operand {
	return operand{kind: operandKindReg, r: r}
}

func newOperandImm32(imm32 uint32) operand {
	return operand{kind: operandKindImm32, imm32: imm32}
}

func newOperandMem(a amode) operand {
	return operand{kind: operandKindMem, amode: a}
}

func newOperandLabel(l backend.Label) operand {
	return operand{kind: operandKindLabel, l: l}
}

// amode is a memory operand (addressing mode).
type amode struct {
	kind  amodeKind
	imm32 uint32
	base  regalloc.VReg

	// For amodeRegRegShift:
	index regalloc.VReg
	shift byte // 0, 1, 2, 3

	// For amodeRipRelative.
	// If kind == amodeRipRelative, and label is invalid,
	// then imm32 should represent the resolved address.
	label backend.Label
}

type amodeKind byte

const (
	// amodeImmReg calculates sign-extend-32-to-64(Immediate) + base
	amodeImmReg amodeKind = iota + 1

	// amodeRegRegShift calculates sign-extend-32-to-64(Immediate) + base + (Register2 << Shift)
	amodeRegRegShift

	// amodeRipRelative is a memory operand with RIP-relative addressing mode.
	amodeRipRelative

	// TODO: there are other addressing modes such as the one with base register is absent.
)

func newAmodeImmReg(imm32 uint32, base regalloc.VReg) amode {
	return amode{kind: amodeImmReg, imm32: imm32, base: base}
}

func newAmodeRegRegShift(imm32 uint32, base, index regalloc.VReg, shift byte) amode {
	return amode{kind: amodeRegRegShift, imm32: imm32, base: base, index: index, shift: shift}
}

func newAmodeRipRelative(l backend.Label) amode {
	return amode{kind: amodeRipRelative, label: l}
}

// newAmodeImmReg is the Machine-scoped counterpart of the free function of the same name, kept for
// call sites that already have a *machine in scope.
func (m *machine) newAmodeImmReg(imm32 uint32, base regalloc.VReg) amode {
	return newAmodeImmReg(imm32, base)
}

// newAmodeRegRegShift is the Machine-scoped counterpart of the free function of the same name.
func (m *machine) newAmodeRegRegShift(imm32 uint32, base, index regalloc.VReg, shift byte) amode {
	return newAmodeRegRegShift(imm32, base, index, shift)
}

// uses appends the registers referenced by this addressing mode into *regs.
func (a *amode) uses(regs *[]regalloc.VReg) {
	switch a.kind {
	case amodeImmReg:
		*regs = append(*regs, a.base)
	case amodeRegRegShift:
		*regs = append(*regs, a.base, a.index)
	case amodeRipRelative:
	default:
		panic("BUG: invalid amode kind")
	}
}

// String implements fmt.Stringer.
func (a *amode) String() string {
	switch a.kind {
	case amodeImmReg:
		return fmt.Sprintf("%d(%s)", int32(a.imm32), formatVRegSized(a.base, true))
	case amodeRegRegShift:
		return fmt.Sprintf(
			"%d(%s,%s,%d)",
			int32(a.imm32), formatVRegSized(a.base, true), formatVRegSized(a.index, true), 1<<a.shift)
	case amodeRipRelative:
		if a.label != backend.LabelInvalid {
			return fmt.Sprintf("%s(%%rip)", a.label)
		} else {
			return fmt.Sprintf("%d(%%rip)", int32(a.imm32))
		}
	}
	panic("BUG: invalid amode kind")
}
