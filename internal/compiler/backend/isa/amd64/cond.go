package amd64

import "github.com/arnegard/ssaforge/internal/compiler/ssa"

// cond represents a condition code tested by a conditional branch, SETcc, or CMOVcc
// instruction. The values match the "tttn" nibble used by the x86-64 encoding, so cond can be
// used directly to compute opcodes (e.g. Jcc near form is 0x0F80+tttn).
type cond byte

const (
	condO   cond = 0x0 // overflow
	condNO  cond = 0x1 // not overflow
	condB   cond = 0x2 // below (unsigned <)
	condNB  cond = 0x3 // not below (unsigned >=)
	condZ   cond = 0x4 // zero / equal
	condNZ  cond = 0x5 // not zero / not equal
	condBE  cond = 0x6 // below or equal (unsigned <=)
	condNBE cond = 0x7 // not below or equal (unsigned >)
	condS   cond = 0x8 // sign
	condNS  cond = 0x9 // not sign
	condP   cond = 0xa // parity
	condNP  cond = 0xb // not parity
	condL   cond = 0xc // less (signed <)
	condNL  cond = 0xd // not less (signed >=)
	condLE  cond = 0xe // less or equal (signed <=)
	condNLE cond = 0xf // not less or equal (signed >)

	condInvalid cond = 0xff
)

// invert returns the condition which is true exactly when c is false.
func (c cond) invert() cond {
	switch c {
	case condO:
		return condNO
	case condNO:
		return condO
	case condB:
		return condNB
	case condNB:
		return condB
	case condZ:
		return condNZ
	case condNZ:
		return condZ
	case condBE:
		return condNBE
	case condNBE:
		return condBE
	case condS:
		return condNS
	case condNS:
		return condS
	case condP:
		return condNP
	case condNP:
		return condP
	case condL:
		return condNL
	case condNL:
		return condL
	case condLE:
		return condNLE
	case condNLE:
		return condLE
	default:
		panic(c)
	}
}

// String implements fmt.Stringer, returning the mnemonic suffix used by Jcc/SETcc/CMOVcc
// (e.g. "z" for JZ/SETZ/CMOVZ).
func (c cond) String() string {
	switch c {
	case condO:
		return "o"
	case condNO:
		return "no"
	case condB:
		return "b"
	case condNB:
		return "nb"
	case condZ:
		return "z"
	case condNZ:
		return "nz"
	case condBE:
		return "be"
	case condNBE:
		return "nbe"
	case condS:
		return "s"
	case condNS:
		return "ns"
	case condP:
		return "p"
	case condNP:
		return "np"
	case condL:
		return "l"
	case condNL:
		return "nl"
	case condLE:
		return "le"
	case condNLE:
		return "nle"
	default:
		panic(c)
	}
}

// condFromSSAIntCmpCond returns the x86-64 condition testing the flags produced by a CMP
// instruction (dst - src) for the given ssa.IntegerCmpCond.
func condFromSSAIntCmpCond(c ssa.IntegerCmpCond) cond {
	switch c {
	case ssa.IntegerCmpCondEqual:
		return condZ
	case ssa.IntegerCmpCondNotEqual:
		return condNZ
	case ssa.IntegerCmpCondSignedLessThan:
		return condL
	case ssa.IntegerCmpCondSignedGreaterThanOrEqual:
		return condNL
	case ssa.IntegerCmpCondSignedGreaterThan:
		return condNLE
	case ssa.IntegerCmpCondSignedLessThanOrEqual:
		return condLE
	case ssa.IntegerCmpCondUnsignedLessThan:
		return condB
	case ssa.IntegerCmpCondUnsignedGreaterThanOrEqual:
		return condNB
	case ssa.IntegerCmpCondUnsignedGreaterThan:
		return condNBE
	case ssa.IntegerCmpCondUnsignedLessThanOrEqual:
		return condBE
	default:
		panic(c)
	}
}

// condFromSSAFloatCmpCond returns the x86-64 condition testing the flags produced by a
// UCOMISS/UCOMISD instruction for the given ssa.FloatCmpCond. Callers must account for the
// parity flag (unordered result) themselves where the comparison requires it; the mappings
// below match the conditions used when the operands are swapped/ordered so that a single
// flags-based branch or set suffices, as is conventional in x86-64 code generators.
func condFromSSAFloatCmpCond(c ssa.FloatCmpCond) cond {
	switch c {
	case ssa.FloatCmpCondEqual:
		return condZ
	case ssa.FloatCmpCondNotEqual:
		return condNZ
	case ssa.FloatCmpCondLessThan:
		return condB
	case ssa.FloatCmpCondLessThanOrEqual:
		return condBE
	case ssa.FloatCmpCondGreaterThan:
		return condNBE
	case ssa.FloatCmpCondGreaterThanOrEqual:
		return condNB
	default:
		panic(c)
	}
}
