package arm64

import (
	"github.com/arnegard/ssaforge/internal/compiler/backend"
	"github.com/arnegard/ssaforge/internal/compiler/backend/regalloc"
	"github.com/arnegard/ssaforge/internal/compiler/ssa"
)

// AAPCS64 passes up to 8 integer and 8 floating/vector arguments (and results) in registers;
// anything beyond that spills to the stack. See the "Procedure Call Standard for the Arm 64-bit
// Architecture" (AAPCS64), section 6.4.2.
var (
	intArgResultRegs   = []regalloc.RealReg{x0, x1, x2, x3, x4, x5, x6, x7}
	floatArgResultRegs = []regalloc.RealReg{v0, v1, v2, v3, v4, v5, v6, v7}
)

var regInfo = &regalloc.RegisterInfo{
	AllocatableRegisters: [regalloc.NumRegType][]regalloc.RealReg{
		regalloc.RegTypeInt: {
			x8, x9, x10, x11, x12, x13, x14, x15,
			x19, x20, x21, x22, x23, x24, x25, x26, x27, x28,
			x0, x1, x2, x3, x4, x5, x6, x7,
		},
		regalloc.RegTypeFloat: {
			v8, v9, v10, v11, v12, v13, v14, v15,
			v18, v19, v20, v21, v22, v23, v24, v25, v26,
			v0, v1, v2, v3, v4, v5, v6, v7,
		},
	},
	CalleeSavedRegisters: regalloc.NewRegSet(
		x19, x20, x21, x22, x23, x24, x25, x26, x28,
		v18, v19, v20, v21, v22, v23, v24, v25, v26, v27, v28, v29, v30, v31,
	),
	CallerSavedRegisters: regalloc.NewRegSet(
		x0, x1, x2, x3, x4, x5, x6, x7, x8, x9, x10, x11, x12, x13, x14, x15,
		v0, v1, v2, v3, v4, v5, v6, v7, v8, v9, v10, v11, v12, v13, v14, v15,
	),
	RealRegName: func(r regalloc.RealReg) string { return regNames[r] },
	RealRegType: func(r regalloc.RealReg) regalloc.RegType {
		if r < v0 {
			return regalloc.RegTypeInt
		}
		return regalloc.RegTypeFloat
	},
}

// abiImpl computes and holds the AAPCS64 argument/return layout for a single ssa.Signature, plus
// the extra bookkeeping needed by the hand-built Go-call preambles in abi_go_call.go and
// abi_go_entry.go (which run outside the usual lowering pipeline).
type abiImpl struct {
	m    *machine
	args []backend.ABIArg
	rets []backend.ABIArg

	argStackSize, retStackSize int64
	argRealRegs, retRealRegs   []regalloc.VReg
}

// init (re)computes the layout of abi for sig, reusing abi's backing slices across calls.
func (abi *abiImpl) init(sig *ssa.Signature) {
	if n := len(sig.Results); cap(abi.rets) < n {
		abi.rets = make([]backend.ABIArg, n)
	}
	abi.rets = abi.rets[:len(sig.Results)]
	abi.retStackSize = abi.setArgs(abi.rets, sig.Results)

	if n := len(sig.Params); cap(abi.args) < n {
		abi.args = make([]backend.ABIArg, n)
	}
	abi.args = abi.args[:len(sig.Params)]
	abi.argStackSize = abi.setArgs(abi.args, sig.Params)

	abi.retRealRegs = abi.retRealRegs[:0]
	for i := range abi.rets {
		if r := &abi.rets[i]; r.Kind == backend.ABIArgKindReg {
			abi.retRealRegs = append(abi.retRealRegs, r.Reg)
		}
	}
	abi.argRealRegs = abi.argRealRegs[:0]
	for i := range abi.args {
		if a := &abi.args[i]; a.Kind == backend.ABIArgKindReg {
			abi.argRealRegs = append(abi.argRealRegs, a.Reg)
		}
	}
}

func (abi *abiImpl) setArgs(s []backend.ABIArg, types []ssa.Type) (stackSize int64) {
	il, fl := len(intArgResultRegs), len(floatArgResultRegs)
	var stackOffset int64
	intIdx, floatIdx := 0, 0
	for i, typ := range types {
		arg := &s[i]
		arg.Index, arg.Type = i, typ
		if typ.IsInt() {
			if intIdx >= il {
				arg.Kind = backend.ABIArgKindStack
				arg.Offset = stackOffset
				stackOffset += 8
			} else {
				arg.Kind = backend.ABIArgKindReg
				arg.Reg = regalloc.FromRealReg(intArgResultRegs[intIdx], regalloc.RegTypeInt)
				intIdx++
			}
		} else {
			if floatIdx >= fl {
				arg.Kind = backend.ABIArgKindStack
				slotSize := int64(8)
				if typ.Bits() == 128 {
					slotSize = 16
				}
				arg.Offset = stackOffset
				stackOffset += slotSize
			} else {
				arg.Kind = backend.ABIArgKindReg
				arg.Reg = regalloc.FromRealReg(floatArgResultRegs[floatIdx], regalloc.RegTypeFloat)
				floatIdx++
			}
		}
	}
	return stackOffset
}

// alignedStackSlotSize returns the combined, 16-byte aligned argument and result stack size, as
// used by the Go-entry preamble to reserve space below the Go-allocated stack pointer.
func (abi *abiImpl) alignedStackSlotSize() int64 {
	return (abi.argStackSize + abi.retStackSize + 15) &^ 15
}

// getOrCreateABIImpl returns the (cached, per ssa.SignatureID) abiImpl for sig.
func (m *machine) getOrCreateABIImpl(sig *ssa.Signature) *abiImpl {
	if id := int(sig.ID); id >= len(m.abis) {
		m.abis = append(m.abis, make([]abiImpl, id+1-len(m.abis))...)
	}
	abi := &m.abis[sig.ID]
	if abi.m == nil {
		abi.m = m
	}
	abi.init(sig)
	return abi
}

// ArgsResultsRegs implements backend.Machine.
func (m *machine) ArgsResultsRegs() (argResultInts, argResultFloats []regalloc.RealReg) {
	return intArgResultRegs, floatArgResultRegs
}

// LowerParams implements backend.Machine.
func (m *machine) LowerParams(params []ssa.Value) {
	// TODO: mirror amd64's LowerParams once that stub is itself implemented; arm64 currently
	// relies on getOrCreateABIImpl / constructGoEntryPreamble for the Go-call boundary only.
	panic("implement me")
}

// LowerReturns implements backend.Machine.
func (m *machine) LowerReturns(returns []ssa.Value) {
	// TODO: mirror amd64's LowerReturns once that stub is itself implemented.
	panic("implement me")
}
