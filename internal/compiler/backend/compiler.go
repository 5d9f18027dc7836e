package backend

import (
	"context"

	"github.com/arnegard/ssaforge/internal/compiler/backend/regalloc"
	"github.com/arnegard/ssaforge/internal/compiler/ssa"
)

// RelocationInfo represents the relocation information for a call instruction which targets a
// function not yet assembled at the time it was lowered.
type RelocationInfo struct {
	// Offset is the offset of the last 4 bytes of the call instruction, relative to the start of
	// the compiled function's binary.
	Offset int64
	// FuncRef is the index of the callee function, which may be imported or defined in the module.
	FuncRef ssa.FuncRef
}

// Compiler is the interface between a Machine and the surrounding compilation pipeline. A Machine
// never touches the ssa.Builder, VReg bookkeeping, or output buffer directly; it goes through this
// interface so the same Machine can be driven by different callers (one-shot compilation, testing).
type Compiler interface {
	// SSABuilder returns the ssa.Builder this Compiler was constructed from.
	SSABuilder() ssa.Builder

	// AllocateVReg allocates a new virtual register of the given type.
	AllocateVReg(typ ssa.Type) regalloc.VReg

	// VRegOf returns the virtual register already assigned to the given ssa.Value.
	VRegOf(value ssa.Value) regalloc.VReg

	// TypeOf returns the ssa.Type of the given virtual register.
	TypeOf(v regalloc.VReg) ssa.Type

	// ValueDefinition returns the SSAValueDefinition for the given ssa.Value.
	ValueDefinition(value ssa.Value) *SSAValueDefinition

	// MatchInstr returns true if the instruction defining def has the given opcode and no other use.
	MatchInstr(def *SSAValueDefinition, opcode ssa.Opcode) bool

	// MatchInstrOneOf is like MatchInstr, but matches any of the given opcodes. It returns the
	// matched opcode, or ssa.OpcodeInvalid if none of them match.
	MatchInstrOneOf(def *SSAValueDefinition, opcodes []ssa.Opcode) ssa.Opcode

	// GetFunctionABI returns the FunctionABI for the given signature, computing and caching it on
	// first use.
	GetFunctionABI(sig *ssa.Signature) *FunctionABI

	// Emit4Bytes appends 4 bytes, little endian, to the output buffer.
	Emit4Bytes(b uint32)
	// Emit8Bytes appends 8 bytes, little endian, to the output buffer.
	Emit8Bytes(b uint64)
	// EmitByte appends a single byte to the output buffer.
	EmitByte(b byte)
	// Buf returns the output buffer assembled so far.
	Buf() []byte
	// BufPtr returns a pointer to the output buffer, for encoders that must patch already-emitted bytes.
	BufPtr() *[]byte

	// AddRelocationInfo records a call-site relocation at the current end of the output buffer,
	// targeting the given callee function reference.
	AddRelocationInfo(funcRef ssa.FuncRef)

	// AddSourceOffsetInfo records that the instruction at the given binary offset originated from
	// the given source (Wasm) offset.
	AddSourceOffsetInfo(binaryOffset int64, sourceOffset int64)

	// Finalize is called once a function's Machine has finished Encode, resolving any dangling
	// relocation info against the final buffer layout.
	Finalize(ctx context.Context) error
}

var _ Compiler = (*compiler)(nil)

// compiler is the concrete, ISA-agnostic implementation of Compiler driving a single Machine
// across the lifetime of one or more function compilations.
type compiler struct {
	ssaBuilder ssa.Builder
	mach       Machine

	buf []byte

	// ssaValueToVRegs maps ssa.ValueID to the regalloc.VReg it has been assigned, lazily grown.
	ssaValueToVRegs []regalloc.VReg
	// nextVRegID is the VRegID to assign to the next AllocateVReg call.
	nextVRegID regalloc.VRegID

	// vRegIDToType maps each regalloc.VRegID handed out by AllocateVReg to the ssa.Type it was
	// allocated with; TypeOf reads it.
	vRegIDToType map[regalloc.VRegID]ssa.Type

	// definitions is keyed by ssa.ValueID to avoid reallocating an SSAValueDefinition on every call.
	definitions map[ssa.ValueID]*SSAValueDefinition
	// valueIDToInstr maps an ssa.ValueID to the instruction defining it, populated lazily by
	// scanning the builder's blocks on first ValueDefinition lookup per compilation.
	valueIDToInstr  []*ssa.Instruction
	definitionsBuilt bool

	abis []FunctionABI

	relocations []RelocationInfo
	srcMap      []SourceOffsetInfo
}

// SourceOffsetInfo associates a position in the assembled binary with the Wasm source offset that
// produced it, used to build line-table-like debug info.
type SourceOffsetInfo struct {
	BinaryOffset int64
	SourceOffset int64
}

// newCompiler returns a new compiler driving the given Machine over the given ssa.Builder.
func newCompiler(_ context.Context, mach Machine, ssaBuilder ssa.Builder) *compiler {
	c := &compiler{
		ssaBuilder:   ssaBuilder,
		mach:         mach,
		vRegIDToType: make(map[regalloc.VRegID]ssa.Type),
		definitions:  make(map[ssa.ValueID]*SSAValueDefinition),
	}
	mach.SetCompiler(c)
	return c
}

// SSABuilder implements Compiler.SSABuilder.
func (c *compiler) SSABuilder() ssa.Builder { return c.ssaBuilder }

// AllocateVReg implements Compiler.AllocateVReg.
func (c *compiler) AllocateVReg(typ ssa.Type) regalloc.VReg {
	v := regalloc.VReg(c.nextVRegID).SetRegType(regalloc.RegTypeOf(typ))
	c.vRegIDToType[c.nextVRegID] = typ
	c.nextVRegID++
	return v
}

// VRegOf implements Compiler.VRegOf.
func (c *compiler) VRegOf(value ssa.Value) regalloc.VReg {
	id := int(value.ID())
	if id >= len(c.ssaValueToVRegs) {
		panic("BUG: VRegOf called on a ssa.Value that hasn't been lowered yet")
	}
	return c.ssaValueToVRegs[id]
}

// TypeOf implements Compiler.TypeOf.
func (c *compiler) TypeOf(v regalloc.VReg) ssa.Type {
	return c.vRegIDToType[v.ID()]
}

// ValueDefinition implements Compiler.ValueDefinition.
func (c *compiler) ValueDefinition(value ssa.Value) *SSAValueDefinition {
	if def, ok := c.definitions[value.ID()]; ok {
		return def
	}
	if !c.definitionsBuilt {
		c.buildValueDefinitions()
	}

	var instr *ssa.Instruction
	if id := int(value.ID()); id < len(c.valueIDToInstr) {
		instr = c.valueIDToInstr[id]
	}

	var refCount int
	if counts := c.ssaBuilder.ValueRefCounts(); int(value.ID()) < len(counts) {
		refCount = counts[value.ID()]
	}

	def := &SSAValueDefinition{V: value, Instr: instr, RefCount: uint32(refCount)}
	c.definitions[value.ID()] = def
	return def
}

// buildValueDefinitions walks every instruction in every block of the currently-compiled
// function, recording which instruction (if any) defines each ssa.ValueID.
func (c *compiler) buildValueDefinitions() {
	for blk := c.ssaBuilder.BlockIteratorBegin(); blk != nil; blk = c.ssaBuilder.BlockIteratorNext() {
		for instr := blk.Root(); instr != nil; instr = instr.Next() {
			if first, rest := instr.Returns(); first.Valid() {
				c.setValueInstr(first, instr)
				for _, v := range rest {
					c.setValueInstr(v, instr)
				}
			}
		}
	}
	c.definitionsBuilt = true
}

func (c *compiler) setValueInstr(v ssa.Value, instr *ssa.Instruction) {
	id := int(v.ID())
	if id >= len(c.valueIDToInstr) {
		c.valueIDToInstr = append(c.valueIDToInstr, make([]*ssa.Instruction, id+1-len(c.valueIDToInstr))...)
	}
	c.valueIDToInstr[id] = instr
}

// MatchInstr implements Compiler.MatchInstr.
func (c *compiler) MatchInstr(def *SSAValueDefinition, opcode ssa.Opcode) bool {
	return def.IsFromInstr() && def.Instr.Opcode() == opcode && def.RefCount < 2
}

// MatchInstrOneOf implements Compiler.MatchInstrOneOf.
func (c *compiler) MatchInstrOneOf(def *SSAValueDefinition, opcodes []ssa.Opcode) ssa.Opcode {
	if !def.IsFromInstr() || def.RefCount >= 2 {
		return ssa.OpcodeInvalid
	}
	opcode := def.Instr.Opcode()
	for _, o := range opcodes {
		if o == opcode {
			return opcode
		}
	}
	return ssa.OpcodeInvalid
}

// GetFunctionABI implements Compiler.GetFunctionABI.
func (c *compiler) GetFunctionABI(sig *ssa.Signature) *FunctionABI {
	if int(sig.ID) >= len(c.abis) {
		c.abis = append(c.abis, make([]FunctionABI, int(sig.ID)+1-len(c.abis))...)
	}
	abi := &c.abis[sig.ID]
	if !abi.Initialized {
		argInts, argFloats := c.mach.ArgsResultsRegs()
		abi.Init(sig, argInts, argFloats)
	}
	return abi
}

// Emit4Bytes implements Compiler.Emit4Bytes.
func (c *compiler) Emit4Bytes(b uint32) {
	c.buf = append(c.buf, byte(b), byte(b>>8), byte(b>>16), byte(b>>24))
}

// Emit8Bytes implements Compiler.Emit8Bytes.
func (c *compiler) Emit8Bytes(b uint64) {
	c.buf = append(c.buf,
		byte(b), byte(b>>8), byte(b>>16), byte(b>>24),
		byte(b>>32), byte(b>>40), byte(b>>48), byte(b>>56))
}

// EmitByte implements Compiler.EmitByte.
func (c *compiler) EmitByte(b byte) {
	c.buf = append(c.buf, b)
}

// Buf implements Compiler.Buf.
func (c *compiler) Buf() []byte { return c.buf }

// BufPtr implements Compiler.BufPtr.
func (c *compiler) BufPtr() *[]byte { return &c.buf }

// AddRelocationInfo implements Compiler.AddRelocationInfo.
func (c *compiler) AddRelocationInfo(funcRef ssa.FuncRef) {
	c.relocations = append(c.relocations, RelocationInfo{Offset: int64(len(c.buf)), FuncRef: funcRef})
}

// AddSourceOffsetInfo implements Compiler.AddSourceOffsetInfo.
func (c *compiler) AddSourceOffsetInfo(binaryOffset int64, sourceOffset int64) {
	c.srcMap = append(c.srcMap, SourceOffsetInfo{BinaryOffset: binaryOffset, SourceOffset: sourceOffset})
}

// Finalize implements Compiler.Finalize.
func (c *compiler) Finalize(context.Context) error {
	return nil
}

// lowerBlockArguments inserts the moves (or constant materializations) needed to satisfy succ's
// block parameters given the concrete args passed at this branch, handling parallel-move hazards
// where an argument VReg is itself the target of another argument's move by staging through a
// temporary VReg first.
func (c *compiler) lowerBlockArguments(args []ssa.Value, succ ssa.BasicBlock) {
	if len(args) != succ.Params() {
		panic("BUG: mismatched number of arguments and block params")
	}

	// Detect which source VRegs are also destinations, and therefore need staging through a
	// temporary to avoid clobbering a still-unread argument.
	destinations := make(map[regalloc.VReg]struct{}, len(args))
	for i := 0; i < succ.Params(); i++ {
		destinations[c.VRegOf(succ.Param(i))] = struct{}{}
	}

	type pendingMove struct {
		dst, src regalloc.VReg
		typ      ssa.Type
	}
	var moves []pendingMove
	for i, arg := range args {
		dst := c.VRegOf(succ.Param(i))

		def := c.ValueDefinition(arg)
		if def.IsFromInstr() && def.Instr.Constant() {
			c.mach.InsertLoadConstantBlockArg(def.Instr, dst)
			continue
		}

		src := c.VRegOf(arg)
		if src == dst {
			continue
		}
		if _, clobbered := destinations[src]; clobbered {
			tmp := c.AllocateVReg(arg.Type())
			c.mach.InsertMove(tmp, src, arg.Type())
			src = tmp
		}
		moves = append(moves, pendingMove{dst: dst, src: src, typ: arg.Type()})
	}

	for _, mv := range moves {
		c.mach.InsertMove(mv.dst, mv.src, mv.typ)
	}
}
