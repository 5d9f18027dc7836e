package backend

import (
	"github.com/arnegard/ssaforge/internal/compiler/backend/regalloc"
	"github.com/arnegard/ssaforge/internal/compiler/ssa"
)

// RegAllocFunctionMachine is implemented by each ISA's Machine to let RegAllocFunction splice
// spill, reload, and move code into an already-lowered instruction sequence without RegAllocFunction
// needing to know anything about the concrete instruction encoding.
type RegAllocFunctionMachine[I any] interface {
	// InsertMoveBefore inserts a register-to-register move from src to dst immediately before instr.
	InsertMoveBefore(dst, src regalloc.VReg, instr I)
	// InsertStoreRegisterAt inserts a spill store of v immediately before instr, or after it if after
	// is true, and returns the last instruction of the inserted sequence.
	InsertStoreRegisterAt(v regalloc.VReg, instr I, after bool) I
	// InsertReloadRegisterAt inserts a reload of v immediately before instr, or after it if after is
	// true, and returns the last instruction of the inserted sequence.
	InsertReloadRegisterAt(v regalloc.VReg, instr I, after bool) I
	// ClobberedRegisters records the registers clobbered by the function, as determined by regalloc.
	ClobberedRegisters(regs []regalloc.VReg)
	// Swap exchanges the contents of x1 and x2 immediately before cur, using tmp as scratch if the
	// ISA has no atomic register-register exchange.
	Swap(cur I, x1, x2, tmp regalloc.VReg)
	// LastInstrForInsertion returns the instruction in [begin, end] after which new instructions
	// should be inserted, skipping over any trailing branch instructions.
	LastInstrForInsertion(begin, end I) I
	// SSABlockLabel returns the Label assigned to the given ssa.BasicBlockID.
	SSABlockLabel(id ssa.BasicBlockID) Label
}

// regAllocInstr is the constraint satisfied by an ISA's instruction pointer type: it must behave as
// a regalloc.Instr and additionally support the doubly-linked traversal RegAllocFunction needs to
// walk a block's instructions and to find insertion points.
type regAllocInstr interface {
	comparable
	regalloc.Instr
	Next() regalloc.Instr
	Prev() regalloc.Instr
}

// regAllocFuncBlock adapts one (ssa.BasicBlock, Label, begin, end) tuple, as recorded by
// RegAllocFunction.AddBlock, to the regalloc.Block interface.
type regAllocFuncBlock[I regAllocInstr, M RegAllocFunctionMachine[I]] struct {
	f          *RegAllocFunction[I, M]
	sb         ssa.BasicBlock
	l          Label
	begin, end I
	cur        regalloc.Instr
}

// ID implements regalloc.Block.
func (b *regAllocFuncBlock[I, M]) ID() int { return int(b.sb.ID()) }

// Entry implements regalloc.Block.
func (b *regAllocFuncBlock[I, M]) Entry() bool { return b.sb.EntryBlock() }

// InstrIteratorBegin implements regalloc.Block.
func (b *regAllocFuncBlock[I, M]) InstrIteratorBegin() regalloc.Instr {
	b.cur = b.begin
	return b.cur
}

// InstrIteratorNext implements regalloc.Block.
func (b *regAllocFuncBlock[I, M]) InstrIteratorNext() regalloc.Instr {
	if b.cur == nil {
		return nil
	}
	if cur, ok := b.cur.(I); ok && cur == b.end {
		b.cur = nil
		return nil
	}
	b.cur = b.cur.Next()
	return b.cur
}

// Preds implements regalloc.Block.
func (b *regAllocFuncBlock[I, M]) Preds() []regalloc.Block {
	ret := b.f.predsScratch[:0]
	for pred := b.sb.BeginPredIterator(); pred != nil; pred = b.sb.NextPredIterator() {
		if blk, ok := b.f.blocksByID[pred.ID()]; ok {
			ret = append(ret, blk)
		}
	}
	b.f.predsScratch = ret
	return ret
}

// BlockParams implements regalloc.Block.
func (b *regAllocFuncBlock[I, M]) BlockParams(ret *[]regalloc.VReg) []regalloc.VReg {
	*ret = (*ret)[:0]
	n := b.sb.Params()
	for i := 0; i < n; i++ {
		*ret = append(*ret, b.f.c.VRegOf(b.sb.Param(i)))
	}
	return *ret
}

// RegAllocFunction adapts a Machine's already-lowered, per-block instruction sequence (recorded via
// AddBlock) into the regalloc.Function interface, so that a single ISA-agnostic regalloc.Allocator
// can operate on any backend's instruction type I via the Machine-supplied RegAllocFunctionMachine[I].
type RegAllocFunction[I regAllocInstr, M RegAllocFunctionMachine[I]] struct {
	m          M
	ssaBuilder ssa.Builder
	c          Compiler

	blocks       []*regAllocFuncBlock[I, M]
	blocksByID   map[int]*regAllocFuncBlock[I, M]
	predsScratch []regalloc.Block

	// iterIdx is the cursor used by the PostOrder/ReversePostOrder iterators below.
	iterIdx int
}

// NewRegAllocFunction creates a new RegAllocFunction wrapping m. Blocks must be registered via
// AddBlock, in the order they will appear in the final binary, before register allocation runs.
func NewRegAllocFunction[I regAllocInstr, M RegAllocFunctionMachine[I]](m M, ssaBuilder ssa.Builder, c Compiler) *RegAllocFunction[I, M] {
	return &RegAllocFunction[I, M]{
		m:          m,
		ssaBuilder: ssaBuilder,
		c:          c,
		blocksByID: make(map[int]*regAllocFuncBlock[I, M]),
	}
}

// Reset clears the per-function state so the RegAllocFunction can be reused for the next function.
func (f *RegAllocFunction[I, M]) Reset() {
	f.blocks = f.blocks[:0]
	for k := range f.blocksByID {
		delete(f.blocksByID, k)
	}
	f.iterIdx = 0
}

// AddBlock registers the instruction range [begin, end] lowered for sb under label l. Blocks must be
// added in final layout order (the order they were lowered), which this package always uses as a
// valid reverse-post-order traversal of the CFG.
func (f *RegAllocFunction[I, M]) AddBlock(sb ssa.BasicBlock, l Label, begin, end I) {
	blk := &regAllocFuncBlock[I, M]{f: f, sb: sb, l: l, begin: begin, end: end}
	f.blocks = append(f.blocks, blk)
	f.blocksByID[int(sb.ID())] = blk
}

// PostOrderBlockIteratorBegin implements regalloc.Function.
func (f *RegAllocFunction[I, M]) PostOrderBlockIteratorBegin() regalloc.Block {
	f.iterIdx = len(f.blocks) - 1
	return f.postOrderCurrent()
}

// PostOrderBlockIteratorNext implements regalloc.Function.
func (f *RegAllocFunction[I, M]) PostOrderBlockIteratorNext() regalloc.Block {
	f.iterIdx--
	return f.postOrderCurrent()
}

func (f *RegAllocFunction[I, M]) postOrderCurrent() regalloc.Block {
	if f.iterIdx < 0 || f.iterIdx >= len(f.blocks) {
		return nil
	}
	return f.blocks[f.iterIdx]
}

// ReversePostOrderBlockIteratorBegin implements regalloc.Function.
func (f *RegAllocFunction[I, M]) ReversePostOrderBlockIteratorBegin() regalloc.Block {
	f.iterIdx = 0
	return f.reversePostOrderCurrent()
}

// ReversePostOrderBlockIteratorNext implements regalloc.Function.
func (f *RegAllocFunction[I, M]) ReversePostOrderBlockIteratorNext() regalloc.Block {
	f.iterIdx++
	return f.reversePostOrderCurrent()
}

func (f *RegAllocFunction[I, M]) reversePostOrderCurrent() regalloc.Block {
	if f.iterIdx < 0 || f.iterIdx >= len(f.blocks) {
		return nil
	}
	return f.blocks[f.iterIdx]
}

// ClobberedRegisters implements regalloc.Function.
func (f *RegAllocFunction[I, M]) ClobberedRegisters(regs []regalloc.VReg) { f.m.ClobberedRegisters(regs) }

// StoreRegisterBefore implements regalloc.Function.
func (f *RegAllocFunction[I, M]) StoreRegisterBefore(v regalloc.VReg, instr regalloc.Instr) {
	f.m.InsertStoreRegisterAt(v, instr.(I), false)
}

// StoreRegisterAfter implements regalloc.Function.
func (f *RegAllocFunction[I, M]) StoreRegisterAfter(v regalloc.VReg, instr regalloc.Instr) {
	f.m.InsertStoreRegisterAt(v, instr.(I), true)
}

// ReloadRegisterBefore implements regalloc.Function.
func (f *RegAllocFunction[I, M]) ReloadRegisterBefore(v regalloc.VReg, instr regalloc.Instr) {
	f.m.InsertReloadRegisterAt(v, instr.(I), false)
}

// ReloadRegisterAfter implements regalloc.Function.
func (f *RegAllocFunction[I, M]) ReloadRegisterAfter(v regalloc.VReg, instr regalloc.Instr) {
	f.m.InsertReloadRegisterAt(v, instr.(I), true)
}

// Done implements regalloc.Function. Finalization (e.g. stack-slot layout) happens in the Machine's
// own PostRegAlloc, so there is nothing left to do here.
func (f *RegAllocFunction[I, M]) Done() {}
