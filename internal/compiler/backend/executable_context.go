package backend

import (
	"fmt"

	"github.com/arnegard/ssaforge/internal/compiler/ssa"
	"github.com/arnegard/ssaforge/internal/compiler/wazevoapi"
)

// Label represents a position in the generated code which the backend can jump to.
type Label uint32

const (
	// LabelInvalid is the invalid label.
	LabelInvalid Label = 0
	// LabelReturn is a special label that means the function return.
	LabelReturn Label = 1<<32 - 1
)

// String implements fmt.Stringer.
func (l Label) String() string {
	switch l {
	case LabelInvalid:
		return "invalid"
	case LabelReturn:
		return "return"
	default:
		return fmt.Sprintf("L%d", uint32(l))
	}
}

// LabelPosition represents the region of the assembled instructions corresponding to a Label.
type LabelPosition[I any] struct {
	SB           ssa.BasicBlock
	L            Label
	Begin, End   *I
	BinaryOffset int64
}

// ExecutableContext is the interface used by Compiler to finalize the encoding of a function
// independent of the concrete per-ISA instruction type.
type ExecutableContext interface {
	// StartLoweringFunction is called when the lowering of the given function is started.
	StartLoweringFunction(maxBlockID ssa.BasicBlockID)
	// LinkAdjacentBlocks is called after finished lowering each block to link the previous block to the next block.
	LinkAdjacentBlocks(prev, next ssa.BasicBlock)
	// FlushPendingInstructions flushes the pending instructions to the buffer.
	FlushPendingInstructions()
}

// NewExecutableContextT returns a new ExecutableContextT[I].
func NewExecutableContextT[I any](
	resetInstruction func(*I),
	setNext func(*I, *I),
	setPrev func(*I, *I),
	asNop func(*I),
) *ExecutableContextT[I] {
	return &ExecutableContextT[I]{
		InstructionPool: wazevoapi.NewPool[I](),
		asNop:           asNop,
		setNext:         setNext,
		setPrev:         setPrev,
		resetInstruction: resetInstruction,
		LabelPositions:  make(map[Label]*LabelPosition[I]),
		NextLabel:       LabelInvalid,
	}
}

// ExecutableContextT is a skeleton, ISA-agnostic implementation of ExecutableContext, parameterized on the
// per-ISA instruction type I. A concrete Machine embeds a *ExecutableContextT[I] instantiated for its own
// instruction type and supplies the four callbacks above so that this type never needs to know the shape
// of I beyond "has a next/prev pointer and can be turned into a label-only nop".
type ExecutableContextT[I any] struct {
	InstructionPool wazevoapi.Pool[I]

	asNop            func(*I)
	setNext          func(*I, *I)
	setPrev          func(*I, *I)
	resetInstruction func(*I)

	// RootInstr is the root instruction of the function, lazily set by the first call to LinkAdjacentBlocks
	// or set directly by the Machine once the first block's instructions are produced.
	RootInstr *I

	// PendingInstructions holds the instructions inserted during the lowering of the current block,
	// not yet linked into the function's instruction list.
	PendingInstructions []*I

	// NextLabel is the next label to be allocated by AllocateLabel.
	NextLabel Label

	// LabelPositions maps a Label to its LabelPosition.
	LabelPositions map[Label]*LabelPosition[I]
	// OrderedBlockLabels holds the LabelPositions in the order they will appear in the final binary.
	OrderedBlockLabels []*LabelPosition[I]

	// SsaBlockIDToLabels maps an ssa.BasicBlockID to the Label assigned to it.
	SsaBlockIDToLabels []Label

	perBlockHead, perBlockEnd *I
}

// Reset resets the ExecutableContextT for the next function compilation.
func (e *ExecutableContextT[I]) Reset() {
	e.InstructionPool.Reset()
	e.RootInstr = nil
	e.PendingInstructions = e.PendingInstructions[:0]
	e.NextLabel = LabelInvalid
	e.OrderedBlockLabels = e.OrderedBlockLabels[:0]
	for l := range e.LabelPositions {
		delete(e.LabelPositions, l)
	}
	e.SsaBlockIDToLabels = e.SsaBlockIDToLabels[:0]
	e.perBlockHead, e.perBlockEnd = nil, nil
}

// AllocateLabel allocates a new, unique Label.
func (e *ExecutableContextT[I]) AllocateLabel() Label {
	e.NextLabel++
	return e.NextLabel
}

// AllocateLabelPosition allocates (or returns the existing) LabelPosition for the given Label.
func (e *ExecutableContextT[I]) AllocateLabelPosition(l Label) *LabelPosition[I] {
	pos, ok := e.LabelPositions[l]
	if !ok {
		pos = &LabelPosition[I]{L: l}
		e.LabelPositions[l] = pos
	}
	return pos
}

// GetOrAllocateSSABlockLabel returns the Label assigned to the given ssa.BasicBlock, allocating one
// (and its LabelPosition) on first use.
func (e *ExecutableContextT[I]) GetOrAllocateSSABlockLabel(blk ssa.BasicBlock) Label {
	if blk.ReturnBlock() {
		return LabelReturn
	}

	id := int(blk.ID())
	if id >= len(e.SsaBlockIDToLabels) {
		e.SsaBlockIDToLabels = append(e.SsaBlockIDToLabels, make([]Label, id+1-len(e.SsaBlockIDToLabels))...)
	}
	if l := e.SsaBlockIDToLabels[id]; l != LabelInvalid {
		return l
	}

	l := e.AllocateLabel()
	e.SsaBlockIDToLabels[id] = l
	pos := e.AllocateLabelPosition(l)
	pos.SB = blk
	return l
}

// StartLoweringFunction implements ExecutableContext.
func (e *ExecutableContextT[I]) StartLoweringFunction(maxBlockID ssa.BasicBlockID) {
	if n := int(maxBlockID) + 1; n > len(e.SsaBlockIDToLabels) {
		e.SsaBlockIDToLabels = append(e.SsaBlockIDToLabels, make([]Label, n-len(e.SsaBlockIDToLabels))...)
	}
}

// LinkAdjacentBlocks implements ExecutableContext. It flushes the instructions pending for prev
// (in reverse lowering order, since Machine.LowerInstr lowers a block's instructions last-to-first)
// and links them into the function's overall instruction list.
func (e *ExecutableContextT[I]) LinkAdjacentBlocks(prev, next ssa.BasicBlock) {
	e.FlushPendingInstructions()
}

// FlushPendingInstructions implements ExecutableContext. PendingInstructions were appended in
// reverse program order (the Machine lowers a block from its last instruction to its first), so
// they are linked here in reverse to restore forward program order.
func (e *ExecutableContextT[I]) FlushPendingInstructions() {
	if len(e.PendingInstructions) == 0 {
		return
	}
	for i := len(e.PendingInstructions) - 1; i >= 0; i-- {
		cur := e.PendingInstructions[i]
		if e.perBlockEnd == nil {
			e.perBlockHead = cur
		} else {
			e.setNext(e.perBlockEnd, cur)
			e.setPrev(cur, e.perBlockEnd)
		}
		e.perBlockEnd = cur
		if e.RootInstr == nil {
			e.RootInstr = cur
		}
	}
	e.PendingInstructions = e.PendingInstructions[:0]
}
