package wazevoapi

// FunctionInstanceSize is the size of a callable-function descriptor
// (executable pointer, vmctx pointer, signature id) stored in a module's
// opaque vmctx region.
const (
	FunctionInstanceSize                         = 24
	FunctionInstanceExecutableOffset             = 0
	FunctionInstanceModuleContextOpaquePtrOffset = 8
	FunctionInstanceTypeIDOffset                 = 16
)

// ExecutionContextOffsets describes the layout of the per-call execution
// context struct that every compiled function receives a pointer to (the
// "vmctx" ABI purpose described in the signature). Field offsets are
// globally unique across all compiled functions.
var ExecutionContextOffsets = ExecutionContextOffsetData{
	ExitCodeOffset:                          0,
	CallerModuleContextPtr:                  8,
	OriginalFramePointer:                    16,
	OriginalStackPointer:                    24,
	GoReturnAddress:                         32,
	StackBottomPtr:                          40,
	GoCallReturnAddress:                     48,
	StackPointerBeforeGrow:                  56,
	StackGrowRequiredSize:                   64,
	MemoryGrowTrampolineAddress:             72,
	SavedRegistersBegin:                     80,
	GoFunctionCallCalleeModuleContextOpaque: 1104,
	GoFunctionCallStackBegin:                1112,
}

// ExecutionContextOffsetData allows the compilers to get the information about offsets to the fields of the
// runtime execution context, which are necessary for compiling various instructions.
type ExecutionContextOffsetData struct {
	ExitCodeOffset                          Offset
	CallerModuleContextPtr                  Offset
	OriginalFramePointer                    Offset
	OriginalStackPointer                    Offset
	GoReturnAddress                         Offset
	StackBottomPtr                          Offset
	GoCallReturnAddress                     Offset
	StackPointerBeforeGrow                  Offset
	StackGrowRequiredSize                   Offset
	MemoryGrowTrampolineAddress             Offset
	SavedRegistersBegin                     Offset
	GoFunctionCallCalleeModuleContextOpaque Offset
	GoFunctionCallStackBegin                Offset
}

// ModuleContextLayout describes, in the abstract, how many imported/local
// resources a module-scoped vmctx region must reserve space for. The core
// compiler is agnostic to what a "memory", "global" or "table" actually
// means to the embedder; it only needs their counts to lay out the opaque
// region deterministically.
type ModuleContextLayout struct {
	HasLocalMemory    bool
	ImportedMemories  int
	ImportedFunctions int
	Globals           int
	Tables            int
}

// ModuleContextOffsetData allows the compilers to get the information about offsets to the fields of the
// module-scoped opaque vmctx region. This is unique per module.
type ModuleContextOffsetData struct {
	TotalSize int
	ModuleInstanceOffset,
	LocalMemoryBegin,
	ImportedMemoryBegin,
	ImportedFunctionsBegin,
	GlobalsBegin,
	TypeIDs1stElement,
	TablesBegin Offset
}

// ImportedFunctionOffset returns an offset of the i-th imported function.
// Each item is stored as a FunctionInstanceSize-sized record.
func (m *ModuleContextOffsetData) ImportedFunctionOffset(i int) (
	executableOffset, moduleCtxOffset, typeIDOffset Offset,
) {
	base := m.ImportedFunctionsBegin + Offset(i)*FunctionInstanceSize
	return base, base + 8, base + 16
}

// GlobalInstanceOffset returns an offset of the i-th global instance.
func (m *ModuleContextOffsetData) GlobalInstanceOffset(i int) Offset {
	return m.GlobalsBegin + Offset(i)*8
}

// Offset represents an offset of a field of a struct.
type Offset int32

// U32 encodes an Offset as uint32 for convenience.
func (o Offset) U32() uint32 {
	return uint32(o)
}

// I64 encodes an Offset as int64 for convenience.
func (o Offset) I64() int64 {
	return int64(o)
}

// U64 encodes an Offset as int64 for convenience.
func (o Offset) U64() uint64 {
	return uint64(o)
}

// LocalMemoryBase returns an offset of the first byte of the local memory.
func (m *ModuleContextOffsetData) LocalMemoryBase() Offset {
	return m.LocalMemoryBegin
}

// LocalMemoryLen returns an offset of the length of the local memory buffer.
func (m *ModuleContextOffsetData) LocalMemoryLen() Offset {
	if l := m.LocalMemoryBegin; l >= 0 {
		return l + 8
	}
	return -1
}

// TableOffset returns an offset of the i-th table instance.
func (m *ModuleContextOffsetData) TableOffset(tableIndex int) Offset {
	return m.TablesBegin + Offset(tableIndex)*8
}

// NewModuleContextOffsetData determines the opaque vmctx structure for a module
// described by the given layout. Sections that are absent (count zero / no
// local memory) are marked with offset -1 so callers can detect them cheaply.
func NewModuleContextOffsetData(l ModuleContextLayout) ModuleContextOffsetData {
	ret := ModuleContextOffsetData{}
	var offset Offset

	ret.ModuleInstanceOffset = 0
	offset += 8

	if l.HasLocalMemory {
		ret.LocalMemoryBegin = offset
		// buffer base + memory size.
		const localMemorySizeInOpaqueModuleContext = 16
		offset += localMemorySizeInOpaqueModuleContext
	} else {
		ret.LocalMemoryBegin = -1
	}

	if l.ImportedMemories > 0 {
		const importedMemorySizeInOpaqueModuleContext = 16
		ret.ImportedMemoryBegin = offset
		offset += importedMemorySizeInOpaqueModuleContext
	} else {
		ret.ImportedMemoryBegin = -1
	}

	if l.ImportedFunctions > 0 {
		ret.ImportedFunctionsBegin = offset
		size := l.ImportedFunctions * FunctionInstanceSize
		offset += Offset(size)
	} else {
		ret.ImportedFunctionsBegin = -1
	}

	if l.Globals > 0 {
		ret.GlobalsBegin = offset
		offset += Offset(l.Globals) * 8
	} else {
		ret.GlobalsBegin = -1
	}

	if l.Tables > 0 {
		ret.TypeIDs1stElement = offset
		offset += 8 // First element of TypeIDs.

		ret.TablesBegin = offset
		offset += Offset(l.Tables) * 8
	} else {
		ret.TypeIDs1stElement = -1
		ret.TablesBegin = -1
	}

	ret.TotalSize = int(offset)
	return ret
}
