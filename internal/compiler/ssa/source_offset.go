package ssa

// SourceOffset represents the offset of the original source (e.g. a position in a Wasm binary's
// code section) that an Instruction was derived from. It is attached to instructions so backends
// can emit a binary-offset-to-source-offset map for debuggers and stack traces.
type SourceOffset int64

// SourceOffsetInvalid is the zero value of SourceOffset, meaning "no source offset recorded."
const SourceOffsetInvalid SourceOffset = -1

// Valid returns true if this SourceOffset is meaningful.
func (s SourceOffset) Valid() bool {
	return s >= 0
}
