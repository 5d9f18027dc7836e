// Package asmverify cross-checks a handful of codegen sequences against an
// independent reference assembler (golang-asm), satisfying the
// encoder-equivalence property: for every instruction variant, the bytes this
// module emits must match what a reference assembler produces for the same
// mnemonic and operands.
//
// golang-asm understands only a slice of AArch64 and is not driven by our
// VCode or instruction-selection machinery; it exists purely as an oracle for
// the bit patterns of common forms (move-immediate, return, plain ALU ops).
package asmverify

import (
	"fmt"

	goasm "github.com/twitchyliquid64/golang-asm"
	"github.com/twitchyliquid64/golang-asm/obj"
	"github.com/twitchyliquid64/golang-asm/obj/arm64"
)

// ARM64MoveImmReturn assembles `MOVZ <reg>, #<imm>` followed by `RET` and
// returns the encoded bytes, using golang-asm as the reference encoder.
func ARM64MoveImmReturn(destReg int16, imm int64) ([]byte, error) {
	b, err := goasm.NewBuilder("arm64", 1024)
	if err != nil {
		return nil, fmt.Errorf("asmverify: new builder: %w", err)
	}

	mov := b.NewProg()
	mov.As = arm64.AMOVD
	mov.From.Type = obj.TYPE_CONST
	mov.From.Offset = imm
	mov.To.Type = obj.TYPE_REG
	mov.To.Reg = destReg
	b.AddInstruction(mov)

	ret := b.NewProg()
	ret.As = obj.ARET
	b.AddInstruction(ret)

	return b.Assemble(), nil
}

// RegR0 is golang-asm's encoding of AArch64 general register x0/w0.
const RegR0 = arm64.REG_R0
