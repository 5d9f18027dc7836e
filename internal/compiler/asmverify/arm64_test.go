package asmverify

import (
	"encoding/hex"
	"testing"

	"github.com/arnegard/ssaforge/internal/testing/require"
)

// TestARM64MoveImmReturn checks the reference assembler against the bytes
// documented for the "constant return" end-to-end scenario: `fn() -> i32 {
// v0 = iconst.i32 42; return v0 }` should compile to MOVZ w0, #42 / RET.
func TestARM64MoveImmReturn(t *testing.T) {
	code, err := ARM64MoveImmReturn(RegR0, 42)
	require.NoError(t, err)
	require.Equal(t, removeSpace("60 05 80 52 c0 03 5f d6"), hex.EncodeToString(code))
}

func removeSpace(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != ' ' {
			out = append(out, s[i])
		}
	}
	return string(out)
}
