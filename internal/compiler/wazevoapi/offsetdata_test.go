package wazevoapi

import (
	"testing"

	"github.com/arnegard/ssaforge/internal/testing/require"
)

func TestNewModuleContextOffsetData(t *testing.T) {
	for _, tc := range []struct {
		name string
		l    ModuleContextLayout
		exp  ModuleContextOffsetData
	}{
		{
			name: "empty",
			l:    ModuleContextLayout{},
			exp: ModuleContextOffsetData{
				LocalMemoryBegin:       -1,
				ImportedMemoryBegin:    -1,
				ImportedFunctionsBegin: -1,
				GlobalsBegin:           -1,
				TypeIDs1stElement:      -1,
				TablesBegin:            -1,
				TotalSize:              8,
			},
		},
		{
			name: "local mem",
			l:    ModuleContextLayout{HasLocalMemory: true},
			exp: ModuleContextOffsetData{
				LocalMemoryBegin:       8,
				ImportedMemoryBegin:    -1,
				ImportedFunctionsBegin: -1,
				GlobalsBegin:           -1,
				TypeIDs1stElement:      -1,
				TablesBegin:            -1,
				TotalSize:              24,
			},
		},
		{
			name: "imported mem",
			l:    ModuleContextLayout{ImportedMemories: 1},
			exp: ModuleContextOffsetData{
				LocalMemoryBegin:       -1,
				ImportedMemoryBegin:    8,
				ImportedFunctionsBegin: -1,
				GlobalsBegin:           -1,
				TypeIDs1stElement:      -1,
				TablesBegin:            -1,
				TotalSize:              24,
			},
		},
		{
			name: "imported func",
			l:    ModuleContextLayout{ImportedFunctions: 10},
			exp: ModuleContextOffsetData{
				LocalMemoryBegin:       -1,
				ImportedMemoryBegin:    -1,
				ImportedFunctionsBegin: 8,
				GlobalsBegin:           -1,
				TypeIDs1stElement:      -1,
				TablesBegin:            -1,
				TotalSize:              8 + 10*FunctionInstanceSize,
			},
		},
		{
			name: "imported func/mem",
			l:    ModuleContextLayout{ImportedMemories: 1, ImportedFunctions: 10},
			exp: ModuleContextOffsetData{
				LocalMemoryBegin:       -1,
				ImportedMemoryBegin:    8,
				ImportedFunctionsBegin: 24,
				GlobalsBegin:           -1,
				TypeIDs1stElement:      -1,
				TablesBegin:            -1,
				TotalSize:              24 + 10*FunctionInstanceSize,
			},
		},
		{
			name: "local mem / imported func / globals / tables",
			l: ModuleContextLayout{
				HasLocalMemory:    true,
				ImportedFunctions: 10,
				Globals:           30,
				Tables:            15,
			},
			exp: ModuleContextOffsetData{
				LocalMemoryBegin:       8,
				ImportedMemoryBegin:    -1,
				ImportedFunctionsBegin: 24,
				GlobalsBegin:           24 + 10*FunctionInstanceSize,
				TypeIDs1stElement:      24 + 10*FunctionInstanceSize + 8*30,
				TablesBegin:            24 + 10*FunctionInstanceSize + 8*30 + 8,
				TotalSize:              24 + 10*FunctionInstanceSize + 8*30 + 8 + 8*15,
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := NewModuleContextOffsetData(tc.l)
			require.Equal(t, tc.exp, got)
		})
	}
}
