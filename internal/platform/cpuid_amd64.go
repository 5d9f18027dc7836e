//go:build amd64

package platform

import "golang.org/x/sys/cpu"

// CpuFeatures exposes the capabilities for this CPU, queried via the Has, HasExtra methods.
var CpuFeatures CpuFeatureFlags = loadCpuFeatureFlags()

// cpuFeatureFlags implements CpuFeatureFlags for amd64.
type cpuFeatureFlags struct {
	flags      CpuFeature
	extraFlags CpuFeature
}

func loadCpuFeatureFlags() CpuFeatureFlags {
	var flags, extra CpuFeature
	if cpu.X86.HasSSE3 {
		flags |= CpuFeatureAmd64SSE3
	}
	if cpu.X86.HasSSSE3 {
		flags |= CpuFeatureAmd64SSSE3
	}
	if cpu.X86.HasSSE41 {
		flags |= CpuFeatureAmd64SSE4_1
	}
	if cpu.X86.HasSSE42 {
		flags |= CpuFeatureAmd64SSE4_2
	}
	if cpu.X86.HasPOPCNT {
		extra |= CpuExtraFeatureAmd64ABM
	}
	return &cpuFeatureFlags{flags: flags, extraFlags: extra}
}

// Has implements CpuFeatureFlags.Has.
func (f *cpuFeatureFlags) Has(cpuFeature CpuFeature) bool {
	return (f.flags & cpuFeature) != 0
}

// HasExtra implements CpuFeatureFlags.HasExtra.
func (f *cpuFeatureFlags) HasExtra(cpuFeature CpuFeature) bool {
	return (f.extraFlags & cpuFeature) != 0
}

// Raw implements CpuFeatureFlags.Raw.
func (f *cpuFeatureFlags) Raw() uint64 {
	return uint64(f.flags) | uint64(f.extraFlags)<<32
}
