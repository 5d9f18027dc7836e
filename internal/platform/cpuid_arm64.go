//go:build arm64

package platform

import "golang.org/x/sys/cpu"

// CpuFeatures exposes the capabilities for this CPU, queried via the Has, HasExtra methods.
var CpuFeatures CpuFeatureFlags = loadCpuFeatureFlags()

// cpuFeatureFlags implements CpuFeatureFlags for arm64.
type cpuFeatureFlags struct {
	flags CpuFeature
}

func loadCpuFeatureFlags() CpuFeatureFlags {
	var flags CpuFeature
	if cpu.ARM64.HasATOMICS {
		flags |= CpuFeatureArm64Atomic
	}
	return &cpuFeatureFlags{flags: flags}
}

// Has implements CpuFeatureFlags.Has.
func (f *cpuFeatureFlags) Has(cpuFeature CpuFeature) bool {
	return (f.flags & cpuFeature) != 0
}

// HasExtra implements CpuFeatureFlags.HasExtra. arm64 has no extra flag set.
func (f *cpuFeatureFlags) HasExtra(cpuFeature CpuFeature) bool {
	return false
}

// Raw implements CpuFeatureFlags.Raw.
func (f *cpuFeatureFlags) Raw() uint64 {
	return uint64(f.flags)
}
