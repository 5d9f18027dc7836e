//go:build !amd64 && !arm64

package platform

// CpuFeatures exposes the capabilities for this CPU, queried via the Has, HasExtra methods.
var CpuFeatures CpuFeatureFlags = &cpuFeatureFlags{}

// cpuFeatureFlags implements CpuFeatureFlags for unsupported platforms.
type cpuFeatureFlags struct{}

// Has implements CpuFeatureFlags.Has.
func (f *cpuFeatureFlags) Has(cpuFeature CpuFeature) bool { return false }

// HasExtra implements CpuFeatureFlags.HasExtra.
func (f *cpuFeatureFlags) HasExtra(cpuFeature CpuFeature) bool { return false }

// Raw implements CpuFeatureFlags.Raw.
func (f *cpuFeatureFlags) Raw() uint64 { return 0 }
