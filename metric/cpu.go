package metric

import "golang.org/x/sys/cpu"

// SIMDCapable reports whether the host CPU advertises AVX support. This
// engine's distance metric is a user-supplied function over an
// arbitrary key type, so there is no fixed vector buffer for a SIMD
// kernel to operate on; this is a diagnostic signal only, not a gate on
// behavior. Nothing else in this module calls it.
func SIMDCapable() bool {
	return cpu.X86.HasAVX
}
