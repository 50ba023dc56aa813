// ABOUTME: Sample quantizer
// ABOUTME: Maps normalized float amplitudes to clipped fixed-width integer samples
package audio

import "math"

// MaxSample returns the largest positive sample for a signed PCM bit depth
// (2^(bitDepth-1) - 1). The negative range is used symmetrically.
func MaxSample(bitDepth int) int32 {
	if bitDepth <= 1 || bitDepth > 32 {
		return 0
	}
	return int32(uint32(1)<<(bitDepth-1) - 1)
}

// Clip hard-limits v to [-max, max]
func Clip(v, max float64) float64 {
	if v >= 0.0 {
		return math.Min(v, max)
	}
	return math.Max(v, -max)
}

// Quantize converts a normalized amplitude (ideally in [-1, 1]) to an
// integer sample scaled by max. Out-of-range input is clipped, NaN is
// treated as silence.
func Quantize(amplitude float64, max int32) int32 {
	if math.IsNaN(amplitude) {
		return 0
	}
	return int32(Clip(amplitude, 1.0) * float64(max))
}
