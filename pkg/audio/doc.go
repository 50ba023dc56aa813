// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, the sample quantizer and PCM packing functions
// Package audio provides the PCM format description and sample helpers
// shared by the engine and the output backends.
//
//   - Format: sample rate, channel count and bit depth of a device stream
//   - Quantize: clip a normalized amplitude and scale it to an integer sample
//   - PutSample/PutSamples: pack integer samples into little-endian PCM bytes
//
// Example:
//
//	max := audio.MaxSample(16) // 32767
//	s := audio.Quantize(0.5, max)
//	audio.PutSample(buf, s, 16)
package audio
