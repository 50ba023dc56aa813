// ABOUTME: Audio type definitions
// ABOUTME: Defines the PCM output format and sample packing helpers
package audio

import (
	"encoding/binary"
	"fmt"
)

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// Format describes the PCM format handed to an output device
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// Validate checks the format is something a PCM device can be asked for
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", f.SampleRate)
	}
	if f.Channels <= 0 {
		return fmt.Errorf("invalid channel count: %d", f.Channels)
	}
	switch f.BitDepth {
	case 8, 16, 24, 32:
	default:
		return fmt.Errorf("unsupported bit depth: %d (supported: 8, 16, 24, 32)", f.BitDepth)
	}
	return nil
}

// BytesPerSample returns the packed size of one sample
func (f Format) BytesPerSample() int {
	return f.BitDepth / 8
}

// FrameSize returns the packed size of one frame (all channels)
func (f Format) FrameSize() int {
	return f.BytesPerSample() * f.Channels
}

// String returns a short human-readable description, e.g. "44100Hz/1ch/16bit"
func (f Format) String() string {
	return fmt.Sprintf("%dHz/%dch/%dbit", f.SampleRate, f.Channels, f.BitDepth)
}

// PutSample packs one sample into dst using the little-endian PCM layout
// for bitDepth. 8-bit PCM is unsigned with a 128 offset.
// dst must hold at least bitDepth/8 bytes.
func PutSample(dst []byte, sample int32, bitDepth int) {
	switch bitDepth {
	case 8:
		dst[0] = byte(int8(sample)) ^ 0x80
	case 16:
		binary.LittleEndian.PutUint16(dst, uint16(int16(sample)))
	case 24:
		b := SampleTo24Bit(sample)
		copy(dst, b[:])
	case 32:
		binary.LittleEndian.PutUint32(dst, uint32(sample))
	}
}

// PutSamples packs samples into dst and returns the number of bytes written
func PutSamples(dst []byte, samples []int32, bitDepth int) int {
	size := bitDepth / 8
	n := 0
	for _, s := range samples {
		PutSample(dst[n:], s, bitDepth)
		n += size
	}
	return n
}

// SampleTo24Bit converts int32 to 24-bit packed bytes (little-endian)
func SampleTo24Bit(sample int32) [3]byte {
	// Take lower 24 bits, pack little-endian
	return [3]byte{
		byte(sample),
		byte(sample >> 8),
		byte(sample >> 16),
	}
}

// SampleFrom24Bit converts 24-bit packed bytes to int32 (little-endian)
func SampleFrom24Bit(b [3]byte) int32 {
	val := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	// Sign extend from 24-bit to 32-bit
	if val&0x800000 != 0 {
		val |= ^0xFFFFFF
	}
	return val
}
