package audio

import (
	"math"
	"testing"
)

func TestMaxSample(t *testing.T) {
	tests := []struct {
		bitDepth int
		expected int32
	}{
		{8, 127},
		{16, 32767},
		{24, Max24Bit},
		{32, math.MaxInt32},
		{0, 0},
		{33, 0},
	}

	for _, tt := range tests {
		if got := MaxSample(tt.bitDepth); got != tt.expected {
			t.Errorf("MaxSample(%d) = %d, expected %d", tt.bitDepth, got, tt.expected)
		}
	}
}

func TestClip(t *testing.T) {
	tests := []struct {
		v, max, expected float64
	}{
		{0.5, 1, 0.5},
		{1.5, 1, 1},
		{-0.25, 1, -0.25},
		{-2, 1, -1},
		{0, 1, 0},
		{math.Inf(1), 1, 1},
		{math.Inf(-1), 1, -1},
	}

	for _, tt := range tests {
		if got := Clip(tt.v, tt.max); got != tt.expected {
			t.Errorf("Clip(%v, %v) = %v, expected %v", tt.v, tt.max, got, tt.expected)
		}
	}
}

func TestQuantize16Bit(t *testing.T) {
	max := MaxSample(16)

	tests := []struct {
		name      string
		amplitude float64
		expected  int32
	}{
		{"silence", 0, 0},
		{"full scale", 1, 32767},
		{"negative full scale", -1, -32767},
		{"half", 0.5, 16383},
		{"clips high", 1.5, 32767},
		{"clips low", -2.0, -32767},
		{"nan is silence", math.NaN(), 0},
		{"inf clips", math.Inf(1), 32767},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Quantize(tt.amplitude, max); got != tt.expected {
				t.Errorf("Quantize(%v) = %d, expected %d", tt.amplitude, got, tt.expected)
			}
		})
	}
}

func TestQuantizeStaysInRange(t *testing.T) {
	max := MaxSample(16)
	for a := -1.0; a <= 1.0; a += 1.0 / 1024 {
		s := Quantize(a, max)
		if s < -max || s > max {
			t.Fatalf("Quantize(%v) = %d outside [-%d, %d]", a, s, max, max)
		}
	}
}
