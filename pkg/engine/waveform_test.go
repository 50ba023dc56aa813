package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaveformShapes(t *testing.T) {
	const freq = 100.0 // period 10ms
	type point struct{ phase, want float64 }
	tests := []struct {
		name   string
		w      Waveform
		points []point
	}{
		{"sine", Sine(freq, 0.5), []point{{0, 0}, {0.25, 0.5}, {0.5, 0}, {0.75, -0.5}}},
		{"square", Square(freq, 0.5), []point{{0.125, 0.5}, {0.375, 0.5}, {0.625, -0.5}, {0.875, -0.5}}},
		{"triangle", Triangle(freq, 0.5), []point{{0, 0}, {0.25, 0.5}, {0.5, 0}, {0.75, -0.5}}},
		{"saw", Saw(freq, 1), []point{{0, 0}, {0.25, 0.5}, {0.375, 0.75}, {0.75, -0.5}}},
		{"silence", Silence(), []point{{0, 0}, {0.3, 0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, p := range tt.points {
				at := p.phase / freq
				assert.InDelta(t, p.want, tt.w(at), 1e-9, "t=%v", at)
			}
		})
	}
}

func TestSumAndScale(t *testing.T) {
	w := Scale(Sum(Sine(1, 1), nil, Square(1, 0.25)), 10)
	assert.InDelta(t, 12.5, w(0.25), 1e-9)
	assert.InDelta(t, 2.5, w(0), 1e-9)
}

func TestParseWaveform(t *testing.T) {
	for _, shape := range Shapes {
		w, err := Parse(shape, 440, 0.5)
		require.NoError(t, err, shape)
		v := w(0.001)
		assert.False(t, math.IsNaN(v))
		assert.LessOrEqual(t, math.Abs(v), 0.5+1e-9)
	}

	w, err := Parse("SINE", 1, 1)
	require.NoError(t, err)
	assert.InDelta(t, 1, w(0.25), 1e-9)

	_, err = Parse("noise", 440, 0.5)
	assert.ErrorContains(t, err, "unknown waveform")
}
