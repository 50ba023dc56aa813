// ABOUTME: Waveform functions for the generation loop
// ABOUTME: Periodic shapes and combinators mapping time in seconds to amplitude
package engine

import (
	"fmt"
	"math"
	"strings"
)

// Waveform maps global time in seconds to an amplitude. Output is clipped
// to [-1, 1] when quantized, so values beyond that range saturate.
type Waveform func(t float64) float64

// Sine returns amp*sin(2*pi*freq*t)
func Sine(freq, amp float64) Waveform {
	w := 2 * math.Pi * freq
	return func(t float64) float64 {
		return amp * math.Sin(w*t)
	}
}

// Square returns a square wave starting high at t=0
func Square(freq, amp float64) Waveform {
	return func(t float64) float64 {
		if phase(freq, t) < 0.5 {
			return amp
		}
		return -amp
	}
}

// Triangle returns a triangle wave in phase with Sine
func Triangle(freq, amp float64) Waveform {
	return func(t float64) float64 {
		p := math.Mod(phase(freq, t)+0.75, 1)
		return amp * (4*math.Abs(p-0.5) - 1)
	}
}

// Saw returns a rising sawtooth crossing zero at t=0
func Saw(freq, amp float64) Waveform {
	return func(t float64) float64 {
		p := math.Mod(phase(freq, t)+0.5, 1)
		return amp * (2*p - 1)
	}
}

// Silence returns a constant zero waveform
func Silence() Waveform {
	return func(float64) float64 { return 0 }
}

// Sum adds waveforms together; nil entries are skipped
func Sum(ws ...Waveform) Waveform {
	return func(t float64) float64 {
		var v float64
		for _, w := range ws {
			if w != nil {
				v += w(t)
			}
		}
		return v
	}
}

// Scale multiplies a waveform by gain
func Scale(w Waveform, gain float64) Waveform {
	return func(t float64) float64 {
		return gain * w(t)
	}
}

// Shapes lists the names accepted by Parse
var Shapes = []string{"sine", "square", "triangle", "saw", "silence"}

// Parse builds a named waveform
func Parse(shape string, freq, amp float64) (Waveform, error) {
	switch strings.ToLower(shape) {
	case "sine", "sin":
		return Sine(freq, amp), nil
	case "square":
		return Square(freq, amp), nil
	case "triangle", "tri":
		return Triangle(freq, amp), nil
	case "saw", "sawtooth":
		return Saw(freq, amp), nil
	case "silence", "none":
		return Silence(), nil
	default:
		return nil, fmt.Errorf("unknown waveform %q (want one of %s)", shape, strings.Join(Shapes, ", "))
	}
}

// phase returns the position within the current period in [0, 1)
func phase(freq, t float64) float64 {
	x := freq * t
	return x - math.Floor(x)
}
