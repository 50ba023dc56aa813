// ABOUTME: Tests for audio types
// ABOUTME: Tests format validation and PCM sample packing
package audio

import (
	"bytes"
	"testing"
)

func TestFormatValidate(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		wantErr bool
	}{
		{"cd mono", Format{SampleRate: 44100, Channels: 1, BitDepth: 16}, false},
		{"hires stereo", Format{SampleRate: 96000, Channels: 2, BitDepth: 24}, false},
		{"8-bit", Format{SampleRate: 8000, Channels: 1, BitDepth: 8}, false},
		{"zero rate", Format{SampleRate: 0, Channels: 1, BitDepth: 16}, true},
		{"no channels", Format{SampleRate: 44100, Channels: 0, BitDepth: 16}, true},
		{"odd bit depth", Format{SampleRate: 44100, Channels: 1, BitDepth: 12}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.format.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFormatSizes(t *testing.T) {
	f := Format{SampleRate: 48000, Channels: 2, BitDepth: 24}
	if f.BytesPerSample() != 3 {
		t.Errorf("expected 3 bytes per sample, got %d", f.BytesPerSample())
	}
	if f.FrameSize() != 6 {
		t.Errorf("expected 6 byte frames, got %d", f.FrameSize())
	}
	if f.String() != "48000Hz/2ch/24bit" {
		t.Errorf("unexpected string %q", f.String())
	}
}

func TestPutSample(t *testing.T) {
	tests := []struct {
		name     string
		sample   int32
		bitDepth int
		expected []byte
	}{
		{"8-bit zero is midpoint", 0, 8, []byte{0x80}},
		{"8-bit max", 127, 8, []byte{0xFF}},
		{"8-bit min", -127, 8, []byte{0x01}},
		{"16-bit positive", 0x1234, 16, []byte{0x34, 0x12}},
		{"16-bit negative", -1, 16, []byte{0xFF, 0xFF}},
		{"24-bit", 0x123456, 24, []byte{0x56, 0x34, 0x12}},
		{"32-bit", 0x12345678, 32, []byte{0x78, 0x56, 0x34, 0x12}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := make([]byte, tt.bitDepth/8)
			PutSample(dst, tt.sample, tt.bitDepth)
			if !bytes.Equal(dst, tt.expected) {
				t.Errorf("expected %x, got %x", tt.expected, dst)
			}
		})
	}
}

func TestPutSamples(t *testing.T) {
	dst := make([]byte, 6)
	n := PutSamples(dst, []int32{1, -1, 32767}, 16)
	if n != 6 {
		t.Fatalf("expected 6 bytes written, got %d", n)
	}
	expected := []byte{0x01, 0x00, 0xFF, 0xFF, 0xFF, 0x7F}
	if !bytes.Equal(dst, expected) {
		t.Errorf("expected %x, got %x", expected, dst)
	}
}

func TestSampleTo24BitRoundTrip(t *testing.T) {
	for _, s := range []int32{0, 1, -1, Max24Bit, Min24Bit, 0x123456, -0x123456} {
		if got := SampleFrom24Bit(SampleTo24Bit(s)); got != s {
			t.Errorf("round trip of %d gave %d", s, got)
		}
	}
}
