//go:build !portaudio

// ABOUTME: PortAudio stub when library not available
// ABOUTME: Provides compile-time placeholder when PortAudio not installed
package output

import (
	"errors"

	"github.com/Resonate-Protocol/noisemaker-go/pkg/audio"
)

var errPortAudioDisabled = errors.New("PortAudio support not enabled (build with -tags portaudio)")

// PortAudio output driver (stub)
type PortAudio struct{}

// NewPortAudio creates a new PortAudio driver
func NewPortAudio() *PortAudio {
	return &PortAudio{}
}

// Name returns the backend name
func (p *PortAudio) Name() string {
	return "portaudio"
}

// Devices always fails without the portaudio build tag
func (p *PortAudio) Devices() ([]string, error) {
	return nil, errPortAudioDisabled
}

// Open always fails without the portaudio build tag
func (p *PortAudio) Open(index int, format audio.Format, handler Handler) (Device, error) {
	return nil, errPortAudioDisabled
}

// Close is a no-op
func (p *PortAudio) Close() error {
	return nil
}
