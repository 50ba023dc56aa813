// ABOUTME: Engine configuration and lifecycle state
// ABOUTME: Defaults, validation and the Stopped/Running state type
package engine

import (
	"fmt"

	"github.com/Resonate-Protocol/noisemaker-go/pkg/audio"
)

const (
	DefaultSampleRate   = 44100
	DefaultChannels     = 1
	DefaultBitDepth     = 16
	DefaultBlockCount   = 8
	DefaultBlockSamples = 512

	// maxPoolSamples bounds a single pool allocation (1 GiB of int32 samples)
	maxPoolSamples = 1 << 28
)

// Config holds engine configuration
type Config struct {
	// Device is the output device name; empty selects the first enumerated device
	Device string

	// SampleRate in samples per second (default: 44100)
	SampleRate int

	// Channels is the output channel count (default: 1). Each frame
	// carries the same waveform value on every channel.
	Channels int

	// BitDepth is the integer sample width: 8, 16, 24 or 32 (default: 16)
	BitDepth int

	// BlockCount is the buffering depth (default: 8). More blocks add
	// latency but reduce the chance of underruns.
	BlockCount int

	// BlockSamples is the number of frames per block (default: 512)
	BlockSamples int

	// Waveform is the initial waveform; nil plays silence
	Waveform Waveform

	// OnError is called from the generation loop for every runtime error
	OnError func(error)
}

// withDefaults fills zero fields
func (c Config) withDefaults() Config {
	if c.SampleRate == 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.Channels == 0 {
		c.Channels = DefaultChannels
	}
	if c.BitDepth == 0 {
		c.BitDepth = DefaultBitDepth
	}
	if c.BlockCount == 0 {
		c.BlockCount = DefaultBlockCount
	}
	if c.BlockSamples == 0 {
		c.BlockSamples = DefaultBlockSamples
	}
	return c
}

// Format returns the device format described by the config
func (c Config) Format() audio.Format {
	return audio.Format{
		SampleRate: c.SampleRate,
		Channels:   c.Channels,
		BitDepth:   c.BitDepth,
	}
}

// BlockDuration returns the playback length of one block in seconds
func (c Config) BlockDuration() float64 {
	if c.SampleRate <= 0 {
		return 0
	}
	return float64(c.BlockSamples) / float64(c.SampleRate)
}

// validate checks the config, classifying failures by start-up stage
func (c Config) validate() error {
	if err := c.Format().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrDeviceOpenFailed, err)
	}
	if c.BlockCount <= 0 || c.BlockSamples <= 0 {
		return fmt.Errorf("%w: block count %d and block size %d must be positive",
			ErrAllocationFailed, c.BlockCount, c.BlockSamples)
	}
	return nil
}

// State is the engine lifecycle state
type State int32

const (
	StateStopped State = iota
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateRunning:
		return "running"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// MarshalText encodes the state by name
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name
func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "stopped":
		*s = StateStopped
	case "running":
		*s = StateRunning
	default:
		return fmt.Errorf("unknown engine state %q", text)
	}
	return nil
}
