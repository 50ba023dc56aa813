// ABOUTME: CLI configuration file
// ABOUTME: YAML audio, tone and monitor sections with defaults and validation
package config

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/Resonate-Protocol/noisemaker-go/pkg/engine"
	"gopkg.in/yaml.v3"
)

// Backends lists the supported output backends
var Backends = []string{"oto", "malgo", "portaudio", "null"}

// Config is the noisemaker configuration file
type Config struct {
	Audio   Audio   `yaml:"audio"`
	Tone    Tone    `yaml:"tone"`
	Monitor Monitor `yaml:"monitor"`
}

// Audio selects the output device and block layout
type Audio struct {
	Backend      string `yaml:"backend"`
	Device       string `yaml:"device"`
	SampleRate   int    `yaml:"sample_rate"`
	Channels     int    `yaml:"channels"`
	BitDepth     int    `yaml:"bit_depth"`
	Blocks       int    `yaml:"blocks"`
	BlockSamples int    `yaml:"block_samples"`
}

// Tone describes the generated waveform
type Tone struct {
	Shape     string  `yaml:"shape"`
	Frequency float64 `yaml:"frequency"`
	Amplitude float64 `yaml:"amplitude"`

	// Harmonics are frequency multiples added as sines at Amplitude
	Harmonics []float64 `yaml:"harmonics"`

	// Gain scales the sum; values above 1 drive the output into clipping
	Gain float64 `yaml:"gain"`
}

// Monitor configures the status endpoint
type Monitor struct {
	Addr       string `yaml:"addr"`
	MDNS       bool   `yaml:"mdns"`
	Name       string `yaml:"name"`
	IntervalMS int    `yaml:"interval_ms"`
}

// Default returns the built-in configuration
func Default() *Config {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "noisemaker"
	}

	return &Config{
		Audio: Audio{
			Backend:      "oto",
			SampleRate:   engine.DefaultSampleRate,
			Channels:     engine.DefaultChannels,
			BitDepth:     engine.DefaultBitDepth,
			Blocks:       engine.DefaultBlockCount,
			BlockSamples: engine.DefaultBlockSamples,
		},
		Tone: Tone{
			Shape:     "sine",
			Frequency: 440,
			Amplitude: 0.5,
			Gain:      1,
		},
		Monitor: Monitor{
			Name:       hostname,
			IntervalMS: 250,
		},
	}
}

// Load reads a YAML file over the defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if !slices.Contains(Backends, c.Audio.Backend) {
		return fmt.Errorf("unknown backend %q (want one of %v)", c.Audio.Backend, Backends)
	}
	if err := c.Engine().Format().Validate(); err != nil {
		return err
	}
	if c.Audio.Blocks <= 0 {
		return fmt.Errorf("blocks must be positive, got %d", c.Audio.Blocks)
	}
	if c.Audio.BlockSamples <= 0 {
		return fmt.Errorf("block_samples must be positive, got %d", c.Audio.BlockSamples)
	}
	if c.Tone.Frequency <= 0 {
		return fmt.Errorf("frequency must be positive, got %v", c.Tone.Frequency)
	}
	if nyquist := float64(c.Audio.SampleRate) / 2; c.Tone.Frequency > nyquist {
		return fmt.Errorf("frequency %v exceeds Nyquist limit %v", c.Tone.Frequency, nyquist)
	}
	if c.Tone.Amplitude < 0 {
		return fmt.Errorf("amplitude must not be negative, got %v", c.Tone.Amplitude)
	}
	if _, err := c.Tone.Waveform(); err != nil {
		return err
	}
	if c.Monitor.IntervalMS <= 0 {
		return fmt.Errorf("interval_ms must be positive, got %d", c.Monitor.IntervalMS)
	}
	return nil
}

// Engine returns the engine configuration for the audio section
func (c *Config) Engine() engine.Config {
	return engine.Config{
		Device:       c.Audio.Device,
		SampleRate:   c.Audio.SampleRate,
		Channels:     c.Audio.Channels,
		BitDepth:     c.Audio.BitDepth,
		BlockCount:   c.Audio.Blocks,
		BlockSamples: c.Audio.BlockSamples,
	}
}

// Interval returns the monitor publish interval
func (c *Config) Interval() time.Duration {
	return time.Duration(c.Monitor.IntervalMS) * time.Millisecond
}

// Waveform builds the tone
func (t Tone) Waveform() (engine.Waveform, error) {
	base, err := engine.Parse(t.Shape, t.Frequency, t.Amplitude)
	if err != nil {
		return nil, err
	}

	if len(t.Harmonics) == 0 && (t.Gain == 0 || t.Gain == 1) {
		return base, nil
	}

	parts := []engine.Waveform{base}
	for _, h := range t.Harmonics {
		if h <= 0 {
			return nil, fmt.Errorf("harmonic must be positive, got %v", h)
		}
		parts = append(parts, engine.Sine(t.Frequency*h, t.Amplitude))
	}

	gain := t.Gain
	if gain == 0 {
		gain = 1
	}
	return engine.Scale(engine.Sum(parts...), gain), nil
}
