//go:build portaudio

// ABOUTME: PortAudio output implementation
// ABOUTME: Cross-platform block playback using a PortAudio callback stream
package output

import (
	"encoding/binary"
	"fmt"
	"log"
	"sync"

	"github.com/Resonate-Protocol/noisemaker-go/pkg/audio"
	"github.com/gordonklaus/portaudio"
)

// PortAudio drives output devices through PortAudio
type PortAudio struct {
	mu          sync.Mutex
	initialized bool
}

// NewPortAudio creates a PortAudio driver; PortAudio is initialized lazily
func NewPortAudio() *PortAudio {
	return &PortAudio{}
}

// Name returns the backend name
func (p *PortAudio) Name() string {
	return "portaudio"
}

// outputDevices returns devices with at least one output channel (must hold p.mu)
func (p *PortAudio) outputDevices() ([]*portaudio.DeviceInfo, error) {
	if !p.initialized {
		if err := portaudio.Initialize(); err != nil {
			return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
		}
		p.initialized = true
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to get audio devices: %w", err)
	}

	var outputs []*portaudio.DeviceInfo
	for _, d := range devices {
		if d.MaxOutputChannels > 0 {
			outputs = append(outputs, d)
		}
	}
	return outputs, nil
}

// Devices returns the names of all output-capable devices
func (p *PortAudio) Devices() ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	outputs, err := p.outputDevices()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(outputs))
	for i, d := range outputs {
		names[i] = d.Name
	}
	return names, nil
}

// Open opens and starts a callback stream on the device at index
func (p *PortAudio) Open(index int, format audio.Format, handler Handler) (Device, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	outputs, err := p.outputDevices()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(outputs) {
		return nil, fmt.Errorf("%w: portaudio index %d of %d", ErrNoDevice, index, len(outputs))
	}
	info := outputs[index]
	if format.Channels > info.MaxOutputChannels {
		return nil, fmt.Errorf("%w: %q has %d output channels, requested %d",
			ErrUnsupportedFormat, info.Name, info.MaxOutputChannels, format.Channels)
	}

	queue := NewQueue(format, handler)
	var scratch []byte

	var callback interface{}
	switch format.BitDepth {
	case 8:
		callback = func(out []uint8) {
			_, _ = queue.Read(out)
		}
	case 16:
		callback = func(out []int16) {
			scratch = grow(scratch, len(out)*2)
			_, _ = queue.Read(scratch)
			for i := range out {
				out[i] = int16(binary.LittleEndian.Uint16(scratch[i*2:]))
			}
		}
	case 32:
		callback = func(out []int32) {
			scratch = grow(scratch, len(out)*4)
			_, _ = queue.Read(scratch)
			for i := range out {
				out[i] = int32(binary.LittleEndian.Uint32(scratch[i*4:]))
			}
		}
	default:
		return nil, fmt.Errorf("%w: portaudio backend supports 8, 16 or 32-bit output, got %d-bit",
			ErrUnsupportedFormat, format.BitDepth)
	}

	params := portaudio.LowLatencyParameters(nil, info)
	params.Output.Channels = format.Channels
	params.SampleRate = float64(format.SampleRate)

	s, err := portaudio.OpenStream(params, callback)
	if err != nil {
		return nil, fmt.Errorf("failed to open stream: %w", err)
	}
	if err := s.Start(); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to start stream: %w", err)
	}

	log.Printf("Audio output initialized: %s on %q (portaudio)", format, info.Name)
	queue.handler(MsgOpen, nil)

	return &portAudioDevice{Queue: queue, s: s}, nil
}

// Close terminates PortAudio
func (p *PortAudio) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return nil
	}
	p.initialized = false
	return portaudio.Terminate()
}

type portAudioDevice struct {
	*Queue
	s    *portaudio.Stream
	once   sync.Once
}

// Close stops and closes the stream
func (d *portAudioDevice) Close() error {
	var err error
	d.once.Do(func() {
		if serr := d.s.Stop(); serr != nil {
			err = fmt.Errorf("failed to stop stream: %w", serr)
		}
		d.Queue.Close()
		if cerr := d.s.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close stream: %w", cerr)
		}
	})
	return err
}

func grow(b []byte, n int) []byte {
	if cap(b) < n {
		return make([]byte, n)
	}
	return b[:n]
}
