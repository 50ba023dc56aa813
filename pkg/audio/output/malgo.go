// ABOUTME: Malgo-based audio output implementation
// ABOUTME: Uses miniaudio via malgo for device enumeration and callback-driven block playback
package output

import (
	"fmt"
	"log"
	"sync"

	"github.com/Resonate-Protocol/noisemaker-go/pkg/audio"
	"github.com/gen2brain/malgo"
)

// Malgo drives playback devices through miniaudio
type Malgo struct {
	mu       sync.Mutex
	malgoCtx *malgo.AllocatedContext
}

// NewMalgo creates a malgo driver; the miniaudio context is created lazily
func NewMalgo() *Malgo {
	return &Malgo{}
}

// Name returns the backend name
func (m *Malgo) Name() string {
	return "malgo"
}

// initContext creates the malgo context if needed (must hold m.mu)
func (m *Malgo) initContext() error {
	if m.malgoCtx != nil {
		return nil
	}
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	m.malgoCtx = ctx
	return nil
}

func (m *Malgo) playbackDevices() ([]malgo.DeviceInfo, error) {
	if err := m.initContext(); err != nil {
		return nil, err
	}
	infos, err := m.malgoCtx.Devices(malgo.Playback)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate playback devices: %w", err)
	}
	return infos, nil
}

// Devices returns the names of all playback devices
func (m *Malgo) Devices() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	infos, err := m.playbackDevices()
	if err != nil {
		return nil, err
	}

	names := make([]string, len(infos))
	for i := range infos {
		names[i] = infos[i].Name()
	}
	return names, nil
}

// Open initializes and starts the playback device at index
func (m *Malgo) Open(index int, format audio.Format, handler Handler) (Device, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}

	// Map bit depth to malgo format
	var sampleFormat malgo.FormatType
	switch format.BitDepth {
	case 8:
		sampleFormat = malgo.FormatU8
	case 16:
		sampleFormat = malgo.FormatS16
	case 24:
		sampleFormat = malgo.FormatS24
	case 32:
		sampleFormat = malgo.FormatS32
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	infos, err := m.playbackDevices()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(infos) {
		return nil, fmt.Errorf("%w: malgo index %d of %d", ErrNoDevice, index, len(infos))
	}

	queue := NewQueue(format, handler)
	frameSize := format.FrameSize()

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = sampleFormat
	deviceConfig.Playback.Channels = uint32(format.Channels)
	deviceConfig.Playback.DeviceID = infos[index].ID.Pointer()
	deviceConfig.SampleRate = uint32(format.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	onSamples := func(pOutputSample, pInputSamples []byte, frameCount uint32) {
		_, _ = queue.Read(pOutputSample[:int(frameCount)*frameSize])
	}

	device, err := malgo.InitDevice(m.malgoCtx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: onSamples,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize playback device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		return nil, fmt.Errorf("failed to start device: %w", err)
	}

	log.Printf("Audio output initialized: %s on %q (malgo/%s)", format, infos[index].Name(), formatName(sampleFormat))
	queue.handler(MsgOpen, nil)

	return &malgoDevice{Queue: queue, device: device}, nil
}

// Close releases the miniaudio context
func (m *Malgo) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.malgoCtx != nil {
		if err := m.malgoCtx.Uninit(); err != nil {
			log.Printf("Warning: malgo context uninit error: %v", err)
		}
		m.malgoCtx.Free()
		m.malgoCtx = nil
	}
	return nil
}

type malgoDevice struct {
	*Queue
	device *malgo.Device
	once   sync.Once
}

// Close stops and uninitializes the device
func (d *malgoDevice) Close() error {
	d.once.Do(func() {
		if err := d.device.Stop(); err != nil {
			log.Printf("Warning: device stop error: %v", err)
		}
		d.Queue.Close()
		d.device.Uninit()
	})
	return nil
}

// formatName returns human-readable format name
func formatName(format malgo.FormatType) string {
	switch format {
	case malgo.FormatU8:
		return "U8"
	case malgo.FormatS16:
		return "S16"
	case malgo.FormatS24:
		return "S24"
	case malgo.FormatS32:
		return "S32"
	default:
		return fmt.Sprintf("Unknown(%d)", format)
	}
}
