// ABOUTME: Headless audio output implementation
// ABOUTME: Simulated device that consumes queued blocks in real time without audio hardware
package output

import (
	"fmt"
	"sync"
	"time"

	"github.com/Resonate-Protocol/noisemaker-go/pkg/audio"
)

// NullDeviceName is the default simulated device name
const NullDeviceName = "null"

// Null is a headless driver. Its devices pull audio from the block queue on
// a ticker at the stream's sample rate (scaled by Speed) and discard it, so
// completion timing behaves like real hardware.
type Null struct {
	// Names lists the simulated devices (default: a single "null" device)
	Names []string

	// Speed scales the playback pace; 1 (or 0) is real time
	Speed float64

	// Period is how often the device pulls audio (default: 5ms)
	Period time.Duration
}

// NewNull creates a real-time headless driver with the given device names
func NewNull(names ...string) *Null {
	return &Null{Names: names}
}

// Name returns the backend name
func (n *Null) Name() string {
	return "null"
}

// Devices returns the simulated device names
func (n *Null) Devices() ([]string, error) {
	if len(n.Names) == 0 {
		return []string{NullDeviceName}, nil
	}
	return append([]string(nil), n.Names...), nil
}

// Open starts a simulated device
func (n *Null) Open(index int, format audio.Format, handler Handler) (Device, error) {
	names, _ := n.Devices()
	if index < 0 || index >= len(names) {
		return nil, fmt.Errorf("%w: null index %d of %d", ErrNoDevice, index, len(names))
	}
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	speed := n.Speed
	if speed <= 0 {
		speed = 1
	}
	period := n.Period
	if period <= 0 {
		period = 5 * time.Millisecond
	}

	d := &nullDevice{
		Queue:         NewQueue(format, handler),
		framesPerTick: float64(format.SampleRate) * period.Seconds() * speed,
		frameSize:     format.FrameSize(),
		done:          make(chan struct{}),
	}

	d.Queue.handler(MsgOpen, nil)

	d.wg.Add(1)
	go d.run(period)

	return d, nil
}

type nullDevice struct {
	*Queue
	framesPerTick float64
	frameSize     int
	done          chan struct{}
	once          sync.Once
	wg            sync.WaitGroup
}

func (d *nullDevice) run(period time.Duration) {
	defer d.wg.Done()

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	var buf []byte
	var carry float64
	for {
		select {
		case <-d.done:
			return
		case <-ticker.C:
			// carry the fractional frame so the long-run pace is exact
			carry += d.framesPerTick
			frames := int(carry)
			carry -= float64(frames)
			if frames == 0 {
				continue
			}
			size := frames * d.frameSize
			if cap(buf) < size {
				buf = make([]byte, size)
			}
			if _, err := d.Queue.Read(buf[:size]); err != nil {
				return
			}
		}
	}
}

// Close stops the simulated playback goroutine and waits for it
func (d *nullDevice) Close() error {
	d.once.Do(func() {
		close(d.done)
		d.wg.Wait()
		d.Queue.Close()
	})
	return nil
}
