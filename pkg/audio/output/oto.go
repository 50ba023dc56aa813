// ABOUTME: Oto-based audio output implementation
// ABOUTME: Streams queued blocks through a persistent oto player that pulls from the block queue
package output

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Resonate-Protocol/noisemaker-go/pkg/audio"
	"github.com/ebitengine/oto/v3"
)

// OtoDeviceName is the single device oto exposes (the system default output)
const OtoDeviceName = "default"

// Oto drives the system default output through the oto library.
// oto allows only one context per process, so the context is created on
// the first Open and reused afterwards; reopening with a different format
// fails.
type Oto struct {
	// BufferSize is oto's internal buffer duration (0 = oto default)
	BufferSize time.Duration

	mu     sync.Mutex
	otoCtx *oto.Context
	format audio.Format
}

// NewOto creates an oto driver
func NewOto() *Oto {
	return &Oto{}
}

// Name returns the backend name
func (o *Oto) Name() string {
	return "oto"
}

// Devices returns the single default device; oto cannot enumerate outputs
func (o *Oto) Devices() ([]string, error) {
	return []string{OtoDeviceName}, nil
}

// Open starts a persistent player reading from a new block queue
func (o *Oto) Open(index int, format audio.Format, handler Handler) (Device, error) {
	if index != 0 {
		return nil, fmt.Errorf("%w: oto index %d", ErrNoDevice, index)
	}
	if err := format.Validate(); err != nil {
		return nil, err
	}

	var otoFormat oto.Format
	switch format.BitDepth {
	case 8:
		otoFormat = oto.FormatUnsignedInt8
	case 16:
		otoFormat = oto.FormatSignedInt16LE
	default:
		return nil, fmt.Errorf("%w: oto supports 8 or 16-bit integer output, got %d-bit", ErrUnsupportedFormat, format.BitDepth)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.otoCtx == nil {
		op := &oto.NewContextOptions{
			SampleRate:   format.SampleRate,
			ChannelCount: format.Channels,
			Format:       otoFormat,
			BufferSize:   o.BufferSize,
		}

		ctx, readyChan, err := oto.NewContext(op)
		if err != nil {
			return nil, fmt.Errorf("failed to create oto context: %w", err)
		}
		<-readyChan

		o.otoCtx = ctx
		o.format = format
	} else {
		// oto doesn't support reinitialization with another format
		if o.format != format {
			return nil, fmt.Errorf("%w: oto context already running at %s, requested %s",
				ErrUnsupportedFormat, o.format, format)
		}
		if err := o.otoCtx.Resume(); err != nil {
			return nil, fmt.Errorf("failed to resume oto context: %w", err)
		}
	}

	queue := NewQueue(format, handler)
	player := o.otoCtx.NewPlayer(queue)
	player.Play()

	log.Printf("Audio output initialized: %s (oto)", format)
	queue.handler(MsgOpen, nil)

	return &otoDevice{
		Queue:  queue,
		player: player,
		otoCtx: o.otoCtx,
	}, nil
}

type otoDevice struct {
	*Queue
	player *oto.Player
	otoCtx *oto.Context
	once   sync.Once
}

// Close stops the player and suspends the shared context
func (d *otoDevice) Close() error {
	var err error
	d.once.Do(func() {
		if cerr := d.player.Close(); cerr != nil {
			err = fmt.Errorf("failed to close oto player: %w", cerr)
		}
		d.Queue.Close()
		if serr := d.otoCtx.Suspend(); serr != nil {
			log.Printf("Warning: oto suspend error: %v", serr)
		}
	})
	return err
}
