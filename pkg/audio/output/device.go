// ABOUTME: Audio output device interface definitions
// ABOUTME: Block-queue device boundary shared by every playback backend
package output

import (
	"errors"
	"sync/atomic"

	"github.com/Resonate-Protocol/noisemaker-go/pkg/audio"
)

var (
	// ErrNotPrepared is returned when writing a header that was not prepared
	ErrNotPrepared = errors.New("header not prepared")
	// ErrStillQueued is returned when touching a header the device still owns
	ErrStillQueued = errors.New("header still queued for playback")
	// ErrClosed is returned by a device after Close
	ErrClosed = errors.New("device closed")
	// ErrUnsupportedFormat is returned by Open when the backend cannot play the format
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrNoDevice is returned by Open for an index outside the enumerated devices
	ErrNoDevice = errors.New("no such device")
)

// Message identifies a device notification
type Message int

const (
	// MsgOpen is sent once the device is ready for blocks
	MsgOpen Message = iota
	// MsgDone is sent exactly once per block that finished playing
	MsgDone
	// MsgClose is sent when the device shuts down
	MsgClose
)

func (m Message) String() string {
	switch m {
	case MsgOpen:
		return "open"
	case MsgDone:
		return "done"
	case MsgClose:
		return "close"
	default:
		return "unknown"
	}
}

// Handler receives device notifications. It is called from the backend's
// audio context, never while the backend holds its own locks. h is nil
// for MsgOpen and MsgClose.
type Handler func(msg Message, h *Header)

// Driver enumerates and opens output devices of one backend
type Driver interface {
	// Name returns the backend name ("oto", "malgo", ...)
	Name() string

	// Devices returns the available output device names in index order
	Devices() ([]string, error)

	// Open opens the device at index for the given format. The handler is
	// invoked for every notification the device produces.
	Open(index int, format audio.Format, handler Handler) (Device, error)
}

// Device is an opened output device accepting blocks for asynchronous playback
type Device interface {
	// Prepare packs the header's samples into the device format
	Prepare(h *Header) error

	// Unprepare releases a played header so its samples may be overwritten
	Unprepare(h *Header) error

	// Write queues a prepared header for playback
	Write(h *Header) error

	// Close stops playback and discards pending headers
	Close() error
}

// Flag describes a header's device-side state
type Flag uint32

const (
	FlagPrepared Flag = 1 << iota
	FlagQueued
	FlagDone
)

// Header is the device-facing descriptor of one sample block
type Header struct {
	// Index is the block's position in its pool
	Index int

	// Samples is the block memory, interleaved by channel
	Samples []int32

	data  []byte
	flags atomic.Uint32
}

// NewHeader binds a header to block memory
func NewHeader(index int, samples []int32) *Header {
	return &Header{Index: index, Samples: samples}
}

// Has reports whether every bit of f is set
func (h *Header) Has(f Flag) bool {
	return Flag(h.flags.Load())&f == f
}

// Flags returns the current flag set
func (h *Header) Flags() Flag {
	return Flag(h.flags.Load())
}

// Data returns the packed bytes produced by Prepare
func (h *Header) Data() []byte {
	return h.data
}

func (h *Header) set(f Flag) {
	h.flags.Or(uint32(f))
}

func (h *Header) clear(f Flag) {
	h.flags.And(^uint32(f))
}
