// ABOUTME: Playback queue shared by pull-based backends
// ABOUTME: Drains queued block headers into device buffers and reports finished blocks
package output

import (
	"io"
	"sync"

	"github.com/Resonate-Protocol/noisemaker-go/pkg/audio"
)

// Queue is a FIFO of queued headers consumed as a byte stream.
// Backends pull from it in their audio callback (or via io.Reader for oto);
// a header is reported with MsgDone once its last byte has been pulled.
// Prepare, Unprepare and Write implement the producer half of Device.
type Queue struct {
	format  audio.Format
	handler Handler

	mu        sync.Mutex
	pending   []*Header
	offset    int // bytes of pending[0] already consumed
	closed    bool
	underflow int64 // bytes zero-filled because the queue ran dry
}

// NewQueue creates an empty queue packing samples for format
func NewQueue(format audio.Format, handler Handler) *Queue {
	if handler == nil {
		handler = func(Message, *Header) {}
	}
	return &Queue{
		format:  format,
		handler: handler,
	}
}

// Prepare packs the header's samples into device bytes
func (q *Queue) Prepare(h *Header) error {
	if h.Has(FlagQueued) {
		return ErrStillQueued
	}

	size := len(h.Samples) * q.format.BytesPerSample()
	if cap(h.data) < size {
		h.data = make([]byte, size)
	}
	h.data = h.data[:size]
	audio.PutSamples(h.data, h.Samples, q.format.BitDepth)

	h.clear(FlagDone)
	h.set(FlagPrepared)
	return nil
}

// Unprepare releases a header that is not queued
func (q *Queue) Unprepare(h *Header) error {
	if h.Has(FlagQueued) {
		return ErrStillQueued
	}
	h.clear(FlagPrepared)
	return nil
}

// Write appends a prepared header to the playback queue
func (q *Queue) Write(h *Header) error {
	if !h.Has(FlagPrepared) {
		return ErrNotPrepared
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}
	if h.Has(FlagQueued) {
		return ErrStillQueued
	}

	h.clear(FlagDone)
	h.set(FlagQueued)
	q.pending = append(q.pending, h)
	return nil
}

// Read fills p from the queued headers, zero-filling on underrun.
// It always fills p completely until the stream is closed.
func (q *Queue) Read(p []byte) (int, error) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return 0, io.EOF
	}

	var done []*Header
	n := 0
	for n < len(p) && len(q.pending) > 0 {
		h := q.pending[0]
		c := copy(p[n:], h.data[q.offset:])
		n += c
		q.offset += c
		if q.offset >= len(h.data) {
			q.pending[0] = nil
			q.pending = q.pending[1:]
			q.offset = 0
			done = append(done, h)
		}
	}

	// Zero-fill remaining if underrun
	if n < len(p) {
		clear(p[n:])
		q.underflow += int64(len(p) - n)
	}
	q.mu.Unlock()

	for _, h := range done {
		h.clear(FlagQueued)
		h.set(FlagDone)
		q.handler(MsgDone, h)
	}

	return len(p), nil
}

// Queued returns the number of headers waiting for playback
func (q *Queue) Queued() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Underflow returns the number of silent bytes emitted so far
func (q *Queue) Underflow() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.underflow
}

// Close discards pending headers and reports MsgClose once
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	dropped := q.pending
	q.pending = nil
	q.offset = 0
	q.mu.Unlock()

	for _, h := range dropped {
		h.clear(FlagQueued)
	}
	q.handler(MsgClose, nil)
}
