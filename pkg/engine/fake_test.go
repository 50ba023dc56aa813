package engine

import (
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Resonate-Protocol/noisemaker-go/pkg/audio"
	"github.com/Resonate-Protocol/noisemaker-go/pkg/audio/output"
	"github.com/stretchr/testify/require"
)

var errInjected = errors.New("injected device failure")

// fakeDriver opens fakeDevices that only play when the test pulls blocks
type fakeDriver struct {
	names      []string
	devicesErr error
	openErr    error
	failWrites int32

	mu      sync.Mutex
	devices []*fakeDevice
}

func newFakeDriver(names ...string) *fakeDriver {
	if len(names) == 0 {
		names = []string{"fake"}
	}
	return &fakeDriver{names: names}
}

func (d *fakeDriver) Name() string { return "fake" }

func (d *fakeDriver) Devices() ([]string, error) {
	if d.devicesErr != nil {
		return nil, d.devicesErr
	}
	return d.names, nil
}

func (d *fakeDriver) Open(index int, format audio.Format, handler output.Handler) (output.Device, error) {
	if d.openErr != nil {
		return nil, d.openErr
	}
	dev := &fakeDevice{index: index, format: format, snapshots: make(map[*output.Header][]int32)}
	dev.failWrites.Store(d.failWrites)
	dev.Queue = output.NewQueue(format, dev.intercept(handler))

	d.mu.Lock()
	d.devices = append(d.devices, dev)
	d.mu.Unlock()

	handler(output.MsgOpen, nil)
	return dev, nil
}

func (d *fakeDriver) last() *fakeDevice {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.devices) == 0 {
		return nil
	}
	return d.devices[len(d.devices)-1]
}

func (d *fakeDriver) opened() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.devices)
}

// fakeDevice records every block it accepts and checks, on completion,
// that the block's samples were not touched while it was queued
type fakeDevice struct {
	*output.Queue
	index  int
	format audio.Format

	failWrites atomic.Int32
	closed     atomic.Bool
	violations atomic.Int64

	mu        sync.Mutex
	writes    []int
	snapshots map[*output.Header][]int32
	last      []int32
}

func (d *fakeDevice) intercept(handler output.Handler) output.Handler {
	return func(msg output.Message, h *output.Header) {
		if msg == output.MsgDone {
			d.mu.Lock()
			if !slices.Equal(d.snapshots[h], h.Samples) {
				d.violations.Add(1)
			}
			delete(d.snapshots, h)
			d.mu.Unlock()
		}
		handler(msg, h)
	}
}

func (d *fakeDevice) Unprepare(h *output.Header) error {
	if h.Has(output.FlagQueued) {
		d.violations.Add(1)
	}
	return d.Queue.Unprepare(h)
}

func (d *fakeDevice) Write(h *output.Header) error {
	if d.failWrites.Load() > 0 {
		d.failWrites.Add(-1)
		return errInjected
	}

	d.mu.Lock()
	if _, queued := d.snapshots[h]; queued {
		d.violations.Add(1)
	}
	snap := slices.Clone(h.Samples)
	d.snapshots[h] = snap
	d.writes = append(d.writes, h.Index)
	d.last = snap
	d.mu.Unlock()

	if err := d.Queue.Write(h); err != nil {
		d.mu.Lock()
		delete(d.snapshots, h)
		d.writes = d.writes[:len(d.writes)-1]
		d.mu.Unlock()
		return err
	}
	return nil
}

func (d *fakeDevice) Close() error {
	d.closed.Store(true)
	d.Queue.Close()
	return nil
}

func (d *fakeDevice) written() []int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.writes)
}

func (d *fakeDevice) lastBlock() []int32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.last)
}

// play pulls exactly one block's worth of bytes from the device
func (d *fakeDevice) play(t *testing.T, blockSamples int) {
	t.Helper()
	n, err := d.Read(make([]byte, blockSamples*d.format.FrameSize()))
	require.NoError(t, err)
	require.Equal(t, blockSamples*d.format.FrameSize(), n)
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, time.Millisecond, msg)
}

func startFake(t *testing.T, cfg Config) (*Engine, *fakeDriver, *fakeDevice) {
	t.Helper()
	drv := newFakeDriver()
	eng := New(drv, cfg)
	require.NoError(t, eng.Start())
	t.Cleanup(func() { _ = eng.Stop() })
	return eng, drv, drv.last()
}

func waitFull(t *testing.T, eng *Engine, dev *fakeDevice) {
	t.Helper()
	n := eng.Config().BlockCount
	waitFor(t, func() bool {
		return dev.Queued() == n && eng.Stats().Free == 0
	}, "pool never filled")
}
