// ABOUTME: Real-time block streaming engine
// ABOUTME: Generation loop, device completion handling and start/stop lifecycle
package engine

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"sync/atomic"

	"github.com/Resonate-Protocol/noisemaker-go/pkg/audio"
	"github.com/Resonate-Protocol/noisemaker-go/pkg/audio/output"
	"github.com/google/uuid"
)

const errorBuffer = 16

// Engine streams waveform samples to one output device through a fixed
// pool of blocks. The generation loop fills a block whenever the device
// has returned one and suspends while every block is queued.
type Engine struct {
	driver output.Driver
	config Config

	// lifecycle guards Start and Stop
	lifecycle sync.Mutex
	state     atomic.Int32
	running   atomic.Bool
	session   atomic.Pointer[session]
	device    output.Device
	wg        sync.WaitGroup

	// waitMu guards free-count changes and the suspend/resume handshake
	waitMu sync.Mutex
	cond   *sync.Cond
	free   atomic.Int32

	timeBits atomic.Uint64
	waveform atomic.Pointer[Waveform]
	current  atomic.Int32

	submitted atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	underruns atomic.Int64
	spurious  atomic.Int64

	errs    chan error
	errMu   sync.Mutex
	lastErr error
}

type session struct {
	id     uuid.UUID
	device string
}

// Stats is a snapshot of engine counters
type Stats struct {
	SessionID  string  `json:"session_id"`
	State      State   `json:"state"`
	Backend    string  `json:"backend"`
	Device     string  `json:"device"`
	Format     string  `json:"format"`
	BlockCount int     `json:"block_count"`
	Free       int     `json:"free"`
	Current    int     `json:"current"`
	Time       float64 `json:"time"`
	Submitted  int64   `json:"submitted"`
	Completed  int64   `json:"completed"`
	Failed     int64   `json:"failed"`
	Underruns  int64   `json:"underruns"`
	Spurious   int64   `json:"spurious"`
}

// New creates a stopped engine for the driver
func New(driver output.Driver, config Config) *Engine {
	e := &Engine{
		driver: driver,
		config: config.withDefaults(),
		errs:   make(chan error, errorBuffer),
	}
	e.cond = sync.NewCond(&e.waitMu)
	if e.config.Waveform != nil {
		e.SetWaveform(e.config.Waveform)
	}
	return e
}

// Devices returns the output device names the driver can open
func Devices(driver output.Driver) ([]string, error) {
	names, err := driver.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate %s devices: %w", driver.Name(), err)
	}
	return names, nil
}

// Config returns the effective configuration
func (e *Engine) Config() Config {
	return e.config
}

// Start opens the configured device and launches the generation loop.
// On failure everything acquired is released and the engine stays stopped.
func (e *Engine) Start() error {
	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()

	if e.State() == StateRunning {
		return ErrAlreadyRunning
	}
	if err := e.config.validate(); err != nil {
		return err
	}

	names, err := Devices(e.driver)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDeviceNotFound, err)
	}
	index, err := resolveDevice(names, e.config.Device)
	if err != nil {
		return fmt.Errorf("%w on %s backend", err, e.driver.Name())
	}

	format := e.config.Format()
	log.Printf("Audio engine starting: %s device %q, %s, %d blocks of %d frames",
		e.driver.Name(), names[index], format, e.config.BlockCount, e.config.BlockSamples)

	id := instances.register(e)
	device, err := e.driver.Open(index, format, deviceHandler(id))
	if err != nil {
		instances.unregister(id)
		return fmt.Errorf("%w: %s device %q: %w", ErrDeviceOpenFailed, e.driver.Name(), names[index], err)
	}

	p, err := newPool(e.config.BlockCount, e.config.BlockSamples, e.config.Channels)
	if err != nil {
		instances.unregister(id)
		if cerr := device.Close(); cerr != nil {
			log.Printf("Failed to close output device: %v", cerr)
		}
		return err
	}

	e.device = device
	e.session.Store(&session{id: id, device: names[index]})
	e.resetCounters()
	e.free.Store(int32(p.len()))
	e.running.Store(true)
	e.state.Store(int32(StateRunning))

	e.wg.Add(1)
	go e.run(device, p)

	e.waitMu.Lock()
	e.cond.Signal()
	e.waitMu.Unlock()

	return nil
}

// Stop halts the generation loop and closes the device. The block being
// filled when Stop is called is still submitted. Stop on a stopped engine
// does nothing.
func (e *Engine) Stop() error {
	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()

	if e.State() != StateRunning {
		return nil
	}

	e.waitMu.Lock()
	e.running.Store(false)
	e.cond.Broadcast()
	e.waitMu.Unlock()

	e.wg.Wait()

	if s := e.session.Load(); s != nil {
		instances.unregister(s.id)
	}

	err := e.device.Close()
	e.device = nil
	e.state.Store(int32(StateStopped))

	log.Printf("Audio engine stopped: %d blocks submitted, %d completed, %d failed, %d underruns",
		e.submitted.Load(), e.completed.Load(), e.failed.Load(), e.underruns.Load())

	if err != nil {
		return fmt.Errorf("failed to close output device: %w", err)
	}
	return nil
}

// run is the generation loop
func (e *Engine) run(device output.Device, p *pool) {
	defer e.wg.Done()

	format := e.config.Format()
	maxSample := audio.MaxSample(format.BitDepth)
	step := 1 / float64(format.SampleRate)
	t := e.Time()

	for {
		e.waitMu.Lock()
		for e.free.Load() == 0 && e.running.Load() {
			e.cond.Wait()
		}
		if !e.running.Load() {
			e.waitMu.Unlock()
			return
		}
		e.free.Add(-1)
		e.waitMu.Unlock()

		index := p.current
		if err := p.claim(device); err != nil {
			e.failed.Add(1)
			e.report(&SubmissionError{Block: index, Time: t, Err: err})
			e.release()
			continue
		}

		block := p.block()
		for i := 0; i < len(block); i += format.Channels {
			v := 0.0
			if w := e.waveform.Load(); w != nil && *w != nil {
				v = (*w)(t)
			}
			s := audio.Quantize(v, maxSample)
			for c := 0; c < format.Channels; c++ {
				block[i+c] = s
			}
			t += step
			e.timeBits.Store(math.Float64bits(t))
		}

		e.submitted.Add(1)
		if err := p.submit(device); err != nil {
			e.submitted.Add(-1)
			e.failed.Add(1)
			e.report(&SubmissionError{Block: index, Time: t, Err: err})
			e.release()
			continue
		}
		e.current.Store(int32(p.current))
	}
}

// deviceHandler binds a device to the engine registered under id
func deviceHandler(id uuid.UUID) output.Handler {
	return func(msg output.Message, h *output.Header) {
		if e := instances.lookup(id); e != nil {
			e.handleDeviceMessage(msg, h)
		}
	}
}

// handleDeviceMessage returns a played block to the free count
func (e *Engine) handleDeviceMessage(msg output.Message, h *output.Header) {
	if msg != output.MsgDone {
		return
	}

	e.waitMu.Lock()
	defer e.waitMu.Unlock()

	if !e.running.Load() {
		return
	}

	blocks := int32(e.config.BlockCount)
	if e.free.Load() >= blocks {
		e.spurious.Add(1)
		return
	}

	e.completed.Add(1)
	if e.free.Add(1) == blocks {
		// Every block has played and none is queued
		e.underruns.Add(1)
	}
	e.cond.Signal()
}

// release returns a claimed block that never reached the device
func (e *Engine) release() {
	e.waitMu.Lock()
	e.free.Add(1)
	e.cond.Signal()
	e.waitMu.Unlock()
}

// report delivers a runtime error without stopping the loop
func (e *Engine) report(err error) {
	e.errMu.Lock()
	e.lastErr = err
	e.errMu.Unlock()

	if n := e.failed.Load(); n <= 5 || n%100 == 0 {
		log.Printf("Audio engine error (%d total): %v", n, err)
	}

	if e.config.OnError != nil {
		e.config.OnError(err)
	}

	select {
	case e.errs <- err:
	default:
	}
}

// Time returns the global time in seconds at the end of the last generated frame
func (e *Engine) Time() float64 {
	return math.Float64frombits(e.timeBits.Load())
}

// SetWaveform replaces the waveform; the next generated frame uses it.
// A nil waveform plays silence.
func (e *Engine) SetWaveform(w Waveform) {
	e.waveform.Store(&w)
}

// State returns the lifecycle state
func (e *Engine) State() State {
	return State(e.state.Load())
}

// ID returns the current (or last) session ID, uuid.Nil before the first Start
func (e *Engine) ID() uuid.UUID {
	if s := e.session.Load(); s != nil {
		return s.id
	}
	return uuid.Nil
}

// Errors returns runtime errors; errors are dropped while the channel is full
func (e *Engine) Errors() <-chan error {
	return e.errs
}

// LastError returns the most recent runtime error
func (e *Engine) LastError() error {
	e.errMu.Lock()
	defer e.errMu.Unlock()
	return e.lastErr
}

// Stats returns a snapshot of the engine counters
func (e *Engine) Stats() Stats {
	st := Stats{
		State:      e.State(),
		Backend:    e.driver.Name(),
		Format:     e.config.Format().String(),
		BlockCount: e.config.BlockCount,
		Free:       int(e.free.Load()),
		Current:    int(e.current.Load()),
		Time:       e.Time(),
		Submitted:  e.submitted.Load(),
		Completed:  e.completed.Load(),
		Failed:     e.failed.Load(),
		Underruns:  e.underruns.Load(),
		Spurious:   e.spurious.Load(),
	}
	if s := e.session.Load(); s != nil {
		st.SessionID = s.id.String()
		st.Device = s.device
	}
	return st
}

func (e *Engine) resetCounters() {
	e.timeBits.Store(0)
	e.current.Store(0)
	e.submitted.Store(0)
	e.completed.Store(0)
	e.failed.Store(0)
	e.underruns.Store(0)
	e.spurious.Store(0)

	e.errMu.Lock()
	e.lastErr = nil
	e.errMu.Unlock()
}

// resolveDevice maps a device name to its index; empty selects the first device
func resolveDevice(names []string, name string) (int, error) {
	if len(names) == 0 {
		return 0, fmt.Errorf("%w: no output devices", ErrDeviceNotFound)
	}
	if name == "" {
		return 0, nil
	}
	for i, n := range names {
		if n == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrDeviceNotFound, name)
}

// IsStartError reports whether err came from a failed Start
func IsStartError(err error) bool {
	return errors.Is(err, ErrDeviceNotFound) ||
		errors.Is(err, ErrDeviceOpenFailed) ||
		errors.Is(err, ErrAllocationFailed)
}
