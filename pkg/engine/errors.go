// ABOUTME: Engine error taxonomy
// ABOUTME: Sentinel start-up errors and the non-fatal per-block submission error
package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrDeviceNotFound means the requested output is not among the enumerated devices
	ErrDeviceNotFound = errors.New("output device not found")
	// ErrDeviceOpenFailed means the device refused the requested format
	ErrDeviceOpenFailed = errors.New("output device open failed")
	// ErrAllocationFailed means the block pool could not be allocated
	ErrAllocationFailed = errors.New("block pool allocation failed")
	// ErrSubmissionFailed means a filled block could not be handed to the device
	ErrSubmissionFailed = errors.New("block submission failed")
	// ErrAlreadyRunning is returned by Start on a running engine
	ErrAlreadyRunning = errors.New("engine already running")
)

// SubmissionError reports a block the device did not accept. The
// generation loop keeps running after reporting it.
type SubmissionError struct {
	Block int     // pool index of the block
	Time  float64 // global time at the end of the block
	Err   error   // device error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("%v: block %d at %.6fs: %v", ErrSubmissionFailed, e.Block, e.Time, e.Err)
}

// Is matches ErrSubmissionFailed
func (e *SubmissionError) Is(target error) bool {
	return target == ErrSubmissionFailed
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}
