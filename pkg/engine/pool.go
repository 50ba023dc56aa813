// ABOUTME: Block pool
// ABOUTME: Fixed set of sample blocks and device headers reused in round-robin order
package engine

import (
	"fmt"

	"github.com/Resonate-Protocol/noisemaker-go/pkg/audio/output"
)

// pool owns the block memory. Blocks are windows into one zeroed slab;
// each has a header the device uses to find it.
type pool struct {
	slab      []int32
	headers   []*output.Header
	blockSize int // samples per block (frames * channels)
	current   int
}

func newPool(blockCount, blockSamples, channels int) (*pool, error) {
	if blockCount <= 0 || blockSamples <= 0 || channels <= 0 {
		return nil, fmt.Errorf("%w: %d blocks of %d frames x %d channels",
			ErrAllocationFailed, blockCount, blockSamples, channels)
	}

	blockSize := blockSamples * channels
	if blockSize/channels != blockSamples || blockSize > maxPoolSamples/blockCount {
		return nil, fmt.Errorf("%w: %d blocks of %d samples exceeds the %d sample limit",
			ErrAllocationFailed, blockCount, blockSize, maxPoolSamples)
	}

	p := &pool{
		slab:      make([]int32, blockCount*blockSize),
		headers:   make([]*output.Header, blockCount),
		blockSize: blockSize,
	}

	// Link headers to block memory
	for n := range p.headers {
		start := n * blockSize
		p.headers[n] = output.NewHeader(n, p.slab[start:start+blockSize:start+blockSize])
	}

	return p, nil
}

func (p *pool) len() int {
	return len(p.headers)
}

// header returns the current block's header
func (p *pool) header() *output.Header {
	return p.headers[p.current]
}

// block returns the current block's samples
func (p *pool) block() []int32 {
	return p.headers[p.current].Samples
}

// claim readies the current block for overwriting, undoing any previous prepare
func (p *pool) claim(dev output.Device) error {
	h := p.headers[p.current]
	if h.Has(output.FlagPrepared) {
		if err := dev.Unprepare(h); err != nil {
			return fmt.Errorf("failed to unprepare block %d: %w", h.Index, err)
		}
	}
	return nil
}

// submit hands the current block to the device and advances the
// round-robin index. On failure the index stays put so the block is
// refilled next.
func (p *pool) submit(dev output.Device) error {
	h := p.headers[p.current]
	if err := dev.Prepare(h); err != nil {
		return fmt.Errorf("failed to prepare block %d: %w", h.Index, err)
	}
	if err := dev.Write(h); err != nil {
		return fmt.Errorf("failed to write block %d: %w", h.Index, err)
	}

	p.current++
	p.current %= len(p.headers)
	return nil
}
