package engine

import (
	"testing"

	"github.com/Resonate-Protocol/noisemaker-go/pkg/audio"
	"github.com/Resonate-Protocol/noisemaker-go/pkg/audio/output"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// queueDevice adapts a bare queue to output.Device
type queueDevice struct {
	*output.Queue
}

func (d queueDevice) Close() error {
	d.Queue.Close()
	return nil
}

func newQueueDevice() queueDevice {
	return queueDevice{output.NewQueue(audio.Format{SampleRate: 8000, Channels: 1, BitDepth: 16}, nil)}
}

func TestNewPool(t *testing.T) {
	p, err := newPool(4, 8, 2)
	require.NoError(t, err)

	assert.Equal(t, 4, p.len())
	assert.Equal(t, 16, p.blockSize)
	assert.Len(t, p.slab, 64)
	for n, h := range p.headers {
		assert.Equal(t, n, h.Index)
		assert.Len(t, h.Samples, 16)
		assert.Equal(t, 16, cap(h.Samples), "blocks must not overlap")
		assert.Zero(t, h.Flags())
	}

	// Headers are windows into the slab
	p.headers[1].Samples[0] = 7
	assert.Equal(t, int32(7), p.slab[16])
}

func TestNewPoolRejectsBadSizes(t *testing.T) {
	tests := []struct {
		name                      string
		blocks, samples, channels int
	}{
		{"zero blocks", 0, 512, 1},
		{"zero samples", 8, 0, 1},
		{"zero channels", 8, 512, 0},
		{"negative", -1, 512, 1},
		{"over limit", 8, 1 << 26, 2},
		{"overflow", 2, 1 << 62, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newPool(tt.blocks, tt.samples, tt.channels)
			assert.ErrorIs(t, err, ErrAllocationFailed)
		})
	}
}

func TestPoolSubmitAdvancesAndWraps(t *testing.T) {
	p, err := newPool(3, 4, 1)
	require.NoError(t, err)
	q := newQueueDevice()

	for i := 0; i < 3; i++ {
		assert.Equal(t, i, p.current)
		require.NoError(t, p.claim(q))
		require.NoError(t, p.submit(q))
	}
	assert.Equal(t, 0, p.current)
	assert.Equal(t, 3, q.Queued())

	// Drain, then claim unprepares the played block
	_, err = q.Read(make([]byte, 3*4*2))
	require.NoError(t, err)
	require.True(t, p.header().Has(output.FlagPrepared|output.FlagDone))
	require.NoError(t, p.claim(q))
	assert.False(t, p.header().Has(output.FlagPrepared))
}

func TestPoolFailedSubmitKeepsIndex(t *testing.T) {
	p, err := newPool(2, 4, 1)
	require.NoError(t, err)
	q := newQueueDevice()
	q.Close()

	err = p.submit(q)
	assert.ErrorIs(t, err, output.ErrClosed)
	assert.Equal(t, 0, p.current)
}

func TestPoolClaimRefusesQueuedBlock(t *testing.T) {
	p, err := newPool(1, 4, 1)
	require.NoError(t, err)
	q := newQueueDevice()

	require.NoError(t, p.submit(q))
	assert.ErrorIs(t, p.claim(q), output.ErrStillQueued)
}
