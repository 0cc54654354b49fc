package workerpool

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitAndDrain(t *testing.T) {
	p := New(4, 8)

	var done atomic.Int64
	for range 100 {
		require.NoError(t, p.Submit(func() { done.Add(1) }))
	}

	// Shutdown drains everything already accepted before joining.
	p.Shutdown()
	assert.Equal(t, int64(100), done.Load())
}

func TestSubmitAfterShutdown(t *testing.T) {
	p := New(1, 1)
	p.Shutdown()

	err := p.Submit(func() {})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestShutdownIdempotent(t *testing.T) {
	p := New(2, 2)
	p.Shutdown()
	p.Shutdown()
}

func TestSingleWorkerRunsInOrder(t *testing.T) {
	p := New(1, 10)

	var got []int
	for i := range 5 {
		require.NoError(t, p.Submit(func() { got = append(got, i) }))
	}
	p.Shutdown()

	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}
