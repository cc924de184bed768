package exec_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/exec"
	"main/internal/exec/boundary"
	"main/pkg/exception"
)

func TestNewPoolValidation(t *testing.T) {
	loop := boundary.NewLoopback(boundary.LoopbackConfig{})
	adapter := newAdapter(t, exec.Config{}, loop)

	_, err := exec.NewPool(nil, 1, 1)
	assert.ErrorIs(t, err, exception.ErrOrderNilAdapter)

	_, err = exec.NewPool(adapter, 0, 1)
	assert.ErrorIs(t, err, exception.ErrOrderInvalidWorker)

	_, err = exec.NewPool(adapter, 1, 0)
	assert.ErrorIs(t, err, exception.ErrOrderInvalidWorker)
}

func TestPoolSubmits(t *testing.T) {
	loop := boundary.NewLoopback(boundary.LoopbackConfig{})
	adapter := newAdapter(t, exec.Config{}, loop)

	pool, err := exec.NewPool(adapter, 2, 8)
	require.NoError(t, err)
	pool.Run(t.Context())

	results := make(chan exec.Result, 4)
	for range 4 {
		require.NoError(t, pool.Handle(exec.Request{Order: []byte("queued"), Results: results}))
	}

	for range 4 {
		select {
		case res := <-results:
			require.NoError(t, res.Err)
			assert.True(t, res.Ack.Accepted)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for results")
		}
	}
	assert.Equal(t, uint64(4), adapter.LastOrderID())
}

func TestPoolQueueFull(t *testing.T) {
	loop := boundary.NewLoopback(boundary.LoopbackConfig{})
	adapter := newAdapter(t, exec.Config{}, loop)

	// Workers never started, so the queue fills up.
	pool, err := exec.NewPool(adapter, 1, 2)
	require.NoError(t, err)

	require.NoError(t, pool.Handle(exec.Request{Order: []byte("a")}))
	require.NoError(t, pool.Handle(exec.Request{Order: []byte("b")}))
	assert.ErrorIs(t, pool.Handle(exec.Request{Order: []byte("c")}), exception.ErrOrderQueueFull)
}

func TestPoolValidationErrorsReachResults(t *testing.T) {
	loop := boundary.NewLoopback(boundary.LoopbackConfig{})
	adapter := newAdapter(t, exec.Config{}, loop)

	pool, err := exec.NewPool(adapter, 1, 4)
	require.NoError(t, err)
	pool.Run(t.Context())

	results := make(chan exec.Result, 1)
	require.NoError(t, pool.Handle(exec.Request{Order: nil, Results: results}))

	select {
	case res := <-results:
		assert.ErrorIs(t, res.Err, exception.ErrOrderValidation)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for result")
	}
}
