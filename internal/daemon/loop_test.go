package daemon

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventLoop_RunsInOrder(t *testing.T) {
	loop := NewEventLoop(nil)
	ctx, cancel := context.WithCancel(context.Background())

	var got []int
	for i := range 5 {
		require.True(t, loop.Post(func() { got = append(got, i) }))
	}
	require.True(t, loop.Post(cancel))

	err := loop.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)

	assert.False(t, loop.Post(func() {}), "post after stop")
}

func TestEventLoop_Schedule(t *testing.T) {
	loop := NewEventLoop(nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	fired := make(chan time.Duration, 1)
	start := time.Now()
	loop.Schedule(20*time.Millisecond, func() {
		fired <- time.Since(start)
		cancel()
	})

	_ = loop.Run(ctx)
	select {
	case d := <-fired:
		assert.GreaterOrEqual(t, d, 20*time.Millisecond)
	default:
		t.Fatal("scheduled task did not run")
	}
}
