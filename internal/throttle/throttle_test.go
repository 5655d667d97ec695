package throttle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThrottle_FirstCallImmediate(t *testing.T) {
	th := New(time.Second)
	start := time.Now()
	require.NoError(t, th.Wait(context.Background()))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestThrottle_SpacesCalls(t *testing.T) {
	interval := 50 * time.Millisecond
	th := New(interval)

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, th.Wait(context.Background()))
	}
	// First call is free, the next two wait one interval each.
	assert.GreaterOrEqual(t, time.Since(start), 2*interval-10*time.Millisecond)
}

func TestThrottle_ZeroIntervalNeverBlocks(t *testing.T) {
	th := New(0)
	start := time.Now()
	for i := 0; i < 10; i++ {
		require.NoError(t, th.Wait(context.Background()))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestThrottle_ContextCancelled(t *testing.T) {
	th := New(time.Hour)
	require.NoError(t, th.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, th.Wait(ctx))
}
