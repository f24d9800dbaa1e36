package asyncseq

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestThrottleEmitsFirstItemImmediately(t *testing.T) {
	s := Of([]int{1, 2, 3})
	throttled := Throttle(s, 50*time.Millisecond)

	start := time.Now()
	next := throttled.Pull()
	v, ok, err := next(context.Background())
	elapsed := time.Since(start)

	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, v)
	require.Less(t, elapsed, 40*time.Millisecond)
}

func TestThrottleDelaysBetweenItems(t *testing.T) {
	s := Of([]int{1, 2, 3})
	throttled := Throttle(s, 30*time.Millisecond)

	start := time.Now()
	out, err := throttled.ToSlice(context.Background())
	elapsed := time.Since(start)

	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3}, out)
	require.GreaterOrEqual(t, elapsed, 2*30*time.Millisecond)
}

func TestThrottleCancellationDuringDelayEndsCleanlyWithNoPartialItem(t *testing.T) {
	s := Of([]int{1, 2, 3})
	throttled := Throttle(s, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	next := throttled.Pull()

	v, ok, err := next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, v)

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, ok, err = next(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestThrottleEmptySource(t *testing.T) {
	s := Of([]int{})
	throttled := Throttle(s, 10*time.Millisecond)

	out, err := throttled.ToSlice(context.Background())
	require.NoError(t, err)
	require.Empty(t, out)
}
