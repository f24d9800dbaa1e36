package asyncseq

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWithBoundedBufferWaitPreservesOrderAndContents(t *testing.T) {
	s := Of([]int{1, 2, 3, 4, 5})
	buffered := WithBoundedBuffer(s, BufferOptions{Capacity: 2, FullMode: Wait})

	out, err := buffered.ToSlice(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3, 4, 5}, out)
}

func TestWithBoundedBufferDropNewestKeepsBufferedPrefix(t *testing.T) {
	s := Of([]int{1, 2, 3, 4, 5})
	buffered := WithBoundedBuffer(s, BufferOptions{Capacity: 1, FullMode: DropNewest})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	out, err := buffered.ToSlice(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, out)
	// DropNewest never reorders what does get through.
	for i := 1; i < len(out); i++ {
		require.Less(t, out[i-1], out[i])
	}
}

func TestWithBoundedBufferDropOldestEventuallyDeliversLatest(t *testing.T) {
	s := Of([]int{1, 2, 3, 4, 5})
	buffered := WithBoundedBuffer(s, BufferOptions{Capacity: 1, FullMode: DropOldest})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	out, err := buffered.ToSlice(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, out)
	require.Equal(t, 5, out[len(out)-1])
}

func TestWithBoundedBufferZeroCapacityCoercedToOne(t *testing.T) {
	s := Of([]int{1, 2})
	buffered := WithBoundedBuffer(s, BufferOptions{Capacity: 0, FullMode: Wait})

	out, err := buffered.ToSlice(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, out)
}

func TestWithBoundedBufferCancellationEndsCleanly(t *testing.T) {
	s := Of([]int{1, 2, 3, 4, 5})
	buffered := WithBoundedBuffer(s, BufferOptions{Capacity: 1, FullMode: Wait})

	ctx, cancel := context.WithCancel(context.Background())
	next := buffered.Pull()
	v, ok, err := next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, v)

	cancel()
	require.NotPanics(t, func() {
		next(ctx)
	})
}

// TestWithBoundedBufferWaitModeProducerGoroutineExitsOnCancellation pins
// the leak fix: a Wait-mode producer blocked in sem.Acquire against a
// source that ignores ctx itself must still unblock and exit when the
// consumer's context is cancelled, because the caller's ctx (not
// context.Background()) is threaded into the producer's Acquire/send.
func TestWithBoundedBufferWaitModeProducerGoroutineExitsOnCancellation(t *testing.T) {
	// An infinite source that does not itself look at ctx, so the only
	// thing that can unblock a stuck producer is WithBoundedBuffer's own
	// propagation of the consumer's context into sem.Acquire.
	n := 0
	src := FromFactory(func() Puller[int] {
		return func(ctx context.Context) (int, bool, error) {
			n++
			return n, true, nil
		}
	})

	runtime.Gosched()
	before := runtime.NumGoroutine()

	buffered := WithBoundedBuffer(src, BufferOptions{Capacity: 1, FullMode: Wait})
	ctx, cancel := context.WithCancel(context.Background())
	next := buffered.Pull()

	// Drain one item so the producer is running; with capacity 1 it
	// will then block trying to acquire a permit for the next one,
	// since nothing is draining further.
	v, ok, err := next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, v)

	cancel()

	require.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before
	}, time.Second, 10*time.Millisecond, "producer goroutine should exit after cancellation instead of leaking")
}
