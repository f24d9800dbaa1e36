package asyncseq

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPollInvokesImmediatelyThenOnInterval(t *testing.T) {
	var n int64
	fn := func(ctx context.Context) (int64, error) {
		return atomic.AddInt64(&n, 1), nil
	}
	stopAtThree := func(v int64) bool { return v >= 3 }

	p := Poll(fn, 10*time.Millisecond, stopAtThree)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	out, err := p.ToSlice(ctx)
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2, 3}, out)
}

func TestPollPropagatesFunctionError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	fn := func(ctx context.Context) (int, error) {
		calls++
		if calls == 2 {
			return 0, boom
		}
		return calls, nil
	}

	p := Poll(fn, time.Millisecond, nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := p.ToSlice(ctx)
	require.ErrorIs(t, err, boom)
}

func TestPollStopsOnCancellation(t *testing.T) {
	fn := func(ctx context.Context) (int, error) { return 1, nil }
	p := Poll(fn, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	next := p.Pull()

	v, ok, err := next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, v)

	cancel()
	require.NotPanics(t, func() {
		next(ctx)
	})
}
