package asyncseq

import (
	"context"
	"time"
)

// Throttle emits each upstream item immediately, then delays interval
// before pulling the next one (§4.4). If ctx is cancelled during that
// delay, the stream ends cleanly without emitting a partial item — the
// item that was about to be pulled simply never arrives.
func Throttle[T any](s Seq[T], interval time.Duration) Seq[T] {
	return FromFactory(func() Puller[T] {
		next := s.Pull()
		first := true

		return func(ctx context.Context) (T, bool, error) {
			var zero T
			if !first {
				timer := time.NewTimer(interval)
				defer timer.Stop()
				select {
				case <-timer.C:
				case <-ctx.Done():
					return zero, false, nil
				}
			}
			first = false

			v, ok, err := next(ctx)
			if err != nil || !ok {
				return zero, false, err
			}
			return v, true, nil
		}
	})
}
