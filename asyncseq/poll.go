package asyncseq

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Poll synthesizes a stream by invoking fn repeatedly, waiting interval
// between calls (§4.4). fn is called once immediately, then again after
// each interval elapses. If stopWhen is non-nil and returns true for an
// emitted value, that value is yielded and polling stops. A non-nil
// error from fn ends the stream and propagates to the consumer.
func Poll[T any](fn func(ctx context.Context) (T, error), interval time.Duration, stopWhen func(T) bool) Seq[T] {
	return FromFactory(func() Puller[T] {
		items := make(chan T)
		errs := make(chan error, 1)
		done := make(chan struct{})
		var closeOnce sync.Once
		closeDone := func() { closeOnce.Do(func() { close(done) }) }

		go func() {
			defer close(items)
			g, gctx := errgroup.WithContext(context.Background())
			g.Go(func() error {
				first := true
				for {
					if !first {
						timer := time.NewTimer(interval)
						select {
						case <-timer.C:
						case <-done:
							timer.Stop()
							return nil
						case <-gctx.Done():
							timer.Stop()
							return nil
						}
					}
					first = false

					v, err := fn(gctx)
					if err != nil {
						return err
					}
					select {
					case items <- v:
					case <-done:
						return nil
					}
					if stopWhen != nil && stopWhen(v) {
						return nil
					}
				}
			})
			errs <- g.Wait()
		}()

		return func(ctx context.Context) (T, bool, error) {
			var zero T
			select {
			case v, ok := <-items:
				if !ok {
					select {
					case err := <-errs:
						if err != nil {
							return zero, false, err
						}
					default:
					}
					return zero, false, nil
				}
				return v, true, nil
			case <-ctx.Done():
				closeDone()
				return zero, false, nil
			}
		}
	})
}
