package asyncseq

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/oakfield-labs/flowkit/seq"
)

// Async bridges a synchronous seq.Sequence into the async pipeline,
// yielding each item to the async consumer (§4.4). After
// yieldThresholdMs of continuous synchronous work the producer
// voluntarily suspends once (runtime.Gosched) before resuming, so a
// CPU-bound synchronous source can't starve the host scheduler.
// yieldThresholdMs <= 0 is coerced to 1.
//
// The underlying readers in csv/jsonstream/yamlstream panic with an
// *errs.FatalError on a Throw-mode error, since seq.Sequence's puller
// has no error return. Async recovers that panic in the producer
// goroutine and surfaces it as the async puller's error result instead
// of crashing the process, so Throw behaves identically whether driven
// synchronously or asynchronously.
func Async[T any](s seq.Sequence[T], yieldThresholdMs int) Seq[T] {
	if yieldThresholdMs <= 0 {
		yieldThresholdMs = 1
	}
	threshold := time.Duration(yieldThresholdMs) * time.Millisecond

	return FromFactory(func() Puller[T] {
		items := make(chan T)
		fail := make(chan error, 1)
		done := make(chan struct{})
		var closeOnce sync.Once
		closeDone := func() { closeOnce.Do(func() { close(done) }) }

		go func() {
			defer close(items)
			defer func() {
				if r := recover(); r != nil {
					if err, ok := r.(error); ok {
						fail <- err
					} else {
						fail <- fmt.Errorf("asyncseq: panic in source: %v", r)
					}
				}
			}()
			last := time.Now()
			next := s.Pull()
			for {
				v, ok := next()
				if !ok {
					return
				}
				select {
				case items <- v:
				case <-done:
					return
				}
				if time.Since(last) >= threshold {
					runtime.Gosched()
					last = time.Now()
				}
			}
		}()

		return func(ctx context.Context) (T, bool, error) {
			var zero T
			select {
			case v, ok := <-items:
				if ok {
					return v, true, nil
				}
				select {
				case err := <-fail:
					return zero, false, err
				default:
					return zero, false, nil
				}
			case <-ctx.Done():
				closeDone()
				return zero, false, nil
			}
		}
	})
}
