package asyncseq

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// FullMode controls what happens when the bounded buffer is at capacity
// and the producer has another item ready.
type FullMode int

const (
	// Wait blocks the producer until the consumer makes room. Preserves
	// order.
	Wait FullMode = iota
	// DropOldest evicts the oldest buffered item to make room.
	DropOldest
	// DropNewest discards the incoming item instead of buffering it.
	DropNewest
)

// BufferOptions configures WithBoundedBuffer.
type BufferOptions struct {
	Capacity int
	FullMode FullMode
}

// WithBoundedBuffer interposes a bounded queue between producer and
// consumer (§4.4). Wait mode uses a weighted semaphore sized to
// Capacity so the producer blocks (and releases on consume) exactly
// like a bounded channel, but lets Drop modes bypass blocking entirely.
func WithBoundedBuffer[T any](s Seq[T], opts BufferOptions) Seq[T] {
	capacity := opts.Capacity
	if capacity <= 0 {
		capacity = 1
	}

	return FromFactory(func() Puller[T] {
		type item struct {
			v   T
			err error
		}
		buf := make(chan item, capacity)
		sem := semaphore.NewWeighted(int64(capacity))
		var mu sync.Mutex

		// ctxCh hands the producer goroutine the context from the
		// consumer's first Pull call, so cancellation reaches a
		// producer blocked in sem.Acquire/the Wait-mode send instead of
		// it running forever against context.Background().
		ctxCh := make(chan context.Context, 1)
		var sendCtxOnce sync.Once

		go func() {
			defer close(buf)
			ctx := <-ctxCh
			next := s.Pull()
			for {
				v, ok, err := next(ctx)
				if err != nil {
					select {
					case buf <- item{err: err}:
					case <-ctx.Done():
					}
					return
				}
				if !ok {
					return
				}

				switch opts.FullMode {
				case Wait:
					if sem.Acquire(ctx, 1) != nil {
						return
					}
					select {
					case buf <- item{v: v}:
					case <-ctx.Done():
						return
					}
				case DropNewest:
					select {
					case buf <- item{v: v}:
					default:
						// buffer full: discard the incoming item.
					}
				case DropOldest:
					mu.Lock()
					select {
					case buf <- item{v: v}:
					default:
						// Drain one slot to make room, then enqueue.
						select {
						case <-buf:
						default:
						}
						select {
						case buf <- item{v: v}:
						default:
						}
					}
					mu.Unlock()
				}
			}
		}()

		return func(ctx context.Context) (T, bool, error) {
			sendCtxOnce.Do(func() { ctxCh <- ctx })
			var zero T
			select {
			case it, ok := <-buf:
				if !ok {
					return zero, false, nil
				}
				if opts.FullMode == Wait {
					sem.Release(1)
				}
				if it.err != nil {
					return zero, false, it.err
				}
				return it.v, true, nil
			case <-ctx.Done():
				return zero, false, nil
			}
		}
	})
}
