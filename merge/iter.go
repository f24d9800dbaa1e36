package merge

import (
	"context"
	"reflect"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oakfield-labs/flowkit/asyncseq"
	"github.com/oakfield-labs/flowkit/errs"
)

// sourceMsg is what a source's pump goroutine hands to the merger: a
// value, end-of-source, or a producer failure.
type sourceMsg[T any] struct {
	v   T
	err error
}

// active is one still-live source during enumeration.
type active[T any] struct {
	name string
	ch   chan sourceMsg[T]
}

// pump drains stream, applying predicate, and forwards survivors on
// out. A nil predicate admits everything. out is closed when stream is
// exhausted; a producer error is sent once, then out is closed. The
// returned error distinguishes a clean exit (nil) from one cut short by
// cancellation (ctx.Err()), for the errgroup supervising this goroutine.
func pump[T any](ctx context.Context, s *source[T], out chan<- sourceMsg[T]) error {
	defer close(out)
	next := s.stream.Pull()
	for {
		v, ok, err := next(ctx)
		if err != nil {
			select {
			case out <- sourceMsg[T]{err: err}:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		}
		if !ok {
			return nil
		}
		if s.predicate != nil && !s.predicate(v) {
			continue
		}
		select {
		case out <- sourceMsg[T]{v: v}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// IterAsync begins enumeration (§4.5 `iter_async`), freezing the
// source set. A second call (or a call after the merger has already
// reached a terminal state) returns an already-exhausted sequence —
// the frozen set never gains sources after the first call succeeds.
func (u *Unified[T]) IterAsync() asyncseq.Seq[T] {
	u.mu.Lock()
	if u.state != stateConfiguring {
		u.mu.Unlock()
		return asyncseq.Of[T](nil)
	}

	mergeCtx, cancel := context.WithCancel(context.Background())
	u.cancel = cancel
	u.state = stateEnumerating

	group := &errgroup.Group{}
	u.group = group

	srcs := make([]*source[T], 0, len(u.order))
	for _, n := range u.order {
		srcs = append(srcs, u.sources[n])
	}
	u.mu.Unlock()

	actives := make([]active[T], 0, len(srcs))
	for _, s := range srcs {
		s := s
		ch := make(chan sourceMsg[T])
		group.Go(func() error { return pump(mergeCtx, s, ch) })
		actives = append(actives, active[T]{name: s.name, ch: ch})
	}

	// Supervises goroutine lifecycle: once every pump has exited (clean
	// completion, a producer failure, or cancellation), log anything
	// that was cut short so a goroutine never leaks silently.
	go func() {
		if err := group.Wait(); err != nil {
			u.cfg.Logger.WithError(err).Debug("merge: source goroutines wound down")
		}
	}()

	return asyncseq.FromFactory(func() asyncseq.Puller[T] {
		cursor := 0
		return func(ctx context.Context) (T, bool, error) {
			var zero T
			for {
				if len(actives) == 0 {
					u.finish(stateCompleted)
					return zero, false, nil
				}

				idx, msg, chOk, ctxDone := u.selectNext(ctx, actives, &cursor)
				if ctxDone {
					u.cancelAndMark(stateCancelled)
					return zero, false, nil
				}

				v, hasValue, terminal, err := u.consume(idx, msg, chOk, &actives)
				if len(actives) > 0 {
					cursor %= len(actives)
				} else {
					cursor = 0
				}
				if terminal {
					u.cancelAndMark(stateFailed)
					return zero, false, err
				}
				if hasValue {
					return v, true, nil
				}
				// Source exhausted or dropped: loop to pick the next.
			}
		}
	})
}

// selectNext waits for the next ready source (or caller cancellation).
// Under RoundRobin it first polls sources non-blocking starting at
// cursor, so a continuously-ready neighbor can't starve the rest;
// it falls back to a blocking wait across everything (plus ctx.Done)
// when nothing is immediately ready.
func (u *Unified[T]) selectNext(ctx context.Context, actives []active[T], cursor *int) (idx int, msg sourceMsg[T], chOk bool, ctxDone bool) {
	n := len(actives)

	if u.cfg.Fairness == RoundRobin {
		for i := 0; i < n; i++ {
			j := (*cursor + i) % n
			select {
			case m, ok := <-actives[j].ch:
				*cursor = (j + 1) % n
				return j, m, ok, false
			default:
			}
		}
	}

	cases := make([]reflect.SelectCase, 0, n+1)
	cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ctx.Done())})
	for _, a := range actives {
		cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(a.ch)})
	}

	chosen, recv, recvOK := reflect.Select(cases)
	if chosen == 0 {
		return -1, sourceMsg[T]{}, false, true
	}
	idx = chosen - 1
	if u.cfg.Fairness == RoundRobin {
		*cursor = (idx + 1) % n
	}
	if !recvOK {
		return idx, sourceMsg[T]{}, false, false
	}
	return idx, recv.Interface().(sourceMsg[T]), true, false
}

// consume applies the result of selectNext: a value to yield, a
// dropped/exhausted source (loop again), or (under FailFast) a
// terminal failure.
func (u *Unified[T]) consume(idx int, msg sourceMsg[T], chOk bool, actives *[]active[T]) (v T, hasValue, terminal bool, err error) {
	if !chOk {
		*actives = removeActive(*actives, idx)
		return
	}
	if msg.err != nil {
		name := (*actives)[idx].name
		if u.cfg.ErrorMode == FailFast {
			return v, false, true, &SourceFailureError{Source: name, Err: msg.err}
		}
		u.reportSourceError(name, msg.err)
		*actives = removeActive(*actives, idx)
		return
	}
	return msg.v, true, false, nil
}

func removeActive[T any](actives []active[T], idx int) []active[T] {
	return append(actives[:idx:idx], actives[idx+1:]...)
}

func (u *Unified[T]) reportSourceError(name string, err error) {
	u.cfg.Logger.WithField("source", name).WithError(err).Warn("merge: source failed, continuing")
	u.cfg.ErrorSink.Receive(errs.ErrorRecord{
		Timestamp: time.Now(),
		Reader:    "merge",
		ErrorType: "SourceFailure",
		Message:   err.Error(),
	})
}

func (u *Unified[T]) finish(s state) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.state == stateEnumerating {
		u.state = s
	}
}

func (u *Unified[T]) cancelAndMark(s state) {
	u.mu.Lock()
	if u.state == stateEnumerating {
		u.state = s
	}
	cancel := u.cancel
	u.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}
