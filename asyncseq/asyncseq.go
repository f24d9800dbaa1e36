// Package asyncseq implements the asynchronous half of flowkit's lazy
// pipeline algebra (§4.2) and the async adapters of §4.4: a cold,
// pull-based Seq[T] whose pull returns a (value, ok, error) once the
// upstream produces it, plus the operators that preserve the sync
// package's laziness and ordering guarantees across a context boundary.
package asyncseq

import (
	"context"
)

// ArgumentError mirrors seq.ArgumentError for async-only entry points.
type ArgumentError struct{ Message string }

func (e *ArgumentError) Error() string { return "argument error: " + e.Message }

// Puller is one asynchronous pull: it blocks (respecting ctx) until the
// next value is ready, end-of-sequence is reached, or ctx is done.
type Puller[T any] func(ctx context.Context) (T, bool, error)

// Seq is a cold, async pull sequence. Like seq.Sequence, building one
// does no work; work happens when the caller drives Pull.
type Seq[T any] struct {
	factory func() Puller[T]
}

// FromFactory builds a Seq whose factory is invoked once per enumeration.
func FromFactory[T any](factory func() Puller[T]) Seq[T] {
	return Seq[T]{factory: factory}
}

// FromPuller builds a single-shot Seq from one already-live puller.
func FromPuller[T any](p Puller[T]) Seq[T] {
	used := false
	return Seq[T]{factory: func() Puller[T] {
		if used {
			panic("asyncseq: single-shot sequence enumerated twice")
		}
		used = true
		return p
	}}
}

// Of builds a restartable Seq backed by a finite slice (useful in tests
// and for bridging small in-memory collections into async pipelines).
func Of[T any](items []T) Seq[T] {
	return Seq[T]{factory: func() Puller[T] {
		i := 0
		return func(ctx context.Context) (T, bool, error) {
			var zero T
			if err := ctx.Err(); err != nil {
				return zero, false, nil
			}
			if i >= len(items) {
				return zero, false, nil
			}
			v := items[i]
			i++
			return v, true, nil
		}
	}}
}

// Pull returns a fresh puller for one enumeration.
func (s Seq[T]) Pull() Puller[T] { return s.factory() }

// Each drains the sequence, invoking fn for each item in order. It stops
// early if fn returns false or an error occurs.
func (s Seq[T]) Each(ctx context.Context, fn func(T) (bool, error)) error {
	next := s.Pull()
	for {
		v, ok, err := next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		cont, err := fn(v)
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
}

// ToSlice materializes the sequence (test/debug convenience; breaks
// laziness deliberately).
func (s Seq[T]) ToSlice(ctx context.Context) ([]T, error) {
	var out []T
	err := s.Each(ctx, func(v T) (bool, error) { out = append(out, v); return true, nil })
	return out, err
}
