// Package seq implements the synchronous half of flowkit's lazy pipeline
// algebra (§4.2): a cold, pull-based Sequence[T] plus the operators that
// preserve laziness, single-pass evaluation, and O(1) extra memory.
//
// A Sequence is "cold": building one does no work. Work happens only
// when the caller drives it with Each/Pull. Sequences built from a slice
// (Of) are restartable — each call to Pull starts a fresh enumeration;
// sequences built from a one-shot source (FromPuller over a channel, a
// reader) are single-shot, matching §3's lifecycle rule.
package seq

import (
	"errors"
	"strings"
)

// ArgumentError is a programmer error (§7): raised immediately, never
// routed through the error substrate.
type ArgumentError struct{ Message string }

func (e *ArgumentError) Error() string { return "argument error: " + e.Message }

// puller is the pull function: ok=false signals end-of-sequence.
type puller[T any] func() (T, bool)

// Sequence is a cold, single-pass-per-enumeration pull sequence.
type Sequence[T any] struct {
	// factory is invoked once per call to Pull to obtain a fresh puller.
	// For restartable sources (Of) this can be called repeatedly; for
	// single-shot sources it panics on a second call.
	factory func() puller[T]
}

// Of builds a restartable Sequence backed by a finite slice.
func Of[T any](items []T) Sequence[T] {
	return Sequence[T]{factory: func() puller[T] {
		i := 0
		return func() (T, bool) {
			if i >= len(items) {
				var zero T
				return zero, false
			}
			v := items[i]
			i++
			return v, true
		}
	}}
}

// FromFactory builds a Sequence from a factory that is invoked once per
// enumeration. Use this for restartable sources that aren't simple slices.
func FromFactory[T any](factory func() func() (T, bool)) Sequence[T] {
	return Sequence[T]{factory: func() puller[T] { return factory() }}
}

// FromPuller builds a single-shot Sequence from one already-live pull
// function (e.g. backed by a reader or channel). Calling Pull/Each more
// than once on the result is a programmer error.
func FromPuller[T any](p func() (T, bool)) Sequence[T] {
	used := false
	return Sequence[T]{factory: func() puller[T] {
		if used {
			panic("seq: single-shot sequence enumerated twice")
		}
		used = true
		return p
	}}
}

// Pull returns a fresh puller for one enumeration.
func (s Sequence[T]) Pull() puller[T] { return s.factory() }

// Each drains the sequence, invoking fn for each item in order. It stops
// early if fn returns false.
func (s Sequence[T]) Each(fn func(T) bool) {
	next := s.Pull()
	for {
		v, ok := next()
		if !ok {
			return
		}
		if !fn(v) {
			return
		}
	}
}

// ToSlice materializes the sequence. Only use on sequences known to be
// small/finite; this is the one place laziness is deliberately broken.
func (s Sequence[T]) ToSlice() []T {
	var out []T
	s.Each(func(v T) bool { out = append(out, v); return true })
	return out
}

// Until yields items until (inclusive of) the first item for which pred
// is true. pred receives the item and its 0-based index. A nil pred is
// an ArgumentError.
func Until[T any](s Sequence[T], pred func(item T, index int) bool) (Sequence[T], error) {
	if pred == nil {
		return Sequence[T]{}, &ArgumentError{Message: "Until: predicate must not be nil"}
	}
	return Sequence[T]{factory: func() puller[T] {
		next := s.Pull()
		idx := 0
		done := false
		return func() (T, bool) {
			var zero T
			if done {
				return zero, false
			}
			v, ok := next()
			if !ok {
				done = true
				return zero, false
			}
			if pred(v, idx) {
				done = true
			}
			idx++
			return v, true
		}
	}}, nil
}

// TakeRange is skip(start).take(count).
func TakeRange[T any](s Sequence[T], start, count int) Sequence[T] {
	return Sequence[T]{factory: func() puller[T] {
		next := s.Pull()
		skipped := 0
		taken := 0
		return func() (T, bool) {
			var zero T
			for skipped < start {
				if _, ok := next(); !ok {
					return zero, false
				}
				skipped++
			}
			if taken >= count {
				return zero, false
			}
			v, ok := next()
			if !ok {
				return zero, false
			}
			taken++
			return v, true
		}
	}}
}

// ForEach is a lazy pass-through: action fires for each item's side
// effect, then the item is yielded unchanged. action receives the
// 0-based index.
func ForEach[T any](s Sequence[T], action func(item T, index int)) Sequence[T] {
	return Sequence[T]{factory: func() puller[T] {
		next := s.Pull()
		idx := 0
		return func() (T, bool) {
			v, ok := next()
			if !ok {
				var zero T
				return zero, false
			}
			action(v, idx)
			idx++
			return v, true
		}
	}}
}

// Do is the terminal form: drains the sequence, optionally invoking
// action per item, and returns nothing.
func Do[T any](s Sequence[T], action func(item T, index int)) {
	idx := 0
	s.Each(func(v T) bool {
		if action != nil {
			action(v, idx)
		}
		idx++
		return true
	})
}

// Cumul is a left fold. If the sequence is empty, it returns initial.
func Cumul[T, A any](s Sequence[T], initial A, fold func(acc A, item T) A) A {
	acc := initial
	s.Each(func(v T) bool { acc = fold(acc, v); return true })
	return acc
}

// BuildString concatenates a sequence of strings with one allocation
// pattern (strings.Builder). prefix/suffix are omitted when empty.
func BuildString(s Sequence[string], separator, prefix, suffix string) string {
	var b strings.Builder
	if prefix != "" {
		b.WriteString(prefix)
	}
	first := true
	s.Each(func(v string) bool {
		if !first {
			b.WriteString(separator)
		}
		first = false
		b.WriteString(v)
		return true
	})
	if suffix != "" {
		b.WriteString(suffix)
	}
	return b.String()
}

// Flatten concatenates nested sequences in order.
func Flatten[T any](seqs Sequence[Sequence[T]]) Sequence[T] {
	return Sequence[T]{factory: func() puller[T] {
		outer := seqs.Pull()
		var inner puller[T]
		return func() (T, bool) {
			var zero T
			for {
				if inner != nil {
					if v, ok := inner(); ok {
						return v, true
					}
					inner = nil
				}
				next, ok := outer()
				if !ok {
					return zero, false
				}
				inner = next.Pull()
			}
		}
	}}
}

// FlattenSep concatenates nested sequences, inserting separator between
// groups (but not before the first or after the last). The separator is
// inserted once per group boundary, regardless of whether the adjoining
// groups are themselves empty.
func FlattenSep[T any](seqs Sequence[Sequence[T]], separator T) Sequence[T] {
	return Sequence[T]{factory: func() puller[T] {
		outer := seqs.Pull()
		var inner puller[T]
		outerIdx := 0
		return func() (T, bool) {
			var zero T
			for {
				if inner != nil {
					if v, ok := inner(); ok {
						return v, true
					}
					inner = nil
					continue
				}
				next, ok := outer()
				if !ok {
					return zero, false
				}
				emitSep := outerIdx > 0
				outerIdx++
				inner = next.Pull()
				if emitSep {
					return separator, true
				}
			}
		}
	}}
}

// IsNullOrEmpty reports whether s has no elements. It is O(1) when s is
// backed by a known-length slice (Of); otherwise it consumes at most one
// element. Do not call this on a non-restartable sequence whose state
// matters — the consumed element is gone.
func IsNullOrEmpty[T any](s Sequence[T]) bool {
	next := s.Pull()
	_, ok := next()
	return !ok
}

// ErrEmptySequence is the sentinel for a sequence that held no elements.
// No operation in this package returns it; operations on an empty
// sequence yield a zero value and ok=false instead.
var ErrEmptySequence = errors.New("seq: sequence is empty")
