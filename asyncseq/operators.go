package asyncseq

import (
	"context"
	"strings"
)

// Until is the async variant of seq.Until: yields items through the
// first one for which pred is true (inclusive). A nil pred is an
// ArgumentError.
func Until[T any](s Seq[T], pred func(item T, index int) bool) (Seq[T], error) {
	if pred == nil {
		return Seq[T]{}, &ArgumentError{Message: "Until: predicate must not be nil"}
	}
	return FromFactory(func() Puller[T] {
		next := s.Pull()
		idx := 0
		done := false
		return func(ctx context.Context) (T, bool, error) {
			var zero T
			if done {
				return zero, false, nil
			}
			v, ok, err := next(ctx)
			if err != nil || !ok {
				done = true
				return zero, false, err
			}
			if pred(v, idx) {
				done = true
			}
			idx++
			return v, true, nil
		}
	}), nil
}

// TakeRange is skip(start).take(count).
func TakeRange[T any](s Seq[T], start, count int) Seq[T] {
	return FromFactory(func() Puller[T] {
		next := s.Pull()
		skipped := 0
		taken := 0
		return func(ctx context.Context) (T, bool, error) {
			var zero T
			for skipped < start {
				_, ok, err := next(ctx)
				if err != nil || !ok {
					return zero, false, err
				}
				skipped++
			}
			if taken >= count {
				return zero, false, nil
			}
			v, ok, err := next(ctx)
			if err != nil || !ok {
				return zero, false, err
			}
			taken++
			return v, true, nil
		}
	})
}

// ForEach is a lazy pass-through with an async action.
func ForEach[T any](s Seq[T], action func(ctx context.Context, item T, index int) error) Seq[T] {
	return FromFactory(func() Puller[T] {
		next := s.Pull()
		idx := 0
		return func(ctx context.Context) (T, bool, error) {
			var zero T
			v, ok, err := next(ctx)
			if err != nil || !ok {
				return zero, false, err
			}
			if action != nil {
				if aerr := action(ctx, v, idx); aerr != nil {
					return zero, false, aerr
				}
			}
			idx++
			return v, true, nil
		}
	})
}

// Do is the terminal form: drains s, optionally invoking action per item.
func Do[T any](ctx context.Context, s Seq[T], action func(ctx context.Context, item T, index int) error) error {
	idx := 0
	return s.Each(ctx, func(v T) (bool, error) {
		if action != nil {
			if err := action(ctx, v, idx); err != nil {
				return false, err
			}
		}
		idx++
		return true, nil
	})
}

// Cumul is an async left fold.
func Cumul[T, A any](ctx context.Context, s Seq[T], initial A, fold func(acc A, item T) A) (A, error) {
	acc := initial
	err := s.Each(ctx, func(v T) (bool, error) { acc = fold(acc, v); return true, nil })
	return acc, err
}

// BuildString concatenates an async sequence of strings.
func BuildString(ctx context.Context, s Seq[string], separator, prefix, suffix string) (string, error) {
	var b strings.Builder
	if prefix != "" {
		b.WriteString(prefix)
	}
	first := true
	err := s.Each(ctx, func(v string) (bool, error) {
		if !first {
			b.WriteString(separator)
		}
		first = false
		b.WriteString(v)
		return true, nil
	})
	if err != nil {
		return "", err
	}
	if suffix != "" {
		b.WriteString(suffix)
	}
	return b.String(), nil
}

// Flatten concatenates nested async sequences in order.
func Flatten[T any](seqs Seq[Seq[T]]) Seq[T] {
	return FromFactory(func() Puller[T] {
		outer := seqs.Pull()
		var inner Puller[T]
		return func(ctx context.Context) (T, bool, error) {
			var zero T
			for {
				if inner != nil {
					v, ok, err := inner(ctx)
					if err != nil {
						return zero, false, err
					}
					if ok {
						return v, true, nil
					}
					inner = nil
				}
				nextSeq, ok, err := outer(ctx)
				if err != nil || !ok {
					return zero, false, err
				}
				inner = nextSeq.Pull()
			}
		}
	})
}

// IsNullOrEmpty reports whether s has no elements, consuming at most one.
func IsNullOrEmpty[T any](ctx context.Context, s Seq[T]) (bool, error) {
	next := s.Pull()
	_, ok, err := next(ctx)
	if err != nil {
		return false, err
	}
	return !ok, nil
}
