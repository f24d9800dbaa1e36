package asyncseq

import "context"

// MergeOrdered is the async variant of seq.MergeOrdered: merges two
// sorted async sequences in O(n+m) pulls and O(1) extra state. Ties go
// to the left (a) element.
func MergeOrdered[T any](a, b Seq[T], lessEq func(x, y T) bool) Seq[T] {
	return FromFactory(func() Puller[T] {
		nextA := a.Pull()
		nextB := b.Pull()

		type state struct {
			v  T
			ok bool
		}
		var curA, curB state
		primed := false

		return func(ctx context.Context) (T, bool, error) {
			var zero T
			if !primed {
				va, oka, err := nextA(ctx)
				if err != nil {
					return zero, false, err
				}
				vb, okb, err := nextB(ctx)
				if err != nil {
					return zero, false, err
				}
				curA = state{va, oka}
				curB = state{vb, okb}
				primed = true
			}

			switch {
			case !curA.ok && !curB.ok:
				return zero, false, nil
			case !curA.ok:
				v := curB.v
				vb, okb, err := nextB(ctx)
				if err != nil {
					return zero, false, err
				}
				curB = state{vb, okb}
				return v, true, nil
			case !curB.ok:
				v := curA.v
				va, oka, err := nextA(ctx)
				if err != nil {
					return zero, false, err
				}
				curA = state{va, oka}
				return v, true, nil
			default:
				if lessEq(curA.v, curB.v) {
					v := curA.v
					va, oka, err := nextA(ctx)
					if err != nil {
						return zero, false, err
					}
					curA = state{va, oka}
					return v, true, nil
				}
				v := curB.v
				vb, okb, err := nextB(ctx)
				if err != nil {
					return zero, false, err
				}
				curB = state{vb, okb}
				return v, true, nil
			}
		}
	})
}
