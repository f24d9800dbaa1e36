package seq

// MergeOrdered merges two sorted sequences into one sorted sequence in
// O(n+m) time and O(1) extra state (§4.2, §8 property 3). Both inputs
// must already be sorted under lessEq; on ties (neither a<b nor b<a)
// the left element is yielded first.
func MergeOrdered[T any](a, b Sequence[T], lessEq func(x, y T) bool) Sequence[T] {
	return Sequence[T]{factory: func() puller[T] {
		nextA := a.Pull()
		nextB := b.Pull()

		curA, okA := nextA()
		curB, okB := nextB()

		return func() (T, bool) {
			var zero T
			switch {
			case !okA && !okB:
				return zero, false
			case !okA:
				v := curB
				curB, okB = nextB()
				return v, true
			case !okB:
				v := curA
				curA, okA = nextA()
				return v, true
			default:
				// Tie goes to the left (a) element.
				if lessEq(curA, curB) {
					v := curA
					curA, okA = nextA()
					return v, true
				}
				v := curB
				curB, okB = nextB()
				return v, true
			}
		}
	}}
}
