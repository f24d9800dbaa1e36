// Package cases implements §4.3's Cases/SelectCase/ForEachCase/AllCases
// routing pattern: categorize a sequence by a list of predicates,
// evaluated top-to-bottom with first-match-wins, and route every item
// that matches none of them into the distinguished supra category (index
// len(predicates)).
package cases

import "github.com/oakfield-labs/flowkit/seq"

// Categorized is (category_index, item) — §3.
type Categorized[T any] struct {
	Category int
	Item     T
}

// Transformed is (category_index, item, new_item) — §3. NewItem is the
// zero value with Ok=false iff no selector was supplied for this item's
// category (including an omitted supra selector).
type Transformed[T, R any] struct {
	Category int
	Item     T
	NewItem  R
	Ok       bool
}

// Cases evaluates predicates top-to-bottom against each item; the first
// matching index wins. An item matching none of them is assigned
// len(predicates) (the supra category). An empty predicate list routes
// every item to category 0, which is then the supra category.
func Cases[T any](s seq.Sequence[T], predicates ...func(T) bool) seq.Sequence[Categorized[T]] {
	return seq.FromFactory(func() func() (Categorized[T], bool) {
		next := s.Pull()
		return func() (Categorized[T], bool) {
			v, ok := next()
			if !ok {
				var zero Categorized[T]
				return zero, false
			}
			return Categorized[T]{Category: classify(v, predicates), Item: v}, true
		}
	})
}

func classify[T any](v T, predicates []func(T) bool) int {
	for i, p := range predicates {
		if p != nil && p(v) {
			return i
		}
	}
	return len(predicates)
}

// LabeledPredicate pairs a non-integer category tag with its predicate,
// for the "(category_label, predicate)" overload in §4.3.
type LabeledPredicate[T any, L comparable] struct {
	Label     L
	Predicate func(T) bool
}

// LabeledCategorized carries the caller's label unchanged instead of a
// bare integer index.
type LabeledCategorized[T any, L comparable] struct {
	Label L
	Item  T
}

// CasesLabeled is the (label, predicate) overload of Cases. supraLabel
// is used for items matching none of the pairs.
func CasesLabeled[T any, L comparable](s seq.Sequence[T], supraLabel L, pairs ...LabeledPredicate[T, L]) seq.Sequence[LabeledCategorized[T, L]] {
	return seq.FromFactory(func() func() (LabeledCategorized[T, L], bool) {
		next := s.Pull()
		return func() (LabeledCategorized[T, L], bool) {
			v, ok := next()
			if !ok {
				var zero LabeledCategorized[T, L]
				return zero, false
			}
			label := supraLabel
			for _, pair := range pairs {
				if pair.Predicate != nil && pair.Predicate(v) {
					label = pair.Label
					break
				}
			}
			return LabeledCategorized[T, L]{Label: label, Item: v}, true
		}
	})
}

// SelectCase computes new_item per category using selectors, indexed by
// Category. Categories at or beyond len(selectors) get Ok=false (§3
// invariant 3, including an omitted supra selector).
func SelectCase[T, R any](s seq.Sequence[Categorized[T]], selectors ...func(T) R) seq.Sequence[Transformed[T, R]] {
	return seq.FromFactory(func() func() (Transformed[T, R], bool) {
		next := s.Pull()
		return func() (Transformed[T, R], bool) {
			c, ok := next()
			if !ok {
				var zero Transformed[T, R]
				return zero, false
			}
			out := Transformed[T, R]{Category: c.Category, Item: c.Item}
			if c.Category < len(selectors) && selectors[c.Category] != nil {
				out.NewItem = selectors[c.Category](c.Item)
				out.Ok = true
			}
			return out, true
		}
	})
}

// SelectCaseIndexed is the variant that also passes the running item
// index to the selector.
func SelectCaseIndexed[T, R any](s seq.Sequence[Categorized[T]], selectors ...func(item T, index int) R) seq.Sequence[Transformed[T, R]] {
	return seq.FromFactory(func() func() (Transformed[T, R], bool) {
		next := s.Pull()
		idx := 0
		return func() (Transformed[T, R], bool) {
			c, ok := next()
			if !ok {
				var zero Transformed[T, R]
				return zero, false
			}
			out := Transformed[T, R]{Category: c.Category, Item: c.Item}
			if c.Category < len(selectors) && selectors[c.Category] != nil {
				out.NewItem = selectors[c.Category](c.Item, idx)
				out.Ok = true
			}
			idx++
			return out, true
		}
	})
}

// SelectCaseChained applies a second wave of selectors to an already
// Transformed sequence's NewItem, leaving Item intact. Categories with
// Ok=false from the first wave are passed through unchanged by the second
// wave's index lookup (no selector fires on a zero-value NewItem that
// was never produced).
func SelectCaseChained[T, R, R2 any](s seq.Sequence[Transformed[T, R]], selectors ...func(R) R2) seq.Sequence[Transformed[T, R2]] {
	return seq.FromFactory(func() func() (Transformed[T, R2], bool) {
		next := s.Pull()
		return func() (Transformed[T, R2], bool) {
			t, ok := next()
			if !ok {
				var zero Transformed[T, R2]
				return zero, false
			}
			out := Transformed[T, R2]{Category: t.Category, Item: t.Item}
			if t.Ok && t.Category < len(selectors) && selectors[t.Category] != nil {
				out.NewItem = selectors[t.Category](t.NewItem)
				out.Ok = true
			}
			return out, true
		}
	})
}

// ForEachCase is a pass-through sequence with side effects keyed by
// category. Categories at or beyond len(actions) fire no action (no
// implicit default; the supra category must be covered explicitly).
func ForEachCase[T any](s seq.Sequence[Categorized[T]], actions ...func(item T, index int)) seq.Sequence[Categorized[T]] {
	return seq.FromFactory(func() func() (Categorized[T], bool) {
		next := s.Pull()
		idx := 0
		return func() (Categorized[T], bool) {
			c, ok := next()
			if !ok {
				var zero Categorized[T]
				return zero, false
			}
			if c.Category < len(actions) && actions[c.Category] != nil {
				actions[c.Category](c.Item, idx)
			}
			idx++
			return c, true
		}
	})
}

// UnCase projects a Categorized sequence back to its original items,
// order-preserving.
func UnCase[T any](s seq.Sequence[Categorized[T]]) seq.Sequence[T] {
	return seq.FromFactory(func() func() (T, bool) {
		next := s.Pull()
		return func() (T, bool) {
			c, ok := next()
			if !ok {
				var zero T
				return zero, false
			}
			return c.Item, true
		}
	})
}

// AllCases projects a Transformed sequence to its NewItem values. When
// filter is true (the default), items with Ok=false are dropped.
func AllCases[T, R any](s seq.Sequence[Transformed[T, R]], filter bool) seq.Sequence[R] {
	return seq.FromFactory(func() func() (R, bool) {
		next := s.Pull()
		return func() (R, bool) {
			for {
				t, ok := next()
				if !ok {
					var zero R
					return zero, false
				}
				if !t.Ok && filter {
					continue
				}
				return t.NewItem, true
			}
		}
	})
}

// AllCasesStringSep is the string-specialized overload: it collects
// successive string items until a separator item is seen, yields the
// collected buffer, and resets. The separator item itself terminates the
// current group and is not emitted in either group (§9 caution: this
// mixes "collect until separator" with "separator ends a record" —
// pinned exactly this way by cases_test.go per the open question).
func AllCasesStringSep(s seq.Sequence[string], separator string) seq.Sequence[string] {
	return seq.FromFactory(func() func() (string, bool) {
		next := s.Pull()
		done := false
		return func() (string, bool) {
			if done {
				return "", false
			}
			var buf []string
			for {
				v, ok := next()
				if !ok {
					done = true
					if len(buf) == 0 {
						return "", false
					}
					return joinStrings(buf), true
				}
				if v == separator {
					return joinStrings(buf), true
				}
				buf = append(buf, v)
			}
		}
	})
}

func joinStrings(parts []string) string {
	out := ""
	for _, p := range parts {
		out += p
	}
	return out
}
