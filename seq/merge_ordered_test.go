package seq

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func leq(a, b int) bool { return a <= b }

func TestMergeOrderedLiteralScenario(t *testing.T) {
	a := Of([]int{1, 5, 6, 8, 10})
	b := Of([]int{0, 1, 1, 2, 7, 9, 10, 11})
	got := MergeOrdered(a, b, leq).ToSlice()
	want := []int{0, 1, 1, 1, 2, 5, 6, 7, 8, 9, 10, 10, 11}
	require.Equal(t, want, got)
}

func TestMergeOrderedEmptyInputs(t *testing.T) {
	require.Empty(t, MergeOrdered(Of([]int{}), Of([]int{}), leq).ToSlice())
}

func TestMergeOrderedOneEmpty(t *testing.T) {
	a := Of([]int{1, 2, 3})
	b := Of([]int{})
	require.Equal(t, []int{1, 2, 3}, MergeOrdered(a, b, leq).ToSlice())
	require.Equal(t, []int{1, 2, 3}, MergeOrdered(b, a, leq).ToSlice())
}

func TestMergeOrderedSingletons(t *testing.T) {
	require.Equal(t, []int{1, 2}, MergeOrdered(Of([]int{1}), Of([]int{2}), leq).ToSlice())
	require.Equal(t, []int{1, 2}, MergeOrdered(Of([]int{2}), Of([]int{1}), leq).ToSlice())
}

func TestMergeOrderedTieBreaksLeftFirst(t *testing.T) {
	type tagged struct {
		v    int
		from string
	}
	a := Of([]tagged{{1, "a"}})
	b := Of([]tagged{{1, "b"}})
	got := MergeOrdered(a, b, func(x, y tagged) bool { return x.v <= y.v }).ToSlice()
	require.Equal(t, "a", got[0].from)
	require.Equal(t, "b", got[1].from)
}

func TestMergeOrderedUnbalancedInputs(t *testing.T) {
	long := make([]int, 0, 1000)
	for i := 0; i < 1000; i++ {
		long = append(long, i*2)
	}
	short := []int{1, 999999}
	got := MergeOrdered(Of(long), Of(short), leq).ToSlice()
	require.Len(t, got, 1002)
	for i := 1; i < len(got); i++ {
		require.LessOrEqual(t, got[i-1], got[i])
	}
}

func TestMergeOrderedAssociative(t *testing.T) {
	a := []int{1, 4, 7}
	b := []int{2, 5, 8}
	c := []int{3, 6, 9}

	left := MergeOrdered(MergeOrdered(Of(a), Of(b), leq), Of(c), leq).ToSlice()
	right := MergeOrdered(Of(a), MergeOrdered(Of(b), Of(c), leq), leq).ToSlice()
	require.Equal(t, left, right)
	require.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9}, left)
}
