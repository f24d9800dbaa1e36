package csv

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestColumnSamplerPicksHighestPrecedenceSurvivor(t *testing.T) {
	c := newColumnSampler()
	for _, v := range []string{"true", "false", "true"} {
		c.observe(v, DefaultOptions())
	}
	require.Equal(t, TypeBool, c.inferred())
}

func TestColumnSamplerDemotesOnSecondFailure(t *testing.T) {
	c := newColumnSampler()
	// "12" parses as bool? no - first failure for TypeBool candidate.
	c.observe("12", DefaultOptions())
	require.True(t, c.alive[TypeBool], "one failure must be tolerated")
	c.observe("34", DefaultOptions())
	require.False(t, c.alive[TypeBool], "second failure must demote the candidate")
	require.Equal(t, TypeInt, c.inferred())
}

func TestColumnSamplerFallsBackToString(t *testing.T) {
	c := newColumnSampler()
	c.observe("hello", DefaultOptions())
	c.observe("world", DefaultOptions())
	require.Equal(t, TypeString, c.inferred())
}

func TestColumnSamplerLongBeatsIntWhenValuesOverflowInt32(t *testing.T) {
	c := newColumnSampler()
	c.observe("5000000000", DefaultOptions())
	c.observe("6000000000", DefaultOptions())
	require.False(t, c.alive[TypeInt])
	require.True(t, c.alive[TypeLong])
	require.Equal(t, TypeLong, c.inferred())
}

func TestColumnSamplerEmptyValuesAreNoOps(t *testing.T) {
	c := newColumnSampler()
	c.observe("", DefaultOptions())
	c.observe("", DefaultOptions())
	require.Equal(t, TypeBool, c.inferred(), "no observations means every candidate still alive")
}

func TestColumnSamplerPreservesLeadingZeroStrings(t *testing.T) {
	opts := DefaultOptions()
	opts.PreserveNumericStringsWithLeadingZeros = true
	c := newColumnSampler()
	c.observe("00123", opts)
	c.observe("00456", opts) // second failure also drops bool/datetime/guid
	require.False(t, c.alive[TypeInt])
	require.False(t, c.alive[TypeLong])
	require.False(t, c.alive[TypeDecimal])
	require.False(t, c.alive[TypeDouble])
	require.Equal(t, TypeString, c.inferred())
}

func TestColumnSamplerPreservesLargeIntegerStrings(t *testing.T) {
	opts := DefaultOptions()
	opts.PreserveLargeIntegerStrings = true
	c := newColumnSampler()
	c.observe("1234567890123456789", opts) // 19 digits, > 18
	c.observe("1234567890123456780", opts) // second failure also drops bool/datetime/guid
	require.False(t, c.alive[TypeLong])
	require.Equal(t, TypeString, c.inferred())
}

func TestIsLargeInteger(t *testing.T) {
	require.False(t, isLargeInteger("12345"))
	require.False(t, isLargeInteger("-12345"))
	require.True(t, isLargeInteger("1234567890123456789"))
	require.True(t, isLargeInteger("-1234567890123456789"))
	require.False(t, isLargeInteger("12.5"))
	require.False(t, isLargeInteger(""))
}

func TestNormalizeNumericDotAndCommaBothPresent(t *testing.T) {
	require.Equal(t, "1234.56", normalizeNumeric("1,234.56"))
	require.Equal(t, "1234.56", normalizeNumeric("1.234,56"))
}

func TestNormalizeNumericCommaOnlyThousands(t *testing.T) {
	require.Equal(t, "1234567", normalizeNumeric("1,234,567"))
}

func TestNormalizeNumericCommaOnlyDecimal(t *testing.T) {
	require.Equal(t, "12.5", normalizeNumeric("12,5"))
}

func TestNormalizeNumericDotOnlyUnchanged(t *testing.T) {
	require.Equal(t, "1234.5", normalizeNumeric("1234.5"))
}

func TestNormalizeNumericDotOnlyThousands(t *testing.T) {
	require.Equal(t, "1234567", normalizeNumeric("1.234.567"))
}

func TestParseAsDecimalUsesNormalization(t *testing.T) {
	v, ok := parseAs(TypeDecimal, "1,234.56")
	require.True(t, ok)
	require.Equal(t, "1234.56", v.(interface{ String() string }).String())
}

func TestParseAsGUID(t *testing.T) {
	_, ok := parseAs(TypeGUID, "550e8400-e29b-41d4-a716-446655440000")
	require.True(t, ok)
	_, ok = parseAs(TypeGUID, "not-a-guid")
	require.False(t, ok)
}

func TestParseAsDateTimeTriesMultipleLayouts(t *testing.T) {
	_, ok := parseAs(TypeDateTime, "2024-01-15")
	require.True(t, ok)
	_, ok = parseAs(TypeDateTime, "2024-01-15T10:30:00Z")
	require.True(t, ok)
	_, ok = parseAs(TypeDateTime, "not a date")
	require.False(t, ok)
}
