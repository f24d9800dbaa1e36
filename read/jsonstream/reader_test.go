package jsonstream

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oakfield-labs/flowkit/errs"
)

type widget struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestJSONSyncArrayRootFastPath(t *testing.T) {
	input := `[{"name":"a","count":1},{"name":"b","count":2}]`
	s, err := Sync[widget](strings.NewReader(input), "w.json", DefaultOptions())
	require.NoError(t, err)
	got := s.ToSlice()
	require.Equal(t, []widget{{"a", 1}, {"b", 2}}, got)
}

func TestJSONSyncSingleObjectRootEmitsOneElement(t *testing.T) {
	input := `{"name":"solo","count":9}`
	s, err := Sync[widget](strings.NewReader(input), "", DefaultOptions())
	require.NoError(t, err)
	got := s.ToSlice()
	require.Equal(t, []widget{{"solo", 9}}, got)
}

func TestJSONSyncRequireArrayRootRejectsSingleObject(t *testing.T) {
	opts := DefaultOptions()
	opts.RequireArrayRoot = true
	opts.AllowSingleObject = false
	input := `{"name":"solo","count":9}`

	_, err := Sync[widget](strings.NewReader(input), "", opts)
	require.Error(t, err)
	var rootErr *JsonRootError
	require.ErrorAs(t, err, &rootErr)
}

func TestJSONSyncGuardRailMaxElementsScenario(t *testing.T) {
	// §8 scenario 5: array of 10 objects, max_elements=5, Stop -> first
	// 5 observed, terminated_early, records_emitted==5,
	// raw_records_parsed==5, error_count==1.
	var b strings.Builder
	b.WriteString("[")
	for i := 0; i < 10; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(`{"name":"x","count":1}`)
	}
	b.WriteString("]")

	opts := DefaultOptions()
	opts.GuardRailsEnabled = true
	opts.MaxElements = 5
	metrics := errs.NewMetrics()
	opts.Base.Metrics = metrics
	opts.Base.ErrorAction = errs.Stop

	s, err := Sync[widget](strings.NewReader(b.String()), "", opts)
	require.NoError(t, err)
	got := s.ToSlice()
	require.Len(t, got, 5)
	require.True(t, metrics.TerminatedEarly())
	require.EqualValues(t, 5, metrics.RecordsEmitted())
	require.EqualValues(t, 5, metrics.RawRecordsParsed())
	require.EqualValues(t, 1, metrics.ErrorCount())
	_, completed := metrics.CompletedUTC()
	require.False(t, completed)
}

func TestJSONSyncValidatorRejectsElement(t *testing.T) {
	input := `[{"name":"a","count":1},{"name":"b","count":-1}]`
	opts := DefaultOptions()
	opts.ValidateElements = true
	opts.Validator = func(raw []byte) (bool, error) {
		return !strings.Contains(string(raw), `"count":-1`), nil
	}
	opts.Base.ErrorAction = errs.Skip
	metrics := errs.NewMetrics()
	opts.Base.Metrics = metrics

	s, err := Sync[widget](strings.NewReader(input), "", opts)
	require.NoError(t, err)
	got := s.ToSlice()
	require.Len(t, got, 1)
	require.EqualValues(t, 1, metrics.ErrorCount())
}

func TestJSONSyncMaxStringLengthGuardRail(t *testing.T) {
	input := `[{"name":"aaaaaaaaaa","count":1}]`
	opts := DefaultOptions()
	opts.GuardRailsEnabled = true
	opts.MaxStringLength = 3
	opts.Base.ErrorAction = errs.Skip
	metrics := errs.NewMetrics()
	opts.Base.Metrics = metrics

	s, err := Sync[widget](strings.NewReader(input), "", opts)
	require.NoError(t, err)
	got := s.ToSlice()
	require.Empty(t, got)
	require.EqualValues(t, 1, metrics.ErrorCount())
}

func TestJSONSyncEmptyArrayProducesEmptyOutput(t *testing.T) {
	s, err := Sync[widget](strings.NewReader(`[]`), "", DefaultOptions())
	require.NoError(t, err)
	require.Empty(t, s.ToSlice())
}

func TestJSONSyncThrowPanicsOnSyntaxError(t *testing.T) {
	input := `[{"name":"a","count":1}, this is not json]`
	s, err := Sync[widget](strings.NewReader(input), "", DefaultOptions())
	require.NoError(t, err)
	require.Panics(t, func() { s.ToSlice() })
}

func TestJSONSyncThrowPanicUnwrapsToJsonExceptionScenario(t *testing.T) {
	input := `[{"name":"a","count":1}, this is not json]`
	s, err := Sync[widget](strings.NewReader(input), "bad.json", DefaultOptions())
	require.NoError(t, err)

	func() {
		defer func() {
			r := recover()
			require.NotNil(t, r)
			perr, ok := r.(error)
			require.True(t, ok)
			var jsonErr *JsonException
			require.True(t, errors.As(perr, &jsonErr))
		}()
		s.ToSlice()
	}()
}

func TestJSONSyncGuardRailThrowPanicUnwrapsToJsonSizeLimit(t *testing.T) {
	input := `[{"name":"a","count":1},{"name":"b","count":2}]`
	opts := DefaultOptions()
	opts.GuardRailsEnabled = true
	opts.MaxElements = 1

	s, err := Sync[widget](strings.NewReader(input), "limit.json", opts)
	require.NoError(t, err)

	func() {
		defer func() {
			r := recover()
			require.NotNil(t, r)
			perr, ok := r.(error)
			require.True(t, ok)
			var limErr *JsonSizeLimit
			require.True(t, errors.As(perr, &limErr))
			require.Equal(t, "max_elements", limErr.Limit)
		}()
		s.ToSlice()
	}()
}
