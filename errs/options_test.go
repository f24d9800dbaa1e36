package errs

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHandleErrorThrow(t *testing.T) {
	o := DefaultOptions().Normalize()
	st := NewRunState()

	var recorded []ErrorRecord
	o.ErrorSink = ErrorSinkFunc(func(r ErrorRecord) { recorded = append(recorded, r) })

	cause := errors.New("unterminated quoted field")
	cont, err := HandleError(o, st, "CSV", "in.csv", 3, 2, "CsvQuoteError", "boom", "a,b,\"c", cause)
	require.False(t, cont)
	require.Error(t, err)
	var fatal *FatalError
	require.ErrorAs(t, err, &fatal)
	require.Same(t, cause, errors.Unwrap(err), "FatalError must unwrap to the reader's own typed cause")
	require.Equal(t, int64(1), o.Metrics.ErrorCount())
	require.Len(t, recorded, 1)
	require.Equal(t, "CSV", recorded[0].Reader)
}

func TestHandleErrorStop(t *testing.T) {
	o := DefaultOptions().Normalize()
	o.ErrorAction = Stop
	st := NewRunState()

	cont, err := HandleError(o, st, "JSON", "in.json", 0, 5, "JsonSizeLimit", "too big", "", nil)
	require.NoError(t, err)
	require.False(t, cont)
	require.True(t, o.Metrics.TerminatedEarly())
	msg, ok := o.Metrics.TerminationError()
	require.True(t, ok)
	require.Equal(t, "too big", msg)

	_, completed := o.Metrics.CompletedUTC()
	require.False(t, completed, "Stop must not set completed_utc")
}

func TestHandleErrorSkip(t *testing.T) {
	o := DefaultOptions().Normalize()
	o.ErrorAction = Skip
	st := NewRunState()

	cont, err := HandleError(o, st, "YAML", "in.yaml", 1, 1, "YamlSecurityError", "alias blocked", "&a", nil)
	require.NoError(t, err)
	require.True(t, cont)
	require.Equal(t, int64(1), o.Metrics.ErrorCount())
}

func TestOnErrorForcesSkip(t *testing.T) {
	o := DefaultOptions()
	var got ErrorRecord
	o.OnError = func(r ErrorRecord) { got = r }
	o = o.Normalize()
	require.Equal(t, Skip, o.ErrorAction)

	cont, err := HandleError(o, NewRunState(), "CSV", "f", 1, 1, "SchemaError", "bad", "", nil)
	require.NoError(t, err)
	require.True(t, cont)
	require.Equal(t, "bad", got.Message)
}

func TestSinkPanicIsSwallowed(t *testing.T) {
	o := DefaultOptions().Normalize()
	o.ErrorAction = Skip
	o.ErrorSink = ErrorSinkFunc(func(ErrorRecord) { panic("sink exploded") })

	require.NotPanics(t, func() {
		_, err := HandleError(o, NewRunState(), "CSV", "f", 1, 1, "SchemaError", "bad", "", nil)
		require.NoError(t, err)
	})
}

func TestMaybeEmitProgressByCount(t *testing.T) {
	o := DefaultOptions().Normalize()
	o.ProgressRecordInterval = 2
	var events []ProgressEvent
	o.ProgressSink = ProgressSinkFunc(func(e ProgressEvent) { events = append(events, e) })
	st := NewRunState()

	o.Metrics.IncRecordsEmitted(1)
	MaybeEmitProgress(o, st)
	require.Empty(t, events)

	o.Metrics.IncRecordsEmitted(1)
	MaybeEmitProgress(o, st)
	require.Len(t, events, 1)
}

func TestMaybeEmitProgressByTime(t *testing.T) {
	o := DefaultOptions().Normalize()
	o.ProgressRecordInterval = 0 // disable count trigger
	o.ProgressTimeInterval = 10 * time.Millisecond
	var events []ProgressEvent
	o.ProgressSink = ProgressSinkFunc(func(e ProgressEvent) { events = append(events, e) })
	st := NewRunState()

	MaybeEmitProgress(o, st)
	require.Empty(t, events, "first call seeds lastEmit at started, not yet elapsed")

	time.Sleep(15 * time.Millisecond)
	MaybeEmitProgress(o, st)
	require.Len(t, events, 1)
}

func TestCompleteSetsTimestampOnce(t *testing.T) {
	o := DefaultOptions().Normalize()
	st := NewRunState()

	_, ok := o.Metrics.CompletedUTC()
	require.False(t, ok)

	Complete(o, st)
	ts1, ok := o.Metrics.CompletedUTC()
	require.True(t, ok)
	require.False(t, ts1.IsZero())
}

func TestNDJSONSinkWritesOneObjectPerLine(t *testing.T) {
	var buf bytes.Buffer
	sink := NewNDJSONSink(&buf)
	sink.Receive(ErrorRecord{Reader: "CSV", FilePath: "x.csv", Message: "bad", Action: Skip})
	sink.Receive(ErrorRecord{Reader: "JSON", FilePath: "y.json", Message: "worse", Action: Throw})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], `"reader":"CSV"`)
	require.Contains(t, lines[1], `"action":"Throw"`)
}
