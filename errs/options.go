// Package errs is the shared error/metrics/progress substrate threaded
// through every reader in flowkit (CSV, JSON, YAML). It implements the
// ErrorAction/ErrorSink/Metrics/ProgressEvent contract once so readers
// never reimplement it.
package errs

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrorAction controls what a reader does when it hits a per-record error.
type ErrorAction int

const (
	// Throw ends the run immediately; the caller observes a fatal error.
	Throw ErrorAction = iota
	// Skip records the error and continues with the next record.
	Skip
	// Stop ends the run gracefully without treating it as a failure.
	Stop
)

func (a ErrorAction) String() string {
	switch a {
	case Throw:
		return "Throw"
	case Skip:
		return "Skip"
	case Stop:
		return "Stop"
	default:
		return "Unknown"
	}
}

// ErrorRecord describes one reader-level error.
type ErrorRecord struct {
	Timestamp   time.Time
	Reader      string // "CSV" | "JSON" | "YAML"
	FilePath    string
	LineNumber  int64
	RecordNum   int64
	ErrorType   string
	Message     string
	RawExcerpt  string
	Action      ErrorAction
}

// ErrorSink receives ErrorRecords. Implementations must be safe to call
// from the reader's goroutine; a misbehaving sink must never take the
// reader down with it (HandleError guarantees this by dispatching to the
// sink inside a recover boundary).
type ErrorSink interface {
	Receive(ErrorRecord)
}

// ErrorSinkFunc adapts a function to ErrorSink.
type ErrorSinkFunc func(ErrorRecord)

// Receive implements ErrorSink.
func (f ErrorSinkFunc) Receive(r ErrorRecord) { f(r) }

// NopSink discards every record; it is the default sink.
var NopSink ErrorSink = ErrorSinkFunc(func(ErrorRecord) {})

// ProgressEvent is emitted periodically and once on normal completion.
type ProgressEvent struct {
	LinesRead  int64
	RecordsRead int64
	ErrorCount int64
	Elapsed    time.Duration
	// Percentage is populated only when the reader knows total input
	// size up front (currently only the JSON reader does).
	Percentage *float64
}

// ProgressSink receives ProgressEvents.
type ProgressSink interface {
	Receive(ProgressEvent)
}

// ProgressSinkFunc adapts a function to ProgressSink.
type ProgressSinkFunc func(ProgressEvent)

// Receive implements ProgressSink.
func (f ProgressSinkFunc) Receive(e ProgressEvent) { f(e) }

// CancelHandle is a cooperative cancellation token. context.Context
// satisfies it; it is kept as a narrow interface so options structs don't
// have to import context.
type CancelHandle interface {
	Done() <-chan struct{}
	Err() error
}

// Options is the base configuration shared by every reader (§3 ReadOptions).
type Options struct {
	ErrorAction             ErrorAction
	ErrorSink                ErrorSink
	ProgressSink             ProgressSink
	ProgressRecordInterval   int64 // default 5000; 0 disables the count trigger
	ProgressTimeInterval     time.Duration // default 5s
	Cancellation             CancelHandle
	Metrics                  *Metrics
	// OnError is a convenience callback. When set it forces ErrorAction
	// to Skip and wraps into ErrorSink.
	OnError func(ErrorRecord)
	// Logger receives structured diagnostics (Warn on Skip and Stop
	// dispositions). Defaults to a discard
	// logger so library use stays silent unless a host wires one in.
	Logger logrus.FieldLogger
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		ErrorAction:            Throw,
		ErrorSink:              NopSink,
		ProgressRecordInterval: 5000,
		ProgressTimeInterval:   5 * time.Second,
		Metrics:                NewMetrics(),
		Logger:                 discardLogger(),
	}
}

// Normalize applies field defaults and the OnError convenience wiring.
// Readers call this once at the start of a run.
func (o Options) Normalize() Options {
	if o.ErrorSink == nil {
		o.ErrorSink = NopSink
	}
	if o.ProgressTimeInterval <= 0 {
		o.ProgressTimeInterval = 5 * time.Second
	}
	if o.Metrics == nil {
		o.Metrics = NewMetrics()
	}
	if o.Logger == nil {
		o.Logger = discardLogger()
	}
	if o.OnError != nil {
		o.ErrorAction = Skip
		cb := o.OnError
		prev := o.ErrorSink
		o.ErrorSink = ErrorSinkFunc(func(r ErrorRecord) {
			prev.Receive(r)
			cb(r)
		})
	}
	return o
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(discardWriter{})
	return l
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// FatalError is returned by HandleError when ErrorAction is Throw.
// Readers return it from setup calls; the sync sequences panic with it
// during enumeration, since their puller has no error result.
// Err, when set, is the reader's own typed error for the record that
// triggered Throw (e.g. *csv.QuoteError, *jsonstream.JsonSizeLimit),
// so a caller can recover it with errors.As despite FatalError being
// the value actually returned/panicked with.
type FatalError struct {
	Reader  string
	Message string
	Err     error
}

func (e *FatalError) Error() string { return e.Reader + ": " + e.Message }

// Unwrap exposes the original typed error, if one was supplied, so
// errors.As(err, &csv.QuoteError{}) succeeds against a FatalError.
func (e *FatalError) Unwrap() error { return e.Err }

// progressState is the mutable per-run progress bookkeeping, guarded by
// a mutex since HandleError/MaybeEmitProgress may be called from a single
// reader goroutine but the metrics they touch may be read concurrently.
type progressState struct {
	mu               sync.Mutex
	recordsSinceEmit int64
	lastEmit         time.Time
	started          time.Time
}

// RunState is the per-run bookkeeping a reader owns; each reader creates
// one with NewRunState and passes it to HandleError/MaybeEmitProgress/
// Complete.
type RunState struct {
	progress progressState
}

// NewRunState starts a fresh run clock.
func NewRunState() *RunState {
	return &RunState{progress: progressState{started: nowFunc()}}
}

var nowFunc = time.Now

// HandleError implements §4.1 handle_error. cause is the
// reader's own typed error for the offending record, if it has one
// (e.g. *csv.QuoteError); it is attached to the returned FatalError so
// errors.As still reaches it on the Throw path. It returns (continue
// bool, err error): continue=false means the caller must break its
// loop; err is non-nil only for the Throw disposition.
func HandleError(o Options, st *RunState, reader, filePath string, lineNo, recordNo int64, errorType, message, excerpt string, cause error) (bool, error) {
	o.Metrics.errorCount.Add(1)

	rec := ErrorRecord{
		Timestamp:  nowFunc(),
		Reader:     reader,
		FilePath:   filePath,
		LineNumber: lineNo,
		RecordNum:  recordNo,
		ErrorType:  errorType,
		Message:    message,
		RawExcerpt: excerpt,
		Action:     o.ErrorAction,
	}
	safeDispatch(o.ErrorSink, rec)

	switch o.ErrorAction {
	case Throw:
		return false, &FatalError{Reader: reader, Message: message, Err: cause}
	case Stop:
		o.Metrics.terminatedEarly.Store(true)
		o.Metrics.termErr.Store(message)
		o.Logger.WithFields(logrus.Fields{
			"reader": reader, "line": lineNo, "record": recordNo, "errorType": errorType,
		}).Warn("reader stopped: " + message)
		return false, nil
	case Skip:
		o.Logger.WithFields(logrus.Fields{
			"reader": reader, "line": lineNo, "record": recordNo, "errorType": errorType,
		}).Warn("skipped record: " + message)
		return true, nil
	default:
		return true, nil
	}
}

// safeDispatch isolates sink panics/misbehavior from the reader, per the
// "sink exceptions swallowed" guarantee in §4.1 and §7.
func safeDispatch(sink ErrorSink, rec ErrorRecord) {
	defer func() { _ = recover() }()
	sink.Receive(rec)
}

// MaybeEmitProgress implements §4.1 maybe_emit_progress: called after
// each emitted record.
func MaybeEmitProgress(o Options, st *RunState) {
	if o.ProgressSink == nil {
		return
	}
	st.progress.mu.Lock()
	defer st.progress.mu.Unlock()

	st.progress.recordsSinceEmit++
	now := nowFunc()
	if st.progress.lastEmit.IsZero() {
		st.progress.lastEmit = st.progress.started
	}

	byCount := o.ProgressRecordInterval > 0 && st.progress.recordsSinceEmit >= o.ProgressRecordInterval
	byTime := now.Sub(st.progress.lastEmit) >= o.ProgressTimeInterval
	if !byCount && !byTime {
		return
	}

	emitLocked(o, st, now, nil)
}

// Complete implements §4.1 complete: called only on normal end-of-input.
func Complete(o Options, st *RunState) {
	o.Metrics.completedUTC.Store(nowFunc())
	o.Metrics.completed.Store(true)
	if o.ProgressSink == nil {
		return
	}
	st.progress.mu.Lock()
	defer st.progress.mu.Unlock()
	emitLocked(o, st, nowFunc(), nil)
}

// CompleteWithPercentage is Complete for readers (JSON) that know total
// input size and can report a final 100%.
func CompleteWithPercentage(o Options, st *RunState, pct float64) {
	o.Metrics.completedUTC.Store(nowFunc())
	o.Metrics.completed.Store(true)
	if o.ProgressSink == nil {
		return
	}
	st.progress.mu.Lock()
	defer st.progress.mu.Unlock()
	emitLocked(o, st, nowFunc(), &pct)
}

func emitLocked(o Options, st *RunState, now time.Time, pct *float64) {
	ev := ProgressEvent{
		LinesRead:   o.Metrics.linesRead.Load(),
		RecordsRead: o.Metrics.recordsEmitted.Load(),
		ErrorCount:  o.Metrics.errorCount.Load(),
		Elapsed:     now.Sub(st.progress.started),
		Percentage:  pct,
	}
	st.progress.recordsSinceEmit = 0
	st.progress.lastEmit = now
	safeDispatchProgress(o.ProgressSink, ev)
}

func safeDispatchProgress(sink ProgressSink, ev ProgressEvent) {
	defer func() { _ = recover() }()
	sink.Receive(ev)
}
