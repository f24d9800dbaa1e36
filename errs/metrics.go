package errs

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the monotonic counters defined by §3. Fields are atomics
// so a host can read them mid-run without racing the reader goroutine
// (the "shared-resource policy" in §5 requires atomically-published
// counters when a consumer needs mid-run reads).
type Metrics struct {
	linesRead       atomic.Int64
	rawRecordsParsed atomic.Int64
	recordsEmitted   atomic.Int64
	errorCount       atomic.Int64
	terminatedEarly  atomic.Bool
	termErr          atomic.Value // string
	startedUTC       time.Time
	completed        atomic.Bool
	completedUTC     atomic.Value // time.Time
}

// NewMetrics returns a fresh, zeroed Metrics stamped with the current
// start time.
func NewMetrics() *Metrics {
	m := &Metrics{startedUTC: nowFunc()}
	m.termErr.Store("")
	return m
}

// IncLinesRead advances lines_read by n.
func (m *Metrics) IncLinesRead(n int64) { m.linesRead.Add(n) }

// IncRawRecordsParsed advances raw_records_parsed by n.
func (m *Metrics) IncRawRecordsParsed(n int64) { m.rawRecordsParsed.Add(n) }

// IncRecordsEmitted advances records_emitted by n.
func (m *Metrics) IncRecordsEmitted(n int64) { m.recordsEmitted.Add(n) }

// LinesRead returns the current count.
func (m *Metrics) LinesRead() int64 { return m.linesRead.Load() }

// RawRecordsParsed returns the current count.
func (m *Metrics) RawRecordsParsed() int64 { return m.rawRecordsParsed.Load() }

// RecordsEmitted returns the current count.
func (m *Metrics) RecordsEmitted() int64 { return m.recordsEmitted.Load() }

// ErrorCount returns the current count.
func (m *Metrics) ErrorCount() int64 { return m.errorCount.Load() }

// TerminatedEarly reports whether the run ended via the Stop error action.
func (m *Metrics) TerminatedEarly() bool { return m.terminatedEarly.Load() }

// TerminationError returns the message that caused early termination, if any.
func (m *Metrics) TerminationError() (string, bool) {
	s, _ := m.termErr.Load().(string)
	return s, s != ""
}

// StartedUTC returns the run's start timestamp.
func (m *Metrics) StartedUTC() time.Time { return m.startedUTC }

// CompletedUTC returns the run's completion timestamp and whether the run
// completed normally (§3 invariant 5: set once, only on normal end).
func (m *Metrics) CompletedUTC() (time.Time, bool) {
	if !m.completed.Load() {
		return time.Time{}, false
	}
	t, _ := m.completedUTC.Load().(time.Time)
	return t, true
}

// Collectors returns the Metrics as Prometheus collectors a host can
// register into its own registry mid-run, per SPEC_FULL.md's "Metrics
// are Prometheus-collectable" addition.
func (m *Metrics) Collectors(readerLabel string) []prometheus.Collector {
	mk := func(name, help string, read func() float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   "flowkit",
			Subsystem:   "reader",
			Name:        name,
			Help:        help,
			ConstLabels: prometheus.Labels{"reader": readerLabel},
		}, read)
	}
	return []prometheus.Collector{
		mk("lines_read", "Lines read so far.", func() float64 { return float64(m.LinesRead()) }),
		mk("raw_records_parsed", "Raw records parsed so far.", func() float64 { return float64(m.RawRecordsParsed()) }),
		mk("records_emitted", "Records successfully emitted so far.", func() float64 { return float64(m.RecordsEmitted()) }),
		mk("error_count", "Errors encountered so far.", func() float64 { return float64(m.ErrorCount()) }),
	}
}
