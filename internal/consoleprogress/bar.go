// Package consoleprogress provides an opt-in errs.ProgressSink backed by
// a schollz/progressbar/v3 terminal bar, for CLI-style callers that want
// a visible indicator instead of (or alongside) programmatic progress
// events.
package consoleprogress

import (
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/oakfield-labs/flowkit/errs"
)

// Sink wraps a progressbar.ProgressBar as an errs.ProgressSink. A nil
// *Sink is a valid no-op receiver.
type Sink struct {
	bar *progressbar.ProgressBar
}

// New builds a Sink. When total > 0 the bar shows a determinate
// percentage; total == 0 renders an indeterminate spinner instead. Pass
// total from fsutil.Size when it's known, 0 otherwise.
func New(total int64) *Sink {
	opts := []progressbar.Option{
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionThrottle(250 * time.Millisecond),
		progressbar.OptionClearOnFinish(),
	}

	var bar *progressbar.ProgressBar
	if total > 0 {
		opts = append(opts,
			progressbar.OptionSetWidth(30),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetPredictTime(true),
		)
		bar = progressbar.NewOptions64(total, opts...)
	} else {
		opts = append(opts,
			progressbar.OptionSpinnerType(14),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
		)
		bar = progressbar.NewOptions64(-1, opts...)
	}
	return &Sink{bar: bar}
}

// Receive implements errs.ProgressSink. It advances the bar to the
// event's known position: Percentage when the reader tracked total
// size, RecordsRead otherwise.
func (s *Sink) Receive(ev errs.ProgressEvent) {
	if s == nil || s.bar == nil {
		return
	}
	if ev.Percentage != nil {
		_ = s.bar.Set64(int64(*ev.Percentage * float64(s.bar.GetMax64()) / 100))
		return
	}
	_ = s.bar.Set64(ev.RecordsRead)
}

// Finish completes the bar and clears it from the terminal.
func (s *Sink) Finish() {
	if s == nil || s.bar == nil {
		return
	}
	_ = s.bar.Finish()
}

var _ errs.ProgressSink = (*Sink)(nil)
