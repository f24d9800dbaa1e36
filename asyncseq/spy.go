package asyncseq

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

// Observer mirrors seq.Observer for the async pipeline.
type Observer func(line string)

// ConsoleObserver is the ergonomic default: one line to stderr.
func ConsoleObserver(w io.Writer) Observer {
	if w == nil {
		w = os.Stderr
	}
	return func(line string) { fmt.Fprintln(w, line) }
}

// SpyOptions mirrors seq.SpyOptions.
type SpyOptions struct {
	Tag       string
	Format    func(item any) string
	Timestamp bool
	Separator string
	Prefix    string
	Suffix    string
	Observer  Observer
}

// Spy is the async lazy pass-through that renders each item to the
// observer before yielding it unchanged.
func Spy[T any](s Seq[T], opts SpyOptions) Seq[T] {
	format := opts.Format
	if format == nil {
		format = func(item any) string { return fmt.Sprintf("%v", item) }
	}
	observer := opts.Observer
	if observer == nil {
		observer = ConsoleObserver(os.Stderr)
	}

	return ForEach(s, func(_ context.Context, item T, _ int) error {
		parts := make([]string, 0, 3)
		if opts.Timestamp {
			parts = append(parts, time.Now().Format(time.RFC3339Nano))
		}
		if opts.Tag != "" {
			parts = append(parts, opts.Tag)
		}
		parts = append(parts, opts.Prefix+format(item)+opts.Suffix)
		sep := opts.Separator
		if sep == "" {
			sep = " "
		}
		line := parts[0]
		for _, p := range parts[1:] {
			line += sep + p
		}
		observer(line)
		return nil
	})
}
