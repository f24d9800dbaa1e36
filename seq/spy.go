package seq

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Observer receives one rendered line per spied item. The default
// (ConsoleObserver) writes to stderr; callers inject their own to avoid
// the global console dependency the teacher's Spy-equivalent would
// otherwise impose (§9 design notes).
type Observer func(line string)

// ConsoleObserver is the ergonomic default: one line to stderr.
func ConsoleObserver(w io.Writer) Observer {
	if w == nil {
		w = os.Stderr
	}
	return func(line string) { fmt.Fprintln(w, line) }
}

// SpyOptions configures Spy's rendering.
type SpyOptions struct {
	Tag       string
	Format    func(item any) string // defaults to fmt.Sprintf("%v", item)
	Timestamp bool
	Separator string
	Prefix    string
	Suffix    string
	Observer  Observer // defaults to ConsoleObserver(os.Stderr)
}

// Spy is a lazy pass-through: each item's rendering is written to the
// observer, then the item is yielded unchanged.
func Spy[T any](s Sequence[T], opts SpyOptions) Sequence[T] {
	format := opts.Format
	if format == nil {
		format = func(item any) string { return fmt.Sprintf("%v", item) }
	}
	observer := opts.Observer
	if observer == nil {
		observer = ConsoleObserver(os.Stderr)
	}

	return ForEach(s, func(item T, _ int) {
		var b []string
		if opts.Timestamp {
			b = append(b, time.Now().Format(time.RFC3339Nano))
		}
		if opts.Tag != "" {
			b = append(b, opts.Tag)
		}
		rendered := opts.Prefix + format(item) + opts.Suffix
		b = append(b, rendered)
		line := rendered
		if len(b) > 1 {
			line = joinWith(b, opts.Separator)
		}
		observer(line)
	})
}

func joinWith(parts []string, sep string) string {
	if sep == "" {
		sep = " "
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out += sep + p
	}
	return out
}
