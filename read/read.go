// Package read provides the concrete entry points of flowkit's reader
// surface (§6): open a path (transparently decompressing ".gz" input via
// internal/fsutil), drive the matching format reader, and hand back
// either a sync seq.Sequence or an async asyncseq.Seq bridged through
// asyncseq.Async.
package read

import (
	"bufio"
	"context"
	"fmt"

	"github.com/oakfield-labs/flowkit/asyncseq"
	"github.com/oakfield-labs/flowkit/internal/fsutil"
	"github.com/oakfield-labs/flowkit/read/csv"
	"github.com/oakfield-labs/flowkit/read/jsonstream"
	"github.com/oakfield-labs/flowkit/read/yamlstream"
	"github.com/oakfield-labs/flowkit/seq"
)

// asyncYieldThresholdMs bounds how long a sync-backed source runs
// before voluntarily yielding to the scheduler (see asyncseq.Async).
const asyncYieldThresholdMs = 5

// TextSync streams path line-by-line, gzip-transparent on a ".gz" suffix.
func TextSync(path string) (seq.Sequence[string], error) {
	rc, err := fsutil.Open(path, false)
	if err != nil {
		return seq.Sequence[string]{}, err
	}
	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	closed := false
	puller := func() (string, bool) {
		if sc.Scan() {
			return sc.Text(), true
		}
		if !closed {
			closed = true
			_ = rc.Close()
		}
		return "", false
	}
	return seq.FromPuller(puller), nil
}

// Text is the async counterpart of TextSync.
func Text(ctx context.Context, path string) asyncseq.Seq[string] {
	return asyncseq.FromFactory(func() asyncseq.Puller[string] {
		s, err := TextSync(path)
		if err != nil {
			failed := false
			return func(ctx context.Context) (string, bool, error) {
				if failed {
					return "", false, nil
				}
				failed = true
				return "", false, err
			}
		}
		return asyncseq.Async(s, asyncYieldThresholdMs).Pull()
	})
}

// CSVSync streams path as CSV-materialized values of T (§4.6),
// gzip-transparent on a ".gz" suffix.
func CSVSync[T any](path string, opts csv.Options) (seq.Sequence[T], error) {
	rc, err := fsutil.Open(path, false)
	if err != nil {
		return seq.Sequence[T]{}, err
	}
	s, err := csv.Sync[T](rc, path, opts)
	if err != nil {
		_ = rc.Close()
		return seq.Sequence[T]{}, err
	}
	return s, nil
}

// CSV is the async counterpart of CSVSync.
func CSV[T any](ctx context.Context, path string, opts csv.Options) asyncseq.Seq[T] {
	return asyncFromSync(path, opts, CSVSync[T])
}

// JSONSync streams path as JSON-materialized values of T (§4.7),
// gzip-transparent on a ".gz" suffix. opts.TotalSize is filled in from
// the on-disk size when left unset, so percentage progress works
// without the caller having to stat the file itself.
func JSONSync[T any](path string, opts jsonstream.Options) (seq.Sequence[T], error) {
	if opts.TotalSize == 0 {
		opts.TotalSize = fsutil.Size(path)
	}
	rc, err := fsutil.Open(path, false)
	if err != nil {
		return seq.Sequence[T]{}, err
	}
	s, err := jsonstream.Sync[T](rc, path, opts)
	if err != nil {
		_ = rc.Close()
		return seq.Sequence[T]{}, err
	}
	return s, nil
}

// JSON is the async counterpart of JSONSync.
func JSON[T any](ctx context.Context, path string, opts jsonstream.Options) asyncseq.Seq[T] {
	return asyncFromSync(path, opts, JSONSync[T])
}

// YAMLSync streams path as YAML-materialized values of T (§4.8),
// gzip-transparent on a ".gz" suffix.
func YAMLSync[T any](path string, opts yamlstream.Options) (seq.Sequence[T], error) {
	rc, err := fsutil.Open(path, false)
	if err != nil {
		return seq.Sequence[T]{}, err
	}
	s, err := yamlstream.Sync[T](rc, path, opts)
	if err != nil {
		_ = rc.Close()
		return seq.Sequence[T]{}, err
	}
	return s, nil
}

// YAML is the async counterpart of YAMLSync.
func YAML[T any](ctx context.Context, path string, opts yamlstream.Options) asyncseq.Seq[T] {
	return asyncFromSync(path, opts, YAMLSync[T])
}

// asyncFromSync adapts any "open path with opts, get a sync.Sequence"
// constructor into an async one, deferring the open (and any error it
// produces) until the returned Seq is actually pulled, preserving the
// cold/lazy contract of §4.2 for every format.
func asyncFromSync[T any, O any](path string, opts O, open func(string, O) (seq.Sequence[T], error)) asyncseq.Seq[T] {
	return asyncseq.FromFactory(func() asyncseq.Puller[T] {
		s, err := open(path, opts)
		if err != nil {
			failed := false
			return func(ctx context.Context) (T, bool, error) {
				var zero T
				if failed {
					return zero, false, nil
				}
				failed = true
				return zero, false, fmt.Errorf("read: %s: %w", path, err)
			}
		}
		return asyncseq.Async(s, asyncYieldThresholdMs).Pull()
	})
}
