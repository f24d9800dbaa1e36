// Package jsonstream implements flowkit's streaming JSON element reader
// (§4.7): an array-root or single-value-root reader over goccy/go-json,
// sharing the errs package's error/metrics/progress substrate.
package jsonstream

import (
	"github.com/oakfield-labs/flowkit/errs"
)

// Validator inspects one decoded element's raw JSON before it is
// unmarshaled into T; returning false triggers JsonValidationFailed, a
// non-nil error triggers JsonValidationError.
type Validator func(raw []byte) (bool, error)

// Options configures the JSON reader (§3 base + §4.7 additions).
type Options struct {
	RequireArrayRoot  bool
	AllowSingleObject bool

	ValidateElements bool
	Validator        Validator

	GuardRailsEnabled bool
	MaxElements       int
	MaxElementBytes   int
	MaxStringLength   int

	// TotalSize, when known (typically a file's size on disk), enables
	// percentage progress reporting — the only reader in §3 that
	// reports it.
	TotalSize int64

	Base errs.Options
}

// DefaultOptions returns the documented defaults: a single top-level
// object is accepted as a one-element stream.
func DefaultOptions() Options {
	return Options{
		AllowSingleObject: true,
		Base:              errs.DefaultOptions(),
	}
}

func (o Options) normalize() Options {
	o.Base = o.Base.Normalize()
	return o
}

// fastPath reports whether every guard is off, letting the reader
// stream-deserialize straight into T without an intermediate
// json.RawMessage buffer (§4.7 fast path vs validation path).
func (o Options) fastPath() bool {
	return !o.ValidateElements && !o.GuardRailsEnabled && o.MaxStringLength == 0
}
