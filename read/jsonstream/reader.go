package jsonstream

import (
	"bufio"
	"io"

	json "github.com/goccy/go-json"

	"github.com/oakfield-labs/flowkit/errs"
	"github.com/oakfield-labs/flowkit/seq"
)

// countingReader tracks bytes consumed so the reader can compute a
// percentage from TotalSize (§4.7 progress).
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// disposition is what the error substrate decided for one bad element.
type disposition int

const (
	dispositionEmit disposition = iota
	dispositionSkip
	dispositionStop
)

// dispatch routes one element-level error through errs.HandleError and
// translates its (continue, error) pair into a disposition. cause is
// the reader's own typed error for the element (e.g. *JsonSizeLimit),
// carried so errors.As still reaches it on the Throw path. A non-nil
// error return is only ever a Throw-mode *errs.FatalError.
func dispatch(opts Options, st *errs.RunState, filePath string, idx int64, errorType, message string, cause error) (disposition, error) {
	cont, herr := errs.HandleError(opts.Base, st, "JSON", filePath, 0, idx, errorType, message, "", cause)
	if herr != nil {
		return dispositionStop, herr
	}
	if !cont {
		return dispositionStop, nil
	}
	return dispositionSkip, nil
}

// Sync streams r as JSON elements of T (§4.7). Setup errors (malformed
// root, a root/array-compatibility violation) are returned directly;
// per-element Throw-mode fatal errors panic with *errs.FatalError, for
// the same reason documented on csv.Sync.
func Sync[T any](r io.Reader, filePath string, opts Options) (seq.Sequence[T], error) {
	opts = opts.normalize()
	st := errs.NewRunState()

	cr := &countingReader{r: r}
	br := bufio.NewReaderSize(cr, 64*1024)

	isArray, err := peekIsArrayRoot(br)
	if err != nil {
		return seq.Sequence[T]{}, err
	}

	if !isArray {
		if opts.RequireArrayRoot && !opts.AllowSingleObject {
			return seq.Sequence[T]{}, &JsonRootError{Message: "root is a single value but require_array_root is set without allow_single_object"}
		}
		return singleValueSeq[T](br, opts, st, filePath), nil
	}

	dec := json.NewDecoder(br)
	if _, terr := dec.Token(); terr != nil {
		return seq.Sequence[T]{}, &JsonException{Message: terr.Error()}
	}
	return arrayElementSeq[T](dec, cr, opts, st, filePath), nil
}

func singleValueSeq[T any](br *bufio.Reader, opts Options, st *errs.RunState, filePath string) seq.Sequence[T] {
	dec := json.NewDecoder(br)
	done := false
	puller := func() (T, bool) {
		var zero T
		if done {
			return zero, false
		}
		done = true

		if opts.fastPath() {
			if derr := dec.Decode(&zero); derr != nil {
				_, herr := dispatch(opts, st, filePath, 0, "JsonException", derr.Error(), &JsonException{Message: derr.Error()})
				if herr != nil {
					panic(herr)
				}
				return zero, false
			}
		} else {
			var raw json.RawMessage
			if derr := dec.Decode(&raw); derr != nil {
				_, herr := dispatch(opts, st, filePath, 0, "JsonException", derr.Error(), &JsonException{Message: derr.Error()})
				if herr != nil {
					panic(herr)
				}
				return zero, false
			}
			v, out, herr := validateAndDecode[T](opts, st, filePath, 0, raw)
			if herr != nil {
				panic(herr)
			}
			if out != dispositionEmit {
				return zero, false
			}
			zero = v
		}

		opts.Base.Metrics.IncRawRecordsParsed(1)
		opts.Base.Metrics.IncRecordsEmitted(1)
		errs.Complete(opts.Base, st)
		return zero, true
	}
	return seq.FromPuller(puller)
}

func arrayElementSeq[T any](dec *json.Decoder, cr *countingReader, opts Options, st *errs.RunState, filePath string) seq.Sequence[T] {
	var idx int64
	puller := func() (T, bool) {
		var zero T
		for {
			if !dec.More() {
				completeWithProgress(opts, st, cr)
				return zero, false
			}
			idx++

			if opts.fastPath() {
				if derr := dec.Decode(&zero); derr != nil {
					out, herr := dispatch(opts, st, filePath, idx, "JsonException", derr.Error(), &JsonException{ElementIndex: idx, Message: derr.Error()})
					if herr != nil {
						panic(herr)
					}
					if out == dispositionStop {
						return zero, false
					}
					continue
				}
				opts.Base.Metrics.IncRawRecordsParsed(1)
				opts.Base.Metrics.IncRecordsEmitted(1)
				errs.MaybeEmitProgress(opts.Base, st)
				return zero, true
			}

			var raw json.RawMessage
			if derr := dec.Decode(&raw); derr != nil {
				out, herr := dispatch(opts, st, filePath, idx, "JsonException", derr.Error(), &JsonException{ElementIndex: idx, Message: derr.Error()})
				if herr != nil {
					panic(herr)
				}
				if out == dispositionStop {
					return zero, false
				}
				continue
			}

			if lim := checkGuardRails(opts, idx, raw); lim != nil {
				out, herr := dispatch(opts, st, filePath, idx, "JsonSizeLimit", lim.Message, lim)
				if herr != nil {
					panic(herr)
				}
				if out == dispositionStop {
					return zero, false
				}
				continue
			}

			v, out, herr := validateAndDecode[T](opts, st, filePath, idx, raw)
			if herr != nil {
				panic(herr)
			}
			switch out {
			case dispositionStop:
				return zero, false
			case dispositionSkip:
				continue
			}

			opts.Base.Metrics.IncRawRecordsParsed(1)
			opts.Base.Metrics.IncRecordsEmitted(1)
			errs.MaybeEmitProgress(opts.Base, st)
			return v, true
		}
	}
	return seq.FromPuller(puller)
}

// validateAndDecode runs the validation/guard path's validator (if any)
// then unmarshals raw into T.
func validateAndDecode[T any](opts Options, st *errs.RunState, filePath string, idx int64, raw json.RawMessage) (T, disposition, error) {
	var zero T
	if opts.ValidateElements && opts.Validator != nil {
		ok, verr := opts.Validator(raw)
		if verr != nil {
			out, herr := dispatch(opts, st, filePath, idx, "JsonValidationError", verr.Error(), &JsonValidationError{ElementIndex: idx, Err: verr})
			return zero, out, herr
		}
		if !ok {
			out, herr := dispatch(opts, st, filePath, idx, "JsonValidationFailed", "element failed validation", &JsonValidationFailed{ElementIndex: idx})
			return zero, out, herr
		}
	}
	if derr := json.Unmarshal(raw, &zero); derr != nil {
		out, herr := dispatch(opts, st, filePath, idx, "JsonException", derr.Error(), &JsonException{ElementIndex: idx, Message: derr.Error()})
		return zero, out, herr
	}
	return zero, dispositionEmit, nil
}

func checkGuardRails(opts Options, idx int64, raw json.RawMessage) *JsonSizeLimit {
	if !opts.GuardRailsEnabled {
		return nil
	}
	if opts.MaxElements > 0 && idx > int64(opts.MaxElements) {
		return &JsonSizeLimit{ElementIndex: idx, Limit: "max_elements", Message: "element count exceeds max_elements"}
	}
	if opts.MaxElementBytes > 0 && len(raw) > opts.MaxElementBytes {
		return &JsonSizeLimit{ElementIndex: idx, Limit: "max_element_bytes", Message: "element byte size exceeds max_element_bytes"}
	}
	if opts.MaxStringLength > 0 {
		var v any
		if err := json.Unmarshal(raw, &v); err == nil && exceedsMaxStringLength(v, opts.MaxStringLength) {
			return &JsonSizeLimit{ElementIndex: idx, Limit: "max_string_length", Message: "a string in the element exceeds max_string_length"}
		}
	}
	return nil
}

func exceedsMaxStringLength(v any, limit int) bool {
	switch t := v.(type) {
	case string:
		return len(t) > limit
	case []any:
		for _, e := range t {
			if exceedsMaxStringLength(e, limit) {
				return true
			}
		}
	case map[string]any:
		for k, e := range t {
			if len(k) > limit || exceedsMaxStringLength(e, limit) {
				return true
			}
		}
	}
	return false
}

func completeWithProgress(opts Options, st *errs.RunState, cr *countingReader) {
	if opts.TotalSize > 0 {
		pct := float64(cr.n) / float64(opts.TotalSize) * 100
		if pct > 100 {
			pct = 100
		}
		errs.CompleteWithPercentage(opts.Base, st, pct)
		return
	}
	errs.Complete(opts.Base, st)
}

// peekIsArrayRoot inspects the first non-whitespace byte without
// consuming input state the decoder will need.
func peekIsArrayRoot(br *bufio.Reader) (bool, error) {
	for {
		b, err := br.Peek(1)
		if err != nil {
			return false, err
		}
		switch b[0] {
		case ' ', '\t', '\n', '\r':
			_, _ = br.Discard(1)
			continue
		case '[':
			return true, nil
		default:
			return false, nil
		}
	}
}
