package csv

import (
	"fmt"
	"io"
	"strings"

	"github.com/oakfield-labs/flowkit/errs"
	"github.com/oakfield-labs/flowkit/seq"
)

const maxExcerptLen = 128

// Sync streams r as CSV records of T (§4.6). Setup errors (a malformed
// header, a sampling-phase Throw) are returned directly; per-record
// Throw-mode fatal errors during enumeration panic with *errs.FatalError,
// since seq.Sequence's puller carries no error channel — callers that
// need a typed error return should use the async variant instead.
func Sync[T any](r io.Reader, filePath string, opts Options) (seq.Sequence[T], error) {
	opts = opts.normalize()
	st := errs.NewRunState()
	tok := newTokenizer(r, opts)

	columns, firstData, err := resolveHeader(tok, opts, filePath)
	if err != nil {
		return seq.Sequence[T]{}, err
	}

	pending := make([]rawRecord, 0, 1)
	if firstData != nil {
		pending = append(pending, *firstData)
	}
	nextRaw := func() (rawRecord, bool, error) {
		if len(pending) > 0 {
			rec := pending[0]
			pending = pending[1:]
			return rec, true, nil
		}
		return tok.next()
	}

	types := make([]TypeTag, len(columns))
	var buffered []rawRecord

	if opts.InferSchema && opts.SchemaInferenceMode == ColumnNamesAndTypes {
		samplers := make([]*columnSampler, len(columns))
		for i := range samplers {
			samplers[i] = newColumnSampler()
		}
		for len(buffered) < opts.SchemaInferenceSampleRows {
			rec, ok, rerr := nextRaw()
			if rerr != nil {
				cont, herr := reportRawError(opts, st, filePath, rec, rerr)
				if herr != nil {
					return seq.Sequence[T]{}, herr
				}
				if !cont {
					break
				}
				continue
			}
			if !ok {
				break
			}
			buffered = append(buffered, rec)
			for i, raw := range rec.fields {
				if i < len(samplers) {
					samplers[i].observe(raw, opts)
				}
			}
		}
		for i, s := range samplers {
			types[i] = s.inferred()
		}
		opts.InferredTypes = types
		opts.InferredArrowSchema = buildArrowSchema(columns, types)
	}

	bufIdx := 0
	var lastLineNumber int64
	source := func() (rawRecord, bool, error) {
		if bufIdx < len(buffered) {
			rec := buffered[bufIdx]
			bufIdx++
			return rec, true, nil
		}
		return nextRaw()
	}

	puller := func() (T, bool) {
		var zero T
		for {
			rec, ok, rerr := source()
			if rerr != nil {
				cont, herr := reportRawError(opts, st, filePath, rec, rerr)
				if herr != nil {
					panic(herr)
				}
				if !cont {
					return zero, false
				}
				continue
			}
			if !ok {
				errs.Complete(opts.Base, st)
				return zero, false
			}

			opts.Base.Metrics.IncRawRecordsParsed(1)
			if rec.lineNumber > lastLineNumber {
				opts.Base.Metrics.IncLinesRead(rec.lineNumber - lastLineNumber)
				lastLineNumber = rec.lineNumber
			}

			if limErr := checkGuardRails(rec, opts); limErr != nil {
				cont, herr := reportRawError(opts, st, filePath, rec, limErr)
				if herr != nil {
					panic(herr)
				}
				if !cont {
					return zero, false
				}
				continue
			}

			fields, werr := reconcileWidth(rec.fields, columns, opts)
			if werr != nil {
				serr, _ := werr.(*SchemaError)
				cont, herr := reportSchemaError(opts, st, filePath, rec, serr)
				if herr != nil {
					panic(herr)
				}
				if !cont {
					return zero, false
				}
				continue
			}

			if opts.TrimWhitespace {
				for i, f := range fields {
					fields[i] = strings.TrimSpace(f)
				}
			}

			var values []any
			switch {
			case opts.FieldTypeInference == Custom && opts.FieldValueConverter != nil:
				values = convertRow(fields, types, opts.FieldValueConverter)
			case opts.FieldTypeInference == Primitive:
				values = convertRow(fields, types, nil)
			default:
				values = make([]any, len(fields))
				for i, f := range fields {
					values[i] = f
				}
			}

			if opts.CaptureRawRecord && opts.RawRecordObserver != nil {
				opts.RawRecordObserver(rec.recordNum, rec.raw)
			}

			opts.Base.Metrics.IncRecordsEmitted(1)
			errs.MaybeEmitProgress(opts.Base, st)

			return materialize[T](columns, values), true
		}
	}

	return seq.FromPuller(puller), nil
}

// checkGuardRails enforces §4.6's guard-rail checks in order:
// max_columns_per_row, then max_raw_record_length.
func checkGuardRails(rec rawRecord, opts Options) error {
	if opts.MaxColumnsPerRow > 0 && len(rec.fields) > opts.MaxColumnsPerRow {
		return &LimitExceededError{
			RecordNum: rec.recordNum,
			Limit:     "max_columns_per_row",
			Message:   fmt.Sprintf("record has %d columns, limit is %d", len(rec.fields), opts.MaxColumnsPerRow),
		}
	}
	if opts.MaxRawRecordLength > 0 && len(rec.raw) > opts.MaxRawRecordLength {
		excerpt := rec.raw
		if len(excerpt) > maxExcerptLen {
			excerpt = excerpt[:maxExcerptLen]
		}
		return &LimitExceededError{
			RecordNum: rec.recordNum,
			Limit:     "max_raw_record_length",
			Message:   fmt.Sprintf("record length %d exceeds limit %d (starts: %q)", len(rec.raw), opts.MaxRawRecordLength, excerpt),
		}
	}
	return nil
}

// reportRawError classifies a tokenizer/guard-rail error and routes it
// through the shared error substrate.
func reportRawError(opts Options, st *errs.RunState, filePath string, rec rawRecord, err error) (bool, error) {
	switch e := err.(type) {
	case *QuoteError:
		return errs.HandleError(opts.Base, st, "CSV", filePath, e.LineNumber, e.RecordNum, "QuoteError", e.Message, "", e)
	case *LimitExceededError:
		return errs.HandleError(opts.Base, st, "CSV", filePath, rec.lineNumber, e.RecordNum, "LimitExceeded", e.Message, "", e)
	default:
		return errs.HandleError(opts.Base, st, "CSV", filePath, rec.lineNumber, rec.recordNum, "IOError", err.Error(), "", err)
	}
}

// reportSchemaError routes a reconcileWidth failure through the shared
// error substrate, stamping RecordNum from the record that triggered it
// so *SchemaError stays a faithful cause for errors.As.
func reportSchemaError(opts Options, st *errs.RunState, filePath string, rec rawRecord, serr *SchemaError) (bool, error) {
	serr.RecordNum = rec.recordNum
	return errs.HandleError(opts.Base, st, "CSV", filePath, rec.lineNumber, rec.recordNum, "SchemaError", serr.Message, "", serr)
}

// resolveHeader implements §3's header/schema resolution. When neither
// Schema nor HasHeader supply column names, the first data record is
// peeked to learn the column count and returned as firstData so the
// caller doesn't lose it.
func resolveHeader(tok *tokenizer, opts Options, filePath string) (columns []string, firstData *rawRecord, err error) {
	if len(opts.Schema) > 0 {
		if opts.HasHeader {
			if _, _, err := tok.next(); err != nil {
				return nil, nil, err
			}
		}
		cols := make([]string, len(opts.Schema))
		copy(cols, opts.Schema)
		return cols, nil, nil
	}

	if opts.HasHeader {
		rec, ok, err := tok.next()
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			return nil, nil, nil
		}
		cols := make([]string, len(rec.fields))
		for i, f := range rec.fields {
			name := f
			if opts.TrimWhitespace {
				name = strings.TrimSpace(name)
			}
			if name == "" {
				def := fmt.Sprintf("Column%d", i+1)
				if opts.GenerateColumnName != nil {
					name = opts.GenerateColumnName(f, filePath, i, def)
				} else {
					name = def
				}
			}
			cols[i] = name
		}
		return cols, nil, nil
	}

	rec, ok, err := tok.next()
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, nil
	}
	cols := make([]string, len(rec.fields))
	for i := range rec.fields {
		def := fmt.Sprintf("Column%d", i+1)
		if opts.GenerateColumnName != nil {
			cols[i] = opts.GenerateColumnName("", filePath, i, def)
		} else {
			cols[i] = def
		}
	}
	return cols, &rec, nil
}
