package csv

import (
	"bufio"
	"io"
	"strings"
)

type tokenizerState int

const (
	stateFieldStart tokenizerState = iota
	stateInUnquoted
	stateInQuoted
	stateAfterClosingQuote
)

// rawRecord is one logical CSV record, before width reconciliation or
// type conversion.
type rawRecord struct {
	fields     []string
	lineNumber int64
	recordNum  int64
	raw        string
}

// tokenizer implements §4.6's character-level state machine over a
// streaming rune source. Memory per record is O(record length).
type tokenizer struct {
	r          *bufio.Reader
	opts       Options
	lineNumber int64
	recordNum  int64
	eof        bool
}

func newTokenizer(r io.Reader, opts Options) *tokenizer {
	return &tokenizer{r: bufio.NewReaderSize(r, 64*1024), opts: opts}
}

// next reads the next logical record. ok=false, err=nil signals clean
// end of input with no pending partial record.
func (t *tokenizer) next() (rawRecord, bool, error) {
	if t.eof {
		return rawRecord{}, false, nil
	}

	var (
		fields []string
		field  strings.Builder
		raw    strings.Builder
		state  = stateFieldStart
		sawAny bool
	)

	commitField := func() {
		fields = append(fields, field.String())
		field.Reset()
	}

	emit := func(consumedTerminator bool) rawRecord {
		commitField()
		t.recordNum++
		if consumedTerminator {
			t.lineNumber++
		}
		return rawRecord{fields: fields, lineNumber: t.lineNumber, recordNum: t.recordNum, raw: raw.String()}
	}

	consumeCRLF := func(c rune) {
		if c == '\r' && t.peekIsLF() {
			nc, _, _ := t.r.ReadRune()
			raw.WriteRune(nc)
		}
	}

	// skipLine discards the rest of a malformed record's line, so the
	// next call resumes at the following record.
	skipLine := func() {
		for {
			c, _, err := t.r.ReadRune()
			if err != nil || c == '\r' || c == '\n' {
				t.eof = err == io.EOF
				if err == nil {
					consumeCRLF(c)
					t.lineNumber++
				}
				return
			}
		}
	}

	for {
		c, _, err := t.r.ReadRune()
		if err != nil {
			if err == io.EOF {
				t.eof = true
				if state == stateInQuoted {
					t.recordNum++
					return rawRecord{}, false, &QuoteError{
						LineNumber: t.lineNumber + 1,
						RecordNum:  t.recordNum,
						Message:    "unterminated quoted field at EOF",
					}
				}
				if !sawAny {
					return rawRecord{}, false, nil
				}
				return emit(false), true, nil
			}
			return rawRecord{}, false, err
		}
		sawAny = true
		raw.WriteRune(c)

		switch state {
		case stateFieldStart:
			switch {
			case c == '"':
				state = stateInQuoted
			case c == t.opts.Separator:
				commitField()
			case c == '\r' || c == '\n':
				consumeCRLF(c)
				return emit(true), true, nil
			default:
				field.WriteRune(c)
				state = stateInUnquoted
			}

		case stateInUnquoted:
			switch {
			case c == t.opts.Separator:
				commitField()
				state = stateFieldStart
			case c == '\r' || c == '\n':
				consumeCRLF(c)
				return emit(true), true, nil
			case c == '"':
				if t.opts.QuoteMode == Lenient {
					field.WriteRune(c)
					state = stateInQuoted
				} else {
					t.recordNum++
					line := t.lineNumber + 1
					skipLine()
					return rawRecord{}, false, &QuoteError{
						LineNumber: line,
						RecordNum:  t.recordNum,
						Message:    "unescaped quote inside unquoted field",
					}
				}
			default:
				field.WriteRune(c)
			}

		case stateInQuoted:
			switch c {
			case '"':
				nc, _, rerr := t.r.ReadRune()
				if rerr == nil && nc == '"' {
					field.WriteRune('"')
					raw.WriteRune(nc)
				} else {
					if rerr == nil {
						_ = t.r.UnreadRune()
					}
					state = stateAfterClosingQuote
				}
			case '\r', '\n':
				if c == '\r' && t.peekIsLF() {
					nc, _, _ := t.r.ReadRune()
					raw.WriteRune(nc)
					if t.opts.NormalizeNewlinesInFields {
						field.WriteRune('\n')
					} else {
						field.WriteString("\r\n")
					}
				} else if t.opts.NormalizeNewlinesInFields {
					field.WriteRune('\n')
				} else {
					field.WriteRune(c)
				}
			default:
				field.WriteRune(c)
			}

		case stateAfterClosingQuote:
			switch {
			case c == t.opts.Separator:
				commitField()
				state = stateFieldStart
			case c == '\r' || c == '\n':
				consumeCRLF(c)
				return emit(true), true, nil
			case c == ' ' || c == '\t':
				// Whitespace after a closing quote is tolerated by
				// common practice.
			default:
				if t.opts.ErrorOnTrailingGarbage {
					t.recordNum++
					line := t.lineNumber + 1
					skipLine()
					return rawRecord{}, false, &QuoteError{
						LineNumber: line,
						RecordNum:  t.recordNum,
						Message:    "trailing garbage after closing quote",
					}
				}
				field.WriteRune(c)
				state = stateInUnquoted
			}
		}
	}
}

func (t *tokenizer) peekIsLF() bool {
	b, err := t.r.Peek(1)
	return err == nil && b[0] == '\n'
}
