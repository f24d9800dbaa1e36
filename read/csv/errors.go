package csv

import "fmt"

// QuoteError reports a malformed quoted field: a stray quote in an
// unquoted field, trailing garbage after a closing quote, or an
// unterminated quoted field at EOF.
type QuoteError struct {
	LineNumber int64
	RecordNum  int64
	Message    string
}

func (e *QuoteError) Error() string {
	return fmt.Sprintf("csv: quote error at line %d (record %d): %s", e.LineNumber, e.RecordNum, e.Message)
}

// SchemaError reports a record whose field count can't be reconciled
// with the configured schema, or a failed width-reconciliation step.
type SchemaError struct {
	RecordNum int64
	Message   string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("csv: schema error at record %d: %s", e.RecordNum, e.Message)
}

// LimitExceededError reports a guard-rail violation (§4.6 guard-rail
// checks): too many columns, or a raw record past the length limit.
type LimitExceededError struct {
	RecordNum int64
	Limit     string // "max_columns_per_row" | "max_raw_record_length"
	Message   string
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("csv: limit %s exceeded at record %d: %s", e.Limit, e.RecordNum, e.Message)
}
