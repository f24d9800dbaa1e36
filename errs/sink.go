package errs

import (
	"encoding/json"
	"io"
	"sync"
)

// ndjsonRecord is the exact wire shape from §6: "NDJSON error log".
type ndjsonRecord struct {
	TS        int64  `json:"ts"`
	Reader    string `json:"reader"`
	File      string `json:"file"`
	Line      int64  `json:"line"`
	Record    int64  `json:"record"`
	ErrorType string `json:"errorType"`
	Message   string `json:"message"`
	Excerpt   string `json:"excerpt"`
	Action    string `json:"action"`
}

// NDJSONSink writes one JSON object per line to w, serializing writes so
// it is safe to use as a shared sink across concurrently-run readers
// (§5: "built-in file sink serializes writes").
type NDJSONSink struct {
	mu  sync.Mutex
	w   io.Writer
	enc *json.Encoder
}

// NewNDJSONSink wraps w as an ErrorSink.
func NewNDJSONSink(w io.Writer) *NDJSONSink {
	return &NDJSONSink{w: w, enc: json.NewEncoder(w)}
}

// Receive implements ErrorSink.
func (s *NDJSONSink) Receive(r ErrorRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.enc.Encode(ndjsonRecord{
		TS:        r.Timestamp.UnixMilli(),
		Reader:    r.Reader,
		File:      r.FilePath,
		Line:      r.LineNumber,
		Record:    r.RecordNum,
		ErrorType: r.ErrorType,
		Message:   r.Message,
		Excerpt:   r.RawExcerpt,
		Action:    r.Action.String(),
	})
}
