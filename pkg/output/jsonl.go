package output

import (
	"io"
	"sync"

	"github.com/waftester/nucleibudget/pkg/finding"
	"github.com/waftester/nucleibudget/pkg/jsonutil"
)

// Compile-time interface check.
var _ Writer = (*JSONLWriter)(nil)

// JSONLWriter writes each finding as one JSON object per line.
type JSONLWriter struct {
	w   io.Writer
	enc *jsonutil.LineEncoder

	mu     sync.Mutex
	closed bool
}

// NewJSONLWriter creates a JSONL writer on w.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	return &JSONLWriter{w: w, enc: jsonutil.NewLineEncoder(w)}
}

// Write encodes f as a single line.
func (jw *JSONLWriter) Write(f finding.Finding) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()
	if jw.closed {
		return ErrClosed
	}
	return jw.enc.Encode(f)
}

// Close closes the underlying file, if any.
func (jw *JSONLWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()
	if jw.closed {
		return nil
	}
	jw.closed = true
	return closeUnderlying(jw.w)
}
