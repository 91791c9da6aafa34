package pipeline

import (
	"context"

	"github.com/waftester/nucleibudget/pkg/finding"
	"github.com/waftester/nucleibudget/pkg/output"
)

// Sink receives every finding as soon as it is correlated.
type Sink interface {
	Emit(ctx context.Context, f finding.Finding) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, f finding.Finding) error

// Emit implements Sink.
func (fn SinkFunc) Emit(ctx context.Context, f finding.Finding) error {
	return fn(ctx, f)
}

// WriterSink sends findings to an output writer.
type WriterSink struct {
	W output.Writer
}

// Emit implements Sink.
func (s WriterSink) Emit(_ context.Context, f finding.Finding) error {
	return s.W.Write(f)
}
