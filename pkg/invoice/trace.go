package invoice

import "log/slog"

// Tracer receives intermediate pipeline decisions (labeling scores, field
// extraction choices). Tests and debug tools can assert on these events
// instead of scraping printed output.
type Tracer interface {
	Trace(stage, decision string, detail map[string]any)
}

type nopTracer struct{}

func (nopTracer) Trace(string, string, map[string]any) {}

// NopTracer discards all events.
var NopTracer Tracer = nopTracer{}

// SlogTracer forwards trace events to a structured logger.
type SlogTracer struct {
	Logger *slog.Logger
}

func (t *SlogTracer) Trace(stage, decision string, detail map[string]any) {
	if t.Logger == nil {
		return
	}
	attrs := make([]any, 0, 2+2*len(detail))
	attrs = append(attrs, "stage", stage)
	for k, v := range detail {
		attrs = append(attrs, k, v)
	}
	t.Logger.Debug(decision, attrs...)
}
