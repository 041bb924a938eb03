package report

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/nao1215/wikibots/internal/history"
	"github.com/nao1215/wikibots/internal/model"
)

// JSONWriter outputs reports in JSON format.
type JSONWriter struct {
	baseWriter

	indent       bool
	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the run summary as a JSON object.
func (w *JSONWriter) Write(summary *model.RunSummary) (int, error) {
	return w.encode(summary)
}

// WriteHistory outputs recorded tasks as a JSON array.
func (w *JSONWriter) WriteHistory(entries []history.Entry) (int, error) {
	if entries == nil {
		entries = []history.Entry{}
	}
	return w.encode(entries)
}

// WriteRuns outputs recorded runs as a JSON array.
func (w *JSONWriter) WriteRuns(runs []history.Run) (int, error) {
	if runs == nil {
		runs = []history.Run{}
	}
	return w.encode(runs)
}

// WriteCounts outputs outcome counts as a JSON object.
func (w *JSONWriter) WriteCounts(counts OutcomeCounts) (int, error) {
	return w.encode(counts)
}

func (w *JSONWriter) encode(v any) (int, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if w.indent {
		enc.SetIndent(w.indentPrefix, w.indentString)
	}
	if err := enc.Encode(v); err != nil {
		return 0, err
	}
	return w.output.Write(buf.Bytes())
}
