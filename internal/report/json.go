package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/doccrawl/internal/model"
)

// JSONWriter outputs the summary in JSON format.
// This format is designed for scripts that run doccrawl unattended.
//
// Design decision: We use standard encoding/json rather than a third-party
// JSON library because the summary is small and model.Summary already
// carries its json tags.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// version is the doccrawl version recorded in the output.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
	}
}

// WithVersion records the doccrawl version in the output.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// jsonReport wraps the summary with output-only fields.
type jsonReport struct {
	Version  string `json:"version,omitempty"`
	Status   string `json:"status"`
	Complete bool   `json:"complete"`
	*model.Summary
}

// Write outputs the summary in JSON format.
func (w *JSONWriter) Write(summary *model.Summary) (int, error) {
	v := jsonReport{
		Version:  w.version,
		Status:   statusText(summary),
		Complete: summary.Complete(),
		Summary:  summary,
	}

	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')
	return w.output.Write(data)
}
