package report

import (
	"io"

	"github.com/nao1215/doccrawl/internal/model"
)

// Writer defines the interface for report output.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files or stdout with the same
// API.
type Writer interface {
	// Write outputs the summary to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(summary *model.Summary) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
//
// Design decision: We implement this as a separate type rather than
// using io.MultiWriter because each Writer renders its own format.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the summary to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(summary *model.Summary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(summary)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// statusText describes how a run ended.
func statusText(s *model.Summary) string {
	switch {
	case s.Interrupted:
		return "Interrupted (resume with the same command)"
	case s.Pending > 0:
		return "Stopped with pages pending"
	case s.Errors > 0:
		return "Complete with errors"
	default:
		return "Complete"
	}
}

// failureCounts counts failures per kind in a stable order.
func failureCounts(s *model.Summary) []kindCount {
	counts := make(map[model.FailureKind]int)
	for _, f := range s.Failures {
		counts[f.Kind]++
	}

	kinds := []model.FailureKind{
		model.FailureTimeout,
		model.FailureNetwork,
		model.FailureAuthRequired,
		model.FailureParse,
		model.FailureDisallowed,
	}
	result := make([]kindCount, 0, len(kinds))
	for _, k := range kinds {
		if counts[k] > 0 {
			result = append(result, kindCount{kind: k, count: counts[k]})
		}
	}
	return result
}

type kindCount struct {
	kind  model.FailureKind
	count int
}

// truncateString truncates a string to maxLen runes with ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
