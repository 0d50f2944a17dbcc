package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/doccrawl/internal/model"
)

// SimpleWriter outputs human-readable text reports.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
type SimpleWriter struct {
	baseWriter

	// maxFailures limits the number of failures listed. 0 lists all.
	maxFailures int
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithMaxFailures limits the failures listed in the report.
func WithMaxFailures(n int) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.maxFailures = n
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter:  newBaseWriter(output),
		maxFailures: 20,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the summary in human-readable format.
func (w *SimpleWriter) Write(summary *model.Summary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeCounts(&sb, summary)
	w.writeFailures(&sb, summary)
	w.writeFooter(&sb, summary)

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, s *model.Summary) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         DOCCRAWL SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Base URL:  %s\n", s.BaseURL)
	fmt.Fprintf(sb, "Output:    %s\n", s.OutputDir)
	fmt.Fprintf(sb, "Duration:  %s\n", s.Duration.Round(time.Millisecond))
	fmt.Fprintf(sb, "Status:    %s\n", statusText(s))
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeCounts(sb *strings.Builder, s *model.Summary) {
	fmt.Fprintf(sb, "  Pages written:        %d\n", s.PagesWritten)
	fmt.Fprintf(sb, "  From previous runs:   %d\n", s.PagesResumed)
	fmt.Fprintf(sb, "  Errors:               %d\n", s.Errors)
	if s.Pending > 0 {
		fmt.Fprintf(sb, "  Pending:              %d\n", s.Pending)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFailures(sb *strings.Builder, s *model.Summary) {
	if len(s.Failures) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FAILURES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, kc := range failureCounts(s) {
		fmt.Fprintf(sb, "  %-14s %d\n", kc.kind.String()+":", kc.count)
	}
	sb.WriteString("\n")

	failures := s.Failures
	if w.maxFailures > 0 && len(failures) > w.maxFailures {
		failures = failures[:w.maxFailures]
	}
	for _, f := range failures {
		fmt.Fprintf(sb, "  [%s] %s\n", f.Kind, f.URL)
		if f.Reason != "" {
			fmt.Fprintf(sb, "      %s\n", truncateString(f.Reason, 100))
		}
	}
	if rest := len(s.Failures) - len(failures); rest > 0 {
		fmt.Fprintf(sb, "  ... and %d more (see _crawl_report.md)\n", rest)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder, s *model.Summary) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	if s.Interrupted || s.Pending > 0 {
		sb.WriteString("Progress was saved. Run the same command again to resume.\n")
	} else if s.Errors > 0 {
		sb.WriteString("Run again with --retry-failed to retry failed pages.\n")
	}
}
