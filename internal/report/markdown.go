package report

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/doccrawl/internal/fileutil"
	"github.com/nao1215/doccrawl/internal/model"
)

// FileName is the name of the Markdown report written to the output directory.
const FileName = "_crawl_report.md"

// MarkdownWriter outputs reports in Markdown format.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the summary in Markdown format.
func (w *MarkdownWriter) Write(summary *model.Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeCounts(md, summary)
	w.writeFailures(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteFile writes the Markdown report into dir as FileName, replacing the
// report of a previous run. It returns the path of the report.
func WriteFile(dir string, summary *model.Summary) (string, error) {
	var buf bytes.Buffer
	if _, err := NewMarkdownWriter(&buf).Write(summary); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}

	path := filepath.Join(dir, FileName)
	if err := fileutil.WriteFileAtomic(path, buf.Bytes(), fileutil.FilePerm); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, s *model.Summary) {
	md.H1("Crawl Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Base URL", "`" + s.BaseURL + "`"},
			{"Started", s.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", s.Duration.Round(time.Second).String()},
			{"Status", statusText(s)},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeCounts(md *markdown.Markdown, s *model.Summary) {
	md.H2("Pages")
	md.PlainText("")

	rows := [][]string{
		{"Written in this run", strconv.Itoa(s.PagesWritten)},
		{"From previous runs", strconv.Itoa(s.PagesResumed)},
		{"Failed", strconv.Itoa(s.Errors)},
		{"Pending", strconv.Itoa(s.Pending)},
	}
	md.Table(markdown.TableSet{
		Header: []string{"Pages", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	switch {
	case s.Interrupted:
		md.Warningf("The crawl was interrupted with %d page(s) pending. Run the same command again to resume.", s.Pending)
	case s.Errors > 0:
		md.Importantf("%d page(s) could not be saved. Run again with `--retry-failed` to retry them.", s.Errors)
	default:
		md.Tip("All discovered pages were saved.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, s *model.Summary) {
	if len(s.Failures) == 0 {
		return
	}

	md.H2("Failures")
	md.PlainText("")

	counts := failureCounts(s)
	if len(counts) > 1 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Failures by kind"),
			piechart.WithShowData(true),
		)
		for _, kc := range counts {
			chart.LabelAndIntValue(kc.kind.String(), uint64(kc.count)) //nolint:gosec // counts are non-negative
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	rows := make([][]string, len(s.Failures))
	for i, f := range s.Failures {
		reason := f.Reason
		if reason == "" {
			reason = "-"
		}
		rows[i] = []string{
			f.URL,
			f.Kind.String(),
			strconv.Itoa(f.Attempts),
			truncateString(reason, 80),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Kind", "Attempts", "Reason"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by doccrawl*")
}
