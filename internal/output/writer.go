package output

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/nao1215/doccrawl/internal/fileutil"
	"github.com/nao1215/doccrawl/internal/link"
)

// ErrWrite is returned when a page cannot be written. It aborts the crawl.
var ErrWrite = errors.New("failed to write page")

const (
	indexName = "index"
	extension = ".md"

	// maxSegmentBytes keeps every path component under common file name
	// limits once the extension and a query suffix are added.
	maxSegmentBytes = 180
)

// Writer writes pages below an output directory.
// It is safe for concurrent use; distinct URLs never share a file.
type Writer struct {
	dir  string
	root string
}

// NewWriter returns a Writer for dir. URL paths are taken relative to the
// scope root.
func NewWriter(dir string, scope *link.Scope) *Writer {
	root := "/"
	if scope != nil {
		root = scope.Root()
	}
	return &Writer{dir: dir, root: root}
}

// Dir returns the output directory.
func (w *Writer) Dir() string {
	return w.dir
}

// PathFor returns the slash-separated path, relative to the output
// directory, of the file that holds canonical.
func (w *Writer) PathFor(canonical string) (string, error) {
	u, err := url.Parse(canonical)
	if err != nil {
		return "", fmt.Errorf("invalid page URL %q: %w", canonical, err)
	}

	segments := w.segments(u.Path)

	var dirs []string
	name := indexName
	if n := len(segments); n > 0 {
		if last := segments[n-1]; strings.Contains(last, ".") {
			dirs, name = segments[:n-1], last
		} else {
			dirs = segments
		}
	}

	if u.RawQuery != "" {
		query, err := url.QueryUnescape(u.RawQuery)
		if err != nil {
			query = u.RawQuery
		}
		name += "_" + sanitize(query)
	}
	name = truncate(name) + extension

	return path.Join(append(dirs, name)...), nil
}

// segments splits the part of p below the root into sanitized path
// components.
func (w *Writer) segments(p string) []string {
	rel := p
	switch {
	case w.root == "/" || w.root == "":
	case p == w.root:
		rel = ""
	case link.UnderPrefix(p, w.root):
		rel = strings.TrimPrefix(p, strings.TrimRight(w.root, "/"))
	}

	var out []string
	for _, seg := range strings.Split(rel, "/") {
		if seg == "" || seg == "." || seg == ".." {
			continue
		}
		out = append(out, truncate(sanitize(seg)))
	}
	return out
}

// Write stores content for canonical and returns its relative path.
func (w *Writer) Write(canonical, content string) (string, error) {
	rel, err := w.PathFor(canonical)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrWrite, err)
	}

	full := filepath.Join(w.dir, filepath.FromSlash(rel))
	if err := fileutil.WriteFileAtomic(full, []byte(content), fileutil.FilePerm); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrWrite, rel, err)
	}
	return rel, nil
}

// sanitize normalizes s to NFC and replaces characters that are invalid in
// file names on common platforms.
func sanitize(s string) string {
	s = norm.NFC.String(s)
	return strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
			return '_'
		}
		if unicode.IsControl(r) || r == utf8.RuneError {
			return '_'
		}
		return r
	}, s)
}

// truncate shortens s to maxSegmentBytes on a rune boundary, appending a
// short hash of the full value so distinct long names stay distinct.
func truncate(s string) string {
	if len(s) <= maxSegmentBytes {
		return s
	}
	sum := sha256.Sum256([]byte(s))
	suffix := "_" + hex.EncodeToString(sum[:4])

	cut := maxSegmentBytes - len(suffix)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + suffix
}
