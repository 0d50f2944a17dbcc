package link

import (
	"net/url"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ResolverFunc maps a canonical URL to the output path (relative to the
// output root, slash separated) of the file that holds it. ok is false when
// the URL is not, and will not be, saved locally.
type ResolverFunc func(canonical string) (localPath string, ok bool)

// inlineLink matches the destination part of an inline Markdown link or
// image: "](dest)" or "](dest "title")". Group 1 is the destination, group 2
// the optional title including its leading whitespace. A bare destination
// may contain one level of balanced parentheses, as in "/docs/foo(bar)".
var inlineLink = regexp.MustCompile(`\]\(\s*(<[^>\n]*>|(?:[^\s()]|\([^\s()]*\))+)(\s+(?:"[^"\n]*"|'[^'\n]*'))?\s*\)`)

// Rewriter rewrites absolute links in Markdown documents.
// It is safe for concurrent use.
type Rewriter struct {
	md goldmark.Markdown
}

// NewRewriter returns a Rewriter using a CommonMark parser.
func NewRewriter() *Rewriter {
	return &Rewriter{md: goldmark.New()}
}

// Rewrite replaces absolute http(s) link destinations in content that the
// resolver knows about with paths relative to pagePath. pageURL is the
// canonical URL of the page being written and pagePath its output path.
//
// Fragments are preserved. A link to pageURL itself that carries a fragment
// becomes a bare "#fragment". Links the resolver rejects stay absolute.
func (r *Rewriter) Rewrite(content, pageURL, pagePath string, resolve ResolverFunc) string {
	if content == "" || resolve == nil {
		return content
	}

	src := []byte(content)
	skip := r.codeRanges(src)

	matches := inlineLink.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return content
	}

	var b strings.Builder
	b.Grow(len(content))
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if inRanges(skip, start) {
			continue
		}

		dest := content[m[2]:m[3]]
		title := ""
		if m[4] >= 0 {
			title = content[m[4]:m[5]]
		}

		rewritten, ok := r.rewriteDestination(strings.Trim(dest, "<>"), pageURL, pagePath, resolve)
		if !ok {
			continue
		}

		b.WriteString(content[last:start])
		b.WriteString("](")
		b.WriteString(rewritten)
		b.WriteString(title)
		b.WriteString(")")
		last = end
	}
	b.WriteString(content[last:])
	return b.String()
}

func (r *Rewriter) rewriteDestination(dest, pageURL, pagePath string, resolve ResolverFunc) (string, bool) {
	lower := strings.ToLower(dest)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return "", false
	}

	canonical, fragment, err := Normalize(dest, nil)
	if err != nil {
		return "", false
	}

	if canonical == pageURL && fragment != "" {
		return "#" + fragment, true
	}

	target, ok := resolve(canonical)
	if !ok {
		return "", false
	}

	rel := RelativePath(pagePath, target)
	if fragment != "" {
		rel += "#" + fragment
	}
	return rel, true
}

// RelativePath returns the slash-separated path of target relative to the
// directory containing from. Both are slash-separated paths relative to the
// same root. The result is percent-escaped for use as a link destination.
func RelativePath(from, target string) string {
	fromDir := path.Dir(path.Clean("/" + from))
	to := path.Clean("/" + target)

	fromParts := splitPath(fromDir)
	toParts := splitPath(to)

	i := 0
	for i < len(fromParts) && i < len(toParts)-1 && fromParts[i] == toParts[i] {
		i++
	}

	parts := make([]string, 0, len(fromParts)-i+len(toParts)-i)
	for range fromParts[i:] {
		parts = append(parts, "..")
	}
	parts = append(parts, toParts[i:]...)

	rel := strings.Join(parts, "/")
	return (&url.URL{Path: rel}).EscapedPath()
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

type byteRange struct{ start, stop int }

// codeRanges returns the byte ranges of code blocks, code spans and raw HTML
// blocks, where link syntax is literal text.
func (r *Rewriter) codeRanges(src []byte) []byteRange {
	doc := r.md.Parser().Parse(text.NewReader(src))

	var ranges []byteRange
	addLines := func(n ast.Node) {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			ranges = append(ranges, byteRange{seg.Start, seg.Stop})
		}
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) { //nolint:errcheck // walker never fails
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
			addLines(node)
			return ast.WalkSkipChildren, nil
		case *ast.CodeSpan:
			for c := node.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					ranges = append(ranges, byteRange{t.Segment.Start, t.Segment.Stop})
				}
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	sort.Slice(ranges, func(i, j int) bool { return ranges[i].start < ranges[j].start })
	return ranges
}

func inRanges(ranges []byteRange, pos int) bool {
	i := sort.Search(len(ranges), func(i int) bool { return ranges[i].stop > pos })
	return i < len(ranges) && ranges[i].start <= pos
}
