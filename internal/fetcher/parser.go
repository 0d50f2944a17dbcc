package fetcher

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// loginMarkers are phrases that identify a login wall when they appear in
// the title or the main heading of a page.
var loginMarkers = []string{"log in", "login", "sign in", "signin"}

// Parser extracts the title, links and login indicators from an HTML page.
//
// Design decision: links are taken from the raw document rather than from the
// Markdown, so navigation menus removed during extraction still contribute to
// discovery.
type Parser struct {
	// baseURL resolves relative links. A <base href> in the document
	// replaces it for the rest of the parse.
	baseURL *url.URL
}

// ParseResult contains the information extracted from one page.
type ParseResult struct {
	// Title is the text of the <title> element.
	Title string

	// Heading is the text of the first <h1> element.
	Heading string

	// Links are absolute href values in document order, fragments kept,
	// exact duplicates removed.
	Links []string

	// HasPasswordField is true when the page contains a password input.
	HasPasswordField bool
}

// NewParser creates a Parser that resolves links against pageURL.
func NewParser(pageURL string) (*Parser, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}
	return &Parser{baseURL: u}, nil
}

// Parse reads an HTML document.
func (p *Parser) Parse(content io.Reader) (*ParseResult, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	result := &ParseResult{Links: make([]string, 0)}
	seen := make(map[string]struct{})
	base := p.baseURL

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "base":
				if href := getAttr(n, "href"); href != "" {
					if u, err := base.Parse(strings.TrimSpace(href)); err == nil {
						base = u
					}
				}
			case "title":
				if result.Title == "" {
					result.Title = strings.TrimSpace(textOf(n))
				}
			case "h1":
				if result.Heading == "" {
					result.Heading = strings.TrimSpace(textOf(n))
				}
			case "a", "area":
				if resolved := resolveURL(base, getAttr(n, "href")); resolved != "" {
					if _, dup := seen[resolved]; !dup {
						seen[resolved] = struct{}{}
						result.Links = append(result.Links, resolved)
					}
				}
			case "input":
				if strings.EqualFold(getAttr(n, "type"), "password") {
					result.HasPasswordField = true
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return result, nil
}

// LooksLikeLogin reports whether the page appears to be a login wall: it has
// a password field, or its title or main heading is a login prompt.
func (r *ParseResult) LooksLikeLogin() bool {
	if r.HasPasswordField {
		return true
	}
	for _, s := range []string{r.Title, r.Heading} {
		lower := strings.ToLower(s)
		for _, marker := range loginMarkers {
			if strings.Contains(lower, marker) {
				return true
			}
		}
	}
	return false
}

// resolveURL resolves href against base, skipping links that never lead to
// a document.
func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" {
		return ""
	}

	lower := strings.ToLower(href)
	for _, prefix := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(lower, prefix) {
			return ""
		}
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(u).String()
}

// textOf concatenates the text nodes below n.
func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
