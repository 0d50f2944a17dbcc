package fetcher

import (
	"fmt"
	"net/url"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"
)

// DefaultRemoveSelectors are stripped from every page before conversion.
// They hold site navigation and forms rather than documentation content.
var DefaultRemoveSelectors = []string{
	"script", "style", "noscript", "template", "iframe",
	"form", "header", "footer", "nav",
	".header", ".footer", ".rm-Header",
}

// contentSelectors are tried in order to find the main content. The body is
// used when none matches.
var contentSelectors = []string{"main", "article", "[role=main]"}

// Extractor converts HTML documents to Markdown.
// It is safe for concurrent use.
type Extractor struct {
	remove []string
	conv   *md.Converter
}

// NewExtractor returns an Extractor that strips DefaultRemoveSelectors plus
// any extra selectors.
func NewExtractor(extra ...string) *Extractor {
	conv := md.NewConverter("", true, &md.Options{
		HeadingStyle:     "atx",
		CodeBlockStyle:   "fenced",
		BulletListMarker: "-",
		EmDelimiter:      "*",
	})
	conv.Use(plugin.GitHubFlavored())

	remove := make([]string, 0, len(DefaultRemoveSelectors)+len(extra))
	remove = append(remove, DefaultRemoveSelectors...)
	for _, sel := range extra {
		if sel = strings.TrimSpace(sel); sel != "" {
			remove = append(remove, sel)
		}
	}

	return &Extractor{remove: remove, conv: conv}
}

// Extract returns the Markdown rendering of rawHTML. Relative links and image
// sources are resolved against pageURL so that the Markdown only contains
// absolute destinations.
func (e *Extractor) Extract(pageURL, rawHTML string) (string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("invalid page URL: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if u, err := base.Parse(strings.TrimSpace(href)); err == nil {
			base = u
		}
	}

	for _, sel := range e.remove {
		doc.Find(sel).Remove()
	}

	absolutize(doc.Selection, "a[href]", "href", base)
	absolutize(doc.Selection, "img[src]", "src", base)

	content := doc.Find("body")
	for _, sel := range contentSelectors {
		if found := doc.Find(sel).First(); found.Length() > 0 {
			content = found
			break
		}
	}

	fragment, err := goquery.OuterHtml(content)
	if err != nil {
		return "", fmt.Errorf("render content: %w", err)
	}

	markdown, err := e.conv.ConvertString(fragment)
	if err != nil {
		return "", fmt.Errorf("convert to markdown: %w", err)
	}
	return strings.TrimSpace(markdown) + "\n", nil
}

// absolutize rewrites attr on every element matching sel to an absolute URL.
// Pure fragment links are left alone.
func absolutize(root *goquery.Selection, sel, attr string, base *url.URL) {
	root.Find(sel).Each(func(_ int, s *goquery.Selection) {
		val, _ := s.Attr(attr)
		val = strings.TrimSpace(val)
		if val == "" || strings.HasPrefix(val, "#") {
			return
		}
		u, err := base.Parse(val)
		if err != nil {
			return
		}
		s.SetAttr(attr, u.String())
	})
}
