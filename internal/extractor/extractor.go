package extractor

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ramkansal/maplead/pkg/plugin"
	"golang.org/x/net/html"
)

// Panel is a parsed snapshot of the document while a business detail view
// is rendered. All classification and mining runs against a Panel, never
// against the live browser.
type Panel struct {
	doc *goquery.Document
}

// NewPanel parses a document snapshot.
func NewPanel(markup string) (*Panel, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse panel: %w", err)
	}
	return &Panel{doc: doc}, nil
}

// Heading returns the detail heading text, usually the business name.
func (p *Panel) Heading() string {
	return strings.TrimSpace(p.doc.Find("h1").First().Text())
}

// container returns the panel's nearest enclosing main region, falling back
// to the document body.
func (p *Panel) container() *goquery.Selection {
	h := p.doc.Find("h1").First()
	if h.Length() > 0 {
		if c := h.Closest(`div[role="main"]`); c.Length() > 0 {
			return c
		}
	}
	return p.body()
}

func (p *Panel) body() *goquery.Selection {
	return p.doc.Find("body").First()
}

// Strategy is one step of an ordered extraction chain. It reports false when
// it has nothing to offer so the next step runs.
type Strategy func(p *Panel) (string, bool)

// runChain tries each strategy in order and returns the first hit, or the
// NotFound sentinel. A panicking strategy also yields NotFound.
func runChain(p *Panel, chain []Strategy) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = plugin.NotFound
		}
	}()

	if p == nil {
		return plugin.NotFound
	}
	for _, s := range chain {
		if v, ok := s(p); ok {
			return v
		}
	}
	return plugin.NotFound
}

// blockTags break the rendered text into separate lines.
var blockTags = map[string]bool{
	"address": true, "article": true, "br": true, "button": true, "div": true,
	"footer": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true,
	"h6": true, "header": true, "li": true, "main": true, "ol": true, "p": true,
	"section": true, "table": true, "td": true, "tr": true, "ul": true,
}

// renderText approximates the visible text of a selection: block elements
// start new lines, scripts and styles are dropped, blank lines removed.
func renderText(sel *goquery.Selection) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript":
				return
			}
		}
		block := n.Type == html.ElementNode && blockTags[n.Data]
		if block {
			b.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			b.WriteByte('\n')
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}

	var lines []string
	for _, line := range strings.Split(b.String(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// attr returns the trimmed attribute value of the first node in sel.
func attr(sel *goquery.Selection, name string) string {
	v, _ := sel.Attr(name)
	return strings.TrimSpace(v)
}
