// Package htmlclean turns catalog HTML descriptions into Markdown text.
//
// Input is sanitized with a user-generated-content policy before conversion,
// so scripts, styles and event handlers never reach stored metadata.
// Tables may be removed entirely, together with a heading that directly
// introduces them, since catalog cover-credit tables read poorly as text.
package htmlclean

import (
	"bytes"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Cleaner converts HTML descriptions. It is safe for concurrent use.
type Cleaner struct {
	policy       *bluemonday.Policy
	converter    *converter.Converter
	removeTables bool
}

// New returns a Cleaner. When removeTables is set, tables are dropped
// instead of being rendered as Markdown tables.
func New(removeTables bool) *Cleaner {
	return &Cleaner{
		policy: bluemonday.UGCPolicy(),
		converter: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
		removeTables: removeTables,
	}
}

// Clean returns Markdown for raw. Text without markup is returned trimmed.
func (c *Cleaner) Clean(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.Contains(raw, "<") {
		return raw
	}
	sanitized := c.policy.Sanitize(raw)
	if c.removeTables {
		sanitized = stripTables(sanitized)
	}
	result, err := c.converter.ConvertString(sanitized)
	if err != nil || strings.TrimSpace(result) == "" {
		return plainText(sanitized)
	}
	return strings.TrimSpace(result)
}

func parseBody(fragment string) []*html.Node {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return nil
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}
	return []*html.Node{body}
}

func stripTables(fragment string) string {
	roots := parseBody(fragment)
	if roots == nil {
		return fragment
	}
	body := roots[0]
	removeTables(body)
	var buf bytes.Buffer
	for child := body.FirstChild; child != nil; child = child.NextSibling {
		if err := html.Render(&buf, child); err != nil {
			return fragment
		}
	}
	return buf.String()
}

func removeTables(n *html.Node) {
	for child := n.FirstChild; child != nil; {
		next := child.NextSibling
		if child.Type == html.ElementNode && child.DataAtom == atom.Table {
			if heading := previousElement(child); heading != nil && isHeading(heading) {
				n.RemoveChild(heading)
			}
			n.RemoveChild(child)
		} else {
			removeTables(child)
		}
		child = next
	}
}

func previousElement(n *html.Node) *html.Node {
	for prev := n.PrevSibling; prev != nil; prev = prev.PrevSibling {
		switch prev.Type {
		case html.ElementNode:
			return prev
		case html.TextNode:
			if strings.TrimSpace(prev.Data) != "" {
				return nil
			}
		}
	}
	return nil
}

func isHeading(n *html.Node) bool {
	switch n.DataAtom {
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		return true
	default:
		return false
	}
}

func plainText(fragment string) string {
	roots := parseBody(fragment)
	if roots == nil {
		return fragment
	}
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
	walk(roots[0])
	return strings.Join(strings.Fields(b.String()), " ")
}
