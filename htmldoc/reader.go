// Package htmldoc reads kit datasheets saved as HTML into the block model.
package htmldoc

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/html"

	"github.com/tsawler/kitsheet/model"
)

// Reader provides access to HTML document content.
type Reader struct {
	title    string
	metadata map[string]string
	doc      *model.Document
}

// Open opens an HTML file for reading.
func Open(filename string) (*Reader, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", filename)
	}
	defer f.Close()

	r, err := OpenReader(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", filename)
	}
	r.doc.Metadata.Source = filename
	return r, nil
}

// OpenReader parses HTML from an io.Reader.
func OpenReader(rd io.Reader) (*Reader, error) {
	root, err := html.Parse(rd)
	if err != nil {
		return nil, errors.Wrap(err, "parsing HTML")
	}

	r := &Reader{
		metadata: make(map[string]string),
		doc:      model.NewDocument(),
	}
	r.extractHead(root)
	r.doc.Metadata.Title = r.title
	r.doc.Metadata.Format = "HTML"

	body := findElement(root, "body")
	if body == nil {
		body = root
	}
	r.traverseNode(body)

	return r, nil
}

// Document returns the parsed content. Tables carry their true reading-order
// position.
func (r *Reader) Document() *model.Document {
	return r.doc
}

// Title returns the content of the title element.
func (r *Reader) Title() string {
	return r.title
}

// Meta returns the content of a named meta tag.
func (r *Reader) Meta(name string) string {
	return r.metadata[name]
}

// extractHead extracts title and meta tags from the head element.
func (r *Reader) extractHead(n *html.Node) {
	if n.Type == html.ElementNode && n.Data == "head" {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case "title":
				r.title = getTextContent(c)
			case "meta":
				name, content := "", ""
				for _, attr := range c.Attr {
					switch attr.Key {
					case "name", "property":
						name = attr.Val
					case "content":
						content = attr.Val
					}
				}
				if name != "" && content != "" {
					r.metadata[name] = content
				}
			}
		}
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		r.extractHead(c)
	}
}

// traverseNode recursively processes DOM nodes in document order.
func (r *Reader) traverseNode(n *html.Node) {
	if n.Type == html.ElementNode {
		if shouldSkipElement(n.Data) {
			return
		}

		switch n.Data {
		case "h1", "h2", "h3", "h4", "h5", "h6":
			level := int(n.Data[1] - '0')
			r.doc.AddParagraph(&model.Paragraph{
				Text:  getTextContent(n),
				Style: model.StyleHeading,
				Level: level,
				Bold:  true,
			})
			return

		case "p", "div":
			if isBlockContainer(n) {
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					r.traverseNode(c)
				}
				return
			}
			// Empty paragraphs are kept so paragraph indexes match the source.
			r.doc.AddParagraph(&model.Paragraph{
				Text:  getTextContent(n),
				Style: model.StyleBody,
				Bold:  isStrongOnly(n),
			})
			return

		case "li":
			r.doc.AddParagraph(&model.Paragraph{
				Text:  getDirectTextContent(n),
				Style: model.StyleListItem,
			})
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.Data == "ul" || c.Data == "ol") {
					r.traverseNode(c)
				}
			}
			return

		case "table":
			if rows := parseTable(n); len(rows) > 0 {
				r.doc.AddTable(model.NewTableFromRows(rows))
			}
			return

		case "br", "hr":
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		r.traverseNode(c)
	}
}

// parseTable extracts the cell grid of an HTML table element.
func parseTable(tableNode *html.Node) [][]string {
	var rows [][]string
	for c := tableNode.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "thead", "tbody", "tfoot":
			for tr := c.FirstChild; tr != nil; tr = tr.NextSibling {
				if tr.Type == html.ElementNode && tr.Data == "tr" {
					if row := parseTableRow(tr); len(row) > 0 {
						rows = append(rows, row)
					}
				}
			}
		case "tr":
			if row := parseTableRow(c); len(row) > 0 {
				rows = append(rows, row)
			}
		}
	}
	return rows
}

// parseTableRow parses a single table row. A cell with colspan is repeated
// so columns stay aligned with the header.
func parseTableRow(tr *html.Node) []string {
	var row []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || (c.Data != "td" && c.Data != "th") {
			continue
		}
		text := getTextContent(c)
		span := 1
		for _, attr := range c.Attr {
			if attr.Key == "colspan" {
				if n := atoi(attr.Val); n > 1 && n < 64 {
					span = n
				}
			}
		}
		row = append(row, text)
		for i := 1; i < span; i++ {
			row = append(row, "")
		}
	}
	return row
}

func atoi(s string) int {
	n := 0
	for _, ch := range strings.TrimSpace(s) {
		if ch < '0' || ch > '9' {
			return 0
		}
		n = n*10 + int(ch-'0')
	}
	return n
}

// shouldSkipElement returns true if the element should be skipped during content extraction.
func shouldSkipElement(tagName string) bool {
	switch tagName {
	case "script", "style", "noscript", "template", "svg", "math", "iframe", "object", "embed", "head":
		return true
	}
	return false
}

// isBlockContainer returns true if the element is a block container with block-level children.
func isBlockContainer(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			switch c.Data {
			case "div", "p", "ul", "ol", "table", "h1", "h2", "h3", "h4", "h5", "h6", "blockquote", "pre", "article", "section":
				return true
			}
		}
	}
	return false
}

// isStrongOnly reports whether all visible text of n sits inside b or strong.
func isStrongOnly(n *html.Node) bool {
	seen := false
	var visit func(*html.Node, bool) bool
	visit = func(c *html.Node, strong bool) bool {
		if c.Type == html.TextNode && strings.TrimSpace(c.Data) != "" {
			seen = true
			return strong
		}
		if c.Type == html.ElementNode && (c.Data == "b" || c.Data == "strong") {
			strong = true
		}
		for ch := c.FirstChild; ch != nil; ch = ch.NextSibling {
			if !visit(ch, strong) {
				return false
			}
		}
		return true
	}
	return visit(n, false) && seen
}

// findElement finds the first element with the given tag name.
func findElement(n *html.Node, tagName string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tagName {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if result := findElement(c, tagName); result != nil {
			return result
		}
	}
	return nil
}

// Line breaks in source text are plain whitespace; only <br> breaks a line.
var sourceBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// getTextContent extracts all text content from a node and its descendants,
// collapsing whitespace the way a browser would. <br> becomes a newline.
func getTextContent(n *html.Node) string {
	var result strings.Builder
	getTextContentRecursive(n, &result)
	return collapse(result.String())
}

func getTextContentRecursive(n *html.Node, result *strings.Builder) {
	if n.Type == html.TextNode {
		result.WriteString(sourceBreaks.Replace(n.Data))
	}
	if n.Type == html.ElementNode {
		if shouldSkipElement(n.Data) {
			return
		}
		if n.Data == "br" {
			result.WriteString("\n")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		getTextContentRecursive(c, result)
	}
	if n.Type == html.ElementNode {
		switch n.Data {
		case "p", "div", "li", "h1", "h2", "h3", "h4", "h5", "h6", "tr", "td", "th":
			result.WriteString(" ")
		}
	}
}

// getDirectTextContent gets text content from a node, excluding nested block elements.
func getDirectTextContent(n *html.Node) string {
	var result strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			result.WriteString(sourceBreaks.Replace(c.Data))
		} else if c.Type == html.ElementNode {
			switch c.Data {
			case "ul", "ol", "div", "p", "table", "blockquote":
			case "br":
				result.WriteString("\n")
			default:
				result.WriteString(getTextContent(c))
			}
		}
	}
	return collapse(result.String())
}

// collapse folds runs of whitespace to a single space within each line and
// trims every line.
func collapse(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
