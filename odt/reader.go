// Package odt reads kit datasheets saved as OpenDocument text (.odt) into
// the block model.
package odt

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/tsawler/kitsheet/model"
)

// ODF XML namespaces
const (
	nsOffice = "urn:oasis:names:tc:opendocument:xmlns:office:1.0"
	nsText   = "urn:oasis:names:tc:opendocument:xmlns:text:1.0"
	nsTable  = "urn:oasis:names:tc:opendocument:xmlns:table:1.0"
)

// maxRepeat caps number-columns-repeated, which office suites set to
// large values for trailing empty cells.
const maxRepeat = 64

var spaceRun = regexp.MustCompile(`[ \t\r\n]+`)

// Reader provides access to ODT document content.
type Reader struct {
	title  string
	doc    *model.Document
	styles *styleResolver
}

// Open opens an ODT file for reading.
func Open(filename string) (*Reader, error) {
	zr, err := zip.OpenReader(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", filename)
	}
	defer zr.Close()

	r, err := read(&zr.Reader)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", filename)
	}
	r.doc.Metadata.Source = filename
	return r, nil
}

// OpenBytes reads an ODT archive held in memory.
func OpenBytes(data []byte) (*Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.Wrap(err, "opening ZIP archive")
	}
	return read(zr)
}

func read(zr *zip.Reader) (*Reader, error) {
	content, err := fileContent(zr, "content.xml")
	if err != nil {
		return nil, err
	}

	var docStyles stylesXML
	if data, err := fileContent(zr, "styles.xml"); err == nil {
		_ = xml.Unmarshal(data, &docStyles)
	}
	var auto struct {
		AutoStyles *styleListXML `xml:"automatic-styles"`
	}
	if err := xml.Unmarshal(content, &auto); err != nil {
		return nil, errors.Wrap(err, "parsing content.xml")
	}

	r := &Reader{
		doc:    model.NewDocument(),
		styles: newStyleResolver(docStyles.Styles, docStyles.AutoStyles, auto.AutoStyles),
	}
	if data, err := fileContent(zr, "meta.xml"); err == nil {
		var meta metaXML
		if xml.Unmarshal(data, &meta) == nil && meta.Meta != nil {
			r.title = strings.TrimSpace(meta.Meta.Title)
		}
	}

	if err := r.parseBody(content); err != nil {
		return nil, err
	}
	r.doc.Metadata.Title = r.title
	r.doc.Metadata.Format = "ODT"
	return r, nil
}

func fileContent(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, errors.Wrapf(err, "opening %s", name)
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, errors.Errorf("missing required file: %s", name)
}

// Document returns the parsed content. Tables carry their true reading-order
// position.
func (r *Reader) Document() *model.Document {
	return r.doc
}

// Title returns the document title from meta.xml.
func (r *Reader) Title() string {
	return r.title
}

// parseBody walks office:text in document order. Paragraphs inside lists
// become list items; sections and frames are descended into.
func (r *Reader) parseBody(data []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(data))
	inBody := false
	listDepth := 0

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "parsing content.xml")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space == nsOffice && t.Name.Local == "text" {
				inBody = true
				continue
			}
			if !inBody {
				continue
			}
			switch {
			case isText(t, "p"), isText(t, "h"):
				p, err := r.paragraph(dec, t)
				if err != nil {
					return err
				}
				if listDepth > 0 && p.Style == model.StyleBody {
					p.Style = model.StyleListItem
				}
				r.doc.AddParagraph(p)
			case t.Name.Space == nsTable && t.Name.Local == "table":
				tbl, err := r.table(dec)
				if err != nil {
					return err
				}
				r.doc.AddTable(tbl)
			case isText(t, "list"):
				listDepth++
			case isText(t, "tracked-changes"), isText(t, "sequence-decls"):
				if err := dec.Skip(); err != nil {
					return errors.Wrap(err, "parsing content.xml")
				}
			}
		case xml.EndElement:
			switch {
			case t.Name.Space == nsOffice && t.Name.Local == "text":
				inBody = false
			case t.Name.Space == nsText && t.Name.Local == "list":
				listDepth--
			}
		}
	}
}

// paragraph reads a text:p or text:h element. Whitespace is collapsed the
// way ODF renders it; text:s, text:tab and text:line-break are expanded.
func (r *Reader) paragraph(dec *xml.Decoder, start xml.StartElement) (*model.Paragraph, error) {
	rs := r.styles.resolve(attr(start, "style-name"))
	p := &model.Paragraph{Style: model.StyleBody}
	switch {
	case rs.IsTitle:
		p.Style = model.StyleTitle
	case start.Name.Local == "h":
		p.Style = model.StyleHeading
		p.Level = 1
		if lvl, err := strconv.Atoi(attr(start, "outline-level")); err == nil && lvl > 0 {
			p.Level = lvl
		}
	case rs.HeadingLevel > 0:
		p.Style = model.StyleHeading
		p.Level = rs.HeadingLevel
	}

	var sb strings.Builder
	bold := rs.Bold
	var stack []bool
	allBold, sawText := true, false
	depth := 0

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.Wrap(err, "reading paragraph")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if isText(t, "note") || t.Name.Local == "annotation" {
				if err := dec.Skip(); err != nil {
					return nil, errors.Wrap(err, "reading paragraph")
				}
				continue
			}
			depth++
			switch {
			case isText(t, "span"):
				stack = append(stack, bold)
				if s := r.styles.resolve(attr(t, "style-name")); s.boldSet {
					bold = s.Bold
				}
			case isText(t, "s"):
				n, err := strconv.Atoi(attr(t, "c"))
				if err != nil || n < 1 {
					n = 1
				}
				sb.WriteString(strings.Repeat(" ", n))
			case isText(t, "tab"):
				sb.WriteByte('\t')
			case isText(t, "line-break"):
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			if depth == 0 {
				p.Text = sb.String()
				p.Bold = sawText && allBold
				return p, nil
			}
			depth--
			if isTextEnd(t, "span") && len(stack) > 0 {
				bold = stack[len(stack)-1]
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			s := spaceRun.ReplaceAllString(string(t), " ")
			if strings.TrimSpace(s) != "" {
				sawText = true
				allBold = allBold && bold
			}
			sb.WriteString(s)
		}
	}
}

// table reads a table:table element whose start tag was consumed. Covered
// cells contribute empty strings; trailing empty rows and columns are
// dropped.
func (r *Reader) table(dec *xml.Decoder) (*model.Table, error) {
	var rows [][]string
	depth := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.Wrap(err, "reading table")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != nsTable {
				depth++
				continue
			}
			switch t.Name.Local {
			case "table-cell", "covered-table-cell":
				text := ""
				if t.Name.Local == "table-cell" {
					if text, err = r.cell(dec); err != nil {
						return nil, err
					}
				} else if err := dec.Skip(); err != nil {
					return nil, errors.Wrap(err, "reading table")
				}
				if len(rows) == 0 {
					rows = append(rows, nil)
				}
				for i := 0; i < repeat(t); i++ {
					rows[len(rows)-1] = append(rows[len(rows)-1], text)
				}
			case "table-row":
				rows = append(rows, nil)
				depth++
			default:
				depth++
			}
		case xml.EndElement:
			if depth == 0 {
				return model.NewTableFromRows(trimTable(rows)), nil
			}
			depth--
		}
	}
}

// cell returns the text of a table cell: its paragraphs joined by newlines,
// with nested tables flattened to text.
func (r *Reader) cell(dec *xml.Decoder) (string, error) {
	var lines []string
	depth := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", errors.Wrap(err, "reading table cell")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case isText(t, "p"), isText(t, "h"):
				p, err := r.paragraph(dec, t)
				if err != nil {
					return "", err
				}
				lines = append(lines, p.Text)
			case t.Name.Space == nsTable && t.Name.Local == "table":
				nested, err := r.table(dec)
				if err != nil {
					return "", err
				}
				lines = append(lines, strings.TrimRight(nested.GetText(), "\n"))
			default:
				depth++
			}
		case xml.EndElement:
			if depth == 0 {
				return strings.Join(lines, "\n"), nil
			}
			depth--
		}
	}
}

func repeat(t xml.StartElement) int {
	n, err := strconv.Atoi(attr(t, "number-columns-repeated"))
	if err != nil || n < 1 {
		return 1
	}
	if n > maxRepeat {
		return maxRepeat
	}
	return n
}

func trimTable(rows [][]string) [][]string {
	for len(rows) > 0 && allEmpty(rows[len(rows)-1]) {
		rows = rows[:len(rows)-1]
	}
	width := 0
	for _, row := range rows {
		for i := len(row) - 1; i >= 0; i-- {
			if strings.TrimSpace(row[i]) != "" {
				if i+1 > width {
					width = i + 1
				}
				break
			}
		}
	}
	for i, row := range rows {
		if len(row) > width {
			rows[i] = row[:width]
		}
	}
	return rows
}

func allEmpty(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func isText(t xml.StartElement, local string) bool {
	return t.Name.Space == nsText && t.Name.Local == local
}

func isTextEnd(t xml.EndElement, local string) bool {
	return t.Name.Space == nsText && t.Name.Local == local
}

func attr(t xml.StartElement, local string) string {
	for _, a := range t.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
