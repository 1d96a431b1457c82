// Package docxtest builds small DOCX fixtures for tests.
package docxtest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const contentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const rels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const styles = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/></w:style>
<w:style w:type="paragraph" w:styleId="Title"><w:name w:val="Title"/><w:basedOn w:val="Normal"/><w:rPr><w:sz w:val="56"/></w:rPr></w:style>
<w:style w:type="paragraph" w:styleId="Heading1"><w:name w:val="heading 1"/><w:basedOn w:val="Normal"/><w:rPr><w:b/></w:rPr></w:style>
<w:style w:type="paragraph" w:styleId="Heading2"><w:name w:val="heading 2"/><w:basedOn w:val="Normal"/><w:rPr><w:b/></w:rPr></w:style>
<w:style w:type="paragraph" w:styleId="SectionLabel"><w:name w:val="Section Label"/><w:pPr><w:outlineLvl w:val="2"/></w:pPr></w:style>
</w:styles>`

// Namespace is the WordprocessingML main namespace.
const Namespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// Document wraps body content in a w:document element.
func Document(body string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="` + Namespace + `"><w:body>` + body +
		`<w:sectPr><w:pgSz w:w="12240" w:h="15840"/></w:sectPr></w:body></w:document>`
}

// Footer wraps paragraphs in a w:ftr element.
func Footer(content string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:ftr xmlns:w="` + Namespace + `">` + content + `</w:ftr>`
}

// Header wraps paragraphs in a w:hdr element.
func Header(content string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:hdr xmlns:w="` + Namespace + `">` + content + `</w:hdr>`
}

func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// P returns a body paragraph with a single run.
func P(text string) string {
	if text == "" {
		return `<w:p/>`
	}
	return `<w:p><w:r><w:t xml:space="preserve">` + escape(text) + `</w:t></w:r></w:p>`
}

// Styled returns a paragraph with the given style ID.
func Styled(styleID, text string) string {
	return `<w:p><w:pPr><w:pStyle w:val="` + styleID + `"/></w:pPr><w:r><w:t xml:space="preserve">` +
		escape(text) + `</w:t></w:r></w:p>`
}

// Heading returns a Heading2 paragraph.
func Heading(text string) string {
	return Styled("Heading2", text)
}

// Bold returns a paragraph whose single run is bold.
func Bold(text string) string {
	return `<w:p><w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">` + escape(text) + `</w:t></w:r></w:p>`
}

// Runs returns a paragraph with one run per fragment.
func Runs(fragments ...string) string {
	var sb strings.Builder
	sb.WriteString("<w:p>")
	for _, f := range fragments {
		sb.WriteString(`<w:r><w:t xml:space="preserve">` + escape(f) + `</w:t></w:r>`)
	}
	sb.WriteString("</w:p>")
	return sb.String()
}

// Item returns a numbered list paragraph.
func Item(text string) string {
	return `<w:p><w:pPr><w:numPr><w:ilvl w:val="0"/><w:numId w:val="1"/></w:numPr></w:pPr>` +
		`<w:r><w:t xml:space="preserve">` + escape(text) + `</w:t></w:r></w:p>`
}

// Table returns a table with one paragraph per cell.
func Table(rows ...[]string) string {
	var sb strings.Builder
	sb.WriteString("<w:tbl><w:tblPr/>")
	for _, row := range rows {
		sb.WriteString("<w:tr>")
		for _, cell := range row {
			sb.WriteString("<w:tc><w:tcPr/>" + P(cell) + "</w:tc>")
		}
		sb.WriteString("</w:tr>")
	}
	sb.WriteString("</w:tbl>")
	return sb.String()
}

// Build returns a DOCX archive. Extra parts are added by name with their
// content as given.
func Build(body string, extra map[string]string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	files := []struct{ name, content string }{
		{"[Content_Types].xml", contentTypes},
		{"_rels/.rels", rels},
		{"word/document.xml", Document(body)},
		{"word/styles.xml", styles},
	}
	for name, content := range extra {
		files = append(files, struct{ name, content string }{name, content})
	}

	for _, f := range files {
		w, err := zw.Create(f.name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(f.content)); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write builds a DOCX archive and writes it to name inside a test temporary
// directory, returning the path.
func Write(tb testing.TB, name, body string, extra map[string]string) string {
	tb.Helper()
	data, err := Build(body, extra)
	if err != nil {
		tb.Fatalf("building docx: %v", err)
	}
	path := filepath.Join(tb.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		tb.Fatalf("writing docx: %v", err)
	}
	return path
}

// WriteFile builds a DOCX archive and writes it to path.
func WriteFile(tb testing.TB, path, body string, extra map[string]string) {
	tb.Helper()
	data, err := Build(body, extra)
	if err != nil {
		tb.Fatalf("building docx: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		tb.Fatalf("writing docx: %v", err)
	}
}
