package odt

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/kitsheet/model"
)

const testStyles = `<?xml version="1.0" encoding="UTF-8"?>
<office:document-styles xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0"
  xmlns:style="urn:oasis:names:tc:opendocument:xmlns:style:1.0"
  xmlns:fo="urn:oasis:names:tc:opendocument:xmlns:xsl-fo-compatible:1.0">
<office:styles>
  <style:style style:name="Standard" style:family="paragraph"/>
  <style:style style:name="Title" style:family="paragraph" style:parent-style-name="Standard"/>
  <style:style style:name="Heading" style:family="paragraph" style:parent-style-name="Standard">
    <style:text-properties fo:font-weight="bold"/>
  </style:style>
  <style:style style:name="Heading_20_2" style:display-name="Heading 2" style:family="paragraph"
    style:parent-style-name="Heading" style:default-outline-level="2"/>
  <style:style style:name="Loop_A" style:family="paragraph" style:parent-style-name="Loop_B"/>
  <style:style style:name="Loop_B" style:family="paragraph" style:parent-style-name="Loop_A"/>
</office:styles>
</office:document-styles>`

const testMeta = `<?xml version="1.0" encoding="UTF-8"?>
<office:document-meta xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0"
  xmlns:dc="http://purl.org/dc/elements/1.1/">
<office:meta><dc:title> Mouse KLK1 ELISA Kit </dc:title></office:meta>
</office:document-meta>`

func content(body string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<office:document-content xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0"
  xmlns:style="urn:oasis:names:tc:opendocument:xmlns:style:1.0"
  xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0"
  xmlns:table="urn:oasis:names:tc:opendocument:xmlns:table:1.0"
  xmlns:fo="urn:oasis:names:tc:opendocument:xmlns:xsl-fo-compatible:1.0">
<office:automatic-styles>
  <style:style style:name="P1" style:family="paragraph" style:parent-style-name="Standard">
    <style:text-properties fo:font-weight="bold"/>
  </style:style>
  <style:style style:name="T1" style:family="text"><style:text-properties fo:font-weight="700"/></style:style>
  <style:style style:name="T2" style:family="text"><style:text-properties fo:font-weight="normal"/></style:style>
</office:automatic-styles>
<office:body><office:text>` + body + `</office:text></office:body>
</office:document-content>`
}

func build(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := []struct{ name, data string }{
		{"mimetype", "application/vnd.oasis.opendocument.text"},
		{"content.xml", content(body)},
		{"styles.xml", testStyles},
		{"meta.xml", testMeta},
	}
	for _, f := range files {
		w, err := zw.Create(f.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(f.data))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func paragraphs(doc *model.Document) []model.Paragraph {
	var out []model.Paragraph
	for _, p := range doc.Paragraphs() {
		c := *p
		c.Index = 0
		out = append(out, c)
	}
	return out
}

func TestOpenBytes_Paragraphs(t *testing.T) {
	data := build(t, `
<text:p text:style-name="Title">Mouse KLK1 ELISA Kit</text:p>
<text:h text:outline-level="1">INTENDED USE</text:h>
<text:p text:style-name="Standard">For the   quantitation<text:s text:c="2"/>of KLK1.</text:p>
<text:p text:style-name="Heading_20_2">Storage</text:p>
<text:p text:style-name="P1">KIT COMPONENTS</text:p>
<text:p>Mixed <text:span text:style-name="T1">bold</text:span> text</text:p>
<text:p><text:span text:style-name="T1">All</text:span> <text:span text:style-name="T1">bold</text:span></text:p>
<text:p text:style-name="P1">Not <text:span text:style-name="T2">all</text:span></text:p>
<text:p>Line<text:line-break/>two<text:tab/>tabbed<text:note><text:note-body><text:p>footnote</text:p></text:note-body></text:note></text:p>
<text:p text:style-name="Loop_A">loop</text:p>`)

	r, err := OpenBytes(data)
	require.NoError(t, err)
	assert.Equal(t, "Mouse KLK1 ELISA Kit", r.Title())

	doc := r.Document()
	assert.Equal(t, "ODT", doc.Metadata.Format)
	assert.Equal(t, "Mouse KLK1 ELISA Kit", doc.Metadata.Title)

	assert.Equal(t, []model.Paragraph{
		{Text: "Mouse KLK1 ELISA Kit", Style: model.StyleTitle},
		{Text: "INTENDED USE", Style: model.StyleHeading, Level: 1},
		{Text: "For the quantitation  of KLK1.", Style: model.StyleBody},
		{Text: "Storage", Style: model.StyleHeading, Level: 2, Bold: true},
		{Text: "KIT COMPONENTS", Style: model.StyleBody, Bold: true},
		{Text: "Mixed bold text", Style: model.StyleBody},
		{Text: "All bold", Style: model.StyleBody, Bold: true},
		{Text: "Not all", Style: model.StyleBody},
		{Text: "Line\ntwo\ttabbed", Style: model.StyleBody},
		{Text: "loop", Style: model.StyleBody},
	}, paragraphs(doc))
}

func TestOpenBytes_Lists(t *testing.T) {
	data := build(t, `
<text:p>Steps</text:p>
<text:list>
  <text:list-item><text:p>Add sample.</text:p></text:list-item>
  <text:list-item>
    <text:p>Incubate.</text:p>
    <text:list><text:list-item><text:p>37 C</text:p></text:list-item></text:list>
  </text:list-item>
</text:list>
<text:p>After</text:p>`)

	r, err := OpenBytes(data)
	require.NoError(t, err)

	var styles []string
	for _, p := range r.Document().Paragraphs() {
		styles = append(styles, p.Style)
	}
	assert.Equal(t, []string{
		model.StyleBody, model.StyleListItem, model.StyleListItem, model.StyleListItem, model.StyleBody,
	}, styles)
}

func TestOpenBytes_Tables(t *testing.T) {
	data := build(t, `
<text:h text:outline-level="1">KIT COMPONENTS</text:h>
<table:table table:name="Table1">
  <table:table-column table:number-columns-repeated="3"/>
  <table:table-header-rows>
    <table:table-row>
      <table:table-cell><text:p>Description</text:p></table:table-cell>
      <table:table-cell><text:p>Quantity</text:p></table:table-cell>
      <table:table-cell table:number-columns-repeated="100"/>
    </table:table-row>
  </table:table-header-rows>
  <table:table-row>
    <table:table-cell table:number-columns-spanned="2"><text:p>Standard</text:p><text:p>lyophilized</text:p></table:table-cell>
    <table:covered-table-cell/>
  </table:table-row>
  <table:table-row>
    <table:table-cell table:number-columns-repeated="2"><text:p>x</text:p></table:table-cell>
  </table:table-row>
  <table:table-row><table:table-cell/><table:table-cell/></table:table-row>
</table:table>
<text:p>After table</text:p>`)

	r, err := OpenBytes(data)
	require.NoError(t, err)
	doc := r.Document()

	require.Len(t, doc.Tables(), 1)
	assert.Equal(t, [][]string{
		{"Description", "Quantity"},
		{"Standard\nlyophilized", ""},
		{"x", "x"},
	}, doc.Tables()[0].Rows)

	require.Len(t, doc.Blocks, 3)
	assert.Equal(t, model.KindParagraph, doc.Blocks[0].Kind())
	assert.Equal(t, model.KindTable, doc.Blocks[1].Kind())
	assert.Equal(t, model.KindParagraph, doc.Blocks[2].Kind())
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kit.odt")
	require.NoError(t, os.WriteFile(path, build(t, `<text:p>Hello</text:p>`), 0o644))

	r, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, path, r.Document().Metadata.Source)
	assert.Equal(t, "Hello", r.Document().Paragraphs()[0].Text)

	_, err = Open(filepath.Join(t.TempDir(), "missing.odt"))
	assert.Error(t, err)
}

func TestOpenBytes_Invalid(t *testing.T) {
	_, err := OpenBytes([]byte("not a zip"))
	assert.Error(t, err)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err = zw.Create("mimetype")
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = OpenBytes(buf.Bytes())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "content.xml")
}
