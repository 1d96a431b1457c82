package htmldoc

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/kitsheet/model"
)

const datasheet = `<!DOCTYPE html>
<html>
<head>
	<title>Mouse KLK1 ELISA Kit</title>
	<meta name="description" content="Kit datasheet">
	<style>p { color: red; }</style>
</head>
<body>
	<h1>Mouse KLK1 ELISA Kit</h1>
	<p><strong>INTENDED USE</strong></p>
	<p>For the   quantitation
	of KLK1.</p>
	<h2>KIT COMPONENTS</h2>
	<table>
		<thead><tr><th>Description</th><th>Quantity</th></tr></thead>
		<tbody><tr><td>Standard</td><td>2 vials</td></tr></tbody>
	</table>
	<div><p>Line one<br>Line two</p></div>
	<ol><li>Add sample.<ul><li>Nested</li></ul></li><li>Incubate.</li></ol>
	<script>var x = 1;</script>
</body>
</html>`

func TestOpenReader_Datasheet(t *testing.T) {
	r, err := OpenReader(strings.NewReader(datasheet))
	require.NoError(t, err)

	assert.Equal(t, "Mouse KLK1 ELISA Kit", r.Title())
	assert.Equal(t, "Kit datasheet", r.Meta("description"))

	doc := r.Document()
	var texts []string
	for _, p := range doc.Paragraphs() {
		texts = append(texts, p.Text)
	}
	assert.Equal(t, []string{
		"Mouse KLK1 ELISA Kit",
		"INTENDED USE",
		"For the quantitation of KLK1.",
		"KIT COMPONENTS",
		"Line one\nLine two",
		"Add sample.",
		"Nested",
		"Incubate.",
	}, texts)

	paras := doc.Paragraphs()
	assert.Equal(t, model.StyleHeading, paras[0].Style)
	assert.Equal(t, 1, paras[0].Level)
	assert.True(t, paras[1].Bold)
	assert.False(t, paras[2].Bold)
	assert.Equal(t, model.StyleListItem, paras[5].Style)

	require.Len(t, doc.Tables(), 1)
	tbl := doc.Tables()[0]
	assert.Equal(t, 4, tbl.Position)
	assert.Equal(t, [][]string{{"Description", "Quantity"}, {"Standard", "2 vials"}}, tbl.Rows)
}

func TestParseTableRow_Colspan(t *testing.T) {
	r, err := OpenReader(strings.NewReader(`<table><tr><td colspan="3">Concentration</td></tr><tr><td>0</td><td>1</td><td>2</td></tr></table>`))
	require.NoError(t, err)

	tbl := r.Document().Tables()[0]
	assert.Equal(t, []string{"Concentration", "", ""}, tbl.Rows[0])
}

func TestOpenReader_InvalidHTML(t *testing.T) {
	// Even malformed HTML should parse (HTML parser is lenient)
	r, err := OpenReader(strings.NewReader(`<html><body><p>unclosed paragraph`))
	require.NoError(t, err)
	assert.Equal(t, "unclosed paragraph", r.Document().Paragraphs()[0].Text)
}

func TestOpen_NotFound(t *testing.T) {
	_, err := Open("/nonexistent/file.html")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/nonexistent/file.html")
}

func TestOpen_ValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kit.html")
	require.NoError(t, os.WriteFile(path, []byte(datasheet), 0o644))

	r, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, path, r.Document().Metadata.Source)
	assert.Equal(t, "HTML", r.Document().Metadata.Format)
}
