package docx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseBody(t *testing.T, content string) *Node {
	t.Helper()
	root, err := ParseXML([]byte(`<w:body xmlns:w="urn:w">` + content + `</w:body>`))
	require.NoError(t, err)
	return root.Root()
}

func TestParagraphText(t *testing.T) {
	body := parseBody(t, `<w:p><w:pPr><w:tabs><w:tab w:val="left"/></w:tabs></w:pPr>`+
		`<w:r><w:t>Cat</w:t><w:tab/><w:t>No</w:t></w:r>`+
		`<w:r><w:br/><w:t>EK1586</w:t></w:r>`+
		`<w:del><w:r><w:delText>gone</w:delText></w:r></w:del>`+
		`<w:r><w:instrText>PAGE</w:instrText></w:r></w:p>`)

	assert.Equal(t, "Cat\tNo\nEK1586", ParagraphText(body.Child("p")))
}

func TestMergeRuns(t *testing.T) {
	body := parseBody(t, `<w:p><w:r><w:rPr><w:b/></w:rPr><w:t>{{ kit</w:t></w:r>`+
		`<w:hyperlink><w:r><w:t>_name</w:t></w:r></w:hyperlink><w:r><w:t> }}</w:t></w:r></w:p>`)
	p := body.Child("p")

	first := MergeRuns(p)
	require.NotNil(t, first)
	assert.Len(t, Runs(p), 1)
	assert.Equal(t, "{{ kit_name }}", ParagraphText(p))
	assert.NotNil(t, first.Child("rPr").Child("b"))
}

func TestSetRunText_Newlines(t *testing.T) {
	body := parseBody(t, `<w:p><w:r><w:t>old</w:t></w:r></w:p>`)
	p := body.Child("p")

	SetParagraphText(p, "line one\nline two")
	assert.Equal(t, "line one\nline two", ParagraphText(p))
	assert.Len(t, p.Find("br"), 1)
	assert.Len(t, p.Find("t"), 2)
}

func TestEnsureProp_SchemaOrder(t *testing.T) {
	body := parseBody(t, `<w:p><w:r><w:rPr><w:rStyle w:val="x"/><w:sz w:val="20"/></w:rPr><w:t>a</w:t></w:r></w:p>`)
	r := body.Child("p").Child("r")

	RunProp(r, "rFonts").SetAttr("w:ascii", "Calibri")
	RunProp(r, "b")
	RunProp(r, "szCs")

	var order []string
	for _, c := range r.Child("rPr").Elements() {
		order = append(order, c.Local)
	}
	assert.Equal(t, []string{"rStyle", "rFonts", "b", "sz", "szCs"}, order)

	p := body.Child("p")
	ParagraphProp(p, "spacing")
	ParagraphProp(p, "pStyle")
	assert.Equal(t, "pPr", p.Elements()[0].Local)
	assert.Equal(t, "pStyle", p.Child("pPr").Elements()[0].Local)
}

func TestTableHelpers(t *testing.T) {
	body := parseBody(t, `<w:tbl><w:tr><w:tc><w:p><w:r><w:t>Description</w:t></w:r></w:p></w:tc>`+
		`<w:tc><w:p><w:r><w:t>Quantity</w:t></w:r></w:p></w:tc></w:tr>`+
		`<w:tr><w:tc><w:p><w:r><w:t>Standard</w:t></w:r></w:p><w:p><w:r><w:t>lyophilized</w:t></w:r></w:p></w:tc>`+
		`<w:tc><w:p/></w:tc></w:tr></w:tbl>`)
	tbl := body.Child("tbl")

	assert.Equal(t, []string{"Description", "Quantity"}, TableHeader(tbl))
	rows := TableRows(tbl)
	require.Len(t, rows, 2)
	cells := RowCells(rows[1])
	assert.Equal(t, "Standard\nlyophilized", CellText(cells[0]))

	SetCellText(cells[0], "Standard")
	assert.Equal(t, "Standard", CellText(cells[0]))
	SetCellText(cells[1], "2 vials")
	assert.Equal(t, "2 vials", CellText(cells[1]))

	m := TableModel(tbl)
	assert.Equal(t, [][]string{{"Description", "Quantity"}, {"Standard", "2 vials"}}, m.Rows)
}

func TestHasNumbering(t *testing.T) {
	body := parseBody(t, `<w:p><w:pPr><w:numPr><w:numId w:val="3"/></w:numPr></w:pPr></w:p>`+
		`<w:p><w:pPr><w:numPr><w:numId w:val="0"/></w:numPr></w:pPr></w:p><w:p/>`)
	paras := body.ChildrenNamed("p")

	assert.True(t, HasNumbering(paras[0]))
	assert.False(t, HasNumbering(paras[1]))
	assert.False(t, HasNumbering(paras[2]))
}

func TestNewParagraph(t *testing.T) {
	p := NewParagraph("Hello", "Heading2")
	assert.Equal(t, "Heading2", ParagraphStyleID(p))
	assert.Equal(t, "Hello", ParagraphText(p))
}
