package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentPositions(t *testing.T) {
	doc := NewDocument()
	doc.AddParagraph(&Paragraph{Text: "Title", Style: StyleTitle})
	doc.AddParagraph(&Paragraph{Text: "KIT COMPONENTS", Style: StyleHeading, Level: 2})
	tbl := doc.AddTable(NewTableFromRows([][]string{{"Description", "Quantity"}, {"Standard", "2 vials"}}))
	doc.AddParagraph(&Paragraph{Text: "STORAGE"})
	detached := doc.AddDetachedTable(NewTableFromRows([][]string{{"x"}}))

	require.Len(t, doc.Paragraphs(), 3)
	require.Len(t, doc.Tables(), 2)
	assert.Equal(t, 0, tbl.Index)
	assert.Equal(t, 2, tbl.Position)
	assert.Equal(t, 1, detached.Index)
	assert.Equal(t, PositionUnknown, detached.Position)
	assert.Equal(t, 2, doc.Paragraph(2).Index)
	assert.Nil(t, doc.Paragraph(3))
	assert.Equal(t, 3, doc.BlockIndex(2))
	assert.Equal(t, -1, doc.BlockIndex(9))
}

func TestParagraphTexts(t *testing.T) {
	doc := NewDocument()
	for _, s := range []string{"a", "b", "c"} {
		doc.AddParagraph(&Paragraph{Text: s})
	}

	assert.Equal(t, []string{"b", "c"}, doc.ParagraphTexts(1, 3))
	assert.Equal(t, []string{"a", "b", "c"}, doc.ParagraphTexts(-4, 10))
	assert.Nil(t, doc.ParagraphTexts(2, 2))
}

func TestParagraphStyleTag(t *testing.T) {
	tests := []struct {
		p    Paragraph
		want string
	}{
		{Paragraph{Style: StyleHeading, Level: 2}, "heading-2"},
		{Paragraph{Style: StyleHeading}, "heading"},
		{Paragraph{}, "body"},
		{Paragraph{Style: StyleTitle}, "title"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.p.StyleTag())
	}
}

func TestTableCells(t *testing.T) {
	tbl := NewTableFromRows([][]string{
		{" Concentration (pg/ml) ", "O.D."},
		{"0", "0.028", "extra"},
	})

	assert.Equal(t, 3, tbl.ColCount())
	assert.Equal(t, 2, tbl.RowCount())
	assert.Equal(t, "Concentration (pg/ml)", tbl.Cell(0, 0))
	assert.Equal(t, "", tbl.Cell(0, 2))
	assert.Equal(t, "", tbl.Cell(5, 0))
	assert.Equal(t, []string{"O.D.", "0.028"}, tbl.Column(1))
	assert.Equal(t, " Concentration (pg/ml)  O.D.", tbl.HeaderText())
}

func TestTableToMarkdown(t *testing.T) {
	tbl := NewTableFromRows([][]string{{"Name", "Qty"}, {"Wash | Buffer", "30 ml"}})
	md := tbl.ToMarkdown()

	lines := strings.Split(strings.TrimSpace(md), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "| Name | Qty |", lines[0])
	assert.Equal(t, "|---|---|", lines[1])
	assert.Equal(t, `| Wash \| Buffer | 30 ml |`, lines[2])

	assert.Equal(t, "", NewTableFromRows(nil).ToMarkdown())
}

func TestTableToCSV(t *testing.T) {
	tbl := NewTableFromRows([][]string{{"a", "b,c"}})
	assert.Equal(t, "a,\"b,c\"\n", tbl.ToCSV())
}
