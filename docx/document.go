package docx

import (
	"strconv"
	"strings"

	"github.com/tsawler/kitsheet/model"
)

// BodyBlocks returns the top-level paragraphs and tables of the body in
// reading order. Content controls and custom XML wrappers are flattened.
func (p *Package) BodyBlocks() []*Node {
	return blocks(p.Body())
}

func blocks(parent *Node) []*Node {
	if parent == nil {
		return nil
	}
	var out []*Node
	for _, c := range parent.Elements() {
		switch c.Local {
		case "p", "tbl":
			out = append(out, c)
		case "sdt":
			out = append(out, blocks(c.Child("sdtContent"))...)
		case "customXml":
			out = append(out, blocks(c)...)
		}
	}
	return out
}

// Document converts the body to the block model. Tables carry their true
// reading-order position.
func (p *Package) Document() *model.Document {
	doc := model.NewDocument()
	doc.Metadata.Title = p.title
	doc.Metadata.Source = p.path
	doc.Metadata.Format = "DOCX"

	for _, n := range p.BodyBlocks() {
		switch n.Local {
		case "p":
			doc.AddParagraph(p.Paragraph(n))
		case "tbl":
			doc.AddTable(TableModel(n))
		}
	}
	return doc
}

// Paragraph converts a w:p element to a model paragraph with its style
// resolved.
func (p *Package) Paragraph(n *Node) *model.Paragraph {
	para := &model.Paragraph{
		Text:  ParagraphText(n),
		Style: model.StyleBody,
	}

	style := p.styles.Resolve(ParagraphStyleID(n))
	switch {
	case style.IsTitle:
		para.Style = model.StyleTitle
		para.Level = style.HeadingLevel
	case style.IsHeading:
		para.Style = model.StyleHeading
		para.Level = style.HeadingLevel
	case HasNumbering(n):
		para.Style = model.StyleListItem
	}

	if lvl, err := strconv.Atoi(n.Child("pPr").Child("outlineLvl").GetAttr("val")); err == nil && para.Style == model.StyleBody && lvl >= 0 && lvl <= 8 {
		para.Style = model.StyleHeading
		para.Level = lvl + 1
	}

	para.Bold = paragraphBold(n, style.Bold)
	return para
}

// paragraphBold reports whether every run with visible text is bold.
func paragraphBold(p *Node, styleBold bool) bool {
	seen := false
	for _, r := range Runs(p) {
		if strings.TrimSpace(RunText(r)) == "" {
			continue
		}
		seen = true
		bold, set := RunBold(r)
		if !set {
			bold = styleBold
		}
		if !bold {
			return false
		}
	}
	return seen
}

// TableModel converts a w:tbl element to a model table. Each w:tc becomes
// one cell; nested tables contribute their text to the enclosing cell.
func TableModel(tbl *Node) *model.Table {
	var rows [][]string
	for _, tr := range TableRows(tbl) {
		var row []string
		for _, tc := range RowCells(tr) {
			row = append(row, cellTextDeep(tc))
		}
		rows = append(rows, row)
	}
	return model.NewTableFromRows(rows)
}

func cellTextDeep(tc *Node) string {
	var lines []string
	for _, c := range tc.Elements() {
		switch c.Local {
		case "p":
			lines = append(lines, ParagraphText(c))
		case "tbl":
			lines = append(lines, strings.TrimRight(TableModel(c).GetText(), "\n"))
		}
	}
	return strings.Join(lines, "\n")
}
