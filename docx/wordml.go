package docx

import (
	"strconv"
	"strings"
)

// Schema order of the children of w:pPr. Word rejects property elements that
// appear out of sequence.
var paragraphPropsOrder = []string{
	"pStyle", "keepNext", "keepLines", "pageBreakBefore", "framePr",
	"widowControl", "numPr", "suppressLineNumbers", "pBdr", "shd", "tabs",
	"suppressAutoHyphens", "kinsoku", "wordWrap", "overflowPunct",
	"topLinePunct", "autoSpaceDE", "autoSpaceDN", "bidi", "adjustRightInd",
	"snapToGrid", "spacing", "ind", "contextualSpacing", "mirrorIndents",
	"suppressOverlap", "jc", "textDirection", "textAlignment",
	"textboxTightWrap", "outlineLvl", "divId", "cnfStyle", "rPr", "sectPr",
	"pPrChange",
}

// Schema order of the children of w:rPr.
var runPropsOrder = []string{
	"rStyle", "rFonts", "b", "bCs", "i", "iCs", "caps", "smallCaps", "strike",
	"dstrike", "outline", "shadow", "emboss", "imprint", "noProof",
	"snapToGrid", "vanish", "webHidden", "color", "spacing", "w", "kern",
	"position", "sz", "szCs", "highlight", "u", "effect", "bdr", "shd",
	"fitText", "vertAlign", "rtl", "cs", "em", "lang", "eastAsianLayout",
	"specVanish", "oMath",
}

// ParagraphText returns the visible text of a paragraph. Tabs and breaks are
// rendered as "\t" and "\n"; deleted text, field codes and text boxes are
// skipped.
func ParagraphText(p *Node) string {
	var sb strings.Builder
	p.Walk(func(n *Node) bool {
		if n.Type != ElementNode {
			return true
		}
		switch n.Local {
		case "t":
			sb.WriteString(textOf(n))
			return false
		case "tab":
			if n.Parent.Is("r") {
				sb.WriteString("\t")
			}
		case "br", "cr":
			sb.WriteString("\n")
		case "delText", "instrText", "txbxContent", "pPr", "rPr":
			return false
		}
		return true
	})
	return sb.String()
}

func textOf(n *Node) string {
	var sb strings.Builder
	for _, c := range n.Children {
		if c.Type == TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}

// Runs returns the runs of a paragraph in order, including runs nested in
// hyperlinks, insertions and smart tags, but not runs inside text boxes.
func Runs(p *Node) []*Node {
	var out []*Node
	p.Walk(func(n *Node) bool {
		if n == p {
			return true
		}
		switch {
		case n.Is("r"):
			out = append(out, n)
			return false
		case n.Is("txbxContent"), n.Is("pPr"), n.Is("del"):
			return false
		}
		return true
	})
	return out
}

// RunText returns the visible text of a single run.
func RunText(r *Node) string {
	return ParagraphText(r)
}

// SetRunText replaces the content of a run, keeping its properties. Newlines
// become w:br elements.
func SetRunText(r *Node, text string) {
	kept := r.Children[:0]
	for _, c := range r.Children {
		if c.Type == ElementNode && (c.Local == "t" || c.Local == "br" || c.Local == "cr" || c.Local == "tab") {
			c.Parent = nil
			continue
		}
		if c.Type == TextNode {
			continue
		}
		kept = append(kept, c)
	}
	r.Children = kept

	prefix := r.Prefix
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			r.AppendChild(NewElement(qualify(prefix, "br")))
		}
		if line == "" {
			continue
		}
		t := NewElement(qualify(prefix, "t"), "xml:space", "preserve")
		t.AppendChild(NewText(line))
		r.AppendChild(t)
	}
}

// MergeRuns collapses the text of every run into the first run, removing the
// others. The first run keeps its formatting. A run is created if the
// paragraph has none. Returns the surviving run.
func MergeRuns(p *Node) *Node {
	runs := Runs(p)
	if len(runs) == 0 {
		r := NewElement(qualify(p.Prefix, "r"))
		p.AppendChild(r)
		return r
	}

	var sb strings.Builder
	for _, r := range runs {
		sb.WriteString(RunText(r))
	}
	first := runs[0]
	for _, r := range runs[1:] {
		r.Detach()
	}
	SetRunText(first, sb.String())
	return first
}

// SetParagraphText replaces the text of a paragraph, keeping the formatting of
// its first run.
func SetParagraphText(p *Node, text string) {
	SetRunText(MergeRuns(p), text)
}

// NewParagraph creates a paragraph with one run holding text. An empty
// styleID leaves the paragraph unstyled.
func NewParagraph(text, styleID string) *Node {
	p := NewElement("w:p")
	if styleID != "" {
		ppr := EnsureParagraphProps(p)
		EnsureProp(ppr, "pStyle", paragraphPropsOrder).SetAttr("w:val", styleID)
	}
	r := NewElement("w:r")
	p.AppendChild(r)
	SetRunText(r, text)
	return p
}

// ParagraphStyleID returns the w:pStyle of a paragraph.
func ParagraphStyleID(p *Node) string {
	return p.Child("pPr").Child("pStyle").GetAttr("val")
}

// HasNumbering reports whether the paragraph is part of a numbered or
// bulleted list.
func HasNumbering(p *Node) bool {
	numPr := p.Child("pPr").Child("numPr")
	if numPr == nil {
		return false
	}
	return numPr.Child("numId").GetAttr("val") != "0"
}

// RunBold reports whether a run carries direct bold formatting. The second
// result is false when the run does not set bold at all.
func RunBold(r *Node) (bold, set bool) {
	b := r.Child("rPr").Child("b")
	if b == nil {
		return false, false
	}
	v := b.GetAttr("val")
	return v != "false" && v != "0", true
}

// EnsureParagraphProps returns the w:pPr of a paragraph, creating it as the
// first child when absent.
func EnsureParagraphProps(p *Node) *Node {
	if ppr := p.Child("pPr"); ppr != nil {
		return ppr
	}
	ppr := NewElement(qualify(p.Prefix, "pPr"))
	p.InsertChild(0, ppr)
	return ppr
}

// EnsureRunProps returns the w:rPr of a run, creating it as the first child
// when absent.
func EnsureRunProps(r *Node) *Node {
	if rpr := r.Child("rPr"); rpr != nil {
		return rpr
	}
	rpr := NewElement(qualify(r.Prefix, "rPr"))
	r.InsertChild(0, rpr)
	return rpr
}

// EnsureProp returns the property element local under props, inserting it at
// the position required by order when absent.
func EnsureProp(props *Node, local string, order []string) *Node {
	if n := props.Child(local); n != nil {
		return n
	}
	rank := indexOf(order, local)
	n := NewElement(qualify(props.Prefix, local))

	at := len(props.Children)
	for i, c := range props.Children {
		if c.Type != ElementNode {
			continue
		}
		if r := indexOf(order, c.Local); r > rank {
			at = i
			break
		}
	}
	props.InsertChild(at, n)
	return n
}

// ParagraphProp is EnsureProp for w:pPr children.
func ParagraphProp(p *Node, local string) *Node {
	return EnsureProp(EnsureParagraphProps(p), local, paragraphPropsOrder)
}

// RunProp is EnsureProp for w:rPr children.
func RunProp(r *Node, local string) *Node {
	return EnsureProp(EnsureRunProps(r), local, runPropsOrder)
}

func indexOf(list []string, s string) int {
	for i, x := range list {
		if x == s {
			return i
		}
	}
	return len(list)
}

func qualify(prefix, local string) string {
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}

// TableRows returns the rows of a table.
func TableRows(tbl *Node) []*Node {
	return tbl.ChildrenNamed("tr")
}

// RowCells returns the cells of a row.
func RowCells(tr *Node) []*Node {
	var out []*Node
	for _, c := range tr.Elements() {
		switch c.Local {
		case "tc":
			out = append(out, c)
		case "sdt":
			out = append(out, c.Child("sdtContent").ChildrenNamed("tc")...)
		}
	}
	return out
}

// CellParagraphs returns the paragraphs directly inside a cell.
func CellParagraphs(tc *Node) []*Node {
	return tc.ChildrenNamed("p")
}

// CellText returns the text of a cell, one line per paragraph.
func CellText(tc *Node) string {
	var lines []string
	for _, p := range CellParagraphs(tc) {
		lines = append(lines, ParagraphText(p))
	}
	return strings.Join(lines, "\n")
}

// SetCellText replaces the content of a cell with text, reusing the first
// paragraph's formatting.
func SetCellText(tc *Node, text string) {
	paras := CellParagraphs(tc)
	if len(paras) == 0 {
		tc.AppendChild(NewParagraph(text, ""))
		return
	}
	for _, p := range paras[1:] {
		p.Detach()
	}
	SetParagraphText(paras[0], text)
}

// TableHeader returns the text of the first row's cells.
func TableHeader(tbl *Node) []string {
	rows := TableRows(tbl)
	if len(rows) == 0 {
		return nil
	}
	var out []string
	for _, tc := range RowCells(rows[0]) {
		out = append(out, strings.TrimSpace(CellText(tc)))
	}
	return out
}

// AllParagraphs returns every paragraph under n, including paragraphs in
// table cells.
func AllParagraphs(n *Node) []*Node {
	return n.Find("p")
}

// SetRunFont sets a run's font for every script. Theme fonts, which would
// take precedence, are removed.
func SetRunFont(r *Node, family string) {
	fonts := RunProp(r, "rFonts")
	for _, theme := range []string{"asciiTheme", "hAnsiTheme", "eastAsiaTheme", "cstheme"} {
		fonts.RemoveAttr(theme)
	}
	for _, slot := range []string{"ascii", "hAnsi", "eastAsia", "cs"} {
		fonts.SetAttr(qualify(r.Prefix, slot), family)
	}
}

// SetRunSize sets a run's font size in half-points.
func SetRunSize(r *Node, halfPoints int) {
	v := strconv.Itoa(halfPoints)
	RunProp(r, "sz").SetAttr(qualify(r.Prefix, "val"), v)
	RunProp(r, "szCs").SetAttr(qualify(r.Prefix, "val"), v)
}

// SetLineSpacing sets proportional line spacing in 240ths of a line: 240 is
// single spacing and 276 is 1.15 lines.
func SetLineSpacing(p *Node, line int) {
	spacing := ParagraphProp(p, "spacing")
	spacing.SetAttr(qualify(p.Prefix, "line"), strconv.Itoa(line))
	spacing.SetAttr(qualify(p.Prefix, "lineRule"), "auto")
}

// SetAlignment sets a paragraph's justification ("left", "center",
// "right", "both").
func SetAlignment(p *Node, align string) {
	ParagraphProp(p, "jc").SetAttr(qualify(p.Prefix, "val"), align)
}

// HasEmbeddedObjects reports whether a paragraph holds drawings, VML
// pictures or OLE objects.
func HasEmbeddedObjects(p *Node) bool {
	found := false
	p.Walk(func(n *Node) bool {
		if n.Is("drawing") || n.Is("pict") || n.Is("object") {
			found = true
		}
		return !found
	})
	return found
}
