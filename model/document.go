package model

import "strings"

// BlockKind identifies the concrete type of a Block.
type BlockKind int

const (
	KindParagraph BlockKind = iota
	KindTable
)

// String returns the string representation of the block kind.
func (k BlockKind) String() string {
	switch k {
	case KindParagraph:
		return "paragraph"
	case KindTable:
		return "table"
	default:
		return "unknown"
	}
}

// Block is a single unit of document content.
type Block interface {
	Kind() BlockKind
	GetText() string
}

// Metadata contains document-level information.
type Metadata struct {
	Title  string
	Source string // path the document was read from
	Format string
}

// Document is an ordered sequence of paragraphs and tables.
type Document struct {
	Metadata Metadata
	Blocks   []Block

	paragraphs []*Paragraph
	tables     []*Table
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{
		Blocks: make([]Block, 0),
	}
}

// AddParagraph appends a paragraph and assigns its index.
func (d *Document) AddParagraph(p *Paragraph) *Paragraph {
	p.Index = len(d.paragraphs)
	d.paragraphs = append(d.paragraphs, p)
	d.Blocks = append(d.Blocks, p)
	return p
}

// AddTable appends a table in reading order. Its index is assigned and its
// position is set to the number of paragraphs added so far.
func (d *Document) AddTable(t *Table) *Table {
	t.Index = len(d.tables)
	t.Position = len(d.paragraphs)
	d.tables = append(d.tables, t)
	d.Blocks = append(d.Blocks, t)
	return t
}

// AddDetachedTable appends a table whose reading-order position is not known.
func (d *Document) AddDetachedTable(t *Table) *Table {
	d.AddTable(t)
	t.Position = PositionUnknown
	return t
}

// Paragraphs returns the paragraphs in reading order.
func (d *Document) Paragraphs() []*Paragraph {
	return d.paragraphs
}

// Tables returns the tables in reading order.
func (d *Document) Tables() []*Table {
	return d.tables
}

// Paragraph returns the paragraph at index i, or nil.
func (d *Document) Paragraph(i int) *Paragraph {
	if i < 0 || i >= len(d.paragraphs) {
		return nil
	}
	return d.paragraphs[i]
}

// ParagraphTexts returns the text of paragraphs in the half-open range
// [start, end).
func (d *Document) ParagraphTexts(start, end int) []string {
	if start < 0 {
		start = 0
	}
	if end > len(d.paragraphs) {
		end = len(d.paragraphs)
	}
	if start >= end {
		return nil
	}
	out := make([]string, 0, end-start)
	for _, p := range d.paragraphs[start:end] {
		out = append(out, p.Text)
	}
	return out
}

// BlockIndex returns the index into Blocks of the given paragraph index, or
// -1.
func (d *Document) BlockIndex(paragraph int) int {
	p := d.Paragraph(paragraph)
	if p == nil {
		return -1
	}
	for i, b := range d.Blocks {
		if b == Block(p) {
			return i
		}
	}
	return -1
}

// GetText returns the plain text of the document, one block per line.
func (d *Document) GetText() string {
	var sb strings.Builder
	for i, b := range d.Blocks {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(b.GetText())
	}
	return sb.String()
}
