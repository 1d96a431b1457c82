package model

import (
	"encoding/csv"
	"strings"
)

// PositionUnknown marks a table whose reading-order position could not be
// determined by the reader.
const PositionUnknown = -1

// Table is a 2-D grid of cell text.
type Table struct {
	Index    int // ordinal among tables
	Position int // paragraphs preceding the table, or PositionUnknown
	Rows     [][]string
}

// NewTableFromRows creates a table from a row grid.
func NewTableFromRows(rows [][]string) *Table {
	return &Table{
		Position: PositionUnknown,
		Rows:     rows,
	}
}

func (t *Table) Kind() BlockKind { return KindTable }

// GetText returns cells joined by tabs and rows by newlines.
func (t *Table) GetText() string {
	var sb strings.Builder
	for _, row := range t.Rows {
		sb.WriteString(strings.Join(row, "\t"))
		sb.WriteString("\n")
	}
	return sb.String()
}

// RowCount returns the number of rows
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// ColCount returns the width of the widest row
func (t *Table) ColCount() int {
	n := 0
	for _, row := range t.Rows {
		if len(row) > n {
			n = len(row)
		}
	}
	return n
}

// Cell returns the trimmed text at the given row and column, or "" when out
// of range.
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) {
		return ""
	}
	if col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(t.Rows[row][col])
}

// Header returns the first row, or nil for an empty table.
func (t *Table) Header() []string {
	if len(t.Rows) == 0 {
		return nil
	}
	return t.Rows[0]
}

// HeaderText returns the first row joined by single spaces.
func (t *Table) HeaderText() string {
	return strings.Join(t.Header(), " ")
}

// Column returns the trimmed text of column col for every row.
func (t *Table) Column(col int) []string {
	out := make([]string, 0, len(t.Rows))
	for i := range t.Rows {
		out = append(out, t.Cell(i, col))
	}
	return out
}

// ToMarkdown converts the table to markdown format
func (t *Table) ToMarkdown() string {
	if len(t.Rows) == 0 {
		return ""
	}
	width := t.ColCount()

	var sb strings.Builder
	writeRow := func(row []string) {
		for j := 0; j < width; j++ {
			cell := ""
			if j < len(row) {
				cell = strings.ReplaceAll(row[j], "\n", " ")
			}
			sb.WriteString("| ")
			sb.WriteString(strings.ReplaceAll(cell, "|", "\\|"))
			sb.WriteString(" ")
		}
		sb.WriteString("|\n")
	}

	writeRow(t.Rows[0])
	for j := 0; j < width; j++ {
		sb.WriteString("|---")
	}
	sb.WriteString("|\n")
	for _, row := range t.Rows[1:] {
		writeRow(row)
	}
	return sb.String()
}

// ToCSV converts the table to CSV format
func (t *Table) ToCSV() string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	for _, row := range t.Rows {
		_ = w.Write(row)
	}
	w.Flush()
	return sb.String()
}
