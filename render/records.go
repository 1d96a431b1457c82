package render

import (
	"strings"

	"github.com/pkg/errors"
)

const cellSeparator = " | "

// FormatRecords renders records as a header line followed by one line per
// record, cells separated by " | ". Cells are trimmed; a literal "|" or "\"
// is escaped with a backslash and a line break is written as "\n".
func FormatRecords(columns []string, records []map[string]string) string {
	lines := make([]string, 0, len(records)+1)
	lines = append(lines, formatRow(columns))
	for _, r := range records {
		cells := make([]string, len(columns))
		for i, c := range columns {
			cells[i] = r[c]
		}
		lines = append(lines, formatRow(cells))
	}
	return strings.Join(lines, "\n")
}

func formatRow(cells []string) string {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		escaped[i] = escapeCell(strings.TrimSpace(c))
	}
	return strings.Join(escaped, cellSeparator)
}

var cellEscaper = strings.NewReplacer(`\`, `\\`, `|`, `\|`, "\n", `\n`)

func escapeCell(s string) string {
	return cellEscaper.Replace(s)
}

// ParseRecords reverses FormatRecords. Every record has a key for every
// column; a row with more cells than the header is an error.
func ParseRecords(s string) ([]string, []map[string]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil, nil
	}
	lines := strings.Split(s, "\n")
	columns := splitRow(lines[0])

	var records []map[string]string
	for n, line := range lines[1:] {
		cells := splitRow(line)
		if len(cells) > len(columns) {
			return nil, nil, errors.Errorf("row %d has %d cells, header has %d", n+1, len(cells), len(columns))
		}
		r := make(map[string]string, len(columns))
		for i, c := range columns {
			if i < len(cells) {
				r[c] = cells[i]
			} else {
				r[c] = ""
			}
		}
		records = append(records, r)
	}
	return columns, records, nil
}

// splitRow splits a line on unescaped "|" and unescapes each cell.
func splitRow(line string) []string {
	var cells []string
	var sb strings.Builder
	for i := 0; i < len(line); i++ {
		switch ch := line[i]; {
		case ch == '\\' && i+1 < len(line):
			i++
			if line[i] == 'n' {
				sb.WriteByte('\n')
			} else {
				sb.WriteByte(line[i])
			}
		case ch == '|':
			cells = append(cells, strings.TrimSpace(sb.String()))
			sb.Reset()
		default:
			sb.WriteByte(ch)
		}
	}
	return append(cells, strings.TrimSpace(sb.String()))
}
