package extract

import (
	"strconv"
	"strings"

	"github.com/tsawler/kitsheet/model"
)

// columnFunc maps the lower-cased header cell of column i to a record key,
// or "" when the column is not recognized.
type columnFunc func(i int, header string) string

func reagentColumn(_ int, h string) string {
	switch {
	case containsAny(h, "description", "component", "name", "reagent", "item"):
		return "name"
	case containsAny(h, "qty", "quantity", "amount"):
		return "quantity"
	case containsAny(h, "vol", "size"):
		return "volume"
	case containsAny(h, "storage", "store", "condition"):
		return "storage"
	}
	return ""
}

func precisionColumn(_ int, h string) string {
	switch {
	case containsAny(h, "sample"):
		return "sample"
	case strings.TrimSpace(h) == "n", containsAny(h, "replicate", "number"):
		return "n"
	case containsAny(h, "mean", "average"):
		return "mean"
	case containsAny(h, "std", "sd", "deviation"):
		return "std_dev"
	case containsAny(h, "cv"):
		return "cv"
	}
	return ""
}

// decompose turns a table into records keyed by the mapped header cells.
// Unrecognized columns are keyed by their lower-cased header text. Rows that
// repeat the header and empty rows are skipped. The returned columns follow
// header order.
func decompose(t *model.Table, column columnFunc) ([]Record, []string) {
	if t == nil || t.RowCount() < 2 {
		return nil, nil
	}
	header := t.Header()
	keys := make([]string, len(header))
	var columns []string
	seen := make(map[string]bool)
	for i, h := range header {
		key := column(i, strings.ToLower(strings.TrimSpace(h)))
		if key == "" {
			key = headerKey(h)
		}
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		keys[i] = key
		columns = append(columns, key)
	}

	var records []Record
	for r := 1; r < t.RowCount(); r++ {
		if isEmptyRow(t, r) || repeatsHeader(t, r) {
			continue
		}
		rec := make(Record, len(columns))
		for c, key := range keys {
			if key != "" {
				rec[key] = t.Cell(r, c)
			}
		}
		records = append(records, rec)
	}
	return records, columns
}

func headerKey(h string) string {
	return strings.Join(strings.Fields(strings.ToLower(h)), "_")
}

func isEmptyRow(t *model.Table, r int) bool {
	for c := range t.Rows[r] {
		if t.Cell(r, c) != "" {
			return false
		}
	}
	return true
}

func repeatsHeader(t *model.Table, r int) bool {
	if len(t.Rows[r]) != len(t.Rows[0]) {
		return false
	}
	for c := range t.Rows[r] {
		if !strings.EqualFold(t.Cell(r, c), t.Cell(0, c)) {
			return false
		}
	}
	return true
}

// reagentRecords decomposes a kit components table. Rows naming a
// specification rather than a component are dropped.
func reagentRecords(t *model.Table) ([]Record, []string) {
	if t == nil {
		return nil, nil
	}
	named := false
	for i, h := range lowerCells(t.Header()) {
		if reagentColumn(i, h) == "name" {
			named = true
		}
	}
	records, columns := decompose(t, func(i int, h string) string {
		// Without a named component column the first column is the name.
		if !named && i == 0 {
			return "name"
		}
		return reagentColumn(i, h)
	})
	out := records[:0]
	for _, rec := range records {
		if rec["name"] == "" || isSpecLabel(rec["name"]) {
			continue
		}
		out = append(out, rec)
	}
	return out, columns
}

var specLabels = []string{
	"description", "component", "reagent", "name", "specificity",
	"standard protein", "cross-reactivity", "sensitivity", "detection range",
}

func isSpecLabel(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, l := range specLabels {
		if s == l {
			return true
		}
	}
	return false
}

// curveRecords reads a standard curve table laid out either vertically
// (a concentration column) or horizontally (a concentration row). Pairs
// where either value has no number are skipped.
func curveRecords(t *model.Table) []Record {
	if t == nil {
		return nil
	}
	header := lowerCells(t.Header())
	if conc := indexContaining(header, "conc"); conc >= 0 {
		od := indexContaining(header, "od", "o.d", "absorb", "optical")
		if od < 0 || od == conc {
			od = conc + 1
			if conc > 0 {
				od = conc - 1
			}
		}
		var out []Record
		for r := 1; r < t.RowCount(); r++ {
			if rec := curvePoint(t.Cell(r, conc), t.Cell(r, od)); rec != nil {
				out = append(out, rec)
			}
		}
		if len(out) > 0 {
			return out
		}
	}

	first := lowerCells(t.Column(0))
	conc := indexContaining(first, "conc")
	if conc < 0 {
		return nil
	}
	od := indexContaining(first, "od", "o.d", "absorb", "optical")
	if od < 0 || od == conc {
		od = conc + 1
	}
	var out []Record
	for c := 1; c < t.ColCount(); c++ {
		if rec := curvePoint(t.Cell(conc, c), t.Cell(od, c)); rec != nil {
			out = append(out, rec)
		}
	}
	return out
}

func curvePoint(conc, od string) Record {
	c, o := Number(conc), Number(od)
	if c == "" || o == "" {
		return nil
	}
	return Record{"concentration": c, "od": o}
}

// precisionRecords decomposes an intra- or inter-assay precision table.
// A table whose header names no known column is read positionally.
func precisionRecords(t *model.Table) []Record {
	records, columns := decompose(t, precisionColumn)
	if len(records) == 0 {
		return nil
	}
	if !contains(columns, "mean") && t.ColCount() >= len(PrecisionColumns) {
		records = records[:0]
		for r := 1; r < t.RowCount(); r++ {
			if isEmptyRow(t, r) {
				continue
			}
			rec := make(Record, len(PrecisionColumns))
			for c, key := range PrecisionColumns {
				rec[key] = t.Cell(r, c)
			}
			records = append(records, rec)
		}
	}
	out := records[:0]
	for _, rec := range records {
		if rec["mean"] == "" && rec["cv"] == "" {
			continue
		}
		for _, key := range PrecisionColumns {
			if _, ok := rec[key]; !ok {
				rec[key] = ""
			}
		}
		out = append(out, rec)
	}
	return out
}

// reproducibilityRecords returns one record per lot or statistic column,
// with one sampleN key per sample row. Tables with lots in the first column
// are read row by row instead.
func reproducibilityRecords(t *model.Table) ([]Record, []string) {
	if t == nil || t.RowCount() < 2 {
		return nil, nil
	}
	lotsInHeader := indexContaining(lowerCells(t.Header()), "lot") >= 0
	lotsInColumn := indexContaining(lowerCells(t.Column(0)), "lot") >= 0

	var out []Record
	var samples int
	switch {
	case lotsInHeader:
		samples = t.RowCount() - 1
		for c := 1; c < t.ColCount(); c++ {
			name := t.Cell(0, c)
			if name == "" {
				continue
			}
			rec := Record{"name": name}
			for r := 1; r < t.RowCount(); r++ {
				rec[sampleKey(r)] = t.Cell(r, c)
			}
			out = append(out, rec)
		}
	case lotsInColumn:
		samples = t.ColCount() - 1
		for r := 1; r < t.RowCount(); r++ {
			name := t.Cell(r, 0)
			if name == "" {
				continue
			}
			rec := Record{"name": name}
			for c := 1; c < t.ColCount(); c++ {
				rec[sampleKey(c)] = t.Cell(r, c)
			}
			out = append(out, rec)
		}
	default:
		return nil, nil
	}

	columns := []string{"name"}
	for i := 1; i <= samples; i++ {
		columns = append(columns, sampleKey(i))
	}
	return out, columns
}

func sampleKey(i int) string {
	return "sample" + strconv.Itoa(i)
}

// labelValue is one "label: value" pair found in a table row or paragraph.
type labelValue struct {
	label string
	value string
}

// tablePairs returns label/value pairs from every row with at least two
// cells. A two-row table wider than two columns is read as labels in the
// first row and values in the second.
func tablePairs(t *model.Table) []labelValue {
	if t == nil {
		return nil
	}
	var out []labelValue
	add := func(label, value string) {
		label = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(label), ":"))
		if label != "" && value != "" {
			out = append(out, labelValue{label: label, value: value})
		}
	}
	if t.RowCount() == 2 && t.ColCount() > 2 {
		for c := 0; c < t.ColCount(); c++ {
			add(t.Cell(0, c), t.Cell(1, c))
		}
		return out
	}
	for r := 0; r < t.RowCount(); r++ {
		if len(t.Rows[r]) >= 2 {
			add(t.Cell(r, 0), t.Cell(r, 1))
		}
	}
	return out
}

// paragraphPair splits "Label: value" text. The label must be short.
func paragraphPair(text string) (labelValue, bool) {
	i := strings.Index(text, ":")
	if i <= 0 || i > 40 {
		return labelValue{}, false
	}
	label := strings.TrimSpace(text[:i])
	value := strings.TrimSpace(text[i+1:])
	if label == "" || value == "" {
		return labelValue{}, false
	}
	return labelValue{label: label, value: value}, true
}

func lowerCells(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.ToLower(strings.TrimSpace(c))
	}
	return out
}

func indexContaining(cells []string, subs ...string) int {
	for i, c := range cells {
		for _, s := range subs {
			if wordPrefix(c, s) {
				return i
			}
		}
	}
	return -1
}

// wordPrefix reports whether some word of s starts with prefix. It keeps
// short keys such as "od" from matching inside other words.
func wordPrefix(s, prefix string) bool {
	for _, w := range strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '(' || r == ')' || r == '/' || r == ',' || r == '\n'
	}) {
		if strings.HasPrefix(w, prefix) {
			return true
		}
	}
	return false
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
