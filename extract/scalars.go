package extract

import (
	"regexp"
	"strings"

	"github.com/tsawler/kitsheet/model"
	"github.com/tsawler/kitsheet/section"
)

var catalogPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bcatalog\s*(?:number|no\.?|#)\s*:?\s*([A-Z0-9][A-Z0-9-]*)`),
	regexp.MustCompile(`(?i)\bcat\.?\s*(?:#|no\.?)\s*:?\s*([A-Z0-9][A-Z0-9-]*)`),
	regexp.MustCompile(`\b(EK\d+)`),
}

// scalarLabels recognizes the label of a specification row. Order matters:
// "cross-reactivity" must be seen before anything matching "reactivity".
var scalarLabels = []struct {
	field string
	match func(label string) bool
}{
	{FieldCrossReact, func(l string) bool { return strings.Contains(l, "cross") && strings.Contains(l, "reactiv") }},
	{FieldSensitivity, func(l string) bool { return strings.Contains(l, "sensitivity") }},
	{FieldDetectionRange, func(l string) bool {
		return strings.Contains(l, "detection range") || strings.Contains(l, "assay range") || l == "range"
	}},
	{FieldReactive, func(l string) bool { return strings.Contains(l, "species") }},
	{FieldStandard, func(l string) bool {
		return containsAny(l, "standard protein", "expression", "immunogen")
	}},
	{FieldSpecificity, func(l string) bool { return strings.Contains(l, "specificity") }},
}

// scalars sets kit_name, catalog_number and the specification scalars.
// Table rows are read before "Label: value" paragraphs; the first value
// found for a field wins.
func (x *extraction) scalars() {
	x.out.Set(TextField(FieldKitName, x.kitName()))
	x.out.Set(TextField(FieldCatalogNumber, x.catalogNumber()))

	found := make(map[string]string)
	for _, pair := range x.specPairs() {
		label := strings.ToLower(pair.label)
		for _, s := range scalarLabels {
			if s.match(label) {
				if _, ok := found[s.field]; !ok {
					found[s.field] = pair.value
				}
				break
			}
		}
	}
	for _, s := range scalarLabels {
		if x.out[s.field].Text != "" {
			continue
		}
		x.out.Set(TextField(s.field, found[s.field]))
	}
}

// specTables returns the tables that may hold specification rows: those of
// the overview and technical details sections, and unassigned ones.
func (x *extraction) specTables() []*model.Table {
	var out []*model.Table
	out = append(out, x.asg.Section(section.Overview)...)
	out = append(out, x.asg.Section(section.TechnicalDetails)...)
	if x.asg != nil {
		out = append(out, x.asg.Unassigned...)
	}
	return out
}

// specPairs returns label/value pairs from the specification tables, then
// from the paragraphs of the overview and technical details sections.
func (x *extraction) specPairs() []labelValue {
	var out []labelValue
	for _, t := range x.specTables() {
		out = append(out, tablePairs(t)...)
	}
	for _, name := range []string{section.Overview, section.TechnicalDetails} {
		s := x.span(name)
		if s == nil {
			continue
		}
		for _, text := range x.doc.ParagraphTexts(s.Start, s.End) {
			if pair, ok := paragraphPair(text); ok {
				out = append(out, pair)
			}
		}
	}
	return out
}

// kitName returns the title paragraph, the document title, or the first
// short paragraph naming an ELISA kit.
func (x *extraction) kitName() string {
	for _, p := range x.doc.Paragraphs() {
		if p.Style == model.StyleTitle && !p.IsEmpty() {
			return strings.TrimSpace(p.Text)
		}
	}
	if t := strings.TrimSpace(x.doc.Metadata.Title); t != "" {
		return t
	}
	for _, p := range x.doc.Paragraphs() {
		text := strings.TrimSpace(p.Text)
		if len(text) < 100 && strings.Contains(strings.ToUpper(text), "ELISA KIT") {
			return text
		}
	}
	return ""
}

// catalogNumber tries each catalog pattern over every paragraph and table
// row before moving on to the next pattern.
func (x *extraction) catalogNumber() string {
	texts := make([]string, 0, len(x.doc.Paragraphs()))
	for _, p := range x.doc.Paragraphs() {
		texts = append(texts, p.Text)
	}
	for _, t := range x.doc.Tables() {
		for r := range t.Rows {
			texts = append(texts, strings.Join(t.Rows[r], ": "))
		}
	}
	for _, re := range catalogPatterns {
		for _, text := range texts {
			if m := re.FindStringSubmatch(text); m != nil {
				return m[1]
			}
		}
	}
	return ""
}

// scalar returns an extracted text field, or its default.
func (x *extraction) scalar(name string) string {
	if text := x.out.Text(name); text != "" {
		return text
	}
	if f, ok := x.defaults.Get(name); ok {
		return f.Text
	}
	return ""
}

// propertyTable fills the named properties from label/value pairs, keeping
// the first value seen for each. Pairs whose label maps to no property are
// appended as extra rows when extras is set. It returns nil when no pair was
// used.
func propertyTable(names []string, pairs []labelValue, mapLabel func(string) string, extras bool) []Record {
	values := make(map[string]string)
	var extra []Record
	for _, pair := range pairs {
		prop := mapLabel(strings.ToLower(pair.label))
		if prop == "" {
			if extras && !hasProperty(extra, pair.label) && !contains(names, pair.label) {
				extra = append(extra, Record{"property": pair.label, "value": pair.value})
			}
			continue
		}
		if _, ok := values[prop]; !ok {
			values[prop] = pair.value
		}
	}
	if len(values) == 0 && len(extra) == 0 {
		return nil
	}
	out := make([]Record, 0, len(names)+len(extra))
	for _, name := range names {
		out = append(out, Record{"property": name, "value": values[name]})
	}
	return append(out, extra...)
}

func hasProperty(records []Record, label string) bool {
	for _, r := range records {
		if r["property"] == label {
			return true
		}
	}
	return false
}

func technicalProperty(l string) string {
	switch {
	case strings.Contains(l, "cross") || strings.Contains(l, "reactivity"):
		return "Cross-reactivity"
	case containsAny(l, "sensitivity", "range"):
		return ""
	case containsAny(l, "capture", "detection", "antibod"):
		return "Capture/Detection Antibodies"
	case strings.Contains(l, "specific"):
		return "Specificity"
	case containsAny(l, "standard", "recombin"):
		return "Standard Protein"
	}
	return ""
}

func specificationProperty(l string) string {
	switch {
	case strings.Contains(l, "cross"):
		return ""
	case strings.Contains(l, "uniprot"):
		return "Uniprot ID"
	case containsAny(l, "species", "reactivity"):
		return "Reactive Species"
	case strings.Contains(l, "name"):
		return "Product Name"
	case strings.Contains(l, "size"):
		return "Size"
	case strings.Contains(l, "description"):
		return "Description"
	case strings.Contains(l, "sensitivity"):
		return "Sensitivity"
	case strings.Contains(l, "range"):
		return "Detection Range"
	case strings.Contains(l, "storage"):
		return "Storage Instructions"
	}
	return ""
}

// technicalDetails builds the four-row technical details table. Rows left
// empty by the source take the specification scalars, then "N/A". A source
// with no technical rows at all yields nil, leaving the default table.
func (x *extraction) technicalDetails() []Record {
	out := propertyTable(technicalProperties, x.specPairs(), technicalProperty, false)
	if out == nil {
		return nil
	}
	fallback := map[string]string{
		"Specificity":      x.scalar(FieldSpecificity),
		"Standard Protein": x.scalar(FieldStandard),
		"Cross-reactivity": x.scalar(FieldCrossReact),
	}
	fillEmpty(out, fallback)
	return out
}

// specifications builds the overview specification table. Unknown labels
// found in overview tables are kept as extra rows.
func (x *extraction) specifications() []Record {
	var pairs []labelValue
	for _, t := range x.asg.Section(section.Overview) {
		pairs = append(pairs, tablePairs(t)...)
	}
	if s := x.span(section.Overview); s != nil {
		for _, text := range x.doc.ParagraphTexts(s.Start, s.End) {
			if pair, ok := paragraphPair(text); ok {
				pairs = append(pairs, pair)
			}
		}
	}
	out := propertyTable(specificationProperties, pairs, specificationProperty, true)
	if out == nil {
		return nil
	}
	fillEmpty(out, map[string]string{
		"Product Name":     x.scalar(FieldKitName),
		"Reactive Species": x.scalar(FieldReactive),
		"Sensitivity":      x.scalar(FieldSensitivity),
		"Detection Range":  x.scalar(FieldDetectionRange),
	})
	return out
}

func fillEmpty(records []Record, fallback map[string]string) {
	for _, r := range records {
		if r["value"] != "" {
			continue
		}
		if v := fallback[r["property"]]; v != "" {
			r["value"] = v
		} else {
			r["value"] = "N/A"
		}
	}
}
