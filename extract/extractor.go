// Package extract pulls named fields out of a segmented kit datasheet.
//
// Each canonical field has a decomposition rule: free text joined from the
// paragraphs of a section, a list split on bullet and number markers, or
// records decomposed from the section's table. A field whose section or
// table is missing takes its value from an immutable [Defaults] table, so
// [Extractor.Extract] always returns a complete set of fields and never
// fails.
package extract

import (
	"strings"

	"go.uber.org/zap"

	"github.com/tsawler/kitsheet/classify"
	"github.com/tsawler/kitsheet/model"
	"github.com/tsawler/kitsheet/section"
)

// Config holds configuration for field extraction
type Config struct {
	// Defaults supplies fallback values.
	// Default: NewDefaults()
	Defaults *Defaults

	// Logger receives one debug entry per defaulted field.
	// Default: no-op
	Logger *zap.Logger
}

// Extractor applies the per-field rules.
type Extractor struct {
	defaults *Defaults
	logger   *zap.Logger
}

// New creates an extractor.
func New(config Config) *Extractor {
	e := &Extractor{
		defaults: config.Defaults,
		logger:   config.Logger,
	}
	if e.defaults == nil {
		e.defaults = NewDefaults()
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	return e
}

// textRules maps free-text fields to the section they are read from.
var textRules = []struct {
	field   string
	section string
}{
	{FieldBackground, section.Background},
	{FieldAssayPrinciple, section.AssayPrinciple},
	{FieldOverview, section.Overview},
	{FieldTechnicalText, section.TechnicalDetails},
	{FieldStorage, section.Storage},
	{FieldPrecautions, section.Precautions},
	{FieldProceduralNotes, section.ProceduralNotes},
	{FieldSampleCollection, section.SampleCollection},
	{FieldSamplePreparation, section.SamplePreparation},
	{FieldSampleDilution, section.SampleDilution},
	{FieldReagentPrep, section.ReagentPreparation},
	{FieldDilutionStandard, section.DilutionOfStandard},
	{FieldProcedureSummary, section.AssayProcedureSummary},
	{FieldDataAnalysis, section.DataAnalysis},
	{FieldRecovery, section.Recovery},
	{FieldSpecificity, section.Specificity},
	{FieldDisclaimer, section.Disclaimer},
}

// extraction carries the inputs of one Extract call.
type extraction struct {
	doc      *model.Document
	seg      *section.Result
	asg      *classify.Assignment
	defaults *Defaults
	out      Fields
}

// Extract returns every field with a rule or a default. seg and asg may be
// nil, in which case every section and table is treated as absent.
func (e *Extractor) Extract(doc *model.Document, seg *section.Result, asg *classify.Assignment) Fields {
	if doc == nil {
		doc = model.NewDocument()
	}
	x := &extraction{doc: doc, seg: seg, asg: asg, defaults: e.defaults, out: make(Fields)}

	for _, rule := range textRules {
		x.out.Set(TextField(rule.field, x.sectionText(rule.section)))
	}
	x.out.Set(TextField(FieldIntendedUse, x.intendedUse()))

	x.out.Set(ListField(FieldRequiredMaterials, x.requiredMaterials()...))
	x.out.Set(ListField(FieldAssayProtocol, splitSteps(x.sectionLines(section.AssayProtocol))...))
	x.out.Set(ListField(FieldPreparationsBefore, x.preparations()...))

	reagents, columns := x.reagents()
	x.out.Set(RecordsField(FieldReagents, columns, reagents...))
	x.out.Set(RecordsField(FieldStandardCurve, StandardCurveColumns, curveRecords(x.table(section.StandardCurve))...))
	intra, inter := x.precision()
	x.out.Set(RecordsField(FieldIntraPrecision, PrecisionColumns, intra...))
	x.out.Set(RecordsField(FieldInterPrecision, PrecisionColumns, inter...))
	repro, columns := reproducibilityRecords(x.table(section.Reproducibility))
	x.out.Set(RecordsField(FieldReproducibility, columns, repro...))

	x.scalars()
	x.out.Set(RecordsField(FieldTechnicalDetails, PropertyColumns, x.technicalDetails()...))
	x.out.Set(RecordsField(FieldSpecifications, PropertyColumns, x.specifications()...))

	e.fillDefaults(x.out)
	return x.out
}

// fillDefaults replaces empty fields with their defaults and adds defaulted
// fields that no rule produced.
func (e *Extractor) fillDefaults(fs Fields) {
	for _, name := range e.defaults.Names() {
		f, ok := fs[name]
		if ok && !f.IsEmpty() {
			continue
		}
		def, _ := e.defaults.Get(name)
		fs.Set(def)
		e.logger.Debug("field defaulted", zap.String("field", name))
	}
	for name, f := range fs {
		if f.Kind == KindList && f.List == nil {
			f.List = []string{}
			fs[name] = f
		}
		if f.Kind == KindRecords && f.Records == nil {
			f.Records = []Record{}
			fs[name] = f
		}
	}
}

func (x *extraction) span(name string) *section.Span {
	return x.seg.Get(name)
}

func (x *extraction) table(name string) *model.Table {
	return x.asg.Table(name)
}

func (x *extraction) sectionText(name string) string {
	s := x.span(name)
	if s == nil {
		return ""
	}
	return joinParagraphs(x.doc.ParagraphTexts(s.Start, s.End))
}

// sectionLines returns the lines of a section. A paragraph holding line
// breaks contributes one line per break; only its first line carries the
// paragraph's list flag.
func (x *extraction) sectionLines(name string) []line {
	s := x.span(name)
	if s == nil {
		return nil
	}
	var out []line
	for i := s.Start; i < s.End; i++ {
		p := x.doc.Paragraph(i)
		if p == nil {
			break
		}
		for j, text := range strings.Split(p.Text, "\n") {
			out = append(out, line{text: text, listed: j == 0 && p.Style == model.StyleListItem})
		}
	}
	return out
}

// intendedUse reads the INTENDED USE section. Without one, the first
// paragraph of the assay principle is used when it states what the kit
// quantifies, then any paragraph opening with "For the quantitation of".
func (x *extraction) intendedUse() string {
	if text := x.sectionText(section.IntendedUse); text != "" {
		return text
	}
	first, _ := SplitFirstParagraph(x.sectionText(section.AssayPrinciple))
	lower := strings.ToLower(first)
	if strings.Contains(lower, "intended") || strings.Contains(lower, "quantitat") {
		return first
	}
	for _, p := range x.doc.Paragraphs() {
		if text := strings.TrimSpace(p.Text); strings.HasPrefix(text, "For the quantitation of") {
			return text
		}
	}
	return ""
}

// requiredMaterials splits the section into items. Items shorter than six
// characters are dropped. When the paragraphs give nothing, the cells of the
// section's table are used.
func (x *extraction) requiredMaterials() []string {
	var out []string
	seen := make(map[string]bool)
	add := func(item string) {
		item = strings.TrimSpace(item)
		if len(item) <= 5 || seen[item] {
			return
		}
		seen[item] = true
		out = append(out, item)
	}

	for _, item := range splitItems(x.sectionLines(section.RequiredMaterials)) {
		for _, part := range strings.Split(item, "•") {
			add(part)
		}
	}
	if len(out) > 0 {
		return out
	}
	if t := x.table(section.RequiredMaterials); t != nil {
		for r := range t.Rows {
			for c := range t.Rows[r] {
				cell := t.Cell(r, c)
				if cell == "" || Number(cell) == cell || isMaterialsHeading(cell) {
					continue
				}
				stripped, _ := stripMarker(cell)
				add(stripped)
			}
		}
	}
	return out
}

func isMaterialsHeading(s string) bool {
	return containsAny(strings.ToLower(s), "materials required", "not provided", "not supplied")
}

// preparations reads PREPARATIONS BEFORE ASSAY. Without one, the reagent
// preparation paragraphs are used behind a short lead-in.
func (x *extraction) preparations() []string {
	if items := splitItems(x.sectionLines(section.PreparationsBefore)); len(items) > 0 {
		return items
	}
	prep := x.sectionText(section.ReagentPreparation)
	if prep == "" {
		return nil
	}
	out := []string{"Please prepare all reagents before starting the assay."}
	return append(out, strings.Split(prep, "\n\n")...)
}

// reagents decomposes the kit components table. Without one, "name: amount"
// paragraphs of the section are used.
func (x *extraction) reagents() ([]Record, []string) {
	for _, t := range x.asg.Section(section.KitComponents) {
		if records, columns := reagentRecords(t); len(records) > 0 {
			return records, columns
		}
	}

	var out []Record
	if s := x.span(section.KitComponents); s != nil {
		for _, text := range x.doc.ParagraphTexts(s.Start, s.End) {
			pair, ok := paragraphPair(text)
			if !ok || isSpecLabel(pair.label) || containsAny(strings.ToLower(pair.label), "instruction", "note", "method", "procedure") {
				continue
			}
			out = append(out, Record{"name": pair.label, "quantity": pair.value})
		}
	}
	return out, []string{"name", "quantity"}
}

// precision reads the intra- and inter-assay tables from their slots, or
// from the first two precision tables when slots were not filled.
func (x *extraction) precision() (intra, inter []Record) {
	it, et := x.asg.Slot(classify.SlotIntraAssay), x.asg.Slot(classify.SlotInterAssay)
	tables := x.asg.Section(section.Precision)
	if it == nil && len(tables) > 0 {
		it = tables[0]
	}
	if et == nil && len(tables) > 1 {
		et = tables[1]
	}
	return precisionRecords(it), precisionRecords(et)
}
