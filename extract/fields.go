package extract

import (
	"sort"
)

// Canonical field names.
const (
	FieldKitName        = "kit_name"
	FieldCatalogNumber  = "catalog_number"
	FieldSensitivity    = "sensitivity"
	FieldDetectionRange = "detection_range"
	FieldReactive       = "reactive_species"
	FieldStandard       = "standard_protein"
	FieldCrossReact     = "cross_reactivity"

	FieldIntendedUse       = "intended_use"
	FieldBackground        = "background"
	FieldAssayPrinciple    = "assay_principle"
	FieldOverview          = "overview"
	FieldTechnicalText     = "technical_details_text"
	FieldStorage           = "storage"
	FieldPrecautions       = "precautions"
	FieldProceduralNotes   = "procedural_notes"
	FieldSampleCollection  = "sample_collection_notes"
	FieldSamplePreparation = "sample_preparation"
	FieldSampleDilution    = "sample_dilution_guideline"
	FieldReagentPrep       = "reagent_preparation"
	FieldDilutionStandard  = "dilution_of_standard"
	FieldProcedureSummary  = "assay_procedure_summary"
	FieldDataAnalysis      = "data_analysis"
	FieldRecovery          = "recovery"
	FieldSpecificity       = "specificity"
	FieldDisclaimer        = "disclaimer"

	FieldRequiredMaterials  = "required_materials"
	FieldAssayProtocol      = "assay_protocol"
	FieldPreparationsBefore = "preparations_before_assay"

	FieldReagents         = "reagents"
	FieldStandardCurve    = "standard_curve"
	FieldIntraPrecision   = "intra_assay_precision"
	FieldInterPrecision   = "inter_assay_precision"
	FieldReproducibility  = "reproducibility"
	FieldTechnicalDetails = "technical_details"
	FieldSpecifications   = "overview_specifications"
)

// Kind is the shape of a field value.
type Kind int

const (
	KindText Kind = iota
	KindList
	KindRecords
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindList:
		return "list"
	case KindRecords:
		return "records"
	default:
		return "text"
	}
}

// Record is one table row keyed by column name.
type Record map[string]string

// Field is one extracted value. Exactly one of Text, List or Records is
// meaningful, selected by Kind.
type Field struct {
	Name    string
	Kind    Kind
	Text    string
	List    []string
	Records []Record

	// Columns orders the record keys for display.
	Columns []string

	// Default is set when the value came from the defaults table.
	Default bool
}

// TextField creates a text field.
func TextField(name, text string) Field {
	return Field{Name: name, Kind: KindText, Text: text}
}

// ListField creates a list field.
func ListField(name string, items ...string) Field {
	return Field{Name: name, Kind: KindList, List: items}
}

// RecordsField creates a records field.
func RecordsField(name string, columns []string, records ...Record) Field {
	return Field{Name: name, Kind: KindRecords, Columns: columns, Records: records}
}

// IsEmpty reports whether the field carries no value.
func (f Field) IsEmpty() bool {
	switch f.Kind {
	case KindList:
		return len(f.List) == 0
	case KindRecords:
		return len(f.Records) == 0
	default:
		return f.Text == ""
	}
}

// Clone returns a deep copy of the field.
func (f Field) Clone() Field {
	out := f
	if f.List != nil {
		out.List = append([]string(nil), f.List...)
	}
	if f.Columns != nil {
		out.Columns = append([]string(nil), f.Columns...)
	}
	if f.Records != nil {
		out.Records = make([]Record, len(f.Records))
		for i, r := range f.Records {
			c := make(Record, len(r))
			for k, v := range r {
				c[k] = v
			}
			out.Records[i] = c
		}
	}
	return out
}

// Fields maps canonical field names to values.
type Fields map[string]Field

// Text returns a text field's value, or "".
func (fs Fields) Text(name string) string {
	return fs[name].Text
}

// List returns a list field's items, or nil.
func (fs Fields) List(name string) []string {
	return fs[name].List
}

// Records returns a records field's rows, or nil.
func (fs Fields) Records(name string) []Record {
	return fs[name].Records
}

// Names returns the field names in sorted order.
func (fs Fields) Names() []string {
	out := make([]string, 0, len(fs))
	for name := range fs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Set stores f under its name.
func (fs Fields) Set(f Field) {
	fs[f.Name] = f
}
