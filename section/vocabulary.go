package section

import "strings"

// Canonical section names.
const (
	IntendedUse           = "INTENDED USE"
	Background            = "BACKGROUND"
	AssayPrinciple        = "ASSAY PRINCIPLE"
	Overview              = "OVERVIEW"
	TechnicalDetails      = "TECHNICAL DETAILS"
	KitComponents         = "KIT COMPONENTS"
	RequiredMaterials     = "REQUIRED MATERIALS"
	Storage               = "STORAGE"
	Precautions           = "PRECAUTIONS"
	ProceduralNotes       = "PROCEDURAL NOTES"
	SampleCollection      = "SAMPLE COLLECTION"
	SamplePreparation     = "SAMPLE PREPARATION"
	SampleDilution        = "SAMPLE DILUTION"
	PreparationsBefore    = "PREPARATIONS BEFORE ASSAY"
	ReagentPreparation    = "REAGENT PREPARATION"
	DilutionOfStandard    = "DILUTION OF STANDARD"
	AssayProtocol         = "ASSAY PROTOCOL"
	AssayProcedureSummary = "ASSAY PROCEDURE SUMMARY"
	DataAnalysis          = "DATA ANALYSIS"
	StandardCurve         = "STANDARD CURVE"
	Precision             = "PRECISION"
	Reproducibility       = "REPRODUCIBILITY"
	Recovery              = "RECOVERY"
	Specificity           = "SPECIFICITY"
	Disclaimer            = "DISCLAIMER"
)

// Spec describes one canonical section: the surface spellings that open it
// and, optionally, the name it takes in another vendor's vocabulary.
type Spec struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
	Target  string   `yaml:"target,omitempty"`
}

// Vocabulary is an ordered set of section specs.
type Vocabulary []Spec

// Lookup returns the spec with the given canonical name, or nil.
func (v Vocabulary) Lookup(name string) *Spec {
	name = Normalize(name)
	for i := range v {
		if Normalize(v[i].Name) == name {
			return &v[i]
		}
	}
	return nil
}

// Names returns the canonical names in order.
func (v Vocabulary) Names() []string {
	out := make([]string, 0, len(v))
	for _, s := range v {
		out = append(out, s.Name)
	}
	return out
}

// Merge returns a copy of v where specs in other replace specs with the same
// name and new specs are appended.
func (v Vocabulary) Merge(other Vocabulary) Vocabulary {
	out := append(Vocabulary(nil), v...)
	for _, s := range other {
		replaced := false
		for i := range out {
			if Normalize(out[i].Name) == Normalize(s.Name) {
				out[i] = s
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, s)
		}
	}
	return out
}

// FieldName converts a section name to its placeholder form:
// "ASSAY PRINCIPLE" becomes "assay_principle".
func FieldName(name string) string {
	var sb strings.Builder
	underscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if underscore && sb.Len() > 0 {
				sb.WriteByte('_')
			}
			underscore = false
			sb.WriteRune(r)
		default:
			underscore = true
		}
	}
	return sb.String()
}

// DefaultVocabulary returns the section vocabulary shared by the supported
// datasheet layouts.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		{Name: IntendedUse, Aliases: []string{"INTENDED USE", "INTENDED USES", "APPLICATION", "APPLICATIONS"}},
		{Name: Background, Aliases: []string{"BACKGROUND", "INTRODUCTION", "BACKGROUND INFORMATION"}},
		{Name: AssayPrinciple, Aliases: []string{"ASSAY PRINCIPLE", "PRINCIPLE OF THE ASSAY", "TEST PRINCIPLE", "PRINCIPLE", "PRINCIPLE OF THE TEST"}, Target: "TEST PRINCIPLE"},
		{Name: Overview, Aliases: []string{"OVERVIEW", "PRODUCT OVERVIEW", "SPECIFICATIONS", "CHARACTERISTICS"}},
		{Name: TechnicalDetails, Aliases: []string{"TECHNICAL DETAILS", "TECHNICAL SPECIFICATIONS"}},
		{Name: KitComponents, Aliases: []string{"KIT COMPONENTS", "MATERIALS PROVIDED", "REAGENTS PROVIDED", "REAGENTS AND MATERIALS PROVIDED", "KIT CONTENTS"}, Target: "REAGENTS AND MATERIALS PROVIDED"},
		{Name: RequiredMaterials, Aliases: []string{"MATERIALS REQUIRED BUT NOT PROVIDED", "MATERIALS REQUIRED BUT NOT SUPPLIED", "MATERIALS REQUIRED", "REQUIRED MATERIALS", "OTHER SUPPLIES REQUIRED"}, Target: "OTHER SUPPLIES REQUIRED"},
		{Name: Storage, Aliases: []string{"STORAGE", "STORAGE INFORMATION", "STORAGE AND STABILITY", "STORAGE CONDITIONS"}},
		{Name: Precautions, Aliases: []string{"PRECAUTIONS", "SAFETY PRECAUTIONS", "WARNINGS AND PRECAUTIONS"}},
		{Name: ProceduralNotes, Aliases: []string{"PROCEDURAL NOTES", "GENERAL NOTES", "NOTES", "TECHNICAL HINTS"}, Target: "IMPORTANT NOTE"},
		{Name: SampleCollection, Aliases: []string{"SAMPLE COLLECTION AND STORAGE", "SAMPLE COLLECTION", "SAMPLE COLLECTION NOTES", "SPECIMEN COLLECTION"}},
		{Name: SamplePreparation, Aliases: []string{"SAMPLE PREPARATION", "SAMPLE PREPARATION AND STORAGE", "PREPARATION OF SAMPLES"}},
		{Name: SampleDilution, Aliases: []string{"SAMPLE DILUTION GUIDELINE", "SAMPLE DILUTION", "DILUTION OF SAMPLES"}},
		{Name: PreparationsBefore, Aliases: []string{"PREPARATIONS BEFORE ASSAY", "PREPARATION BEFORE ASSAY", "BEFORE YOU BEGIN"}},
		{Name: ReagentPreparation, Aliases: []string{"REAGENT PREPARATION", "PREPARATION OF REAGENTS", "REAGENT PREPARATION AND STORAGE"}},
		{Name: DilutionOfStandard, Aliases: []string{"DILUTION OF STANDARD", "STANDARD PREPARATION", "PREPARATION OF STANDARD", "STANDARD DILUTION"}},
		{Name: AssayProtocol, Aliases: []string{"ASSAY PROTOCOL", "ASSAY PROCEDURE", "PROCEDURE", "PROTOCOL"}, Target: "ASSAY PROCEDURE"},
		{Name: AssayProcedureSummary, Aliases: []string{"ASSAY PROCEDURE SUMMARY", "PROCEDURE SUMMARY", "SUMMARY"}},
		{Name: DataAnalysis, Aliases: []string{"DATA ANALYSIS", "CALCULATION OF RESULTS", "CALCULATIONS"}, Target: "CALCULATION OF RESULTS"},
		{Name: StandardCurve, Aliases: []string{"STANDARD CURVE", "TYPICAL DATA", "TYPICAL STANDARD CURVE", "STANDARD CURVE EXAMPLE"}},
		{Name: Precision, Aliases: []string{"PRECISION", "INTRA-ASSAY PRECISION", "INTER-ASSAY PRECISION", "VARIABILITY", "INTRA/INTER-ASSAY VARIABILITY"}},
		{Name: Reproducibility, Aliases: []string{"REPRODUCIBILITY"}},
		{Name: Recovery, Aliases: []string{"RECOVERY", "SPIKE RECOVERY"}, Target: "STABILITY"},
		{Name: Specificity, Aliases: []string{"SPECIFICITY", "CROSS-REACTIVITY", "CROSS REACTIVITY"}},
		{Name: Disclaimer, Aliases: []string{"DISCLAIMER"}},
	}
}
