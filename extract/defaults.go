package extract

import "sort"

// NotAvailable is the default for free-text sections with no documented
// fallback.
const NotAvailable = "Information not available in source document."

// Column sets of the records fields.
var (
	ReagentColumns         = []string{"name", "quantity", "volume", "storage"}
	StandardCurveColumns   = []string{"concentration", "od"}
	PrecisionColumns       = []string{"sample", "n", "mean", "std_dev", "cv"}
	ReproducibilityColumns = []string{"name", "sample1", "sample2", "sample3"}
	PropertyColumns        = []string{"property", "value"}
)

// Defaults is an immutable table of per-field fallback values. Get always
// returns a copy, so callers cannot change the table through a result.
type Defaults struct {
	fields map[string]Field
}

// NewDefaults creates a defaults table from the built-in values, with the
// given fields replacing built-in entries of the same name.
func NewDefaults(overrides ...Field) *Defaults {
	d := &Defaults{fields: make(map[string]Field)}
	for _, f := range builtinDefaults() {
		f.Default = true
		d.fields[f.Name] = f
	}
	for _, f := range overrides {
		f = f.Clone()
		f.Default = true
		d.fields[f.Name] = f
	}
	return d
}

// With returns a new table with fields replacing entries of the same name.
// The receiver is not modified.
func (d *Defaults) With(fields ...Field) *Defaults {
	out := &Defaults{fields: make(map[string]Field, len(d.fields))}
	for name, f := range d.fields {
		out.fields[name] = f
	}
	for _, f := range fields {
		f = f.Clone()
		f.Default = true
		out.fields[f.Name] = f
	}
	return out
}

// Get returns a copy of the default for name.
func (d *Defaults) Get(name string) (Field, bool) {
	f, ok := d.fields[name]
	if !ok {
		return Field{}, false
	}
	return f.Clone(), true
}

// Names returns the field names with a default, sorted.
func (d *Defaults) Names() []string {
	out := make([]string, 0, len(d.fields))
	for name := range d.fields {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func builtinDefaults() []Field {
	return []Field{
		TextField(FieldKitName, "ELISA Kit"),
		TextField(FieldCatalogNumber, "N/A"),
		TextField(FieldSensitivity, defaultSensitivity),
		TextField(FieldDetectionRange, defaultRange),
		TextField(FieldReactive, "N/A"),
		TextField(FieldStandard, "N/A"),
		TextField(FieldCrossReact, defaultCrossReactivity),
		TextField(FieldSpecificity, defaultSpecificity),

		TextField(FieldIntendedUse, "For research use only. Not for use in diagnostic procedures."),
		TextField(FieldBackground, NotAvailable),
		TextField(FieldAssayPrinciple, defaultPrinciple),
		TextField(FieldOverview, "Overview of the complete kit components and storage conditions."),
		TextField(FieldTechnicalText, ""),
		TextField(FieldStorage, "Store the unopened kit at 2-8°C. Refer to the kit components table for the storage of individual reagents."),
		TextField(FieldPrecautions, NotAvailable),
		TextField(FieldProceduralNotes, defaultProceduralNotes),
		TextField(FieldSampleCollection, defaultSampleCollection),
		TextField(FieldSamplePreparation, defaultSamplePreparation),
		TextField(FieldSampleDilution, defaultSampleDilution),
		TextField(FieldReagentPrep, defaultReagentPreparation),
		TextField(FieldDilutionStandard, defaultDilutionOfStandard),
		TextField(FieldProcedureSummary, NotAvailable),
		TextField(FieldDataAnalysis, defaultDataAnalysis),
		TextField(FieldRecovery, NotAvailable),
		TextField(FieldDisclaimer, "This product is for research use only and is not intended for diagnostic or therapeutic procedures."),

		ListField(FieldRequiredMaterials,
			"Microplate reader capable of measuring absorbance at 450 nm",
			"Automated plate washer (optional)",
			"Adjustable pipettes and pipette tips capable of precisely dispensing volumes",
			"Tubes for sample preparation",
			"Deionized or distilled water",
		),
		ListField(FieldAssayProtocol, defaultProtocol...),
		ListField(FieldPreparationsBefore,
			"Please prepare all reagents and samples before starting the assay. Allow all kit components to reach room temperature before use.",
		),

		RecordsField(FieldReagents, ReagentColumns,
			Record{"name": "Pre-coated Microplate", "quantity": "1", "volume": "96 wells", "storage": "2-8°C"},
			Record{"name": "Standard", "quantity": "2", "volume": "1 vial", "storage": "-20°C"},
			Record{"name": "Biotinylated Detection Antibody", "quantity": "1", "volume": "130 μL", "storage": "2-8°C"},
			Record{"name": "Avidin-HRP Conjugate", "quantity": "1", "volume": "130 μL", "storage": "2-8°C"},
			Record{"name": "Sample Diluent", "quantity": "1", "volume": "30 mL", "storage": "2-8°C"},
			Record{"name": "Wash Buffer Concentrate", "quantity": "1", "volume": "30 mL", "storage": "2-8°C"},
		),
		RecordsField(FieldStandardCurve, StandardCurveColumns, curve(
			[]string{"0", "62.5", "125", "250", "500", "1000", "2000", "4000"},
			[]string{"0.028", "0.061", "0.143", "0.227", "0.405", "0.631", "1.118", "1.902"},
		)...),
		RecordsField(FieldIntraPrecision, PrecisionColumns,
			Record{"sample": "1", "n": "16", "mean": "150", "std_dev": "9.15", "cv": "6.1%"},
			Record{"sample": "2", "n": "16", "mean": "602", "std_dev": "43.94", "cv": "7.3%"},
			Record{"sample": "3", "n": "16", "mean": "1476", "std_dev": "116.6", "cv": "7.9%"},
		),
		RecordsField(FieldInterPrecision, PrecisionColumns,
			Record{"sample": "1", "n": "24", "mean": "145", "std_dev": "10.15", "cv": "7.0%"},
			Record{"sample": "2", "n": "24", "mean": "618", "std_dev": "49.44", "cv": "8.0%"},
			Record{"sample": "3", "n": "24", "mean": "1426", "std_dev": "128.34", "cv": "9.0%"},
		),
		RecordsField(FieldReproducibility, ReproducibilityColumns,
			Record{"name": "Lot 1", "sample1": "150", "sample2": "602", "sample3": "1476"},
			Record{"name": "Lot 2", "sample1": "154", "sample2": "649", "sample3": "1672"},
			Record{"name": "Lot 3", "sample1": "170", "sample2": "645", "sample3": "1722"},
			Record{"name": "Lot 4", "sample1": "150", "sample2": "637", "sample3": "1744"},
			Record{"name": "Mean", "sample1": "156", "sample2": "633", "sample3": "1654"},
			Record{"name": "Std Dev", "sample1": "8.24", "sample2": "18.55", "sample3": "118.34"},
			Record{"name": "CV (%)", "sample1": "5.2%", "sample2": "2.9%", "sample3": "7.2%"},
		),
		RecordsField(FieldTechnicalDetails, PropertyColumns, properties(technicalProperties, map[string]string{
			"Specificity":      defaultSpecificity,
			"Cross-reactivity": defaultCrossReactivity,
		})...),
		RecordsField(FieldSpecifications, PropertyColumns, properties(specificationProperties, map[string]string{
			"Product Name":    "ELISA Kit",
			"Sensitivity":     defaultSensitivity,
			"Detection Range": defaultRange,
		})...),
	}
}

func curve(conc, od []string) []Record {
	out := make([]Record, len(conc))
	for i := range conc {
		out[i] = Record{"concentration": conc[i], "od": od[i]}
	}
	return out
}

func properties(names []string, values map[string]string) []Record {
	out := make([]Record, len(names))
	for i, name := range names {
		v := values[name]
		if v == "" {
			v = "N/A"
		}
		out[i] = Record{"property": name, "value": v}
	}
	return out
}

const (
	defaultSensitivity     = "<12 pg/ml"
	defaultRange           = "62.5 pg/ml - 4,000 pg/ml"
	defaultSpecificity     = "Natural and recombinant forms of the target protein."
	defaultCrossReactivity = "No significant cross-reactivity or interference between the target protein and its analogs was observed."
)

const defaultPrinciple = `This ELISA employs a specific antibody against the target protein coated on a 96-well strip plate. The detection antibody is a biotinylated antibody specific for the target protein. The capture antibody is monoclonal antibody and the detection antibody is polyclonal antibody.

To measure the target protein, add standards and samples to the wells, then add the biotinylated detection antibody. Wash the wells with PBS or TBS buffer, and add Avidin-Biotin-Peroxidase Complex (ABC-HRP). Wash away the unbounded ABC-HRP with PBS or TBS buffer and add TMB. TMB is substrate for HRP and will be catalyzed to produce a blue color product, which changes into yellow after adding acidic stop solution. The absorbance of the yellow product at 450nm is linearly proportional to the target protein in the sample.`

const defaultProceduralNotes = `1. When mixing or reconstituting protein solutions, always avoid foaming.
2. To avoid cross-contamination, change pipette tips between additions of each standard level, between sample additions, and between reagent additions.
3. Pre-rinse the pipette tip when pipetting.
4. Pipette standards and samples to the bottom of the wells.
5. Add the reagents to the sides of the well to avoid contamination.`

const defaultReagentPreparation = `Bring all reagents to room temperature before use.

Wash Buffer: Dilute Wash Buffer (25X) with distilled water. For example, if preparing 500 ml of Wash Buffer, dilute 20 ml of Wash Buffer (25X) into 480 ml of distilled water.

Standard: Reconstitute the standard with standard diluent according to the label instructions. This reconstitution produces a stock solution. Let the standard stand for a minimum of 15 minutes with gentle agitation prior to making dilutions.

Detection Reagent A and B: Dilute to the working concentration using Assay Diluent A and B, respectively.`

const defaultDilutionOfStandard = `1. Label 7 tubes, one for each standard: 4000 pg/ml, 2000 pg/ml, 1000 pg/ml, 500 pg/ml, 250 pg/ml, 125 pg/ml, and 62.5 pg/ml.
2. Pipette 300 µl of the Sample Diluent into each tube.
3. Pipette 300 µl of the reconstituted standard into the first tube and mix to create the 4000 pg/ml standard.
4. Pipette 300 µl from the 4000 pg/ml tube into the second tube and mix to create the 2000 pg/ml standard.
5. Continue this process for the remaining tubes.
6. The Sample Diluent serves as the zero standard (0 pg/ml).`

const defaultSamplePreparation = `Centrifuge samples for 20 minutes at 1000×g at 2-8°C within 30 minutes of collection. Collect supernatant and assay immediately or store samples in aliquot at -20°C or -80°C for later use. Avoid repeated freeze/thaw cycles.

Serum: Allow samples to clot for 2 hours at room temperature or overnight at 4°C before centrifugation. Separate the serum.

Plasma: Collect plasma using EDTA or heparin as an anticoagulant. Centrifuge for 20 minutes at 1000×g within 30 minutes of collection.

Cell culture supernatant: Remove particulates by centrifugation and assay immediately or aliquot and store at -20°C.`

const defaultSampleCollection = `1. Samples to be used within 5 days may be stored at 4°C, otherwise samples must be stored at -20°C (≤1 month) or -80°C (≤2 months) to avoid loss of bioactivity and contamination.
2. When performing the assay, the use of freshly collected samples is strongly recommended.
3. Avoid repeated freeze-thaw cycles.
4. Hemolyzed samples are not suitable for use in this assay.
5. Do not use heat-treated specimens.`

const defaultSampleDilution = `The user needs to estimate the concentration of the target protein in the sample and select a proper dilution factor so that the diluted target protein concentration falls near the middle of the linear regime in the standard curve. Dilute the sample using provided diluent buffer. The following is a guideline for sample dilution:

1. High target protein concentration (40-400 ng/ml): Dilute 1:100
2. Medium target protein concentration (4-40 ng/ml): Dilute 1:10
3. Low target protein concentration (62.5-4000 pg/ml): Dilute 1:2
4. Very low target protein concentration (≤62.5 pg/ml): No dilution necessary, or dilute 1:2

Preliminary experiment may be performed to determine the dilution factor.`

const defaultDataAnalysis = `Calculate the mean absorbance for each set of duplicate standards, controls and samples. Subtract the average zero standard optical density. Plot a standard curve by plotting the mean absorbance for each standard on the y-axis against the concentration on the x-axis and draw a best fit curve through the points on the graph.

If samples have been diluted, the concentration read from the standard curve must be multiplied by the dilution factor.`

var defaultProtocol = []string{
	"Prepare all reagents, working standards, and samples as directed in the previous sections.",
	"Determine the number of wells to be used and put any remaining wells and the desiccant back into the pouch and seal the ziploc, store unused wells at 4°C.",
	"Add 100 μl of standard and sample per well. Cover with the Plate sealer. Incubate for 2 hours at 37°C.",
	"Remove the liquid of each well, don't wash.",
	"Add 100 μl of Biotin-antibody (1x) to each well. Cover with the Plate sealer. Incubate for 1 hour at 37°C.",
	"Aspirate each well and wash, repeating the process two times for a total of three washes. Wash by filling each well with Wash Buffer (200 μl) using a squirt bottle, multi-channel pipette, manifold dispenser, or autowasher, and let it stand for 2 minutes, complete removal of liquid at each step is essential to good performance. After the last wash, remove any remaining Wash Buffer by aspirating or decanting. Invert the plate and blot it against clean paper towels.",
	"Add 100 μl of HRP-avidin (1x) to each well. Cover the microtiter plate with a new adhesive strip. Incubate for 1 hour at 37°C.",
	"Repeat the aspiration/wash process for five times as in step 6.",
	"Add 90 μl of TMB Substrate to each well. Incubate for 15-30 minutes at 37°C. Protect from light.",
	"Add 50 μl of Stop Solution to each well, gently tap the plate to ensure thorough mixing.",
	"Determine the optical density of each well within 5 minutes, using a microplate reader set to 450 nm.",
}

var technicalProperties = []string{
	"Capture/Detection Antibodies",
	"Specificity",
	"Standard Protein",
	"Cross-reactivity",
}

var specificationProperties = []string{
	"Product Name",
	"Reactive Species",
	"Size",
	"Description",
	"Sensitivity",
	"Detection Range",
	"Storage Instructions",
	"Uniprot ID",
}
