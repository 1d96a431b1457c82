package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/kitsheet/model"
	"github.com/tsawler/kitsheet/section"
)

func segment(doc *model.Document) *section.Result {
	return section.NewSegmenter(section.DefaultVocabulary(), section.DefaultConfig()).Segment(doc)
}

func para(doc *model.Document, text string) {
	doc.AddParagraph(&model.Paragraph{Text: text, Style: model.StyleBody})
}

func TestClassify_KitComponentsScenario(t *testing.T) {
	doc := model.NewDocument()
	para(doc, "Mouse KLK1 ELISA Kit")
	para(doc, "KIT COMPONENTS")
	tbl := doc.AddTable(model.NewTableFromRows([][]string{{"Description", "Quantity"}, {"Standard", "2 vials"}}))
	para(doc, "STORAGE")

	res := segment(doc)
	a := New(Config{}).Classify(doc, res)

	assert.Same(t, tbl, a.Table(section.KitComponents))
	assert.Equal(t, ByFingerprint, a.Methods[tbl.Index])
	require.Len(t, res.Get(section.KitComponents).Tables, 1)
	assert.Empty(t, a.Unassigned)
}

func TestClassify_HeaderBeatsFirstColumn(t *testing.T) {
	doc := model.NewDocument()
	para(doc, "KIT COMPONENTS")
	tbl := doc.AddTable(model.NewTableFromRows([][]string{
		{"Component", "Quantity"},
		{"Capture Antibody", "1 vial"},
		{"Detection Antibody", "1 vial"},
	}))
	para(doc, "TECHNICAL DETAILS")
	tech := doc.AddTable(model.NewTableFromRows([][]string{
		{"Specificity", "Natural and recombinant"},
		{"Capture/Detection Antibodies", "Monoclonal"},
	}))

	a := New(Config{}).Classify(doc, segment(doc))

	assert.Same(t, tbl, a.Table(section.KitComponents))
	assert.Equal(t, []*model.Table{tech}, a.Section(section.TechnicalDetails))
}

func TestClassify_PositionFallback(t *testing.T) {
	doc := model.NewDocument()
	para(doc, "Title")
	before := doc.AddTable(model.NewTableFromRows([][]string{{"Lorem", "Ipsum"}}))
	para(doc, "DATA ANALYSIS")
	para(doc, "Average the duplicate readings.")
	after := doc.AddTable(model.NewTableFromRows([][]string{{"Step", "Action"}}))

	res := segment(doc)
	a := New(Config{}).Classify(doc, res)

	assert.Same(t, after, a.Table(section.DataAnalysis))
	assert.Equal(t, ByPosition, a.Methods[after.Index])
	require.Len(t, a.Unassigned, 1)
	assert.Same(t, before, a.Unassigned[0])
	assert.Equal(t, Unassigned, a.Methods[before.Index])
}

func TestClassify_FingerprintBeatsPosition(t *testing.T) {
	doc := model.NewDocument()
	para(doc, "BACKGROUND")
	para(doc, "KLK1 is a serine protease.")
	curve := doc.AddTable(model.NewTableFromRows([][]string{
		{"Concentration (pg/ml)", "0", "62.5", "125"},
		{"O.D.", "0.028", "0.061", "0.143"},
	}))

	res := segment(doc)
	a := New(Config{}).Classify(doc, res)

	assert.Same(t, curve, a.Table(section.StandardCurve))
	assert.Nil(t, a.Table(section.Background))
	assert.Empty(t, res.Get(section.Background).Tables)
}

func TestClassify_PrecisionSlots(t *testing.T) {
	header := []string{"Sample", "n", "Mean (pg/ml)", "Standard Deviation", "CV (%)"}
	doc := model.NewDocument()
	para(doc, "PRECISION")
	intra := doc.AddTable(model.NewTableFromRows([][]string{header, {"1", "16", "150", "9.15", "6.1%"}}))
	inter := doc.AddTable(model.NewTableFromRows([][]string{header, {"1", "24", "145", "10.15", "7.0%"}}))
	extra := doc.AddTable(model.NewTableFromRows([][]string{header}))
	repro := doc.AddTable(model.NewTableFromRows([][]string{{"Sample", "Lot 1", "Lot 2", "Lot 3", "Lot 4", "Mean", "CV (%)"}}))

	a := New(Config{}).Classify(doc, segment(doc))

	assert.Same(t, intra, a.Slot(SlotIntraAssay))
	assert.Same(t, inter, a.Slot(SlotInterAssay))
	assert.Equal(t, []*model.Table{intra, inter, extra}, a.Tables[section.Precision])
	assert.Same(t, repro, a.Table(section.Reproducibility))
}

func TestClassify_DetachedTables(t *testing.T) {
	doc := model.NewDocument()
	para(doc, "KIT COMPONENTS")
	para(doc, "")
	para(doc, "DATA ANALYSIS")
	para(doc, "Plot the curve.")
	para(doc, "")
	para(doc, "ASSAY PROTOCOL")
	para(doc, "Step   One  Two")

	first := doc.AddDetachedTable(model.NewTableFromRows([][]string{{"Alpha", "Beta"}}))
	second := doc.AddDetachedTable(model.NewTableFromRows([][]string{{"Gamma", "Delta"}}))
	repeated := doc.AddDetachedTable(model.NewTableFromRows([][]string{{"Step", "One Two"}}))

	res := segment(doc)
	a := New(Config{}).Classify(doc, res)

	assert.Same(t, first, a.Table(section.KitComponents))
	assert.Same(t, second, a.Table(section.DataAnalysis))
	assert.Same(t, repeated, a.Table(section.AssayProtocol))
	assert.Empty(t, a.Unassigned)
}

func TestClassify_NoSections(t *testing.T) {
	doc := model.NewDocument()
	para(doc, "just text")
	tbl := doc.AddTable(model.NewTableFromRows([][]string{{"x", "y"}}))

	a := New(Config{}).Classify(doc, segment(doc))
	assert.Equal(t, []*model.Table{tbl}, a.Unassigned)
	assert.Nil(t, a.Table(section.KitComponents))
	assert.Nil(t, a.Slot(SlotIntraAssay))

	var nilAssignment *Assignment
	assert.Nil(t, nilAssignment.Table(section.KitComponents))
}

func TestFingerprint_Matches(t *testing.T) {
	tests := []struct {
		name string
		fp   Fingerprint
		rows [][]string
		want bool
	}{
		{
			name: "technical details in first column",
			fp:   DefaultFingerprints()[0],
			rows: [][]string{{"Specificity", "Natural and recombinant"}, {"Capture/Detection Antibodies", "Monoclonal"}},
			want: true,
		},
		{
			name: "header only scope ignores column",
			fp:   Fingerprint{All: []string{"capture"}},
			rows: [][]string{{"x"}, {"Capture"}},
			want: false,
		},
		{
			name: "any group requires one hit per group",
			fp:   Fingerprint{Any: [][]string{{"Description"}, {"Qty", "Quantity"}}},
			rows: [][]string{{"DESCRIPTION", "qty"}},
			want: true,
		},
		{
			name: "any group missing",
			fp:   Fingerprint{Any: [][]string{{"Description"}, {"Qty"}}},
			rows: [][]string{{"Description", "Volume"}},
			want: false,
		},
		{
			name: "empty fingerprint never matches",
			fp:   Fingerprint{Section: "X"},
			rows: [][]string{{"anything"}},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.fp.Matches(model.NewTableFromRows(tt.rows)))
		})
	}

	assert.True(t, DefaultFingerprints()[2].MatchesHeader([]string{"", "Lot 1", "Lot 2"}))
}
