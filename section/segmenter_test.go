package section

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/kitsheet/model"
)

func docOf(texts ...string) *model.Document {
	doc := model.NewDocument()
	for _, t := range texts {
		doc.AddParagraph(&model.Paragraph{Text: t, Style: model.StyleBody})
	}
	return doc
}

func newSegmenter() *Segmenter {
	return NewSegmenter(DefaultVocabulary(), DefaultConfig())
}

func TestSegment_SingleHeading(t *testing.T) {
	for _, spec := range DefaultVocabulary() {
		for _, a := range spec.Aliases {
			t.Run(a, func(t *testing.T) {
				doc := docOf("Mouse KLK1 ELISA Kit", "lorem", strings.ToLower(a)+":", "body text")
				res := newSegmenter().Segment(doc)

				span := res.Get(spec.Name)
				require.NotNil(t, span)
				assert.Len(t, res.Headings, 1)
				assert.Equal(t, 2, span.Heading)
				assert.Equal(t, span.Heading+1, span.Start)
				assert.Equal(t, 4, span.End)
			})
		}
	}
}

func TestSegment_Partition(t *testing.T) {
	doc := docOf(
		"Title",
		"INTENDED USE",
		"For the quantitation of X.",
		"BACKGROUND",
		"X is a protein.",
		"More about X.",
		"Kit Components",
		"STORAGE:",
	)
	res := newSegmenter().Segment(doc)

	require.Len(t, res.Headings, 4)
	// Spans cover every paragraph after the first heading exactly once,
	// except the headings themselves.
	covered := make([]int, len(doc.Paragraphs()))
	for _, s := range res.Headings {
		for i := s.Start; i < s.End; i++ {
			covered[i]++
		}
		covered[s.Heading]++
	}
	for i := res.Headings[0].Heading; i < len(covered); i++ {
		assert.Equal(t, 1, covered[i], "paragraph %d", i)
	}
	assert.Equal(t, 0, covered[0])

	for i := 1; i < len(res.Headings); i++ {
		assert.Equal(t, res.Headings[i].Heading, res.Headings[i-1].End)
	}
	last := res.Headings[len(res.Headings)-1]
	assert.Equal(t, Storage, last.Name)
	assert.Equal(t, 0, last.Len())
	assert.Equal(t, len(doc.Paragraphs()), last.End)
}

func TestSegment_Absent(t *testing.T) {
	res := newSegmenter().Segment(docOf("nothing", "to see"))
	assert.Nil(t, res.Get(IntendedUse))
	assert.False(t, res.Has(IntendedUse))
	assert.Empty(t, res.Ordered())

	var nilResult *Result
	assert.Nil(t, nilResult.Get(IntendedUse))
}

func TestSegment_LengthGuard(t *testing.T) {
	long := "INTENDED USE " + strings.Repeat("x", 60)
	seg := NewSegmenter(DefaultVocabulary(), Config{Loose: true})

	res := seg.Segment(docOf(long))
	assert.Empty(t, res.Headings)
}

func TestSegment_BodyMentionIgnored(t *testing.T) {
	doc := docOf("The assay principle is simple.")
	doc.Paragraphs()[0].Bold = true

	assert.Empty(t, newSegmenter().Segment(doc).Headings)
}

func TestSegment_LooseMode(t *testing.T) {
	doc := model.NewDocument()
	doc.AddParagraph(&model.Paragraph{Text: "Kit Components (per 96 wells)", Bold: true})
	doc.AddParagraph(&model.Paragraph{Text: "Intended use of this product"})
	doc.AddParagraph(&model.Paragraph{Text: "MATERIALS REQUIRED BUT NOT PROVIDED BY US"})
	doc.AddParagraph(&model.Paragraph{Text: "PRINCIPLES"})

	exact := newSegmenter().Segment(doc)
	assert.Empty(t, exact.Headings)

	cfg := DefaultConfig()
	cfg.Loose = true
	loose := NewSegmenter(DefaultVocabulary(), cfg).Segment(doc)

	require.Len(t, loose.Headings, 2)
	assert.Equal(t, KitComponents, loose.Headings[0].Name)
	// Plain body text never matches loosely, however it is worded.
	assert.False(t, loose.Has(IntendedUse))
	assert.Equal(t, RequiredMaterials, loose.Headings[1].Name)
}

func TestSegment_ExactPreferredOverLoose(t *testing.T) {
	doc := model.NewDocument()
	doc.AddParagraph(&model.Paragraph{Text: "ASSAY PROCEDURE SUMMARY", Style: model.StyleHeading})

	cfg := DefaultConfig()
	cfg.Loose = true
	res := NewSegmenter(DefaultVocabulary(), cfg).Segment(doc)
	assert.True(t, res.Has(AssayProcedureSummary))
	assert.False(t, res.Has(AssayProtocol))
}

func TestSegment_DuplicateLastWriteWins(t *testing.T) {
	doc := docOf("STORAGE", "first", "BACKGROUND", "bg", "STORAGE", "second")
	res := newSegmenter().Segment(doc)

	span := res.Get(Storage)
	require.NotNil(t, span)
	assert.Equal(t, 4, span.Heading)
	require.Len(t, res.Duplicates, 1)
	assert.Equal(t, 0, res.Duplicates[0].Heading)
	assert.Len(t, res.Headings, 3)

	ordered := res.Ordered()
	require.Len(t, ordered, 2)
	assert.Equal(t, Background, ordered[0].Name)
	assert.Equal(t, Storage, ordered[1].Name)
}

func TestResult_SpanAt(t *testing.T) {
	res := newSegmenter().Segment(docOf("Title", "INTENDED USE", "a", "BACKGROUND", "b"))

	assert.Nil(t, res.SpanAt(0))
	assert.Nil(t, res.SpanAt(1))
	assert.Equal(t, IntendedUse, res.SpanAt(2).Name)
	assert.Equal(t, IntendedUse, res.SpanAt(3).Name)
	assert.Equal(t, Background, res.SpanAt(4).Name)
	assert.Equal(t, Background, res.SpanAt(5).Name)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Intended   Use: ", "INTENDED USE"},
		{"3. Assay Procedure", "ASSAY PROCEDURE"},
		{"IV. Storage.", "STORAGE"},
		{"A) Reagent Preparation", "REAGENT PREPARATION"},
		{"1.2 Data Analysis", "DATA ANALYSIS"},
		{"ASSAY", "ASSAY"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), tt.in)
	}
}

func TestFieldName(t *testing.T) {
	assert.Equal(t, "assay_principle", FieldName("ASSAY PRINCIPLE"))
	assert.Equal(t, "reagents_and_materials_provided", FieldName("REAGENTS AND MATERIALS PROVIDED"))
	assert.Equal(t, "intra_inter_assay_variability", FieldName("INTRA/INTER-ASSAY VARIABILITY"))
	assert.Equal(t, "", FieldName("  "))
}

func TestVocabulary_MergeAndLookup(t *testing.T) {
	base := DefaultVocabulary()
	merged := base.Merge(Vocabulary{
		{Name: Storage, Aliases: []string{"STORAGE INFORMATION"}, Target: "STORAGE INFORMATION"},
		{Name: "CHARACTERISTICS", Aliases: []string{"KEY FEATURES"}},
	})

	assert.Len(t, merged, len(base)+1)
	assert.Equal(t, "STORAGE INFORMATION", merged.Lookup("storage").Target)
	assert.Equal(t, "", base.Lookup(Storage).Target)
	assert.Nil(t, merged.Lookup("NOPE"))
	assert.Contains(t, merged.Names(), "CHARACTERISTICS")
}

func TestNewSegmenter_SharedAliasFirstWins(t *testing.T) {
	seg := NewSegmenter(Vocabulary{
		{Name: "A", Aliases: []string{"NOTES"}},
		{Name: "B", Aliases: []string{"NOTES"}},
	}, Config{})

	name, ok := seg.Match(&model.Paragraph{Text: "Notes"})
	require.True(t, ok)
	assert.Equal(t, "A", name)
}
