package postprocess

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/kitsheet/classify"
	"github.com/tsawler/kitsheet/cleanup"
	"github.com/tsawler/kitsheet/docx"
	"github.com/tsawler/kitsheet/internal/docxtest"
	"github.com/tsawler/kitsheet/model"
	"github.com/tsawler/kitsheet/section"
)

var kitTable = classify.Fingerprint{
	Section: section.KitComponents,
	Any:     [][]string{{"Reagent", "Component"}, {"Quantity", "Volume"}},
}

func openDoc(t *testing.T, body string, extra map[string]string) *docx.Package {
	t.Helper()
	data, err := docxtest.Build(body, extra)
	require.NoError(t, err)
	pkg, err := docx.OpenBytes(data)
	require.NoError(t, err)
	return pkg
}

// snapshot serializes the parts a pass may touch.
func snapshot(pkg *docx.Package) string {
	s := string(pkg.Body().Bytes())
	for _, part := range pkg.Headers() {
		s += string(part.Tree.Bytes())
	}
	for _, part := range pkg.Footers() {
		s += string(part.Tree.Bytes())
	}
	return s
}

func blockSummary(pkg *docx.Package) []string {
	var out []string
	for _, b := range pkg.Document().Blocks {
		out = append(out, b.GetText())
	}
	return out
}

func vendorCleaner(t *testing.T) *cleanup.Cleaner {
	t.Helper()
	c, err := cleanup.New(cleanup.DefaultRules().Merge(cleanup.Rules{
		Replacements: []cleanup.Replacement{
			{From: "Boster", To: "Innovative Research", Variants: true},
		},
	}))
	require.NoError(t, err)
	return c
}

const sampleFooter = `word/footer1.xml`

func sampleBody() string {
	return docxtest.P("Mouse KLK1 ELISA Kit") +
		docxtest.Heading("STANDARD CURVE") +
		docxtest.P("Curve data below.") +
		docxtest.Heading("KIT COMPONENTS") +
		docxtest.P("The kit contains:") +
		docxtest.Heading("ASSAY PRINCIPLE") +
		docxtest.Runs("Made by Bos", "ter® in Wuhan.") +
		docxtest.Table([]string{"Reagent", "Quantity"}, []string{"Standard", "2 vials"})
}

func samplePasses(t *testing.T) []Pass {
	return []Pass{
		MoveTable{Section: section.KitComponents, Fingerprint: kitTable},
		ReorderSections{Order: []string{section.AssayPrinciple, section.KitComponents, section.StandardCurve}},
		RewriteFooter{Lines: []string{"www.innov-research.com", "Ph: 248.896.0145 | Fx: 248.896.0149"}, Font: "Calibri", Size: 16, Align: "right"},
		NormalizeFonts{Family: "Calibri", Size: 22, Line: 276, KeepSizeStyles: []string{"Title"}},
		ReplaceVendor{Cleaner: vendorCleaner(t)},
	}
}

func TestPasses_Idempotent(t *testing.T) {
	for _, pass := range samplePasses(t) {
		t.Run(pass.Name(), func(t *testing.T) {
			pkg := openDoc(t, sampleBody(), map[string]string{
				sampleFooter: docxtest.Footer(docxtest.P("Boster Biological Technology")),
			})
			require.NoError(t, pass.Apply(pkg))
			once := snapshot(pkg)
			require.NoError(t, pass.Apply(pkg))
			assert.Equal(t, once, snapshot(pkg))
		})
	}
}

func TestMoveTable(t *testing.T) {
	pkg := openDoc(t, sampleBody(), nil)
	require.NoError(t, MoveTable{Section: section.KitComponents, Fingerprint: kitTable}.Apply(pkg))

	blocks := pkg.Document().Blocks
	require.Len(t, blocks, 8)
	assert.Equal(t, "KIT COMPONENTS", blocks[3].GetText())
	tbl, ok := blocks[4].(*model.Table)
	require.True(t, ok)
	assert.Equal(t, []string{"Reagent", "Quantity"}, tbl.Header())
	assert.Equal(t, "The kit contains:", blocks[5].GetText())
}

func TestMoveTable_MissingHeading(t *testing.T) {
	pkg := openDoc(t, docxtest.P("No headings")+docxtest.Table([]string{"Reagent", "Quantity"}), nil)
	before := snapshot(pkg)
	require.NoError(t, MoveTable{Section: section.KitComponents, Fingerprint: kitTable}.Apply(pkg))
	assert.Equal(t, before, snapshot(pkg))
}

func TestReorderSections(t *testing.T) {
	pkg := openDoc(t,
		docxtest.P("Title line")+
			docxtest.Heading("STANDARD CURVE")+docxtest.P("curve")+
			docxtest.Heading("UNLISTED HEADING")+docxtest.P("not a section")+
			docxtest.Heading("DISCLAIMER")+docxtest.P("Research use only.")+
			docxtest.Heading("ASSAY PRINCIPLE")+docxtest.P("Sandwich method."),
		nil)

	pass := ReorderSections{Order: []string{section.AssayPrinciple, section.StandardCurve}}
	require.NoError(t, pass.Apply(pkg))

	assert.Equal(t, []string{
		"Title line",
		"ASSAY PRINCIPLE", "Sandwich method.",
		"DISCLAIMER", "Research use only.",
		"STANDARD CURVE", "curve", "UNLISTED HEADING", "not a section",
	}, blockSummary(pkg))
	assert.NotNil(t, pkg.Body().Child("sectPr"))
	assert.True(t, pkg.Body().Elements()[len(pkg.Body().Elements())-1].Is("sectPr"))
}

func TestRewriteFooter(t *testing.T) {
	pkg := openDoc(t, docxtest.P("Body"), map[string]string{
		sampleFooter:       docxtest.Footer(docxtest.P("Old line one") + docxtest.P("Old line two")),
		"word/footer2.xml": docxtest.Footer(docxtest.P("Other")),
	})
	pass := RewriteFooter{Lines: []string{"Innovative Research, Inc."}, Font: "Calibri", Size: 52, Align: "right"}
	require.NoError(t, pass.Apply(pkg))

	for _, part := range pkg.Footers() {
		paras := part.Root().ChildrenNamed("p")
		require.Len(t, paras, 1)
		assert.Equal(t, "Innovative Research, Inc.", docx.ParagraphText(paras[0]))
		assert.Equal(t, "right", paras[0].Child("pPr").Child("jc").GetAttr("val"))
		run := docx.Runs(paras[0])[0]
		assert.Equal(t, "Calibri", run.Child("rPr").Child("rFonts").GetAttr("ascii"))
		assert.Equal(t, "52", run.Child("rPr").Child("sz").GetAttr("val"))
	}
}

func TestNormalizeFonts(t *testing.T) {
	pkg := openDoc(t,
		docxtest.Styled("Title", "Kit")+
			docxtest.P("Body text")+
			docxtest.Table([]string{"Cell"}),
		nil)
	pass := NormalizeFonts{Family: "Calibri", Size: 22, Line: 276, KeepSizeStyles: []string{"Title"}}
	require.NoError(t, pass.Apply(pkg))

	paras := docx.AllParagraphs(pkg.Body())
	require.Len(t, paras, 3)
	for _, p := range paras {
		spacing := p.Child("pPr").Child("spacing")
		assert.Equal(t, "276", spacing.GetAttr("line"))
		assert.Equal(t, "auto", spacing.GetAttr("lineRule"))
		run := docx.Runs(p)[0]
		assert.Equal(t, "Calibri", run.Child("rPr").Child("rFonts").GetAttr("hAnsi"))
	}
	assert.Nil(t, docx.Runs(paras[0])[0].Child("rPr").Child("sz"))
	assert.Equal(t, "22", docx.Runs(paras[1])[0].Child("rPr").Child("sz").GetAttr("val"))
	assert.Equal(t, "22", docx.Runs(paras[2])[0].Child("rPr").Child("sz").GetAttr("val"))
}

func TestReplaceVendor(t *testing.T) {
	pkg := openDoc(t, sampleBody(), map[string]string{
		sampleFooter:       docxtest.Footer(docxtest.P("BOSTER Biological")),
		"word/header1.xml": docxtest.Header(docxtest.P("boster kits")),
	})
	require.NoError(t, ReplaceVendor{Cleaner: vendorCleaner(t)}.Apply(pkg))

	assert.Contains(t, blockSummary(pkg), "Made by Innovative Research in Wuhan.")
	assert.Equal(t, "INNOVATIVE RESEARCH Biological", docx.ParagraphText(pkg.Footers()[0].Root().ChildrenNamed("p")[0]))
	assert.Equal(t, "innovative research kits", docx.ParagraphText(pkg.Headers()[0].Root().ChildrenNamed("p")[0]))

	assert.Error(t, ReplaceVendor{}.Apply(pkg))
}

type failingPass struct{}

func (failingPass) Name() string { return "broken" }

func (failingPass) Apply(pkg *docx.Package) error {
	docx.SetParagraphText(docx.AllParagraphs(pkg.Body())[0], "half-done edit")
	return errors.New("pass failed midway")
}

type panickingPass struct{}

func (panickingPass) Name() string                  { return "panics" }
func (panickingPass) Apply(pkg *docx.Package) error { panic("boom") }

func TestPipeline_Run(t *testing.T) {
	path := docxtest.Write(t, "out.docx", sampleBody(), map[string]string{
		sampleFooter: docxtest.Footer(docxtest.P("Boster Biological Technology")),
	})

	passes := append([]Pass{failingPass{}, panickingPass{}}, samplePasses(t)...)
	report := New(Config{Passes: passes}).Run(context.Background(), path)

	require.Len(t, report.Results, len(passes))
	assert.False(t, report.OK())
	failed := report.Failed()
	require.Len(t, failed, 2)
	assert.Equal(t, "broken", failed[0].Pass)
	assert.Equal(t, "panics", failed[1].Pass)
	assert.Contains(t, report.String(), "pass failed midway")

	for _, res := range report.Results {
		assert.FileExists(t, res.Backup)
	}
	assert.Equal(t, filepath.Join(filepath.Dir(path), "out_before_footer.docx"), BackupPath(path, "footer"))

	pkg, err := docx.Open(path)
	require.NoError(t, err)
	texts := blockSummary(pkg)
	assert.Equal(t, "Mouse KLK1 ELISA Kit", texts[0], "failed pass must not be saved")
	assert.Equal(t, "ASSAY PRINCIPLE", texts[1])
	assert.Contains(t, texts, "Made by Innovative Research in Wuhan.")
	assert.Equal(t, "www.innov-research.com", docx.ParagraphText(pkg.Footers()[0].Root().ChildrenNamed("p")[0]))

	// The backup taken before the footer pass still has the old footer.
	backup, err := docx.Open(BackupPath(path, "footer"))
	require.NoError(t, err)
	assert.Equal(t, "Boster Biological Technology", docx.ParagraphText(backup.Footers()[0].Root().ChildrenNamed("p")[0]))
}

func TestPipeline_RunTwiceIsStable(t *testing.T) {
	path := docxtest.Write(t, "out.docx", sampleBody(), map[string]string{
		sampleFooter: docxtest.Footer(docxtest.P("Boster")),
	})
	p := New(Config{Passes: samplePasses(t), NoBackup: true})

	require.True(t, p.Run(context.Background(), path).OK())
	once, err := docx.Open(path)
	require.NoError(t, err)

	require.True(t, p.Run(context.Background(), path).OK())
	twice, err := docx.Open(path)
	require.NoError(t, err)

	assert.Equal(t, snapshot(once), snapshot(twice))
	_, err = os.Stat(BackupPath(path, "footer"))
	assert.True(t, os.IsNotExist(err))
}

func TestPipeline_Cancelled(t *testing.T) {
	path := docxtest.Write(t, "out.docx", docxtest.P("Body"), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := New(Config{Passes: samplePasses(t)}).Run(ctx, path)
	require.Len(t, report.Failed(), len(samplePasses(t)))
	assert.ErrorIs(t, report.Failed()[0].Err, context.Canceled)
}

func TestPipeline_MissingFile(t *testing.T) {
	report := New(Config{Passes: samplePasses(t)[:1]}).Run(context.Background(), filepath.Join(t.TempDir(), "absent.docx"))
	assert.False(t, report.OK())
}
