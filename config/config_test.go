package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/kitsheet/extract"
	"github.com/tsawler/kitsheet/postprocess"
	"github.com/tsawler/kitsheet/section"
)

func builtin(t *testing.T) *Registry {
	t.Helper()
	r, err := Builtin()
	require.NoError(t, err)
	return r
}

func passNames(passes []postprocess.Pass) []string {
	var out []string
	for _, p := range passes {
		out = append(out, p.Name())
	}
	return out
}

func TestBuiltin(t *testing.T) {
	r := builtin(t)
	assert.Equal(t, []string{"boster", "generic", "reddot"}, r.Names())

	p, err := r.Get("")
	require.NoError(t, err)
	assert.Equal(t, DefaultProfile, p.Name)
}

func TestGet_Unknown(t *testing.T) {
	_, err := builtin(t).Get("acme")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reddot")
}

func TestReddot_InheritsGeneric(t *testing.T) {
	p, err := builtin(t).Get("reddot")
	require.NoError(t, err)

	assert.Equal(t, "Calibri", p.Font.Family)
	assert.Equal(t, 80, p.SegmenterConfig(nil).MaxHeadingLength)

	vocab := p.Vocabulary()
	assert.Equal(t, "STABILITY", vocab.Lookup(section.Recovery).Target)
	assert.Contains(t, vocab.Lookup(section.Recovery).Aliases, "STABILITY")
	assert.Equal(t, "TEST PRINCIPLE", vocab.Lookup(section.AssayPrinciple).Target)
}

func TestReddot_Passes(t *testing.T) {
	p, err := builtin(t).Get("reddot")
	require.NoError(t, err)
	cleaner, err := p.Cleaner()
	require.NoError(t, err)

	passes := p.Passes(cleaner, p.NewSegmenter(nil))
	assert.Equal(t, []string{
		"move_standard_curve",
		"move_kit_components",
		"reorder_sections",
		"footer",
		"fonts",
		"vendor",
	}, passNames(passes))

	fonts := passes[4].(postprocess.NormalizeFonts)
	assert.Equal(t, 22, fonts.Size)
	assert.Equal(t, 276, fonts.Line)

	footer := passes[3].(postprocess.RewriteFooter)
	assert.Equal(t, 18, footer.Size)
	assert.Len(t, footer.Lines, 2)
}

func TestGeneric_NoVendorPass(t *testing.T) {
	p, err := builtin(t).Get("generic")
	require.NoError(t, err)
	cleaner, err := p.Cleaner()
	require.NoError(t, err)
	assert.Equal(t, []string{"reorder_sections", "fonts"}, passNames(p.Passes(cleaner, nil)))
}

func TestCleaner_Vendors(t *testing.T) {
	r := builtin(t)

	reddot, err := r.Get("reddot")
	require.NoError(t, err)
	c, err := reddot.Cleaner()
	require.NoError(t, err)
	assert.Equal(t, "Made by Innovative Research, Inc.", c.Clean("Made by Reddot Biotech INC.®"))
	assert.Equal(t, "INNOVATIVE RESEARCH kits", c.Clean("REDDOT kits"))

	boster, err := r.Get("boster")
	require.NoError(t, err)
	c, err = boster.Cleaner()
	require.NoError(t, err)
	assert.Equal(t, "Contact Innovative Research today.", c.Clean("Contact Boster Bio today."))
}

func TestLoadBytes_ListExtendingBuiltin(t *testing.T) {
	r := builtin(t)
	err := r.LoadBytes([]byte(`
profiles:
  - name: acme
    extends: reddot
    footer:
      lines: ["Acme Labs"]
    static:
      website: www.acme.example
    defaults:
      disclaimer:
        text: For research use only.
`), "acme.yaml")
	require.NoError(t, err)

	p, err := r.Get("acme")
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme Labs"}, p.Footer.Lines)
	assert.Equal(t, "www.acme.example", p.Static["website"])
	assert.Equal(t, "248.896.0145", p.Static["phone"])
	assert.NotEmpty(t, p.Cleanup.Replacements)

	f, ok := p.DefaultsTable().Get(extract.FieldDisclaimer)
	require.True(t, ok)
	assert.Equal(t, "For research use only.", f.Text)
}

func TestLoadBytes_SingleProfile(t *testing.T) {
	r := NewRegistry()
	err := r.LoadBytes([]byte(`
name: plain
section_order: [INTENDED USE, DISCLAIMER]
defaults:
  required_materials:
    list: [Microplate reader, Pipettes]
`), "plain.yaml")
	require.NoError(t, err)

	p, err := r.Get("plain")
	require.NoError(t, err)
	f, ok := p.DefaultsTable().Get(extract.FieldRequiredMaterials)
	require.True(t, ok)
	assert.Equal(t, []string{"Microplate reader", "Pipettes"}, f.List)
}

func TestLoadBytes_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown key", "name: x\ncolour: red\n", "parsing"},
		{"no name", "description: nothing\n", "no name"},
		{"unknown base", "name: x\nextends: nope\n", "unknown profile"},
		{"unknown section", "name: x\nsection_order: [APPENDIX]\n", "APPENDIX"},
		{"bad static key", "name: x\nstatic:\n  kit name: y\n", "placeholder"},
		{"ambiguous default", "name: x\ndefaults:\n  storage:\n    text: a\n    list: [b]\n", "exactly one"},
		{"bad align", "name: x\nfooter:\n  lines: [a]\n  align: middle\n", "alignment"},
		{"bad pattern", "name: x\ncleanup:\n  boilerplate: ['(']\n", "invalid boilerplate"},
		{"unmatched table", "name: x\nmove_tables:\n  - section: STORAGE\n    table: STORAGE\n", "no fingerprint"},
		{"empty", "", "empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRegistry().LoadBytes([]byte(tt.yaml), "test.yaml")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: filed\n"), 0o644))

	r := NewRegistry()
	require.NoError(t, r.Load(path))
	assert.Equal(t, []string{"filed"}, r.Names())

	assert.Error(t, r.Load(filepath.Join(dir, "missing.yaml")))
}
