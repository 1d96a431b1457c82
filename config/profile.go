// Package config describes vendor profiles: the section vocabulary, table
// fingerprints, default values, cleanup rules and output formatting used to
// convert one vendor's datasheets into another's layout.
//
// Profiles are YAML documents. Three are built in (generic, boster and
// reddot); a user file may add profiles or extend a built-in one:
//
//	profiles:
//	  - name: acme
//	    extends: reddot
//	    footer:
//	      lines: ["Acme Labs", "www.acme.example"]
package config

import (
	"math"
	"regexp"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/tsawler/kitsheet/classify"
	"github.com/tsawler/kitsheet/cleanup"
	"github.com/tsawler/kitsheet/extract"
	"github.com/tsawler/kitsheet/postprocess"
	"github.com/tsawler/kitsheet/section"
)

// Font sets the body formatting of output documents.
type Font struct {
	Family string `yaml:"family,omitempty"`

	// Size is the body text size in points.
	Size float64 `yaml:"size,omitempty"`

	// LineSpacing is a multiple of single spacing, such as 1.15.
	LineSpacing float64 `yaml:"line_spacing,omitempty"`

	// KeepSizeStyles lists paragraph style IDs whose size is left alone.
	KeepSizeStyles []string `yaml:"keep_size_styles,omitempty"`
}

// Footer is the replacement content of every footer part.
type Footer struct {
	Lines []string `yaml:"lines,omitempty"`
	Font  string   `yaml:"font,omitempty"`

	// Size is in points.
	Size  float64 `yaml:"size,omitempty"`
	Align string  `yaml:"align,omitempty"`
}

// Segmenter tunes heading detection.
type Segmenter struct {
	MaxHeadingLength int  `yaml:"max_heading_length,omitempty"`
	Loose            bool `yaml:"loose,omitempty"`
}

// TableMove places the table recognized by the fingerprint of Table right
// after the heading of Section.
type TableMove struct {
	Section string `yaml:"section"`
	Table   string `yaml:"table"`
}

// DefaultValue overrides one entry of the defaults table. Exactly one of
// Text, List or Records should be set.
type DefaultValue struct {
	Text    string              `yaml:"text,omitempty"`
	List    []string            `yaml:"list,omitempty"`
	Records []map[string]string `yaml:"records,omitempty"`
	Columns []string            `yaml:"columns,omitempty"`
}

// Profile is one vendor configuration.
type Profile struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`

	// Extends names a profile whose settings this one starts from.
	Extends string `yaml:"extends,omitempty"`

	// Sections are merged over section.DefaultVocabulary by name.
	Sections section.Vocabulary `yaml:"sections,omitempty"`

	// Order is the canonical section order of output documents.
	Order []string `yaml:"section_order,omitempty"`

	// Fingerprints are tried before the built-in ones.
	Fingerprints []classify.Fingerprint `yaml:"fingerprints,omitempty"`

	Defaults   map[string]DefaultValue `yaml:"defaults,omitempty"`
	Cleanup    cleanup.Rules           `yaml:"cleanup,omitempty"`
	Static     map[string]string       `yaml:"static,omitempty"`
	Footer     Footer                  `yaml:"footer,omitempty"`
	Font       Font                    `yaml:"font,omitempty"`
	Segmenter  Segmenter               `yaml:"segmenter,omitempty"`
	TableMoves []TableMove             `yaml:"move_tables,omitempty"`
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var alignments = map[string]bool{"": true, "left": true, "center": true, "right": true, "both": true}

// Validate checks that the profile is usable.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return errors.New("profile has no name")
	}
	vocab := p.Vocabulary()
	for _, name := range p.Order {
		if vocab.Lookup(name) == nil {
			return errors.Errorf("profile %s: section_order names unknown section %q", p.Name, name)
		}
	}
	for _, m := range p.TableMoves {
		if vocab.Lookup(m.Section) == nil {
			return errors.Errorf("profile %s: move_tables names unknown section %q", p.Name, m.Section)
		}
		if p.fingerprint(m.Table) == nil {
			return errors.Errorf("profile %s: move_tables names no fingerprint for %q", p.Name, m.Table)
		}
	}
	for key := range p.Static {
		if !identifier.MatchString(key) {
			return errors.Errorf("profile %s: static key %q is not a placeholder name", p.Name, key)
		}
	}
	for name, v := range p.Defaults {
		set := 0
		if v.Text != "" {
			set++
		}
		if len(v.List) > 0 {
			set++
		}
		if len(v.Records) > 0 {
			set++
		}
		if set != 1 {
			return errors.Errorf("profile %s: default %q must set exactly one of text, list or records", p.Name, name)
		}
	}
	if !alignments[p.Footer.Align] {
		return errors.Errorf("profile %s: invalid footer alignment %q", p.Name, p.Footer.Align)
	}
	if _, err := p.Cleaner(); err != nil {
		return errors.Wrapf(err, "profile %s", p.Name)
	}
	return nil
}

// Vocabulary returns the built-in vocabulary with the profile's sections
// merged in.
func (p *Profile) Vocabulary() section.Vocabulary {
	return section.DefaultVocabulary().Merge(p.Sections)
}

// SegmenterConfig returns the segmenter settings.
func (p *Profile) SegmenterConfig(logger *zap.Logger) section.Config {
	cfg := section.DefaultConfig()
	if p.Segmenter.MaxHeadingLength > 0 {
		cfg.MaxHeadingLength = p.Segmenter.MaxHeadingLength
	}
	cfg.Loose = p.Segmenter.Loose
	cfg.Logger = logger
	return cfg
}

// NewSegmenter builds a segmenter for the profile.
func (p *Profile) NewSegmenter(logger *zap.Logger) *section.Segmenter {
	return section.NewSegmenter(p.Vocabulary(), p.SegmenterConfig(logger))
}

// AllFingerprints returns the profile's fingerprints followed by the
// built-in ones.
func (p *Profile) AllFingerprints() []classify.Fingerprint {
	return append(append([]classify.Fingerprint(nil), p.Fingerprints...), classify.DefaultFingerprints()...)
}

func (p *Profile) fingerprint(sectionName string) *classify.Fingerprint {
	want := section.Normalize(sectionName)
	for _, f := range p.AllFingerprints() {
		if section.Normalize(f.Section) == want {
			f := f
			return &f
		}
	}
	return nil
}

// DefaultsTable returns the built-in defaults with the profile's entries
// replacing them.
func (p *Profile) DefaultsTable() *extract.Defaults {
	fields := make([]extract.Field, 0, len(p.Defaults))
	for name, v := range p.Defaults {
		switch {
		case len(v.Records) > 0:
			records := make([]extract.Record, len(v.Records))
			for i, r := range v.Records {
				records[i] = extract.Record(r)
			}
			fields = append(fields, extract.RecordsField(name, v.Columns, records...))
		case len(v.List) > 0:
			fields = append(fields, extract.ListField(name, v.List...))
		default:
			fields = append(fields, extract.TextField(name, v.Text))
		}
	}
	return extract.NewDefaults(fields...)
}

// Cleaner compiles the default cleanup rules followed by the profile's.
func (p *Profile) Cleaner() (*cleanup.Cleaner, error) {
	return cleanup.New(cleanup.DefaultRules().Merge(p.Cleanup))
}

// Passes returns the post-processing passes the profile asks for, in the
// order they run: table moves, section reordering, footer, fonts and
// vendor replacement.
func (p *Profile) Passes(cleaner *cleanup.Cleaner, seg *section.Segmenter) []postprocess.Pass {
	var passes []postprocess.Pass
	for _, m := range p.TableMoves {
		if f := p.fingerprint(m.Table); f != nil {
			passes = append(passes, postprocess.MoveTable{
				Section:     p.Vocabulary().Lookup(m.Section).Name,
				Fingerprint: *f,
				Segmenter:   seg,
			})
		}
	}
	if len(p.Order) > 0 {
		passes = append(passes, postprocess.ReorderSections{Order: p.canonicalOrder(), Segmenter: seg})
	}
	if len(p.Footer.Lines) > 0 {
		passes = append(passes, postprocess.RewriteFooter{
			Lines: p.Footer.Lines,
			Font:  p.Footer.Font,
			Size:  halfPoints(p.Footer.Size),
			Align: p.Footer.Align,
		})
	}
	if p.Font.Family != "" || p.Font.Size > 0 || p.Font.LineSpacing > 0 {
		keep := p.Font.KeepSizeStyles
		if keep == nil {
			keep = []string{"Title"}
		}
		passes = append(passes, postprocess.NormalizeFonts{
			Family:         p.Font.Family,
			Size:           halfPoints(p.Font.Size),
			Line:           int(math.Round(p.Font.LineSpacing * 240)),
			KeepSizeStyles: keep,
		})
	}
	if len(p.Cleanup.Replacements) > 0 && cleaner != nil {
		passes = append(passes, postprocess.ReplaceVendor{Cleaner: cleaner})
	}
	return passes
}

func (p *Profile) canonicalOrder() []string {
	vocab := p.Vocabulary()
	out := make([]string, 0, len(p.Order))
	for _, name := range p.Order {
		if spec := vocab.Lookup(name); spec != nil {
			out = append(out, spec.Name)
		}
	}
	return out
}

func halfPoints(pt float64) int {
	return int(math.Round(pt * 2))
}

// merge returns base with the settings of p laid over it.
func (p Profile) merge(base *Profile) *Profile {
	out := *base
	out.Name = p.Name
	out.Extends = p.Extends
	if p.Description != "" {
		out.Description = p.Description
	}
	out.Sections = base.Sections.Merge(p.Sections)
	if len(p.Order) > 0 {
		out.Order = p.Order
	}
	out.Fingerprints = append(append([]classify.Fingerprint(nil), p.Fingerprints...), base.Fingerprints...)
	out.Defaults = mergeMaps(base.Defaults, p.Defaults)
	out.Cleanup = base.Cleanup.Merge(p.Cleanup)
	out.Static = mergeMaps(base.Static, p.Static)
	if len(p.Footer.Lines) > 0 {
		out.Footer = p.Footer
	}
	if p.Font.Family != "" || p.Font.Size > 0 || p.Font.LineSpacing > 0 {
		out.Font = p.Font
	}
	if p.Segmenter != (Segmenter{}) {
		out.Segmenter = p.Segmenter
	}
	if len(p.TableMoves) > 0 {
		out.TableMoves = p.TableMoves
	}
	return &out
}

func mergeMaps[V any](base, over map[string]V) map[string]V {
	if len(base) == 0 && len(over) == 0 {
		return nil
	}
	out := make(map[string]V, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}
