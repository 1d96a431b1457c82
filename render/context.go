package render

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/tsawler/kitsheet/cleanup"
	"github.com/tsawler/kitsheet/extract"
	"github.com/tsawler/kitsheet/section"
)

// Placeholder names added by the builder on top of the extracted fields.
const (
	KeyLotNumber          = "lot_number"
	KeyBackgroundTitle    = "background_title"
	KeyStandardCurveTitle = "standard_curve_title"
	KeyProtocolNumbered   = "assay_protocol_numbered"
	KeyMaterialsText      = "required_materials_text"

	// TableSuffix is appended to a records field name for its pipe-delimited
	// display string.
	TableSuffix = "_table"
)

// DefaultLotNumber is written when no lot number is supplied.
const DefaultLotNumber = "LOT#_______"

// Context is the flat placeholder map handed to the renderer. Values are
// string, []string or []map[string]string.
type Context map[string]any

// String returns a string value, or "".
func (c Context) String(name string) string {
	s, _ := c[name].(string)
	return s
}

// List returns a list value, or nil.
func (c Context) List(name string) []string {
	l, _ := c[name].([]string)
	return l
}

// Records returns a records value, or nil.
func (c Context) Records(name string) []map[string]string {
	r, _ := c[name].([]map[string]string)
	return r
}

// Has reports whether name is defined, even with an empty value.
func (c Context) Has(name string) bool {
	_, ok := c[name]
	return ok
}

// Names returns the placeholder names in sorted order.
func (c Context) Names() []string {
	out := make([]string, 0, len(c))
	for name := range c {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Overrides are user-supplied values that take precedence over anything
// extracted. Empty fields are ignored.
type Overrides struct {
	KitName       string
	CatalogNumber string
	LotNumber     string
}

// BuilderConfig holds configuration for context building
type BuilderConfig struct {
	// Cleaner is applied to every string, list item and record cell.
	// Default: cleanup.DefaultRules()
	Cleaner *cleanup.Cleaner

	// Static holds profile boilerplate such as contact lines. A static value
	// replaces a defaulted field but never an extracted one.
	Static map[string]string

	// Defaults fills fields missing from the extracted set.
	// Default: extract.NewDefaults()
	Defaults *extract.Defaults

	// Vocabulary supplies the target names sections are also exposed under.
	// Default: section.DefaultVocabulary()
	Vocabulary section.Vocabulary

	// Logger receives one debug entry per remapped section.
	// Default: no-op
	Logger *zap.Logger
}

// Builder turns extracted fields into a render Context.
type Builder struct {
	cleaner  *cleanup.Cleaner
	static   map[string]string
	defaults *extract.Defaults
	vocab    section.Vocabulary
	logger   *zap.Logger
}

// NewBuilder creates a context builder.
func NewBuilder(config BuilderConfig) *Builder {
	b := &Builder{
		cleaner:  config.Cleaner,
		static:   config.Static,
		defaults: config.Defaults,
		vocab:    config.Vocabulary,
		logger:   config.Logger,
	}
	if b.cleaner == nil {
		b.cleaner = cleanup.MustNew(cleanup.DefaultRules())
	}
	if b.defaults == nil {
		b.defaults = extract.NewDefaults()
	}
	if b.vocab == nil {
		b.vocab = section.DefaultVocabulary()
	}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}
	return b
}

// sectionFields names the field holding a section's content where it
// differs from the section's placeholder form.
var sectionFields = map[string]string{
	section.KitComponents:         extract.FieldReagents,
	section.TechnicalDetails:      extract.FieldTechnicalText,
	section.SampleCollection:      extract.FieldSampleCollection,
	section.SampleDilution:        extract.FieldSampleDilution,
	section.PreparationsBefore:    extract.FieldPreparationsBefore,
	section.ReagentPreparation:    extract.FieldReagentPrep,
	section.DilutionOfStandard:    extract.FieldDilutionStandard,
	section.AssayProcedureSummary: extract.FieldProcedureSummary,
}

// origin records which source supplied a context value.
type origin int

const (
	fromDefault origin = iota
	fromStatic
	fromExtracted
	fromOverride
)

// Build assembles the context. A value comes from the overrides if set,
// else from fields if non-empty, else from the profile's static values,
// else from the defaults table. Every string is cleaned.
func (b *Builder) Build(fields extract.Fields, ov Overrides) Context {
	ctx := make(Context)
	columns := make(map[string][]string)
	from := make(map[string]origin)

	put := func(f extract.Field, o origin) {
		from[f.Name] = o
		switch f.Kind {
		case extract.KindList:
			ctx[f.Name] = b.cleanList(f.List)
		case extract.KindRecords:
			ctx[f.Name] = b.cleanRecords(f.Records)
			columns[f.Name] = f.Columns
		default:
			ctx[f.Name] = b.cleaner.Clean(f.Text)
		}
	}

	for _, name := range b.defaults.Names() {
		f, _ := b.defaults.Get(name)
		put(f, fromDefault)
	}
	for name, text := range b.static {
		if f, ok := fields[name]; ok && !f.IsEmpty() && !f.Default {
			continue
		}
		ctx[name] = b.cleaner.Clean(text)
		from[name] = fromStatic
	}
	for _, name := range fields.Names() {
		f := fields[name]
		if f.IsEmpty() {
			continue
		}
		if _, ok := b.static[name]; ok && f.Default {
			continue
		}
		o := fromExtracted
		if f.Default {
			o = fromDefault
		}
		put(f, o)
	}

	if ov.KitName != "" {
		ctx[extract.FieldKitName] = b.cleaner.Clean(ov.KitName)
		from[extract.FieldKitName] = fromOverride
	}
	if ov.CatalogNumber != "" {
		ctx[extract.FieldCatalogNumber] = b.cleaner.Clean(ov.CatalogNumber)
		from[extract.FieldCatalogNumber] = fromOverride
	}
	switch {
	case ov.LotNumber != "":
		ctx[KeyLotNumber] = b.cleaner.Clean(ov.LotNumber)
	case ctx.String(KeyLotNumber) == "":
		ctx[KeyLotNumber] = DefaultLotNumber
	}
	if !ctx.Has(extract.FieldKitName) {
		ctx[extract.FieldKitName] = ""
	}
	if !ctx.Has(extract.FieldCatalogNumber) {
		ctx[extract.FieldCatalogNumber] = ""
	}

	b.remap(ctx, from)
	b.derive(ctx, columns)
	return ctx
}

// remap exposes each section that has a target name under the target's
// placeholder as well. An extracted section replaces a defaulted or static
// value at the target; otherwise a value already present there wins. A list
// remapped onto a text placeholder is joined one item per line.
func (b *Builder) remap(ctx Context, from map[string]origin) {
	for _, spec := range b.vocab {
		if spec.Target == "" {
			continue
		}
		src, ok := sectionFields[spec.Name]
		if !ok {
			src = section.FieldName(spec.Name)
		}
		dst := section.FieldName(spec.Target)
		v, ok := ctx[src]
		if !ok || dst == src {
			continue
		}
		if ctx.Has(dst) {
			if from[src] != fromExtracted || from[dst] >= fromExtracted {
				continue
			}
			converted, ok := convertValue(v, ctx[dst])
			if !ok {
				continue
			}
			v = converted
		}
		ctx[dst] = v
		from[dst] = from[src]
		b.logger.Debug("section remapped", zap.String("from", src), zap.String("to", dst))
	}
}

// convertValue reshapes v to the type of the value it replaces.
func convertValue(v, existing any) (any, bool) {
	switch existing.(type) {
	case string:
		switch x := v.(type) {
		case string:
			return x, true
		case []string:
			return strings.Join(x, "\n"), true
		}
	case []string:
		switch x := v.(type) {
		case []string:
			return x, true
		case string:
			var items []string
			for _, line := range strings.Split(x, "\n") {
				if line = strings.TrimSpace(line); line != "" {
					items = append(items, line)
				}
			}
			return items, true
		}
	case []map[string]string:
		if x, ok := v.([]map[string]string); ok {
			return x, true
		}
	}
	return nil, false
}

var targetRE = regexp.MustCompile(`\b(Mouse|Rat|Human|Canine|Bovine|Porcine|Monkey|Rabbit)\s+([A-Za-z0-9-]+)`)

func (b *Builder) derive(ctx Context, columns map[string][]string) {
	kit := ctx.String(extract.FieldKitName)
	if m := targetRE.FindStringSubmatch(kit); m != nil {
		setDefault(ctx, KeyBackgroundTitle, "Background on "+m[2])
		setDefault(ctx, KeyStandardCurveTitle, m[0]+" ELISA Standard Curve Example")
	} else {
		setDefault(ctx, KeyBackgroundTitle, "Background")
		setDefault(ctx, KeyStandardCurveTitle, "ELISA Standard Curve Example")
	}

	steps := ctx.List(extract.FieldAssayProtocol)
	numbered := make([]string, len(steps))
	for i, s := range steps {
		numbered[i] = fmt.Sprintf("%d. %s", i+1, s)
	}
	setDefault(ctx, KeyProtocolNumbered, strings.Join(numbered, "\n"))

	materials := ctx.List(extract.FieldRequiredMaterials)
	bullets := make([]string, len(materials))
	for i, m := range materials {
		bullets[i] = "• " + m
	}
	setDefault(ctx, KeyMaterialsText, strings.Join(bullets, "\n"))

	for name, cols := range columns {
		records := ctx.Records(name)
		if len(cols) == 0 {
			cols = recordKeys(records)
		}
		setDefault(ctx, name+TableSuffix, FormatRecords(cols, records))
	}
}

func setDefault(ctx Context, name string, v any) {
	if !ctx.Has(name) {
		ctx[name] = v
	}
}

func (b *Builder) cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := b.cleaner.Clean(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (b *Builder) cleanRecords(records []extract.Record) []map[string]string {
	out := make([]map[string]string, len(records))
	for i, r := range records {
		m := make(map[string]string, len(r))
		for k, v := range r {
			m[k] = b.cleaner.Clean(v)
		}
		out[i] = m
	}
	return out
}

func recordKeys(records []map[string]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range records {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	sort.Strings(out)
	return out
}
