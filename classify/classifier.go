// Package classify associates the tables of a datasheet with its sections.
//
// Two strategies cooperate. A table whose header carries a known
// [Fingerprint] is assigned to the fingerprint's section. Any other table is
// assigned to the latest section whose span starts at or before the table's
// reading-order position. Tables that neither strategy can place are
// reported as unassigned.
package classify

import (
	"strings"

	"go.uber.org/zap"

	"github.com/tsawler/kitsheet/model"
	"github.com/tsawler/kitsheet/section"
)

// Method records how a table was assigned.
type Method int

const (
	Unassigned Method = iota
	ByFingerprint
	ByPosition
)

// String returns the string representation of the method.
func (m Method) String() string {
	switch m {
	case ByFingerprint:
		return "fingerprint"
	case ByPosition:
		return "position"
	default:
		return "unassigned"
	}
}

// Config holds configuration for table classification
type Config struct {
	// Fingerprints are tried in order.
	// Default: DefaultFingerprints()
	Fingerprints []Fingerprint

	// Logger receives per-table assignment decisions at debug level.
	// Default: no-op
	Logger *zap.Logger
}

// Assignment maps sections to the tables associated with them.
type Assignment struct {
	// Tables maps canonical section name to its tables in document order.
	Tables map[string][]*model.Table

	// Slots maps slot names (e.g. "intra_assay") to tables.
	Slots map[string]*model.Table

	// Methods maps table index to the strategy that placed it.
	Methods map[int]Method

	// Unassigned lists tables no strategy could place.
	Unassigned []*model.Table
}

// Table returns the first table of a section, or nil.
func (a *Assignment) Table(name string) *model.Table {
	if a == nil || len(a.Tables[name]) == 0 {
		return nil
	}
	return a.Tables[name][0]
}

// Section returns every table of a section in document order.
func (a *Assignment) Section(name string) []*model.Table {
	if a == nil {
		return nil
	}
	return a.Tables[name]
}

// Slot returns the table filling a named slot, or nil.
func (a *Assignment) Slot(name string) *model.Table {
	if a == nil {
		return nil
	}
	return a.Slots[name]
}

// Classifier assigns tables to sections.
type Classifier struct {
	fingerprints []Fingerprint
	logger       *zap.Logger
}

// New creates a classifier.
func New(config Config) *Classifier {
	c := &Classifier{
		fingerprints: config.Fingerprints,
		logger:       config.Logger,
	}
	if c.fingerprints == nil {
		c.fingerprints = DefaultFingerprints()
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// Fingerprint returns the fingerprint matching t, or nil. Header-row
// matches are tried before first-column matches, so a component list that
// names an antibody stays with the section its header identifies.
func (c *Classifier) Fingerprint(t *model.Table) *Fingerprint {
	for i := range c.fingerprints {
		if c.fingerprints[i].matchesRow(t) {
			return &c.fingerprints[i]
		}
	}
	for i := range c.fingerprints {
		if c.fingerprints[i].matchesColumn(t) {
			return &c.fingerprints[i]
		}
	}
	return nil
}

// Classify assigns every table of doc. Tables are also attached to the
// matching spans of res.
func (c *Classifier) Classify(doc *model.Document, res *section.Result) *Assignment {
	a := &Assignment{
		Tables:  make(map[string][]*model.Table),
		Slots:   make(map[string]*model.Table),
		Methods: make(map[int]Method),
	}
	slotsUsed := make(map[string]int)
	detached := 0

	for _, t := range doc.Tables() {
		if fp := c.Fingerprint(t); fp != nil {
			a.assign(fp.Section, t, ByFingerprint)
			if n := slotsUsed[fp.Section]; n < len(fp.Slots) {
				a.Slots[fp.Slots[n]] = t
			}
			slotsUsed[fp.Section]++
			c.logger.Debug("table assigned",
				zap.Int("table", t.Index),
				zap.String("section", fp.Section),
				zap.Stringer("method", ByFingerprint))
			continue
		}

		pos := t.Position
		if pos == model.PositionUnknown {
			pos = approximatePosition(doc, t, detached)
			detached++
		}
		if span := res.SpanAt(pos); pos >= 0 && span != nil {
			a.assign(span.Name, t, ByPosition)
			c.logger.Debug("table assigned",
				zap.Int("table", t.Index),
				zap.Int("position", pos),
				zap.String("section", span.Name),
				zap.Stringer("method", ByPosition))
			continue
		}

		a.Unassigned = append(a.Unassigned, t)
		a.Methods[t.Index] = Unassigned
		c.logger.Debug("table unassigned", zap.Int("table", t.Index))
	}

	for name, tables := range a.Tables {
		if span := res.Get(name); span != nil {
			span.Tables = tables
		}
	}
	return a
}

func (a *Assignment) assign(name string, t *model.Table, m Method) {
	a.Tables[name] = append(a.Tables[name], t)
	a.Methods[t.Index] = m
}

// approximatePosition recovers the reading-order position of a table the
// reader could not place. A paragraph that repeats the table's first row
// marks its position; otherwise the k-th detached table is assumed to sit
// at the k-th empty paragraph. Returns -1 when neither applies.
func approximatePosition(doc *model.Document, t *model.Table, k int) int {
	first := collapse(strings.Join(t.Header(), " "))
	if first != "" {
		for _, p := range doc.Paragraphs() {
			if collapse(p.Text) == first {
				return p.Index
			}
		}
	}

	seen := 0
	for _, p := range doc.Paragraphs() {
		if !p.IsEmpty() {
			continue
		}
		if seen == k {
			return p.Index
		}
		seen++
	}
	return -1
}

func collapse(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
