package classify

import (
	"strings"

	"github.com/tsawler/kitsheet/model"
	"github.com/tsawler/kitsheet/section"
)

// Scope selects which cells a fingerprint inspects.
type Scope string

const (
	// ScopeHeader inspects the first row.
	ScopeHeader Scope = "header"
	// ScopeColumn inspects the first column.
	ScopeColumn Scope = "column"
	// ScopeEither matches when the first row or the first column matches.
	ScopeEither Scope = "either"
)

// Slot names used by the default precision fingerprint.
const (
	SlotIntraAssay = "intra_assay"
	SlotInterAssay = "inter_assay"
)

// Fingerprint recognizes a table from keyword substrings in its header
// cells. Matching is case-insensitive.
type Fingerprint struct {
	Section string `yaml:"section"`

	// All lists substrings that must all appear.
	All []string `yaml:"all,omitempty"`

	// Any lists groups of substrings; at least one substring of every group
	// must appear.
	Any [][]string `yaml:"any,omitempty"`

	Scope Scope `yaml:"scope,omitempty"`

	// Slots names successive matching tables in document order.
	Slots []string `yaml:"slots,omitempty"`
}

// Matches reports whether the table carries the fingerprint.
func (f Fingerprint) Matches(t *model.Table) bool {
	return f.matchesRow(t) || f.matchesColumn(t)
}

// matchesRow reports a match on the first row for header and either scopes.
func (f Fingerprint) matchesRow(t *model.Table) bool {
	if len(f.All) == 0 && len(f.Any) == 0 || f.Scope == ScopeColumn {
		return false
	}
	return f.matchText(t.HeaderText())
}

// matchesColumn reports a match on the first column for column and either
// scopes.
func (f Fingerprint) matchesColumn(t *model.Table) bool {
	if len(f.All) == 0 && len(f.Any) == 0 {
		return false
	}
	if f.Scope != ScopeColumn && f.Scope != ScopeEither {
		return false
	}
	return f.matchText(strings.Join(t.Column(0), " "))
}

// MatchesHeader reports whether a header row carries the fingerprint,
// ignoring its scope.
func (f Fingerprint) MatchesHeader(header []string) bool {
	if len(f.All) == 0 && len(f.Any) == 0 {
		return false
	}
	return f.matchText(strings.Join(header, " "))
}

func (f Fingerprint) matchText(text string) bool {
	text = strings.ToLower(text)
	for _, s := range f.All {
		if !strings.Contains(text, strings.ToLower(s)) {
			return false
		}
	}
	for _, group := range f.Any {
		found := false
		for _, s := range group {
			if strings.Contains(text, strings.ToLower(s)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// DefaultFingerprints returns the built-in fingerprints. Order matters: the
// first matching fingerprint wins, so the more specific ones come first.
func DefaultFingerprints() []Fingerprint {
	return []Fingerprint{
		{
			Section: section.TechnicalDetails,
			All:     []string{"Capture", "Antibod"},
			Scope:   ScopeEither,
		},
		{
			Section: section.Overview,
			Any:     [][]string{{"Product Name", "Reactive Species", "Uniprot"}},
			Scope:   ScopeEither,
		},
		{
			Section: section.Reproducibility,
			All:     []string{"Lot 1", "Lot 2"},
		},
		{
			Section: section.Precision,
			All:     []string{"Sample"},
			Any:     [][]string{{"Mean", "CV", "SD"}},
			Slots:   []string{SlotIntraAssay, SlotInterAssay},
		},
		{
			Section: section.StandardCurve,
			All:     []string{"Concentration"},
			Scope:   ScopeEither,
		},
		{
			Section: section.KitComponents,
			Any: [][]string{
				{"Description", "Component", "Reagent", "Name"},
				{"Quantity", "Qty", "Volume", "Size", "Storage"},
			},
		},
	}
}
