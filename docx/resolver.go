package docx

import (
	"strconv"
	"strings"
)

// ResolvedStyle contains the properties of a paragraph style that matter for
// section detection.
type ResolvedStyle struct {
	ID   string
	Name string

	IsTitle      bool
	IsHeading    bool
	HeadingLevel int // 1-9, 0 if not a heading

	Bold     bool
	FontSize float64 // points, 0 if unspecified
}

// StyleResolver resolves styles with inheritance support.
type StyleResolver struct {
	styles   map[string]*styleDefXML
	resolved map[string]*ResolvedStyle
}

// NewStyleResolver creates a new style resolver from parsed styles. A nil
// argument yields a resolver that only knows Word's built-in style IDs.
func NewStyleResolver(styles *stylesXML) *StyleResolver {
	sr := &StyleResolver{
		styles:   make(map[string]*styleDefXML),
		resolved: make(map[string]*ResolvedStyle),
	}
	if styles == nil {
		return sr
	}
	for i := range styles.Styles {
		style := &styles.Styles[i]
		sr.styles[style.StyleID] = style
	}
	return sr
}

// Resolve returns the resolved style for the given style ID.
func (sr *StyleResolver) Resolve(styleID string) *ResolvedStyle {
	if resolved, ok := sr.resolved[styleID]; ok {
		return resolved
	}

	resolved := &ResolvedStyle{ID: styleID}
	def, ok := sr.styles[styleID]
	if !ok {
		resolved.IsTitle, resolved.IsHeading, resolved.HeadingLevel = detectBuiltInHeading(styleID)
		sr.resolved[styleID] = resolved
		return resolved
	}
	resolved.Name = def.Name.Val

	// Apply properties from base to derived
	for _, sid := range sr.buildInheritanceChain(styleID) {
		d := sr.styles[sid]
		if d.RPr.Bold.XMLName.Local != "" {
			resolved.Bold = d.RPr.Bold.on()
		}
		if size := parseHalfPoints(d.RPr.FontSize.Val); size > 0 {
			resolved.FontSize = size
		}
	}

	resolved.IsTitle, resolved.IsHeading, resolved.HeadingLevel = sr.detectHeading(def)
	sr.resolved[styleID] = resolved
	return resolved
}

// buildInheritanceChain returns style IDs from base to derived.
func (sr *StyleResolver) buildInheritanceChain(styleID string) []string {
	var chain []string
	visited := make(map[string]bool)

	current := styleID
	for current != "" && !visited[current] {
		def, ok := sr.styles[current]
		if !ok {
			break
		}
		visited[current] = true
		chain = append([]string{current}, chain...)
		current = def.BasedOn.Val
	}
	return chain
}

// detectHeading determines if a style represents a title or heading.
func (sr *StyleResolver) detectHeading(def *styleDefXML) (bool, bool, int) {
	if title, heading, level := detectBuiltInHeading(def.StyleID); heading {
		return title, heading, level
	}

	name := strings.ToLower(def.Name.Val)
	if name == "title" {
		return true, true, 1
	}
	if strings.HasPrefix(name, "heading") {
		for i := 1; i <= 9; i++ {
			if strings.Contains(name, strconv.Itoa(i)) {
				return false, true, i
			}
		}
		return false, true, 1
	}

	if lvl, err := strconv.Atoi(def.PPr.OutlineLvl.Val); err == nil && lvl >= 0 && lvl <= 8 {
		return false, true, lvl + 1 // OutlineLvl is 0-based
	}
	return false, false, 0
}

// detectBuiltInHeading checks for Word's built-in heading style IDs.
func detectBuiltInHeading(styleID string) (bool, bool, int) {
	id := strings.ToLower(strings.ReplaceAll(styleID, " ", ""))
	switch id {
	case "title":
		return true, true, 1
	case "subtitle":
		return false, true, 2
	}
	if strings.HasPrefix(id, "heading") {
		if level, err := strconv.Atoi(strings.TrimPrefix(id, "heading")); err == nil && level >= 1 && level <= 9 {
			return false, true, level
		}
	}
	return false, false, 0
}

// parseHalfPoints parses a size in half-points to points.
// Word uses half-points for font sizes (e.g., "24" = 12pt).
func parseHalfPoints(s string) float64 {
	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return val / 2
}
