package odt

import (
	"encoding/xml"
	"strconv"
	"strings"
)

// styleDefXML represents a style definition (<style:style>).
type styleDefXML struct {
	Name                string        `xml:"name,attr"`
	Family              string        `xml:"family,attr"`
	ParentStyleName     string        `xml:"parent-style-name,attr"`
	DisplayName         string        `xml:"display-name,attr"`
	DefaultOutlineLevel string        `xml:"default-outline-level,attr"`
	TextProps           *textPropsXML `xml:"text-properties"`
}

// textPropsXML represents text properties (<style:text-properties>).
type textPropsXML struct {
	FontWeight string `xml:"font-weight,attr"`
}

// styleListXML matches office:styles and office:automatic-styles.
type styleListXML struct {
	Styles []styleDefXML `xml:"style"`
}

// stylesXML represents the structure of styles.xml.
type stylesXML struct {
	XMLName    xml.Name      `xml:"document-styles"`
	Styles     *styleListXML `xml:"styles"`
	AutoStyles *styleListXML `xml:"automatic-styles"`
}

// metaXML represents document metadata from meta.xml.
type metaXML struct {
	XMLName xml.Name `xml:"document-meta"`
	Meta    *struct {
		Title string `xml:"title"`
	} `xml:"meta"`
}

// resolvedStyle holds the properties the reader needs from a style chain.
type resolvedStyle struct {
	IsTitle      bool
	HeadingLevel int // 1-10, 0 if not a heading
	Bold         bool
	boldSet      bool
}

// styleResolver resolves styles with inheritance.
type styleResolver struct {
	styles   map[string]*styleDefXML
	resolved map[string]resolvedStyle
}

func newStyleResolver(lists ...*styleListXML) *styleResolver {
	sr := &styleResolver{
		styles:   make(map[string]*styleDefXML),
		resolved: make(map[string]resolvedStyle),
	}
	// Later lists win: automatic styles in content.xml override named ones.
	for _, l := range lists {
		if l == nil {
			continue
		}
		for i := range l.Styles {
			sr.styles[l.Styles[i].Name] = &l.Styles[i]
		}
	}
	return sr
}

// resolve follows the parent chain of name. Cycles end the walk.
func (sr *styleResolver) resolve(name string) resolvedStyle {
	if rs, ok := sr.resolved[name]; ok {
		return rs
	}
	var rs resolvedStyle
	seen := make(map[string]bool)
	for cur := name; cur != "" && !seen[cur]; {
		seen[cur] = true
		def, ok := sr.styles[cur]
		if !ok {
			break
		}
		if !rs.IsTitle && isTitleStyle(def) {
			rs.IsTitle = true
		}
		if rs.HeadingLevel == 0 {
			if lvl, err := strconv.Atoi(def.DefaultOutlineLevel); err == nil && lvl > 0 {
				rs.HeadingLevel = lvl
			}
		}
		if !rs.boldSet && def.TextProps != nil && def.TextProps.FontWeight != "" {
			rs.boldSet = true
			rs.Bold = isBoldWeight(def.TextProps.FontWeight)
		}
		cur = def.ParentStyleName
	}
	sr.resolved[name] = rs
	return rs
}

func isTitleStyle(def *styleDefXML) bool {
	return strings.EqualFold(def.Name, "Title") || strings.EqualFold(def.DisplayName, "Title")
}

func isBoldWeight(w string) bool {
	if w == "bold" {
		return true
	}
	n, err := strconv.Atoi(w)
	return err == nil && n >= 600
}
