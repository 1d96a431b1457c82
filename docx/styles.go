package docx

import "encoding/xml"

// stylesXML represents the structure of word/styles.xml
type stylesXML struct {
	XMLName xml.Name      `xml:"styles"`
	Styles  []styleDefXML `xml:"style"`
}

// styleDefXML represents a style definition.
type styleDefXML struct {
	Type    string      `xml:"type,attr"` // paragraph, character, table, numbering
	StyleID string      `xml:"styleId,attr"`
	Name    valXML      `xml:"name"`
	BasedOn valXML      `xml:"basedOn"`
	PPr     stylePPrXML `xml:"pPr"`
	RPr     styleRPrXML `xml:"rPr"`
}

// stylePPrXML holds the paragraph properties used for heading detection.
type stylePPrXML struct {
	OutlineLvl valXML `xml:"outlineLvl"`
}

// styleRPrXML holds the run properties used for heading detection.
type styleRPrXML struct {
	Bold     boolXML `xml:"b"`
	FontSize valXML  `xml:"sz"`
}

// valXML represents an element carrying a w:val attribute.
type valXML struct {
	Val string `xml:"val,attr"`
}

// boolXML represents a boolean toggle property.
type boolXML struct {
	XMLName xml.Name
	Val     string `xml:"val,attr"`
}

// on reports whether the toggle is present and not switched off.
func (b boolXML) on() bool {
	return b.XMLName.Local != "" && b.Val != "false" && b.Val != "0"
}

// corePropertiesXML represents docProps/core.xml (Dublin Core metadata)
type corePropertiesXML struct {
	XMLName xml.Name `xml:"coreProperties"`
	Title   string   `xml:"title"`
	Subject string   `xml:"subject"`
	Creator string   `xml:"creator"`
}
