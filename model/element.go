package model

import (
	"strconv"
	"strings"
)

// Paragraph style tags.
const (
	StyleBody     = "body"
	StyleHeading  = "heading"
	StyleTitle    = "title"
	StyleListItem = "list"
)

// Paragraph is a text block.
type Paragraph struct {
	Index int    // ordinal among paragraphs
	Text  string // plain text, runs concatenated
	Style string // one of the Style* tags
	Level int    // heading level (1-9) or 0 for non-headings
	Bold  bool   // every non-empty run is bold
}

func (p *Paragraph) Kind() BlockKind  { return KindParagraph }
func (p *Paragraph) GetText() string { return p.Text }

// IsHeading reports whether the paragraph carries a heading or title style.
func (p *Paragraph) IsHeading() bool {
	return p.Style == StyleHeading || p.Style == StyleTitle
}

// IsEmpty reports whether the paragraph has no visible text.
func (p *Paragraph) IsEmpty() bool {
	return strings.TrimSpace(p.Text) == ""
}

// StyleTag returns a tag such as "heading-2" or "body".
func (p *Paragraph) StyleTag() string {
	if p.Style == StyleHeading && p.Level > 0 {
		return StyleHeading + "-" + strconv.Itoa(p.Level)
	}
	if p.Style == "" {
		return StyleBody
	}
	return p.Style
}
