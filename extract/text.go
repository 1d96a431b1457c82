package extract

import (
	"regexp"
	"strings"
)

var numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

// Number returns the first integer or decimal substring of cell, or "" when
// the cell holds no digits. Units and stray text are ignored:
// Number("150 pg/ml") is "150".
func Number(cell string) string {
	return numberPattern.FindString(cell)
}

// SplitFirstParagraph splits text at its first blank line. The remainder is
// "" when text has a single paragraph.
func SplitFirstParagraph(text string) (first, rest string) {
	text = strings.TrimSpace(text)
	if i := strings.Index(text, "\n\n"); i >= 0 {
		return strings.TrimSpace(text[:i]), strings.TrimSpace(text[i+2:])
	}
	return text, ""
}

// joinParagraphs joins the non-empty, trimmed texts with a blank line.
func joinParagraphs(texts []string) string {
	parts := make([]string, 0, len(texts))
	for _, t := range texts {
		if t = strings.TrimSpace(t); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n\n")
}

var (
	itemMarker = regexp.MustCompile(`^(?:\d+[.)]|[•‣◦▪]|[-*]|[A-Za-z][.)])`)
	stepMarker = regexp.MustCompile(`^(?:\d+\.|[A-Z]\))`)
)

// stripMarker removes a leading bullet or number marker and reports whether
// one was present. A marker directly followed by a digit ("1.5 ml",
// "-20°C") is part of the text. Letter, dash and asterisk markers must be
// followed by whitespace.
func stripMarker(line string) (string, bool) {
	loc := itemMarker.FindStringIndex(line)
	if loc == nil {
		return line, false
	}
	rest := line[loc[1]:]
	if rest != "" && rest[0] >= '0' && rest[0] <= '9' {
		return line, false
	}
	spaced := rest == "" || rest[0] == ' ' || rest[0] == '\t'
	if !spaced && (isLetter(line[0]) || line[0] == '-' || line[0] == '*') {
		return line, false
	}
	return strings.TrimSpace(rest), true
}

func isLetter(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

// line is one source line for list splitting. listed is set for lines taken
// from list-styled paragraphs.
type line struct {
	text   string
	listed bool
}

// splitItems turns lines into list items. A line with a marker, or from a
// list-styled paragraph, starts an item; an unmarked line directly after an
// item continues it. Unmarked lines before the first item are items of
// their own.
func splitItems(lines []line) []string {
	var items []string
	open := false
	for _, l := range lines {
		text := strings.TrimSpace(l.text)
		if text == "" {
			open = false
			continue
		}
		stripped, marked := stripMarker(text)
		switch {
		case marked || l.listed:
			if stripped != "" {
				items = append(items, stripped)
				open = true
			}
		case open:
			items[len(items)-1] += " " + text
		default:
			items = append(items, text)
		}
	}
	return items
}

// splitSteps groups protocol lines into steps. A line starting with "3." or
// "B)" opens a step; any other line is appended to the open step. Markers
// are removed from the result.
func splitSteps(lines []line) []string {
	var steps []string
	for _, l := range lines {
		text := strings.TrimSpace(l.text)
		if text == "" {
			continue
		}
		if stepMarker.MatchString(text) || l.listed || len(steps) == 0 {
			stripped, _ := stripMarker(text)
			if stripped == "" {
				continue
			}
			steps = append(steps, stripped)
			continue
		}
		steps[len(steps)-1] += " " + text
	}
	return steps
}
