// Package section locates named sections in a kit datasheet.
//
// The [Segmenter] scans paragraphs in order and opens a [Span] whenever a
// paragraph matches one of the vocabulary's aliases. A span starts at the
// paragraph after its heading and ends (exclusive) at the next recognized
// heading or the end of the document:
//
//	seg := section.NewSegmenter(section.DefaultVocabulary(), section.DefaultConfig())
//	res := seg.Segment(doc)
//	if span := res.Get(section.IntendedUse); span != nil {
//		text := doc.ParagraphTexts(span.Start, span.End)
//	}
package section

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/tsawler/kitsheet/model"
)

// Config holds configuration for section detection
type Config struct {
	// MaxHeadingLength is the maximum normalized length, in characters, of a
	// paragraph that can open a section.
	// Default: 60
	MaxHeadingLength int

	// Loose allows a heading-like paragraph to match when it contains an
	// alias instead of equalling one. Exact matches are always tried first.
	// Default: false
	Loose bool

	// Logger receives duplicate-heading reports.
	// Default: no-op
	Logger *zap.Logger
}

// DefaultConfig returns the default segmenter configuration
func DefaultConfig() Config {
	return Config{
		MaxHeadingLength: 60,
	}
}

// Span is a resolved occurrence of a section in a document. Start and End
// are paragraph indexes; End is exclusive.
type Span struct {
	Name        string
	HeadingText string
	Heading     int
	Start       int
	End         int
	Tables      []*model.Table
}

// Len returns the number of paragraphs in the span.
func (s *Span) Len() int {
	return s.End - s.Start
}

// Contains reports whether paragraph index i lies inside the span.
func (s *Span) Contains(i int) bool {
	return i >= s.Start && i < s.End
}

// Result holds the sections found in one document.
type Result struct {
	// Spans maps canonical name to span. When a section heading repeats, the
	// last occurrence wins.
	Spans map[string]*Span

	// Headings lists every matched heading in document order, including
	// occurrences later overwritten in Spans.
	Headings []*Span

	// Duplicates lists spans that were overwritten by a later heading with
	// the same canonical name.
	Duplicates []*Span

	// Paragraphs is the number of paragraphs in the segmented document.
	Paragraphs int
}

// Get returns the span for a canonical section name, or nil when absent.
func (r *Result) Get(name string) *Span {
	if r == nil {
		return nil
	}
	return r.Spans[name]
}

// Has reports whether the section was found.
func (r *Result) Has(name string) bool {
	return r.Get(name) != nil
}

// Ordered returns the live spans in document order.
func (r *Result) Ordered() []*Span {
	out := make([]*Span, 0, len(r.Spans))
	for _, s := range r.Spans {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Heading < out[j].Heading })
	return out
}

// SpanAt returns the latest heading span whose start is at or before
// paragraph position pos, or nil when pos precedes every heading.
func (r *Result) SpanAt(pos int) *Span {
	if r == nil {
		return nil
	}
	var found *Span
	for _, s := range r.Headings {
		if s.Start <= pos {
			found = s
		}
	}
	return found
}

// Segmenter finds section spans using a vocabulary of aliases.
type Segmenter struct {
	config  Config
	exact   map[string]string
	aliases []alias
	logger  *zap.Logger
}

type alias struct {
	text string
	name string
}

// NewSegmenter creates a segmenter for the given vocabulary. When two specs
// share an alias the first spec keeps it.
func NewSegmenter(vocab Vocabulary, config Config) *Segmenter {
	if config.MaxHeadingLength <= 0 {
		config.MaxHeadingLength = DefaultConfig().MaxHeadingLength
	}
	s := &Segmenter{
		config: config,
		exact:  make(map[string]string),
		logger: config.Logger,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	for _, spec := range vocab {
		names := append([]string{spec.Name}, spec.Aliases...)
		for _, a := range names {
			norm := Normalize(a)
			if norm == "" {
				continue
			}
			if _, taken := s.exact[norm]; taken {
				continue
			}
			s.exact[norm] = spec.Name
			s.aliases = append(s.aliases, alias{text: norm, name: spec.Name})
		}
	}

	// Longer aliases are more specific, so they are tried first in loose mode.
	sort.SliceStable(s.aliases, func(i, j int) bool {
		return len(s.aliases[i].text) > len(s.aliases[j].text)
	})
	return s
}

// Segment scans the paragraphs of doc and returns the sections found. It
// never fails; absent sections are simply missing from the result.
func (s *Segmenter) Segment(doc *model.Document) *Result {
	paras := doc.Paragraphs()
	res := &Result{
		Spans:      make(map[string]*Span),
		Paragraphs: len(paras),
	}

	var open *Span
	for i, p := range paras {
		name, ok := s.Match(p)
		if !ok {
			continue
		}
		if open != nil {
			open.End = i
		}

		span := &Span{
			Name:        name,
			HeadingText: strings.TrimSpace(p.Text),
			Heading:     i,
			Start:       i + 1,
			End:         len(paras),
		}
		if prev, dup := res.Spans[name]; dup {
			res.Duplicates = append(res.Duplicates, prev)
			s.logger.Debug("duplicate section heading",
				zap.String("section", name),
				zap.Int("first", prev.Heading),
				zap.Int("second", i))
		}
		res.Spans[name] = span
		res.Headings = append(res.Headings, span)
		open = span
	}
	return res
}

// Match reports the canonical section a paragraph opens, if any.
func (s *Segmenter) Match(p *model.Paragraph) (string, bool) {
	norm := Normalize(p.Text)
	if norm == "" || utf8.RuneCountInString(norm) >= s.config.MaxHeadingLength {
		return "", false
	}
	if name, ok := s.exact[norm]; ok {
		return name, true
	}
	if !s.config.Loose || !looksLikeHeading(p) {
		return "", false
	}
	for _, a := range s.aliases {
		if containsWord(norm, a.text) {
			return a.name, true
		}
	}
	return "", false
}

var outlinePrefix = regexp.MustCompile(`^(?:\d+(?:\.\d+)*\.?|[IVX]+\.|[A-Z][.)])\s+`)

// Normalize prepares heading text for comparison: whitespace is collapsed,
// letters are upper-cased, an outline number prefix ("3.", "IV.", "A)") and
// trailing colons or periods are removed.
func Normalize(text string) string {
	s := strings.ToUpper(strings.Join(strings.Fields(text), " "))
	s = outlinePrefix.ReplaceAllString(s, "")
	s = strings.TrimRight(s, ":. ")
	return strings.TrimSpace(s)
}

// containsWord reports whether alias occurs in s on word boundaries.
func containsWord(s, alias string) bool {
	for start := 0; ; {
		i := strings.Index(s[start:], alias)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(alias)
		if (i == 0 || !isWordByte(s[i-1])) && (end == len(s) || !isWordByte(s[end])) {
			return true
		}
		start = i + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'A' && b <= 'Z' || b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}

// looksLikeHeading reports whether a paragraph carries heading formatting:
// a heading style, bold runs, or all-caps text.
func looksLikeHeading(p *model.Paragraph) bool {
	return p.IsHeading() || p.Bold || isAllCaps(p.Text)
}

// isAllCaps checks if text is in all capital letters
func isAllCaps(text string) bool {
	upper, lower := 0, 0
	for _, r := range text {
		if r >= 'A' && r <= 'Z' {
			upper++
		} else if r >= 'a' && r <= 'z' {
			lower++
		}
	}
	return upper >= 3 && lower == 0
}
