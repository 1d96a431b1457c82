// Package cleanup normalizes text before it is written into an output
// document.
//
// A [Cleaner] removes trademark symbols, replaces vendor names and deletes
// boilerplate marketing sentences. Cleaning is idempotent: a rule whose
// replacement would itself be matched by a rule is rejected by [New], and
// boilerplate removal repeats until the text stops changing, so
// Clean(Clean(s)) == Clean(s).
package cleanup

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/text/unicode/norm"
)

// Replacement maps one vendor string to another. Matches are whole words.
// With Variants set, the upper-case and lower-case forms of From are
// replaced by the same forms of To.
type Replacement struct {
	From     string `yaml:"from"`
	To       string `yaml:"to"`
	Variants bool   `yaml:"variants,omitempty"`
}

// Rules configures a Cleaner. Replacements are applied in order, so a more
// specific string must come before a shorter one it contains.
type Rules struct {
	Replacements []Replacement `yaml:"replacements,omitempty"`

	// Symbols are removed wherever they occur.
	Symbols []string `yaml:"symbols,omitempty"`

	// Boilerplate holds regular expressions whose matches are deleted.
	Boilerplate []string `yaml:"boilerplate,omitempty"`
}

// DefaultSymbols are the trademark symbols stripped by DefaultRules.
var DefaultSymbols = []string{"®", "™", "©"}

// sentence matches the rest of a sentence. A period followed by a
// non-space, as in a URL, does not end it.
const sentence = `(?:[^.]|\.\S)*`

// DefaultBoilerplate matches the review, gift card and online tool promotions
// found in vendor datasheets.
var DefaultBoilerplate = []string{
	`(?i)Submit a (?:product )?review (?:of this product )?to Biocompare(?:\.com)?` + sentence + `\.(?:` + sentence + `gift card` + sentence + `\.)?`,
	`(?i)[^.]*receive a \$\d+ Amazon\.com gift card` + sentence + `\.`,
	`(?i)[^.]*offers an easy-to-use online ELISA data analysis tool\.(?:\s*Try it out at ` + sentence + `(?:\.|$))?`,
	`(?i)For more information on ` + sentence + `\.`,
	`(?i)Publications` + sentence + `using this product` + sentence + `\.?`,
}

// maxPasses bounds the boilerplate and replacement rounds of Clean.
const maxPasses = 8

// Merge returns rules with the entries of other appended to r.
func (r Rules) Merge(other Rules) Rules {
	return Rules{
		Replacements: append(append([]Replacement(nil), r.Replacements...), other.Replacements...),
		Symbols:      append(append([]string(nil), r.Symbols...), other.Symbols...),
		Boilerplate:  append(append([]string(nil), r.Boilerplate...), other.Boilerplate...),
	}
}

// DefaultRules returns the vendor-neutral rules: symbol stripping and
// boilerplate removal, with no replacements.
func DefaultRules() Rules {
	return Rules{
		Symbols:     append([]string(nil), DefaultSymbols...),
		Boilerplate: append([]string(nil), DefaultBoilerplate...),
	}
}

type replacer struct {
	re *regexp.Regexp
	to string
}

// Cleaner applies a compiled rule set. It is safe for concurrent use.
type Cleaner struct {
	symbols      *strings.Replacer
	replacements []replacer
	boilerplate  []*regexp.Regexp
}

var (
	spaceRun   = regexp.MustCompile(`[ \t\x{00A0}]{2,}`)
	lineSpaces = regexp.MustCompile(`[ \t]*\n[ \t]*`)
	blankRun   = regexp.MustCompile(`\n{3,}`)
)

// New compiles rules. It fails when a pattern does not compile or when a
// replacement's output would be matched again by any replacement.
func New(rules Rules) (*Cleaner, error) {
	c := &Cleaner{}

	pairs := make([]string, 0, 2*len(rules.Symbols))
	for _, s := range rules.Symbols {
		if s != "" {
			pairs = append(pairs, s, "")
		}
	}
	c.symbols = strings.NewReplacer(pairs...)

	for _, r := range rules.Replacements {
		if strings.TrimSpace(r.From) == "" {
			return nil, errors.New("replacement has an empty source string")
		}
		variants := [][2]string{{r.From, r.To}}
		if r.Variants {
			variants = append(variants,
				[2]string{strings.ToUpper(r.From), strings.ToUpper(r.To)},
				[2]string{strings.ToLower(r.From), strings.ToLower(r.To)},
			)
		}
		seen := make(map[string]bool)
		for _, v := range variants {
			if seen[v[0]] {
				continue
			}
			seen[v[0]] = true
			re, err := regexp.Compile(wordPattern(v[0]))
			if err != nil {
				return nil, errors.Wrapf(err, "invalid replacement %q", v[0])
			}
			c.replacements = append(c.replacements, replacer{re: re, to: v[1]})
		}
	}
	for _, r := range c.replacements {
		for _, other := range c.replacements {
			if other.re.MatchString(r.to) {
				return nil, errors.Errorf("replacement %q is matched by %q; cleaning would not be idempotent",
					r.to, other.re.String())
			}
		}
	}

	for _, pattern := range rules.Boilerplate {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid boilerplate pattern %q", pattern)
		}
		c.boilerplate = append(c.boilerplate, re)
	}
	return c, nil
}

// MustNew is like New but panics on error. It is intended for built-in rule
// sets.
func MustNew(rules Rules) *Cleaner {
	c, err := New(rules)
	if err != nil {
		panic(err)
	}
	return c
}

// wordPattern quotes s and anchors it on word boundaries at the edges that
// are word characters.
func wordPattern(s string) string {
	pattern := regexp.QuoteMeta(s)
	if r, _ := utf8.DecodeRuneInString(s); isWord(r) {
		pattern = `\b` + pattern
	}
	if r, _ := utf8.DecodeLastRuneInString(s); isWord(r) {
		pattern += `\b`
	}
	return pattern
}

func isWord(r rune) bool {
	return r == '_' || r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r))
}

// Clean returns s in NFC form with symbols, vendor names and boilerplate
// handled and whitespace tidied: runs of spaces become one space, spaces
// around line breaks are dropped and at most one blank line is kept.
func (c *Cleaner) Clean(s string) string {
	if s == "" {
		return s
	}
	s = collapse(c.symbols.Replace(norm.NFC.String(s)))
	for i := 0; i < maxPasses; i++ {
		prev := s
		for _, re := range c.boilerplate {
			s = collapse(re.ReplaceAllString(s, ""))
		}
		s = collapse(c.replace(s))
		if s == prev {
			break
		}
	}
	return s
}

// ReplaceVendors applies only the vendor replacements and symbol stripping,
// leaving whitespace untouched. It is meant for text split across runs,
// where collapsing spaces would join words of neighbouring runs.
func (c *Cleaner) ReplaceVendors(s string) string {
	if s == "" {
		return s
	}
	return c.replace(c.symbols.Replace(norm.NFC.String(s)))
}

func (c *Cleaner) replace(s string) string {
	for _, r := range c.replacements {
		s = r.re.ReplaceAllLiteralString(s, r.to)
	}
	return s
}

func collapse(s string) string {
	s = spaceRun.ReplaceAllString(s, " ")
	s = lineSpaces.ReplaceAllString(s, "\n")
	s = blankRun.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
