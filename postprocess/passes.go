package postprocess

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/tsawler/kitsheet/classify"
	"github.com/tsawler/kitsheet/cleanup"
	"github.com/tsawler/kitsheet/docx"
	"github.com/tsawler/kitsheet/section"
)

var errNoBody = errors.New("document has no body")

func segmenterOrDefault(s *section.Segmenter) *section.Segmenter {
	if s != nil {
		return s
	}
	return section.NewSegmenter(section.DefaultVocabulary(), section.DefaultConfig())
}

// MoveTable moves the first body table matching Fingerprint so that it
// immediately follows the heading of Section. Nothing happens when the
// heading or the table is missing, or when a matching table already
// follows the heading.
type MoveTable struct {
	Section     string
	Fingerprint classify.Fingerprint
	Segmenter   *section.Segmenter
}

// Name returns "move_" followed by the section's placeholder form.
func (m MoveTable) Name() string {
	return "move_" + section.FieldName(m.Section)
}

// Apply implements Pass.
func (m MoveTable) Apply(pkg *docx.Package) error {
	body := pkg.Body()
	if body == nil {
		return errNoBody
	}
	seg := segmenterOrDefault(m.Segmenter)

	var heading *docx.Node
	for _, n := range body.ChildrenNamed("p") {
		if name, ok := seg.Match(pkg.Paragraph(n)); ok && name == m.Section {
			heading = n
			break
		}
	}
	if heading == nil {
		return nil
	}
	if next := nextElement(heading); next.Is("tbl") && m.Fingerprint.MatchesHeader(docx.TableHeader(next)) {
		return nil
	}

	for _, tbl := range body.ChildrenNamed("tbl") {
		if m.Fingerprint.MatchesHeader(docx.TableHeader(tbl)) {
			tbl.Detach()
			body.InsertAfter(heading, tbl)
			return nil
		}
	}
	return nil
}

func nextElement(n *docx.Node) *docx.Node {
	parent := n.Parent
	if parent == nil {
		return nil
	}
	for _, c := range parent.Children[parent.IndexOf(n)+1:] {
		if c.Type == docx.ElementNode {
			return c
		}
	}
	return nil
}

// ReorderSections arranges the body's heading-led groups in Order. A group
// runs from a recognized heading up to the next one. Content before the
// first heading stays first; groups whose section is not in Order keep
// their slots, and the ordered groups are placed into the remaining slots.
type ReorderSections struct {
	Order     []string
	Segmenter *section.Segmenter
}

// Name implements Pass.
func (ReorderSections) Name() string { return "reorder_sections" }

type group struct {
	name  string
	nodes []*docx.Node
}

// Apply implements Pass.
func (r ReorderSections) Apply(pkg *docx.Package) error {
	body := pkg.Body()
	if body == nil {
		return errNoBody
	}
	seg := segmenterOrDefault(r.Segmenter)

	rank := make(map[string]int, len(r.Order))
	for i, name := range r.Order {
		if _, ok := rank[name]; !ok {
			rank[name] = i
		}
	}

	var lead, tail []*docx.Node
	var groups []group
	for _, c := range body.Elements() {
		if c.Is("sectPr") {
			tail = append(tail, c)
			continue
		}
		if c.Is("p") {
			if name, ok := seg.Match(pkg.Paragraph(c)); ok {
				groups = append(groups, group{name: name})
			}
		}
		if len(groups) == 0 {
			lead = append(lead, c)
			continue
		}
		g := &groups[len(groups)-1]
		g.nodes = append(g.nodes, c)
	}

	var slots []int
	var ordered []group
	for i, g := range groups {
		if _, ok := rank[g.name]; ok {
			slots = append(slots, i)
			ordered = append(ordered, g)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return rank[ordered[i].name] < rank[ordered[j].name]
	})
	for k, slot := range slots {
		groups[slot] = ordered[k]
	}

	body.Children = nil
	for _, n := range lead {
		body.AppendChild(n)
	}
	for _, g := range groups {
		for _, n := range g.nodes {
			body.AppendChild(n)
		}
	}
	for _, n := range tail {
		body.AppendChild(n)
	}
	return nil
}

// RewriteFooter replaces the paragraphs of every footer part with one
// paragraph per line. Size is in half-points; zero leaves the size unset.
type RewriteFooter struct {
	Lines []string
	Font  string
	Size  int
	Align string
}

// Name implements Pass.
func (RewriteFooter) Name() string { return "footer" }

// Apply implements Pass.
func (f RewriteFooter) Apply(pkg *docx.Package) error {
	if len(f.Lines) == 0 {
		return nil
	}
	for _, part := range pkg.Footers() {
		root := part.Root()
		if root == nil {
			continue
		}
		for _, p := range root.ChildrenNamed("p") {
			p.Detach()
		}
		for _, line := range f.Lines {
			p := docx.NewParagraph(line, "")
			if f.Align != "" {
				docx.SetAlignment(p, f.Align)
			}
			for _, r := range docx.Runs(p) {
				if f.Font != "" {
					docx.SetRunFont(r, f.Font)
				}
				if f.Size > 0 {
					docx.SetRunSize(r, f.Size)
				}
			}
			root.AppendChild(p)
		}
	}
	return nil
}

// NormalizeFonts sets one font family and line spacing on every body
// paragraph, table cells included. Size (half-points) is applied to runs of
// paragraphs whose style is not listed in KeepSizeStyles. Zero values leave
// the corresponding property alone.
type NormalizeFonts struct {
	Family         string
	Size           int
	Line           int
	KeepSizeStyles []string
}

// Name implements Pass.
func (NormalizeFonts) Name() string { return "fonts" }

// Apply implements Pass.
func (f NormalizeFonts) Apply(pkg *docx.Package) error {
	body := pkg.Body()
	if body == nil {
		return errNoBody
	}
	keep := make(map[string]bool)
	for _, s := range f.KeepSizeStyles {
		keep[s] = true
	}

	for _, p := range docx.AllParagraphs(body) {
		if f.Line > 0 {
			docx.SetLineSpacing(p, f.Line)
		}
		sized := f.Size > 0 && !keep[docx.ParagraphStyleID(p)]
		for _, r := range docx.Runs(p) {
			if f.Family != "" {
				docx.SetRunFont(r, f.Family)
			}
			if sized {
				docx.SetRunSize(r, f.Size)
			}
		}
	}
	return nil
}

// ReplaceVendor applies vendor replacements to every run of the body,
// headers and footers. Text that only matches across run boundaries is
// handled by merging the paragraph's runs, unless the paragraph holds
// embedded objects.
type ReplaceVendor struct {
	Cleaner *cleanup.Cleaner
}

// Name implements Pass.
func (ReplaceVendor) Name() string { return "vendor" }

// Apply implements Pass.
func (v ReplaceVendor) Apply(pkg *docx.Package) error {
	if v.Cleaner == nil {
		return errors.New("no cleanup rules configured")
	}
	roots := []*docx.Node{pkg.Body()}
	for _, part := range pkg.Headers() {
		roots = append(roots, part.Root())
	}
	for _, part := range pkg.Footers() {
		roots = append(roots, part.Root())
	}

	for _, root := range roots {
		if root == nil {
			continue
		}
		for _, p := range docx.AllParagraphs(root) {
			for _, r := range docx.Runs(p) {
				text := docx.RunText(r)
				if out := v.Cleaner.ReplaceVendors(text); out != text {
					docx.SetRunText(r, out)
				}
			}
			text := docx.ParagraphText(p)
			if out := v.Cleaner.ReplaceVendors(text); out != text && !docx.HasEmbeddedObjects(p) {
				docx.SetParagraphText(p, out)
			}
		}
	}
	return nil
}
