// Package render builds the placeholder context for a kit datasheet and
// renders it into a DOCX template.
//
// Templates use Django/Jinja syntax evaluated by pongo2: {{ name }} for a
// value and {% for x in list %}...{% endfor %} for loops. A loop may sit
// inside one paragraph, span whole paragraphs (a paragraph holding only the
// for tag through a paragraph holding only endfor), or span table rows (a
// row whose first cell holds only the for tag through a row whose first cell
// holds only endfor):
//
//	ctx := render.NewBuilder(render.BuilderConfig{}).Build(fields, render.Overrides{LotNumber: "L42"})
//	if err := render.NewRenderer(logger).Render(pkg, ctx); err != nil {
//		var unresolved *render.UnresolvedError
//		if errors.As(err, &unresolved) { ... }
//	}
package render

import (
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/flosch/pongo2/v6"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/tsawler/kitsheet/docx"
)

// UnresolvedError reports placeholders the context does not define.
type UnresolvedError struct {
	Names []string
}

func (e *UnresolvedError) Error() string {
	return "unresolved placeholders: " + strings.Join(e.Names, ", ")
}

// Renderer fills DOCX templates.
type Renderer struct {
	logger *zap.Logger
}

// NewRenderer creates a renderer. A nil logger disables logging.
func NewRenderer(logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{logger: logger}
}

var (
	varTagRE     = regexp.MustCompile(`\{\{-?\s*(.*?)\s*-?\}\}`)
	blockTagRE   = regexp.MustCompile(`\{%-?\s*(\w+)\s*(.*?)\s*-?%\}`)
	forTagRE     = regexp.MustCompile(`^\{%-?\s*for\s+(\w+)\s+in\s+([A-Za-z_][\w.]*)\s*-?%\}$`)
	endforTagRE  = regexp.MustCompile(`^\{%-?\s*endfor\s*-?%\}$`)
	loopVarsRE   = regexp.MustCompile(`^(\w+)(?:\s*,\s*(\w+))?\s+in\s+(.*)$`)
	identifierRE = regexp.MustCompile(`(?:^|[^\w.])([A-Za-z_]\w*)`)
	stringLitRE  = regexp.MustCompile(`"[^"]*"|'[^']*'`)
)

var keywords = map[string]bool{
	"and": true, "or": true, "not": true, "in": true, "is": true,
	"true": true, "false": true, "none": true, "True": true, "False": true, "None": true,
	"forloop": true,
}

// Render substitutes ctx into the body, headers and footers of tpl. Before
// anything is changed every referenced name is checked; if any is missing
// the package is left untouched and an *UnresolvedError lists them all.
func (r *Renderer) Render(tpl *docx.Package, ctx Context) error {
	roots := templateRoots(tpl)
	if missing := Unresolved(roots, ctx); len(missing) > 0 {
		r.logger.Error("template references undefined placeholders",
			zap.String("path", tpl.Path()),
			zap.Strings("missing", missing))
		return &UnresolvedError{Names: missing}
	}

	p := &pass{logger: r.logger, templates: make(map[string]*pongo2.Template)}
	scope := pongo2.Context(ctx)
	for _, root := range roots {
		if root == nil {
			continue
		}
		if err := p.block(root, scope); err != nil {
			return errors.Wrapf(err, "rendering %s", tpl.Path())
		}
	}
	return nil
}

// Unresolved returns the sorted top-level names referenced under roots that
// ctx does not define. Loop variables are excluded. A nil ctx defines
// nothing, so every referenced name is returned.
func Unresolved(roots []*docx.Node, ctx Context) []string {
	referenced := make(map[string]bool)
	loopVars := make(map[string]bool)
	for _, root := range roots {
		if root == nil {
			continue
		}
		for _, p := range docx.AllParagraphs(root) {
			text := docx.ParagraphText(p)
			if !hasTags(text) {
				continue
			}
			collectNames(text, referenced, loopVars)
		}
	}

	var missing []string
	for name := range referenced {
		if loopVars[name] || keywords[name] || ctx.Has(name) {
			continue
		}
		missing = append(missing, name)
	}
	sort.Strings(missing)
	return missing
}

func collectNames(text string, referenced, loopVars map[string]bool) {
	for _, m := range varTagRE.FindAllStringSubmatch(text, -1) {
		expressionNames(m[1], referenced)
	}
	for _, m := range blockTagRE.FindAllStringSubmatch(text, -1) {
		switch m[1] {
		case "for":
			if lv := loopVarsRE.FindStringSubmatch(m[2]); lv != nil {
				loopVars[lv[1]] = true
				if lv[2] != "" {
					loopVars[lv[2]] = true
				}
				expressionNames(lv[3], referenced)
			}
		case "if", "elif":
			expressionNames(m[2], referenced)
		}
	}
}

// expressionNames adds the leading identifiers of a template expression.
// Filters and their arguments are ignored.
func expressionNames(expr string, out map[string]bool) {
	expr = stringLitRE.ReplaceAllString(expr, `""`)
	if i := strings.IndexByte(expr, '|'); i >= 0 {
		expr = expr[:i]
	}
	for _, m := range identifierRE.FindAllStringSubmatch(expr, -1) {
		out[m[1]] = true
	}
}

func hasTags(s string) bool {
	return strings.Contains(s, "{{") || strings.Contains(s, "{%")
}

// pass holds the state of one Render call.
type pass struct {
	logger    *zap.Logger
	templates map[string]*pongo2.Template
}

// block renders the paragraphs and tables directly under parent, expanding
// paragraph loops. Nodes produced by a loop are rendered with the loop scope
// and not visited again.
func (p *pass) block(parent *docx.Node, scope pongo2.Context) error {
	kids := parent.Elements()
	for i := 0; i < len(kids); i++ {
		n := kids[i]
		switch n.Local {
		case "p":
			text := strings.TrimSpace(docx.ParagraphText(n))
			if m := forTagRE.FindStringSubmatch(text); m != nil {
				end := matchEnd(kids, i, paragraphMarker)
				if end < 0 {
					return errors.Errorf("paragraph loop %q has no endfor", text)
				}
				if err := p.repeat(parent, n, kids[i+1:end], m[1], m[2], scope, p.block); err != nil {
					return err
				}
				for _, k := range kids[i : end+1] {
					k.Detach()
				}
				i = end
				continue
			}
			if err := p.paragraph(n, scope); err != nil {
				return err
			}
		case "tbl":
			if err := p.table(n, scope); err != nil {
				return err
			}
		case "sdt":
			if content := n.Child("sdtContent"); content != nil {
				if err := p.block(content, scope); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// table expands row loops, then renders the cells of the remaining rows.
func (p *pass) table(tbl *docx.Node, scope pongo2.Context) error {
	rows := docx.TableRows(tbl)
	for i := 0; i < len(rows); i++ {
		tr := rows[i]
		if m := forTagRE.FindStringSubmatch(firstCellText(tr)); m != nil {
			end := matchEnd(rows, i, rowMarker)
			if end < 0 {
				return errors.Errorf("row loop over %q has no endfor", m[2])
			}
			if err := p.repeat(tbl, tr, rows[i+1:end], m[1], m[2], scope, p.table); err != nil {
				return err
			}
			for _, row := range rows[i : end+1] {
				row.Detach()
			}
			i = end
			continue
		}
		for _, tc := range docx.RowCells(tr) {
			if err := p.block(tc, scope); err != nil {
				return err
			}
		}
	}
	return nil
}

// repeat renders a copy of body for every item of the named list and
// inserts the copies before at. Each copy is rendered inside a detached
// container of the parent's kind so nested loops resolve within it.
func (p *pass) repeat(parent, at *docx.Node, body []*docx.Node, loopVar, listExpr string,
	scope pongo2.Context, render func(*docx.Node, pongo2.Context) error) error {
	items := listItems(lookup(scope, listExpr))
	p.logger.Debug("expanding loop", zap.String("list", listExpr), zap.Int("items", len(items)))
	for k, item := range items {
		child := make(pongo2.Context, len(scope)+2)
		for name, v := range scope {
			child[name] = v
		}
		child[loopVar] = item
		child["forloop"] = map[string]any{
			"Counter":     k + 1,
			"Counter0":    k,
			"Revcounter":  len(items) - k,
			"Revcounter0": len(items) - k - 1,
			"First":       k == 0,
			"Last":        k == len(items)-1,
		}

		tmp := docx.NewElement(parent.Name())
		for _, n := range body {
			tmp.AppendChild(n.Clone())
		}
		if err := render(tmp, child); err != nil {
			return err
		}
		for _, n := range append([]*docx.Node(nil), tmp.Children...) {
			tmp.RemoveChild(n)
			parent.InsertChild(parent.IndexOf(at), n)
		}
	}
	return nil
}

// paragraph renders the inline tags of one paragraph. Runs are merged first
// so a tag split across runs is seen whole; the first run's formatting is
// kept.
func (p *pass) paragraph(n *docx.Node, scope pongo2.Context) error {
	text := docx.ParagraphText(n)
	if !hasTags(text) {
		return nil
	}
	out, err := p.execute(text, scope)
	if err != nil {
		return err
	}
	docx.SetParagraphText(n, out)
	return nil
}

func (p *pass) execute(text string, scope pongo2.Context) (string, error) {
	tpl, ok := p.templates[text]
	if !ok {
		var err error
		tpl, err = pongo2.FromString("{% autoescape off %}" + text + "{% endautoescape %}")
		if err != nil {
			return "", errors.Wrapf(err, "parsing template text %q", text)
		}
		p.templates[text] = tpl
	}
	out, err := tpl.Execute(scope)
	if err != nil {
		return "", errors.Wrapf(err, "executing template text %q", text)
	}
	return out, nil
}

type marker int

const (
	markerNone marker = iota
	markerFor
	markerEnd
)

func paragraphMarker(n *docx.Node) marker {
	if !n.Is("p") {
		return markerNone
	}
	return markerOf(strings.TrimSpace(docx.ParagraphText(n)))
}

func rowMarker(tr *docx.Node) marker {
	return markerOf(firstCellText(tr))
}

func markerOf(text string) marker {
	switch {
	case forTagRE.MatchString(text):
		return markerFor
	case endforTagRE.MatchString(text):
		return markerEnd
	}
	return markerNone
}

// matchEnd returns the index of the endfor marker closing the loop opened
// at start, or -1.
func matchEnd(nodes []*docx.Node, start int, kind func(*docx.Node) marker) int {
	depth := 0
	for i := start; i < len(nodes); i++ {
		switch kind(nodes[i]) {
		case markerFor:
			depth++
		case markerEnd:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func firstCellText(tr *docx.Node) string {
	cells := docx.RowCells(tr)
	if len(cells) == 0 {
		return ""
	}
	return strings.TrimSpace(docx.CellText(cells[0]))
}

// lookup resolves a dotted name against the scope.
func lookup(scope pongo2.Context, expr string) any {
	parts := strings.Split(expr, ".")
	var v any = scope[parts[0]]
	for _, key := range parts[1:] {
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
			return nil
		}
		e := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
		if !e.IsValid() {
			return nil
		}
		v = e.Interface()
	}
	return v
}

// listItems returns the elements of a slice or array value. Any other
// value yields no items.
func listItems(v any) []any {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// Names returns the placeholders referenced by a template package, sorted.
// Loop variables are excluded.
func Names(tpl *docx.Package) []string {
	return Unresolved(templateRoots(tpl), nil)
}

// templateRoots returns the body and the header and footer roots.
func templateRoots(tpl *docx.Package) []*docx.Node {
	roots := []*docx.Node{tpl.Body()}
	for _, part := range tpl.Headers() {
		roots = append(roots, part.Root())
	}
	for _, part := range tpl.Footers() {
		roots = append(roots, part.Root())
	}
	return roots
}
