package docx

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// NodeType identifies the kind of an XML node.
type NodeType int

const (
	DocumentNode NodeType = iota
	ElementNode
	TextNode
	ProcInstNode
	CommentNode
	DirectiveNode
)

// Node is a mutable XML tree node. Element names keep their source prefix
// ("w:p" is Prefix "w", Local "p") so a part can be written back without
// namespace rewriting.
type Node struct {
	Type     NodeType
	Prefix   string
	Local    string
	Attr     []xml.Attr
	Data     string // character data, comment or processing instruction body
	Children []*Node
	Parent   *Node
}

// ParseXML builds a node tree from an XML part.
func ParseXML(data []byte) (*Node, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	root := &Node{Type: DocumentNode}
	cur := root

	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "decoding xml")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{
				Type:   ElementNode,
				Prefix: t.Name.Space,
				Local:  t.Name.Local,
				Attr:   append([]xml.Attr(nil), t.Attr...),
			}
			cur.AppendChild(n)
			cur = n
		case xml.EndElement:
			if cur.Parent == nil || cur.Local != t.Name.Local {
				return nil, errors.Errorf("unexpected end element %s", t.Name.Local)
			}
			cur = cur.Parent
		case xml.CharData:
			cur.AppendChild(&Node{Type: TextNode, Data: string(t)})
		case xml.ProcInst:
			cur.AppendChild(&Node{Type: ProcInstNode, Local: t.Target, Data: string(t.Inst)})
		case xml.Comment:
			cur.AppendChild(&Node{Type: CommentNode, Data: string(t)})
		case xml.Directive:
			cur.AppendChild(&Node{Type: DirectiveNode, Data: string(t)})
		}
	}

	if cur != root {
		return nil, errors.Errorf("unclosed element %s", cur.Name())
	}
	return root, nil
}

// NewElement creates an element from a qualified name such as "w:p".
// Attributes are given as name/value pairs.
func NewElement(name string, attrs ...string) *Node {
	prefix, local := splitName(name)
	n := &Node{Type: ElementNode, Prefix: prefix, Local: local}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.SetAttr(attrs[i], attrs[i+1])
	}
	return n
}

// NewText creates a character data node.
func NewText(s string) *Node {
	return &Node{Type: TextNode, Data: s}
}

func splitName(name string) (string, string) {
	if i := strings.IndexByte(name, ':'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

// Name returns the qualified element name.
func (n *Node) Name() string {
	if n.Prefix == "" {
		return n.Local
	}
	return n.Prefix + ":" + n.Local
}

// Is reports whether n is an element with the given local name.
func (n *Node) Is(local string) bool {
	return n != nil && n.Type == ElementNode && n.Local == local
}

// Elements returns the element children of n.
func (n *Node) Elements() []*Node {
	out := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		if c.Type == ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// Child returns the first element child with the given local name.
func (n *Node) Child(local string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Is(local) {
			return c
		}
	}
	return nil
}

// ChildrenNamed returns the element children with the given local name.
func (n *Node) ChildrenNamed(local string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Is(local) {
			out = append(out, c)
		}
	}
	return out
}

// Find returns every descendant element with the given local name in
// document order.
func (n *Node) Find(local string) []*Node {
	var out []*Node
	n.Walk(func(c *Node) bool {
		if c != n && c.Is(local) {
			out = append(out, c)
		}
		return true
	})
	return out
}

// Walk visits n and its descendants in document order. Returning false from
// fn skips the children of the visited node.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Root returns the document element of a parsed part.
func (n *Node) Root() *Node {
	for _, c := range n.Children {
		if c.Type == ElementNode {
			return c
		}
	}
	return nil
}

// GetAttr returns the value of the attribute with the given local name.
func (n *Node) GetAttr(local string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// SetAttr sets an attribute by qualified name, replacing any attribute with
// the same local name.
func (n *Node) SetAttr(name, value string) {
	prefix, local := splitName(name)
	for i, a := range n.Attr {
		if a.Name.Local == local {
			n.Attr[i].Value = value
			return
		}
	}
	n.Attr = append(n.Attr, xml.Attr{Name: xml.Name{Space: prefix, Local: local}, Value: value})
}

// RemoveAttr deletes the attribute with the given local name.
func (n *Node) RemoveAttr(local string) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Name.Local != local {
			kept = append(kept, a)
		}
	}
	n.Attr = kept
}

// AppendChild adds c as the last child of n.
func (n *Node) AppendChild(c *Node) {
	c.Parent = n
	n.Children = append(n.Children, c)
}

// InsertChild inserts c at position i among the children of n.
func (n *Node) InsertChild(i int, c *Node) {
	if i < 0 {
		i = 0
	}
	if i > len(n.Children) {
		i = len(n.Children)
	}
	c.Parent = n
	n.Children = append(n.Children, nil)
	copy(n.Children[i+1:], n.Children[i:])
	n.Children[i] = c
}

// InsertAfter inserts c immediately after ref, which must be a child of n.
func (n *Node) InsertAfter(ref, c *Node) {
	n.InsertChild(n.IndexOf(ref)+1, c)
}

// IndexOf returns the position of c among the children of n, or -1.
func (n *Node) IndexOf(c *Node) int {
	for i, x := range n.Children {
		if x == c {
			return i
		}
	}
	return -1
}

// RemoveChild detaches c from n.
func (n *Node) RemoveChild(c *Node) bool {
	i := n.IndexOf(c)
	if i < 0 {
		return false
	}
	n.Children = append(n.Children[:i], n.Children[i+1:]...)
	c.Parent = nil
	return true
}

// Detach removes n from its parent.
func (n *Node) Detach() {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// Clone returns a deep copy of n without a parent.
func (n *Node) Clone() *Node {
	c := &Node{
		Type:   n.Type,
		Prefix: n.Prefix,
		Local:  n.Local,
		Attr:   append([]xml.Attr(nil), n.Attr...),
		Data:   n.Data,
	}
	for _, child := range n.Children {
		c.AppendChild(child.Clone())
	}
	return c
}

// Bytes serializes the tree.
func (n *Node) Bytes() []byte {
	var buf bytes.Buffer
	n.write(&buf)
	return buf.Bytes()
}

func (n *Node) write(buf *bytes.Buffer) {
	switch n.Type {
	case DocumentNode:
		for _, c := range n.Children {
			c.write(buf)
		}
	case TextNode:
		_ = xml.EscapeText(buf, []byte(n.Data))
	case ProcInstNode:
		buf.WriteString("<?")
		buf.WriteString(n.Local)
		if n.Data != "" {
			if !strings.ContainsAny(n.Data[:1], " \t\r\n") {
				buf.WriteByte(' ')
			}
			buf.WriteString(n.Data)
		}
		buf.WriteString("?>")
	case CommentNode:
		buf.WriteString("<!--")
		buf.WriteString(n.Data)
		buf.WriteString("-->")
	case DirectiveNode:
		buf.WriteString("<!")
		buf.WriteString(n.Data)
		buf.WriteString(">")
	case ElementNode:
		buf.WriteByte('<')
		buf.WriteString(n.Name())
		for _, a := range n.Attr {
			buf.WriteByte(' ')
			if a.Name.Space != "" {
				buf.WriteString(a.Name.Space)
				buf.WriteByte(':')
			}
			buf.WriteString(a.Name.Local)
			buf.WriteString(`="`)
			_ = xml.EscapeText(buf, []byte(a.Value))
			buf.WriteByte('"')
		}
		if len(n.Children) == 0 {
			buf.WriteString("/>")
			return
		}
		buf.WriteByte('>')
		for _, c := range n.Children {
			c.write(buf)
		}
		buf.WriteString("</")
		buf.WriteString(n.Name())
		buf.WriteByte('>')
	}
}
