package zoho

import "strings"

// NodeKind discriminates ContentNode variants.
type NodeKind int

const (
	KindRoot NodeKind = iota
	KindText
	KindElement
)

// Attr is a single element attribute. Order of attributes on an element is
// preserved from the source document.
type Attr struct {
	Key   string
	Value string
}

// ContentNode is one node of a parsed znel content tree. The tree is built
// once by the parser and never mutated by consumers.
type ContentNode struct {
	Kind     NodeKind
	Data     string // text payload, KindText only
	Tag      string // lowercase tag name, KindElement only
	Attrs    []Attr
	Children []*ContentNode
}

// Attr returns the value of the named attribute, or "" when absent.
func (n *ContentNode) Attr(key string) string {
	for _, a := range n.Attrs {
		if a.Key == key {
			return a.Value
		}
	}
	return ""
}

// HasAttr reports whether the named attribute is present, even when empty.
func (n *ContentNode) HasAttr(key string) bool {
	for _, a := range n.Attrs {
		if a.Key == key {
			return true
		}
	}
	return false
}

// HasClass reports whether the element's class attribute contains name as a
// whitespace-separated token.
func (n *ContentNode) HasClass(name string) bool {
	for _, c := range strings.Fields(n.Attr("class")) {
		if c == name {
			return true
		}
	}
	return false
}

// IsElement reports whether the node is an element with the given tag.
func (n *ContentNode) IsElement(tag string) bool {
	return n != nil && n.Kind == KindElement && n.Tag == tag
}

// ElementChildren returns the element children of n in document order.
func (n *ContentNode) ElementChildren() []*ContentNode {
	out := make([]*ContentNode, 0, len(n.Children))
	for _, c := range n.Children {
		if c.Kind == KindElement {
			out = append(out, c)
		}
	}
	return out
}

// HasText reports whether any descendant text node contains non-whitespace.
func (n *ContentNode) HasText() bool {
	if n == nil {
		return false
	}
	if n.Kind == KindText {
		return strings.TrimSpace(n.Data) != ""
	}
	for _, c := range n.Children {
		if c.HasText() {
			return true
		}
	}
	return false
}

// Note is one convertible unit from a Zoho Notebook export. Content is always
// non-nil: an empty root is valid and distinct from a missing one.
type Note struct {
	ID           string
	Notebook     string
	Title        string
	Color        string
	CreatedRaw   string
	ModifiedRaw  string
	DeclaredType string
	Content      *ContentNode
	Images       []string
	Attachments  []string

	// BaseDir is the extracted .znote directory the resource paths are
	// relative to. Empty when the note was built in memory.
	BaseDir string
}

// ExportData is everything the reader hands to the export pipeline.
type ExportData struct {
	Notes []Note
}

// NewRoot returns an empty content root.
func NewRoot(children ...*ContentNode) *ContentNode {
	return &ContentNode{Kind: KindRoot, Children: children}
}

// Text returns a text node.
func Text(s string) *ContentNode {
	return &ContentNode{Kind: KindText, Data: s}
}

// Elem returns an element node.
func Elem(tag string, children ...*ContentNode) *ContentNode {
	return &ContentNode{Kind: KindElement, Tag: tag, Children: children}
}

// ElemAttrs returns an element node with attributes.
func ElemAttrs(tag string, attrs []Attr, children ...*ContentNode) *ContentNode {
	return &ContentNode{Kind: KindElement, Tag: tag, Attrs: attrs, Children: children}
}
