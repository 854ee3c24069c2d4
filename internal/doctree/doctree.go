package doctree

import "strings"

// Kind identifies the type of a tree node.
type Kind int

const (
	KindDocument Kind = iota
	KindSection
	KindTitle
	KindParagraph
	KindText
	KindLiteralBlock
	KindBlockQuote
	KindTransition
	KindBulletList
	KindEnumeratedList
	KindListItem
	KindDefinitionList
	KindDefinitionListItem
	KindTerm
	KindDefinition
	KindDesc          // A documented API entry (function, class, option).
	KindDescSignature // The declaration syntax of a Desc.
	KindDescContent
	KindInline
	KindEmphasis
	KindStrong
	KindLiteral
	KindLiteralEmphasis
	KindTitleReference
	KindReference
)

var kindNames = [...]string{
	KindDocument:           "document",
	KindSection:            "section",
	KindTitle:              "title",
	KindParagraph:          "paragraph",
	KindText:               "text",
	KindLiteralBlock:       "literal_block",
	KindBlockQuote:         "block_quote",
	KindTransition:         "transition",
	KindBulletList:         "bullet_list",
	KindEnumeratedList:     "enumerated_list",
	KindListItem:           "list_item",
	KindDefinitionList:     "definition_list",
	KindDefinitionListItem: "definition_list_item",
	KindTerm:               "term",
	KindDefinition:         "definition",
	KindDesc:               "desc",
	KindDescSignature:      "desc_signature",
	KindDescContent:        "desc_content",
	KindInline:             "inline",
	KindEmphasis:           "emphasis",
	KindStrong:             "strong",
	KindLiteral:            "literal",
	KindLiteralEmphasis:    "literal_emphasis",
	KindTitleReference:     "title_reference",
	KindReference:          "reference",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Role is a class tag attached to a node.
type Role uint8

const (
	RoleXref Role = iota // Cross-reference to another entry.
	RoleTerm             // Glossary term.
)

// RoleSet is a set of roles.
type RoleSet uint32

// Has reports whether r is in the set.
func (s RoleSet) Has(r Role) bool { return s&(1<<r) != 0 }

// With returns a copy of the set with r added.
func (s RoleSet) With(r Role) RoleSet { return s | 1<<r }

// Well-known attribute keys.
const (
	AttrSource   = "source"
	AttrTitle    = "title"
	AttrDescType = "desctype"
	AttrTocName  = "toc_name"
	AttrRefURI   = "refuri"
	AttrLanguage = "language"
	AttrStart    = "start"
)

// Node is one element of a document tree. Text nodes carry Value and no
// children; every other kind carries children.
type Node struct {
	Kind     Kind
	Roles    RoleSet
	Value    string
	Attrs    map[string]string
	Children []*Node
	Line     int // Source line or page (0 if N/A)
}

// NewDocument returns an empty document for the given source path.
func NewDocument(source string) *Node {
	return &Node{Kind: KindDocument, Attrs: map[string]string{AttrSource: source}}
}

// NewElement returns a node of kind k with the given children.
func NewElement(k Kind, children ...*Node) *Node {
	return &Node{Kind: k, Children: children}
}

// NewText returns a text leaf.
func NewText(s string) *Node {
	return &Node{Kind: KindText, Value: s}
}

// Append adds children and returns n.
func (n *Node) Append(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// WithRole adds a role and returns n.
func (n *Node) WithRole(r Role) *Node {
	n.Roles = n.Roles.With(r)
	return n
}

// SetAttr sets an attribute and returns n.
func (n *Node) SetAttr(key, value string) *Node {
	if n.Attrs == nil {
		n.Attrs = make(map[string]string)
	}
	n.Attrs[key] = value
	return n
}

// Attr returns the attribute value and whether it is set.
func (n *Node) Attr(key string) (string, bool) {
	v, ok := n.Attrs[key]
	return v, ok
}

// FirstChild returns the first direct child of kind k, or nil.
func (n *Node) FirstChild(k Kind) *Node {
	for _, c := range n.Children {
		if c.Kind == k {
			return c
		}
	}
	return nil
}

// AsText returns the concatenated text of all text descendants.
func (n *Node) AsText() string {
	if n.Kind == KindText {
		return n.Value
	}
	var buf strings.Builder
	n.appendText(&buf)
	return buf.String()
}

func (n *Node) appendText(buf *strings.Builder) {
	for _, c := range n.Children {
		if c.Kind == KindText {
			buf.WriteString(c.Value)
			continue
		}
		c.appendText(buf)
	}
}

// Empty reports whether the node has no children and no text.
func (n *Node) Empty() bool {
	return len(n.Children) == 0 && n.Value == ""
}
