package parser

import (
	"bytes"
	"io"
	"strconv"
	"strings"

	"github.com/dgallion1/vimhelp/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark. A definition list
// term consisting of a single code span is read as an API description.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.Node, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New(goldmark.WithExtensions(extension.DefinitionList))
	root := md.Parser().Parse(text.NewReader(src))

	doc := newDocument(filename)
	c := &mdConverter{src: src}
	o := newOutline(doc)

	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			o.heading(h.Level, c.inlines(h)...)
			continue
		}
		o.add(c.block(n)...)
	}
	return doc, nil
}

type mdConverter struct {
	src []byte
}

func (c *mdConverter) blocks(parent ast.Node) []*doctree.Node {
	var out []*doctree.Node
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		out = append(out, c.block(n)...)
	}
	return out
}

func (c *mdConverter) block(n ast.Node) []*doctree.Node {
	switch v := n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		return []*doctree.Node{doctree.NewElement(doctree.KindParagraph, c.inlines(v)...)}
	case *ast.Heading:
		// Headings nested in lists or quotes cannot open sections.
		return []*doctree.Node{doctree.NewElement(doctree.KindParagraph,
			doctree.NewElement(doctree.KindStrong, c.inlines(v)...))}
	case *ast.FencedCodeBlock:
		lb := doctree.NewElement(doctree.KindLiteralBlock, doctree.NewText(c.lines(v)))
		if lang := v.Language(c.src); len(lang) > 0 {
			lb.SetAttr(doctree.AttrLanguage, string(lang))
		}
		return []*doctree.Node{lb}
	case *ast.CodeBlock:
		return []*doctree.Node{doctree.NewElement(doctree.KindLiteralBlock, doctree.NewText(c.lines(v)))}
	case *ast.Blockquote:
		return []*doctree.Node{doctree.NewElement(doctree.KindBlockQuote, c.blocks(v)...)}
	case *ast.List:
		kind := doctree.KindBulletList
		if v.IsOrdered() {
			kind = doctree.KindEnumeratedList
		}
		list := doctree.NewElement(kind)
		if v.IsOrdered() && v.Start > 1 {
			list.SetAttr(doctree.AttrStart, strconv.Itoa(v.Start))
		}
		for it := v.FirstChild(); it != nil; it = it.NextSibling() {
			list.Append(doctree.NewElement(doctree.KindListItem, c.blocks(it)...))
		}
		return []*doctree.Node{list}
	case *ast.ThematicBreak:
		return []*doctree.Node{doctree.NewElement(doctree.KindTransition)}
	case *east.DefinitionList:
		return c.definitionList(v)
	case *ast.HTMLBlock:
		return nil
	default:
		if n.HasChildren() {
			return c.blocks(n)
		}
		return nil
	}
}

// definitionList splits a definition list into plain definition lists and
// desc entries, keeping document order.
func (c *mdConverter) definitionList(dl *east.DefinitionList) []*doctree.Node {
	var out []*doctree.Node
	var plain *doctree.Node
	var current *doctree.Node // item or desc receiving descriptions

	for n := dl.FirstChild(); n != nil; n = n.NextSibling() {
		switch v := n.(type) {
		case *east.DefinitionTerm:
			if sig, ok := c.signature(v); ok {
				plain = nil
				current = doctree.NewElement(doctree.KindDesc,
					doctree.NewElement(doctree.KindDescSignature, doctree.NewText(sig)),
					doctree.NewElement(doctree.KindDescContent),
				).SetAttr(doctree.AttrDescType, descType(sig))
				out = append(out, current)
				continue
			}
			if plain == nil {
				plain = doctree.NewElement(doctree.KindDefinitionList)
				out = append(out, plain)
			}
			current = doctree.NewElement(doctree.KindDefinitionListItem,
				doctree.NewElement(doctree.KindTerm, c.inlines(v)...),
				doctree.NewElement(doctree.KindDefinition),
			)
			plain.Append(current)
		case *east.DefinitionDescription:
			if current == nil {
				continue
			}
			target := current.FirstChild(doctree.KindDefinition)
			if current.Kind == doctree.KindDesc {
				target = current.FirstChild(doctree.KindDescContent)
			}
			target.Append(c.blocks(v)...)
		}
	}
	return out
}

// signature reports whether a term is a lone code span.
func (c *mdConverter) signature(term *east.DefinitionTerm) (string, bool) {
	cs, ok := term.FirstChild().(*ast.CodeSpan)
	if !ok || cs.NextSibling() != nil {
		return "", false
	}
	sig := strings.TrimSpace(c.plain(cs))
	return sig, sig != ""
}

func descType(sig string) string {
	if strings.Contains(sig, "(") {
		return "function"
	}
	return "data"
}

func (c *mdConverter) inlines(parent ast.Node) []*doctree.Node {
	var out []*doctree.Node
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		switch v := n.(type) {
		case *ast.Text:
			s := string(v.Segment.Value(c.src))
			if v.SoftLineBreak() || v.HardLineBreak() {
				s += "\n"
			}
			out = append(out, doctree.NewText(s))
		case *ast.String:
			out = append(out, doctree.NewText(string(v.Value)))
		case *ast.CodeSpan:
			out = append(out, doctree.NewElement(doctree.KindLiteral, doctree.NewText(c.plain(v))))
		case *ast.Emphasis:
			out = append(out, c.emphasis(v))
		case *ast.Link:
			out = append(out, link(string(v.Destination), c.inlines(v)))
		case *ast.AutoLink:
			url := string(v.URL(c.src))
			out = append(out, doctree.NewElement(doctree.KindReference, doctree.NewText(url)).
				SetAttr(doctree.AttrRefURI, url))
		case *ast.RawHTML:
		default:
			out = append(out, c.inlines(n)...)
		}
	}
	return out
}

func (c *mdConverter) emphasis(e *ast.Emphasis) *doctree.Node {
	if e.Level >= 2 {
		return doctree.NewElement(doctree.KindStrong, c.inlines(e)...)
	}
	// *`arg`* marks a parameter name.
	if cs, ok := e.FirstChild().(*ast.CodeSpan); ok && cs.NextSibling() == nil {
		return doctree.NewElement(doctree.KindLiteralEmphasis, doctree.NewText(c.plain(cs)))
	}
	return doctree.NewElement(doctree.KindEmphasis, c.inlines(e)...)
}

// link maps relative destinations to cross-references and the rest to
// external references.
func link(dest string, children []*doctree.Node) *doctree.Node {
	if isExternal(dest) {
		return doctree.NewElement(doctree.KindReference, children...).SetAttr(doctree.AttrRefURI, dest)
	}
	return doctree.NewElement(doctree.KindInline, children...).WithRole(doctree.RoleXref)
}

func isExternal(dest string) bool {
	return strings.Contains(dest, "://") || strings.HasPrefix(dest, "mailto:")
}

// plain returns the raw text below n.
func (c *mdConverter) plain(n ast.Node) string {
	var buf bytes.Buffer
	for ch := n.FirstChild(); ch != nil; ch = ch.NextSibling() {
		switch v := ch.(type) {
		case *ast.Text:
			buf.Write(v.Segment.Value(c.src))
			if v.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(v.Value)
		default:
			buf.WriteString(c.plain(ch))
		}
	}
	return buf.String()
}

// lines joins the raw source lines of a block.
func (c *mdConverter) lines(n ast.Node) string {
	var buf bytes.Buffer
	l := n.Lines()
	for i := 0; i < l.Len(); i++ {
		seg := l.At(i)
		buf.Write(seg.Value(c.src))
	}
	return buf.String()
}
