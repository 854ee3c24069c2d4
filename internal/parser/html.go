package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/vimhelp/internal/doctree"
	"golang.org/x/net/html"
)

// HTMLParser handles HTML files, including the markup emitted by
// documentation generators: <dl class="function"> entries become desc
// nodes, internal references become cross-references, and <dfn> or
// class="term" become glossary terms.
type HTMLParser struct{}

// descClasses are the <dl> classes read as API descriptions.
var descClasses = []string{
	"function", "method", "class", "attribute", "data", "exception",
	"module", "option", "envvar", "macro", "type", "member", "property",
}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*doctree.Node, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	doc := newDocument(filename)
	o := newOutline(doc)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch {
			case c.Type == html.TextNode:
				if t := strings.TrimSpace(c.Data); t != "" {
					o.add(doctree.NewElement(doctree.KindParagraph, doctree.NewText(t)))
				}
			case c.Type != html.ElementNode:
			case headingLevel(c.Data) > 0:
				o.heading(headingLevel(c.Data), inlines(c)...)
			case skipped(c.Data):
			case container(c.Data):
				walk(c)
			default:
				o.add(block(c)...)
			}
		}
	}

	body := findBody(root)
	if body == nil {
		body = root
	}
	walk(body)

	// A <title> wins over the first heading.
	if t := findTitle(root); t != "" {
		doc.SetAttr(doctree.AttrTitle, t)
	}
	return doc, nil
}

// blocks converts the children of a block element. Loose inline content
// between block children is gathered into paragraphs.
func blocks(n *html.Node) []*doctree.Node {
	var out []*doctree.Node
	var pending []*doctree.Node
	flush := func() {
		if len(pending) == 0 {
			return
		}
		para := doctree.NewElement(doctree.KindParagraph, pending...)
		if strings.TrimSpace(para.AsText()) != "" {
			out = append(out, para)
		}
		pending = nil
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (isBlock(c.Data) || headingLevel(c.Data) > 0) {
			flush()
			out = append(out, block(c)...)
			continue
		}
		pending = append(pending, inline(c)...)
	}
	flush()
	return out
}

func block(n *html.Node) []*doctree.Node {
	switch n.Data {
	case "p":
		return []*doctree.Node{doctree.NewElement(doctree.KindParagraph, inlines(n)...)}
	case "pre":
		return []*doctree.Node{doctree.NewElement(doctree.KindLiteralBlock, doctree.NewText(rawText(n)))}
	case "blockquote":
		return []*doctree.Node{doctree.NewElement(doctree.KindBlockQuote, blocks(n)...)}
	case "ul", "ol":
		kind := doctree.KindBulletList
		if n.Data == "ol" {
			kind = doctree.KindEnumeratedList
		}
		list := doctree.NewElement(kind)
		if start := attr(n, "start"); start != "" && kind == doctree.KindEnumeratedList {
			list.SetAttr(doctree.AttrStart, start)
		}
		for li := n.FirstChild; li != nil; li = li.NextSibling {
			if li.Type == html.ElementNode && li.Data == "li" {
				list.Append(doctree.NewElement(doctree.KindListItem, blocks(li)...))
			}
		}
		return []*doctree.Node{list}
	case "hr":
		return []*doctree.Node{doctree.NewElement(doctree.KindTransition)}
	case "dl":
		if dt := descClass(n); dt != "" {
			return []*doctree.Node{desc(n, dt)}
		}
		return []*doctree.Node{definitionList(n)}
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return []*doctree.Node{doctree.NewElement(doctree.KindParagraph,
			doctree.NewElement(doctree.KindStrong, inlines(n)...))}
	case "script", "style", "nav", "footer", "header":
		return nil
	default:
		return blocks(n)
	}
}

// desc builds a desc node from <dl class="desctype">. The first <dt> is
// the signature; a missing <dt> yields a desc without one.
func desc(n *html.Node, descType string) *doctree.Node {
	d := doctree.NewElement(doctree.KindDesc).SetAttr(doctree.AttrDescType, descType)
	content := doctree.NewElement(doctree.KindDescContent)
	var sig *doctree.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "dt":
			if sig != nil {
				continue
			}
			sig = doctree.NewElement(doctree.KindDescSignature, doctree.NewText(collapse(textContent(c))))
			if toc := attr(c, "data-toc-name"); toc != "" {
				sig.SetAttr(doctree.AttrTocName, toc)
			}
			d.Append(sig)
		case "dd":
			content.Append(blocks(c)...)
		}
	}
	return d.Append(content)
}

func definitionList(n *html.Node) *doctree.Node {
	dl := doctree.NewElement(doctree.KindDefinitionList)
	var item *doctree.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "dt":
			item = doctree.NewElement(doctree.KindDefinitionListItem,
				doctree.NewElement(doctree.KindTerm, inlines(c)...),
				doctree.NewElement(doctree.KindDefinition))
			dl.Append(item)
		case "dd":
			if item != nil {
				item.FirstChild(doctree.KindDefinition).Append(blocks(c)...)
			}
		}
	}
	return dl
}

func inlines(n *html.Node) []*doctree.Node {
	var out []*doctree.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, inline(c)...)
	}
	return out
}

func inline(n *html.Node) []*doctree.Node {
	if n.Type == html.TextNode {
		return []*doctree.Node{doctree.NewText(n.Data)}
	}
	if n.Type != html.ElementNode {
		return nil
	}

	wrap := func(k doctree.Kind) []*doctree.Node {
		return []*doctree.Node{doctree.NewElement(k, inlines(n)...)}
	}
	switch {
	case hasClass(n, "xref"):
		return []*doctree.Node{doctree.NewElement(doctree.KindInline, doctree.NewText(textContent(n))).WithRole(doctree.RoleXref)}
	case n.Data == "dfn" || hasClass(n, "term"):
		return []*doctree.Node{doctree.NewElement(doctree.KindInline, inlines(n)...).WithRole(doctree.RoleTerm)}
	}

	switch n.Data {
	case "em", "i":
		return wrap(doctree.KindEmphasis)
	case "strong", "b":
		return wrap(doctree.KindStrong)
	case "code", "tt", "kbd", "samp":
		return []*doctree.Node{doctree.NewElement(doctree.KindLiteral, doctree.NewText(textContent(n)))}
	case "var":
		return []*doctree.Node{doctree.NewElement(doctree.KindLiteralEmphasis, doctree.NewText(textContent(n)))}
	case "cite":
		return wrap(doctree.KindTitleReference)
	case "a":
		return anchor(n)
	case "br":
		return []*doctree.Node{doctree.NewText("\n")}
	case "script", "style", "img":
		return nil
	default:
		return inlines(n)
	}
}

// anchor maps internal references to cross-references unless the link
// already wraps one.
func anchor(n *html.Node) []*doctree.Node {
	children := inlines(n)
	href := attr(n, "href")
	if hasClass(n, "internal") || (href != "" && !isExternal(href)) {
		if containsXref(n) {
			return children
		}
		return []*doctree.Node{doctree.NewElement(doctree.KindInline, children...).WithRole(doctree.RoleXref)}
	}
	ref := doctree.NewElement(doctree.KindReference, children...)
	if href != "" {
		ref.SetAttr(doctree.AttrRefURI, href)
	}
	return []*doctree.Node{ref}
}

func containsXref(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (hasClass(c, "xref") || containsXref(c)) {
			return true
		}
	}
	return false
}

func descClass(n *html.Node) string {
	for _, dt := range descClasses {
		if hasClass(n, dt) {
			return dt
		}
	}
	return ""
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func isBlock(tag string) bool {
	switch tag {
	case "p", "pre", "blockquote", "ul", "ol", "hr", "dl", "div", "section",
		"article", "main", "table", "figure", "aside", "script", "style":
		return true
	}
	return false
}

func container(tag string) bool {
	switch tag {
	case "div", "section", "article", "main", "body", "html":
		return true
	}
	return false
}

func skipped(tag string) bool {
	switch tag {
	case "script", "style", "nav", "footer", "header", "head":
		return true
	}
	return false
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

// rawText returns the text below n with whitespace preserved.
func rawText(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return buf.String()
}

func textContent(n *html.Node) string {
	return strings.TrimSpace(rawText(n))
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
