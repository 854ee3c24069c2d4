package parser

import "github.com/dgallion1/vimhelp/internal/doctree"

// outline nests sections by heading level. Level 0 is the document.
type outline struct {
	stack    []outlineEntry
	titleSet bool
}

type outlineEntry struct {
	node  *doctree.Node
	level int
}

func newOutline(doc *doctree.Node) *outline {
	return &outline{stack: []outlineEntry{{node: doc, level: 0}}}
}

// heading opens a section at level, closing any open section at the same
// or a deeper level. The first heading also titles the document.
func (o *outline) heading(level int, title ...*doctree.Node) *doctree.Node {
	for len(o.stack) > 1 && o.stack[len(o.stack)-1].level >= level {
		o.stack = o.stack[:len(o.stack)-1]
	}
	t := doctree.NewElement(doctree.KindTitle, title...)
	sec := doctree.NewElement(doctree.KindSection, t)
	parent := o.stack[len(o.stack)-1].node
	parent.Append(sec)
	o.stack = append(o.stack, outlineEntry{node: sec, level: level})

	if !o.titleSet {
		if s := t.AsText(); s != "" {
			o.stack[0].node.SetAttr(doctree.AttrTitle, s)
			o.titleSet = true
		}
	}
	return sec
}

// add appends blocks to the innermost open section.
func (o *outline) add(blocks ...*doctree.Node) {
	for _, b := range blocks {
		if b != nil {
			o.stack[len(o.stack)-1].node.Append(b)
		}
	}
}
