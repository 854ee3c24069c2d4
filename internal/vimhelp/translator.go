package vimhelp

import (
	"strings"
	"time"

	"github.com/dgallion1/vimhelp/internal/doctree"
	"github.com/dgallion1/vimhelp/internal/textrender"
	"github.com/mattn/go-runewidth"
)

const (
	// MaxWidth is the help file text width; headers and tags align to it.
	MaxWidth = 78
	// Modeline is the last line of every help file.
	Modeline = "vim:tw=78:ts=8:ft=help:norl:"
)

// Options are the vimhelp format options.
type Options struct {
	TagPrefix      string
	TagSuffix      string
	FormatDesc     DescFormatter // nil selects toc name, then ExtractIdentifier.
	TagFilename    bool
	FilenameSuffix string
}

// DefaultOptions returns the option defaults.
func DefaultOptions() Options {
	return Options{TagFilename: true, FilenameSuffix: ";"}
}

// Translator renders one document as a Vim help file. It is the plain
// text translator with help-specific markup layered on top.
type Translator struct {
	*textrender.Translator

	opts   Options
	tagger Tagger
	now    func() time.Time

	// Buffer depths of the open list items.
	items []int

	// Filename is the help file name derived from the document source.
	Filename string
	// Tags lists every tag name emitted, in document order.
	Tags []string
}

// NewTranslator returns a translator for one document. now may be nil.
func NewTranslator(opts Options, text textrender.Config, now func() time.Time) *Translator {
	if now == nil {
		now = time.Now
	}
	return &Translator{
		Translator: textrender.NewTranslator(text),
		opts:       opts,
		tagger:     Tagger{Prefix: opts.TagPrefix, Suffix: opts.TagSuffix},
		now:        now,
	}
}

// Visit implements doctree.Visitor.
func (t *Translator) Visit(n *doctree.Node) (doctree.WalkStatus, error) {
	switch n.Kind {
	case doctree.KindDocument:
		if err := t.visitDocument(n); err != nil {
			return doctree.WalkContinue, err
		}
	case doctree.KindLiteralBlock:
		if t.atItemStart() {
			// Keep the bullet off the marker line.
			t.Buf.AppendBlock(0, []string{""})
			t.Buf.AppendLine(">")
		} else {
			t.appendMarker(">")
		}
	case doctree.KindListItem:
		status, err := t.Translator.Visit(n)
		t.items = append(t.items, t.Buf.Depth())
		return status, err
	case doctree.KindInline:
		if n.Roles.Has(doctree.RoleXref) || n.Roles.Has(doctree.RoleTerm) {
			t.Buf.AddText("_")
		}
	case doctree.KindEmphasis, doctree.KindLiteralEmphasis, doctree.KindTitleReference:
		t.Buf.AddText("_")
		return doctree.WalkContinue, nil
	case doctree.KindDesc:
		if err := t.visitDesc(n); err != nil {
			return doctree.WalkContinue, err
		}
	}
	return t.Translator.Visit(n)
}

// Depart implements doctree.Visitor.
func (t *Translator) Depart(n *doctree.Node) error {
	switch n.Kind {
	case doctree.KindEmphasis, doctree.KindLiteralEmphasis, doctree.KindTitleReference:
		t.Buf.AddText("_")
		return nil
	case doctree.KindInline:
		if n.Roles.Has(doctree.RoleXref) || n.Roles.Has(doctree.RoleTerm) {
			t.Buf.AddText("_")
		}
	case doctree.KindListItem:
		t.items = t.items[:len(t.items)-1]
	}
	if err := t.Translator.Depart(n); err != nil {
		return err
	}
	switch n.Kind {
	case doctree.KindLiteralBlock:
		t.appendMarker("<")
	case doctree.KindDocument:
		t.Body += t.Cfg.Newline + Modeline + t.Cfg.Newline
	}
	return nil
}

func (t *Translator) visitDocument(n *doctree.Node) error {
	source, _ := n.Attr(doctree.AttrSource)
	if source == "" {
		return &StructuralError{Kind: n.Kind, Line: n.Line, Reason: "document has no source path"}
	}
	t.Filename = OutputFilename(source, t.opts.FilenameSuffix)
	tag := t.tag(t.Filename)
	timestamp := "Last change: " + t.now().Format("2006 Jan 02")
	pad := max(MaxWidth-runewidth.StringWidth(tag)-runewidth.StringWidth(timestamp), 2)
	// Appended to the root level before the document level opens.
	t.Buf.AppendNested([]string{tag + strings.Repeat(" ", pad) + timestamp, ""})
	return nil
}

func (t *Translator) visitDesc(n *doctree.Node) error {
	sig := n.FirstChild(doctree.KindDescSignature)
	if sig == nil {
		return &StructuralError{Kind: n.Kind, Line: n.Line, Reason: "description entry has no signature"}
	}
	text := sig.AsText()

	var body string
	if t.opts.FormatDesc != nil {
		descType, _ := n.Attr(doctree.AttrDescType)
		body = t.opts.FormatDesc.FormatDesc(text, descType)
	} else if toc, ok := sig.Attr(doctree.AttrTocName); ok {
		body = strings.ReplaceAll(toc, " ", "_")
	} else {
		body = ExtractIdentifier(text)
	}
	if t.opts.TagFilename {
		body += ".." + t.Filename
	}

	// Tags longer than the line get no padding rather than being clamped
	// or wrapped.
	pad := max(MaxWidth-runewidth.StringWidth(body)-2, 0)
	t.Buf.TrimTrailingBlank()
	t.Buf.AppendNested([]string{"", strings.Repeat(" ", pad) + t.tag(body)})
	return nil
}

// appendMarker puts a line at column 0 directly after the previous block.
func (t *Translator) appendMarker(marker string) {
	t.Buf.TrimTrailingBlank()
	t.Buf.AppendLine(marker)
}

// atItemStart reports whether nothing has been rendered yet in the
// innermost list item.
func (t *Translator) atItemStart() bool {
	return len(t.items) > 0 && t.items[len(t.items)-1] == t.Buf.Depth() && t.Buf.TopEmpty()
}

func (t *Translator) tag(body string) string {
	t.Tags = append(t.Tags, t.tagger.Name(body))
	return t.tagger.Tag(body)
}
