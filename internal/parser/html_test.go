package parser

import (
	"strings"
	"testing"

	"github.com/dgallion1/vimhelp/internal/doctree"
)

const apiRefPage = `<!DOCTYPE html>
<html><head><title>io module</title><style>p {}</style></head>
<body>
<nav>skip me</nav>
<div class="body">
<section id="io">
<h1>io</h1>
<p>See <a class="reference internal" href="#open"><code class="xref py py-func">open()</code></a>
and <a href="https://example.com">the site</a>, a <dfn>stream</dfn>.</p>
<dl class="py function">
<dt class="sig sig-object py" id="io.open" data-toc-name="io.open()">io.open(<em>path</em>)</dt>
<dd><p>Open <var>path</var>.</p>
<pre>f = open("x")
f.close()
</pre></dd>
</dl>
<h2>Notes</h2>
<ul><li>first</li><li><p>second</p></li></ul>
<dl><dt>Term</dt><dd>Meaning.</dd></dl>
</section>
</div>
</body></html>`

func TestHTMLParser_APIReferenceMarkup(t *testing.T) {
	p := &HTMLParser{}
	doc, err := p.Parse(strings.NewReader(apiRefPage), "io.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if title(doc) != "io module" {
		t.Errorf("expected title %q, got %q", "io module", title(doc))
	}

	top := sections(doc)
	if len(top) != 1 {
		t.Fatalf("expected 1 section, got %d", len(top))
	}
	sec := top[0]
	if strings.Contains(doc.AsText(), "skip me") {
		t.Error("expected nav to be skipped")
	}

	para := sec.FirstChild(doctree.KindParagraph)
	xref := para.FirstChild(doctree.KindInline)
	if xref == nil || !xref.Roles.Has(doctree.RoleXref) || xref.AsText() != "open()" {
		t.Errorf("expected open() cross-reference, got %+v", xref)
	}
	ref := para.FirstChild(doctree.KindReference)
	if uri, _ := ref.Attr(doctree.AttrRefURI); uri != "https://example.com" {
		t.Errorf("unexpected refuri %q", uri)
	}
	var term *doctree.Node
	for _, c := range para.Children {
		if c.Kind == doctree.KindInline && c.Roles.Has(doctree.RoleTerm) {
			term = c
		}
	}
	if term == nil || term.AsText() != "stream" {
		t.Errorf("expected stream term")
	}

	d := sec.FirstChild(doctree.KindDesc)
	if d == nil {
		t.Fatal("expected desc")
	}
	if dt, _ := d.Attr(doctree.AttrDescType); dt != "function" {
		t.Errorf("expected desctype function, got %q", dt)
	}
	sig := d.FirstChild(doctree.KindDescSignature)
	if sig.AsText() != "io.open(path)" {
		t.Errorf("unexpected signature %q", sig.AsText())
	}
	if toc, _ := sig.Attr(doctree.AttrTocName); toc != "io.open()" {
		t.Errorf("unexpected toc name %q", toc)
	}
	content := d.FirstChild(doctree.KindDescContent)
	if content.FirstChild(doctree.KindParagraph).FirstChild(doctree.KindLiteralEmphasis) == nil {
		t.Error("expected <var> as literal emphasis")
	}
	lb := content.FirstChild(doctree.KindLiteralBlock)
	if lb == nil || lb.AsText() != "f = open(\"x\")\nf.close()\n" {
		t.Errorf("unexpected literal block %+v", lb)
	}

	notes := sections(sec)
	if len(notes) != 1 || sectionTitle(notes[0]) != "Notes" {
		t.Fatalf("expected Notes subsection")
	}
	list := notes[0].FirstChild(doctree.KindBulletList)
	if list == nil || len(list.Children) != 2 {
		t.Fatalf("expected 2 list items")
	}
	for i, want := range []string{"first", "second"} {
		item := list.Children[i]
		if item.Children[0].Kind != doctree.KindParagraph || item.AsText() != want {
			t.Errorf("item %d: expected paragraph %q, got %q", i, want, item.AsText())
		}
	}
	if notes[0].FirstChild(doctree.KindDefinitionList) == nil {
		t.Error("expected plain definition list")
	}
}

func TestHTMLParser_DescWithoutSignature(t *testing.T) {
	p := &HTMLParser{}
	doc, err := p.Parse(strings.NewReader(`<dl class="function"><dd><p>x</p></dd></dl>`), "bad.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d := doc.FirstChild(doctree.KindDesc)
	if d == nil {
		t.Fatal("expected desc")
	}
	if d.FirstChild(doctree.KindDescSignature) != nil {
		t.Error("expected no signature")
	}
}

func TestHTMLParser_TitleFallsBackToFilename(t *testing.T) {
	p := &HTMLParser{}
	doc, err := p.Parse(strings.NewReader("<p>hello</p>"), "page.htm")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if title(doc) != "page" {
		t.Errorf("expected title %q, got %q", "page", title(doc))
	}
	if len(doc.Children) != 1 || doc.Children[0].AsText() != "hello" {
		t.Errorf("expected single paragraph, got %d children", len(doc.Children))
	}
}
