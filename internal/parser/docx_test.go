package parser

import (
	"bytes"
	"testing"

	"github.com/dgallion1/vimhelp/internal/doctree"
	"github.com/fumiama/go-docx"
)

func TestDOCXParser_StylesAndRuns(t *testing.T) {
	w := docx.New().WithDefaultTheme()
	w.AddParagraph().Style("Heading1").AddText("Usage")
	p := w.AddParagraph()
	p.AddText("Call ")
	p.AddText("now").Italic()
	p.AddText(" or ")
	p.AddText("never").Bold()
	w.AddParagraph().Style("Code").AddText("make all")
	w.AddParagraph().Style("Code").AddText("make test")
	w.AddParagraph().Style("Heading2").AddText("Notes")
	w.AddParagraph().AddText("Done.")

	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		t.Fatalf("write docx: %v", err)
	}

	doc, err := (&DOCXParser{}).Parse(&buf, "guide.docx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if title(doc) != "Usage" {
		t.Errorf("expected title %q, got %q", "Usage", title(doc))
	}

	top := sections(doc)
	if len(top) != 1 {
		t.Fatalf("expected 1 section, got %d", len(top))
	}
	usage := top[0]
	para := usage.FirstChild(doctree.KindParagraph)
	if para == nil {
		t.Fatal("expected paragraph")
	}
	if em := para.FirstChild(doctree.KindEmphasis); em == nil || em.AsText() != "now" {
		t.Errorf("expected italic run as emphasis")
	}
	if st := para.FirstChild(doctree.KindStrong); st == nil || st.AsText() != "never" {
		t.Errorf("expected bold run as strong")
	}
	lb := usage.FirstChild(doctree.KindLiteralBlock)
	if lb == nil || lb.AsText() != "make all\nmake test\n" {
		t.Errorf("expected merged code paragraphs, got %+v", lb)
	}
	if subs := sections(usage); len(subs) != 1 || sectionTitle(subs[0]) != "Notes" {
		t.Errorf("expected Notes subsection")
	}
}

func TestDOCXParser_InvalidInput(t *testing.T) {
	_, err := (&DOCXParser{}).Parse(bytes.NewReader([]byte("not a zip")), "bad.docx")
	if err == nil {
		t.Fatal("expected error for invalid docx")
	}
}

func TestDocxHeadingLevel(t *testing.T) {
	tests := map[string]int{
		"Heading1":  1,
		"heading 3": 3,
		"Title":     1,
		"Normal":    0,
		"Heading9":  0,
	}
	for style, want := range tests {
		if got := docxHeadingLevel(style); got != want {
			t.Errorf("docxHeadingLevel(%q) = %d, want %d", style, got, want)
		}
	}
}
