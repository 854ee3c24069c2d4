package parser

import (
	"fmt"
	"strings"
	"testing"

	"github.com/dgallion1/vimhelp/internal/doctree"
)

func TestCSVParser_Batches(t *testing.T) {
	var b strings.Builder
	b.WriteString("name,size\n")
	for i := 0; i < 25; i++ {
		fmt.Fprintf(&b, "f%d,%d\n", i, i*10)
	}

	doc, err := (&CSVParser{}).Parse(strings.NewReader(b.String()), "files.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := doc.Children[0].AsText(); got != "Columns: name, size" {
		t.Errorf("unexpected header paragraph %q", got)
	}

	secs := sections(doc)
	if len(secs) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(secs))
	}
	if sectionTitle(secs[0]) != "Rows 2-21" || sectionTitle(secs[1]) != "Rows 22-26" {
		t.Errorf("unexpected titles %q, %q", sectionTitle(secs[0]), sectionTitle(secs[1]))
	}
	list := secs[1].FirstChild(doctree.KindBulletList)
	if len(list.Children) != 5 {
		t.Fatalf("expected 5 rows in last batch, got %d", len(list.Children))
	}
	if got := list.Children[0].AsText(); got != "name: f20, size: 200" {
		t.Errorf("unexpected row text %q", got)
	}
}

func TestCSVParser_RaggedRows(t *testing.T) {
	doc, err := (&CSVParser{}).Parse(strings.NewReader("a\n1,2\n"), "r.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	list := sections(doc)[0].FirstChild(doctree.KindBulletList)
	if got := list.Children[0].AsText(); got != "a: 1, 2" {
		t.Errorf("unexpected row text %q", got)
	}
}

func TestCSVParser_Empty(t *testing.T) {
	doc, err := (&CSVParser{}).Parse(strings.NewReader(""), "e.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Children) != 0 {
		t.Errorf("expected no children, got %d", len(doc.Children))
	}
}

func TestPDFParagraphs(t *testing.T) {
	paras := pdfParagraphs("first\nline\r\n\r\n\nsecond\n", 3)
	if len(paras) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d", len(paras))
	}
	if paras[0].AsText() != "first\nline" || paras[1].Line != 3 {
		t.Errorf("unexpected paragraphs %q / line %d", paras[0].AsText(), paras[1].Line)
	}
	if got := len(splitPages("a\fb\fc")); got != 3 {
		t.Errorf("expected 3 pages, got %d", got)
	}
}

func TestForFile(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"a.md", "*parser.MarkdownParser"},
		{"a.MARKDOWN", "*parser.MarkdownParser"},
		{"a.htm", "*parser.HTMLParser"},
		{"a.txt", "*parser.TextParser"},
		{"a.csv", "*parser.CSVParser"},
		{"a.pdf", "*parser.PDFParser"},
		{"a.docx", "*parser.DOCXParser"},
	}
	for _, tt := range tests {
		p, err := ForFile(tt.name, Options{PDFFallbackPdftotext: true})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if got := fmt.Sprintf("%T", p); got != tt.want {
			t.Errorf("%s: got %s, want %s", tt.name, got, tt.want)
		}
	}
	if p, _ := ForFile("x.pdf", Options{PDFFallbackPdftotext: true}); !p.(*PDFParser).FallbackPdftotext {
		t.Error("expected fallback option to reach the PDF parser")
	}
	if _, err := ForFile("x.rst", Options{}); err == nil {
		t.Error("expected error for unsupported extension")
	}
	if IsSupportedExtension("x.rst") || !IsSupportedExtension("X.HTML") {
		t.Error("unexpected IsSupportedExtension result")
	}
}
