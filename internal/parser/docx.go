package parser

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dgallion1/vimhelp/internal/doctree"
	"github.com/fumiama/go-docx"
)

// DOCXParser handles .docx files. Heading styles open sections, code
// styles become literal blocks, list styles become bullet items, and
// italic or bold runs keep their emphasis.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*doctree.Node, error) {
	// go-docx needs a ReadSeeker+size, so write to temp file.
	tmp, err := os.CreateTemp("", "vimhelp-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("seek temp file: %w", err)
	}

	d, err := docx.Parse(tmp, size)
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	doc := newDocument(filename)
	o := newOutline(doc)
	var code []string
	var list *doctree.Node

	flush := func() {
		if len(code) > 0 {
			o.add(doctree.NewElement(doctree.KindLiteralBlock, doctree.NewText(strings.Join(code, "\n")+"\n")))
			code = nil
		}
		list = nil
	}

	for _, item := range d.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		style := docxStyle(para)

		if docxCodeStyle(style) {
			list = nil
			code = append(code, docxPlainText(para))
			continue
		}

		inl := docxInlines(para)
		text := strings.TrimSpace(doctree.NewElement(doctree.KindParagraph, inl...).AsText())
		if text == "" {
			continue
		}

		if level := docxHeadingLevel(style); level > 0 {
			flush()
			o.heading(level, doctree.NewText(text))
			continue
		}
		if docxListStyle(style) {
			if len(code) > 0 {
				flush()
			}
			if list == nil {
				list = doctree.NewElement(doctree.KindBulletList)
				o.add(list)
			}
			list.Append(doctree.NewElement(doctree.KindListItem, doctree.NewElement(doctree.KindParagraph, inl...)))
			continue
		}
		flush()
		o.add(doctree.NewElement(doctree.KindParagraph, inl...))
	}
	flush()

	return doc, nil
}

func docxStyle(para *docx.Paragraph) string {
	if para.Properties == nil || para.Properties.Style == nil {
		return ""
	}
	return para.Properties.Style.Val
}

func docxHeadingLevel(style string) int {
	s := strings.ToLower(strings.ReplaceAll(style, " ", ""))
	if s == "title" {
		return 1
	}
	if !strings.HasPrefix(s, "heading") {
		return 0
	}
	switch strings.TrimPrefix(s, "heading") {
	case "1":
		return 1
	case "2":
		return 2
	case "3":
		return 3
	case "4":
		return 4
	case "5":
		return 5
	case "6":
		return 6
	}
	return 0
}

func docxCodeStyle(style string) bool {
	s := strings.ToLower(style)
	return strings.Contains(s, "code") || strings.Contains(s, "preformatted")
}

func docxListStyle(style string) bool {
	return strings.HasPrefix(strings.ToLower(strings.ReplaceAll(style, " ", "")), "listparagraph") ||
		strings.HasPrefix(strings.ToLower(style), "list bullet")
}

func docxInlines(para *docx.Paragraph) []*doctree.Node {
	var out []*doctree.Node
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		t := docxRunText(run)
		if t == "" {
			continue
		}
		node := doctree.NewText(t)
		if rp := run.RunProperties; rp != nil && strings.TrimSpace(t) != "" {
			switch {
			case rp.Bold != nil:
				node = doctree.NewElement(doctree.KindStrong, node)
			case rp.Italic != nil:
				node = doctree.NewElement(doctree.KindEmphasis, node)
			}
		}
		out = append(out, node)
	}
	return out
}

func docxRunText(run *docx.Run) string {
	var buf strings.Builder
	for _, rc := range run.Children {
		if t, ok := rc.(*docx.Text); ok {
			buf.WriteString(t.Text)
		}
	}
	return buf.String()
}

func docxPlainText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		if run, ok := child.(*docx.Run); ok {
			buf.WriteString(docxRunText(run))
		}
	}
	return buf.String()
}
