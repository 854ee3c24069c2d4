package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/vimhelp/internal/doctree"
)

// TextParser handles plain text files. Blank lines separate paragraphs;
// a paragraph whose lines are all indented is kept verbatim.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.Node, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs [][]string
	var current []string

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				paragraphs = append(paragraphs, current)
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		paragraphs = append(paragraphs, current)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	doc := newDocument(filename)
	for _, para := range paragraphs {
		if indented(para) {
			doc.Append(doctree.NewElement(doctree.KindLiteralBlock,
				doctree.NewText(dedent(para)+"\n")))
			continue
		}
		doc.Append(doctree.NewElement(doctree.KindParagraph,
			doctree.NewText(strings.Join(para, "\n"))))
	}
	return doc, nil
}

func indented(lines []string) bool {
	for _, l := range lines {
		if l[0] != ' ' && l[0] != '\t' {
			return false
		}
	}
	return true
}

// dedent strips the smallest common leading indentation.
func dedent(lines []string) string {
	strip := -1
	for _, l := range lines {
		n := len(l) - len(strings.TrimLeft(l, " \t"))
		if strip < 0 || n < strip {
			strip = n
		}
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l[strip:]
	}
	return strings.Join(out, "\n")
}
