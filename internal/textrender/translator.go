package textrender

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dgallion1/vimhelp/internal/doctree"
	"github.com/mattn/go-runewidth"
)

// StdIndent is the indent of literal blocks, definitions and block quotes.
const StdIndent = 3

// Config controls plain-text rendering.
type Config struct {
	Width        int    // Maximum line width for filled text.
	SectionChars string // Underline characters by section depth.
	Newline      string
}

// DefaultConfig returns the renderer defaults.
func DefaultConfig() Config {
	return Config{
		Width:        78,
		SectionChars: "*=-~\"+`",
		Newline:      "\n",
	}
}

// Translator renders a document tree as plain text. Output formats embed
// it and override Visit/Depart for the node kinds they treat differently.
type Translator struct {
	Buf  *Buffer
	Body string
	Cfg  Config

	sectionLevel int
	listCounter  []int
}

// NewTranslator returns a translator for one document.
func NewTranslator(cfg Config) *Translator {
	def := DefaultConfig()
	if cfg.Width <= 0 {
		cfg.Width = def.Width
	}
	if cfg.SectionChars == "" {
		cfg.SectionChars = def.SectionChars
	}
	if cfg.Newline == "" {
		cfg.Newline = def.Newline
	}
	return &Translator{Buf: NewBuffer(cfg.Width), Cfg: cfg}
}

var blankEnd = []string{""}

// Visit implements doctree.Visitor.
func (t *Translator) Visit(n *doctree.Node) (doctree.WalkStatus, error) {
	switch n.Kind {
	case doctree.KindDocument:
		t.Buf.NewState(0)
	case doctree.KindSection:
		t.sectionLevel++
	case doctree.KindTitle, doctree.KindParagraph, doctree.KindTerm, doctree.KindDescSignature:
		t.Buf.NewState(0)
	case doctree.KindText:
		t.Buf.AddText(n.Value)
	case doctree.KindLiteralBlock, doctree.KindBlockQuote, doctree.KindDefinition:
		t.Buf.NewState(StdIndent)
	case doctree.KindTransition:
		indent := t.Buf.CurrentIndent()
		t.Buf.NewState(0)
		t.Buf.AddText(strings.Repeat("=", max(t.Cfg.Width-indent, 1)))
		t.Buf.EndState(true, blankEnd, "")
		return doctree.WalkSkipChildren, nil
	case doctree.KindBulletList:
		t.listCounter = append(t.listCounter, -1)
	case doctree.KindEnumeratedList:
		start := 1
		if v, ok := n.Attr(doctree.AttrStart); ok {
			if s, err := strconv.Atoi(v); err == nil {
				start = s
			}
		}
		t.listCounter = append(t.listCounter, start-1)
	case doctree.KindListItem:
		if len(t.listCounter) == 0 || t.listCounter[len(t.listCounter)-1] == -1 {
			t.Buf.NewState(2)
			break
		}
		t.listCounter[len(t.listCounter)-1]++
		t.Buf.NewState(len(strconv.Itoa(t.listCounter[len(t.listCounter)-1])) + 2)
	case doctree.KindDescContent:
		t.Buf.NewState(StdIndent)
		t.Buf.AddText(t.Cfg.Newline)
	case doctree.KindEmphasis, doctree.KindLiteralEmphasis, doctree.KindTitleReference:
		t.Buf.AddText("*")
	case doctree.KindStrong:
		t.Buf.AddText("**")
	case doctree.KindLiteral:
		t.Buf.AddText(`"`)
	}
	return doctree.WalkContinue, nil
}

// Depart implements doctree.Visitor.
func (t *Translator) Depart(n *doctree.Node) error {
	switch n.Kind {
	case doctree.KindDocument:
		t.Buf.EndState(true, blankEnd, "")
		t.Body = strings.Join(t.Buf.Lines(), t.Cfg.Newline)
	case doctree.KindSection:
		t.sectionLevel--
	case doctree.KindTitle:
		t.departTitle()
	case doctree.KindParagraph, doctree.KindBlockQuote, doctree.KindDefinition, doctree.KindDescContent:
		t.Buf.EndState(true, blankEnd, "")
	case doctree.KindLiteralBlock:
		t.Buf.EndState(false, blankEnd, "")
	case doctree.KindTerm:
		t.Buf.EndState(true, nil, "")
	case doctree.KindDescSignature:
		t.Buf.EndState(false, nil, "")
	case doctree.KindBulletList, doctree.KindEnumeratedList:
		if len(t.listCounter) > 0 {
			t.listCounter = t.listCounter[:len(t.listCounter)-1]
		}
	case doctree.KindListItem:
		first := "* "
		if len(t.listCounter) > 0 {
			if c := t.listCounter[len(t.listCounter)-1]; c != -1 {
				first = fmt.Sprintf("%d. ", c)
			}
		}
		t.Buf.EndState(true, blankEnd, first)
	case doctree.KindEmphasis, doctree.KindLiteralEmphasis, doctree.KindTitleReference:
		t.Buf.AddText("*")
	case doctree.KindStrong:
		t.Buf.AddText("**")
	case doctree.KindLiteral:
		t.Buf.AddText(`"`)
	}
	return nil
}

func (t *Translator) departTitle() {
	text := t.Buf.PopInline()
	title := []string{"", text, strings.Repeat(t.titleChar(), runewidth.StringWidth(text)), ""}
	// The first title of a document does not need a blank line above it.
	if t.Buf.Depth() == 2 && t.Buf.TopEmpty() {
		title = title[1:]
	}
	t.Buf.AppendBlock(0, title)
}

func (t *Translator) titleChar() string {
	chars := []rune(t.Cfg.SectionChars)
	i := t.sectionLevel - 1
	if i < 0 {
		i = 0
	}
	if i >= len(chars) {
		i = len(chars) - 1
	}
	return string(chars[i])
}

// Render walks doc with a fresh translator and returns the body.
func Render(doc *doctree.Node, cfg Config) (string, error) {
	t := NewTranslator(cfg)
	if err := doctree.Walk(doc, t); err != nil {
		return "", err
	}
	return t.Body, nil
}
