package textrender

import (
	"strings"
	"testing"

	"github.com/dgallion1/vimhelp/internal/builder"
	"github.com/dgallion1/vimhelp/internal/doctree"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func el(k doctree.Kind, children ...*doctree.Node) *doctree.Node {
	return doctree.NewElement(k, children...)
}

func para(s string) *doctree.Node {
	return el(doctree.KindParagraph, doctree.NewText(s))
}

func item(s string) *doctree.Node { return el(doctree.KindListItem, para(s)) }

func TestRender_Structure(t *testing.T) {
	doc := doctree.NewDocument("a.md").Append(
		el(doctree.KindSection,
			el(doctree.KindTitle, doctree.NewText("Top")),
			para("one two"),
			el(doctree.KindSection,
				el(doctree.KindTitle, doctree.NewText("Sub")),
				el(doctree.KindBulletList, item("a"), item("b")),
				el(doctree.KindEnumeratedList, item("x")),
				el(doctree.KindDefinitionList,
					el(doctree.KindDefinitionListItem,
						el(doctree.KindTerm, doctree.NewText("t")),
						el(doctree.KindDefinition, para("d")),
					),
				),
				el(doctree.KindTransition),
			),
		),
	)

	body, err := Render(doc, Config{Width: 30})
	require.NoError(t, err)

	want := strings.Join([]string{
		"Top",
		"***",
		"",
		"one two",
		"",
		"",
		"Sub",
		"===",
		"",
		"* a",
		"",
		"* b",
		"",
		"1. x",
		"",
		"t",
		"   d",
		"",
		strings.Repeat("=", 30),
		"",
	}, "\n")
	if diff := cmp.Diff(want, body); diff != "" {
		t.Errorf("render mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_FillsParagraphs(t *testing.T) {
	doc := doctree.NewDocument("a.md").Append(
		para("alpha beta gamma delta epsilon zeta eta theta"),
		el(doctree.KindBlockQuote, para("alpha beta gamma delta epsilon zeta")),
	)
	body, err := Render(doc, Config{Width: 30})
	require.NoError(t, err)

	lines := strings.Split(body, "\n")
	assert.Equal(t, "alpha beta gamma delta epsilon", lines[0])
	assert.Equal(t, "zeta eta theta", lines[1])
	for _, l := range lines {
		assert.LessOrEqual(t, len(l), 30, "line %q", l)
		if strings.Contains(l, "alpha") && strings.HasPrefix(l, " ") {
			assert.True(t, strings.HasPrefix(l, "   alpha"))
		}
	}
}

func TestRender_InlineMarkup(t *testing.T) {
	doc := doctree.NewDocument("a.md").Append(el(doctree.KindParagraph,
		el(doctree.KindEmphasis, doctree.NewText("em")), doctree.NewText(" "),
		el(doctree.KindStrong, doctree.NewText("st")), doctree.NewText(" "),
		el(doctree.KindLiteral, doctree.NewText("code")), doctree.NewText(" "),
		el(doctree.KindReference, doctree.NewText("link")).SetAttr(doctree.AttrRefURI, "https://example.com"),
	))
	body, err := Render(doc, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, `*em* **st** "code" link`+"\n", body)
}

func TestRender_DescEntry(t *testing.T) {
	doc := doctree.NewDocument("a.md").Append(el(doctree.KindDesc,
		el(doctree.KindDescSignature, doctree.NewText("open(path)")),
		el(doctree.KindDescContent, para("Opens path.")),
	))
	body, err := Render(doc, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, "open(path)\n\n   Opens path.\n", body)
}

func TestRender_LiteralBlockKeepsLines(t *testing.T) {
	doc := doctree.NewDocument("a.md").Append(
		el(doctree.KindLiteralBlock, doctree.NewText("if x:\n    y()\n")),
	)
	body, err := Render(doc, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, "   if x:\n       y()\n", body)
}

func TestBuffer_AppendNestedIgnoresIndent(t *testing.T) {
	b := NewBuffer(78)
	b.NewState(4)
	b.NewState(2)
	assert.Equal(t, 6, b.CurrentIndent())
	b.AddText("indented")
	b.EndState(true, nil, "")
	b.AppendLine(">")
	b.EndState(true, nil, "")
	assert.Equal(t, []string{"      indented", ">"}, b.Lines())
}

func TestBuffer_TrimTrailingBlank(t *testing.T) {
	b := NewBuffer(78)
	b.AppendBlock(0, []string{"a", ""})
	b.TrimTrailingBlank()
	b.TrimTrailingBlank()
	assert.Equal(t, []string{"a"}, b.Lines())
}

func TestBuffer_FirstOnBlankResult(t *testing.T) {
	b := NewBuffer(78)
	b.NewState(2)
	b.AddText("")
	b.EndState(true, []string{""}, "* ")
	assert.Equal(t, []string{"*"}, b.Lines())
}

func TestBuffer_FirstReplacesLeadingBlankLine(t *testing.T) {
	b := NewBuffer(78)
	b.NewState(2)
	b.AppendBlock(0, []string{""})
	b.AppendLine(">")
	b.AddText("body")
	b.EndState(true, nil, "* ")
	assert.Equal(t, []string{"*", ">", "  body"}, b.Lines())
}

func TestBuffer_RootNeverCloses(t *testing.T) {
	b := NewBuffer(78)
	b.EndState(true, nil, "")
	assert.Equal(t, "", b.PopInline())
	assert.Equal(t, 1, b.Depth())
}

func TestSetup_RegistersTextFormat(t *testing.T) {
	reg := builder.NewRegistry(nil)
	require.NoError(t, Setup(reg))
	f, rd, err := reg.NewRenderer("text", map[string]any{OptWidth: 40})
	require.NoError(t, err)
	assert.Equal(t, ".txt", f.OutSuffix)

	out, err := rd.Render(doctree.NewDocument("a.md").Append(para("hi")))
	require.NoError(t, err)
	assert.Equal(t, "hi\n", out.Body)

	_, _, err = reg.NewRenderer("text", map[string]any{OptWidth: 5})
	assert.Error(t, err)
}
