package textrender

import (
	"strings"

	"github.com/mitchellh/go-wordwrap"
)

// entry is either inline text waiting to be filled or a block of
// preformatted lines at an indent relative to its level.
type entry struct {
	inline bool
	text   string
	indent int
	lines  []string
}

// Level is one nesting level of buffered output.
type Level struct {
	indent  int
	entries []entry
}

// Buffer accumulates rendered output as a stack of levels. Only the
// innermost level is appended to; EndState folds it into its parent.
type Buffer struct {
	width  int
	levels []*Level
}

// NewBuffer returns a buffer that fills paragraphs to width columns.
func NewBuffer(width int) *Buffer {
	return &Buffer{width: width, levels: []*Level{{}}}
}

func (b *Buffer) top() *Level { return b.levels[len(b.levels)-1] }

// Depth is the number of open levels, including the root.
func (b *Buffer) Depth() int { return len(b.levels) }

// TopEmpty reports whether the innermost level has no entries.
func (b *Buffer) TopEmpty() bool { return len(b.top().entries) == 0 }

// CurrentIndent is the total indent of all open levels.
func (b *Buffer) CurrentIndent() int {
	sum := 0
	for _, l := range b.levels {
		sum += l.indent
	}
	return sum
}

// NewState opens a nested level indented by indent columns.
func (b *Buffer) NewState(indent int) {
	b.levels = append(b.levels, &Level{indent: indent})
}

// AddText appends inline text to the innermost level.
func (b *Buffer) AddText(s string) {
	top := b.top()
	top.entries = append(top.entries, entry{inline: true, text: s})
}

// AppendLine appends one preformatted line that starts at column 0
// regardless of the current nesting.
func (b *Buffer) AppendLine(s string) {
	b.AppendNested([]string{s})
}

// AppendNested appends preformatted lines that start at column 0
// regardless of the current nesting.
func (b *Buffer) AppendNested(lines []string) {
	b.AppendBlock(-b.CurrentIndent(), lines)
}

// AppendBlock appends preformatted lines indented relative to the
// innermost level.
func (b *Buffer) AppendBlock(indent int, lines []string) {
	top := b.top()
	top.entries = append(top.entries, entry{indent: indent, lines: append([]string(nil), lines...)})
}

// TrimTrailingBlank drops a trailing empty line from the last
// preformatted entry of the innermost level.
func (b *Buffer) TrimTrailingBlank() {
	top := b.top()
	if len(top.entries) == 0 {
		return
	}
	e := &top.entries[len(top.entries)-1]
	if !e.inline && len(e.lines) > 0 && e.lines[len(e.lines)-1] == "" {
		e.lines = e.lines[:len(e.lines)-1]
	}
}

// PopInline closes the innermost level without formatting it and returns
// its concatenated inline text.
func (b *Buffer) PopInline() string {
	if len(b.levels) == 1 {
		return ""
	}
	top := b.top()
	b.levels = b.levels[:len(b.levels)-1]
	var buf strings.Builder
	for _, e := range top.entries {
		if e.inline {
			buf.WriteString(e.text)
		}
	}
	return buf.String()
}

// EndState closes the innermost level. Runs of inline text are filled (or
// split on newlines when wrap is false) and followed by end; first, when
// non-empty, is prefixed to the first resulting line at the parent's
// indent. The root level is never closed.
func (b *Buffer) EndState(wrap bool, end []string, first string) {
	if len(b.levels) == 1 {
		return
	}
	maxIndent := b.CurrentIndent()
	content := b.top()
	b.levels = b.levels[:len(b.levels)-1]
	indent := content.indent

	var result []entry
	var toFormat strings.Builder
	pending := false
	flush := func() {
		if !pending {
			return
		}
		var lines []string
		if wrap {
			lines = fill(toFormat.String(), b.width-maxIndent)
		} else {
			lines = splitLines(toFormat.String())
		}
		lines = append(lines, end...)
		result = append(result, entry{indent: indent, lines: lines})
		toFormat.Reset()
		pending = false
	}
	for _, e := range content.entries {
		if e.inline {
			toFormat.WriteString(e.text)
			pending = true
			continue
		}
		flush()
		result = append(result, entry{indent: indent + e.indent, lines: e.lines})
	}
	flush()

	if first != "" && len(result) > 0 {
		head := result[0]
		newIndent := head.indent - indent
		if len(head.lines) == 1 && head.lines[0] == "" {
			// A blank first line is taken over by the bare prefix.
			result[0] = entry{indent: newIndent, lines: []string{strings.TrimRight(first, " ")}}
		} else {
			line := first
			if len(head.lines) > 0 {
				line += head.lines[0]
				result[0].lines = head.lines[1:]
			}
			result = append([]entry{{indent: newIndent, lines: []string{line}}}, result...)
		}
	}

	parent := b.top()
	parent.entries = append(parent.entries, result...)
}

// Lines serializes the root level. Empty lines are never indented.
func (b *Buffer) Lines() []string {
	var out []string
	for _, e := range b.levels[0].entries {
		if e.inline {
			out = append(out, e.text)
			continue
		}
		pad := ""
		if e.indent > 0 {
			pad = strings.Repeat(" ", e.indent)
		}
		for _, line := range e.lines {
			if line == "" {
				out = append(out, "")
				continue
			}
			out = append(out, pad+line)
		}
	}
	return out
}

func fill(s string, width int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}
	if width < 1 {
		width = 1
	}
	return strings.Split(wordwrap.WrapString(strings.Join(words, " "), uint(width)), "\n")
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
