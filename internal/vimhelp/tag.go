// Package vimhelp renders document trees as Vim help files.
package vimhelp

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Tagger builds help-viewer navigation tags.
type Tagger struct {
	Prefix string
	Suffix string
}

// Tag returns *<prefix><body><suffix>*. A body containing '*' yields a
// malformed tag; nothing is escaped.
func (t Tagger) Tag(body string) string {
	return "*" + t.Name(body) + "*"
}

// Name returns the tag without its delimiters, as listed in a tags file.
func (t Tagger) Name(body string) string {
	return t.Prefix + body + t.Suffix
}

var argList = regexp.MustCompile(`\(.*\)?`)

// ExtractIdentifier turns a signature into a tag body: everything from the
// first '(' on becomes "()" and spaces become underscores.
// "foo bar(x, y)" gives "foo_bar()".
func ExtractIdentifier(signature string) string {
	return strings.ReplaceAll(argList.ReplaceAllLiteralString(signature, "()"), " ", "_")
}

// OutputFilename derives the help file name used in tags from a source
// path: "docs/My File.rst" with suffix ";" gives "My_File.txt;".
func OutputFilename(source, suffix string) string {
	parts := strings.Split(strings.ReplaceAll(filepath.Base(source), " ", "_"), ".")
	if len(parts) > 1 {
		parts = parts[:len(parts)-1]
	}
	return strings.Join(parts, "") + ".txt" + suffix
}
