package vimhelp

import (
	"fmt"
	"sort"
	"sync"
)

// DescFormatter computes the tag body of a description entry from its
// signature text and declared type (e.g. "function"; may be empty).
type DescFormatter interface {
	FormatDesc(signature, descType string) string
}

// DescFormatterFunc adapts a function to DescFormatter.
type DescFormatterFunc func(signature, descType string) string

func (f DescFormatterFunc) FormatDesc(signature, descType string) string {
	return f(signature, descType)
}

var (
	formattersMu sync.RWMutex
	formatters   = map[string]DescFormatter{}
)

func init() {
	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}
	must(registerFormatter("identifier", DescFormatterFunc(func(sig, _ string) string {
		return ExtractIdentifier(sig)
	})))
	must(registerFormatter("typed", DescFormatterFunc(func(sig, descType string) string {
		if descType == "" {
			return ExtractIdentifier(sig)
		}
		return descType + "." + ExtractIdentifier(sig)
	})))
}

// registerFormatter makes f selectable by name through the
// vimhelp_format_desc option.
func registerFormatter(name string, f DescFormatter) error {
	formattersMu.Lock()
	defer formattersMu.Unlock()
	if _, ok := formatters[name]; ok {
		return fmt.Errorf("desc formatter %q already registered", name)
	}
	formatters[name] = f
	return nil
}

// LookupFormatter returns the named formatter.
func LookupFormatter(name string) (DescFormatter, bool) {
	formattersMu.RLock()
	defer formattersMu.RUnlock()
	f, ok := formatters[name]
	return f, ok
}

// FormatterNames lists the registered formatter names.
func FormatterNames() []string {
	formattersMu.RLock()
	defer formattersMu.RUnlock()
	names := make([]string, 0, len(formatters))
	for n := range formatters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
