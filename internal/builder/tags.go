package builder

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
)

// TagsFile is the name of the tag index written next to the help files.
const TagsFile = "tags"

// TagEntry maps a tag name to the output file defining it.
type TagEntry struct {
	Name string
	File string
}

// CollectTags gathers the tags of all outputs sorted by name. A name
// defined more than once keeps its first definition in source order.
func CollectTags(outputs []OutputRecord, log *slog.Logger) []TagEntry {
	seen := make(map[string]string)
	var entries []TagEntry
	for _, o := range outputs {
		for _, name := range o.Tags {
			if prev, ok := seen[name]; ok {
				log.Warn("duplicate tag", "tag", name, "file", o.Output, "first", prev)
				continue
			}
			seen[name] = o.Output
			entries = append(entries, TagEntry{Name: name, File: o.Output})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

// FormatTags renders entries in the Vim tags file format.
func FormatTags(entries []TagEntry) string {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s\t%s\t/*%s*\n", e.Name, e.File, escapePattern(e.Name))
	}
	return b.String()
}

// escapePattern escapes a tag name for use in a search address.
func escapePattern(s string) string {
	return strings.NewReplacer(`\`, `\\`, `/`, `\/`).Replace(s)
}

func (b *Builder) writeTags(outputs []OutputRecord) (int, error) {
	entries := CollectTags(outputs, b.log)
	if len(entries) == 0 {
		return 0, nil
	}
	path := filepath.Join(b.cfg.OutputDir, TagsFile)
	if err := writeFileAtomic(path, []byte(FormatTags(entries))); err != nil {
		return 0, fmt.Errorf("write tags: %w", err)
	}
	return len(entries), nil
}
