package builder

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/dgallion1/vimhelp/internal/doctree"
)

// Output is the rendered form of one document.
type Output struct {
	Body     string
	Filename string   // Name the format uses for the document inside its own output (may be empty).
	Tags     []string // Navigation tag names emitted into Body.
}

// Renderer turns a parsed document into an Output. Implementations must be
// safe to call from several goroutines when the format is parallel-safe.
type Renderer interface {
	Render(doc *doctree.Node) (*Output, error)
}

// Format describes an output format registered with the host.
type Format struct {
	Name         string
	OutSuffix    string
	ParallelSafe bool
	Epilog       string // Printed after a successful build; %s is the output dir.
	Options      []OptionDecl
	NewRenderer  func(opts Options) (Renderer, error)
}

// Registry holds the registered output formats.
type Registry struct {
	mu      sync.RWMutex
	formats map[string]Format
	log     *slog.Logger
}

func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{formats: make(map[string]Format), log: log}
}

// Register adds a format. Names must be unique.
func (r *Registry) Register(f Format) error {
	if f.Name == "" {
		return fmt.Errorf("format name is required")
	}
	if f.NewRenderer == nil {
		return fmt.Errorf("format %s: renderer constructor is required", f.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.formats[f.Name]; ok {
		return fmt.Errorf("format %s already registered", f.Name)
	}
	r.formats[f.Name] = f
	return nil
}

// Lookup returns the named format.
func (r *Registry) Lookup(name string) (Format, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.formats[name]
	return f, ok
}

// Formats returns all registered formats sorted by name.
func (r *Registry) Formats() []Format {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Format, 0, len(r.formats))
	for _, f := range r.formats {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// NewRenderer resolves raw option values for the named format and
// constructs its renderer.
func (r *Registry) NewRenderer(name string, raw map[string]any) (Format, Renderer, error) {
	f, ok := r.Lookup(name)
	if !ok {
		return Format{}, nil, fmt.Errorf("unknown format: %s", name)
	}
	opts, err := r.ResolveOptions(f, raw)
	if err != nil {
		return Format{}, nil, err
	}
	rd, err := f.NewRenderer(opts)
	if err != nil {
		return Format{}, nil, fmt.Errorf("format %s: %w", f.Name, err)
	}
	return f, rd, nil
}
