package builder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dgallion1/vimhelp/internal/doctree"
	"github.com/dgallion1/vimhelp/internal/metrics"
	"github.com/dgallion1/vimhelp/internal/parser"
	"golang.org/x/sync/errgroup"
)

// Config selects what a build reads, how it renders and what it writes.
type Config struct {
	SourceDir string
	OutputDir string
	Format    string
	Workers   int
	TagsFile  bool
	Manifest  bool
	Options   map[string]any
	Parser    parser.Options
}

// Builder renders a source tree into an output directory.
type Builder struct {
	reg *Registry
	cfg Config
	log *slog.Logger
	rec metrics.Recorder
	now func() time.Time
}

// New creates a builder. log and rec may be nil.
func New(reg *Registry, cfg Config, log *slog.Logger, rec metrics.Recorder) *Builder {
	if log == nil {
		log = slog.Default()
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Builder{reg: reg, cfg: cfg, log: log.With("format", cfg.Format), rec: rec, now: time.Now}
}

// Build renders every supported source document. Documents that fail are
// skipped and reported through a *BuildError; the manifest is returned in
// either case. Option errors abort before anything is rendered.
func (b *Builder) Build(ctx context.Context) (*Manifest, error) {
	start := b.now()
	f, rd, err := b.reg.NewRenderer(b.cfg.Format, b.cfg.Options)
	if err != nil {
		return nil, err
	}

	if sameDir(b.cfg.SourceDir, b.cfg.OutputDir) {
		return nil, fmt.Errorf("output dir %s is the source dir", b.cfg.OutputDir)
	}
	sources, err := b.discover(ctx)
	if err != nil {
		return nil, fmt.Errorf("discover sources: %w", err)
	}
	if err := os.MkdirAll(b.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	b.log.Info("build started", "sources", len(sources), "output", b.cfg.OutputDir)

	workers := b.cfg.Workers
	if !f.ParallelSafe {
		workers = 1
	}

	var (
		mu      sync.Mutex
		outputs []OutputRecord
	)
	planned, failures := b.plan(f, sources)
	for _, fl := range failures {
		b.log.Error("document failed", "source", fl.Source, "error", fl.Err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, p := range planned {
		rel := p.source
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec, err := b.buildOne(f, rd, rel, p.output)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				b.log.Error("document failed", "source", rel, "error", err)
				failures = append(failures, Failure{Source: rel, Err: err.Error()})
				return nil
			}
			outputs = append(outputs, *rec)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(outputs, func(i, j int) bool { return outputs[i].Source < outputs[j].Source })
	sort.Slice(failures, func(i, j int) bool { return failures[i].Source < failures[j].Source })

	if b.cfg.TagsFile {
		n, err := b.writeTags(outputs)
		if err != nil {
			return nil, err
		}
		b.rec.AddTags(f.Name, n)
	}

	m, err := newManifest(f.Name, b.cfg.Options, start)
	if err != nil {
		return nil, err
	}
	m.Outputs = outputs
	m.Failures = failures
	m.finish(b.now().Sub(start))
	if b.cfg.Manifest {
		if err := m.Write(b.cfg.OutputDir); err != nil {
			return nil, err
		}
	}

	b.log.Info("build finished", "outputs", len(outputs), "failed", len(failures), "duration", m.Duration)
	if len(failures) > 0 {
		return m, &BuildError{Failed: failures}
	}
	if f.Epilog != "" {
		b.log.Info(fmt.Sprintf(f.Epilog, b.cfg.OutputDir))
	}
	return m, nil
}

type plannedOutput struct {
	source string
	output string
}

// plan assigns each source its output path. A source whose output would
// replace a source file, or an output already claimed by an earlier
// source, fails without being rendered.
func (b *Builder) plan(f Format, sources []string) ([]plannedOutput, []Failure) {
	srcSet := make(map[string]bool, len(sources))
	for _, rel := range sources {
		srcSet[absPath(filepath.Join(b.cfg.SourceDir, filepath.FromSlash(rel)))] = true
	}
	claimed := make(map[string]string, len(sources))
	var (
		planned  []plannedOutput
		failures []Failure
	)
	for _, rel := range sources {
		outRel := outputPath(rel, f.OutSuffix)
		dest := absPath(filepath.Join(b.cfg.OutputDir, filepath.FromSlash(outRel)))
		switch {
		case srcSet[dest]:
			failures = append(failures, Failure{Source: rel, Err: fmt.Sprintf("output %s would overwrite a source file", outRel)})
		case claimed[dest] != "":
			failures = append(failures, Failure{Source: rel, Err: fmt.Sprintf("output %s already written for %s", outRel, claimed[dest])})
		default:
			claimed[dest] = rel
			planned = append(planned, plannedOutput{source: rel, output: outRel})
		}
	}
	return planned, failures
}

func outputPath(rel, suffix string) string {
	return strings.TrimSuffix(rel, filepath.Ext(rel)) + suffix
}

// buildOne renders one source and writes its output. When parsing or
// rendering fails nothing is written and an output left by an earlier
// build is removed.
func (b *Builder) buildOne(f Format, rd Renderer, rel, outRel string) (*OutputRecord, error) {
	start := b.now()
	dest := filepath.Join(b.cfg.OutputDir, filepath.FromSlash(outRel))
	out, err := b.renderFile(rd, rel)
	if err != nil {
		b.rec.ObserveRender(f.Name, metrics.StatusFailed, b.now().Sub(start))
		if rmErr := os.Remove(dest); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			b.log.Warn("remove stale output", "output", outRel, "error", rmErr)
		}
		return nil, err
	}

	if err := writeFileAtomic(dest, []byte(out.Body)); err != nil {
		b.rec.ObserveRender(f.Name, metrics.StatusFailed, b.now().Sub(start))
		return nil, err
	}
	b.rec.ObserveRender(f.Name, metrics.StatusSuccess, b.now().Sub(start))

	sum := sha256.Sum256([]byte(out.Body))
	b.log.Debug("document written", "source", rel, "output", outRel, "tags", len(out.Tags))
	return &OutputRecord{
		Source:   rel,
		Output:   outRel,
		SHA256:   hex.EncodeToString(sum[:]),
		TagCount: len(out.Tags),
		Tags:     out.Tags,
	}, nil
}

func (b *Builder) renderFile(rd Renderer, rel string) (*Output, error) {
	fh, err := os.Open(filepath.Join(b.cfg.SourceDir, filepath.FromSlash(rel)))
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return renderDoc(rd, fh, rel, b.cfg.Parser)
}

// RenderSource parses and renders a single document in memory with the
// builder's format and options. filename selects the parser and is the
// document source.
func (b *Builder) RenderSource(ctx context.Context, r io.Reader, filename string) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, rd, err := b.reg.NewRenderer(b.cfg.Format, b.cfg.Options)
	if err != nil {
		return nil, err
	}
	start := b.now()
	out, err := renderDoc(rd, r, filename, b.cfg.Parser)
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusFailed
	}
	b.rec.ObserveRender(f.Name, status, b.now().Sub(start))
	return out, err
}

func renderDoc(rd Renderer, r io.Reader, filename string, popts parser.Options) (*Output, error) {
	p, err := parser.ForFile(filename, popts)
	if err != nil {
		return nil, err
	}
	doc, err := p.Parse(r, filename)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}
	return Render(rd, doc)
}

// Render runs rd on a parsed document.
func Render(rd Renderer, doc *doctree.Node) (*Output, error) {
	out, err := rd.Render(doc)
	if err != nil {
		src, _ := doc.Attr(doctree.AttrSource)
		return nil, fmt.Errorf("render %s: %w", src, err)
	}
	return out, nil
}

// discover lists supported sources below SourceDir as slash-separated
// relative paths. Hidden entries and the output directory are skipped.
func (b *Builder) discover(ctx context.Context) ([]string, error) {
	outAbs, _ := filepath.Abs(b.cfg.OutputDir)
	var sources []string
	err := filepath.WalkDir(b.cfg.SourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path != b.cfg.SourceDir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if abs, _ := filepath.Abs(path); abs == outAbs && path != b.cfg.SourceDir {
				return filepath.SkipDir
			}
			return nil
		}
		if !parser.IsSupportedExtension(path) {
			return nil
		}
		rel, err := filepath.Rel(b.cfg.SourceDir, path)
		if err != nil {
			return err
		}
		sources = append(sources, filepath.ToSlash(rel))
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("source dir %s does not exist", b.cfg.SourceDir)
	}
	return sources, err
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

func sameDir(a, b string) bool {
	return absPath(a) == absPath(b)
}

// writeFileAtomic writes data next to path and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
