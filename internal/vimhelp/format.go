package vimhelp

import (
	"fmt"
	"strings"
	"time"

	"github.com/dgallion1/vimhelp/internal/builder"
	"github.com/dgallion1/vimhelp/internal/doctree"
	"github.com/dgallion1/vimhelp/internal/textrender"
)

// FormatName is the registered output format identifier.
const FormatName = "vimhelp"

// Option names accepted by the vimhelp format, as they appear in the
// options map of the config file and in -O flags.
const (
	OptTagPrefix      = "vimhelp_tag_prefix"
	OptTagSuffix      = "vimhelp_tag_suffix"
	OptFormatDesc     = "vimhelp_format_desc"
	OptTagFilename    = "vimhelp_tag_filename"
	OptFilenameSuffix = "vimhelp_filename_suffix"
)

// OptionDecls declares the vimhelp options with their defaults.
func OptionDecls() []builder.OptionDecl {
	def := DefaultOptions()
	return []builder.OptionDecl{
		{Name: OptTagPrefix, Default: "", Help: "prepended to every tag"},
		{Name: OptTagSuffix, Default: "", Help: "appended to every tag"},
		{
			Name: OptFormatDesc, Default: nil,
			Help:     "named formatter for description entry tags (" + strings.Join(FormatterNames(), ", ") + ")",
			Validate: validateFormatter,
		},
		{Name: OptTagFilename, Default: def.TagFilename, Help: "append ..<filename> to description tags"},
		{Name: OptFilenameSuffix, Default: def.FilenameSuffix, Help: "appended to the help file name in tags"},
	}
}

func validateFormatter(v any) error {
	name, ok := v.(string)
	if !ok {
		return fmt.Errorf("expected formatter name, got %T", v)
	}
	if name == "" {
		return nil
	}
	if _, ok := LookupFormatter(name); !ok {
		return fmt.Errorf("unknown formatter %q (have %s)", name, strings.Join(FormatterNames(), ", "))
	}
	return nil
}

// OptionsFromResolved reads the vimhelp options from a resolved set.
func OptionsFromResolved(opts builder.Options) Options {
	o := Options{
		TagPrefix:      opts.String(OptTagPrefix),
		TagSuffix:      opts.String(OptTagSuffix),
		TagFilename:    opts.Bool(OptTagFilename),
		FilenameSuffix: opts.String(OptFilenameSuffix),
	}
	if name := opts.String(OptFormatDesc); name != "" {
		o.FormatDesc, _ = LookupFormatter(name)
	}
	return o
}

// Renderer renders documents as help files. Each call uses a fresh
// Translator, so one Renderer may serve concurrent documents.
type Renderer struct {
	Opts Options
	Text textrender.Config
	Now  func() time.Time
}

// Render implements builder.Renderer.
func (r *Renderer) Render(doc *doctree.Node) (*builder.Output, error) {
	t := NewTranslator(r.Opts, r.Text, r.Now)
	if err := doctree.Walk(doc, t); err != nil {
		return nil, err
	}
	return &builder.Output{Body: t.Body, Filename: t.Filename, Tags: t.Tags}, nil
}

// Setup registers the vimhelp format.
func Setup(reg *builder.Registry) error {
	decls := append(OptionDecls(), textrender.OptionDecls()...)
	return reg.Register(builder.Format{
		Name:         FormatName,
		OutSuffix:    ".txt",
		ParallelSafe: true,
		Epilog:       "The vim help files are in %s.",
		Options:      decls,
		NewRenderer: func(opts builder.Options) (builder.Renderer, error) {
			return &Renderer{
				Opts: OptionsFromResolved(opts),
				Text: textrender.ConfigFromOptions(opts),
			}, nil
		},
	})
}
