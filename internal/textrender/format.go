package textrender

import (
	"errors"

	"github.com/dgallion1/vimhelp/internal/builder"
	"github.com/dgallion1/vimhelp/internal/doctree"
)

// Option names shared by every format built on this renderer.
const (
	OptWidth        = "text_width"
	OptSectionChars = "text_sectionchars"
	OptNewline      = "text_newline"
)

// OptionDecls declares the renderer options with their defaults.
func OptionDecls() []builder.OptionDecl {
	def := DefaultConfig()
	return []builder.OptionDecl{
		{
			Name: OptWidth, Default: def.Width, Help: "maximum width of filled text",
			Validate: func(v any) error {
				if v.(int) < 20 {
					return errors.New("must be at least 20")
				}
				return nil
			},
		},
		{
			Name: OptSectionChars, Default: def.SectionChars, Help: "title underline characters by section depth",
			Validate: func(v any) error {
				if v.(string) == "" {
					return errors.New("must not be empty")
				}
				return nil
			},
		},
		{Name: OptNewline, Default: def.Newline, Help: "line separator"},
	}
}

// ConfigFromOptions reads the renderer options from a resolved set.
func ConfigFromOptions(opts builder.Options) Config {
	return Config{
		Width:        opts.Int(OptWidth),
		SectionChars: opts.String(OptSectionChars),
		Newline:      opts.String(OptNewline),
	}
}

type renderer struct {
	cfg Config
}

func (r renderer) Render(doc *doctree.Node) (*builder.Output, error) {
	body, err := Render(doc, r.cfg)
	if err != nil {
		return nil, err
	}
	return &builder.Output{Body: body}, nil
}

// Setup registers the plain "text" format.
func Setup(reg *builder.Registry) error {
	return reg.Register(builder.Format{
		Name:         "text",
		OutSuffix:    ".txt",
		ParallelSafe: true,
		Epilog:       "The text files are in %s.",
		Options:      OptionDecls(),
		NewRenderer: func(opts builder.Options) (builder.Renderer, error) {
			return renderer{cfg: ConfigFromOptions(opts)}, nil
		},
	})
}
