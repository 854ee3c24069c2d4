package builder

import (
	"fmt"
	"sort"
)

// OptionDecl declares a configuration option of a format. The type of
// Default fixes the accepted value type; a nil Default accepts any value
// and leaves checking to Validate.
type OptionDecl struct {
	Name     string
	Default  any
	Help     string
	Validate func(v any) error
}

// Options is a resolved option set: every declared option is present.
type Options map[string]any

// String returns a string option, or "" if unset.
func (o Options) String(name string) string {
	s, _ := o[name].(string)
	return s
}

// Bool returns a bool option, or false if unset.
func (o Options) Bool(name string) bool {
	b, _ := o[name].(bool)
	return b
}

// Int returns an int option, or 0 if unset.
func (o Options) Int(name string) int {
	n, _ := o[name].(int)
	return n
}

// ResolveOptions fills declared defaults and checks every supplied value
// against its declaration. Undeclared keys are logged and dropped.
func (r *Registry) ResolveOptions(f Format, raw map[string]any) (Options, error) {
	opts := make(Options, len(f.Options))
	declared := make(map[string]bool, len(f.Options))
	for _, d := range f.Options {
		declared[d.Name] = true
		v, ok := raw[d.Name]
		if !ok || v == nil {
			opts[d.Name] = d.Default
			continue
		}
		v, err := coerce(d, v)
		if err != nil {
			return nil, err
		}
		if d.Validate != nil {
			if err := d.Validate(v); err != nil {
				return nil, &ConfigurationError{Option: d.Name, Reason: err.Error()}
			}
		}
		opts[d.Name] = v
	}

	var unknown []string
	for k := range raw {
		if !declared[k] {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	for _, k := range unknown {
		r.log.Warn("unknown config option", "format", f.Name, "option", k)
	}
	return opts, nil
}

func coerce(d OptionDecl, v any) (any, error) {
	switch d.Default.(type) {
	case nil:
		return v, nil
	case string:
		// Scalars from YAML or -O flags (vimhelp_tag_suffix=2) keep their text.
		switch s := v.(type) {
		case string:
			return s, nil
		case int, int64, float64, bool:
			return fmt.Sprint(s), nil
		}
	case bool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case int:
		switch n := v.(type) {
		case int:
			return n, nil
		case int64:
			return int(n), nil
		case float64:
			if n == float64(int(n)) {
				return int(n), nil
			}
		}
	}
	return nil, &ConfigurationError{
		Option: d.Name,
		Reason: fmt.Sprintf("expected %T, got %T", d.Default, v),
	}
}
