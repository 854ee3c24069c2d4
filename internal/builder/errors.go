package builder

import (
	"fmt"
	"strings"
)

// ConfigurationError reports an invalid option value. It is raised while
// resolving options, before any document is rendered.
type ConfigurationError struct {
	Option string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("config option %s: %s", e.Option, e.Reason)
}

// Failure records one document that could not be built.
type Failure struct {
	Source string `json:"source"`
	Err    string `json:"error"`
}

// BuildError summarises the documents that failed in a build. The other
// documents were still written.
type BuildError struct {
	Failed []Failure
}

func (e *BuildError) Error() string {
	names := make([]string, 0, len(e.Failed))
	for _, f := range e.Failed {
		names = append(names, f.Source)
	}
	return fmt.Sprintf("%d document(s) failed: %s", len(e.Failed), strings.Join(names, ", "))
}
