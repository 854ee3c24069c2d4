package api

import "net/http"

type optionInfo struct {
	Name    string `json:"name"`
	Default any    `json:"default"`
	Help    string `json:"help,omitempty"`
}

type formatInfo struct {
	Name         string       `json:"name"`
	OutSuffix    string       `json:"out_suffix"`
	ParallelSafe bool         `json:"parallel_safe"`
	Options      []optionInfo `json:"options"`
}

// handleFormats lists the registered output formats and their options.
func (s *Server) handleFormats(w http.ResponseWriter, r *http.Request) {
	formats := s.reg.Formats()
	out := make([]formatInfo, 0, len(formats))
	for _, f := range formats {
		info := formatInfo{
			Name:         f.Name,
			OutSuffix:    f.OutSuffix,
			ParallelSafe: f.ParallelSafe,
			Options:      make([]optionInfo, 0, len(f.Options)),
		}
		for _, d := range f.Options {
			info.Options = append(info.Options, optionInfo{Name: d.Name, Default: d.Default, Help: d.Help})
		}
		out = append(out, info)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"default": s.cfg.Format,
		"formats": out,
	})
}
