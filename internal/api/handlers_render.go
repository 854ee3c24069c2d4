package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/vimhelp/internal/builder"
	"github.com/dgallion1/vimhelp/internal/metrics"
	"github.com/dgallion1/vimhelp/internal/parser"
)

// parseForm parses the multipart body. A body over the request limit
// answers 413, any other malformed form 400.
func parseForm(w http.ResponseWriter, r *http.Request, maxMemory int64) bool {
	err := r.ParseMultipartForm(maxMemory)
	if err == nil {
		return true
	}
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		jsonError(w, fmt.Sprintf("request body exceeds %d bytes", mbe.Limit), http.StatusRequestEntityTooLarge)
		return false
	}
	jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
	return false
}

// handleRender renders one uploaded document synchronously and returns the
// rendered text. Documents the format cannot render, such as a malformed
// description entry, answer 422.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if !parseForm(w, r, 32<<20) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	format, ok := s.formatParam(w, r)
	if !ok {
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	file.Close()
	filename, data, status, err := s.readUpload(header)
	if err != nil {
		jsonError(w, err.Error(), status)
		return
	}

	b := builder.New(s.reg, builder.Config{
		Format:  format,
		Options: s.cfg.Options,
		Parser:  parser.Options{PDFFallbackPdftotext: s.cfg.PDFFallbackPdftotext},
	}, s.log, s.recorder())
	out, err := b.RenderSource(r.Context(), bytes.NewReader(data), filename)
	if err != nil {
		s.log.Warn("render failed", "filename", filename, "format", format, "error", err)
		jsonError(w, err.Error(), renderErrorStatus(err))
		return
	}

	w.Header().Set("X-Vimhelp-Tags", fmt.Sprint(len(out.Tags)))
	writeText(w, out.Body)
}

// formatParam returns the requested format, or the configured default.
func (s *Server) formatParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	format := r.FormValue("format")
	if format == "" {
		format = s.cfg.Format
	}
	if _, ok := s.reg.Lookup(format); !ok {
		jsonError(w, "unknown format: "+format, http.StatusBadRequest)
		return "", false
	}
	return format, true
}

// readUpload validates and reads one uploaded file. On error the returned
// status is the HTTP code to answer with.
func (s *Server) readUpload(fh *multipart.FileHeader) (string, []byte, int, error) {
	filename := sanitizeFilename(fh.Filename)
	if !parser.IsSupportedExtension(filename) {
		return filename, nil, http.StatusBadRequest, fmt.Errorf("unsupported file type: %s", filepath.Ext(filename))
	}

	f, err := fh.Open()
	if err != nil {
		return filename, nil, http.StatusInternalServerError, fmt.Errorf("failed to open file")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.cfg.Server.MaxUploadBytes+1))
	if err != nil {
		return filename, nil, http.StatusInternalServerError, fmt.Errorf("failed to read file")
	}
	if int64(len(data)) > s.cfg.Server.MaxUploadBytes {
		return filename, nil, http.StatusRequestEntityTooLarge, fmt.Errorf("file exceeds max size (%d bytes)", s.cfg.Server.MaxUploadBytes)
	}
	return filename, data, http.StatusOK, nil
}

func (s *Server) recorder() metrics.Recorder {
	if s.prom == nil {
		return nil
	}
	return s.prom
}

func renderErrorStatus(err error) int {
	var cerr *builder.ConfigurationError
	if errors.As(err, &cerr) {
		return http.StatusBadRequest
	}
	return http.StatusUnprocessableEntity
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	if name == "" || name == "." || name == ".." {
		name = "unnamed"
	}
	return name
}
