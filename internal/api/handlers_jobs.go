package api

import (
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/dgallion1/vimhelp/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

// handleSubmitJob queues the uploaded documents for asynchronous rendering.
// Files may be sent as "file" or repeated "files" parts.
func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxUploadBytes*10+10*1024*1024)

	if !parseForm(w, r, 64<<20) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	format, ok := s.formatParam(w, r)
	if !ok {
		return
	}

	var headers []*multipart.FileHeader
	headers = append(headers, r.MultipartForm.File["file"]...)
	headers = append(headers, r.MultipartForm.File["files"]...)
	if len(headers) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	inputs := make([]pipeline.Input, 0, len(headers))
	for _, fh := range headers {
		filename, data, status, err := s.readUpload(fh)
		if err != nil {
			jsonError(w, fmt.Sprintf("%s: %s", filename, err), status)
			return
		}
		inputs = append(inputs, pipeline.Input{Filename: filename, Data: data})
	}

	job, err := pipeline.NewJob(format, inputs)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	snap := job.Snapshot()
	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":     snap.ID,
		"format":     snap.Format,
		"status":     snap.Status,
		"poll_url":   fmt.Sprintf("/api/jobs/%s/status", snap.ID),
		"output_url": fmt.Sprintf("/api/jobs/%s/output", snap.ID),
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

// handleJobOutput returns the rendered documents of a finished job. A
// single document, or the one named by ?source=, is returned as plain
// text; several are returned as JSON together with the tags file.
func (s *Server) handleJobOutput(w http.ResponseWriter, r *http.Request) {
	job, ok := s.finishedJob(w, r)
	if !ok {
		return
	}
	outputs, tags := job.Outputs()

	if src := r.URL.Query().Get("source"); src != "" {
		for _, o := range outputs {
			if o.Source == src {
				writeText(w, o.Body)
				return
			}
		}
		jsonError(w, "no output for source "+src, http.StatusNotFound)
		return
	}

	if len(outputs) == 1 {
		writeText(w, outputs[0].Body)
		return
	}
	if outputs == nil {
		outputs = []pipeline.Output{}
	}
	snap := job.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"job_id":  snap.ID,
		"status":  snap.Status,
		"outputs": outputs,
		"tags":    tags,
	})
}

// handleJobTags returns the tags file of a finished job.
func (s *Server) handleJobTags(w http.ResponseWriter, r *http.Request) {
	job, ok := s.finishedJob(w, r)
	if !ok {
		return
	}
	_, tags := job.Outputs()
	if tags == "" {
		jsonError(w, "job produced no tags", http.StatusNotFound)
		return
	}
	writeText(w, tags)
}

func (s *Server) finishedJob(w http.ResponseWriter, r *http.Request) (*pipeline.Job, bool) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return nil, false
	}
	if snap := job.Snapshot(); !snap.Status.Done() {
		jsonError(w, fmt.Sprintf("job is %s", snap.Status), http.StatusConflict)
		return nil, false
	}
	return job, true
}
