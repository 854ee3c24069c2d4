package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgallion1/vimhelp/internal/builder"
	"github.com/dgallion1/vimhelp/internal/metrics"
	"github.com/dgallion1/vimhelp/internal/parser"
)

// Worker renders the documents of a job.
type Worker struct {
	reg     *builder.Registry
	options map[string]any
	popts   parser.Options
	rec     metrics.Recorder
	log     *slog.Logger
}

func NewWorker(reg *builder.Registry, options map[string]any, popts parser.Options, rec metrics.Recorder, log *slog.Logger) *Worker {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Worker{reg: reg, options: options, popts: popts, rec: rec, log: log}
}

// Process renders every input of job. A document that fails is recorded
// and the others still render.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "format", job.Format)
	defer job.releaseInputs()

	f, rd, err := w.reg.NewRenderer(job.Format, w.options)
	if err != nil {
		log.Error("renderer setup failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "configuring")
		return
	}

	var records []builder.OutputRecord
	for _, in := range job.Inputs() {
		if err := ctx.Err(); err != nil {
			job.AddError(fmt.Sprintf("canceled: %s", err))
			job.SetStatus(StatusFailed, "canceled")
			return
		}

		start := time.Now()
		out, err := w.renderOne(job, rd, in)
		if err != nil {
			w.rec.ObserveRender(f.Name, metrics.StatusFailed, time.Since(start))
			log.Error("render failed", "source", in.Filename, "error", err)
			job.AddFailure(in.Filename, err)
			continue
		}
		w.rec.ObserveRender(f.Name, metrics.StatusSuccess, time.Since(start))

		name := strings.TrimSuffix(in.Filename, filepath.Ext(in.Filename)) + f.OutSuffix
		job.AddOutput(Output{
			Source:   in.Filename,
			Filename: name,
			Body:     out.Body,
			Tags:     out.Tags,
			SHA256:   ContentHashHex([]byte(out.Body)),
		})
		records = append(records, builder.OutputRecord{Source: in.Filename, Output: name, Tags: out.Tags})
		log.Info("rendered document", "source", in.Filename, "tags", len(out.Tags))
	}

	if entries := builder.CollectTags(records, log); len(entries) > 0 {
		job.SetTags(builder.FormatTags(entries), len(entries))
		w.rec.AddTags(f.Name, len(entries))
	}

	snap := job.Snapshot()
	switch {
	case snap.Progress.FilesFailed == 0:
		job.SetStatus(StatusCompleted, "done")
	case snap.Progress.FilesRendered > 0:
		job.SetStatus(StatusPartial, "done")
	default:
		job.SetStatus(StatusFailed, "rendering")
	}
}

func (w *Worker) renderOne(job *Job, rd builder.Renderer, in Input) (*builder.Output, error) {
	job.SetStatus(StatusParsing, "parsing "+in.Filename)
	p, err := parser.ForFile(in.Filename, w.popts)
	if err != nil {
		return nil, err
	}
	doc, err := p.Parse(bytes.NewReader(in.Data), in.Filename)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	job.SetStatus(StatusRendering, "rendering "+in.Filename)
	return builder.Render(rd, doc)
}
