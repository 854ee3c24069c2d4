package pipeline

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/vimhelp/internal/builder"
	"github.com/dgallion1/vimhelp/internal/config"
	"github.com/dgallion1/vimhelp/internal/parser"
	"github.com/dgallion1/vimhelp/internal/vimhelp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func newWorker(t *testing.T, options map[string]any) *Worker {
	t.Helper()
	reg := builder.NewRegistry(discard)
	require.NoError(t, vimhelp.Setup(reg))
	return NewWorker(reg, options, parser.Options{}, nil, discard)
}

func TestWorker_ProcessPartial(t *testing.T) {
	w := newWorker(t, nil)
	job, err := NewJob(vimhelp.FormatName, []Input{
		{Filename: "io.md", Data: []byte("# IO\n\n`open(path)`\n:   Opens.\n")},
		{Filename: "bad.html", Data: []byte(`<dl class="function"><dd>x</dd></dl>`)},
		{Filename: "notes.rst", Data: []byte("x")},
	})
	require.NoError(t, err)

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	assert.Equal(t, StatusPartial, snap.Status)
	assert.Equal(t, 1, snap.Progress.FilesRendered)
	assert.Equal(t, 2, snap.Progress.FilesFailed)
	assert.Equal(t, 2, snap.Progress.TagCount)
	require.Len(t, snap.Progress.Errors, 2)
	assert.True(t, strings.HasPrefix(snap.Progress.Errors[0], "bad.html: "))
	assert.Contains(t, snap.Progress.Errors[1], "unsupported file extension")

	outs, tags := job.Outputs()
	require.Len(t, outs, 1)
	assert.Equal(t, "io.txt", outs[0].Filename)
	assert.True(t, strings.HasSuffix(outs[0].Body, vimhelp.Modeline+"\n"))
	assert.Equal(t, "io.txt;\tio.txt\t/*io.txt;*\nopen()..io.txt;\tio.txt\t/*open()..io.txt;*\n", tags)
	assert.Nil(t, job.Inputs(), "inputs are released after processing")
}

func TestWorker_ProcessStatuses(t *testing.T) {
	w := newWorker(t, nil)

	ok, _ := NewJob(vimhelp.FormatName, []Input{{Filename: "a.txt", Data: []byte("hello")}})
	w.Process(context.Background(), ok)
	assert.Equal(t, StatusCompleted, ok.Snapshot().Status)

	bad, _ := NewJob(vimhelp.FormatName, []Input{{Filename: "a.rst", Data: []byte("hello")}})
	w.Process(context.Background(), bad)
	assert.Equal(t, StatusFailed, bad.Snapshot().Status)

	unknown, _ := NewJob("nope", []Input{{Filename: "a.txt"}})
	w.Process(context.Background(), unknown)
	snap := unknown.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, "configuring", snap.Phase)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	canceled, _ := NewJob(vimhelp.FormatName, []Input{{Filename: "a.txt", Data: []byte("x")}})
	w.Process(ctx, canceled)
	assert.Equal(t, "canceled", canceled.Snapshot().Phase)
}

func TestWorker_ConfigurationErrorFailsJob(t *testing.T) {
	w := newWorker(t, map[string]any{vimhelp.OptTagFilename: "yes"})
	job, _ := NewJob(vimhelp.FormatName, []Input{{Filename: "a.txt", Data: []byte("x")}})
	w.Process(context.Background(), job)
	snap := job.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Contains(t, snap.Progress.Errors[0], vimhelp.OptTagFilename)
}

func TestOrchestrator_SubmitAndStop(t *testing.T) {
	cfg := config.Server{WorkerCount: 2, MaxQueueSize: 4, JobTTL: time.Hour}
	o := NewOrchestrator(cfg, newWorker(t, nil), nil, discard)
	o.Start(context.Background())

	job, _ := NewJob(vimhelp.FormatName, []Input{{Filename: "a.md", Data: []byte("# A\n")}})
	require.NoError(t, o.Submit(job))
	assert.Same(t, job, o.GetJob(job.ID))

	require.Eventually(t, func() bool {
		return job.Snapshot().Status.Done()
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, StatusCompleted, job.Snapshot().Status)

	o.Stop()
	o.Stop()
	late, _ := NewJob(vimhelp.FormatName, nil)
	assert.ErrorIs(t, o.Submit(late), ErrStopped)
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestOrchestrator_LogsInputCountBeforeRelease(t *testing.T) {
	var logs lockedBuffer
	log := slog.New(slog.NewTextHandler(&logs, nil))
	cfg := config.Server{WorkerCount: 1, MaxQueueSize: 4, JobTTL: time.Hour}
	o := NewOrchestrator(cfg, newWorker(t, nil), nil, log)
	o.Start(context.Background())
	defer o.Stop()

	for range 5 {
		job, _ := NewJob(vimhelp.FormatName, []Input{
			{Filename: "a.md", Data: []byte("# A\n")},
			{Filename: "b.md", Data: []byte("# B\n")},
		})
		require.NoError(t, o.Submit(job))
		require.Eventually(t, func() bool {
			return job.Snapshot().Status.Done()
		}, 5*time.Second, 10*time.Millisecond)
	}

	assert.Equal(t, 5, strings.Count(logs.String(), "files=2"))
	assert.NotContains(t, logs.String(), "files=0")
}

func TestOrchestrator_QueueFull(t *testing.T) {
	cfg := config.Server{WorkerCount: 1, MaxQueueSize: 1, JobTTL: time.Hour}
	// Not started, so nothing drains the queue.
	o := NewOrchestrator(cfg, newWorker(t, nil), nil, discard)

	first, _ := NewJob(vimhelp.FormatName, nil)
	require.NoError(t, o.Submit(first))
	assert.Equal(t, 1, o.QueueDepth())

	second, _ := NewJob(vimhelp.FormatName, nil)
	assert.ErrorContains(t, o.Submit(second), "queue is full")
	assert.Equal(t, StatusFailed, second.Snapshot().Status)
}
