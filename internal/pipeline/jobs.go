package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the state of a render job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusParsing   JobStatus = "parsing"
	StatusRendering JobStatus = "rendering"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusPartial   JobStatus = "partial"
)

// Done reports whether the status is final.
func (s JobStatus) Done() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusPartial
}

// Input is one uploaded source document.
type Input struct {
	Filename string
	Data     []byte
}

// Output is one rendered document.
type Output struct {
	Source   string   `json:"source"`
	Filename string   `json:"filename"`
	Body     string   `json:"body"`
	Tags     []string `json:"tags"`
	SHA256   string   `json:"sha256"`
}

// Job tracks the state of a single render request.
type Job struct {
	mu sync.Mutex

	ID     string    `json:"job_id"`
	Format string    `json:"format"`
	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	inputs  []Input
	outputs []Output
	tags    string
	errors  []string
}

// Progress tracks processing progress.
type Progress struct {
	TotalFiles    int      `json:"total_files"`
	FilesRendered int      `json:"files_rendered"`
	FilesFailed   int      `json:"files_failed"`
	TagCount      int      `json:"tag_count"`
	Errors        []string `json:"errors"`
}

// NewJob creates a queued job for inputs.
func NewJob(format string, inputs []Input) (*Job, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate job id: %w", err)
	}
	now := time.Now()
	return &Job{
		ID:        id.String(),
		Format:    format,
		Status:    StatusQueued,
		Phase:     "queued",
		Progress:  Progress{TotalFiles: len(inputs)},
		CreatedAt: now,
		UpdatedAt: now,
		inputs:    inputs,
	}, nil
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Len returns the number of stored jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.lastUpdate()) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

func (j *Job) lastUpdate() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.UpdatedAt
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// AddFailure records a document that could not be rendered.
func (j *Job) AddFailure(source string, err error) {
	j.mu.Lock()
	j.Progress.FilesFailed++
	j.mu.Unlock()
	j.AddError(fmt.Sprintf("%s: %s", source, err))
}

// AddOutput records a rendered document.
func (j *Job) AddOutput(out Output) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.outputs = append(j.outputs, out)
	j.Progress.FilesRendered++
	j.UpdatedAt = time.Now()
}

// SetTags stores the job's tags file and its entry count.
func (j *Job) SetTags(tags string, n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.tags = tags
	j.Progress.TagCount = n
	j.UpdatedAt = time.Now()
}

// Inputs returns the uploaded documents.
func (j *Job) Inputs() []Input {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.inputs
}

// Outputs returns a copy of the rendered documents and the tags file.
func (j *Job) Outputs() ([]Output, string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]Output(nil), j.outputs...), j.tags
}

// releaseInputs drops the uploaded bytes once rendering is done.
func (j *Job) releaseInputs() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.inputs = nil
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID       string    `json:"job_id"`
	Format   string    `json:"format"`
	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Progress Progress  `json:"progress"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string{}, j.Progress.Errors...)
	p := j.Progress
	p.Errors = errs
	return JobSnapshot{
		ID:       j.ID,
		Format:   j.Format,
		Status:   j.Status,
		Phase:    j.Phase,
		Progress: p,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
