// Package metrics records render and queue metrics. The default recorder
// drops everything; PrometheusRecorder exports them.
package metrics

import "time"

// Status labels a render outcome.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Recorder defines the observability hooks used by the builder and the
// job pipeline. Implementations must be safe for concurrent use.
type Recorder interface {
	ObserveRender(format string, status Status, d time.Duration)
	AddTags(format string, n int)
	SetQueueDepth(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveRender(string, Status, time.Duration) {}
func (NoopRecorder) AddTags(string, int)                         {}
func (NoopRecorder) SetQueueDepth(int)                           {}
