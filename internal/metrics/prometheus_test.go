package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveRender("vimhelp", StatusSuccess, 150*time.Millisecond)
	pr.ObserveRender("vimhelp", StatusFailed, 10*time.Millisecond)
	pr.AddTags("vimhelp", 3)
	pr.AddTags("vimhelp", 0)
	pr.SetQueueDepth(4)

	assert.Equal(t, 1.0, testutil.ToFloat64(pr.renders.WithLabelValues("vimhelp", "success")))
	assert.Equal(t, 3.0, testutil.ToFloat64(pr.tags.WithLabelValues("vimhelp")))
	assert.Equal(t, 4.0, testutil.ToFloat64(pr.queueDepth))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)
}

func TestPrometheusRecorder_Handler(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.SetQueueDepth(2)

	rec := httptest.NewRecorder()
	pr.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	assert.True(t, strings.Contains(string(body), "vimhelp_job_queue_depth 2"))
}

func TestNilAndNoopRecorders(t *testing.T) {
	var pr *PrometheusRecorder
	pr.ObserveRender("x", StatusSuccess, time.Second)
	pr.AddTags("x", 1)
	pr.SetQueueDepth(1)

	var r Recorder = NoopRecorder{}
	r.ObserveRender("x", StatusFailed, time.Second)
}
