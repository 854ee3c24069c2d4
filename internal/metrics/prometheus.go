package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg            *prom.Registry
	renderDuration *prom.HistogramVec
	renders        *prom.CounterVec
	tags           *prom.CounterVec
	queueDepth     prom.Gauge
}

// NewPrometheusRecorder constructs and registers the metrics on reg, or on
// a private registry if reg is nil.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reg: reg,
		renderDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "vimhelp",
			Name:      "render_duration_seconds",
			Help:      "Duration of single document renders",
			Buckets:   prom.DefBuckets,
		}, []string{"format"}),
		renders: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "vimhelp",
			Name:      "renders_total",
			Help:      "Document renders by format and outcome",
		}, []string{"format", "status"}),
		tags: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "vimhelp",
			Name:      "tags_total",
			Help:      "Help tags emitted",
		}, []string{"format"}),
		queueDepth: prom.NewGauge(prom.GaugeOpts{
			Namespace: "vimhelp",
			Name:      "job_queue_depth",
			Help:      "Jobs waiting for a worker",
		}),
	}
	reg.MustRegister(pr.renderDuration, pr.renders, pr.tags, pr.queueDepth)
	return pr
}

func (p *PrometheusRecorder) ObserveRender(format string, status Status, d time.Duration) {
	if p == nil {
		return
	}
	p.renderDuration.WithLabelValues(format).Observe(d.Seconds())
	p.renders.WithLabelValues(format, string(status)).Inc()
}

func (p *PrometheusRecorder) AddTags(format string, n int) {
	if p == nil || n <= 0 {
		return
	}
	p.tags.WithLabelValues(format).Add(float64(n))
}

func (p *PrometheusRecorder) SetQueueDepth(n int) {
	if p == nil {
		return
	}
	p.queueDepth.Set(float64(n))
}

// Handler serves the recorder's registry.
func (p *PrometheusRecorder) Handler() http.Handler {
	return HTTPHandler(p.reg)
}

// HTTPHandler returns an http.Handler that serves Prometheus metrics for the provided registry.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
