package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once            sync.Once
	extractDuration prom.Histogram
	buildDuration   prom.Histogram
	doccDuration    *prom.HistogramVec
	snippetResults  *prom.CounterVec
	buildOutcome    *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.extractDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "doccbuild",
			Name:      "extract_duration_seconds",
			Help:      "Duration of the snippet extraction stage",
			Buckets:   prom.DefBuckets,
		})
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "doccbuild",
			Name:      "build_duration_seconds",
			Help:      "Total build duration including the docc invocation",
			Buckets:   prom.DefBuckets,
		})
		pr.doccDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "doccbuild",
			Name:      "docc_duration_seconds",
			Help:      "Duration of docc invocations by action",
			Buckets:   prom.DefBuckets,
		}, []string{"action"})
		pr.snippetResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "doccbuild",
			Name:      "snippet_results_total",
			Help:      "Snippet extraction results by outcome",
		}, []string{"result"})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "doccbuild",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"})
		reg.MustRegister(pr.extractDuration, pr.buildDuration, pr.doccDuration, pr.snippetResults, pr.buildOutcome)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveExtractDuration(d time.Duration) {
	if p == nil || p.extractDuration == nil {
		return
	}
	p.extractDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveDoccDuration(action string, d time.Duration) {
	if p == nil || p.doccDuration == nil {
		return
	}
	p.doccDuration.WithLabelValues(action).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncSnippetResult(result string) {
	if p == nil || p.snippetResults == nil {
		return
	}
	p.snippetResults.WithLabelValues(result).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(outcome).Inc()
}
