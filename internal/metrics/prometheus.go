package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hanko_docs"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	resolves       *prom.CounterVec
	fallbacks      *prom.CounterVec
	renderDuration prom.Histogram
}

// NewPrometheusRecorder constructs the collectors and registers them with reg.
func NewPrometheusRecorder(reg prom.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		resolves: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "resolve_outcomes_total",
			Help:      "Resolved requests by outcome",
		}, []string{"outcome"}),
		fallbacks: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "source_fallbacks_total",
			Help:      "Retries against the markdown source after a missing document",
		}, []string{"result"}),
		renderDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Time spent rendering and composing markdown pages",
			Buckets:   prom.DefBuckets,
		}),
	}
	reg.MustRegister(pr.resolves, pr.fallbacks, pr.renderDuration)
	return pr
}

func (p *PrometheusRecorder) IncResolve(outcome Outcome) {
	if p == nil {
		return
	}
	p.resolves.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncFallback(found bool) {
	if p == nil {
		return
	}
	result := "missing"
	if found {
		result = "found"
	}
	p.fallbacks.WithLabelValues(result).Inc()
}

func (p *PrometheusRecorder) ObserveRender(d time.Duration) {
	if p == nil {
		return
	}
	p.renderDuration.Observe(d.Seconds())
}

// HTTPHandler serves the metrics gathered by g. Compression is left to the router.
func HTTPHandler(g prom.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{EnableOpenMetrics: true, DisableCompression: true})
}
