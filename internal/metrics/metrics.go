package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the analyzer's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	Analyses         *prometheus.CounterVec
	PartialAnalyses  prometheus.Counter
	AnalysisDuration prometheus.Histogram
	LookupFailures   *prometheus.CounterVec
	Scores           prometheus.Histogram
}

// New creates a Metrics instance registered on its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		Analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "phishscore_analyses_total",
			Help: "Completed URL analyses by verdict",
		}, []string{"verdict"}),
		PartialAnalyses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "phishscore_partial_analyses_total",
			Help: "Analyses that finished without page content",
		}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "phishscore_analysis_duration_seconds",
			Help:    "Wall time of one URL analysis including fetch and registration lookup",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		}),
		LookupFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "phishscore_lookup_failures_total",
			Help: "Failed external lookups by provider",
		}, []string{"provider"}),
		Scores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "phishscore_score",
			Help:    "Distribution of raw suspicion scores",
			Buckets: []float64{0, 20, 40, 70, 100, 140, 185},
		}),
	}
	reg.MustRegister(
		m.Analyses, m.PartialAnalyses, m.AnalysisDuration, m.LookupFailures, m.Scores,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveAnalysis records one finished analysis. Call with the time the
// analysis started.
func (m *Metrics) ObserveAnalysis(verdict string, score int, partial bool, start time.Time) {
	if m == nil {
		return
	}
	m.AnalysisDuration.Observe(time.Since(start).Seconds())
	if partial {
		m.PartialAnalyses.Inc()
		return
	}
	m.Analyses.WithLabelValues(verdict).Inc()
	m.Scores.Observe(float64(score))
}

func (m *Metrics) LookupFailed(provider string) {
	if m == nil {
		return
	}
	m.LookupFailures.WithLabelValues(provider).Inc()
}
