package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "toolmatch"

type PrometheusMetrics struct {
	interpretationDuration *prometheus.HistogramVec
	matches                *prometheus.CounterVec
	matchDuration          *prometheus.HistogramVec
	matchResults           *prometheus.HistogramVec
	dataLoads              *prometheus.CounterVec
	dataLoadDuration       prometheus.Histogram
	rejectedEnrichments    prometheus.Gauge
}

func NewPrometheusMetrics(registerer prometheus.Registerer) *PrometheusMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &PrometheusMetrics{
		interpretationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "interpretation_duration_seconds",
				Help:      "Latency of query interpreter calls in seconds",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30},
			},
			[]string{"provider", "model", "outcome"},
		),
		matches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "matches_total",
				Help:      "Total number of answered match requests",
			},
			[]string{"mode"},
		),
		matchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "match_duration_seconds",
				Help:      "End to end duration of match requests in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"mode"},
		),
		matchResults: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "match_results",
				Help:      "Number of recommendations returned per request",
				Buckets:   []float64{0, 1, 3, 5, 10},
			},
			[]string{"mode"},
		),
		dataLoads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "data_loads_total",
				Help:      "Total number of catalog and enrichment loads",
			},
			[]string{"status"},
		),
		dataLoadDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "data_load_duration_seconds",
				Help:      "Duration of catalog and enrichment loads in seconds",
				Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
		),
		rejectedEnrichments: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "rejected_enrichments",
				Help:      "Enrichment records rejected by the last successful load",
			},
		),
	}
}

func (p *PrometheusMetrics) ObserveInterpretation(provider, model string, duration time.Duration, outcome string) {
	p.interpretationDuration.WithLabelValues(provider, model, outcome).Observe(duration.Seconds())
}

func (p *PrometheusMetrics) ObserveMatch(mode string, results int, duration time.Duration) {
	p.matches.WithLabelValues(mode).Inc()
	p.matchDuration.WithLabelValues(mode).Observe(duration.Seconds())
	p.matchResults.WithLabelValues(mode).Observe(float64(results))
}

func (p *PrometheusMetrics) ObserveDataLoad(duration time.Duration, rejected int, err error) {
	p.dataLoadDuration.Observe(duration.Seconds())
	if err != nil {
		p.dataLoads.WithLabelValues("error").Inc()
		return
	}
	p.dataLoads.WithLabelValues("success").Inc()
	p.rejectedEnrichments.Set(float64(rejected))
}
