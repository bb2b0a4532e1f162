package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder exports fetch, pipeline and cache metrics to Prometheus.
type Recorder struct {
	fetchTotal     *prometheus.CounterVec
	fetchLatency   *prometheus.HistogramVec
	droppedRows    *prometheus.CounterVec
	pipelineRuns   *prometheus.HistogramVec
	pipelinePoints *prometheus.GaugeVec
	cacheTotal     *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
}

// New registers the collectors with reg. A nil reg uses the default registry.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		fetchTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "riskpulse",
				Name:      "source_fetch_total",
				Help:      "Upstream series fetches by source and result",
			},
			[]string{"source", "result"},
		),
		fetchLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "riskpulse",
				Name:      "source_fetch_seconds",
				Help:      "Upstream fetch latency",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"source"},
		),
		droppedRows: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "riskpulse",
				Name:      "source_dropped_rows_total",
				Help:      "Rows discarded while parsing or aligning upstream data",
			},
			[]string{"source"},
		),
		pipelineRuns: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "riskpulse",
				Name:      "pipeline_seconds",
				Help:      "Indicator pipeline duration, fetch included",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"indicator"},
		),
		pipelinePoints: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "riskpulse",
				Name:      "pipeline_points",
				Help:      "Points in the last computed display window",
			},
			[]string{"indicator"},
		),
		cacheTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "riskpulse",
				Name:      "cache_requests_total",
				Help:      "Result cache lookups",
			},
			[]string{"kind", "result"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "riskpulse",
				Name:      "errors_total",
				Help:      "Errors by kind",
			},
			[]string{"kind"},
		),
	}
}

func (r *Recorder) RecordFetch(source string, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.fetchTotal.WithLabelValues(source, result).Inc()
	r.fetchLatency.WithLabelValues(source).Observe(d.Seconds())
}

func (r *Recorder) RecordDroppedRows(source string, n int) {
	if n > 0 {
		r.droppedRows.WithLabelValues(source).Add(float64(n))
	}
}

func (r *Recorder) RecordPipeline(indicator string, points int, d time.Duration) {
	r.pipelineRuns.WithLabelValues(indicator).Observe(d.Seconds())
	r.pipelinePoints.WithLabelValues(indicator).Set(float64(points))
}

func (r *Recorder) RecordCache(kind string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheTotal.WithLabelValues(kind, result).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}
