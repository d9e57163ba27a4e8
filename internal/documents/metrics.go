package documents

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "speechmark"
	subsystem = "documents"
)

type metrics struct {
	revisions       *prometheus.CounterVec
	classifications *prometheus.CounterVec
	replies         *prometheus.CounterVec
	tracked         prometheus.Gauge
	duration        prometheus.Histogram
	remaps          prometheus.Counter
}

// newMetrics registers the coordinator's collectors with reg. A nil reg
// yields working but unregistered collectors.
func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)

	return &metrics{
		revisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "revisions_total",
			Help:      "Revisions received, by outcome.",
		}, []string{"outcome"}),
		classifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "classifications_total",
			Help:      "Classification results, by result.",
		}, []string{"result"}),
		replies: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "replies_total",
			Help:      "Token requests resolved, by outcome.",
		}, []string{"outcome"}),
		tracked: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tracked",
			Help:      "Document keys currently tracked.",
		}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "classification_duration_seconds",
			Help:      "Time spent in the classifier per revision.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		remaps: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "label_remaps_total",
			Help:      "Label map updates applied.",
		}),
	}
}
