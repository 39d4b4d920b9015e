package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fileshare"

type Metrics struct {
	// Requests counts handled HTTP requests by result (ok, client_error, server_error).
	Requests     *prometheus.CounterVec
	Ingest       *prometheus.CounterVec
	Downloads    prometheus.Counter
	SweepRuns    *prometheus.CounterVec
	SweepDeleted prometheus.Counter
	SweepSeconds prometheus.Histogram
	UserCache    *prometheus.CounterVec
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		Requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "general_counters",
			},
			[]string{"result"}),
		Ingest: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ingest_outcomes_total",
				Help:      "Upload attempts by saga outcome.",
			},
			[]string{"outcome"}),
		Downloads: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downloads_total",
		}),
		SweepRuns: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sweep_runs_total",
			},
			[]string{"result"}),
		SweepDeleted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_deleted_records_total",
		}),
		SweepSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_duration_seconds",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		UserCache: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "user_cache_lookups_total",
			},
			[]string{"result"}),
	}
}

// NewNop returns collectors bound to a private registry.
func NewNop() *Metrics { return New(prometheus.NewRegistry()) }
