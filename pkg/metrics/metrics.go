// Package metrics provides Prometheus instrumentation for fitchain components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fitchain"

// Registry holds all metric instances for fitchain components.
type Registry struct {
	// Fit Metrics
	FitsStarted   *prometheus.CounterVec
	FitsCompleted *prometheus.CounterVec
	FitsFailed    *prometheus.CounterVec
	FitDuration   *prometheus.HistogramVec
	StageDuration *prometheus.HistogramVec
	SchemaChecks  *prometheus.CounterVec

	// Permit Metrics
	PermitsActive  *prometheus.GaugeVec
	PermitsWaiting *prometheus.GaugeVec
	PermitWaitTime *prometheus.HistogramVec

	// Refresh Metrics
	Refits        *prometheus.CounterVec
	RefitDuration *prometheus.HistogramVec
}

// DefaultRegistry is the default metrics registry used by fitchain components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		FitsStarted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "fit",
				Name:      "started_total",
				Help:      "Total number of chain fits started",
			},
			[]string{"chain"},
		),

		FitsCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "fit",
				Name:      "completed_total",
				Help:      "Total number of chain fits that produced a transformer",
			},
			[]string{"chain"},
		),

		FitsFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "fit",
				Name:      "failed_total",
				Help:      "Total number of chain fits that failed",
			},
			[]string{"chain", "reason"},
		),

		FitDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "fit",
				Name:      "duration_seconds",
				Help:      "Time spent fitting a whole chain",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"chain"},
		),

		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "fit",
				Name:      "stage_duration_seconds",
				Help:      "Time spent fitting and applying a single stage",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"chain", "stage"},
		),

		SchemaChecks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "schema",
				Name:      "checks_total",
				Help:      "Total number of schema propagations by outcome",
			},
			[]string{"chain", "result"},
		),

		PermitsActive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "permits",
				Name:      "active",
				Help:      "Number of permits currently held",
			},
			[]string{"semaphore"},
		),

		PermitsWaiting: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "permits",
				Name:      "waiting",
				Help:      "Number of callers waiting for a permit",
			},
			[]string{"semaphore"},
		),

		PermitWaitTime: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "permits",
				Name:      "wait_duration_seconds",
				Help:      "Time spent waiting for a permit",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"semaphore"},
		),

		Refits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "refresh",
				Name:      "refits_total",
				Help:      "Total number of scheduled refits by outcome",
			},
			[]string{"refresher", "result"},
		),

		RefitDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "refresh",
				Name:      "refit_duration_seconds",
				Help:      "Time spent in a scheduled refit",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"refresher"},
		),
	}
}
