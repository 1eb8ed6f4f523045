package ghost

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const (
	// MetricsSubsystem is a subsystem shared by all metrics exposed by this
	// package.
	MetricsSubsystem = "ghost"
)

// Metrics contains metrics exposed by this package.
type Metrics struct {
	// Number of claims ghosted.
	GhostedClaims metrics.Counter
	// Number of dependent claims recomputed by ghost cascades.
	CascadeRecomputes metrics.Counter
}

// PrometheusMetrics returns Metrics built using the Prometheus client
// library.
func PrometheusMetrics(namespace string, labelsAndValues ...string) *Metrics {
	labels := []string{}
	for i := 0; i < len(labelsAndValues); i += 2 {
		labels = append(labels, labelsAndValues[i])
	}
	return &Metrics{
		GhostedClaims: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "ghosted_claims",
			Help:      "Number of claims ghosted.",
		}, labels).With(labelsAndValues...),
		CascadeRecomputes: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "cascade_recomputes",
			Help:      "Number of dependent claims recomputed by ghost cascades.",
		}, labels).With(labelsAndValues...),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		GhostedClaims:     discard.NewCounter(),
		CascadeRecomputes: discard.NewCounter(),
	}
}
