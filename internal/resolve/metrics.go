package resolve

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const (
	// MetricsSubsystem is a subsystem shared by all metrics exposed by this
	// package.
	MetricsSubsystem = "resolution"
)

// Metrics contains metrics exposed by this package.
type Metrics struct {
	// Number of claims settled, labeled by verdict.
	SettledClaims metrics.Counter
	// Number of oppositions settled, labeled by verdict.
	SettledOppositions metrics.Counter
	// Number of individual karma updates written by settlement.
	KarmaUpdates metrics.Counter
}

// PrometheusMetrics returns Metrics built using the Prometheus client
// library. Optionally, labels can be provided along with their values
// ("foo", "fooValue").
func PrometheusMetrics(namespace string, labelsAndValues ...string) *Metrics {
	labels := []string{}
	for i := 0; i < len(labelsAndValues); i += 2 {
		labels = append(labels, labelsAndValues[i])
	}
	return &Metrics{
		SettledClaims: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "settled_claims",
			Help:      "Number of claims settled, labeled by verdict.",
		}, append(labels, "verdict")).With(labelsAndValues...),
		SettledOppositions: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "settled_oppositions",
			Help:      "Number of oppositions settled, labeled by verdict.",
		}, append(labels, "verdict")).With(labelsAndValues...),
		KarmaUpdates: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "karma_updates",
			Help:      "Number of individual karma updates written by settlement.",
		}, labels).With(labelsAndValues...),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		SettledClaims:      discard.NewCounter(),
		SettledOppositions: discard.NewCounter(),
		KarmaUpdates:       discard.NewCounter(),
	}
}
