package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Config holds configuration for metrics collection.
type Config struct {
	// Enabled controls whether metrics collection is active.
	Enabled bool

	// Registry is the Prometheus registry to use. If nil, uses prometheus.DefaultRegisterer.
	Registry prometheus.Registerer

	// Namespace overrides the default "prioflow" namespace for metrics.
	Namespace string

	// Labels are additional constant labels added to all metrics.
	Labels prometheus.Labels
}

// DefaultConfig returns a default metrics configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:   true,
		Registry:  prometheus.DefaultRegisterer,
		Namespace: DefaultNamespace,
	}
}

// Resolve returns the Registry described by cfg. The package DefaultRegistry
// is reused when cfg asks for the default registerer with no overrides, since
// registering the same collectors twice would fail.
func (cfg Config) Resolve() *Registry {
	if (cfg.Registry == nil || cfg.Registry == prometheus.DefaultRegisterer) &&
		(cfg.Namespace == "" || cfg.Namespace == DefaultNamespace) && len(cfg.Labels) == 0 {
		return DefaultRegistry
	}
	return NewRegistryWithConfig(cfg)
}

// Instrumentable is an interface for components that can be instrumented with metrics.
type Instrumentable interface {
	// EnableMetrics enables metrics collection for this component.
	EnableMetrics(config Config) error

	// DisableMetrics disables metrics collection for this component.
	DisableMetrics()

	// MetricsEnabled returns true if metrics are currently enabled.
	MetricsEnabled() bool
}
