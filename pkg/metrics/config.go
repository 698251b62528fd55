package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Config selects whether and where a component reports metrics.
type Config struct {
	// Enabled controls whether metrics collection is active.
	Enabled bool

	// Registry is the Prometheus registerer to use. If nil, uses prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// DefaultConfig enables metrics on the default Prometheus registerer.
func DefaultConfig() Config {
	return Config{
		Enabled:  true,
		Registry: prometheus.DefaultRegisterer,
	}
}

var (
	registriesMu sync.Mutex
	registries   = map[prometheus.Registerer]*Registry{}
)

// For resolves the registry a component should report to, or nil when
// metrics are disabled. Components sharing a registerer share one Registry,
// since registering the same collectors twice would fail.
func For(config Config) *Registry {
	if !config.Enabled {
		return nil
	}
	if config.Registry == nil || config.Registry == prometheus.DefaultRegisterer {
		return DefaultRegistry
	}

	registriesMu.Lock()
	defer registriesMu.Unlock()
	if r, ok := registries[config.Registry]; ok {
		return r
	}
	r := NewRegistry(config.Registry)
	registries[config.Registry] = r
	return r
}
