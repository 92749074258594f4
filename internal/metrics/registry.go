// Package metrics holds the Prometheus collectors of the service, grouped by
// subsystem. Each group is registered with the default registry on demand.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "docfusion"

// group registers its collectors at most once.
type group struct {
	once       sync.Once
	collectors []prometheus.Collector
}

func newGroup(cs ...prometheus.Collector) *group {
	return &group{collectors: cs}
}

func (g *group) register() {
	g.once.Do(func() {
		prometheus.MustRegister(g.collectors...)
	})
}
