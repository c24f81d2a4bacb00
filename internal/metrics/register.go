package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var registerOnce sync.Once

// Register adds every collector to the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		all := []prometheus.Collector{httpRequestDuration, httpRequestsTotal}
		all = append(all, embeddingCollectors()...)
		all = append(all, retrievalCollectors()...)
		prometheus.MustRegister(all...)
	})
}
