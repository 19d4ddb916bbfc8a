// File: internal/infra/metrics/cache.go
package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(cacheRequestsTotal)
}

var cacheRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cache_requests_total",
		Help: "Cache lookups by object and result (hit|miss).",
	},
	[]string{"object", "result"},
)

func IncCacheRequest(object, result string) {
	cacheRequestsTotal.WithLabelValues(norm(object), norm(result)).Inc()
}
