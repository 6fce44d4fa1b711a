package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler serves the /metrics scrape for g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// ProvideMetrics registers the collectors on the default registry.
func ProvideMetrics() (*Collectors, http.Handler) {
	return New(prometheus.DefaultRegisterer), promhttp.Handler()
}
