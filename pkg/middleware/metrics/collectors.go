package metrics

import (
	"github.com/joeydtaylor/contentops/pkg/a2ui"
	"github.com/prometheus/client_golang/prometheus"
)

// Collectors holds every metric the service exports.
type Collectors struct {
	responseTime              prometheus.Histogram
	totalHttpRequestsFromRole *prometheus.CounterVec
	totalHttpRequestsToUri    *prometheus.CounterVec
	totalHttpRequests         *prometheus.CounterVec

	nodesRendered     *prometheus.CounterVec
	unknownComponents *prometheus.CounterVec
	actionsDispatched *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		responseTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "response_time",
			Help:    "http response time.",
			Buckets: []float64{0.005, 0.05, 0.5, 1, 5, 10, 30, 60},
		}),
		totalHttpRequestsFromRole: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "total_http_requests_from_role", Help: "http requests from role"},
			[]string{"role"},
		),
		totalHttpRequestsToUri: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "total_http_requests_to_uri", Help: "http requests to uri"},
			[]string{"code", "uri", "method"},
		),
		totalHttpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "total_http_requests", Help: "http requests by code, and method"},
			[]string{"code", "method"},
		),
		nodesRendered: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "a2ui_nodes_rendered_total", Help: "a2ui nodes rendered by kind"},
			[]string{"kind"},
		),
		unknownComponents: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "a2ui_unknown_components_total", Help: "a2ui nodes with an unregistered kind"},
			[]string{"kind"},
		),
		actionsDispatched: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "a2ui_actions_dispatched_total", Help: "a2ui actions dispatched by name"},
			[]string{"action"},
		),
	}
	reg.MustRegister(
		c.responseTime,
		c.totalHttpRequestsFromRole,
		c.totalHttpRequestsToUri,
		c.totalHttpRequests,
		c.nodesRendered,
		c.unknownComponents,
		c.actionsDispatched,
	)
	return c
}

// Observer feeds renderer activity into the a2ui counters.
func (c *Collectors) Observer() a2ui.Observer { return renderObserver{c} }

type renderObserver struct{ c *Collectors }

func (o renderObserver) NodeRendered(k a2ui.Kind) { o.c.nodesRendered.WithLabelValues(string(k)).Inc() }

// unknown kinds come from client-supplied trees; cap the label length
func (o renderObserver) UnknownComponent(k a2ui.Kind) {
	s := string(k)
	if len(s) > 32 {
		s = s[:32]
	}
	o.c.unknownComponents.WithLabelValues(s).Inc()
}

func (o renderObserver) ActionDispatched(name string) {
	o.c.actionsDispatched.WithLabelValues(name).Inc()
}
