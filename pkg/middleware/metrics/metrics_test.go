package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/joeydtaylor/contentops/pkg/a2ui"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectUsesRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	r := chi.NewRouter()
	r.Use(c.Collect())
	r.Get("/api/tasks/{id}", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Handle("/metrics", Handler(reg))

	for _, id := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/tasks/"+id, nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, 3.0, testutil.ToFloat64(c.totalHttpRequestsToUri.WithLabelValues("200", "/api/tasks/{id}", "GET")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.totalHttpRequests.WithLabelValues("200", "GET")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.totalHttpRequestsToUri))
}

func TestRenderObserver(t *testing.T) {
	c := New(prometheus.NewRegistry())
	r := a2ui.NewRenderer(nil, a2ui.WithObserver(c.Observer()))

	root := a2ui.Column(
		a2ui.Text("hi"),
		a2ui.Button("Go", a2ui.Act("go")),
		a2ui.New("sparkline"),
	)
	v := r.Render(root, func(string, []any) {})
	bs := v.Bindings()
	require.Len(t, bs, 1)
	require.NoError(t, v.Activate(bs[0].ID))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.nodesRendered.WithLabelValues("column")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.nodesRendered.WithLabelValues("button")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.unknownComponents.WithLabelValues("sparkline")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.actionsDispatched.WithLabelValues("go")))
}

func TestSkipPathsNotCounted(t *testing.T) {
	c := New(prometheus.NewRegistry())
	AddMetricsSkipPaths("/favicon.ico", "")

	r := chi.NewRouter()
	r.Use(c.Collect())
	r.Get("/favicon.ico", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/favicon.ico", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.totalHttpRequests.WithLabelValues("200", "GET")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.totalHttpRequests))
}
