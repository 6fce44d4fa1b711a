package metrics

import (
	"net/http"
	"strconv"
	"time"

	chimd "github.com/go-chi/chi/v5/middleware"
	"github.com/joeydtaylor/contentops/pkg/middleware/auth"
)

// Collect records the HTTP counters and response time.
func (c *Collectors) Collect() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimd.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				if isSkipPath(r) {
					return
				}
				code := strconv.Itoa(ww.Status())
				c.totalHttpRequestsFromRole.WithLabelValues(auth.UserFrom(r.Context()).Role.Name).Inc()
				c.totalHttpRequestsToUri.WithLabelValues(code, normalizePath(r), r.Method).Inc()
				c.totalHttpRequests.WithLabelValues(code, r.Method).Inc()
				c.responseTime.Observe(time.Since(start).Seconds())
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
