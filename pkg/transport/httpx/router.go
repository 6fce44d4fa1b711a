// Package httpx is the router seam between core and chi.
package httpx

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Router is what core needs to mount pages, actions and API routes.
type Router interface {
	Handle(method, path string, h http.Handler)
	Get(path string, h http.Handler)
	Post(path string, h http.Handler)
	Put(path string, h http.Handler)
	Delete(path string, h http.Handler)
	Mux() http.Handler
	Use(mw ...func(http.Handler) http.Handler)
}

type chiRouter struct{ r *chi.Mux }

// NewChi returns a Router backed by a fresh chi mux.
func NewChi() Router { return &chiRouter{r: chi.NewRouter()} }

// Handle accepts manifest methods in any case.
func (c *chiRouter) Handle(method, path string, h http.Handler) {
	c.r.Method(strings.ToUpper(strings.TrimSpace(method)), path, h)
}

func (c *chiRouter) Get(path string, h http.Handler)           { c.r.Method(http.MethodGet, path, h) }
func (c *chiRouter) Post(path string, h http.Handler)          { c.r.Method(http.MethodPost, path, h) }
func (c *chiRouter) Put(path string, h http.Handler)           { c.r.Method(http.MethodPut, path, h) }
func (c *chiRouter) Delete(path string, h http.Handler)        { c.r.Method(http.MethodDelete, path, h) }
func (c *chiRouter) Mux() http.Handler                         { return c.r }
func (c *chiRouter) Use(mw ...func(http.Handler) http.Handler) { c.r.Use(mw...) }

// URLParam reads a chi path parameter from r.
func URLParam(r *http.Request, key string) string { return chi.URLParam(r, key) }

// URLParams returns the named path parameters of the matched route. The
// catch-all "*" is left out.
func URLParams(r *http.Request) map[string]string {
	rc := chi.RouteContext(r.Context())
	if rc == nil {
		return nil
	}
	out := make(map[string]string, len(rc.URLParams.Keys))
	for i, k := range rc.URLParams.Keys {
		if k == "*" || i >= len(rc.URLParams.Values) {
			continue
		}
		out[k] = rc.URLParams.Values[i]
	}
	return out
}
