package core

import (
	"net/http"
	"strings"
	"time"

	chimd "github.com/go-chi/chi/v5/middleware"
	"github.com/joeydtaylor/contentops/pkg/manifest"
	"github.com/joeydtaylor/contentops/pkg/pages"
	"go.uber.org/zap"
)

// BuildRouter mounts the manifest's pages and API routes plus /metrics and
// /blob/*.
func BuildRouter(cfg manifest.Config, d BuildDeps) http.Handler {
	d.defaults()
	r := d.Router
	r.Use(chimd.RequestID, chimd.Recoverer, chimd.Heartbeat("/ping"))

	if d.Auth != nil {
		r.Use(d.Auth.Middleware())
	}
	if d.LogMW != nil {
		r.Use(d.LogMW.Middleware())
	}
	if d.Metrics != nil {
		r.Use(d.Metrics.Collect())
	}
	if d.Exporter != nil {
		r.Get("/metrics", d.Exporter)
	}
	if d.Blob != nil {
		r.Get("/blob/*", serveBlob(d.Blob))
	}

	login := ""
	if p, ok := cfg.Page("login"); ok {
		login = p.Path
	}
	for _, pc := range cfg.Pages {
		p, ok := d.Pages.Lookup(pc.Name)
		if !ok {
			d.Log.Warn("manifest page not registered", zap.String("page", pc.Name))
			continue
		}
		ph := &pageHandler{cfg: pc, page: p, d: d, traceActions: cfg.Events.Actions}
		view, act := http.HandlerFunc(ph.view), http.HandlerFunc(ph.action)
		if pc.Policy.TimeoutMS > 0 {
			t := time.Duration(pc.Policy.TimeoutMS) * time.Millisecond
			view, act = withTimeout(view, t), withTimeout(act, t)
		}
		r.Get(pc.Path, withPageGuard(view, d.Auth, pc.Guard, login))
		r.Post(actionsPath(pc.Path)+"/{binding}", withGuard(withBodyLimit(act, pc.Policy), d.Auth, pc.Guard))
	}

	for _, rt := range cfg.Routes {
		h := withBodyLimit(wrapRoute(rt, d), rt.Policy)
		if rt.Policy.TimeoutMS > 0 {
			t := time.Duration(rt.Policy.TimeoutMS) * time.Millisecond
			h = withTimeout(h, t)
		}
		h = withGuard(h, d.Auth, rt.Guard)

		r.Handle(rt.Method, rt.Path, h)
	}
	return r.Mux()
}

// SiteFor derives navigation from the manifest pages flagged nav.
func SiteFor(cfg manifest.Config, loginURL, logoutURL string) pages.Site {
	s := pages.Site{Name: cfg.App.Name, LoginURL: loginURL, LogoutURL: logoutURL}
	for _, p := range cfg.Pages {
		if !p.Nav {
			continue
		}
		label := p.Title
		if label == "" {
			label = p.Name
		}
		s.Nav = append(s.Nav, pages.NavItem{Label: label, Path: p.Path})
	}
	return s
}

func actionsPath(p string) string {
	return strings.TrimRight(p, "/") + "/actions"
}
