package core

import (
	"net/http"

	"github.com/joeydtaylor/contentops/pkg/a2ui"
	"github.com/joeydtaylor/contentops/pkg/blob"
	"github.com/joeydtaylor/contentops/pkg/events"
	"github.com/joeydtaylor/contentops/pkg/middleware/auth"
	"github.com/joeydtaylor/contentops/pkg/middleware/logger"
	hmetrics "github.com/joeydtaylor/contentops/pkg/middleware/metrics"
	"github.com/joeydtaylor/contentops/pkg/pages"
	httpx "github.com/joeydtaylor/contentops/pkg/transport/httpx"
	"go.uber.org/zap"
)

type BuildDeps struct {
	Auth     *auth.Middleware
	LogMW    *logger.Middleware
	Metrics  *hmetrics.Collectors
	Exporter http.Handler
	Router   httpx.Router
	Handlers *Handlers
	Pages    *pages.Registry
	Site     pages.Site
	Renderer *a2ui.Renderer
	Events   events.Publisher
	Blob     blob.Store
	Log      *zap.Logger
}

func (d *BuildDeps) defaults() {
	if d.Router == nil {
		d.Router = httpx.NewChi()
	}
	if d.Handlers == nil {
		d.Handlers = NewHandlers()
	}
	if d.Pages == nil {
		d.Pages = pages.NewRegistry()
	}
	if d.Renderer == nil {
		d.Renderer = a2ui.NewRenderer(nil)
	}
	if d.Events == nil {
		d.Events = events.Noop{}
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
}
