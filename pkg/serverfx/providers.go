package serverfx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joeydtaylor/contentops/pkg/a2ui"
	"github.com/joeydtaylor/contentops/pkg/blob"
	"github.com/joeydtaylor/contentops/pkg/core"
	"github.com/joeydtaylor/contentops/pkg/events"
	"github.com/joeydtaylor/contentops/pkg/manifest"
	"github.com/joeydtaylor/contentops/pkg/middleware/auth"
	"github.com/joeydtaylor/contentops/pkg/middleware/logger"
	"github.com/joeydtaylor/contentops/pkg/middleware/metrics"
	"github.com/joeydtaylor/contentops/pkg/pages"
	"github.com/joeydtaylor/contentops/pkg/store"
	"github.com/joeydtaylor/contentops/pkg/transport/httpx"
	"github.com/joeydtaylor/contentops/pkg/workflow"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Env names for S3-compatible stores that do not use the AWS chain.
const (
	EnvBlobAccessKey = "BLOB_ACCESS_KEY_ID"
	EnvBlobSecretKey = "BLOB_SECRET_ACCESS_KEY"
)

func provideManifest(cfg Config, zl *zap.Logger) (manifest.Config, error) {
	path := envOr(cfg.ManifestEnv, cfg.DefaultManifest)
	man, err := core.LoadConfig(path)
	if err != nil {
		return manifest.Config{}, fmt.Errorf("load %s: %w", path, err)
	}
	logger.AddBodyLogPaths(man.App.LogBodyPaths...)
	metrics.AddMetricsSkipPaths(man.App.MetricsSkipPaths...)
	zl.Info("manifest loaded",
		zap.String("path", path),
		zap.Int("pages", len(man.Pages)),
		zap.Int("routes", len(man.Routes)))
	return man, nil
}

func provideStore(lc fx.Lifecycle, man manifest.Config) (*store.Store, error) {
	st, err := store.Open(context.Background(), man.Store.Path)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return st.Close() },
	})
	return st, nil
}

func provideBlob(man manifest.Config, zl *zap.Logger) (blob.Store, error) {
	return newBlob(context.Background(), man.Blob, zl)
}

func newBlob(ctx context.Context, b manifest.Blob, zl *zap.Logger) (blob.Store, error) {
	switch b.Driver {
	case manifest.BlobS3:
		s, err := blob.NewS3(ctx, blob.S3Config{
			Bucket:    b.Bucket,
			Region:    b.Region,
			Endpoint:  b.Endpoint,
			Prefix:    b.Prefix,
			PublicURL: b.PublicURL,
			PathStyle: b.PathStyle,
			AccessKey: strings.TrimSpace(os.Getenv(EnvBlobAccessKey)),
			SecretKey: strings.TrimSpace(os.Getenv(EnvBlobSecretKey)),
		})
		if err != nil {
			return nil, err
		}
		zl.Info("blob: s3", zap.String("bucket", b.Bucket), zap.String("endpoint", b.Endpoint))
		return s, nil
	default:
		zl.Warn("blob: in-memory store; uploads are lost on restart")
		return blob.NewMemory(b.PublicURL), nil
	}
}

// provideEvents builds the sinks with a context that lives until stop; the
// relay pipeline shuts down with it.
func provideEvents(lc fx.Lifecycle, zl *zap.Logger) (events.Publisher, error) {
	ctx, cancel := context.WithCancel(context.Background())
	pub, err := events.FromEnv(ctx, zl)
	if err != nil {
		cancel()
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			defer cancel()
			if c, ok := pub.(io.Closer); ok {
				return c.Close()
			}
			return nil
		},
	})
	return pub, nil
}

func workflowConfig(w manifest.Workflow) workflow.Config {
	secret := ""
	if w.SecretEnv != "" {
		secret = strings.TrimSpace(os.Getenv(w.SecretEnv))
	}
	return workflow.Config{
		GenerateURL:  w.GenerateURL,
		ReverseURL:   w.ReverseURL,
		StatusURL:    w.StatusURL,
		CallbackURL:  w.CallbackURL,
		Secret:       secret,
		Timeout:      time.Duration(w.TimeoutMS) * time.Millisecond,
		PollInterval: time.Duration(w.PollIntervalMS) * time.Millisecond,
	}
}

func provideWorkflow(man manifest.Config, st *store.Store, pub events.Publisher, zl *zap.Logger) (*workflow.Service, error) {
	wc := workflowConfig(man.Workflow)
	if wc.Secret == "" {
		if path, ok := callbackRoute(man); ok {
			return nil, fmt.Errorf("workflow: %s is mounted but %s is empty; set the webhook secret", path, man.Workflow.SecretEnv)
		}
		zl.Warn("workflow: no webhook secret; callbacks will be refused", zap.String("env", man.Workflow.SecretEnv))
	}
	return workflow.NewService(workflow.NewClient(wc, nil), st, pub, zl), nil
}

// callbackRoute finds the route serving workflow callbacks, if any.
func callbackRoute(man manifest.Config) (string, bool) {
	for _, rt := range man.Routes {
		if rt.Handler.Name == core.HandlerWorkflowCallback {
			return rt.Path, true
		}
	}
	return "", false
}

// registerPoller refreshes running tasks in the background when the
// workflow exposes a status endpoint.
func registerPoller(lc fx.Lifecycle, man manifest.Config, svc *workflow.Service, zl *zap.Logger) {
	if man.Workflow.StatusURL == "" {
		return
	}
	p := workflow.NewPoller(svc, time.Duration(man.Workflow.PollIntervalMS)*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			zl.Info("workflow: poller started", zap.Int("interval_ms", man.Workflow.PollIntervalMS))
			go func() {
				defer close(done)
				p.Run(ctx)
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			<-done
			return nil
		},
	})
}

func provideRenderer(c *metrics.Collectors, zl *zap.Logger) *a2ui.Renderer {
	return a2ui.NewRenderer(a2ui.Builtins(), a2ui.WithLogger(zl), a2ui.WithObserver(c.Observer()))
}

func provideSite(man manifest.Config, a *auth.Middleware) pages.Site {
	return core.SiteFor(man, a.LoginURL(), a.LogoutURL())
}

func providePages(man manifest.Config, st *store.Store, svc *workflow.Service, b blob.Store, pub events.Publisher, site pages.Site, zl *zap.Logger) (*pages.Registry, error) {
	return pages.Default(pages.Deps{
		Store:      st,
		Workflow:   svc,
		Blob:       b,
		Events:     pub,
		Log:        zl,
		Site:       site,
		UploadPath: core.UploadPath(man),
	})
}

func provideHandlers(man manifest.Config, st *store.Store, svc *workflow.Service, b blob.Store, pub events.Publisher, r *a2ui.Renderer, zl *zap.Logger) (*core.Handlers, error) {
	h := core.NewHandlers()
	err := core.RegisterBuiltins(h, core.APIDeps{
		Store:    st,
		Workflow: svc,
		Blob:     b,
		Events:   pub,
		Renderer: r,
		Upload:   man.Blob,
		Log:      zl,
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

type routerDeps struct {
	fx.In
	Manifest manifest.Config
	Auth     *auth.Middleware
	LogMW    *logger.Middleware
	Metrics  *metrics.Collectors
	Exporter http.Handler `name:"metrics"`
	Router   httpx.Router
	Handlers *core.Handlers
	Pages    *pages.Registry
	Site     pages.Site
	Renderer *a2ui.Renderer
	Events   events.Publisher
	Blob     blob.Store
	Logger   *zap.Logger
}

func provideRouter(d routerDeps) http.Handler {
	for _, rt := range d.Manifest.Routes {
		if rt.Handler.Type == manifest.HandlerRelayPublish {
			if _, noop := d.Events.(events.Noop); noop {
				d.Logger.Error("relay.publish route configured but no event sink",
					zap.String("path", rt.Path),
					zap.String("ELECTRICIAN_TARGET", os.Getenv("ELECTRICIAN_TARGET")),
					zap.String("KAFKA_BROKERS", os.Getenv("KAFKA_BROKERS")))
			}
		}
	}
	return core.BuildRouter(d.Manifest, core.BuildDeps{
		Auth:     d.Auth,
		LogMW:    d.LogMW,
		Metrics:  d.Metrics,
		Exporter: d.Exporter,
		Router:   d.Router,
		Handlers: d.Handlers,
		Pages:    d.Pages,
		Site:     d.Site,
		Renderer: d.Renderer,
		Events:   d.Events,
		Blob:     d.Blob,
		Log:      d.Logger,
	})
}
