package logger

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides the system logger and the access-log middleware. Both
// are flushed on stop.
var Module = fx.Options(
	fx.Provide(ProvideLoggerMiddleware, ProvideLogger),
	fx.Invoke(syncOnStop),
)

func syncOnStop(lc fx.Lifecycle, l *zap.Logger, m *Middleware) {
	lc.Append(fx.StopHook(func() {
		_ = m.access.Sync()
		_ = l.Sync()
	}))
}
