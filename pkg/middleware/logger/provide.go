package logger

import "go.uber.org/zap"

// Middleware writes one access-log entry per request.
type Middleware struct {
	access *zap.Logger
}

// New logs to l; a nil l discards.
func New(l *zap.Logger) *Middleware {
	if l == nil {
		l = zap.NewNop()
	}
	return &Middleware{access: l}
}

func ProvideLoggerMiddleware() *Middleware { return New(NewLog("http-access.log")) }
func ProvideLogger() *zap.Logger           { return NewLog("system.log") }
