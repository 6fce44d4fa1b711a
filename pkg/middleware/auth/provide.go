package auth

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

func defaultHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:    10,
			IdleConnTimeout: 30 * time.Second,
		},
		Timeout: 8 * time.Second,
	}
}

// ConfigFromEnv reads SESSION_STATE_API, SESSION_COOKIE_NAME,
// ADMIN_ROLE_NAME, AUTH_DEV_BYPASS, AUTH_LOGIN_URL, AUTH_LOGOUT_URL and
// the ASSERTION_* settings.
func ConfigFromEnv() Config {
	leeway := 60 * time.Second
	if v := strings.TrimSpace(os.Getenv("ASSERTION_LEEWAY_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			leeway = time.Duration(n) * time.Second
		}
	}
	return Config{
		SessionAPI:       strings.TrimSpace(os.Getenv("SESSION_STATE_API")),
		CookieName:       strings.TrimSpace(os.Getenv("SESSION_COOKIE_NAME")),
		AdminRole:        strings.TrimSpace(os.Getenv("ADMIN_ROLE_NAME")),
		DevBypass:        os.Getenv("AUTH_DEV_BYPASS") == "true",
		LoginURL:         strings.TrimSpace(os.Getenv("AUTH_LOGIN_URL")),
		LogoutURL:        strings.TrimSpace(os.Getenv("AUTH_LOGOUT_URL")),
		AssertCookieName: strings.TrimSpace(os.Getenv("ASSERTION_COOKIE_NAME")),
		AssertKeyURL:     strings.TrimSpace(os.Getenv("ASSERTION_KEY_URL")),
		AssertKeyKID:     strings.TrimSpace(os.Getenv("ASSERTION_KEY_KID")),
		AssertIssuer:     strings.TrimSpace(os.Getenv("ASSERTION_ISSUER")),
		AssertAudience:   strings.TrimSpace(os.Getenv("ASSERTION_AUDIENCE")),
		AssertLeeway:     leeway,
	}
}

// ProvideAuthentication builds the middleware from env. The assertion key
// is fetched on start (non-fatal) and refreshed until stop.
func ProvideAuthentication(lc fx.Lifecycle, log *zap.Logger) *Middleware {
	m := New(ConfigFromEnv(), nil)
	if m.cfg.DevBypass {
		log.Warn("auth: AUTH_DEV_BYPASS enabled; X-Dev-User headers are trusted")
	}
	if m.cfg.AssertKeyURL == "" {
		return m
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			if err := m.refreshAssertionKey(startCtx); err != nil {
				log.Warn("auth: assertion key fetch failed", zap.String("url", m.cfg.AssertKeyURL), zap.Error(err))
			}
			go func() {
				defer close(done)
				m.RefreshLoop(ctx, log)
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			<-done
			return nil
		},
	})
	return m
}
