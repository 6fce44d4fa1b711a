package auth

import (
	"crypto/rsa"
	"net/http"
	"sync"
	"time"
)

// HTTPDoer is the session and key fetch transport; *http.Client satisfies it.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Config is the authentication setup. ConfigFromEnv fills it from the
// process environment.
type Config struct {
	SessionAPI string
	CookieName string
	AdminRole  string
	DevBypass  bool
	LoginURL   string
	LogoutURL  string

	AssertCookieName string
	AssertKeyURL     string // JWKS or PEM endpoint
	AssertKeyKID     string
	AssertIssuer     string
	AssertAudience   string
	AssertLeeway     time.Duration
}

type Middleware struct {
	cfg        Config
	httpClient HTTPDoer

	// guarded by mu
	mu         sync.RWMutex
	assertKey  *rsa.PublicKey
	assertETag string
	cacheTTL   time.Duration
	lastFetch  time.Time
}

// New builds the middleware. A nil doer uses a short-timeout http.Client.
func New(cfg Config, doer HTTPDoer) *Middleware {
	if cfg.AssertCookieName == "" {
		cfg.AssertCookieName = "assert"
	}
	if doer == nil {
		doer = defaultHTTPClient()
	}
	return &Middleware{cfg: cfg, httpClient: doer, cacheTTL: time.Hour}
}

// LoginURL is where anonymous users are sent to sign in.
func (m *Middleware) LoginURL() string { return m.cfg.LoginURL }

// LogoutURL ends the provider session.
func (m *Middleware) LogoutURL() string { return m.cfg.LogoutURL }

// AdminRole is the role that passes every role and user check.
func (m *Middleware) AdminRole() string { return m.cfg.AdminRole }
