package events

import (
	"context"
	"crypto/tls"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joeydtaylor/contentops/pkg/codec"
	"github.com/joeydtaylor/electrician/pkg/builder"
)

// RelayConfig drives the electrician forward relay.
type RelayConfig struct {
	Targets []string
	Topic   string

	TLS         bool
	TLSCert     string
	TLSKey      string
	TLSCA       string
	TLSInsecure bool

	Snappy bool
	AESKey string // raw 32-byte key; empty disables AES-GCM

	StaticHeaders map[string]string

	OAuthIssuer   string
	OAuthJWKS     string
	OAuthClientID string
	OAuthSecret   string
	OAuthScopes   []string
	OAuthLeeway   time.Duration
}

// OAuth reports whether client-credential bearer tokens are configured.
func (c RelayConfig) OAuth() bool {
	return c.OAuthIssuer != "" && c.OAuthClientID != "" && c.OAuthSecret != ""
}

// RelayConfigFromEnv reads:
//
//	ELECTRICIAN_TARGET          = "host:port[,host2:port2]"   (empty disables the relay)
//	ELECTRICIAN_TOPIC           = topic header (default "contentops.events")
//	ELECTRICIAN_TLS_ENABLE      = "true" | "false"
//	ELECTRICIAN_TLS_CLIENT_CRT  = path (default: keys/tls/client.crt)
//	ELECTRICIAN_TLS_CLIENT_KEY  = path (default: keys/tls/client.key)
//	ELECTRICIAN_TLS_CA          = path (default: keys/tls/ca.crt)
//	ELECTRICIAN_TLS_INSECURE    = "true" (dev only; OAuth token client)
//	ELECTRICIAN_COMPRESS        = "snappy" | ""
//	ELECTRICIAN_ENCRYPT         = "aesgcm" | ""
//	ELECTRICIAN_AES256_KEY_HEX  = 64 hex chars
//	ELECTRICIAN_STATIC_HEADERS  = "k=v,k2=v2"
//	OAUTH_ISSUER_BASE, OAUTH_JWKS_URL, OAUTH_CLIENT_ID, OAUTH_CLIENT_SECRET,
//	OAUTH_SCOPES ("s1,s2"), OAUTH_REFRESH_LEEWAY (default 20s)
func RelayConfigFromEnv() (RelayConfig, error) {
	cfg := RelayConfig{
		Targets:       splitCSV(os.Getenv("ELECTRICIAN_TARGET")),
		Topic:         envOr("ELECTRICIAN_TOPIC", "contentops.events"),
		TLS:           envBool("ELECTRICIAN_TLS_ENABLE"),
		TLSCert:       envOr("ELECTRICIAN_TLS_CLIENT_CRT", "keys/tls/client.crt"),
		TLSKey:        envOr("ELECTRICIAN_TLS_CLIENT_KEY", "keys/tls/client.key"),
		TLSCA:         envOr("ELECTRICIAN_TLS_CA", "keys/tls/ca.crt"),
		TLSInsecure:   envBool("ELECTRICIAN_TLS_INSECURE"),
		Snappy:        strings.EqualFold(os.Getenv("ELECTRICIAN_COMPRESS"), "snappy"),
		StaticHeaders: parseKV(os.Getenv("ELECTRICIAN_STATIC_HEADERS")),
		OAuthIssuer:   strings.TrimSpace(os.Getenv("OAUTH_ISSUER_BASE")),
		OAuthJWKS:     strings.TrimSpace(os.Getenv("OAUTH_JWKS_URL")),
		OAuthClientID: strings.TrimSpace(os.Getenv("OAUTH_CLIENT_ID")),
		OAuthSecret:   strings.TrimSpace(os.Getenv("OAUTH_CLIENT_SECRET")),
		OAuthScopes:   splitCSV(os.Getenv("OAUTH_SCOPES")),
		OAuthLeeway:   parseDur(os.Getenv("OAUTH_REFRESH_LEEWAY"), 20*time.Second),
	}
	if strings.EqualFold(os.Getenv("ELECTRICIAN_ENCRYPT"), "aesgcm") {
		raw, err := hex.DecodeString(strings.TrimSpace(os.Getenv("ELECTRICIAN_AES256_KEY_HEX")))
		if err != nil || len(raw) != 32 {
			return RelayConfig{}, fmt.Errorf("ELECTRICIAN_AES256_KEY_HEX must be 64 hex chars (32 bytes)")
		}
		cfg.AESKey = string(raw)
	}
	return cfg, nil
}

// Relay publishes JSON-encoded events into an electrician wire feeding a
// forward relay. Builder types stay inside the submit closure.
type Relay struct {
	topic  string
	submit func(context.Context, []byte) error
}

// NewRelay starts the wire and relay. The pipeline runs until ctx is done.
func NewRelay(ctx context.Context, cfg RelayConfig) (*Relay, error) {
	if len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("events: relay target required")
	}
	logger := builder.NewLogger(builder.LoggerWithDevelopment(false))
	wire := builder.NewWire[[]byte](ctx, builder.WireWithLogger[[]byte](logger))

	perf := builder.NewPerformanceOptions(cfg.Snappy, builder.COMPRESS_SNAPPY)
	sec := builder.NewSecurityOptions(cfg.AESKey != "", builder.ENCRYPTION_AES_GCM)
	tlsCfg := builder.NewTlsClientConfig(
		cfg.TLS,
		cfg.TLSCert, cfg.TLSKey, cfg.TLSCA,
		tls.VersionTLS13, tls.VersionTLS13,
	)

	var relayStart func(context.Context) error
	if cfg.OAuth() {
		authOpts := builder.NewForwardRelayAuthenticationOptionsOAuth2(nil)
		if cfg.OAuthJWKS != "" {
			authOpts = builder.NewForwardRelayAuthenticationOptionsOAuth2(
				builder.NewForwardRelayOAuth2JWTOptions(cfg.OAuthIssuer, cfg.OAuthJWKS, []string{}, cfg.OAuthScopes, 300),
			)
		}
		authHTTP := &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					MinVersion:         tls.VersionTLS13,
					MaxVersion:         tls.VersionTLS13,
					InsecureSkipVerify: cfg.TLSInsecure, // dev only
				},
			},
		}
		ts := builder.NewForwardRelayRefreshingClientCredentialsSource(
			cfg.OAuthIssuer, cfg.OAuthClientID, cfg.OAuthSecret, cfg.OAuthScopes, cfg.OAuthLeeway, authHTTP,
		)
		relay := builder.NewForwardRelay[[]byte](
			ctx,
			builder.ForwardRelayWithLogger[[]byte](logger),
			builder.ForwardRelayWithTarget[[]byte](cfg.Targets...),
			builder.ForwardRelayWithPerformanceOptions[[]byte](perf),
			builder.ForwardRelayWithSecurityOptions[[]byte](sec, cfg.AESKey),
			builder.ForwardRelayWithTLSConfig[[]byte](tlsCfg),
			builder.ForwardRelayWithStaticHeaders[[]byte](cfg.StaticHeaders),
			builder.ForwardRelayWithAuthenticationOptions[[]byte](authOpts),
			builder.ForwardRelayWithOAuthBearer[[]byte](ts),
			builder.ForwardRelayWithInput(wire),
		)
		relayStart = relay.Start
	} else {
		relay := builder.NewForwardRelay[[]byte](
			ctx,
			builder.ForwardRelayWithLogger[[]byte](logger),
			builder.ForwardRelayWithTarget[[]byte](cfg.Targets...),
			builder.ForwardRelayWithPerformanceOptions[[]byte](perf),
			builder.ForwardRelayWithSecurityOptions[[]byte](sec, cfg.AESKey),
			builder.ForwardRelayWithTLSConfig[[]byte](tlsCfg),
			builder.ForwardRelayWithStaticHeaders[[]byte](cfg.StaticHeaders),
			builder.ForwardRelayWithInput(wire),
		)
		relayStart = relay.Start
	}

	if err := wire.Start(ctx); err != nil {
		return nil, fmt.Errorf("events: wire start: %w", err)
	}
	if err := relayStart(ctx); err != nil {
		return nil, fmt.Errorf("events: relay start: %w", err)
	}
	return &Relay{
		topic:  cfg.Topic,
		submit: func(ctx context.Context, b []byte) error { return wire.Submit(ctx, b) },
	}, nil
}

func (r *Relay) Publish(ctx context.Context, e Event) error {
	if e.Type == "" {
		return fmt.Errorf("events: missing event type")
	}
	b, err := codec.JSONStrict.Marshal(e)
	if err != nil {
		return fmt.Errorf("events: encode %s: %w", e.Type, err)
	}
	if err := r.submit(ctx, b); err != nil {
		return fmt.Errorf("events: relay %s: %w", r.topic, err)
	}
	return nil
}
