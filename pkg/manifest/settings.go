package manifest

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// App holds service-wide settings. WriteTimeoutMS bounds every response the
// server writes, so no page or route policy may exceed it.
type App struct {
	Name             string   `toml:"name"`
	Home             string   `toml:"home"`
	LogBodyPaths     []string `toml:"log_body_paths"`
	MetricsSkipPaths []string `toml:"metrics_skip_paths"`
	WriteTimeoutMS   int      `toml:"write_timeout_ms"`
}

type Store struct {
	Path string `toml:"path"`
}

// Workflow configures the n8n webhooks. The shared secret is read from the
// environment variable named by SecretEnv.
type Workflow struct {
	GenerateURL    string `toml:"generate_url"`
	ReverseURL     string `toml:"reverse_url"`
	StatusURL      string `toml:"status_url"`
	CallbackURL    string `toml:"callback_url"`
	SecretEnv      string `toml:"secret_env"`
	TimeoutMS      int    `toml:"timeout_ms"`
	PollIntervalMS int    `toml:"poll_interval_ms"`
}

const (
	BlobMemory = "memory"
	BlobS3     = "s3"
)

// Blob selects upload storage. S3 credentials come from the AWS chain.
type Blob struct {
	Driver      string   `toml:"driver"`
	Bucket      string   `toml:"bucket"`
	Region      string   `toml:"region"`
	Endpoint    string   `toml:"endpoint"`
	Prefix      string   `toml:"prefix"`
	PublicURL   string   `toml:"public_url"`
	PathStyle   bool     `toml:"path_style"`
	MaxUploadMB int      `toml:"max_upload_mb"`
	AllowTypes  []string `toml:"allow_types"`
}

// Events toggles which domain events are published. Sinks are env driven.
type Events struct {
	Actions bool `toml:"actions"`
}

func (a *App) normalize() error {
	if strings.TrimSpace(a.Name) == "" {
		a.Name = "contentops"
	}
	if a.Home == "" {
		a.Home = "/"
	}
	p, err := cleanPath(a.Home)
	if err != nil {
		return err
	}
	a.Home = p
	if a.WriteTimeoutMS < 0 {
		return errors.New("write_timeout_ms must be >= 0")
	}
	if a.WriteTimeoutMS == 0 {
		a.WriteTimeoutMS = 30000
	}
	return nil
}

func (s *Store) normalize() {
	if strings.TrimSpace(s.Path) == "" {
		s.Path = "data/contentops.db"
	}
}

func (w *Workflow) normalize() error {
	for name, raw := range map[string]string{
		"generate_url": w.GenerateURL,
		"reverse_url":  w.ReverseURL,
		"status_url":   w.StatusURL,
		"callback_url": w.CallbackURL,
	} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(strings.ReplaceAll(raw, "{id}", "x"))
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("workflow.%s must be an absolute http(s) url", name)
		}
	}
	if w.SecretEnv == "" {
		w.SecretEnv = "N8N_WEBHOOK_SECRET"
	}
	if w.TimeoutMS < 0 || w.PollIntervalMS < 0 {
		return errors.New("workflow timeouts must be >= 0")
	}
	if w.TimeoutMS == 0 {
		w.TimeoutMS = 30000
	}
	if w.PollIntervalMS == 0 {
		w.PollIntervalMS = 15000
	}
	return nil
}

func (b *Blob) normalize() error {
	b.Driver = strings.ToLower(strings.TrimSpace(b.Driver))
	switch b.Driver {
	case "":
		b.Driver = BlobMemory
	case BlobMemory:
	case BlobS3:
		if strings.TrimSpace(b.Bucket) == "" {
			return errors.New("blob.bucket required for s3")
		}
	default:
		return fmt.Errorf("blob.driver %q must be memory or s3", b.Driver)
	}
	if b.MaxUploadMB < 0 {
		return errors.New("blob.max_upload_mb must be >= 0")
	}
	if b.MaxUploadMB == 0 {
		b.MaxUploadMB = 10
	}
	if len(b.AllowTypes) == 0 {
		b.AllowTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}
	}
	return nil
}
