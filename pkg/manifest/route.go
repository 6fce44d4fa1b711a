package manifest

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// Route describes a single API route.
type Route struct {
	Path    string   `toml:"path"`
	Method  string   `toml:"method"`
	Guard   Guard    `toml:"guard"`
	Policy  Policy   `toml:"policy"`
	Handler HSpec    `toml:"handler"`
	Tags    []string `toml:"tags"`
}

type Guard struct {
	Roles       []string `toml:"roles"`
	Users       []string `toml:"users"`
	RequireAuth bool     `toml:"require_auth"`
}

// Open reports whether the guard admits anonymous callers.
func (g Guard) Open() bool { return !g.RequireAuth && len(g.Roles) == 0 && len(g.Users) == 0 }

type Policy struct {
	TimeoutMS int `toml:"timeout_ms"`
	MaxBodyKB int `toml:"max_body_kb"`
}

type HSpec struct {
	Type  HandlerType `toml:"type"`
	Name  string      `toml:"name"`
	Relay *RelaySpec  `toml:"relay"`
}

// RelaySpec names the event type a relay.publish route emits.
type RelaySpec struct {
	Topic string `toml:"topic"`
}

// cleanPath makes p absolute and clean.
func cleanPath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", errors.New("path is required")
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if p != "/" {
		p = path.Clean(p)
	}
	return p, nil
}

func (r *Route) normalize() error {
	p, err := cleanPath(r.Path)
	if err != nil {
		return err
	}
	r.Path = p
	r.Method = strings.ToUpper(strings.TrimSpace(r.Method))
	if r.Method == "" {
		r.Method = "GET"
	}
	return nil
}

func (r *Route) validate() error {
	switch r.Handler.Type {
	case HandlerInproc:
		if strings.TrimSpace(r.Handler.Name) == "" {
			return errors.New("handler.name required for inproc")
		}
	case HandlerRelayPublish:
		if r.Handler.Relay == nil || strings.TrimSpace(r.Handler.Relay.Topic) == "" {
			return errors.New("handler.relay.topic required for relay")
		}
		if r.Method != "POST" && r.Method != "PUT" {
			return fmt.Errorf("relay.publish needs POST or PUT, got %s", r.Method)
		}
	default:
		return fmt.Errorf("unknown handler type %q", r.Handler.Type)
	}
	return r.Policy.validate()
}

func (p Policy) validate() error {
	if p.TimeoutMS < 0 {
		return errors.New("policy.timeout_ms must be >= 0")
	}
	if p.MaxBodyKB < 0 {
		return errors.New("policy.max_body_kb must be >= 0")
	}
	return nil
}
