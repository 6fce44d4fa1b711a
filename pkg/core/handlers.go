package core

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"sync"
)

// Input is what an in-process handler sees of the request. Body has already
// been limited to the route's max_body_kb.
type Input struct {
	Body   []byte
	Header http.Header
	Query  url.Values
	Params map[string]string
}

// InprocHandler is the signature for in-process handlers named in
// manifest.toml. status is the HTTP status to send; for a 3xx status out is
// the redirect location.
type InprocHandler func(ctx context.Context, in Input) (out []byte, status int, err error)

// Handlers maps manifest handler names to implementations.
type Handlers struct {
	mu sync.RWMutex
	m  map[string]InprocHandler
}

func NewHandlers() *Handlers { return &Handlers{m: make(map[string]InprocHandler)} }

// Register makes h available under name. Names are unique.
func (h *Handlers) Register(name string, fn InprocHandler) error {
	if name == "" || fn == nil {
		return fmt.Errorf("core: handler name and func required")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, dup := h.m[name]; dup {
		return fmt.Errorf("core: handler %q already registered", name)
	}
	h.m[name] = fn
	return nil
}

// Lookup retrieves a registered handler by name.
func (h *Handlers) Lookup(name string) (InprocHandler, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	fn, ok := h.m[name]
	return fn, ok
}

// Names lists registered handlers, sorted.
func (h *Handlers) Names() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.m))
	for n := range h.m {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
