package a2ui

import (
	"errors"
	"fmt"
	"html/template"
	"sort"
	"sync"
)

// RenderFunc renders one node. on binds the node's actions into the output;
// kids renders the node's children (the function never recurses itself).
type RenderFunc func(n Node, on Binder, kids Children) template.HTML

var (
	ErrDuplicateKind = errors.New("a2ui: kind already registered")
	ErrSealed        = errors.New("a2ui: registry is sealed")
)

// Registry maps node kinds to render functions. A kind is registered at most
// once; after Seal the table is read-only.
type Registry struct {
	mu      sync.RWMutex
	entries map[Kind]RenderFunc
	sealed  bool
}

// NewRegistry returns an empty, unsealed registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[Kind]RenderFunc)}
}

// Register binds kind to fn.
func (r *Registry) Register(kind Kind, fn RenderFunc) error {
	if kind == "" || fn == nil {
		return fmt.Errorf("a2ui: kind and render func required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return fmt.Errorf("register %q: %w", kind, ErrSealed)
	}
	if _, dup := r.entries[kind]; dup {
		return fmt.Errorf("register %q: %w", kind, ErrDuplicateKind)
	}
	r.entries[kind] = fn
	return nil
}

// MustRegister is Register for init-time tables.
func (r *Registry) MustRegister(kind Kind, fn RenderFunc) {
	if err := r.Register(kind, fn); err != nil {
		panic(err)
	}
}

// Resolve returns the render function for kind.
func (r *Registry) Resolve(kind Kind) (RenderFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.entries[kind]
	return fn, ok
}

// Kinds returns the registered kinds, sorted.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Kind, 0, len(r.entries))
	for k := range r.entries {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Seal makes the registry read-only.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Extend returns an unsealed copy of r, for hosts that add their own kinds
// on top of the builtins.
func (r *Registry) Extend() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := NewRegistry()
	for k, fn := range r.entries {
		out.entries[k] = fn
	}
	return out
}

var (
	builtinOnce sync.Once
	builtinReg  *Registry
)

// Builtins returns the process-wide registry of builtin kinds. It is built on
// first use and sealed.
func Builtins() *Registry {
	builtinOnce.Do(func() {
		r := NewRegistry()
		registerBuiltins(r)
		r.Seal()
		builtinReg = r
	})
	return builtinReg
}
