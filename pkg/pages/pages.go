// Package pages holds the dashboard pages. Each page describes its UI as an
// a2ui node tree and handles the actions that tree dispatches.
package pages

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/joeydtaylor/contentops/pkg/a2ui"
	"github.com/joeydtaylor/contentops/pkg/middleware/auth"
)

var (
	ErrDuplicatePage = errors.New("pages: duplicate page")
	ErrUnknownAction = errors.New("pages: unknown action")
)

// Request is what a page knows about the caller.
type Request struct {
	User  auth.User
	Query url.Values
	Path  string
}

// Link returns the page path with the given key/value query pairs.
func (r Request) Link(kv ...string) string {
	q := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] != "" {
			q.Set(kv[i], kv[i+1])
		}
	}
	if len(q) == 0 {
		return r.Path
	}
	return r.Path + "?" + q.Encode()
}

// Outcome tells the client what to do after an action.
type Outcome struct {
	Redirect string `json:"redirect,omitempty"`
	Notice   string `json:"notice,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Merge folds next into o; later redirects and messages win.
func (o Outcome) Merge(next Outcome) Outcome {
	if next.Redirect != "" {
		o.Redirect = next.Redirect
	}
	if next.Notice != "" {
		o.Notice = next.Notice
	}
	if next.Error != "" {
		o.Error = next.Error
	}
	return o
}

// ActionHandler runs one dispatched action.
type ActionHandler func(ctx context.Context, req Request, args []any) (Outcome, error)

// Actions maps action names to handlers.
type Actions map[string]ActionHandler

// Page is one screen of the dashboard.
type Page interface {
	Name() string
	Title() string
	Build(ctx context.Context, req Request) (a2ui.Node, error)
	Actions() Actions
}

// Dispatch runs the handler registered for name.
func Dispatch(ctx context.Context, p Page, req Request, name string, args []any) (Outcome, error) {
	h, ok := p.Actions()[name]
	if !ok {
		return Outcome{}, fmt.Errorf("%w %q on page %s", ErrUnknownAction, name, p.Name())
	}
	return h(ctx, req, args)
}

// Registry maps page names to pages.
type Registry struct {
	mu    sync.RWMutex
	pages map[string]Page
}

func NewRegistry() *Registry { return &Registry{pages: make(map[string]Page)} }

// Register adds p; a second page with the same name is rejected.
func (r *Registry) Register(p Page) error {
	name := strings.TrimSpace(p.Name())
	if name == "" {
		return errors.New("pages: empty page name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.pages[name]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicatePage, name)
	}
	r.pages[name] = p
	return nil
}

func (r *Registry) Lookup(name string) (Page, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pages[name]
	return p, ok
}

// Names lists registered pages, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.pages))
	for n := range r.pages {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// ---------- arg helpers ----------

// argString returns args[i] as text, or "" when absent.
func argString(args []any, i int) string {
	if i < 0 || i >= len(args) {
		return ""
	}
	switch v := args[i].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// formArg returns the submitted form values, the last arg of a submit.
func formArg(args []any) map[string]string {
	out := map[string]string{}
	if len(args) == 0 {
		return out
	}
	switch m := args[len(args)-1].(type) {
	case map[string]any:
		for k, v := range m {
			out[k] = strings.TrimSpace(argString([]any{v}, 0))
		}
	case map[string]string:
		for k, v := range m {
			out[k] = strings.TrimSpace(v)
		}
	}
	return out
}
