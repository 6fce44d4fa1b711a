package a2ui

import (
	"errors"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Binder connects a node's actions to its rendered element.
type Binder interface {
	// Bind registers the node's own handler for ev and returns the attribute
	// that marks the element. An action without a name binds nothing.
	Bind(ev Event, a Action) template.HTMLAttr
	// BindItem registers a handler on a sub-element of the node (a tab, a
	// table row). key tells items apart and must be stable across renders.
	BindItem(ev Event, a Action, key string) template.HTMLAttr
}

// Children renders nested nodes on behalf of a container.
type Children interface {
	// All renders the node's children in document order.
	All() []template.HTML
	// Render renders a node held in a prop slot (footer, table cell).
	Render(n Node) template.HTML
	// RenderKeyed renders a slot node addressed by key instead of by its
	// slot position. Keys come from the data (a row id), so bindings inside
	// survive rows being added or removed.
	RenderKeyed(key string, n Node) template.HTML
}

// Observer is notified as trees render and actions dispatch.
type Observer interface {
	NodeRendered(kind Kind)
	UnknownComponent(kind Kind)
	ActionDispatched(action string)
}

type nopObserver struct{}

func (nopObserver) NodeRendered(Kind)       {}
func (nopObserver) UnknownComponent(Kind)   {}
func (nopObserver) ActionDispatched(string) {}

// Renderer walks node trees. It holds no per-render state and is safe for
// concurrent use.
type Renderer struct {
	reg *Registry
	log *zap.Logger
	obs Observer
}

type RendererOption func(*Renderer)

func WithLogger(l *zap.Logger) RendererOption {
	return func(r *Renderer) {
		if l != nil {
			r.log = l
		}
	}
}

func WithObserver(o Observer) RendererOption {
	return func(r *Renderer) {
		if o != nil {
			r.obs = o
		}
	}
}

// NewRenderer returns a renderer over reg; a nil reg means Builtins().
func NewRenderer(reg *Registry, opts ...RendererOption) *Renderer {
	if reg == nil {
		reg = Builtins()
	}
	r := &Renderer{reg: reg, log: zap.NewNop(), obs: nopObserver{}}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Registry returns the registry the renderer resolves kinds through.
func (r *Renderer) Registry() *Registry { return r.reg }

// Render renders root. on receives every action later activated on the
// returned view.
func (r *Renderer) Render(root Node, on OnAction) *View {
	v := &View{on: on, obs: r.obs, bindings: make(map[string]*binding)}
	p := &pass{r: r, v: v}
	v.HTML = p.node(root, nil, "n0")
	return v
}

// frame is one rendered node on the path from the root; activation bubbles
// along parent links.
type frame struct {
	parent *frame
	path   string
	stop   bool
	click  string // id of the node's own click binding
}

type pass struct {
	r *Renderer
	v *View
}

func (p *pass) node(n Node, parent *frame, path string) (out template.HTML) {
	if n.Bool("hidden", false) {
		return ""
	}
	path = nodePath(n, path)
	fn, ok := p.r.reg.Resolve(n.Type)
	if !ok {
		p.r.log.Warn("a2ui unknown component",
			zap.String("type", string(n.Type)),
			zap.String("path", path),
		)
		p.r.obs.UnknownComponent(n.Type)
		return unknownPlaceholder(n.Type)
	}

	f := &frame{parent: parent, path: path, stop: n.Bool("stopPropagation", false)}
	mark := len(p.v.order)
	defer func() {
		if rec := recover(); rec != nil {
			p.v.truncate(mark)
			p.r.log.Error("a2ui render failed",
				zap.String("type", string(n.Type)),
				zap.String("path", path),
				zap.String("panic", fmt.Sprint(rec)),
			)
			out = failedPlaceholder(n.Type)
		}
	}()

	out = fn(n, &binder{p: p, f: f}, &children{p: p, n: n, f: f})
	p.r.obs.NodeRendered(n.Type)

	if p.r.log.Core().Enabled(zap.DebugLevel) {
		for _, d := range checkFields(n, path) {
			p.r.log.Debug("a2ui malformed field",
				zap.String("type", string(n.Type)),
				zap.String("path", d.Path),
				zap.String("field", d.Field),
				zap.String("reason", d.Message),
			)
		}
	}
	return out
}

type children struct {
	p     *pass
	n     Node
	f     *frame
	slots int
}

func (c *children) All() []template.HTML {
	out := make([]template.HTML, 0, len(c.n.Children))
	for i, ch := range c.n.Children {
		out = append(out, c.p.node(ch, c.f, c.f.path+"."+strconv.Itoa(i)))
	}
	return out
}

func (c *children) Render(n Node) template.HTML {
	c.slots++
	return c.p.node(n, c.f, c.f.path+".s"+strconv.Itoa(c.slots))
}

func (c *children) RenderKeyed(key string, n Node) template.HTML {
	return c.p.node(n, c.f, c.f.path+".k"+keyToken(key))
}

// keyToken keeps data-derived keys to characters that survive attributes
// and URL paths unchanged.
func keyToken(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
}

type binder struct {
	p *pass
	f *frame
}

func (b *binder) Bind(ev Event, a Action) template.HTMLAttr {
	return b.bind(ev, a, "", true)
}

func (b *binder) BindItem(ev Event, a Action, key string) template.HTMLAttr {
	return b.bind(ev, a, key, false)
}

func (b *binder) bind(ev Event, a Action, key string, own bool) template.HTMLAttr {
	if strings.TrimSpace(a.Name) == "" {
		return ""
	}
	id := b.f.path + ":" + string(ev)
	if key != "" {
		id += ":" + keyToken(key)
	}
	id = b.p.v.add(&binding{id: id, event: ev, action: a, frame: b.f, own: own})
	if own && ev == EventClick && b.f.click == "" {
		b.f.click = id
	}
	return template.HTMLAttr(`data-a2ui-` + string(ev) + `="` + template.HTMLEscapeString(id) + `"`)
}

// ---------- view ----------

// ErrUnknownBinding is returned when activating an id the view never bound.
var ErrUnknownBinding = errors.New("a2ui: unknown binding")

// Binding describes one bound action in a rendered view.
type Binding struct {
	ID     string
	Event  Event
	Action Action
}

type binding struct {
	id     string
	event  Event
	action Action
	frame  *frame
	own    bool
}

// View is the output of a render: the markup plus the table of bindings
// that user interaction can activate.
type View struct {
	HTML template.HTML

	on       OnAction
	obs      Observer
	bindings map[string]*binding
	order    []string
}

func (v *View) add(b *binding) string {
	id := b.id
	for i := 2; ; i++ {
		if _, taken := v.bindings[id]; !taken {
			break
		}
		id = b.id + "~" + strconv.Itoa(i)
	}
	b.id = id
	v.bindings[id] = b
	v.order = append(v.order, id)
	return id
}

// truncate drops every binding added after the first n; a node that
// panicked mid-render leaves no activatable ids behind.
func (v *View) truncate(n int) {
	for _, id := range v.order[n:] {
		delete(v.bindings, id)
	}
	v.order = v.order[:n]
}

// Bindings lists bound actions in render order.
func (v *View) Bindings() []Binding {
	out := make([]Binding, 0, len(v.order))
	for _, id := range v.order {
		b := v.bindings[id]
		out = append(out, Binding{ID: b.id, Event: b.event, Action: b.action})
	}
	return out
}

// Lookup returns the binding registered under id.
func (v *View) Lookup(id string) (Binding, bool) {
	b, ok := v.bindings[id]
	if !ok {
		return Binding{}, false
	}
	return Binding{ID: b.id, Event: b.event, Action: b.action}, true
}

// Activate performs the interaction behind id. The bound action is
// dispatched once with value appended to its args; click activations then
// bubble to enclosing nodes that have their own click handler until an
// action or a node with stopPropagation ends the walk. Whatever OnAction
// does (including panicking) is the caller's concern.
func (v *View) Activate(id string, value ...any) error {
	b, ok := v.bindings[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownBinding, id)
	}
	v.dispatch(b.action.withArgs(value...))
	if b.event != EventClick || b.action.StopPropagation {
		return nil
	}

	f := b.frame
	if b.own {
		if f.stop {
			return nil
		}
		f = f.parent
	}
	for ; f != nil; f = f.parent {
		if f.click != "" {
			up := v.bindings[f.click]
			v.dispatch(up.action)
			if up.action.StopPropagation {
				return nil
			}
		}
		if f.stop {
			return nil
		}
	}
	return nil
}

func (v *View) dispatch(a Action) {
	v.obs.ActionDispatched(a.Name)
	if v.on == nil {
		return
	}
	var args []any
	if len(a.Args) > 0 {
		args = make([]any, len(a.Args))
		copy(args, a.Args)
	}
	v.on(a.Name, args)
}

func unknownPlaceholder(k Kind) template.HTML {
	tag := template.HTMLEscapeString(string(k))
	return template.HTML(`<div class="a2ui-unknown" role="alert" data-a2ui-type="` + tag +
		`">Unknown component: <code>` + tag + `</code></div>`)
}

func failedPlaceholder(k Kind) template.HTML {
	tag := template.HTMLEscapeString(string(k))
	return template.HTML(`<div class="a2ui-failed" role="alert" data-a2ui-type="` + tag +
		`">Component failed to render: <code>` + tag + `</code></div>`)
}
