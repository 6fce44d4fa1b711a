// Package a2ui renders declarative UI node trees to HTML and routes
// interaction on the rendered output back to a single action callback.
//
// A tree is plain data (JSON on the wire). Each node is resolved by its
// type tag through a Registry; containers receive their already rendered
// children, and interactive nodes bind Actions that a View can later
// activate.
package a2ui

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Node is one piece of UI. Everything other than type, id and children is
// carried in Props and read through the typed accessors, which fall back to
// the caller's default when a value is missing or malformed.
type Node struct {
	Type     Kind
	ID       string
	Children []Node
	Props    map[string]any
}

// New creates a node of the given kind.
func New(kind Kind, children ...Node) Node {
	return Node{Type: kind, Children: children}
}

// With returns a copy of n with key set to v.
func (n Node) With(key string, v any) Node {
	props := make(map[string]any, len(n.Props)+1)
	for k, x := range n.Props {
		props[k] = x
	}
	props[key] = v
	n.Props = props
	return n
}

// WithID returns a copy of n carrying id.
func (n Node) WithID(id string) Node {
	n.ID = id
	return n
}

// Append returns a copy of n with extra children.
func (n Node) Append(children ...Node) Node {
	out := make([]Node, 0, len(n.Children)+len(children))
	out = append(out, n.Children...)
	n.Children = append(out, children...)
	return n
}

// MarshalJSON writes the flat wire form: props sit next to type/id/children.
func (n Node) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(n.Props)+3)
	for k, v := range n.Props {
		m[k] = v
	}
	m["type"] = string(n.Type)
	if n.ID != "" {
		m["id"] = n.ID
	}
	if len(n.Children) > 0 {
		m["children"] = n.Children
	}
	return json.Marshal(m)
}

// UnmarshalJSON reads the flat wire form. Only a non-object payload is an
// error; malformed type/id/children degrade to zero values so the renderer
// can show a fallback instead of failing the whole tree.
func (n *Node) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("a2ui: node: %w", err)
	}
	*n = Node{}
	for k, v := range raw {
		switch k {
		case "type":
			var s string
			if json.Unmarshal(v, &s) == nil {
				n.Type = Kind(s)
			}
		case "id":
			var s string
			if json.Unmarshal(v, &s) == nil {
				n.ID = s
			}
		case "children":
			var items []json.RawMessage
			if json.Unmarshal(v, &items) != nil {
				continue
			}
			n.Children = make([]Node, 0, len(items))
			for _, it := range items {
				var c Node
				_ = c.UnmarshalJSON(it) // a non-object child stays a typeless node
				n.Children = append(n.Children, c)
			}
		default:
			var x any
			if err := json.Unmarshal(v, &x); err != nil {
				continue
			}
			if n.Props == nil {
				n.Props = make(map[string]any, len(raw))
			}
			n.Props[k] = x
		}
	}
	return nil
}

// Parse decodes a JSON node tree.
func Parse(b []byte) (Node, error) {
	var n Node
	if err := json.Unmarshal(b, &n); err != nil {
		return Node{}, err
	}
	return n, nil
}

// ---------- accessors ----------

// Prop returns the raw value of key.
func (n Node) Prop(key string) (any, bool) {
	v, ok := n.Props[key]
	return v, ok
}

// String reads key as text; numbers and booleans are formatted.
func (n Node) String(key, def string) string {
	switch v := n.Props[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		return v.String()
	}
	return def
}

// Float reads key as a finite number. Numeric strings are accepted.
func (n Node) Float(key string, def float64) float64 {
	f, ok := toFloat(n.Props[key])
	if !ok {
		return def
	}
	return f
}

// Int reads key as an integer, truncating fractions.
func (n Node) Int(key string, def int) int {
	f, ok := toFloat(n.Props[key])
	if !ok || f > math.MaxInt32 || f < math.MinInt32 {
		return def
	}
	return int(f)
}

// Bool reads key as a boolean. "true"/"false" strings are accepted.
func (n Node) Bool(key string, def bool) bool {
	switch v := n.Props[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return def
}

// Strings reads key as a list of strings, skipping non-string items.
func (n Node) Strings(key string) []string {
	switch v := n.Props[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, x := range v {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Objects reads key as a list of objects, skipping anything else.
func (n Node) Objects(key string) []map[string]any {
	switch v := n.Props[key].(type) {
	case []map[string]any:
		return v
	case []any:
		out := make([]map[string]any, 0, len(v))
		for _, x := range v {
			if m, ok := x.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

// Action reads key as an Action. A bare string is shorthand for an action
// without args.
func (n Node) Action(key string) (Action, bool) {
	return toAction(n.Props[key])
}

// Nodes reads key as a list of nested nodes (a slot). A single node is
// returned as a one-element list.
func (n Node) Nodes(key string) []Node {
	switch v := n.Props[key].(type) {
	case Node:
		return []Node{v}
	case []Node:
		return v
	case map[string]any:
		if c, ok := toNode(v); ok {
			return []Node{c}
		}
	case []any:
		out := make([]Node, 0, len(v))
		for _, x := range v {
			switch y := x.(type) {
			case Node:
				out = append(out, y)
			case map[string]any:
				if c, ok := toNode(y); ok {
					out = append(out, c)
				}
			}
		}
		return out
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		p, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = p
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = p
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// toNode converts a decoded JSON object into a Node via its wire form.
func toNode(m map[string]any) (Node, bool) {
	b, err := json.Marshal(m)
	if err != nil {
		return Node{}, false
	}
	var n Node
	if err := n.UnmarshalJSON(b); err != nil {
		return Node{}, false
	}
	return n, true
}

// ---------- builders ----------

func Column(children ...Node) Node { return New(KindColumn, children...) }
func Row(children ...Node) Node    { return New(KindRow, children...) }
func Grid(columns int, children ...Node) Node {
	return New(KindGrid, children...).With("columns", columns)
}
func Container(children ...Node) Node { return New(KindContainer, children...) }
func List(children ...Node) Node      { return New(KindList, children...) }
func Divider() Node                   { return New(KindDivider) }
func Spacer() Node                    { return New(KindSpacer) }

// Card creates a card; pass a non-empty title to render a header.
func Card(title string, children ...Node) Node {
	n := New(KindCard, children...)
	if title != "" {
		n = n.With("title", title)
	}
	return n
}

// Modal creates an open modal dialog.
func Modal(title string, children ...Node) Node {
	return New(KindModal, children...).With("title", title).With("open", true)
}

// Form creates a form whose submit dispatches a.
func Form(a Action, children ...Node) Node {
	return New(KindForm, children...).With("onSubmit", a)
}

func Text(s string) Node { return New(KindText).With("text", s) }

// Heading is a text node with a heading variant (h1..h4).
func Heading(level int, s string) Node {
	if level < 1 || level > 4 {
		level = 2
	}
	return Text(s).With("variant", "h"+strconv.Itoa(level))
}

func Markdown(src string) Node          { return New(KindMarkdown).With("source", src) }
func Code(src, lang string) Node        { return New(KindCode).With("code", src).With("language", lang) }
func Badge(text, tone string) Node      { return New(KindBadge).With("text", text).With("tone", tone) }
func Alert(tone, text string) Node      { return New(KindAlert).With("tone", tone).With("text", text) }
func Stat(label string, value any) Node { return New(KindStat).With("label", label).With("value", value) }
func Image(src, alt string) Node        { return New(KindImage).With("src", src).With("alt", alt) }
func Link(text, href string) Node       { return New(KindLink).With("text", text).With("href", href) }
func Empty(title, text string) Node     { return New(KindEmpty).With("title", title).With("text", text) }
func Progress(value, max float64) Node  { return New(KindProgress).With("value", value).With("max", max) }
func Input(name, label string) Node     { return New(KindInput).With("name", name).With("label", label) }
func Textarea(name, label string) Node  { return New(KindTextarea).With("name", name).With("label", label) }
func Checkbox(name, label string) Node  { return New(KindCheckbox).With("name", name).With("label", label) }
func Select(name, label string, options ...Option) Node {
	opts := make([]any, 0, len(options))
	for _, o := range options {
		opts = append(opts, map[string]any{"value": o.Value, "label": o.Label})
	}
	return New(KindSelect).With("name", name).With("label", label).With("options", opts)
}

// Option is one choice of a select node.
type Option struct {
	Value string
	Label string
}

// Button creates a button dispatching a on click.
func Button(label string, a Action) Node {
	return New(KindButton).With("label", label).With("onClick", a)
}

// SubmitButton creates a button that submits its enclosing form.
func SubmitButton(label string) Node {
	return New(KindButton).With("label", label).With("submit", true).With("variant", "primary")
}

// TableColumn describes one table column.
type TableColumn struct {
	Key   string
	Label string
}

// Table creates a table node from columns and row objects.
func Table(columns []TableColumn, rows []map[string]any) Node {
	cols := make([]any, 0, len(columns))
	for _, c := range columns {
		cols = append(cols, map[string]any{"key": c.Key, "label": c.Label})
	}
	rs := make([]any, 0, len(rows))
	for _, r := range rows {
		rs = append(rs, r)
	}
	return New(KindTable).With("columns", cols).With("rows", rs)
}
