package a2ui

import (
	"html/template"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// tag is a tiny element builder; every attribute value is escaped.
type tag struct {
	name  string
	attrs strings.Builder
}

func open(name string) *tag { return &tag{name: name} }

func (t *tag) attr(k, v string) *tag {
	if v == "" {
		return t
	}
	t.attrs.WriteByte(' ')
	t.attrs.WriteString(k)
	t.attrs.WriteString(`="`)
	t.attrs.WriteString(template.HTMLEscapeString(v))
	t.attrs.WriteByte('"')
	return t
}

func (t *tag) flag(k string, on bool) *tag {
	if on {
		t.attrs.WriteByte(' ')
		t.attrs.WriteString(k)
	}
	return t
}

// bind appends an attribute produced by a Binder.
func (t *tag) bind(a template.HTMLAttr) *tag {
	if a != "" {
		t.attrs.WriteByte(' ')
		t.attrs.WriteString(string(a))
	}
	return t
}

func (t *tag) body(parts ...template.HTML) template.HTML {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(t.name)
	b.WriteString(t.attrs.String())
	b.WriteByte('>')
	for _, p := range parts {
		b.WriteString(string(p))
	}
	b.WriteString("</")
	b.WriteString(t.name)
	b.WriteByte('>')
	return template.HTML(b.String())
}

func (t *tag) void() template.HTML {
	return template.HTML("<" + t.name + t.attrs.String() + ">")
}

func text(s string) template.HTML {
	return template.HTML(template.HTMLEscapeString(s))
}

func join(parts []template.HTML) template.HTML {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(string(p))
	}
	return template.HTML(b.String())
}

// ---------- layout metadata ----------

var cssLength = regexp.MustCompile(`^(\d+(\.\d+)?)(px|%|rem|em|vh|vw|ch)$`)

// length turns a width/height prop into a CSS length; anything else is "".
func length(n Node, key string) string {
	switch v := n.Props[key].(type) {
	case string:
		s := strings.TrimSpace(v)
		if s == "auto" || cssLength.MatchString(s) {
			return s
		}
		if f, ok := toFloat(s); ok && f >= 0 {
			return strconv.FormatFloat(f, 'f', -1, 64) + "px"
		}
		return ""
	default:
		if f, ok := toFloat(v); ok && f >= 0 {
			return strconv.FormatFloat(f, 'f', -1, 64) + "px"
		}
	}
	return ""
}

var flexAlign = map[string]string{
	"start":   "flex-start",
	"center":  "center",
	"end":     "flex-end",
	"stretch": "stretch",
	"between": "space-between",
	"around":  "space-around",
}

var classSafe = regexp.MustCompile(`[^A-Za-z0-9_\- ]`)

// box returns the class and inline style every node shares.
func box(n Node, decls ...string) (string, string) {
	class := "a2ui-" + string(n.Type)
	if c := strings.TrimSpace(classSafe.ReplaceAllString(n.String("className", ""), "")); c != "" {
		class += " " + c
	}

	var style []string
	style = append(style, decls...)
	if w := length(n, "width"); w != "" {
		style = append(style, "width:"+w)
	}
	if h := length(n, "height"); h != "" {
		style = append(style, "height:"+h)
	}
	if p := n.Int("padding", -1); p >= 0 {
		style = append(style, "padding:"+strconv.Itoa(p)+"px")
	}
	if g := n.Int("gap", -1); g >= 0 {
		style = append(style, "gap:"+strconv.Itoa(g)+"px")
	}
	if a, ok := flexAlign[n.String("align", "")]; ok {
		style = append(style, "align-items:"+a)
	}
	if j, ok := flexAlign[n.String("justify", "")]; ok {
		style = append(style, "justify-content:"+j)
	}
	return class, strings.Join(style, ";")
}

// pick returns v when it is one of allowed, otherwise def.
func pick(v string, def string, allowed ...string) string {
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	return def
}

// safeURL admits http(s), mailto and site-relative references.
func safeURL(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if strings.HasPrefix(s, "/") || strings.HasPrefix(s, "#") || strings.HasPrefix(s, "?") {
		if strings.HasPrefix(s, "//") {
			return ""
		}
		return s
	}
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "mailto":
		return s
	}
	return ""
}

// cell formats a table or stat value.
func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		if x {
			return "yes"
		}
		return "no"
	}
	return ""
}
