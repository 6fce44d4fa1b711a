package a2ui

import (
	"html/template"
	"strconv"
	"strings"
)

// element opens name with the node's shared class, style and id.
func element(n Node, name, extraClass string, decls ...string) *tag {
	class, style := box(n, decls...)
	if extraClass != "" {
		class += " " + extraClass
	}
	return open(name).attr("class", class).attr("style", style).attr("id", n.ID)
}

func renderColumn(n Node, _ Binder, kids Children) template.HTML {
	return element(n, "div", "", "display:flex", "flex-direction:column").body(kids.All()...)
}

func renderRow(n Node, _ Binder, kids Children) template.HTML {
	decls := []string{"display:flex", "flex-direction:row"}
	if n.Bool("wrap", false) {
		decls = append(decls, "flex-wrap:wrap")
	}
	return element(n, "div", "", decls...).body(kids.All()...)
}

func renderGrid(n Node, _ Binder, kids Children) template.HTML {
	cols := n.Int("columns", 3)
	if cols < 1 || cols > 12 {
		cols = 3
	}
	return element(n, "div", "",
		"display:grid",
		"grid-template-columns:repeat("+strconv.Itoa(cols)+",minmax(0,1fr))",
	).body(kids.All()...)
}

func renderContainer(n Node, _ Binder, kids Children) template.HTML {
	return element(n, "div", "").body(kids.All()...)
}

func renderList(n Node, _ Binder, kids Children) template.HTML {
	var items []template.HTML
	for _, c := range kids.All() {
		if c == "" {
			continue
		}
		items = append(items, open("li").body(c))
	}
	return element(n, "ul", "").body(items...)
}

func renderCard(n Node, on Binder, kids Children) template.HTML {
	var t *tag
	if a, ok := n.Action("onClick"); ok {
		t = element(n, "div", "a2ui-clickable").attr("role", "button").attr("tabindex", "0").bind(on.Bind(EventClick, a))
	} else {
		t = element(n, "div", "")
	}

	var parts []template.HTML
	title, sub := n.String("title", ""), n.String("subtitle", "")
	if title != "" || sub != "" {
		var head []template.HTML
		if title != "" {
			head = append(head, open("h3").attr("class", "a2ui-card-title").body(text(title)))
		}
		if sub != "" {
			head = append(head, open("p").attr("class", "a2ui-card-subtitle").body(text(sub)))
		}
		parts = append(parts, open("header").attr("class", "a2ui-card-header").body(head...))
	}
	parts = append(parts, open("div").attr("class", "a2ui-card-body").body(kids.All()...))
	if footer := n.Nodes("footer"); len(footer) > 0 {
		var foot []template.HTML
		for _, f := range footer {
			foot = append(foot, kids.Render(f))
		}
		parts = append(parts, open("footer").attr("class", "a2ui-card-footer").body(foot...))
	}
	return t.body(parts...)
}

func renderModal(n Node, on Binder, kids Children) template.HTML {
	if !n.Bool("open", true) {
		return ""
	}
	title := n.String("title", "")
	var head []template.HTML
	head = append(head, open("h3").attr("class", "a2ui-modal-title").body(text(title)))
	if a, ok := n.Action("onClose"); ok {
		head = append(head, open("button").
			attr("type", "button").
			attr("class", "a2ui-modal-close").
			attr("aria-label", "Close").
			bind(on.BindItem(EventClick, a, "close")).
			body(text("×")))
	}
	dialog := element(n, "div", "").
		attr("role", "dialog").
		flag("aria-modal", true).
		attr("aria-label", title).
		body(
			open("header").attr("class", "a2ui-modal-header").body(head...),
			open("div").attr("class", "a2ui-modal-body").body(kids.All()...),
		)
	return open("div").attr("class", "a2ui-modal-backdrop").body(dialog)
}

type tabItem struct {
	key, label string
}

func tabItems(n Node) []tabItem {
	raw, _ := n.Props["items"].([]any)
	if ss, ok := n.Props["items"].([]string); ok {
		for _, s := range ss {
			raw = append(raw, s)
		}
	}
	var out []tabItem
	for _, x := range raw {
		switch v := x.(type) {
		case string:
			out = append(out, tabItem{key: v, label: v})
		case map[string]any:
			key, _ := v["key"].(string)
			label, _ := v["label"].(string)
			if key == "" {
				continue
			}
			if label == "" {
				label = key
			}
			out = append(out, tabItem{key: key, label: label})
		}
	}
	return out
}

// renderTabs shows one child panel per item; items and children pair up by
// index.
func renderTabs(n Node, on Binder, kids Children) template.HTML {
	items := tabItems(n)
	active := n.String("active", "")
	if active == "" && len(items) > 0 {
		active = items[0].key
	}
	change, hasChange := n.Action("onChange")

	var tabs []template.HTML
	for _, it := range items {
		selected := it.key == active
		b := open("button").
			attr("type", "button").
			attr("role", "tab").
			attr("class", "a2ui-tab").
			attr("aria-selected", strconv.FormatBool(selected))
		if hasChange && !selected {
			b.bind(on.BindItem(EventClick, change.withArgs(it.key), it.key))
		}
		tabs = append(tabs, b.body(text(it.label)))
	}

	var panels []template.HTML
	for i, p := range kids.All() {
		shown := i < len(items) && items[i].key == active
		panels = append(panels, open("div").
			attr("role", "tabpanel").
			attr("class", "a2ui-tab-panel").
			flag("hidden", !shown).
			body(p))
	}
	return element(n, "div", "").body(
		open("div").attr("role", "tablist").attr("class", "a2ui-tablist").body(tabs...),
		join(panels),
	)
}

func renderForm(n Node, on Binder, kids Children) template.HTML {
	t := element(n, "form", "").attr("method", "post")
	// upload forms post natively as multipart; files never travel as action args
	if u := safeURL(n.String("upload", "")); u != "" {
		t.attr("action", u).attr("enctype", "multipart/form-data")
	} else if a, ok := n.Action("onSubmit"); ok {
		t.bind(on.Bind(EventSubmit, a))
	}
	parts := kids.All()
	if label := n.String("submitLabel", ""); label != "" {
		parts = append(parts, open("button").
			attr("type", "submit").
			attr("class", "a2ui-button a2ui-button-primary").
			body(text(label)))
	}
	return t.body(parts...)
}

func renderDivider(n Node, _ Binder, _ Children) template.HTML {
	return element(n, "hr", "").void()
}

func renderSpacer(n Node, _ Binder, _ Children) template.HTML {
	size := n.Int("size", 16)
	if size < 0 {
		size = 16
	}
	return element(n, "div", "", "height:"+strconv.Itoa(size)+"px").attr("aria-hidden", "true").body()
}

// classToken reduces s to a single class-name token.
func classToken(s string) string {
	s = classSafe.ReplaceAllString(s, "")
	return strings.ReplaceAll(strings.TrimSpace(s), " ", "-")
}
