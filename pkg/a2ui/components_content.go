package a2ui

import (
	"html/template"
	"math"
	"strconv"

	"github.com/joeydtaylor/contentops/pkg/content"
)

var textTags = map[string]string{
	"h1":      "h1",
	"h2":      "h2",
	"h3":      "h3",
	"h4":      "h4",
	"caption": "small",
	"muted":   "p",
	"body":    "p",
}

func renderText(n Node, _ Binder, _ Children) template.HTML {
	variant := pick(n.String("variant", "body"), "body", "body", "h1", "h2", "h3", "h4", "caption", "muted")
	extra := "a2ui-text-" + variant
	if c := pick(n.String("color", ""), "", "default", "muted", "primary", "success", "warning", "danger"); c != "" {
		extra += " a2ui-color-" + c
	}
	if w := pick(n.String("weight", ""), "", "normal", "medium", "bold"); w != "" {
		extra += " a2ui-weight-" + w
	}
	return element(n, textTags[variant], extra).body(text(n.String("text", "")))
}

func renderMarkdown(n Node, _ Binder, _ Children) template.HTML {
	return element(n, "div", "").body(content.Markdown(n.String("source", "")))
}

func renderCode(n Node, _ Binder, _ Children) template.HTML {
	code := open("code")
	if lang := classToken(n.String("language", "")); lang != "" {
		code.attr("class", "language-"+lang)
	}
	return element(n, "pre", "").body(code.body(text(n.String("code", ""))))
}

func tone(n Node, def string) string {
	return pick(n.String("tone", def), def, "neutral", "info", "success", "warning", "danger")
}

func renderBadge(n Node, _ Binder, _ Children) template.HTML {
	return element(n, "span", "a2ui-tone-"+tone(n, "neutral")).body(text(n.String("text", "")))
}

func renderAlert(n Node, _ Binder, kids Children) template.HTML {
	t := tone(n, "info")
	role := "status"
	if t == "warning" || t == "danger" {
		role = "alert"
	}
	var parts []template.HTML
	if title := n.String("title", ""); title != "" {
		parts = append(parts, open("strong").attr("class", "a2ui-alert-title").body(text(title)))
	}
	if s := n.String("text", ""); s != "" {
		parts = append(parts, open("p").body(text(s)))
	}
	parts = append(parts, kids.All()...)
	return element(n, "div", "a2ui-tone-"+t).attr("role", role).body(parts...)
}

func renderStat(n Node, _ Binder, _ Children) template.HTML {
	value := n.String("value", "")
	parts := []template.HTML{
		open("div").attr("class", "a2ui-stat-label").body(text(n.String("label", ""))),
		open("div").attr("class", "a2ui-stat-value").body(text(value)),
	}
	if hint := n.String("hint", ""); hint != "" {
		parts = append(parts, open("div").attr("class", "a2ui-stat-hint").body(text(hint)))
	}
	return element(n, "div", "").body(parts...)
}

func renderProgress(n Node, _ Binder, _ Children) template.HTML {
	limit := n.Float("max", 100)
	if limit <= 0 {
		limit = 100
	}
	v := math.Min(math.Max(n.Float("value", 0), 0), limit)
	pct := int(math.Round(v / limit * 100))

	fmtNum := func(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
	var parts []template.HTML
	if label := n.String("label", ""); label != "" {
		parts = append(parts, open("span").attr("class", "a2ui-progress-label").body(text(label)))
	}
	parts = append(parts,
		open("progress").attr("value", fmtNum(v)).attr("max", fmtNum(limit)).body(text(strconv.Itoa(pct)+"%")),
		open("span").attr("class", "a2ui-progress-pct").body(text(strconv.Itoa(pct)+"%")),
	)
	return element(n, "div", "").body(parts...)
}

func renderEmpty(n Node, on Binder, kids Children) template.HTML {
	var parts []template.HTML
	if title := n.String("title", ""); title != "" {
		parts = append(parts, open("h4").attr("class", "a2ui-empty-title").body(text(title)))
	}
	if s := n.String("text", ""); s != "" {
		parts = append(parts, open("p").body(text(s)))
	}
	parts = append(parts, kids.All()...)
	if a, ok := n.Action("onClick"); ok {
		label := n.String("actionLabel", a.Name)
		parts = append(parts, open("button").
			attr("type", "button").
			attr("class", "a2ui-button a2ui-button-primary").
			bind(on.Bind(EventClick, a)).
			body(text(label)))
	}
	return element(n, "div", "").body(parts...)
}

func renderImage(n Node, on Binder, _ Children) template.HTML {
	alt := n.String("alt", "")
	src := safeURL(n.String("src", ""))
	if src == "" {
		return element(n, "div", "a2ui-image-missing").attr("role", "img").attr("aria-label", alt).body(text(alt))
	}
	t := element(n, "img", "").attr("src", src).attr("loading", "lazy")
	// alt is written even when empty.
	t.attrs.WriteString(` alt="` + template.HTMLEscapeString(alt) + `"`)
	if a, ok := n.Action("onClick"); ok {
		t.attr("role", "button").attr("tabindex", "0").bind(on.Bind(EventClick, a))
	}
	return t.void()
}

func renderLink(n Node, _ Binder, kids Children) template.HTML {
	href := safeURL(n.String("href", ""))
	if href == "" {
		href = "#"
	}
	t := element(n, "a", "").attr("href", href)
	if n.Bool("external", false) {
		t.attr("target", "_blank").attr("rel", "noopener noreferrer")
	}
	parts := []template.HTML{text(n.String("text", ""))}
	parts = append(parts, kids.All()...)
	return t.body(parts...)
}
