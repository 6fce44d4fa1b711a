package a2ui

import (
	"encoding/json"
	"html/template"
	"sort"
	"strconv"
)

func renderButton(n Node, on Binder, _ Children) template.HTML {
	variant := pick(n.String("variant", "default"), "default", "default", "primary", "secondary", "danger", "ghost")
	submit := n.Bool("submit", false)
	disabled := n.Bool("disabled", false)

	typ := "button"
	if submit {
		typ = "submit"
	}
	t := element(n, "button", "a2ui-button-"+variant).attr("type", typ).flag("disabled", disabled)
	if a, ok := n.Action("onClick"); ok && !submit && !disabled {
		t.bind(on.Bind(EventClick, a))
	}
	return t.body(text(n.String("label", "")))
}

// field wraps a control with its label.
func field(n Node, control template.HTML) template.HTML {
	var parts []template.HTML
	if label := n.String("label", ""); label != "" {
		parts = append(parts, open("span").attr("class", "a2ui-field-label").body(text(label)))
	}
	parts = append(parts, control)
	return element(n, "label", "a2ui-field").body(parts...)
}

func renderInput(n Node, on Binder, _ Children) template.HTML {
	typ := pick(n.String("inputType", "text"), "text", "text", "email", "password", "number", "url", "search", "date", "file")
	t := open("input").
		attr("type", typ).
		attr("name", n.String("name", "")).
		attr("value", n.String("value", "")).
		attr("placeholder", n.String("placeholder", "")).
		flag("required", n.Bool("required", false))
	if typ == "file" {
		t.attr("accept", n.String("accept", ""))
	}
	if a, ok := n.Action("onChange"); ok {
		t.bind(on.Bind(EventChange, a))
	}
	return field(n, t.void())
}

func renderTextarea(n Node, on Binder, _ Children) template.HTML {
	rows := n.Int("rows", 4)
	if rows < 1 {
		rows = 4
	}
	t := open("textarea").
		attr("name", n.String("name", "")).
		attr("rows", strconv.Itoa(rows)).
		attr("placeholder", n.String("placeholder", "")).
		flag("required", n.Bool("required", false))
	if a, ok := n.Action("onChange"); ok {
		t.bind(on.Bind(EventChange, a))
	}
	return field(n, t.body(text(n.String("value", ""))))
}

func selectOptions(n Node) []Option {
	var out []Option
	switch v := n.Props["options"].(type) {
	case []string:
		for _, s := range v {
			out = append(out, Option{Value: s, Label: s})
		}
	case []any:
		for _, x := range v {
			switch o := x.(type) {
			case string:
				out = append(out, Option{Value: o, Label: o})
			case map[string]any:
				val := Node{Props: o}.String("value", "")
				label := Node{Props: o}.String("label", val)
				out = append(out, Option{Value: val, Label: label})
			}
		}
	}
	return out
}

func renderSelect(n Node, on Binder, _ Children) template.HTML {
	current := n.String("value", "")
	var opts []template.HTML
	for _, o := range selectOptions(n) {
		opts = append(opts, open("option").
			attr("value", o.Value).
			flag("selected", o.Value == current).
			body(text(o.Label)))
	}
	t := open("select").attr("name", n.String("name", ""))
	if a, ok := n.Action("onChange"); ok {
		t.bind(on.Bind(EventChange, a))
	}
	return field(n, t.body(opts...))
}

func renderCheckbox(n Node, on Binder, _ Children) template.HTML {
	t := open("input").
		attr("type", "checkbox").
		attr("name", n.String("name", "")).
		attr("value", "true").
		flag("checked", n.Bool("checked", false))
	if a, ok := n.Action("onChange"); ok {
		t.bind(on.Bind(EventChange, a))
	}
	return element(n, "label", "a2ui-field").body(t.void(), open("span").body(text(n.String("label", ""))))
}

// ---------- table ----------

func tableColumns(n Node, rows []map[string]any) []TableColumn {
	var cols []TableColumn
	switch v := n.Props["columns"].(type) {
	case []string:
		for _, s := range v {
			cols = append(cols, TableColumn{Key: s, Label: s})
		}
	case []any:
		for _, x := range v {
			switch c := x.(type) {
			case string:
				cols = append(cols, TableColumn{Key: c, Label: c})
			case map[string]any:
				key := Node{Props: c}.String("key", "")
				if key == "" {
					continue
				}
				cols = append(cols, TableColumn{Key: key, Label: Node{Props: c}.String("label", key)})
			}
		}
	}
	if len(cols) > 0 || len(rows) == 0 {
		return cols
	}
	keys := make([]string, 0, len(rows[0]))
	for k := range rows[0] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		cols = append(cols, TableColumn{Key: k, Label: k})
	}
	return cols
}

// cellNode reports whether v is a nested node rather than a plain value.
func cellNode(v any) (Node, bool) {
	switch x := v.(type) {
	case Node:
		return x, true
	case map[string]any:
		if _, ok := x["type"].(string); ok {
			return toNode(x)
		}
	}
	return Node{}, false
}

func renderTable(n Node, on Binder, kids Children) template.HTML {
	rows := n.Objects("rows")
	cols := tableColumns(n, rows)
	rowClick, clickable := n.Action("onRowClick")

	var head []template.HTML
	for _, c := range cols {
		head = append(head, open("th").attr("scope", "col").body(text(c.Label)))
	}

	var body []template.HTML
	for i, r := range rows {
		tr := open("tr")
		rowID := cell(r["id"])
		if clickable {
			var arg any = i
			key := strconv.Itoa(i)
			if rowID != "" {
				arg, key = rowID, rowID
			}
			tr.attr("class", "a2ui-clickable").bind(on.BindItem(EventClick, rowClick.withArgs(arg), key))
		}
		var cells []template.HTML
		for _, c := range cols {
			v := r[c.Key]
			if nested, ok := cellNode(v); ok {
				if rowID != "" {
					cells = append(cells, open("td").body(kids.RenderKeyed(rowID+"_"+c.Key, nested)))
				} else {
					cells = append(cells, open("td").body(kids.Render(nested)))
				}
				continue
			}
			cells = append(cells, open("td").body(text(cellText(v))))
		}
		body = append(body, tr.body(cells...))
	}
	if len(rows) == 0 {
		span := len(cols)
		if span == 0 {
			span = 1
		}
		body = append(body, open("tr").body(
			open("td").attr("colspan", strconv.Itoa(span)).attr("class", "a2ui-table-empty").
				body(text(n.String("empty", "No rows"))),
		))
	}

	return element(n, "table", "").body(
		open("thead").body(open("tr").body(head...)),
		open("tbody").body(body...),
	)
}

func cellText(v any) string {
	switch x := v.(type) {
	case json.Number:
		return x.String()
	case []any, map[string]any:
		b, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(b)
	}
	return cell(v)
}
