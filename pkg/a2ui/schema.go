package a2ui

import (
	"fmt"
	"strconv"
	"strings"
)

// FieldType is the expected shape of a prop.
type FieldType int

const (
	FieldString FieldType = iota
	FieldNumber
	FieldLength
	FieldBool
	FieldAction
	FieldNodes
	FieldList
	FieldEnum
)

func (t FieldType) String() string {
	switch t {
	case FieldString:
		return "string"
	case FieldNumber:
		return "number"
	case FieldLength:
		return "length"
	case FieldBool:
		return "bool"
	case FieldAction:
		return "action"
	case FieldNodes:
		return "nodes"
	case FieldList:
		return "list"
	case FieldEnum:
		return "enum"
	}
	return "FieldType(" + strconv.Itoa(int(t)) + ")"
}

// Field describes one prop of a kind. Default is what the renderer falls
// back to; nil means the prop is simply dropped.
type Field struct {
	Name    string
	Type    FieldType
	Default any
	Enum    []string
}

// Diagnostic reports a problem found in a tree. Path uses the same
// addressing as binding ids, slot nodes (card footers, table cells)
// included.
type Diagnostic struct {
	Path    string
	Kind    Kind
	Field   string
	Message string
}

func (d Diagnostic) String() string {
	if d.Field == "" {
		return fmt.Sprintf("%s (%s): %s", d.Path, d.Kind, d.Message)
	}
	return fmt.Sprintf("%s (%s).%s: %s", d.Path, d.Kind, d.Field, d.Message)
}

var (
	alignments = []string{"start", "center", "end", "stretch", "between", "around"}
	tones      = []string{"neutral", "info", "success", "warning", "danger"}
)

var commonFields = []Field{
	{Name: "width", Type: FieldLength},
	{Name: "height", Type: FieldLength},
	{Name: "padding", Type: FieldNumber},
	{Name: "gap", Type: FieldNumber},
	{Name: "align", Type: FieldEnum, Enum: alignments},
	{Name: "justify", Type: FieldEnum, Enum: alignments},
	{Name: "className", Type: FieldString},
	{Name: "hidden", Type: FieldBool, Default: false},
	{Name: "stopPropagation", Type: FieldBool, Default: false},
}

var schemas = map[Kind][]Field{
	KindColumn:    nil,
	KindRow:       {{Name: "wrap", Type: FieldBool, Default: false}},
	KindGrid:      {{Name: "columns", Type: FieldNumber, Default: 3}},
	KindContainer: nil,
	KindCard: {
		{Name: "title", Type: FieldString},
		{Name: "subtitle", Type: FieldString},
		{Name: "onClick", Type: FieldAction},
		{Name: "footer", Type: FieldNodes},
	},
	KindModal: {
		{Name: "title", Type: FieldString},
		{Name: "open", Type: FieldBool, Default: true},
		{Name: "onClose", Type: FieldAction},
	},
	KindTabs: {
		{Name: "items", Type: FieldList},
		{Name: "active", Type: FieldString},
		{Name: "onChange", Type: FieldAction},
	},
	KindList: nil,
	KindForm: {
		{Name: "onSubmit", Type: FieldAction},
		{Name: "submitLabel", Type: FieldString},
		{Name: "upload", Type: FieldString},
	},
	KindDivider: nil,
	KindSpacer:  {{Name: "size", Type: FieldNumber, Default: 16}},
	KindText: {
		{Name: "text", Type: FieldString},
		{Name: "variant", Type: FieldEnum, Default: "body", Enum: []string{"body", "h1", "h2", "h3", "h4", "caption", "muted"}},
		{Name: "color", Type: FieldEnum, Enum: []string{"default", "muted", "primary", "success", "warning", "danger"}},
		{Name: "weight", Type: FieldEnum, Enum: []string{"normal", "medium", "bold"}},
	},
	KindMarkdown: {{Name: "source", Type: FieldString}},
	KindCode: {
		{Name: "code", Type: FieldString},
		{Name: "language", Type: FieldString},
	},
	KindBadge: {
		{Name: "text", Type: FieldString},
		{Name: "tone", Type: FieldEnum, Default: "neutral", Enum: tones},
	},
	KindAlert: {
		{Name: "title", Type: FieldString},
		{Name: "text", Type: FieldString},
		{Name: "tone", Type: FieldEnum, Default: "info", Enum: tones},
	},
	KindStat: {
		{Name: "label", Type: FieldString},
		{Name: "value", Type: FieldString},
		{Name: "hint", Type: FieldString},
	},
	KindProgress: {
		{Name: "value", Type: FieldNumber, Default: 0},
		{Name: "max", Type: FieldNumber, Default: 100},
		{Name: "label", Type: FieldString},
	},
	KindEmpty: {
		{Name: "title", Type: FieldString},
		{Name: "text", Type: FieldString},
		{Name: "actionLabel", Type: FieldString},
		{Name: "onClick", Type: FieldAction},
	},
	KindImage: {
		{Name: "src", Type: FieldString},
		{Name: "alt", Type: FieldString},
		{Name: "onClick", Type: FieldAction},
	},
	KindLink: {
		{Name: "text", Type: FieldString},
		{Name: "href", Type: FieldString},
		{Name: "external", Type: FieldBool, Default: false},
	},
	KindButton: {
		{Name: "label", Type: FieldString},
		{Name: "onClick", Type: FieldAction},
		{Name: "variant", Type: FieldEnum, Default: "default", Enum: []string{"default", "primary", "secondary", "danger", "ghost"}},
		{Name: "submit", Type: FieldBool, Default: false},
		{Name: "disabled", Type: FieldBool, Default: false},
	},
	KindInput: {
		{Name: "name", Type: FieldString},
		{Name: "label", Type: FieldString},
		{Name: "value", Type: FieldString},
		{Name: "placeholder", Type: FieldString},
		{Name: "inputType", Type: FieldEnum, Default: "text", Enum: []string{"text", "email", "password", "number", "url", "search", "date", "file"}},
		{Name: "accept", Type: FieldString},
		{Name: "required", Type: FieldBool, Default: false},
		{Name: "onChange", Type: FieldAction},
	},
	KindTextarea: {
		{Name: "name", Type: FieldString},
		{Name: "label", Type: FieldString},
		{Name: "value", Type: FieldString},
		{Name: "placeholder", Type: FieldString},
		{Name: "rows", Type: FieldNumber, Default: 4},
		{Name: "required", Type: FieldBool, Default: false},
		{Name: "onChange", Type: FieldAction},
	},
	KindSelect: {
		{Name: "name", Type: FieldString},
		{Name: "label", Type: FieldString},
		{Name: "value", Type: FieldString},
		{Name: "options", Type: FieldList},
		{Name: "onChange", Type: FieldAction},
	},
	KindCheckbox: {
		{Name: "name", Type: FieldString},
		{Name: "label", Type: FieldString},
		{Name: "checked", Type: FieldBool, Default: false},
		{Name: "onChange", Type: FieldAction},
	},
	KindTable: {
		{Name: "columns", Type: FieldList},
		{Name: "rows", Type: FieldList},
		{Name: "onRowClick", Type: FieldAction},
		{Name: "empty", Type: FieldString},
	},
}

// Schema returns the prop table of a builtin kind, common fields first.
func Schema(kind Kind) ([]Field, bool) {
	own, ok := schemas[kind]
	if !ok {
		return nil, false
	}
	out := make([]Field, 0, len(commonFields)+len(own))
	out = append(out, commonFields...)
	return append(out, own...), true
}

// Validate walks the tree and reports unknown kinds and malformed props.
// It never changes the tree; rendering a tree with diagnostics still works.
func Validate(root Node) []Diagnostic {
	var out []Diagnostic
	walk(root, "n0", func(n Node, path string) {
		if _, ok := schemas[n.Type]; !ok {
			out = append(out, Diagnostic{Path: path, Kind: n.Type, Message: "unknown component"})
			return
		}
		out = append(out, checkFields(n, path)...)
	})
	return out
}

// Normalize returns a copy of root in which every malformed prop is replaced
// by its default (or removed), along with what was changed.
func Normalize(root Node) (Node, []Diagnostic) {
	var diags []Diagnostic
	out := normalize(root, "n0", &diags)
	return out, diags
}

func normalize(n Node, path string, diags *[]Diagnostic) Node {
	path = nodePath(n, path)
	if fields, ok := Schema(n.Type); ok {
		bad := checkFields(n, path)
		if len(bad) > 0 {
			*diags = append(*diags, bad...)
			props := make(map[string]any, len(n.Props))
			for k, v := range n.Props {
				props[k] = v
			}
			for _, d := range bad {
				f := fieldByName(fields, d.Field)
				if f.Default == nil {
					delete(props, d.Field)
				} else {
					props[d.Field] = f.Default
				}
			}
			n.Props = props
		}
	}
	if props := slotNodes(n, path, func(c Node, p string) Node { return normalize(c, p, diags) }); props != nil {
		n.Props = props
	}
	if len(n.Children) > 0 {
		kids := make([]Node, len(n.Children))
		for i, c := range n.Children {
			kids[i] = normalize(c, path+"."+strconv.Itoa(i), diags)
		}
		n.Children = kids
	}
	return n
}

func fieldByName(fields []Field, name string) Field {
	for _, f := range fields {
		if f.Name == name {
			return f
		}
	}
	return Field{Name: name}
}

func walk(n Node, path string, fn func(Node, string)) {
	path = nodePath(n, path)
	fn(n, path)
	slotNodes(n, path, func(c Node, p string) Node {
		walk(c, p, fn)
		return c
	})
	for i, c := range n.Children {
		walk(c, path+"."+strconv.Itoa(i), fn)
	}
}

// nodePath is the address of n: its id when set, else its position.
func nodePath(n Node, path string) string {
	if n.ID != "" {
		return "id-" + keyToken(n.ID)
	}
	return path
}

// slotNodes calls fn, in render order, for every node n holds in a prop
// rather than in Children, with the path the renderer gives it. fn returns
// the node to keep in its place. The result is a copy of n.Props carrying
// those nodes, or nil when n holds none.
func slotNodes(n Node, path string, fn func(Node, string) Node) map[string]any {
	fields, ok := Schema(n.Type)
	if !ok {
		return nil
	}
	var props map[string]any
	put := func(k string, v any) {
		if props == nil {
			props = make(map[string]any, len(n.Props))
			for k, v := range n.Props {
				props[k] = v
			}
		}
		props[k] = v
	}

	slots := 0
	for _, f := range fields {
		if f.Type != FieldNodes {
			continue
		}
		nodes := n.Nodes(f.Name)
		if len(nodes) == 0 {
			continue
		}
		out := make([]Node, len(nodes))
		for i, c := range nodes {
			slots++
			out[i] = fn(c, path+".s"+strconv.Itoa(slots))
		}
		put(f.Name, out)
	}

	if n.Type != KindTable {
		return props
	}
	rows := n.Objects("rows")
	cols := tableColumns(n, rows)
	out := make([]map[string]any, len(rows))
	nested := false
	for i, r := range rows {
		out[i] = r
		rowID := cell(r["id"])
		copied := false
		for _, c := range cols {
			cn, ok := cellNode(r[c.Key])
			if !ok {
				continue
			}
			p := path + ".k" + keyToken(rowID+"_"+c.Key)
			if rowID == "" {
				slots++
				p = path + ".s" + strconv.Itoa(slots)
			}
			if !copied {
				out[i] = make(map[string]any, len(r))
				for k, v := range r {
					out[i][k] = v
				}
				copied = true
			}
			nested = true
			out[i][c.Key] = fn(cn, p)
		}
	}
	if nested {
		put("rows", out)
	}
	return props
}

// checkFields reports props of n that are present but malformed. Kinds
// without a schema produce nothing.
func checkFields(n Node, path string) []Diagnostic {
	fields, ok := Schema(n.Type)
	if !ok {
		return nil
	}
	var out []Diagnostic
	for _, f := range fields {
		v, present := n.Props[f.Name]
		if !present || v == nil {
			continue
		}
		if msg := f.check(n, v); msg != "" {
			out = append(out, Diagnostic{Path: path, Kind: n.Type, Field: f.Name, Message: msg})
		}
	}
	return out
}

func (f Field) check(n Node, v any) string {
	switch f.Type {
	case FieldString:
		switch v.(type) {
		case string, float64, int, int64, bool:
			return ""
		}
		return fmt.Sprintf("want string, got %T", v)
	case FieldNumber:
		if _, ok := toFloat(v); !ok {
			return fmt.Sprintf("want number, got %v", v)
		}
	case FieldLength:
		if length(n, f.Name) == "" {
			return fmt.Sprintf("want a number or css length, got %v", v)
		}
	case FieldBool:
		switch x := v.(type) {
		case bool:
		case string:
			if _, err := strconv.ParseBool(strings.TrimSpace(x)); err != nil {
				return fmt.Sprintf("want bool, got %q", x)
			}
		default:
			return fmt.Sprintf("want bool, got %T", v)
		}
	case FieldAction:
		if _, ok := toAction(v); !ok {
			return "want an action with a name"
		}
	case FieldNodes:
		switch v.(type) {
		case Node, []Node, map[string]any, []any:
		default:
			return fmt.Sprintf("want node list, got %T", v)
		}
	case FieldList:
		switch v.(type) {
		case []any, []string, []map[string]any:
		default:
			return fmt.Sprintf("want list, got %T", v)
		}
	case FieldEnum:
		s, _ := v.(string)
		for _, e := range f.Enum {
			if s == e {
				return ""
			}
		}
		return fmt.Sprintf("want one of %s, got %v", strings.Join(f.Enum, "|"), v)
	}
	return ""
}
