package a2ui

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlatWireForm(t *testing.T) {
	n, err := Parse([]byte(`{
		"type": "card",
		"id": "c1",
		"title": "Hello",
		"onClick": {"action": "open", "args": ["p1"]},
		"children": [{"type": "text", "text": "hi", "variant": "h2"}]
	}`))
	require.NoError(t, err)

	want := Node{
		Type: KindCard,
		ID:   "c1",
		Props: map[string]any{
			"title":   "Hello",
			"onClick": map[string]any{"action": "open", "args": []any{"p1"}},
		},
		Children: []Node{
			{Type: KindText, Props: map[string]any{"text": "hi", "variant": "h2"}},
		},
	}
	if diff := cmp.Diff(want, n); diff != "" {
		t.Fatalf("parsed node mismatch (-want +got):\n%s", diff)
	}

	a, ok := n.Action("onClick")
	require.True(t, ok)
	assert.Equal(t, Action{Name: "open", Args: []any{"p1"}}, a)
}

func TestParseIsLenient(t *testing.T) {
	n, err := Parse([]byte(`{"type": 7, "id": false, "children": "nope", "text": "x"}`))
	require.NoError(t, err)
	assert.Equal(t, Kind(""), n.Type)
	assert.Empty(t, n.ID)
	assert.Nil(t, n.Children)
	assert.Equal(t, "x", n.String("text", ""))

	n, err = Parse([]byte(`{"type": "column", "children": [1, {"type": "text"}]}`))
	require.NoError(t, err)
	require.Len(t, n.Children, 2)
	assert.Equal(t, Kind(""), n.Children[0].Type)
	assert.Equal(t, KindText, n.Children[1].Type)

	_, err = Parse([]byte(`[1, 2]`))
	assert.Error(t, err)
}

func TestMarshalIsFlat(t *testing.T) {
	b, err := json.Marshal(Text("hi").WithID("t1"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"text","id":"t1","text":"hi"}`, string(b))

	back, err := Parse(b)
	require.NoError(t, err)
	want := Node{Type: KindText, ID: "t1", Props: map[string]any{"text": "hi"}}
	assert.True(t, cmp.Equal(want, back), cmp.Diff(want, back))
}

func TestAccessorsFallBack(t *testing.T) {
	n := New(KindText).
		With("w", "abc").
		With("n", "12").
		With("f", 2.9).
		With("b", "true").
		With("bad", []int{1}).
		With("list", []any{"a", 2, "b"}).
		With("objs", []any{map[string]any{"k": 1}, "skip"})

	assert.Equal(t, 5, n.Int("w", 5))
	assert.Equal(t, 12, n.Int("n", 0))
	assert.Equal(t, 2, n.Int("f", 0))
	assert.Equal(t, 2.9, n.Float("f", 0))
	assert.True(t, n.Bool("b", false))
	assert.True(t, n.Bool("bad", true))
	assert.Equal(t, "dflt", n.String("bad", "dflt"))
	assert.Equal(t, "2.9", n.String("f", ""))
	assert.Equal(t, []string{"a", "b"}, n.Strings("list"))
	assert.Len(t, n.Objects("objs"), 1)
	assert.Nil(t, n.Nodes("missing"))

	_, ok := n.Action("missing")
	assert.False(t, ok)
	a, ok := New(KindButton).With("onClick", "save").Action("onClick")
	require.True(t, ok)
	assert.Equal(t, "save", a.Name)
}

func TestWithDoesNotAlias(t *testing.T) {
	base := Text("a")
	changed := base.With("text", "b")
	assert.Equal(t, "a", base.String("text", ""))
	assert.Equal(t, "b", changed.String("text", ""))

	parent := Column(Text("x"))
	grown := parent.Append(Text("y"))
	assert.Len(t, parent.Children, 1)
	assert.Len(t, grown.Children, 2)
}

func TestValidateAndNormalize(t *testing.T) {
	tree := Column(
		Text("hi").With("variant", "h9").With("gap", true),
		New("mystery"),
		Button("ok", Act("go")).With("onClick", map[string]any{"args": []any{1}}),
	)

	diags := Validate(tree)
	require.Len(t, diags, 4)
	assert.Equal(t, Diagnostic{Path: "n0.0", Kind: KindText, Field: "gap", Message: diags[0].Message}, diags[0])
	assert.Equal(t, "variant", diags[1].Field)
	assert.Equal(t, Diagnostic{Path: "n0.1", Kind: "mystery", Message: "unknown component"}, diags[2])
	assert.Equal(t, "onClick", diags[3].Field)

	fixed, changes := Normalize(tree)
	assert.Len(t, changes, 3)
	assert.Equal(t, "body", fixed.Children[0].String("variant", ""))
	_, hasGap := fixed.Children[0].Prop("gap")
	assert.False(t, hasGap)
	_, hasClick := fixed.Children[2].Prop("onClick")
	assert.False(t, hasClick)

	// the input is left alone
	assert.Equal(t, "h9", tree.Children[0].String("variant", ""))
	assert.Len(t, Validate(fixed), 1)
}

func TestValidateReachesSlotNodes(t *testing.T) {
	cols := []TableColumn{{Key: "name", Label: "Name"}, {Key: "status", Label: "Status"}}
	tree := Column(
		Card("c", Text("body")).With("footer", []any{
			map[string]any{"type": "button", "label": "Go", "variant": "huge"},
		}),
		Table(cols, []map[string]any{
			{"id": "t1", "name": "keyed", "status": New(KindBadge).With("tone", "loud")},
			{"name": "loose", "status": Text("x").With("variant", "h9")},
		}),
	)

	diags := Validate(tree)
	require.Len(t, diags, 3)
	assert.Equal(t, Diagnostic{Path: "n0.0.s1", Kind: KindButton, Field: "variant", Message: diags[0].Message}, diags[0])
	assert.Equal(t, Diagnostic{Path: "n0.1.kt1_status", Kind: KindBadge, Field: "tone", Message: diags[1].Message}, diags[1])
	assert.Equal(t, Diagnostic{Path: "n0.1.s1", Kind: KindText, Field: "variant", Message: diags[2].Message}, diags[2])

	fixed, changes := Normalize(tree)
	assert.Len(t, changes, 3)
	assert.Empty(t, Validate(fixed))
	assert.Equal(t, "default", fixed.Children[0].Nodes("footer")[0].String("variant", ""))
	rows := fixed.Children[1].Objects("rows")
	require.Len(t, rows, 2)
	assert.Equal(t, "neutral", rows[0]["status"].(Node).String("tone", ""))
	assert.Equal(t, "body", rows[1]["status"].(Node).String("variant", ""))

	// the input is left alone
	assert.Equal(t, "loud", tree.Children[1].Objects("rows")[0]["status"].(Node).String("tone", ""))
}
