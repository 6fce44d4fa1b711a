package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&errOut)
	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestRenderFromStdin(t *testing.T) {
	tree := `{"type":"column","children":[
		{"type":"text","text":"Hello <world>"},
		{"type":"button","label":"Go","onClick":{"action":"go"}}
	]}`
	out, _, err := run(t, tree, "render", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "Hello &lt;world&gt;")
	assert.Contains(t, out, `data-a2ui-click=`)
	assert.NotContains(t, out, "<html")
}

func TestRenderDocumentAndDiagnostics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"type":"column","children":[{"type":"sparkline"}]}`), 0o644))

	out, errOut, err := run(t, "", "render", "--document", "--title", "Preview", path)
	require.NoError(t, err)
	assert.Contains(t, out, "<title>")
	assert.Contains(t, out, "Preview")
	assert.Contains(t, errOut, "unknown component")

	_, _, err = run(t, "", "render", "--strict", path)
	assert.Error(t, err)
}

func TestRenderRejectsBadJSON(t *testing.T) {
	_, _, err := run(t, "{", "render", "-")
	assert.Error(t, err)
}

func TestPromptsImportIsIdempotentByName(t *testing.T) {
	db := filepath.Join(t.TempDir(), "data", "test.db")
	doc := `
- name: Weekly digest
  category: newsletter
  body: Summarize the week.
- name: Explainer
  body: Explain the topic plainly.
`
	out, _, err := run(t, doc, "prompts", "import", "--db", db, "-")
	require.NoError(t, err)
	assert.Equal(t, "2 created, 0 updated\n", out)

	out, _, err = run(t, strings.Replace(doc, "plainly", "simply", 1), "prompts", "import", "--db", db, "-")
	require.NoError(t, err)
	assert.Equal(t, "0 created, 2 updated\n", out)

	out, _, err = run(t, "", "prompts", "export", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "name: Explainer")
	assert.Contains(t, out, "Explain the topic simply.")
	assert.NotContains(t, out, "id:")

	out, _, err = run(t, "", "prompts", "list", "--db", db)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "Explainer"))
	assert.True(t, strings.HasPrefix(lines[2], "Weekly digest"))
}

func TestPromptsImportRejectsNamelessEntry(t *testing.T) {
	db := filepath.Join(t.TempDir(), "test.db")
	_, _, err := run(t, "- body: no name\n", "prompts", "import", "--db", db, "-")
	assert.Error(t, err)
}

func TestPromptsNeedsManifestWithoutDB(t *testing.T) {
	_, _, err := run(t, "", "prompts", "list", "--manifest", filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
