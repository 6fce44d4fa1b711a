package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdown(t *testing.T) {
	t.Run("renders gfm", func(t *testing.T) {
		out := string(Markdown("# Title\n\n| a | b |\n|---|---|\n| 1 | 2 |\n"))
		assert.Contains(t, out, "<h1>Title</h1>")
		assert.Contains(t, out, "<table>")
		assert.Contains(t, out, "<td>1</td>")
	})

	t.Run("drops raw html", func(t *testing.T) {
		out := string(Markdown("hi <script>alert(1)</script>"))
		assert.NotContains(t, out, "<script")
		assert.Contains(t, out, "hi")
	})

	t.Run("keeps safe links", func(t *testing.T) {
		out := string(Markdown("[site](https://example.com) [bad](javascript:alert(1))"))
		assert.Contains(t, out, `href="https://example.com"`)
		assert.NotContains(t, out, "javascript:")
	})

	t.Run("empty source", func(t *testing.T) {
		assert.Empty(t, Markdown("  \n"))
	})
}

func TestWeChat(t *testing.T) {
	out, err := WeChat("## Section\n\nBody with `code`.\n\n```\nblock\n```")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "<section"))
	assert.True(t, strings.HasSuffix(out, "</section>"))
	assert.Contains(t, out, `<h2 style="font-size:20px`)
	assert.Contains(t, out, `<p style="font-size:15px`)
	assert.Contains(t, out, `<pre style="background:#f6f8fa`)
	assert.NotContains(t, out, "class=")
}

func TestWordCount(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"hello world", 2},
		{"你好世界", 4},
		{"Go 语言 rocks", 4},
		{"don't stop-motion", 2},
		{"  spaced   out\n\nlines ", 3},
		{"v1.2 release", 3},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, WordCount(c.in), c.in)
	}
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "Title Some…", Excerpt("# Title\n\nSome body text", 10))
	assert.Equal(t, "short", Excerpt("short", 10))
	assert.Equal(t, "a b", Excerpt("> a\n- b", 0))
}
