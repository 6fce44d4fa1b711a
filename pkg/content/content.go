// Package content converts generated article markdown into the forms the
// dashboard shows and exports.
package content

import (
	"bytes"
	"html/template"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	md     = goldmark.New(goldmark.WithExtensions(extension.GFM))
	policy = bluemonday.UGCPolicy()
)

// Markdown renders GitHub-flavored markdown to sanitized HTML.
func Markdown(src string) template.HTML {
	if strings.TrimSpace(src) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(policy.SanitizeBytes(buf.Bytes()))
}

// wechatStyles are inlined onto each tag; the WeChat editor drops classes
// and <style> blocks on paste.
var wechatStyles = map[atom.Atom]string{
	atom.H1:         "font-size:22px;font-weight:bold;margin:24px 0 12px;color:#222",
	atom.H2:         "font-size:20px;font-weight:bold;margin:22px 0 10px;color:#222;border-left:4px solid #07c160;padding-left:8px",
	atom.H3:         "font-size:17px;font-weight:bold;margin:18px 0 8px;color:#333",
	atom.P:          "font-size:15px;line-height:1.75;margin:0 0 14px;color:#333;letter-spacing:0.5px",
	atom.Blockquote: "margin:14px 0;padding:8px 14px;border-left:3px solid #ddd;color:#666;background:#f7f7f7",
	atom.Ul:         "margin:0 0 14px;padding-left:22px",
	atom.Ol:         "margin:0 0 14px;padding-left:22px",
	atom.Li:         "font-size:15px;line-height:1.75;color:#333",
	atom.Code:       "font-family:Menlo,Consolas,monospace;font-size:13px;background:#f3f3f3;padding:2px 4px;border-radius:3px",
	atom.Pre:        "background:#f6f8fa;padding:12px;overflow-x:auto;border-radius:4px;font-size:13px;line-height:1.5",
	atom.A:          "color:#576b95;text-decoration:none",
	atom.Strong:     "font-weight:bold;color:#222",
	atom.Img:        "max-width:100%;display:block;margin:12px auto",
	atom.Table:      "border-collapse:collapse;width:100%;margin:0 0 14px",
	atom.Th:         "border:1px solid #ddd;padding:6px 8px;background:#f7f7f7;font-weight:bold",
	atom.Td:         "border:1px solid #ddd;padding:6px 8px",
	atom.Hr:         "border:none;border-top:1px solid #eee;margin:20px 0",
}

// WeChat renders markdown to HTML with every style inlined, ready to paste
// into the WeChat official-account editor.
func WeChat(src string) (string, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(string(Markdown(src))), body)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	buf.WriteString(`<section style="font-family:-apple-system,BlinkMacSystemFont,'PingFang SC','Microsoft YaHei',sans-serif;padding:0 4px">`)
	for _, n := range nodes {
		inline(n)
		if err := html.Render(&buf, n); err != nil {
			return "", err
		}
	}
	buf.WriteString(`</section>`)
	return buf.String(), nil
}

func inline(n *html.Node) {
	if n.Type == html.ElementNode {
		if style, ok := wechatStyles[n.DataAtom]; ok {
			// code inside pre keeps the block styling
			if n.DataAtom == atom.Code && n.Parent != nil && n.Parent.DataAtom == atom.Pre {
				style = "font-family:Menlo,Consolas,monospace"
			}
			setStyle(n, style)
		}
		removeAttr(n, "class")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		inline(c)
	}
}

func setStyle(n *html.Node, style string) {
	for i, a := range n.Attr {
		if a.Key == "style" {
			n.Attr[i].Val = style + ";" + a.Val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: "style", Val: style})
}

func removeAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != key {
			out = append(out, a)
		}
	}
	n.Attr = out
}

func isCJK(r rune) bool {
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul)
}

// WordCount counts CJK characters one by one and every other run of
// letters or digits as one word.
func WordCount(s string) int {
	count := 0
	inWord := false
	for _, r := range s {
		switch {
		case isCJK(r):
			count++
			inWord = false
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if !inWord {
				count++
				inWord = true
			}
		case r == '\'' || r == '-':
			// contractions and hyphenated words stay one word
		default:
			inWord = false
		}
	}
	return count
}

// Excerpt returns the first limit runes of the plain text of markdown src.
func Excerpt(src string, limit int) string {
	var b strings.Builder
	for _, line := range strings.Split(src, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#>-*` "))
		if line == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(line)
	}
	r := []rune(b.String())
	if limit <= 0 || len(r) <= limit {
		return string(r)
	}
	return strings.TrimSpace(string(r[:limit])) + "…"
}
