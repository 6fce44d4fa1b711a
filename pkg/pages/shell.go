package pages

import (
	"html/template"
	"io"

	"github.com/joeydtaylor/contentops/pkg/a2ui"
)

// NavItem is one entry of the top navigation.
type NavItem struct {
	Label string
	Path  string
}

// Site holds what every page shares: the app name, navigation and the
// identity provider links.
type Site struct {
	Name      string
	Nav       []NavItem
	LoginURL  string
	LogoutURL string
}

// Shell wraps body with the navigation bar and the notice/error banners
// carried in the query string. The output depends only on its inputs so a
// page renders the same binding ids on GET and on action POSTs.
func (s Site) Shell(current string, req Request, body a2ui.Node) a2ui.Node {
	links := make([]a2ui.Node, 0, len(s.Nav))
	for _, it := range s.Nav {
		l := a2ui.Link(it.Label, it.Path)
		if it.Path == current {
			l = l.With("className", "active")
		}
		links = append(links, l)
	}

	var who a2ui.Node
	switch {
	case req.User.Username != "":
		who = a2ui.Row(a2ui.Badge(req.User.Username, "info"))
		if s.LogoutURL != "" {
			who = who.Append(a2ui.Link("Sign out", s.LogoutURL))
		}
	case s.LoginURL != "":
		who = a2ui.Link("Sign in", s.LoginURL)
	default:
		who = a2ui.Badge("anonymous", "neutral")
	}

	nav := a2ui.Row(
		a2ui.Text(s.Name).With("weight", "bold"),
		a2ui.Row(links...).With("gap", 12),
		who,
	).With("justify", "between").With("align", "center").With("className", "shell-nav")

	page := a2ui.Column(nav).With("gap", 16).With("className", "shell")
	if msg := req.Query.Get("notice"); msg != "" {
		page = page.Append(a2ui.Alert("success", msg))
	}
	if msg := req.Query.Get("error"); msg != "" {
		page = page.Append(a2ui.Alert("danger", msg))
	}
	return page.Append(body)
}

var documentTmpl = template.Must(template.New("document").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}} · {{.App}}</title>
<style>{{.CSS}}</style>
</head>
<body data-a2ui-actions="{{.Actions}}">
<main>{{.Body}}</main>
<script>{{.Script}}</script>
</body>
</html>
`))

// Document writes a complete HTML page around a rendered view. actionsURL is
// the endpoint binding ids are posted to.
func (s Site) Document(w io.Writer, title string, v *a2ui.View, actionsURL string) error {
	return documentTmpl.Execute(w, struct {
		Title, App, Actions string
		Body                template.HTML
		CSS                 template.CSS
		Script              template.JS
	}{
		Title:   title,
		App:     s.Name,
		Actions: actionsURL,
		Body:    v.HTML,
		CSS:     template.CSS(stylesheet),
		Script:  template.JS(shim),
	})
}

// shim posts each activated binding id back to the page's action endpoint
// and follows the returned redirect.
const shim = `(function () {
  var base = document.body.getAttribute("data-a2ui-actions");
  function send(id, value) {
    fetch(base + "/" + encodeURIComponent(id) + window.location.search, {
      method: "POST",
      credentials: "same-origin",
      headers: {"Content-Type": "application/json", "X-Requested-With": "a2ui"},
      body: JSON.stringify(value === undefined ? {} : {value: value})
    }).then(function (r) { return r.json(); }).then(function (out) {
      if (out.error && !out.redirect) { alert(out.error); return; }
      window.location.assign(out.redirect || window.location.href);
    }).catch(function (e) { alert(e); });
  }
  document.addEventListener("click", function (e) {
    var el = e.target.closest("[data-a2ui-click]");
    if (!el) { return; }
    e.preventDefault();
    send(el.getAttribute("data-a2ui-click"));
  });
  document.addEventListener("change", function (e) {
    var el = e.target.closest("[data-a2ui-change]");
    if (!el) { return; }
    send(el.getAttribute("data-a2ui-change"), el.type === "checkbox" ? el.checked : el.value);
  });
  document.addEventListener("submit", function (e) {
    var form = e.target.closest("[data-a2ui-submit]");
    if (!form) { return; }
    e.preventDefault();
    var value = {};
    new FormData(form).forEach(function (v, k) { value[k] = v; });
    form.querySelectorAll("input[type=checkbox][name]").forEach(function (c) { value[c.name] = c.checked; });
    send(form.getAttribute("data-a2ui-submit"), value);
  });
})();`

const stylesheet = `
body{font-family:system-ui,sans-serif;margin:0;background:#f6f7f9;color:#1f2328}
main{max-width:1120px;margin:0 auto;padding:24px}
.shell-nav{padding:12px 16px;background:#fff;border-radius:8px;box-shadow:0 1px 2px #0001}
.shell-nav .active{font-weight:600;text-decoration:underline}
.a2ui-card{background:#fff;border-radius:8px;padding:16px;box-shadow:0 1px 2px #0001}
.a2ui-card[data-a2ui-click]{cursor:pointer}
.a2ui-table{width:100%;border-collapse:collapse;background:#fff}
.a2ui-table th,.a2ui-table td{text-align:left;padding:8px;border-bottom:1px solid #e5e7eb}
.a2ui-clickable{cursor:pointer}
.a2ui-clickable:hover{background:#f3f4f6}
.a2ui-button{padding:6px 12px;border-radius:6px;border:1px solid #d0d7de;background:#fff;cursor:pointer}
.a2ui-button-primary{background:#1f6feb;color:#fff;border-color:#1f6feb}
.a2ui-button-danger{color:#cf222e}
.a2ui-field{display:flex;flex-direction:column;gap:4px;margin-bottom:8px}
.a2ui-badge{padding:2px 8px;border-radius:10px;font-size:12px;background:#eaeef2}
.a2ui-alert{padding:12px;border-radius:6px}
.a2ui-tone-info{background:#ddf4ff}.a2ui-tone-success{background:#dafbe1}
.a2ui-tone-warning{background:#fff8c5}.a2ui-tone-danger{background:#ffebe9}
.a2ui-modal-backdrop{position:fixed;inset:0;background:#0006;display:flex;align-items:center;justify-content:center}
.a2ui-modal{background:#fff;border-radius:8px;padding:16px;max-width:760px;width:90%;max-height:85vh;overflow:auto}
.a2ui-modal-header{display:flex;justify-content:space-between;align-items:center}
.a2ui-tab[aria-selected=true]{font-weight:600;border-bottom:2px solid #1f6feb}
.a2ui-image{max-width:100%;border-radius:6px}
.a2ui-unknown,.a2ui-failed{border:1px dashed #cf222e;padding:8px;color:#cf222e}
pre{overflow:auto;background:#f6f8fa;padding:8px}
`
