package pages

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joeydtaylor/contentops/pkg/a2ui"
	"github.com/joeydtaylor/contentops/pkg/blob"
	"github.com/joeydtaylor/contentops/pkg/events"
	"github.com/joeydtaylor/contentops/pkg/middleware/auth"
	"github.com/joeydtaylor/contentops/pkg/store"
	"github.com/joeydtaylor/contentops/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type doerFunc func(*http.Request) (*http.Response, error)

func (f doerFunc) Do(r *http.Request) (*http.Response, error) { return f(r) }

// n8n accepts every submission and reports it running.
func n8n(w http.ResponseWriter, r *http.Request) {
	var s workflow.Submission
	_ = json.NewDecoder(r.Body).Decode(&s)
	io.WriteString(w, `{"executionId":"exec-`+s.TaskID+`","status":"running"}`)
}

type fixture struct {
	deps   Deps
	reg    *Registry
	store  *store.Store
	blob   *blob.Memory
	events *events.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "pages.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	doer := doerFunc(func(r *http.Request) (*http.Response, error) {
		rec := httptest.NewRecorder()
		n8n(rec, r)
		return rec.Result(), nil
	})
	rec := &events.Recorder{}
	log := zaptest.NewLogger(t)
	client := workflow.NewClient(workflow.Config{
		GenerateURL: "http://n8n/webhook/generate",
		ReverseURL:  "http://n8n/webhook/reverse",
	}, doer)

	f := &fixture{store: st, blob: blob.NewMemory(""), events: rec}
	f.deps = Deps{
		Store:    st,
		Workflow: workflow.NewService(client, st, rec, log),
		Blob:     f.blob,
		Events:   rec,
		Log:      log,
		Site:     Site{Name: "contentops", LoginURL: "https://id.example.com/login"},
	}
	f.reg, err = Default(f.deps)
	require.NoError(t, err)
	return f
}

type call struct {
	name string
	args []any
}

// render builds and renders page for req, recording dispatched actions.
func (f *fixture) render(t *testing.T, page string, req Request) (*a2ui.View, *[]call) {
	t.Helper()
	p, ok := f.reg.Lookup(page)
	require.True(t, ok, page)
	root, err := p.Build(context.Background(), req)
	require.NoError(t, err)
	calls := &[]call{}
	v := a2ui.NewRenderer(nil).Render(root, func(name string, args []any) {
		*calls = append(*calls, call{name, args})
	})
	return v, calls
}

func (f *fixture) run(t *testing.T, page string, req Request, c call) Outcome {
	t.Helper()
	p, _ := f.reg.Lookup(page)
	out, err := Dispatch(context.Background(), p, req, c.name, c.args)
	require.NoError(t, err)
	return out
}

func bindingFor(t *testing.T, v *a2ui.View, action, arg0 string) a2ui.Binding {
	t.Helper()
	for _, b := range v.Bindings() {
		if b.Action.Name == action && (arg0 == "" || argString(b.Action.Args, 0) == arg0) {
			return b
		}
	}
	t.Fatalf("no binding for %s(%s)", action, arg0)
	return a2ui.Binding{}
}

func req(path string, kv ...string) Request {
	q := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		q.Set(kv[i], kv[i+1])
	}
	return Request{User: auth.User{Username: "ana"}, Query: q, Path: path}
}

func TestRegistry(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, []string{"articles", "dashboard", "images", "login", "prompts", "styles"}, f.reg.Names())

	err := f.reg.Register(&Login{})
	assert.True(t, errors.Is(err, ErrDuplicatePage))

	p, _ := f.reg.Lookup("dashboard")
	_, err = Dispatch(context.Background(), p, Request{}, "nope", nil)
	assert.True(t, errors.Is(err, ErrUnknownAction))
}

func TestRequestLink(t *testing.T) {
	r := Request{Path: "/articles"}
	assert.Equal(t, "/articles", r.Link())
	assert.Equal(t, "/articles", r.Link("id", ""))
	assert.Equal(t, "/articles?id=7&modal=task", r.Link("modal", "task", "id", "7"))
}

func TestArgHelpers(t *testing.T) {
	args := []any{"x", 2.5, map[string]any{"topic": " Go ", "draft": true}}
	assert.Equal(t, "x", argString(args, 0))
	assert.Equal(t, "2.5", argString(args, 1))
	assert.Equal(t, "", argString(args, 9))
	assert.Equal(t, map[string]string{"topic": "Go", "draft": "true"}, formArg(args))
	assert.Empty(t, formArg(nil))
}

func TestOutcomeMerge(t *testing.T) {
	o := Outcome{Redirect: "/a", Notice: "one"}.Merge(Outcome{Error: "bad"})
	assert.Equal(t, Outcome{Redirect: "/a", Notice: "one", Error: "bad"}, o)
}

func TestShellIsDeterministic(t *testing.T) {
	site := Site{Name: "contentops", Nav: []NavItem{{"Dashboard", "/"}, {"Articles", "/articles"}}}
	r := req("/articles", "notice", "Saved")
	body := a2ui.Button("Go", a2ui.Act("go"))

	ren := a2ui.NewRenderer(nil)
	a := ren.Render(site.Shell("/articles", r, body), nil)
	b := ren.Render(site.Shell("/articles", r, body), nil)
	assert.Equal(t, a.Bindings(), b.Bindings())
	assert.Equal(t, a.HTML, b.HTML)
	assert.Contains(t, string(a.HTML), "Saved")
	assert.Contains(t, string(a.HTML), `class="active"`)

	var sb strings.Builder
	require.NoError(t, site.Document(&sb, "Articles", a, "/articles/actions"))
	doc := sb.String()
	assert.Contains(t, doc, `data-a2ui-actions="/articles/actions"`)
	assert.Contains(t, doc, "<title>Articles · contentops</title>")
	assert.Contains(t, doc, "X-Requested-With")
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := &store.Task{Mode: store.ModeGenerate, Topic: "x"}
	require.NoError(t, f.store.CreateTask(ctx, task))
	require.NoError(t, f.store.CompleteTask(ctx, task.ID, "one two three", "", 3))

	v, calls := f.render(t, "dashboard", req("/"))
	html := string(v.HTML)
	assert.Contains(t, html, "Words generated")
	assert.Contains(t, html, "Success rate")

	require.NoError(t, v.Activate(bindingFor(t, v, "refresh", "").ID))
	assert.Equal(t, []call{{name: "refresh"}}, *calls)
}

func TestArticlesSubmitAndView(t *testing.T) {
	f := newFixture(t)
	r := req("/articles")

	v, calls := f.render(t, "articles", r)
	form := bindingFor(t, v, "submitArticle", "")
	assert.Equal(t, a2ui.EventSubmit, form.Event)
	require.NoError(t, v.Activate(form.ID, map[string]any{"topic": "Go 1.23", "mode": "generate"}))
	require.Len(t, *calls, 1)

	out := f.run(t, "articles", r, (*calls)[0])
	assert.Equal(t, "Task submitted", out.Notice)
	assert.Empty(t, out.Error)

	tasks, err := f.store.ListTasks(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, store.StatusRunning, tasks[0].Status)
	assert.Equal(t, "ana", tasks[0].CreatedBy)
	assert.Equal(t, "/articles?id="+tasks[0].ID+"&modal=task", out.Redirect)
	assert.Equal(t, []string{events.TaskSubmitted}, f.events.Types())

	// row click opens the task
	v, calls = f.render(t, "articles", r)
	require.NoError(t, v.Activate(bindingFor(t, v, "viewTask", tasks[0].ID).ID))
	require.Equal(t, []call{{"viewTask", []any{tasks[0].ID}}}, *calls)

	// the delete button does not bubble into the row
	*calls = nil
	require.NoError(t, v.Activate(bindingFor(t, v, "deleteTask", tasks[0].ID).ID))
	require.Equal(t, []call{{"deleteTask", []any{tasks[0].ID}}}, *calls)

	mv, _ := f.render(t, "articles", req("/articles", "modal", "task", "id", tasks[0].ID))
	assert.Contains(t, string(mv.HTML), "still running")

	out = f.run(t, "articles", r, (*calls)[0])
	assert.Equal(t, "Task deleted", out.Notice)
	_, err = f.store.GetTask(context.Background(), tasks[0].ID)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestArticlesDeleteSurvivesNewerTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := req("/articles")
	older := &store.Task{Mode: store.ModeGenerate, Topic: "Older"}
	require.NoError(t, f.store.CreateTask(ctx, older))

	v, _ := f.render(t, "articles", r)
	del := bindingFor(t, v, "deleteTask", older.ID).ID

	// another user submits before the click is posted back
	newer := &store.Task{Mode: store.ModeGenerate, Topic: "Newer"}
	require.NoError(t, f.store.CreateTask(ctx, newer))

	v, calls := f.render(t, "articles", r)
	require.NoError(t, v.Activate(del))
	assert.Equal(t, []call{{"deleteTask", []any{older.ID}}}, *calls)
	assert.NotEqual(t, del, bindingFor(t, v, "deleteTask", newer.ID).ID)
}

func TestArticlesBadMode(t *testing.T) {
	f := newFixture(t)
	out := f.run(t, "articles", req("/articles"), call{"submitArticle", []any{map[string]any{"topic": "x", "mode": "poem"}}})
	assert.NotEmpty(t, out.Error)
	assert.Empty(t, out.Redirect)
}

func TestArticlesTabs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := &store.Task{Mode: store.ModeGenerate, Topic: "Tabs"}
	require.NoError(t, f.store.CreateTask(ctx, task))
	require.NoError(t, f.store.CompleteTask(ctx, task.ID, "# Hello", "<h1 style=\"x\">Hello</h1>", 1))

	r := req("/articles", "modal", "task", "id", task.ID)
	v, calls := f.render(t, "articles", r)
	assert.Contains(t, string(v.HTML), "<h1")

	require.NoError(t, v.Activate(bindingFor(t, v, "switchTab", task.ID).ID))
	require.Len(t, *calls, 1)
	out := f.run(t, "articles", r, (*calls)[0])
	assert.Equal(t, "/articles?id="+task.ID+"&modal=task&tab=wechat", out.Redirect)

	*calls = nil
	require.NoError(t, v.Activate(bindingFor(t, v, "closeTask", "").ID))
	out = f.run(t, "articles", r, (*calls)[0])
	assert.Equal(t, "/articles", out.Redirect)
}

func TestPrompts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := req("/prompts")

	v, _ := f.render(t, "prompts", r)
	assert.Contains(t, string(v.HTML), "No prompts yet")

	out := f.run(t, "prompts", r, call{"createPrompt", []any{map[string]any{"name": "listicle", "body": "Ten tips"}}})
	assert.Equal(t, "Prompt created", out.Notice)
	list, err := f.store.ListPrompts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	id := list[0].ID

	out = f.run(t, "prompts", r, call{"createPrompt", []any{map[string]any{"name": "empty"}}})
	assert.NotEmpty(t, out.Error)

	v, calls := f.render(t, "prompts", r)
	require.NoError(t, v.Activate(bindingFor(t, v, "openPrompt", id).ID))
	assert.Equal(t, []call{{"openPrompt", []any{id}}}, *calls)

	*calls = nil
	require.NoError(t, v.Activate(bindingFor(t, v, "deletePrompt", id).ID))
	assert.Equal(t, []call{{"deletePrompt", []any{id}}}, *calls, "delete must not open the card")

	edit := req("/prompts", "modal", "prompt", "id", id)
	v, calls = f.render(t, "prompts", edit)
	assert.Contains(t, string(v.HTML), "Ten tips")
	require.NoError(t, v.Activate(bindingFor(t, v, "updatePrompt", id).ID,
		map[string]any{"name": "listicle", "category": "growth", "body": "Twelve tips"}))
	out = f.run(t, "prompts", edit, (*calls)[0])
	assert.Equal(t, "Prompt saved", out.Notice)

	got, err := f.store.GetPrompt(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Twelve tips", got.Body)
	assert.Equal(t, "growth", got.Category)
}

func TestStylesAnalyze(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := req("/styles")

	out := f.run(t, "styles", r, call{"analyzeStyle", []any{map[string]any{"name": "Calm", "sourceUrl": "https://example.com/a"}}})
	assert.Equal(t, "Analysis started", out.Notice)

	styles, err := f.store.ListStyles(ctx)
	require.NoError(t, err)
	require.Len(t, styles, 1)
	st := styles[0]
	assert.Equal(t, store.StyleAnalyzing, st.Status)
	require.NotEmpty(t, st.TaskID)

	task, err := f.store.GetTask(ctx, st.TaskID)
	require.NoError(t, err)
	assert.Equal(t, store.ModeReverse, task.Mode)
	assert.Equal(t, st.ID, task.StyleID)

	_, err = f.deps.Workflow.HandleCallback(ctx, workflow.Result{TaskID: task.ID, Status: workflow.StateCompleted, Content: "Short sentences."})
	require.NoError(t, err)

	v, _ := f.render(t, "styles", req("/styles", "modal", "style", "id", st.ID))
	assert.Contains(t, string(v.HTML), "Short sentences.")

	out = f.run(t, "styles", r, call{"analyzeStyle", []any{map[string]any{"name": "x"}}})
	assert.NotEmpty(t, out.Error)
}

func TestImagesDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	obj, err := f.blob.Put(ctx, "images/a.png", "image/png", strings.NewReader("png"), 3)
	require.NoError(t, err)
	im := &store.Image{Key: obj.Key, URL: obj.URL, Name: "a.png", ContentType: "image/png", Size: 3}
	require.NoError(t, f.store.CreateImage(ctx, im))

	v, calls := f.render(t, "images", req("/images"))
	html := string(v.HTML)
	assert.Contains(t, html, `action="/api/images?redirect=/images"`)
	assert.Contains(t, html, `enctype="multipart/form-data"`)
	assert.Contains(t, html, `src="/blob/images/a.png"`)

	require.NoError(t, v.Activate(bindingFor(t, v, "deleteImage", im.ID).ID))
	require.Equal(t, []call{{"deleteImage", []any{im.ID}}}, *calls)

	out := f.run(t, "images", req("/images"), (*calls)[0])
	assert.Equal(t, "Image deleted", out.Notice)
	assert.Equal(t, 0, f.blob.Len())
	assert.Equal(t, []string{events.ImageDeleted}, f.events.Types())
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	v, _ := f.render(t, "login", Request{Path: "/login"})
	assert.Contains(t, string(v.HTML), "https://id.example.com/login")

	v, _ = f.render(t, "login", req("/login"))
	assert.Contains(t, string(v.HTML), "signed in as ana")
}
