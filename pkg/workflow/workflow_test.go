package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/joeydtaylor/contentops/pkg/events"
	"github.com/joeydtaylor/contentops/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

// doerFunc serves requests in-process so no transport goroutines linger.
type doerFunc func(*http.Request) (*http.Response, error)

func (f doerFunc) Do(r *http.Request) (*http.Response, error) { return f(r) }

func serve(h http.HandlerFunc) HTTPDoer {
	return doerFunc(func(r *http.Request) (*http.Response, error) {
		rec := httptest.NewRecorder()
		h(rec, r)
		return rec.Result(), nil
	})
}

// fakeN8N answers generate/reverse webhooks and status polls.
type fakeN8N struct {
	mu       sync.Mutex
	results  map[string]string // execution id -> status body
	submits  []Submission
	secrets  []string
	syncBody string
}

func (f *fakeN8N) handler(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.secrets = append(f.secrets, r.Header.Get(SecretHeader))
	switch {
	case r.Method == http.MethodPost:
		var s Submission
		_ = json.NewDecoder(r.Body).Decode(&s)
		f.submits = append(f.submits, s)
		if f.syncBody != "" {
			io.WriteString(w, f.syncBody)
			return
		}
		io.WriteString(w, `{"executionId":"exec-`+s.TaskID+`","status":"running"}`)
	case strings.HasPrefix(r.URL.Path, "/status/"):
		body, ok := f.results[strings.TrimPrefix(r.URL.Path, "/status/")]
		if !ok {
			io.WriteString(w, `{"status":"running"}`)
			return
		}
		io.WriteString(w, body)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeN8N) finish(execID, body string) {
	f.mu.Lock()
	f.results[execID] = body
	f.mu.Unlock()
}

var testConfig = Config{
	GenerateURL: "http://n8n/webhook/generate",
	ReverseURL:  "http://n8n/webhook/reverse",
	StatusURL:   "http://n8n/status/{id}",
	CallbackURL: "http://app/api/workflow/callback",
	Secret:      "s3cret",
}

func setup(t *testing.T) (*Service, *fakeN8N, *events.Recorder, *store.Store) {
	t.Helper()
	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "wf.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	fake := &fakeN8N{results: map[string]string{}}
	rec := &events.Recorder{}
	svc := NewService(NewClient(testConfig, serve(fake.handler)), st, rec, zaptest.NewLogger(t))
	return svc, fake, rec, st
}

func TestResultNormalization(t *testing.T) {
	tru := true
	cases := []struct {
		name string
		in   wireResult
		want State
	}{
		{"success", wireResult{Status: "success"}, StateCompleted},
		{"error", wireResult{Status: "Error"}, StateFailed},
		{"waiting", wireResult{Status: "waiting"}, StateRunning},
		{"finished flag", wireResult{Finished: &tru}, StateCompleted},
		{"bare content", wireResult{Output: "# hi"}, StateCompleted},
		{"bare error", wireResult{Error: "quota"}, StateFailed},
		{"nothing", wireResult{}, StateRunning},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.in.result().Status)
		})
	}
	assert.Equal(t, "workflow failed", wireResult{Status: "crashed"}.result().Error)
}

func TestSubmitNeedsWebhook(t *testing.T) {
	c := NewClient(Config{}, serve(func(http.ResponseWriter, *http.Request) {}))
	_, err := c.Submit(context.Background(), Submission{Mode: store.ModeGenerate})
	assert.True(t, errors.Is(err, ErrNoWebhook))
	_, err = c.Status(context.Background(), "x")
	assert.True(t, errors.Is(err, ErrNoWebhook))
}

func TestSubmitErrors(t *testing.T) {
	c := NewClient(testConfig, serve(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "workflow inactive", http.StatusNotFound)
	}))
	_, err := c.Submit(context.Background(), Submission{Mode: store.ModeGenerate})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")

	c = NewClient(testConfig, serve(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `{}`)
	}))
	_, err = c.Submit(context.Background(), Submission{Mode: store.ModeGenerate})
	assert.Error(t, err)
}

func TestStatusURL(t *testing.T) {
	var got string
	cfg := testConfig
	cfg.StatusURL = "http://n8n/api/status?wf=1"
	c := NewClient(cfg, serve(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.String()
		io.WriteString(w, `[{"status":"success","output":"done"}]`)
	}))
	res, err := c.Status(context.Background(), "a b")
	require.NoError(t, err)
	assert.Equal(t, "http://n8n/api/status?wf=1&executionId=a+b", got)
	assert.Equal(t, StateCompleted, res.Status)
	assert.Equal(t, "done", res.Content)
	assert.Equal(t, "a b", res.ExecutionID)
}

func TestStartAndPoll(t *testing.T) {
	ctx := context.Background()
	svc, fake, rec, st := setup(t)

	p := &store.Prompt{Name: "tips", Body: "Give tips"}
	require.NoError(t, st.CreatePrompt(ctx, p))

	task := &store.Task{Mode: store.ModeGenerate, Topic: "Go testing", PromptID: p.ID, CreatedBy: "ana"}
	require.NoError(t, svc.Start(ctx, task))
	assert.Equal(t, store.StatusRunning, task.Status)
	assert.Equal(t, "exec-"+task.ID, task.ExecutionID)

	require.Len(t, fake.submits, 1)
	assert.Equal(t, "Give tips", fake.submits[0].Prompt)
	assert.Equal(t, testConfig.CallbackURL, fake.submits[0].CallbackURL)
	assert.Equal(t, "s3cret", fake.secrets[0])

	poller := NewPoller(svc, time.Hour)
	assert.Equal(t, 0, poller.Tick(ctx))

	fake.finish(task.ExecutionID, `{"status":"success","content":"# Title\n\nhello world"}`)
	assert.Equal(t, 1, poller.Tick(ctx))

	got, err := st.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusCompleted, got.Status)
	assert.Equal(t, 3, got.Words)
	assert.Contains(t, got.WeChatHTML, "<h1")

	assert.Equal(t, []string{events.TaskSubmitted, events.TaskCompleted}, rec.Types())
	assert.Equal(t, 0, poller.Tick(ctx))
}

func TestStartFailureMarksTask(t *testing.T) {
	ctx := context.Background()
	svc, _, rec, st := setup(t)
	svc.client.cfg.ReverseURL = ""

	style := &store.Style{Name: "Calm", SourceURL: "https://example.com"}
	require.NoError(t, st.CreateStyle(ctx, style))

	task := &store.Task{Mode: store.ModeReverse, SourceURL: style.SourceURL, StyleID: style.ID}
	err := svc.Start(ctx, task)
	assert.True(t, errors.Is(err, ErrNoWebhook))
	assert.Equal(t, store.StatusFailed, task.Status)

	got, err := st.GetStyle(ctx, style.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StyleFailed, got.Status)
	assert.Equal(t, []string{events.StyleAnalyzed, events.TaskFailed}, rec.Types())
}

func TestSynchronousWebhook(t *testing.T) {
	ctx := context.Background()
	svc, fake, _, st := setup(t)
	fake.syncBody = `{"status":"success","analysis":"short sentences"}`

	style := &store.Style{Name: "Terse"}
	require.NoError(t, st.CreateStyle(ctx, style))
	task := &store.Task{Mode: store.ModeReverse, SourceURL: "https://example.com/a", StyleID: style.ID}
	require.NoError(t, svc.Start(ctx, task))
	assert.Equal(t, store.StatusCompleted, task.Status)

	got, err := st.GetStyle(ctx, style.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StyleReady, got.Status)
	assert.Equal(t, "short sentences", got.Analysis)
}

func TestCallback(t *testing.T) {
	ctx := context.Background()
	svc, _, rec, st := setup(t)

	task := &store.Task{Mode: store.ModeGenerate, Topic: "x"}
	require.NoError(t, svc.Start(ctx, task))

	_, err := DecodeCallback([]byte(`{"status":"success"}`))
	assert.Error(t, err)

	res, err := DecodeCallback([]byte(`{"executionId":"` + task.ExecutionID + `","status":"failed","error":"quota","extra":1}`))
	require.NoError(t, err)
	got, err := svc.HandleCallback(ctx, res)
	require.NoError(t, err)
	assert.Equal(t, store.StatusFailed, got.Status)
	assert.Equal(t, "quota", got.Error)

	// duplicate callbacks are ignored
	res.Status, res.Content = StateCompleted, "late"
	got, err = svc.HandleCallback(ctx, res)
	require.NoError(t, err)
	assert.Equal(t, store.StatusFailed, got.Status)
	assert.Equal(t, []string{events.TaskSubmitted, events.TaskFailed}, rec.Types())

	_, err = svc.HandleCallback(ctx, Result{TaskID: "missing", Status: StateCompleted})
	assert.True(t, errors.Is(err, store.ErrNotFound))

	_, err = st.GetTask(ctx, task.ID)
	require.NoError(t, err)
}

func TestRacingFinishersPublishOnce(t *testing.T) {
	ctx := context.Background()
	svc, _, rec, st := setup(t)

	task := &store.Task{Mode: store.ModeGenerate, Topic: "x"}
	require.NoError(t, svc.Start(ctx, task))
	// callback and poller both hold the running snapshot
	stale, err := st.GetTask(ctx, task.ID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]store.Task, 4)
	errs := make([]error, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Apply(ctx, stale, Result{TaskID: task.ID, Status: StateCompleted, Content: "one two"})
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, store.StatusCompleted, results[i].Status)
	}
	assert.Equal(t, []string{events.TaskSubmitted, events.TaskCompleted}, rec.Types())

	// a late failure from the same snapshot loses too
	got, err := svc.Apply(ctx, stale, Result{TaskID: task.ID, Status: StateFailed, Error: "timeout"})
	require.NoError(t, err)
	assert.Equal(t, store.StatusCompleted, got.Status)
	assert.Empty(t, got.Error)
	assert.Equal(t, []string{events.TaskSubmitted, events.TaskCompleted}, rec.Types())
}

func TestCheckSecret(t *testing.T) {
	c := NewClient(testConfig, nil)
	assert.NoError(t, c.CheckSecret("s3cret"))
	assert.True(t, errors.Is(c.CheckSecret("nope"), ErrBadSecret))
	assert.True(t, errors.Is(NewClient(Config{}, nil).CheckSecret(""), ErrBadSecret))
	assert.True(t, errors.Is(NewClient(Config{}, nil).CheckSecret("anything"), ErrBadSecret))
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()
	svc, fake, _, _ := setup(t)

	task := &store.Task{Mode: store.ModeGenerate, Topic: "x"}
	require.NoError(t, svc.Start(ctx, task))

	got, err := svc.Refresh(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusRunning, got.Status)

	fake.finish(task.ExecutionID, `{"finished":true,"output":"字字字 ok"}`)
	got, err = svc.Refresh(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusCompleted, got.Status)
	assert.Equal(t, 4, got.Words)
}

func TestPollerStopsOnCancel(t *testing.T) {
	svc, fake, _, _ := setup(t)
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	task := &store.Task{Mode: store.ModeGenerate, Topic: "x"}
	require.NoError(t, svc.Start(context.Background(), task))
	fake.finish(task.ExecutionID, `{"status":"success","content":"done"}`)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewPoller(svc, 5*time.Millisecond).Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		got, err := svc.store.GetTask(context.Background(), task.ID)
		return err == nil && got.Status == store.StatusCompleted
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop")
	}
}
