package pages

import (
	"context"
	"errors"
	"fmt"

	"github.com/joeydtaylor/contentops/pkg/a2ui"
	"github.com/joeydtaylor/contentops/pkg/content"
	"github.com/joeydtaylor/contentops/pkg/store"
	"golang.org/x/sync/errgroup"
)

const taskListLimit = 50

// Articles submits generation tasks and shows their results.
type Articles struct{ d Deps }

func (*Articles) Name() string  { return "articles" }
func (*Articles) Title() string { return "Articles" }

func statusTone(s store.TaskStatus) string {
	switch s {
	case store.StatusCompleted:
		return "success"
	case store.StatusFailed:
		return "danger"
	case store.StatusRunning:
		return "info"
	}
	return "warning"
}

func (p *Articles) Build(ctx context.Context, req Request) (a2ui.Node, error) {
	var (
		tasks   []store.Task
		prompts []store.Prompt
		styles  []store.Style
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { tasks, err = p.d.Store.ListTasks(gctx, taskListLimit); return })
	g.Go(func() (err error) { prompts, err = p.d.Store.ListPrompts(gctx); return })
	g.Go(func() (err error) { styles, err = p.d.Store.ListStyles(gctx); return })
	if err := g.Wait(); err != nil {
		return a2ui.Node{}, fmt.Errorf("articles: %w", err)
	}

	promptOpts := []a2ui.Option{{Value: "", Label: "No prompt"}}
	for _, pr := range prompts {
		promptOpts = append(promptOpts, a2ui.Option{Value: pr.ID, Label: pr.Name})
	}
	styleOpts := []a2ui.Option{{Value: "", Label: "No style"}}
	for _, st := range styles {
		if st.Status == store.StyleReady {
			styleOpts = append(styleOpts, a2ui.Option{Value: st.ID, Label: st.Name})
		}
	}

	form := a2ui.Card("New article",
		a2ui.Form(a2ui.Act("submitArticle"),
			a2ui.Input("topic", "Topic").With("placeholder", "What should the article cover?"),
			a2ui.Select("mode", "Mode",
				a2ui.Option{Value: string(store.ModeGenerate), Label: "Generate"},
				a2ui.Option{Value: string(store.ModeReverse), Label: "Reverse-engineer"},
			),
			a2ui.Row(
				a2ui.Select("promptId", "Prompt", promptOpts...),
				a2ui.Select("styleId", "Style", styleOpts...),
			).With("gap", 12),
			a2ui.Input("sourceUrl", "Source URL").With("inputType", "url").
				With("placeholder", "Reference article for reverse mode"),
		).With("submitLabel", "Submit"),
	)

	rows := make([]map[string]any, 0, len(tasks))
	for _, t := range tasks {
		topic := t.Topic
		if topic == "" {
			topic = t.SourceURL
		}
		rows = append(rows, map[string]any{
			"id":      t.ID,
			"topic":   topic,
			"mode":    string(t.Mode),
			"status":  a2ui.Badge(string(t.Status), statusTone(t.Status)),
			"words":   t.Words,
			"created": t.CreatedAt.Format("2006-01-02 15:04"),
			"actions": a2ui.Row(
				a2ui.Button("Refresh", a2ui.Act("refreshTask", t.ID).Stop()).
					With("variant", "ghost").With("disabled", t.Status.Done()),
				a2ui.Button("Delete", a2ui.Act("deleteTask", t.ID).Stop()).With("variant", "danger"),
			).With("gap", 4),
		})
	}
	table := a2ui.Table([]a2ui.TableColumn{
		{Key: "topic", Label: "Topic"},
		{Key: "mode", Label: "Mode"},
		{Key: "status", Label: "Status"},
		{Key: "words", Label: "Words"},
		{Key: "created", Label: "Created"},
		{Key: "actions", Label: ""},
	}, rows).With("onRowClick", a2ui.Act("viewTask")).With("empty", "No articles yet.")

	page := a2ui.Column(
		a2ui.Heading(1, "Articles"),
		form,
		a2ui.Card("Tasks", table),
	).With("gap", 16)

	if req.Query.Get("modal") == "task" {
		m, err := p.taskModal(ctx, req)
		if err != nil {
			return a2ui.Node{}, err
		}
		page = page.Append(m)
	}
	return page, nil
}

func (p *Articles) taskModal(ctx context.Context, req Request) (a2ui.Node, error) {
	id := req.Query.Get("id")
	t, err := p.d.Store.GetTask(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return a2ui.Alert("warning", "That task no longer exists."), nil
	}
	if err != nil {
		return a2ui.Node{}, err
	}

	onClose := a2ui.Act("closeTask")
	title := t.Topic
	if title == "" {
		title = "Reverse: " + t.SourceURL
	}
	m := a2ui.Modal(title).With("onClose", onClose)

	switch t.Status {
	case store.StatusFailed:
		return m.Append(a2ui.Alert("danger", t.Error)), nil
	case store.StatusCompleted:
	default:
		return m.Append(
			a2ui.Text("The workflow is still running."),
			a2ui.Button("Check now", a2ui.Act("refreshTask", t.ID)).With("variant", "primary"),
		), nil
	}

	tab := req.Query.Get("tab")
	if tab != "wechat" {
		tab = "article"
	}
	return m.Append(
		a2ui.Row(
			a2ui.Badge(fmt.Sprintf("%d words", t.Words), "info"),
			a2ui.Text(content.Excerpt(t.Content, 80)).With("variant", "muted"),
		).With("gap", 8),
		a2ui.New(a2ui.KindTabs,
			a2ui.Markdown(t.Content),
			a2ui.Code(t.WeChatHTML, "html"),
		).With("items", []any{
			map[string]any{"key": "article", "label": "Article"},
			map[string]any{"key": "wechat", "label": "WeChat HTML"},
		}).With("active", tab).With("onChange", a2ui.Act("switchTab", t.ID)),
	), nil
}

func (p *Articles) Actions() Actions {
	return Actions{
		"submitArticle": p.submit,
		"viewTask": func(_ context.Context, req Request, args []any) (Outcome, error) {
			return Outcome{Redirect: req.Link("modal", "task", "id", argString(args, 0))}, nil
		},
		"switchTab": func(_ context.Context, req Request, args []any) (Outcome, error) {
			return Outcome{Redirect: req.Link("modal", "task", "id", argString(args, 0), "tab", argString(args, 1))}, nil
		},
		"closeTask": func(_ context.Context, req Request, _ []any) (Outcome, error) {
			return Outcome{Redirect: req.Path}, nil
		},
		"refreshTask": func(ctx context.Context, req Request, args []any) (Outcome, error) {
			t, err := p.d.Workflow.Refresh(ctx, argString(args, 0))
			if err != nil {
				return Outcome{}, err
			}
			out := Outcome{Notice: "Task is " + string(t.Status)}
			if req.Query.Get("modal") == "task" {
				out.Redirect = req.Link("modal", "task", "id", t.ID)
			}
			return out, nil
		},
		"deleteTask": func(ctx context.Context, req Request, args []any) (Outcome, error) {
			if err := p.d.Store.DeleteTask(ctx, argString(args, 0)); err != nil {
				return Outcome{}, err
			}
			return Outcome{Redirect: req.Path, Notice: "Task deleted"}, nil
		},
	}
}

func (p *Articles) submit(ctx context.Context, req Request, args []any) (Outcome, error) {
	form := formArg(args)
	mode, err := store.ParseMode(form["mode"])
	if err != nil {
		return Outcome{Error: "Choose generate or reverse mode."}, nil
	}
	t := &store.Task{
		Mode:      mode,
		Topic:     form["topic"],
		PromptID:  form["promptId"],
		StyleID:   form["styleId"],
		SourceURL: form["sourceUrl"],
		CreatedBy: req.User.Username,
	}
	if err := p.d.Workflow.Start(ctx, t); err != nil {
		if t.ID == "" {
			return Outcome{Error: err.Error()}, nil
		}
		return Outcome{Redirect: req.Path, Error: "Workflow failed to start: " + err.Error()}, nil
	}
	return Outcome{
		Redirect: req.Link("modal", "task", "id", t.ID),
		Notice:   "Task submitted",
	}, nil
}
