package pages

import (
	"context"
	"errors"
	"fmt"

	"github.com/joeydtaylor/contentops/pkg/a2ui"
	"github.com/joeydtaylor/contentops/pkg/content"
	"github.com/joeydtaylor/contentops/pkg/store"
	"go.uber.org/zap"
)

// Styles is the writing-style library. Each style is analyzed from a
// reference article by the reverse workflow.
type Styles struct{ d Deps }

func (*Styles) Name() string  { return "styles" }
func (*Styles) Title() string { return "Styles" }

func styleTone(s store.StyleStatus) string {
	switch s {
	case store.StyleReady:
		return "success"
	case store.StyleFailed:
		return "danger"
	}
	return "info"
}

func (p *Styles) Build(ctx context.Context, req Request) (a2ui.Node, error) {
	styles, err := p.d.Store.ListStyles(ctx)
	if err != nil {
		return a2ui.Node{}, fmt.Errorf("styles: %w", err)
	}

	rows := make([]map[string]any, 0, len(styles))
	for _, st := range styles {
		source := any(st.SourceURL)
		if st.SourceURL != "" {
			source = a2ui.Link(st.SourceURL, st.SourceURL).With("external", true)
		}
		rows = append(rows, map[string]any{
			"id":       st.ID,
			"name":     st.Name,
			"status":   a2ui.Badge(string(st.Status), styleTone(st.Status)),
			"source":   source,
			"analysis": content.Excerpt(st.Analysis, 100),
			"actions":  a2ui.Button("Delete", a2ui.Act("deleteStyle", st.ID).Stop()).With("variant", "danger"),
		})
	}

	page := a2ui.Column(
		a2ui.Heading(1, "Styles"),
		a2ui.Card("Analyze a style",
			a2ui.Form(a2ui.Act("analyzeStyle"),
				a2ui.Input("name", "Name").With("required", true),
				a2ui.Input("sourceUrl", "Reference article").With("inputType", "url").With("required", true),
			).With("submitLabel", "Analyze"),
		),
		a2ui.Card("Library",
			a2ui.Table([]a2ui.TableColumn{
				{Key: "name", Label: "Name"},
				{Key: "status", Label: "Status"},
				{Key: "source", Label: "Source"},
				{Key: "analysis", Label: "Analysis"},
				{Key: "actions", Label: ""},
			}, rows).With("onRowClick", a2ui.Act("viewStyle")).With("empty", "No styles analyzed yet."),
		),
	).With("gap", 16)

	if req.Query.Get("modal") == "style" {
		st, err := p.d.Store.GetStyle(ctx, req.Query.Get("id"))
		switch {
		case errors.Is(err, store.ErrNotFound):
			page = page.Append(a2ui.Alert("warning", "That style no longer exists."))
		case err != nil:
			return a2ui.Node{}, err
		default:
			body := a2ui.Markdown(st.Analysis)
			if st.Status != store.StyleReady {
				body = a2ui.Text("Analysis is " + string(st.Status) + ".").With("variant", "muted")
			}
			page = page.Append(a2ui.Modal(st.Name, body).With("onClose", a2ui.Act("closeStyle")))
		}
	}
	return page, nil
}

func (p *Styles) Actions() Actions {
	return Actions{
		"analyzeStyle": p.analyze,
		"viewStyle": func(_ context.Context, req Request, args []any) (Outcome, error) {
			return Outcome{Redirect: req.Link("modal", "style", "id", argString(args, 0))}, nil
		},
		"closeStyle": func(_ context.Context, req Request, _ []any) (Outcome, error) {
			return Outcome{Redirect: req.Path}, nil
		},
		"deleteStyle": func(ctx context.Context, req Request, args []any) (Outcome, error) {
			if err := p.d.Store.DeleteStyle(ctx, argString(args, 0)); err != nil {
				return Outcome{}, err
			}
			return Outcome{Redirect: req.Path, Notice: "Style deleted"}, nil
		},
	}
}

// analyze records the style and starts a reverse task that fills it in.
func (p *Styles) analyze(ctx context.Context, req Request, args []any) (Outcome, error) {
	f := formArg(args)
	if f["name"] == "" || f["sourceUrl"] == "" {
		return Outcome{Error: "Name and reference article are required."}, nil
	}
	st := &store.Style{Name: f["name"], SourceURL: f["sourceUrl"]}
	if err := p.d.Store.CreateStyle(ctx, st); err != nil {
		return Outcome{}, err
	}
	t := &store.Task{
		Mode:      store.ModeReverse,
		Topic:     st.Name,
		StyleID:   st.ID,
		SourceURL: st.SourceURL,
		CreatedBy: req.User.Username,
	}
	startErr := p.d.Workflow.Start(ctx, t)
	if t.ID != "" {
		if err := p.d.Store.LinkStyleTask(ctx, st.ID, t.ID); err != nil {
			p.d.Log.Warn("link style task failed", zap.String("style", st.ID), zap.Error(err))
		}
	}
	if startErr != nil {
		if t.ID == "" {
			_ = p.d.Store.FinishStyle(ctx, st.ID, "", store.StyleFailed)
		}
		return Outcome{Redirect: req.Path, Error: "Analysis failed to start: " + startErr.Error()}, nil
	}
	return Outcome{Redirect: req.Path, Notice: "Analysis started"}, nil
}
