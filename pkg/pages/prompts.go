package pages

import (
	"context"
	"errors"
	"fmt"

	"github.com/joeydtaylor/contentops/pkg/a2ui"
	"github.com/joeydtaylor/contentops/pkg/content"
	"github.com/joeydtaylor/contentops/pkg/store"
)

// Prompts manages the prompt library.
type Prompts struct{ d Deps }

func (*Prompts) Name() string  { return "prompts" }
func (*Prompts) Title() string { return "Prompts" }

func (p *Prompts) Build(ctx context.Context, req Request) (a2ui.Node, error) {
	prompts, err := p.d.Store.ListPrompts(ctx)
	if err != nil {
		return a2ui.Node{}, fmt.Errorf("prompts: %w", err)
	}

	var body a2ui.Node
	if len(prompts) == 0 {
		body = a2ui.Empty("No prompts yet", "Prompts are reusable instructions for article generation.").
			With("actionLabel", "Create prompt").
			With("onClick", a2ui.Act("newPrompt"))
	} else {
		cards := make([]a2ui.Node, 0, len(prompts))
		for _, pr := range prompts {
			cards = append(cards, a2ui.Card(pr.Name,
				a2ui.Text(content.Excerpt(pr.Body, 160)),
			).
				With("subtitle", pr.Category).
				With("onClick", a2ui.Act("openPrompt", pr.ID)).
				With("footer", []any{
					a2ui.Button("Delete", a2ui.Act("deletePrompt", pr.ID).Stop()).With("variant", "danger"),
				}).
				WithID("prompt-"+pr.ID))
		}
		body = a2ui.Grid(3, cards...)
	}

	page := a2ui.Column(
		a2ui.Row(
			a2ui.Heading(1, "Prompts"),
			a2ui.Button("New prompt", a2ui.Act("newPrompt")).With("variant", "primary"),
		).With("justify", "between").With("align", "center"),
		body,
	).With("gap", 16)

	if req.Query.Get("modal") == "prompt" {
		m, err := p.editor(ctx, req.Query.Get("id"))
		if err != nil {
			return a2ui.Node{}, err
		}
		page = page.Append(m)
	}
	return page, nil
}

// editor is the create form when id is empty, the edit form otherwise.
func (p *Prompts) editor(ctx context.Context, id string) (a2ui.Node, error) {
	var pr store.Prompt
	title, submit := "New prompt", a2ui.Act("createPrompt")
	if id != "" {
		var err error
		pr, err = p.d.Store.GetPrompt(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return a2ui.Alert("warning", "That prompt no longer exists."), nil
		}
		if err != nil {
			return a2ui.Node{}, err
		}
		title, submit = "Edit prompt", a2ui.Act("updatePrompt", pr.ID)
	}
	return a2ui.Modal(title,
		a2ui.Form(submit,
			a2ui.Input("name", "Name").With("value", pr.Name).With("required", true),
			a2ui.Input("category", "Category").With("value", pr.Category),
			a2ui.Textarea("body", "Prompt").With("value", pr.Body).With("rows", 10).With("required", true),
		).With("submitLabel", "Save"),
	).With("onClose", a2ui.Act("closePrompt")), nil
}

func (p *Prompts) Actions() Actions {
	return Actions{
		"newPrompt": func(_ context.Context, req Request, _ []any) (Outcome, error) {
			return Outcome{Redirect: req.Link("modal", "prompt")}, nil
		},
		"openPrompt": func(_ context.Context, req Request, args []any) (Outcome, error) {
			return Outcome{Redirect: req.Link("modal", "prompt", "id", argString(args, 0))}, nil
		},
		"closePrompt": func(_ context.Context, req Request, _ []any) (Outcome, error) {
			return Outcome{Redirect: req.Path}, nil
		},
		"createPrompt": func(ctx context.Context, req Request, args []any) (Outcome, error) {
			f := formArg(args)
			pr := &store.Prompt{Name: f["name"], Category: f["category"], Body: f["body"]}
			if err := p.d.Store.CreatePrompt(ctx, pr); err != nil {
				return Outcome{Error: err.Error()}, nil
			}
			return Outcome{Redirect: req.Path, Notice: "Prompt created"}, nil
		},
		"updatePrompt": func(ctx context.Context, req Request, args []any) (Outcome, error) {
			f := formArg(args)
			pr := store.Prompt{ID: argString(args, 0), Name: f["name"], Category: f["category"], Body: f["body"]}
			if err := p.d.Store.UpdatePrompt(ctx, pr); err != nil {
				return Outcome{Error: err.Error()}, nil
			}
			return Outcome{Redirect: req.Path, Notice: "Prompt saved"}, nil
		},
		"deletePrompt": func(ctx context.Context, req Request, args []any) (Outcome, error) {
			if err := p.d.Store.DeletePrompt(ctx, argString(args, 0)); err != nil {
				return Outcome{}, err
			}
			return Outcome{Redirect: req.Path, Notice: "Prompt deleted"}, nil
		},
	}
}
