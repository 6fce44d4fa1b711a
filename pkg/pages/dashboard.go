package pages

import (
	"context"
	"fmt"
	"strconv"

	"github.com/joeydtaylor/contentops/pkg/a2ui"
	"github.com/joeydtaylor/contentops/pkg/store"
	"golang.org/x/sync/errgroup"
)

const volumeDays = 14

// Dashboard shows output analytics.
type Dashboard struct{ d Deps }

func (*Dashboard) Name() string  { return "dashboard" }
func (*Dashboard) Title() string { return "Dashboard" }

func (p *Dashboard) Build(ctx context.Context, req Request) (a2ui.Node, error) {
	var (
		totals store.Totals
		days   []store.DayVolume
		usage  []store.StyleUsage
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { totals, err = p.d.Store.Totals(gctx); return })
	g.Go(func() (err error) { days, err = p.d.Store.DailyVolume(gctx, volumeDays); return })
	g.Go(func() (err error) { usage, err = p.d.Store.StyleUsage(gctx); return })
	if err := g.Wait(); err != nil {
		return a2ui.Node{}, fmt.Errorf("dashboard: %w", err)
	}

	stats := a2ui.Grid(4,
		a2ui.Stat("Tasks", totals.Tasks),
		a2ui.Stat("Completed", totals.Completed),
		a2ui.Stat("Failed", totals.Failed),
		a2ui.Stat("Words generated", totals.Words).With("hint", strconv.Itoa(totals.Pending)+" in progress"),
	)

	finished := float64(totals.Completed + totals.Failed)
	done := a2ui.Progress(float64(totals.Completed), finished).With("label", "Success rate")
	if finished == 0 {
		done = a2ui.Text("No finished tasks yet.").With("variant", "muted")
	}

	dayRows := make([]map[string]any, 0, len(days))
	for _, d := range days {
		dayRows = append(dayRows, map[string]any{"day": d.Day, "tasks": d.Tasks, "words": d.Words})
	}
	usageRows := make([]map[string]any, 0, len(usage))
	for _, u := range usage {
		name := u.Name
		if name == "" {
			name = "(deleted style)"
		}
		usageRows = append(usageRows, map[string]any{"name": name, "tasks": u.Tasks, "words": u.Words})
	}

	return a2ui.Column(
		a2ui.Row(
			a2ui.Heading(1, "Dashboard"),
			a2ui.Button("Refresh", a2ui.Act("refresh")).With("variant", "ghost"),
		).With("justify", "between").With("align", "center"),
		stats,
		a2ui.Card("Completion", done),
		a2ui.Grid(2,
			a2ui.Card("Daily volume",
				a2ui.Table([]a2ui.TableColumn{
					{Key: "day", Label: "Day"},
					{Key: "tasks", Label: "Tasks"},
					{Key: "words", Label: "Words"},
				}, dayRows).With("empty", "No tasks in the last "+strconv.Itoa(volumeDays)+" days."),
			).With("subtitle", "Last "+strconv.Itoa(volumeDays)+" days"),
			a2ui.Card("Style usage",
				a2ui.Table([]a2ui.TableColumn{
					{Key: "name", Label: "Style"},
					{Key: "tasks", Label: "Articles"},
					{Key: "words", Label: "Words"},
				}, usageRows).With("empty", "No styled articles yet."),
			),
		),
	).With("gap", 16), nil
}

func (p *Dashboard) Actions() Actions {
	return Actions{
		"refresh": func(_ context.Context, req Request, _ []any) (Outcome, error) {
			return Outcome{Redirect: req.Path}, nil
		},
	}
}
