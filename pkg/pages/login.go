package pages

import (
	"context"

	"github.com/joeydtaylor/contentops/pkg/a2ui"
)

// Login is shown to anonymous users.
type Login struct{ d Deps }

func (*Login) Name() string  { return "login" }
func (*Login) Title() string { return "Sign in" }

func (p *Login) Build(_ context.Context, req Request) (a2ui.Node, error) {
	if req.User.Username != "" {
		return a2ui.Card("Signed in",
			a2ui.Text("You are signed in as "+req.User.Username+"."),
			a2ui.Link("Go to the dashboard", "/"),
		), nil
	}
	if p.d.Site.LoginURL == "" {
		return a2ui.Alert("warning", "No identity provider is configured.").With("title", "Sign in unavailable"), nil
	}
	return a2ui.Card("Sign in",
		a2ui.Text("Sign in with your organization account to manage content."),
		a2ui.Link("Continue to sign in", p.d.Site.LoginURL),
	), nil
}

func (*Login) Actions() Actions { return Actions{} }
