package a2ui

import "strings"

// Action is an opaque instruction for the host page. The renderer never
// interprets Name or Args; it only carries them to OnAction.
type Action struct {
	Name            string `json:"action"`
	Args            []any  `json:"args,omitempty"`
	StopPropagation bool   `json:"stopPropagation,omitempty"`
}

// OnAction receives every dispatched action. It is supplied once, at the
// root of a render.
type OnAction func(action string, args []any)

// Event names the interaction a binding reacts to.
type Event string

const (
	EventClick  Event = "click"
	EventChange Event = "change"
	EventSubmit Event = "submit"
)

// Act builds an action.
func Act(name string, args ...any) Action {
	return Action{Name: name, Args: args}
}

// Stop returns a copy of a that does not bubble to enclosing click handlers.
func (a Action) Stop() Action {
	a.StopPropagation = true
	return a
}

// withArgs returns a copy of a with extra trailing args.
func (a Action) withArgs(extra ...any) Action {
	if len(extra) == 0 {
		return a
	}
	args := make([]any, 0, len(a.Args)+len(extra))
	args = append(args, a.Args...)
	a.Args = append(args, extra...)
	return a
}

func toAction(v any) (Action, bool) {
	switch x := v.(type) {
	case Action:
		return x, strings.TrimSpace(x.Name) != ""
	case *Action:
		if x == nil {
			return Action{}, false
		}
		return *x, strings.TrimSpace(x.Name) != ""
	case string:
		if strings.TrimSpace(x) == "" {
			return Action{}, false
		}
		return Action{Name: x}, true
	case map[string]any:
		name, _ := x["action"].(string)
		if strings.TrimSpace(name) == "" {
			return Action{}, false
		}
		a := Action{Name: name}
		if args, ok := x["args"].([]any); ok {
			a.Args = args
		}
		if stop, ok := x["stopPropagation"].(bool); ok {
			a.StopPropagation = stop
		}
		return a, true
	}
	return Action{}, false
}
