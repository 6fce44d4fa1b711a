package core

import (
	"context"
	"net/http"
	"slices"

	"github.com/joeydtaylor/contentops/pkg/manifest"
	"github.com/joeydtaylor/contentops/pkg/middleware/auth"
)

// admit applies g to the caller on ctx. It returns 0 when the caller may
// proceed, otherwise 401 or 403.
func admit(ctx context.Context, a *auth.Middleware, g manifest.Guard) int {
	// without auth middleware only open routes are reachable
	if a == nil {
		if g.Open() {
			return 0
		}
		return http.StatusUnauthorized
	}
	if g.RequireAuth && !a.IsAuthenticated(ctx) {
		return http.StatusUnauthorized
	}
	u := a.GetUser(ctx)
	if len(g.Users) > 0 {
		if u.Username == "" {
			return http.StatusUnauthorized
		}
		if !slices.Contains(g.Users, u.Username) {
			return http.StatusForbidden
		}
		return 0
	}
	if len(g.Roles) > 0 {
		if u.Username == "" {
			return http.StatusUnauthorized
		}
		if a.IsAdmin(ctx) || slices.Contains(g.Roles, u.Role.Name) {
			return 0
		}
		return http.StatusForbidden
	}
	return 0
}

func withGuard(next http.HandlerFunc, a *auth.Middleware, g manifest.Guard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if code := admit(r.Context(), a, g); code != 0 {
			http.Error(w, http.StatusText(code), code)
			return
		}
		next(w, r)
	}
}

// withPageGuard sends anonymous visitors to the login page instead of a bare
// 401.
func withPageGuard(next http.HandlerFunc, a *auth.Middleware, g manifest.Guard, login string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := admit(r.Context(), a, g)
		switch {
		case code == 0:
			next(w, r)
		case code == http.StatusUnauthorized && login != "" && r.URL.Path != login:
			http.Redirect(w, r, login, http.StatusSeeOther)
		default:
			http.Error(w, http.StatusText(code), code)
		}
	}
}
