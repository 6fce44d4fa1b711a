package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Middleware attaches the caller to the request context. Order: dev
// headers (when enabled), assertion cookie, session API. A session cookie
// the API rejects is a 401; no cookies at all continues anonymously.
func (m *Middleware) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if u, ok := m.authenticate(r); ok {
				next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
				return
			}
			if m.cfg.CookieName != "" {
				if c, err := r.Cookie(m.cfg.CookieName); err == nil && c.Value != "" {
					u, err := m.validateSession(r.Context(), c)
					if err != nil || u.Username == "" {
						http.Error(w, "Unauthorized", http.StatusUnauthorized)
						return
					}
					next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// authenticate tries the checks that need no network round trip.
func (m *Middleware) authenticate(r *http.Request) (User, bool) {
	// never enable in prod
	if m.cfg.DevBypass {
		if u := devUserFromHeaders(r); u.Username != "" {
			return u, true
		}
	}
	if ac, _ := r.Cookie(m.cfg.AssertCookieName); ac != nil && ac.Value != "" && m.getKey() != nil {
		if u, err := m.validateAssertion(ac.Value); err == nil {
			return u, true
		}
	}
	return User{}, false
}

func (m *Middleware) validateSession(ctx context.Context, c *http.Cookie) (User, error) {
	if m.cfg.SessionAPI == "" {
		return User{}, errors.New("SESSION_STATE_API not set")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.cfg.SessionAPI, nil)
	if err != nil {
		return User{}, err
	}
	req.Header.Set("Accept", "application/json")
	req.AddCookie(c)

	res, err := m.httpClient.Do(req)
	if err != nil {
		return User{}, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return User{}, fmt.Errorf("session api status %d", res.StatusCode)
	}
	var u User
	if err := json.NewDecoder(res.Body).Decode(&u); err != nil {
		return User{}, err
	}
	return u, nil
}
