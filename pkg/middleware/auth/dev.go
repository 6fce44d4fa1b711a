package auth

import "net/http"

// Headers trusted when AUTH_DEV_BYPASS=true.
const (
	DevUserHeader     = "X-Dev-User"
	DevRoleHeader     = "X-Dev-Role"
	DevProviderHeader = "X-Dev-Provider"
)

func devUserFromHeaders(r *http.Request) User {
	name := r.Header.Get(DevUserHeader)
	if name == "" {
		return User{}
	}
	return User{
		Username:             name,
		AuthenticationSource: AuthenticationSource{Provider: firstNonEmpty(r.Header.Get(DevProviderHeader), "dev")},
		Role:                 Role{Name: r.Header.Get(DevRoleHeader)},
	}
}
