package auth

import "context"

func (m *Middleware) GetUser(ctx context.Context) User { return UserFrom(ctx) }

func (m *Middleware) isAdminName(role string) bool {
	return m.cfg.AdminRole != "" && role == m.cfg.AdminRole
}

func (m *Middleware) IsRole(ctx context.Context, role Role) bool {
	u := UserFrom(ctx)
	return u.Username != "" && (u.Role.Name == role.Name || m.isAdminName(u.Role.Name))
}

func (m *Middleware) IsAdmin(ctx context.Context) bool {
	return m.isAdminName(UserFrom(ctx).Role.Name)
}

func (m *Middleware) IsUser(ctx context.Context, username string) bool {
	u := UserFrom(ctx)
	return u.Username != "" && (u.Username == username || m.isAdminName(u.Role.Name))
}

func (m *Middleware) IsAuthenticated(ctx context.Context) bool {
	return UserFrom(ctx).Username != ""
}
