package service

import (
	"context"
	"slices"

	"github.com/google/uuid"
)

type ctxKey string

const (
	ctxUserIDKey ctxKey = "userID"
	ctxRoleKey   ctxKey = "role"
)

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleWarehouse Role = "warehouse"
	RoleSales     Role = "sales"
	RoleAuditor   Role = "auditor"
	RoleOperator  Role = "operator"
)

// WithUserID кладёт в контекст id локального профиля действующего пользователя.
func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxUserIDKey, id)
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	v, ok := ctx.Value(ctxUserIDKey).(uuid.UUID)
	return v, ok
}

func WithRole(ctx context.Context, r Role) context.Context {
	return context.WithValue(ctx, ctxRoleKey, r)
}

func RoleFromContext(ctx context.Context) (Role, bool) {
	v, ok := ctx.Value(ctxRoleKey).(Role)
	return v, ok
}

// WithActor сокращение для WithUserID + WithRole.
func WithActor(ctx context.Context, id uuid.UUID, r Role) context.Context {
	return WithRole(WithUserID(ctx, id), r)
}

func requireAuth(ctx context.Context) (uuid.UUID, Role, error) {
	uid, ok := UserIDFromContext(ctx)
	if !ok || uid == uuid.Nil {
		return uuid.Nil, "", ErrUnauthorized
	}
	role, ok := RoleFromContext(ctx)
	if !ok {
		return uuid.Nil, "", ErrUnauthorized
	}
	return uid, role, nil
}

// requireRole пропускает только перечисленные роли; admin проходит всегда.
func requireRole(ctx context.Context, allowed ...Role) (uuid.UUID, error) {
	uid, role, err := requireAuth(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	if role == RoleAdmin || slices.Contains(allowed, role) {
		return uid, nil
	}
	return uuid.Nil, ErrForbidden
}
