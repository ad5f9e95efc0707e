package auth

import (
	"context"

	"github.com/ledgerline/crm-api/internal/domain"
)

// SystemUserID identifies callers authenticated with the admin API key
const SystemUserID = "00000000-0000-0000-0000-000000000000"

// UserContext holds authenticated user information
type UserContext struct {
	UserID     string
	Email      string
	FullName   string
	Permission domain.Permission
	// System is set for API key callers.
	System bool
	// TokenID is the jti of the session token, empty for API key callers.
	TokenID string
}

type contextKey string

const userContextKey contextKey = "userContext"

// WithUserContext adds user context to the context
func WithUserContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext extracts user context from the context
func FromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok && user != nil
}

// MustFromContext extracts user context or panics
func MustFromContext(ctx context.Context) *UserContext {
	user, ok := FromContext(ctx)
	if !ok {
		panic("user context not found in context")
	}
	return user
}

// SystemUser returns the caller used for API key requests
func SystemUser(email string) *UserContext {
	return &UserContext{
		UserID:     SystemUserID,
		Email:      email,
		FullName:   "System",
		Permission: domain.PermissionSuperAdmin,
		System:     true,
	}
}

// CanWrite reports whether the caller may create and edit rows
func (u *UserContext) CanWrite() bool {
	return u.System || u.Permission.CanWrite()
}

// CanDelete reports whether the caller may delete rows
func (u *UserContext) CanDelete() bool {
	return u.System || u.Permission.CanDelete()
}

// IsAdmin reports whether the caller may manage users
func (u *UserContext) IsAdmin() bool {
	return u.System || u.Permission.IsAdmin()
}

// IsSuperAdmin checks if user is a super admin
func (u *UserContext) IsSuperAdmin() bool {
	return u.System || u.Permission == domain.PermissionSuperAdmin
}
