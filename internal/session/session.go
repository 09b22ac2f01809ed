// Package session carries the caller identity explicitly through every
// operation instead of looking it up per query.
package session

import (
	"context"

	"github.com/AdamBeresnev/arena-manager/internal/billing"
	"github.com/google/uuid"
)

type Context struct {
	UserID  uuid.UUID
	ArenaID uuid.UUID
	Role    billing.MemberRole
}

func (c Context) Authenticated() bool {
	return c.UserID != uuid.Nil
}

func (c Context) IsAdmin() bool {
	return c.Role == billing.RoleAdmin
}

type contextKey string

const sessionKey contextKey = "session"

func WithContext(ctx context.Context, sess Context) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

// FromContext returns the session stored by the auth middleware.
func FromContext(ctx context.Context) (Context, bool) {
	sess, ok := ctx.Value(sessionKey).(Context)
	return sess, ok
}
