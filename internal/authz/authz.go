package authz

import (
	"errors"

	"github.com/AdamBeresnev/arena-manager/internal/session"
	"github.com/google/uuid"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("operation not allowed for the current user")
)

// RequireMember allows any member of the arena that owns the resource.
func RequireMember(sess session.Context, arenaID uuid.UUID) error {
	if !sess.Authenticated() {
		return ErrUnauthenticated
	}
	if sess.ArenaID == uuid.Nil || sess.ArenaID != arenaID {
		return ErrForbidden
	}
	return nil
}

// RequireAdmin allows only arena administrators.
func RequireAdmin(sess session.Context, arenaID uuid.UUID) error {
	if err := RequireMember(sess, arenaID); err != nil {
		return err
	}
	if !sess.IsAdmin() {
		return ErrForbidden
	}
	return nil
}
