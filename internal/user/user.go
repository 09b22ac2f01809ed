package users

import (
	"time"

	"github.com/AdamBeresnev/arena-manager/internal/billing"
	"github.com/google/uuid"
)

type User struct {
	ID         uuid.UUID `db:"id" json:"id"`
	Email      string    `db:"email" json:"email"`
	Username   string    `db:"username" json:"username"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	Provider   *string   `db:"provider" json:"-"`
	ProviderID *string   `db:"provider_id" json:"-"`
	AvatarURL  *string   `db:"avatar_url" json:"avatar_url,omitempty"`
}

// Membership is a user's role inside one arena.
type Membership struct {
	ArenaID   uuid.UUID           `db:"arena_id" json:"arena_id"`
	ArenaName string              `db:"arena_name" json:"arena_name"`
	Role      billing.MemberRole  `db:"role" json:"role"`
	Status    billing.ArenaStatus `db:"arena_status" json:"arena_status"`
}
