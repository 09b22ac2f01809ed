// Package dbtest provides migrated in-memory databases and fixtures for tests.
package dbtest

import (
	"context"
	"testing"

	"github.com/AdamBeresnev/arena-manager/internal/billing"
	"github.com/AdamBeresnev/arena-manager/internal/db"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// New creates an in-memory SQLite database and applies migrations
func New(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := db.OpenMemory()
	require.NoError(t, err, "Failed to connect to in-memory DB")
	t.Cleanup(func() { database.Close() })

	require.NoError(t, db.RunMigrations(database), "Failed to apply migrations")
	return database
}

// Arena inserts an arena with the given status and returns its id.
func Arena(t *testing.T, database *sqlx.DB, status billing.ArenaStatus) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := database.ExecContext(context.Background(), "INSERT INTO arenas (id, name, status) VALUES (?, ?, ?)", id, "Arena "+id.String()[:8], status)
	require.NoError(t, err)
	return id
}

// Member inserts a user and binds it to the arena with role.
func Member(t *testing.T, database *sqlx.DB, arenaID uuid.UUID, role billing.MemberRole) uuid.UUID {
	t.Helper()

	id := uuid.New()
	ctx := context.Background()
	_, err := database.ExecContext(ctx, "INSERT INTO users (id, email, username) VALUES (?, ?, ?)", id, id.String()+"@example.com", "user-"+id.String()[:8])
	require.NoError(t, err)
	_, err = database.ExecContext(ctx, "INSERT INTO arena_members (arena_id, user_id, role) VALUES (?, ?, ?)", arenaID, id, role)
	require.NoError(t, err)
	return id
}
