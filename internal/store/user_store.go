package store

import (
	"context"

	"github.com/AdamBeresnev/arena-manager/internal/billing"
	users "github.com/AdamBeresnev/arena-manager/internal/user"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type UserStore struct {
	db *sqlx.DB
}

const (
	getUserQuery           = "SELECT * FROM users WHERE id = ?"
	getUserByProviderQuery = `
        SELECT * FROM users
        WHERE provider = ?
        AND provider_id = ?
    `
	createUserQuery = `
		INSERT INTO users (id, email, username, provider, provider_id, avatar_url) VALUES
		(:id, :email, :username, :provider, :provider_id, :avatar_url)
	`
	updateUserNameAndAvatarQuery = `
		UPDATE users SET
		username = :username,
		avatar_url = :avatar_url
		WHERE id = :id
	`
	getMembershipsQuery = `
		SELECT m.arena_id, a.name AS arena_name, m.role, a.status AS arena_status
		FROM arena_members m
		JOIN arenas a ON a.id = m.arena_id
		WHERE m.user_id = ?
		ORDER BY m.created_at ASC, a.name ASC
	`
)

func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) GetUserByProvider(ctx context.Context, provider string, providerID string) (*users.User, error) {
	var user users.User
	err := s.db.GetContext(ctx, &user, getUserByProviderQuery, provider, providerID)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (s *UserStore) GetUser(ctx context.Context, id uuid.UUID) (*users.User, error) {
	var user users.User
	err := s.db.GetContext(ctx, &user, getUserQuery, id)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserStore) CreateUser(ctx context.Context, user *users.User) error {
	_, err := s.db.NamedExecContext(ctx, createUserQuery, user)
	return err
}

func (s *UserStore) UpdateUserNameAndAvatar(ctx context.Context, user *users.User) error {
	_, err := s.db.NamedExecContext(ctx, updateUserNameAndAvatarQuery, user)
	return err
}

func (s *UserStore) GetMemberships(ctx context.Context, userID uuid.UUID) ([]users.Membership, error) {
	var memberships []users.Membership
	err := s.db.SelectContext(ctx, &memberships, getMembershipsQuery, userID)
	return memberships, err
}

func (s *UserStore) AddMember(ctx context.Context, arenaID, userID uuid.UUID, role billing.MemberRole) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO arena_members (arena_id, user_id, role) VALUES (?, ?, ?)
		ON CONFLICT (arena_id, user_id) DO UPDATE SET role = excluded.role`, arenaID, userID, role)
	return err
}
