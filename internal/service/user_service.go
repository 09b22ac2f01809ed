package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/AdamBeresnev/arena-manager/internal/session"
	"github.com/AdamBeresnev/arena-manager/internal/store"
	users "github.com/AdamBeresnev/arena-manager/internal/user"
	"github.com/AdamBeresnev/arena-manager/internal/utils"
	"github.com/google/uuid"
	"github.com/markbates/goth"
)

type UserService struct {
	store *store.UserStore
}

func NewUserService(store *store.UserStore) *UserService {
	return &UserService{store: store}
}

func (s *UserService) FindOrCreateUserByProvider(ctx context.Context, gothUser goth.User) (*users.User, error) {
	user, err := s.store.GetUserByProvider(ctx, gothUser.Provider, gothUser.UserID)

	if err == nil {
		if utils.OrZero(user.AvatarURL) != gothUser.AvatarURL || user.Username != gothUser.NickName {
			user.AvatarURL = utils.StringOrNil(gothUser.AvatarURL)
			if gothUser.NickName != "" {
				user.Username = gothUser.NickName
			}
			if err := s.store.UpdateUserNameAndAvatar(ctx, user); err != nil {
				return nil, fmt.Errorf("failed to update user profile: %w", err)
			}
		}
		return user, nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		username := gothUser.NickName
		if username == "" {
			username = gothUser.Name
		}
		newUser := &users.User{
			ID:         uuid.New(),
			Email:      gothUser.Email,
			Username:   username,
			Provider:   &gothUser.Provider,
			ProviderID: &gothUser.UserID,
			AvatarURL:  utils.StringOrNil(gothUser.AvatarURL),
		}
		if err := s.store.CreateUser(ctx, newUser); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		return newUser, nil
	}

	return nil, err
}

// ResolveSession builds the session for a logged-in user. The preferred arena
// is used when the user belongs to it, otherwise the first membership wins.
// A user without memberships gets a session with no arena.
func (s *UserService) ResolveSession(ctx context.Context, userID, preferredArena uuid.UUID) (session.Context, error) {
	memberships, err := s.store.GetMemberships(ctx, userID)
	if err != nil {
		return session.Context{}, fmt.Errorf("failed to get memberships: %w", err)
	}

	sess := session.Context{UserID: userID}
	for i, m := range memberships {
		if i == 0 || m.ArenaID == preferredArena {
			sess.ArenaID = m.ArenaID
			sess.Role = m.Role
		}
		if m.ArenaID == preferredArena {
			break
		}
	}
	return sess, nil
}

func (s *UserService) GetMemberships(ctx context.Context, sess session.Context) ([]users.Membership, error) {
	return s.store.GetMemberships(ctx, sess.UserID)
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*users.User, error) {
	return s.store.GetUser(ctx, id)
}
