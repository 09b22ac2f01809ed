package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AdamBeresnev/arena-manager/internal/authz"
	"github.com/AdamBeresnev/arena-manager/internal/bracket"
	"github.com/AdamBeresnev/arena-manager/internal/session"
	"github.com/AdamBeresnev/arena-manager/internal/store"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

type TournamentService struct {
	store     *store.TournamentStore
	publisher Publisher
}

func NewTournamentService(store *store.TournamentStore, publisher Publisher) *TournamentService {
	return &TournamentService{store: store, publisher: publisherOrNoop(publisher)}
}

type TournamentInput struct {
	Name                 string              `json:"name"`
	Modality             string              `json:"modality"`
	BracketType          bracket.BracketType `json:"bracket_type"`
	Capacity             int                 `json:"capacity"`
	EntryFeeCents        int64               `json:"entry_fee_cents"`
	StartsAt             *time.Time          `json:"starts_at"`
	EndsAt               *time.Time          `json:"ends_at"`
	RegistrationOpensAt  *time.Time          `json:"registration_opens_at"`
	RegistrationClosesAt *time.Time          `json:"registration_closes_at"`
}

func (in TournamentInput) validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return fmt.Errorf("%w: name is required", ErrValidationFailed)
	case len(in.Name) > 100:
		return fmt.Errorf("%w: name exceeds 100 characters", ErrValidationFailed)
	case !in.BracketType.Valid():
		return fmt.Errorf("%w: unknown bracket type %q", ErrValidationFailed, in.BracketType)
	case in.Capacity < 0:
		return fmt.Errorf("%w: capacity must not be negative", ErrValidationFailed)
	case in.EntryFeeCents < 0:
		return fmt.Errorf("%w: entry fee must not be negative", ErrValidationFailed)
	case in.StartsAt != nil && in.EndsAt != nil && in.EndsAt.Before(*in.StartsAt):
		return fmt.Errorf("%w: tournament end date must be after start date", ErrValidationFailed)
	case in.RegistrationOpensAt != nil && in.RegistrationClosesAt != nil && in.RegistrationClosesAt.Before(*in.RegistrationOpensAt):
		return fmt.Errorf("%w: registration end date must be after start date", ErrValidationFailed)
	}
	return nil
}

type TournamentData struct {
	Tournament    *bracket.Tournament    `json:"tournament"`
	Registrations []bracket.Registration `json:"registrations"`
	Matches       []bracket.Match        `json:"matches"`
	NextMatchID   *uuid.UUID             `json:"next_match_id,omitempty"`
}

func (s *TournamentService) CreateTournament(ctx context.Context, sess session.Context, in TournamentInput) (*bracket.Tournament, error) {
	if err := authz.RequireAdmin(sess, sess.ArenaID); err != nil {
		return nil, err
	}
	if in.BracketType == "" {
		in.BracketType = bracket.SingleElimination
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	tournament := &bracket.Tournament{
		ID:                   uuid.New(),
		ArenaID:              sess.ArenaID,
		Name:                 name,
		Slug:                 slug.Make(name),
		Modality:             strings.TrimSpace(in.Modality),
		BracketType:          in.BracketType,
		Capacity:             in.Capacity,
		EntryFeeCents:        in.EntryFeeCents,
		StartsAt:             in.StartsAt,
		EndsAt:               in.EndsAt,
		RegistrationOpensAt:  in.RegistrationOpensAt,
		RegistrationClosesAt: in.RegistrationClosesAt,
		Status:               bracket.TournamentPlanning,
		BracketStatus:        bracket.BracketNone,
	}

	if err := s.store.CreateTournament(ctx, tournament); err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	return tournament, nil
}

// loadTournament fetches a tournament and checks the caller belongs to its arena.
func (s *TournamentService) loadTournament(ctx context.Context, sess session.Context, id uuid.UUID) (*bracket.Tournament, error) {
	return loadTournament(ctx, s.store, sess, id)
}

func loadTournament(ctx context.Context, tournaments *store.TournamentStore, sess session.Context, id uuid.UUID) (*bracket.Tournament, error) {
	tournament, err := tournaments.GetTournament(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("tournament %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}
	if err := authz.RequireMember(sess, tournament.ArenaID); err != nil {
		return nil, err
	}
	return tournament, nil
}

func (s *TournamentService) GetTournament(ctx context.Context, sess session.Context, id uuid.UUID) (*bracket.Tournament, error) {
	return s.loadTournament(ctx, sess, id)
}

func (s *TournamentService) GetTournamentData(ctx context.Context, sess session.Context, id uuid.UUID) (*TournamentData, error) {
	tournament, err := s.loadTournament(ctx, sess, id)
	if err != nil {
		return nil, err
	}

	registrations, err := s.store.GetRegistrations(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get registrations: %w", err)
	}

	matches, err := s.store.GetMatches(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get matches: %w", err)
	}

	var nextMatchID *uuid.UUID
	for _, m := range matches {
		if m.Ready() {
			id := m.ID
			nextMatchID = &id
			break
		}
	}

	return &TournamentData{
		Tournament:    tournament,
		Registrations: registrations,
		Matches:       matches,
		NextMatchID:   nextMatchID,
	}, nil
}

func (s *TournamentService) ListTournaments(ctx context.Context, sess session.Context) ([]bracket.Tournament, error) {
	if err := authz.RequireMember(sess, sess.ArenaID); err != nil {
		return nil, err
	}
	return s.store.GetTournamentsByArena(ctx, sess.ArenaID)
}

// UpdateStatus applies a manual lifecycle change. in_progress and completed
// are reached only through bracket generation and the final result.
func (s *TournamentService) UpdateStatus(ctx context.Context, sess session.Context, id uuid.UUID, next bracket.TournamentStatus) (*bracket.Tournament, error) {
	tournament, err := s.loadTournament(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireAdmin(sess, tournament.ArenaID); err != nil {
		return nil, err
	}

	if next == bracket.TournamentInProgress || next == bracket.TournamentCompleted || !tournament.Status.CanTransition(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, tournament.Status, next)
	}

	ok, err := s.store.UpdateTournamentStatus(ctx, id, tournament.Status, next)
	if err != nil {
		return nil, fmt.Errorf("failed to update tournament status: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: status changed concurrently", ErrInvalidStatusTransition)
	}

	tournament.Status = next
	s.publisher.Publish(id, EventTournamentUpdated, tournament)
	return tournament, nil
}
