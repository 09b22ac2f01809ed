package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/AdamBeresnev/arena-manager/internal/authz"
	"github.com/AdamBeresnev/arena-manager/internal/bracket"
	"github.com/AdamBeresnev/arena-manager/internal/session"
	"github.com/AdamBeresnev/arena-manager/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type BracketService struct {
	db            *sqlx.DB
	store         *store.TournamentStore
	registrations *RegistrationService
	publisher     Publisher

	// Draw order permutation, rand.Shuffle unless replaced in tests
	shuffle func(n int, swap func(i, j int))
}

func NewBracketService(db *sqlx.DB, store *store.TournamentStore, registrations *RegistrationService, publisher Publisher) *BracketService {
	return &BracketService{
		db:            db,
		store:         store,
		registrations: registrations,
		publisher:     publisherOrNoop(publisher),
		shuffle:       rand.Shuffle,
	}
}

// GenerateBracket draws the paid registrations of a tournament into a single
// elimination tree and persists every match. It is legal only once per
// tournament; the bracket_status guard is taken in the same transaction.
func (s *BracketService) GenerateBracket(ctx context.Context, sess session.Context, tournamentID uuid.UUID) ([]bracket.Match, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	tournament, err := s.store.GetTournamentTx(ctx, tx, tournamentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("tournament %s: %w", tournamentID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}
	if err := authz.RequireAdmin(sess, tournament.ArenaID); err != nil {
		return nil, err
	}

	if tournament.BracketType != bracket.SingleElimination {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedBracketType, tournament.BracketType)
	}
	if tournament.BracketStatus != bracket.BracketNone {
		return nil, ErrBracketAlreadyGenerated
	}
	if tournament.Status != bracket.TournamentPlanning && tournament.Status != bracket.TournamentOpen {
		return nil, fmt.Errorf("%w: tournament is %s", ErrInvalidStatusTransition, tournament.Status)
	}

	entrants, err := s.registrations.paidEntrantsTx(ctx, tx, tournamentID)
	if err != nil {
		return nil, err
	}
	if len(entrants) < MinEntrants {
		return nil, &InsufficientEntrantsError{Count: len(entrants)}
	}

	ok, err := s.store.MarkBracketGeneratedTx(ctx, tx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark bracket generated: %w", err)
	}
	if !ok {
		return nil, ErrBracketAlreadyGenerated
	}

	s.shuffle(len(entrants), func(i, j int) {
		entrants[i], entrants[j] = entrants[j], entrants[i]
	})

	matches := bracket.BuildSingleElimination(tournamentID, entrants)
	if err := s.store.CreateMatches(ctx, tx, matches); err != nil {
		return nil, fmt.Errorf("failed to create matches: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	slog.Info("bracket generated", "tournament_id", tournamentID, "entrants", len(entrants), "matches", len(matches))
	s.publisher.Publish(tournamentID, EventBracketGenerated, matches)
	return matches, nil
}
