package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AdamBeresnev/arena-manager/internal/bracket"
	"github.com/AdamBeresnev/arena-manager/internal/session"
	"github.com/AdamBeresnev/arena-manager/internal/store"
	"github.com/AdamBeresnev/arena-manager/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// RegistrationService owns sign-ups and is the gate that decides which of
// them are eligible for the bracket.
type RegistrationService struct {
	db        *sqlx.DB
	store     *store.TournamentStore
	publisher Publisher
	now       func() time.Time
}

func NewRegistrationService(db *sqlx.DB, store *store.TournamentStore, publisher Publisher) *RegistrationService {
	return &RegistrationService{db: db, store: store, publisher: publisherOrNoop(publisher), now: time.Now}
}

type RegistrationInput struct {
	Player1Name string `json:"player1_name"`
	Player2Name string `json:"player2_name"`
}

// ListPaidRegistrations returns the registrations eligible for the bracket in
// sign-up order. An empty result is valid.
func (s *RegistrationService) ListPaidRegistrations(ctx context.Context, sess session.Context, tournamentID uuid.UUID) ([]bracket.Registration, error) {
	if _, err := loadTournament(ctx, s.store, sess, tournamentID); err != nil {
		return nil, err
	}
	registrations, err := s.store.GetPaidRegistrations(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get paid registrations: %w", err)
	}
	return registrations, nil
}

// paidEntrantsTx is the gate as seen from inside the bracket transaction.
func (s *RegistrationService) paidEntrantsTx(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID) ([]uuid.UUID, error) {
	registrations, err := s.store.GetPaidRegistrationsTx(ctx, tx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get paid registrations: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(registrations))
	for _, r := range registrations {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

func (s *RegistrationService) Register(ctx context.Context, sess session.Context, tournamentID uuid.UUID, in RegistrationInput) (*bracket.Registration, error) {
	tournament, err := loadTournament(ctx, s.store, sess, tournamentID)
	if err != nil {
		return nil, err
	}

	player1 := strings.TrimSpace(in.Player1Name)
	if player1 == "" {
		return nil, fmt.Errorf("%w: player name is required", ErrValidationFailed)
	}
	if len(player1) > 50 || len(in.Player2Name) > 50 {
		return nil, fmt.Errorf("%w: player name exceeds 50 characters", ErrValidationFailed)
	}

	if tournament.Status != bracket.TournamentOpen || !tournament.RegistrationOpenAt(s.now()) {
		return nil, ErrRegistrationNotOpen
	}

	registration := &bracket.Registration{
		ID:            uuid.New(),
		TournamentID:  tournamentID,
		Player1Name:   player1,
		Player2Name:   utils.StringOrNil(in.Player2Name),
		PaymentStatus: bracket.PaymentPending,
	}

	// The capacity check and the insert share one transaction
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if tournament.Capacity > 0 {
		count, err := s.store.CountActiveRegistrations(ctx, tx, tournamentID)
		if err != nil {
			return nil, fmt.Errorf("failed to count registrations: %w", err)
		}
		if count >= tournament.Capacity {
			return nil, ErrTournamentFull
		}
	}

	if err := s.store.CreateRegistration(ctx, tx, registration); err != nil {
		return nil, fmt.Errorf("failed to create registration: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.publisher.Publish(tournamentID, EventRegistrationUpdated, registration)
	return registration, nil
}

func (s *RegistrationService) UpdatePaymentStatus(ctx context.Context, sess session.Context, registrationID uuid.UUID, next bracket.PaymentStatus) (*bracket.Registration, error) {
	registration, err := s.store.GetRegistration(ctx, registrationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("registration %s: %w", registrationID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get registration: %w", err)
	}

	if _, err := loadTournament(ctx, s.store, sess, registration.TournamentID); err != nil {
		return nil, err
	}

	if !registration.PaymentStatus.CanTransition(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidPaymentTransition, registration.PaymentStatus, next)
	}

	ok, err := s.store.UpdatePaymentStatus(ctx, registrationID, registration.PaymentStatus, next)
	if err != nil {
		return nil, fmt.Errorf("failed to update payment status: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: status changed concurrently", ErrInvalidPaymentTransition)
	}

	registration.PaymentStatus = next
	s.publisher.Publish(registration.TournamentID, EventRegistrationUpdated, registration)
	return registration, nil
}
