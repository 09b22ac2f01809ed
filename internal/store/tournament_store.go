package store

import (
	"context"
	"time"

	"github.com/AdamBeresnev/arena-manager/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type TournamentStore struct {
	db *sqlx.DB
}

func NewTournamentStore(db *sqlx.DB) *TournamentStore {
	return &TournamentStore{db: db}
}

const (
	createTournamentQuery = `INSERT INTO tournaments (id, arena_id, name, slug, modality, bracket_type, capacity, entry_fee_cents,
			starts_at, ends_at, registration_opens_at, registration_closes_at, status, bracket_status)
		VALUES (:id, :arena_id, :name, :slug, :modality, :bracket_type, :capacity, :entry_fee_cents,
			:starts_at, :ends_at, :registration_opens_at, :registration_closes_at, :status, :bracket_status)`
	createRegistrationQuery = `INSERT INTO registrations (id, tournament_id, player1_name, player2_name, payment_status)
		VALUES (:id, :tournament_id, :player1_name, :player2_name, :payment_status)`
	createMatchesQuery = `INSERT INTO matches (id, tournament_id, round_number, match_order, phase, entry_1_id, entry_2_id,
			score_1, score_2, winner_slot, status, is_bye, winner_next_match_id, winner_next_slot)
		VALUES (:id, :tournament_id, :round_number, :match_order, :phase, :entry_1_id, :entry_2_id,
			:score_1, :score_2, :winner_slot, :status, :is_bye, :winner_next_match_id, :winner_next_slot)`
	updateMatchQuery = `UPDATE matches SET
			entry_1_id = :entry_1_id,
			entry_2_id = :entry_2_id,
			score_1 = :score_1,
			score_2 = :score_2,
			winner_slot = :winner_slot,
			status = :status,
			is_bye = :is_bye
		WHERE id = :id`
)

func (s *TournamentStore) CreateTournament(ctx context.Context, tournament *bracket.Tournament) error {
	_, err := s.db.NamedExecContext(ctx, createTournamentQuery, tournament)
	return err
}

func (s *TournamentStore) GetTournament(ctx context.Context, id uuid.UUID) (*bracket.Tournament, error) {
	return getTournament(ctx, s.db, id)
}

func (s *TournamentStore) GetTournamentTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*bracket.Tournament, error) {
	return getTournament(ctx, tx, id)
}

func getTournament(ctx context.Context, q querier, id uuid.UUID) (*bracket.Tournament, error) {
	var tournament bracket.Tournament
	if err := q.GetContext(ctx, &tournament, "SELECT * FROM tournaments WHERE id = ?", id); err != nil {
		return nil, err
	}
	return &tournament, nil
}

func (s *TournamentStore) GetTournamentsByArena(ctx context.Context, arenaID uuid.UUID) ([]bracket.Tournament, error) {
	var tournaments []bracket.Tournament
	err := s.db.SelectContext(ctx, &tournaments, "SELECT * FROM tournaments WHERE arena_id = ? ORDER BY created_at DESC, rowid DESC", arenaID)
	return tournaments, err
}

// UpdateTournamentStatus moves the tournament only when it is still in from.
func (s *TournamentStore) UpdateTournamentStatus(ctx context.Context, id uuid.UUID, from, to bracket.TournamentStatus) (bool, error) {
	res, err := s.db.ExecContext(ctx, "UPDATE tournaments SET status = ? WHERE id = ? AND status = ?", to, id, from)
	return affectedOne(res, err)
}

func (s *TournamentStore) UpdateTournamentStatusTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status bracket.TournamentStatus) error {
	_, err := tx.ExecContext(ctx, "UPDATE tournaments SET status = ? WHERE id = ?", status, id)
	return err
}

// MarkBracketGeneratedTx is the none -> generated guard. It reports false when
// a bracket already exists for the tournament.
func (s *TournamentStore) MarkBracketGeneratedTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (bool, error) {
	res, err := tx.ExecContext(ctx, `UPDATE tournaments SET bracket_status = ?, status = ?
		WHERE id = ? AND bracket_status = ?`, bracket.BracketGenerated, bracket.TournamentInProgress, id, bracket.BracketNone)
	return affectedOne(res, err)
}

func (s *TournamentStore) CreateRegistration(ctx context.Context, tx *sqlx.Tx, registration *bracket.Registration) error {
	_, err := tx.NamedExecContext(ctx, createRegistrationQuery, registration)
	return err
}

func (s *TournamentStore) GetRegistration(ctx context.Context, id uuid.UUID) (*bracket.Registration, error) {
	var registration bracket.Registration
	if err := s.db.GetContext(ctx, &registration, "SELECT * FROM registrations WHERE id = ?", id); err != nil {
		return nil, err
	}
	return &registration, nil
}

func (s *TournamentStore) GetRegistrations(ctx context.Context, tournamentID uuid.UUID) ([]bracket.Registration, error) {
	var registrations []bracket.Registration
	err := s.db.SelectContext(ctx, &registrations, "SELECT * FROM registrations WHERE tournament_id = ? ORDER BY created_at ASC, rowid ASC", tournamentID)
	return registrations, err
}

func (s *TournamentStore) GetPaidRegistrations(ctx context.Context, tournamentID uuid.UUID) ([]bracket.Registration, error) {
	return getPaidRegistrations(ctx, s.db, tournamentID)
}

func (s *TournamentStore) GetPaidRegistrationsTx(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID) ([]bracket.Registration, error) {
	return getPaidRegistrations(ctx, tx, tournamentID)
}

func getPaidRegistrations(ctx context.Context, q querier, tournamentID uuid.UUID) ([]bracket.Registration, error) {
	var registrations []bracket.Registration
	err := q.SelectContext(ctx, &registrations, `SELECT * FROM registrations
		WHERE tournament_id = ? AND payment_status = ?
		ORDER BY created_at ASC, rowid ASC`, tournamentID, bracket.PaymentPaid)
	return registrations, err
}

// CountActiveRegistrations counts sign-ups that still hold a spot.
func (s *TournamentStore) CountActiveRegistrations(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID) (int, error) {
	var count int
	err := tx.GetContext(ctx, &count, "SELECT COUNT(*) FROM registrations WHERE tournament_id = ? AND payment_status != ?", tournamentID, bracket.PaymentRefunded)
	return count, err
}

func (s *TournamentStore) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, from, to bracket.PaymentStatus) (bool, error) {
	res, err := s.db.ExecContext(ctx, "UPDATE registrations SET payment_status = ? WHERE id = ? AND payment_status = ?", to, id, from)
	return affectedOne(res, err)
}

func (s *TournamentStore) CreateMatches(ctx context.Context, tx *sqlx.Tx, matches []bracket.Match) error {
	if len(matches) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, createMatchesQuery, matches)
	return err
}

func (s *TournamentStore) GetMatches(ctx context.Context, tournamentID uuid.UUID) ([]bracket.Match, error) {
	var matches []bracket.Match
	err := s.db.SelectContext(ctx, &matches, "SELECT * FROM matches WHERE tournament_id = ? ORDER BY round_number ASC, match_order ASC", tournamentID)
	return matches, err
}

func (s *TournamentStore) CountMatches(ctx context.Context, tournamentID uuid.UUID) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM matches WHERE tournament_id = ?", tournamentID)
	return count, err
}

func (s *TournamentStore) GetMatch(ctx context.Context, id uuid.UUID) (*bracket.Match, error) {
	return getMatch(ctx, s.db, id)
}

func (s *TournamentStore) GetMatchTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*bracket.Match, error) {
	return getMatch(ctx, tx, id)
}

func getMatch(ctx context.Context, q querier, id uuid.UUID) (*bracket.Match, error) {
	var match bracket.Match
	if err := q.GetContext(ctx, &match, "SELECT * FROM matches WHERE id = ?", id); err != nil {
		return nil, err
	}
	return &match, nil
}

func (s *TournamentStore) UpdateMatch(ctx context.Context, tx *sqlx.Tx, match *bracket.Match) error {
	_, err := tx.NamedExecContext(ctx, updateMatchQuery, match)
	return err
}

func (s *TournamentStore) UpdateMatchSchedule(ctx context.Context, id uuid.UUID, court *string, scheduledAt *time.Time) error {
	_, err := s.db.ExecContext(ctx, "UPDATE matches SET court = ?, scheduled_at = ? WHERE id = ?", court, scheduledAt, id)
	return err
}
