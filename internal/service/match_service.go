package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/AdamBeresnev/arena-manager/internal/authz"
	"github.com/AdamBeresnev/arena-manager/internal/bracket"
	"github.com/AdamBeresnev/arena-manager/internal/session"
	"github.com/AdamBeresnev/arena-manager/internal/store"
	"github.com/AdamBeresnev/arena-manager/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type MatchService struct {
	db        *sqlx.DB
	store     *store.TournamentStore
	publisher Publisher
}

func NewMatchService(db *sqlx.DB, store *store.TournamentStore, publisher Publisher) *MatchService {
	return &MatchService{db: db, store: store, publisher: publisherOrNoop(publisher)}
}

type MatchResult struct {
	Match      *bracket.Match `json:"match"`
	NextMatch  *bracket.Match `json:"next_match,omitempty"`
	Completed  bool           `json:"tournament_completed"`
	WinnerID   uuid.UUID      `json:"winner_id"`
	Tournament uuid.UUID      `json:"tournament_id"`
}

// winnerSlot picks the side with the strictly higher score. Ties are rejected
// since an elimination match cannot end without a winner.
func winnerSlot(score1, score2 int) (int, error) {
	if score1 < 0 || score2 < 0 {
		return 0, ErrInvalidScore
	}
	if score1 == score2 {
		return 0, ErrTiedScore
	}
	if score1 > score2 {
		return 1, nil
	}
	return 2, nil
}

func (s *MatchService) GetMatch(ctx context.Context, sess session.Context, matchID uuid.UUID) (*bracket.Match, error) {
	match, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("match %s: %w", matchID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	if _, err := loadTournament(ctx, s.store, sess, match.TournamentID); err != nil {
		return nil, err
	}
	return match, nil
}

// RecordScore stores the result of a match and moves the winner into the
// successor slot. Scoring the final completes the tournament.
func (s *MatchService) RecordScore(ctx context.Context, sess session.Context, matchID uuid.UUID, score1, score2 int) (*MatchResult, error) {
	slot, err := winnerSlot(score1, score2)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	match, err := s.store.GetMatchTx(ctx, tx, matchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("match %s: %w", matchID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get match: %w", err)
	}

	tournament, err := s.store.GetTournamentTx(ctx, tx, match.TournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}
	if err := authz.RequireMember(sess, tournament.ArenaID); err != nil {
		return nil, err
	}
	if tournament.Status != bracket.TournamentInProgress {
		return nil, fmt.Errorf("%w: tournament is %s", ErrTournamentNotPlayable, tournament.Status)
	}

	if match.Status == bracket.MatchFinished {
		return nil, ErrMatchAlreadyDecided
	}
	if !match.Ready() {
		return nil, ErrMatchNotReady
	}

	match.Score1 = utils.Ptr(score1)
	match.Score2 = utils.Ptr(score2)
	match.WinnerSlot = utils.Ptr(slot)
	match.Status = bracket.MatchFinished

	if err := s.store.UpdateMatch(ctx, tx, match); err != nil {
		return nil, fmt.Errorf("failed to update match: %w", err)
	}

	winnerID := *match.EntryInSlot(slot)
	result := &MatchResult{Match: match, WinnerID: winnerID, Tournament: match.TournamentID}

	if match.WinnerNextMatchID != nil && match.WinnerNextSlot != nil {
		nextMatch, err := s.store.GetMatchTx(ctx, tx, *match.WinnerNextMatchID)
		if err != nil {
			return nil, fmt.Errorf("failed to get next match: %w", err)
		}

		nextMatch.Fill(*match.WinnerNextSlot, winnerID)

		if err := s.store.UpdateMatch(ctx, tx, nextMatch); err != nil {
			return nil, fmt.Errorf("failed to update next match: %w", err)
		}
		result.NextMatch = nextMatch
	} else {
		// If there is no next match this was the final
		if err := s.store.UpdateTournamentStatusTx(ctx, tx, match.TournamentID, bracket.TournamentCompleted); err != nil {
			return nil, fmt.Errorf("failed to update tournament status: %w", err)
		}
		result.Completed = true
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.publisher.Publish(match.TournamentID, EventMatchUpdated, result)
	if result.Completed {
		tournament.Status = bracket.TournamentCompleted
		s.publisher.Publish(match.TournamentID, EventTournamentUpdated, tournament)
	}
	return result, nil
}

// ScheduleMatch assigns a court and a start time. Either may be cleared.
func (s *MatchService) ScheduleMatch(ctx context.Context, sess session.Context, matchID uuid.UUID, court string, scheduledAt *time.Time) (*bracket.Match, error) {
	match, err := s.GetMatch(ctx, sess, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status == bracket.MatchFinished {
		return nil, ErrMatchAlreadyDecided
	}

	courtValue := utils.StringOrNil(court)
	if courtValue != nil && len(*courtValue) > 50 {
		return nil, fmt.Errorf("%w: court exceeds 50 characters", ErrValidationFailed)
	}

	if err := s.store.UpdateMatchSchedule(ctx, matchID, courtValue, scheduledAt); err != nil {
		return nil, fmt.Errorf("failed to schedule match: %w", err)
	}

	match.Court = courtValue
	match.ScheduledAt = scheduledAt
	s.publisher.Publish(match.TournamentID, EventMatchUpdated, &MatchResult{Match: match, Tournament: match.TournamentID})
	return match, nil
}
