package bracket

import (
	"time"

	"github.com/google/uuid"
)

type TournamentStatus string

const (
	TournamentPlanning   TournamentStatus = "planning"
	TournamentOpen       TournamentStatus = "open"
	TournamentInProgress TournamentStatus = "in_progress"
	TournamentCompleted  TournamentStatus = "completed"
	TournamentCancelled  TournamentStatus = "cancelled"
)

// CanTransition reports whether the lifecycle allows moving from s to next.
func (s TournamentStatus) CanTransition(next TournamentStatus) bool {
	switch s {
	case TournamentPlanning:
		return next == TournamentOpen || next == TournamentCancelled
	case TournamentOpen:
		return next == TournamentInProgress || next == TournamentCancelled
	case TournamentInProgress:
		return next == TournamentCompleted || next == TournamentCancelled
	}
	return false
}

type BracketType string

const (
	SingleElimination BracketType = "single_elimination"
	GroupElimination  BracketType = "group_elimination"
)

func (t BracketType) Valid() bool {
	return t == SingleElimination || t == GroupElimination
}

type BracketStatus string

const (
	BracketNone      BracketStatus = "none"
	BracketGenerated BracketStatus = "generated"
)

type Tournament struct {
	ID                   uuid.UUID        `db:"id" json:"id"`
	ArenaID              uuid.UUID        `db:"arena_id" json:"arena_id"`
	Name                 string           `db:"name" json:"name"`
	Slug                 string           `db:"slug" json:"slug"`
	Modality             string           `db:"modality" json:"modality"`
	BracketType          BracketType      `db:"bracket_type" json:"bracket_type"`
	Capacity             int              `db:"capacity" json:"capacity"`
	EntryFeeCents        int64            `db:"entry_fee_cents" json:"entry_fee_cents"`
	StartsAt             *time.Time       `db:"starts_at" json:"starts_at,omitempty"`
	EndsAt               *time.Time       `db:"ends_at" json:"ends_at,omitempty"`
	RegistrationOpensAt  *time.Time       `db:"registration_opens_at" json:"registration_opens_at,omitempty"`
	RegistrationClosesAt *time.Time       `db:"registration_closes_at" json:"registration_closes_at,omitempty"`
	Status               TournamentStatus `db:"status" json:"status"`
	BracketStatus        BracketStatus    `db:"bracket_status" json:"bracket_status"`
	CreatedAt            time.Time        `db:"created_at" json:"created_at"`
}

// RegistrationOpenAt checks the optional registration window against t.
func (t *Tournament) RegistrationOpenAt(now time.Time) bool {
	if t.RegistrationOpensAt != nil && now.Before(*t.RegistrationOpensAt) {
		return false
	}
	if t.RegistrationClosesAt != nil && now.After(*t.RegistrationClosesAt) {
		return false
	}
	return true
}
