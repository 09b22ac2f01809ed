package bracket

import (
	"time"

	"github.com/google/uuid"
)

type MatchStatus string

const (
	MatchPending  MatchStatus = "pending"
	MatchFinished MatchStatus = "finished"
)

type Match struct {
	ID           uuid.UUID `db:"id" json:"id"`
	TournamentID uuid.UUID `db:"tournament_id" json:"tournament_id"`

	// Position in the bracket for reconstructing the view
	RoundNumber int    `db:"round_number" json:"round_number"`
	MatchOrder  int    `db:"match_order" json:"match_order"`
	Phase       string `db:"phase" json:"phase"`

	Entry1ID *uuid.UUID `db:"entry_1_id" json:"entry_1_id,omitempty"`
	Entry2ID *uuid.UUID `db:"entry_2_id" json:"entry_2_id,omitempty"`

	Score1     *int        `db:"score_1" json:"score_1,omitempty"`
	Score2     *int        `db:"score_2" json:"score_2,omitempty"`
	WinnerSlot *int        `db:"winner_slot" json:"winner_slot,omitempty"`
	Status     MatchStatus `db:"status" json:"status"`
	IsBye      bool        `db:"is_bye" json:"is_bye"`

	WinnerNextMatchID *uuid.UUID `db:"winner_next_match_id" json:"winner_next_match_id,omitempty"`
	WinnerNextSlot    *int       `db:"winner_next_slot" json:"winner_next_slot,omitempty"`

	Court       *string    `db:"court" json:"court,omitempty"`
	ScheduledAt *time.Time `db:"scheduled_at" json:"scheduled_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

func (m *Match) IsWinner(slot int) bool {
	return m.Status == MatchFinished && m.WinnerSlot != nil && *m.WinnerSlot == slot
}

func (m *Match) IsLoser(slot int) bool {
	return m.Status == MatchFinished && m.WinnerSlot != nil && *m.WinnerSlot != slot
}

// Ready reports whether both sides are known and the match can be scored.
func (m *Match) Ready() bool {
	return m.Status == MatchPending && m.Entry1ID != nil && m.Entry2ID != nil
}

// EntryInSlot returns the registration sitting in slot 1 or 2.
func (m *Match) EntryInSlot(slot int) *uuid.UUID {
	if slot == 1 {
		return m.Entry1ID
	}
	return m.Entry2ID
}

// Fill places an entry into slot 1 or 2.
func (m *Match) Fill(slot int, entryID uuid.UUID) {
	if slot == 1 {
		m.Entry1ID = &entryID
	} else {
		m.Entry2ID = &entryID
	}
}
