package bracket

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) CanTransition(next PaymentStatus) bool {
	switch s {
	case PaymentPending:
		return next == PaymentPaid || next == PaymentRefunded
	case PaymentPaid:
		return next == PaymentRefunded
	}
	return false
}

// Registration is a singles or doubles sign-up. Player2Name is set for doubles.
type Registration struct {
	ID            uuid.UUID     `db:"id" json:"id"`
	TournamentID  uuid.UUID     `db:"tournament_id" json:"tournament_id"`
	Player1Name   string        `db:"player1_name" json:"player1_name"`
	Player2Name   *string       `db:"player2_name" json:"player2_name,omitempty"`
	PaymentStatus PaymentStatus `db:"payment_status" json:"payment_status"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
}

func (r Registration) DisplayName() string {
	if r.Player2Name != nil && *r.Player2Name != "" {
		return r.Player1Name + " / " + *r.Player2Name
	}
	return r.Player1Name
}
