package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("requested resource not found")

	ErrValidationFailed         = errors.New("validation failed")
	ErrInvalidStatusTransition  = errors.New("invalid tournament status transition")
	ErrInvalidPaymentTransition = errors.New("invalid payment status transition")
	ErrRegistrationNotOpen      = errors.New("tournament registration is not open")
	ErrTournamentFull           = errors.New("tournament registration is full")

	ErrInsufficientEntrants    = errors.New("insufficient entrants")
	ErrBracketAlreadyGenerated = errors.New("bracket already generated for this tournament")
	ErrUnsupportedBracketType  = errors.New("bracket type is not supported for generation")
	ErrTournamentNotPlayable   = errors.New("tournament is not accepting results")

	ErrInvalidScore        = errors.New("scores must be zero or greater")
	ErrTiedScore           = errors.New("elimination matches cannot end in a tie")
	ErrMatchNotReady       = errors.New("match does not have two participants yet")
	ErrMatchAlreadyDecided = errors.New("match already has a winner")
)

// MinEntrants is the smallest field a bracket can be generated for.
const MinEntrants = 2

// InsufficientEntrantsError is returned when fewer than MinEntrants paid
// registrations exist. It matches ErrInsufficientEntrants with errors.Is.
type InsufficientEntrantsError struct {
	Count int
}

func (e *InsufficientEntrantsError) Error() string {
	return fmt.Sprintf("insufficient entrants: %d paid registrations, at least %d required", e.Count, MinEntrants)
}

func (e *InsufficientEntrantsError) Is(target error) bool {
	return target == ErrInsufficientEntrants
}
