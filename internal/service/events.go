package service

import "github.com/google/uuid"

const (
	EventBracketGenerated    = "bracket.generated"
	EventMatchUpdated        = "match.updated"
	EventTournamentUpdated   = "tournament.updated"
	EventRegistrationUpdated = "registration.updated"
)

// Publisher pushes change events to subscribers of a tournament.
type Publisher interface {
	Publish(tournamentID uuid.UUID, eventType string, payload any)
}

type noopPublisher struct{}

func (noopPublisher) Publish(uuid.UUID, string, any) {}

func publisherOrNoop(p Publisher) Publisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}
