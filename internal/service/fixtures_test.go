package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/AdamBeresnev/arena-manager/internal/billing"
	"github.com/AdamBeresnev/arena-manager/internal/bracket"
	"github.com/AdamBeresnev/arena-manager/internal/dbtest"
	"github.com/AdamBeresnev/arena-manager/internal/session"
	"github.com/AdamBeresnev/arena-manager/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

type publishedEvent struct {
	TournamentID uuid.UUID
	Type         string
	Payload      any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(tournamentID uuid.UUID, eventType string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{TournamentID: tournamentID, Type: eventType, Payload: payload})
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var types []string
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

type testEnv struct {
	db            *sqlx.DB
	store         *store.TournamentStore
	publisher     *recordingPublisher
	tournaments   *TournamentService
	registrations *RegistrationService
	brackets      *BracketService
	matches       *MatchService

	arenaID uuid.UUID
	admin   session.Context
	staff   session.Context
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := dbtest.New(t)
	tournamentStore := store.NewTournamentStore(db)
	publisher := &recordingPublisher{}
	registrations := NewRegistrationService(db, tournamentStore, publisher)

	brackets := NewBracketService(db, tournamentStore, registrations, publisher)
	// Keep sign-up order so tests can predict the draw
	brackets.shuffle = func(int, func(i, j int)) {}

	arenaID := dbtest.Arena(t, db, billing.ArenaActive)
	adminID := dbtest.Member(t, db, arenaID, billing.RoleAdmin)
	staffID := dbtest.Member(t, db, arenaID, billing.RoleStaff)

	return &testEnv{
		db:            db,
		store:         tournamentStore,
		publisher:     publisher,
		tournaments:   NewTournamentService(tournamentStore, publisher),
		registrations: registrations,
		brackets:      brackets,
		matches:       NewMatchService(db, tournamentStore, publisher),
		arenaID:       arenaID,
		admin:         session.Context{UserID: adminID, ArenaID: arenaID, Role: billing.RoleAdmin},
		staff:         session.Context{UserID: staffID, ArenaID: arenaID, Role: billing.RoleStaff},
	}
}

// openTournament creates a tournament and moves it to open.
func (e *testEnv) openTournament(t *testing.T) *bracket.Tournament {
	t.Helper()
	ctx := context.Background()

	tournament, err := e.tournaments.CreateTournament(ctx, e.admin, TournamentInput{Name: "Copa Verão", Modality: "beach tennis"})
	require.NoError(t, err)
	tournament, err = e.tournaments.UpdateStatus(ctx, e.admin, tournament.ID, bracket.TournamentOpen)
	require.NoError(t, err)
	return tournament
}

// paidEntrants registers n players and marks every one as paid.
func (e *testEnv) paidEntrants(t *testing.T, tournamentID uuid.UUID, n int) []uuid.UUID {
	t.Helper()
	ctx := context.Background()

	ids := make([]uuid.UUID, 0, n)
	for i := 0; i < n; i++ {
		reg, err := e.registrations.Register(ctx, e.staff, tournamentID, RegistrationInput{Player1Name: fmt.Sprintf("Player %d", i+1)})
		require.NoError(t, err)
		_, err = e.registrations.UpdatePaymentStatus(ctx, e.staff, reg.ID, bracket.PaymentPaid)
		require.NoError(t, err)
		ids = append(ids, reg.ID)
	}
	return ids
}

func roundMatches(matches []bracket.Match, round int) []bracket.Match {
	var out []bracket.Match
	for _, m := range matches {
		if m.RoundNumber == round {
			out = append(out, m)
		}
	}
	return out
}
