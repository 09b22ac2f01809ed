package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/AdamBeresnev/arena-manager/internal/authz"
	"github.com/AdamBeresnev/arena-manager/internal/bracket"
	"github.com/AdamBeresnev/arena-manager/internal/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tournament := env.openTournament(t)

	reg, err := env.registrations.Register(ctx, env.staff, tournament.ID, RegistrationInput{Player1Name: "  Ana ", Player2Name: "Bia"})
	require.NoError(t, err)
	assert.Equal(t, "Ana", reg.Player1Name)
	assert.Equal(t, "Ana / Bia", reg.DisplayName())
	assert.Equal(t, bracket.PaymentPending, reg.PaymentStatus)

	// Pending registrations are not eligible yet
	paid, err := env.registrations.ListPaidRegistrations(ctx, env.staff, tournament.ID)
	require.NoError(t, err)
	assert.Empty(t, paid)

	_, err = env.registrations.Register(ctx, env.staff, tournament.ID, RegistrationInput{Player1Name: " "})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = env.registrations.Register(ctx, env.staff, tournament.ID, RegistrationInput{Player1Name: strings.Repeat("a", 51)})
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestRegister_NotOpen(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tournament, err := env.tournaments.CreateTournament(ctx, env.admin, TournamentInput{Name: "Planejado"})
	require.NoError(t, err)

	_, err = env.registrations.Register(ctx, env.staff, tournament.ID, RegistrationInput{Player1Name: "Ana"})
	assert.ErrorIs(t, err, ErrRegistrationNotOpen)
}

func TestRegister_Window(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	env.registrations.now = func() time.Time { return now }

	tournament, err := env.tournaments.CreateTournament(ctx, env.admin, TournamentInput{
		Name:                 "Janela",
		RegistrationOpensAt:  utils.Ptr(now.Add(24 * time.Hour)),
		RegistrationClosesAt: utils.Ptr(now.Add(72 * time.Hour)),
	})
	require.NoError(t, err)
	_, err = env.tournaments.UpdateStatus(ctx, env.admin, tournament.ID, bracket.TournamentOpen)
	require.NoError(t, err)

	_, err = env.registrations.Register(ctx, env.staff, tournament.ID, RegistrationInput{Player1Name: "Cedo"})
	assert.ErrorIs(t, err, ErrRegistrationNotOpen)

	now = now.Add(48 * time.Hour)
	_, err = env.registrations.Register(ctx, env.staff, tournament.ID, RegistrationInput{Player1Name: "Na hora"})
	require.NoError(t, err)

	now = now.Add(48 * time.Hour)
	_, err = env.registrations.Register(ctx, env.staff, tournament.ID, RegistrationInput{Player1Name: "Tarde"})
	assert.ErrorIs(t, err, ErrRegistrationNotOpen)
}

func TestRegister_Capacity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tournament, err := env.tournaments.CreateTournament(ctx, env.admin, TournamentInput{Name: "Pequeno", Capacity: 2})
	require.NoError(t, err)
	_, err = env.tournaments.UpdateStatus(ctx, env.admin, tournament.ID, bracket.TournamentOpen)
	require.NoError(t, err)

	first, err := env.registrations.Register(ctx, env.staff, tournament.ID, RegistrationInput{Player1Name: "Ana"})
	require.NoError(t, err)
	_, err = env.registrations.Register(ctx, env.staff, tournament.ID, RegistrationInput{Player1Name: "Bia"})
	require.NoError(t, err)

	_, err = env.registrations.Register(ctx, env.staff, tournament.ID, RegistrationInput{Player1Name: "Carla"})
	assert.ErrorIs(t, err, ErrTournamentFull)

	// A refund frees the spot
	_, err = env.registrations.UpdatePaymentStatus(ctx, env.staff, first.ID, bracket.PaymentRefunded)
	require.NoError(t, err)
	_, err = env.registrations.Register(ctx, env.staff, tournament.ID, RegistrationInput{Player1Name: "Carla"})
	require.NoError(t, err)
}

func TestRegister_ConcurrentCapacity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tournament, err := env.tournaments.CreateTournament(ctx, env.admin, TournamentInput{Name: "Disputado", Capacity: 3})
	require.NoError(t, err)
	_, err = env.tournaments.UpdateStatus(ctx, env.admin, tournament.ID, bracket.TournamentOpen)
	require.NoError(t, err)

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.registrations.Register(ctx, env.staff, tournament.ID, RegistrationInput{Player1Name: fmt.Sprintf("Jogador %d", i)})
		}(i)
	}
	wg.Wait()

	var accepted, full int
	for _, err := range errs {
		switch {
		case err == nil:
			accepted++
		case errors.Is(err, ErrTournamentFull):
			full++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 3, accepted)
	assert.Equal(t, attempts-3, full)

	registrations, err := env.store.GetRegistrations(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Len(t, registrations, 3)
}

func TestUpdatePaymentStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tournament := env.openTournament(t)

	reg, err := env.registrations.Register(ctx, env.staff, tournament.ID, RegistrationInput{Player1Name: "Ana"})
	require.NoError(t, err)

	updated, err := env.registrations.UpdatePaymentStatus(ctx, env.staff, reg.ID, bracket.PaymentPaid)
	require.NoError(t, err)
	assert.Equal(t, bracket.PaymentPaid, updated.PaymentStatus)

	paid, err := env.registrations.ListPaidRegistrations(ctx, env.staff, tournament.ID)
	require.NoError(t, err)
	require.Len(t, paid, 1)
	assert.Equal(t, reg.ID, paid[0].ID)

	_, err = env.registrations.UpdatePaymentStatus(ctx, env.staff, reg.ID, bracket.PaymentPending)
	assert.ErrorIs(t, err, ErrInvalidPaymentTransition)

	_, err = env.registrations.UpdatePaymentStatus(ctx, env.staff, reg.ID, bracket.PaymentRefunded)
	require.NoError(t, err)

	_, err = env.registrations.UpdatePaymentStatus(ctx, env.staff, reg.ID, bracket.PaymentPaid)
	assert.ErrorIs(t, err, ErrInvalidPaymentTransition)

	outsider := env.staff
	outsider.ArenaID = uuid.New()
	_, err = env.registrations.ListPaidRegistrations(ctx, outsider, tournament.ID)
	assert.ErrorIs(t, err, authz.ErrForbidden)
}
