package service

import (
	"context"
	"testing"
	"time"

	"github.com/AdamBeresnev/arena-manager/internal/authz"
	"github.com/AdamBeresnev/arena-manager/internal/bracket"
	"github.com/AdamBeresnev/arena-manager/internal/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTournament(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tournament, err := env.tournaments.CreateTournament(ctx, env.admin, TournamentInput{
		Name:          " Copa Primavera 2026 ",
		Modality:      "futevôlei",
		Capacity:      16,
		EntryFeeCents: 12000,
	})
	require.NoError(t, err)

	assert.Equal(t, "Copa Primavera 2026", tournament.Name)
	assert.Equal(t, "copa-primavera-2026", tournament.Slug)
	assert.Equal(t, bracket.SingleElimination, tournament.BracketType)
	assert.Equal(t, bracket.TournamentPlanning, tournament.Status)
	assert.Equal(t, bracket.BracketNone, tournament.BracketStatus)
	assert.Equal(t, env.arenaID, tournament.ArenaID)

	list, err := env.tournaments.ListTournaments(ctx, env.staff)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, tournament.ID, list[0].ID)
}

func TestCreateTournament_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	start := time.Date(2026, 11, 1, 9, 0, 0, 0, time.UTC)

	testCases := []struct {
		name  string
		input TournamentInput
	}{
		{name: "empty name", input: TournamentInput{Name: "  "}},
		{name: "unknown bracket type", input: TournamentInput{Name: "Copa", BracketType: "swiss"}},
		{name: "negative capacity", input: TournamentInput{Name: "Copa", Capacity: -1}},
		{name: "negative fee", input: TournamentInput{Name: "Copa", EntryFeeCents: -100}},
		{name: "ends before start", input: TournamentInput{Name: "Copa", StartsAt: &start, EndsAt: utils.Ptr(start.Add(-time.Hour))}},
		{name: "registration closes before opening", input: TournamentInput{Name: "Copa", RegistrationOpensAt: &start, RegistrationClosesAt: utils.Ptr(start.Add(-time.Hour))}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.tournaments.CreateTournament(ctx, env.admin, tc.input)
			assert.ErrorIs(t, err, ErrValidationFailed)
		})
	}

	_, err := env.tournaments.CreateTournament(ctx, env.staff, TournamentInput{Name: "Copa"})
	assert.ErrorIs(t, err, authz.ErrForbidden)
}

func TestUpdateStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tournament, err := env.tournaments.CreateTournament(ctx, env.admin, TournamentInput{Name: "Copa"})
	require.NoError(t, err)

	_, err = env.tournaments.UpdateStatus(ctx, env.staff, tournament.ID, bracket.TournamentOpen)
	assert.ErrorIs(t, err, authz.ErrForbidden)

	// in_progress only comes from generating the bracket
	_, err = env.tournaments.UpdateStatus(ctx, env.admin, tournament.ID, bracket.TournamentInProgress)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	updated, err := env.tournaments.UpdateStatus(ctx, env.admin, tournament.ID, bracket.TournamentOpen)
	require.NoError(t, err)
	assert.Equal(t, bracket.TournamentOpen, updated.Status)

	_, err = env.tournaments.UpdateStatus(ctx, env.admin, tournament.ID, bracket.TournamentPlanning)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	_, err = env.tournaments.UpdateStatus(ctx, env.admin, tournament.ID, bracket.TournamentCancelled)
	require.NoError(t, err)

	_, err = env.tournaments.UpdateStatus(ctx, env.admin, tournament.ID, bracket.TournamentOpen)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	_, err = env.tournaments.UpdateStatus(ctx, env.admin, uuid.New(), bracket.TournamentOpen)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetTournamentData(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tournamentID, _, matches := startedTournament(t, env)

	data, err := env.tournaments.GetTournamentData(ctx, env.staff, tournamentID)
	require.NoError(t, err)
	assert.Equal(t, tournamentID, data.Tournament.ID)
	assert.Len(t, data.Registrations, 4)
	assert.Len(t, data.Matches, len(matches))
	require.NotNil(t, data.NextMatchID)
	assert.Equal(t, roundMatches(matches, 1)[0].ID, *data.NextMatchID)

	outsider := env.staff
	outsider.ArenaID = uuid.New()
	_, err = env.tournaments.GetTournamentData(ctx, outsider, tournamentID)
	assert.ErrorIs(t, err, authz.ErrForbidden)
}
