package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/AdamBeresnev/arena-manager/internal/authz"
	"github.com/AdamBeresnev/arena-manager/internal/bracket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateBracket_Counts(t *testing.T) {
	testCases := []struct {
		entrants    int
		firstRound  int
		byes        int
		totalRounds int
	}{
		{entrants: 2, firstRound: 1, byes: 0, totalRounds: 1},
		{entrants: 3, firstRound: 2, byes: 1, totalRounds: 2},
		{entrants: 4, firstRound: 2, byes: 0, totalRounds: 2},
		{entrants: 5, firstRound: 4, byes: 3, totalRounds: 3},
		{entrants: 8, firstRound: 4, byes: 0, totalRounds: 3},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%d entrants", tc.entrants), func(t *testing.T) {
			env := newTestEnv(t)
			ctx := context.Background()
			tournament := env.openTournament(t)
			env.paidEntrants(t, tournament.ID, tc.entrants)

			matches, err := env.brackets.GenerateBracket(ctx, env.admin, tournament.ID)
			require.NoError(t, err)

			firstRound := roundMatches(matches, 1)
			assert.Len(t, firstRound, tc.firstRound)
			assert.Len(t, roundMatches(matches, tc.totalRounds), 1)
			assert.Len(t, matches, bracket.Size(tc.entrants)-1)

			byes := 0
			for _, m := range firstRound {
				if m.IsBye {
					byes++
					assert.Equal(t, bracket.MatchFinished, m.Status)
				}
			}
			assert.Equal(t, tc.byes, byes)

			stored, err := env.store.GetMatches(ctx, tournament.ID)
			require.NoError(t, err)
			assert.Len(t, stored, len(matches))

			fetched, err := env.store.GetTournament(ctx, tournament.ID)
			require.NoError(t, err)
			assert.Equal(t, bracket.BracketGenerated, fetched.BracketStatus)
			assert.Equal(t, bracket.TournamentInProgress, fetched.Status)
		})
	}
}

func TestGenerateBracket_DrawOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tournament := env.openTournament(t)
	entrants := env.paidEntrants(t, tournament.ID, 4)

	matches, err := env.brackets.GenerateBracket(ctx, env.admin, tournament.ID)
	require.NoError(t, err)

	firstRound := roundMatches(matches, 1)
	require.Len(t, firstRound, 2)
	assert.Equal(t, entrants[0], *firstRound[0].Entry1ID)
	assert.Equal(t, entrants[3], *firstRound[0].Entry2ID)
	assert.Equal(t, entrants[1], *firstRound[1].Entry1ID)
	assert.Equal(t, entrants[2], *firstRound[1].Entry2ID)

	final := roundMatches(matches, 2)[0]
	assert.Equal(t, "final", final.Phase)
	assert.Nil(t, final.Entry1ID)
	assert.Nil(t, final.Entry2ID)

	assert.Equal(t, []string{
		EventTournamentUpdated,
		EventRegistrationUpdated, EventRegistrationUpdated,
		EventRegistrationUpdated, EventRegistrationUpdated,
		EventRegistrationUpdated, EventRegistrationUpdated,
		EventRegistrationUpdated, EventRegistrationUpdated,
		EventBracketGenerated,
	}, env.publisher.types())
}

func TestGenerateBracket_OnlyPaidEntrants(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tournament := env.openTournament(t)
	paid := env.paidEntrants(t, tournament.ID, 2)

	pending, err := env.registrations.Register(ctx, env.staff, tournament.ID, RegistrationInput{Player1Name: "Unpaid"})
	require.NoError(t, err)

	matches, err := env.brackets.GenerateBracket(ctx, env.admin, tournament.ID)
	require.NoError(t, err)
	require.Len(t, matches, 1)

	assert.ElementsMatch(t, paid, []uuid.UUID{*matches[0].Entry1ID, *matches[0].Entry2ID})
	assert.NotEqual(t, pending.ID, *matches[0].Entry1ID)
	assert.NotEqual(t, pending.ID, *matches[0].Entry2ID)
}

func TestGenerateBracket_InsufficientEntrants(t *testing.T) {
	for _, n := range []int{0, 1} {
		env := newTestEnv(t)
		ctx := context.Background()
		tournament := env.openTournament(t)
		env.paidEntrants(t, tournament.ID, n)

		_, err := env.brackets.GenerateBracket(ctx, env.admin, tournament.ID)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInsufficientEntrants)

		var insufficient *InsufficientEntrantsError
		require.True(t, errors.As(err, &insufficient))
		assert.Equal(t, n, insufficient.Count)

		count, err := env.store.CountMatches(ctx, tournament.ID)
		require.NoError(t, err)
		assert.Zero(t, count)

		fetched, err := env.store.GetTournament(ctx, tournament.ID)
		require.NoError(t, err)
		assert.Equal(t, bracket.BracketNone, fetched.BracketStatus)
		assert.Equal(t, bracket.TournamentOpen, fetched.Status)
	}
}

func TestGenerateBracket_OnlyOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tournament := env.openTournament(t)
	env.paidEntrants(t, tournament.ID, 4)

	first, err := env.brackets.GenerateBracket(ctx, env.admin, tournament.ID)
	require.NoError(t, err)

	_, err = env.brackets.GenerateBracket(ctx, env.admin, tournament.ID)
	assert.ErrorIs(t, err, ErrBracketAlreadyGenerated)

	count, err := env.store.CountMatches(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, len(first), count)
}

func TestGenerateBracket_Permissions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tournament := env.openTournament(t)
	env.paidEntrants(t, tournament.ID, 2)

	_, err := env.brackets.GenerateBracket(ctx, env.staff, tournament.ID)
	assert.ErrorIs(t, err, authz.ErrForbidden)

	outsider := env.admin
	outsider.ArenaID = uuid.New()
	_, err = env.brackets.GenerateBracket(ctx, outsider, tournament.ID)
	assert.ErrorIs(t, err, authz.ErrForbidden)

	count, err := env.store.CountMatches(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestGenerateBracket_UnsupportedType(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tournament, err := env.tournaments.CreateTournament(ctx, env.admin, TournamentInput{Name: "Grupos", BracketType: bracket.GroupElimination})
	require.NoError(t, err)
	env.paidEntrantsWhenOpen(t, tournament.ID, 4)

	_, err = env.brackets.GenerateBracket(ctx, env.admin, tournament.ID)
	assert.ErrorIs(t, err, ErrUnsupportedBracketType)
}

func TestGenerateBracket_CancelledTournament(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tournament := env.openTournament(t)
	env.paidEntrants(t, tournament.ID, 4)

	_, err := env.tournaments.UpdateStatus(ctx, env.admin, tournament.ID, bracket.TournamentCancelled)
	require.NoError(t, err)

	_, err = env.brackets.GenerateBracket(ctx, env.admin, tournament.ID)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

func (e *testEnv) paidEntrantsWhenOpen(t *testing.T, tournamentID uuid.UUID, n int) {
	t.Helper()
	_, err := e.tournaments.UpdateStatus(context.Background(), e.admin, tournamentID, bracket.TournamentOpen)
	require.NoError(t, err)
	e.paidEntrants(t, tournamentID, n)
}
