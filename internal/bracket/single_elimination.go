package bracket

import (
	"fmt"
	"math"

	"github.com/AdamBeresnev/arena-manager/internal/utils"
	"github.com/google/uuid"
)

// Size gets the nearest power of 2 while rounding up, so with input 5 it returns 8 and so on
func Size(count int) int {
	if count <= 0 {
		return 0
	}

	// Log2 -> Ceil -> 2^^log2 to round up
	log2 := math.Ceil(math.Log2(float64(count)))
	return int(math.Pow(2, log2))
}

// FirstRoundPairs returns draw positions paired for round one. Position 0 meets
// the last position, so the empty positions of a partial draw are spread across
// different matches and two byes never meet.
func FirstRoundPairs(bracketSize int) [][2]int {
	if bracketSize < 2 {
		return [][2]int{}
	}

	rounds := []int{0}
	for len(rounds) < bracketSize {
		var nextRound []int
		currentCount := len(rounds) * 2

		for _, pos := range rounds {
			nextRound = append(nextRound, pos)
			nextRound = append(nextRound, (currentCount-1)-pos)
		}
		rounds = nextRound
	}

	pairs := make([][2]int, 0, bracketSize/2)
	for i := 0; i < len(rounds); i += 2 {
		pairs = append(pairs, [2]int{rounds[i], rounds[i+1]})
	}

	return pairs
}

// PhaseName labels a round by how many matches it holds.
func PhaseName(matchesInRound int) string {
	switch matchesInRound {
	case 1:
		return "final"
	case 2:
		return "semifinal"
	case 4:
		return "quarterfinal"
	default:
		return fmt.Sprintf("round of %d", matchesInRound*2)
	}
}

// BuildSingleElimination creates every match of the tree for entrants in draw
// order. Later rounds start empty and each non-final match points at the slot
// its winner moves into. First round byes are already decided and advanced.
func BuildSingleElimination(tournamentID uuid.UUID, entrants []uuid.UUID) []Match {
	bracketSize := Size(len(entrants))
	if bracketSize < 2 {
		return nil
	}
	totalRounds := int(math.Log2(float64(bracketSize)))

	var matches []Match
	nextRoundMatchIDs := make(map[int]uuid.UUID)

	// Significantly easier to start from the last round and work backwards
	for r := totalRounds; r >= 1; r-- {
		matchesInCurrentRound := int(math.Pow(2, float64(totalRounds-r)))
		currentRoundMatchIDs := make(map[int]uuid.UUID)

		for i := 0; i < matchesInCurrentRound; i++ {
			matchID := uuid.New()
			matchOrder := i + 1

			m := Match{
				ID:           matchID,
				TournamentID: tournamentID,
				RoundNumber:  r,
				MatchOrder:   matchOrder,
				Phase:        PhaseName(matchesInCurrentRound),
				Status:       MatchPending,
			}

			if r < totalRounds {
				parentID := nextRoundMatchIDs[(matchOrder+1)/2]
				m.WinnerNextMatchID = &parentID

				if matchOrder%2 != 0 {
					m.WinnerNextSlot = utils.Ptr(1)
				} else {
					m.WinnerNextSlot = utils.Ptr(2)
				}
			}

			matches = append(matches, m)
			currentRoundMatchIDs[matchOrder] = matchID
		}
		nextRoundMatchIDs = currentRoundMatchIDs
	}

	byID := make(map[uuid.UUID]*Match, len(matches))
	var round1 []*Match
	for i := range matches {
		byID[matches[i].ID] = &matches[i]
		if matches[i].RoundNumber == 1 {
			round1 = append(round1, &matches[i])
		}
	}

	// round1 is in match order since each round is appended in order
	for i, pair := range FirstRoundPairs(bracketSize) {
		m := round1[i]
		if pair[0] < len(entrants) {
			m.Fill(1, entrants[pair[0]])
		}
		if pair[1] < len(entrants) {
			m.Fill(2, entrants[pair[1]])
		}
		resolveBye(m, byID)
	}

	return matches
}

func resolveBye(m *Match, byID map[uuid.UUID]*Match) {
	var slot int
	switch {
	case m.Entry1ID != nil && m.Entry2ID == nil:
		slot = 1
	case m.Entry1ID == nil && m.Entry2ID != nil:
		slot = 2
	default:
		return
	}

	m.Status = MatchFinished
	m.IsBye = true
	m.WinnerSlot = utils.Ptr(slot)

	if m.WinnerNextMatchID == nil || m.WinnerNextSlot == nil {
		return
	}
	if next, ok := byID[*m.WinnerNextMatchID]; ok {
		next.Fill(*m.WinnerNextSlot, *m.EntryInSlot(slot))
	}
}
