package views

import (
	"sort"

	"github.com/AdamBeresnev/arena-manager/internal/bracket"
	"github.com/google/uuid"
)

type BracketData struct {
	Rounds    map[int][]bracket.Match
	RoundNums []int
	Names     map[uuid.UUID]string
}

func PrepareBracketData(registrations []bracket.Registration, matches []bracket.Match) BracketData {
	names := make(map[uuid.UUID]string, len(registrations))
	for _, r := range registrations {
		names[r.ID] = r.DisplayName()
	}

	rounds := make(map[int][]bracket.Match)
	var roundNums []int

	for _, m := range matches {
		if _, exists := rounds[m.RoundNumber]; !exists {
			roundNums = append(roundNums, m.RoundNumber)
		}
		rounds[m.RoundNumber] = append(rounds[m.RoundNumber], m)
	}

	sort.Ints(roundNums)
	for _, r := range roundNums {
		sort.Slice(rounds[r], func(i, j int) bool {
			return rounds[r][i].MatchOrder < rounds[r][j].MatchOrder
		})
	}

	return BracketData{
		Rounds:    rounds,
		RoundNums: roundNums,
		Names:     names,
	}
}

// SlotLabel names the occupant of a slot. An empty slot of a decided bye
// match never gets filled, later rounds are still open.
func (d BracketData) SlotLabel(m bracket.Match, slot int) string {
	id := m.EntryInSlot(slot)
	if id == nil {
		if m.IsBye {
			return "BYE"
		}
		return "A definir"
	}
	if name, ok := d.Names[*id]; ok {
		return name
	}
	return "?"
}
