package views

import (
	"context"
	"strconv"
	"strings"

	"github.com/AdamBeresnev/arena-manager/internal/bracket"
	"github.com/AdamBeresnev/arena-manager/internal/middleware"
	"github.com/AdamBeresnev/arena-manager/internal/session"
)

func CurrentSession(ctx context.Context) session.Context {
	return middleware.SessionFrom(ctx)
}

func scoreText(m bracket.Match, slot int) string {
	score := m.Score1
	if slot == 2 {
		score = m.Score2
	}
	if score == nil {
		return "-"
	}
	return strconv.Itoa(*score)
}

func matchClass(m bracket.Match, next bool) string {
	classes := []string{"match", string(m.Status)}
	if m.IsBye {
		classes = append(classes, "bye")
	}
	if next {
		classes = append(classes, "next")
	}
	return strings.Join(classes, " ")
}

func slotClass(m bracket.Match, slot int) string {
	switch {
	case m.IsWinner(slot):
		return "slot winner"
	case m.IsLoser(slot):
		return "slot loser"
	default:
		return "slot"
	}
}
