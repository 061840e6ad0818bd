package chessdto

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/park285/cheese-chess/internal/chess"
	"github.com/park285/cheese-chess/internal/game"
	"github.com/park285/cheese-chess/internal/rules"
	"github.com/park285/cheese-chess/internal/store"
)

func play(t *testing.T, g *game.Game, moves ...string) {
	t.Helper()
	for _, mv := range moves {
		if _, err := g.MakeUCIMove(mv); err != nil {
			t.Fatalf("%s: %v", mv, err)
		}
	}
}

func TestStateFromGame(t *testing.T) {
	g := game.New()
	play(t, g, "e2e4", "d7d5", "e4d5")

	st := StateFromGame(g, rules.White, 8, "level8")
	if st.Turn != "black" || st.Status != "normal" || st.MoveCount != 3 || st.LastMove != "e4d5" {
		t.Fatalf("state = %+v", st)
	}
	if st.Material.White != 39 || st.Material.Black != 38 || st.Material.Diff() != 1 {
		t.Fatalf("material = %+v", st.Material)
	}
	if len(st.Captured.White) != 1 || len(st.Captured.Black) != 0 {
		t.Fatalf("captured = %+v", st.Captured)
	}
	if st.MovesSAN[2] != "exd5" {
		t.Fatalf("san = %v", st.MovesSAN)
	}
}

func TestStateFinished(t *testing.T) {
	g := game.New()
	play(t, g, "f2f3", "e7e5", "g2g4", "d8h4")
	st := StateFromGame(g, rules.Black, 0, "level0")
	if st.Status != "checkmate" || st.Winner != "black" || !st.InCheck {
		t.Fatalf("state = %+v", st)
	}

	raw, err := json.Marshal(st)
	if err != nil {
		t.Fatal(err)
	}
	var back map[string]any
	_ = json.Unmarshal(raw, &back)
	if back["winner"] != "black" || back["player_color"] != "black" {
		t.Fatalf("json = %s", raw)
	}
	if _, ok := back["BoardImage"]; ok {
		t.Fatal("board image should not be serialized")
	}
}

func TestSuggestionFromChoice(t *testing.T) {
	s := SuggestionFromChoice(chess.Choice{Move: "e2e4", Source: chess.SourceBook, Score: 12}, time.Millisecond)
	if s.MoveUCI != "e2e4" || s.Source != "book" || s.EvaluationCP != 12 {
		t.Fatalf("suggestion = %+v", s)
	}
}

func TestSaveSlotsFrom(t *testing.T) {
	slots := SaveSlotsFrom([]*store.SavedGame{{ID: "a", Moves: []string{"e2e4"}}, nil})
	if len(slots) != 1 || slots[0].MoveCount != 1 {
		t.Fatalf("slots = %+v", slots)
	}
}

func TestToDomainError(t *testing.T) {
	tests := []struct {
		err   error
		code  string
		retry bool
	}{
		{fmt.Errorf("play: %w", game.ErrIllegalMove), CodeIllegalMove, false},
		{rules.ErrInvalidUCI, CodeBadInput, false},
		{game.ErrGameOver, CodeGameOver, false},
		{store.ErrNotFound, CodeNotFound, false},
		{context.DeadlineExceeded, CodeTimeout, true},
		{errors.New("boom"), CodeInternal, false},
		{DomainError{Code: "custom"}, "custom", false},
	}
	for _, tt := range tests {
		de := ToDomainError(tt.err)
		if de.Code != tt.code || de.Retryable != tt.retry {
			t.Fatalf("%v -> %+v", tt.err, de)
		}
	}
	if ToDomainError(nil) != nil {
		t.Fatal("nil should stay nil")
	}
}
