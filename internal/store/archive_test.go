package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/park285/cheese-chess/internal/game"
	"github.com/park285/cheese-chess/internal/rules"
)

func TestFinishedFromGame(t *testing.T) {
	g := game.New()
	playMoves(t, g, scholarsMate...)
	started := time.Now().Add(-time.Minute)

	fg := FinishedFromGame("", g, rules.Black, 4, started)
	if fg.ID == "" {
		t.Fatal("id should be generated")
	}
	if fg.Result != "white" || fg.Termination != "checkmate" || fg.PlayerColor != "black" {
		t.Fatalf("finished = %+v", fg)
	}
	if len(fg.MovesSAN) != 7 || fg.MovesSAN[6] != "Qxf7#" {
		t.Fatalf("san = %v", fg.MovesSAN)
	}

	open := FinishedFromGame("g1", game.New(), rules.White, 4, started)
	if open.Result != "" || open.Termination != "abandoned" {
		t.Fatalf("unfinished = %+v", open)
	}
}

func TestBuildPGN(t *testing.T) {
	g := game.New()
	playMoves(t, g, scholarsMate...)
	fg := FinishedFromGame("g1", g, rules.White, 7, time.Now())
	fg.Opening = `Italian "Game"`

	pgn := BuildPGN(fg)
	for _, want := range []string{
		`[White "Player"]`,
		`[Black "Computer (level 7)"]`,
		`[Opening "Italian 'Game'"]`,
		`[Result "1-0"]`,
		"1. e4 e5 2. Bc4 Nc6 3. Qh5 Nf6 4. Qxf7# 1-0",
	} {
		if !strings.Contains(pgn, want) {
			t.Fatalf("pgn missing %q:\n%s", want, pgn)
		}
	}
	if strings.Contains(pgn, "[SetUp") {
		t.Fatal("standard start should not carry SetUp")
	}
}

func TestBuildPGNCustomStartBlackToMove(t *testing.T) {
	g, err := game.FromFEN("4k3/8/8/8/8/8/4P3/4K3 b - - 0 12")
	if err != nil {
		t.Fatal(err)
	}
	playMoves(t, g, "e8d7", "e2e4")
	fg := FinishedFromGame("g2", g, rules.Black, 1, time.Now())

	pgn := BuildPGN(fg)
	if !strings.Contains(pgn, `[SetUp "1"]`) || !strings.Contains(pgn, `[FEN "4k3/8/8/8/8/8/4P3/4K3 b - - 0 12"]`) {
		t.Fatalf("missing setup tags:\n%s", pgn)
	}
	if !strings.Contains(pgn, "12... Kd7 13. e4 *") {
		t.Fatalf("numbering wrong:\n%s", pgn)
	}
	if !strings.Contains(pgn, `[White "Computer (level 1)"]`) {
		t.Fatalf("colors not swapped:\n%s", pgn)
	}
}

func TestMapResultToPGN(t *testing.T) {
	tests := map[string]string{"white": "1-0", "Black": "0-1", "draw": "1/2-1/2", "": "*"}
	for in, want := range tests {
		if got := mapResultToPGN(in); got != want {
			t.Fatalf("%q -> %q, want %q", in, got, want)
		}
	}
}

func TestNilArchiveIsNoop(t *testing.T) {
	var a *Archive
	if err := a.SaveResult(context.Background(), &FinishedGame{}); err != nil {
		t.Fatal(err)
	}
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := NewArchive(" "); err == nil {
		t.Fatal("empty url should fail")
	}
}
