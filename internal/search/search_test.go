package search

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/park285/cheese-chess/internal/rules"
)

func mustFEN(t *testing.T, fen string) *rules.Position {
	t.Helper()
	pos, _, err := rules.ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	return pos
}

func TestConfigForDifficulty(t *testing.T) {
	tests := []struct {
		d     int
		mode  Mode
		depth int
	}{
		{-3, ModeHeuristic, 0},
		{0, ModeHeuristic, 0},
		{5, ModeHeuristic, 0},
		{12, ModeHeuristic, 0},
		{13, ModeMinimax, 2},
		{16, ModeMinimax, 2},
		{17, ModeMinimax, 3},
		{20, ModeMinimax, 3},
		{99, ModeMinimax, 3},
	}
	for _, tt := range tests {
		cfg := ConfigForDifficulty(tt.d)
		if cfg.Mode != tt.mode || cfg.Depth != tt.depth {
			t.Fatalf("difficulty %d: mode %v depth %d, want %v %d", tt.d, cfg.Mode, cfg.Depth, tt.mode, tt.depth)
		}
	}
	if ConfigForDifficulty(0).Jitter <= ConfigForDifficulty(12).Jitter {
		t.Fatal("jitter should shrink as difficulty grows")
	}
}

func TestMinimaxFindsMateInOne(t *testing.T) {
	for _, d := range []int{13, 20} {
		pos := mustFEN(t, "r1bqkb1r/pppp1ppp/2n2n2/4p2Q/2B1P3/8/PPPP1PPP/RNB1K1NR w KQkq - 4 4")
		s := New(ConfigForDifficulty(d), rand.New(rand.NewSource(1)))
		res, err := s.BestMove(pos)
		if err != nil {
			t.Fatal(err)
		}
		if res.UCI != "h5f7" {
			t.Fatalf("difficulty %d: best = %s (score %d), want h5f7", d, res.UCI, res.Score)
		}
		if res.Score != MateScore-1 {
			t.Fatalf("difficulty %d: score = %d, want %d", d, res.Score, MateScore-1)
		}
		if res.Mode != ModeMinimax || res.Nodes == 0 {
			t.Fatalf("mode %v nodes %d", res.Mode, res.Nodes)
		}
	}
}

func TestMinimaxAvoidsGettingMated(t *testing.T) {
	// Black to move must stop Qxf7#; depth 2 sees the threat.
	pos := mustFEN(t, "r1bqkbnr/pppp1ppp/2n5/4p2Q/2B1P3/8/PPPP1PPP/RNB1K1NR b KQkq - 3 3")
	s := New(ConfigForDifficulty(16), rand.New(rand.NewSource(1)))
	res, err := s.BestMove(pos)
	if err != nil {
		t.Fatal(err)
	}
	if res.Score <= -MateScore/2 {
		t.Fatalf("black walked into mate: %s score %d", res.UCI, res.Score)
	}
	after := pos.Clone()
	from, to, _ := rules.ParseUCI(res.UCI)
	m, ok := after.FindMove(from, to)
	if !ok {
		t.Fatalf("best move %s is not legal", res.UCI)
	}
	after.MakeMove(m)
	if mate, ok := after.FindMove(rules.Square{Row: 3, Col: 7}, rules.Square{Row: 1, Col: 5}); ok {
		after.MakeMove(mate)
		if after.InCheck(rules.Black) && !after.HasLegalMoves() {
			t.Fatalf("after %s white still mates with Qxf7", res.UCI)
		}
	}
}

func TestHeuristicPrefersCaptures(t *testing.T) {
	for seed := int64(0); seed < 10; seed++ {
		pos := mustFEN(t, "4k3/8/8/3q4/8/8/3Q4/4K3 w - - 0 1")
		s := New(ConfigForDifficulty(10), rand.New(rand.NewSource(seed)))
		res, err := s.BestMove(pos)
		if err != nil {
			t.Fatal(err)
		}
		if res.UCI != "d2d5" {
			t.Fatalf("seed %d: best = %s, want d2d5", seed, res.UCI)
		}
		if res.Mode != ModeHeuristic {
			t.Fatalf("mode = %v", res.Mode)
		}
	}
}

func TestSameSeedSameMove(t *testing.T) {
	pos := rules.NewPosition()
	a, err := New(ConfigForDifficulty(0), rand.New(rand.NewSource(42))).BestMove(pos)
	if err != nil {
		t.Fatal(err)
	}
	b, err := New(ConfigForDifficulty(0), rand.New(rand.NewSource(42))).BestMove(pos)
	if err != nil {
		t.Fatal(err)
	}
	if a.UCI != b.UCI {
		t.Fatalf("same seed gave %s and %s", a.UCI, b.UCI)
	}
}

func TestBestMoveLeavesPositionUntouched(t *testing.T) {
	pos := mustFEN(t, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	before := pos.Clone()
	if _, err := New(ConfigForDifficulty(17), nil).BestMove(pos); err != nil {
		t.Fatal(err)
	}
	if !pos.Equal(before) {
		t.Fatal("BestMove modified its input")
	}
}

func TestNoMoves(t *testing.T) {
	mate := mustFEN(t, "r1bqkb1r/pppp1Qpp/2n2n2/4p3/2B1P3/8/PPPP1PPP/RNB1K1NR b KQkq - 0 4")
	if _, err := New(ConfigForDifficulty(20), nil).BestMove(mate); !errors.Is(err, ErrNoMoves) {
		t.Fatalf("err = %v, want ErrNoMoves", err)
	}
}

func TestStalemateScoresZero(t *testing.T) {
	// Qg7 mates, Qg6 stalemates.
	pos := mustFEN(t, "7k/8/5K2/8/8/8/8/6Q1 w - - 0 1")
	res, err := New(ConfigForDifficulty(16), rand.New(rand.NewSource(3))).BestMove(pos)
	if err != nil {
		t.Fatal(err)
	}
	if res.UCI == "g1g6" {
		t.Fatal("search chose the stalemating move")
	}
}

func TestBestMoveRejectsMissingKing(t *testing.T) {
	pos := &rules.Position{Turn: rules.White}
	pos.Board.Set(rules.Square{Row: 7, Col: 4}, rules.Piece{Type: rules.King, Color: rules.White})
	pos.Board.Set(rules.Square{Row: 6, Col: 3}, rules.Piece{Type: rules.Pawn, Color: rules.White})
	for _, d := range []int{0, 20} {
		_, err := New(ConfigForDifficulty(d), rand.New(rand.NewSource(1))).BestMove(pos)
		if !errors.Is(err, rules.ErrKingMissing) {
			t.Fatalf("difficulty %d: err = %v, want ErrKingMissing", d, err)
		}
	}
}
