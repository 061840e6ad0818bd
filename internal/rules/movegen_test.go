package rules

import (
	"sort"
	"testing"
)

func mustFEN(t *testing.T, fen string) *Position {
	t.Helper()
	p, _, err := ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	return p
}

func sq(t *testing.T, s string) Square {
	t.Helper()
	out, err := ParseSquare(s)
	if err != nil {
		t.Fatalf("ParseSquare(%q): %v", s, err)
	}
	return out
}

func uciSet(moves []Move) []string {
	out := make([]string, 0, len(moves))
	for _, m := range moves {
		out = append(out, m.UCI())
	}
	sort.Strings(out)
	return out
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

func TestStartingPositionMoves(t *testing.T) {
	p := NewPosition()
	if got := len(p.LegalMoves()); got != 20 {
		t.Fatalf("start position: got %d legal moves, want 20", got)
	}
	if got := p.ValidMoves(sq(t, "e7")); len(got) != 0 {
		t.Fatalf("black pawn on white's turn should have no moves, got %v", got)
	}
	if got := p.ValidMoves(sq(t, "e4")); len(got) != 0 {
		t.Fatalf("empty square should have no moves, got %v", got)
	}
	knight := uciSet(p.ValidMoves(sq(t, "g1")))
	if len(knight) != 2 || knight[0] != "g1f3" || knight[1] != "g1h3" {
		t.Fatalf("g1 knight moves: %v", knight)
	}
}

func TestValidMovesIsIdempotent(t *testing.T) {
	p := mustFEN(t, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	before := p.Clone()
	first := uciSet(p.LegalMoves())
	second := uciSet(p.LegalMoves())
	if len(first) != len(second) {
		t.Fatalf("legal move count changed: %d then %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("legal moves differ at %d: %s vs %s", i, first[i], second[i])
		}
	}
	if !p.Equal(before) {
		t.Fatal("generating moves changed the position")
	}
}

func TestLegalMovesNeverLeaveKingInCheck(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
	}
	for _, fen := range fens {
		p := mustFEN(t, fen)
		for _, m := range p.LegalMoves() {
			mover := p.Turn
			u := p.MakeMove(m)
			if p.InCheck(mover) {
				t.Fatalf("%s: move %s leaves %s in check", fen, m.UCI(), mover)
			}
			p.UnmakeMove(m, u)
		}
	}
}

func TestPinnedPieceCannotMove(t *testing.T) {
	p := mustFEN(t, "4k3/4r3/8/8/8/8/4B3/4K3 w - - 0 1")
	if got := p.ValidMoves(sq(t, "e2")); len(got) != 0 {
		t.Fatalf("pinned bishop should have no moves, got %v", uciSet(got))
	}
}

func TestMakeUnmakeRoundTrip(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
		"rnbqkbnr/ppp1p1pp/8/3pPp2/8/8/PPPP1PPP/RNBQKBNR w KQkq f6 0 3",
	}
	for _, fen := range fens {
		p := mustFEN(t, fen)
		orig := p.Clone()
		origFEN := p.FEN(1)
		for _, m := range p.LegalMoves() {
			u := p.MakeMove(m)
			for _, reply := range p.LegalMoves() {
				ru := p.MakeMove(reply)
				p.UnmakeMove(reply, ru)
			}
			p.UnmakeMove(m, u)
			if !p.Equal(orig) {
				t.Fatalf("%s: position differs after make/unmake of %s", fen, m.UCI())
			}
			if got := p.FEN(1); got != origFEN {
				t.Fatalf("%s: FEN after unmake of %s = %s", fen, m.UCI(), got)
			}
		}
	}
}

func TestCastlingConditions(t *testing.T) {
	tests := []struct {
		name     string
		fen      string
		wantO_O  bool
		wantOO_O bool
	}{
		{"both sides free", "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", true, true},
		{"transit square attacked", "r3kr2/8/8/8/8/8/8/R3K2R w KQq - 0 1", false, true},
		{"landing square attacked", "r3k1r1/8/8/8/8/8/8/R3K2R w KQq - 0 1", false, true},
		{"b1 attacked does not matter", "1r2k3/8/8/8/8/8/8/R3K2R w KQ - 0 1", true, true},
		{"king in check", "4k3/8/8/8/4r3/8/8/R3K2R w KQ - 0 1", false, false},
		{"piece between", "4k3/8/8/8/8/8/8/RN2K1NR w KQ - 0 1", false, false},
		{"rook missing", "4k3/8/8/8/8/8/8/4K2R w KQ - 0 1", true, false},
		{"no rights", "4k3/8/8/8/8/8/8/R3K2R w - - 0 1", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustFEN(t, tt.fen)
			moves := uciSet(p.ValidMoves(sq(t, "e1")))
			if got := contains(moves, "e1g1"); got != tt.wantO_O {
				t.Fatalf("kingside castling = %v, want %v (moves %v)", got, tt.wantO_O, moves)
			}
			if got := contains(moves, "e1c1"); got != tt.wantOO_O {
				t.Fatalf("queenside castling = %v, want %v (moves %v)", got, tt.wantOO_O, moves)
			}
		})
	}
}

func TestCastlingMovesRook(t *testing.T) {
	p := mustFEN(t, "r3k2r/8/8/8/8/8/8/R3K2R b KQkq - 0 1")
	m, ok := p.FindMove(sq(t, "e8"), sq(t, "c8"))
	if !ok || m.Castling != Queenside {
		t.Fatalf("e8c8 should be queenside castling, got %+v ok=%v", m, ok)
	}
	p.MakeMove(m)
	if got := p.Board.At(sq(t, "d8")); got != (Piece{Type: Rook, Color: Black}) {
		t.Fatalf("d8 = %v, want black rook", got)
	}
	if !p.Board.At(sq(t, "a8")).Empty() {
		t.Fatal("a8 should be empty after castling")
	}
	if p.Castling[Black] != (CastlingRights{}) {
		t.Fatalf("black castling rights = %+v, want none", p.Castling[Black])
	}
	if p.Castling[White] != (CastlingRights{Kingside: true, Queenside: true}) {
		t.Fatalf("white castling rights changed: %+v", p.Castling[White])
	}
}

func TestCastlingRightLoss(t *testing.T) {
	t.Run("rook leaves home", func(t *testing.T) {
		p := mustFEN(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
		m, _ := p.FindMove(sq(t, "a1"), sq(t, "a2"))
		p.MakeMove(m)
		if p.Castling[White] != (CastlingRights{Kingside: true}) {
			t.Fatalf("white rights = %+v, want kingside only", p.Castling[White])
		}
	})
	t.Run("rook captured on home square", func(t *testing.T) {
		p := mustFEN(t, "4k2r/8/8/8/8/8/8/4K2R w Kk - 0 1")
		m, ok := p.FindMove(sq(t, "h1"), sq(t, "h8"))
		if !ok {
			t.Fatal("h1h8 should be legal")
		}
		p.MakeMove(m)
		if got := p.FEN(1); got != "4k2R/8/8/8/8/8/8/4K3 b - - 0 1" {
			t.Fatalf("FEN = %s", got)
		}
		if caps := p.Captured[White]; len(caps) != 1 || caps[0].Type != Rook {
			t.Fatalf("white captured = %v", caps)
		}
	})
	t.Run("king moves", func(t *testing.T) {
		p := mustFEN(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
		m, _ := p.FindMove(sq(t, "e1"), sq(t, "f1"))
		p.MakeMove(m)
		if p.Castling[White] != (CastlingRights{}) {
			t.Fatalf("white rights = %+v, want none", p.Castling[White])
		}
	})
}

func TestEnPassant(t *testing.T) {
	p := NewPosition()
	for _, uci := range []string{"e2e4", "a7a6", "e4e5", "d7d5"} {
		from, to, err := ParseUCI(uci)
		if err != nil {
			t.Fatal(err)
		}
		m, ok := p.FindMove(from, to)
		if !ok {
			t.Fatalf("%s should be legal", uci)
		}
		p.MakeMove(m)
	}
	if p.EnPassant == nil || *p.EnPassant != sq(t, "d6") {
		t.Fatalf("en passant target = %v, want d6", p.EnPassant)
	}
	m, ok := p.FindMove(sq(t, "e5"), sq(t, "d6"))
	if !ok || !m.EnPassant {
		t.Fatalf("e5d6 should be an en passant capture, got %+v ok=%v", m, ok)
	}
	if got := p.CapturedBy(m); got != (Piece{Type: Pawn, Color: Black}) {
		t.Fatalf("CapturedBy = %v, want black pawn", got)
	}
	p.MakeMove(m)
	if !p.Board.At(sq(t, "d5")).Empty() {
		t.Fatal("captured pawn on d5 should be removed")
	}
	if got := p.Board.At(sq(t, "d6")); got != (Piece{Type: Pawn, Color: White}) {
		t.Fatalf("d6 = %v, want white pawn", got)
	}
	if p.EnPassant != nil {
		t.Fatalf("en passant target should be cleared, got %v", p.EnPassant)
	}
}

func TestEnPassantExpiresAfterOneMove(t *testing.T) {
	p := mustFEN(t, "4k3/8/8/3pP3/8/8/8/4K3 w - d6 0 2")
	m, _ := p.FindMove(sq(t, "e1"), sq(t, "e2"))
	p.MakeMove(m)
	m, _ = p.FindMove(sq(t, "e8"), sq(t, "e7"))
	p.MakeMove(m)
	if _, ok := p.FindMove(sq(t, "e5"), sq(t, "d6")); ok {
		t.Fatal("en passant should no longer be available")
	}
}

func TestPromotionIsAlwaysQueen(t *testing.T) {
	p := mustFEN(t, "4k3/P7/8/8/8/8/8/4K3 w - - 0 1")
	m, ok := p.FindMove(sq(t, "a7"), sq(t, "a8"))
	if !ok || m.Promotion != Queen {
		t.Fatalf("a7a8 = %+v ok=%v, want queen promotion", m, ok)
	}
	p.MakeMove(m)
	got := p.Board.At(sq(t, "a8"))
	if got != (Piece{Type: Queen, Color: White}) {
		t.Fatalf("a8 = %v, want white queen", got)
	}
	if got.Symbol() != "♕" {
		t.Fatalf("symbol = %q", got.Symbol())
	}
}

func TestCheckmateAndStalemateDetection(t *testing.T) {
	mate := mustFEN(t, "r1bqkb1r/pppp1Qpp/2n2n2/4p3/2B1P3/8/PPPP1PPP/RNB1K1NR b KQkq - 0 4")
	if !mate.InCheck(Black) || mate.HasLegalMoves() {
		t.Fatal("scholar's mate position should be checkmate")
	}
	stale := mustFEN(t, "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	if stale.InCheck(Black) || stale.HasLegalMoves() {
		t.Fatal("position should be stalemate")
	}
}

func TestMissingKing(t *testing.T) {
	p := &Position{Turn: White}
	p.Board.Set(sq(t, "e1"), Piece{Type: King, Color: White})
	if p.InCheck(Black) {
		t.Fatal("InCheck without a king should report false")
	}
	if _, err := p.KingSquare(Black); err != ErrKingMissing {
		t.Fatalf("KingSquare err = %v, want ErrKingMissing", err)
	}
}

func perft(p *Position, depth int) int {
	if depth == 0 {
		return 1
	}
	moves := p.LegalMoves()
	if depth == 1 {
		return len(moves)
	}
	n := 0
	for _, m := range moves {
		u := p.MakeMove(m)
		n += perft(p, depth-1)
		p.UnmakeMove(m, u)
	}
	return n
}

func TestPerft(t *testing.T) {
	tests := []struct {
		fen   string
		depth int
		want  int
	}{
		{StartFEN, 1, 20},
		{StartFEN, 2, 400},
		{StartFEN, 3, 8902},
		{"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1", 1, 48},
		{"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1", 2, 2039},
		{"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1", 3, 2812},
	}
	for _, tt := range tests {
		p := mustFEN(t, tt.fen)
		if got := perft(p, tt.depth); got != tt.want {
			t.Fatalf("perft(%s, %d) = %d, want %d", tt.fen, tt.depth, got, tt.want)
		}
	}
}
