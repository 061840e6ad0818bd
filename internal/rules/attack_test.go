package rules

import "testing"

// AttackSquares and IsAttacked look at attacks from opposite ends; they must
// agree on every square.
func TestAttackSquaresAgreesWithIsAttacked(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"4k3/8/8/3pP3/8/8/8/4K3 w - d6 0 2",
	}
	for _, fen := range fens {
		p := mustFEN(t, fen)
		var attacked [2][8][8]bool
		for row := 0; row < 8; row++ {
			for col := 0; col < 8; col++ {
				from := Square{Row: row, Col: col}
				pc := p.Board.At(from)
				if pc.Empty() {
					continue
				}
				for _, to := range p.AttackSquares(from) {
					attacked[pc.Color][to.Row][to.Col] = true
				}
			}
		}
		for _, by := range []Color{White, Black} {
			for row := 0; row < 8; row++ {
				for col := 0; col < 8; col++ {
					s := Square{Row: row, Col: col}
					if got, want := p.IsAttacked(s, by), attacked[by][row][col]; got != want {
						t.Fatalf("%s: IsAttacked(%s, %s) = %v, AttackSquares says %v", fen, s, by, got, want)
					}
				}
			}
		}
	}
	empty := &Position{Turn: White}
	if got := empty.AttackSquares(Square{Row: 4, Col: 4}); got != nil {
		t.Fatalf("empty square attacks %v", got)
	}
}
