package rules

// Position is everything the rules need to generate and apply moves.
//
// Legality checks and search mutate a Position through MakeMove/UnmakeMove
// pairs. A Position must not be shared between goroutines.
type Position struct {
	Board     Board
	Turn      Color
	EnPassant *Square
	Castling  [2]CastlingRights
	// Captured holds the pieces taken by each color, in capture order.
	Captured [2][]Piece
}

// NewPosition returns the standard starting position.
func NewPosition() *Position {
	return &Position{
		Board: StartingBoard(),
		Turn:  White,
		Castling: [2]CastlingRights{
			White: {Kingside: true, Queenside: true},
			Black: {Kingside: true, Queenside: true},
		},
	}
}

// Clone returns a deep copy that shares no memory with p.
func (p *Position) Clone() *Position {
	out := &Position{
		Board:    p.Board,
		Turn:     p.Turn,
		Castling: p.Castling,
	}
	if p.EnPassant != nil {
		ep := *p.EnPassant
		out.EnPassant = &ep
	}
	for c := range p.Captured {
		if len(p.Captured[c]) > 0 {
			out.Captured[c] = append([]Piece(nil), p.Captured[c]...)
		}
	}
	return out
}

// Equal reports whether two positions are identical in every rules field.
func (p *Position) Equal(o *Position) bool {
	if p.Board != o.Board || p.Turn != o.Turn || p.Castling != o.Castling {
		return false
	}
	if (p.EnPassant == nil) != (o.EnPassant == nil) {
		return false
	}
	if p.EnPassant != nil && *p.EnPassant != *o.EnPassant {
		return false
	}
	for c := range p.Captured {
		if len(p.Captured[c]) != len(o.Captured[c]) {
			return false
		}
		for i := range p.Captured[c] {
			if p.Captured[c][i] != o.Captured[c][i] {
				return false
			}
		}
	}
	return true
}

// KingSquare locates the king of c. A missing king is an invariant
// violation and callers evaluating the position should abort.
func (p *Position) KingSquare(c Color) (Square, error) {
	sq, ok := p.Board.FindKing(c)
	if !ok {
		return Square{}, ErrKingMissing
	}
	return sq, nil
}

// CapturedSymbols lists the display glyphs of pieces captured by c.
func (p *Position) CapturedSymbols(c Color) []string {
	out := make([]string, 0, len(p.Captured[c]))
	for _, pc := range p.Captured[c] {
		out = append(out, pc.Symbol())
	}
	return out
}
