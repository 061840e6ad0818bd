package rules

// Undo carries what MakeMove overwrote so UnmakeMove can restore it exactly.
type Undo struct {
	moved      Piece
	captured   Piece
	capturedAt Square
	enPassant  *Square
	castling   [2]CastlingRights
	nCaptured  [2]int
}

// MakeMove applies m, which must come from the move generator so its flags
// are set. The same code path serves recorded game moves and search probes.
//
// Order matters: the king lands before the rook is relocated, and the pawn
// taken en passant is removed from the square beside the mover, not from
// the destination.
func (p *Position) MakeMove(m Move) Undo {
	pc := p.Board.At(m.From)
	u := Undo{
		moved:      pc,
		capturedAt: m.To,
		enPassant:  p.EnPassant,
		castling:   p.Castling,
		nCaptured:  [2]int{len(p.Captured[White]), len(p.Captured[Black])},
	}

	if m.EnPassant {
		u.capturedAt = Square{Row: m.From.Row, Col: m.To.Col}
	}
	u.captured = p.Board.At(u.capturedAt)
	if !u.captured.Empty() {
		p.Board.Clear(u.capturedAt)
		p.Captured[pc.Color] = append(p.Captured[pc.Color], u.captured)
	}

	p.updateCastlingRights(m, pc, u.captured)

	p.EnPassant = nil
	if pc.Type == Pawn && abs(m.To.Row-m.From.Row) == 2 {
		p.EnPassant = &Square{Row: (m.From.Row + m.To.Row) / 2, Col: m.From.Col}
	}

	p.Board.Set(m.To, pc)
	p.Board.Clear(m.From)

	if m.Castling != NoCastle {
		rookFrom, rookTo := castlingRookSquares(m)
		p.Board.Set(rookTo, p.Board.At(rookFrom))
		p.Board.Clear(rookFrom)
	}

	if pc.Type == Pawn && m.To.Row == homeRow(pc.Color.Opponent()) {
		p.Board.Set(m.To, Piece{Type: Queen, Color: pc.Color})
	}

	p.Turn = pc.Color.Opponent()
	return u
}

// UnmakeMove reverts m. It must be called with the Undo returned by the
// matching MakeMove, in LIFO order.
func (p *Position) UnmakeMove(m Move, u Undo) {
	p.Turn = u.moved.Color

	if m.Castling != NoCastle {
		rookFrom, rookTo := castlingRookSquares(m)
		p.Board.Set(rookFrom, p.Board.At(rookTo))
		p.Board.Clear(rookTo)
	}

	p.Board.Set(m.From, u.moved)
	p.Board.Clear(m.To)
	if !u.captured.Empty() {
		p.Board.Set(u.capturedAt, u.captured)
	}

	p.EnPassant = u.enPassant
	p.Castling = u.castling
	p.Captured[White] = p.Captured[White][:u.nCaptured[White]]
	p.Captured[Black] = p.Captured[Black][:u.nCaptured[Black]]
}

func (p *Position) updateCastlingRights(m Move, pc, captured Piece) {
	if pc.Type == King {
		p.Castling[pc.Color] = CastlingRights{}
	}
	if pc.Type == Rook {
		clearRookRight(&p.Castling[pc.Color], pc.Color, m.From)
	}
	if captured.Type == Rook {
		clearRookRight(&p.Castling[captured.Color], captured.Color, m.To)
	}
}

// clearRookRight drops the right tied to a rook leaving (or being taken on)
// its home corner.
func clearRookRight(r *CastlingRights, c Color, sq Square) {
	if sq.Row != homeRow(c) {
		return
	}
	switch sq.Col {
	case 0:
		r.Queenside = false
	case 7:
		r.Kingside = false
	}
}

func castlingRookSquares(m Move) (from, to Square) {
	row := m.From.Row
	if m.Castling == Kingside {
		return Square{Row: row, Col: 7}, Square{Row: row, Col: m.To.Col - 1}
	}
	return Square{Row: row, Col: 0}, Square{Row: row, Col: m.To.Col + 1}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
