package rules

// InCheck reports whether c's king is attacked. A board without that king
// reports false; use KingSquare to detect the broken invariant.
func (p *Position) InCheck(c Color) bool {
	king, ok := p.Board.FindKing(c)
	if !ok {
		return false
	}
	return p.IsAttacked(king, c.Opponent())
}

// IsAttacked reports whether any piece of color by attacks sq. Only attack
// patterns are used: pawns attack diagonally, kings never castle into an
// attack, and no legality filtering happens, so this never recurses into
// move generation.
func (p *Position) IsAttacked(sq Square, by Color) bool {
	// A pawn of color by attacks sq from one row "behind" it.
	pawnRow := sq.Row - pawnDirection(by)
	for _, dc := range [2]int{-1, 1} {
		from := Square{Row: pawnRow, Col: sq.Col + dc}
		if pc := p.Board.At(from); pc.Type == Pawn && pc.Color == by {
			return true
		}
	}
	for _, o := range knightOffsets {
		if pc := p.Board.At(sq.offset(o[0], o[1])); pc.Type == Knight && pc.Color == by {
			return true
		}
	}
	for _, o := range kingOffsets {
		if pc := p.Board.At(sq.offset(o[0], o[1])); pc.Type == King && pc.Color == by {
			return true
		}
	}
	if p.rayHits(sq, by, rookDirs[:], Rook) || p.rayHits(sq, by, bishopDirs[:], Bishop) {
		return true
	}
	return false
}

// rayHits walks each direction from sq to the first occupied square and
// checks for a slider of type t or a queen.
func (p *Position) rayHits(sq Square, by Color, dirs [][2]int, t PieceType) bool {
	for _, d := range dirs {
		cur := sq.offset(d[0], d[1])
		for cur.Valid() {
			pc := p.Board.At(cur)
			if !pc.Empty() {
				if pc.Color == by && (pc.Type == t || pc.Type == Queen) {
					return true
				}
				break
			}
			cur = cur.offset(d[0], d[1])
		}
	}
	return false
}

// AttackSquares lists the squares attacked by the piece on from. Pawns list
// their two diagonals only; kings list their eight neighbours.
func (p *Position) AttackSquares(from Square) []Square {
	pc := p.Board.At(from)
	if pc.Empty() {
		return nil
	}
	var out []Square
	switch pc.Type {
	case Pawn:
		for _, dc := range [2]int{-1, 1} {
			if to := from.offset(pawnDirection(pc.Color), dc); to.Valid() {
				out = append(out, to)
			}
		}
	case Knight, King:
		offsets := knightOffsets
		if pc.Type == King {
			offsets = kingOffsets
		}
		for _, o := range offsets {
			if to := from.offset(o[0], o[1]); to.Valid() {
				out = append(out, to)
			}
		}
	default:
		var dirs [][2]int
		if pc.Type == Rook || pc.Type == Queen {
			dirs = append(dirs, rookDirs[:]...)
		}
		if pc.Type == Bishop || pc.Type == Queen {
			dirs = append(dirs, bishopDirs[:]...)
		}
		for _, d := range dirs {
			to := from.offset(d[0], d[1])
			for to.Valid() {
				out = append(out, to)
				if !p.Board.At(to).Empty() {
					break
				}
				to = to.offset(d[0], d[1])
			}
		}
	}
	return out
}
