package rules

// Move is a legal or pseudo-legal move. EnPassant and Castling flag the two
// special moves; Promotion is Queen when a pawn reaches the last rank.
type Move struct {
	From      Square
	To        Square
	EnPassant bool
	Castling  CastleSide
	Promotion PieceType
}

// UCI returns the 4-character coordinate form ("e2e4"). Promotion is always
// to a queen, so no suffix is written.
func (m Move) UCI() string {
	return FormatUCI(m.From, m.To)
}

func (m Move) String() string { return m.UCI() }

var (
	knightOffsets = [8][2]int{{-2, -1}, {-2, 1}, {-1, -2}, {-1, 2}, {1, -2}, {1, 2}, {2, -1}, {2, 1}}
	kingOffsets   = [8][2]int{{-1, -1}, {-1, 0}, {-1, 1}, {0, -1}, {0, 1}, {1, -1}, {1, 0}, {1, 1}}
	rookDirs      = [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
	bishopDirs    = [4][2]int{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}
)

// ValidMoves lists the legal moves of the piece on from. Pieces that do not
// belong to the side to move, and empty squares, yield nothing.
func (p *Position) ValidMoves(from Square) []Move {
	pc := p.Board.At(from)
	if pc.Empty() || pc.Color != p.Turn {
		return nil
	}
	pseudo := p.pseudoMoves(from, pc, nil)
	return p.filterLegal(pseudo)
}

// LegalMoves lists every legal move of the side to move, scanning the board
// from rank 8 to rank 1 and file a to file h.
func (p *Position) LegalMoves() []Move {
	var pseudo []Move
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			pc := p.Board[row][col]
			if pc.Empty() || pc.Color != p.Turn {
				continue
			}
			pseudo = p.pseudoMoves(Square{Row: row, Col: col}, pc, pseudo)
		}
	}
	return p.filterLegal(pseudo)
}

// HasLegalMoves stops at the first legal move found.
func (p *Position) HasLegalMoves() bool {
	var buf []Move
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			pc := p.Board[row][col]
			if pc.Empty() || pc.Color != p.Turn {
				continue
			}
			buf = p.pseudoMoves(Square{Row: row, Col: col}, pc, buf[:0])
			for _, m := range buf {
				if p.isLegal(m) {
					return true
				}
			}
		}
	}
	return false
}

// FindMove returns the legal move from -> to, with its special-move flags.
func (p *Position) FindMove(from, to Square) (Move, bool) {
	for _, m := range p.ValidMoves(from) {
		if m.To == to {
			return m, true
		}
	}
	return Move{}, false
}

// CapturedBy returns the piece m would capture, including the pawn taken en passant.
func (p *Position) CapturedBy(m Move) Piece {
	if m.EnPassant {
		return p.Board.At(Square{Row: m.From.Row, Col: m.To.Col})
	}
	return p.Board.At(m.To)
}

func (p *Position) filterLegal(pseudo []Move) []Move {
	legal := pseudo[:0]
	for _, m := range pseudo {
		if p.isLegal(m) {
			legal = append(legal, m)
		}
	}
	return legal
}

// isLegal plays m, checks the mover's king and takes m back.
func (p *Position) isLegal(m Move) bool {
	mover := p.Turn
	undo := p.MakeMove(m)
	inCheck := p.InCheck(mover)
	p.UnmakeMove(m, undo)
	return !inCheck
}

func (p *Position) pseudoMoves(from Square, pc Piece, dst []Move) []Move {
	switch pc.Type {
	case Pawn:
		return p.pawnMoves(from, pc, dst)
	case Knight:
		return p.stepMoves(from, pc, knightOffsets[:], dst)
	case Bishop:
		return p.slideMoves(from, pc, bishopDirs[:], dst)
	case Rook:
		return p.slideMoves(from, pc, rookDirs[:], dst)
	case Queen:
		dst = p.slideMoves(from, pc, rookDirs[:], dst)
		return p.slideMoves(from, pc, bishopDirs[:], dst)
	case King:
		dst = p.stepMoves(from, pc, kingOffsets[:], dst)
		return p.castlingMoves(from, pc, dst)
	}
	return dst
}

func (p *Position) pawnMoves(from Square, pc Piece, dst []Move) []Move {
	dir := pawnDirection(pc.Color)
	lastRow := homeRow(pc.Color.Opponent())
	add := func(m Move) {
		if m.To.Row == lastRow {
			m.Promotion = Queen
		}
		dst = append(dst, m)
	}

	one := from.offset(dir, 0)
	if one.Valid() && p.Board.At(one).Empty() {
		add(Move{From: from, To: one})
		two := from.offset(2*dir, 0)
		if from.Row == pawnStartRow(pc.Color) && p.Board.At(two).Empty() {
			add(Move{From: from, To: two})
		}
	}

	for _, dc := range [2]int{-1, 1} {
		to := from.offset(dir, dc)
		if !to.Valid() {
			continue
		}
		target := p.Board.At(to)
		switch {
		case !target.Empty() && target.Color != pc.Color:
			add(Move{From: from, To: to})
		case target.Empty() && p.EnPassant != nil && *p.EnPassant == to:
			add(Move{From: from, To: to, EnPassant: true})
		}
	}
	return dst
}

func (p *Position) stepMoves(from Square, pc Piece, offsets [][2]int, dst []Move) []Move {
	for _, o := range offsets {
		to := from.offset(o[0], o[1])
		if !to.Valid() {
			continue
		}
		if target := p.Board.At(to); target.Empty() || target.Color != pc.Color {
			dst = append(dst, Move{From: from, To: to})
		}
	}
	return dst
}

func (p *Position) slideMoves(from Square, pc Piece, dirs [][2]int, dst []Move) []Move {
	for _, d := range dirs {
		to := from.offset(d[0], d[1])
		for to.Valid() {
			target := p.Board.At(to)
			if target.Empty() {
				dst = append(dst, Move{From: from, To: to})
			} else {
				if target.Color != pc.Color {
					dst = append(dst, Move{From: from, To: to})
				}
				break
			}
			to = to.offset(d[0], d[1])
		}
	}
	return dst
}

// castlingMoves adds O-O and O-O-O when the right is intact, the king is not
// in check, the rook is on its home square, the squares between are empty
// and neither the transit nor the landing square is attacked.
func (p *Position) castlingMoves(from Square, pc Piece, dst []Move) []Move {
	row := homeRow(pc.Color)
	if from != (Square{Row: row, Col: 4}) {
		return dst
	}
	rights := p.Castling[pc.Color]
	if !rights.Kingside && !rights.Queenside {
		return dst
	}
	enemy := pc.Color.Opponent()
	if p.IsAttacked(from, enemy) {
		return dst
	}
	if rights.Kingside && p.canCastle(pc.Color, row, 7, []int{5, 6}, []int{5, 6}) {
		dst = append(dst, Move{From: from, To: Square{Row: row, Col: 6}, Castling: Kingside})
	}
	if rights.Queenside && p.canCastle(pc.Color, row, 0, []int{1, 2, 3}, []int{3, 2}) {
		dst = append(dst, Move{From: from, To: Square{Row: row, Col: 2}, Castling: Queenside})
	}
	return dst
}

func (p *Position) canCastle(c Color, row, rookCol int, between, kingPath []int) bool {
	rook := p.Board.At(Square{Row: row, Col: rookCol})
	if rook.Type != Rook || rook.Color != c {
		return false
	}
	for _, col := range between {
		if !p.Board.At(Square{Row: row, Col: col}).Empty() {
			return false
		}
	}
	enemy := c.Opponent()
	for _, col := range kingPath {
		if p.IsAttacked(Square{Row: row, Col: col}, enemy) {
			return false
		}
	}
	return true
}
