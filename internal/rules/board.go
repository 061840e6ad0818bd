package rules

// Board is the 8x8 grid. It is a value type: assignment copies every square.
type Board [8][8]Piece

var backRank = [8]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// StartingBoard returns the standard initial setup.
func StartingBoard() Board {
	var b Board
	for col, t := range backRank {
		b[0][col] = Piece{Type: t, Color: Black}
		b[1][col] = Piece{Type: Pawn, Color: Black}
		b[6][col] = Piece{Type: Pawn, Color: White}
		b[7][col] = Piece{Type: t, Color: White}
	}
	return b
}

func (b *Board) At(sq Square) Piece {
	if !sq.Valid() {
		return NoPiece
	}
	return b[sq.Row][sq.Col]
}

func (b *Board) Set(sq Square, p Piece) {
	b[sq.Row][sq.Col] = p
}

func (b *Board) Clear(sq Square) {
	b[sq.Row][sq.Col] = NoPiece
}

// FindKing returns the square of the color's king.
func (b *Board) FindKing(c Color) (Square, bool) {
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			p := b[row][col]
			if p.Type == King && p.Color == c {
				return Square{Row: row, Col: col}, true
			}
		}
	}
	return Square{}, false
}

// Count returns how many pieces of the given type and color are on the board.
func (b *Board) Count(t PieceType, c Color) int {
	n := 0
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			if p := b[row][col]; p.Type == t && p.Color == c {
				n++
			}
		}
	}
	return n
}
