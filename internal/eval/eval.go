// Package eval scores positions statically: material plus piece-square
// bonuses, with no lookahead.
package eval

import "github.com/park285/cheese-chess/internal/rules"

var pieceValues = [7]int{
	rules.Pawn:   100,
	rules.Knight: 320,
	rules.Bishop: 330,
	rules.Rook:   500,
	rules.Queen:  900,
	rules.King:   20000,
}

// PieceValue is the material value of t. NoPieceType is worth 0.
func PieceValue(t rules.PieceType) int {
	if t < 0 || int(t) >= len(pieceValues) {
		return 0
	}
	return pieceValues[t]
}

// Tables are written from white's side, rank 8 first, so they index
// directly by Square.Row for white and by 7-Row for black.
type table [8][8]int

var pawnTable = table{
	{0, 0, 0, 0, 0, 0, 0, 0},
	{50, 50, 50, 50, 50, 50, 50, 50},
	{10, 10, 20, 30, 30, 20, 10, 10},
	{5, 5, 10, 25, 25, 10, 5, 5},
	{0, 0, 0, 20, 20, 0, 0, 0},
	{5, -5, -10, 0, 0, -10, -5, 5},
	{5, 10, 10, -20, -20, 10, 10, 5},
	{0, 0, 0, 0, 0, 0, 0, 0},
}

var knightTable = table{
	{-50, -40, -30, -30, -30, -30, -40, -50},
	{-40, -20, 0, 0, 0, 0, -20, -40},
	{-30, 0, 10, 15, 15, 10, 0, -30},
	{-30, 5, 15, 20, 20, 15, 5, -30},
	{-30, 0, 15, 20, 20, 15, 0, -30},
	{-30, 5, 10, 15, 15, 10, 5, -30},
	{-40, -20, 0, 5, 5, 0, -20, -40},
	{-50, -40, -30, -30, -30, -30, -40, -50},
}

var bishopTable = table{
	{-20, -10, -10, -10, -10, -10, -10, -20},
	{-10, 0, 0, 0, 0, 0, 0, -10},
	{-10, 0, 5, 10, 10, 5, 0, -10},
	{-10, 5, 5, 10, 10, 5, 5, -10},
	{-10, 0, 10, 10, 10, 10, 0, -10},
	{-10, 10, 10, 10, 10, 10, 10, -10},
	{-10, 5, 0, 0, 0, 0, 5, -10},
	{-20, -10, -10, -10, -10, -10, -10, -20},
}

var rookTable = table{
	{0, 0, 0, 0, 0, 0, 0, 0},
	{5, 10, 10, 10, 10, 10, 10, 5},
	{-5, 0, 0, 0, 0, 0, 0, -5},
	{-5, 0, 0, 0, 0, 0, 0, -5},
	{-5, 0, 0, 0, 0, 0, 0, -5},
	{-5, 0, 0, 0, 0, 0, 0, -5},
	{-5, 0, 0, 0, 0, 0, 0, -5},
	{0, 0, 0, 5, 5, 0, 0, 0},
}

var queenTable = table{
	{-20, -10, -10, -5, -5, -10, -10, -20},
	{-10, 0, 0, 0, 0, 0, 0, -10},
	{-10, 0, 5, 5, 5, 5, 0, -10},
	{-5, 0, 5, 5, 5, 5, 0, -5},
	{0, 0, 5, 5, 5, 5, 0, -5},
	{-10, 5, 5, 5, 5, 5, 0, -10},
	{-10, 0, 5, 0, 0, 0, 0, -10},
	{-20, -10, -10, -5, -5, -10, -10, -20},
}

// King safety: stay behind the pawns, prefer the castled corners.
var kingTable = table{
	{-30, -40, -40, -50, -50, -40, -40, -30},
	{-30, -40, -40, -50, -50, -40, -40, -30},
	{-30, -40, -40, -50, -50, -40, -40, -30},
	{-30, -40, -40, -50, -50, -40, -40, -30},
	{-20, -30, -30, -40, -40, -30, -30, -20},
	{-10, -20, -20, -20, -20, -20, -20, -10},
	{20, 20, 0, 0, 0, 0, 20, 20},
	{20, 30, 10, 0, 0, 10, 30, 20},
}

var tables = [7]*table{
	rules.Pawn:   &pawnTable,
	rules.Knight: &knightTable,
	rules.Bishop: &bishopTable,
	rules.Rook:   &rookTable,
	rules.Queen:  &queenTable,
	rules.King:   &kingTable,
}

// SquareBonus is the piece-square bonus of p standing on sq.
func SquareBonus(p rules.Piece, sq rules.Square) int {
	if p.Empty() || !sq.Valid() {
		return 0
	}
	row := sq.Row
	if p.Color == rules.Black {
		row = 7 - row
	}
	return tables[p.Type][row][sq.Col]
}

// Evaluate scores pos from forColor's point of view: every piece adds its
// material and square bonus when it belongs to forColor and subtracts them
// otherwise.
func Evaluate(pos *rules.Position, forColor rules.Color) int {
	score := 0
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			p := pos.Board[row][col]
			if p.Empty() {
				continue
			}
			v := PieceValue(p.Type) + SquareBonus(p, rules.Square{Row: row, Col: col})
			if p.Color == forColor {
				score += v
			} else {
				score -= v
			}
		}
	}
	return score
}
