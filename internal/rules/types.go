package rules

import (
	"fmt"
	"strings"
)

// Color identifies a side.
type Color int8

const (
	White Color = iota
	Black
)

func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// ParseColor accepts "white"/"w" and "black"/"b" in any case.
func ParseColor(s string) (Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return White, nil
	case "black", "b":
		return Black, nil
	default:
		return White, fmt.Errorf("unknown color %q", s)
	}
}

// PieceType is the kind of a piece. The zero value means "no piece".
type PieceType int8

const (
	NoPieceType PieceType = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

var pieceTypeNames = [...]string{"", "pawn", "knight", "bishop", "rook", "queen", "king"}

func (t PieceType) String() string {
	if t < 0 || int(t) >= len(pieceTypeNames) {
		return ""
	}
	return pieceTypeNames[t]
}

// Letter is the lowercase FEN letter of the type.
func (t PieceType) Letter() byte {
	switch t {
	case Pawn:
		return 'p'
	case Knight:
		return 'n'
	case Bishop:
		return 'b'
	case Rook:
		return 'r'
	case Queen:
		return 'q'
	case King:
		return 'k'
	default:
		return 0
	}
}

func pieceTypeFromLetter(b byte) PieceType {
	switch b {
	case 'p':
		return Pawn
	case 'n':
		return Knight
	case 'b':
		return Bishop
	case 'r':
		return Rook
	case 'q':
		return Queen
	case 'k':
		return King
	default:
		return NoPieceType
	}
}

// Piece is a colored piece. The zero value is an empty square.
type Piece struct {
	Type  PieceType
	Color Color
}

var NoPiece = Piece{}

func (p Piece) Empty() bool { return p.Type == NoPieceType }

var pieceSymbols = [2][7]string{
	{"", "♙", "♘", "♗", "♖", "♕", "♔"},
	{"", "♟", "♞", "♝", "♜", "♛", "♚"},
}

// Symbol is the display glyph of the piece. It is derived from Type and Color,
// so a promoted pawn shows as a queen without any stored state changing.
func (p Piece) Symbol() string {
	if p.Empty() {
		return ""
	}
	return pieceSymbols[p.Color][p.Type]
}

// FENChar is the FEN letter: uppercase for white, lowercase for black.
func (p Piece) FENChar() byte {
	c := p.Type.Letter()
	if p.Color == White && c != 0 {
		c -= 'a' - 'A'
	}
	return c
}

func (p Piece) String() string {
	if p.Empty() {
		return "-"
	}
	return p.Color.String() + " " + p.Type.String()
}

// Square addresses the board. Row 0 is rank 8, column 0 is file a.
type Square struct {
	Row int
	Col int
}

func (s Square) Valid() bool {
	return s.Row >= 0 && s.Row < 8 && s.Col >= 0 && s.Col < 8
}

func (s Square) File() byte { return byte('a' + s.Col) }
func (s Square) Rank() byte { return byte('8' - s.Row) }

func (s Square) String() string {
	if !s.Valid() {
		return "??"
	}
	return string([]byte{s.File(), s.Rank()})
}

func (s Square) offset(dRow, dCol int) Square {
	return Square{Row: s.Row + dRow, Col: s.Col + dCol}
}

// ParseSquare converts algebraic coordinates ("e4") into a Square.
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 {
		return Square{}, fmt.Errorf("%w: %q", ErrInvalidSquare, s)
	}
	file := s[0] | 0x20
	rank := s[1]
	if file < 'a' || file > 'h' || rank < '1' || rank > '8' {
		return Square{}, fmt.Errorf("%w: %q", ErrInvalidSquare, s)
	}
	return Square{Row: int('8' - rank), Col: int(file - 'a')}, nil
}

// CastlingRights tracks one side's remaining castling options.
type CastlingRights struct {
	Kingside  bool
	Queenside bool
}

// CastleSide marks a castling move.
type CastleSide int8

const (
	NoCastle CastleSide = iota
	Kingside
	Queenside
)

func (c CastleSide) String() string {
	switch c {
	case Kingside:
		return "kingside"
	case Queenside:
		return "queenside"
	default:
		return ""
	}
}

// homeRow is the back rank of a color.
func homeRow(c Color) int {
	if c == White {
		return 7
	}
	return 0
}

// pawnDirection is the row delta of a forward pawn step.
func pawnDirection(c Color) int {
	if c == White {
		return -1
	}
	return 1
}

func pawnStartRow(c Color) int {
	if c == White {
		return 6
	}
	return 1
}
