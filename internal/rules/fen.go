package rules

import (
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the standard initial position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// FEN encodes the position. The half-move clock is always 0 because the
// fifty-move rule is not tracked; fullMove is supplied by the caller.
func (p *Position) FEN(fullMove int) string {
	var sb strings.Builder
	for row := 0; row < 8; row++ {
		empty := 0
		for col := 0; col < 8; col++ {
			pc := p.Board[row][col]
			if pc.Empty() {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteByte(pc.FENChar())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if row < 7 {
			sb.WriteByte('/')
		}
	}

	if p.Turn == White {
		sb.WriteString(" w ")
	} else {
		sb.WriteString(" b ")
	}

	castling := ""
	if p.Castling[White].Kingside {
		castling += "K"
	}
	if p.Castling[White].Queenside {
		castling += "Q"
	}
	if p.Castling[Black].Kingside {
		castling += "k"
	}
	if p.Castling[Black].Queenside {
		castling += "q"
	}
	if castling == "" {
		castling = "-"
	}
	sb.WriteString(castling)

	if p.EnPassant != nil {
		sb.WriteByte(' ')
		sb.WriteString(p.EnPassant.String())
	} else {
		sb.WriteString(" -")
	}

	if fullMove < 1 {
		fullMove = 1
	}
	sb.WriteString(" 0 ")
	sb.WriteString(strconv.Itoa(fullMove))
	return sb.String()
}

// ParseFEN decodes a FEN string into a position and its full-move number.
// The half-move clock is accepted but ignored. Both kings must be present.
func ParseFEN(fen string) (*Position, int, error) {
	fields := strings.Fields(fen)
	if len(fields) < 4 {
		return nil, 0, fmt.Errorf("%w: expected at least 4 fields, got %d", ErrInvalidFEN, len(fields))
	}

	p := &Position{}
	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return nil, 0, fmt.Errorf("%w: expected 8 ranks, got %d", ErrInvalidFEN, len(ranks))
	}
	for row, rank := range ranks {
		col := 0
		for i := 0; i < len(rank); i++ {
			ch := rank[i]
			if ch >= '1' && ch <= '8' {
				col += int(ch - '0')
				continue
			}
			color := Black
			lower := ch
			if ch >= 'A' && ch <= 'Z' {
				color = White
				lower = ch + ('a' - 'A')
			}
			t := pieceTypeFromLetter(lower)
			if t == NoPieceType {
				return nil, 0, fmt.Errorf("%w: unknown piece %q", ErrInvalidFEN, ch)
			}
			if col > 7 {
				return nil, 0, fmt.Errorf("%w: rank %d overflows", ErrInvalidFEN, 8-row)
			}
			p.Board[row][col] = Piece{Type: t, Color: color}
			col++
		}
		if col != 8 {
			return nil, 0, fmt.Errorf("%w: rank %d has %d files", ErrInvalidFEN, 8-row, col)
		}
	}
	if p.Board.Count(King, White) != 1 || p.Board.Count(King, Black) != 1 {
		return nil, 0, fmt.Errorf("%w: each side needs exactly one king", ErrInvalidFEN)
	}

	switch fields[1] {
	case "w":
		p.Turn = White
	case "b":
		p.Turn = Black
	default:
		return nil, 0, fmt.Errorf("%w: bad side to move %q", ErrInvalidFEN, fields[1])
	}

	if fields[2] != "-" {
		for _, ch := range fields[2] {
			switch ch {
			case 'K':
				p.Castling[White].Kingside = true
			case 'Q':
				p.Castling[White].Queenside = true
			case 'k':
				p.Castling[Black].Kingside = true
			case 'q':
				p.Castling[Black].Queenside = true
			default:
				return nil, 0, fmt.Errorf("%w: bad castling field %q", ErrInvalidFEN, fields[2])
			}
		}
	}

	if fields[3] != "-" {
		sq, err := ParseSquare(fields[3])
		if err != nil {
			return nil, 0, fmt.Errorf("%w: bad en passant square %q", ErrInvalidFEN, fields[3])
		}
		if !p.enPassantPlausible(sq) {
			return nil, 0, fmt.Errorf("%w: impossible en passant square %q", ErrInvalidFEN, fields[3])
		}
		p.EnPassant = &sq
	}

	fullMove := 1
	if len(fields) >= 6 {
		n, err := strconv.Atoi(fields[5])
		if err != nil || n < 1 {
			return nil, 0, fmt.Errorf("%w: bad full-move number %q", ErrInvalidFEN, fields[5])
		}
		fullMove = n
	}
	return p, fullMove, nil
}

// enPassantPlausible reports whether target could follow an opposing double
// step: it is empty, on the mover's third rank from the far side, and the
// opposing pawn stands just beyond it.
func (p *Position) enPassantPlausible(target Square) bool {
	want := 2
	if p.Turn == Black {
		want = 5
	}
	if target.Row != want || !p.Board.At(target).Empty() {
		return false
	}
	pawn := p.Board.At(target.offset(-pawnDirection(p.Turn), 0))
	return pawn.Type == Pawn && pawn.Color == p.Turn.Opponent()
}

// FormatUCI writes the 4-character coordinate form of a move.
func FormatUCI(from, to Square) string {
	return from.String() + to.String()
}

// ParseUCI reads "e2e4". A fifth promotion character is tolerated and
// ignored since promotion is always to a queen.
func ParseUCI(s string) (from, to Square, err error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 4 && len(s) != 5 {
		return Square{}, Square{}, fmt.Errorf("%w: %q", ErrInvalidUCI, s)
	}
	if from, err = ParseSquare(s[0:2]); err != nil {
		return Square{}, Square{}, fmt.Errorf("%w: %q", ErrInvalidUCI, s)
	}
	if to, err = ParseSquare(s[2:4]); err != nil {
		return Square{}, Square{}, fmt.Errorf("%w: %q", ErrInvalidUCI, s)
	}
	return from, to, nil
}
