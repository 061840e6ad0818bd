package game

import (
	"strings"

	"github.com/park285/cheese-chess/internal/rules"
)

// notation writes m in short algebraic form using the position before the
// move. Check and mate suffixes are added by the caller.
func notation(pos *rules.Position, m rules.Move) string {
	switch m.Castling {
	case rules.Kingside:
		return "O-O"
	case rules.Queenside:
		return "O-O-O"
	}

	pc := pos.Board.At(m.From)
	capture := !pos.CapturedBy(m).Empty()
	var sb strings.Builder

	if pc.Type == rules.Pawn {
		if capture {
			sb.WriteByte(m.From.File())
			sb.WriteByte('x')
		}
		sb.WriteString(m.To.String())
		if m.Promotion != rules.NoPieceType {
			sb.WriteString("=Q")
		}
		return sb.String()
	}

	sb.WriteByte(pc.Type.Letter() - ('a' - 'A'))
	sb.WriteString(disambiguation(pos, m, pc))
	if capture {
		sb.WriteByte('x')
	}
	sb.WriteString(m.To.String())
	return sb.String()
}

// disambiguation returns the file, rank or both of the origin square when
// another piece of the same kind can also reach the target.
func disambiguation(pos *rules.Position, m rules.Move, pc rules.Piece) string {
	if pc.Type == rules.King {
		return ""
	}
	ambiguous, sameFile, sameRank := false, false, false
	for _, other := range pos.LegalMoves() {
		if other.To != m.To || other.From == m.From || pos.Board.At(other.From) != pc {
			continue
		}
		ambiguous = true
		if other.From.Col == m.From.Col {
			sameFile = true
		}
		if other.From.Row == m.From.Row {
			sameRank = true
		}
	}
	switch {
	case !ambiguous:
		return ""
	case !sameFile:
		return string(m.From.File())
	case !sameRank:
		return string(m.From.Rank())
	default:
		return m.From.String()
	}
}
