package game

import (
	"fmt"

	"github.com/park285/cheese-chess/internal/rules"
)

// Status describes the position after a move.
type Status int

const (
	StatusNormal Status = iota
	StatusCheck
	StatusCheckmate
	StatusStalemate
)

func (s Status) String() string {
	switch s {
	case StatusCheck:
		return "check"
	case StatusCheckmate:
		return "checkmate"
	case StatusStalemate:
		return "stalemate"
	default:
		return "normal"
	}
}

// Terminal reports whether no further moves can be played.
func (s Status) Terminal() bool {
	return s == StatusCheckmate || s == StatusStalemate
}

// Result is returned by a successful move. Winner is set only on checkmate.
type Result struct {
	Status Status
	Winner *rules.Color
}

type snapshot struct {
	pos      *rules.Position
	status   Status
	gameOver bool
}

// Game tracks one game from a start position, with notation, UCI history and
// undo snapshots. A Game is not safe for concurrent use.
type Game struct {
	pos      *rules.Position
	startFEN string
	startPly int

	history    []string
	historyUCI []string
	snapshots  []snapshot

	status   Status
	gameOver bool
}

// New starts a game from the standard position.
func New() *Game {
	return &Game{
		pos:      rules.NewPosition(),
		startFEN: rules.StartFEN,
	}
}

// FromFEN starts a game from an arbitrary position, e.g. a puzzle. A position
// that is already mate or stalemate yields a finished game.
func FromFEN(fen string) (*Game, error) {
	pos, fullMove, err := rules.ParseFEN(fen)
	if err != nil {
		return nil, err
	}
	startPly := (fullMove - 1) * 2
	if pos.Turn == rules.Black {
		startPly++
	}
	g := &Game{
		pos:      pos,
		startFEN: pos.FEN(fullMove),
		startPly: startPly,
	}
	g.status = evaluateStatus(pos)
	g.gameOver = g.status.Terminal()
	return g, nil
}

// ValidMoves lists the legal moves of the piece on (row, col).
func (g *Game) ValidMoves(row, col int) []rules.Move {
	from := rules.Square{Row: row, Col: col}
	if !from.Valid() {
		return nil
	}
	return g.pos.ValidMoves(from)
}

// LegalMoves lists every legal move of the side to move.
func (g *Game) LegalMoves() []rules.Move {
	return g.pos.LegalMoves()
}

// MakeMove plays from -> to when it is legal for the side to move. An illegal
// request, or any request after the game has ended, leaves the game untouched
// and returns false.
func (g *Game) MakeMove(fromRow, fromCol, toRow, toCol int) (Result, bool) {
	if g.gameOver {
		return Result{}, false
	}
	from := rules.Square{Row: fromRow, Col: fromCol}
	to := rules.Square{Row: toRow, Col: toCol}
	if !from.Valid() || !to.Valid() {
		return Result{}, false
	}
	m, ok := g.pos.FindMove(from, to)
	if !ok {
		return Result{}, false
	}
	return g.apply(m), true
}

// MakeUCIMove plays a move given as "e2e4". A fifth promotion character is
// accepted and ignored.
func (g *Game) MakeUCIMove(s string) (Result, error) {
	if g.gameOver {
		return Result{}, ErrGameOver
	}
	from, to, err := rules.ParseUCI(s)
	if err != nil {
		return Result{}, err
	}
	res, ok := g.MakeMove(from.Row, from.Col, to.Row, to.Col)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrIllegalMove, s)
	}
	return res, nil
}

// IsLegalUCI reports whether s names a legal move in the current position.
func (g *Game) IsLegalUCI(s string) bool {
	if g.gameOver {
		return false
	}
	from, to, err := rules.ParseUCI(s)
	if err != nil {
		return false
	}
	_, ok := g.pos.FindMove(from, to)
	return ok
}

func (g *Game) apply(m rules.Move) Result {
	mover := g.pos.Turn
	g.snapshots = append(g.snapshots, snapshot{
		pos:      g.pos.Clone(),
		status:   g.status,
		gameOver: g.gameOver,
	})

	san := notation(g.pos, m)
	g.pos.MakeMove(m)

	g.status = evaluateStatus(g.pos)
	res := Result{Status: g.status}
	switch g.status {
	case StatusCheckmate:
		san += "#"
		winner := mover
		res.Winner = &winner
		g.gameOver = true
	case StatusStalemate:
		g.gameOver = true
	case StatusCheck:
		san += "+"
	}

	g.history = append(g.history, san)
	g.historyUCI = append(g.historyUCI, m.UCI())
	return res
}

func evaluateStatus(pos *rules.Position) Status {
	inCheck := pos.InCheck(pos.Turn)
	if !pos.HasLegalMoves() {
		if inCheck {
			return StatusCheckmate
		}
		return StatusStalemate
	}
	if inCheck {
		return StatusCheck
	}
	return StatusNormal
}

// CanUndo reports whether a move is available to take back.
func (g *Game) CanUndo() bool {
	return len(g.snapshots) > 0
}

// Undo restores the state before the last move. It returns false when there
// is nothing to undo.
func (g *Game) Undo() bool {
	n := len(g.snapshots)
	if n == 0 {
		return false
	}
	snap := g.snapshots[n-1]
	g.snapshots = g.snapshots[:n-1]
	g.pos = snap.pos
	g.status = snap.status
	g.gameOver = snap.gameOver
	g.history = g.history[:len(g.history)-1]
	g.historyUCI = g.historyUCI[:len(g.historyUCI)-1]
	return true
}

// UndoPair takes back the last two plies, the usual undo against a computer
// opponent. It returns how many plies were undone.
func (g *Game) UndoPair() int {
	n := 0
	for n < 2 && g.Undo() {
		n++
	}
	return n
}

// FEN encodes the current position. The full-move number counts from the
// start position plus the moves played since.
func (g *Game) FEN() string {
	return g.pos.FEN(g.FullMove())
}

// FullMove is the current FEN full-move number.
func (g *Game) FullMove() int {
	return (g.startPly+len(g.history))/2 + 1
}

// StartFEN is the position the game started from.
func (g *Game) StartFEN() string { return g.startFEN }

// Position returns a private copy of the live position for analysis.
func (g *Game) Position() *rules.Position { return g.pos.Clone() }

// BoardState returns a copy of the board.
func (g *Game) BoardState() rules.Board { return g.pos.Board }

func (g *Game) Turn() rules.Color { return g.pos.Turn }
func (g *Game) GameOver() bool    { return g.gameOver }
func (g *Game) Status() Status    { return g.status }
func (g *Game) Ply() int          { return len(g.history) }

// Winner returns the side that delivered mate, if any.
func (g *Game) Winner() (rules.Color, bool) {
	if g.status != StatusCheckmate {
		return rules.White, false
	}
	return g.pos.Turn.Opponent(), true
}

func (g *Game) InCheck(c rules.Color) bool { return g.pos.InCheck(c) }

func (g *Game) MoveHistory() []string {
	return append([]string(nil), g.history...)
}

func (g *Game) MoveHistoryUCI() []string {
	return append([]string(nil), g.historyUCI...)
}

// LastMoveUCI returns the most recent move, or "" at the start.
func (g *Game) LastMoveUCI() string {
	if len(g.historyUCI) == 0 {
		return ""
	}
	return g.historyUCI[len(g.historyUCI)-1]
}

// Captured lists the glyphs of the pieces c has captured.
func (g *Game) Captured(c rules.Color) []string {
	return g.pos.CapturedSymbols(c)
}

func (g *Game) CastlingRights(c rules.Color) rules.CastlingRights {
	return g.pos.Castling[c]
}

// EnPassantTarget returns a copy of the en passant square, or nil.
func (g *Game) EnPassantTarget() *rules.Square {
	if g.pos.EnPassant == nil {
		return nil
	}
	sq := *g.pos.EnPassant
	return &sq
}
