// Package search picks a move for the side to move, either by scoring moves
// heuristically or by a shallow alpha-beta minimax over eval.Evaluate.
package search

import (
	"errors"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/park285/cheese-chess/internal/eval"
	"github.com/park285/cheese-chess/internal/rules"
)

// MateScore is the magnitude of a checkmate score. Mates found closer to the
// root score higher: a mate at ply p is worth MateScore-p.
const MateScore = 100000

// ErrNoMoves is returned when BestMove is asked about a finished position.
var ErrNoMoves = errors.New("no legal moves")

// Result is the chosen move and how it was found.
type Result struct {
	Move  rules.Move
	UCI   string
	Score int
	Nodes int
	Mode  Mode
}

// Searcher is not safe for concurrent use; create one per search or guard
// it externally.
type Searcher struct {
	cfg   Config
	rand  *rand.Rand
	nodes int
	root  rules.Color
}

// New returns a Searcher. A nil r is replaced by a time-seeded source.
func New(cfg Config, r *rand.Rand) *Searcher {
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Searcher{cfg: cfg.withDefaults(), rand: r}
}

func (s *Searcher) Config() Config { return s.cfg }

// BestMove picks a move for the side to move in pos. pos itself is never
// modified; the search runs on a private copy. A board missing either king
// fails with rules.ErrKingMissing instead of being scored.
func (s *Searcher) BestMove(pos *rules.Position) (Result, error) {
	work := pos.Clone()
	for _, c := range [2]rules.Color{rules.White, rules.Black} {
		if _, err := work.KingSquare(c); err != nil {
			return Result{}, err
		}
	}
	moves := work.LegalMoves()
	if len(moves) == 0 {
		return Result{}, ErrNoMoves
	}
	s.nodes = 0
	s.root = work.Turn

	var best rules.Move
	var score int
	if s.cfg.Mode == ModeMinimax {
		best, score = s.searchRoot(work, moves)
	} else {
		best, score = s.heuristic(work, moves)
	}
	return Result{
		Move:  best,
		UCI:   best.UCI(),
		Score: score,
		Nodes: s.nodes,
		Mode:  s.cfg.Mode,
	}, nil
}

func (s *Searcher) heuristic(pos *rules.Position, moves []rules.Move) (rules.Move, int) {
	bestScore := math.MinInt
	var best rules.Move
	for _, m := range moves {
		s.nodes++
		score := s.heuristicScore(pos, m)
		if s.cfg.Jitter > 0 {
			score += s.rand.Intn(2*s.cfg.Jitter+1) - s.cfg.Jitter
		}
		if score > bestScore {
			bestScore = score
			best = m
		}
	}
	return best, bestScore
}

func (s *Searcher) heuristicScore(pos *rules.Position, m rules.Move) int {
	score := 0
	if captured := pos.CapturedBy(m); !captured.Empty() {
		score += eval.PieceValue(captured.Type) * s.cfg.CaptureWeight / 100
	}
	if isCenter(m.To) {
		score += s.cfg.CenterBonus
	}
	pc := pos.Board.At(m.From)
	if pc.Type != rules.Pawn && pc.Type != rules.King && m.From.Row == backRank(pc.Color) {
		score += s.cfg.DevelopBonus
	}
	return score
}

func isCenter(sq rules.Square) bool {
	return (sq.Row == 3 || sq.Row == 4) && (sq.Col == 3 || sq.Col == 4)
}

func backRank(c rules.Color) int {
	if c == rules.White {
		return 7
	}
	return 0
}

// searchRoot scores every root move; only interior nodes are truncated to
// MoveCap so a quiet winning move at the root is never dropped.
func (s *Searcher) searchRoot(pos *rules.Position, moves []rules.Move) (rules.Move, int) {
	orderMoves(pos, moves)
	alpha, beta := -math.MaxInt32, math.MaxInt32
	bestScore := math.MinInt
	var best rules.Move
	for _, m := range moves {
		u := pos.MakeMove(m)
		score := s.minimax(pos, s.cfg.Depth-1, 1, alpha, beta)
		pos.UnmakeMove(m, u)
		if score > bestScore {
			bestScore = score
			best = m
		}
		if bestScore > alpha {
			alpha = bestScore
		}
	}
	return best, bestScore
}

// minimax returns the score of pos from the root mover's point of view. The
// root mover maximizes, the opponent minimizes.
func (s *Searcher) minimax(pos *rules.Position, depth, ply, alpha, beta int) int {
	s.nodes++
	if depth <= 0 {
		if !pos.HasLegalMoves() {
			return s.terminal(pos, ply)
		}
		return eval.Evaluate(pos, s.root)
	}

	moves := pos.LegalMoves()
	if len(moves) == 0 {
		return s.terminal(pos, ply)
	}
	orderMoves(pos, moves)
	if len(moves) > s.cfg.MoveCap {
		moves = moves[:s.cfg.MoveCap]
	}

	maximizing := pos.Turn == s.root
	if maximizing {
		best := -math.MaxInt32
		for _, m := range moves {
			u := pos.MakeMove(m)
			score := s.minimax(pos, depth-1, ply+1, alpha, beta)
			pos.UnmakeMove(m, u)
			if score > best {
				best = score
			}
			if best > alpha {
				alpha = best
			}
			if beta <= alpha {
				break
			}
		}
		return best
	}

	best := math.MaxInt32
	for _, m := range moves {
		u := pos.MakeMove(m)
		score := s.minimax(pos, depth-1, ply+1, alpha, beta)
		pos.UnmakeMove(m, u)
		if score < best {
			best = score
		}
		if best < beta {
			beta = best
		}
		if beta <= alpha {
			break
		}
	}
	return best
}

// terminal scores a node whose side to move has no legal moves.
func (s *Searcher) terminal(pos *rules.Position, ply int) int {
	if !pos.InCheck(pos.Turn) {
		return 0
	}
	if pos.Turn == s.root {
		return -(MateScore - ply)
	}
	return MateScore - ply
}

// orderMoves sorts captures first, most valuable victim first. The sort is
// stable so equal moves keep generation order.
func orderMoves(pos *rules.Position, moves []rules.Move) {
	sort.SliceStable(moves, func(i, j int) bool {
		return eval.PieceValue(pos.CapturedBy(moves[i]).Type) > eval.PieceValue(pos.CapturedBy(moves[j]).Type)
	})
}
