// Package chess picks the computer's move. Sources are tried in a fixed
// order (opening book, remote engines, local search) and every proposal is
// checked against the game's own legal moves before it is accepted.
package chess

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/park285/cheese-chess/internal/chess/openingbook"
	"github.com/park285/cheese-chess/internal/chess/source"
	"github.com/park285/cheese-chess/internal/game"
	"github.com/park285/cheese-chess/internal/rules"
	"github.com/park285/cheese-chess/internal/search"
)

const (
	SourceBook     = "book"
	SourcePolyglot = "polyglot"
	SourceSearch   = "search"
)

// Choice is the move the engine settled on and where it came from.
type Choice struct {
	Move       string
	Source     string
	Score      int
	Nodes      int
	Candidates []Candidate
}

type Engine struct {
	book     *openingbook.Book
	polyglot *openingbook.Polyglot
	sources  []source.MoveSource
	logger   *zap.Logger

	randMu sync.Mutex
	rand   *rand.Rand
}

type Option func(*Engine)

func WithBook(b *openingbook.Book) Option {
	return func(e *Engine) { e.book = b }
}

func WithPolyglot(p *openingbook.Polyglot) Option {
	return func(e *Engine) { e.polyglot = p }
}

// WithSources appends remote sources; they are asked in the given order.
func WithSources(srcs ...source.MoveSource) Option {
	return func(e *Engine) {
		for _, s := range srcs {
			if s != nil {
				e.sources = append(e.sources, s)
			}
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func WithSeed(seed int64) Option {
	return func(e *Engine) { e.rand = rand.New(rand.NewSource(seed)) }
}

// NewEngine falls back to the built-in opening book when none is given.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		logger: zap.NewNop(),
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.book == nil {
		b, err := openingbook.Default()
		if err != nil {
			e.logger.Warn("opening_book_unavailable", zap.Error(err))
		}
		e.book = b
	}
	return e
}

// Choose picks a move for the side to move in g at the given difficulty.
// g is never modified.
func (e *Engine) Choose(ctx context.Context, g *game.Game, level int) (Choice, error) {
	if g == nil {
		return Choice{}, errors.New("nil game")
	}
	if g.GameOver() {
		return Choice{}, game.ErrGameOver
	}
	preset := PresetForLevel(level)
	r := e.random()
	fen := g.FEN()

	if preset.UseBook && g.Ply() < preset.BookMaxPly {
		if c, ok := e.fromBook(g, fen, preset, r); ok {
			return c, nil
		}
	}

	if preset.UseRemote {
		if c, ok := e.fromSources(ctx, g, fen, preset); ok {
			return c, nil
		}
	}

	res, err := search.New(preset.Search, r).BestMove(g.Position())
	if err != nil {
		return Choice{}, fmt.Errorf("local search: %w", err)
	}
	e.logger.Debug("engine_choice",
		zap.String("source", SourceSearch),
		zap.String("move", res.UCI),
		zap.Int("score", res.Score),
		zap.Int("nodes", res.Nodes),
		zap.Int("level", preset.Level))
	return Choice{Move: res.UCI, Source: SourceSearch, Score: res.Score, Nodes: res.Nodes}, nil
}

// Hint answers with the strongest preset, for the side to move.
func (e *Engine) Hint(ctx context.Context, g *game.Game) (Choice, error) {
	return e.Choose(ctx, g, search.MaxDifficulty)
}

// Opening names the current opening when the game started from the
// standard position.
func (e *Engine) Opening(g *game.Game) (openingbook.Opening, bool) {
	if g == nil || g.StartFEN() != rules.StartFEN {
		return openingbook.Opening{}, false
	}
	return openingbook.Classify(g.MoveHistoryUCI())
}

func (e *Engine) fromBook(g *game.Game, fen string, preset DifficultyPreset, r *rand.Rand) (Choice, bool) {
	label := SourceBook
	var results []openingbook.Result
	// Static lines are keyed by move history from the initial position.
	if g.StartFEN() == rules.StartFEN {
		results = e.book.Lookup(g.MoveHistoryUCI())
	}
	if len(results) == 0 && e.polyglot != nil {
		var err error
		results, err = e.polyglot.Lookup(fen)
		if err != nil {
			e.logger.Warn("polyglot_lookup_failed", zap.Error(err))
			return Choice{}, false
		}
		label = SourcePolyglot
	}

	candidates := make([]Candidate, 0, len(results))
	for _, res := range results {
		if !g.IsLegalUCI(res.Move) {
			continue
		}
		candidates = append(candidates, Candidate{Move: res.Move, Weight: int(res.Weight)})
	}
	if len(candidates) == 0 {
		return Choice{}, false
	}

	chosen, err := SelectCandidate(preset, candidates, r)
	if err != nil {
		e.logger.Warn("book_select_failed", zap.Error(err))
		return Choice{}, false
	}
	e.logger.Debug("engine_choice", zap.String("source", label), zap.String("move", chosen.Move), zap.Int("candidates", len(candidates)))
	return Choice{Move: normalizeUCI(chosen.Move), Source: label, Candidates: candidates}, true
}

func (e *Engine) fromSources(ctx context.Context, g *game.Game, fen string, preset DifficultyPreset) (Choice, bool) {
	strength := source.Strength{
		Level:          preset.Level,
		SkillLevel:     preset.SkillLevel,
		Elo:            preset.Elo,
		MoveTimeMillis: preset.MoveTimeMillis,
		Depth:          preset.DepthCap,
	}
	for _, src := range e.sources {
		if ctx.Err() != nil {
			e.logger.Warn("move_sources_cancelled", zap.Error(ctx.Err()))
			return Choice{}, false
		}

		var (
			move string
			err  error
		)
		if lv, ok := src.(source.Leveled); ok {
			move, err = lv.ProposeMoveAt(ctx, fen, strength)
		} else {
			move, err = src.ProposeMove(ctx, fen)
		}

		switch {
		case errors.Is(err, source.ErrNotApplicable):
			e.logger.Debug("move_source_declined", zap.String("source", src.Name()))
			continue
		case err != nil:
			e.logger.Warn("move_source_failed", zap.String("source", src.Name()), zap.Error(err))
			continue
		}

		move = normalizeUCI(move)
		if !g.IsLegalUCI(move) {
			e.logger.Warn("move_source_illegal", zap.String("source", src.Name()), zap.String("move", move), zap.String("fen", fen))
			continue
		}
		e.logger.Debug("engine_choice", zap.String("source", src.Name()), zap.String("move", move))
		return Choice{Move: move, Source: src.Name()}, true
	}
	return Choice{}, false
}

// normalizeUCI lowercases and drops the promotion suffix; promotions are
// always to a queen here.
func normalizeUCI(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	from, to, err := rules.ParseUCI(s)
	if err != nil {
		return s
	}
	return rules.FormatUCI(from, to)
}

func (e *Engine) random() *rand.Rand {
	e.randMu.Lock()
	seed := e.rand.Int63()
	e.randMu.Unlock()
	return rand.New(rand.NewSource(seed))
}

// Sources lists the configured remote source names in query order.
func (e *Engine) Sources() []string {
	out := make([]string, 0, len(e.sources))
	for _, s := range e.sources {
		out = append(out, s.Name())
	}
	return out
}
