package uci

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/cheese-chess/internal/chess/source"
)

// Source exposes a Pool as a move source.
type Source struct {
	pool   *Pool
	opt    Options
	limits Limits
	logger *zap.Logger
}

func NewSource(pool *Pool, opt Options, limits Limits, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{pool: pool, opt: opt, limits: limits, logger: logger}
}

func (s *Source) Name() string { return "uci" }

func (s *Source) ProposeMove(ctx context.Context, fen string) (string, error) {
	return s.propose(ctx, fen, s.opt, s.limits)
}

// ProposeMoveAt weakens the engine with Skill Level and UCI_Elo and bounds
// the search by the requested depth or move time.
func (s *Source) ProposeMoveAt(ctx context.Context, fen string, st source.Strength) (string, error) {
	opt := s.opt
	limits := s.limits
	if st.SkillLevel > 0 {
		opt.SkillLevel = st.SkillLevel
	}
	if st.Elo > 0 {
		opt.Elo = st.Elo
	}
	if st.Depth > 0 {
		limits.Depth = st.Depth
	}
	if st.MoveTimeMillis > 0 {
		limits.MoveTimeMillis = st.MoveTimeMillis
	}
	return s.propose(ctx, fen, opt, limits)
}

func (s *Source) propose(ctx context.Context, fen string, opt Options, limits Limits) (string, error) {
	session, err := s.pool.Acquire(ctx, opt)
	if err != nil {
		return "", fmt.Errorf("acquire uci session: %w", err)
	}
	var releaseErr error
	defer func() { s.pool.Release(session, releaseErr) }()

	if err := session.NewGame(ctx); err != nil {
		releaseErr = err
		return "", err
	}
	resp, err := session.Search(ctx, SearchRequest{FEN: fen, Limits: limits})
	if err != nil {
		releaseErr = err
		return "", err
	}

	best := strings.TrimSpace(resp.BestMove)
	if best == "" || best == "(none)" || best == "0000" {
		return "", source.ErrNotApplicable
	}
	s.logger.Debug("uci_bestmove",
		zap.String("move", best),
		zap.Int("skill", opt.SkillLevel),
		zap.Int("candidates", len(resp.Candidates)))
	return best, nil
}
