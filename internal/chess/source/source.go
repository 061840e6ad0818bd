// Package source defines the contract shared by every external move
// provider: given a FEN, propose one move in UCI notation.
package source

import (
	"context"
	"errors"
)

// ErrNotApplicable means the source declined to answer for this position
// (no book entry, no cached eval, engine had nothing). Callers move on to the
// next source without treating it as a failure.
var ErrNotApplicable = errors.New("move source not applicable")

// MoveSource proposes a move for the side to move in fen.
type MoveSource interface {
	Name() string
	ProposeMove(ctx context.Context, fen string) (string, error)
}

// Strength describes how hard a source should try. Zero fields mean "use
// your own default".
type Strength struct {
	Level          int
	SkillLevel     int
	Elo            int
	MoveTimeMillis int
	Depth          int
}

// Leveled is implemented by sources that can play at a requested strength,
// such as a local UCI engine with Skill Level support.
type Leveled interface {
	MoveSource
	ProposeMoveAt(ctx context.Context, fen string, st Strength) (string, error)
}

// Func adapts a plain function to MoveSource.
type Func struct {
	Label string
	Fn    func(ctx context.Context, fen string) (string, error)
}

func (f Func) Name() string { return f.Label }

func (f Func) ProposeMove(ctx context.Context, fen string) (string, error) {
	if f.Fn == nil {
		return "", ErrNotApplicable
	}
	return f.Fn(ctx, fen)
}
