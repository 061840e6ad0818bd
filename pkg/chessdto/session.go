package chessdto

import (
	"github.com/park285/cheese-chess/internal/eval"
	"github.com/park285/cheese-chess/internal/game"
	"github.com/park285/cheese-chess/internal/rules"
)

type MaterialScore struct {
	White int `json:"white"`
	Black int `json:"black"`
}

// Diff is White's material lead in pawns.
func (m MaterialScore) Diff() int { return m.White - m.Black }

type CapturedPieces struct {
	White []string `json:"white"`
	Black []string `json:"black"`
}

type SessionState struct {
	SaveID      string         `json:"save_id,omitempty"`
	PlayerColor string         `json:"player_color"`
	Level       int            `json:"level"`
	Preset      string         `json:"preset"`
	FEN         string         `json:"fen"`
	StartFEN    string         `json:"start_fen"`
	Turn        string         `json:"turn"`
	Status      string         `json:"status"`
	Winner      string         `json:"winner,omitempty"`
	InCheck     bool           `json:"in_check"`
	MovesSAN    []string       `json:"moves_san"`
	MovesUCI    []string       `json:"moves_uci"`
	LastMove    string         `json:"last_move,omitempty"`
	MoveCount   int            `json:"move_count"`
	Material    MaterialScore  `json:"material"`
	Captured    CapturedPieces `json:"captured"`
	Opening     string         `json:"opening,omitempty"`
	OpeningECO  string         `json:"opening_eco,omitempty"`
	BoardImage  []byte         `json:"-"`
}

// StateFromGame snapshots g. Opening fields are left for the caller.
func StateFromGame(g *game.Game, player rules.Color, level int, preset string) *SessionState {
	st := &SessionState{
		PlayerColor: player.String(),
		Level:       level,
		Preset:      preset,
		FEN:         g.FEN(),
		StartFEN:    g.StartFEN(),
		Turn:        g.Turn().String(),
		Status:      g.Status().String(),
		InCheck:     g.InCheck(g.Turn()),
		MovesSAN:    g.MoveHistory(),
		MovesUCI:    g.MoveHistoryUCI(),
		LastMove:    g.LastMoveUCI(),
		MoveCount:   g.Ply(),
		Material:    MaterialOf(g.BoardState()),
		Captured: CapturedPieces{
			White: g.Captured(rules.White),
			Black: g.Captured(rules.Black),
		},
	}
	if w, ok := g.Winner(); ok {
		st.Winner = w.String()
	} else if g.Status() == game.StatusStalemate {
		st.Winner = "draw"
	}
	return st
}

// MaterialOf counts material in pawns, kings excluded.
func MaterialOf(b rules.Board) MaterialScore {
	var m MaterialScore
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			pc := b[row][col]
			if pc.Empty() || pc.Type == rules.King {
				continue
			}
			v := eval.PieceValue(pc.Type) / 100
			if pc.Color == rules.White {
				m.White += v
			} else {
				m.Black += v
			}
		}
	}
	return m
}
