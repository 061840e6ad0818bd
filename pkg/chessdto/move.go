package chessdto

import (
	"time"

	"github.com/park285/cheese-chess/internal/chess"
)

// AssistSuggestion represents a hint produced by the engine.
type AssistSuggestion struct {
	MoveUCI      string        `json:"move_uci"`
	Source       string        `json:"source"`
	EvaluationCP int           `json:"evaluation_cp"`
	Nodes        int           `json:"nodes,omitempty"`
	Duration     time.Duration `json:"duration"`
}

func SuggestionFromChoice(c chess.Choice, took time.Duration) *AssistSuggestion {
	return &AssistSuggestion{
		MoveUCI:      c.Move,
		Source:       c.Source,
		EvaluationCP: c.Score,
		Nodes:        c.Nodes,
		Duration:     took,
	}
}

// MoveSummary summarises player and engine moves after executing a single turn.
type MoveSummary struct {
	State        *SessionState `json:"state"`
	PlayerSAN    string        `json:"player_san,omitempty"`
	PlayerUCI    string        `json:"player_uci,omitempty"`
	EngineSAN    string        `json:"engine_san,omitempty"`
	EngineUCI    string        `json:"engine_uci,omitempty"`
	EngineSource string        `json:"engine_source,omitempty"`
	Finished     bool          `json:"finished"`
}
