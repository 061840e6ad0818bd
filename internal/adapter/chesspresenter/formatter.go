package chesspresenter

import (
	"fmt"
	"strings"

	"github.com/park285/cheese-chess/internal/msgcat"
	"github.com/park285/cheese-chess/internal/rules"
	"github.com/park285/cheese-chess/internal/search"
	"github.com/park285/cheese-chess/pkg/chessdto"
)

const (
	mateThreshold       = search.MateScore - 1000
	capturedRecentLimit = 6
)

// Formatter renders chess DTOs into terminal text using the message catalog.
type Formatter struct {
	cat *msgcat.Catalog
}

func NewFormatter(cat *msgcat.Catalog) *Formatter {
	return &Formatter{cat: cat}
}

// render falls back to the key itself so a broken override never hides output.
func (f *Formatter) render(key string, data any) string {
	if f == nil || f.cat == nil {
		return key
	}
	out, err := f.cat.Render(key, data)
	if err != nil {
		return key
	}
	return out
}

func (f *Formatter) Banner(state *chessdto.SessionState) string {
	return f.render("cli.banner", map[string]any{"Color": state.PlayerColor, "Preset": state.Preset})
}

func (f *Formatter) Prompt(state *chessdto.SessionState) string {
	return f.render("cli.prompt", map[string]any{"Turn": state.Turn})
}

func (f *Formatter) Help() string { return f.render("cli.help", nil) }
func (f *Formatter) Bye() string  { return f.render("cli.bye", nil) }

func (f *Formatter) Unknown(cmd string) string {
	return f.render("cli.unknown", map[string]any{"Command": cmd})
}

// Move describes one turn: the player's move, the reply, and any outcome.
func (f *Formatter) Move(summary *chessdto.MoveSummary) string {
	if summary == nil {
		return ""
	}
	var lines []string
	if summary.PlayerSAN != "" {
		lines = append(lines, f.render("move.player", map[string]any{"SAN": summary.PlayerSAN}))
	}
	if summary.EngineUCI != "" {
		lines = append(lines, f.render("move.engine", map[string]any{
			"SAN":    summary.EngineSAN,
			"UCI":    summary.EngineUCI,
			"Source": summary.EngineSource,
		}))
	}
	if out := f.Outcome(summary.State); out != "" {
		lines = append(lines, out)
	}
	return strings.Join(lines, "\n")
}

func (f *Formatter) Outcome(state *chessdto.SessionState) string {
	if state == nil {
		return ""
	}
	switch state.Status {
	case "checkmate":
		return f.render("outcome.checkmate", map[string]any{"Winner": state.Winner})
	case "stalemate":
		return f.render("outcome.stalemate", nil)
	case "check":
		return f.render("outcome.check", nil)
	}
	return ""
}

func (f *Formatter) Status(state *chessdto.SessionState) string {
	if state == nil {
		return f.Help()
	}
	var sb strings.Builder
	sb.WriteString(f.render("status.line", map[string]any{
		"Preset":   state.Preset,
		"Ply":      state.MoveCount,
		"Material": formatMaterialDiff(state.Material),
		"Turn":     state.Turn,
	}))
	if state.Opening != "" {
		sb.WriteString("\n")
		sb.WriteString(f.render("status.opening", map[string]any{"ECO": state.OpeningECO, "Name": state.Opening}))
	}
	if len(state.Captured.White)+len(state.Captured.Black) > 0 {
		sb.WriteString("\n")
		sb.WriteString(f.render("status.captured", map[string]any{
			"White": recent(state.Captured.White),
			"Black": recent(state.Captured.Black),
		}))
	}
	return sb.String()
}

func (f *Formatter) Hint(s *chessdto.AssistSuggestion) string {
	if s == nil || s.MoveUCI == "" {
		return f.Error(fmt.Errorf("no hint available"))
	}
	return f.render("hint", map[string]any{"Move": s.MoveUCI, "Source": s.Source, "Score": FormatScore(s.EvaluationCP)})
}

func (f *Formatter) Undo(plies int) string {
	if plies == 0 {
		return f.render("undo.none", nil)
	}
	return f.render("undo.done", map[string]any{"Count": plies})
}

func (f *Formatter) Level(preset string) string {
	return f.render("level", map[string]any{"Preset": preset})
}

func (f *Formatter) Saved(id string) string {
	return f.render("save.saved", map[string]any{"ID": id})
}

func (f *Formatter) Loaded(id string, plies int) string {
	return f.render("save.loaded", map[string]any{"ID": id, "Moves": plies})
}

func (f *Formatter) SaveUnavailable() string { return f.render("save.unavailable", nil) }

func (f *Formatter) Saves(slots []chessdto.SaveSlot) string {
	if len(slots) == 0 {
		return f.render("save.empty", nil)
	}
	lines := make([]string, 0, len(slots))
	for _, s := range slots {
		lines = append(lines, strings.TrimSpace(f.render("save.slot", map[string]any{
			"ID":      s.ID,
			"SavedAt": s.SavedAt.Local().Format("2006-01-02 15:04"),
			"Color":   s.PlayerColor,
			"Level":   s.Level,
			"Moves":   s.MoveCount,
			"Name":    s.Name,
		})))
	}
	return strings.Join(lines, "\n")
}

func (f *Formatter) PNG(path string) string {
	return f.render("png", map[string]any{"Path": path})
}

func (f *Formatter) Error(err error) string {
	de := chessdto.ToDomainError(err)
	if de == nil {
		return ""
	}
	return f.render("error", map[string]any{"Message": de.Error()})
}

func (f *Formatter) Illegal(move string) string {
	return f.render("move.illegal", map[string]any{"Move": move})
}

// BoardText draws the board with piece glyphs, rank 8 on top unless flip.
func BoardText(b rules.Board, flip bool) string {
	var sb strings.Builder
	for i := 0; i < 8; i++ {
		row := i
		if flip {
			row = 7 - i
		}
		sb.WriteByte(byte('8' - row))
		sb.WriteByte(' ')
		for j := 0; j < 8; j++ {
			col := j
			if flip {
				col = 7 - j
			}
			sq := rules.Square{Row: row, Col: col}
			if pc := b.At(sq); !pc.Empty() {
				sb.WriteString(pc.Symbol())
			} else {
				sb.WriteString("·")
			}
			if j < 7 {
				sb.WriteByte(' ')
			}
		}
		sb.WriteByte('\n')
	}
	if flip {
		sb.WriteString("  h g f e d c b a")
	} else {
		sb.WriteString("  a b c d e f g h")
	}
	return sb.String()
}

// FormatScore shows centipawns as pawns, or a mate distance in moves.
func FormatScore(cp int) string {
	if cp >= mateThreshold || cp <= -mateThreshold {
		plies := search.MateScore - abs(cp)
		moves := (plies + 1) / 2
		if cp < 0 {
			return fmt.Sprintf("mated in %d", moves)
		}
		return fmt.Sprintf("mate in %d", moves)
	}
	return fmt.Sprintf("%+.2f", float64(cp)/100)
}

func formatMaterialDiff(material chessdto.MaterialScore) string {
	diff := material.Diff()
	if diff == 0 {
		return "0"
	}
	return fmt.Sprintf("%+d", diff)
}

func recent(pieces []string) string {
	if len(pieces) == 0 {
		return "-"
	}
	if len(pieces) > capturedRecentLimit {
		pieces = pieces[len(pieces)-capturedRecentLimit:]
	}
	return strings.Join(pieces, "")
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
