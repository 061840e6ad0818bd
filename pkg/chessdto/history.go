package chessdto

import (
	"time"

	"github.com/park285/cheese-chess/internal/store"
)

// SaveSlot is one line of the saved-games listing.
type SaveSlot struct {
	ID          string    `json:"id"`
	Name        string    `json:"name,omitempty"`
	PlayerColor string    `json:"player_color"`
	Level       int       `json:"level"`
	MoveCount   int       `json:"move_count"`
	FEN         string    `json:"fen"`
	SavedAt     time.Time `json:"saved_at"`
}

func SaveSlotsFrom(saves []*store.SavedGame) []SaveSlot {
	out := make([]SaveSlot, 0, len(saves))
	for _, s := range saves {
		if s == nil {
			continue
		}
		out = append(out, SaveSlot{
			ID:          s.ID,
			Name:        s.Name,
			PlayerColor: s.PlayerColor,
			Level:       s.Level,
			MoveCount:   len(s.Moves),
			FEN:         s.FEN,
			SavedAt:     s.SavedAt,
		})
	}
	return out
}
