package openingbook

import (
	"sync"

	"github.com/corentings/chess/v2/opening"
)

var (
	ecoOnce sync.Once
	ecoBook *opening.BookECO
)

// Opening is an ECO classification.
type Opening struct {
	Code  string
	Title string
}

// Classify names the opening reached by a UCI move history from the start
// position. ok is false when the moves are illegal or match no ECO entry.
func Classify(history []string) (Opening, bool) {
	if len(history) == 0 {
		return Opening{}, false
	}
	game, err := replay(history)
	if err != nil {
		return Opening{}, false
	}
	ecoOnce.Do(func() { ecoBook = opening.NewBookECO() })
	o := ecoBook.Find(game.Moves())
	if o == nil {
		return Opening{}, false
	}
	return Opening{Code: o.Code(), Title: o.Title()}, true
}
