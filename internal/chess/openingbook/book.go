package openingbook

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	chesslib "github.com/corentings/chess/v2"
	"gopkg.in/yaml.v3"
)

const maxBookWeight = 0xffff

var ErrInvalidLine = errors.New("invalid opening line")

var (
	defaultOnce sync.Once
	defaultBook *Book
	defaultErr  error
)

// Result is one candidate continuation and its accumulated weight.
type Result struct {
	Move   string
	Weight uint16
}

// Line is a named sequence of UCI moves from the standard start position.
type Line struct {
	Name   string   `yaml:"name"`
	Moves  []string `yaml:"moves"`
	Weight int      `yaml:"weight"`
}

type bookFile struct {
	Lines []Line `yaml:"lines"`
}

// Book answers "which moves follow this exact history" from a fixed set of
// lines. It is immutable after construction.
type Book struct {
	lines []Line
}

// NewBook normalises and replays every line; an illegal move anywhere in a
// line rejects the whole book.
func NewBook(lines []Line) (*Book, error) {
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		norm := Line{Name: strings.TrimSpace(l.Name), Weight: l.Weight}
		if norm.Weight <= 0 {
			norm.Weight = 1
		}
		for _, mv := range l.Moves {
			mv = strings.ToLower(strings.TrimSpace(mv))
			if mv != "" {
				norm.Moves = append(norm.Moves, mv)
			}
		}
		if len(norm.Moves) == 0 {
			return nil, fmt.Errorf("%w: %q has no moves", ErrInvalidLine, norm.Name)
		}
		if _, err := replay(norm.Moves); err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidLine, norm.Name, err)
		}
		out = append(out, norm)
	}
	return &Book{lines: out}, nil
}

// Default returns the built-in book. It is built once.
func Default() (*Book, error) {
	defaultOnce.Do(func() {
		defaultBook, defaultErr = NewBook(defaultLines)
	})
	return defaultBook, defaultErr
}

// LoadFile reads lines from a YAML file of the form
//
//	lines:
//	  - name: italian
//	    weight: 10
//	    moves: [e2e4, e7e5, g1f3]
func LoadFile(path string) ([]Line, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read opening book %q: %w", path, err)
	}
	var f bookFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode opening book %q: %w", path, err)
	}
	return f.Lines, nil
}

// Merge returns a book holding b's lines followed by extra.
func (b *Book) Merge(extra []Line) (*Book, error) {
	if b == nil {
		return NewBook(extra)
	}
	all := make([]Line, 0, len(b.lines)+len(extra))
	all = append(all, b.lines...)
	all = append(all, extra...)
	return NewBook(all)
}

func (b *Book) Len() int {
	if b == nil {
		return 0
	}
	return len(b.lines)
}

// Lookup returns the moves that continue history in some line, heaviest
// first. Weights of lines sharing the same next move are summed.
func (b *Book) Lookup(history []string) []Result {
	if b == nil {
		return nil
	}
	ply := len(history)
	weights := make(map[string]int)
	for _, l := range b.lines {
		if len(l.Moves) <= ply || !prefixMatches(l.Moves, history) {
			continue
		}
		weights[l.Moves[ply]] += l.Weight
	}
	if len(weights) == 0 {
		return nil
	}

	results := make([]Result, 0, len(weights))
	for move, w := range weights {
		if w > maxBookWeight {
			w = maxBookWeight
		}
		results = append(results, Result{Move: move, Weight: uint16(w)})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Weight == results[j].Weight {
			return results[i].Move < results[j].Move
		}
		return results[i].Weight > results[j].Weight
	})
	return results
}

func prefixMatches(moves, history []string) bool {
	for i, mv := range history {
		if !strings.EqualFold(moves[i], strings.TrimSpace(mv)) {
			return false
		}
	}
	return true
}

func replay(moves []string) (*chesslib.Game, error) {
	return buildGameFromPosition("", moves)
}

func buildGameFromPosition(fen string, moves []string) (*chesslib.Game, error) {
	var game *chesslib.Game
	if strings.TrimSpace(fen) == "" || fen == "startpos" {
		game = chesslib.NewGame()
	} else {
		option, err := chesslib.FEN(fen)
		if err != nil {
			return nil, fmt.Errorf("parse fen %q: %w", fen, err)
		}
		game = chesslib.NewGame(option)
	}

	for _, mv := range moves {
		if err := game.PushNotationMove(mv, chesslib.UCINotation{}, nil); err != nil {
			return nil, fmt.Errorf("apply move %q: %w", mv, err)
		}
	}
	return game, nil
}

var defaultLines = []Line{
	{Name: "sicilian-najdorf", Weight: 40, Moves: []string{"e2e4", "c7c5", "g1f3", "d7d6", "d2d4", "c5d4", "f3d4", "g8f6", "b1c3", "a7a6"}},
	{Name: "sicilian-closed", Weight: 5, Moves: []string{"e2e4", "c7c5", "b1c3", "b8c6", "g2g3", "g7g6"}},
	{Name: "ruy-lopez-berlin", Weight: 35, Moves: []string{"e2e4", "e7e5", "g1f3", "b8c6", "f1b5", "g8f6", "e1g1", "f6e4"}},
	{Name: "ruy-lopez-anti-berlin", Weight: 10, Moves: []string{"e2e4", "e7e5", "g1f3", "b8c6", "f1b5", "g8f6", "d2d3", "f8c5"}},
	{Name: "italian-giuoco-piano", Weight: 30, Moves: []string{"e2e4", "e7e5", "g1f3", "b8c6", "f1c4", "f8c5", "c2c3", "g8f6", "d2d4"}},
	{Name: "caro-kann-advance", Weight: 15, Moves: []string{"e2e4", "c7c6", "d2d4", "d7d5", "e4e5", "c8f5"}},
	{Name: "french-advance", Weight: 10, Moves: []string{"e2e4", "e7e6", "d2d4", "d7d5", "e4e5", "c7c5", "c2c3", "b8c6"}},
	{Name: "queens-gambit-declined", Weight: 30, Moves: []string{"d2d4", "d7d5", "c2c4", "e7e6", "b1c3", "g8f6", "c1g5", "f8e7"}},
	{Name: "london-system", Weight: 15, Moves: []string{"d2d4", "d7d5", "c1f4", "g8f6", "e2e3", "e7e6", "g1f3", "c7c5"}},
	{Name: "grunfeld-exchange", Weight: 20, Moves: []string{"d2d4", "g8f6", "c2c4", "g7g6", "b1c3", "d7d5", "c4d5", "f6d5", "e2e4", "d5c3", "b2c3", "f8g7"}},
	{Name: "kings-indian-classical", Weight: 25, Moves: []string{"d2d4", "g8f6", "c2c4", "g7g6", "b1c3", "f8g7", "e2e4", "d7d6", "g1f3", "e8g8", "f1e2", "e7e5"}},
	{Name: "english-slav", Weight: 15, Moves: []string{"c2c4", "c7c6", "g1f3", "d7d5", "d2d4", "g8f6"}},
	{Name: "from-gambit", Weight: 5, Moves: []string{"f2f4", "e7e5", "f4e5", "d7d6", "e5d6", "f8d6", "g1f3", "g7g5"}},
}
