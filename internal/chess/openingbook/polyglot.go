package openingbook

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	chesslib "github.com/corentings/chess/v2"
)

const polyglotEnv = "CHESS_POLYGLOT_BOOK_PATH"

// Polyglot wraps a Polyglot .bin book keyed by position hash.
type Polyglot struct {
	book *chesslib.PolyglotBook
}

func LoadPolyglot(path string) (*Polyglot, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("polyglot book path required")
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open polyglot book %q: %w", path, err)
	}
	defer file.Close()

	p, err := LoadPolyglotReader(file)
	if err != nil {
		return nil, fmt.Errorf("load polyglot book %q: %w", path, err)
	}
	return p, nil
}

func LoadPolyglotReader(r io.Reader) (*Polyglot, error) {
	book, err := chesslib.LoadFromReader(r)
	if err != nil {
		return nil, err
	}
	return &Polyglot{book: book}, nil
}

// Lookup returns the book moves for fen that are legal in that position,
// heaviest first.
func (p *Polyglot) Lookup(fen string) ([]Result, error) {
	if p == nil || p.book == nil {
		return nil, nil
	}
	hashStr, err := chesslib.NewZobristHasher().HashPosition(fen)
	if err != nil {
		return nil, fmt.Errorf("compute polyglot hash: %w", err)
	}
	entries := p.book.FindMoves(chesslib.ZobristHashToUint64(hashStr))
	if len(entries) == 0 {
		return nil, nil
	}

	results := make([]Result, 0, len(entries))
	for _, entry := range entries {
		move := chesslib.DecodeMove(entry.Move).ToMove()
		uciMove := move.String()
		verify, err := buildGameFromPosition(fen, nil)
		if err != nil {
			return nil, err
		}
		if err := verify.PushNotationMove(uciMove, chesslib.UCINotation{}, nil); err != nil {
			continue
		}
		results = append(results, Result{Move: uciMove, Weight: entry.Weight})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Weight > results[j].Weight })
	return results, nil
}

// ResolveBookPath picks the Polyglot book from the environment, then from a
// few conventional locations. An empty path with nil error means no book.
func ResolveBookPath() (string, error) {
	if envPath := os.Getenv(polyglotEnv); envPath != "" {
		if exists(envPath) {
			return envPath, nil
		}
		return "", fmt.Errorf("env %s points to missing file: %s", polyglotEnv, envPath)
	}
	for _, candidate := range defaultBookPaths() {
		if exists(candidate) {
			return candidate, nil
		}
	}
	return "", nil
}

func defaultBookPaths() []string {
	return []string{
		filepath.Join("resources", "opening", "book.bin"),
		filepath.Join("resources", "opening", "Cerebellum3Merge.bin"),
	}
}

func exists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
