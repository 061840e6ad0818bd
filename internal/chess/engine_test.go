package chess

import (
	"context"
	"errors"
	"testing"

	"github.com/park285/cheese-chess/internal/chess/openingbook"
	"github.com/park285/cheese-chess/internal/chess/source"
	"github.com/park285/cheese-chess/internal/game"
	"github.com/park285/cheese-chess/internal/search"
)

// Out of every book: a quiet middlegame position.
const midgameFEN = "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"

func fixed(name, move string, err error) source.Func {
	return source.Func{Label: name, Fn: func(context.Context, string) (string, error) { return move, err }}
}

type leveledSource struct {
	got  source.Strength
	move string
}

func (l *leveledSource) Name() string { return "leveled" }
func (l *leveledSource) ProposeMove(context.Context, string) (string, error) {
	return "", errors.New("plain call not expected")
}
func (l *leveledSource) ProposeMoveAt(_ context.Context, _ string, st source.Strength) (string, error) {
	l.got = st
	return l.move, nil
}

func mustGame(t *testing.T, fen string) *game.Game {
	t.Helper()
	g, err := game.FromFEN(fen)
	if err != nil {
		t.Fatalf("FromFEN: %v", err)
	}
	return g
}

func TestChooseLowLevelUsesSearch(t *testing.T) {
	e := NewEngine(WithSeed(1))
	c, err := e.Choose(context.Background(), game.New(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if c.Source != SourceSearch {
		t.Fatalf("source = %s, want search", c.Source)
	}
	if !game.New().IsLegalUCI(c.Move) {
		t.Fatalf("illegal move %s", c.Move)
	}
}

func TestChooseUsesBookInOpening(t *testing.T) {
	e := NewEngine(WithSeed(2), WithSources(fixed("never", "", errors.New("should not be asked"))))
	g := game.New()
	c, err := e.Choose(context.Background(), g, 16)
	if err != nil {
		t.Fatal(err)
	}
	if c.Source != SourceBook {
		t.Fatalf("source = %s, want book", c.Source)
	}
	switch c.Move {
	case "e2e4", "d2d4", "c2c4", "f2f4":
	default:
		t.Fatalf("book move %s not a first move of any line", c.Move)
	}
	if len(c.Candidates) == 0 {
		t.Fatal("book choice should report its candidates")
	}
}

func TestChooseCustomBookFollowsHistory(t *testing.T) {
	book, err := openingbook.NewBook([]openingbook.Line{{Name: "only", Weight: 1, Moves: []string{"e2e4", "e7e5", "g1f3"}}})
	if err != nil {
		t.Fatal(err)
	}
	e := NewEngine(WithBook(book), WithSeed(3))
	g := game.New()
	for _, mv := range []string{"e2e4", "e7e5"} {
		if _, err := g.MakeUCIMove(mv); err != nil {
			t.Fatal(err)
		}
	}
	c, err := e.Choose(context.Background(), g, 10)
	if err != nil {
		t.Fatal(err)
	}
	if c.Move != "g1f3" || c.Source != SourceBook {
		t.Fatalf("choice = %+v", c)
	}
}

func TestChooseFallsThroughSources(t *testing.T) {
	g := mustGame(t, midgameFEN)
	e := NewEngine(WithSeed(4), WithSources(
		fixed("declines", "", source.ErrNotApplicable),
		fixed("broken", "", errors.New("timeout")),
		fixed("liar", "e1e8", nil),
		fixed("good", "E2A6", nil),
		fixed("unused", "a2a3", nil),
	))
	c, err := e.Choose(context.Background(), g, 16)
	if err != nil {
		t.Fatal(err)
	}
	if c.Source != "good" || c.Move != "e2a6" {
		t.Fatalf("choice = %+v, want good/e2a6", c)
	}
	if got := e.Sources(); len(got) != 5 || got[0] != "declines" {
		t.Fatalf("Sources = %v", got)
	}
}

func TestChooseFallsBackToSearch(t *testing.T) {
	g := mustGame(t, midgameFEN)
	e := NewEngine(WithSeed(5), WithSources(fixed("declines", "", source.ErrNotApplicable)))
	c, err := e.Choose(context.Background(), g, 13)
	if err != nil {
		t.Fatal(err)
	}
	if c.Source != SourceSearch || c.Nodes == 0 {
		t.Fatalf("choice = %+v", c)
	}
}

func TestRemoteSourcesSkippedBelowThreshold(t *testing.T) {
	g := mustGame(t, midgameFEN)
	e := NewEngine(WithSeed(6), WithSources(fixed("remote", "a2a3", nil)))
	c, err := e.Choose(context.Background(), g, remoteLevel-1)
	if err != nil {
		t.Fatal(err)
	}
	if c.Source != SourceSearch {
		t.Fatalf("source = %s, want search below level %d", c.Source, remoteLevel)
	}
}

func TestLeveledSourceGetsStrength(t *testing.T) {
	g := mustGame(t, midgameFEN)
	lv := &leveledSource{move: "a2a3"}
	e := NewEngine(WithSources(lv))
	c, err := e.Choose(context.Background(), g, 15)
	if err != nil {
		t.Fatal(err)
	}
	if c.Source != "leveled" {
		t.Fatalf("source = %s", c.Source)
	}
	want := PresetForLevel(15)
	if lv.got.Level != 15 || lv.got.SkillLevel != want.SkillLevel || lv.got.Elo != want.Elo || lv.got.Depth != want.DepthCap {
		t.Fatalf("strength = %+v", lv.got)
	}
}

func TestCancelledContextSkipsSources(t *testing.T) {
	g := mustGame(t, midgameFEN)
	e := NewEngine(WithSeed(7), WithSources(fixed("remote", "a2a3", nil)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c, err := e.Choose(ctx, g, 16)
	if err != nil {
		t.Fatal(err)
	}
	if c.Source != SourceSearch {
		t.Fatalf("source = %s, want search", c.Source)
	}
}

func TestHintFindsMate(t *testing.T) {
	g := mustGame(t, "r1bqkb1r/pppp1ppp/2n2n2/4p2Q/2B1P3/8/PPPP1PPP/RNB1K1NR w KQkq - 4 4")
	e := NewEngine(WithSeed(8))
	before := g.FEN()
	c, err := e.Hint(context.Background(), g)
	if err != nil {
		t.Fatal(err)
	}
	if c.Move != "h5f7" || c.Score != search.MateScore-1 {
		t.Fatalf("hint = %+v", c)
	}
	if g.FEN() != before {
		t.Fatal("Hint modified the game")
	}
}

func TestChooseOnFinishedGame(t *testing.T) {
	g := mustGame(t, "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	if _, err := NewEngine().Choose(context.Background(), g, 10); !errors.Is(err, game.ErrGameOver) {
		t.Fatalf("err = %v, want ErrGameOver", err)
	}
}

func TestSameSeedSameChoice(t *testing.T) {
	a, err := NewEngine(WithSeed(42)).Choose(context.Background(), game.New(), 8)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewEngine(WithSeed(42)).Choose(context.Background(), game.New(), 8)
	if err != nil {
		t.Fatal(err)
	}
	if a.Move != b.Move {
		t.Fatalf("%s != %s", a.Move, b.Move)
	}
}

func TestOpening(t *testing.T) {
	g := game.New()
	for _, mv := range []string{"e2e4", "c7c5"} {
		if _, err := g.MakeUCIMove(mv); err != nil {
			t.Fatal(err)
		}
	}
	o, ok := NewEngine().Opening(g)
	if !ok || o.Code == "" {
		t.Fatalf("Opening = %+v %v", o, ok)
	}
	if _, ok := NewEngine().Opening(mustGame(t, midgameFEN)); ok {
		t.Fatal("custom start position has no opening name")
	}
}
