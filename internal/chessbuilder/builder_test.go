package chessbuilder

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/park285/cheese-chess/internal/chess/openingbook"
	"github.com/park285/cheese-chess/internal/config"
	"github.com/park285/cheese-chess/internal/game"
	"github.com/park285/cheese-chess/internal/rules"
	"github.com/park285/cheese-chess/internal/store"
)

func baseConfig() *config.AppConfig {
	return &config.AppConfig{
		DefaultLevel:       10,
		PlayerColor:        "white",
		SourceTimeoutMs:    1000,
		CloudEvalTimeoutMs: 1000,
	}
}

func TestParseRedisURL(t *testing.T) {
	tests := []struct {
		raw    string
		addr   string
		db     int
		pass   string
		tls    bool
		hasErr bool
	}{
		{raw: "redis://localhost", addr: "localhost:6379"},
		{raw: "redis://:secret@cache:6380/2", addr: "cache:6380", db: 2, pass: "secret"},
		{raw: "rediss://cache.example.com/0", addr: "cache.example.com:6379", tls: true},
		{raw: "redis://[::1]:7000", addr: "[::1]:7000"},
		{raw: "http://localhost", hasErr: true},
		{raw: "redis://localhost/x", hasErr: true},
		{raw: "redis:///0", hasErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			opts, err := parseRedisURL(tt.raw)
			if tt.hasErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if opts.Addr != tt.addr || opts.DB != tt.db || opts.Password != tt.pass || (opts.TLSConfig != nil) != tt.tls {
				t.Fatalf("opts = %+v", opts)
			}
		})
	}
}

func TestNewWithoutServices(t *testing.T) {
	t.Setenv("CHESS_POLYGLOT_BOOK_PATH", "")
	ctx := context.Background()
	d, err := New(ctx, baseConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close(ctx)

	if d.Engine == nil || d.Archive != nil {
		t.Fatalf("deps = %+v", d)
	}
	if _, ok := d.Store.(*store.MemoryStore); !ok {
		t.Fatalf("store = %T, want in-memory", d.Store)
	}
	if n := len(d.Engine.Sources()); n != 0 {
		t.Fatalf("sources = %d", n)
	}
	c, err := d.Engine.Choose(ctx, game.New(), 5)
	if err != nil || c.Move == "" {
		t.Fatalf("choose = %+v %v", c, err)
	}
}

func TestNewWiresRedisAndRemoteSources(t *testing.T) {
	t.Setenv("CHESS_POLYGLOT_BOOK_PATH", "")
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()

	cfg := baseConfig()
	cfg.RedisURL = "redis://" + mr.Addr() + "/0"
	cfg.CloudEvalURL = "http://127.0.0.1:1"
	cfg.WSEngineURL = "ws://127.0.0.1:1/engine"

	ctx := context.Background()
	d, err := New(ctx, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close(ctx)

	names := d.Engine.Sources()
	if len(names) != 2 || names[0] != "ws-engine" || names[1] != "cloud-eval" {
		t.Fatalf("sources = %v", names)
	}

	if _, ok := d.Store.(*store.Store); !ok {
		t.Fatalf("store = %T, want redis", d.Store)
	}
	g := game.New()
	id, err := d.Store.Save(ctx, store.Snapshot(g, rules.White, 10, "smoke"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.Store.Load(ctx, id); err != nil {
		t.Fatal(err)
	}
}

func TestNewMergesConfiguredBookLines(t *testing.T) {
	t.Setenv("CHESS_POLYGLOT_BOOK_PATH", "")
	cfg := baseConfig()
	cfg.BookLines = []openingbook.Line{{Name: "bongcloud", Weight: 1, Moves: []string{"e2e4", "e7e5", "e1e2"}}}

	ctx := context.Background()
	d, err := New(ctx, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close(ctx)

	g := game.New()
	for _, mv := range []string{"e2e4", "e7e5"} {
		if _, err := g.MakeUCIMove(mv); err != nil {
			t.Fatal(err)
		}
	}
	book, _ := buildBook(cfg)
	found := false
	for _, r := range book.Lookup(g.MoveHistoryUCI()) {
		if r.Move == "e1e2" {
			found = true
		}
	}
	if !found {
		t.Fatal("configured line missing from the merged book")
	}
}

func TestNewFailures(t *testing.T) {
	t.Setenv("CHESS_POLYGLOT_BOOK_PATH", "")
	ctx := context.Background()
	if _, err := New(ctx, nil, nil); err == nil {
		t.Fatal("nil config should fail")
	}

	cfg := baseConfig()
	cfg.StockfishPath = "/definitely/not/stockfish"
	if _, err := New(ctx, cfg, nil); err == nil {
		t.Fatal("missing engine binary should fail")
	}

	cfg = baseConfig()
	cfg.RedisURL = "redis://127.0.0.1:1/0"
	if _, err := New(ctx, cfg, nil); err == nil {
		t.Fatal("unreachable redis should fail")
	}

	cfg = baseConfig()
	cfg.PolyglotBookPath = "/definitely/not/book.bin"
	if _, err := New(ctx, cfg, nil); err == nil {
		t.Fatal("missing polyglot book should fail")
	}
}
