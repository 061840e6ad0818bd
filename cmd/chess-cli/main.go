package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/park285/cheese-chess/internal/adapter/chesspresenter"
	"github.com/park285/cheese-chess/internal/chessbuilder"
	appcfg "github.com/park285/cheese-chess/internal/config"
	"github.com/park285/cheese-chess/internal/msgcat"
	"github.com/park285/cheese-chess/internal/obslog"
	"github.com/park285/cheese-chess/internal/rules"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := chessbuilder.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("chess init error: %v", err)
	}
	defer deps.Close(context.Background())

	cat, err := msgcat.New(os.Getenv("CHESS_MESSAGES_DIR"))
	if err != nil {
		log.Fatalf("message catalog error: %v", err)
	}

	player, _ := rules.ParseColor(cfg.PlayerColor)
	s := &session{
		engine:        deps.Engine,
		saves:         deps.Store,
		f:             chesspresenter.NewFormatter(cat),
		out:           chesspresenter.NewPresenter(os.Stdout, nil),
		logger:        logger.Named("cli"),
		squarePx:      cfg.RenderSquarePx,
		sourceTimeout: time.Duration(cfg.SourceTimeoutMs) * time.Millisecond,
		listLimit:     cfg.SaveListLimit,
		player:        player,
		level:         cfg.DefaultLevel,
	}
	if deps.Archive != nil {
		s.archive = deps.Archive
	}
	if err := s.start(ctx, ""); err != nil {
		log.Fatalf("start game: %v", err)
	}
	s.say(s.f.Banner(s.state()))

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	for {
		fmt.Print(s.f.Prompt(s.state()))
		select {
		case <-ctx.Done():
			s.finish(context.Background())
			fmt.Println()
			return
		case line, ok := <-lines:
			if !ok {
				s.finish(ctx)
				return
			}
			if !s.handle(ctx, line) {
				logger.Info("session_closed", zap.Int("ply", s.g.Ply()))
				return
			}
		}
	}
}
