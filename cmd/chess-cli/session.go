package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/park285/cheese-chess/internal/adapter/chesspresenter"
	corechess "github.com/park285/cheese-chess/internal/chess"
	"github.com/park285/cheese-chess/internal/game"
	"github.com/park285/cheese-chess/internal/render"
	"github.com/park285/cheese-chess/internal/rules"
	"github.com/park285/cheese-chess/internal/store"
	"github.com/park285/cheese-chess/pkg/chessdto"
)

// resultArchive records games when they end; *store.Archive in production.
type resultArchive interface {
	SaveResult(ctx context.Context, fg *store.FinishedGame) error
}

// session is one terminal game against the computer.
type session struct {
	engine  *corechess.Engine
	saves   store.Saves
	archive resultArchive
	f       *chesspresenter.Formatter
	out     *chesspresenter.Presenter
	logger  *zap.Logger

	squarePx      int
	sourceTimeout time.Duration
	listLimit     int

	g         *game.Game
	player    rules.Color
	level     int
	saveID    string
	gameID    string
	startedAt time.Time
	archived  bool
}

func (s *session) preset() string {
	return corechess.PresetForLevel(s.level).Name
}

func (s *session) state() *chessdto.SessionState {
	st := chessdto.StateFromGame(s.g, s.player, s.level, s.preset())
	st.SaveID = s.saveID
	if op, ok := s.engine.Opening(s.g); ok {
		st.Opening = op.Title
		st.OpeningECO = op.Code
	}
	return st
}

// start resets to a fresh game from fen ("" means the standard position) and
// lets the computer open if it has the first move.
func (s *session) start(ctx context.Context, fen string) error {
	g := game.New()
	if strings.TrimSpace(fen) != "" {
		var err error
		if g, err = game.FromFEN(fen); err != nil {
			return err
		}
	}
	s.finish(ctx)
	s.g = g
	s.saveID = ""
	s.gameID = ""
	s.startedAt = time.Now()
	s.archived = false
	s.logger.Info("game_started", zap.String("fen", g.FEN()), zap.String("player", s.player.String()), zap.Int("level", s.level))

	summary := &chessdto.MoveSummary{}
	if err := s.reply(ctx, summary); err != nil {
		return err
	}
	s.show(s.f.Move(summary))
	return nil
}

// handle runs one command line. It reports false when the user quits.
func (s *session) handle(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return true
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	var err error
	switch cmd {
	case "help", "?":
		s.say(s.f.Help())
	case "quit", "exit", "q":
		s.finish(ctx)
		s.say(s.f.Bye())
		return false
	case "new":
		err = s.start(ctx, strings.Join(args, " "))
	case "color":
		err = s.setColor(ctx, args)
	case "level":
		err = s.setLevel(args)
	case "undo":
		err = s.undo(ctx)
	case "hint":
		err = s.hint(ctx)
	case "fen":
		s.say(s.g.FEN())
	case "pgn":
		s.say(s.pgn())
	case "board", "status":
		s.show("")
	case "png":
		err = s.png(ctx, args)
	case "save":
		err = s.save(ctx, strings.Join(args, " "))
	case "load":
		err = s.load(ctx, args)
	case "list":
		err = s.list(ctx)
	case "move":
		if len(args) != 1 {
			s.say(s.f.Unknown(line))
			break
		}
		err = s.play(ctx, args[0])
	default:
		if _, _, perr := rules.ParseUCI(cmd); perr == nil {
			err = s.play(ctx, cmd)
			break
		}
		s.say(s.f.Unknown(cmd))
	}
	if err != nil {
		s.logger.Debug("command_failed", zap.String("cmd", cmd), zap.Error(err))
		s.say(s.f.Error(err))
	}
	return true
}

func (s *session) play(ctx context.Context, mv string) error {
	if s.g.GameOver() {
		return game.ErrGameOver
	}
	if s.g.Turn() != s.player {
		return fmt.Errorf("it is not your turn")
	}
	if _, err := s.g.MakeUCIMove(mv); err != nil {
		if errors.Is(err, game.ErrIllegalMove) || errors.Is(err, rules.ErrInvalidUCI) {
			s.say(s.f.Illegal(mv))
			return nil
		}
		return err
	}
	summary := &chessdto.MoveSummary{PlayerUCI: s.g.LastMoveUCI(), PlayerSAN: last(s.g.MoveHistory())}
	if err := s.reply(ctx, summary); err != nil {
		return err
	}
	s.show(s.f.Move(summary))
	return nil
}

// reply lets the computer move when it is its turn, and archives a game that
// has just ended.
func (s *session) reply(ctx context.Context, summary *chessdto.MoveSummary) error {
	if !s.g.GameOver() && s.g.Turn() != s.player {
		cctx, cancel := context.WithTimeout(ctx, s.sourceTimeout)
		choice, err := s.engine.Choose(cctx, s.g, s.level)
		cancel()
		if err != nil {
			return fmt.Errorf("engine: %w", err)
		}
		if _, err := s.g.MakeUCIMove(choice.Move); err != nil {
			return fmt.Errorf("engine move %s: %w", choice.Move, err)
		}
		summary.EngineUCI = choice.Move
		summary.EngineSAN = last(s.g.MoveHistory())
		summary.EngineSource = choice.Source
	}
	summary.Finished = s.g.GameOver()
	summary.State = s.state()
	if summary.Finished {
		s.finish(ctx)
	}
	return nil
}

// undo takes back the player's move and the reply. When that leaves the
// computer to move (it opened the game) it plays again.
func (s *session) undo(ctx context.Context) error {
	n := s.g.UndoPair()
	s.archived = false
	s.say(s.f.Undo(n))
	summary := &chessdto.MoveSummary{}
	if err := s.reply(ctx, summary); err != nil {
		return err
	}
	s.show(s.f.Move(summary))
	return nil
}

func (s *session) hint(ctx context.Context) error {
	started := time.Now()
	cctx, cancel := context.WithTimeout(ctx, s.sourceTimeout)
	defer cancel()
	c, err := s.engine.Hint(cctx, s.g)
	if err != nil {
		return err
	}
	s.say(s.f.Hint(chessdto.SuggestionFromChoice(c, time.Since(started))))
	return nil
}

func (s *session) setLevel(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: level <0-20|name>")
	}
	p, err := corechess.GetPreset(args[0])
	if err != nil {
		return err
	}
	s.level = p.Level
	s.say(s.f.Level(p.Name))
	return nil
}

func (s *session) setColor(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: color <white|black>")
	}
	c, err := rules.ParseColor(args[0])
	if err != nil {
		return err
	}
	s.player = c
	return s.start(ctx, "")
}

func (s *session) png(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: png <file>")
	}
	data, err := render.RenderPNG(ctx, s.g.BoardState(), render.OptionsFor(s.g, s.player, s.squarePx))
	if err != nil {
		return err
	}
	st := s.state()
	st.BoardImage = data
	return s.out.Board(s.f.PNG(args[0]), "", st, args[0])
}

func (s *session) pgn() string {
	fg := store.FinishedFromGame(s.gameID, s.g, s.player, s.level, s.startedAt)
	if !s.g.GameOver() {
		fg.Termination = ""
	}
	if st := s.state(); st.Opening != "" {
		fg.Opening = strings.TrimSpace(st.OpeningECO + " " + st.Opening)
	}
	return store.BuildPGN(fg)
}

func (s *session) save(ctx context.Context, name string) error {
	if s.saves == nil {
		s.say(s.f.SaveUnavailable())
		return nil
	}
	sg := store.Snapshot(s.g, s.player, s.level, name)
	sg.ID = s.saveID
	id, err := s.saves.Save(ctx, sg)
	if err != nil {
		return err
	}
	s.saveID = id
	s.say(s.f.Saved(id))
	return nil
}

func (s *session) load(ctx context.Context, args []string) error {
	if s.saves == nil {
		s.say(s.f.SaveUnavailable())
		return nil
	}
	if len(args) != 1 {
		return fmt.Errorf("usage: load <id>")
	}
	sg, err := s.saves.Load(ctx, args[0])
	if err != nil {
		return err
	}
	g, err := store.Restore(sg)
	if err != nil {
		return err
	}
	player, err := rules.ParseColor(sg.PlayerColor)
	if err != nil {
		return err
	}
	s.finish(ctx)
	s.g, s.player, s.level = g, player, corechess.PresetForLevel(sg.Level).Level
	s.saveID, s.gameID = sg.ID, ""
	s.startedAt, s.archived = time.Now(), g.GameOver()
	s.say(s.f.Loaded(sg.ID, len(sg.Moves)))
	s.show("")
	return nil
}

func (s *session) list(ctx context.Context) error {
	if s.saves == nil {
		s.say(s.f.SaveUnavailable())
		return nil
	}
	saves, err := s.saves.List(ctx, s.listLimit)
	if err != nil {
		return err
	}
	s.say(s.f.Saves(chessdto.SaveSlotsFrom(saves)))
	return nil
}

// finish archives the current game once, if it saw any moves.
func (s *session) finish(ctx context.Context) {
	if s.archive == nil || s.archived || s.g == nil || s.g.Ply() == 0 {
		return
	}
	fg := store.FinishedFromGame(s.gameID, s.g, s.player, s.level, s.startedAt)
	if op, ok := s.engine.Opening(s.g); ok {
		fg.Opening = op.Code + " " + op.Title
	}
	s.gameID = fg.ID
	if err := s.archive.SaveResult(ctx, fg); err != nil {
		s.logger.Warn("archive_failed", zap.String("game_id", fg.ID), zap.Error(err))
		return
	}
	s.archived = true
}

func (s *session) show(message string) {
	st := s.state()
	text := message
	if status := s.f.Status(st); status != "" {
		if text != "" {
			text += "\n"
		}
		text += status
	}
	_ = s.out.Board(text, chesspresenter.BoardText(s.g.BoardState(), s.player == rules.Black), st, "")
}

func (s *session) say(message string) { _ = s.out.Say(message) }

func last(xs []string) string {
	if len(xs) == 0 {
		return ""
	}
	return xs[len(xs)-1]
}
