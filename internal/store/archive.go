package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/park285/cheese-chess/internal/game"
	"github.com/park285/cheese-chess/internal/rules"
)

const schemaSQL = `CREATE TABLE IF NOT EXISTS chess_games (
    game_id      TEXT PRIMARY KEY,
    player_color TEXT NOT NULL,
    level        INTEGER NOT NULL,
    start_fen    TEXT NOT NULL,
    final_fen    TEXT NOT NULL,
    result       TEXT NOT NULL,
    termination  TEXT NOT NULL,
    opening      TEXT NOT NULL DEFAULT '',
    moves_uci    JSONB NOT NULL,
    moves_san    JSONB NOT NULL,
    pgn          TEXT NOT NULL,
    started_at   TIMESTAMPTZ NOT NULL,
    ended_at     TIMESTAMPTZ NOT NULL,
    duration_ms  BIGINT NOT NULL
)`

// FinishedGame is one archived game against the computer.
type FinishedGame struct {
	ID          string
	PlayerColor string
	Level       int
	StartFEN    string
	FinalFEN    string
	Result      string // white | black | draw | "" (unfinished)
	Termination string
	Opening     string
	MovesUCI    []string
	MovesSAN    []string
	StartedAt   time.Time
	EndedAt     time.Time
}

// FinishedFromGame collects what the archive needs from g. An unfinished game
// is recorded as abandoned.
func FinishedFromGame(id string, g *game.Game, player rules.Color, level int, startedAt time.Time) *FinishedGame {
	if strings.TrimSpace(id) == "" {
		id = uuid.NewString()
	}
	fg := &FinishedGame{
		ID:          id,
		PlayerColor: player.String(),
		Level:       level,
		StartFEN:    g.StartFEN(),
		FinalFEN:    g.FEN(),
		MovesUCI:    g.MoveHistoryUCI(),
		MovesSAN:    g.MoveHistory(),
		StartedAt:   startedAt,
		EndedAt:     time.Now(),
	}
	switch g.Status() {
	case game.StatusCheckmate:
		w, _ := g.Winner()
		fg.Result = w.String()
		fg.Termination = "checkmate"
	case game.StatusStalemate:
		fg.Result = "draw"
		fg.Termination = "stalemate"
	default:
		fg.Termination = "abandoned"
	}
	return fg
}

// Archive writes finished games to Postgres.
type Archive struct {
	db *sql.DB
}

func NewArchive(databaseURL string) (*Archive, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Archive{db: db}, nil
}

func (a *Archive) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

// SaveResult upserts fg keyed by its ID.
func (a *Archive) SaveResult(ctx context.Context, fg *FinishedGame) error {
	if a == nil || a.db == nil || fg == nil {
		return nil
	}
	movesUCI, _ := json.Marshal(nonNil(fg.MovesUCI))
	movesSAN, _ := json.Marshal(nonNil(fg.MovesSAN))
	duration := fg.EndedAt.Sub(fg.StartedAt).Milliseconds()
	if duration < 0 {
		duration = 0
	}

	q := `INSERT INTO chess_games (
        game_id, player_color, level, start_fen, final_fen,
        result, termination, opening, moves_uci, moves_san, pgn,
        started_at, ended_at, duration_ms
      ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14
      ) ON CONFLICT (game_id) DO UPDATE SET
        final_fen=EXCLUDED.final_fen,
        result=EXCLUDED.result,
        termination=EXCLUDED.termination,
        opening=EXCLUDED.opening,
        moves_uci=EXCLUDED.moves_uci,
        moves_san=EXCLUDED.moves_san,
        pgn=EXCLUDED.pgn,
        ended_at=EXCLUDED.ended_at,
        duration_ms=EXCLUDED.duration_ms`

	_, err := a.db.ExecContext(ctx, q,
		fg.ID, fg.PlayerColor, fg.Level, fg.StartFEN, fg.FinalFEN,
		fg.Result, fg.Termination, fg.Opening, string(movesUCI), string(movesSAN), BuildPGN(fg),
		fg.StartedAt, fg.EndedAt, duration,
	)
	return err
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func mapResultToPGN(result string) string {
	switch strings.ToLower(strings.TrimSpace(result)) {
	case "white":
		return "1-0"
	case "black":
		return "0-1"
	case "draw":
		return "1/2-1/2"
	default:
		return "*"
	}
}

// BuildPGN renders fg as PGN. Games from a custom position carry SetUp/FEN
// tags and number moves from that position.
func BuildPGN(fg *FinishedGame) string {
	if fg == nil {
		return ""
	}
	pgnResult := mapResultToPGN(fg.Result)
	date := fg.EndedAt
	if date.IsZero() {
		date = time.Now()
	}
	white, black := "Player", fmt.Sprintf("Computer (level %d)", fg.Level)
	if fg.PlayerColor == rules.Black.String() {
		white, black = black, white
	}

	var b strings.Builder
	b.WriteString("[Event \"Casual game\"]\n")
	b.WriteString("[Site \"cheese-chess\"]\n")
	fmt.Fprintf(&b, "[Date \"%04d.%02d.%02d\"]\n", date.Year(), int(date.Month()), date.Day())
	fmt.Fprintf(&b, "[White \"%s\"]\n", sanitizePGN(white))
	fmt.Fprintf(&b, "[Black \"%s\"]\n", sanitizePGN(black))
	if strings.TrimSpace(fg.Opening) != "" {
		fmt.Fprintf(&b, "[Opening \"%s\"]\n", sanitizePGN(fg.Opening))
	}
	startPly := 0
	if fg.StartFEN != "" && fg.StartFEN != rules.StartFEN {
		b.WriteString("[SetUp \"1\"]\n")
		fmt.Fprintf(&b, "[FEN \"%s\"]\n", fg.StartFEN)
		if _, fullMove, err := rules.ParseFEN(fg.StartFEN); err == nil {
			startPly = (fullMove - 1) * 2
			if f := strings.Fields(fg.StartFEN); len(f) > 1 && f[1] == "b" {
				startPly++
			}
		}
	}
	if strings.TrimSpace(fg.Termination) != "" {
		fmt.Fprintf(&b, "[Termination \"%s\"]\n", sanitizePGN(fg.Termination))
	}
	fmt.Fprintf(&b, "[Result \"%s\"]\n\n", pgnResult)

	for i, san := range fg.MovesSAN {
		ply := startPly + i
		switch {
		case ply%2 == 0:
			fmt.Fprintf(&b, "%d. ", ply/2+1)
		case i == 0:
			fmt.Fprintf(&b, "%d... ", ply/2+1)
		}
		b.WriteString(strings.TrimSpace(san))
		b.WriteString(" ")
	}
	b.WriteString(pgnResult)
	return b.String()
}

func sanitizePGN(s string) string {
	s = strings.ReplaceAll(s, "\\", " ")
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.TrimSpace(s)
}
