package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/park285/cheese-chess/internal/game"
	"github.com/park285/cheese-chess/internal/rules"
)

var ErrNotFound = errors.New("saved game not found")

const (
	keyPrefix   = "chess:save:"
	keyIndex    = "chess:saves"
	defaultList = 20
)

// SavedGame is what a save slot holds: enough to replay the game exactly.
type SavedGame struct {
	ID          string    `json:"id"`
	Name        string    `json:"name,omitempty"`
	StartFEN    string    `json:"start_fen"`
	Moves       []string  `json:"moves"`
	PlayerColor string    `json:"player_color"`
	Level       int       `json:"level"`
	FEN         string    `json:"fen"`
	SavedAt     time.Time `json:"saved_at"`
}

// Snapshot captures g for saving. ID is left empty; Save assigns one.
func Snapshot(g *game.Game, player rules.Color, level int, name string) *SavedGame {
	return &SavedGame{
		Name:        strings.TrimSpace(name),
		StartFEN:    g.StartFEN(),
		Moves:       g.MoveHistoryUCI(),
		PlayerColor: player.String(),
		Level:       level,
		FEN:         g.FEN(),
	}
}

// Restore replays the saved moves from the start position.
func Restore(s *SavedGame) (*game.Game, error) {
	if s == nil {
		return nil, ErrNotFound
	}
	var (
		g   *game.Game
		err error
	)
	if s.StartFEN == "" || s.StartFEN == rules.StartFEN {
		g = game.New()
	} else if g, err = game.FromFEN(s.StartFEN); err != nil {
		return nil, fmt.Errorf("restore %s: %w", s.ID, err)
	}
	for i, mv := range s.Moves {
		if _, err := g.MakeUCIMove(mv); err != nil {
			return nil, fmt.Errorf("restore %s: ply %d %q: %w", s.ID, i+1, mv, err)
		}
	}
	return g, nil
}

// Store keeps save slots in Redis. Each slot is a JSON value; a sorted set
// indexes them by save time.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
	now func() time.Time
}

// NewStore wraps rdb. ttl <= 0 keeps saves forever.
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl, now: time.Now}
}

func (s *Store) key(id string) string { return keyPrefix + strings.TrimSpace(id) }

// Save writes the slot and returns its ID. An empty ID gets a fresh uuid; an
// existing ID overwrites that slot.
func (s *Store) Save(ctx context.Context, sg *SavedGame) (string, error) {
	if sg == nil {
		return "", errors.New("nil saved game")
	}
	if strings.TrimSpace(sg.ID) == "" {
		sg.ID = uuid.NewString()
	}
	sg.SavedAt = s.now().UTC()
	raw, err := json.Marshal(sg)
	if err != nil {
		return "", err
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, s.key(sg.ID), raw, s.ttl)
	pipe.ZAdd(ctx, keyIndex, redis.Z{Score: float64(sg.SavedAt.UnixMilli()), Member: sg.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("save game: %w", err)
	}
	return sg.ID, nil
}

func (s *Store) Load(ctx context.Context, id string) (*SavedGame, error) {
	raw, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var sg SavedGame
	if err := json.Unmarshal(raw, &sg); err != nil {
		return nil, fmt.Errorf("decode save %s: %w", id, err)
	}
	return &sg, nil
}

// List returns up to limit saves, newest first. Index entries whose slot has
// expired are pruned on the way.
func (s *Store) List(ctx context.Context, limit int) ([]*SavedGame, error) {
	if limit <= 0 {
		limit = defaultList
	}
	ids, err := s.rdb.ZRevRange(ctx, keyIndex, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]*SavedGame, 0, min(limit, len(ids)))
	var stale []any
	for _, id := range ids {
		if len(out) == limit {
			break
		}
		sg, err := s.Load(ctx, id)
		if errors.Is(err, ErrNotFound) {
			stale = append(stale, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, sg)
	}
	if len(stale) > 0 {
		_ = s.rdb.ZRem(ctx, keyIndex, stale...).Err()
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	pipe := s.rdb.TxPipeline()
	del := pipe.Del(ctx, s.key(id))
	pipe.ZRem(ctx, keyIndex, strings.TrimSpace(id))
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	if del.Val() == 0 {
		return ErrNotFound
	}
	return nil
}
