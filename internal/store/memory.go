package store

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Saves is the save-slot API shared by the Redis and in-memory stores.
type Saves interface {
	Save(ctx context.Context, sg *SavedGame) (string, error)
	Load(ctx context.Context, id string) (*SavedGame, error)
	List(ctx context.Context, limit int) ([]*SavedGame, error)
	Delete(ctx context.Context, id string) error
}

var (
	_ Saves = (*Store)(nil)
	_ Saves = (*MemoryStore)(nil)
)

// MemoryStore is a development-only Saves used when no Redis is configured.
// Slots live for the life of the process.
type MemoryStore struct {
	mu    sync.RWMutex
	slots map[string]*SavedGame
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{slots: make(map[string]*SavedGame), now: time.Now}
}

func (m *MemoryStore) Save(_ context.Context, sg *SavedGame) (string, error) {
	if sg == nil {
		return "", errors.New("nil saved game")
	}
	if strings.TrimSpace(sg.ID) == "" {
		sg.ID = uuid.NewString()
	}
	sg.SavedAt = m.now().UTC()

	m.mu.Lock()
	m.slots[sg.ID] = cloneSave(sg)
	m.mu.Unlock()
	return sg.ID, nil
}

func (m *MemoryStore) Load(_ context.Context, id string) (*SavedGame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sg, ok := m.slots[strings.TrimSpace(id)]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneSave(sg), nil
}

func (m *MemoryStore) List(_ context.Context, limit int) ([]*SavedGame, error) {
	if limit <= 0 {
		limit = defaultList
	}
	m.mu.RLock()
	out := make([]*SavedGame, 0, len(m.slots))
	for _, sg := range m.slots {
		out = append(out, cloneSave(sg))
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].SavedAt.Equal(out[j].SavedAt) {
			return out[i].SavedAt.After(out[j].SavedAt)
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id = strings.TrimSpace(id)
	if _, ok := m.slots[id]; !ok {
		return ErrNotFound
	}
	delete(m.slots, id)
	return nil
}

func cloneSave(sg *SavedGame) *SavedGame {
	c := *sg
	c.Moves = append([]string(nil), sg.Moves...)
	return &c
}
