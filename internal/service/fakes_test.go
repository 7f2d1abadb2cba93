package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/maxviazov/sideline-rotation/internal/model"
	"github.com/maxviazov/sideline-rotation/internal/repository"
)

const base int64 = 1_700_000_000_000

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{t: time.UnixMilli(base)} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(seconds int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Duration(seconds) * time.Second)
}

func (c *fakeClock) advanceMillis(ms int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Duration(ms) * time.Millisecond)
}

// memSnapshots mimics the Postgres store, including optimistic versioning.
type memSnapshots struct {
	mu    sync.Mutex
	items map[string]model.MatchSnapshot
	loads int
}

func newMemSnapshots() *memSnapshots {
	return &memSnapshots{items: map[string]model.MatchSnapshot{}}
}

func (m *memSnapshots) Create(_ context.Context, s model.MatchSnapshot) (model.MatchSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[s.MatchID]; ok {
		return model.MatchSnapshot{}, repository.ErrAlreadyExists
	}
	s.Version = 1
	s.UpdatedAt = time.Now().UTC()
	m.items[s.MatchID] = s.Clone()
	return s, nil
}

func (m *memSnapshots) Load(_ context.Context, id string) (model.MatchSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	s, ok := m.items[id]
	if !ok {
		return model.MatchSnapshot{}, repository.ErrNotFound
	}
	return s.Clone(), nil
}

func (m *memSnapshots) Save(_ context.Context, s model.MatchSnapshot) (model.MatchSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.items[s.MatchID]
	if !ok {
		return model.MatchSnapshot{}, repository.ErrNotFound
	}
	if cur.Version != s.Version {
		return model.MatchSnapshot{}, repository.ErrConflict
	}
	s.Version++
	m.items[s.MatchID] = s.Clone()
	return s, nil
}

func (m *memSnapshots) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

// bump simulates a write from another process.
func (m *memSnapshots) bump(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.items[id]
	s.Version++
	m.items[id] = s
}

type memEvents struct {
	mu    sync.Mutex
	items []model.GameEvent
}

func (m *memEvents) Append(_ context.Context, evs []model.GameEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, evs...)
	return nil
}

func (m *memEvents) MarkUndone(_ context.Context, matchID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].MatchID == matchID && m.items[i].ID == id {
			m.items[i].Undone = true
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memEvents) ListByMatch(_ context.Context, matchID string) ([]model.GameEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.GameEvent
	for _, e := range m.items {
		if e.MatchID == matchID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memEvents) types() []model.EventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.EventType, 0, len(m.items))
	for _, e := range m.items {
		out = append(out, e.Type)
	}
	return out
}

// passTx runs the unit of work inline.
type passTx struct{ calls int }

func (p *passTx) WithinTx(ctx context.Context, fn repository.TxFunc) error {
	p.calls++
	return fn(ctx)
}

type mockEvents struct{ mock.Mock }

func (m *mockEvents) Append(ctx context.Context, evs []model.GameEvent) error {
	args := m.Called(ctx, evs)
	return args.Error(0)
}

func (m *mockEvents) MarkUndone(ctx context.Context, matchID, id string) error {
	args := m.Called(ctx, matchID, id)
	return args.Error(0)
}

func (m *mockEvents) ListByMatch(ctx context.Context, matchID string) ([]model.GameEvent, error) {
	args := m.Called(ctx, matchID)
	evs, _ := args.Get(0).([]model.GameEvent)
	return evs, args.Error(1)
}

var (
	_ repository.SnapshotRepository = (*memSnapshots)(nil)
	_ repository.EventRepository    = (*memEvents)(nil)
	_ repository.EventRepository    = (*mockEvents)(nil)
	_ repository.TxManager          = (*passTx)(nil)
)
