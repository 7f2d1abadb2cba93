// Package rotation holds the substitution priority order: the front is the
// next player to sit, the back is the player most recently subbed in.
package rotation

import (
	"errors"
	"fmt"

	"github.com/maxviazov/sideline-rotation/internal/formation"
	"github.com/maxviazov/sideline-rotation/internal/model"
)

var (
	ErrNotInQueue = errors.New("player not in rotation queue")
	ErrDuplicate  = errors.New("player already in rotation queue")
)

// Queue is an ordered list of player ids. The zero value is an empty queue.
type Queue struct {
	ids []string
}

// FromSlice builds a queue from persisted ids, rejecting duplicates.
func FromSlice(ids []string) (Queue, error) {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return Queue{}, fmt.Errorf("%w: %s", ErrDuplicate, id)
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return Queue{ids: out}, nil
}

// Initialize seeds the queue: on-field players in slot order, then everyone
// else in roster order. Goalie and inactive players are left out.
func Initialize(cfg model.TeamConfig, players []model.Player, f model.Formation) Queue {
	inactive := make(map[string]bool, len(players))
	for _, p := range players {
		inactive[p.ID] = p.Stats.IsInactive
	}
	goalie := f.Goalie()
	seen := map[string]struct{}{}
	ids := make([]string, 0, len(players))
	add := func(id string) {
		if id == "" || id == goalie || inactive[id] {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, pos := range formation.FieldPositions(cfg) {
		add(f.Positions[pos])
	}
	for _, p := range players {
		add(p.ID)
	}
	return Queue{ids: ids}
}

// Next peeks the front entry; empty when the queue is empty.
func (q Queue) Next() string {
	if len(q.ids) == 0 {
		return ""
	}
	return q.ids[0]
}

func (q Queue) Len() int { return len(q.ids) }

func (q Queue) IndexOf(id string) int {
	for i, v := range q.ids {
		if v == id {
			return i
		}
	}
	return -1
}

func (q Queue) Contains(id string) bool { return q.IndexOf(id) >= 0 }

// ToArray returns a copy of the ids for persistence.
func (q Queue) ToArray() []string {
	return append([]string{}, q.ids...)
}

// Clone returns an independent copy.
func (q Queue) Clone() Queue { return Queue{ids: q.ToArray()} }

// Rotate moves id to the back. A missing id is a desync and is reported.
func (q *Queue) Rotate(id string) error {
	if _, err := q.Remove(id); err != nil {
		return err
	}
	q.ids = append(q.ids, id)
	return nil
}

// Remove deletes id and returns the index it held.
func (q *Queue) Remove(id string) (int, error) {
	idx := q.IndexOf(id)
	if idx < 0 {
		return -1, fmt.Errorf("%w: %s", ErrNotInQueue, id)
	}
	q.ids = append(q.ids[:idx:idx], q.ids[idx+1:]...)
	return idx, nil
}

// ReinsertPreservingOrder puts id back at the index it held before removal,
// clamped to the current length.
func (q *Queue) ReinsertPreservingOrder(id string, indexHint int) error {
	if q.Contains(id) {
		return fmt.Errorf("%w: %s", ErrDuplicate, id)
	}
	if indexHint < 0 || indexHint > len(q.ids) {
		indexHint = len(q.ids)
	}
	out := make([]string, 0, len(q.ids)+1)
	out = append(out, q.ids[:indexHint]...)
	out = append(out, id)
	out = append(out, q.ids[indexHint:]...)
	q.ids = out
	return nil
}

// Replace puts newID where oldID was.
func (q *Queue) Replace(oldID, newID string) error {
	idx := q.IndexOf(oldID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrNotInQueue, oldID)
	}
	if oldID != newID && q.Contains(newID) {
		return fmt.Errorf("%w: %s", ErrDuplicate, newID)
	}
	q.ids[idx] = newID
	return nil
}
