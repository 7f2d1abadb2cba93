package repository

import (
	"context"

	"github.com/maxviazov/sideline-rotation/internal/model"
)

// Pinger represents a minimal readiness probe capability.
// I use it to decouple health checks from storage implementation details.
type Pinger interface {
	Ping(ctx context.Context) error
}

// TxFunc is the unit of work executed within a transaction boundary.
type TxFunc func(ctx context.Context) error

// TxManager abstracts transactional execution for repositories that support it.
// A snapshot save and the events it produced always commit together.
type TxManager interface {
	WithinTx(ctx context.Context, fn TxFunc) error
}

// SnapshotRepository persists the full engine state of a match as one document.
// Save is optimistic: it succeeds only when s.Version matches the stored version
// and returns the snapshot with the bumped version; a stale version yields ErrConflict.
type SnapshotRepository interface {
	Create(ctx context.Context, s model.MatchSnapshot) (model.MatchSnapshot, error)
	Load(ctx context.Context, matchID string) (model.MatchSnapshot, error)
	Save(ctx context.Context, s model.MatchSnapshot) (model.MatchSnapshot, error)
	Delete(ctx context.Context, matchID string) error
}

// EventRepository stores the append-only game event log.
type EventRepository interface {
	Append(ctx context.Context, events []model.GameEvent) error
	MarkUndone(ctx context.Context, matchID, eventID string) error
	ListByMatch(ctx context.Context, matchID string) ([]model.GameEvent, error)
}
