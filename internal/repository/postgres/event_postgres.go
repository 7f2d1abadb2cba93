package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maxviazov/sideline-rotation/internal/model"
	"github.com/maxviazov/sideline-rotation/internal/repository"
)

type eventRepository struct{ pool *pgxpool.Pool }

func NewEventRepository(pool *pgxpool.Pool) repository.EventRepository {
	return &eventRepository{pool: pool}
}

const insertEventSQL = `INSERT INTO match_events
	(id, match_id, seq, type, ts, match_time, period, data, undone)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9)`

// Append writes all events in one batch round trip.
func (r *eventRepository) Append(ctx context.Context, events []model.GameEvent) error {
	if err := ensurePool(r.pool); err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, e := range events {
		data := e.Data
		if data == nil {
			data = map[string]any{}
		}
		b.Queue(insertEventSQL, e.ID, e.MatchID, e.Sequence, string(e.Type), e.Timestamp, e.MatchTime, e.Period, data, e.Undone)
	}
	br := getQ(ctx, r.pool).SendBatch(ctx, b)
	for range events {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return repository.MapPgError(err)
		}
	}
	return repository.MapPgError(br.Close())
}

func (r *eventRepository) MarkUndone(ctx context.Context, matchID, eventID string) error {
	if err := ensurePool(r.pool); err != nil {
		return err
	}
	exec := getQ(ctx, r.pool)
	tag, err := exec.Exec(ctx,
		`UPDATE match_events SET undone = TRUE WHERE match_id = $1 AND id::text = $2`,
		matchID, eventID,
	)
	if err != nil {
		return repository.MapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *eventRepository) ListByMatch(ctx context.Context, matchID string) ([]model.GameEvent, error) {
	if err := ensurePool(r.pool); err != nil {
		return nil, err
	}
	exec := getQ(ctx, r.pool)
	rows, err := exec.Query(ctx,
		`SELECT id::text, match_id, seq, type, ts, match_time, period, data, undone
		 FROM match_events
		 WHERE match_id = $1
		 ORDER BY seq`,
		matchID,
	)
	if err != nil {
		return nil, repository.MapPgError(err)
	}
	defer rows.Close()
	out := make([]model.GameEvent, 0, 32)
	for rows.Next() {
		var e model.GameEvent
		var typ string
		if err := rows.Scan(&e.ID, &e.MatchID, &e.Sequence, &typ, &e.Timestamp, &e.MatchTime, &e.Period, &e.Data, &e.Undone); err != nil {
			return nil, repository.MapPgError(err)
		}
		e.Type = model.EventType(typ)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, repository.MapPgError(err)
	}
	return out, nil
}
