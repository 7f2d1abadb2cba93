package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maxviazov/sideline-rotation/internal/model"
	"github.com/maxviazov/sideline-rotation/internal/repository"
)

// snapshotRepository keeps one JSONB document per match. pgx encodes the
// snapshot through its json codec, so the document shape is the model's JSON tags.
type snapshotRepository struct{ pool *pgxpool.Pool }

func NewSnapshotRepository(pool *pgxpool.Pool) repository.SnapshotRepository {
	return &snapshotRepository{pool: pool}
}

func (r *snapshotRepository) Create(ctx context.Context, s model.MatchSnapshot) (model.MatchSnapshot, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.MatchSnapshot{}, err
	}
	s.Version = 1
	exec := getQ(ctx, r.pool)
	row := exec.QueryRow(ctx,
		`INSERT INTO match_snapshots (match_id, state, version)
		 VALUES ($1, $2::jsonb, $3)
		 RETURNING version, updated_at`,
		s.MatchID, s, s.Version,
	)
	if err := row.Scan(&s.Version, &s.UpdatedAt); err != nil {
		return model.MatchSnapshot{}, repository.MapPgError(err)
	}
	return s, nil
}

func (r *snapshotRepository) Load(ctx context.Context, matchID string) (model.MatchSnapshot, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.MatchSnapshot{}, err
	}
	exec := getQ(ctx, r.pool)
	row := exec.QueryRow(ctx,
		`SELECT state, version, updated_at FROM match_snapshots WHERE match_id = $1`, matchID,
	)
	var out model.MatchSnapshot
	var version int64
	if err := row.Scan(&out, &version, &out.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.MatchSnapshot{}, repository.ErrNotFound
		}
		return model.MatchSnapshot{}, repository.MapPgError(err)
	}
	// The column is authoritative; the document carries the version it was written over.
	out.Version = version
	out.MatchID = matchID
	out.Normalize()
	return out, nil
}

func (r *snapshotRepository) Save(ctx context.Context, s model.MatchSnapshot) (model.MatchSnapshot, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.MatchSnapshot{}, err
	}
	exec := getQ(ctx, r.pool)
	row := exec.QueryRow(ctx,
		`UPDATE match_snapshots
		 SET state = $2::jsonb, version = version + 1, updated_at = NOW()
		 WHERE match_id = $1 AND version = $3
		 RETURNING version, updated_at`,
		s.MatchID, s, s.Version,
	)
	if err := row.Scan(&s.Version, &s.UpdatedAt); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return model.MatchSnapshot{}, repository.MapPgError(err)
		}
		var exists bool
		if err := exec.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM match_snapshots WHERE match_id = $1)`, s.MatchID,
		).Scan(&exists); err != nil {
			return model.MatchSnapshot{}, repository.MapPgError(err)
		}
		if exists {
			return model.MatchSnapshot{}, repository.ErrConflict
		}
		return model.MatchSnapshot{}, repository.ErrNotFound
	}
	return s, nil
}

func (r *snapshotRepository) Delete(ctx context.Context, matchID string) error {
	if err := ensurePool(r.pool); err != nil {
		return err
	}
	exec := getQ(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM match_snapshots WHERE match_id = $1`, matchID)
	if err != nil {
		return repository.MapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
