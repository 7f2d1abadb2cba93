// Package contract holds storage-agnostic test suites. Each backend wires its
// own factories and runs the same expectations.
package contract

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/maxviazov/sideline-rotation/internal/model"
	"github.com/maxviazov/sideline-rotation/internal/repository"
)

type SnapshotFactory func(t *testing.T) (repository.SnapshotRepository, func())

type EventFactory func(t *testing.T) (repo repository.EventRepository, snapshots repository.SnapshotRepository, cleanup func())

type TxFactory func(t *testing.T) (tx repository.TxManager, snapshots repository.SnapshotRepository, cleanup func())

type PingerFactory func(t *testing.T) (repository.Pinger, func())

// SampleSnapshot builds a small but complete 2-2 match document.
func SampleSnapshot(matchID string) model.MatchSnapshot {
	f := model.NewFormation()
	f.Positions[model.PosGoalie] = "g"
	f.Positions[model.PosLeftDefender] = "a"
	f.Positions[model.PosRightDefender] = "b"
	f.Positions[model.PosLeftAttacker] = "c"
	f.Positions[model.PosRightAttacker] = "d"
	f.Positions[model.SubstitutePosition(1)] = "e"
	players := []model.Player{
		{ID: "g", Name: "Goalie", Stats: model.PlayerStats{CurrentRole: model.RoleGoalie, CurrentStatus: model.StatusGoalie}},
		{ID: "a", Name: "A", Stats: model.PlayerStats{CurrentRole: model.RoleDefender, CurrentStatus: model.StatusOnField, TimeAsDefenderSeconds: 42}},
		{ID: "b", Name: "B", Stats: model.PlayerStats{CurrentRole: model.RoleDefender, CurrentStatus: model.StatusOnField}},
		{ID: "c", Name: "C", Stats: model.PlayerStats{CurrentRole: model.RoleAttacker, CurrentStatus: model.StatusOnField}},
		{ID: "d", Name: "D", Stats: model.PlayerStats{CurrentRole: model.RoleAttacker, CurrentStatus: model.StatusOnField}},
		{ID: "e", Name: "E", Stats: model.PlayerStats{CurrentRole: model.RoleSubstitute, CurrentStatus: model.StatusSubstitute}},
	}
	s := model.MatchSnapshot{
		MatchID:  matchID,
		TeamName: "Falcons",
		TeamConfig: model.TeamConfig{
			Format: "5v5", SquadSize: 6, FormationType: model.Formation22, SubstitutionType: model.SubstitutionIndividual,
		},
		Formation:     f,
		RotationQueue: []string{"a", "b", "c", "d", "e"},
		Players:       players,
		Clock: model.PauseLedger{
			Intervals:         []model.PauseInterval{{Start: 1000, End: 3000}},
			TotalPausedMillis: 2000,
		},
	}
	s.Normalize()
	return s
}

func RunSnapshotRepositoryContract(t *testing.T, makeRepo SnapshotFactory) {
	t.Helper()

	t.Run("create_and_load", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		created, err := repo.Create(ctx, SampleSnapshot("m-1"))
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if created.Version != 1 {
			t.Fatalf("expected version 1, got %d", created.Version)
		}
		got, err := repo.Load(ctx, "m-1")
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if got.Version != 1 || got.TeamName != "Falcons" || len(got.Players) != 6 {
			t.Fatalf("mismatch: %+v", got)
		}
		if got.Formation.Goalie() != "g" || got.RotationQueue[4] != "e" {
			t.Fatalf("formation/queue not round-tripped: %+v %v", got.Formation, got.RotationQueue)
		}
		if got.Players[1].Stats.TimeAsDefenderSeconds != 42 || got.Clock.TotalPausedMillis != 2000 {
			t.Fatalf("stats/clock not round-tripped: %+v", got)
		}
	})

	t.Run("create_duplicate", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		if _, err := repo.Create(ctx, SampleSnapshot("m-dup")); err != nil {
			t.Fatalf("seed: %v", err)
		}
		if _, err := repo.Create(ctx, SampleSnapshot("m-dup")); !errors.Is(err, repository.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("load_not_found", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		if _, err := repo.Load(context.Background(), "missing"); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("save_bumps_version", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		s, err := repo.Create(ctx, SampleSnapshot("m-save"))
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		s.OwnScore = 3
		saved, err := repo.Save(ctx, s)
		if err != nil {
			t.Fatalf("save: %v", err)
		}
		if saved.Version != 2 {
			t.Fatalf("expected version 2, got %d", saved.Version)
		}
		got, _ := repo.Load(ctx, "m-save")
		if got.OwnScore != 3 || got.Version != 2 {
			t.Fatalf("unexpected state after save: %+v", got)
		}
	})

	t.Run("save_stale_version", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		s, _ := repo.Create(ctx, SampleSnapshot("m-stale"))
		if _, err := repo.Save(ctx, s); err != nil {
			t.Fatalf("first save: %v", err)
		}
		if _, err := repo.Save(ctx, s); !errors.Is(err, repository.ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("save_missing", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		if _, err := repo.Save(context.Background(), SampleSnapshot("nope")); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		if _, err := repo.Create(ctx, SampleSnapshot("m-del")); err != nil {
			t.Fatalf("seed: %v", err)
		}
		if err := repo.Delete(ctx, "m-del"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if err := repo.Delete(ctx, "m-del"); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound on second delete, got %v", err)
		}
	})
}

func event(matchID string, seq int64, typ model.EventType) model.GameEvent {
	return model.GameEvent{
		ID: uuid.NewString(), MatchID: matchID, Type: typ, Sequence: seq,
		Timestamp: 1_700_000_000_000 + seq, MatchTime: seq * 10, Period: 1,
		Data: map[string]any{"seq": seq},
	}
}

func RunEventRepositoryContract(t *testing.T, makeRepo EventFactory) {
	t.Helper()

	t.Run("append_and_list_in_order", func(t *testing.T) {
		repo, snaps, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		if _, err := snaps.Create(ctx, SampleSnapshot("m-ev")); err != nil {
			t.Fatalf("seed: %v", err)
		}
		in := []model.GameEvent{
			event("m-ev", 2, model.EventSubstitution),
			event("m-ev", 1, model.EventPeriodStarted),
		}
		in[1].Data = nil
		if err := repo.Append(ctx, in); err != nil {
			t.Fatalf("append: %v", err)
		}
		got, err := repo.ListByMatch(ctx, "m-ev")
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(got) != 2 || got[0].Sequence != 1 || got[1].Type != model.EventSubstitution {
			t.Fatalf("unexpected events: %+v", got)
		}
		if got[1].ID != in[0].ID || got[1].MatchTime != 20 {
			t.Fatalf("fields not round-tripped: %+v", got[1])
		}
	})

	t.Run("append_empty_is_noop", func(t *testing.T) {
		repo, _, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		if err := repo.Append(context.Background(), nil); err != nil {
			t.Fatalf("expected nil, got %v", err)
		}
	})

	t.Run("duplicate_sequence", func(t *testing.T) {
		repo, snaps, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		_, _ = snaps.Create(ctx, SampleSnapshot("m-seq"))
		if err := repo.Append(ctx, []model.GameEvent{event("m-seq", 1, model.EventGoalScored)}); err != nil {
			t.Fatalf("seed: %v", err)
		}
		err := repo.Append(ctx, []model.GameEvent{event("m-seq", 1, model.EventGoalScored)})
		if !errors.Is(err, repository.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("unknown_match", func(t *testing.T) {
		repo, _, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		err := repo.Append(context.Background(), []model.GameEvent{event("ghost", 1, model.EventGoalScored)})
		if !errors.Is(err, repository.ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("mark_undone", func(t *testing.T) {
		repo, snaps, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		_, _ = snaps.Create(ctx, SampleSnapshot("m-undo"))
		e := event("m-undo", 1, model.EventSubstitution)
		if err := repo.Append(ctx, []model.GameEvent{e}); err != nil {
			t.Fatalf("seed: %v", err)
		}
		if err := repo.MarkUndone(ctx, "m-undo", e.ID); err != nil {
			t.Fatalf("mark: %v", err)
		}
		got, _ := repo.ListByMatch(ctx, "m-undo")
		if len(got) != 1 || !got[0].Undone {
			t.Fatalf("expected undone event, got %+v", got)
		}
		if err := repo.MarkUndone(ctx, "m-undo", uuid.NewString()); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("cascade_on_snapshot_delete", func(t *testing.T) {
		repo, snaps, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		_, _ = snaps.Create(ctx, SampleSnapshot("m-cascade"))
		_ = repo.Append(ctx, []model.GameEvent{event("m-cascade", 1, model.EventMatchStarted)})
		if err := snaps.Delete(ctx, "m-cascade"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		got, err := repo.ListByMatch(ctx, "m-cascade")
		if err != nil || len(got) != 0 {
			t.Fatalf("expected no events, got %d (%v)", len(got), err)
		}
	})
}

func RunTxManagerContract(t *testing.T, makeTx TxFactory) {
	t.Helper()

	t.Run("commit_on_nil_error", func(t *testing.T) {
		tx, snaps, cleanup := makeTx(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		err := tx.WithinTx(ctx, func(ctx context.Context) error {
			_, err := snaps.Create(ctx, SampleSnapshot("tx-commit"))
			return err
		})
		if err != nil {
			t.Fatalf("WithinTx: %v", err)
		}
		if _, err := snaps.Load(ctx, "tx-commit"); err != nil {
			t.Fatalf("expected committed row visible, got err=%v", err)
		}
	})

	t.Run("rollback_on_error", func(t *testing.T) {
		tx, snaps, cleanup := makeTx(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		errMarker := errors.New("boom")
		err := tx.WithinTx(ctx, func(ctx context.Context) error {
			if _, err := snaps.Create(ctx, SampleSnapshot("tx-rollback")); err != nil {
				return err
			}
			return errMarker
		})
		if !errors.Is(err, errMarker) {
			t.Fatalf("expected marker error, got %v", err)
		}
		if _, err := snaps.Load(ctx, "tx-rollback"); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after rollback, got %v", err)
		}
	})
}

func RunPingerContract(t *testing.T, makePinger PingerFactory) {
	t.Helper()
	t.Run("ping_ok", func(t *testing.T) {
		p, cleanup := makePinger(t)
		t.Cleanup(cleanup)
		if err := p.Ping(context.Background()); err != nil {
			t.Fatalf("expected ping ok, got %v", err)
		}
	})
}
