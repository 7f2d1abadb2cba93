package service_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/sideline-rotation/internal/formation"
	"github.com/maxviazov/sideline-rotation/internal/model"
	"github.com/maxviazov/sideline-rotation/internal/repository"
	"github.com/maxviazov/sideline-rotation/internal/service"
	"github.com/maxviazov/sideline-rotation/internal/substitution"
)

type harness struct {
	svc    service.MatchService
	clock  *fakeClock
	snaps  *memSnapshots
	events *memEvents
	tx     *passTx
}

func newHarness() harness {
	h := harness{clock: newFakeClock(), snaps: newMemSnapshots(), events: &memEvents{}, tx: &passTx{}}
	h.svc = service.NewMatchService(h.snaps, h.events, h.tx, h.clock, service.MatchDefaults{}, zerolog.New(io.Discard))
	return h
}

func squad(n int) []service.PlayerInput {
	out := make([]service.PlayerInput, 0, n)
	for i := 1; i <= n; i++ {
		id := fmt.Sprintf("p%d", i)
		out = append(out, service.PlayerInput{ID: id, Name: "Player " + id, JerseyNumber: i})
	}
	return out
}

// lineup puts p1 in goal, p2..p5 on the field and p6 on the bench.
func lineup() map[model.Position]string {
	return map[model.Position]string{
		model.PosGoalie:             "p1",
		model.PosLeftDefender:       "p2",
		model.PosRightDefender:      "p3",
		model.PosLeftAttacker:       "p4",
		model.PosRightAttacker:      "p5",
		model.SubstitutePosition(1): "p6",
	}
}

func createInput(periods int) service.CreateMatchInput {
	return service.CreateMatchInput{
		TeamName:   "Falcons",
		TeamConfig: model.TeamConfig{FormationType: model.Formation22, SubstitutionType: model.SubstitutionIndividual},
		Players:    squad(6),
		Formation:  lineup(),
		NumPeriods: periods,
	}
}

func (h harness) create(t *testing.T, periods int) string {
	t.Helper()
	v, err := h.svc.CreateMatch(context.Background(), createInput(periods))
	require.NoError(t, err)
	return v.MatchID
}

func playerIn(t *testing.T, players []model.Player, id string) model.Player {
	t.Helper()
	i := model.FindPlayer(players, id)
	require.GreaterOrEqual(t, i, 0, "player %s missing", id)
	return players[i]
}

func TestCreateMatch_OK(t *testing.T) {
	h := newHarness()
	v, err := h.svc.CreateMatch(context.Background(), createInput(0))
	require.NoError(t, err)

	assert.NotEmpty(t, v.MatchID)
	assert.Equal(t, model.PeriodNotStarted, v.PeriodState)
	assert.Equal(t, 1, v.CurrentPeriod)
	assert.Equal(t, model.DefaultNumPeriods, v.NumPeriods)
	assert.Equal(t, 6, v.TeamConfig.SquadSize)
	assert.Equal(t, []string{"p2", "p3", "p4", "p5", "p6"}, v.RotationQueue)
	assert.Equal(t, "p2", v.NextPlayerIDToSubOut)
	assert.Equal(t, "p3", v.NextNextPlayerIDToSubOut)
	assert.Equal(t, model.RoleSubstitute, playerIn(t, v.Players, "p6").Stats.CurrentRole)
	assert.Equal(t, int64(1), v.Version)
}

func TestCreateMatch_RosterLineupWhenNoFormation(t *testing.T) {
	h := newHarness()
	in := createInput(2)
	in.Formation = nil
	v, err := h.svc.CreateMatch(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, "p1", v.Formation.Goalie())
	assert.Equal(t, "p2", v.Formation.Positions[model.PosLeftDefender])
	assert.Equal(t, "p5", v.Formation.Positions[model.PosRightAttacker])
	assert.Equal(t, "p6", v.Formation.Positions[model.SubstitutePosition(1)])
	assert.Equal(t, []string{"p2", "p3", "p4", "p5", "p6"}, v.RotationQueue)
}

func TestCreateMatch_Validation(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	in := createInput(2)
	in.Players = squad(3)
	_, err := h.svc.CreateMatch(ctx, in)
	require.ErrorIs(t, err, service.ErrInvalidInput)
	assert.Equal(t, "players", service.FieldErrors(err)[0].Field)

	in = createInput(2)
	in.Players[1].ID = "p1"
	_, err = h.svc.CreateMatch(ctx, in)
	require.ErrorIs(t, err, service.ErrInvalidInput)
	assert.Equal(t, "players[1].id", service.FieldErrors(err)[0].Field)

	in = createInput(2)
	in.Players[2].Name = ""
	_, err = h.svc.CreateMatch(ctx, in)
	require.ErrorIs(t, err, service.ErrInvalidInput)
	assert.Equal(t, "players[2].name", service.FieldErrors(err)[0].Field)

	in = createInput(2)
	delete(in.Formation, model.PosGoalie)
	_, err = h.svc.CreateMatch(ctx, in)
	assert.ErrorIs(t, err, formation.ErrInvalidFormation)

	in = createInput(2)
	in.TeamConfig.SubstitutionType = model.SubstitutionPairs
	_, err = h.svc.CreateMatch(ctx, in)
	assert.ErrorIs(t, err, formation.ErrInvalidFormation)

	assert.Empty(t, h.snaps.items, "nothing persisted on validation failure")
}

func TestSubstitutionAndUndo(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	id := h.create(t, 2)

	_, err := h.svc.StartPeriod(ctx, id)
	require.NoError(t, err)
	h.clock.advance(100)

	out, err := h.svc.PerformSubstitution(ctx, id, substitution.Request{})
	require.NoError(t, err)
	assert.True(t, out.Applied)
	assert.Equal(t, []string{"p2"}, out.Outgoing)
	assert.Equal(t, []string{"p6"}, out.Incoming)
	assert.Equal(t, int64(0), out.View.SubTimerSeconds)
	assert.Equal(t, "p6", out.View.Formation.Positions[model.PosLeftDefender])
	assert.Equal(t, []string{"p3", "p4", "p5", "p6", "p2"}, out.View.RotationQueue)
	assert.Equal(t, int64(100), playerIn(t, out.View.Players, "p2").Stats.TimeAsDefenderSeconds)
	assert.True(t, out.View.CanUndo)

	h.clock.advance(10)
	v, err := h.svc.GetLiveView(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(10), v.SubTimerSeconds)
	assert.Equal(t, int64(110), v.MatchTimerSeconds)
	assert.Equal(t, int64(10), playerIn(t, v.Players, "p6").Stats.TimeAsDefenderSeconds)

	v, err = h.svc.UndoSubstitution(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(110), v.SubTimerSeconds)
	assert.Equal(t, "p2", v.Formation.Positions[model.PosLeftDefender])
	assert.Equal(t, "p6", v.Formation.Positions[model.SubstitutePosition(1)])
	assert.Equal(t, []string{"p2", "p3", "p4", "p5", "p6"}, v.RotationQueue)
	assert.Equal(t, int64(110), playerIn(t, v.Players, "p2").Stats.TimeAsDefenderSeconds)
	assert.Equal(t, int64(0), playerIn(t, v.Players, "p6").Stats.TimeOnFieldSeconds)
	assert.False(t, v.CanUndo)

	evs, err := h.svc.ListEvents(ctx, id)
	require.NoError(t, err)
	require.Len(t, evs, 4)
	assert.Equal(t, model.EventSubstitution, evs[2].Type)
	assert.True(t, evs[2].Undone)
	assert.Equal(t, model.EventSubstitutionUndone, evs[3].Type)
	assert.Equal(t, int64(4), evs[3].Sequence)

	_, err = h.svc.UndoSubstitution(ctx, id)
	assert.ErrorIs(t, err, service.ErrNoPendingSubstitution)
}

func TestUndoKeepsGoals(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	id := h.create(t, 2)
	_, _ = h.svc.StartPeriod(ctx, id)
	h.clock.advance(30)
	_, err := h.svc.PerformSubstitution(ctx, id, substitution.Request{})
	require.NoError(t, err)
	_, err = h.svc.RecordGoal(ctx, id, true, "p6")
	require.NoError(t, err)

	v, err := h.svc.UndoSubstitution(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, playerIn(t, v.Players, "p6").Stats.Goals)
	assert.Equal(t, 1, v.OwnScore)
}

func TestRepeatedSubstitutionIsNoop(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	id := h.create(t, 2)
	_, _ = h.svc.StartPeriod(ctx, id)
	h.clock.advance(10)

	first, err := h.svc.PerformSubstitution(ctx, id, substitution.Request{OutgoingID: "p2"})
	require.NoError(t, err)
	require.True(t, first.Applied)
	before := len(h.events.items)

	again, err := h.svc.PerformSubstitution(ctx, id, substitution.Request{OutgoingID: "p2"})
	require.NoError(t, err)
	assert.False(t, again.Applied)
	assert.Len(t, h.events.items, before)
	assert.Equal(t, first.View.RotationQueue, again.View.RotationQueue)
}

func TestDoubleTappedImplicitSubstitution(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	id := h.create(t, 2)
	_, _ = h.svc.StartPeriod(ctx, id)
	h.clock.advance(30)

	first, err := h.svc.PerformSubstitution(ctx, id, substitution.Request{})
	require.NoError(t, err)
	require.True(t, first.Applied)
	before := len(h.events.items)

	h.clock.advanceMillis(200)
	again, err := h.svc.PerformSubstitution(ctx, id, substitution.Request{})
	require.NoError(t, err)
	assert.False(t, again.Applied)
	assert.Len(t, h.events.items, before)
	assert.Equal(t, []string{"p3", "p4", "p5", "p6", "p2"}, again.View.RotationQueue)
	assert.Equal(t, "p6", again.View.Formation.Positions[model.PosLeftDefender])

	// after the screen refreshes the queue moves on
	h.clock.advance(5)
	next, err := h.svc.PerformSubstitution(ctx, id, substitution.Request{})
	require.NoError(t, err)
	assert.True(t, next.Applied)
	assert.Equal(t, []string{"p3"}, next.Outgoing)
	assert.Equal(t, []string{"p2"}, next.Incoming)
}

func TestSubstitutionWithStaleVersionIsIgnored(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	id := h.create(t, 2)
	started, err := h.svc.StartPeriod(ctx, id)
	require.NoError(t, err)
	h.clock.advance(30)

	seen := started.Version
	first, err := h.svc.PerformSubstitution(ctx, id, substitution.Request{ExpectedVersion: seen})
	require.NoError(t, err)
	require.True(t, first.Applied)

	h.clock.advance(5)
	again, err := h.svc.PerformSubstitution(ctx, id, substitution.Request{ExpectedVersion: seen})
	require.NoError(t, err)
	assert.False(t, again.Applied)
	assert.Equal(t, first.View.Version, again.View.Version)

	next, err := h.svc.PerformSubstitution(ctx, id, substitution.Request{ExpectedVersion: again.View.Version})
	require.NoError(t, err)
	assert.True(t, next.Applied)
}

func TestFloorTimeMatchesMatchClock(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	id := h.create(t, 1)
	_, _ = h.svc.StartPeriod(ctx, id)

	for i := 0; i < 10; i++ {
		h.clock.advanceMillis(30_900)
		out, err := h.svc.PerformSubstitution(ctx, id, substitution.Request{})
		require.NoError(t, err)
		require.True(t, out.Applied)
	}
	v, err := h.svc.EndPeriod(ctx, id)
	require.NoError(t, err)
	require.Equal(t, int64(309), v.MatchTimerSeconds)

	var fieldSeconds, fieldMillis int64
	for _, p := range v.Players {
		if p.ID == "p1" {
			assert.Equal(t, int64(309), p.Stats.TimeAsGoalieSeconds)
			continue
		}
		fieldSeconds += p.Stats.TimeOnFieldSeconds
		fieldMillis += p.Stats.TimeOnFieldSeconds*1000 + p.Stats.StintCarryMillis
	}
	// 309.0s on the clock with four outfield slots
	assert.Equal(t, int64(4*309_000), fieldMillis)
	assert.GreaterOrEqual(t, fieldSeconds, int64(4*309-4))
	assert.LessOrEqual(t, fieldSeconds, int64(4*309))
}

func TestPauseExcludedFromTimers(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	id := h.create(t, 2)
	_, _ = h.svc.StartPeriod(ctx, id)

	h.clock.advance(60)
	_, err := h.svc.PausePeriod(ctx, id)
	require.NoError(t, err)
	h.clock.advance(30)

	v, _ := h.svc.GetLiveView(ctx, id)
	assert.Equal(t, model.PeriodPaused, v.PeriodState)
	assert.Equal(t, int64(60), v.MatchTimerSeconds)
	assert.Equal(t, int64(60), v.SubTimerSeconds)

	_, err = h.svc.ResumePeriod(ctx, id)
	require.NoError(t, err)
	h.clock.advance(30)

	v, _ = h.svc.GetLiveView(ctx, id)
	assert.Equal(t, int64(90), v.MatchTimerSeconds)
	assert.Equal(t, int64(90), playerIn(t, v.Players, "p2").Stats.TimeAsDefenderSeconds)
	assert.Equal(t, int64(90), playerIn(t, v.Players, "p1").Stats.TimeAsGoalieSeconds)
}

func TestPeriodLifecycle(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	id := h.create(t, 2)

	_, err := h.svc.PausePeriod(ctx, id)
	assert.ErrorIs(t, err, service.ErrPeriodNotRunning)
	_, err = h.svc.PerformSubstitution(ctx, id, substitution.Request{})
	assert.ErrorIs(t, err, service.ErrPeriodNotRunning)

	_, err = h.svc.StartPeriod(ctx, id)
	require.NoError(t, err)
	_, err = h.svc.StartPeriod(ctx, id)
	assert.ErrorIs(t, err, service.ErrPeriodRunning)

	h.clock.advance(600)
	v, err := h.svc.EndPeriod(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.PeriodEnded, v.PeriodState)
	assert.Equal(t, int64(600), v.MatchTimerSeconds)
	assert.False(t, v.MatchEnded)

	h.clock.advance(120) // half time
	v, err = h.svc.StartPeriod(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, v.CurrentPeriod)

	h.clock.advance(300)
	_, _ = h.svc.PausePeriod(ctx, id)
	h.clock.advance(50)
	v, err = h.svc.EndPeriod(ctx, id)
	require.NoError(t, err)
	assert.True(t, v.MatchEnded)
	assert.Equal(t, int64(900), v.MatchTimerSeconds)

	_, err = h.svc.StartPeriod(ctx, id)
	assert.ErrorIs(t, err, service.ErrMatchOver)

	stats, err := h.svc.FinalStats(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(900), stats.DurationSeconds)
	assert.Equal(t, 2, stats.PeriodsPlayed)
	for _, p := range stats.Players {
		switch p.PlayerID {
		case "p1":
			assert.Equal(t, int64(900), p.TimeAsGoalieSeconds)
			assert.Equal(t, model.StatusGoalie, p.StartedMatchAs)
		case "p6":
			assert.Equal(t, int64(0), p.TimeOnFieldSeconds)
			assert.Equal(t, model.StatusSubstitute, p.StartedMatchAs)
		default:
			assert.Equal(t, int64(900), p.TimeOnFieldSeconds, p.PlayerID)
		}
	}

	types := h.events.types()
	assert.Equal(t, model.EventMatchStarted, types[0])
	assert.Equal(t, model.EventMatchEnded, types[len(types)-1])
}

func TestGoals(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	id := h.create(t, 2)

	_, err := h.svc.RecordGoal(ctx, id, true, "p4")
	assert.ErrorIs(t, err, service.ErrPeriodNotRunning)

	_, _ = h.svc.StartPeriod(ctx, id)
	v, err := h.svc.RecordGoal(ctx, id, true, "p4")
	require.NoError(t, err)
	assert.Equal(t, 1, v.OwnScore)
	assert.Equal(t, 1, playerIn(t, v.Players, "p4").Stats.Goals)

	v, err = h.svc.RecordGoal(ctx, id, false, "")
	require.NoError(t, err)
	assert.Equal(t, 1, v.OpponentScore)

	_, err = h.svc.RecordGoal(ctx, id, true, "ghost")
	assert.ErrorIs(t, err, substitution.ErrPlayerNotFound)
}

func TestGoalieSwitchBeforeKickoff(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	id := h.create(t, 2)

	v, err := h.svc.SwitchGoalie(ctx, id, "p6")
	require.NoError(t, err)
	assert.Equal(t, "p6", v.Formation.Goalie())
	assert.Equal(t, "p1", v.Formation.Positions[model.SubstitutePosition(1)])
	assert.Nil(t, playerIn(t, v.Players, "p1").Stats.LastStintStartTimeEpoch)
	assert.Nil(t, playerIn(t, v.Players, "p6").Stats.LastStintStartTimeEpoch)
	assert.NotContains(t, v.RotationQueue, "p6")
	assert.Contains(t, v.RotationQueue, "p1")

	_, _ = h.svc.StartPeriod(ctx, id)
	h.clock.advance(60)
	v, _ = h.svc.GetLiveView(ctx, id)
	assert.Equal(t, int64(60), playerIn(t, v.Players, "p6").Stats.TimeAsGoalieSeconds)
	assert.Equal(t, int64(0), playerIn(t, v.Players, "p1").Stats.TimeOnFieldSeconds)
	assert.Equal(t, model.StatusGoalie, playerIn(t, v.Players, "p6").Stats.StartedMatchAs)
}

func TestToggleInactive(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	id := h.create(t, 2)
	_, _ = h.svc.StartPeriod(ctx, id)

	v, err := h.svc.TogglePlayerInactive(ctx, id, "p6")
	require.NoError(t, err)
	assert.True(t, playerIn(t, v.Players, "p6").Stats.IsInactive)
	assert.NotContains(t, v.RotationQueue, "p6")

	_, err = h.svc.PerformSubstitution(ctx, id, substitution.Request{})
	assert.ErrorIs(t, err, substitution.ErrNoEligibleSubstitute)

	_, err = h.svc.TogglePlayerInactive(ctx, id, "p2")
	assert.ErrorIs(t, err, substitution.ErrNotSubstitute)

	v, err = h.svc.TogglePlayerInactive(ctx, id, "p6")
	require.NoError(t, err)
	assert.False(t, playerIn(t, v.Players, "p6").Stats.IsInactive)
	assert.Equal(t, []string{"p2", "p3", "p4", "p5", "p6"}, v.RotationQueue)
}

func TestChangeRoleAndSwitchPositions(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	id := h.create(t, 2)
	_, _ = h.svc.StartPeriod(ctx, id)
	h.clock.advance(20)

	v, err := h.svc.ChangeRole(ctx, id, "p2", model.RoleAttacker)
	require.NoError(t, err)
	assert.Equal(t, "p2", v.Formation.Positions[model.PosLeftAttacker])
	assert.Equal(t, "p4", v.Formation.Positions[model.PosLeftDefender])
	assert.Equal(t, int64(20), playerIn(t, v.Players, "p2").Stats.TimeAsDefenderSeconds)

	h.clock.advance(5)
	v, err = h.svc.SwitchPositions(ctx, id, "p3", "p5")
	require.NoError(t, err)
	assert.Equal(t, "p5", v.Formation.Positions[model.PosRightDefender])
	assert.Equal(t, int64(25), playerIn(t, v.Players, "p3").Stats.TimeAsDefenderSeconds)

	_, err = h.svc.ChangeRole(ctx, id, "p2", model.RoleGoalie)
	assert.ErrorIs(t, err, service.ErrInvalidInput)
	_, err = h.svc.ChangeRole(ctx, id, "p6", model.RoleDefender)
	assert.ErrorIs(t, err, substitution.ErrNotOnField)
	_, err = h.svc.SwitchPositions(ctx, id, "p2", "p6")
	assert.ErrorIs(t, err, substitution.ErrNotOnField)
}

func TestSavePeriodConfiguration(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	id := h.create(t, 2)

	f := lineup()
	f[model.PosLeftDefender] = "p6"
	f[model.SubstitutePosition(1)] = "p2"
	v, err := h.svc.SavePeriodConfiguration(ctx, id, f)
	require.NoError(t, err)
	assert.Equal(t, "p6", v.Formation.Positions[model.PosLeftDefender])
	assert.Equal(t, model.RoleDefender, playerIn(t, v.Players, "p6").Stats.StartedAtRole)
	assert.Equal(t, []string{"p2", "p3", "p4", "p5", "p6"}, v.RotationQueue)

	bad := lineup()
	delete(bad, model.PosRightAttacker)
	_, err = h.svc.SavePeriodConfiguration(ctx, id, bad)
	assert.ErrorIs(t, err, formation.ErrInvalidFormation)

	_, err = h.svc.SavePeriodConfiguration(ctx, id, nil)
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	// Once play starts the starting lineup is locked.
	_, _ = h.svc.StartPeriod(ctx, id)
	v, err = h.svc.SavePeriodConfiguration(ctx, id, lineup())
	require.NoError(t, err)
	assert.Equal(t, "p2", v.Formation.Positions[model.PosLeftDefender])
	assert.Equal(t, model.StatusOnField, playerIn(t, v.Players, "p6").Stats.StartedMatchAs)
}

func TestFinalStats_Errors(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	id := h.create(t, 2)

	_, err := h.svc.FinalStats(ctx, "")
	assert.ErrorIs(t, err, service.ErrNoMatchID)
	_, err = h.svc.FinalStats(ctx, id)
	assert.ErrorIs(t, err, service.ErrIncompleteMatchData)
	_, err = h.svc.FinalStats(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestResetMatch(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	id := h.create(t, 2)

	require.NoError(t, h.svc.ResetMatch(ctx, id))
	_, err := h.svc.GetLiveView(ctx, id)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, h.svc.ResetMatch(ctx, ""), service.ErrNoMatchID)
	assert.ErrorIs(t, h.svc.ResetMatch(ctx, id), repository.ErrNotFound)
}

func TestStaleVersionIsRetriedFromStore(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	id := h.create(t, 2)

	h.snaps.bump(id)
	_, err := h.svc.StartPeriod(ctx, id)
	require.ErrorIs(t, err, repository.ErrConflict)

	loads := h.snaps.loads
	_, err = h.svc.StartPeriod(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, loads+1, h.snaps.loads)
}

func TestEventAppendFailureSurfaces(t *testing.T) {
	snaps := newMemSnapshots()
	evs := &mockEvents{}
	clock := newFakeClock()
	svc := service.NewMatchService(snaps, evs, &passTx{}, clock, service.MatchDefaults{NumPeriods: 2}, zerolog.New(io.Discard))
	ctx := context.Background()

	v, err := svc.CreateMatch(ctx, createInput(0))
	require.NoError(t, err)
	assert.Equal(t, 2, v.NumPeriods)

	boom := errors.New("db down")
	evs.On("Append", mock.Anything, mock.MatchedBy(func(in []model.GameEvent) bool {
		return len(in) == 2 && in[0].Type == model.EventMatchStarted && in[1].Type == model.EventPeriodStarted
	})).Return(boom).Once()

	_, err = svc.StartPeriod(ctx, v.MatchID)
	assert.ErrorIs(t, err, boom)
	evs.AssertExpectations(t)
}

func TestWritesGoThroughTransaction(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	id := h.create(t, 2)
	_, _ = h.svc.StartPeriod(ctx, id)
	_, _ = h.svc.PausePeriod(ctx, id)
	_, _ = h.svc.GetLiveView(ctx, id)
	assert.Equal(t, 2, h.tx.calls)
}
