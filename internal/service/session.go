package service

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/maxviazov/sideline-rotation/internal/events"
	"github.com/maxviazov/sideline-rotation/internal/model"
	"github.com/maxviazov/sideline-rotation/internal/rotation"
	"github.com/maxviazov/sideline-rotation/internal/stint"
	"github.com/maxviazov/sideline-rotation/internal/substitution"
	"github.com/maxviazov/sideline-rotation/internal/timer"
)

// session is one engine pass over a private copy of a snapshot. Nothing it
// does is visible until the service persists snap.
type session struct {
	snap   model.MatchSnapshot
	clock  *timer.Clock
	mgr    *substitution.Manager
	events *events.Logger
	undone []string
	now    int64
}

func newSession(snap model.MatchSnapshot, src timer.Source, log zerolog.Logger) *session {
	s := snap.Clone()
	s.Normalize()
	clk := timer.FromLedger(src, s.Clock)
	stints := stint.NewManager(clk, log)
	return &session{
		snap:   s,
		clock:  clk,
		mgr:    substitution.NewManager(s.TeamConfig, stints, log),
		events: events.Continue(s.MatchID, s.EventSequence),
		now:    clk.Now(),
	}
}

// state lifts the lineup out of the snapshot for the engine.
func (s *session) state() (substitution.State, error) {
	q, err := rotation.FromSlice(s.snap.RotationQueue)
	if err != nil {
		return substitution.State{}, fmt.Errorf("%w: %v", substitution.ErrStateDesync, err)
	}
	return substitution.State{Formation: s.snap.Formation, Queue: q, Players: s.snap.Players}, nil
}

func (s *session) apply(st substitution.State) {
	s.snap.Formation = st.Formation
	s.snap.RotationQueue = st.Queue.ToArray()
	s.snap.Players = st.Players
}

// settle closes stints opened by a lineup change made outside a period.
func (s *session) settle(st substitution.State) substitution.State {
	if s.snap.PeriodState.Active() {
		return st
	}
	return s.mgr.EndPeriod(st, s.now)
}

func (s *session) matchTimerSeconds() int64 {
	if !s.snap.PeriodState.Active() {
		return s.snap.CompletedPeriodSeconds
	}
	return timer.MatchTimerSeconds(s.clock.Ledger(), s.snap.PeriodStartEpoch, s.snap.CompletedPeriodSeconds, s.now)
}

func (s *session) subTimerSeconds() int64 {
	if !s.snap.PeriodState.Active() {
		return 0
	}
	return timer.SubTimerSeconds(s.clock.Ledger(), s.snap.SubTimer, s.now)
}

// repeatWindowMillis is one live-view refresh. An implicit substitution this
// soon after the previous one is a second tap on a stale screen.
const repeatWindowMillis = 1000

// repeatedSubstitution reports whether req repeats a substitution the caller
// has not seen yet: either the caller's snapshot version is stale, or the
// queue would pick the players again before the screen refreshed.
func (s *session) repeatedSubstitution(req substitution.Request) bool {
	if req.ExpectedVersion != 0 {
		return req.ExpectedVersion != s.snap.Version
	}
	rec := s.snap.LastSubstitution
	return req.Implicit() && rec != nil && s.now-rec.Timestamp < repeatWindowMillis
}

func (s *session) emit(typ model.EventType, data map[string]any) model.GameEvent {
	return s.events.Append(typ, s.now, s.matchTimerSeconds(), s.snap.CurrentPeriod, data)
}

// finish folds the clock and event sequence back into the snapshot.
func (s *session) finish() model.MatchSnapshot {
	s.snap.Clock = s.clock.Ledger()
	s.snap.EventSequence = s.events.Sequence()
	return s.snap
}

// view renders the live screen, crediting open stints up to now without
// persisting the credit.
func (s *session) view() LiveView {
	snap := s.snap.Clone()
	players := snap.Players
	var next []string
	if st, err := s.state(); err == nil {
		if snap.PeriodState.Active() {
			players = s.mgr.Refresh(st, s.now).Players
		}
		next = s.mgr.NextToSubOut(st, 2)
	}
	v := LiveView{
		MatchID:               snap.MatchID,
		TeamName:              snap.TeamName,
		OpponentName:          snap.OpponentName,
		TeamConfig:            snap.TeamConfig,
		PeriodState:           snap.PeriodState,
		CurrentPeriod:         snap.CurrentPeriod,
		NumPeriods:            snap.NumPeriods,
		PeriodDurationMinutes: snap.PeriodDurationMinutes,
		MatchTimerSeconds:     s.matchTimerSeconds(),
		SubTimerSeconds:       s.subTimerSeconds(),
		Formation:             snap.Formation,
		RotationQueue:         snap.RotationQueue,
		Players:               players,
		OwnScore:              snap.OwnScore,
		OpponentScore:         snap.OpponentScore,
		CanUndo:               snap.LastSubstitution != nil,
		MatchEnded:            snap.MatchEnded,
		Version:               snap.Version,
	}
	if len(next) > 0 {
		v.NextPlayerIDToSubOut = next[0]
	}
	if len(next) > 1 {
		v.NextNextPlayerIDToSubOut = next[1]
	}
	return v
}
