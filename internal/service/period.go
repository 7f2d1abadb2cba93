package service

import (
	"context"
	"fmt"

	"github.com/maxviazov/sideline-rotation/internal/formation"
	"github.com/maxviazov/sideline-rotation/internal/model"
	"github.com/maxviazov/sideline-rotation/internal/substitution"
	"github.com/maxviazov/sideline-rotation/internal/timer"
)

// transition moves the period state machine, translating a refusal into the
// user-facing period error.
func (sess *session) transition(action substitution.PeriodAction) error {
	from := sess.snap.PeriodState
	to, err := substitution.NextPeriodState(from, action)
	if err != nil {
		if action == substitution.ActionStart && from.Active() {
			return fmt.Errorf("%w: %w", ErrPeriodRunning, err)
		}
		return fmt.Errorf("%w: %w", ErrPeriodNotRunning, err)
	}
	sess.snap.PeriodState = to
	return nil
}

func (s *matchService) StartPeriod(ctx context.Context, matchID string) (LiveView, error) {
	sess, err := s.mutate(ctx, matchID, func(sess *session) error {
		snap := &sess.snap
		if snap.MatchEnded || (snap.PeriodState == model.PeriodEnded && snap.CurrentPeriod >= snap.NumPeriods) {
			return ErrMatchOver
		}
		st, err := sess.state()
		if err != nil {
			return err
		}
		// A half-edited lineup must not go on the field.
		if err := formation.Validate(snap.TeamConfig, snap.Formation, snap.Players); err != nil {
			return err
		}
		if snap.PeriodState == model.PeriodEnded {
			snap.CurrentPeriod++
		}
		if err := sess.transition(substitution.ActionStart); err != nil {
			return err
		}

		if snap.MatchStartEpoch == 0 {
			snap.MatchStartEpoch = sess.now
			sess.emit(model.EventMatchStarted, map[string]any{"numPeriods": snap.NumPeriods})
		}
		// Stale pauses from earlier periods can never overlap this one.
		sess.clock.Resume(sess.now)
		snap.PeriodStartEpoch = sess.now
		snap.SubTimer = timer.ResetSubTimer(sess.now)
		snap.LastSubstitution = nil

		sess.apply(sess.mgr.StartPeriod(st, sess.now, snap.StartLocked))
		snap.StartLocked = true
		sess.emit(model.EventPeriodStarted, map[string]any{"period": snap.CurrentPeriod})
		return nil
	})
	if err != nil {
		return LiveView{}, err
	}
	s.log.Info().Str("match_id", matchID).Int("period", sess.snap.CurrentPeriod).Msg("period started")
	return sess.view(), nil
}

func (s *matchService) PausePeriod(ctx context.Context, matchID string) (LiveView, error) {
	sess, err := s.mutate(ctx, matchID, func(sess *session) error {
		if err := sess.transition(substitution.ActionPause); err != nil {
			return err
		}
		sess.clock.Pause(sess.now)
		sess.emit(model.EventPeriodPaused, nil)
		return nil
	})
	if err != nil {
		return LiveView{}, err
	}
	s.log.Debug().Str("match_id", matchID).Msg("period paused")
	return sess.view(), nil
}

func (s *matchService) ResumePeriod(ctx context.Context, matchID string) (LiveView, error) {
	sess, err := s.mutate(ctx, matchID, func(sess *session) error {
		if err := sess.transition(substitution.ActionResume); err != nil {
			return err
		}
		sess.clock.Resume(sess.now)
		sess.emit(model.EventPeriodResumed, nil)
		return nil
	})
	if err != nil {
		return LiveView{}, err
	}
	s.log.Debug().Str("match_id", matchID).Msg("period resumed")
	return sess.view(), nil
}

// EndPeriod credits every open stint, banks the period's played time and,
// after the last period, ends the match.
func (s *matchService) EndPeriod(ctx context.Context, matchID string) (LiveView, error) {
	sess, err := s.mutate(ctx, matchID, func(sess *session) error {
		snap := &sess.snap
		st, err := sess.state()
		if err != nil {
			return err
		}
		if err := sess.transition(substitution.ActionEnd); err != nil {
			return err
		}
		sess.clock.Resume(sess.now)
		ledger := sess.clock.Ledger()
		played := timer.ActiveMillis(ledger, snap.PeriodStartEpoch, sess.now) / 1000

		sess.apply(sess.mgr.EndPeriod(st, sess.now))
		snap.CompletedPeriodSeconds += played
		snap.PeriodStartEpoch = 0
		snap.SubTimer = model.SubTimerState{}
		snap.LastSubstitution = nil
		sess.emit(model.EventPeriodEnded, map[string]any{"period": snap.CurrentPeriod, "playedSeconds": played})

		if snap.CurrentPeriod >= snap.NumPeriods {
			snap.MatchEnded = true
			sess.emit(model.EventMatchEnded, map[string]any{
				"ownScore":      snap.OwnScore,
				"opponentScore": snap.OpponentScore,
			})
		}
		return nil
	})
	if err != nil {
		return LiveView{}, err
	}
	s.log.Info().Str("match_id", matchID).Int("period", sess.snap.CurrentPeriod).
		Bool("match_ended", sess.snap.MatchEnded).Msg("period ended")
	return sess.view(), nil
}
