package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/maxviazov/sideline-rotation/internal/formation"
	"github.com/maxviazov/sideline-rotation/internal/model"
	"github.com/maxviazov/sideline-rotation/internal/rotation"
	"github.com/maxviazov/sideline-rotation/internal/substitution"
	"github.com/maxviazov/sideline-rotation/internal/timer"
)

func requireActive(sess *session) error {
	if !sess.snap.PeriodState.Active() {
		return fmt.Errorf("%w: period is %s", ErrPeriodNotRunning, sess.snap.PeriodState)
	}
	return nil
}

// PerformSubstitution applies one substitution and keeps what is needed to undo it.
func (s *matchService) PerformSubstitution(ctx context.Context, matchID string, req substitution.Request) (SubstitutionOutcome, error) {
	var out SubstitutionOutcome
	sess, err := s.mutate(ctx, matchID, func(sess *session) error {
		if err := requireActive(sess); err != nil {
			return err
		}
		if sess.repeatedSubstitution(req) {
			return errNoChange
		}
		st, err := sess.state()
		if err != nil {
			return err
		}
		subTimerBefore := sess.subTimerSeconds()
		res, err := sess.mgr.PerformSubstitution(st, req, sess.now)
		if err != nil {
			return err
		}
		if !res.Applied {
			return errNoChange
		}

		sess.apply(res.State)
		sess.snap.SubTimer = timer.ResetSubTimer(sess.now)
		ev := sess.emit(model.EventSubstitution, map[string]any{
			"outgoing":        res.Outgoing,
			"incoming":        res.Incoming,
			"subTimerSeconds": subTimerBefore,
		})
		sess.snap.LastSubstitution = &model.UndoRecord{
			EventID:                       ev.ID,
			Timestamp:                     sess.now,
			SubTimerSecondsAtSubstitution: subTimerBefore,
			Formation:                     st.Formation.Clone(),
			RotationQueue:                 st.Queue.ToArray(),
			Players:                       res.Before,
			OutgoingIDs:                   res.Outgoing,
			IncomingIDs:                   res.Incoming,
		}
		out = SubstitutionOutcome{Applied: true, Outgoing: res.Outgoing, Incoming: res.Incoming, EventID: ev.ID}
		return nil
	})
	if err != nil {
		return SubstitutionOutcome{}, err
	}
	if !out.Applied {
		s.log.Debug().Str("match_id", matchID).Str("outgoing_id", req.OutgoingID).Int64("expected_version", req.ExpectedVersion).Msg("repeated substitution ignored")
	}
	out.View = sess.view()
	return out, nil
}

// UndoSubstitution reverts the latest substitution. Time the swapped players
// spent in their new roles is re-credited to the roles they held before, and
// the substitution timer continues as if the swap never happened.
func (s *matchService) UndoSubstitution(ctx context.Context, matchID string) (LiveView, error) {
	sess, err := s.mutate(ctx, matchID, func(sess *session) error {
		rec := sess.snap.LastSubstitution
		if rec == nil {
			return ErrNoPendingSubstitution
		}
		if err := requireActive(sess); err != nil {
			return err
		}
		st, err := sess.state()
		if err != nil {
			return err
		}
		priorQueue, err := rotation.FromSlice(rec.RotationQueue)
		if err != nil {
			return fmt.Errorf("%w: %v", substitution.ErrStateDesync, err)
		}
		// Goals scored since the substitution stay with the scorer.
		touched := model.ClonePlayers(rec.Players)
		for i := range touched {
			if j := model.FindPlayer(st.Players, touched[i].ID); j >= 0 {
				touched[i].Stats.Goals = st.Players[j].Stats.Goals
			}
		}
		restored, err := sess.mgr.Undo(st, rec.Formation, priorQueue, touched)
		if err != nil {
			return err
		}
		sess.apply(restored)

		target := timer.CalculateUndoTimerTarget(rec.SubTimerSecondsAtSubstitution, rec.Timestamp, sess.clock.Ledger(), sess.now)
		sess.snap.SubTimer = timer.SubTimerAt(target, sess.now)
		sess.snap.LastSubstitution = nil
		sess.undone = append(sess.undone, rec.EventID)
		sess.emit(model.EventSubstitutionUndone, map[string]any{
			"eventId":  rec.EventID,
			"outgoing": rec.OutgoingIDs,
			"incoming": rec.IncomingIDs,
		})
		return nil
	})
	if err != nil {
		return LiveView{}, err
	}
	s.log.Info().Str("match_id", matchID).Msg("substitution undone")
	return sess.view(), nil
}

// ChangeRole moves an on-field player into role by trading slots with the
// teammate holding it: the pair partner in pairs mode, otherwise the first
// on-field player in that role.
func (s *matchService) ChangeRole(ctx context.Context, matchID, playerID string, role model.Role) (LiveView, error) {
	if !role.IsOutfield() {
		return LiveView{}, newInvalidInput([]FieldError{{Field: "role", Message: "must be defender, midfielder or attacker"}})
	}
	sess, err := s.mutate(ctx, matchID, func(sess *session) error {
		st, err := sess.state()
		if err != nil {
			return err
		}
		pos, ok := st.Formation.PositionOf(playerID)
		if !ok || !pos.Role().IsOutfield() {
			return fmt.Errorf("%w: %s", substitution.ErrNotOnField, playerID)
		}
		if pos.Role() == role {
			return errNoChange
		}
		other := roleHolder(sess.mgr.Config(), st.Formation, pos, role)
		if other == "" {
			return newInvalidInput([]FieldError{{Field: "role", Message: fmt.Sprintf("no on-field player holds %s", role)}})
		}
		next, err := sess.mgr.SwitchPositions(st, playerID, other, sess.now)
		if err != nil {
			return err
		}
		sess.apply(sess.settle(next))
		sess.snap.LastSubstitution = nil
		sess.emit(model.EventRoleChange, map[string]any{"playerId": playerID, "role": role, "swappedWith": other})
		return nil
	})
	if err != nil {
		return LiveView{}, err
	}
	return sess.view(), nil
}

func roleHolder(cfg model.TeamConfig, f model.Formation, from model.Position, role model.Role) string {
	if cfg.IsPairs() {
		if key, ok := formation.PairKey(from); ok {
			d, a, _ := formation.PairPositions(key)
			for _, p := range []model.Position{d, a} {
				if p != from && p.Role() == role {
					return f.Positions[p]
				}
			}
		}
		return ""
	}
	for _, p := range formation.FieldPositions(cfg) {
		if p != from && p.Role() == role && f.Positions[p] != "" {
			return f.Positions[p]
		}
	}
	return ""
}

func (s *matchService) SwitchPositions(ctx context.Context, matchID, playerA, playerB string) (LiveView, error) {
	if strings.TrimSpace(playerA) == "" || strings.TrimSpace(playerB) == "" {
		return LiveView{}, newInvalidInput([]FieldError{{Field: "players", Message: "two player ids are required"}})
	}
	sess, err := s.mutate(ctx, matchID, func(sess *session) error {
		st, err := sess.state()
		if err != nil {
			return err
		}
		if playerA == playerB {
			return errNoChange
		}
		next, err := sess.mgr.SwitchPositions(st, playerA, playerB, sess.now)
		if err != nil {
			return err
		}
		sess.apply(sess.settle(next))
		sess.snap.LastSubstitution = nil
		sess.emit(model.EventPositionSwitch, map[string]any{"playerA": playerA, "playerB": playerB})
		return nil
	})
	if err != nil {
		return LiveView{}, err
	}
	return sess.view(), nil
}

func (s *matchService) SwitchGoalie(ctx context.Context, matchID, incomingID string) (LiveView, error) {
	if strings.TrimSpace(incomingID) == "" {
		return LiveView{}, newInvalidInput([]FieldError{{Field: "playerId", Message: "is required"}})
	}
	sess, err := s.mutate(ctx, matchID, func(sess *session) error {
		st, err := sess.state()
		if err != nil {
			return err
		}
		old := st.Formation.Goalie()
		if old == incomingID {
			return errNoChange
		}
		next, err := sess.mgr.SwitchGoalie(st, old, incomingID, sess.now)
		if err != nil {
			return err
		}
		sess.apply(sess.settle(next))
		sess.snap.LastSubstitution = nil
		sess.emit(model.EventGoalieSwitch, map[string]any{"oldGoalie": old, "newGoalie": incomingID})
		return nil
	})
	if err != nil {
		return LiveView{}, err
	}
	return sess.view(), nil
}

func (s *matchService) TogglePlayerInactive(ctx context.Context, matchID, playerID string) (LiveView, error) {
	sess, err := s.mutate(ctx, matchID, func(sess *session) error {
		st, err := sess.state()
		if err != nil {
			return err
		}
		next, hints, inactive, err := sess.mgr.ToggleInactive(st, playerID, sess.snap.InactiveHints, sess.now)
		if err != nil {
			return err
		}
		sess.apply(sess.settle(next))
		sess.snap.InactiveHints = hints
		sess.snap.LastSubstitution = nil
		typ := model.EventPlayerActivated
		if inactive {
			typ = model.EventPlayerInactivated
		}
		sess.emit(typ, map[string]any{"playerId": playerID})
		return nil
	})
	if err != nil {
		return LiveView{}, err
	}
	return sess.view(), nil
}

// SavePeriodConfiguration replaces the lineup. How players started the match
// is only recorded until the first period starts.
func (s *matchService) SavePeriodConfiguration(ctx context.Context, matchID string, positions map[model.Position]string) (LiveView, error) {
	if len(positions) == 0 {
		return LiveView{}, newInvalidInput([]FieldError{{Field: "formation", Message: "is required"}})
	}
	sess, err := s.mutate(ctx, matchID, func(sess *session) error {
		st, err := sess.state()
		if err != nil {
			return err
		}
		f := model.Formation{Positions: positions}
		active := sess.snap.PeriodState.Active()
		next, err := sess.mgr.ApplyConfiguration(st, f.Clone(), sess.now, active, sess.snap.StartLocked)
		if err != nil {
			return err
		}
		sess.apply(sess.settle(next))
		sess.snap.LastSubstitution = nil
		return nil
	})
	if err != nil {
		return LiveView{}, err
	}
	s.log.Info().Str("match_id", matchID).Msg("lineup configuration saved")
	return sess.view(), nil
}

// RecordGoal bumps the score; a scorer is optional and only counted for own goals.
func (s *matchService) RecordGoal(ctx context.Context, matchID string, own bool, scorerID string) (LiveView, error) {
	sess, err := s.mutate(ctx, matchID, func(sess *session) error {
		snap := &sess.snap
		if snap.MatchStartEpoch == 0 {
			return fmt.Errorf("%w: match has not started", ErrPeriodNotRunning)
		}
		if !own {
			snap.OpponentScore++
			sess.emit(model.EventGoalConceded, map[string]any{"opponentScore": snap.OpponentScore})
			return nil
		}
		data := map[string]any{"ownScore": snap.OwnScore + 1}
		if scorerID != "" {
			i := model.FindPlayer(snap.Players, scorerID)
			if i < 0 {
				return fmt.Errorf("%w: %s", substitution.ErrPlayerNotFound, scorerID)
			}
			snap.Players[i].Stats.Goals++
			data["scorerId"] = scorerID
		}
		snap.OwnScore++
		sess.emit(model.EventGoalScored, data)
		return nil
	})
	if err != nil {
		return LiveView{}, err
	}
	return sess.view(), nil
}
