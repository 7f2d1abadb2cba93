// Package substitution is the state machine behind every lineup change. Each
// operation takes a State by value and returns a new one; the input is never
// modified, so a failed call leaves the caller's state exactly as it was.
package substitution

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/maxviazov/sideline-rotation/internal/formation"
	"github.com/maxviazov/sideline-rotation/internal/model"
	"github.com/maxviazov/sideline-rotation/internal/rotation"
	"github.com/maxviazov/sideline-rotation/internal/stint"
)

// State is the formation, rotation queue and player arena of a match.
type State struct {
	Formation model.Formation
	Queue     rotation.Queue
	Players   []model.Player
}

// Clone deep-copies the state.
func (s State) Clone() State {
	return State{
		Formation: s.Formation.Clone(),
		Queue:     s.Queue.Clone(),
		Players:   model.ClonePlayers(s.Players),
	}
}

func (s State) player(id string) (int, error) {
	i := model.FindPlayer(s.Players, id)
	if i < 0 {
		return -1, fmt.Errorf("%w: %s", ErrPlayerNotFound, id)
	}
	return i, nil
}

// Request names the players of a substitution. Empty ids are chosen by the
// rotation queue. ExpectedVersion is the snapshot version the caller last saw;
// it is checked by the match service, not here.
type Request struct {
	OutgoingID      string `json:"outgoingPlayerId,omitempty"`
	IncomingID      string `json:"incomingPlayerId,omitempty"`
	ExpectedVersion int64  `json:"expectedVersion,omitempty"`
}

// Implicit reports whether the queue picks both players.
func (r Request) Implicit() bool { return r.OutgoingID == "" && r.IncomingID == "" }

// Result is one atomic substitution. Applied is false when the call was a
// repeat of a substitution that already happened.
type Result struct {
	State    State
	Applied  bool
	Outgoing []string
	Incoming []string
	Before   []model.Player
	After    []model.Player
}

type Manager struct {
	cfg    model.TeamConfig
	stints *stint.Manager
	log    zerolog.Logger
}

func NewManager(cfg model.TeamConfig, stints *stint.Manager, logger zerolog.Logger) *Manager {
	l := logger.With().Str("module", "engine").Str("component", "substitution").Logger()
	return &Manager{cfg: cfg, stints: stints, log: l}
}

// Config returns the team configuration the manager was built for.
func (m *Manager) Config() model.TeamConfig { return m.cfg }

// Initialize validates the starting formation and seeds the rotation queue.
func (m *Manager) Initialize(f model.Formation, players []model.Player) (State, error) {
	if err := formation.Validate(m.cfg, f, players); err != nil {
		m.log.Debug().Err(err).Msg("formation rejected")
		return State{}, err
	}
	s := State{Formation: f.Clone(), Players: model.ClonePlayers(players)}
	syncRoles(&s)
	s.Queue = rotation.Initialize(m.cfg, s.Players, s.Formation)
	return s, nil
}

// NextToSubOut lists up to n on-field players in queue order. In pairs mode
// each pair is listed once.
func (m *Manager) NextToSubOut(s State, n int) []string {
	out := make([]string, 0, n)
	pairs := map[string]bool{}
	for _, id := range s.Queue.ToArray() {
		if len(out) >= n {
			break
		}
		pos, ok := s.Formation.PositionOf(id)
		if !ok || !pos.Role().IsOutfield() {
			continue
		}
		if m.cfg.IsPairs() {
			key, _ := formation.PairKey(pos)
			if pairs[key] {
				continue
			}
			pairs[key] = true
		}
		out = append(out, id)
	}
	return out
}

// PerformSubstitution swaps the outgoing player (or pair) with a substitute,
// crediting both stints at now and rotating the outgoing player to the back.
func (m *Manager) PerformSubstitution(in State, req Request, now int64) (Result, error) {
	s := in.Clone()
	outID, skip, err := m.resolveOutgoing(s, req.OutgoingID)
	if err != nil {
		return Result{State: in}, err
	}
	if skip {
		m.log.Debug().Str("outgoing_id", req.OutgoingID).Msg("outgoing player already off the field, substitution skipped")
		return Result{State: in}, nil
	}

	var res Result
	if m.cfg.IsPairs() {
		res, err = m.substitutePair(s, outID, req.IncomingID, now)
	} else {
		res, err = m.substituteOne(s, outID, req.IncomingID, now)
	}
	if err != nil {
		return Result{State: in}, err
	}
	if err := CheckInvariants(res.State); err != nil {
		m.log.Error().Err(err).Strs("outgoing", res.Outgoing).Strs("incoming", res.Incoming).Msg("substitution broke invariants")
		return Result{State: in}, err
	}
	res.Applied = true
	m.log.Info().Strs("outgoing", res.Outgoing).Strs("incoming", res.Incoming).Msg("substitution performed")
	return res, nil
}

func (m *Manager) resolveOutgoing(s State, id string) (string, bool, error) {
	if id != "" {
		if _, err := s.player(id); err != nil {
			return "", false, err
		}
		pos, ok := s.Formation.PositionOf(id)
		if ok && pos.Role().IsOutfield() {
			return id, false, nil
		}
		if ok && pos == model.PosGoalie {
			return "", false, fmt.Errorf("%w: %s is the goalie", ErrNotOnField, id)
		}
		return "", true, nil
	}
	if s.Queue.Next() == "" {
		return "", false, ErrNoEligibleSubstitute
	}
	next := m.NextToSubOut(s, 1)
	if len(next) == 0 {
		return "", false, fmt.Errorf("%w: no on-field player in rotation queue", ErrStateDesync)
	}
	return next[0], false, nil
}

func (m *Manager) resolveIncoming(s State, id string) (string, error) {
	if id != "" {
		i, err := s.player(id)
		if err != nil {
			return "", err
		}
		pos, ok := s.Formation.PositionOf(id)
		if !ok || pos.Role() != model.RoleSubstitute {
			return "", fmt.Errorf("%w: %s", ErrNotSubstitute, id)
		}
		if s.Players[i].Stats.IsInactive {
			return "", fmt.Errorf("%w: %s", ErrPlayerInactive, id)
		}
		return id, nil
	}
	eligible := func(pid string) bool {
		pos, ok := s.Formation.PositionOf(pid)
		if !ok || pos.Role() != model.RoleSubstitute {
			return false
		}
		i := model.FindPlayer(s.Players, pid)
		return i >= 0 && !s.Players[i].Stats.IsInactive
	}
	// longest waiting first, then bench order
	for _, pid := range s.Queue.ToArray() {
		if eligible(pid) {
			return pid, nil
		}
	}
	for _, pid := range formation.Substitutes(m.cfg, s.Formation) {
		if eligible(pid) {
			return pid, nil
		}
	}
	return "", ErrNoEligibleSubstitute
}

func (m *Manager) substituteOne(s State, outID, inID string, now int64) (Result, error) {
	inID, err := m.resolveIncoming(s, inID)
	if err != nil {
		return Result{}, err
	}
	outPos, _ := s.Formation.PositionOf(outID)
	inPos, _ := s.Formation.PositionOf(inID)
	oi, _ := s.player(outID)
	ii, _ := s.player(inID)
	before := []model.Player{s.Players[oi], s.Players[ii]}

	s.Formation.Positions[outPos] = inID
	s.Formation.Positions[inPos] = outID
	s.Players[oi] = m.stints.Reassign(s.Players[oi], model.RoleSubstitute, now)
	s.Players[ii] = m.stints.Reassign(s.Players[ii], outPos.Role(), now)

	if err := s.Queue.Rotate(outID); err != nil {
		return Result{}, err
	}
	return Result{
		State:    s,
		Outgoing: []string{outID},
		Incoming: []string{inID},
		Before:   before,
		After:    []model.Player{s.Players[oi], s.Players[ii]},
	}, nil
}

func (m *Manager) substitutePair(s State, outID, inID string, now int64) (Result, error) {
	outPos, _ := s.Formation.PositionOf(outID)
	key, ok := formation.PairKey(outPos)
	if !ok || key == formation.PairSub {
		return Result{}, fmt.Errorf("%w: %s is not in a field pair", ErrStateDesync, outID)
	}
	fieldD, fieldA, _ := formation.PairPositions(key)
	subD, subA, _ := formation.PairPositions(formation.PairSub)

	if inID != "" {
		if _, err := s.player(inID); err != nil {
			return Result{}, err
		}
		if pos, _ := s.Formation.PositionOf(inID); pos != subD && pos != subA {
			return Result{}, fmt.Errorf("%w: %s", ErrNotSubstitute, inID)
		}
	}

	outD, outA := s.Formation.Positions[fieldD], s.Formation.Positions[fieldA]
	inD, inA := s.Formation.Positions[subD], s.Formation.Positions[subA]
	if inD == "" || inA == "" {
		return Result{}, ErrNoEligibleSubstitute
	}
	idx := map[string]int{}
	for _, id := range []string{outD, outA, inD, inA} {
		i, err := s.player(id)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrStateDesync, err)
		}
		idx[id] = i
	}
	if s.Players[idx[inD]].Stats.IsInactive || s.Players[idx[inA]].Stats.IsInactive {
		return Result{}, fmt.Errorf("%w: substitute pair has an inactive player", ErrNoEligibleSubstitute)
	}
	before := []model.Player{s.Players[idx[outD]], s.Players[idx[outA]], s.Players[idx[inD]], s.Players[idx[inA]]}

	s.Formation.Positions[fieldD] = inD
	s.Formation.Positions[fieldA] = inA
	if m.cfg.PairRoleRotation == model.PairRolesSwap {
		s.Formation.Positions[subD] = outA
		s.Formation.Positions[subA] = outD
	} else {
		s.Formation.Positions[subD] = outD
		s.Formation.Positions[subA] = outA
	}
	s.Players[idx[outD]] = m.stints.Reassign(s.Players[idx[outD]], model.RoleSubstitute, now)
	s.Players[idx[outA]] = m.stints.Reassign(s.Players[idx[outA]], model.RoleSubstitute, now)
	s.Players[idx[inD]] = m.stints.Reassign(s.Players[idx[inD]], fieldD.Role(), now)
	s.Players[idx[inA]] = m.stints.Reassign(s.Players[idx[inA]], fieldA.Role(), now)

	outgoing := []string{outD, outA}
	sort.SliceStable(outgoing, func(i, j int) bool { return s.Queue.IndexOf(outgoing[i]) < s.Queue.IndexOf(outgoing[j]) })
	for _, id := range outgoing {
		if err := s.Queue.Rotate(id); err != nil {
			return Result{}, err
		}
	}
	return Result{
		State:    s,
		Outgoing: outgoing,
		Incoming: []string{inD, inA},
		Before:   before,
		After:    []model.Player{s.Players[idx[outD]], s.Players[idx[outA]], s.Players[idx[inD]], s.Players[idx[inA]]},
	}, nil
}

// Undo puts back the formation and queue captured right before a substitution
// and restores the players it touched. Everyone else keeps their current stats.
func (m *Manager) Undo(current State, prior model.Formation, priorQueue rotation.Queue, touched []model.Player) (State, error) {
	s := current.Clone()
	s.Formation = prior.Clone()
	s.Queue = priorQueue.Clone()
	for _, p := range touched {
		i, err := s.player(p.ID)
		if err != nil {
			return current, fmt.Errorf("%w: %v", ErrStateDesync, err)
		}
		s.Players[i] = p
	}
	if err := CheckInvariants(s); err != nil {
		return current, err
	}
	m.log.Info().Int("players_restored", len(touched)).Msg("substitution undone")
	return s, nil
}

// HandleRoleChange closes the player's stint in the old role and opens one in
// newRole at now.
func (m *Manager) HandleRoleChange(p model.Player, newRole model.Role, now int64) (model.Player, error) {
	if !newRole.Valid() {
		return p, fmt.Errorf("%w: %q", ErrInvalidRole, string(newRole))
	}
	if p.Stats.IsInactive && newRole != model.RoleSubstitute {
		return p, fmt.Errorf("%w: %s", ErrPlayerInactive, p.ID)
	}
	return m.stints.Reassign(p, newRole, now), nil
}

// SwitchPositions lets two on-field players trade slots without using the bench.
func (m *Manager) SwitchPositions(in State, aID, bID string, now int64) (State, error) {
	if aID == bID {
		return in, nil
	}
	s := in.Clone()
	ai, err := s.player(aID)
	if err != nil {
		return in, err
	}
	bi, err := s.player(bID)
	if err != nil {
		return in, err
	}
	aPos, aOK := s.Formation.PositionOf(aID)
	bPos, bOK := s.Formation.PositionOf(bID)
	if !aOK || !aPos.Role().IsOutfield() {
		return in, fmt.Errorf("%w: %s", ErrNotOnField, aID)
	}
	if !bOK || !bPos.Role().IsOutfield() {
		return in, fmt.Errorf("%w: %s", ErrNotOnField, bID)
	}

	s.Formation.Positions[aPos] = bID
	s.Formation.Positions[bPos] = aID
	if s.Players[ai], err = m.HandleRoleChange(s.Players[ai], bPos.Role(), now); err != nil {
		return in, err
	}
	if s.Players[bi], err = m.HandleRoleChange(s.Players[bi], aPos.Role(), now); err != nil {
		return in, err
	}
	m.log.Info().Str("player_a", aID).Str("player_b", bID).Msg("positions switched")
	return s, nil
}

// SwitchGoalie puts incomingID in goal and the outgoing goalie into the
// incoming player's slot and rotation position.
func (m *Manager) SwitchGoalie(in State, outgoingGoalieID, incomingID string, now int64) (State, error) {
	s := in.Clone()
	goalie := s.Formation.Goalie()
	if goalie == "" {
		return in, fmt.Errorf("%w: no goalie in formation", ErrStateDesync)
	}
	if outgoingGoalieID != "" && outgoingGoalieID != goalie {
		return in, fmt.Errorf("%w: goalie is %s, not %s", ErrStateDesync, goalie, outgoingGoalieID)
	}
	if incomingID == goalie {
		return in, nil
	}
	ii, err := s.player(incomingID)
	if err != nil {
		return in, err
	}
	if s.Players[ii].Stats.IsInactive {
		return in, fmt.Errorf("%w: %s", ErrPlayerInactive, incomingID)
	}
	inPos, ok := s.Formation.PositionOf(incomingID)
	if !ok {
		return in, fmt.Errorf("%w: %s has no slot", ErrPlayerNotFound, incomingID)
	}
	gi, err := s.player(goalie)
	if err != nil {
		return in, fmt.Errorf("%w: %v", ErrStateDesync, err)
	}

	s.Formation.Positions[model.PosGoalie] = incomingID
	s.Formation.Positions[inPos] = goalie
	s.Players[ii] = m.stints.Reassign(s.Players[ii], model.RoleGoalie, now)
	s.Players[gi] = m.stints.Reassign(s.Players[gi], inPos.Role(), now)
	if err := s.Queue.Replace(incomingID, goalie); err != nil {
		return in, err
	}
	if err := CheckInvariants(s); err != nil {
		return in, err
	}
	m.log.Info().Str("old_goalie", goalie).Str("new_goalie", incomingID).Msg("goalie switched")
	return s, nil
}

// ToggleInactive benches a substitute for the rest of the match or brings
// them back. hints remembers queue positions of inactive players; the updated
// map is returned along with the new inactive flag.
func (m *Manager) ToggleInactive(in State, playerID string, hints map[string]int, now int64) (State, map[string]int, bool, error) {
	s := in.Clone()
	h := make(map[string]int, len(hints)+1)
	for k, v := range hints {
		h[k] = v
	}
	i, err := s.player(playerID)
	if err != nil {
		return in, hints, false, err
	}
	p := s.Players[i]

	if !p.Stats.IsInactive {
		if pos, ok := s.Formation.PositionOf(playerID); ok && pos.Role() != model.RoleSubstitute {
			return in, hints, false, fmt.Errorf("%w: %s", ErrNotSubstitute, playerID)
		}
		idx, err := s.Queue.Remove(playerID)
		if err != nil {
			return in, hints, false, err
		}
		h[playerID] = idx
		p = m.stints.Close(p, now)
		p.Stats.IsInactive = true
	} else {
		hint, ok := h[playerID]
		if !ok {
			hint = -1
		}
		if err := s.Queue.ReinsertPreservingOrder(playerID, hint); err != nil {
			return in, hints, true, err
		}
		delete(h, playerID)
		p.Stats.IsInactive = false
		p = m.stints.Open(p, now)
	}
	s.Players[i] = p
	if err := CheckInvariants(s); err != nil {
		return in, hints, !p.Stats.IsInactive, err
	}
	return s, h, p.Stats.IsInactive, nil
}

// StartPeriod opens stints for everyone on the floor. Unless locked, it also
// records how each player started the match.
func (m *Manager) StartPeriod(in State, now int64, locked bool) State {
	s := in.Clone()
	syncRoles(&s)
	for i := range s.Players {
		p := s.Players[i]
		if !locked {
			pos, _ := s.Formation.PositionOf(p.ID)
			p.Stats.StartedMatchAs = p.Stats.CurrentStatus
			p.Stats.StartedAtRole = p.Stats.CurrentRole
			p.Stats.StartedAtPosition = pos
		}
		s.Players[i] = m.stints.Open(p, now)
	}
	return s
}

// EndPeriod credits and closes every open stint.
func (m *Manager) EndPeriod(in State, now int64) State {
	s := in.Clone()
	for i := range s.Players {
		s.Players[i] = m.stints.Close(s.Players[i], now)
	}
	return s
}

// Refresh credits open stints up to now without changing anything else.
func (m *Manager) Refresh(in State, now int64) State {
	s := in.Clone()
	for i := range s.Players {
		s.Players[i] = m.stints.Update(s.Players[i], now)
	}
	return s
}

// ApplyConfiguration replaces the formation between or during periods. While
// a period is active, role changes go through the stint discipline. The
// started-at fields are only rewritten when not locked.
func (m *Manager) ApplyConfiguration(in State, f model.Formation, now int64, active, locked bool) (State, error) {
	if err := formation.Validate(m.cfg, f, in.Players); err != nil {
		return in, err
	}
	s := in.Clone()
	s.Formation = f.Clone()
	for i := range s.Players {
		p := s.Players[i]
		role := model.RoleSubstitute
		pos, placed := s.Formation.PositionOf(p.ID)
		if placed {
			role = pos.Role()
		}
		switch {
		case active && role != p.Stats.CurrentRole:
			p = m.stints.Reassign(p, role, now)
		case !active:
			p.Stats.CurrentRole = role
			p.Stats.CurrentStatus = role.Status()
		}
		if !locked {
			p.Stats.StartedMatchAs = role.Status()
			p.Stats.StartedAtRole = role
			p.Stats.StartedAtPosition = pos
		}
		s.Players[i] = p
	}

	fresh := rotation.Initialize(m.cfg, s.Players, s.Formation)
	if !sameMembers(fresh, in.Queue) {
		s.Queue = fresh
	}
	if err := CheckInvariants(s); err != nil {
		return in, err
	}
	return s, nil
}

// CheckInvariants reports queue/formation/ledger inconsistencies as ErrStateDesync.
func CheckInvariants(s State) error {
	goalie := s.Formation.Goalie()
	seen := map[string]bool{}
	for _, id := range s.Queue.ToArray() {
		if seen[id] {
			return fmt.Errorf("%w: %s appears twice in queue", ErrStateDesync, id)
		}
		seen[id] = true
		if id == goalie {
			return fmt.Errorf("%w: goalie %s in queue", ErrStateDesync, id)
		}
		i := model.FindPlayer(s.Players, id)
		if i < 0 {
			return fmt.Errorf("%w: unknown player %s in queue", ErrStateDesync, id)
		}
		if s.Players[i].Stats.IsInactive {
			return fmt.Errorf("%w: inactive player %s in queue", ErrStateDesync, id)
		}
	}
	for _, p := range s.Players {
		st := p.Stats
		if p.ID != goalie && !st.IsInactive && !seen[p.ID] {
			return fmt.Errorf("%w: %s missing from queue", ErrStateDesync, p.ID)
		}
		if st.TimeOnFieldSeconds != st.TimeAsDefenderSeconds+st.TimeAsAttackerSeconds+st.TimeAsMidfielderSeconds {
			return fmt.Errorf("%w: %s field time does not match role time", ErrStateDesync, p.ID)
		}
	}
	return nil
}

func syncRoles(s *State) {
	for i := range s.Players {
		role := model.RoleSubstitute
		if pos, ok := s.Formation.PositionOf(s.Players[i].ID); ok {
			role = pos.Role()
		}
		s.Players[i].Stats.CurrentRole = role
		s.Players[i].Stats.CurrentStatus = role.Status()
	}
}

func sameMembers(a, b rotation.Queue) bool {
	if a.Len() != b.Len() {
		return false
	}
	for _, id := range a.ToArray() {
		if !b.Contains(id) {
			return false
		}
	}
	return true
}
