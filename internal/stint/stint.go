// Package stint turns "player X has held role R since T" into accumulated
// per-role seconds.
package stint

import (
	"github.com/rs/zerolog"

	"github.com/maxviazov/sideline-rotation/internal/model"
)

// Elapser measures pause-aware elapsed milliseconds. *timer.Clock satisfies it.
type Elapser interface {
	ElapsedSince(mark, now int64) int64
}

// Manager credits stint time to player counters.
type Manager struct {
	clock Elapser
	log   zerolog.Logger
}

func NewManager(clock Elapser, logger zerolog.Logger) *Manager {
	l := logger.With().Str("module", "engine").Str("component", "stint").Logger()
	return &Manager{clock: clock, log: l}
}

// UpdatePlayerTimeStats credits the time since the stint mark to the counter
// of the player's current role and moves the mark to now. Calling it again
// with the same now credits nothing.
func (m *Manager) UpdatePlayerTimeStats(p model.Player, now int64) model.PlayerStats {
	st := p.Stats
	if st.LastStintStartTimeEpoch == nil {
		return st
	}
	mark := *st.LastStintStartTimeEpoch
	if now <= mark {
		return st
	}

	elapsed := m.clock.ElapsedSince(mark, now) + st.StintCarryMillis
	secs := elapsed / 1000
	st.StintCarryMillis = elapsed % 1000
	credit(&st, st.CurrentRole, secs)
	st.LastStintStartTimeEpoch = model.Epoch(now)

	if secs > 0 {
		m.log.Debug().Str("player_id", p.ID).Str("role", st.CurrentRole.String()).Int64("seconds", secs).Msg("stint credited")
	}
	return st
}

// Update is UpdatePlayerTimeStats returning the whole player.
func (m *Manager) Update(p model.Player, now int64) model.Player {
	p.Stats = m.UpdatePlayerTimeStats(p, now)
	return p
}

// Close credits the open stint and stops accrual. The sub-second remainder
// stays in StintCarryMillis and is credited with the player's next stint.
func (m *Manager) Close(p model.Player, now int64) model.Player {
	p = m.Update(p, now)
	p.Stats.LastStintStartTimeEpoch = nil
	return p
}

// Open starts a new stint at now for players that accrue time in their role.
func (m *Manager) Open(p model.Player, now int64) model.Player {
	if p.Stats.IsInactive || p.Stats.CurrentRole == model.RoleSubstitute || !p.Stats.CurrentRole.Valid() {
		p.Stats.LastStintStartTimeEpoch = nil
		return p
	}
	p.Stats.LastStintStartTimeEpoch = model.Epoch(now)
	return p
}

// Reassign closes the current stint, switches role, and opens a new stint.
func (m *Manager) Reassign(p model.Player, role model.Role, now int64) model.Player {
	p = m.Close(p, now)
	p.Stats.CurrentRole = role
	p.Stats.CurrentStatus = role.Status()
	return m.Open(p, now)
}

func credit(st *model.PlayerStats, role model.Role, secs int64) {
	if secs <= 0 {
		return
	}
	switch role {
	case model.RoleGoalie:
		st.TimeAsGoalieSeconds += secs
	case model.RoleDefender:
		st.TimeAsDefenderSeconds += secs
		st.TimeOnFieldSeconds += secs
	case model.RoleAttacker:
		st.TimeAsAttackerSeconds += secs
		st.TimeOnFieldSeconds += secs
	case model.RoleMidfielder:
		st.TimeAsMidfielderSeconds += secs
		st.TimeOnFieldSeconds += secs
	case model.RoleSubstitute:
		// bench time is not tracked
	}
}
