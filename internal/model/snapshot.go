package model

import (
	"fmt"
	"time"
)

// PeriodState is the lifecycle of the current period.
type PeriodState string

const (
	PeriodNotStarted PeriodState = "not_started"
	PeriodRunning    PeriodState = "running"
	PeriodPaused     PeriodState = "paused"
	PeriodEnded      PeriodState = "ended"
)

func (s PeriodState) Valid() bool {
	switch s {
	case PeriodNotStarted, PeriodRunning, PeriodPaused, PeriodEnded:
		return true
	default:
		return false
	}
}

// Active reports whether the period clock has been started and not ended.
func (s PeriodState) Active() bool { return s == PeriodRunning || s == PeriodPaused }

func (s *PeriodState) UnmarshalText(b []byte) error {
	st := PeriodState(b)
	if len(b) == 0 {
		*s = ""
		return nil
	}
	if !st.Valid() {
		return fmt.Errorf("unknown period state %q", string(b))
	}
	*s = st
	return nil
}

// PauseInterval is a closed pause window in epoch milliseconds.
type PauseInterval struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// PauseLedger is the plain-data state of the pause-aware clock.
type PauseLedger struct {
	Intervals         []PauseInterval `json:"intervals"`
	PauseStartEpoch   int64           `json:"pauseStartEpoch"`
	TotalPausedMillis int64           `json:"totalPausedMillis"`
}

// Clone deep-copies the ledger.
func (l PauseLedger) Clone() PauseLedger {
	out := l
	out.Intervals = append([]PauseInterval(nil), l.Intervals...)
	return out
}

// SubTimerState backs the "time since last substitution" counter.
type SubTimerState struct {
	BaseSeconds int64 `json:"baseSeconds"`
	MarkEpoch   int64 `json:"markEpoch"`
}

// UndoRecord holds what is needed to roll back the latest substitution.
type UndoRecord struct {
	EventID                       string    `json:"eventId"`
	Timestamp                     int64     `json:"timestamp"`
	SubTimerSecondsAtSubstitution int64     `json:"subTimerSecondsAtSubstitution"`
	Formation                     Formation `json:"formation"`
	RotationQueue                 []string  `json:"rotationQueue"`
	Players                       []Player  `json:"players"`
	OutgoingIDs                   []string  `json:"outgoingIds"`
	IncomingIDs                   []string  `json:"incomingIds"`
}

// Default match settings used when a snapshot omits them.
const (
	DefaultNumPeriods            = 3
	DefaultPeriodDurationMinutes = 15
)

// MatchSnapshot is the full, serializable engine state of one match.
type MatchSnapshot struct {
	MatchID       string     `json:"matchId"`
	TeamName      string     `json:"teamName,omitempty"`
	OpponentName  string     `json:"opponentName,omitempty"`
	TeamConfig    TeamConfig `json:"teamConfig"`
	Formation     Formation  `json:"formation"`
	RotationQueue []string   `json:"rotationQueue"`
	Players       []Player   `json:"players"`

	PeriodState           PeriodState `json:"periodState"`
	CurrentPeriod         int         `json:"currentPeriod"`
	NumPeriods            int         `json:"numPeriods"`
	PeriodDurationMinutes int         `json:"periodDurationMinutes"`

	Clock                  PauseLedger   `json:"clock"`
	MatchStartEpoch        int64         `json:"matchStartEpoch"`
	PeriodStartEpoch       int64         `json:"periodStartEpoch"`
	CompletedPeriodSeconds int64         `json:"completedPeriodSeconds"`
	SubTimer               SubTimerState `json:"subTimer"`

	StartLocked      bool           `json:"startLocked"`
	InactiveHints    map[string]int `json:"inactiveHints,omitempty"`
	LastSubstitution *UndoRecord    `json:"lastSubstitution,omitempty"`

	OwnScore      int `json:"ownScore"`
	OpponentScore int `json:"opponentScore"`

	MatchEnded    bool  `json:"matchEnded"`
	EventSequence int64 `json:"eventSequence"`

	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Normalize fills defaults for fields a partial snapshot may omit.
func (s *MatchSnapshot) Normalize() {
	if s.Formation.Positions == nil {
		s.Formation = NewFormation()
	}
	if s.RotationQueue == nil {
		s.RotationQueue = []string{}
	}
	if s.Players == nil {
		s.Players = []Player{}
	}
	if !s.PeriodState.Valid() {
		s.PeriodState = PeriodNotStarted
	}
	if s.CurrentPeriod <= 0 {
		s.CurrentPeriod = 1
	}
	if s.NumPeriods <= 0 {
		s.NumPeriods = DefaultNumPeriods
	}
	if s.PeriodDurationMinutes <= 0 {
		s.PeriodDurationMinutes = DefaultPeriodDurationMinutes
	}
	if s.InactiveHints == nil {
		s.InactiveHints = map[string]int{}
	}
	if s.TeamConfig.SubstitutionType == "" {
		s.TeamConfig.SubstitutionType = SubstitutionIndividual
	}
	if s.TeamConfig.IsPairs() && s.TeamConfig.PairRoleRotation == "" {
		s.TeamConfig.PairRoleRotation = PairRolesKeep
	}
}

// Clone deep-copies the snapshot so callers can mutate the copy freely.
func (s MatchSnapshot) Clone() MatchSnapshot {
	out := s
	out.Formation = s.Formation.Clone()
	out.RotationQueue = append([]string(nil), s.RotationQueue...)
	out.Players = ClonePlayers(s.Players)
	out.Clock = s.Clock.Clone()
	if s.InactiveHints != nil {
		out.InactiveHints = make(map[string]int, len(s.InactiveHints))
		for k, v := range s.InactiveHints {
			out.InactiveHints[k] = v
		}
	}
	if s.LastSubstitution != nil {
		rec := *s.LastSubstitution
		rec.Formation = s.LastSubstitution.Formation.Clone()
		rec.RotationQueue = append([]string(nil), s.LastSubstitution.RotationQueue...)
		rec.Players = ClonePlayers(s.LastSubstitution.Players)
		out.LastSubstitution = &rec
	}
	return out
}
