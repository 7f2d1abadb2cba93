package model

// EventType names a match event.
type EventType string

const (
	EventMatchStarted       EventType = "match_started"
	EventPeriodStarted      EventType = "period_started"
	EventPeriodPaused       EventType = "period_paused"
	EventPeriodResumed      EventType = "period_resumed"
	EventPeriodEnded        EventType = "period_ended"
	EventSubstitution       EventType = "substitution"
	EventSubstitutionUndone EventType = "substitution_undone"
	EventPositionSwitch     EventType = "position_switch"
	EventRoleChange         EventType = "role_change"
	EventGoalieSwitch       EventType = "goalie_switch"
	EventPlayerInactivated  EventType = "player_inactivated"
	EventPlayerActivated    EventType = "player_activated"
	EventGoalScored         EventType = "goal_scored"
	EventGoalConceded       EventType = "goal_conceded"
	EventMatchEnded         EventType = "match_ended"
)

// GameEvent is one append-only audit record.
type GameEvent struct {
	ID        string         `json:"id"`
	MatchID   string         `json:"matchId"`
	Type      EventType      `json:"type"`
	Timestamp int64          `json:"timestamp"`
	MatchTime int64          `json:"matchTime"` // seconds into the match
	Sequence  int64          `json:"sequence"`
	Period    int            `json:"period"`
	Data      map[string]any `json:"data,omitempty"`
	Undone    bool           `json:"undone"`
}

// PlayerFinalStats is the per-player time breakdown reported at match end.
type PlayerFinalStats struct {
	PlayerID                string `json:"playerId"`
	Name                    string `json:"name"`
	StartedMatchAs          Status `json:"startedMatchAs,omitempty"`
	StartedAtRole           Role   `json:"startedAtRole,omitempty"`
	TimeOnFieldSeconds      int64  `json:"timeOnFieldSeconds"`
	TimeAsGoalieSeconds     int64  `json:"timeAsGoalieSeconds"`
	TimeAsDefenderSeconds   int64  `json:"timeAsDefenderSeconds"`
	TimeAsAttackerSeconds   int64  `json:"timeAsAttackerSeconds"`
	TimeAsMidfielderSeconds int64  `json:"timeAsMidfielderSeconds"`
	Goals                   int    `json:"goals"`
	IsCaptain               bool   `json:"isCaptain"`
	IsInactive              bool   `json:"isInactive"`
}

// FinalStats is what the cloud sync collaborator persists for a finished match.
type FinalStats struct {
	MatchID         string             `json:"matchId"`
	DurationSeconds int64              `json:"durationSeconds"`
	PeriodsPlayed   int                `json:"periodsPlayed"`
	GoalsScored     int                `json:"goalsScored"`
	GoalsConceded   int                `json:"goalsConceded"`
	Players         []PlayerFinalStats `json:"players"`
}
