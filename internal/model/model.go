// Package model contains the match entities shared across layers.
// I keep it lean and focused on data shapes; everything here must round-trip
// through JSON because the whole match state is persisted as one snapshot.
package model

// SubstitutionType is the unit of substitution.
type SubstitutionType string

const (
	SubstitutionIndividual SubstitutionType = "individual"
	SubstitutionPairs      SubstitutionType = "pairs"
)

// PairRoleRotation governs whether a pair's defender/attacker labels flip.
type PairRoleRotation string

const (
	PairRolesKeep PairRoleRotation = "keep_throughout_period"
	PairRolesSwap PairRoleRotation = "swap_every_rotation"
)

// Supported formation shapes.
const (
	Formation22  = "2-2"
	Formation121 = "1-2-1"
)

// TeamConfig describes the match format.
type TeamConfig struct {
	Format           string           `json:"format" validate:"required,oneof=5v5"`
	SquadSize        int              `json:"squadSize" validate:"min=5,max=15"`
	FormationType    string           `json:"formationType" validate:"required,oneof=2-2 1-2-1"`
	SubstitutionType SubstitutionType `json:"substitutionType" validate:"required,oneof=individual pairs"`
	PairRoleRotation PairRoleRotation `json:"pairRoleRotation,omitempty" validate:"omitempty,oneof=keep_throughout_period swap_every_rotation"`
}

// IsPairs reports whether the team substitutes in defender/attacker pairs.
func (c TeamConfig) IsPairs() bool { return c.SubstitutionType == SubstitutionPairs }

// PlayerStats is the mutable per-match state of a player.
type PlayerStats struct {
	CurrentRole   Role   `json:"currentRole"`
	CurrentStatus Status `json:"currentStatus"`

	// Captured at match start; locked afterwards.
	StartedMatchAs    Status   `json:"startedMatchAs,omitempty"`
	StartedAtRole     Role     `json:"startedAtRole,omitempty"`
	StartedAtPosition Position `json:"startedAtPosition,omitempty"`

	TimeOnFieldSeconds      int64 `json:"timeOnFieldSeconds"`
	TimeAsGoalieSeconds     int64 `json:"timeAsGoalieSeconds"`
	TimeAsDefenderSeconds   int64 `json:"timeAsDefenderSeconds"`
	TimeAsAttackerSeconds   int64 `json:"timeAsAttackerSeconds"`
	TimeAsMidfielderSeconds int64 `json:"timeAsMidfielderSeconds"`

	// LastStintStartTimeEpoch is nil while the player is not accruing time.
	LastStintStartTimeEpoch *int64 `json:"lastStintStartTimeEpoch"`
	// StintCarryMillis is the sub-second remainder not yet credited.
	StintCarryMillis int64 `json:"stintCarryMillis,omitempty"`

	IsInactive bool `json:"isInactive"`
	IsCaptain  bool `json:"isCaptain"`
	Goals      int  `json:"goals"`
}

// Player is a squad member taking part in the match.
type Player struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	JerseyNumber int         `json:"jerseyNumber,omitempty"`
	Stats        PlayerStats `json:"stats"`
}

// Epoch returns a pointer to ms, for nullable timestamp fields.
func Epoch(ms int64) *int64 { return &ms }

// Formation maps slots to player ids.
type Formation struct {
	Positions map[Position]string `json:"positions"`
}

// NewFormation returns an empty formation.
func NewFormation() Formation {
	return Formation{Positions: map[Position]string{}}
}

// Clone deep-copies the formation.
func (f Formation) Clone() Formation {
	out := Formation{Positions: make(map[Position]string, len(f.Positions))}
	for k, v := range f.Positions {
		out.Positions[k] = v
	}
	return out
}

// Goalie returns the goalie id, empty if unset.
func (f Formation) Goalie() string { return f.Positions[PosGoalie] }

// PositionOf returns the slot held by playerID.
func (f Formation) PositionOf(playerID string) (Position, bool) {
	if playerID == "" {
		return "", false
	}
	for pos, id := range f.Positions {
		if id == playerID {
			return pos, true
		}
	}
	return "", false
}

// ClonePlayers deep-copies a player slice.
func ClonePlayers(in []Player) []Player {
	if in == nil {
		return nil
	}
	out := make([]Player, len(in))
	copy(out, in)
	return out
}

// FindPlayer returns the index of id in players or -1.
func FindPlayer(players []Player, id string) int {
	for i := range players {
		if players[i].ID == id {
			return i
		}
	}
	return -1
}
