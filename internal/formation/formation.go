// Package formation knows the slot layouts of each team format and validates
// slot assignments against them.
package formation

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/maxviazov/sideline-rotation/internal/model"
)

// Number of slots always on the floor: goalie plus four outfield players.
const (
	FieldSlots = 4
	MinSquad   = FieldSlots + 1
	PairsSquad = 7
)

var ErrInvalidFormation = errors.New("invalid formation")

// Issue is one validation problem.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// InvalidFormationError aggregates issues and unwraps to ErrInvalidFormation.
type InvalidFormationError struct {
	Issues []Issue
}

func (e *InvalidFormationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		parts = append(parts, is.Field+": "+is.Message)
	}
	return fmt.Sprintf("%s: %s", ErrInvalidFormation, strings.Join(parts, "; "))
}

func (e *InvalidFormationError) Unwrap() error { return ErrInvalidFormation }

func newInvalid(issues []Issue) error {
	if len(issues) == 0 {
		return nil
	}
	return &InvalidFormationError{Issues: issues}
}

// Pair identifiers used in pairs mode.
const (
	PairLeft  = "leftPair"
	PairRight = "rightPair"
	PairSub   = "subPair"
)

var fieldLayouts = map[model.SubstitutionType]map[string][]model.Position{
	model.SubstitutionIndividual: {
		model.Formation22:  {model.PosLeftDefender, model.PosRightDefender, model.PosLeftAttacker, model.PosRightAttacker},
		model.Formation121: {model.PosDefender, model.PosLeft, model.PosRight, model.PosAttacker},
	},
	model.SubstitutionPairs: {
		model.Formation22: {model.PosLeftPairDefender, model.PosLeftPairAttacker, model.PosRightPairDefender, model.PosRightPairAttacker},
	},
}

var pairSlots = map[string][2]model.Position{
	PairLeft:  {model.PosLeftPairDefender, model.PosLeftPairAttacker},
	PairRight: {model.PosRightPairDefender, model.PosRightPairAttacker},
	PairSub:   {model.PosSubPairDefender, model.PosSubPairAttacker},
}

// FieldPositions returns the outfield slots in display order (left to right,
// defender before attacker). Unknown layouts yield nil.
func FieldPositions(cfg model.TeamConfig) []model.Position {
	byShape, ok := fieldLayouts[cfg.SubstitutionType]
	if !ok {
		return nil
	}
	return append([]model.Position(nil), byShape[cfg.FormationType]...)
}

// SubstitutePositions returns the bench slots for cfg.
func SubstitutePositions(cfg model.TeamConfig) []model.Position {
	if cfg.IsPairs() {
		return []model.Position{model.PosSubPairDefender, model.PosSubPairAttacker}
	}
	n := cfg.SquadSize - MinSquad
	out := make([]model.Position, 0, max(n, 0))
	for i := 1; i <= n; i++ {
		out = append(out, model.SubstitutePosition(i))
	}
	return out
}

// AllPositions is goalie, field slots, then bench slots.
func AllPositions(cfg model.TeamConfig) []model.Position {
	out := []model.Position{model.PosGoalie}
	out = append(out, FieldPositions(cfg)...)
	return append(out, SubstitutePositions(cfg)...)
}

// PairKey returns the pair a pairs-mode slot belongs to.
func PairKey(pos model.Position) (string, bool) {
	for key, slots := range pairSlots {
		if slots[0] == pos || slots[1] == pos {
			return key, true
		}
	}
	return "", false
}

// PairPositions returns the defender and attacker slot of a pair.
func PairPositions(key string) (defender, attacker model.Position, ok bool) {
	slots, ok := pairSlots[key]
	return slots[0], slots[1], ok
}

// FieldPlayers lists outfield player ids in slot order, skipping empty slots.
func FieldPlayers(cfg model.TeamConfig, f model.Formation) []string {
	return collect(f, FieldPositions(cfg))
}

// Substitutes lists bench player ids in slot order, skipping empty slots.
func Substitutes(cfg model.TeamConfig, f model.Formation) []string {
	return collect(f, SubstitutePositions(cfg))
}

func collect(f model.Formation, positions []model.Position) []string {
	out := make([]string, 0, len(positions))
	for _, pos := range positions {
		if id := f.Positions[pos]; id != "" {
			out = append(out, id)
		}
	}
	return out
}

var validate = validator.New()

// ValidateConfig checks field constraints and the pairs-mode shape.
func ValidateConfig(cfg model.TeamConfig) error {
	var issues []Issue
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				issues = append(issues, Issue{Field: "teamConfig." + lowerFirst(fe.Field()), Message: "failed " + fe.Tag()})
			}
		} else {
			issues = append(issues, Issue{Field: "teamConfig", Message: err.Error()})
		}
	}
	if cfg.IsPairs() {
		if cfg.SquadSize != PairsSquad {
			issues = append(issues, Issue{Field: "teamConfig.squadSize", Message: fmt.Sprintf("pairs mode needs exactly %d players", PairsSquad)})
		}
		if cfg.FormationType != model.Formation22 {
			issues = append(issues, Issue{Field: "teamConfig.formationType", Message: "pairs mode needs 2-2"})
		}
	}
	return newInvalid(issues)
}

// Validate checks that f is a legal starting assignment of players under cfg.
func Validate(cfg model.TeamConfig, f model.Formation, players []model.Player) error {
	if err := ValidateConfig(cfg); err != nil {
		return err
	}
	var issues []Issue

	if len(players) != cfg.SquadSize {
		issues = append(issues, Issue{Field: "players", Message: fmt.Sprintf("expected %d selected players, got %d", cfg.SquadSize, len(players))})
	}

	known := make(map[string]model.Player, len(players))
	for _, p := range players {
		if p.ID == "" {
			issues = append(issues, Issue{Field: "players", Message: "player without id"})
			continue
		}
		if _, dup := known[p.ID]; dup {
			issues = append(issues, Issue{Field: "players", Message: "duplicate player " + p.ID})
		}
		known[p.ID] = p
	}

	allowed := map[model.Position]bool{}
	for _, pos := range AllPositions(cfg) {
		allowed[pos] = true
	}
	for _, pos := range slices.Sorted(maps.Keys(f.Positions)) {
		if id := f.Positions[pos]; !allowed[pos] && id != "" {
			issues = append(issues, Issue{Field: "formation." + string(pos), Message: "position not part of this layout"})
		}
	}

	goalie := f.Goalie()
	if goalie == "" {
		issues = append(issues, Issue{Field: "formation.goalie", Message: "goalie slot must be filled"})
	} else if p, ok := known[goalie]; ok && p.Stats.IsInactive {
		issues = append(issues, Issue{Field: "formation.goalie", Message: "goalie is inactive"})
	}
	for _, pos := range FieldPositions(cfg) {
		id := f.Positions[pos]
		if id == "" {
			issues = append(issues, Issue{Field: "formation." + string(pos), Message: "field slot must be filled"})
			continue
		}
		if p, ok := known[id]; ok && p.Stats.IsInactive {
			issues = append(issues, Issue{Field: "formation." + string(pos), Message: "player is inactive"})
		}
	}

	seen := map[string]model.Position{}
	for _, pos := range AllPositions(cfg) {
		id := f.Positions[pos]
		if id == "" {
			continue
		}
		if prev, dup := seen[id]; dup {
			issues = append(issues, Issue{Field: "formation." + string(pos), Message: fmt.Sprintf("player %s already in %s", id, prev)})
			continue
		}
		seen[id] = pos
		if _, ok := known[id]; !ok {
			issues = append(issues, Issue{Field: "formation." + string(pos), Message: "unknown player " + id})
		}
	}
	for _, p := range players {
		if _, placed := seen[p.ID]; !placed && p.ID != "" {
			seen[p.ID] = ""
			issues = append(issues, Issue{Field: "formation", Message: "player " + p.ID + " has no slot"})
		}
	}
	return newInvalid(issues)
}

// Build lays players out in slot order. It does not validate the result.
func Build(cfg model.TeamConfig, goalieID string, fieldIDs, subIDs []string) model.Formation {
	f := model.NewFormation()
	if goalieID != "" {
		f.Positions[model.PosGoalie] = goalieID
	}
	for i, pos := range FieldPositions(cfg) {
		if i < len(fieldIDs) && fieldIDs[i] != "" {
			f.Positions[pos] = fieldIDs[i]
		}
	}
	for i, pos := range SubstitutePositions(cfg) {
		if i < len(subIDs) && subIDs[i] != "" {
			f.Positions[pos] = subIDs[i]
		}
	}
	return f
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
