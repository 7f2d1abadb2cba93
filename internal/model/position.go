package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Position names a slot in a formation.
type Position string

const (
	PosGoalie Position = "goalie"

	// 2-2
	PosLeftDefender  Position = "leftDefender"
	PosRightDefender Position = "rightDefender"
	PosLeftAttacker  Position = "leftAttacker"
	PosRightAttacker Position = "rightAttacker"

	// 1-2-1
	PosDefender Position = "defender"
	PosLeft     Position = "left"
	PosRight    Position = "right"
	PosAttacker Position = "attacker"

	// pairs
	PosLeftPairDefender  Position = "leftPairDefender"
	PosLeftPairAttacker  Position = "leftPairAttacker"
	PosRightPairDefender Position = "rightPairDefender"
	PosRightPairAttacker Position = "rightPairAttacker"
	PosSubPairDefender   Position = "subPairDefender"
	PosSubPairAttacker   Position = "subPairAttacker"
)

const substitutePrefix = "substitute_"

var positionRoles = map[Position]Role{
	PosGoalie:            RoleGoalie,
	PosLeftDefender:      RoleDefender,
	PosRightDefender:     RoleDefender,
	PosLeftAttacker:      RoleAttacker,
	PosRightAttacker:     RoleAttacker,
	PosDefender:          RoleDefender,
	PosLeft:              RoleMidfielder,
	PosRight:             RoleMidfielder,
	PosAttacker:          RoleAttacker,
	PosLeftPairDefender:  RoleDefender,
	PosLeftPairAttacker:  RoleAttacker,
	PosRightPairDefender: RoleDefender,
	PosRightPairAttacker: RoleAttacker,
	PosSubPairDefender:   RoleSubstitute,
	PosSubPairAttacker:   RoleSubstitute,
}

// SubstitutePosition returns the n-th (1-based) bench slot in individual mode.
func SubstitutePosition(n int) Position {
	return Position(substitutePrefix + strconv.Itoa(n))
}

// SubstituteIndex returns the 1-based bench index, or 0 if p is not a bench slot.
func (p Position) SubstituteIndex() int {
	s := string(p)
	if !strings.HasPrefix(s, substitutePrefix) {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimPrefix(s, substitutePrefix))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

// Role returns the role a player holds while occupying p.
func (p Position) Role() Role {
	if r, ok := positionRoles[p]; ok {
		return r
	}
	if p.SubstituteIndex() > 0 {
		return RoleSubstitute
	}
	return ""
}

func (p Position) Valid() bool { return p.Role() != "" }

// PairLabel returns the defender/attacker label of a pairs-mode slot, including
// the substitute pair. Empty for non-pair slots.
func (p Position) PairLabel() Role {
	switch p {
	case PosLeftPairDefender, PosRightPairDefender, PosSubPairDefender:
		return RoleDefender
	case PosLeftPairAttacker, PosRightPairAttacker, PosSubPairAttacker:
		return RoleAttacker
	default:
		return ""
	}
}

// ParsePosition validates a wire string.
func ParsePosition(s string) (Position, error) {
	p := Position(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown position %q", s)
	}
	return p, nil
}

func (p Position) String() string { return string(p) }
