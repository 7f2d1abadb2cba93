package model

import "fmt"

// Role is what a player is doing right now. Goalie is both a role and a status.
type Role string

const (
	RoleGoalie     Role = "goalie"
	RoleDefender   Role = "defender"
	RoleMidfielder Role = "midfielder"
	RoleAttacker   Role = "attacker"
	RoleSubstitute Role = "substitute"
)

// Status is the coarse grouping of Role used for reporting.
type Status string

const (
	StatusOnField    Status = "on_field"
	StatusGoalie     Status = "goalie"
	StatusSubstitute Status = "substitute"
)

// rolePriority orders roles for slot listing and reports.
var rolePriority = map[Role]int{
	RoleGoalie:     0,
	RoleDefender:   1,
	RoleMidfielder: 2,
	RoleAttacker:   3,
	RoleSubstitute: 4,
}

var roleStatus = map[Role]Status{
	RoleGoalie:     StatusGoalie,
	RoleDefender:   StatusOnField,
	RoleMidfielder: StatusOnField,
	RoleAttacker:   StatusOnField,
	RoleSubstitute: StatusSubstitute,
}

// ParseRole converts a wire string into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

func (r Role) Valid() bool {
	_, ok := rolePriority[r]
	return ok
}

// Priority returns the ordering weight of the role (lower sorts first).
func (r Role) Priority() int {
	if p, ok := rolePriority[r]; ok {
		return p
	}
	return len(rolePriority)
}

// Status maps the role onto its coarse status.
func (r Role) Status() Status {
	return roleStatus[r]
}

// IsOutfield reports whether time in this role counts as "on field" time.
func (r Role) IsOutfield() bool {
	return r == RoleDefender || r == RoleMidfielder || r == RoleAttacker
}

func (r Role) String() string { return string(r) }

func (r Role) MarshalText() ([]byte, error) {
	if r == "" {
		return []byte{}, nil
	}
	if !r.Valid() {
		return nil, fmt.Errorf("unknown role %q", string(r))
	}
	return []byte(r), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*r = ""
		return nil
	}
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseStatus converts a wire string into a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}

func (s Status) Valid() bool {
	switch s {
	case StatusOnField, StatusGoalie, StatusSubstitute:
		return true
	default:
		return false
	}
}

func (s Status) String() string { return string(s) }

func (s Status) MarshalText() ([]byte, error) {
	if s == "" {
		return []byte{}, nil
	}
	if !s.Valid() {
		return nil, fmt.Errorf("unknown status %q", string(s))
	}
	return []byte(s), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*s = ""
		return nil
	}
	parsed, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
