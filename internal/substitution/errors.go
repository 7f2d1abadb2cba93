package substitution

import "errors"

// Operator mistakes are recoverable; ErrStateDesync means an invariant broke
// and the controller should consider resetting the period.
var (
	ErrNoEligibleSubstitute = errors.New("no eligible substitute")
	ErrPlayerNotFound       = errors.New("player not found")
	ErrNotOnField           = errors.New("player is not on the field")
	ErrNotSubstitute        = errors.New("player is not a substitute")
	ErrPlayerInactive       = errors.New("player is inactive")
	ErrInvalidRole          = errors.New("invalid role")
	ErrStateDesync          = errors.New("substitution state desync")
)
