// Package service holds match use cases: it loads a snapshot, runs the engine
// on a copy and persists the result together with the events it produced.
// Kept lean: use-case coordination, validation and domain error shaping only.
package service

import (
	"context"
	"errors"

	"github.com/maxviazov/sideline-rotation/internal/model"
	"github.com/maxviazov/sideline-rotation/internal/substitution"
)

// ErrInvalidInput is the marker error for aggregated validation failures (maps to HTTP 400).
// Field-level details are retrieved via FieldErrors(err).
var ErrInvalidInput = errors.New("invalid input")

// Recoverable, user-facing conditions.
var (
	ErrNoPendingSubstitution = errors.New("no substitution to undo")
	ErrPeriodNotRunning      = errors.New("period is not running")
	ErrPeriodRunning         = errors.New("period is already running")
	ErrMatchOver             = errors.New("all periods have been played")
	ErrNoMatchID             = errors.New("match id is required")
	ErrIncompleteMatchData   = errors.New("match data is incomplete")
)

// FieldError describes a single invalid field in a client request.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// invalidInputError aggregates multiple FieldError instances and unwraps to ErrInvalidInput.
type invalidInputError struct {
	fields []FieldError
}

func (e *invalidInputError) Error() string        { return ErrInvalidInput.Error() }
func (e *invalidInputError) Unwrap() error        { return ErrInvalidInput }
func (e *invalidInputError) Fields() []FieldError { return e.fields }

// newInvalidInput builds an aggregated validation error if any field errors are present.
func newInvalidInput(fe []FieldError) error {
	if len(fe) == 0 {
		return nil
	}
	return &invalidInputError{fields: fe}
}

// FieldErrors extracts field errors from an aggregated validation error.
func FieldErrors(err error) []FieldError {
	if err == nil {
		return nil
	}
	type feIface interface{ Fields() []FieldError }
	var v feIface
	if errors.As(err, &v) && errors.Is(err, ErrInvalidInput) {
		return v.Fields()
	}
	return nil
}

// PlayerInput is one squad member of a new match.
type PlayerInput struct {
	ID           string `json:"id" validate:"required,max=64"`
	Name         string `json:"name" validate:"required,max=80"`
	JerseyNumber int    `json:"jerseyNumber" validate:"min=0,max=999"`
	IsCaptain    bool   `json:"isCaptain"`
}

// CreateMatchInput sets up a match before its first period.
type CreateMatchInput struct {
	TeamName              string                    `json:"teamName" validate:"max=80"`
	OpponentName          string                    `json:"opponentName" validate:"max=80"`
	TeamConfig            model.TeamConfig          `json:"teamConfig" validate:"-"`
	Players               []PlayerInput             `json:"players" validate:"required,min=5,max=15,dive"`
	Formation             map[model.Position]string `json:"formation"`
	NumPeriods            int                       `json:"numPeriods" validate:"min=0,max=10"`
	PeriodDurationMinutes int                       `json:"periodDurationMinutes" validate:"min=0,max=90"`
}

// LiveView is what the sideline screen renders on every tick.
type LiveView struct {
	MatchID                  string            `json:"matchId"`
	TeamName                 string            `json:"teamName,omitempty"`
	OpponentName             string            `json:"opponentName,omitempty"`
	TeamConfig               model.TeamConfig  `json:"teamConfig"`
	PeriodState              model.PeriodState `json:"periodState"`
	CurrentPeriod            int               `json:"currentPeriod"`
	NumPeriods               int               `json:"numPeriods"`
	PeriodDurationMinutes    int               `json:"periodDurationMinutes"`
	MatchTimerSeconds        int64             `json:"matchTimerSeconds"`
	SubTimerSeconds          int64             `json:"subTimerSeconds"`
	NextPlayerIDToSubOut     string            `json:"nextPlayerIdToSubOut,omitempty"`
	NextNextPlayerIDToSubOut string            `json:"nextNextPlayerIdToSubOut,omitempty"`
	Formation                model.Formation   `json:"formation"`
	RotationQueue            []string          `json:"rotationQueue"`
	Players                  []model.Player    `json:"players"`
	OwnScore                 int               `json:"ownScore"`
	OpponentScore            int               `json:"opponentScore"`
	CanUndo                  bool              `json:"canUndo"`
	MatchEnded               bool              `json:"matchEnded"`
	Version                  int64             `json:"version"`
}

// SubstitutionOutcome reports a substitution. Applied is false for a repeated
// request whose outgoing player had already left the field.
type SubstitutionOutcome struct {
	Applied  bool     `json:"applied"`
	Outgoing []string `json:"outgoing"`
	Incoming []string `json:"incoming"`
	EventID  string   `json:"eventId,omitempty"`
	View     LiveView `json:"view"`
}

// MatchService defines the sideline use cases of a single match.
type MatchService interface {
	CreateMatch(ctx context.Context, in CreateMatchInput) (LiveView, error)
	GetLiveView(ctx context.Context, matchID string) (LiveView, error)

	StartPeriod(ctx context.Context, matchID string) (LiveView, error)
	PausePeriod(ctx context.Context, matchID string) (LiveView, error)
	ResumePeriod(ctx context.Context, matchID string) (LiveView, error)
	EndPeriod(ctx context.Context, matchID string) (LiveView, error)

	PerformSubstitution(ctx context.Context, matchID string, req substitution.Request) (SubstitutionOutcome, error)
	UndoSubstitution(ctx context.Context, matchID string) (LiveView, error)
	ChangeRole(ctx context.Context, matchID, playerID string, role model.Role) (LiveView, error)
	SwitchPositions(ctx context.Context, matchID, playerA, playerB string) (LiveView, error)
	SwitchGoalie(ctx context.Context, matchID, incomingID string) (LiveView, error)
	TogglePlayerInactive(ctx context.Context, matchID, playerID string) (LiveView, error)
	SavePeriodConfiguration(ctx context.Context, matchID string, positions map[model.Position]string) (LiveView, error)
	RecordGoal(ctx context.Context, matchID string, own bool, scorerID string) (LiveView, error)

	ListEvents(ctx context.Context, matchID string) ([]model.GameEvent, error)
	FinalStats(ctx context.Context, matchID string) (model.FinalStats, error)
	ResetMatch(ctx context.Context, matchID string) error
}
