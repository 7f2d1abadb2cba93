// Package response centralizes HTTP response shapes and helpers.
// Handlers rely on it to keep controllers thin and uniform.
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/sideline-rotation/internal/formation"
	"github.com/maxviazov/sideline-rotation/internal/repository"
	"github.com/maxviazov/sideline-rotation/internal/service"
	"github.com/maxviazov/sideline-rotation/internal/substitution"
)

// ErrorPayload is the canonical error envelope returned by the API.
type ErrorPayload struct {
	Error       string               `json:"error"`
	Message     string               `json:"message,omitempty"`
	FieldErrors []service.FieldError `json:"field_errors,omitempty"`
}

// conflicts are operator mistakes against the current match state; the
// client can refresh and retry.
var conflicts = []struct {
	err  error
	code string
}{
	{substitution.ErrNoEligibleSubstitute, "no_eligible_substitute"},
	{substitution.ErrNotOnField, "not_on_field"},
	{substitution.ErrNotSubstitute, "not_substitute"},
	{substitution.ErrPlayerInactive, "player_inactive"},
	{service.ErrNoPendingSubstitution, "no_pending_substitution"},
	{service.ErrPeriodRunning, "period_running"},
	{service.ErrPeriodNotRunning, "period_not_running"},
	{service.ErrMatchOver, "match_over"},
	{service.ErrIncompleteMatchData, "incomplete_match_data"},
	{substitution.ErrInvalidTransition, "invalid_period_transition"},
	{repository.ErrAlreadyExists, "already_exists"},
	{repository.ErrConflict, "conflict"},
}

// MapError converts a domain / infrastructure error into an HTTP status and payload.
// Extend here as new domain error categories emerge.
func MapError(err error) (int, ErrorPayload) {
	if err == nil {
		return http.StatusOK, ErrorPayload{Error: "ok"}
	}

	if errors.Is(err, service.ErrInvalidInput) {
		return http.StatusBadRequest, ErrorPayload{
			Error:       "invalid_input",
			Message:     "one or more fields are invalid",
			FieldErrors: service.FieldErrors(err),
		}
	}
	var ife *formation.InvalidFormationError
	if errors.As(err, &ife) {
		fe := make([]service.FieldError, 0, len(ife.Issues))
		for _, is := range ife.Issues {
			fe = append(fe, service.FieldError{Field: is.Field, Message: is.Message})
		}
		return http.StatusBadRequest, ErrorPayload{
			Error:       "invalid_formation",
			Message:     "lineup does not fit the team format",
			FieldErrors: fe,
		}
	}
	// State desync wins over anything it wraps.
	if errors.Is(err, substitution.ErrStateDesync) {
		return http.StatusInternalServerError, ErrorPayload{
			Error:   "state_desync",
			Message: "match state is inconsistent; consider resetting the period",
		}
	}

	for _, c := range conflicts {
		if errors.Is(err, c.err) {
			return http.StatusConflict, ErrorPayload{Error: c.code, Message: c.err.Error()}
		}
	}

	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, ErrorPayload{Error: "not_found"}
	case errors.Is(err, substitution.ErrPlayerNotFound):
		return http.StatusNotFound, ErrorPayload{Error: "player_not_found", Message: err.Error()}
	case errors.Is(err, service.ErrNoMatchID):
		return http.StatusBadRequest, ErrorPayload{Error: "missing_match_id"}
	case errors.Is(err, substitution.ErrInvalidRole):
		return http.StatusBadRequest, ErrorPayload{Error: "invalid_role", Message: err.Error()}
	case errors.Is(err, formation.ErrInvalidFormation):
		return http.StatusBadRequest, ErrorPayload{Error: "invalid_formation", Message: err.Error()}
	default:
		return http.StatusInternalServerError, ErrorPayload{Error: "internal_error"}
	}
}

// WriteError writes an error response and aborts the context.
func WriteError(c *gin.Context, err error) {
	status, payload := MapError(err)
	c.AbortWithStatusJSON(status, payload)
}

// WriteData writes a successful JSON response.
func WriteData(c *gin.Context, status int, data any) {
	c.JSON(status, data)
}
