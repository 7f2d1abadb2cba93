package substitution

import (
	"errors"
	"fmt"

	"github.com/maxviazov/sideline-rotation/internal/model"
)

// PeriodAction drives the period state machine.
type PeriodAction string

const (
	ActionStart  PeriodAction = "start"
	ActionPause  PeriodAction = "pause"
	ActionResume PeriodAction = "resume"
	ActionEnd    PeriodAction = "end"
)

var ErrInvalidTransition = errors.New("invalid period transition")

// not_started -> running <-> paused -> ended; ended -> running starts the next period.
var transitions = map[model.PeriodState]map[PeriodAction]model.PeriodState{
	model.PeriodNotStarted: {ActionStart: model.PeriodRunning},
	model.PeriodRunning:    {ActionPause: model.PeriodPaused, ActionEnd: model.PeriodEnded},
	model.PeriodPaused:     {ActionResume: model.PeriodRunning, ActionEnd: model.PeriodEnded},
	model.PeriodEnded:      {ActionStart: model.PeriodRunning},
}

// NextPeriodState returns the state reached by applying action to from.
func NextPeriodState(from model.PeriodState, action PeriodAction) (model.PeriodState, error) {
	if to, ok := transitions[from][action]; ok {
		return to, nil
	}
	return from, fmt.Errorf("%w: cannot %s a period that is %s", ErrInvalidTransition, action, from)
}
