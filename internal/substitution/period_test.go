package substitution_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/maxviazov/sideline-rotation/internal/model"
	"github.com/maxviazov/sideline-rotation/internal/substitution"
)

func TestNextPeriodState(t *testing.T) {
	cases := []struct {
		from   model.PeriodState
		action substitution.PeriodAction
		want   model.PeriodState
		ok     bool
	}{
		{model.PeriodNotStarted, substitution.ActionStart, model.PeriodRunning, true},
		{model.PeriodNotStarted, substitution.ActionPause, model.PeriodNotStarted, false},
		{model.PeriodNotStarted, substitution.ActionEnd, model.PeriodNotStarted, false},
		{model.PeriodRunning, substitution.ActionPause, model.PeriodPaused, true},
		{model.PeriodRunning, substitution.ActionStart, model.PeriodRunning, false},
		{model.PeriodRunning, substitution.ActionResume, model.PeriodRunning, false},
		{model.PeriodRunning, substitution.ActionEnd, model.PeriodEnded, true},
		{model.PeriodPaused, substitution.ActionResume, model.PeriodRunning, true},
		{model.PeriodPaused, substitution.ActionEnd, model.PeriodEnded, true},
		{model.PeriodPaused, substitution.ActionPause, model.PeriodPaused, false},
		{model.PeriodEnded, substitution.ActionStart, model.PeriodRunning, true},
		{model.PeriodEnded, substitution.ActionResume, model.PeriodEnded, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"_"+string(tc.action), func(t *testing.T) {
			got, err := substitution.NextPeriodState(tc.from, tc.action)
			assert.Equal(t, tc.want, got)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, substitution.ErrInvalidTransition)
			}
		})
	}
}
