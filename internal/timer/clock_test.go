package timer_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/sideline-rotation/internal/model"
	"github.com/maxviazov/sideline-rotation/internal/timer"
)

const base int64 = 1_700_000_000_000

func sec(s int64) int64 { return base + s*1000 }

type fixedSource struct{ t time.Time }

func (f *fixedSource) Now() time.Time { return f.t }

func TestClock_NowUsesSource(t *testing.T) {
	src := &fixedSource{t: time.UnixMilli(sec(42))}
	c := timer.New(src)
	assert.Equal(t, sec(42), c.Now())
}

func TestClock_ResumeWithoutPauseIsNoop(t *testing.T) {
	c := timer.New(nil)
	assert.False(t, c.Resume(sec(10)))
	assert.Empty(t, c.Ledger().Intervals)
	assert.Zero(t, c.Ledger().TotalPausedMillis)
}

func TestClock_DoublePauseKeepsFirstMark(t *testing.T) {
	c := timer.New(nil)
	require.True(t, c.Pause(sec(10)))
	assert.False(t, c.Pause(sec(20)))
	require.True(t, c.Resume(sec(30)))
	assert.Equal(t, int64(20_000), c.Ledger().TotalPausedMillis)
}

func TestClock_ElapsedSince(t *testing.T) {
	c := timer.New(nil)
	c.Pause(sec(600))
	c.Resume(sec(900))

	cases := []struct {
		name      string
		mark, now int64
		want      int64
	}{
		{"before pause", sec(0), sec(500), 500_000},
		{"spanning pause", sec(0), sec(920), 620_000},
		{"mark inside pause", sec(700), sec(920), 20_000},
		{"entirely inside pause", sec(650), sec(850), 0},
		{"after resume", sec(900), sec(960), 60_000},
		{"now before mark", sec(50), sec(10), 0},
		{"unset mark", 0, sec(10), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, c.ElapsedSince(tc.mark, tc.now))
		})
	}
}

func TestClock_ElapsedSinceDuringOngoingPause(t *testing.T) {
	c := timer.New(nil)
	c.Pause(sec(100))
	assert.Equal(t, int64(100_000), c.ElapsedSince(sec(0), sec(400)))
	assert.True(t, c.Paused())
}

func TestClock_FromLedgerRoundTrip(t *testing.T) {
	c := timer.New(nil)
	c.Pause(sec(10))
	c.Resume(sec(20))
	c.Pause(sec(30))

	restored := timer.FromLedger(nil, c.Ledger())
	assert.True(t, restored.Paused())
	assert.Equal(t, c.ElapsedSince(sec(0), sec(50)), restored.ElapsedSince(sec(0), sec(50)))
}

func TestCalculateUndoTimerTarget(t *testing.T) {
	ledger := model.PauseLedger{Intervals: []model.PauseInterval{{Start: sec(110), End: sec(140)}}}

	assert.Equal(t, int64(95), timer.CalculateUndoTimerTarget(45, sec(100), ledger, sec(180)))
	assert.Equal(t, int64(45), timer.CalculateUndoTimerTarget(45, sec(100), model.PauseLedger{}, sec(100)))
	assert.Equal(t, int64(10), timer.CalculateUndoTimerTarget(-5, sec(100), model.PauseLedger{}, sec(110)))
}

func TestSubTimer(t *testing.T) {
	ledger := model.PauseLedger{PauseStartEpoch: sec(30)}
	st := timer.ResetSubTimer(sec(0))
	assert.Equal(t, int64(30), timer.SubTimerSeconds(ledger, st, sec(90)))

	st = timer.SubTimerAt(12, sec(100))
	assert.Equal(t, int64(17), timer.SubTimerSeconds(model.PauseLedger{}, st, sec(105)))
	assert.Equal(t, int64(0), timer.SubTimerSeconds(model.PauseLedger{}, model.SubTimerState{}, sec(105)))
}

func TestMatchTimerSeconds(t *testing.T) {
	ledger := model.PauseLedger{Intervals: []model.PauseInterval{{Start: sec(600), End: sec(900)}}}
	assert.Equal(t, int64(620), timer.MatchTimerSeconds(ledger, sec(0), 0, sec(920)))
	assert.Equal(t, int64(1520), timer.MatchTimerSeconds(ledger, sec(0), 900, sec(920)))
}
