// Package timer implements the pause-aware match clock and the derived
// match and substitution timers.
package timer

import (
	"time"

	clock "github.com/itbasis/go-clock"

	"github.com/maxviazov/sideline-rotation/internal/model"
)

// Source is the subset of clock.Clock the match clock reads from.
type Source interface {
	Now() time.Time
}

// Clock produces epoch-millisecond timestamps and remembers every pause so
// elapsed time can be measured without the paused stretches.
type Clock struct {
	src    Source
	ledger model.PauseLedger
}

// New builds a running clock. A nil source means wall time.
func New(src Source) *Clock {
	return FromLedger(src, model.PauseLedger{})
}

// FromLedger rebuilds a clock from persisted pause state.
func FromLedger(src Source, ledger model.PauseLedger) *Clock {
	if src == nil {
		src = clock.New()
	}
	return &Clock{src: src, ledger: ledger.Clone()}
}

// Now returns the current epoch milliseconds.
func (c *Clock) Now() int64 {
	return c.src.Now().UnixMilli()
}

// Paused reports whether a pause is in progress.
func (c *Clock) Paused() bool { return c.ledger.PauseStartEpoch != 0 }

// Pause marks the start of a pause. Pausing twice keeps the first mark.
func (c *Clock) Pause(now int64) bool {
	if c.Paused() {
		return false
	}
	c.ledger.PauseStartEpoch = now
	return true
}

// Resume folds the running pause into the ledger. It is a no-op when not paused.
func (c *Clock) Resume(now int64) bool {
	if !c.Paused() {
		return false
	}
	start := c.ledger.PauseStartEpoch
	if now < start {
		now = start
	}
	c.ledger.Intervals = append(c.ledger.Intervals, model.PauseInterval{Start: start, End: now})
	c.ledger.TotalPausedMillis += now - start
	c.ledger.PauseStartEpoch = 0
	return true
}

// ElapsedSince returns milliseconds between mark and now, minus any paused time.
func (c *Clock) ElapsedSince(mark, now int64) int64 {
	return ActiveMillis(c.ledger, mark, now)
}

// Ledger returns a copy of the pause state for persistence.
func (c *Clock) Ledger() model.PauseLedger { return c.ledger.Clone() }

// ActiveMillis is the pause-free time between from and to according to ledger.
func ActiveMillis(ledger model.PauseLedger, from, to int64) int64 {
	if from <= 0 || to <= from {
		return 0
	}
	total := to - from
	for _, iv := range ledger.Intervals {
		total -= overlap(iv.Start, iv.End, from, to)
	}
	if ledger.PauseStartEpoch != 0 {
		total -= overlap(ledger.PauseStartEpoch, to, from, to)
	}
	if total < 0 {
		return 0
	}
	return total
}

func overlap(s, e, from, to int64) int64 {
	lo := max(s, from)
	hi := min(e, to)
	if hi <= lo {
		return 0
	}
	return hi - lo
}
