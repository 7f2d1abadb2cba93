// Package events keeps the append-only audit trail of a match. A Logger is
// owned by one match session; there is no process-wide log. Earlier events
// live in storage, and undo flags them there.
package events

import (
	"github.com/google/uuid"

	"github.com/maxviazov/sideline-rotation/internal/model"
)

// Logger records the events of one session for a single match.
type Logger struct {
	matchID string
	seq     int64
	pending []model.GameEvent
	newID   func() string
}

// Continue starts a log whose next event follows seq. Pass 0 for a new match.
func Continue(matchID string, seq int64) *Logger {
	return &Logger{matchID: matchID, seq: seq, newID: func() string { return uuid.NewString() }}
}

// Sequence is the sequence number of the latest event.
func (l *Logger) Sequence() int64 { return l.seq }

// Append records a new event and returns it.
func (l *Logger) Append(typ model.EventType, ts, matchTime int64, period int, data map[string]any) model.GameEvent {
	l.seq++
	e := model.GameEvent{
		ID:        l.newID(),
		MatchID:   l.matchID,
		Type:      typ,
		Timestamp: ts,
		MatchTime: matchTime,
		Sequence:  l.seq,
		Period:    period,
		Data:      data,
	}
	l.pending = append(l.pending, e)
	return e
}

// Drain returns events appended since the previous Drain, for persistence.
func (l *Logger) Drain() []model.GameEvent {
	out := l.pending
	l.pending = nil
	return out
}
