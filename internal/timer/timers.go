package timer

import "github.com/maxviazov/sideline-rotation/internal/model"

// SubTimerSeconds is the time since the last substitution, pause-aware.
func SubTimerSeconds(ledger model.PauseLedger, st model.SubTimerState, now int64) int64 {
	if st.MarkEpoch == 0 {
		return st.BaseSeconds
	}
	return st.BaseSeconds + ActiveMillis(ledger, st.MarkEpoch, now)/1000
}

// ResetSubTimer restarts the substitution timer at now.
func ResetSubTimer(now int64) model.SubTimerState {
	return model.SubTimerState{MarkEpoch: now}
}

// SubTimerAt makes the substitution timer read seconds at now and keep counting.
func SubTimerAt(seconds, now int64) model.SubTimerState {
	if seconds < 0 {
		seconds = 0
	}
	return model.SubTimerState{BaseSeconds: seconds, MarkEpoch: now}
}

// MatchTimerSeconds is the played time of the match: finished periods plus the
// active part of the current one.
func MatchTimerSeconds(ledger model.PauseLedger, periodStart, completedSeconds, now int64) int64 {
	return completedSeconds + ActiveMillis(ledger, periodStart, now)/1000
}

// CalculateUndoTimerTarget returns what the substitution timer should show
// after undoing the substitution made at substitutionEpoch: the value it had
// then, plus the active time that passed since.
func CalculateUndoTimerTarget(priorSubTimerSeconds, substitutionEpoch int64, ledger model.PauseLedger, now int64) int64 {
	if priorSubTimerSeconds < 0 {
		priorSubTimerSeconds = 0
	}
	return priorSubTimerSeconds + ActiveMillis(ledger, substitutionEpoch, now)/1000
}
