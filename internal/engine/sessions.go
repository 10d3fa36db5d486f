package engine

import (
	"time"

	"github.com/sadopc/worklog/internal/domain"
)

// SessionOp is an operation on an existing work session.
type SessionOp string

const (
	OpPause    SessionOp = "pause"
	OpResume   SessionOp = "resume"
	OpClockOut SessionOp = "clock out"
)

var sessionOps = []SessionOp{OpPause, OpResume, OpClockOut}

// workSessionTransitions lists every allowed (state, op) pair. Anything
// missing, including self-transitions and everything out of COMPLETED, is
// an invalid transition.
var workSessionTransitions = map[domain.SessionStatus]map[SessionOp]domain.SessionStatus{
	domain.SessionActive: {
		OpPause:    domain.SessionPaused,
		OpClockOut: domain.SessionCompleted,
	},
	domain.SessionPaused: {
		OpResume:   domain.SessionActive,
		OpClockOut: domain.SessionCompleted,
	},
}

// NextSessionStatus looks up the state op leads to from the given state.
func NextSessionStatus(from domain.SessionStatus, op SessionOp) (domain.SessionStatus, bool) {
	next, ok := workSessionTransitions[from][op]
	return next, ok
}

// CheckClockIn fails if any of the user's sessions is still open, in any
// workspace.
func CheckClockIn(sessions []domain.WorkSession) error {
	for _, s := range sessions {
		if s.Status.Open() {
			return domain.ConflictingActiveSession(s.ID)
		}
	}
	return nil
}

func NewWorkSession(userID, workspaceID string, now time.Time) domain.WorkSession {
	now = now.UTC()
	return domain.WorkSession{
		UserID:      userID,
		WorkspaceID: workspaceID,
		Status:      domain.SessionActive,
		ClockedInAt: now,
		Date:        now.Format(domain.DateLayout),
	}
}

// ApplyWorkSessionOp returns the session after op, or InvalidTransition.
func ApplyWorkSessionOp(s domain.WorkSession, op SessionOp, now time.Time) (domain.WorkSession, error) {
	next, ok := NextSessionStatus(s.Status, op)
	if !ok {
		return s, domain.InvalidTransition("work session", s.ID, string(s.Status), string(op))
	}
	now = now.UTC()

	switch op {
	case OpPause:
		s.PausedAt = &now
	case OpResume:
		s.PausedMinutes += pausedSpan(s, now)
		s.PausedAt = nil
	case OpClockOut:
		if s.Status == domain.SessionPaused {
			s.PausedMinutes += pausedSpan(s, now)
			s.PausedAt = nil
		}
		s.ClockedOutAt = &now
	}
	s.Status = next
	return s, nil
}

func pausedSpan(s domain.WorkSession, now time.Time) int {
	if s.PausedAt == nil || now.Before(*s.PausedAt) {
		return 0
	}
	return int(now.Sub(*s.PausedAt) / time.Minute)
}

// WorkedMinutes is the clocked-in time minus paused time, in whole minutes.
func WorkedMinutes(s domain.WorkSession, now time.Time) int {
	end := now
	if s.ClockedOutAt != nil {
		end = *s.ClockedOutAt
	}
	paused := s.PausedMinutes
	if s.ClockedOutAt == nil {
		paused += pausedSpan(s, now)
	}
	worked := int(end.Sub(s.ClockedInAt)/time.Minute) - paused
	if worked < 0 {
		return 0
	}
	return worked
}

// ============================================================
// Timer
// ============================================================

// CheckTimerStart fails when the user already has a running entry.
func CheckTimerStart(running *domain.TimeEntry) error {
	if running != nil && running.Running() {
		return domain.ConflictingActiveEntry(running.ID)
	}
	return nil
}

func NewTimeEntry(userID, taskID, notes string, now time.Time) domain.TimeEntry {
	return domain.TimeEntry{
		UserID:    userID,
		TaskID:    taskID,
		StartedAt: now.UTC(),
		Notes:     notes,
	}
}

// StopTimeEntry ends a running entry at now. A clock that reads earlier
// than the start ends the entry at its start.
func StopTimeEntry(e domain.TimeEntry, now time.Time) (domain.TimeEntry, error) {
	if !e.Running() {
		return e, domain.AlreadyStopped("time entry", e.ID)
	}
	end := now.UTC()
	if end.Before(e.StartedAt) {
		end = e.StartedAt
	}
	e.EndedAt = &end
	return e, nil
}

// EntryMinutes is a stopped entry's length rounded to whole minutes.
func EntryMinutes(e domain.TimeEntry) int {
	if e.EndedAt == nil {
		return 0
	}
	return roundMinutes(e.EndedAt.Sub(e.StartedAt))
}

// TaskActualMinutes sums the per-entry rounded minutes.
func TaskActualMinutes(entries []domain.TimeEntry) int {
	total := 0
	for _, e := range entries {
		total += EntryMinutes(e)
	}
	return total
}

func roundMinutes(d time.Duration) int {
	return roundHalfUp(float64(d) / float64(time.Minute))
}

// ============================================================
// Breaks
// ============================================================

// CheckBreakStart validates the type, then fails if a break is running.
func CheckBreakStart(running *domain.Break, t domain.BreakType) error {
	if !t.Valid() {
		return domain.InvalidBreakType(t)
	}
	if running != nil && running.Running() {
		return domain.ConflictingActiveBreak(running.ID)
	}
	return nil
}

func NewBreak(userID string, t domain.BreakType, notes string, now time.Time) domain.Break {
	return domain.Break{
		UserID:    userID,
		Type:      t,
		StartedAt: now.UTC(),
		Notes:     notes,
	}
}

func StopBreak(b domain.Break, now time.Time) (domain.Break, error) {
	if !b.Running() {
		return b, domain.AlreadyStopped("break", b.ID)
	}
	end := now.UTC()
	if end.Before(b.StartedAt) {
		end = b.StartedAt
	}
	mins := roundMinutes(end.Sub(b.StartedAt))
	b.EndedAt = &end
	b.DurationMinutes = &mins
	return b, nil
}

type BreakStats struct {
	Date              string
	TotalBreakMinutes int
	BreakCount        int
	ByType            map[domain.BreakType]int
}

// CalculateBreakStats summarizes the breaks started on the UTC day of day.
// Running breaks count toward BreakCount but add no minutes.
func CalculateBreakStats(breaks []domain.Break, day time.Time) BreakStats {
	w := DateRange(domain.PeriodDaily, day)
	stats := BreakStats{
		Date:   w.Start.Format(domain.DateLayout),
		ByType: make(map[domain.BreakType]int),
	}
	for _, b := range breaks {
		if !w.Contains(b.StartedAt) {
			continue
		}
		stats.BreakCount++
		if b.DurationMinutes != nil {
			stats.TotalBreakMinutes += *b.DurationMinutes
			stats.ByType[b.Type] += *b.DurationMinutes
		}
	}
	return stats
}
