package domain

import "time"

// DateLayout is the calendar-day format used for session dates and stats queries.
const DateLayout = "2006-01-02"

type Project struct {
	ID        string
	UserID    string
	Name      string
	Color     string
	Archived  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Task is a unit of work. A task with a ParentTaskID is a sub-task and can
// not have sub-tasks of its own.
type Task struct {
	ID               string
	UserID           string
	ProjectID        string
	ParentTaskID     *string
	Title            string
	Type             string // free-form category, e.g. "coding"
	Difficulty       Difficulty
	Progress         int // 0-100
	Status           TaskStatus
	EstimatedMinutes *int
	ActualMinutes    int
	CompletedAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (t Task) IsSubtask() bool { return t.ParentTaskID != nil }

// TimeEntry is one timer run against a task. EndedAt is nil while running.
type TimeEntry struct {
	ID        string
	UserID    string
	TaskID    string
	StartedAt time.Time
	EndedAt   *time.Time
	Notes     string
	CreatedAt time.Time
}

func (e TimeEntry) Running() bool { return e.EndedAt == nil }

type Break struct {
	ID              string
	UserID          string
	Type            BreakType
	StartedAt       time.Time
	EndedAt         *time.Time
	DurationMinutes *int // nil while running
	Notes           string
	CreatedAt       time.Time
}

func (b Break) Running() bool { return b.EndedAt == nil }

type WorkSession struct {
	ID            string
	UserID        string
	WorkspaceID   string
	Status        SessionStatus
	ClockedInAt   time.Time
	ClockedOutAt  *time.Time
	Date          string // YYYY-MM-DD (UTC) of clock-in
	PausedAt      *time.Time
	PausedMinutes int
	CreatedAt     time.Time
}

// Goal progress is never stored; it is recomputed for the current period window.
type Goal struct {
	ID          string
	UserID      string
	WorkspaceID string
	Title       string
	Type        GoalType
	TargetValue int
	Period      GoalPeriod
	IsActive    bool
	CreatedAt   time.Time
}

type PointsLedgerEntry struct {
	ID        string
	UserID    string
	Points    int
	Reason    string
	TaskID    *string
	CreatedAt time.Time
}

// DailyScore is a recorded snapshot of one user's score for one day.
type DailyScore struct {
	UserID      string
	Date        string
	TotalPoints int
	TaskCount   int
	RecordedAt  time.Time
}

type Setting struct {
	Key   string
	Value string
}
