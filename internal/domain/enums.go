package domain

// Difficulty grades how hard a task is; it drives the score multiplier.
type Difficulty string

const (
	DifficultyTrivial Difficulty = "TRIVIAL"
	DifficultyEasy    Difficulty = "EASY"
	DifficultyMedium  Difficulty = "MEDIUM"
	DifficultyHard    Difficulty = "HARD"
	DifficultyExtreme Difficulty = "EXTREME"
)

var Difficulties = []Difficulty{DifficultyTrivial, DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyExtreme}

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyTrivial, DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyExtreme:
		return true
	}
	return false
}

type TaskStatus string

const (
	StatusBacklog    TaskStatus = "BACKLOG"
	StatusTodo       TaskStatus = "TODO"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusBlocked    TaskStatus = "BLOCKED"
	StatusCompleted  TaskStatus = "COMPLETED"
	StatusArchived   TaskStatus = "ARCHIVED"
)

var TaskStatuses = []TaskStatus{StatusBacklog, StatusTodo, StatusInProgress, StatusBlocked, StatusCompleted, StatusArchived}

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusBacklog, StatusTodo, StatusInProgress, StatusBlocked, StatusCompleted, StatusArchived:
		return true
	}
	return false
}

type BreakType string

const (
	BreakCoffee  BreakType = "COFFEE"
	BreakWalk    BreakType = "WALK"
	BreakLunch   BreakType = "LUNCH"
	BreakStretch BreakType = "STRETCH"
	BreakCustom  BreakType = "CUSTOM"
)

var BreakTypes = []BreakType{BreakCoffee, BreakWalk, BreakLunch, BreakStretch, BreakCustom}

func (b BreakType) Valid() bool {
	switch b {
	case BreakCoffee, BreakWalk, BreakLunch, BreakStretch, BreakCustom:
		return true
	}
	return false
}

type SessionStatus string

const (
	SessionActive    SessionStatus = "ACTIVE"
	SessionPaused    SessionStatus = "PAUSED"
	SessionCompleted SessionStatus = "COMPLETED"
)

var SessionStatuses = []SessionStatus{SessionActive, SessionPaused, SessionCompleted}

// Open reports whether the session still counts as the user's active one.
func (s SessionStatus) Open() bool {
	return s == SessionActive || s == SessionPaused
}

type GoalType string

const (
	GoalTasksCompleted GoalType = "TASKS_COMPLETED"
	GoalFocusMinutes   GoalType = "FOCUS_MINUTES"
	GoalPointsEarned   GoalType = "POINTS_EARNED"
	GoalCustom         GoalType = "CUSTOM"
)

var GoalTypes = []GoalType{GoalTasksCompleted, GoalFocusMinutes, GoalPointsEarned, GoalCustom}

func (g GoalType) Valid() bool {
	switch g {
	case GoalTasksCompleted, GoalFocusMinutes, GoalPointsEarned, GoalCustom:
		return true
	}
	return false
}

type GoalPeriod string

const (
	PeriodDaily  GoalPeriod = "DAILY"
	PeriodWeekly GoalPeriod = "WEEKLY"
)

var GoalPeriods = []GoalPeriod{PeriodDaily, PeriodWeekly}

func (p GoalPeriod) Valid() bool {
	return p == PeriodDaily || p == PeriodWeekly
}
