package engine

import (
	"time"

	"github.com/sadopc/worklog/internal/domain"
)

// Window is an inclusive UTC time range with millisecond resolution.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

const endOfDay = 24*time.Hour - time.Millisecond

// DateRange resolves a goal period to the window containing ref: the UTC
// calendar day for DAILY, the Monday to Sunday UTC week for WEEKLY.
func DateRange(period domain.GoalPeriod, ref time.Time) Window {
	ref = ref.UTC()
	day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)

	if period == domain.PeriodWeekly {
		offset := int(day.Weekday()) - 1
		if day.Weekday() == time.Sunday {
			offset = 6
		}
		start := day.AddDate(0, 0, -offset)
		return Window{Start: start, End: start.AddDate(0, 0, 6).Add(endOfDay)}
	}
	return Window{Start: day, End: day.Add(endOfDay)}
}

// GoalRecords are the already-fetched rows a goal's progress is computed from.
type GoalRecords struct {
	Tasks       []domain.Task
	TimeEntries []domain.TimeEntry
	Points      []domain.PointsLedgerEntry
}

type GoalProgress struct {
	Goal       domain.Goal
	Window     Window
	Current    int
	Target     int
	Percentage int
	Achieved   bool
}

func CalculateProgress(goal domain.Goal, records GoalRecords, ref time.Time) GoalProgress {
	w := DateRange(goal.Period, ref)

	var current int
	switch goal.Type {
	case domain.GoalTasksCompleted:
		current = countCompleted(records.Tasks, w)
	case domain.GoalFocusMinutes:
		current = focusMinutes(records.TimeEntries, w)
	case domain.GoalPointsEarned:
		current = pointsEarned(records.Points, w)
	case domain.GoalCustom:
		current = 0
	}

	return GoalProgress{
		Goal:       goal,
		Window:     w,
		Current:    current,
		Target:     goal.TargetValue,
		Percentage: Percentage(current, goal.TargetValue),
		Achieved:   goal.TargetValue > 0 && current >= goal.TargetValue,
	}
}

// Percentage is round(current/target*100), or 0 for a non-positive target.
func Percentage(current, target int) int {
	if target <= 0 {
		return 0
	}
	return roundHalfUp(float64(current) / float64(target) * 100)
}

func countCompleted(tasks []domain.Task, w Window) int {
	n := 0
	for _, t := range tasks {
		if t.Status == domain.StatusCompleted && t.CompletedAt != nil && w.Contains(*t.CompletedAt) {
			n++
		}
	}
	return n
}

func focusMinutes(entries []domain.TimeEntry, w Window) int {
	total := 0
	for _, e := range entries {
		if e.EndedAt == nil || !w.Contains(e.StartedAt) {
			continue
		}
		total += int(e.EndedAt.Sub(e.StartedAt) / time.Minute)
	}
	return total
}

func pointsEarned(points []domain.PointsLedgerEntry, w Window) int {
	total := 0
	for _, p := range points {
		if w.Contains(p.CreatedAt) {
			total += p.Points
		}
	}
	return total
}
