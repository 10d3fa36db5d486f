package engine

import (
	"fmt"
	"time"

	"github.com/sadopc/worklog/internal/domain"
)

const (
	efficiencyBonusRate = 0.2
	focusBonusRate      = 0.1
	focusTypeThreshold  = 3
)

// ScoreContext is the day-level information a task score depends on.
type ScoreContext struct {
	TaskTypesWorkedToday int
}

// TaskScore breaks a task's points into components. The float components
// are rounded to one decimal for display; TotalPoints is computed from the
// unrounded values and is the source of truth.
type TaskScore struct {
	TaskID          string
	BasePoints      float64
	EfficiencyBonus float64
	FocusBonus      float64
	TotalPoints     int
}

// DifficultyMultiplier maps a difficulty to its point weight. Unknown
// difficulties are worth nothing.
func DifficultyMultiplier(d domain.Difficulty) float64 {
	switch d {
	case domain.DifficultyTrivial:
		return 1
	case domain.DifficultyEasy:
		return 2
	case domain.DifficultyMedium:
		return 3
	case domain.DifficultyHard:
		return 5
	case domain.DifficultyExtreme:
		return 8
	}
	return 0
}

func CalculateTaskScore(task domain.Task, ctx ScoreContext) TaskScore {
	base := DifficultyMultiplier(task.Difficulty) * (float64(task.Progress) / 100)

	var efficiency float64
	if task.Progress == 100 && task.EstimatedMinutes != nil && task.ActualMinutes < *task.EstimatedMinutes {
		efficiency = base * efficiencyBonusRate
	}

	var focus float64
	if ctx.TaskTypesWorkedToday >= focusTypeThreshold {
		focus = base * focusBonusRate
	}

	return TaskScore{
		TaskID:          task.ID,
		BasePoints:      roundTenths(base),
		EfficiencyBonus: roundTenths(efficiency),
		FocusBonus:      roundTenths(focus),
		TotalPoints:     roundHalfUp(base + efficiency + focus),
	}
}

// CalculateEfficiency is estimated/actual minutes; above 1 means the task
// finished early. Without an estimate or any tracked time it is 1.
func CalculateEfficiency(task domain.Task) float64 {
	if task.EstimatedMinutes == nil || task.ActualMinutes == 0 {
		return 1.0
	}
	return float64(*task.EstimatedMinutes) / float64(task.ActualMinutes)
}

func EfficiencyLabel(ratio float64) string {
	switch {
	case ratio >= 1.5:
		return "Exceptional"
	case ratio >= 1.2:
		return "Excellent"
	case ratio >= 1.0:
		return "Good"
	case ratio >= 0.8:
		return "Fair"
	default:
		return "Needs Improvement"
	}
}

// ScoreTasks scores every task and returns the lines with their sum.
func ScoreTasks(tasks []domain.Task, ctx ScoreContext) ([]TaskScore, int) {
	scores := make([]TaskScore, 0, len(tasks))
	total := 0
	for _, t := range tasks {
		s := CalculateTaskScore(t, ctx)
		scores = append(scores, s)
		total += s.TotalPoints
	}
	return scores, total
}

func CalculateDailyScore(completed []domain.Task, ctx ScoreContext) int {
	_, total := ScoreTasks(completed, ctx)
	return total
}

// CalculateTrend compares today's score to the running average.
func CalculateTrend(todayScore, averageScore float64) float64 {
	if averageScore == 0 {
		return 1.0
	}
	return todayScore / averageScore
}

type TrendDirection string

const (
	TrendSurging  TrendDirection = "SURGING"
	TrendUp       TrendDirection = "UP"
	TrendFlat     TrendDirection = "FLAT"
	TrendDown     TrendDirection = "DOWN"
	TrendSlumping TrendDirection = "SLUMPING"
)

type Trend struct {
	Percent   int
	Direction TrendDirection
	Message   string
}

// TrendLabel classifies a trend ratio by its rounded percentage change.
func TrendLabel(trend float64) Trend {
	pct := roundHalfUp((trend - 1) * 100)
	switch {
	case pct > 20:
		return Trend{pct, TrendSurging, fmt.Sprintf("On fire! %d%% above your average", pct)}
	case pct > 0:
		return Trend{pct, TrendUp, fmt.Sprintf("%d%% above your average", pct)}
	case pct == 0:
		return Trend{pct, TrendFlat, "Right on your average"}
	case pct > -20:
		return Trend{pct, TrendDown, fmt.Sprintf("%d%% below your average", -pct)}
	default:
		return Trend{pct, TrendSlumping, fmt.Sprintf("%d%% below your average. Tomorrow is a fresh start", -pct)}
	}
}

// TaskTypesWorkedToday counts the distinct task types that had a time entry
// starting on the UTC day containing day.
func TaskTypesWorkedToday(tasks []domain.Task, entries []domain.TimeEntry, day time.Time) int {
	w := DateRange(domain.PeriodDaily, day)
	byID := make(map[string]domain.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	types := make(map[string]struct{})
	for _, e := range entries {
		if !w.Contains(e.StartedAt) {
			continue
		}
		t, ok := byID[e.TaskID]
		if !ok || t.Type == "" {
			continue
		}
		types[t.Type] = struct{}{}
	}
	return len(types)
}

// AverageScore is the mean of the recorded daily totals, 0 when empty.
func AverageScore(history []domain.DailyScore) float64 {
	if len(history) == 0 {
		return 0
	}
	sum := 0
	for _, h := range history {
		sum += h.TotalPoints
	}
	return float64(sum) / float64(len(history))
}
