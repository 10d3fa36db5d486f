package service

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/sadopc/worklog/internal/domain"
	"github.com/sadopc/worklog/internal/engine"
)

const (
	DefaultTrendWindow = 7
	maxTrendWindow     = 90

	// SettingTrendWindow names the stored override for the trend window.
	SettingTrendWindow = "trend_window_days"
)

type ScoreService struct {
	core
	tasks    TaskRepository
	entries  TimeEntryRepository
	scores   DailyScoreRepository
	settings SettingsRepository
}

func NewScoreService(tasks TaskRepository, entries TimeEntryRepository, scores DailyScoreRepository, settings SettingsRepository, log *zap.Logger, opts ...Option) *ScoreService {
	return &ScoreService{core: newCore(log, opts), tasks: tasks, entries: entries, scores: scores, settings: settings}
}

// DailyReport is a day's score with its per-task breakdown and its trend
// against the recorded snapshots of the previous days.
type DailyReport struct {
	Date        string
	Tasks       []domain.Task
	Lines       []engine.TaskScore
	TotalPoints int
	Context     engine.ScoreContext
	Average     float64
	Trend       float64
	Label       engine.Trend
}

// TaskScore scores one task against the day containing day.
func (s *ScoreService) TaskScore(ctx context.Context, userID, taskID string, day time.Time) (engine.TaskScore, error) {
	t, err := ownedTask(ctx, s.tasks, userID, taskID)
	if err != nil {
		return engine.TaskScore{}, err
	}
	sc, err := s.scoreContext(ctx, userID, day)
	if err != nil {
		return engine.TaskScore{}, err
	}
	return engine.CalculateTaskScore(*t, sc), nil
}

// DailyScore scores the tasks completed on the YYYY-MM-DD date.
func (s *ScoreService) DailyScore(ctx context.Context, userID, date string) (*DailyReport, error) {
	day, err := domain.ParseDate("date", date)
	if err != nil {
		return nil, err
	}
	w := engine.DateRange(domain.PeriodDaily, day)
	completed, err := s.tasks.ListTasksCompletedBetween(ctx, userID, w.Start, w.End)
	if err != nil {
		return nil, err
	}
	sc, err := s.scoreContext(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	lines, total := engine.ScoreTasks(completed, sc)

	n := s.window(ctx)
	history, err := s.scores.ListDailyScores(ctx, userID,
		day.AddDate(0, 0, -n).Format(domain.DateLayout),
		day.AddDate(0, 0, -1).Format(domain.DateLayout))
	if err != nil {
		return nil, err
	}
	avg := engine.AverageScore(history)
	trend := engine.CalculateTrend(float64(total), avg)

	return &DailyReport{
		Date:        day.Format(domain.DateLayout),
		Tasks:       completed,
		Lines:       lines,
		TotalPoints: total,
		Context:     sc,
		Average:     avg,
		Trend:       trend,
		Label:       engine.TrendLabel(trend),
	}, nil
}

// RecordDailyScore stores the date's score as a snapshot, replacing any
// earlier snapshot for the same day.
func (s *ScoreService) RecordDailyScore(ctx context.Context, userID, date string) (*domain.DailyScore, error) {
	r, err := s.DailyScore(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	snap := domain.DailyScore{
		UserID:      userID,
		Date:        r.Date,
		TotalPoints: r.TotalPoints,
		TaskCount:   len(r.Tasks),
		RecordedAt:  s.clock(),
	}
	if err := s.scores.UpsertDailyScore(ctx, snap); err != nil {
		return nil, err
	}
	s.log.Info("daily score recorded", zap.String("user_id", userID), zap.String("date", snap.Date),
		zap.Int("points", snap.TotalPoints))
	return &snap, nil
}

// History returns the snapshots of the days days ending on date.
func (s *ScoreService) History(ctx context.Context, userID, date string, days int) ([]domain.DailyScore, error) {
	day, err := domain.ParseDate("date", date)
	if err != nil {
		return nil, err
	}
	if err := domain.IntRange("days", days, 1, maxTrendWindow); err != nil {
		return nil, err
	}
	return s.scores.ListDailyScores(ctx, userID,
		day.AddDate(0, 0, -(days-1)).Format(domain.DateLayout),
		day.Format(domain.DateLayout))
}

func (s *ScoreService) scoreContext(ctx context.Context, userID string, day time.Time) (engine.ScoreContext, error) {
	w := engine.DateRange(domain.PeriodDaily, day)
	tasks, err := s.tasks.ListTasksByUser(ctx, userID)
	if err != nil {
		return engine.ScoreContext{}, err
	}
	entries, err := s.entries.ListTimeEntriesBetween(ctx, userID, w.Start, w.End)
	if err != nil {
		return engine.ScoreContext{}, err
	}
	return engine.ScoreContext{TaskTypesWorkedToday: engine.TaskTypesWorkedToday(tasks, entries, day)}, nil
}

// window reads the stored trend window, falling back to the configured one.
func (s *ScoreService) window(ctx context.Context) int {
	if s.settings == nil {
		return s.trendWindow
	}
	v, err := s.settings.GetSetting(ctx, SettingTrendWindow)
	if err != nil || v == "" {
		return s.trendWindow
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > maxTrendWindow {
		s.log.Debug("ignoring trend window setting", zap.String("value", v))
		return s.trendWindow
	}
	return n
}
