package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/worklog/internal/domain"
	"github.com/sadopc/worklog/internal/engine"
)

// seedScoredDay completes a HARD task under its estimate after working on
// three task types, which scores 5 + 1 + 0.5 = 6.5 -> 7 points.
func seedScoredDay(t *testing.T, svc *Services, clock *fakeClock) *domain.Task {
	t.Helper()
	ctx := context.Background()
	p := mustProject(t, svc, alice)
	hard := mustTask(t, svc, alice, CreateTaskInput{
		ProjectID: p.ID, Title: "Feature", Type: "coding", Difficulty: domain.DifficultyHard, EstimatedMinutes: intPtr(60),
	})
	other1 := mustTask(t, svc, alice, CreateTaskInput{ProjectID: p.ID, Title: "Docs", Type: "writing"})
	other2 := mustTask(t, svc, alice, CreateTaskInput{ProjectID: p.ID, Title: "PR", Type: "review"})

	work := func(id string, d time.Duration) {
		e, err := svc.Timer.Start(ctx, alice, StartTimerInput{TaskID: id})
		require.NoError(t, err)
		clock.Advance(d)
		_, err = svc.Timer.Stop(ctx, alice, e.ID)
		require.NoError(t, err)
	}
	work(hard.ID, 45*time.Minute)
	work(other1.ID, 10*time.Minute)
	work(other2.ID, 10*time.Minute)

	done, err := svc.Tasks.CompleteTask(ctx, alice, hard.ID)
	require.NoError(t, err)
	require.Equal(t, 45, done.ActualMinutes)
	return done
}

func TestDailyScore(t *testing.T) {
	svc, _, clock := newTestServices(t)
	ctx := context.Background()
	task := seedScoredDay(t, svc, clock)

	r, err := svc.Scores.DailyScore(ctx, alice, "2026-02-12")
	require.NoError(t, err)
	assert.Equal(t, 3, r.Context.TaskTypesWorkedToday)
	require.Len(t, r.Lines, 1)
	assert.Equal(t, task.ID, r.Lines[0].TaskID)
	assert.Equal(t, 5.0, r.Lines[0].BasePoints)
	assert.Equal(t, 1.0, r.Lines[0].EfficiencyBonus)
	assert.Equal(t, 0.5, r.Lines[0].FocusBonus)
	assert.Equal(t, 7, r.TotalPoints)

	// No history: the trend is neutral.
	assert.Equal(t, 1.0, r.Trend)
	assert.Equal(t, engine.TrendFlat, r.Label.Direction)

	score, err := svc.Scores.TaskScore(ctx, alice, task.ID, clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 7, score.TotalPoints)

	_, err = svc.Scores.TaskScore(ctx, bob, task.ID, clock.Now())
	requireKind(t, err, domain.ErrForbidden)

	empty, err := svc.Scores.DailyScore(ctx, alice, "2026-02-13")
	require.NoError(t, err)
	assert.Equal(t, 0, empty.TotalPoints)
}

func TestDailyScoreTrendUsesWindowSetting(t *testing.T) {
	svc, repo, clock := newTestServices(t)
	ctx := context.Background()
	seedScoredDay(t, svc, clock)

	require.NoError(t, repo.UpsertDailyScore(ctx, domain.DailyScore{UserID: alice, Date: "2026-02-10", TotalPoints: 10}))
	require.NoError(t, repo.UpsertDailyScore(ctx, domain.DailyScore{UserID: alice, Date: "2026-02-11", TotalPoints: 4}))

	r, err := svc.Scores.DailyScore(ctx, alice, "2026-02-12")
	require.NoError(t, err)
	assert.Equal(t, 7.0, r.Average)
	assert.Equal(t, engine.TrendFlat, r.Label.Direction)

	repo.settings[SettingTrendWindow] = "1"
	r, err = svc.Scores.DailyScore(ctx, alice, "2026-02-12")
	require.NoError(t, err)
	assert.Equal(t, 4.0, r.Average)
	assert.Equal(t, 75, r.Label.Percent)
	assert.Equal(t, engine.TrendSurging, r.Label.Direction)

	repo.settings[SettingTrendWindow] = "junk"
	r, err = svc.Scores.DailyScore(ctx, alice, "2026-02-12")
	require.NoError(t, err)
	assert.Equal(t, 7.0, r.Average)
}

func TestRecordDailyScoreAndHistory(t *testing.T) {
	svc, repo, clock := newTestServices(t)
	ctx := context.Background()
	seedScoredDay(t, svc, clock)
	require.NoError(t, repo.UpsertDailyScore(ctx, domain.DailyScore{UserID: alice, Date: "2026-02-11", TotalPoints: 3}))

	snap, err := svc.Scores.RecordDailyScore(ctx, alice, "2026-02-12")
	require.NoError(t, err)
	assert.Equal(t, 7, snap.TotalPoints)
	assert.Equal(t, 1, snap.TaskCount)

	// Recording again replaces the snapshot.
	_, err = svc.Scores.RecordDailyScore(ctx, alice, "2026-02-12")
	require.NoError(t, err)

	hist, err := svc.Scores.History(ctx, alice, "2026-02-12", 3)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, "2026-02-11", hist[0].Date)
	assert.Equal(t, "2026-02-12", hist[1].Date)

	_, err = svc.Scores.History(ctx, alice, "2026-02-12", 0)
	requireKind(t, err, domain.ErrValidation)
}

func TestSchedulerSnapshot(t *testing.T) {
	svc, repo, clock := newTestServices(t)
	seedScoredDay(t, svc, clock)

	sched := NewScheduler(svc.Scores, nil)
	_, err := sched.ScheduleDailySnapshot("not a schedule", alice)
	require.Error(t, err)

	_, err = sched.ScheduleDailySnapshot(DefaultSnapshotSchedule, alice)
	require.NoError(t, err)
	assert.Len(t, sched.Entries(), 1)

	snap, err := sched.Snapshot(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, "2026-02-12", snap.Date)
	assert.Contains(t, repo.scores, alice+"/2026-02-12")
}
