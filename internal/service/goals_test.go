package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/worklog/internal/domain"
)

func TestCreateGoalValidation(t *testing.T) {
	svc, repo, _ := newTestServices(t)
	ctx := context.Background()
	valid := CreateGoalInput{WorkspaceID: "ws-1", Title: "Ship", Type: domain.GoalTasksCompleted, TargetValue: 3, Period: domain.PeriodDaily}

	for name, mutate := range map[string]func(*CreateGoalInput){
		"blank title":  func(in *CreateGoalInput) { in.Title = " " },
		"zero target":  func(in *CreateGoalInput) { in.TargetValue = 0 },
		"huge target":  func(in *CreateGoalInput) { in.TargetValue = 1_000_001 },
		"bad type":     func(in *CreateGoalInput) { in.Type = "STEPS" },
		"bad period":   func(in *CreateGoalInput) { in.Period = "MONTHLY" },
		"no workspace": func(in *CreateGoalInput) { in.WorkspaceID = "" },
	} {
		t.Run(name, func(t *testing.T) {
			in := valid
			mutate(&in)
			_, err := svc.Goals.CreateGoal(ctx, alice, in)
			requireKind(t, err, domain.ErrValidation)
		})
	}
	assert.Empty(t, repo.goals)

	g, err := svc.Goals.CreateGoal(ctx, alice, valid)
	require.NoError(t, err)
	assert.True(t, g.IsActive)
}

func TestGoalProgressFocusMinutesWeekly(t *testing.T) {
	svc, _, clock := newTestServices(t)
	ctx := context.Background()
	p := mustProject(t, svc, alice)
	task := mustTask(t, svc, alice, CreateTaskInput{ProjectID: p.ID, Title: "Deep work"})

	g, err := svc.Goals.CreateGoal(ctx, alice, CreateGoalInput{
		WorkspaceID: "ws-1", Title: "Focus", Type: domain.GoalFocusMinutes, TargetValue: 120, Period: domain.PeriodWeekly,
	})
	require.NoError(t, err)

	e, err := svc.Timer.Start(ctx, alice, StartTimerInput{TaskID: task.ID})
	require.NoError(t, err)
	clock.Advance(90 * time.Minute)
	_, err = svc.Timer.Stop(ctx, alice, e.ID)
	require.NoError(t, err)

	// Thursday 2026-02-12; the window is Monday 09 to Sunday 15.
	ref := time.Date(2026, 2, 12, 18, 0, 0, 0, time.UTC)
	prog, err := svc.Goals.GetProgress(ctx, alice, g.ID, ref)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC), prog.Window.Start)
	assert.Equal(t, time.Date(2026, 2, 15, 23, 59, 59, 999_000_000, time.UTC), prog.Window.End)
	assert.Equal(t, 90, prog.Current)
	assert.Equal(t, 75, prog.Percentage)
	assert.False(t, prog.Achieved)

	_, err = svc.Goals.GetProgress(ctx, bob, g.ID, ref)
	requireKind(t, err, domain.ErrForbidden)
}

func TestGoalStatusesSkipInactive(t *testing.T) {
	svc, repo, clock := newTestServices(t)
	ctx := context.Background()
	p := mustProject(t, svc, alice)
	task := mustTask(t, svc, alice, CreateTaskInput{ProjectID: p.ID, Title: "Task"})
	_, err := svc.Tasks.CompleteTask(ctx, alice, task.ID)
	require.NoError(t, err)

	done, err := svc.Goals.CreateGoal(ctx, alice, CreateGoalInput{
		WorkspaceID: "ws-1", Title: "One task", Type: domain.GoalTasksCompleted, TargetValue: 1, Period: domain.PeriodDaily,
	})
	require.NoError(t, err)
	paused, err := svc.Goals.CreateGoal(ctx, alice, CreateGoalInput{
		WorkspaceID: "ws-1", Title: "Points", Type: domain.GoalPointsEarned, TargetValue: 10, Period: domain.PeriodDaily,
	})
	require.NoError(t, err)
	inactive := false
	_, err = svc.Goals.UpdateGoal(ctx, alice, paused.ID, UpdateGoalInput{IsActive: &inactive})
	require.NoError(t, err)

	repo.points = append(repo.points, domain.PointsLedgerEntry{UserID: alice, Points: 4, CreatedAt: clock.Now()})

	statuses, err := svc.Goals.GetAllGoalStatuses(ctx, alice, clock.Now())
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, done.ID, statuses[0].Goal.ID)
	assert.Equal(t, 100, statuses[0].Percentage)
	assert.True(t, statuses[0].Achieved)

	prog, err := svc.Goals.GetProgress(ctx, alice, paused.ID, clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 4, prog.Current)
	assert.Equal(t, 40, prog.Percentage)
}

func TestUpdateAndDeleteGoal(t *testing.T) {
	svc, repo, _ := newTestServices(t)
	ctx := context.Background()
	g, err := svc.Goals.CreateGoal(ctx, alice, CreateGoalInput{
		WorkspaceID: "ws-1", Title: "Custom", Type: domain.GoalCustom, TargetValue: 5, Period: domain.PeriodDaily,
	})
	require.NoError(t, err)

	updated, err := svc.Goals.UpdateGoal(ctx, alice, g.ID, UpdateGoalInput{Title: strPtr(" Renamed "), TargetValue: intPtr(8)})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, 8, updated.TargetValue)

	_, err = svc.Goals.UpdateGoal(ctx, alice, g.ID, UpdateGoalInput{TargetValue: intPtr(0)})
	requireKind(t, err, domain.ErrValidation)

	requireKind(t, svc.Goals.DeleteGoal(ctx, bob, g.ID), domain.ErrForbidden)
	require.NoError(t, svc.Goals.DeleteGoal(ctx, alice, g.ID))
	assert.Empty(t, repo.goals)
	requireKind(t, svc.Goals.DeleteGoal(ctx, alice, g.ID), domain.ErrNotFound)
}

func TestGetProgressUnknownGoal(t *testing.T) {
	svc, _, clock := newTestServices(t)
	_, err := svc.Goals.GetProgress(context.Background(), alice, "missing", clock.Now())
	requireKind(t, err, domain.ErrNotFound)
}

func TestGoalStatusesFollowListOrder(t *testing.T) {
	svc, _, clock := newTestServices(t)
	ctx := context.Background()
	for _, title := range []string{"First", "Second", "Third", "Fourth"} {
		_, err := svc.Goals.CreateGoal(ctx, alice, CreateGoalInput{
			WorkspaceID: "ws-1", Title: title, Type: domain.GoalCustom, TargetValue: 1, Period: domain.PeriodDaily,
		})
		require.NoError(t, err)
	}
	_, err := svc.Goals.CreateGoal(ctx, bob, CreateGoalInput{
		WorkspaceID: "ws-1", Title: "Other", Type: domain.GoalCustom, TargetValue: 1, Period: domain.PeriodDaily,
	})
	require.NoError(t, err)

	goals, err := svc.Goals.ListGoals(ctx, alice)
	require.NoError(t, err)
	require.Len(t, goals, 4)

	statuses, err := svc.Goals.GetAllGoalStatuses(ctx, alice, clock.Now())
	require.NoError(t, err)
	require.Len(t, statuses, len(goals))
	for i, g := range goals {
		assert.Equal(t, g.ID, statuses[i].Goal.ID)
	}
}
