package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/worklog/internal/domain"
)

func TestCreateTaskValidation(t *testing.T) {
	svc, repo, _ := newTestServices(t)
	ctx := context.Background()
	p := mustProject(t, svc, alice)

	tests := []struct {
		name  string
		in    CreateTaskInput
		field string
	}{
		{"blank title", CreateTaskInput{ProjectID: p.ID, Title: "   ", Difficulty: domain.DifficultyEasy}, "title"},
		{"long title", CreateTaskInput{ProjectID: p.ID, Title: strings.Repeat("a", 201), Difficulty: domain.DifficultyEasy}, "title"},
		{"bad difficulty", CreateTaskInput{ProjectID: p.ID, Title: "x", Difficulty: "IMPOSSIBLE"}, "difficulty"},
		{"zero estimate", CreateTaskInput{ProjectID: p.ID, Title: "x", Difficulty: domain.DifficultyEasy, EstimatedMinutes: intPtr(0)}, "estimatedMinutes"},
		{"no project", CreateTaskInput{Title: "x", Difficulty: domain.DifficultyEasy}, "projectId"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Tasks.CreateTask(ctx, alice, tt.in)
			requireKind(t, err, domain.ErrValidation)
			var de *domain.Error
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tt.field, de.Field)
		})
	}
	assert.Empty(t, repo.tasks, "validation must fail before any write")
}

func TestCreateTaskProjectOwnership(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()
	p := mustProject(t, svc, alice)

	_, err := svc.Tasks.CreateTask(ctx, alice, CreateTaskInput{ProjectID: "missing", Title: "x", Difficulty: domain.DifficultyEasy})
	requireKind(t, err, domain.ErrNotFound)

	_, err = svc.Tasks.CreateTask(ctx, bob, CreateTaskInput{ProjectID: p.ID, Title: "x", Difficulty: domain.DifficultyEasy})
	requireKind(t, err, domain.ErrForbidden)

	_, err = svc.Projects.SetArchived(ctx, alice, p.ID, true)
	require.NoError(t, err)
	_, err = svc.Tasks.CreateTask(ctx, alice, CreateTaskInput{ProjectID: p.ID, Title: "x", Difficulty: domain.DifficultyEasy})
	requireKind(t, err, domain.ErrValidation)
}

func TestCreateTaskDefaults(t *testing.T) {
	svc, _, _ := newTestServices(t)
	p := mustProject(t, svc, alice)

	task := mustTask(t, svc, alice, CreateTaskInput{ProjectID: p.ID, Title: "  Write report  ", Type: "writing"})
	assert.Equal(t, "Write report", task.Title)
	assert.Equal(t, domain.StatusBacklog, task.Status)
	assert.Equal(t, 0, task.Progress)
	assert.Nil(t, task.CompletedAt)
	assert.Equal(t, alice, task.UserID)
}

func TestCreateSubtaskInheritsProjectAndRollsUp(t *testing.T) {
	svc, repo, _ := newTestServices(t)
	ctx := context.Background()
	p := mustProject(t, svc, alice)
	parent := mustTask(t, svc, alice, CreateTaskInput{ProjectID: p.ID, Title: "Parent"})

	_, err := svc.Tasks.UpdateTask(ctx, alice, parent.ID, UpdateTaskInput{Progress: intPtr(40)})
	require.NoError(t, err)

	sub := mustTask(t, svc, alice, CreateTaskInput{ParentTaskID: strPtr(parent.ID), Title: "Child"})
	assert.Equal(t, p.ID, sub.ProjectID)

	// One child at 0% pulls the parent down to 0.
	got := repo.tasks[parent.ID]
	assert.Equal(t, 0, got.Progress)

	_, err = svc.Tasks.CreateTask(ctx, alice, CreateTaskInput{
		ProjectID: "other", ParentTaskID: strPtr(parent.ID), Title: "x", Difficulty: domain.DifficultyEasy,
	})
	requireKind(t, err, domain.ErrValidation)
}

func TestCreateSubtaskOfSubtaskFails(t *testing.T) {
	svc, _, _ := newTestServices(t)
	p := mustProject(t, svc, alice)
	parent := mustTask(t, svc, alice, CreateTaskInput{ProjectID: p.ID, Title: "Parent"})
	sub := mustTask(t, svc, alice, CreateTaskInput{ParentTaskID: strPtr(parent.ID), Title: "Child"})

	_, err := svc.Tasks.CreateTask(context.Background(), alice, CreateTaskInput{
		ParentTaskID: strPtr(sub.ID), Title: "Grandchild", Difficulty: domain.DifficultyEasy,
	})
	requireKind(t, err, domain.ErrHierarchyDepthExceeded)
}

func TestCreateSubtaskUnderArchivedParentFails(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()
	p := mustProject(t, svc, alice)
	parent := mustTask(t, svc, alice, CreateTaskInput{ProjectID: p.ID, Title: "Parent"})
	archived := domain.StatusArchived
	_, err := svc.Tasks.UpdateTask(ctx, alice, parent.ID, UpdateTaskInput{Status: &archived})
	require.NoError(t, err)

	_, err = svc.Tasks.CreateTask(ctx, alice, CreateTaskInput{ParentTaskID: strPtr(parent.ID), Title: "x", Difficulty: domain.DifficultyEasy})
	requireKind(t, err, domain.ErrInvalidParentState)

	_, err = svc.Tasks.CreateTask(ctx, bob, CreateTaskInput{ParentTaskID: strPtr(parent.ID), Title: "x", Difficulty: domain.DifficultyEasy})
	requireKind(t, err, domain.ErrForbidden)
}

func TestUpdateSubtaskProgressRollsUp(t *testing.T) {
	svc, repo, _ := newTestServices(t)
	ctx := context.Background()
	p := mustProject(t, svc, alice)
	parent := mustTask(t, svc, alice, CreateTaskInput{ProjectID: p.ID, Title: "Parent"})
	a := mustTask(t, svc, alice, CreateTaskInput{ParentTaskID: strPtr(parent.ID), Title: "A"})
	b := mustTask(t, svc, alice, CreateTaskInput{ParentTaskID: strPtr(parent.ID), Title: "B"})

	_, err := svc.Tasks.UpdateTask(ctx, alice, a.ID, UpdateTaskInput{Progress: intPtr(50)})
	require.NoError(t, err)
	_, err = svc.Tasks.UpdateTask(ctx, alice, b.ID, UpdateTaskInput{Progress: intPtr(25)})
	require.NoError(t, err)

	// (50+25)/2 = 37.5 rounds half up.
	assert.Equal(t, 38, repo.tasks[parent.ID].Progress)

	before := repo.taskUpdates[parent.ID]
	_, err = svc.Tasks.UpdateTask(ctx, alice, b.ID, UpdateTaskInput{Title: strPtr("B renamed")})
	require.NoError(t, err)
	assert.Equal(t, before, repo.taskUpdates[parent.ID], "no rollup without a progress change")
}

func TestUpdateTaskStatusSetsCompletedAt(t *testing.T) {
	svc, _, clock := newTestServices(t)
	ctx := context.Background()
	p := mustProject(t, svc, alice)
	task := mustTask(t, svc, alice, CreateTaskInput{ProjectID: p.ID, Title: "Task"})

	done, err := svc.Tasks.CompleteTask(ctx, alice, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, done.Status)
	assert.Equal(t, 100, done.Progress)
	require.NotNil(t, done.CompletedAt)
	assert.Equal(t, clock.Now(), *done.CompletedAt)

	todo := domain.StatusTodo
	reopened, err := svc.Tasks.UpdateTask(ctx, alice, task.ID, UpdateTaskInput{Status: &todo})
	require.NoError(t, err)
	assert.Nil(t, reopened.CompletedAt)
	assert.Equal(t, 100, reopened.Progress)
}

func TestUpdateTaskValidationAndOwnership(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()
	p := mustProject(t, svc, alice)
	task := mustTask(t, svc, alice, CreateTaskInput{ProjectID: p.ID, Title: "Task", EstimatedMinutes: intPtr(30)})

	_, err := svc.Tasks.UpdateTask(ctx, alice, task.ID, UpdateTaskInput{Progress: intPtr(101)})
	requireKind(t, err, domain.ErrValidation)

	_, err = svc.Tasks.UpdateTask(ctx, alice, task.ID, UpdateTaskInput{Title: strPtr("  ")})
	requireKind(t, err, domain.ErrValidation)

	bad := domain.TaskStatus("DONE")
	_, err = svc.Tasks.UpdateTask(ctx, alice, task.ID, UpdateTaskInput{Status: &bad})
	requireKind(t, err, domain.ErrValidation)

	_, err = svc.Tasks.UpdateTask(ctx, bob, task.ID, UpdateTaskInput{Progress: intPtr(10)})
	requireKind(t, err, domain.ErrForbidden)

	_, err = svc.Tasks.UpdateTask(ctx, alice, "nope", UpdateTaskInput{Progress: intPtr(10)})
	requireKind(t, err, domain.ErrNotFound)

	cleared, err := svc.Tasks.UpdateTask(ctx, alice, task.ID, UpdateTaskInput{ClearEstimate: true, Progress: intPtr(0)})
	require.NoError(t, err)
	assert.Nil(t, cleared.EstimatedMinutes)
}

func TestDeleteSubtaskRecomputesParentOnce(t *testing.T) {
	svc, repo, _ := newTestServices(t)
	ctx := context.Background()
	p := mustProject(t, svc, alice)
	parent := mustTask(t, svc, alice, CreateTaskInput{ProjectID: p.ID, Title: "Parent"})
	a := mustTask(t, svc, alice, CreateTaskInput{ParentTaskID: strPtr(parent.ID), Title: "A"})
	b := mustTask(t, svc, alice, CreateTaskInput{ParentTaskID: strPtr(parent.ID), Title: "B"})
	c := mustTask(t, svc, alice, CreateTaskInput{ParentTaskID: strPtr(parent.ID), Title: "C"})
	for id, progress := range map[string]int{a.ID: 100, b.ID: 50, c.ID: 0} {
		_, err := svc.Tasks.UpdateTask(ctx, alice, id, UpdateTaskInput{Progress: intPtr(progress)})
		require.NoError(t, err)
	}
	assert.Equal(t, 50, repo.tasks[parent.ID].Progress)

	before := repo.taskUpdates[parent.ID]
	require.NoError(t, svc.Tasks.DeleteTask(ctx, alice, c.ID))

	assert.Equal(t, before+1, repo.taskUpdates[parent.ID])
	assert.Equal(t, 75, repo.tasks[parent.ID].Progress)
	assert.NotContains(t, repo.tasks, c.ID)
}

func TestDeleteLastSubtaskResetsParent(t *testing.T) {
	svc, repo, _ := newTestServices(t)
	ctx := context.Background()
	p := mustProject(t, svc, alice)
	parent := mustTask(t, svc, alice, CreateTaskInput{ProjectID: p.ID, Title: "Parent"})
	a := mustTask(t, svc, alice, CreateTaskInput{ParentTaskID: strPtr(parent.ID), Title: "A"})
	_, err := svc.Tasks.UpdateTask(ctx, alice, a.ID, UpdateTaskInput{Progress: intPtr(80)})
	require.NoError(t, err)

	require.NoError(t, svc.Tasks.DeleteTask(ctx, alice, a.ID))
	assert.Equal(t, 0, repo.tasks[parent.ID].Progress)
}

func TestDeleteRootTaskDeletesSubtasks(t *testing.T) {
	svc, repo, _ := newTestServices(t)
	ctx := context.Background()
	p := mustProject(t, svc, alice)
	parent := mustTask(t, svc, alice, CreateTaskInput{ProjectID: p.ID, Title: "Parent"})
	mustTask(t, svc, alice, CreateTaskInput{ParentTaskID: strPtr(parent.ID), Title: "A"})
	mustTask(t, svc, alice, CreateTaskInput{ParentTaskID: strPtr(parent.ID), Title: "B"})
	other := mustTask(t, svc, alice, CreateTaskInput{ProjectID: p.ID, Title: "Other"})

	requireKind(t, svc.Tasks.DeleteTask(ctx, bob, parent.ID), domain.ErrForbidden)
	require.NoError(t, svc.Tasks.DeleteTask(ctx, alice, parent.ID))

	assert.Len(t, repo.tasks, 1)
	assert.Contains(t, repo.tasks, other.ID)
	requireKind(t, svc.Tasks.DeleteTask(ctx, alice, parent.ID), domain.ErrNotFound)
}

func TestListTasks(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()
	p1 := mustProject(t, svc, alice)
	p2 := mustProject(t, svc, alice)
	parent := mustTask(t, svc, alice, CreateTaskInput{ProjectID: p1.ID, Title: "One"})
	mustTask(t, svc, alice, CreateTaskInput{ParentTaskID: strPtr(parent.ID), Title: "Sub"})
	mustTask(t, svc, alice, CreateTaskInput{ProjectID: p2.ID, Title: "Two"})

	all, err := svc.Tasks.ListTasks(ctx, alice, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	inP2, err := svc.Tasks.ListTasks(ctx, alice, p2.ID)
	require.NoError(t, err)
	require.Len(t, inP2, 1)
	assert.Equal(t, "Two", inP2[0].Title)

	subs, err := svc.Tasks.ListSubtasks(ctx, alice, parent.ID)
	require.NoError(t, err)
	assert.Len(t, subs, 1)

	_, err = svc.Tasks.ListTasks(ctx, bob, p1.ID)
	requireKind(t, err, domain.ErrForbidden)
}

func TestCreateTaskStorageErrorPassesThrough(t *testing.T) {
	svc, repo, _ := newTestServices(t)
	p := mustProject(t, svc, alice)
	boom := errors.New("disk full")
	repo.failWith = boom

	_, err := svc.Tasks.CreateTask(context.Background(), alice, CreateTaskInput{ProjectID: p.ID, Title: "x", Difficulty: domain.DifficultyEasy})
	assert.ErrorIs(t, err, boom)
	var de *domain.Error
	assert.False(t, errors.As(err, &de))
}

func TestParentProgressFollowsSubtasks(t *testing.T) {
	svc, repo, _ := newTestServices(t)
	ctx := context.Background()
	p := mustProject(t, svc, alice)
	parent := mustTask(t, svc, alice, CreateTaskInput{ProjectID: p.ID, Title: "Parent"})
	sub := mustTask(t, svc, alice, CreateTaskInput{ParentTaskID: strPtr(parent.ID), Title: "Child"})

	got, err := svc.Tasks.UpdateTask(ctx, alice, parent.ID, UpdateTaskInput{Progress: intPtr(90), Title: strPtr("Parent renamed")})
	require.NoError(t, err)
	assert.Equal(t, 0, got.Progress, "a parent keeps the rollup of its sub-tasks")
	assert.Equal(t, "Parent renamed", got.Title)

	done, err := svc.Tasks.CompleteTask(ctx, alice, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, done.Status)
	assert.Equal(t, 0, done.Progress)

	_, err = svc.Tasks.UpdateTask(ctx, alice, sub.ID, UpdateTaskInput{Progress: intPtr(60)})
	require.NoError(t, err)
	assert.Equal(t, 60, repo.tasks[parent.ID].Progress)

	// Without sub-tasks a root task takes progress directly.
	solo := mustTask(t, svc, alice, CreateTaskInput{ProjectID: p.ID, Title: "Solo"})
	got, err = svc.Tasks.UpdateTask(ctx, alice, solo.ID, UpdateTaskInput{Progress: intPtr(90)})
	require.NoError(t, err)
	assert.Equal(t, 90, got.Progress)
}

func TestConcurrentSubtaskUpdatesKeepRollup(t *testing.T) {
	svc, repo, _ := newTestServices(t)
	ctx := context.Background()
	p := mustProject(t, svc, alice)
	parent := mustTask(t, svc, alice, CreateTaskInput{ProjectID: p.ID, Title: "Parent"})

	const n = 8
	subs := make([]*domain.Task, n)
	for i := range subs {
		subs[i] = mustTask(t, svc, alice, CreateTaskInput{ParentTaskID: strPtr(parent.ID), Title: "Child"})
	}

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for _, sub := range subs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Tasks.UpdateTask(ctx, alice, sub.ID, UpdateTaskInput{Progress: intPtr(100)})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, 100, repo.tasks[parent.ID].Progress)
}
