package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/worklog/internal/domain"
)

func TestTimerStartStopRecomputesActualMinutes(t *testing.T) {
	svc, repo, clock := newTestServices(t)
	ctx := context.Background()
	p := mustProject(t, svc, alice)
	task := mustTask(t, svc, alice, CreateTaskInput{ProjectID: p.ID, Title: "Task"})

	e, err := svc.Timer.Start(ctx, alice, StartTimerInput{TaskID: task.ID, Notes: " first "})
	require.NoError(t, err)
	assert.True(t, e.Running())
	assert.Equal(t, "first", e.Notes)

	clock.Advance(25*time.Minute + 30*time.Second)
	stopped, err := svc.Timer.Stop(ctx, alice, e.ID)
	require.NoError(t, err)
	require.NotNil(t, stopped.EndedAt)
	assert.Equal(t, 26, repo.tasks[task.ID].ActualMinutes)

	e2, err := svc.Timer.Start(ctx, alice, StartTimerInput{TaskID: task.ID})
	require.NoError(t, err)
	clock.Advance(10 * time.Minute)
	_, err = svc.Timer.Stop(ctx, alice, e2.ID)
	require.NoError(t, err)
	assert.Equal(t, 36, repo.tasks[task.ID].ActualMinutes)

	require.NoError(t, svc.Timer.Delete(ctx, alice, e.ID))
	assert.Equal(t, 10, repo.tasks[task.ID].ActualMinutes)
}

func TestTimerSecondStartConflicts(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()
	p := mustProject(t, svc, alice)
	a := mustTask(t, svc, alice, CreateTaskInput{ProjectID: p.ID, Title: "A"})
	b := mustTask(t, svc, alice, CreateTaskInput{ProjectID: p.ID, Title: "B"})

	first, err := svc.Timer.Start(ctx, alice, StartTimerInput{TaskID: a.ID})
	require.NoError(t, err)

	_, err = svc.Timer.Start(ctx, alice, StartTimerInput{TaskID: b.ID})
	requireKind(t, err, domain.ErrConflictingActiveEntry)
	var de *domain.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, first.ID, de.ID)

	active, err := svc.Timer.Active(ctx, alice)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, first.ID, active.ID)
}

func TestTimerConcurrentStartsAllowOnlyOne(t *testing.T) {
	svc, repo, _ := newTestServices(t)
	ctx := context.Background()
	p := mustProject(t, svc, alice)
	task := mustTask(t, svc, alice, CreateTaskInput{ProjectID: p.ID, Title: "Task"})

	const n = 16
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Timer.Start(ctx, alice, StartTimerInput{TaskID: task.ID})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		requireKind(t, err, domain.ErrConflictingActiveEntry)
	}
	assert.Equal(t, 1, ok)
	assert.Len(t, repo.entries, 1)
}

func TestTimerStopTwice(t *testing.T) {
	svc, _, clock := newTestServices(t)
	ctx := context.Background()
	p := mustProject(t, svc, alice)
	task := mustTask(t, svc, alice, CreateTaskInput{ProjectID: p.ID, Title: "Task"})
	e, err := svc.Timer.Start(ctx, alice, StartTimerInput{TaskID: task.ID})
	require.NoError(t, err)
	clock.Advance(time.Minute)
	_, err = svc.Timer.Stop(ctx, alice, e.ID)
	require.NoError(t, err)

	_, err = svc.Timer.Stop(ctx, alice, e.ID)
	requireKind(t, err, domain.ErrAlreadyStopped)
	requireKind(t, err, domain.ErrInvalidTransition)
}

func TestTimerOwnershipAndValidation(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()
	p := mustProject(t, svc, alice)
	task := mustTask(t, svc, alice, CreateTaskInput{ProjectID: p.ID, Title: "Task"})

	_, err := svc.Timer.Start(ctx, alice, StartTimerInput{})
	requireKind(t, err, domain.ErrValidation)

	_, err = svc.Timer.Start(ctx, bob, StartTimerInput{TaskID: task.ID})
	requireKind(t, err, domain.ErrForbidden)

	_, err = svc.Timer.Start(ctx, alice, StartTimerInput{TaskID: "missing"})
	requireKind(t, err, domain.ErrNotFound)

	e, err := svc.Timer.Start(ctx, alice, StartTimerInput{TaskID: task.ID})
	require.NoError(t, err)
	_, err = svc.Timer.Stop(ctx, bob, e.ID)
	requireKind(t, err, domain.ErrForbidden)
	_, err = svc.Timer.Stop(ctx, alice, "missing")
	requireKind(t, err, domain.ErrNotFound)
}

func TestTimerList(t *testing.T) {
	svc, _, clock := newTestServices(t)
	ctx := context.Background()
	p := mustProject(t, svc, alice)
	task := mustTask(t, svc, alice, CreateTaskInput{ProjectID: p.ID, Title: "Task"})
	e, err := svc.Timer.Start(ctx, alice, StartTimerInput{TaskID: task.ID})
	require.NoError(t, err)

	now := clock.Now()
	got, err := svc.Timer.List(ctx, alice, now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, e.ID, got[0].ID)

	_, err = svc.Timer.List(ctx, alice, now, now.Add(-time.Hour))
	requireKind(t, err, domain.ErrValidation)
}
