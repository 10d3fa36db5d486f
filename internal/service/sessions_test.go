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

func TestWorkSessionFullCycle(t *testing.T) {
	svc, _, clock := newTestServices(t)
	ctx := context.Background()

	ws, err := svc.Sessions.ClockIn(ctx, alice, ClockInInput{WorkspaceID: "ws-1"})
	require.NoError(t, err)
	assert.Equal(t, domain.SessionActive, ws.Status)
	assert.Equal(t, "2026-02-12", ws.Date)

	clock.Advance(time.Hour)
	ws, err = svc.Sessions.Pause(ctx, alice, ws.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionPaused, ws.Status)

	clock.Advance(15 * time.Minute)
	ws, err = svc.Sessions.Resume(ctx, alice, ws.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionActive, ws.Status)
	assert.Equal(t, 15, ws.PausedMinutes)

	clock.Advance(105 * time.Minute)
	ws, err = svc.Sessions.ClockOut(ctx, alice, ws.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionCompleted, ws.Status)
	assert.Equal(t, 165, svc.Sessions.WorkedMinutes(*ws))

	_, err = svc.Sessions.Pause(ctx, alice, ws.ID)
	requireKind(t, err, domain.ErrInvalidTransition)

	active, err := svc.Sessions.Active(ctx, alice)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestClockInConflict(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()

	first, err := svc.Sessions.ClockIn(ctx, alice, ClockInInput{WorkspaceID: "ws-1"})
	require.NoError(t, err)
	_, err = svc.Sessions.Pause(ctx, alice, first.ID)
	require.NoError(t, err)

	// A paused session is still open.
	_, err = svc.Sessions.ClockIn(ctx, alice, ClockInInput{WorkspaceID: "ws-1"})
	requireKind(t, err, domain.ErrConflictingActiveSession)

	_, err = svc.Sessions.ClockIn(ctx, bob, ClockInInput{WorkspaceID: "ws-1"})
	require.NoError(t, err, "sessions are per user")
}

func TestWorkSessionRejections(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()

	_, err := svc.Sessions.ClockIn(ctx, alice, ClockInInput{})
	requireKind(t, err, domain.ErrValidation)

	ws, err := svc.Sessions.ClockIn(ctx, alice, ClockInInput{WorkspaceID: "ws-1"})
	require.NoError(t, err)

	_, err = svc.Sessions.Resume(ctx, alice, ws.ID)
	requireKind(t, err, domain.ErrInvalidTransition)

	_, err = svc.Sessions.Pause(ctx, bob, ws.ID)
	requireKind(t, err, domain.ErrForbidden)

	_, err = svc.Sessions.ClockOut(ctx, alice, "missing")
	requireKind(t, err, domain.ErrNotFound)
}

func TestWorkSessionList(t *testing.T) {
	svc, _, clock := newTestServices(t)
	ctx := context.Background()

	ws, err := svc.Sessions.ClockIn(ctx, alice, ClockInInput{WorkspaceID: "ws-1"})
	require.NoError(t, err)
	clock.Advance(time.Hour)
	_, err = svc.Sessions.ClockOut(ctx, alice, ws.ID)
	require.NoError(t, err)
	_, err = svc.Sessions.ClockIn(ctx, alice, ClockInInput{WorkspaceID: "ws-1"})
	require.NoError(t, err)

	got, err := svc.Sessions.List(ctx, alice, "2026-02-12")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = svc.Sessions.List(ctx, alice, "yesterday")
	requireKind(t, err, domain.ErrValidation)
}

func TestClockInConcurrentAllowsOnlyOne(t *testing.T) {
	svc, repo, _ := newTestServices(t)
	ctx := context.Background()

	const n = 16
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Sessions.ClockIn(ctx, alice, ClockInInput{WorkspaceID: "ws-1"})
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
		requireKind(t, err, domain.ErrConflictingActiveSession)
	}
	assert.Equal(t, 1, ok)
	assert.Len(t, repo.sessions, 1)
}
