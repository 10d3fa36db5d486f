package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sadopc/worklog/internal/domain"
)

const (
	alice = "user-alice"
	bob   = "user-bob"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 2, 12, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestServices(t *testing.T) (*Services, *memRepo, *fakeClock) {
	t.Helper()
	repo := newMemRepo()
	clock := newFakeClock()
	return New(repo.repositories(), nil, WithClock(clock.Now)), repo, clock
}

func mustProject(t *testing.T, svc *Services, userID string) *domain.Project {
	t.Helper()
	p, err := svc.Projects.CreateProject(context.Background(), userID, CreateProjectInput{Name: "Work"})
	require.NoError(t, err)
	return p
}

func mustTask(t *testing.T, svc *Services, userID string, in CreateTaskInput) *domain.Task {
	t.Helper()
	if in.Difficulty == "" {
		in.Difficulty = domain.DifficultyMedium
	}
	task, err := svc.Tasks.CreateTask(context.Background(), userID, in)
	require.NoError(t, err)
	return task
}

func requireKind(t *testing.T, err, kind error) {
	t.Helper()
	require.Error(t, err)
	require.Truef(t, errors.Is(err, kind), "error %v is not %v", err, kind)
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }
