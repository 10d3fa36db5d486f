package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sadopc/worklog/internal/domain"
)

// memRepo is an in-memory implementation of every repository interface.
type memRepo struct {
	mu       sync.Mutex
	seq      int
	projects map[string]domain.Project
	tasks    map[string]domain.Task
	entries  map[string]domain.TimeEntry
	breaks   map[string]domain.Break
	sessions map[string]domain.WorkSession
	goals    map[string]domain.Goal
	points   []domain.PointsLedgerEntry
	scores   map[string]domain.DailyScore
	settings map[string]string

	taskUpdates map[string]int
	failWith    error
}

func newMemRepo() *memRepo {
	return &memRepo{
		projects:    map[string]domain.Project{},
		tasks:       map[string]domain.Task{},
		entries:     map[string]domain.TimeEntry{},
		breaks:      map[string]domain.Break{},
		sessions:    map[string]domain.WorkSession{},
		goals:       map[string]domain.Goal{},
		scores:      map[string]domain.DailyScore{},
		settings:    map[string]string{},
		taskUpdates: map[string]int{},
	}
}

func (m *memRepo) repositories() Repositories {
	return Repositories{
		Projects: m, Tasks: m, TimeEntries: m, Breaks: m, Sessions: m,
		Goals: m, Points: m, Scores: m, Settings: m,
	}
}

func (m *memRepo) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

// ==================== Projects ====================

func (m *memRepo) CreateProject(_ context.Context, p domain.Project) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.nextID("p")
	m.projects[p.ID] = p
	return &p, nil
}

func (m *memRepo) GetProject(_ context.Context, id string) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memRepo) UpdateProject(_ context.Context, p domain.Project) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[p.ID] = p
	return &p, nil
}

func (m *memRepo) ListProjects(_ context.Context, userID string, includeArchived bool) ([]domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Project
	for _, p := range m.projects {
		if p.UserID == userID && (includeArchived || !p.Archived) {
			out = append(out, p)
		}
	}
	return out, nil
}

// ==================== Tasks ====================

func (m *memRepo) CreateTask(_ context.Context, t domain.Task) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	t.ID = m.nextID("t")
	m.tasks[t.ID] = t
	return &t, nil
}

func (m *memRepo) GetTask(_ context.Context, id string) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (m *memRepo) UpdateTask(_ context.Context, t domain.Task) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[t.ID] = t
	m.taskUpdates[t.ID]++
	return &t, nil
}

func (m *memRepo) DeleteTask(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tasks, id)
	return nil
}

func (m *memRepo) filterTasks(keep func(domain.Task) bool) []domain.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Task
	for _, t := range m.tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memRepo) ListTasksByUser(_ context.Context, userID string) ([]domain.Task, error) {
	return m.filterTasks(func(t domain.Task) bool { return t.UserID == userID }), nil
}

func (m *memRepo) ListTasksByProject(_ context.Context, projectID string) ([]domain.Task, error) {
	return m.filterTasks(func(t domain.Task) bool { return t.ProjectID == projectID }), nil
}

func (m *memRepo) ListSubtasks(_ context.Context, parentID string) ([]domain.Task, error) {
	return m.filterTasks(func(t domain.Task) bool {
		return t.ParentTaskID != nil && *t.ParentTaskID == parentID
	}), nil
}

func (m *memRepo) ListTasksCompletedBetween(_ context.Context, userID string, from, to time.Time) ([]domain.Task, error) {
	return m.filterTasks(func(t domain.Task) bool {
		return t.UserID == userID && t.Status == domain.StatusCompleted && t.CompletedAt != nil &&
			!t.CompletedAt.Before(from) && !t.CompletedAt.After(to)
	}), nil
}

// ==================== Time entries ====================

func (m *memRepo) CreateTimeEntry(_ context.Context, e domain.TimeEntry) (*domain.TimeEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = m.nextID("e")
	e.CreatedAt = e.StartedAt
	m.entries[e.ID] = e
	return &e, nil
}

func (m *memRepo) GetTimeEntry(_ context.Context, id string) (*domain.TimeEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (m *memRepo) UpdateTimeEntry(_ context.Context, e domain.TimeEntry) (*domain.TimeEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.ID] = e
	return &e, nil
}

func (m *memRepo) DeleteTimeEntry(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}

func (m *memRepo) FindRunningTimeEntry(_ context.Context, userID string) (*domain.TimeEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.UserID == userID && e.Running() {
			return &e, nil
		}
	}
	return nil, nil
}

func (m *memRepo) ListTimeEntriesByTask(_ context.Context, taskID string) ([]domain.TimeEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.TimeEntry
	for _, e := range m.entries {
		if e.TaskID == taskID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memRepo) ListTimeEntriesBetween(_ context.Context, userID string, from, to time.Time) ([]domain.TimeEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.TimeEntry
	for _, e := range m.entries {
		if e.UserID == userID && !e.StartedAt.Before(from) && !e.StartedAt.After(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

// ==================== Breaks ====================

func (m *memRepo) CreateBreak(_ context.Context, b domain.Break) (*domain.Break, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = m.nextID("b")
	m.breaks[b.ID] = b
	return &b, nil
}

func (m *memRepo) GetBreak(_ context.Context, id string) (*domain.Break, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.breaks[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (m *memRepo) UpdateBreak(_ context.Context, b domain.Break) (*domain.Break, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.breaks[b.ID] = b
	return &b, nil
}

func (m *memRepo) FindRunningBreak(_ context.Context, userID string) (*domain.Break, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.breaks {
		if b.UserID == userID && b.Running() {
			return &b, nil
		}
	}
	return nil, nil
}

func (m *memRepo) ListBreaksBetween(_ context.Context, userID string, from, to time.Time) ([]domain.Break, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Break
	for _, b := range m.breaks {
		if b.UserID == userID && !b.StartedAt.Before(from) && !b.StartedAt.After(to) {
			out = append(out, b)
		}
	}
	return out, nil
}

// ==================== Work sessions ====================

func (m *memRepo) CreateWorkSession(_ context.Context, s domain.WorkSession) (*domain.WorkSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = m.nextID("s")
	m.sessions[s.ID] = s
	return &s, nil
}

func (m *memRepo) GetWorkSession(_ context.Context, id string) (*domain.WorkSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *memRepo) UpdateWorkSession(_ context.Context, s domain.WorkSession) (*domain.WorkSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return &s, nil
}

func (m *memRepo) ListOpenWorkSessions(_ context.Context, userID string) ([]domain.WorkSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.WorkSession
	for _, s := range m.sessions {
		if s.UserID == userID && s.Status.Open() {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memRepo) ListWorkSessionsByDate(_ context.Context, userID, date string) ([]domain.WorkSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.WorkSession
	for _, s := range m.sessions {
		if s.UserID == userID && s.Date == date {
			out = append(out, s)
		}
	}
	return out, nil
}

// ==================== Goals ====================

func (m *memRepo) CreateGoal(_ context.Context, g domain.Goal) (*domain.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g.ID = m.nextID("g")
	m.goals[g.ID] = g
	return &g, nil
}

func (m *memRepo) GetGoal(_ context.Context, id string) (*domain.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.goals[id]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (m *memRepo) UpdateGoal(_ context.Context, g domain.Goal) (*domain.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.goals[g.ID] = g
	return &g, nil
}

func (m *memRepo) DeleteGoal(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.goals, id)
	return nil
}

func (m *memRepo) ListGoals(_ context.Context, userID string) ([]domain.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Goal
	for _, g := range m.goals {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ==================== Points, scores, settings ====================

func (m *memRepo) ListPointsBetween(_ context.Context, userID string, from, to time.Time) ([]domain.PointsLedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.PointsLedgerEntry
	for _, p := range m.points {
		if p.UserID == userID && !p.CreatedAt.Before(from) && !p.CreatedAt.After(to) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memRepo) UpsertDailyScore(_ context.Context, s domain.DailyScore) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores[s.UserID+"/"+s.Date] = s
	return nil
}

func (m *memRepo) ListDailyScores(_ context.Context, userID, from, to string) ([]domain.DailyScore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.DailyScore
	for _, s := range m.scores {
		if s.UserID == userID && s.Date >= from && s.Date <= to {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (m *memRepo) GetSetting(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings[key], nil
}
