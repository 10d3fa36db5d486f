package service

import (
	"context"
	"time"

	"github.com/sadopc/worklog/internal/domain"
)

// The repositories are the storage collaborators the services run against.
// Implementations assign ids and creation timestamps on create, apply soft
// deletion, and return (nil, nil) from a Get or Find when the record is
// absent.

type ProjectRepository interface {
	CreateProject(ctx context.Context, p domain.Project) (*domain.Project, error)
	GetProject(ctx context.Context, id string) (*domain.Project, error)
	UpdateProject(ctx context.Context, p domain.Project) (*domain.Project, error)
	ListProjects(ctx context.Context, userID string, includeArchived bool) ([]domain.Project, error)
}

type TaskRepository interface {
	CreateTask(ctx context.Context, t domain.Task) (*domain.Task, error)
	GetTask(ctx context.Context, id string) (*domain.Task, error)
	UpdateTask(ctx context.Context, t domain.Task) (*domain.Task, error)
	DeleteTask(ctx context.Context, id string) error
	ListTasksByUser(ctx context.Context, userID string) ([]domain.Task, error)
	ListTasksByProject(ctx context.Context, projectID string) ([]domain.Task, error)
	ListSubtasks(ctx context.Context, parentID string) ([]domain.Task, error)
	ListTasksCompletedBetween(ctx context.Context, userID string, from, to time.Time) ([]domain.Task, error)
}

type TimeEntryRepository interface {
	CreateTimeEntry(ctx context.Context, e domain.TimeEntry) (*domain.TimeEntry, error)
	GetTimeEntry(ctx context.Context, id string) (*domain.TimeEntry, error)
	UpdateTimeEntry(ctx context.Context, e domain.TimeEntry) (*domain.TimeEntry, error)
	DeleteTimeEntry(ctx context.Context, id string) error
	FindRunningTimeEntry(ctx context.Context, userID string) (*domain.TimeEntry, error)
	ListTimeEntriesByTask(ctx context.Context, taskID string) ([]domain.TimeEntry, error)
	ListTimeEntriesBetween(ctx context.Context, userID string, from, to time.Time) ([]domain.TimeEntry, error)
}

type BreakRepository interface {
	CreateBreak(ctx context.Context, b domain.Break) (*domain.Break, error)
	GetBreak(ctx context.Context, id string) (*domain.Break, error)
	UpdateBreak(ctx context.Context, b domain.Break) (*domain.Break, error)
	FindRunningBreak(ctx context.Context, userID string) (*domain.Break, error)
	ListBreaksBetween(ctx context.Context, userID string, from, to time.Time) ([]domain.Break, error)
}

type WorkSessionRepository interface {
	CreateWorkSession(ctx context.Context, s domain.WorkSession) (*domain.WorkSession, error)
	GetWorkSession(ctx context.Context, id string) (*domain.WorkSession, error)
	UpdateWorkSession(ctx context.Context, s domain.WorkSession) (*domain.WorkSession, error)
	ListOpenWorkSessions(ctx context.Context, userID string) ([]domain.WorkSession, error)
	ListWorkSessionsByDate(ctx context.Context, userID, date string) ([]domain.WorkSession, error)
}

type GoalRepository interface {
	CreateGoal(ctx context.Context, g domain.Goal) (*domain.Goal, error)
	GetGoal(ctx context.Context, id string) (*domain.Goal, error)
	UpdateGoal(ctx context.Context, g domain.Goal) (*domain.Goal, error)
	DeleteGoal(ctx context.Context, id string) error
	ListGoals(ctx context.Context, userID string) ([]domain.Goal, error)
}

// PointsRepository is read-only here; the ledger is written elsewhere.
type PointsRepository interface {
	ListPointsBetween(ctx context.Context, userID string, from, to time.Time) ([]domain.PointsLedgerEntry, error)
}

type DailyScoreRepository interface {
	UpsertDailyScore(ctx context.Context, s domain.DailyScore) error
	// ListDailyScores returns snapshots with from <= date <= to, oldest first.
	ListDailyScores(ctx context.Context, userID, from, to string) ([]domain.DailyScore, error)
}

type SettingsRepository interface {
	GetSetting(ctx context.Context, key string) (string, error)
}

// Repositories bundles every collaborator New needs.
type Repositories struct {
	Projects    ProjectRepository
	Tasks       TaskRepository
	TimeEntries TimeEntryRepository
	Breaks      BreakRepository
	Sessions    WorkSessionRepository
	Goals       GoalRepository
	Points      PointsRepository
	Scores      DailyScoreRepository
	Settings    SettingsRepository
}
