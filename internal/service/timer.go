package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sadopc/worklog/internal/domain"
	"github.com/sadopc/worklog/internal/engine"
)

// TimerService runs at most one time entry per user and keeps each task's
// ActualMinutes equal to the rounded sum of its stopped entries.
type TimerService struct {
	core
	entries TimeEntryRepository
	tasks   TaskRepository
}

func NewTimerService(entries TimeEntryRepository, tasks TaskRepository, log *zap.Logger, opts ...Option) *TimerService {
	return &TimerService{core: newCore(log, opts), entries: entries, tasks: tasks}
}

type StartTimerInput struct {
	TaskID string `json:"taskId" validate:"required,max=64"`
	Notes  string `json:"notes" validate:"max=1000"`
}

func (s *TimerService) Start(ctx context.Context, userID string, in StartTimerInput) (*domain.TimeEntry, error) {
	in.Notes = strings.TrimSpace(in.Notes)
	if err := domain.Struct(in); err != nil {
		return nil, err
	}
	unlock := s.locker.Lock(userID)
	defer unlock()

	task, err := ownedTask(ctx, s.tasks, userID, in.TaskID)
	if err != nil {
		return nil, err
	}
	running, err := s.entries.FindRunningTimeEntry(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := engine.CheckTimerStart(running); err != nil {
		return nil, s.rejected("start timer", err, zap.String("user_id", userID), zap.String("task_id", task.ID))
	}

	e, err := s.entries.CreateTimeEntry(ctx, engine.NewTimeEntry(userID, task.ID, in.Notes, s.clock()))
	if err != nil {
		return nil, err
	}
	s.log.Info("timer started", zap.String("user_id", userID), zap.String("task_id", task.ID), zap.String("entry_id", e.ID))
	return e, nil
}

func (s *TimerService) Stop(ctx context.Context, userID, entryID string) (*domain.TimeEntry, error) {
	unlock := s.locker.Lock(userID)
	defer unlock()

	e, err := s.ownedEntry(ctx, userID, entryID)
	if err != nil {
		return nil, err
	}
	stopped, err := engine.StopTimeEntry(*e, s.clock())
	if err != nil {
		return nil, s.rejected("stop timer", err, zap.String("user_id", userID), zap.String("entry_id", entryID))
	}
	updated, err := s.entries.UpdateTimeEntry(ctx, stopped)
	if err != nil {
		return nil, err
	}
	s.log.Info("timer stopped", zap.String("user_id", userID), zap.String("entry_id", updated.ID),
		zap.Int("minutes", engine.EntryMinutes(*updated)))
	if err := s.recomputeActual(ctx, updated.TaskID); err != nil {
		return nil, err
	}
	return updated, nil
}

// Active returns the user's running entry, or nil.
func (s *TimerService) Active(ctx context.Context, userID string) (*domain.TimeEntry, error) {
	return s.entries.FindRunningTimeEntry(ctx, userID)
}

// List returns entries started within [from, to].
func (s *TimerService) List(ctx context.Context, userID string, from, to time.Time) ([]domain.TimeEntry, error) {
	if to.Before(from) {
		return nil, domain.ValidationFailed("to", "must not be before from")
	}
	return s.entries.ListTimeEntriesBetween(ctx, userID, from.UTC(), to.UTC())
}

func (s *TimerService) Delete(ctx context.Context, userID, entryID string) error {
	unlock := s.locker.Lock(userID)
	defer unlock()

	e, err := s.ownedEntry(ctx, userID, entryID)
	if err != nil {
		return err
	}
	if err := s.entries.DeleteTimeEntry(ctx, e.ID); err != nil {
		return err
	}
	s.log.Info("time entry deleted", zap.String("user_id", userID), zap.String("entry_id", e.ID))
	if e.Running() {
		return nil
	}
	return s.recomputeActual(ctx, e.TaskID)
}

func (s *TimerService) recomputeActual(ctx context.Context, taskID string) error {
	task, err := s.tasks.GetTask(ctx, taskID)
	if err != nil {
		return err
	}
	if task == nil {
		return nil
	}
	entries, err := s.entries.ListTimeEntriesByTask(ctx, taskID)
	if err != nil {
		return err
	}
	task.ActualMinutes = engine.TaskActualMinutes(entries)
	task.UpdatedAt = s.clock()
	_, err = s.tasks.UpdateTask(ctx, *task)
	return err
}

func (s *TimerService) ownedEntry(ctx context.Context, userID, id string) (*domain.TimeEntry, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ValidationFailed("entryId", "is required")
	}
	e, err := s.entries.GetTimeEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, domain.NotFound("time entry", id)
	}
	if e.UserID != userID {
		return nil, domain.Forbidden("time entry", id)
	}
	return e, nil
}
