package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sadopc/worklog/internal/domain"
	"github.com/sadopc/worklog/internal/engine"
)

type TaskService struct {
	core
	tasks    TaskRepository
	projects ProjectRepository
}

func NewTaskService(tasks TaskRepository, projects ProjectRepository, log *zap.Logger, opts ...Option) *TaskService {
	return &TaskService{core: newCore(log, opts), tasks: tasks, projects: projects}
}

// CreateTaskInput describes a new task. A sub-task inherits its parent's
// project, so ProjectID may be left empty when ParentTaskID is set.
type CreateTaskInput struct {
	ProjectID        string            `json:"projectId" validate:"required_without=ParentTaskID,max=64"`
	ParentTaskID     *string           `json:"parentTaskId" validate:"omitempty,min=1,max=64"`
	Title            string            `json:"title" validate:"required,min=1,max=200"`
	Type             string            `json:"type" validate:"max=40"`
	Difficulty       domain.Difficulty `json:"difficulty" validate:"required,difficulty"`
	EstimatedMinutes *int              `json:"estimatedMinutes" validate:"omitempty,min=1,max=10080"`
}

func (s *TaskService) CreateTask(ctx context.Context, userID string, in CreateTaskInput) (*domain.Task, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Type = strings.TrimSpace(in.Type)
	if err := domain.Struct(in); err != nil {
		return nil, err
	}
	unlock := s.locker.Lock(userID)
	defer unlock()

	projectID := in.ProjectID
	if in.ParentTaskID != nil {
		parent, err := s.ownedTask(ctx, userID, *in.ParentTaskID)
		if err != nil {
			return nil, err
		}
		if err := engine.ValidateSubtaskCreation(*parent); err != nil {
			return nil, s.rejected("create task", err, zap.String("user_id", userID), zap.String("task_id", parent.ID))
		}
		if projectID != "" && projectID != parent.ProjectID {
			return nil, domain.ValidationFailed("projectId", "must match the parent task's project")
		}
		projectID = parent.ProjectID
	} else {
		p, err := ownedProject(ctx, s.projects, userID, projectID)
		if err != nil {
			return nil, err
		}
		if p.Archived {
			return nil, domain.ValidationFailed("projectId", "project is archived")
		}
	}

	t, err := s.tasks.CreateTask(ctx, domain.Task{
		UserID:           userID,
		ProjectID:        projectID,
		ParentTaskID:     in.ParentTaskID,
		Title:            in.Title,
		Type:             in.Type,
		Difficulty:       in.Difficulty,
		Status:           domain.StatusBacklog,
		EstimatedMinutes: in.EstimatedMinutes,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("task created", zap.String("user_id", userID), zap.String("task_id", t.ID))

	if t.ParentTaskID != nil {
		if err := s.rollup(ctx, *t.ParentTaskID); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (s *TaskService) GetTask(ctx context.Context, userID, id string) (*domain.Task, error) {
	return s.ownedTask(ctx, userID, id)
}

// ListTasks returns the user's tasks, limited to one project when
// projectID is set.
func (s *TaskService) ListTasks(ctx context.Context, userID, projectID string) ([]domain.Task, error) {
	if projectID == "" {
		return s.tasks.ListTasksByUser(ctx, userID)
	}
	if _, err := ownedProject(ctx, s.projects, userID, projectID); err != nil {
		return nil, err
	}
	return s.tasks.ListTasksByProject(ctx, projectID)
}

func (s *TaskService) ListSubtasks(ctx context.Context, userID, parentID string) ([]domain.Task, error) {
	if _, err := s.ownedTask(ctx, userID, parentID); err != nil {
		return nil, err
	}
	return s.tasks.ListSubtasks(ctx, parentID)
}

// UpdateTaskInput holds the fields to change; nil fields are left as is.
type UpdateTaskInput struct {
	Title            *string            `json:"title" validate:"omitempty,min=1,max=200"`
	Type             *string            `json:"type" validate:"omitempty,max=40"`
	Difficulty       *domain.Difficulty `json:"difficulty" validate:"omitempty,difficulty"`
	Progress         *int               `json:"progress" validate:"omitempty,min=0,max=100"`
	Status           *domain.TaskStatus `json:"status" validate:"omitempty,task_status"`
	EstimatedMinutes *int               `json:"estimatedMinutes" validate:"omitempty,min=1,max=10080"`
	ClearEstimate    bool               `json:"clearEstimate"`
}

func (s *TaskService) UpdateTask(ctx context.Context, userID, id string, in UpdateTaskInput) (*domain.Task, error) {
	if in.Title != nil {
		trimmed := strings.TrimSpace(*in.Title)
		in.Title = &trimmed
	}
	if err := domain.Struct(in); err != nil {
		return nil, err
	}
	unlock := s.locker.Lock(userID)
	defer unlock()
	t, err := s.ownedTask(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	// A parent's progress is the rollup of its sub-tasks; a requested
	// value is replaced by it.
	if in.Progress != nil && t.ParentTaskID == nil {
		subs, err := s.tasks.ListSubtasks(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		if len(subs) > 0 {
			rolled := engine.AggregateParentProgress(engine.ChildProgress(subs))
			in.Progress = &rolled
		}
	}

	oldProgress := t.Progress
	if in.Title != nil {
		t.Title = *in.Title
	}
	if in.Type != nil {
		t.Type = strings.TrimSpace(*in.Type)
	}
	if in.Difficulty != nil {
		t.Difficulty = *in.Difficulty
	}
	if in.Progress != nil {
		t.Progress = *in.Progress
	}
	switch {
	case in.ClearEstimate:
		t.EstimatedMinutes = nil
	case in.EstimatedMinutes != nil:
		t.EstimatedMinutes = in.EstimatedMinutes
	}
	now := s.clock()
	if in.Status != nil && *in.Status != t.Status {
		if *in.Status == domain.StatusCompleted {
			t.CompletedAt = &now
		} else {
			t.CompletedAt = nil
		}
		s.log.Info("task status changed", zap.String("user_id", userID), zap.String("task_id", t.ID),
			zap.String("from", string(t.Status)), zap.String("to", string(*in.Status)))
		t.Status = *in.Status
	}
	t.UpdatedAt = now

	updated, err := s.tasks.UpdateTask(ctx, *t)
	if err != nil {
		return nil, err
	}
	if updated.ParentTaskID != nil && updated.Progress != oldProgress {
		if err := s.rollup(ctx, *updated.ParentTaskID); err != nil {
			return nil, err
		}
	}
	return updated, nil
}

// CompleteTask marks the task COMPLETED at 100% progress. A parent keeps
// the rollup of its sub-tasks as its progress.
func (s *TaskService) CompleteTask(ctx context.Context, userID, id string) (*domain.Task, error) {
	status := domain.StatusCompleted
	progress := 100
	return s.UpdateTask(ctx, userID, id, UpdateTaskInput{Status: &status, Progress: &progress})
}

// DeleteTask soft-deletes a task. Deleting a root task deletes its
// sub-tasks too; deleting a sub-task recomputes its parent once.
func (s *TaskService) DeleteTask(ctx context.Context, userID, id string) error {
	unlock := s.locker.Lock(userID)
	defer unlock()
	t, err := s.ownedTask(ctx, userID, id)
	if err != nil {
		return err
	}
	if t.ParentTaskID == nil {
		subs, err := s.tasks.ListSubtasks(ctx, t.ID)
		if err != nil {
			return err
		}
		for _, sub := range subs {
			if err := s.tasks.DeleteTask(ctx, sub.ID); err != nil {
				return err
			}
		}
	}
	if err := s.tasks.DeleteTask(ctx, t.ID); err != nil {
		return err
	}
	s.log.Info("task deleted", zap.String("user_id", userID), zap.String("task_id", t.ID))
	if t.ParentTaskID != nil {
		return s.rollup(ctx, *t.ParentTaskID)
	}
	return nil
}

// rollup recomputes a parent's progress from its remaining sub-tasks.
// Callers hold the user's lock.
func (s *TaskService) rollup(ctx context.Context, parentID string) error {
	parent, err := s.tasks.GetTask(ctx, parentID)
	if err != nil {
		return err
	}
	if parent == nil {
		return nil
	}
	subs, err := s.tasks.ListSubtasks(ctx, parentID)
	if err != nil {
		return err
	}
	parent.Progress = engine.AggregateParentProgress(engine.ChildProgress(subs))
	parent.UpdatedAt = s.clock()
	if _, err := s.tasks.UpdateTask(ctx, *parent); err != nil {
		return err
	}
	s.log.Debug("parent progress recomputed", zap.String("task_id", parentID), zap.Int("progress", parent.Progress))
	return nil
}

func (s *TaskService) ownedTask(ctx context.Context, userID, id string) (*domain.Task, error) {
	return ownedTask(ctx, s.tasks, userID, id)
}

func ownedTask(ctx context.Context, repo TaskRepository, userID, id string) (*domain.Task, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ValidationFailed("taskId", "is required")
	}
	t, err := repo.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.NotFound("task", id)
	}
	if t.UserID != userID {
		return nil, domain.Forbidden("task", id)
	}
	return t, nil
}
