package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sadopc/worklog/internal/domain"
	"github.com/sadopc/worklog/internal/engine"
)

type GoalService struct {
	core
	goals   GoalRepository
	tasks   TaskRepository
	entries TimeEntryRepository
	points  PointsRepository
}

func NewGoalService(goals GoalRepository, tasks TaskRepository, entries TimeEntryRepository, points PointsRepository, log *zap.Logger, opts ...Option) *GoalService {
	return &GoalService{core: newCore(log, opts), goals: goals, tasks: tasks, entries: entries, points: points}
}

type CreateGoalInput struct {
	WorkspaceID string            `json:"workspaceId" validate:"required,max=64"`
	Title       string            `json:"title" validate:"required,min=1,max=120"`
	Type        domain.GoalType   `json:"type" validate:"required,goal_type"`
	TargetValue int               `json:"targetValue" validate:"min=1,max=1000000"`
	Period      domain.GoalPeriod `json:"period" validate:"required,goal_period"`
}

func (s *GoalService) CreateGoal(ctx context.Context, userID string, in CreateGoalInput) (*domain.Goal, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := domain.Struct(in); err != nil {
		return nil, err
	}
	g, err := s.goals.CreateGoal(ctx, domain.Goal{
		UserID:      userID,
		WorkspaceID: in.WorkspaceID,
		Title:       in.Title,
		Type:        in.Type,
		TargetValue: in.TargetValue,
		Period:      in.Period,
		IsActive:    true,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("goal created", zap.String("user_id", userID), zap.String("goal_id", g.ID))
	return g, nil
}

type UpdateGoalInput struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=120"`
	TargetValue *int    `json:"targetValue" validate:"omitempty,min=1,max=1000000"`
	IsActive    *bool   `json:"isActive"`
}

func (s *GoalService) UpdateGoal(ctx context.Context, userID, id string, in UpdateGoalInput) (*domain.Goal, error) {
	if in.Title != nil {
		trimmed := strings.TrimSpace(*in.Title)
		in.Title = &trimmed
	}
	if err := domain.Struct(in); err != nil {
		return nil, err
	}
	g, err := s.ownedGoal(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		g.Title = *in.Title
	}
	if in.TargetValue != nil {
		g.TargetValue = *in.TargetValue
	}
	if in.IsActive != nil {
		g.IsActive = *in.IsActive
	}
	return s.goals.UpdateGoal(ctx, *g)
}

func (s *GoalService) DeleteGoal(ctx context.Context, userID, id string) error {
	g, err := s.ownedGoal(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.goals.DeleteGoal(ctx, g.ID); err != nil {
		return err
	}
	s.log.Info("goal deleted", zap.String("user_id", userID), zap.String("goal_id", g.ID))
	return nil
}

func (s *GoalService) ListGoals(ctx context.Context, userID string) ([]domain.Goal, error) {
	return s.goals.ListGoals(ctx, userID)
}

// GetProgress computes one goal's progress for the period containing ref.
func (s *GoalService) GetProgress(ctx context.Context, userID, goalID string, ref time.Time) (engine.GoalProgress, error) {
	g, err := s.ownedGoal(ctx, userID, goalID)
	if err != nil {
		return engine.GoalProgress{}, err
	}
	records, err := s.records(ctx, *g, ref)
	if err != nil {
		return engine.GoalProgress{}, err
	}
	return engine.CalculateProgress(*g, records, ref), nil
}

// GetAllGoalStatuses computes progress for every active goal of the user.
func (s *GoalService) GetAllGoalStatuses(ctx context.Context, userID string, ref time.Time) ([]engine.GoalProgress, error) {
	goals, err := s.goals.ListGoals(ctx, userID)
	if err != nil {
		return nil, err
	}
	var out []engine.GoalProgress
	for _, g := range goals {
		if !g.IsActive {
			continue
		}
		records, err := s.records(ctx, g, ref)
		if err != nil {
			return nil, err
		}
		out = append(out, engine.CalculateProgress(g, records, ref))
	}
	return out, nil
}

// records fetches only what the goal's type counts.
func (s *GoalService) records(ctx context.Context, g domain.Goal, ref time.Time) (engine.GoalRecords, error) {
	w := engine.DateRange(g.Period, ref)
	var (
		r   engine.GoalRecords
		err error
	)
	switch g.Type {
	case domain.GoalTasksCompleted:
		r.Tasks, err = s.tasks.ListTasksCompletedBetween(ctx, g.UserID, w.Start, w.End)
	case domain.GoalFocusMinutes:
		r.TimeEntries, err = s.entries.ListTimeEntriesBetween(ctx, g.UserID, w.Start, w.End)
	case domain.GoalPointsEarned:
		r.Points, err = s.points.ListPointsBetween(ctx, g.UserID, w.Start, w.End)
	}
	return r, err
}

func (s *GoalService) ownedGoal(ctx context.Context, userID, id string) (*domain.Goal, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ValidationFailed("goalId", "is required")
	}
	g, err := s.goals.GetGoal(ctx, id)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, domain.NotFound("goal", id)
	}
	if g.UserID != userID {
		return nil, domain.Forbidden("goal", id)
	}
	return g, nil
}
