package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sadopc/worklog/internal/domain"
)

// DefaultProjectColor is used when a project is created without a color.
const DefaultProjectColor = "#6C63FF"

type ProjectService struct {
	core
	projects ProjectRepository
}

func NewProjectService(projects ProjectRepository, log *zap.Logger, opts ...Option) *ProjectService {
	return &ProjectService{core: newCore(log, opts), projects: projects}
}

type CreateProjectInput struct {
	Name  string `json:"name" validate:"required,min=1,max=80"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

func (s *ProjectService) CreateProject(ctx context.Context, userID string, in CreateProjectInput) (*domain.Project, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := domain.Struct(in); err != nil {
		return nil, err
	}
	if in.Color == "" {
		in.Color = DefaultProjectColor
	}
	p, err := s.projects.CreateProject(ctx, domain.Project{UserID: userID, Name: in.Name, Color: in.Color})
	if err != nil {
		return nil, err
	}
	s.log.Info("project created", zap.String("user_id", userID), zap.String("project_id", p.ID))
	return p, nil
}

func (s *ProjectService) ListProjects(ctx context.Context, userID string, includeArchived bool) ([]domain.Project, error) {
	return s.projects.ListProjects(ctx, userID, includeArchived)
}

func (s *ProjectService) GetProject(ctx context.Context, userID, id string) (*domain.Project, error) {
	return ownedProject(ctx, s.projects, userID, id)
}

// SetArchived archives or restores a project. Its tasks are left alone.
func (s *ProjectService) SetArchived(ctx context.Context, userID, id string, archived bool) (*domain.Project, error) {
	p, err := ownedProject(ctx, s.projects, userID, id)
	if err != nil {
		return nil, err
	}
	p.Archived = archived
	p.UpdatedAt = s.clock()
	return s.projects.UpdateProject(ctx, *p)
}

func ownedProject(ctx context.Context, repo ProjectRepository, userID, id string) (*domain.Project, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ValidationFailed("projectId", "is required")
	}
	p, err := repo.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.NotFound("project", id)
	}
	if p.UserID != userID {
		return nil, domain.Forbidden("project", id)
	}
	return p, nil
}
