package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/sadopc/worklog/internal/domain"
)

const projectColumns = `id, user_id, name, color, archived, created_at, updated_at`

func (s *Store) CreateProject(ctx context.Context, p domain.Project) (*domain.Project, error) {
	p.ID = uuid.NewString()
	now := s.now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (`+projectColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Name, p.Color, boolInt(p.Archived), formatTime(now), formatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	return s.GetProject(ctx, p.ID)
}

func scanProject(sc scanner) (*domain.Project, error) {
	p := &domain.Project{}
	var createdAt, updatedAt string
	var archived int
	if err := sc.Scan(&p.ID, &p.UserID, &p.Name, &p.Color, &archived, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	p.Archived = archived == 1
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return p, nil
}

func (s *Store) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	p, err := scanProject(s.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project %s: %w", id, err)
	}
	return p, nil
}

func (s *Store) ListProjects(ctx context.Context, userID string, includeArchived bool) ([]domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE user_id = ?`
	if !includeArchived {
		query += ` AND archived = 0`
	}
	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

func (s *Store) UpdateProject(ctx context.Context, p domain.Project) (*domain.Project, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE projects SET name = ?, color = ?, archived = ?, updated_at = ? WHERE id = ?`,
		p.Name, p.Color, boolInt(p.Archived), formatTime(s.now()), p.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update project %s: %w", p.ID, err)
	}
	return s.GetProject(ctx, p.ID)
}
