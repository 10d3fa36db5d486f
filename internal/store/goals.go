package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/sadopc/worklog/internal/domain"
)

const goalColumns = `id, user_id, workspace_id, title, type, target_value, period, is_active, created_at`

func (s *Store) CreateGoal(ctx context.Context, g domain.Goal) (*domain.Goal, error) {
	g.ID = uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO goals (`+goalColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.UserID, g.WorkspaceID, g.Title, string(g.Type), g.TargetValue, string(g.Period),
		boolInt(g.IsActive), formatTime(s.now()),
	)
	if err != nil {
		return nil, fmt.Errorf("insert goal: %w", err)
	}
	return s.GetGoal(ctx, g.ID)
}

func scanGoal(sc scanner) (*domain.Goal, error) {
	g := &domain.Goal{}
	var typ, period, createdAt string
	var active int
	if err := sc.Scan(&g.ID, &g.UserID, &g.WorkspaceID, &g.Title, &typ, &g.TargetValue, &period, &active, &createdAt); err != nil {
		return nil, err
	}
	g.Type = domain.GoalType(typ)
	g.Period = domain.GoalPeriod(period)
	g.IsActive = active == 1
	g.CreatedAt = parseTime(createdAt)
	return g, nil
}

func (s *Store) GetGoal(ctx context.Context, id string) (*domain.Goal, error) {
	g, err := scanGoal(s.db.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE id = ? AND deleted_at IS NULL`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get goal %s: %w", id, err)
	}
	return g, nil
}

func (s *Store) UpdateGoal(ctx context.Context, g domain.Goal) (*domain.Goal, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE goals SET title = ?, target_value = ?, is_active = ? WHERE id = ? AND deleted_at IS NULL`,
		g.Title, g.TargetValue, boolInt(g.IsActive), g.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update goal %s: %w", g.ID, err)
	}
	return s.GetGoal(ctx, g.ID)
}

func (s *Store) DeleteGoal(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE goals SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, formatTime(s.now()), id)
	if err != nil {
		return fmt.Errorf("delete goal %s: %w", id, err)
	}
	return nil
}

func (s *Store) ListGoals(ctx context.Context, userID string) ([]domain.Goal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE user_id = ? AND deleted_at IS NULL ORDER BY created_at, title`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []domain.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}
