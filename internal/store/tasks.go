package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sadopc/worklog/internal/domain"
)

const taskColumns = `id, user_id, project_id, parent_task_id, title, type, difficulty, progress, status,
	estimated_minutes, actual_minutes, completed_at, created_at, updated_at`

func (s *Store) CreateTask(ctx context.Context, t domain.Task) (*domain.Task, error) {
	t.ID = uuid.NewString()
	now := formatTime(s.now())
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.ProjectID, t.ParentTaskID, t.Title, t.Type, string(t.Difficulty), t.Progress,
		string(t.Status), t.EstimatedMinutes, t.ActualMinutes, formatTimePtr(t.CompletedAt), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return s.GetTask(ctx, t.ID)
}

func scanTask(sc scanner) (*domain.Task, error) {
	t := &domain.Task{}
	var parentID, completedAt sql.NullString
	var estimate sql.NullInt64
	var difficulty, status, createdAt, updatedAt string
	err := sc.Scan(&t.ID, &t.UserID, &t.ProjectID, &parentID, &t.Title, &t.Type, &difficulty, &t.Progress,
		&status, &estimate, &t.ActualMinutes, &completedAt, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	t.ParentTaskID = nullString(parentID)
	t.Difficulty = domain.Difficulty(difficulty)
	t.Status = domain.TaskStatus(status)
	t.EstimatedMinutes = nullInt(estimate)
	t.CompletedAt = parseNullTime(completedAt)
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	return t, nil
}

func (s *Store) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	t, err := scanTask(s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ? AND deleted_at IS NULL`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	return t, nil
}

func (s *Store) UpdateTask(ctx context.Context, t domain.Task) (*domain.Task, error) {
	updatedAt := t.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = s.now()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET title = ?, type = ?, difficulty = ?, progress = ?, status = ?,
		 estimated_minutes = ?, actual_minutes = ?, completed_at = ?, updated_at = ?
		 WHERE id = ? AND deleted_at IS NULL`,
		t.Title, t.Type, string(t.Difficulty), t.Progress, string(t.Status),
		t.EstimatedMinutes, t.ActualMinutes, formatTimePtr(t.CompletedAt), formatTime(updatedAt), t.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update task %s: %w", t.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("update task %s: %w", t.ID, sql.ErrNoRows)
	}
	return s.GetTask(ctx, t.ID)
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, formatTime(s.now()), id)
	if err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return nil
}

func (s *Store) listTasks(ctx context.Context, where string, args ...any) ([]domain.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE deleted_at IS NULL AND `+where+` ORDER BY created_at, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (s *Store) ListTasksByUser(ctx context.Context, userID string) ([]domain.Task, error) {
	return s.listTasks(ctx, `user_id = ?`, userID)
}

func (s *Store) ListTasksByProject(ctx context.Context, projectID string) ([]domain.Task, error) {
	return s.listTasks(ctx, `project_id = ?`, projectID)
}

func (s *Store) ListSubtasks(ctx context.Context, parentID string) ([]domain.Task, error) {
	return s.listTasks(ctx, `parent_task_id = ?`, parentID)
}

func (s *Store) ListTasksCompletedBetween(ctx context.Context, userID string, from, to time.Time) ([]domain.Task, error) {
	return s.listTasks(ctx,
		`user_id = ? AND status = ? AND completed_at >= ? AND completed_at <= ?`,
		userID, string(domain.StatusCompleted), formatTime(from), formatTime(to))
}
